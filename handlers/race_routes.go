// handlers/race_routes.go
package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/hieuntrw/hlr-sub001/services"
)

func SetupRaceRoutes(app *fiber.App, raceRewardService *services.RaceRewardService, reportService *services.ReportService) {
	admin := app.Group("/admin")
	admin.Post("/races/:id/process-results", adminOnly(raceRewardService.ProcessRaceResults)...)
	admin.Get("/races/:id/rewards", adminOnly(raceRewardService.GetRaceRewards)...)

	admin.Get("/batches/:id", adminOnly(reportService.GetBatch)...)
}
