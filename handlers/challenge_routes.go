// handlers/challenge_routes.go
package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/hieuntrw/hlr-sub001/middleware"
	"github.com/hieuntrw/hlr-sub001/services"
)

func SetupChallengeRoutes(app *fiber.App, challengeService *services.ChallengeService) {
	// 🔓 Member-facing
	app.Get("/challenges/:id/leaderboard", challengeService.GetLeaderboard)

	// 🔐 Admin
	admin := app.Group("/admin")
	admin.Post("/challenges/recompute", adminOnly(challengeService.RecomputeParticipantCounts)...)
	admin.Post("/challenges/:id/recalc", adminOnly(challengeService.RecalcChallenge)...)
}

// adminOnly guards a handler with the gateway user context and the admin role check.
func adminOnly(h fiber.Handler) []fiber.Handler {
	return []fiber.Handler{middleware.UserContextMiddleware(), middleware.AdminOnly(), h}
}
