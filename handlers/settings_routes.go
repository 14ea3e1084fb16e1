// handlers/settings_routes.go
package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/hieuntrw/hlr-sub001/services"
)

func SetupSettingsRoutes(app *fiber.App, settingsService *services.SettingsService) {
	admin := app.Group("/admin")
	admin.Get("/settings/star-tiers", adminOnly(settingsService.GetStarTiers)...)
	admin.Put("/settings/star-tiers", adminOnly(settingsService.PutStarTiers)...)
}
