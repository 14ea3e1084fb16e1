package services

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/hieuntrw/hlr-sub001/engine"
	"github.com/hieuntrw/hlr-sub001/logger"
)

// ErrInvalidInput marks errors caused by the request rather than the server.
var ErrInvalidInput = errors.New("invalid input")

func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrInvalidInput):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes {"error": ...} with the status matching err.
func respondError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		logger.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
