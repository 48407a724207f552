package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/example/perfumatch/internal/services"
)

// serviceError maps service sentinels onto HTTP errors. Anything else is
// returned untouched and ends up as a 500.
func serviceError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, services.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrInvalidRating):
		return fiber.NewError(fiber.StatusBadRequest, "rating must be between 1 and 5")
	case errors.Is(err, services.ErrInvalidInput):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return err
}

// ErrorHandler renders every error in the API envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	return c.Status(code).JSON(fiber.Map{"success": false, "error": message})
}
