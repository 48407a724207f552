package utils

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// ParseLimit reads the limit query param. Missing or malformed values yield
// zero so services apply their own default.
func ParseLimit(c *fiber.Ctx) int {
	limit := parseInt(c.Query("limit"), 0)
	if limit < 0 {
		return 0
	}
	return limit
}

func parseInt(value string, fallback int) int {
	if parsed, err := strconv.Atoi(value); err == nil {
		return parsed
	}
	return fallback
}
