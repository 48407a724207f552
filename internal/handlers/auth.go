package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/perfumatch/internal/config"
	"github.com/example/perfumatch/internal/pkg/logger"
	"github.com/example/perfumatch/internal/utils"
)

// AuthHandler issues admin tokens.
type AuthHandler struct {
	cfg *config.Config
	log *logger.Logger
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(cfg *config.Config, log *logger.Logger) *AuthHandler {
	return &AuthHandler{cfg: cfg, log: log.With("handler", "auth")}
}

type loginRequest struct {
	Password string `json:"password"`
}

// Login exchanges the admin password for a JWT.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if h.cfg.AdminPasswordHash == "" {
		return fiber.NewError(fiber.StatusServiceUnavailable, "admin login is not configured")
	}

	if req.Password == "" || !utils.CheckPassword(h.cfg.AdminPasswordHash, req.Password) {
		h.log.Warn("admin login rejected", "ip", c.IP())
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, "admin", utils.RoleAdmin, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"token":      token,
		"expires_in": int(h.cfg.TokenExpires.Seconds()),
	})
}
