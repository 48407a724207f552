package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/perfumatch/internal/services"
	"github.com/example/perfumatch/internal/utils"
)

// CatalogHandler serves read-only catalog listings.
type CatalogHandler struct {
	catalog *services.CatalogService
	history *services.HistoryService
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(catalog *services.CatalogService, history *services.HistoryService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, history: history}
}

// ListBrands returns brands with their perfume counts, optionally of one type.
func (h *CatalogHandler) ListBrands(c *fiber.Ctx) error {
	brands, err := h.catalog.ListBrands(c.UserContext(), c.Query("type"))
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(fiber.Map{"success": true, "data": brands})
}

// ListFamilies returns every perfume family.
func (h *CatalogHandler) ListFamilies(c *fiber.Ctx) error {
	families, err := h.catalog.ListFamilies(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": families})
}

// ListNotes returns notes, optionally of one layer.
func (h *CatalogHandler) ListNotes(c *fiber.Ctx) error {
	notes, err := h.catalog.ListNotes(c.UserContext(), c.Query("type"))
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(fiber.Map{"success": true, "data": notes})
}

// SuggestNotes returns note names close to q.
func (h *CatalogHandler) SuggestNotes(c *fiber.Ctx) error {
	suggestions, err := h.catalog.SuggestNotes(c.UserContext(), c.Query("q"), utils.ParseLimit(c))
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(fiber.Map{"success": true, "data": suggestions})
}

// Popular returns the most searched terms and the best rated perfumes.
func (h *CatalogHandler) Popular(c *fiber.Ctx) error {
	popular, err := h.history.Popular(c.UserContext(), utils.ParseLimit(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": popular})
}

// Health reports database status. Unhealthy responses use 503.
func (h *CatalogHandler) Health(c *fiber.Ctx) error {
	health := h.catalog.Health(c.UserContext())
	if health.Status != "healthy" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(health)
	}
	return c.JSON(health)
}
