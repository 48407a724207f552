package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/perfumatch/internal/models"
	"github.com/example/perfumatch/internal/services"
	"github.com/example/perfumatch/internal/utils"
)

// PerfumeHandler serves perfume lookups, alternatives and ratings.
type PerfumeHandler struct {
	search  *services.SearchService
	finder  *services.AlternativeFinder
	ratings *services.RatingService
	history *services.HistoryService
}

// NewPerfumeHandler constructs PerfumeHandler.
func NewPerfumeHandler(search *services.SearchService, finder *services.AlternativeFinder, ratings *services.RatingService, history *services.HistoryService) *PerfumeHandler {
	return &PerfumeHandler{search: search, finder: finder, ratings: ratings, history: history}
}

type searchRequest struct {
	SearchTerm string   `json:"searchTerm"`
	SearchType string   `json:"searchType"`
	Notes      []string `json:"notes"`
	Gender     string   `json:"gender"`
	Limit      int      `json:"limit"`
}

// Search runs a name, notes or family search and records it.
func (h *PerfumeHandler) Search(c *fiber.Ctx) error {
	var req searchRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	results, err := h.search.Search(c.UserContext(), services.SearchQuery{
		Term:   req.SearchTerm,
		Notes:  req.Notes,
		Type:   services.SearchType(req.SearchType),
		Gender: req.Gender,
		Limit:  req.Limit,
	})
	if err != nil {
		return serviceError(err)
	}

	term := req.SearchTerm
	if term == "" && len(req.Notes) > 0 {
		term = strings.Join(req.Notes, ",")
	}
	h.history.Record(c.UserContext(), models.SearchHistory{
		SearchTerm:   term,
		SearchType:   strings.ToLower(req.SearchType),
		ResultsCount: len(results),
		IPAddress:    c.IP(),
		UserAgent:    c.Get(fiber.HeaderUserAgent),
	})

	return c.JSON(fiber.Map{
		"success": true,
		"data":    results,
		"count":   len(results),
	})
}

type matchRequest struct {
	Notes         []string `json:"notes"`
	Gender        string   `json:"gender"`
	MinSimilarity float64  `json:"minSimilarity"`
	Limit         int      `json:"limit"`
}

// Match ranks alternatives against a bare note list.
func (h *PerfumeHandler) Match(c *fiber.Ctx) error {
	var req matchRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	matches, err := h.finder.FindOnline(c.UserContext(), services.OnlineQuery{
		Notes:         req.Notes,
		Gender:        req.Gender,
		MinSimilarity: req.MinSimilarity,
		Limit:         req.Limit,
	})
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    matches,
		"count":   len(matches),
	})
}

// GetPerfume returns one perfume with grouped notes.
func (h *PerfumeHandler) GetPerfume(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	perfume, err := h.search.GetPerfume(c.UserContext(), id)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(fiber.Map{"success": true, "data": perfume})
}

// Alternatives returns the ranked alternatives of a perfume.
func (h *PerfumeHandler) Alternatives(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	alternatives, err := h.search.GetAlternatives(c.UserContext(), id, utils.ParseLimit(c))
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    alternatives,
		"count":   len(alternatives),
	})
}

type rateRequest struct {
	Rating       int    `json:"rating"`
	Comment      string `json:"comment"`
	SimilarityID string `json:"similarity_id"`
}

// Rate stores a visitor rating for a perfume.
func (h *PerfumeHandler) Rate(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req rateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	in := services.RatingInput{
		PerfumeID: id,
		Rating:    req.Rating,
		Comment:   req.Comment,
		IPAddress: c.IP(),
	}
	if req.SimilarityID != "" {
		simID, err := uuid.Parse(req.SimilarityID)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid similarity_id")
		}
		in.SimilarityID = &simID
	}

	rating, err := h.ratings.Rate(c.UserContext(), in)
	if err != nil {
		return serviceError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": rating})
}

// Ratings lists the latest ratings of a perfume.
func (h *PerfumeHandler) Ratings(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	ratings, err := h.ratings.ForPerfume(c.UserContext(), id, utils.ParseLimit(c))
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(fiber.Map{"success": true, "data": ratings})
}

// MarkHelpful bumps a rating's helpful counter.
func (h *PerfumeHandler) MarkHelpful(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	count, err := h.ratings.MarkHelpful(c.UserContext(), id)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(fiber.Map{"success": true, "helpful_count": count})
}

// RegisterPerfumeRoutes mounts the perfume endpoints on router.
func (h *PerfumeHandler) RegisterPerfumeRoutes(router fiber.Router) {
	router.Post("/search", h.Search)
	router.Post("/match", h.Match)
	router.Get("/:id", h.GetPerfume)
	router.Get("/:id/alternatives", h.Alternatives)
	router.Get("/:id/ratings", h.Ratings)
	router.Post("/:id/rate", h.Rate)
}
