package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/perfumatch/internal/config"
	"github.com/example/perfumatch/internal/importer"
	"github.com/example/perfumatch/internal/middleware"
	"github.com/example/perfumatch/internal/pkg/logger"
	"github.com/example/perfumatch/internal/services"
)

// AdminHandler runs the batch jobs and maintenance operations.
type AdminHandler struct {
	catalog      *services.CatalogService
	similarities *services.SimilarityService
	importer     *importer.Importer
	sources      []config.SourceFile
	notifier     *services.TelegramNotifier
	indexer      *services.SearchIndexer
	log          *logger.Logger
}

// AdminDeps groups what the admin endpoints need. Notifier and Indexer are optional.
type AdminDeps struct {
	Catalog      *services.CatalogService
	Similarities *services.SimilarityService
	Importer     *importer.Importer
	Sources      []config.SourceFile
	Notifier     *services.TelegramNotifier
	Indexer      *services.SearchIndexer
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(deps AdminDeps, log *logger.Logger) *AdminHandler {
	return &AdminHandler{
		catalog:      deps.Catalog,
		similarities: deps.Similarities,
		importer:     deps.Importer,
		sources:      deps.Sources,
		notifier:     deps.Notifier,
		indexer:      deps.Indexer,
		log:          log.With("handler", "admin"),
	}
}

// ImportData loads every configured source file and imports it. The optional
// source query param restricts the run to one parser.
func (h *AdminHandler) ImportData(c *fiber.Ctx) error {
	files := h.sources
	if only := strings.ToLower(strings.TrimSpace(c.Query("source"))); only != "" {
		if _, err := importer.SourceFor(only); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		files = nil
		for _, f := range h.sources {
			if f.Source == only {
				files = append(files, f)
			}
		}
	}

	ctx := c.UserContext()
	batches, err := importer.LoadAll(ctx, files, h.log)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	results, err := h.importer.ImportAll(ctx, batches)
	if err != nil {
		return err
	}

	role, _ := middleware.CurrentRole(c)
	h.log.Info("import finished", "by", role, "sources", len(results))
	if h.notifier != nil {
		if err := h.notifier.NotifyImport(results); err != nil {
			h.log.Warn("import notification failed", "error", err)
		}
	}

	return c.JSON(fiber.Map{"success": true, "data": results})
}

// ComputeSimilarities runs the similarity batch. With fresh=true every
// stored edge is removed first.
func (h *AdminHandler) ComputeSimilarities(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if c.QueryBool("fresh") {
		if _, err := h.similarities.DeleteAll(ctx); err != nil {
			return err
		}
	}

	res, err := h.similarities.ComputeAll(ctx)
	if err != nil {
		return err
	}

	if h.notifier != nil {
		if err := h.notifier.NotifySimilarities(res); err != nil {
			h.log.Warn("similarity notification failed", "error", err)
		}
	}
	return c.JSON(fiber.Map{"success": true, "data": res})
}

// DeleteSimilarities removes every stored edge.
func (h *AdminHandler) DeleteSimilarities(c *fiber.Ctx) error {
	deleted, err := h.similarities.DeleteAll(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "deleted": deleted})
}

// Reset empties the catalog.
func (h *AdminHandler) Reset(c *fiber.Ctx) error {
	res, err := h.catalog.Reset(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": res})
}

// Stats returns catalog counts.
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.catalog.Stats(c.UserContext())
	if err != nil {
		return err
	}

	top, err := h.similarities.Top(c.UserContext(), 10)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"counts":           stats,
			"top_similarities": top,
		},
	})
}

// Reindex rebuilds the search index when one is configured.
func (h *AdminHandler) Reindex(c *fiber.Ctx) error {
	if h.indexer == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "search index is not configured")
	}

	indexed, err := h.indexer.Reindex(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "indexed": indexed})
}
