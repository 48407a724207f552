package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"

	"github.com/example/perfumatch/internal/config"
	"github.com/example/perfumatch/internal/handlers"
	"github.com/example/perfumatch/internal/importer"
	"github.com/example/perfumatch/internal/middleware"
	plog "github.com/example/perfumatch/internal/pkg/logger"
	"github.com/example/perfumatch/internal/services"
)

// Options carries the optional integrations. Zero values disable them.
type Options struct {
	Cache   services.Cache
	Indexer *services.SearchIndexer
}

// NewApp builds the fiber app with the shared middleware stack.
func NewApp(cfg *config.Config, accessLogs bool) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "PerfuMatch API",
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(recover.New())
	if accessLogs {
		app.Use(logger.New())
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	return app
}

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config, log *plog.Logger, opts Options) {
	layers := services.LayerResolverFor(cfg.NoteLayers)

	finder := services.NewAlternativeFinder(db, log, layers, cfg.OnlineMinSimilarity)
	searchService := services.NewSearchService(db, log, opts.Cache, layers, finder)
	ratingService := services.NewRatingService(db, log)
	historyService := services.NewHistoryService(db, log, layers)
	catalogService := services.NewCatalogService(db, log, opts.Cache)
	similarityService := services.NewSimilarityService(db, log, opts.Cache, cfg.SimilarityBatchSize, cfg.SimilarityThreshold)

	authHandler := handlers.NewAuthHandler(cfg, log)
	perfumeHandler := handlers.NewPerfumeHandler(searchService, finder, ratingService, historyService)
	catalogHandler := handlers.NewCatalogHandler(catalogService, historyService)
	adminHandler := handlers.NewAdminHandler(handlers.AdminDeps{
		Catalog:      catalogService,
		Similarities: similarityService,
		Importer:     importer.New(db, log, cfg.ImportBatchSize).WithCache(opts.Cache),
		Sources:      cfg.Sources,
		Notifier:     services.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramAdminChat, log),
		Indexer:      opts.Indexer,
	}, log)

	api := app.Group("/api")

	api.Get("/health", catalogHandler.Health)

	// Perfumes
	perfumes := api.Group("/perfume")
	perfumeHandler.RegisterPerfumeRoutes(perfumes)
	api.Post("/ratings/:id/helpful", perfumeHandler.MarkHelpful)

	// Catalog listings
	api.Get("/brands", catalogHandler.ListBrands)
	api.Get("/families", catalogHandler.ListFamilies)
	api.Get("/notes", catalogHandler.ListNotes)
	api.Get("/notes/suggest", catalogHandler.SuggestNotes)
	api.Get("/popular-perfumes", catalogHandler.Popular)

	api.Post("/admin/login", authHandler.Login)

	// Protected routes
	admin := api.Group("/admin", middleware.AdminMiddleware(cfg.JWTSecret))
	admin.Post("/import-data", adminHandler.ImportData)
	admin.Post("/similarities", adminHandler.ComputeSimilarities)
	admin.Delete("/similarities", adminHandler.DeleteSimilarities)
	admin.Post("/reset", adminHandler.Reset)
	admin.Get("/stats", adminHandler.Stats)
	admin.Post("/reindex", adminHandler.Reindex)
}
