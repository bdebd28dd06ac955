package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/johanneskirmayr/CarMem/internal/api/handlers"
	mw "github.com/johanneskirmayr/CarMem/internal/api/middleware"
	"github.com/johanneskirmayr/CarMem/internal/config"
	"github.com/johanneskirmayr/CarMem/internal/domain"
	"github.com/johanneskirmayr/CarMem/internal/embedding"
	"github.com/johanneskirmayr/CarMem/internal/llm"
	"github.com/johanneskirmayr/CarMem/internal/service"
	"github.com/johanneskirmayr/CarMem/internal/store"
)

// App holds the wired router.
type App struct {
	Router *chi.Mux
}

func NewApp(db *pgxpool.Pool, logger *zap.Logger) *App {
	preferenceStore := store.NewPreferenceStore(db)

	// External clients via provider factory
	var llmClient domain.LLMClient
	var embeddingClient domain.EmbeddingClient

	llmProvider := config.LLMProvider()
	embeddingProvider := config.EmbeddingProvider()

	var err error
	llmClient, err = llm.NewClient(llmProvider, config.LLMAPIKey(), config.LLMModel())
	if err != nil {
		logger.Warn("LLM client initialization failed", zap.String("provider", llmProvider), zap.Error(err))
	} else {
		logger.Info("LLM client initialized", zap.String("provider", llmProvider))
	}

	embeddingClient, err = embedding.NewClient(embeddingProvider, config.EmbeddingAPIKey(), config.EmbeddingModel())
	if err != nil {
		logger.Warn("Embedding client initialization failed", zap.String("provider", embeddingProvider), zap.Error(err))
	} else {
		logger.Info("Embedding client initialized", zap.String("provider", embeddingProvider))
	}

	// Services
	extractionSvc := service.NewExtractionService(llmClient, logger)
	maintenanceSvc := service.NewMaintenanceService(preferenceStore, llmClient, embeddingClient, logger, config.MergeOnPass())

	// Handlers
	preferenceHandler := handlers.NewPreferenceHandler(extractionSvc, maintenanceSvc, preferenceStore, embeddingClient, logger)

	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Metrics())
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	r.Get("/healthz", healthHandler(db))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/extract", preferenceHandler.Extract)
		r.Post("/memorize", preferenceHandler.Memorize)
		r.Route("/preferences", func(r chi.Router) {
			r.Post("/maintain", preferenceHandler.Maintain)
			r.Post("/search", preferenceHandler.Search)
		})
	})

	return &App{Router: r}
}

func healthHandler(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("database unreachable"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
