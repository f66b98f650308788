package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/karthikc911/cinevibe-sub001/internal/api"
	"github.com/karthikc911/cinevibe-sub001/internal/api/handlers"
	"github.com/karthikc911/cinevibe-sub001/internal/catalog"
	"github.com/karthikc911/cinevibe-sub001/internal/config"
	"github.com/karthikc911/cinevibe-sub001/internal/embeddings"
	"github.com/karthikc911/cinevibe-sub001/internal/enrichment"
	"github.com/karthikc911/cinevibe-sub001/internal/llm"
	"github.com/karthikc911/cinevibe-sub001/internal/preferences"
	"github.com/karthikc911/cinevibe-sub001/internal/queue"
	"github.com/karthikc911/cinevibe-sub001/internal/ratelimit"
	"github.com/karthikc911/cinevibe-sub001/internal/repository"
	"github.com/karthikc911/cinevibe-sub001/internal/synthesis"
	"github.com/karthikc911/cinevibe-sub001/internal/taste"
	"github.com/karthikc911/cinevibe-sub001/internal/tmdb"
	"github.com/karthikc911/cinevibe-sub001/pkg/database"
)

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Configure slog with the log level from config
	setupLogging(cfg.LogLevel)

	// Initialize database connection with pgvector type registration
	db, err := database.NewPostgresPool(ctx, cfg.DatabaseURL, database.WithVectorTypes())
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.EnsureSchema(ctx, db); err != nil {
		slog.Error("Failed to ensure database schema", "error", err)
		os.Exit(1)
	}

	// Embedding provider selection
	embeddingClient, err := newEmbeddingClient(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize embedding client", "error", err)
		os.Exit(1)
	}
	slog.Info("Embedding client initialized", "provider", cfg.EmbeddingProvider, "dimensions", cfg.EmbeddingDims)

	// LLM clients: the retrieval client may point at a search-augmented
	// OpenAI-compatible provider, the refinement client stays on OpenAI.
	retrievalClient := llm.NewChatClient(cfg.RetrievalAPIKey, cfg.RetrievalModel, llm.WithBaseURL(cfg.RetrievalBaseURL))
	refinementClient := llm.NewChatClient(cfg.OpenAIAPIKey, cfg.RefinementModel)

	// Repositories
	ratingsRepo := repository.NewRatingsRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	recsRepo := repository.NewRecommendationsRepository(db)
	prefsRepo := repository.NewPreferencesRepository(db)

	// External catalog client behind the sliding-window limiter
	var external catalog.ExternalClient
	if cfg.CatalogAPIKey != "" {
		external = tmdb.NewClientWithOptions(tmdb.ClientOptions{
			BaseURL: cfg.CatalogBaseURL,
			APIKey:  cfg.CatalogAPIKey,
		})
		slog.Info("External catalog enabled", "rate_limit", cfg.CatalogRateLimit)
	} else {
		slog.Info("External catalog disabled (CATALOG_API_KEY not set)")
	}

	catalogService := catalog.NewService(catalog.ServiceParams{
		Store:    catalogRepo,
		External: external,
		Limiter:  ratelimit.NewLimiter(cfg.CatalogRateLimit, ratelimit.DefaultWindow),
	})

	// Synthesis pipeline
	builder := taste.NewBuilder(taste.BuilderParams{
		Ratings:    ratingsRepo,
		MinRatings: cfg.MinRatingsForSynthesis,
		RatingCap:  cfg.TasteProfileRatingCap,
	})

	orchestrator := synthesis.NewOrchestrator(synthesis.OrchestratorParams{
		Builder:    builder,
		Retrieval:  synthesis.NewLLMRetrievalStage(retrievalClient),
		Refinement: synthesis.NewLLMRefinementStage(refinementClient),
		Catalog:    catalogService,
		Records:    recsRepo,
	})

	// Queue, enrichment, preferences
	queueService := queue.NewService(recsRepo, nil)

	enricher := enrichment.NewEnricher(enrichment.EnricherParams{
		Facts:   refinementClient,
		Catalog: catalogRepo,
	})

	prefsService, err := preferences.NewService(preferences.ServiceParams{
		Store:    prefsRepo,
		Ratings:  ratingsRepo,
		Embedder: embeddingClient,
		Analyzer: refinementClient,
	})
	if err != nil {
		slog.Error("Failed to initialize preferences service", "error", err)
		os.Exit(1)
	}

	// HTTP surface
	router := api.NewRouter(api.RouterParams{
		Health:      handlers.NewHealthHandler(),
		Synthesis:   handlers.NewSynthesisHandler(orchestrator),
		Queue:       handlers.NewQueueHandler(queueService),
		Preferences: handlers.NewPreferencesHandler(prefsService),
		Ratings:     handlers.NewRatingsHandler(ratingsRepo, queueService, nil),
		Items:       handlers.NewItemsHandler(catalogRepo, enricher),
		APIKey:      cfg.APIKey,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // synthesis runs span several LLM calls
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("Starting server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server exited")
}

// newEmbeddingClient builds the embedding client for the configured provider.
func newEmbeddingClient(ctx context.Context, cfg *config.Config) (embeddings.Client, error) {
	if cfg.EmbeddingProvider == "gemini" {
		return embeddings.NewGeminiClient(ctx, cfg.GeminiAPIKey,
			embeddings.WithGeminiDimensions(cfg.EmbeddingDims))
	}

	return embeddings.NewOpenAIClient(cfg.OpenAIAPIKey,
		embeddings.WithOpenAIDimensions(cfg.EmbeddingDims)), nil
}

// setupLogging configures slog with the specified log level.
func setupLogging(level string) {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))
}
