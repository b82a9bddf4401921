package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/veralith/clienteling-backend/internal/config"
	"github.com/veralith/clienteling-backend/internal/db"
	"github.com/veralith/clienteling-backend/internal/handlers"
	"github.com/veralith/clienteling-backend/internal/logger"
	"github.com/veralith/clienteling-backend/internal/observability"
	"github.com/veralith/clienteling-backend/internal/repos"
	"github.com/veralith/clienteling-backend/internal/server"
	"github.com/veralith/clienteling-backend/internal/services"
	"github.com/veralith/clienteling-backend/internal/utils"
)

func main() {
	// Logger
	logMode := utils.GetEnv("LOG_MODE", "development", nil)
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Config
	log.Info("Loading configuration from main...")
	cfg, err := config.Load(log)
	if err != nil {
		log.Fatal("Invalid configuration", "error", err)
	}

	// Tracing
	otelShutdown := observability.InitOTel(context.Background(), log, cfg)
	if otelShutdown != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(ctx)
		}()
	}

	// Postgres
	postgresService, err := db.NewPostgresService(cfg, log)
	if err != nil {
		log.Fatal("Postgres init failed", "error", err)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Fatal("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	employeeRepo := repos.NewEmployeeRepo(thePG, log)
	customerRepo := repos.NewCustomerRepo(thePG, log)
	sessionRepo := repos.NewSessionRepo(thePG, log)
	transcriptRepo := repos.NewTranscriptChunkRepo(thePG, log)
	noteRepo := repos.NewCoachingNoteRepo(thePG, log)
	faceRepo := repos.NewFaceEmbeddingRepo(thePG, log)
	memoryRepo := repos.NewMemoryRepo(thePG, log)
	preferenceRepo := repos.NewPreferenceRepo(thePG, log)

	// Context cache
	var contextCache services.ContextCache
	if cfg.RedisAddr != "" {
		contextCache, err = services.NewRedisContextCache(log, cfg.RedisAddr, cfg.RedisPassword, time.Duration(cfg.ContextCacheTTLSecs)*time.Second)
		if err != nil {
			log.Fatal("Redis init failed", "error", err)
		}
	} else {
		log.Info("No REDIS_ADDR configured, context cache disabled")
		contextCache = services.NewNoopContextCache()
	}

	// Services
	log.Info("Setting up Services from main...")
	txRunner := services.NewTxRunner(thePG)
	searchService := services.NewSearchService(log, cfg, faceRepo, memoryRepo)
	contextService := services.NewContextService(log, cfg, txRunner, contextCache, customerRepo, preferenceRepo, sessionRepo)
	consentService := services.NewConsentService(log, txRunner, contextCache, customerRepo, sessionRepo, faceRepo, memoryRepo, preferenceRepo)
	ingestionService := services.NewIngestionService(log, cfg, employeeRepo, customerRepo, sessionRepo, transcriptRepo, noteRepo, faceRepo, memoryRepo, preferenceRepo)

	// Handlers
	log.Info("Setting up handlers from main...")
	customerHandler := handlers.NewCustomerHandler(contextService, consentService)
	searchHandler := handlers.NewSearchHandler(searchService, cfg.DefaultSearchLimit)
	ingestionHandler := handlers.NewIngestionHandler(ingestionService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		ServiceName:      cfg.OtelServiceName,
		CustomerHandler:  customerHandler,
		SearchHandler:    searchHandler,
		IngestionHandler: ingestionHandler,
	})

	log.Info("Starting server", "port", cfg.ServerPort)
	if err := router.Run(":" + cfg.ServerPort); err != nil {
		log.Fatal("Server exited", "error", err)
	}
}
