package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pathwise/pathwise-backend/internal/clients/openai"
	redisclient "github.com/pathwise/pathwise-backend/internal/clients/redis"
	"github.com/pathwise/pathwise-backend/internal/db"
	"github.com/pathwise/pathwise-backend/internal/embedding"
	"github.com/pathwise/pathwise-backend/internal/handlers"
	"github.com/pathwise/pathwise-backend/internal/logger"
	"github.com/pathwise/pathwise-backend/internal/recommend"
	"github.com/pathwise/pathwise-backend/internal/repos"
	"github.com/pathwise/pathwise-backend/internal/server"
	"github.com/pathwise/pathwise-backend/internal/services"
	"github.com/pathwise/pathwise-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err := postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	userProfileRepo := repos.NewUserProfileRepo(thePG, log)
	contentRepo := repos.NewContentRepo(thePG, log)
	interactionRepo := repos.NewInteractionRepo(thePG, log)

	// Embedding provider; the engine runs fallback-only without credentials.
	var provider embedding.Provider
	if cfg, ok := openai.ConfigFromEnv(log); ok {
		client, err := openai.NewClient(log, cfg)
		if err != nil {
			log.Error("Could not init OpenAIClient", "error", err)
			os.Exit(1)
		}
		provider = client
	} else {
		log.Info("No embedding provider configured, using fallback encoder only")
	}

	dims := utils.GetEnvAsInt("EMBEDDING_DIMENSIONS", embedding.DefaultDimensions, log)
	providerTimeout := time.Duration(utils.GetEnvAsInt("EMBEDDING_TIMEOUT_SECONDS", 10, log)) * time.Second
	codec := embedding.NewCodec(log, provider, dims, providerTimeout)

	// Redis vector cache; optional.
	var cache redisclient.VectorCache
	if c, err := redisclient.NewVectorCache(log); err != nil {
		log.Warn("Redis vector cache unavailable, reading vectors from Postgres only", "error", err)
	} else {
		cache = c
		defer cache.Close()
	}

	// Engine
	maxCandidates := utils.GetEnvAsInt("MAX_CANDIDATES", recommend.DefaultMaxCandidates, log)
	threshold := utils.GetEnvAsFloat("SCORE_THRESHOLD", recommend.DefaultScoreThreshold, log)
	selector := recommend.NewCandidateSelector(maxCandidates)
	engine := recommend.NewScoringEngine(log, threshold)

	// Services
	log.Info("Setting up Services from main...")
	recService := services.NewRecommendationService(
		thePG,
		log,
		userProfileRepo,
		contentRepo,
		interactionRepo,
		cache,
		codec,
		selector,
		engine,
	)

	// Handlers + Router
	recHandler := handlers.NewRecommendationHandler(log, recService)

	allowOrigins := strings.Split(utils.GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000", log), ",")
	router := server.NewRouter(server.RouterConfig{
		RecommendationHandler: recHandler,
		AllowOrigins:          allowOrigins,
	})

	port := utils.GetEnv("PORT", "8080", log)
	log.Info("Starting server", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Server exited", "error", err)
	}
}
