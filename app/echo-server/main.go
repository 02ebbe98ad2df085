package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"policyPortal/app/echo-server/router"
	"policyPortal/business/comparator"
	"policyPortal/business/policy"
	"policyPortal/business/profile"
	"policyPortal/business/recommender"
	"policyPortal/internal/middleware"
	psqlRepo "policyPortal/internal/repository/postgres"
	redisRepo "policyPortal/internal/repository/redis"
	"policyPortal/internal/rest"
	"policyPortal/pkg/config"
	"policyPortal/pkg/database"
	redisdb "policyPortal/pkg/database/redis"
	"policyPortal/pkg/logger"
	"policyPortal/pkg/metrics"
	"policyPortal/pkg/utils"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	goredis "github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	logger.Info("Starting policy portal", "version", cfg.App.Version)

	utils.SetJWTSecret(cfg.JWT.SecretKey)

	db, err := database.InitPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal("Failed to migrate database", "error", err)
	}
	logger.Info("Database connected successfully")

	// Redis is optional; without it every request is ranked from scratch.
	var (
		cache       recommender.RecommendationCache
		redisClient *goredis.Client
	)
	if cfg.Redis.Enabled {
		redisClient, err = redisdb.NewRedisClient(context.Background(), cfg.Redis)
		if err != nil {
			logger.Warn("Redis unavailable, recommendation cache disabled", "error", err)
		} else {
			cache = redisRepo.NewRecommendationCache(redisClient, cfg.Cache.TTL)
			logger.Info("Redis connected successfully")
		}
	}

	tables, err := recommender.LoadTables(cfg.Scoring.TablesPath)
	if err != nil {
		logger.Fatal("Failed to load scoring tables", "error", err)
	}
	if cfg.Scoring.Affordability != "" {
		tables.Affordability = recommender.AffordabilityStrategy(cfg.Scoring.Affordability)
	}

	// Init repo
	policyRepo := psqlRepo.NewPolicyRepository(db)
	profileRepo := psqlRepo.NewProfileRepository(db)
	exampleRepo := psqlRepo.NewTrainingExampleRepository(db)
	snapshotRepo := psqlRepo.NewModelSnapshotRepository(db)

	// Init scorers
	rules, err := recommender.NewRuleScorer(tables)
	if err != nil {
		logger.Fatal("Invalid scoring configuration", "error", err)
	}
	learned := recommender.NewLearnedScorer(recommender.TrainingConfig{
		Epochs:       cfg.Training.Epochs,
		BatchSize:    cfg.Training.BatchSize,
		LearningRate: cfg.Training.LearningRate,
		MinExamples:  cfg.Training.MinExamples,
		Seed:         cfg.Training.Seed,
	}, tables, snapshotRepo)
	ranker := recommender.NewRanker(rules, learned)

	// Init service
	recoService := recommender.NewService(ranker, policyRepo, profileRepo, exampleRepo, snapshotRepo, cache,
		recommender.ServiceOptions{
			RetrainTimeout:     cfg.Training.Timeout,
			MaxTrainingSamples: cfg.Training.MaxSamples,
		})
	if err := recoService.RestoreModel(context.Background()); err != nil {
		logger.Warn("Failed to restore model snapshot, serving rule-based scores", "error", err)
	}

	policyService := policy.NewPolicyService(policyRepo, cache)
	profileService := profile.NewProfileService(profileRepo, cache)
	comparisonService := comparator.NewService(policyRepo, ranker, 0)

	// Init handler
	policyHandler := rest.NewPolicyHandler(policyService)
	profileHandler := rest.NewProfileHandler(profileService)
	recoHandler := rest.NewRecommendationHandler(recoService, comparisonService, profileService)
	modelHandler := rest.NewModelAdminHandler(recoService)

	limiter := middleware.NewClientLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// HTTP error handler
	e.HTTPErrorHandler = middleware.ErrorHandler

	metrics.Init()

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{"http://localhost:3000", "http://localhost:8080"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, middleware.HeaderTraceID},
	}))
	e.Use(middleware.TraceID())
	e.Use(metrics.Middleware())

	// Setup routes
	router.SetOpsRoutes(e)
	api := e.Group("/api/v1")
	router.SetupPolicyRoutes(api, policyHandler)
	router.SetupProfileRoutes(api, profileHandler)
	router.SetRecommendationRoutes(api, recoHandler, limiter)
	router.SetComparisonRoutes(api, recoHandler, limiter)
	router.SetModelAdminRoutes(api, modelHandler)

	// Goroutine server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
	if err := redisdb.CloseRedisClient(redisClient); err != nil {
		logger.Error("Redis close error", "error", err)
	}

	logger.Info("Server stopped")
}
