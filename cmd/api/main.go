package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/yourusername/quizmaster-api/internal/config"
	"github.com/yourusername/quizmaster-api/internal/handler"
	"github.com/yourusername/quizmaster-api/internal/middleware"
	pgRepo "github.com/yourusername/quizmaster-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/quizmaster-api/internal/repository/redis"
	"github.com/yourusername/quizmaster-api/internal/service"
	"github.com/yourusername/quizmaster-api/pkg/auth"
	"github.com/yourusername/quizmaster-api/pkg/database"
	"github.com/yourusername/quizmaster-api/pkg/logger"
	"github.com/yourusername/quizmaster-api/pkg/monitoring"
)

func main() {
	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Загрузка конфигурации из %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	appLogger, err := logger.New(logger.OptionsFromConfig(cfg))
	if err != nil {
		log.Printf("Failed to initialize logger: %v", err)
		os.Exit(1)
	}
	defer func() { _ = appLogger.Sync() }()

	gin.SetMode(cfg.Server.Mode)
	isProduction := gin.Mode() == gin.ReleaseMode

	// Инициализируем подключение к PostgreSQL
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString(), isProduction)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	// Применяем миграции
	if err := database.MigrateDB(db, cfg.Database.MigrationsDir, appLogger); err != nil {
		appLogger.Fatal("Failed to migrate database", zap.Error(err))
	}

	// Инициализируем подключение к Redis
	redisClient, err := database.NewUniversalRedisClient(context.Background(), cfg.Redis)
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	appLogger.Info("Successfully connected to Redis", zap.String("mode", cfg.Redis.Mode))

	// Инициализируем репозитории
	quizRepo := pgRepo.NewQuizRepo(db)
	questionRepo := pgRepo.NewQuestionRepo(db)
	attemptRepo := pgRepo.NewAttemptRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		appLogger.Fatal("Failed to initialize CacheRepo", zap.Error(err))
	}

	// Метрики
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := monitoring.NewMetrics(registry)

	// Инициализируем сервисы
	clock := service.SystemClock{}
	attemptService := service.NewAttemptService(
		attemptRepo,
		questionRepo,
		cacheRepo,
		clock,
		service.NewRandomSource(time.Now().UnixNano()),
		cfg.Attempt.MaxQuestions,
		metrics,
		appLogger.Named("attempts"),
	)
	predictionService := service.NewPredictionService(attemptRepo, quizRepo, metrics, appLogger.Named("predictions"))
	leaderboardService := service.NewLeaderboardService(
		attemptRepo,
		cacheRepo,
		clock,
		cfg.Leaderboard.CacheTTL(),
		cfg.Leaderboard.Limit,
		metrics,
		appLogger.Named("leaderboard"),
	)

	jwtService, err := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	if err != nil {
		appLogger.Fatal("Failed to initialize JWTService", zap.Error(err))
	}

	router := handler.NewRouter(handler.RouterDeps{
		Attempts:       handler.NewAttemptHandler(attemptService, appLogger),
		Predictions:    handler.NewPredictionHandler(predictionService, appLogger),
		Leaderboard:    handler.NewLeaderboardHandler(leaderboardService, appLogger),
		Auth:           middleware.NewAuthMiddleware(jwtService, appLogger),
		RateLimiter:    middleware.NewRateLimiter(cacheRepo, appLogger.Named("ratelimit")),
		APILimit:       middleware.APIRateLimitConfig(cfg.RateLimit),
		AttemptLimit:   middleware.SubmitRateLimitConfig(cfg.RateLimit),
		Metrics:        metrics,
		Logger:         appLogger,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		TrustedProxies: cfg.Server.TrustedProxies,
		Production:     isProduction,
	})

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Запускаем сервер в горутине
	go func() {
		appLogger.Info("Starting server", zap.String("port", cfg.Server.Port), zap.String("mode", gin.Mode()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	if sqlDB, err := database.GetSQLDB(db); err == nil {
		_ = sqlDB.Close()
	}
	appLogger.Info("Server exited properly")
}
