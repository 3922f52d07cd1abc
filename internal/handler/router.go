package handler

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/quizmaster-api/internal/middleware"
	"github.com/yourusername/quizmaster-api/pkg/monitoring"
)

// RouterDeps — зависимости для сборки HTTP роутера.
// RateLimiter и Metrics необязательны.
type RouterDeps struct {
	Attempts       *AttemptHandler
	Predictions    *PredictionHandler
	Leaderboard    *LeaderboardHandler
	Auth           *middleware.AuthMiddleware
	RateLimiter    *middleware.RateLimiter
	APILimit       middleware.RateLimitConfig
	AttemptLimit   middleware.RateLimitConfig
	Metrics        *monitoring.Metrics
	Logger         *zap.Logger
	AllowedOrigins []string
	TrustedProxies []string
	Production     bool
}

// NewRouter собирает gin.Engine со всеми маршрутами API
func NewRouter(d RouterDeps) *gin.Engine {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))

	// Без явного списка в production не доверяем прокси-заголовкам, в development доверяем localhost
	proxies := d.TrustedProxies
	if len(proxies) == 0 && !d.Production {
		proxies = []string{"127.0.0.1", "::1"}
	}
	if err := router.SetTrustedProxies(proxies); err != nil {
		logger.Error("Invalid trusted proxies list",
			zap.Strings("trusted_proxies", proxies),
			zap.Error(err),
		)
	}

	if len(d.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     d.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length", "X-RateLimit-Remaining"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	if d.Metrics != nil {
		router.Use(d.Metrics.MetricsMiddleware())
		router.GET("/metrics", d.Metrics.PrometheusHandler())
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	limit := func(cfg middleware.RateLimitConfig) gin.HandlerFunc {
		if d.RateLimiter == nil {
			return func(c *gin.Context) { c.Next() }
		}
		return d.RateLimiter.Limit(cfg)
	}

	api := router.Group("/api")
	if d.RateLimiter != nil {
		api.Use(d.RateLimiter.LimitByIP(d.APILimit))
	}
	api.Use(d.Auth.RequireAuth())
	{
		// Попытки
		quizWithID := api.Group("/quizzes/:id")
		quizWithID.Use(middleware.ExtractUintParam("id", "quizID"))
		{
			quizWithID.POST("/attempts/start", limit(d.AttemptLimit), d.Attempts.StartAttempt)
			quizWithID.GET("/attempts/current/questions", d.Attempts.GetCurrentQuestions)
			quizWithID.GET("/attempts/:attempt_id/questions/:index", d.Attempts.GetAttemptQuestion)
			quizWithID.POST("/attempts/submit", limit(d.AttemptLimit), d.Attempts.SubmitAttempt)
		}

		// История пользователя
		api.GET("/users/:id/attempts", middleware.ExtractUintParam("id", "targetUserID"), d.Attempts.GetUserAttempts)

		// Аналитика
		api.GET("/predict", d.Predictions.Predict)
		api.GET("/analytics", d.Predictions.Analytics)
		api.GET("/leaderboard/weekly", d.Leaderboard.Weekly)
	}

	return router
}
