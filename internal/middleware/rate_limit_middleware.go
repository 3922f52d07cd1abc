package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/quizmaster-api/internal/config"
	"github.com/yourusername/quizmaster-api/internal/domain/repository"
)

// cacheTimeout ограничивает обращение к кешу на один запрос
const cacheTimeout = 2 * time.Second

// RateLimitConfig содержит настройки rate limiting
type RateLimitConfig struct {
	// MaxRequests — максимальное количество запросов за Window
	MaxRequests int
	// Window — временное окно для подсчёта запросов
	Window time.Duration
	// KeyPrefix — префикс для ключей в Redis
	KeyPrefix string
}

// SubmitRateLimitConfig строит лимит для старта и отправки попыток из конфигурации
func SubmitRateLimitConfig(cfg config.RateLimitConfig) RateLimitConfig {
	rl := RateLimitConfig{
		MaxRequests: cfg.MaxRequests,
		Window:      cfg.Window(),
		KeyPrefix:   "rl:attempts",
	}
	if rl.MaxRequests <= 0 {
		rl.MaxRequests = 30
	}
	if rl.Window <= 0 {
		rl.Window = time.Minute
	}
	return rl
}

// APIRateLimitConfig — общий лимит на группу /api по IP, в 10 раз мягче лимита попыток
func APIRateLimitConfig(cfg config.RateLimitConfig) RateLimitConfig {
	rl := SubmitRateLimitConfig(cfg)
	rl.MaxRequests *= 10
	rl.KeyPrefix = "rl:api"
	return rl
}

// RateLimiter создаёт middleware для rate limiting на счетчиках кеша
type RateLimiter struct {
	cache  repository.CacheRepository
	logger *zap.Logger
}

// NewRateLimiter создает новый RateLimiter
func NewRateLimiter(cache repository.CacheRepository, logger *zap.Logger) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimiter{cache: cache, logger: logger}
}

// Limit возвращает Gin middleware с заданной конфигурацией.
// Ключ формируется из пользователя (или IP для анонимных запросов) и шаблона маршрута.
func (rl *RateLimiter) Limit(cfg RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		subject := "ip:" + c.ClientIP()
		if userID, ok := c.Get("user_id"); ok {
			subject = fmt.Sprintf("user:%v", userID)
		}
		path := c.FullPath() // шаблон маршрута, например "/api/quizzes/:id/attempts/submit"
		if path == "" {
			path = c.Request.URL.Path
		}
		rl.enforce(c, cfg, fmt.Sprintf("%s:%s:%s", cfg.KeyPrefix, subject, path))
	}
}

// LimitByIP ограничивает количество запросов по IP без привязки к маршруту.
// Используется как общий лимит на группу /api.
func (rl *RateLimiter) LimitByIP(cfg RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		rl.enforce(c, cfg, fmt.Sprintf("%s:ip:%s", cfg.KeyPrefix, c.ClientIP()))
	}
}

// enforce считает запрос в окне key и отвечает 429 при превышении.
// Недоступный кеш пропускает запрос (fail-open).
func (rl *RateLimiter) enforce(c *gin.Context, cfg RateLimitConfig, key string) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), cacheTimeout)
	defer cancel()

	count, retryAfter, err := rl.hit(ctx, key, cfg.Window)
	if err != nil {
		rl.logger.Warn("Rate limiter cache error, allowing request (fail-open)", zap.String("key", key), zap.Error(err))
		c.Next()
		return
	}

	remaining := cfg.MaxRequests - int(count)
	if remaining < 0 {
		remaining = 0
	}
	c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.MaxRequests))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
	c.Header("X-RateLimit-Reset", strconv.Itoa(retryAfter))

	if int(count) > cfg.MaxRequests {
		rl.logger.Info("Rate limit exceeded",
			zap.String("key", key),
			zap.Int64("count", count),
			zap.Int("limit", cfg.MaxRequests),
		)
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error":       "Too many requests. Please try again later.",
			"error_type":  "rate_limited",
			"retry_after": retryAfter,
		})
		return
	}

	c.Next()
}

// hit увеличивает счетчик окна и возвращает его значение и секунды до сброса
func (rl *RateLimiter) hit(ctx context.Context, key string, window time.Duration) (int64, int, error) {
	count, err := rl.cache.Increment(ctx, key)
	if err != nil {
		return 0, 0, err
	}
	// Первый запрос открывает окно: ключ истекает в момент его конца
	if count == 1 {
		if err := rl.cache.ExpireAt(ctx, key, time.Now().Add(window)); err != nil {
			rl.logger.Warn("Rate limiter failed to set TTL", zap.String("key", key), zap.Error(err))
		}
	}

	retryAfter := int(window.Seconds())
	if ttl, err := rl.cache.TTL(ctx, key); err == nil && ttl > 0 {
		retryAfter = int(ttl.Seconds())
	}
	return count, retryAfter, nil
}
