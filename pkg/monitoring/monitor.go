package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Результаты обращения к кешу рейтинга
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// Metrics объединяет все коллекторы приложения.
// Методы безопасны для nil-получателя, чтобы сервисы можно было собирать без метрик.
type Metrics struct {
	RequestCounter  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	AttemptsStarted   *prometheus.CounterVec
	AttemptsSubmitted *prometheus.CounterVec
	AttemptConflicts  *prometheus.CounterVec
	AttemptScore      prometheus.Histogram
	Predictions       *prometheus.CounterVec
	LeaderboardCache  *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// NewMetrics создает и регистрирует коллекторы в переданном реестре
func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.1, 0.5, 1, 2, 5},
			},
			[]string{"method", "endpoint"},
		),
		AttemptsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quiz_attempts_started_total",
				Help: "Number of started or restarted attempts",
			},
			[]string{"difficulty", "restart"},
		),
		AttemptsSubmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quiz_attempts_submitted_total",
				Help: "Number of submitted attempts",
			},
			[]string{"difficulty"},
		),
		AttemptConflicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quiz_attempt_conflicts_total",
				Help: "Number of rejected attempt state transitions",
			},
			[]string{"operation"},
		),
		AttemptScore: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "quiz_attempt_percentage",
				Help:    "Distribution of submitted attempt percentages",
				Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
			},
		),
		Predictions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quiz_predictions_total",
				Help: "Number of prediction requests by outcome",
			},
			[]string{"outcome"},
		),
		LeaderboardCache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leaderboard_cache_requests_total",
				Help: "Weekly leaderboard cache lookups by result",
			},
			[]string{"result"},
		),
		gatherer: reg,
	}

	reg.MustRegister(
		m.RequestCounter,
		m.RequestDuration,
		m.AttemptsStarted,
		m.AttemptsSubmitted,
		m.AttemptConflicts,
		m.AttemptScore,
		m.Predictions,
		m.LeaderboardCache,
	)
	return m
}

// AttemptStarted фиксирует старт или перезапуск попытки
func (m *Metrics) AttemptStarted(difficulty string, restart bool) {
	if m == nil {
		return
	}
	m.AttemptsStarted.WithLabelValues(difficulty, strconv.FormatBool(restart)).Inc()
}

// AttemptSubmitted фиксирует отправку попытки и её процент
func (m *Metrics) AttemptSubmitted(difficulty string, percentage float64) {
	if m == nil {
		return
	}
	m.AttemptsSubmitted.WithLabelValues(difficulty).Inc()
	m.AttemptScore.Observe(percentage)
}

// AttemptConflict фиксирует отклонённый переход состояния
func (m *Metrics) AttemptConflict(operation string) {
	if m == nil {
		return
	}
	m.AttemptConflicts.WithLabelValues(operation).Inc()
}

// Prediction фиксирует исход запроса прогноза (gated | full | overview)
func (m *Metrics) Prediction(outcome string) {
	if m == nil {
		return
	}
	m.Predictions.WithLabelValues(outcome).Inc()
}

// LeaderboardCacheResult фиксирует результат обращения к кешу рейтинга
func (m *Metrics) LeaderboardCacheResult(result string) {
	if m == nil {
		return
	}
	m.LeaderboardCache.WithLabelValues(result).Inc()
}

// MetricsMiddleware считает запросы и их длительность
func (m *Metrics) MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		m.RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		m.RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

// PrometheusHandler отдает метрики из реестра приложения
func (m *Metrics) PrometheusHandler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
