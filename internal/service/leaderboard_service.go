package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/quizmaster-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizmaster-api/internal/pkg/errors"
	"github.com/yourusername/quizmaster-api/internal/service/leaderboard"
	"github.com/yourusername/quizmaster-api/pkg/monitoring"
)

// LeaderboardCachePrefix — общий префикс ключей кеша недельного рейтинга
const LeaderboardCachePrefix = "leaderboard:weekly:"

// DefaultLeaderboardTTL — время жизни кеша рейтинга по умолчанию
const DefaultLeaderboardTTL = 60 * time.Second

// LeaderboardCacheKey возвращает ключ кеша для недели, начинающейся в weekStart
func LeaderboardCacheKey(weekStart time.Time) string {
	return LeaderboardCachePrefix + weekStart.UTC().Format(time.RFC3339)
}

// WeeklyLeaderboard — рейтинг за текущую неделю
type WeeklyLeaderboard struct {
	WeekStart   time.Time           `json:"week_start"`
	WeekEnd     time.Time           `json:"week_end"`
	GeneratedAt time.Time           `json:"generated_at"`
	Leaders     []leaderboard.Entry `json:"leaders"`
}

// LeaderboardService строит недельный рейтинг и кеширует его в Redis
type LeaderboardService struct {
	attemptRepo repository.AttemptRepository
	cacheRepo   repository.CacheRepository
	clock       Clock
	ttl         time.Duration
	limit       int
	metrics     *monitoring.Metrics
	logger      *zap.Logger
}

// NewLeaderboardService создает новый сервис рейтинга.
// cacheRepo может быть nil: тогда рейтинг каждый раз считается заново.
func NewLeaderboardService(
	attemptRepo repository.AttemptRepository,
	cacheRepo repository.CacheRepository,
	clock Clock,
	ttl time.Duration,
	limit int,
	metrics *monitoring.Metrics,
	logger *zap.Logger,
) *LeaderboardService {
	if clock == nil {
		clock = SystemClock{}
	}
	if ttl <= 0 {
		ttl = DefaultLeaderboardTTL
	}
	if limit <= 0 {
		limit = leaderboard.DefaultLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeaderboardService{
		attemptRepo: attemptRepo,
		cacheRepo:   cacheRepo,
		clock:       clock,
		ttl:         ttl,
		limit:       limit,
		metrics:     metrics,
		logger:      logger,
	}
}

// Weekly возвращает рейтинг текущей недели (UTC).
// Ошибки кеша не прерывают запрос: рейтинг считается по базе.
func (s *LeaderboardService) Weekly(ctx context.Context) (*WeeklyLeaderboard, error) {
	now := s.clock.Now().UTC()
	start, end := leaderboard.WeekWindow(now)
	key := LeaderboardCacheKey(start)

	if cached, ok := s.fromCache(ctx, key); ok {
		return cached, nil
	}

	attempts, err := s.attemptRepo.ListSubmittedBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load weekly attempts: %w", err)
	}

	board := &WeeklyLeaderboard{
		WeekStart:   start,
		WeekEnd:     end,
		GeneratedAt: now,
		Leaders:     leaderboard.Build(attempts, s.limit),
	}

	if s.cacheRepo != nil {
		if err := s.cacheRepo.SetJSON(ctx, key, board, s.ttl); err != nil {
			s.logger.Warn("Failed to cache weekly leaderboard", zap.String("key", key), zap.Error(err))
		}
	}
	return board, nil
}

func (s *LeaderboardService) fromCache(ctx context.Context, key string) (*WeeklyLeaderboard, bool) {
	if s.cacheRepo == nil {
		return nil, false
	}
	var cached WeeklyLeaderboard
	err := s.cacheRepo.GetJSON(ctx, key, &cached)
	switch {
	case err == nil:
		s.metrics.LeaderboardCacheResult(monitoring.CacheHit)
		return &cached, true
	case errors.Is(err, apperrors.ErrNotFound):
		s.metrics.LeaderboardCacheResult(monitoring.CacheMiss)
	default:
		s.metrics.LeaderboardCacheResult(monitoring.CacheError)
		s.logger.Warn("Failed to read weekly leaderboard from cache", zap.String("key", key), zap.Error(err))
	}
	return nil, false
}
