package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/quizmaster-api/internal/domain/entity"
	apperrors "github.com/yourusername/quizmaster-api/internal/pkg/errors"
	"github.com/yourusername/quizmaster-api/internal/service/leaderboard"
)

var (
	weekStart = time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)
	weekEnd   = time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC)
)

const weekKey = "leaderboard:weekly:2024-05-06T00:00:00Z"

func weeklyAttempts() []entity.Attempt {
	pct := func(v float64) *float64 { return &v }
	mk := func(user uint, d entity.Difficulty, p float64) entity.Attempt {
		return entity.Attempt{UserID: user, Status: entity.AttemptStatusSubmitted, Difficulty: d, Percentage: pct(p), Timestamp: testNow}
	}
	return []entity.Attempt{
		mk(1, entity.DifficultyHard, 90),
		mk(1, entity.DifficultyEasy, 70),
		mk(1, entity.DifficultyEasy, 75),
		mk(2, entity.DifficultyEasy, 100),
	}
}

func TestLeaderboardCacheKey(t *testing.T) {
	assert.Equal(t, weekKey, LeaderboardCacheKey(weekStart))
}

func TestLeaderboardService_Weekly_MissBuildsAndCaches(t *testing.T) {
	// Arrange
	attempts := new(MockAttemptRepository)
	cache := new(MockCacheRepository)
	svc := NewLeaderboardService(attempts, cache, &fixedClock{now: testNow}, time.Minute, 10, nil, zap.NewNop())
	ctx := context.Background()

	cache.On("GetJSON", ctx, weekKey, mock.Anything).Return(apperrors.ErrNotFound)
	attempts.On("ListSubmittedBetween", ctx, weekStart, weekEnd).Return(weeklyAttempts(), nil)
	cache.On("SetJSON", ctx, weekKey, mock.AnythingOfType("*service.WeeklyLeaderboard"), time.Minute).Return(nil)

	// Act
	board, err := svc.Weekly(ctx)

	// Assert
	require.NoError(t, err)
	assert.True(t, board.WeekStart.Equal(weekStart))
	assert.True(t, board.WeekEnd.Equal(weekEnd))
	require.Len(t, board.Leaders, 1)
	assert.Equal(t, uint(1), board.Leaders[0].UserID)
	assert.Equal(t, 80.0, board.Leaders[0].WeightedScore)
	attempts.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestLeaderboardService_Weekly_CacheHit(t *testing.T) {
	attempts := new(MockAttemptRepository)
	cache := new(MockCacheRepository)
	svc := NewLeaderboardService(attempts, cache, &fixedClock{now: testNow}, time.Minute, 10, nil, zap.NewNop())
	ctx := context.Background()

	cache.On("GetJSON", ctx, weekKey, mock.Anything).
		Run(func(args mock.Arguments) {
			dest := args.Get(2).(*WeeklyLeaderboard)
			dest.WeekStart = weekStart
			dest.Leaders = []leaderboard.Entry{{Rank: 1, UserID: 42, WeightedScore: 99}}
		}).
		Return(nil)

	board, err := svc.Weekly(ctx)

	require.NoError(t, err)
	require.Len(t, board.Leaders, 1)
	assert.Equal(t, uint(42), board.Leaders[0].UserID, "Результат берется из кеша")
	attempts.AssertNotCalled(t, "ListSubmittedBetween", mock.Anything, mock.Anything, mock.Anything)
}

func TestLeaderboardService_Weekly_CacheFailureFailsOpen(t *testing.T) {
	attempts := new(MockAttemptRepository)
	cache := new(MockCacheRepository)
	svc := NewLeaderboardService(attempts, cache, &fixedClock{now: testNow}, 0, 0, nil, zap.NewNop())
	ctx := context.Background()

	cache.On("GetJSON", ctx, weekKey, mock.Anything).Return(errors.New("connection refused"))
	attempts.On("ListSubmittedBetween", ctx, weekStart, weekEnd).Return(weeklyAttempts(), nil)
	cache.On("SetJSON", ctx, weekKey, mock.Anything, DefaultLeaderboardTTL).Return(errors.New("connection refused"))

	board, err := svc.Weekly(ctx)

	require.NoError(t, err, "Недоступный кеш не ломает рейтинг")
	assert.Len(t, board.Leaders, 1)
}

func TestLeaderboardService_Weekly_RepositoryError(t *testing.T) {
	attempts := new(MockAttemptRepository)
	svc := NewLeaderboardService(attempts, nil, &fixedClock{now: testNow}, time.Minute, 10, nil, zap.NewNop())
	ctx := context.Background()
	attempts.On("ListSubmittedBetween", ctx, weekStart, weekEnd).Return(nil, errors.New("db down"))

	_, err := svc.Weekly(ctx)

	assert.Error(t, err)
}

func TestLeaderboardService_Weekly_EmptyWeek(t *testing.T) {
	attempts := new(MockAttemptRepository)
	svc := NewLeaderboardService(attempts, nil, &fixedClock{now: testNow}, time.Minute, 10, nil, zap.NewNop())
	ctx := context.Background()
	attempts.On("ListSubmittedBetween", ctx, weekStart, weekEnd).Return([]entity.Attempt{}, nil)

	board, err := svc.Weekly(ctx)

	require.NoError(t, err)
	assert.NotNil(t, board.Leaders, "Пустой рейтинг сериализуется как []")
	assert.Empty(t, board.Leaders)
}
