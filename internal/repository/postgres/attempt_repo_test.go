package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yourusername/quizmaster-api/internal/domain/entity"
	"github.com/yourusername/quizmaster-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizmaster-api/internal/pkg/errors"
	"github.com/yourusername/quizmaster-api/pkg/database"
)

// newTestDB поднимает изолированную in-memory SQLite базу со схемой приложения
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

func startInput(userID, quizID uint, order []uint, at time.Time) repository.AttemptStart {
	return repository.AttemptStart{
		NewID:         uuid.NewString(),
		UserID:        userID,
		QuizID:        quizID,
		Difficulty:    entity.DifficultyMedium,
		QuestionOrder: order,
		StartedAt:     at,
	}
}

func TestAttemptRepo_UpsertInProgress_CreatesThenReuses(t *testing.T) {
	// Arrange
	repo := NewAttemptRepo(newTestDB(t))
	ctx := context.Background()
	t0 := time.Date(2024, 5, 6, 10, 0, 0, 0, time.UTC)

	// Act: первый старт создаёт попытку
	first, err := repo.UpsertInProgress(ctx, startInput(7, 3, []uint{1, 2, 3}, t0))
	require.NoError(t, err)

	// Act: повторный старт переиспользует ту же строку
	second, err := repo.UpsertInProgress(ctx, startInput(7, 3, []uint{3, 1}, t0.Add(time.Minute)))
	require.NoError(t, err)

	// Assert
	assert.Equal(t, first.ID, second.ID, "Повторный старт должен вернуть тот же id")
	assert.Equal(t, 1, first.Revision)
	assert.Equal(t, 2, second.Revision, "Каждый старт увеличивает revision")

	stored, err := repo.FindInProgress(ctx, 7, 3)
	require.NoError(t, err)
	assert.Equal(t, []uint{3, 1}, []uint(stored.QuestionOrder), "Порядок вопросов перезаписан")
	assert.True(t, stored.StartedAt.Equal(t0.Add(time.Minute)), "started_at перезаписан")
	assert.Nil(t, stored.Score, "score пуст до отправки")
	assert.Empty(t, stored.AnswersDetail)

	var count int64
	require.NoError(t, repo.db.Model(&entity.Attempt{}).Where("user_id = ? AND quiz_id = ?", 7, 3).Count(&count).Error)
	assert.Equal(t, int64(1), count, "Должна существовать ровно одна строка")
}

func TestAttemptRepo_PartialUniqueIndex_RejectsSecondInProgress(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2024, 5, 6, 10, 0, 0, 0, time.UTC)

	row := func() *entity.Attempt {
		return &entity.Attempt{
			ID:            uuid.NewString(),
			UserID:        1,
			QuizID:        1,
			Status:        entity.AttemptStatusInProgress,
			QuestionOrder: []uint{1},
			Difficulty:    entity.DifficultyEasy,
			StartedAt:     now,
			AnswersDetail: []entity.AnswerDetail{},
			Timestamp:     now,
		}
	}

	require.NoError(t, db.Create(row()).Error)
	err := db.Create(row()).Error

	require.Error(t, err)
	assert.True(t, isUniqueViolation(err), "Вторая in_progress попытка должна нарушать уникальный индекс")
}

func TestAttemptRepo_Finalize(t *testing.T) {
	repo := NewAttemptRepo(newTestDB(t))
	ctx := context.Background()
	t0 := time.Date(2024, 5, 6, 10, 0, 0, 0, time.UTC)

	attempt, err := repo.UpsertInProgress(ctx, startInput(1, 1, []uint{10, 11, 12}, t0))
	require.NoError(t, err)

	text := "4"
	result := repository.AttemptResult{
		Score:           2,
		TotalQuestions:  3,
		Percentage:      66.67,
		DurationSeconds: 90,
		AnswersDetail: []entity.AnswerDetail{
			{QuestionID: 10, Question: "2+2", SelectedOption: 1, SelectedText: &text, CorrectOption: 1, CorrectText: &text, IsCorrect: true},
		},
		SubmittedAt: t0.Add(90 * time.Second),
	}

	// Act
	require.NoError(t, repo.Finalize(ctx, attempt.ID, attempt.Revision, result))

	// Assert
	stored, err := repo.GetByID(ctx, attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.AttemptStatusSubmitted, stored.Status)
	require.NotNil(t, stored.Score)
	assert.Equal(t, 2, *stored.Score)
	require.NotNil(t, stored.Percentage)
	assert.Equal(t, 66.67, *stored.Percentage)
	require.NotNil(t, stored.DurationSeconds)
	assert.Equal(t, 90, *stored.DurationSeconds)
	require.Len(t, stored.AnswersDetail, 1)
	assert.Equal(t, "4", *stored.AnswersDetail[0].SelectedText)
	assert.True(t, stored.Timestamp.Equal(t0.Add(90*time.Second)))

	// Повторная отправка отклоняется
	err = repo.Finalize(ctx, attempt.ID, attempt.Revision, result)
	assert.ErrorIs(t, err, repository.ErrStaleAttempt)

	_, err = repo.FindInProgress(ctx, 1, 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound, "После отправки in_progress попытки нет")
}

func TestAttemptRepo_Finalize_StaleRevision(t *testing.T) {
	repo := NewAttemptRepo(newTestDB(t))
	ctx := context.Background()
	t0 := time.Date(2024, 5, 6, 10, 0, 0, 0, time.UTC)

	first, err := repo.UpsertInProgress(ctx, startInput(1, 1, []uint{1}, t0))
	require.NoError(t, err)
	_, err = repo.UpsertInProgress(ctx, startInput(1, 1, []uint{2}, t0.Add(time.Second)))
	require.NoError(t, err)

	// Отправка по устаревшей ревизии (попытку перезапустили после чтения)
	err = repo.Finalize(ctx, first.ID, first.Revision, repository.AttemptResult{TotalQuestions: 1, SubmittedAt: t0})
	assert.ErrorIs(t, err, repository.ErrStaleAttempt)
}

func TestAttemptRepo_ConcurrentUpsertAndFinalize(t *testing.T) {
	const workers = 10
	repo := NewAttemptRepo(newTestDB(t))
	ctx := context.Background()
	t0 := time.Date(2024, 5, 6, 10, 0, 0, 0, time.UTC)

	// Act: параллельные старты одной пары (user, quiz)
	ids := make([]string, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, err := repo.UpsertInProgress(ctx, startInput(5, 9, []uint{1, 2}, t0.Add(time.Duration(i)*time.Second)))
			errs[i] = err
			if err == nil {
				ids[i] = a.ID
			}
		}(i)
	}
	wg.Wait()

	for i := range errs {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i], "Все старты переиспользуют одну строку")
	}
	current, err := repo.FindInProgress(ctx, 5, 9)
	require.NoError(t, err)
	assert.Equal(t, workers, current.Revision, "Каждый старт увеличил revision")

	// Act: параллельная финализация по одной ревизии
	var mu sync.Mutex
	var ok, stale int
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.Finalize(ctx, current.ID, current.Revision, repository.AttemptResult{TotalQuestions: 2, SubmittedAt: t0})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if errors.Is(err, repository.ErrStaleAttempt) {
				stale++
			}
		}()
	}
	wg.Wait()

	// Assert
	assert.Equal(t, 1, ok, "Условная запись проходит ровно один раз")
	assert.Equal(t, workers-1, stale)

	var submitted int64
	require.NoError(t, repo.db.Model(&entity.Attempt{}).Where("status = ?", entity.AttemptStatusSubmitted).Count(&submitted).Error)
	assert.Equal(t, int64(1), submitted)
}

func TestAttemptRepo_StartAfterSubmitCreatesNewAttempt(t *testing.T) {
	repo := NewAttemptRepo(newTestDB(t))
	ctx := context.Background()
	t0 := time.Date(2024, 5, 6, 10, 0, 0, 0, time.UTC)

	first, err := repo.UpsertInProgress(ctx, startInput(1, 1, []uint{1}, t0))
	require.NoError(t, err)
	require.NoError(t, repo.Finalize(ctx, first.ID, first.Revision, repository.AttemptResult{TotalQuestions: 1, SubmittedAt: t0}))

	second, err := repo.UpsertInProgress(ctx, startInput(1, 1, []uint{1}, t0.Add(time.Hour)))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID, "После отправки старт создаёт новую попытку")
}

func TestAttemptRepo_ListSubmitted(t *testing.T) {
	repo := NewAttemptRepo(newTestDB(t))
	ctx := context.Background()
	base := time.Date(2024, 5, 6, 10, 0, 0, 0, time.UTC)

	submit := func(userID, quizID uint, at time.Time, pct float64) {
		a, err := repo.UpsertInProgress(ctx, startInput(userID, quizID, []uint{1}, at))
		require.NoError(t, err)
		require.NoError(t, repo.Finalize(ctx, a.ID, a.Revision, repository.AttemptResult{
			Score: 1, TotalQuestions: 1, Percentage: pct, SubmittedAt: at,
		}))
	}

	submit(1, 1, base.Add(2*time.Hour), 70)
	submit(1, 1, base, 50)
	submit(1, 2, base.Add(time.Hour), 90)
	submit(2, 1, base.Add(8*24*time.Hour), 30)
	// Незавершённая попытка не попадает в выборки
	_, err := repo.UpsertInProgress(ctx, startInput(1, 1, []uint{1}, base.Add(3*time.Hour)))
	require.NoError(t, err)

	byQuiz, err := repo.ListSubmittedByUserQuiz(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, byQuiz, 2)
	assert.Equal(t, 50.0, *byQuiz[0].Percentage, "История упорядочена по timestamp по возрастанию")
	assert.Equal(t, 70.0, *byQuiz[1].Percentage)

	byUser, err := repo.ListSubmittedByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, byUser, 3)
	assert.Equal(t, 70.0, *byUser[0].Percentage, "История пользователя: новые первыми")

	week, err := repo.ListSubmittedBetween(ctx, base, base.Add(7*24*time.Hour))
	require.NoError(t, err)
	assert.Len(t, week, 3, "Попытка за пределами окна исключается")

	edge, err := repo.ListSubmittedBetween(ctx, base.Add(time.Hour), base.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, edge, 1, "Правая граница окна не включается")
	assert.Equal(t, uint(2), edge[0].QuizID)
}

func TestAttemptRepo_GetByID_NotFound(t *testing.T) {
	repo := NewAttemptRepo(newTestDB(t))

	_, err := repo.GetByID(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
