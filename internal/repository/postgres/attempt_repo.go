package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/quizmaster-api/internal/domain/entity"
	"github.com/yourusername/quizmaster-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizmaster-api/internal/pkg/errors"
)

// AttemptRepo реализует repository.AttemptRepository
type AttemptRepo struct {
	db *gorm.DB
}

// NewAttemptRepo создает новый репозиторий попыток
func NewAttemptRepo(db *gorm.DB) *AttemptRepo {
	return &AttemptRepo{db: db}
}

// FindInProgress возвращает текущую попытку in_progress пользователя по викторине
func (r *AttemptRepo) FindInProgress(ctx context.Context, userID, quizID uint) (*entity.Attempt, error) {
	var attempt entity.Attempt
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND quiz_id = ? AND status = ?", userID, quizID, entity.AttemptStatusInProgress).
		First(&attempt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &attempt, nil
}

// GetByID возвращает попытку по ID
func (r *AttemptRepo) GetByID(ctx context.Context, id string) (*entity.Attempt, error) {
	var attempt entity.Attempt
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&attempt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &attempt, nil
}

// UpsertInProgress перезаписывает существующую попытку in_progress или создаёт новую.
// Существующая строка блокируется через SELECT ... FOR UPDATE до конца транзакции.
// Если параллельный старт успел вставить свою строку, уникальный индекс
// idx_attempts_one_in_progress вернёт 23505 → ErrInProgressExists.
func (r *AttemptRepo) UpsertInProgress(ctx context.Context, start repository.AttemptStart) (*entity.Attempt, error) {
	var attempt entity.Attempt
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing entity.Attempt
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND quiz_id = ? AND status = ?", start.UserID, start.QuizID, entity.AttemptStatusInProgress).
			Limit(1).
			Find(&existing).Error
		if err != nil {
			return err
		}

		if existing.ID != "" {
			existing.QuestionOrder = datatypes.JSONSlice[uint](start.QuestionOrder)
			existing.Difficulty = start.Difficulty
			existing.StartedAt = start.StartedAt
			existing.Timestamp = start.StartedAt
			existing.UpdatedAt = start.StartedAt
			existing.Revision++
			err = tx.Model(&existing).
				Select("question_order", "difficulty", "started_at", "timestamp", "revision", "updated_at").
				Updates(&existing).Error
			if err != nil {
				return err
			}
			attempt = existing
			return nil
		}

		attempt = entity.Attempt{
			ID:            start.NewID,
			UserID:        start.UserID,
			QuizID:        start.QuizID,
			Status:        entity.AttemptStatusInProgress,
			QuestionOrder: datatypes.JSONSlice[uint](start.QuestionOrder),
			Difficulty:    start.Difficulty,
			Revision:      1,
			StartedAt:     start.StartedAt,
			AnswersDetail: datatypes.JSONSlice[entity.AnswerDetail]{},
			Timestamp:     start.StartedAt,
		}
		return tx.Create(&attempt).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: user #%d quiz #%d", repository.ErrInProgressExists, start.UserID, start.QuizID)
		}
		return nil, fmt.Errorf("upsert attempt for user #%d quiz #%d failed: %w", start.UserID, start.QuizID, err)
	}
	return &attempt, nil
}

// Finalize атомарно переводит in_progress → submitted.
// RowsAffected == 0 означает, что попытку уже отправили или перезапустили.
func (r *AttemptRepo) Finalize(ctx context.Context, attemptID string, revision int, result repository.AttemptResult) error {
	details := result.AnswersDetail
	if details == nil {
		details = []entity.AnswerDetail{}
	}

	res := r.db.WithContext(ctx).Model(&entity.Attempt{}).
		Where("id = ? AND status = ? AND revision = ?", attemptID, entity.AttemptStatusInProgress, revision).
		Updates(map[string]interface{}{
			"status":           entity.AttemptStatusSubmitted,
			"score":            result.Score,
			"total_questions":  result.TotalQuestions,
			"percentage":       result.Percentage,
			"duration_seconds": result.DurationSeconds,
			"answers_detail":   datatypes.JSONSlice[entity.AnswerDetail](details),
			"timestamp":        result.SubmittedAt,
			"updated_at":       result.SubmittedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("finalize attempt %s failed: %w", attemptID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: attempt %s", repository.ErrStaleAttempt, attemptID)
	}
	return nil
}

// ListSubmittedByUserQuiz возвращает историю отправленных попыток по викторине от старых к новым
func (r *AttemptRepo) ListSubmittedByUserQuiz(ctx context.Context, userID, quizID uint) ([]entity.Attempt, error) {
	var attempts []entity.Attempt
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND quiz_id = ? AND status = ?", userID, quizID, entity.AttemptStatusSubmitted).
		Order("timestamp ASC, id ASC").
		Find(&attempts).Error
	if err != nil {
		return nil, err
	}
	return attempts, nil
}

// ListSubmittedByUser возвращает все отправленные попытки пользователя, новые первыми
func (r *AttemptRepo) ListSubmittedByUser(ctx context.Context, userID uint) ([]entity.Attempt, error) {
	var attempts []entity.Attempt
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, entity.AttemptStatusSubmitted).
		Order("timestamp DESC, id DESC").
		Find(&attempts).Error
	if err != nil {
		return nil, err
	}
	return attempts, nil
}

// ListSubmittedBetween возвращает отправленные попытки всех пользователей в окне [from, to)
func (r *AttemptRepo) ListSubmittedBetween(ctx context.Context, from, to time.Time) ([]entity.Attempt, error) {
	var attempts []entity.Attempt
	err := r.db.WithContext(ctx).
		Where("status = ? AND timestamp >= ? AND timestamp < ?", entity.AttemptStatusSubmitted, from, to).
		Order("timestamp ASC, id ASC").
		Find(&attempts).Error
	if err != nil {
		return nil, err
	}
	return attempts, nil
}
