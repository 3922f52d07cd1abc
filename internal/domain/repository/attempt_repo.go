package repository

import (
	"context"
	"time"

	"github.com/yourusername/quizmaster-api/internal/domain/entity"
)

// AttemptStart описывает данные, которые записываются при старте попытки.
// NewID используется только если попытки in_progress ещё нет.
type AttemptStart struct {
	NewID         string
	UserID        uint
	QuizID        uint
	Difficulty    entity.Difficulty
	QuestionOrder []uint
	StartedAt     time.Time
}

// AttemptResult описывает данные, которые записываются при отправке попытки
type AttemptResult struct {
	Score           int
	TotalQuestions  int
	Percentage      float64
	DurationSeconds int
	AnswersDetail   []entity.AnswerDetail
	SubmittedAt     time.Time
}

// AttemptRepository определяет методы для работы с попытками
type AttemptRepository interface {
	// FindInProgress возвращает попытку in_progress пользователя по викторине или ErrNotFound
	FindInProgress(ctx context.Context, userID, quizID uint) (*entity.Attempt, error)
	GetByID(ctx context.Context, id string) (*entity.Attempt, error)
	// UpsertInProgress в одной транзакции блокирует существующую попытку in_progress
	// и перезаписывает её или создаёт новую. Revision увеличивается на 1.
	UpsertInProgress(ctx context.Context, start AttemptStart) (*entity.Attempt, error)
	// Finalize переводит попытку в submitted, только если её status и revision не изменились.
	// Возвращает ErrStaleAttempt, если условие не выполнено.
	Finalize(ctx context.Context, attemptID string, revision int, result AttemptResult) error
	// ListSubmittedByUserQuiz возвращает отправленные попытки в порядке timestamp ASC, id ASC
	ListSubmittedByUserQuiz(ctx context.Context, userID, quizID uint) ([]entity.Attempt, error)
	ListSubmittedByUser(ctx context.Context, userID uint) ([]entity.Attempt, error)
	// ListSubmittedBetween возвращает отправленные попытки с from <= timestamp < to
	ListSubmittedBetween(ctx context.Context, from, to time.Time) ([]entity.Attempt, error)
}
