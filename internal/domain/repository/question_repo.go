package repository

import (
	"context"

	"github.com/yourusername/quizmaster-api/internal/domain/entity"
)

// QuestionRepository определяет методы для работы с вопросами
type QuestionRepository interface {
	Create(ctx context.Context, question *entity.Question) error
	CreateBatch(ctx context.Context, questions []entity.Question) error
	// GetByQuizAndDifficulty возвращает весь пул вопросов викторины указанной сложности
	GetByQuizAndDifficulty(ctx context.Context, quizID uint, difficulty entity.Difficulty) ([]entity.Question, error)
	// GetByIDs возвращает найденные вопросы; отсутствующие id пропускаются, порядок не гарантируется
	GetByIDs(ctx context.Context, ids []uint) ([]entity.Question, error)
}
