package repository

import (
	"context"

	"github.com/yourusername/quizmaster-api/internal/domain/entity"
)

// QuizRepository определяет методы для работы с викторинами
type QuizRepository interface {
	Create(ctx context.Context, quiz *entity.Quiz) error
	GetByID(ctx context.Context, id uint) (*entity.Quiz, error)
	// GetByIDs возвращает найденные викторины; отсутствующие id пропускаются
	GetByIDs(ctx context.Context, ids []uint) ([]entity.Quiz, error)
}
