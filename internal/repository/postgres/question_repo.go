package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/yourusername/quizmaster-api/internal/domain/entity"
)

// questionBatchSize ограничивает размер одного INSERT при пакетной загрузке
const questionBatchSize = 100

// QuestionRepo реализует repository.QuestionRepository
type QuestionRepo struct {
	db *gorm.DB
}

// NewQuestionRepo создает новый репозиторий вопросов
func NewQuestionRepo(db *gorm.DB) *QuestionRepo {
	return &QuestionRepo{db: db}
}

// Create создает новый вопрос
func (r *QuestionRepo) Create(ctx context.Context, question *entity.Question) error {
	return r.db.WithContext(ctx).Create(question).Error
}

// CreateBatch создает пакет вопросов в одной транзакции
func (r *QuestionRepo) CreateBatch(ctx context.Context, questions []entity.Question) error {
	if len(questions) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(&questions, questionBatchSize).Error
	})
}

// GetByQuizAndDifficulty возвращает все вопросы викторины с указанной сложностью
func (r *QuestionRepo) GetByQuizAndDifficulty(ctx context.Context, quizID uint, difficulty entity.Difficulty) ([]entity.Question, error) {
	var questions []entity.Question
	err := r.db.WithContext(ctx).
		Where("quiz_id = ? AND difficulty = ?", quizID, difficulty).
		Order("id").
		Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

// GetByIDs возвращает вопросы по списку ID. Несуществующие ID пропускаются.
func (r *QuestionRepo) GetByIDs(ctx context.Context, ids []uint) ([]entity.Question, error) {
	if len(ids) == 0 {
		return []entity.Question{}, nil
	}
	var questions []entity.Question
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}
