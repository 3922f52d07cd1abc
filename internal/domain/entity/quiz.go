package entity

import (
	"fmt"
	"time"
)

// Quiz представляет викторину. Для попыток и прогноза используются только метаданные.
type Quiz struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"size:100;not null" json:"title"`
	Description string     `gorm:"size:500;not null;default:''" json:"description"`
	Questions   []Question `gorm:"foreignKey:QuizID" json:"questions,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Quiz) TableName() string {
	return "quizzes"
}

// DisplayTitle возвращает название викторины или "Quiz #<id>", если оно пустое
func (q *Quiz) DisplayTitle() string {
	if q.Title != "" {
		return q.Title
	}
	return FallbackQuizTitle(q.ID)
}

// FallbackQuizTitle формирует название для викторины без метаданных
func FallbackQuizTitle(quizID uint) string {
	return fmt.Sprintf("Quiz #%d", quizID)
}
