package entity

import (
	"time"

	"gorm.io/datatypes"
)

// Question представляет вопрос викторины
type Question struct {
	ID            uint                        `gorm:"primaryKey" json:"id"`
	QuizID        uint                        `gorm:"not null;index:idx_questions_quiz_difficulty" json:"quiz_id"`
	Text          string                      `gorm:"size:1000;not null" json:"text"`
	Options       datatypes.JSONSlice[string] `gorm:"not null" json:"options"`
	CorrectOption int                         `gorm:"not null" json:"-"` // Скрыто от клиента
	Difficulty    Difficulty                  `gorm:"size:20;not null;default:'Medium';index:idx_questions_quiz_difficulty" json:"difficulty"`
	CreatedAt     time.Time                   `json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Question) TableName() string {
	return "questions"
}

// IsCorrect проверяет, является ли выбранный вариант правильным
func (q *Question) IsCorrect(selectedOption int) bool {
	return selectedOption == q.CorrectOption
}

// OptionsCount возвращает количество вариантов ответа
func (q *Question) OptionsCount() int {
	return len(q.Options)
}

// IsValidOption проверяет, является ли выбранный вариант допустимым
func (q *Question) IsValidOption(selectedOption int) bool {
	return selectedOption >= 0 && selectedOption < q.OptionsCount()
}

// OptionText возвращает текст варианта по индексу или nil, если индекс вне диапазона
func (q *Question) OptionText(index int) *string {
	if !q.IsValidOption(index) {
		return nil
	}
	text := q.Options[index]
	return &text
}
