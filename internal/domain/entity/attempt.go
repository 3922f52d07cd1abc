package entity

import (
	"math"
	"time"

	"gorm.io/datatypes"
)

// AttemptStatus — состояние попытки прохождения викторины
type AttemptStatus string

// Константы статусов попытки.
// Допустимые переходы: ∅ → in_progress (старт), in_progress → in_progress (повторный старт),
// in_progress → submitted (отправка). Из submitted переходов нет.
const (
	AttemptStatusInProgress AttemptStatus = "in_progress"
	AttemptStatusSubmitted  AttemptStatus = "submitted"
)

// AnswerDetail — запись разбора одного ответа, сохраняется при отправке попытки
type AnswerDetail struct {
	QuestionID     uint    `json:"question_id"`
	Question       string  `json:"question"`
	SelectedOption int     `json:"selected_option"`
	SelectedText   *string `json:"selected_text"`
	CorrectOption  int     `json:"correct_option"`
	CorrectText    *string `json:"correct_text"`
	IsCorrect      bool    `json:"is_correct"`
}

// Attempt представляет одну попытку пользователя пройти викторину.
// Для пары (user_id, quiz_id) может существовать не более одной попытки in_progress,
// это гарантирует частичный уникальный индекс idx_attempts_one_in_progress.
type Attempt struct {
	ID              string                            `gorm:"primaryKey;size:36" json:"id"`
	UserID          uint                              `gorm:"not null;index:idx_attempts_user_quiz_status" json:"user_id"`
	QuizID          uint                              `gorm:"not null;index:idx_attempts_user_quiz_status" json:"quiz_id"`
	Status          AttemptStatus                     `gorm:"size:20;not null;default:'in_progress';index:idx_attempts_user_quiz_status" json:"status"`
	QuestionOrder   datatypes.JSONSlice[uint]         `gorm:"not null" json:"question_order"`
	Difficulty      Difficulty                        `gorm:"size:20;not null;default:'Medium'" json:"difficulty"`
	Revision        int                               `gorm:"not null;default:0" json:"-"` // Увеличивается при каждом старте
	StartedAt       time.Time                         `gorm:"not null" json:"started_at"`
	Score           *int                              `json:"score"`
	TotalQuestions  *int                              `json:"total_questions"`
	Percentage      *float64                          `json:"percentage"`
	DurationSeconds *int                              `json:"duration_seconds"`
	AnswersDetail   datatypes.JSONSlice[AnswerDetail] `gorm:"not null" json:"answers_detail"`
	Timestamp       time.Time                         `gorm:"not null;index" json:"timestamp"`
	CreatedAt       time.Time                         `json:"created_at"`
	UpdatedAt       time.Time                         `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Attempt) TableName() string {
	return "attempts"
}

// IsInProgress проверяет, что попытка ещё не отправлена
func (a *Attempt) IsInProgress() bool {
	return a.Status == AttemptStatusInProgress
}

// IsSubmitted проверяет, что попытка завершена
func (a *Attempt) IsSubmitted() bool {
	return a.Status == AttemptStatusSubmitted
}

// CalculatePercentage возвращает 100*score/total, округлённое до 2 знаков.
// Для total <= 0 возвращает 0.
func CalculatePercentage(score, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(10000*float64(score)/float64(total)) / 100
}

// CalculateDuration возвращает max(0, submittedAt - startedAt) в целых секундах
func CalculateDuration(startedAt, submittedAt time.Time) int {
	seconds := int(submittedAt.Sub(startedAt) / time.Second)
	if seconds < 0 {
		return 0
	}
	return seconds
}
