package dto

import (
	"time"

	"github.com/yourusername/quizmaster-api/internal/domain/entity"
	"github.com/yourusername/quizmaster-api/internal/handler/helper"
	"github.com/yourusername/quizmaster-api/internal/service"
	"github.com/yourusername/quizmaster-api/internal/service/analytics"
)

// StartAttemptRequest — тело запроса старта попытки
type StartAttemptRequest struct {
	Difficulty string `json:"difficulty"` // Пусто → Medium
}

// SubmitAttemptRequest — тело запроса отправки попытки.
// Ответы идут в порядке question_order, каждый элемент равен индексу выбранного варианта.
type SubmitAttemptRequest struct {
	Answers []int `json:"answers" binding:"required"`
}

// QuestionResponse представляет вопрос без правильного ответа
type QuestionResponse struct {
	ID         uint                    `json:"id"`
	QuizID     uint                    `json:"quiz_id"`
	Text       string                  `json:"text"`
	Difficulty entity.Difficulty       `json:"difficulty"`
	Options    []helper.QuestionOption `json:"options"`
}

// NewQuestionResponse создает DTO для вопроса
func NewQuestionResponse(q *entity.Question) QuestionResponse {
	return QuestionResponse{
		ID:         q.ID,
		QuizID:     q.QuizID,
		Text:       q.Text,
		Difficulty: q.Difficulty,
		Options:    helper.ConvertOptionsToObjects(q.Options),
	}
}

// NewQuestionListResponse создает DTO для списка вопросов, сохраняя порядок
func NewQuestionListResponse(questions []entity.Question) []QuestionResponse {
	out := make([]QuestionResponse, len(questions))
	for i := range questions {
		out[i] = NewQuestionResponse(&questions[i])
	}
	return out
}

// CurrentQuestionsResponse — вопросы текущей попытки
type CurrentQuestionsResponse struct {
	QuizID         uint               `json:"quiz_id"`
	TotalQuestions int                `json:"total_questions"`
	Questions      []QuestionResponse `json:"questions"`
}

// AttemptQuestionResponse — один вопрос попытки по индексу
type AttemptQuestionResponse struct {
	AttemptID      string           `json:"attempt_id"`
	Index          int              `json:"index"`
	TotalQuestions int              `json:"total_questions"`
	Question       QuestionResponse `json:"question"`
}

// NewAttemptQuestionResponse создает DTO для вопроса попытки
func NewAttemptQuestionResponse(q *service.AttemptQuestion) *AttemptQuestionResponse {
	return &AttemptQuestionResponse{
		AttemptID:      q.AttemptID,
		Index:          q.Index,
		TotalQuestions: q.TotalQuestions,
		Question:       NewQuestionResponse(&q.Question),
	}
}

// AttemptHistoryItem — отправленная попытка в истории пользователя
type AttemptHistoryItem struct {
	AttemptID       string                `json:"attempt_id"`
	QuizID          uint                  `json:"quiz_id"`
	Status          entity.AttemptStatus  `json:"status"`
	Difficulty      entity.Difficulty     `json:"difficulty"`
	Score           *int                  `json:"score"`
	Total           *int                  `json:"total"`
	Percentage      *float64              `json:"percentage"`
	DurationSeconds *int                  `json:"duration_seconds"`
	Timestamp       time.Time             `json:"timestamp"`
	AnswersDetail   []entity.AnswerDetail `json:"answers_detail"`
}

// NewAttemptHistoryResponse создает DTO для истории попыток
func NewAttemptHistoryResponse(attempts []entity.Attempt) []AttemptHistoryItem {
	out := make([]AttemptHistoryItem, len(attempts))
	for i, a := range attempts {
		details := []entity.AnswerDetail(a.AnswersDetail)
		if details == nil {
			details = []entity.AnswerDetail{}
		}
		out[i] = AttemptHistoryItem{
			AttemptID:       a.ID,
			QuizID:          a.QuizID,
			Status:          a.Status,
			Difficulty:      a.Difficulty,
			Score:           a.Score,
			Total:           a.TotalQuestions,
			Percentage:      a.Percentage,
			DurationSeconds: a.DurationSeconds,
			Timestamp:       a.Timestamp,
			AnswersDetail:   details,
		}
	}
	return out
}

// PredictionGateResponse — ответ, когда попыток недостаточно для прогноза
type PredictionGateResponse struct {
	Quiz   service.QuizInfo `json:"quiz"`
	UserID uint             `json:"user_id"`
	analytics.Gate
}

// PredictionReportResponse — полный ответ прогноза
type PredictionReportResponse struct {
	Quiz   service.QuizInfo `json:"quiz"`
	UserID uint             `json:"user_id"`
	*analytics.Report
}

// NewPredictionResponse выбирает форму ответа по результату сервиса
func NewPredictionResponse(res *service.PredictionResult) interface{} {
	if res.Gate != nil {
		return PredictionGateResponse{Quiz: res.Quiz, UserID: res.UserID, Gate: *res.Gate}
	}
	return PredictionReportResponse{Quiz: res.Quiz, UserID: res.UserID, Report: res.Report}
}

// AnalyticsResponse — сводная аналитика пользователя по всем викторинам
type AnalyticsResponse struct {
	UserID uint `json:"user_id"`
	analytics.Overview
}

// NewAnalyticsResponse формирует ответ сводной аналитики
func NewAnalyticsResponse(res *service.OverviewResult) AnalyticsResponse {
	return AnalyticsResponse{UserID: res.UserID, Overview: res.Overview}
}
