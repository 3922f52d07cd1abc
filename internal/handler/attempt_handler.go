package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/quizmaster-api/internal/handler/dto"
	"github.com/yourusername/quizmaster-api/internal/service"
)

// AttemptHandler обрабатывает запросы жизненного цикла попытки
type AttemptHandler struct {
	attemptService *service.AttemptService
	logger         *zap.Logger
}

// NewAttemptHandler создает новый обработчик попыток
func NewAttemptHandler(attemptService *service.AttemptService, logger *zap.Logger) *AttemptHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttemptHandler{
		attemptService: attemptService,
		logger:         logger,
	}
}

// StartAttempt начинает или перезапускает попытку
// POST /api/quizzes/:id/attempts/start
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	quizID := c.MustGet("quizID").(uint)

	var req dto.StartAttemptRequest
	// Тело необязательно: без него используется сложность по умолчанию
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
			return
		}
	}

	res, err := h.attemptService.Start(c.Request.Context(), userID, quizID, req.Difficulty)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// GetCurrentQuestions возвращает вопросы текущей попытки в сохраненном порядке
// GET /api/quizzes/:id/attempts/current/questions
func (h *AttemptHandler) GetCurrentQuestions(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	quizID := c.MustGet("quizID").(uint)

	questions, err := h.attemptService.GetOrderedQuestions(c.Request.Context(), userID, quizID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.CurrentQuestionsResponse{
		QuizID:         quizID,
		TotalQuestions: len(questions),
		Questions:      dto.NewQuestionListResponse(questions),
	})
}

// GetAttemptQuestion возвращает один вопрос попытки по индексу
// GET /api/quizzes/:id/attempts/:attempt_id/questions/:index
func (h *AttemptHandler) GetAttemptQuestion(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	quizID := c.MustGet("quizID").(uint)

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid index"})
		return
	}

	q, err := h.attemptService.GetAttemptQuestion(c.Request.Context(), userID, quizID, c.Param("attempt_id"), index)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAttemptQuestionResponse(q))
}

// SubmitAttempt оценивает ответы и завершает попытку
// POST /api/quizzes/:id/attempts/submit
func (h *AttemptHandler) SubmitAttempt(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	quizID := c.MustGet("quizID").(uint)

	var req dto.SubmitAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	res, err := h.attemptService.Submit(c.Request.Context(), userID, quizID, req.Answers)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// GetUserAttempts возвращает историю отправленных попыток пользователя
// GET /api/users/:id/attempts
func (h *AttemptHandler) GetUserAttempts(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	targetID := c.MustGet("targetUserID").(uint)

	attempts, err := h.attemptService.ListSubmitted(c.Request.Context(), userID, targetID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":  targetID,
		"attempts": dto.NewAttemptHistoryResponse(attempts),
	})
}
