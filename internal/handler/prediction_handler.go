package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/quizmaster-api/internal/handler/dto"
	"github.com/yourusername/quizmaster-api/internal/service"
)

// PredictionHandler обрабатывает запросы прогноза
type PredictionHandler struct {
	predictionService *service.PredictionService
	logger            *zap.Logger
}

// NewPredictionHandler создает новый обработчик прогноза
func NewPredictionHandler(predictionService *service.PredictionService, logger *zap.Logger) *PredictionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PredictionHandler{
		predictionService: predictionService,
		logger:            logger,
	}
}

// Predict возвращает прогноз следующей попытки
// GET /api/predict?quiz_id=&user_id=&goal=
func (h *PredictionHandler) Predict(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	quizID, err := strconv.ParseUint(c.Query("quiz_id"), 10, 32)
	if err != nil || quizID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid quiz_id"})
		return
	}

	targetID, ok := targetUserID(c)
	if !ok {
		return
	}

	res, err := h.predictionService.Predict(c.Request.Context(), userID, targetID, uint(quizID), c.Query("goal"))
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPredictionResponse(res))
}

// Analytics возвращает сводную аналитику по всем викторинам пользователя
// GET /api/analytics?user_id=
func (h *PredictionHandler) Analytics(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	targetID, ok := targetUserID(c)
	if !ok {
		return
	}

	res, err := h.predictionService.Overview(c.Request.Context(), userID, targetID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAnalyticsResponse(res))
}

// targetUserID читает необязательный user_id из запроса; 0 означает текущего пользователя
func targetUserID(c *gin.Context) (uint, bool) {
	raw := c.Query("user_id")
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user_id"})
		return 0, false
	}
	return uint(id), true
}
