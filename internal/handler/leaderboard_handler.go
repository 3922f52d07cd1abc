package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/quizmaster-api/internal/service"
)

// LeaderboardHandler обрабатывает запросы рейтинга
type LeaderboardHandler struct {
	leaderboardService *service.LeaderboardService
	logger             *zap.Logger
}

// NewLeaderboardHandler создает новый обработчик рейтинга
func NewLeaderboardHandler(leaderboardService *service.LeaderboardService, logger *zap.Logger) *LeaderboardHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeaderboardHandler{
		leaderboardService: leaderboardService,
		logger:             logger,
	}
}

// Weekly возвращает рейтинг текущей недели
// GET /api/leaderboard/weekly
func (h *LeaderboardHandler) Weekly(c *gin.Context) {
	board, err := h.leaderboardService.Weekly(c.Request.Context())
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, board)
}
