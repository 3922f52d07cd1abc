package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/yourusername/quizmaster-api/internal/domain/entity"
	"github.com/yourusername/quizmaster-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizmaster-api/internal/pkg/errors"
	"github.com/yourusername/quizmaster-api/internal/service/analytics"
	"github.com/yourusername/quizmaster-api/pkg/monitoring"
)

// Исходы запроса прогноза для метрик
const (
	predictionGated = "gated"
	predictionFull  = "full"
	overviewBuilt   = "overview"
)

// QuizInfo — метаданные викторины в ответе прогноза
type QuizInfo struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// PredictionResult содержит либо Gate (истории недостаточно), либо Report
type PredictionResult struct {
	Quiz   QuizInfo
	UserID uint
	Gate   *analytics.Gate
	Report *analytics.Report
}

// PredictionService собирает историю попыток и запускает прогноз
type PredictionService struct {
	attemptRepo repository.AttemptRepository
	quizRepo    repository.QuizRepository
	metrics     *monitoring.Metrics
	logger      *zap.Logger
}

// NewPredictionService создает новый сервис прогноза
func NewPredictionService(
	attemptRepo repository.AttemptRepository,
	quizRepo repository.QuizRepository,
	metrics *monitoring.Metrics,
	logger *zap.Logger,
) *PredictionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PredictionService{
		attemptRepo: attemptRepo,
		quizRepo:    quizRepo,
		metrics:     metrics,
		logger:      logger,
	}
}

// ParseGoal разбирает целевой процент: пустая строка означает отсутствие цели.
// Нечисловое или бесконечное значение отклоняется, остальное ограничивается диапазоном [0, 100].
func ParseGoal(raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("%w: goal must be a number, got %q", apperrors.ErrValidation, raw)
	}
	v = math.Max(0, math.Min(100, v))
	return &v, nil
}

// Predict строит прогноз для targetUserID по викторине quizID.
// targetUserID == 0 означает текущего пользователя; чужой прогноз запрещен.
func (s *PredictionService) Predict(ctx context.Context, actingUserID, targetUserID, quizID uint, goalRaw string) (*PredictionResult, error) {
	if targetUserID == 0 {
		targetUserID = actingUserID
	}
	if targetUserID != actingUserID {
		return nil, fmt.Errorf("%w: prediction for another user", apperrors.ErrUnauthorized)
	}
	if quizID == 0 {
		return nil, fmt.Errorf("%w: quiz_id is required", apperrors.ErrValidation)
	}

	goal, err := ParseGoal(goalRaw)
	if err != nil {
		return nil, err
	}

	attempts, err := s.attemptRepo.ListSubmittedByUserQuiz(ctx, targetUserID, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to load attempt history: %w", err)
	}
	points := analytics.BuildHistory(attempts)

	result := &PredictionResult{
		Quiz:   s.quizInfo(ctx, quizID),
		UserID: targetUserID,
	}

	if len(points) < analytics.MinAttempts {
		gate := analytics.NewGate(len(points))
		result.Gate = &gate
		s.metrics.Prediction(predictionGated)
		return result, nil
	}

	report, err := analytics.Analyze(quizID, points, goal)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze history: %w", err)
	}
	result.Report = &report
	s.metrics.Prediction(predictionFull)

	s.logger.Debug("Prediction built",
		zap.Uint("user_id", targetUserID),
		zap.Uint("quiz_id", quizID),
		zap.Int("attempts", len(points)),
		zap.Float64("predicted_percentage", report.Prediction.PredictedPercentage),
	)
	return result, nil
}

// OverviewResult — сводная аналитика пользователя по всем викторинам
type OverviewResult struct {
	UserID   uint
	Overview analytics.Overview
}

// Overview строит сводку по всем отправленным попыткам targetUserID; викторина служит категорией.
// targetUserID == 0 означает текущего пользователя; чужая сводка запрещена.
func (s *PredictionService) Overview(ctx context.Context, actingUserID, targetUserID uint) (*OverviewResult, error) {
	if targetUserID == 0 {
		targetUserID = actingUserID
	}
	if targetUserID != actingUserID {
		return nil, fmt.Errorf("%w: analytics for another user", apperrors.ErrUnauthorized)
	}

	attempts, err := s.attemptRepo.ListSubmittedByUser(ctx, targetUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load attempt history: %w", err)
	}

	overview := analytics.BuildOverview(attempts, s.quizTitles(ctx, attempts))
	s.metrics.Prediction(overviewBuilt)

	s.logger.Debug("Analytics overview built",
		zap.Uint("user_id", targetUserID),
		zap.Int("attempts", overview.TotalAttempts),
		zap.Int("weak_areas", len(overview.WeakAreas)),
	)
	return &OverviewResult{UserID: targetUserID, Overview: overview}, nil
}

// quizTitles читает названия викторин из попыток одним запросом.
// Ошибка чтения не прерывает сводку: названия заменяются на "Quiz #<id>".
func (s *PredictionService) quizTitles(ctx context.Context, attempts []entity.Attempt) map[uint]string {
	titles := make(map[uint]string)
	if s.quizRepo == nil || len(attempts) == 0 {
		return titles
	}

	seen := make(map[uint]bool)
	ids := make([]uint, 0)
	for _, a := range attempts {
		if !seen[a.QuizID] {
			seen[a.QuizID] = true
			ids = append(ids, a.QuizID)
		}
	}

	quizzes, err := s.quizRepo.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Warn("Failed to load quiz titles", zap.Int("quizzes", len(ids)), zap.Error(err))
		return titles
	}
	for i := range quizzes {
		titles[quizzes[i].ID] = quizzes[i].DisplayTitle()
	}
	return titles
}

// quizInfo читает метаданные викторины; при отсутствии записи подставляет "Quiz #<id>"
func (s *PredictionService) quizInfo(ctx context.Context, quizID uint) QuizInfo {
	info := QuizInfo{ID: quizID, Title: entity.FallbackQuizTitle(quizID)}
	if s.quizRepo == nil {
		return info
	}
	quiz, err := s.quizRepo.GetByID(ctx, quizID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Warn("Failed to load quiz metadata", zap.Uint("quiz_id", quizID), zap.Error(err))
		}
		return info
	}
	info.Title = quiz.DisplayTitle()
	info.Description = quiz.Description
	return info
}
