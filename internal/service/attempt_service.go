package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourusername/quizmaster-api/internal/domain/entity"
	"github.com/yourusername/quizmaster-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizmaster-api/internal/pkg/errors"
	"github.com/yourusername/quizmaster-api/pkg/monitoring"
)

// DefaultMaxQuestions — размер выборки вопросов на одну попытку по умолчанию
const DefaultMaxQuestions = 20

// AttemptService управляет жизненным циклом попытки: старт, выдача вопросов, отправка
type AttemptService struct {
	attemptRepo  repository.AttemptRepository
	questionRepo repository.QuestionRepository
	cacheRepo    repository.CacheRepository
	clock        Clock
	rnd          RandomSource
	maxQuestions int
	metrics      *monitoring.Metrics
	logger       *zap.Logger
	newID        func() string
}

// NewAttemptService создает новый сервис попыток.
// clock и rnd могут быть nil: тогда используются системные часы и источник с seed от времени.
func NewAttemptService(
	attemptRepo repository.AttemptRepository,
	questionRepo repository.QuestionRepository,
	cacheRepo repository.CacheRepository,
	clock Clock,
	rnd RandomSource,
	maxQuestions int,
	metrics *monitoring.Metrics,
	logger *zap.Logger,
) *AttemptService {
	if clock == nil {
		clock = SystemClock{}
	}
	if rnd == nil {
		rnd = NewRandomSource(time.Now().UnixNano())
	}
	if maxQuestions <= 0 {
		maxQuestions = DefaultMaxQuestions
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttemptService{
		attemptRepo:  attemptRepo,
		questionRepo: questionRepo,
		cacheRepo:    cacheRepo,
		clock:        clock,
		rnd:          rnd,
		maxQuestions: maxQuestions,
		metrics:      metrics,
		logger:       logger,
		newID:        uuid.NewString,
	}
}

// StartResult — результат старта попытки
type StartResult struct {
	AttemptID      string            `json:"attempt_id"`
	TotalQuestions int               `json:"total_questions"`
	Difficulty     entity.Difficulty `json:"difficulty"`
	Restarted      bool              `json:"restarted"`
}

// Start начинает попытку или перезапускает текущую с новой выборкой вопросов.
// Пул вопросов читается до записи: при пустом пуле попытка не создается и не изменяется.
func (s *AttemptService) Start(ctx context.Context, userID, quizID uint, rawDifficulty string) (*StartResult, error) {
	difficulty, ok := entity.ParseDifficulty(rawDifficulty)
	if !ok {
		return nil, fmt.Errorf("%w: unknown difficulty %q", apperrors.ErrValidation, rawDifficulty)
	}

	pool, err := s.questionRepo.GetByQuizAndDifficulty(ctx, quizID, difficulty)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions for quiz #%d: %w", quizID, err)
	}
	if len(pool) == 0 {
		return nil, fmt.Errorf("%w: no %s questions for quiz #%d", apperrors.ErrNotFound, difficulty, quizID)
	}

	order := s.pickQuestions(pool)
	newID := s.newID()
	attempt, err := s.attemptRepo.UpsertInProgress(ctx, repository.AttemptStart{
		NewID:         newID,
		UserID:        userID,
		QuizID:        quizID,
		Difficulty:    difficulty,
		QuestionOrder: order,
		StartedAt:     s.clock.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrInProgressExists) {
			s.metrics.AttemptConflict("start")
			return nil, fmt.Errorf("%w: concurrent start for quiz #%d", apperrors.ErrConflict, quizID)
		}
		return nil, fmt.Errorf("failed to start attempt: %w", err)
	}

	restarted := attempt.ID != newID
	s.metrics.AttemptStarted(string(difficulty), restarted)
	s.logger.Info("Attempt started",
		zap.String("attempt_id", attempt.ID),
		zap.Uint("user_id", userID),
		zap.Uint("quiz_id", quizID),
		zap.String("difficulty", string(difficulty)),
		zap.Int("questions", len(order)),
		zap.Bool("restarted", restarted),
	)

	return &StartResult{
		AttemptID:      attempt.ID,
		TotalQuestions: len(order),
		Difficulty:     difficulty,
		Restarted:      restarted,
	}, nil
}

// pickQuestions выбирает до maxQuestions вопросов без повторов (частичный Фишер–Йетс)
func (s *AttemptService) pickQuestions(pool []entity.Question) []uint {
	ids := make([]uint, len(pool))
	for i := range pool {
		ids[i] = pool[i].ID
	}
	k := min(s.maxQuestions, len(ids))
	for i := 0; i < k; i++ {
		j := i + s.rnd.Intn(len(ids)-i)
		ids[i], ids[j] = ids[j], ids[i]
	}
	return ids[:k]
}

// GetOrderedQuestions возвращает вопросы текущей попытки в порядке question_order.
// Вопросы, удаленные после старта, пропускаются.
func (s *AttemptService) GetOrderedQuestions(ctx context.Context, userID, quizID uint) ([]entity.Question, error) {
	attempt, err := s.attemptRepo.FindInProgress(ctx, userID, quizID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: no attempt in progress for quiz #%d", apperrors.ErrNotFound, quizID)
		}
		return nil, fmt.Errorf("failed to load attempt: %w", err)
	}
	if len(attempt.QuestionOrder) == 0 {
		return nil, fmt.Errorf("%w: attempt %s has no questions", apperrors.ErrNotFound, attempt.ID)
	}

	byID, err := s.questionsByID(ctx, attempt.QuestionOrder)
	if err != nil {
		return nil, err
	}

	ordered := make([]entity.Question, 0, len(attempt.QuestionOrder))
	for _, id := range attempt.QuestionOrder {
		if q, ok := byID[id]; ok {
			ordered = append(ordered, q)
		}
	}
	return ordered, nil
}

// AttemptQuestion — один вопрос попытки по индексу
type AttemptQuestion struct {
	AttemptID      string
	Index          int
	TotalQuestions int
	Question       entity.Question
}

// GetAttemptQuestion возвращает вопрос попытки по индексу (с нуля).
// Чужая попытка неотличима от несуществующей.
func (s *AttemptService) GetAttemptQuestion(ctx context.Context, userID, quizID uint, attemptID string, index int) (*AttemptQuestion, error) {
	attempt, err := s.attemptRepo.GetByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: attempt %s", apperrors.ErrNotFound, attemptID)
		}
		return nil, fmt.Errorf("failed to load attempt: %w", err)
	}
	if attempt.UserID != userID || attempt.QuizID != quizID {
		return nil, fmt.Errorf("%w: attempt %s", apperrors.ErrNotFound, attemptID)
	}

	total := len(attempt.QuestionOrder)
	if index < 0 || index >= total {
		return nil, fmt.Errorf("%w: question index %d out of range [0, %d)", apperrors.ErrValidation, index, total)
	}

	questionID := attempt.QuestionOrder[index]
	byID, err := s.questionsByID(ctx, []uint{questionID})
	if err != nil {
		return nil, err
	}
	q, ok := byID[questionID]
	if !ok {
		return nil, fmt.Errorf("%w: question #%d", apperrors.ErrNotFound, questionID)
	}

	return &AttemptQuestion{
		AttemptID:      attempt.ID,
		Index:          index,
		TotalQuestions: total,
		Question:       q,
	}, nil
}

// SubmitResult — итог отправленной попытки
type SubmitResult struct {
	UserID          uint                  `json:"user_id"`
	QuizID          uint                  `json:"quiz_id"`
	AttemptID       string                `json:"attempt_id"`
	Score           int                   `json:"score"`
	Total           int                   `json:"total"`
	Percentage      float64               `json:"percentage"`
	DurationSeconds int                   `json:"duration_seconds"`
	Answers         []entity.AnswerDetail `json:"answers"`
}

// Submit оценивает ответы и переводит попытку в submitted одной условной записью.
// Количество ответов должно совпадать с количеством вопросов попытки, частичная отправка отклоняется.
func (s *AttemptService) Submit(ctx context.Context, userID, quizID uint, answers []int) (*SubmitResult, error) {
	attempt, err := s.attemptRepo.FindInProgress(ctx, userID, quizID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.metrics.AttemptConflict("submit")
			return nil, fmt.Errorf("%w: attempt not started for quiz #%d", apperrors.ErrConflict, quizID)
		}
		return nil, fmt.Errorf("failed to load attempt: %w", err)
	}
	if !attempt.IsInProgress() {
		s.metrics.AttemptConflict("submit")
		return nil, fmt.Errorf("%w: attempt %s is %s", apperrors.ErrConflict, attempt.ID, attempt.Status)
	}

	order := attempt.QuestionOrder
	if len(order) == 0 {
		return nil, fmt.Errorf("%w: attempt %s has no questions", apperrors.ErrConflict, attempt.ID)
	}
	if len(answers) != len(order) {
		return nil, fmt.Errorf("%w: expected %d answers, got %d", apperrors.ErrValidation, len(order), len(answers))
	}

	byID, err := s.questionsByID(ctx, order)
	if err != nil {
		return nil, err
	}

	details, score := grade(order, answers, byID)
	now := s.clock.Now().UTC()
	result := repository.AttemptResult{
		Score:           score,
		TotalQuestions:  len(order),
		Percentage:      entity.CalculatePercentage(score, len(order)),
		DurationSeconds: entity.CalculateDuration(attempt.StartedAt, now),
		AnswersDetail:   details,
		SubmittedAt:     now,
	}

	if err := s.attemptRepo.Finalize(ctx, attempt.ID, attempt.Revision, result); err != nil {
		if errors.Is(err, repository.ErrStaleAttempt) {
			s.metrics.AttemptConflict("submit")
			return nil, fmt.Errorf("%w: attempt %s was already submitted or restarted", apperrors.ErrConflict, attempt.ID)
		}
		return nil, fmt.Errorf("failed to submit attempt: %w", err)
	}

	s.metrics.AttemptSubmitted(string(attempt.Difficulty), result.Percentage)
	s.logger.Info("Attempt submitted",
		zap.String("attempt_id", attempt.ID),
		zap.Uint("user_id", userID),
		zap.Uint("quiz_id", quizID),
		zap.Int("score", score),
		zap.Int("total", len(order)),
		zap.Int("duration_seconds", result.DurationSeconds),
	)
	s.invalidateLeaderboard(ctx)

	return &SubmitResult{
		UserID:          userID,
		QuizID:          quizID,
		AttemptID:       attempt.ID,
		Score:           score,
		Total:           len(order),
		Percentage:      result.Percentage,
		DurationSeconds: result.DurationSeconds,
		Answers:         details,
	}, nil
}

// grade сравнивает ответы с правильными вариантами по позициям question_order.
// Отсутствующий вопрос засчитывается как неверный ответ с пустыми текстами.
func grade(order []uint, answers []int, byID map[uint]entity.Question) ([]entity.AnswerDetail, int) {
	details := make([]entity.AnswerDetail, len(order))
	score := 0
	for i, id := range order {
		selected := answers[i]
		detail := entity.AnswerDetail{
			QuestionID:     id,
			SelectedOption: selected,
			CorrectOption:  -1,
		}
		if q, ok := byID[id]; ok {
			detail.Question = q.Text
			detail.SelectedText = q.OptionText(selected)
			detail.CorrectOption = q.CorrectOption
			detail.CorrectText = q.OptionText(q.CorrectOption)
			detail.IsCorrect = q.IsCorrect(selected)
		}
		if detail.IsCorrect {
			score++
		}
		details[i] = detail
	}
	return details, score
}

// invalidateLeaderboard сбрасывает кеш недельного рейтинга; ошибка кеша только логируется
func (s *AttemptService) invalidateLeaderboard(ctx context.Context) {
	if s.cacheRepo == nil {
		return
	}
	if err := s.cacheRepo.DeleteByPrefix(ctx, LeaderboardCachePrefix); err != nil {
		s.logger.Warn("Failed to invalidate leaderboard cache", zap.Error(err))
	}
}

// ListSubmitted возвращает отправленные попытки пользователя, новые первыми.
// Просматривать можно только свою историю.
func (s *AttemptService) ListSubmitted(ctx context.Context, actingUserID, targetUserID uint) ([]entity.Attempt, error) {
	if actingUserID != targetUserID {
		return nil, fmt.Errorf("%w: attempts of another user", apperrors.ErrUnauthorized)
	}
	attempts, err := s.attemptRepo.ListSubmittedByUser(ctx, targetUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	return attempts, nil
}

func (s *AttemptService) questionsByID(ctx context.Context, ids []uint) (map[uint]entity.Question, error) {
	questions, err := s.questionRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}
	byID := make(map[uint]entity.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	return byID, nil
}
