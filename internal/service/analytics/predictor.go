package analytics

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/yourusername/quizmaster-api/internal/domain/entity"
)

// goalEpsilon гасит погрешность округления перед ceil, чтобы 4.0000000001 не превращалось в 5
const goalEpsilon = 1e-9

// Prediction — прогноз следующей попытки
type Prediction struct {
	NextAttemptIndex    int     `json:"next_attempt_index"`
	PredictedPercentage float64 `json:"predicted_percentage"`
	PredictedScore      *int    `json:"predicted_score"`
	TotalQuestions      int     `json:"total_questions"`
	Smoothed            bool    `json:"smoothed"`
	Model               Model   `json:"-"`
}

// Predict строит прогноз процента для попытки n+1.
// При n < 5 используется 0.7*last + 0.3*second_last, иначе регрессия с уровнем сложности последней попытки.
// Итог ограничивается диапазоном [0, 100].
func Predict(points []HistoryPoint) (Prediction, error) {
	n := len(points)
	model, err := FitModel(points)
	if err != nil {
		return Prediction{}, err
	}

	last := points[n-1]
	predicted := model.At(float64(n+1), last.Difficulty.Level())
	smoothed := false
	if n < smoothingThreshold {
		predicted = 0.7*last.Percentage + 0.3*points[n-2].Percentage
		smoothed = true
	}
	predicted = clamp(predicted, 0, 100)

	p := Prediction{
		NextAttemptIndex:    n + 1,
		PredictedPercentage: predicted,
		TotalQuestions:      last.TotalQuestions,
		Smoothed:            smoothed,
		Model:               model,
	}
	if last.TotalQuestions > 0 {
		score := int(math.Round(predicted / 100 * float64(last.TotalQuestions)))
		p.PredictedScore = &score
	}
	return p, nil
}

// Confidence — оценка надёжности прогноза
type Confidence struct {
	Label  string  `json:"label"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// ConfidenceLevel: base = min(0.85, 0.35+0.1n), penalty = min(0.5, std/30), score = clamp(base-penalty, 0.1, 0.95)
func ConfidenceLevel(points []HistoryPoint) Confidence {
	n := len(points)
	if n < MinAttempts {
		return Confidence{Label: "Low", Score: 0.2, Reason: "Need at least 2 attempts"}
	}

	std := stddev(percentages(points))
	base := math.Min(0.85, 0.35+0.10*float64(n))
	penalty := math.Min(0.50, std/30.0)
	score := clamp(base-penalty, 0.10, 0.95)

	label := "Low"
	switch {
	case score >= 0.75:
		label = "High"
	case score >= 0.45:
		label = "Medium"
	}

	return Confidence{
		Label:  label,
		Score:  roundTo(score, 2),
		Reason: fmt.Sprintf("%d attempts, variability (std) ≈ %s", n, formatNumber(std)),
	}
}

// Insight — краткий вывод о последнем изменении результата
type Insight struct {
	Label  string `json:"label"`
	Reason string `json:"reason"`
}

// Trend сравнивает две последние попытки: +5 и выше → Improving, −5 и ниже → Dropping
func Trend(points []HistoryPoint) Insight {
	n := len(points)
	if n < MinAttempts {
		return Insight{Label: "Not enough data", Reason: "Need at least 2 attempts"}
	}

	delta := points[n-1].Percentage - points[n-2].Percentage
	switch {
	case delta >= 5:
		return Insight{Label: "Improving", Reason: fmt.Sprintf("Up by %s%% from last attempt", formatNumber(delta))}
	case delta <= -5:
		return Insight{Label: "Dropping", Reason: fmt.Sprintf("Down by %s%% from last attempt", formatNumber(-delta))}
	default:
		return Insight{Label: "Stable", Reason: "Small change recently"}
	}
}

// Streak считает подряд идущие календарные дни (UTC) с попытками, начиная с дня последней попытки.
// Несколько попыток в один день засчитываются один раз, пропуск дня прерывает серию.
func Streak(points []HistoryPoint) int {
	if len(points) == 0 {
		return 0
	}

	days := make([]int64, len(points))
	for i, p := range points {
		days[i] = dayNumber(p)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] > days[j] })

	streak := 1
	last := days[0]
	for _, d := range days[1:] {
		switch last - d {
		case 0:
			continue
		case 1:
			streak++
			last = d
		default:
			return streak
		}
	}
	return streak
}

// dayNumber возвращает номер календарного дня UTC
func dayNumber(p HistoryPoint) int64 {
	t := p.Timestamp.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).Unix() / 86400
}

// Goal — оценка количества попыток до целевого процента
type Goal struct {
	TargetPercentage        *float64 `json:"target_percentage"`
	EstimatedAttemptsNeeded *int     `json:"estimated_attempts_needed"`
	Note                    *string  `json:"note"`
}

// Тексты пояснений к цели
const (
	GoalNoteReached      = "You are already on/above your goal based on the prediction."
	GoalNoteEstimated    = "Estimated using your current improvement trend."
	GoalNoteNotIncreased = "Your recent trend is not increasing yet. More practice will improve the estimate."
)

// EstimateGoal решает b0 + b1*x + b2*last_level = goal относительно x и возвращает ceil(x − n), не меньше 0.
// goal == nil означает, что цель не задана. Предполагается, что goal уже ограничена диапазоном [0, 100].
func EstimateGoal(points []HistoryPoint, prediction Prediction, goal *float64) Goal {
	if goal == nil {
		return Goal{}
	}

	target := roundTo(*goal, 2)
	result := Goal{TargetPercentage: &target}
	note := func(s string) *string { return &s }

	if prediction.PredictedPercentage >= *goal {
		zero := 0
		result.EstimatedAttemptsNeeded = &zero
		result.Note = note(GoalNoteReached)
		return result
	}

	m := prediction.Model
	if m.Slope <= 0 || len(points) == 0 {
		result.Note = note(GoalNoteNotIncreased)
		return result
	}

	n := len(points)
	lastLevel := points[n-1].Difficulty.Level()
	x := (*goal - m.Intercept - m.DifficultyCoef*float64(lastLevel)) / m.Slope
	needed := int(math.Ceil(x - float64(n) - goalEpsilon))
	if needed < 0 {
		needed = 0
	}
	result.EstimatedAttemptsNeeded = &needed
	result.Note = note(GoalNoteEstimated)
	return result
}

// Recommendation — рекомендуемая сложность следующей попытки
type Recommendation struct {
	NextQuizDifficulty entity.Difficulty `json:"next_quiz_difficulty"`
	Reason             string            `json:"reason"`
}

// RecommendDifficulty: ≥85 → Hard, ≥65 → Medium, ≥40 → Easy, иначе Very Easy
func RecommendDifficulty(predicted float64) Recommendation {
	switch {
	case predicted >= 85:
		return Recommendation{NextQuizDifficulty: entity.DifficultyHard, Reason: "High predicted mastery"}
	case predicted >= 65:
		return Recommendation{NextQuizDifficulty: entity.DifficultyMedium, Reason: "Good understanding, moderate challenge recommended"}
	case predicted >= 40:
		return Recommendation{NextQuizDifficulty: entity.DifficultyEasy, Reason: "Basic understanding, additional practice advised"}
	default:
		return Recommendation{NextQuizDifficulty: entity.DifficultyVeryEasy, Reason: "Low predicted performance, start with fundamentals"}
	}
}

// Стили обучения
const (
	StyleNotEnoughData = "Not enough data"
	StyleFastImprover  = "Fast Improver"
	StyleStruggling    = "Struggling Recently"
	StyleConsistent    = "Consistent Learner"
	StyleInconsistent  = "Inconsistent Learner"
)

// LearningStyle классифицирует историю по изменению за три попытки и разбросу
func LearningStyle(points []HistoryPoint) string {
	n := len(points)
	if n < 3 {
		return StyleNotEnoughData
	}

	change := points[n-1].Percentage - points[n-3].Percentage
	switch {
	case change > 10:
		return StyleFastImprover
	case change < -10:
		return StyleStruggling
	case stddev(percentages(points)) < 8:
		return StyleConsistent
	default:
		return StyleInconsistent
	}
}

// Аномалии последней попытки
const (
	AnomalyDrop  = "Sudden Performance Drop"
	AnomalySpike = "Unusual Score Spike"
)

// DetectAnomaly сравнивает последнюю попытку со средним по предыдущим (порог ±20).
// Возвращает пустую строку, если аномалии нет или точек меньше трёх.
func DetectAnomaly(points []HistoryPoint) string {
	n := len(points)
	if n < 3 {
		return ""
	}

	prev := mean(percentages(points[:n-1]))
	last := points[n-1].Percentage
	switch {
	case last < prev-20:
		return AnomalyDrop
	case last > prev+20:
		return AnomalySpike
	}
	return ""
}

// Summary — сводка по истории
type Summary struct {
	Attempts          int     `json:"attempts"`
	BestPercentage    float64 `json:"best_percentage"`
	AveragePercentage float64 `json:"average_percentage"`
	LastPercentage    float64 `json:"last_percentage"`
}

// Summarize считает лучший, средний и последний процент
func Summarize(points []HistoryPoint) Summary {
	if len(points) == 0 {
		return Summary{}
	}
	values := percentages(points)
	best := values[0]
	for _, v := range values[1:] {
		best = math.Max(best, v)
	}
	return Summary{
		Attempts:          len(points),
		BestPercentage:    roundTo(best, 2),
		AveragePercentage: roundTo(mean(values), 2),
		LastPercentage:    roundTo(values[len(values)-1], 2),
	}
}

// formatNumber печатает число с точностью до 2 знаков без завершающих нулей
func formatNumber(v float64) string {
	return strconv.FormatFloat(roundTo(v, 2), 'f', -1, 64)
}
