package analytics

import (
	"sort"
	"strings"

	"github.com/yourusername/quizmaster-api/internal/domain/entity"
)

// weakAreaThreshold — викторина со средним процентом ниже порога считается слабым местом
const weakAreaThreshold = 60

// focusAreasLimit — сколько слабых викторин попадает в адаптивную подборку
const focusAreasLimit = 2

// Советы по подготовке
const (
	TipScoreDropped = "Your last score dropped. Consider reviewing the quizzes you find hard."
	TipPracticeMore = "Practice more: "
	TipConsistent   = "Excellent consistency. Try challenging quizzes!"
	TipKeepGoing    = "Keep practicing regularly to improve steadily."
)

// QuizPerformance — средний процент пользователя по одной викторине
type QuizPerformance struct {
	QuizID            uint    `json:"quiz_id"`
	Title             string  `json:"title"`
	Attempts          int     `json:"attempts"`
	AveragePercentage float64 `json:"average_percentage"`
}

// QuizSuggestion — какую викторину пройти следующей. QuizID пуст для общих рекомендаций.
type QuizSuggestion struct {
	QuizID *uint  `json:"quiz_id"`
	Title  string `json:"title"`
	Reason string `json:"reason"`
}

// AdaptiveQuiz — параметры следующей подборки вопросов
type AdaptiveQuiz struct {
	Difficulty   entity.Difficulty `json:"difficulty"`
	FocusQuizIDs []uint            `json:"focus_quiz_ids"`
}

// Overview — сводная аналитика по всем викторинам пользователя
type Overview struct {
	TotalAttempts       int               `json:"total_attempts"`
	PredictedPercentage *float64          `json:"predicted_percentage"`
	Difficulty          entity.Difficulty `json:"difficulty"`
	LearningStyle       string            `json:"learning_style"`
	WeakAreas           []QuizPerformance `json:"weak_areas"`
	StudyTips           []string          `json:"study_tips"`
	Anomaly             *string           `json:"anomaly"`
	RecommendedQuiz     QuizSuggestion    `json:"recommended_quiz"`
	Streak              int               `json:"streak"`
	QuizPerformance     []QuizPerformance `json:"quiz_performance"`
	AdaptiveQuiz        AdaptiveQuiz      `json:"adaptive_quiz"`
}

// BuildOverview считает сводку по отправленным попыткам всех викторин.
// titles сопоставляет id викторины с её названием; отсутствующие получают "Quiz #<id>".
func BuildOverview(attempts []entity.Attempt, titles map[uint]string) Overview {
	points := BuildHistory(attempts)
	values := percentages(points)

	var predicted *float64
	if v, ok := WeightedAverage(values); ok {
		predicted = &v
	}
	difficulty := DifficultyForAverage(predicted)

	performance := PerformanceByQuiz(attempts, titles)
	weak := WeakAreas(performance)

	var anomaly *string
	if a := DetectAnomaly(points); a != "" {
		anomaly = &a
	}

	return Overview{
		TotalAttempts:       len(points),
		PredictedPercentage: predicted,
		Difficulty:          difficulty,
		LearningStyle:       LearningStyle(points),
		WeakAreas:           weak,
		StudyTips:           StudyTips(values, weak),
		Anomaly:             anomaly,
		RecommendedQuiz:     RecommendQuiz(predicted, weak),
		Streak:              Streak(points),
		QuizPerformance:     performance,
		AdaptiveQuiz:        NewAdaptiveQuiz(difficulty, weak),
	}
}

// WeightedAverage — среднее с весами 1..n (последняя попытка весит больше всех), до 2 знаков.
// ok ложно для пустой истории.
func WeightedAverage(values []float64) (avg float64, ok bool) {
	if len(values) == 0 {
		return 0, false
	}
	var sum, wSum float64
	for i, v := range values {
		w := float64(i + 1)
		sum += v * w
		wSum += w
	}
	return roundTo(sum/wSum, 2), true
}

// DifficultyForAverage: ≥80 → Hard, ≥60 → Medium, иначе и без истории Easy
func DifficultyForAverage(predicted *float64) entity.Difficulty {
	switch {
	case predicted == nil:
		return entity.DifficultyEasy
	case *predicted >= 80:
		return entity.DifficultyHard
	case *predicted >= 60:
		return entity.DifficultyMedium
	default:
		return entity.DifficultyEasy
	}
}

// PerformanceByQuiz группирует отправленные попытки по викторинам, результат упорядочен по id викторины
func PerformanceByQuiz(attempts []entity.Attempt, titles map[uint]string) []QuizPerformance {
	sums := make(map[uint]float64)
	counts := make(map[uint]int)
	for _, a := range attempts {
		if !a.IsSubmitted() || a.Percentage == nil {
			continue
		}
		sums[a.QuizID] += *a.Percentage
		counts[a.QuizID]++
	}

	out := make([]QuizPerformance, 0, len(counts))
	for quizID, n := range counts {
		title, ok := titles[quizID]
		if !ok || title == "" {
			title = entity.FallbackQuizTitle(quizID)
		}
		out = append(out, QuizPerformance{
			QuizID:            quizID,
			Title:             title,
			Attempts:          n,
			AveragePercentage: roundTo(sums[quizID]/float64(n), 2),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuizID < out[j].QuizID })
	return out
}

// WeakAreas отбирает викторины со средним ниже 60, самые слабые первыми
func WeakAreas(performance []QuizPerformance) []QuizPerformance {
	weak := make([]QuizPerformance, 0)
	for _, p := range performance {
		if p.AveragePercentage < weakAreaThreshold {
			weak = append(weak, p)
		}
	}
	sort.SliceStable(weak, func(i, j int) bool { return weak[i].AveragePercentage < weak[j].AveragePercentage })
	return weak
}

// StudyTips формирует советы по последним результатам и слабым викторинам.
// Хотя бы один совет возвращается всегда.
func StudyTips(values []float64, weak []QuizPerformance) []string {
	var tips []string
	n := len(values)

	if n >= 2 && values[n-1] < values[n-2] {
		tips = append(tips, TipScoreDropped)
	}
	if len(weak) > 0 {
		titles := make([]string, len(weak))
		for i, w := range weak {
			titles[i] = w.Title
		}
		tips = append(tips, TipPracticeMore+strings.Join(titles, ", "))
	}
	if n >= 4 && mean(values[n-4:]) >= 80 {
		tips = append(tips, TipConsistent)
	}
	if len(tips) == 0 {
		tips = append(tips, TipKeepGoing)
	}
	return tips
}

// RecommendQuiz выбирает следующую викторину: слабая викторина важнее общего уровня
func RecommendQuiz(predicted *float64, weak []QuizPerformance) QuizSuggestion {
	if predicted == nil {
		return QuizSuggestion{Title: "Beginner Starter Quiz", Reason: "New user"}
	}
	if len(weak) > 0 {
		id := weak[0].QuizID
		return QuizSuggestion{
			QuizID: &id,
			Title:  weak[0].Title + " Basics",
			Reason: "You are weak in " + weak[0].Title,
		}
	}
	switch {
	case *predicted < 60:
		return QuizSuggestion{Title: "Fundamental Concepts Quiz", Reason: "Improve basics"}
	case *predicted < 80:
		return QuizSuggestion{Title: "Intermediate Practice Quiz", Reason: "Match your level"}
	default:
		return QuizSuggestion{Title: "Advanced Challenge Quiz", Reason: "You seem ready!"}
	}
}

// NewAdaptiveQuiz берёт не больше двух самых слабых викторин в фокус
func NewAdaptiveQuiz(difficulty entity.Difficulty, weak []QuizPerformance) AdaptiveQuiz {
	focus := make([]uint, 0, focusAreasLimit)
	for i := 0; i < len(weak) && i < focusAreasLimit; i++ {
		focus = append(focus, weak[i].QuizID)
	}
	return AdaptiveQuiz{Difficulty: difficulty, FocusQuizIDs: focus}
}
