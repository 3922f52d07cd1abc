package analytics

import (
	"fmt"
	"math"

	"github.com/yourusername/quizmaster-api/internal/domain/entity"
)

// NextAction — подсказка клиенту, какую попытку начать следующей
type NextAction struct {
	Type       string            `json:"type"`
	QuizID     uint              `json:"quiz_id"`
	Difficulty entity.Difficulty `json:"difficulty"`
	Label      string            `json:"label"`
}

// ModelReport — коэффициенты модели и ошибки на истории
type ModelReport struct {
	Model   Model      `json:"model"`
	Metrics FitMetrics `json:"metrics"`
}

// Dataset — размеры обучающей и тестовой частей истории
type Dataset struct {
	TotalSamples int `json:"total_samples"`
	TrainSamples int `json:"train_samples"`
	TestSamples  int `json:"test_samples"`
}

// Testing — ошибки модели, обученной на ранних попытках, на поздних. Metrics пуст без тестовой части.
type Testing struct {
	Metrics *FitMetrics `json:"metrics"`
}

// minSplitSamples — с меньшей историей тестовая часть не выделяется
const minSplitSamples = 3

// TrainTestSplit делит историю по времени: первые floor(0.7n) точек обучающие, остальные тестовые.
// При n < 3 вся история считается обучающей.
func TrainTestSplit(points []HistoryPoint) (train, test []HistoryPoint) {
	n := len(points)
	if n < minSplitSamples {
		return points, nil
	}
	split := n * 7 / 10
	return points[:split], points[split:]
}

// holdout обучает модель на обучающей части и оценивает её на тестовой
func holdout(points []HistoryPoint) (Dataset, Testing) {
	train, test := TrainTestSplit(points)
	dataset := Dataset{TotalSamples: len(points), TrainSamples: len(train), TestSamples: len(test)}
	if len(test) == 0 {
		return dataset, Testing{}
	}
	model, err := FitModel(train)
	if err != nil {
		return dataset, Testing{}
	}
	metrics := EvaluateFit(test, model)
	return dataset, Testing{Metrics: &metrics}
}

// AttemptGate — сколько попыток найдено и сколько требуется
type AttemptGate struct {
	AttemptsFound    int `json:"attempts_found"`
	AttemptsRequired int `json:"attempts_required"`
}

// Gate — ответ, когда истории недостаточно для прогноза
type Gate struct {
	Message          string  `json:"message"`
	AttemptsFound    int     `json:"attempts_found"`
	AttemptsRequired int     `json:"attempts_required"`
	Progress         float64 `json:"progress"`
}

// NewGate формирует ответ "нужно больше попыток"; progress = found/2*100, округлённый до целого
func NewGate(found int) Gate {
	return Gate{
		Message:          fmt.Sprintf("At least %d quiz attempts are required for prediction", MinAttempts),
		AttemptsFound:    found,
		AttemptsRequired: MinAttempts,
		Progress:         math.Round(float64(found) / float64(MinAttempts) * 100),
	}
}

// Report — полный результат анализа истории
type Report struct {
	History        []HistoryPoint `json:"history"`
	Summary        Summary        `json:"summary"`
	Confidence     Confidence     `json:"confidence"`
	Insight        Insight        `json:"insight"`
	Streak         int            `json:"streak"`
	Goal           Goal           `json:"goal"`
	Prediction     Prediction     `json:"prediction"`
	Recommendation Recommendation `json:"recommendation"`
	NextAction     NextAction     `json:"next_action"`
	Training       ModelReport    `json:"training"`
	Dataset        Dataset        `json:"dataset"`
	Testing        Testing        `json:"testing"`
	LearningStyle  string         `json:"learning_style"`
	Anomaly        *string        `json:"anomaly"`
	AttemptGate    AttemptGate    `json:"attempt_gate"`
}

// Analyze собирает все выводы по истории одной викторины.
// Требует не менее MinAttempts точек, иначе ErrInsufficientHistory.
func Analyze(quizID uint, points []HistoryPoint, goal *float64) (Report, error) {
	prediction, err := Predict(points)
	if err != nil {
		return Report{}, err
	}

	recommendation := RecommendDifficulty(prediction.PredictedPercentage)
	goalEstimate := EstimateGoal(points, prediction, goal)

	var anomaly *string
	if a := DetectAnomaly(points); a != "" {
		anomaly = &a
	}

	dataset, testing := holdout(points)

	shown := prediction
	shown.PredictedPercentage = roundTo(prediction.PredictedPercentage, 2)

	return Report{
		History:        points,
		Summary:        Summarize(points),
		Confidence:     ConfidenceLevel(points),
		Insight:        Trend(points),
		Streak:         Streak(points),
		Goal:           goalEstimate,
		Prediction:     shown,
		Recommendation: recommendation,
		NextAction: NextAction{
			Type:       "start_quiz",
			QuizID:     quizID,
			Difficulty: recommendation.NextQuizDifficulty,
			Label:      fmt.Sprintf("Start a %s quiz now", recommendation.NextQuizDifficulty),
		},
		Training: ModelReport{
			Model:   roundModel(prediction.Model),
			Metrics: EvaluateFit(points, prediction.Model),
		},
		Dataset:       dataset,
		Testing:       testing,
		LearningStyle: LearningStyle(points),
		Anomaly:       anomaly,
		AttemptGate:   AttemptGate{AttemptsFound: len(points), AttemptsRequired: MinAttempts},
	}, nil
}

func roundModel(m Model) Model {
	m.Intercept = roundTo(m.Intercept, 4)
	m.Slope = roundTo(m.Slope, 4)
	m.DifficultyCoef = roundTo(m.DifficultyCoef, 4)
	return m
}
