// Package analytics содержит чистые функции прогноза по истории отправленных попыток.
// Пакет ничего не пишет и не обращается к хранилищу.
package analytics

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/yourusername/quizmaster-api/internal/domain/entity"
)

// MinAttempts — минимальное количество отправленных попыток для прогноза
const MinAttempts = 2

// smoothingThreshold — при меньшей длине истории регрессию заменяет сглаживание 0.7/0.3
const smoothingThreshold = 5

// ErrInsufficientHistory возвращается, если точек истории меньше MinAttempts
var ErrInsufficientHistory = errors.New("at least 2 submitted attempts are required")

// HistoryPoint — производное представление одной отправленной попытки
type HistoryPoint struct {
	AttemptIndex   int               `json:"attempt_index"`
	Percentage     float64           `json:"percentage"`
	Difficulty     entity.Difficulty `json:"difficulty"`
	Timestamp      time.Time         `json:"timestamp"`
	TotalQuestions int               `json:"total_questions"`
}

// BuildHistory превращает отправленные попытки в историю, упорядоченную по timestamp, затем по id.
// Попытки без процента пропускаются. Индексы начинаются с 1.
func BuildHistory(attempts []entity.Attempt) []HistoryPoint {
	sorted := make([]entity.Attempt, 0, len(attempts))
	for _, a := range attempts {
		if a.IsSubmitted() && a.Percentage != nil {
			sorted = append(sorted, a)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Timestamp.Equal(sorted[j].Timestamp) {
			return sorted[i].Timestamp.Before(sorted[j].Timestamp)
		}
		return sorted[i].ID < sorted[j].ID
	})

	points := make([]HistoryPoint, len(sorted))
	for i, a := range sorted {
		total := 0
		if a.TotalQuestions != nil {
			total = *a.TotalQuestions
		}
		points[i] = HistoryPoint{
			AttemptIndex:   i + 1,
			Percentage:     *a.Percentage,
			Difficulty:     a.Difficulty,
			Timestamp:      a.Timestamp,
			TotalQuestions: total,
		}
	}
	return points
}

func percentages(points []HistoryPoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Percentage
	}
	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stddev — стандартное отклонение генеральной совокупности (деление на n)
func stddev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	sum := 0.0
	for _, x := range xs {
		sum += (x - m) * (x - m)
	}
	return math.Sqrt(sum / float64(len(xs)))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func roundTo(v float64, digits int) float64 {
	p := math.Pow(10, float64(digits))
	return math.Round(v*p) / p
}
