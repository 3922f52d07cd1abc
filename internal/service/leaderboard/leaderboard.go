// Package leaderboard строит недельный рейтинг по отправленным попыткам с учетом сложности.
package leaderboard

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/yourusername/quizmaster-api/internal/domain/entity"
)

// DefaultLimit — количество мест в рейтинге по умолчанию
const DefaultLimit = 10

// minAttempts — минимум попыток за неделю для попадания в рейтинг
const minAttempts = 3

// Значки призовых мест
const (
	BadgeGold   = "gold"
	BadgeSilver = "silver"
	BadgeBronze = "bronze"
)

var weights = map[entity.Difficulty]float64{
	entity.DifficultyVeryEasy: 0.9,
	entity.DifficultyEasy:     1.0,
	entity.DifficultyMedium:   1.2,
	entity.DifficultyHard:     1.5,
}

var expectedSeconds = map[entity.Difficulty]float64{
	entity.DifficultyVeryEasy: 25,
	entity.DifficultyEasy:     35,
	entity.DifficultyMedium:   45,
	entity.DifficultyHard:     60,
}

// Entry — строка рейтинга
type Entry struct {
	Rank               int      `json:"rank"`
	Badge              *string  `json:"badge"`
	UserID             uint     `json:"user_id"`
	WeightedScore      float64  `json:"weighted_score"`
	AttemptsCount      int      `json:"attempts_count"`
	AvgPercentage      float64  `json:"avg_percentage"`
	AvgTimeRatio       *float64 `json:"avg_time_ratio"`
	AvgDurationSeconds *float64 `json:"avg_duration_seconds"`
	HasChallenge       bool     `json:"has_challenge"`
}

// WeekWindow возвращает границы недели [понедельник 00:00, следующий понедельник 00:00) в UTC
func WeekWindow(now time.Time) (time.Time, time.Time) {
	t := now.UTC()
	// Monday = 0 ... Sunday = 6
	offset := (int(t.Weekday()) + 6) % 7
	start := time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 7)
}

// NormalizeDifficulty приводит метку сложности к каноническому виду без учета регистра и пробелов.
// Нераспознанная или пустая метка считается Easy.
func NormalizeDifficulty(label string) entity.Difficulty {
	key := strings.ToLower(strings.Join(strings.Fields(label), ""))
	for _, d := range entity.Difficulties() {
		if strings.ToLower(strings.ReplaceAll(string(d), " ", "")) == key {
			return d
		}
	}
	return entity.DifficultyEasy
}

// Weight возвращает вес сложности в рейтинге
func Weight(d entity.Difficulty) float64 {
	return weights[NormalizeDifficulty(string(d))]
}

// ExpectedSecondsPerQuestion возвращает ожидаемое время на один вопрос
func ExpectedSecondsPerQuestion(d entity.Difficulty) float64 {
	return expectedSeconds[NormalizeDifficulty(string(d))]
}

type aggregate struct {
	userID        uint
	weightedSum   float64
	weightSum     float64
	percentageSum float64
	attempts      int
	hasChallenge  bool
	ratios        []float64
	durations     []float64
}

// Build агрегирует попытки по пользователям, отсекает неподходящих и возвращает первые limit мест.
// Попытки без процента не учитываются. limit <= 0 означает DefaultLimit.
func Build(attempts []entity.Attempt, limit int) []Entry {
	if limit <= 0 {
		limit = DefaultLimit
	}

	byUser := make(map[uint]*aggregate)
	for _, a := range attempts {
		if a.Percentage == nil {
			continue
		}
		agg, ok := byUser[a.UserID]
		if !ok {
			agg = &aggregate{userID: a.UserID}
			byUser[a.UserID] = agg
		}

		d := NormalizeDifficulty(string(a.Difficulty))
		w := weights[d]
		agg.weightedSum += *a.Percentage * w
		agg.weightSum += w
		agg.percentageSum += *a.Percentage
		agg.attempts++
		if d.IsChallenging() {
			agg.hasChallenge = true
		}

		if a.DurationSeconds != nil {
			agg.durations = append(agg.durations, float64(*a.DurationSeconds))
			if a.TotalQuestions != nil && *a.TotalQuestions > 0 {
				expected := expectedSeconds[d] * float64(*a.TotalQuestions)
				agg.ratios = append(agg.ratios, float64(*a.DurationSeconds)/expected)
			}
		}
	}

	entries := make([]Entry, 0, len(byUser))
	for _, agg := range byUser {
		if agg.attempts < minAttempts || !agg.hasChallenge {
			continue
		}
		entries = append(entries, Entry{
			UserID:             agg.userID,
			WeightedScore:      round(agg.weightedSum/agg.weightSum, 2),
			AttemptsCount:      agg.attempts,
			AvgPercentage:      round(agg.percentageSum/float64(agg.attempts), 2),
			AvgTimeRatio:       average(agg.ratios, 3),
			AvgDurationSeconds: average(agg.durations, 1),
			HasChallenge:       agg.hasChallenge,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.WeightedScore != b.WeightedScore {
			return a.WeightedScore > b.WeightedScore
		}
		switch {
		case a.AvgTimeRatio != nil && b.AvgTimeRatio != nil:
			if *a.AvgTimeRatio != *b.AvgTimeRatio {
				return *a.AvgTimeRatio < *b.AvgTimeRatio
			}
		case a.AvgTimeRatio != nil:
			return true
		case b.AvgTimeRatio != nil:
			return false
		}
		return a.UserID < b.UserID
	})

	if len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
		entries[i].Badge = badge(i + 1)
	}
	return entries
}

func badge(rank int) *string {
	var b string
	switch rank {
	case 1:
		b = BadgeGold
	case 2:
		b = BadgeSilver
	case 3:
		b = BadgeBronze
	default:
		return nil
	}
	return &b
}

func average(xs []float64, digits int) *float64 {
	if len(xs) == 0 {
		return nil
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	avg := round(sum/float64(len(xs)), digits)
	return &avg
}

func round(v float64, digits int) float64 {
	p := math.Pow(10, float64(digits))
	return math.Round(v*p) / p
}
