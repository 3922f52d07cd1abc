package entity

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Difficulty — метка сложности вопроса и попытки
type Difficulty string

// Допустимые уровни сложности (упорядочены от лёгкого к сложному)
const (
	DifficultyVeryEasy Difficulty = "Very Easy"
	DifficultyEasy     Difficulty = "Easy"
	DifficultyMedium   Difficulty = "Medium"
	DifficultyHard     Difficulty = "Hard"
)

// DefaultDifficulty используется, когда клиент не передал сложность при старте
const DefaultDifficulty = DifficultyMedium

// Difficulties возвращает все допустимые уровни в порядке возрастания
func Difficulties() []Difficulty {
	return []Difficulty{DifficultyVeryEasy, DifficultyEasy, DifficultyMedium, DifficultyHard}
}

// IsValid проверяет, что значение входит в фиксированный набор
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyVeryEasy, DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Level возвращает числовой уровень сложности: Very Easy=1 … Hard=4.
// Для неизвестного или пустого значения возвращается уровень Medium (3).
func (d Difficulty) Level() int {
	switch d {
	case DifficultyVeryEasy:
		return 1
	case DifficultyEasy:
		return 2
	case DifficultyMedium:
		return 3
	case DifficultyHard:
		return 4
	}
	return 3
}

// IsChallenging сообщает, относится ли сложность к Medium или Hard
func (d Difficulty) IsChallenging() bool {
	return d == DifficultyMedium || d == DifficultyHard
}

// ParseDifficulty приводит пользовательский ввод к каноническому виду ("very easy" → "Very Easy").
// Возвращает false, если значение не входит в набор допустимых.
func ParseDifficulty(raw string) (Difficulty, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultDifficulty, true
	}
	d := Difficulty(titleCase(raw))
	return d, d.IsValid()
}

// titleCase делает первую букву каждого слова заглавной, остальные строчными.
// cases.Caser хранит состояние, поэтому создаётся на каждый вызов.
func titleCase(s string) string {
	return cases.Title(language.Und).String(s)
}
