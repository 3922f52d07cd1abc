package helper

import (
	"github.com/yourusername/quizmaster-api/internal/domain/entity"
)

// QuestionOption представляет вариант ответа для фронтенда
type QuestionOption struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// ConvertOptionsToObjects преобразует массив строк в массив объектов с id и text
// ID использует 0-based индексацию для совместимости с CorrectOption в базе данных
func ConvertOptionsToObjects(options []string) []QuestionOption {
	converted := make([]QuestionOption, len(options))
	for i, opt := range options {
		if opt == "" {
			opt = "(пустой вариант)"
		}
		converted[i] = QuestionOption{ID: i, Text: opt}
	}
	return converted
}

// DifficultyLabels возвращает допустимые метки сложности для сообщений об ошибках
func DifficultyLabels() []string {
	all := entity.Difficulties()
	labels := make([]string, len(all))
	for i, d := range all {
		labels[i] = string(d)
	}
	return labels
}
