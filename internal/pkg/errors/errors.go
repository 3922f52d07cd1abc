package errors

import "errors"

// Общие ошибки приложения.
// Сервисы оборачивают их через fmt.Errorf("%w: ...", ErrX), обработчики сопоставляют через errors.Is.
var (
	// ErrNotFound используется, когда запись или ресурс не найдены
	// (нет вопросов для выбранной сложности, неизвестная попытка или вопрос).
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized используется, когда действующий пользователь не владеет запрошенными данными.
	// Детали о чужих данных в текст ошибки не попадают.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden используется, когда у пользователя недостаточно прав для действия.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation используется для ошибок валидации входных данных
	// (неизвестная сложность, неверное количество ответов, некорректная цель).
	ErrValidation = errors.New("validation failed")

	// ErrConflict используется для конфликтов состояния попытки:
	// отправка без начатой попытки, повторная отправка, гонка двух стартов.
	ErrConflict = errors.New("resource state conflict")
)
