package service

import (
	"errors"
)

// Ошибки сервиса
var (
	ErrLinkNotFound       = errors.New("ссылка не найдена")
	ErrClickNotFound      = errors.New("клик не найден")
	ErrSlugConflict       = errors.New("slug уже используется")
	ErrInvalidCredentials = errors.New("неверные учётные данные")
	ErrProcessorStopped   = errors.New("процессор кликов остановлен")
)

// ValidationError некорректный ввод; сообщение безопасно отдавать клиенту
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func newValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation сообщает, является ли err ошибкой валидации
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
