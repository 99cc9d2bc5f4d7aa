package domain

import (
	"errors"
	"fmt"
)

// ErrSubmitInProgress возвращается, пока предыдущая отправка того же автора не завершилась.
var ErrSubmitInProgress = errors.New("submit already in progress")

// ValidationError - запрос отклонен до любого изменения состояния.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError - комментарий, ответ или поездка не найдены.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// TransportError - сбой сети или сервера. Локальное состояние откатывается.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: server responded %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsValidation сообщает, является ли err ошибкой валидации.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound сообщает, является ли err ошибкой отсутствия сущности.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsTransport сообщает, является ли err транспортной ошибкой.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
