package search

import (
	"errors"
	"fmt"
)

// Sentinel ошибки поиска.
var (
	// ErrInvalidQuery: пустой или некорректный запрос (HTTP 400).
	ErrInvalidQuery = errors.New("invalid query")

	// ErrNotFound: место с таким ключом отсутствует в справочнике (HTTP 404).
	ErrNotFound = errors.New("place not found")

	// ErrRemoteUnavailable: операция требует внешний геокодер, а он не настроен.
	ErrRemoteUnavailable = errors.New("remote geocoding is not configured")
)

// InputError описывает ошибку входных данных.
//
// errors.Is(err, ErrInvalidQuery) истинно для любой InputError.
type InputError struct {
	Field  string
	Reason string
}

// Error реализует интерфейс error.
func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Unwrap позволяет сравнивать с ErrInvalidQuery.
func (e *InputError) Unwrap() error {
	return ErrInvalidQuery
}
