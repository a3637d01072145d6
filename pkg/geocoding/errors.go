package geocoding

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrorType представляет тип ошибки при работе с геокодером.
type ErrorType int

const (
	ErrUnknown ErrorType = iota
	ErrAuthFailed
	ErrTimeout
	ErrNetwork
	ErrRateLimit
	ErrBadStatus
	ErrMalformed
	ErrNoResults
)

// String возвращает строковое представление типа ошибки.
func (e ErrorType) String() string {
	switch e {
	case ErrAuthFailed:
		return "authentication_failed"
	case ErrTimeout:
		return "timeout"
	case ErrNetwork:
		return "network_error"
	case ErrRateLimit:
		return "rate_limit"
	case ErrBadStatus:
		return "bad_status"
	case ErrMalformed:
		return "malformed_response"
	case ErrNoResults:
		return "no_results"
	default:
		return "unknown"
	}
}

// HumanMessage возвращает человекочитаемое сообщение для типа ошибки.
func (e ErrorType) HumanMessage() string {
	switch e {
	case ErrAuthFailed:
		return "Geocoding API key is missing or rejected."
	case ErrTimeout:
		return "Geocoding service did not answer in time."
	case ErrNetwork:
		return "Geocoding service is unreachable."
	case ErrRateLimit:
		return "Geocoding quota exceeded, try again later."
	case ErrBadStatus:
		return "Geocoding service returned an error status."
	case ErrMalformed:
		return "Geocoding service returned an unreadable response."
	case ErrNoResults:
		return "Geocoding service found nothing for this location."
	default:
		return "Unknown geocoding error."
	}
}

// ErrNoProvider возвращается, если внешний геокодер не настроен.
var ErrNoProvider = errors.New("geocoding provider is not configured")

// ProviderError: ошибка вызова внешнего геокодера.
//
// Поиск такие ошибки логирует и не пробрасывает: он деградирует
// до локальных результатов.
type ProviderError struct {
	Provider   string
	Op         string // geocode | reverse
	Type       ErrorType
	StatusCode int // HTTP статус или 0
	Err        error
}

// Error реализует интерфейс error.
func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s failed (%s, status %d): %v", e.Provider, e.Op, e.Type, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s failed (%s): %v", e.Provider, e.Op, e.Type, e.Err)
}

// Unwrap возвращает исходную ошибку.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// newProviderError оборачивает ошибку, сохраняя уже известную классификацию.
func newProviderError(provider, op string, err error) *ProviderError {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return &ProviderError{Provider: provider, Op: op, Type: pe.Type, StatusCode: pe.StatusCode, Err: pe.Err}
	}
	return &ProviderError{Provider: provider, Op: op, Type: ClassifyError(err), Err: err}
}

// ClassifyError классифицирует ошибку по типу для лучшей диагностики.
//
// Сначала проверяются типизированные ошибки (context, net.Error, ProviderError),
// затем текст ошибки:
//   - ErrAuthFailed: 401, 403, REQUEST_DENIED
//   - ErrTimeout: timeout, deadline exceeded
//   - ErrNetwork: connection refused, no such host
//   - ErrRateLimit: 429, OVER_QUERY_LIMIT
//   - ErrUnknown: все остальные ошибки
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ErrUnknown
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Type
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}

	errMsg := err.Error()
	errMsgLower := strings.ToLower(errMsg)

	switch {
	case strings.Contains(errMsg, "401") ||
		strings.Contains(errMsg, "403") ||
		strings.Contains(errMsg, "REQUEST_DENIED"):
		return ErrAuthFailed
	case strings.Contains(errMsgLower, "timeout") ||
		strings.Contains(errMsg, "deadline exceeded"):
		return ErrTimeout
	case strings.Contains(errMsg, "connection refused") ||
		strings.Contains(errMsg, "no such host"):
		return ErrNetwork
	case strings.Contains(errMsg, "429") ||
		strings.Contains(errMsg, "OVER_QUERY_LIMIT"):
		return ErrRateLimit
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrNetwork
	}

	return ErrUnknown
}
