package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ilkoid/saigon-traffic/pkg/app"
	"github.com/ilkoid/saigon-traffic/pkg/geocoding"
	"github.com/ilkoid/saigon-traffic/pkg/reports"
	"github.com/ilkoid/saigon-traffic/pkg/search"
	"github.com/ilkoid/saigon-traffic/pkg/utils"
)

// errorBody: тело ответа с ошибкой.
type errorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		utils.Warn("Failed to encode response", "error", err)
	}
}

// writeError переводит ошибку сервиса в HTTP статус.
//
// Ошибка ввода даёт 400, отсутствующая сущность 404, ненастроенный геокодер 503,
// сбой геокодера 502. Прочие ошибки отдаются как 500 без деталей.
func writeError(w http.ResponseWriter, err error) {
	var pe *geocoding.ProviderError

	switch {
	case errors.Is(err, search.ErrInvalidQuery), errors.Is(err, reports.ErrInvalidReport):
		writeJSON(w, http.StatusBadRequest, errorBody{Message: err.Error()})
	case app.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, errorBody{Message: err.Error()})
	case errors.Is(err, search.ErrRemoteUnavailable), errors.Is(err, geocoding.ErrNoProvider):
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Message: "Remote geocoding is not configured"})
	case errors.As(err, &pe) && pe.Type == geocoding.ErrNoResults:
		writeJSON(w, http.StatusNotFound, errorBody{Message: pe.Type.HumanMessage()})
	case errors.As(err, &pe):
		utils.Warn("Geocoding provider error", "provider", pe.Provider, "op", pe.Op, "type", pe.Type.String(), "error", pe.Err)
		writeJSON(w, http.StatusBadGateway, errorBody{Message: pe.Type.HumanMessage(), Error: pe.Type.String()})
	default:
		utils.Error("Request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Message: "Internal server error"})
	}
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Message: message})
}
