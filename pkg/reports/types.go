// Package reports хранит пользовательские отчёты о дорожной обстановке:
// опасности (hazards) и происшествия (incidents) с необязательной фотографией.
package reports

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ilkoid/saigon-traffic/pkg/geocoding"
)

var (
	// ErrInvalidReport: отчёт не прошёл проверку полей.
	ErrInvalidReport = errors.New("invalid report")
	// ErrNotFound: отчёт с таким ID не найден.
	ErrNotFound = errors.New("report not found")
)

// Допустимые значения Severity и Impact.
const (
	MinLevel = 1
	MaxLevel = 5
)

// ValidationError описывает поле, не прошедшее проверку.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Unwrap позволяет проверять ошибку через errors.Is(err, ErrInvalidReport).
func (e *ValidationError) Unwrap() error {
	return ErrInvalidReport
}

// Hazard: опасность на дороге: яма, затопление, упавшее дерево.
type Hazard struct {
	ID        int64     `json:"id"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Cause     string    `json:"cause"`
	Severity  int       `json:"severity"`
	Notes     string    `json:"notes"`
	Timestamp time.Time `json:"timestamp"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	ImageKey  string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

// HazardUpdate: изменяемые поля опасности. nil означает "не менять".
type HazardUpdate struct {
	Severity *int    `json:"severity,omitempty"`
	Notes    *string `json:"notes,omitempty"`
}

// Incident: происшествие: авария, перекрытие, пробка.
type Incident struct {
	ID          int64     `json:"id"`
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	Impact      int       `json:"impact"`
	Timestamp   time.Time `json:"timestamp"`
	Verified    bool      `json:"verified"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	ImageKey    string    `json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Validate проверяет обязательные поля опасности.
func (h *Hazard) Validate(box geocoding.BoundingBox) error {
	if err := validateLocation(h.Lat, h.Lng, box); err != nil {
		return err
	}
	if strings.TrimSpace(h.Cause) == "" {
		return &ValidationError{Field: "cause", Reason: "is required"}
	}
	if err := validateLevel("severity", h.Severity); err != nil {
		return err
	}
	if strings.TrimSpace(h.Notes) == "" {
		return &ValidationError{Field: "notes", Reason: "is required"}
	}
	if h.Timestamp.IsZero() {
		return &ValidationError{Field: "timestamp", Reason: "is required"}
	}
	return nil
}

// Validate проверяет обязательные поля происшествия.
func (i *Incident) Validate(box geocoding.BoundingBox) error {
	if err := validateLocation(i.Lat, i.Lng, box); err != nil {
		return err
	}
	if strings.TrimSpace(i.Description) == "" {
		return &ValidationError{Field: "description", Reason: "is required"}
	}
	if strings.TrimSpace(i.Type) == "" {
		return &ValidationError{Field: "type", Reason: "is required"}
	}
	if err := validateLevel("impact", i.Impact); err != nil {
		return err
	}
	if i.Timestamp.IsZero() {
		return &ValidationError{Field: "timestamp", Reason: "is required"}
	}
	return nil
}

func validateLocation(lat, lng float64, box geocoding.BoundingBox) error {
	if math.IsNaN(lat) || math.IsNaN(lng) || (lat == 0 && lng == 0) {
		return &ValidationError{Field: "location", Reason: "lat and lng are required"}
	}
	if !box.Contains(lat, lng) {
		return &ValidationError{Field: "location", Reason: "coordinates are outside the city"}
	}
	return nil
}

func validateLevel(field string, v int) error {
	if v < MinLevel || v > MaxLevel {
		return &ValidationError{Field: field, Reason: fmt.Sprintf("must be between %d and %d", MinLevel, MaxLevel)}
	}
	return nil
}
