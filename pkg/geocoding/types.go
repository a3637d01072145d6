// Package geocoding подключает внешние геокодеры (Google, Nominatim)
// к поиску мест.
//
// Архитектура:
//   - Provider: стратегия конкретного сервиса, знает только его HTTP формат
//   - httpClient: общий HTTP слой с retry, throttling и классификацией ошибок
//   - Adapter: то, что видит поиск: таймаут, фильтр по прямоугольнику города,
//     конвертация в places.Candidate и деградация до пустого списка при сбоях
package geocoding

import (
	"context"

	"github.com/ilkoid/saigon-traffic/pkg/config"
	"github.com/ilkoid/saigon-traffic/pkg/places"
)

// PlaceHit: один результат внешнего геокодера.
type PlaceHit struct {
	Name             string          `json:"name"`
	FormattedAddress string          `json:"formattedAddress"`
	Lat              float64         `json:"lat"`
	Lng              float64         `json:"lng"`
	PlaceType        string          `json:"placeType"` // Тип места в терминах провайдера (route, establishment, ...)
	Category         places.Category `json:"category"`
	Confidence       float64         `json:"confidence"` // Уверенность провайдера в диапазоне [0, 1]
	PlaceID          string          `json:"placeId,omitempty"`
	District         string          `json:"district,omitempty"`
	Area             string          `json:"area,omitempty"`
	Provider         string          `json:"provider"`
}

// BoundingBox: прямоугольник широт и долгот.
type BoundingBox struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// HCMCBounds: прямоугольник Хошимина.
var HCMCBounds = BoundingBox{South: 10.3, West: 106.3, North: 11.2, East: 107.1}

// BoundsFromConfig конвертирует секцию конфига в BoundingBox.
func BoundsFromConfig(cfg config.BoundsConfig) BoundingBox {
	if cfg.IsZero() {
		return HCMCBounds
	}
	return BoundingBox{South: cfg.South, West: cfg.West, North: cfg.North, East: cfg.East}
}

// Contains сообщает, лежит ли точка внутри прямоугольника (границы включены).
func (b BoundingBox) Contains(lat, lng float64) bool {
	return lat >= b.South && lat <= b.North && lng >= b.West && lng <= b.East
}

// Provider: стратегия внешнего геокодера.
//
// Реализации не фильтруют результаты по прямоугольнику сами,
// это делает Adapter. Прямоугольник передаётся как подсказка провайдеру.
type Provider interface {
	// Name возвращает идентификатор провайдера ("google", "nominatim").
	Name() string

	// Geocode ищет места по текстовому запросу.
	Geocode(ctx context.Context, query string, box BoundingBox, limit int) ([]PlaceHit, error)

	// Reverse возвращает ближайший адрес для координат.
	Reverse(ctx context.Context, lat, lng float64) (*PlaceHit, error)
}
