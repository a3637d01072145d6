package geocoding

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/ilkoid/saigon-traffic/pkg/config"
	"github.com/ilkoid/saigon-traffic/pkg/places"
	"github.com/ilkoid/saigon-traffic/pkg/utils"
)

// DefaultTimeout: таймаут одного вызова провайдера по умолчанию.
const DefaultTimeout = 10 * time.Second

// PingQuery: запрос для проверки связи с провайдером.
const PingQuery = "Ben Thanh Market"

// Adapter: внешний геокодер в терминах поиска мест.
//
// Отвечает за таймаут вызова, фильтр по прямоугольнику города
// и конвертацию PlaceHit в places.Candidate. Ошибки провайдера
// возвращаются как *ProviderError вместе с пустым списком,
// решение о деградации принимает вызывающий.
type Adapter struct {
	provider Provider
	box      BoundingBox
	timeout  time.Duration
	// timedByProvider: провайдер сам ограничивает каждую попытку после Throttle.
	timedByProvider bool
}

// attemptTimer реализуют провайдеры с собственным Throttle.
// Таймаут таким провайдерам передаётся внутрь и не включает ожидание в очереди.
type attemptTimer interface {
	SetAttemptTimeout(d time.Duration)
}

// NewAdapter создаёт адаптер вокруг провайдера.
//
// Параметры:
//   - provider: стратегия геокодера (Google, Nominatim или заглушка в тестах)
//   - box: прямоугольник, за пределами которого результаты отбрасываются
//   - timeout: таймаут одного вызова (<= 0 означает DefaultTimeout);
//     для Google и Nominatim считается с момента, когда Throttle выдал окно
func NewAdapter(provider Provider, box BoundingBox, timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	a := &Adapter{
		provider: provider,
		box:      box,
		timeout:  timeout,
	}
	if t, ok := provider.(attemptTimer); ok {
		t.SetAttemptTimeout(timeout)
		a.timedByProvider = true
	}
	return a
}

// callContext возвращает контекст для одного вызова провайдера.
func (a *Adapter) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.timedByProvider {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, a.timeout)
}

// NewAdapterFromConfig собирает провайдер, throttle и адаптер по секции geocoding.
//
// Для provider: none возвращает (nil, nil): поиск работает только локально.
func NewAdapterFromConfig(cfg config.GeocodingConfig, httpc HTTPClient) (*Adapter, error) {
	cfg = cfg.GetDefaults()

	provider, err := NewProvider(cfg, httpc)
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, nil
	}

	timeout := config.Duration(cfg.Timeout, DefaultTimeout)
	return NewAdapter(provider, BoundsFromConfig(cfg.Bounds), timeout), nil
}

// NewProvider создаёт провайдер по имени из конфига.
//
// Все вызовы провайдера проходят через один Throttle с интервалом geocoding.min_interval.
func NewProvider(cfg config.GeocodingConfig, httpc HTTPClient) (Provider, error) {
	if httpc == nil {
		httpc = &http.Client{}
	}
	throttle := NewThrottle(config.Duration(cfg.MinInterval, time.Second))

	switch cfg.Provider {
	case config.ProviderNone, "":
		return nil, nil
	case config.ProviderGoogle:
		return NewGoogle(cfg.Google, httpc, throttle, cfg.RetryAttempts)
	case config.ProviderNominatim:
		return NewNominatim(cfg.Nominatim, httpc, throttle, cfg.RetryAttempts)
	default:
		return nil, fmt.Errorf("unknown geocoding provider %q", cfg.Provider)
	}
}

// ProviderName возвращает имя провайдера.
func (a *Adapter) ProviderName() string {
	return a.provider.Name()
}

// Bounds возвращает прямоугольник фильтрации.
func (a *Adapter) Bounds() BoundingBox {
	return a.box
}

// Lookup ищет места у провайдера и возвращает их как удалённых кандидатов.
//
// Результаты вне прямоугольника молча отбрасываются.
// При сбое провайдера возвращается пустой список и *ProviderError.
func (a *Adapter) Lookup(ctx context.Context, query string, limit int) ([]places.Candidate, error) {
	if a == nil || a.provider == nil {
		return nil, ErrNoProvider
	}

	ctx, cancel := a.callContext(ctx)
	defer cancel()

	start := time.Now()
	hits, err := a.provider.Geocode(ctx, query, a.box, limit)
	if err != nil {
		pe := newProviderError(a.provider.Name(), "geocode", err)
		utils.Warn("Geocoding failed",
			"provider", pe.Provider,
			"type", pe.Type.String(),
			"status", pe.StatusCode,
			"query", query,
			"error", pe.Err)
		return nil, pe
	}

	candidates := make([]places.Candidate, 0, len(hits))
	dropped := 0
	for _, hit := range hits {
		if !a.box.Contains(hit.Lat, hit.Lng) {
			dropped++
			continue
		}
		candidates = append(candidates, HitToCandidate(hit))
	}

	utils.Debug("Geocoding done",
		"provider", a.provider.Name(),
		"query", query,
		"hits", len(hits),
		"out_of_bounds", dropped,
		"duration", time.Since(start))

	return candidates, nil
}

// Reverse возвращает адрес для координат.
//
// Проверку координат на попадание в город выполняет вызывающий.
func (a *Adapter) Reverse(ctx context.Context, lat, lng float64) (*PlaceHit, error) {
	if a == nil || a.provider == nil {
		return nil, ErrNoProvider
	}

	ctx, cancel := a.callContext(ctx)
	defer cancel()

	hit, err := a.provider.Reverse(ctx, lat, lng)
	if err != nil {
		pe := newProviderError(a.provider.Name(), "reverse", err)
		utils.Warn("Reverse geocoding failed",
			"provider", pe.Provider,
			"type", pe.Type.String(),
			"lat", lat,
			"lng", lng,
			"error", pe.Err)
		return nil, pe
	}
	return hit, nil
}

// PingResult: результат проверки связи с провайдером.
type PingResult struct {
	Provider  string    `json:"provider"`
	Query     string    `json:"query"`
	Hits      int       `json:"hits"`
	LatencyMs int64     `json:"latencyMs"`
	First     *PlaceHit `json:"first,omitempty"`
}

// Ping выполняет пробный запрос к провайдеру без фильтрации результатов.
func (a *Adapter) Ping(ctx context.Context) (*PingResult, error) {
	if a == nil || a.provider == nil {
		return nil, ErrNoProvider
	}

	ctx, cancel := a.callContext(ctx)
	defer cancel()

	start := time.Now()
	hits, err := a.provider.Geocode(ctx, PingQuery, a.box, 1)
	latency := time.Since(start)
	utils.Info("Geocoding ping", "provider", a.provider.Name(), "latency", latency, "error", err)
	if err != nil {
		return nil, newProviderError(a.provider.Name(), "geocode", err)
	}

	result := &PingResult{
		Provider:  a.provider.Name(),
		Query:     PingQuery,
		Hits:      len(hits),
		LatencyMs: latency.Milliseconds(),
	}
	if len(hits) > 0 {
		result.First = &hits[0]
	}
	return result, nil
}

// HitToCandidate конвертирует результат провайдера в удалённого кандидата.
func HitToCandidate(hit PlaceHit) places.Candidate {
	category := hit.Category
	if !category.Valid() {
		category = places.CategoryPlace
	}

	return places.Candidate{
		Place:     places.NewPlaceRecord(hit.Name, hit.Lat, hit.Lng, category, hit.FormattedAddress, ""),
		Score:     ConfidenceScore(hit.Confidence),
		MatchType: places.MatchGeocoding,
		Source:    places.SourceRemote,
		Address: &places.Address{
			FullAddress: hit.FormattedAddress,
			PlaceID:     hit.PlaceID,
			District:    hit.District,
			Area:        hit.Area,
		},
	}
}

// ConfidenceScore переводит уверенность провайдера [0, 1] в балл [1, 100].
//
// Удалённый результат всегда получает ненулевой балл, иначе Rank его отбросит.
func ConfidenceScore(confidence float64) int {
	if math.IsNaN(confidence) {
		return 1
	}
	score := int(math.Round(confidence * 100))
	switch {
	case score < 1:
		return 1
	case score > 100:
		return 100
	default:
		return score
	}
}
