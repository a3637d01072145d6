// Package search собирает поиск мест: локальный справочник, ранжирование
// и внешний геокодер, объединённые в одну точку входа.
//
// Поток Search:
//  1. Проверка запроса (пустой запрос: InputError)
//  2. Нормализация и скоринг каждой записи справочника
//  3. Ранжирование локальных кандидатов
//  4. По режиму: вызов геокодера и слияние "удалённые первыми"
//  5. Сборка ответа с полем source; после шага 1 ошибок не бывает
package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ilkoid/saigon-traffic/pkg/config"
	"github.com/ilkoid/saigon-traffic/pkg/geocoding"
	"github.com/ilkoid/saigon-traffic/pkg/places"
	"github.com/ilkoid/saigon-traffic/pkg/utils"
)

// MaxLimit: верхняя граница лимита результатов.
const MaxLimit = 50

// ProximityDegrees: порог близости двух точек по широте и долготе.
// Локальный и удалённый результаты ближе порога считаются одним местом.
const ProximityDegrees = 0.001

// Geocoder: то, что поиску нужно от внешнего геокодера.
//
// *geocoding.Adapter реализует этот интерфейс.
type Geocoder interface {
	ProviderName() string
	Bounds() geocoding.BoundingBox
	Lookup(ctx context.Context, query string, limit int) ([]places.Candidate, error)
	Reverse(ctx context.Context, lat, lng float64) (*geocoding.PlaceHit, error)
	Ping(ctx context.Context) (*geocoding.PingResult, error)
}

var _ Geocoder = (*geocoding.Adapter)(nil)

// History сохраняет выполненные поиски.
type History interface {
	RecordSearch(ctx context.Context, query string, resultCount int) error
}

// Options: параметры поиска.
type Options struct {
	Mode              string        // config.ModeLocalFirst | ModeRemotePriority | ModeLocalOnly
	DefaultLimit      int           // Лимит Search по умолчанию
	SuggestLimit      int           // Лимит Suggest
	FallbackThreshold int           // local-first: геокодер вызывается, если локальных меньше
	CacheTTL          time.Duration // 0 отключает кэш
}

// OptionsFromConfig собирает Options из секции search.
func OptionsFromConfig(cfg config.SearchConfig) Options {
	cfg = cfg.GetDefaults()
	return Options{
		Mode:              cfg.Mode,
		DefaultLimit:      cfg.DefaultLimit,
		SuggestLimit:      cfg.SuggestLimit,
		FallbackThreshold: cfg.FallbackThreshold,
		CacheTTL:          config.Duration(cfg.CacheTTL, 0),
	}
}

func (o Options) withDefaults() Options {
	if o.Mode == "" {
		o.Mode = config.ModeLocalFirst
	}
	if o.DefaultLimit <= 0 {
		o.DefaultLimit = places.DefaultSearchLimit
	}
	if o.SuggestLimit <= 0 {
		o.SuggestLimit = places.DefaultSuggestLimit
	}
	if o.FallbackThreshold <= 0 {
		o.FallbackThreshold = 1
	}
	return o
}

// Service: точка входа поиска мест.
//
// Безопасен для конкурентного использования: справочник неизменяемый,
// кэш защищён мьютексом, частоту запросов к геокодеру ограничивает
// throttle внутри провайдера.
type Service struct {
	gazetteer *places.Gazetteer
	geocoder  Geocoder
	history   History
	opts      Options
	cache     *resultCache
}

// New создаёт сервис поиска.
//
// Параметры:
//   - g: загруженный справочник (обязателен)
//   - geocoder: внешний геокодер или nil для чисто локального поиска
//   - history: хранилище истории поиска или nil
//   - opts: режим и лимиты
func New(g *places.Gazetteer, geocoder Geocoder, history History, opts Options) (*Service, error) {
	if g == nil {
		return nil, fmt.Errorf("gazetteer is required")
	}

	opts = opts.withDefaults()
	switch opts.Mode {
	case config.ModeLocalFirst, config.ModeRemotePriority, config.ModeLocalOnly:
	default:
		return nil, fmt.Errorf("unknown search mode %q", opts.Mode)
	}

	return &Service{
		gazetteer: g,
		geocoder:  geocoder,
		history:   history,
		opts:      opts,
		cache:     newResultCache(opts.CacheTTL),
	}, nil
}

// Mode возвращает действующий режим поиска.
func (s *Service) Mode() string {
	return s.opts.Mode
}

// HasGeocoder сообщает, подключён ли внешний геокодер.
func (s *Service) HasGeocoder() bool {
	return s.geocoder != nil && s.opts.Mode != config.ModeLocalOnly
}

// Search ищет места по запросу.
//
// Параметры:
//   - ctx: контекст запроса (ограничивает и вызов геокодера)
//   - query: пользовательский запрос в любом регистре и с диакритикой
//   - limit: максимум результатов (<= 0 означает лимит по умолчанию)
//
// Возвращает *InputError для пустого запроса. В остальных случаях
// всегда возвращает ответ: сбой геокодера отражается в Degraded и Source.
func (s *Service) Search(ctx context.Context, query string, limit int) (*Response, error) {
	// 1. Проверка запроса
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, &InputError{Field: "query", Reason: "search query is required"}
	}
	normalized := places.Normalize(trimmed)
	if normalized == "" {
		return nil, &InputError{Field: "query", Reason: "search query has no searchable characters"}
	}
	limit = s.clampLimit(limit)

	cacheKey := fmt.Sprintf("%s|%d", normalized, limit)
	if cached, ok := s.cache.get(cacheKey); ok {
		cached.Query = trimmed
		cached.Cached = true
		utils.Debug("Search cache hit", "query", normalized, "limit", limit)
		s.record(ctx, normalized, cached.Count)
		return &cached, nil
	}

	// 2-3. Локальный скоринг и ранжирование
	local := places.Rank(places.Match(s.gazetteer, normalized), limit)

	resp := &Response{Query: trimmed, Source: SourceLocal}
	merged := local

	// 4. Внешний геокодер по режиму
	if s.shouldCallRemote(len(local)) {
		resp.Provider = s.geocoder.ProviderName()
		remote, err := s.geocoder.Lookup(ctx, trimmed, limit)
		switch {
		case err != nil:
			resp.Source = SourceLocalFallback
			resp.Degraded = true
			resp.Message = degradeMessage(err)
		case len(remote) == 0:
			resp.Source = SourceLocalFallback
		default:
			resp.Source = SourceRemotePriority
		}
		merged = MergeRemoteFirst(remote, local, limit)
		resp.RemoteCount = countRemote(merged)
	}

	// 5. Сборка ответа
	resp.Results = toResults(merged)
	resp.Count = len(resp.Results)
	if resp.Count == 0 && resp.Message == "" {
		resp.Message = "No places found"
	}

	utils.Info("Search done",
		"query", normalized,
		"mode", s.opts.Mode,
		"source", string(resp.Source),
		"local", len(local),
		"remote", resp.RemoteCount,
		"degraded", resp.Degraded)

	if !resp.Degraded {
		s.cache.put(cacheKey, *resp)
	}
	s.record(ctx, normalized, resp.Count)

	return resp, nil
}

// shouldCallRemote решает, нужен ли вызов геокодера при данном числе локальных результатов.
func (s *Service) shouldCallRemote(localCount int) bool {
	if !s.HasGeocoder() {
		return false
	}
	switch s.opts.Mode {
	case config.ModeRemotePriority:
		return true
	case config.ModeLocalFirst:
		return localCount < s.opts.FallbackThreshold
	default:
		return false
	}
}

func (s *Service) clampLimit(limit int) int {
	if limit <= 0 {
		return s.opts.DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

func (s *Service) record(ctx context.Context, normalized string, count int) {
	if s.history == nil {
		return
	}
	if err := s.history.RecordSearch(ctx, normalized, count); err != nil {
		utils.Warn("Failed to record search history", "query", normalized, "error", err)
	}
}

// degradeMessage формирует пояснение для клиента без деталей ошибки.
func degradeMessage(err error) string {
	var pe *geocoding.ProviderError
	if errors.As(err, &pe) {
		return "Remote geocoding unavailable: " + pe.Type.HumanMessage() + " Showing local results."
	}
	return "Remote geocoding unavailable. Showing local results."
}

// MergeRemoteFirst объединяет удалённые и локальные результаты.
//
// Удалённые идут первыми независимо от балла, внутри каждой группы
// действует порядок places.Rank. Локальный результат отбрасывается
// только если рядом (ProximityDegrees) уже есть удалённый.
func MergeRemoteFirst(remote, local []places.Candidate, limit int) []places.Candidate {
	remote = places.Rank(remote, 0)
	local = places.Rank(local, 0)

	merged := make([]places.Candidate, 0, len(remote)+len(local))
	merged = append(merged, remote...)
	for _, c := range local {
		if nearAny(c, remote) {
			continue
		}
		merged = append(merged, c)
	}

	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

// Near сообщает, что две точки ближе ProximityDegrees по обеим осям.
func Near(lat1, lng1, lat2, lng2 float64) bool {
	return math.Abs(lat1-lat2) < ProximityDegrees && math.Abs(lng1-lng2) < ProximityDegrees
}

func nearAny(c places.Candidate, others []places.Candidate) bool {
	for _, o := range others {
		if Near(c.Place.Lat, c.Place.Lng, o.Place.Lat, o.Place.Lng) {
			return true
		}
	}
	return false
}

func countRemote(cands []places.Candidate) int {
	n := 0
	for _, c := range cands {
		if c.IsRemote() {
			n++
		}
	}
	return n
}

// PlaceDetails возвращает запись справочника по ключу или локализованному имени.
func (s *Service) PlaceDetails(name string) (*places.PlaceRecord, error) {
	if strings.TrimSpace(name) == "" {
		return nil, &InputError{Field: "name", Reason: "place name is required"}
	}

	rec, ok := s.gazetteer.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return &rec, nil
}

// Reverse возвращает адрес для координат внутри города.
//
// Координаты вне прямоугольника города: InputError.
// Ошибка провайдера возвращается как *geocoding.ProviderError.
func (s *Service) Reverse(ctx context.Context, lat, lng float64) (*geocoding.PlaceHit, error) {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return nil, &InputError{Field: "coordinates", Reason: "lat and lng must be numbers"}
	}
	if !s.bounds().Contains(lat, lng) {
		return nil, &InputError{Field: "coordinates", Reason: "coordinates are outside Ho Chi Minh City"}
	}
	if !s.HasGeocoder() {
		return nil, ErrRemoteUnavailable
	}
	return s.geocoder.Reverse(ctx, lat, lng)
}

// Ping проверяет связь с внешним геокодером.
func (s *Service) Ping(ctx context.Context) (*geocoding.PingResult, error) {
	if s.geocoder == nil {
		return nil, ErrRemoteUnavailable
	}
	return s.geocoder.Ping(ctx)
}

func (s *Service) bounds() geocoding.BoundingBox {
	if s.geocoder != nil {
		return s.geocoder.Bounds()
	}
	return geocoding.HCMCBounds
}

// queryLength: длина запроса в рунах после обрезки пробелов.
func queryLength(q string) int {
	return utf8.RuneCountInString(strings.TrimSpace(q))
}
