package geocoding

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ilkoid/saigon-traffic/pkg/config"
	"github.com/ilkoid/saigon-traffic/pkg/places"
)

// googleConfidence: фиксированная уверенность для результатов Google.
// Google не возвращает собственной оценки релевантности.
const googleConfidence = 0.7

// cityQualifier дописывается к запросу, чтобы Google искал внутри города.
const cityQualifier = ", Ho Chi Minh City, Vietnam"

// Google: провайдер Google Geocoding API.
type Google struct {
	client   *httpClient
	apiKey   string
	baseURL  string
	region   string
	language string
}

var _ Provider = (*Google)(nil)

// NewGoogle создаёт провайдер Google Geocoding API.
//
// Параметры:
//   - cfg: секция geocoding.google (после GetDefaults)
//   - httpc: HTTP клиент (nil = http.Client без таймаута, таймаут попытки задаёт Adapter)
//   - waiter: ограничитель частоты запросов (nil = без ограничения)
//   - retryAttempts: количество попыток HTTP запроса
func NewGoogle(cfg config.GoogleConfig, httpc HTTPClient, waiter Waiter, retryAttempts int) (*Google, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("geocoding.google.api_key is required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("geocoding.google.base_url is required")
	}
	return &Google{
		client:   newHTTPClient(httpc, waiter, retryAttempts, ""),
		apiKey:   cfg.APIKey,
		baseURL:  cfg.BaseURL,
		region:   cfg.Region,
		language: cfg.Language,
	}, nil
}

// SetAttemptTimeout задаёт таймаут одной HTTP попытки.
// Ожидание в очереди Throttle в него не входит.
func (g *Google) SetAttemptTimeout(d time.Duration) {
	g.client.setAttemptTimeout(d)
}

// Name возвращает идентификатор провайдера.
func (g *Google) Name() string {
	return config.ProviderGoogle
}

type googleResponse struct {
	Status       string         `json:"status"`
	ErrorMessage string         `json:"error_message"`
	Results      []googleResult `json:"results"`
}

type googleResult struct {
	FormattedAddress string   `json:"formatted_address"`
	PlaceID          string   `json:"place_id"`
	Types            []string `json:"types"`
	Geometry         struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
	AddressComponents []googleAddressComponent `json:"address_components"`
}

type googleAddressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

// Geocode ищет места по текстовому запросу внутри города.
func (g *Google) Geocode(ctx context.Context, query string, box BoundingBox, limit int) ([]PlaceHit, error) {
	params := url.Values{}
	params.Set("address", query+cityQualifier)
	params.Set("key", g.apiKey)
	params.Set("bounds", fmt.Sprintf("%f,%f|%f,%f", box.South, box.West, box.North, box.East))
	if g.region != "" {
		params.Set("region", g.region)
	}
	if g.language != "" {
		params.Set("language", g.language)
	}

	var resp googleResponse
	if err := g.client.getJSON(ctx, g.baseURL, params, &resp); err != nil {
		return nil, newProviderError(g.Name(), "geocode", err)
	}

	if err := googleStatusError(resp); err != nil {
		if err.Type == ErrNoResults {
			return nil, nil
		}
		err.Provider, err.Op = g.Name(), "geocode"
		return nil, err
	}

	hits := make([]PlaceHit, 0, len(resp.Results))
	for _, r := range resp.Results {
		hits = append(hits, g.toHit(r))
		if limit > 0 && len(hits) >= limit {
			break
		}
	}
	return hits, nil
}

// Reverse возвращает ближайший адрес для координат.
func (g *Google) Reverse(ctx context.Context, lat, lng float64) (*PlaceHit, error) {
	params := url.Values{}
	params.Set("latlng", fmt.Sprintf("%f,%f", lat, lng))
	params.Set("key", g.apiKey)
	params.Set("result_type", "street_address|route|sublocality|locality")
	if g.language != "" {
		params.Set("language", g.language)
	}

	var resp googleResponse
	if err := g.client.getJSON(ctx, g.baseURL, params, &resp); err != nil {
		return nil, newProviderError(g.Name(), "reverse", err)
	}

	if err := googleStatusError(resp); err != nil {
		err.Provider, err.Op = g.Name(), "reverse"
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, &ProviderError{Provider: g.Name(), Op: "reverse", Type: ErrNoResults, Err: fmt.Errorf("empty results")}
	}

	hit := g.toHit(resp.Results[0])
	return &hit, nil
}

// googleStatusError переводит поле status ответа Google в ProviderError.
func googleStatusError(resp googleResponse) *ProviderError {
	var errType ErrorType
	switch resp.Status {
	case "OK":
		return nil
	case "ZERO_RESULTS":
		errType = ErrNoResults
	case "OVER_QUERY_LIMIT", "OVER_DAILY_LIMIT":
		errType = ErrRateLimit
	case "REQUEST_DENIED":
		errType = ErrAuthFailed
	case "INVALID_REQUEST":
		errType = ErrBadStatus
	case "":
		errType = ErrMalformed
	default:
		errType = ErrUnknown
	}

	msg := resp.Status
	if resp.ErrorMessage != "" {
		msg += ": " + resp.ErrorMessage
	}
	return &ProviderError{Type: errType, Err: fmt.Errorf("google status %s", msg)}
}

func (g *Google) toHit(r googleResult) PlaceHit {
	name := ""
	if len(r.AddressComponents) > 0 {
		name = r.AddressComponents[0].LongName
	}
	if name == "" {
		name = strings.TrimSpace(strings.Split(r.FormattedAddress, ",")[0])
	}

	placeType := ""
	if len(r.Types) > 0 {
		placeType = r.Types[0]
	}

	return PlaceHit{
		Name:             name,
		FormattedAddress: r.FormattedAddress,
		Lat:              r.Geometry.Location.Lat,
		Lng:              r.Geometry.Location.Lng,
		PlaceType:        placeType,
		Category:         googleCategory(r.Types),
		Confidence:       googleConfidence,
		PlaceID:          r.PlaceID,
		District:         findComponent(r.AddressComponents, "sublocality", "administrative_area_level_2"),
		Area:             findComponent(r.AddressComponents, "neighborhood", "sublocality_level_1"),
		Provider:         g.Name(),
	}
}

// googleCategory сопоставляет типы Google с категориями справочника.
func googleCategory(types []string) places.Category {
	switch {
	case hasType(types, "route"):
		return places.CategoryStreet
	case hasType(types, "establishment"), hasType(types, "point_of_interest"):
		return places.CategoryLandmark
	case hasType(types, "sublocality"), hasType(types, "neighborhood"):
		return places.CategoryArea
	case hasType(types, "administrative_area_level_2"):
		return places.CategoryDistrict
	default:
		return places.CategoryPlace
	}
}

// findComponent возвращает long_name первого компонента с любым из типов.
func findComponent(components []googleAddressComponent, types ...string) string {
	for _, c := range components {
		for _, t := range types {
			if hasType(c.Types, t) {
				return c.LongName
			}
		}
	}
	return ""
}

func hasType(types []string, want string) bool {
	for _, t := range types {
		if t == want {
			return true
		}
	}
	return false
}
