package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ilkoid/saigon-traffic/pkg/config"
	"github.com/ilkoid/saigon-traffic/pkg/places"
)

// Nominatim: провайдер OpenStreetMap Nominatim.
//
// Публичный инстанс требует не больше одного запроса в секунду
// и идентифицирующий User-Agent, поэтому провайдер всегда
// используется вместе с Throttle.
type Nominatim struct {
	client   *httpClient
	baseURL  string
	email    string
	language string
}

var _ Provider = (*Nominatim)(nil)

// NewNominatim создаёт провайдер Nominatim.
func NewNominatim(cfg config.NominatimConfig, httpc HTTPClient, waiter Waiter, retryAttempts int) (*Nominatim, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("geocoding.nominatim.base_url is required")
	}
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("geocoding.nominatim.user_agent is required")
	}
	return &Nominatim{
		client:   newHTTPClient(httpc, waiter, retryAttempts, cfg.UserAgent),
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		email:    cfg.Email,
		language: cfg.Language,
	}, nil
}

// SetAttemptTimeout задаёт таймаут одной HTTP попытки.
// Ожидание в очереди Throttle в него не входит.
func (n *Nominatim) SetAttemptTimeout(d time.Duration) {
	n.client.setAttemptTimeout(d)
}

// Name возвращает идентификатор провайдера.
func (n *Nominatim) Name() string {
	return config.ProviderNominatim
}

type nominatimPlace struct {
	PlaceID     json.Number      `json:"place_id"`
	Lat         float64          `json:"lat,string"`
	Lon         float64          `json:"lon,string"`
	Name        string           `json:"name"`
	DisplayName string           `json:"display_name"`
	Category    string           `json:"category"`
	Type        string           `json:"type"`
	Importance  float64          `json:"importance"`
	Address     nominatimAddress `json:"address"`
	Error       string           `json:"error"`
}

type nominatimAddress struct {
	Road          string `json:"road"`
	Neighbourhood string `json:"neighbourhood"`
	Quarter       string `json:"quarter"`
	Suburb        string `json:"suburb"`
	CityDistrict  string `json:"city_district"`
	City          string `json:"city"`
}

// Geocode ищет места по текстовому запросу, ограничиваясь прямоугольником.
func (n *Nominatim) Geocode(ctx context.Context, query string, box BoundingBox, limit int) ([]PlaceHit, error) {
	params := n.baseParams()
	params.Set("q", query)
	params.Set("countrycodes", "vn")
	// viewbox: left,top,right,bottom; bounded=1 отсекает всё вне прямоугольника
	params.Set("viewbox", fmt.Sprintf("%f,%f,%f,%f", box.West, box.North, box.East, box.South))
	params.Set("bounded", "1")
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var resp []nominatimPlace
	if err := n.client.getJSON(ctx, n.baseURL+"/search", params, &resp); err != nil {
		return nil, newProviderError(n.Name(), "geocode", err)
	}

	hits := make([]PlaceHit, 0, len(resp))
	for _, p := range resp {
		hits = append(hits, n.toHit(p))
		if limit > 0 && len(hits) >= limit {
			break
		}
	}
	return hits, nil
}

// Reverse возвращает ближайший адрес для координат.
func (n *Nominatim) Reverse(ctx context.Context, lat, lng float64) (*PlaceHit, error) {
	params := n.baseParams()
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))
	params.Set("zoom", "18")

	var resp nominatimPlace
	if err := n.client.getJSON(ctx, n.baseURL+"/reverse", params, &resp); err != nil {
		return nil, newProviderError(n.Name(), "reverse", err)
	}
	if resp.Error != "" {
		return nil, &ProviderError{Provider: n.Name(), Op: "reverse", Type: ErrNoResults, Err: fmt.Errorf("nominatim: %s", resp.Error)}
	}

	hit := n.toHit(resp)
	return &hit, nil
}

func (n *Nominatim) baseParams() url.Values {
	params := url.Values{}
	params.Set("format", "jsonv2")
	params.Set("addressdetails", "1")
	if n.language != "" {
		params.Set("accept-language", n.language)
	}
	if n.email != "" {
		params.Set("email", n.email)
	}
	return params
}

func (n *Nominatim) toHit(p nominatimPlace) PlaceHit {
	name := p.Name
	if name == "" {
		name = strings.TrimSpace(strings.Split(p.DisplayName, ",")[0])
	}

	return PlaceHit{
		Name:             name,
		FormattedAddress: p.DisplayName,
		Lat:              p.Lat,
		Lng:              p.Lon,
		PlaceType:        p.Category + "/" + p.Type,
		Category:         nominatimCategory(p.Category, p.Type),
		Confidence:       p.Importance,
		PlaceID:          p.PlaceID.String(),
		District:         firstNonEmpty(p.Address.CityDistrict, p.Address.Suburb),
		Area:             firstNonEmpty(p.Address.Neighbourhood, p.Address.Quarter),
		Provider:         n.Name(),
	}
}

// nominatimCategory сопоставляет OSM category/type с категориями справочника.
func nominatimCategory(category, osmType string) places.Category {
	switch {
	case osmType == "bridge":
		return places.CategoryBridge
	case category == "highway" && (osmType == "motorway" || osmType == "trunk"):
		return places.CategoryHighway
	case category == "highway":
		return places.CategoryStreet
	case osmType == "hospital" || osmType == "clinic":
		return places.CategoryHospital
	case osmType == "university" || osmType == "college":
		return places.CategoryUniversity
	case osmType == "marketplace":
		return places.CategoryMarket
	case osmType == "park" || osmType == "garden":
		return places.CategoryPark
	case category == "railway" || category == "aeroway" || category == "public_transport" || osmType == "bus_station":
		return places.CategoryTransport
	case category == "boundary":
		return places.CategoryDistrict
	case category == "place" && (osmType == "city" || osmType == "town"):
		return places.CategoryCity
	case category == "place":
		return places.CategoryArea
	case category == "amenity" || category == "tourism" || category == "historic" ||
		category == "building" || category == "shop" || category == "leisure":
		return places.CategoryLandmark
	default:
		return places.CategoryPlace
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
