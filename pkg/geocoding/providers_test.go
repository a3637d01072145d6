package geocoding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/saigon-traffic/pkg/config"
	"github.com/ilkoid/saigon-traffic/pkg/places"
)

const googleOKBody = `{
  "status": "OK",
  "results": [
    {
      "formatted_address": "Lê Lợi, Bến Nghé, Quận 1, Thành phố Hồ Chí Minh, Việt Nam",
      "place_id": "ChIJ-leloi",
      "types": ["route"],
      "geometry": {"location": {"lat": 10.7743, "lng": 106.7009}},
      "address_components": [
        {"long_name": "Lê Lợi", "short_name": "Lê Lợi", "types": ["route"]},
        {"long_name": "Bến Nghé", "short_name": "Bến Nghé", "types": ["neighborhood", "political"]},
        {"long_name": "Quận 1", "short_name": "Quận 1", "types": ["sublocality", "political"]}
      ]
    },
    {
      "formatted_address": "Hà Nội, Việt Nam",
      "place_id": "ChIJ-hanoi",
      "types": ["locality"],
      "geometry": {"location": {"lat": 21.0278, "lng": 105.8342}},
      "address_components": []
    }
  ]
}`

func newTestGoogle(t *testing.T, url string) *Google {
	t.Helper()
	g, err := NewGoogle(config.GoogleConfig{
		APIKey:   "test-key",
		BaseURL:  url,
		Region:   "vn",
		Language: "vi",
	}, http.DefaultClient, nil, 2)
	require.NoError(t, err)
	return g
}

func TestGoogle_Geocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "le loi, Ho Chi Minh City, Vietnam", q.Get("address"))
		assert.Equal(t, "test-key", q.Get("key"))
		assert.Equal(t, "vn", q.Get("region"))
		assert.Equal(t, "vi", q.Get("language"))
		assert.Equal(t, "10.300000,106.300000|11.200000,107.100000", q.Get("bounds"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, googleOKBody)
	}))
	defer srv.Close()

	hits, err := newTestGoogle(t, srv.URL).Geocode(context.Background(), "le loi", HCMCBounds, 5)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	first := hits[0]
	assert.Equal(t, "Lê Lợi", first.Name)
	assert.Equal(t, places.CategoryStreet, first.Category)
	assert.Equal(t, "route", first.PlaceType)
	assert.Equal(t, "Quận 1", first.District)
	assert.Equal(t, "Bến Nghé", first.Area)
	assert.Equal(t, "ChIJ-leloi", first.PlaceID)
	assert.InDelta(t, 0.7, first.Confidence, 1e-9)
	assert.Equal(t, "google", first.Provider)

	assert.Equal(t, "Hà Nội", hits[1].Name, "name falls back to the first address segment")
	assert.Equal(t, places.CategoryPlace, hits[1].Category)
}

func TestGoogle_StatusHandling(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantHits int
		wantType ErrorType
		wantErr  bool
		calls    int32
	}{
		{name: "zero results", status: 200, body: `{"status":"ZERO_RESULTS","results":[]}`, calls: 1},
		{name: "denied", status: 200, body: `{"status":"REQUEST_DENIED","error_message":"bad key"}`, wantErr: true, wantType: ErrAuthFailed, calls: 1},
		{name: "quota", status: 200, body: `{"status":"OVER_QUERY_LIMIT"}`, wantErr: true, wantType: ErrRateLimit, calls: 1},
		{name: "malformed", status: 200, body: `{"status": "OK", "results": [`, wantErr: true, wantType: ErrMalformed, calls: 1},
		{name: "server error is retried", status: 500, body: `oops`, wantErr: true, wantType: ErrBadStatus, calls: 2},
		{name: "forbidden", status: 403, body: `nope`, wantErr: true, wantType: ErrAuthFailed, calls: 1},
		{name: "bad request", status: 400, body: `bad`, wantErr: true, wantType: ErrBadStatus, calls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			hits, err := newTestGoogle(t, srv.URL).Geocode(context.Background(), "x", HCMCBounds, 5)
			assert.Len(t, hits, tt.wantHits)
			assert.Equal(t, tt.calls, atomic.LoadInt32(&calls))
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}

			var pe *ProviderError
			require.True(t, errors.As(err, &pe), "expected ProviderError, got %v", err)
			assert.Equal(t, tt.wantType, pe.Type)
			assert.Equal(t, "google", pe.Provider)
			assert.Equal(t, "geocode", pe.Op)
		})
	}
}

func TestGoogle_RetriesAfterTooManyRequests(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, googleOKBody)
	}))
	defer srv.Close()

	hits, err := newTestGoogle(t, srv.URL).Geocode(context.Background(), "le loi", HCMCBounds, 1)
	require.NoError(t, err)
	assert.Len(t, hits, 1, "limit truncates provider results")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGoogle_Reverse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "10.774300,106.700900", q.Get("latlng"))
		assert.Equal(t, "street_address|route|sublocality|locality", q.Get("result_type"))
		fmt.Fprint(w, googleOKBody)
	}))
	defer srv.Close()

	hit, err := newTestGoogle(t, srv.URL).Reverse(context.Background(), 10.7743, 106.7009)
	require.NoError(t, err)
	assert.Equal(t, "Lê Lợi", hit.Name)

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"ZERO_RESULTS","results":[]}`)
	}))
	defer empty.Close()

	_, err = newTestGoogle(t, empty.URL).Reverse(context.Background(), 10.7743, 106.7009)
	var pe *ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, ErrNoResults, pe.Type)
}

func TestNewGoogle_RequiresKey(t *testing.T) {
	_, err := NewGoogle(config.GoogleConfig{BaseURL: "http://localhost"}, nil, nil, 1)
	assert.Error(t, err)
}

func TestNominatim_Geocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "saigon-traffic-test", r.Header.Get("User-Agent"))
		q := r.URL.Query()
		assert.Equal(t, "ben thanh", q.Get("q"))
		assert.Equal(t, "jsonv2", q.Get("format"))
		assert.Equal(t, "1", q.Get("bounded"))
		assert.Equal(t, "106.300000,11.200000,107.100000,10.300000", q.Get("viewbox"))
		assert.Equal(t, "3", q.Get("limit"))
		fmt.Fprint(w, `[
		  {"place_id": 123456, "lat": "10.7725", "lon": "106.6980", "name": "Chợ Bến Thành",
		   "display_name": "Chợ Bến Thành, Lê Lợi, Bến Thành, Quận 1, Thành phố Hồ Chí Minh",
		   "category": "amenity", "type": "marketplace", "importance": 0.4512,
		   "address": {"road": "Lê Lợi", "quarter": "Bến Thành", "city_district": "Quận 1"}},
		  {"place_id": 777, "lat": "10.80", "lon": "106.71", "name": "",
		   "display_name": "Cầu Sài Gòn, Bình Thạnh", "category": "man_made", "type": "bridge", "importance": 0.2}
		]`)
	}))
	defer srv.Close()

	n, err := NewNominatim(config.NominatimConfig{BaseURL: srv.URL + "/", UserAgent: "saigon-traffic-test"}, http.DefaultClient, nil, 1)
	require.NoError(t, err)

	hits, err := n.Geocode(context.Background(), "ben thanh", HCMCBounds, 3)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, "Chợ Bến Thành", hits[0].Name)
	assert.Equal(t, "123456", hits[0].PlaceID)
	assert.InDelta(t, 10.7725, hits[0].Lat, 1e-9)
	assert.InDelta(t, 106.6980, hits[0].Lng, 1e-9)
	assert.InDelta(t, 0.4512, hits[0].Confidence, 1e-9)
	assert.Equal(t, places.CategoryMarket, hits[0].Category)
	assert.Equal(t, "Quận 1", hits[0].District)
	assert.Equal(t, "Bến Thành", hits[0].Area)
	assert.Equal(t, "nominatim", hits[0].Provider)

	assert.Equal(t, "Cầu Sài Gòn", hits[1].Name)
	assert.Equal(t, places.CategoryBridge, hits[1].Category)
}

func TestNominatim_Reverse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		if r.URL.Query().Get("lat") == "0" {
			fmt.Fprint(w, `{"error": "Unable to geocode"}`)
			return
		}
		fmt.Fprint(w, `{"place_id": 42, "lat": "10.7769", "lon": "106.7009", "name": "Đồng Khởi",
		  "display_name": "Đồng Khởi, Bến Nghé, Quận 1", "category": "highway", "type": "primary", "importance": 0.3}`)
	}))
	defer srv.Close()

	n, err := NewNominatim(config.NominatimConfig{BaseURL: srv.URL, UserAgent: "ua"}, http.DefaultClient, nil, 1)
	require.NoError(t, err)

	hit, err := n.Reverse(context.Background(), 10.7769, 106.7009)
	require.NoError(t, err)
	assert.Equal(t, "Đồng Khởi", hit.Name)
	assert.Equal(t, places.CategoryStreet, hit.Category)

	_, err = n.Reverse(context.Background(), 0, 0)
	var pe *ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, ErrNoResults, pe.Type)
}

func TestNominatimCategory(t *testing.T) {
	tests := []struct {
		category, osmType string
		want              places.Category
	}{
		{"highway", "motorway", places.CategoryHighway},
		{"highway", "residential", places.CategoryStreet},
		{"amenity", "hospital", places.CategoryHospital},
		{"amenity", "university", places.CategoryUniversity},
		{"leisure", "park", places.CategoryPark},
		{"railway", "station", places.CategoryTransport},
		{"boundary", "administrative", places.CategoryDistrict},
		{"place", "city", places.CategoryCity},
		{"place", "suburb", places.CategoryArea},
		{"tourism", "museum", places.CategoryLandmark},
		{"natural", "water", places.CategoryPlace},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, nominatimCategory(tt.category, tt.osmType), "%s/%s", tt.category, tt.osmType)
	}
}
