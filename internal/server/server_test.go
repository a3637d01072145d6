package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/saigon-traffic/pkg/app"
	"github.com/ilkoid/saigon-traffic/pkg/config"
	"github.com/ilkoid/saigon-traffic/pkg/geocoding"
	"github.com/ilkoid/saigon-traffic/pkg/places"
	"github.com/ilkoid/saigon-traffic/pkg/reports"
	"github.com/ilkoid/saigon-traffic/pkg/search"
	"github.com/ilkoid/saigon-traffic/pkg/store"
)

// stubProvider: провайдер геокодирования для тестов API.
type stubProvider struct {
	hits    []geocoding.PlaceHit
	reverse *geocoding.PlaceHit
	err     error
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Geocode(_ context.Context, _ string, _ geocoding.BoundingBox, _ int) ([]geocoding.PlaceHit, error) {
	return p.hits, p.err
}

func (p *stubProvider) Reverse(_ context.Context, _, _ float64) (*geocoding.PlaceHit, error) {
	return p.reverse, p.err
}

func newTestServer(t *testing.T, provider geocoding.Provider, mode string) *httptest.Server {
	t.Helper()
	dir := t.TempDir()

	st, err := store.Open(filepath.Join(dir, "traffic.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	gaz, err := places.LoadDefault()
	require.NoError(t, err)

	var (
		adapter  *geocoding.Adapter
		geocoder search.Geocoder
	)
	if provider != nil {
		adapter = geocoding.NewAdapter(provider, geocoding.HCMCBounds, time.Second)
		geocoder = adapter
	}

	searchSvc, err := search.New(gaz, geocoder, st, search.Options{Mode: mode})
	require.NoError(t, err)

	images := reports.NewLocalImageStore(filepath.Join(dir, "uploads"), app.UploadsURLPrefix)
	reportsSvc := reports.NewService(st, images, geocoding.HCMCBounds, config.ImageProcConfig{MaxWidth: 64})

	comps := &app.Components{
		Config:    config.Default(),
		Gazetteer: gaz,
		Geocoder:  adapter,
		Search:    searchSvc,
		Reports:   reportsSvc,
		Store:     st,
	}

	ts := httptest.NewServer(New(comps, config.ServerConfig{}).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, target string, body io.Reader, contentType string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, target, body)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func get(t *testing.T, target string) (int, map[string]any) {
	return doJSON(t, http.MethodGet, target, nil, "")
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil, config.ModeLocalFirst)

	status, body := get(t, ts.URL+"/healthz")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(121), body["places"])
	assert.Equal(t, "none", body["geocoder"])
}

func TestSearchEndpoint(t *testing.T) {
	ts := newTestServer(t, nil, config.ModeLocalFirst)

	t.Run("results", func(t *testing.T) {
		status, body := get(t, ts.URL+"/api/search?query="+url.QueryEscape("Chợ Bến Thành"))
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "local", body["source"])

		results := body["results"].([]any)
		require.NotEmpty(t, results)
		first := results[0].(map[string]any)
		assert.Equal(t, "ben thanh market", first["name"])
		assert.Equal(t, "exact", first["matchType"])
		assert.Equal(t, "Chợ Bến Thành", first["vietnameseName"])
	})

	t.Run("missing query", func(t *testing.T) {
		status, body := get(t, ts.URL+"/api/search")
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, false, body["success"])
		assert.NotEmpty(t, body["message"])
	})

	t.Run("bad limit", func(t *testing.T) {
		status, _ := get(t, ts.URL+"/api/search?query=q1&limit=abc")
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("limit", func(t *testing.T) {
		status, body := get(t, ts.URL+"/api/search?query=district&limit=2")
		require.Equal(t, http.StatusOK, status)
		assert.Len(t, body["results"], 2)
	})

	t.Run("history", func(t *testing.T) {
		status, body := get(t, ts.URL+"/api/search/history?limit=5")
		require.Equal(t, http.StatusOK, status)
		searches := body["searches"].([]any)
		require.NotEmpty(t, searches)
		assert.Equal(t, "district", searches[0].(map[string]any)["query"])
	})
}

func TestSearchEndpoint_RemoteFailureDegrades(t *testing.T) {
	ts := newTestServer(t, &stubProvider{err: errors.New("status 503, body: down")}, config.ModeRemotePriority)

	status, body := get(t, ts.URL+"/api/search?query=q1")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["degraded"])
	assert.Equal(t, "local-fallback", body["source"])
	assert.NotEmpty(t, body["results"])
}

func TestSuggestionsEndpoint(t *testing.T) {
	ts := newTestServer(t, nil, config.ModeLocalFirst)

	status, body := get(t, ts.URL+"/api/search/suggestions?q=a")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []any{}, body["suggestions"])

	status, body = get(t, ts.URL+"/api/search/suggestions?q=ben")
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["suggestions"])
}

func TestPlaceEndpoint(t *testing.T) {
	ts := newTestServer(t, nil, config.ModeLocalFirst)

	status, body := get(t, ts.URL+"/api/search/place/"+url.PathEscape("ben thanh market"))
	require.Equal(t, http.StatusOK, status)
	place := body["place"].(map[string]any)
	assert.Equal(t, "ben thanh market", place["key"])
	assert.Equal(t, "Chợ Bến Thành", place["displayName"])
	assert.Equal(t, "landmark", place["type"])
	assert.Equal(t, "local", place["source"])

	status, body = get(t, ts.URL+"/api/search/place/atlantis")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, false, body["success"])
}

func TestReverseAndPingEndpoints(t *testing.T) {
	t.Run("without geocoder", func(t *testing.T) {
		ts := newTestServer(t, nil, config.ModeLocalFirst)

		status, _ := get(t, ts.URL+"/api/search/reverse?lat=10.77")
		assert.Equal(t, http.StatusBadRequest, status)

		status, _ = get(t, ts.URL+"/api/search/reverse?lat=21.02&lng=105.85")
		assert.Equal(t, http.StatusBadRequest, status)

		status, _ = get(t, ts.URL+"/api/search/reverse?lat=10.77&lng=106.70")
		assert.Equal(t, http.StatusServiceUnavailable, status)

		status, _ = get(t, ts.URL+"/api/search/test-api")
		assert.Equal(t, http.StatusServiceUnavailable, status)
	})

	t.Run("with geocoder", func(t *testing.T) {
		provider := &stubProvider{
			hits:    []geocoding.PlaceHit{{Name: "Chợ Bến Thành", Lat: 10.7725, Lng: 106.6980}},
			reverse: &geocoding.PlaceHit{Name: "Lê Lợi", FormattedAddress: "Lê Lợi, Quận 1", Lat: 10.7730, Lng: 106.7000},
		}
		ts := newTestServer(t, provider, config.ModeLocalFirst)

		status, body := get(t, ts.URL+"/api/search/reverse?lat=10.773&lng=106.700")
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "Lê Lợi, Quận 1", body["address"])

		status, body = get(t, ts.URL+"/api/search/test-api")
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "stub", body["provider"])
		assert.Equal(t, float64(1), body["hits"])
	})

	t.Run("provider error", func(t *testing.T) {
		ts := newTestServer(t, &stubProvider{err: errors.New("status 500, body: boom")}, config.ModeLocalFirst)

		status, body := get(t, ts.URL+"/api/search/reverse?lat=10.773&lng=106.700")
		assert.Equal(t, http.StatusBadGateway, status)
		assert.Equal(t, false, body["success"])
	})
}

func TestHazardsEndpoints(t *testing.T) {
	ts := newTestServer(t, nil, config.ModeLocalFirst)

	status, body := doJSON(t, http.MethodPost, ts.URL+"/api/hazards", strings.NewReader(`{
		"lat": 10.7725, "lng": 106.698, "cause": "flood", "severity": 3,
		"notes": "knee deep", "timestamp": "2025-06-01T07:30"
	}`), "application/json")
	require.Equal(t, http.StatusCreated, status, body)
	hazard := body["hazard"].(map[string]any)
	id := int64(hazard["id"].(float64))
	assert.Equal(t, "flood", hazard["cause"])
	assert.Equal(t, "2025-06-01T07:30:00+07:00", hazard["timestamp"])

	status, body = doJSON(t, http.MethodPost, ts.URL+"/api/hazards",
		strings.NewReader(`{"lat": 10.77, "lng": 106.70, "cause": "flood"}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, false, body["success"])

	status, _ = doJSON(t, http.MethodPost, ts.URL+"/api/hazards",
		strings.NewReader(`{"lat": "north", "lng": 106.70}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = get(t, ts.URL+"/api/hazards")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["hazards"], 1)

	target := ts.URL + "/api/hazards/" + itoa(id)
	status, body = doJSON(t, http.MethodPatch, target, strings.NewReader(`{"severity": 5}`), "application/json")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(5), body["hazard"].(map[string]any)["severity"])

	status, _ = doJSON(t, http.MethodPatch, target, strings.NewReader(`{"severity": 9}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doJSON(t, http.MethodDelete, target, nil, "")
	assert.Equal(t, http.StatusOK, status)

	status, _ = get(t, target)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = get(t, ts.URL+"/api/hazards/abc")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestHazardWithImage(t *testing.T) {
	ts := newTestServer(t, nil, config.ModeLocalFirst)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range map[string]string{
		"lat": "10.7769", "lng": "106.7009", "cause": "fallen tree",
		"severity": "4", "notes": "blocks two lanes", "timestamp": "2025-06-01T07:30:00Z",
	} {
		require.NoError(t, mw.WriteField(k, v))
	}
	part, err := mw.CreateFormFile("image", "tree.png")
	require.NoError(t, err)
	require.NoError(t, png.Encode(part, image.NewGray(image.Rect(0, 0, 128, 64))))
	require.NoError(t, mw.Close())

	status, body := doJSON(t, http.MethodPost, ts.URL+"/api/hazards", &buf, mw.FormDataContentType())
	require.Equal(t, http.StatusCreated, status, body)

	imageURL := body["hazard"].(map[string]any)["imageUrl"].(string)
	require.True(t, strings.HasPrefix(imageURL, "/uploads/hazards/"), imageURL)

	resp, err := http.Get(ts.URL + imageURL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))

	img, _, err := image.Decode(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx(), "resized to max width")

	status, _ = get(t, ts.URL+"/uploads/hazards/missing.jpg")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestIncidentsEndpoints(t *testing.T) {
	ts := newTestServer(t, nil, config.ModeLocalFirst)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range map[string]string{
		"lat": "10.80", "lng": "106.71", "description": "bus breakdown",
		"type": "breakdown", "impact": "2", "timestamp": "2025-06-01T08:00",
	} {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	status, body := doJSON(t, http.MethodPost, ts.URL+"/api/incidents", &buf, mw.FormDataContentType())
	require.Equal(t, http.StatusCreated, status, body)
	incident := body["incident"].(map[string]any)
	assert.Equal(t, false, incident["verified"])
	id := int64(incident["id"].(float64))

	status, body = doJSON(t, http.MethodPost, ts.URL+"/api/incidents/"+itoa(id)+"/verify", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["incident"].(map[string]any)["verified"])

	status, body = get(t, ts.URL+"/api/incidents")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["incidents"], 1)

	status, _ = doJSON(t, http.MethodDelete, ts.URL+"/api/incidents/"+itoa(id), nil, "")
	assert.Equal(t, http.StatusOK, status)

	status, _ = doJSON(t, http.MethodPost, ts.URL+"/api/incidents/"+itoa(id)+"/verify", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestServe_StopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	comps := &app.Components{Config: config.Default()}
	srv := New(comps, config.ServerConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func TestWithRecover(t *testing.T) {
	s := &Server{}

	t.Run("panic before response gives 500", func(t *testing.T) {
		h := s.withRecover(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("boom")
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/places", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "Internal server error", body["message"])
	})

	t.Run("panic after response started aborts", func(t *testing.T) {
		h := s.withRecover(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			io.WriteString(w, `{"success": true, "data": [`)
			panic("boom")
		}))
		rec := httptest.NewRecorder()
		assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/places", nil))
		})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, rec.Body.String(), "Internal server error")
	})
}
