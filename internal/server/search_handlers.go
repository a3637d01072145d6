package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ilkoid/saigon-traffic/pkg/geocoding"
	"github.com/ilkoid/saigon-traffic/pkg/places"
	"github.com/ilkoid/saigon-traffic/pkg/search"
	"github.com/ilkoid/saigon-traffic/pkg/store"
)

type healthBody struct {
	Success  bool   `json:"success"`
	Status   string `json:"status"`
	Places   int    `json:"places"`
	Mode     string `json:"mode"`
	Geocoder string `json:"geocoder"`
}

type searchBody struct {
	Success bool `json:"success"`
	*search.Response
}

type suggestBody struct {
	Success bool `json:"success"`
	*search.SuggestResponse
}

type placeBody struct {
	Success bool      `json:"success"`
	Place   placeView `json:"place"`
}

type placeView struct {
	places.PlaceRecord
	DisplayName string        `json:"displayName"`
	Source      places.Source `json:"source"`
}

type reverseBody struct {
	Success     bool                `json:"success"`
	Address     string              `json:"address"`
	Result      *geocoding.PlaceHit `json:"result"`
	Coordinates coordinates         `json:"coordinates"`
}

type coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type pingBody struct {
	Success bool `json:"success"`
	*geocoding.PingResult
}

type historyBody struct {
	Success  bool                `json:"success"`
	Searches []store.HistoryItem `json:"searches"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	geocoder := "none"
	if s.comps.Search.HasGeocoder() && s.comps.Geocoder != nil {
		geocoder = s.comps.Geocoder.ProviderName()
	}
	writeJSON(w, http.StatusOK, healthBody{
		Success:  true,
		Status:   "ok",
		Places:   s.comps.Gazetteer.Len(),
		Mode:     s.comps.Search.Mode(),
		Geocoder: geocoder,
	})
}

// GET /api/search?query=&limit=
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}

	resp, err := s.comps.Search.Search(r.Context(), r.URL.Query().Get("query"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, searchBody{Success: true, Response: resp})
}

// GET /api/search/suggestions?q=
func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	resp, err := s.comps.Search.Suggest(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestBody{Success: true, SuggestResponse: resp})
}

// GET /api/search/place/{name}
func (s *Server) handlePlace(w http.ResponseWriter, r *http.Request) {
	rec, err := s.comps.Search.PlaceDetails(r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}

	display := rec.Localized
	if display == "" {
		display = rec.Name
	}
	writeJSON(w, http.StatusOK, placeBody{
		Success: true,
		Place:   placeView{PlaceRecord: *rec, DisplayName: display, Source: places.SourceLocal},
	})
}

// GET /api/search/reverse?lat=&lng=
func (s *Server) handleReverse(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("lat") == "" || q.Get("lng") == "" {
		badRequest(w, "Latitude and longitude are required")
		return
	}
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(q.Get("lng"), 64)
	if errLat != nil || errLng != nil {
		badRequest(w, "Latitude and longitude must be numbers")
		return
	}

	hit, err := s.comps.Search.Reverse(r.Context(), lat, lng)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reverseBody{
		Success:     true,
		Address:     hit.FormattedAddress,
		Result:      hit,
		Coordinates: coordinates{Lat: lat, Lng: lng},
	})
}

// GET /api/search/test-api
func (s *Server) handleTestAPI(w http.ResponseWriter, r *http.Request) {
	res, err := s.comps.Search.Ping(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pingBody{Success: true, PingResult: res})
}

// GET /api/search/history?limit=
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}
	items, err := s.comps.Store.RecentSearches(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, historyBody{Success: true, Searches: items})
}

// queryInt читает необязательный целый параметр. Пишет 400 при ошибке.
func queryInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		badRequest(w, name+" must be a non-negative integer")
		return 0, false
	}
	return v, true
}
