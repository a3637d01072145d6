package search

import (
	"github.com/ilkoid/saigon-traffic/pkg/places"
)

// ResponseSource объясняет происхождение результатов.
type ResponseSource string

const (
	// SourceLocal: только локальный справочник, геокодер не вызывался.
	SourceLocal ResponseSource = "local"
	// SourceRemotePriority: есть результаты геокодера, они стоят первыми.
	SourceRemotePriority ResponseSource = "remote-priority"
	// SourceLocalFallback: геокодер вызывался, но ничего не добавил или упал.
	SourceLocalFallback ResponseSource = "local-fallback"
)

// Result: один результат поиска в том виде, в каком его видит клиент.
type Result struct {
	Name          string           `json:"name"`
	DisplayName   string           `json:"fullName"`
	LocalizedName string           `json:"vietnameseName,omitempty"`
	Lat           float64          `json:"lat"`
	Lng           float64          `json:"lng"`
	Category      places.Category  `json:"type"`
	Score         int              `json:"score"`
	MatchType     places.MatchType `json:"matchType"`
	Source        places.Source    `json:"source"`
	FullAddress   string           `json:"fullAddress,omitempty"`
	PlaceID       string           `json:"placeId,omitempty"`
	District      string           `json:"district,omitempty"`
	Area          string           `json:"area,omitempty"`
}

// Response: ответ Search.
type Response struct {
	Query       string         `json:"query"`
	Results     []Result       `json:"results"`
	Count       int            `json:"count"`
	Source      ResponseSource `json:"source"`
	Degraded    bool           `json:"degraded"`
	Message     string         `json:"message,omitempty"`
	RemoteCount int            `json:"remoteCount"`
	Provider    string         `json:"provider,omitempty"`
	Cached      bool           `json:"cached,omitempty"`
}

// SuggestResponse: ответ Suggest.
type SuggestResponse struct {
	Query       string   `json:"query"`
	Suggestions []Result `json:"suggestions"`
	Degraded    bool     `json:"degraded,omitempty"`
}

// toResult конвертирует кандидата в результат для клиента.
func toResult(c places.Candidate) Result {
	r := Result{
		Name:          c.Place.Key,
		DisplayName:   c.Place.Name,
		LocalizedName: c.Place.Localized,
		Lat:           c.Place.Lat,
		Lng:           c.Place.Lng,
		Category:      c.Place.Category,
		Score:         c.Score,
		MatchType:     c.MatchType,
		Source:        c.Source,
	}
	if c.Address != nil {
		r.FullAddress = c.Address.FullAddress
		r.PlaceID = c.Address.PlaceID
		r.District = c.Address.District
		r.Area = c.Address.Area
	}
	return r
}

func toResults(cands []places.Candidate) []Result {
	results := make([]Result, 0, len(cands))
	for _, c := range cands {
		results = append(results, toResult(c))
	}
	return results
}
