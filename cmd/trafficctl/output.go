package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ilkoid/saigon-traffic/pkg/places"
	"github.com/ilkoid/saigon-traffic/pkg/search"
	"github.com/ilkoid/saigon-traffic/pkg/store"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printResults печатает нумерованный список результатов.
func printResults(w io.Writer, results []search.Result) {
	for i, r := range results {
		fmt.Fprintf(w, "%2d. %s  [%s] score %d %s/%s\n", i+1, r.DisplayName, r.Category, r.Score, r.MatchType, r.Source)
		line := fmt.Sprintf("%.6f, %.6f", r.Lat, r.Lng)
		if r.LocalizedName != "" {
			line += " · " + r.LocalizedName
		}
		if r.FullAddress != "" {
			line += " · " + r.FullAddress
		}
		fmt.Fprintf(w, "    %s\n", line)
	}
}

func printSearch(w io.Writer, resp *search.Response) {
	header := fmt.Sprintf("Results for %q: %d (source: %s", resp.Query, resp.Count, resp.Source)
	if resp.Provider != "" {
		header += ", provider: " + resp.Provider
	}
	if resp.Cached {
		header += ", cached"
	}
	fmt.Fprintln(w, header+")")
	if resp.Degraded {
		fmt.Fprintln(w, "! degraded: remote geocoder did not contribute")
	}
	if resp.Message != "" {
		fmt.Fprintln(w, resp.Message)
	}
	printResults(w, resp.Results)
}

func printSuggest(w io.Writer, resp *search.SuggestResponse) {
	if len(resp.Suggestions) == 0 {
		fmt.Fprintln(w, "No suggestions")
		return
	}
	if resp.Degraded {
		fmt.Fprintln(w, "! degraded: remote geocoder did not contribute")
	}
	printResults(w, resp.Suggestions)
}

func printPlace(w io.Writer, rec *places.PlaceRecord) {
	fmt.Fprintf(w, "%s\n", rec.Name)
	if rec.Localized != "" {
		fmt.Fprintf(w, "  Vietnamese:  %s\n", rec.Localized)
	}
	fmt.Fprintf(w, "  Key:         %s\n", rec.Key)
	fmt.Fprintf(w, "  Type:        %s\n", rec.Category)
	fmt.Fprintf(w, "  Coordinates: %.6f, %.6f\n", rec.Lat, rec.Lng)
}

func printHistory(w io.Writer, items []store.HistoryItem) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No searches yet")
		return
	}
	for _, it := range items {
		fmt.Fprintf(w, "%-30s ×%-4d %3d results  %s\n",
			it.Query, it.Frequency, it.ResultCount, it.LastSearched.Local().Format("2006-01-02 15:04"))
	}
}
