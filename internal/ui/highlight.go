package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/ilkoid/saigon-traffic/pkg/places"
	"github.com/ilkoid/saigon-traffic/pkg/search"
)

// nameSource реализует fuzzy.Source для списка отображаемых имён.
type nameSource []string

func (s nameSource) String(i int) string { return s[i] }
func (s nameSource) Len() int            { return len(s) }

func displayNames(results []search.Result) []string {
	names := make([]string, len(results))
	for i, r := range results {
		names[i] = r.DisplayName
	}
	return names
}

// matchIndexes возвращает для каждого имени байтовые позиции символов,
// совпавших с запросом. Порядок ранжирования при этом не меняется.
//
// Пробелы из запроса убираются, чтобы "ben thanh" подсвечивал оба слова.
func matchIndexes(query string, names []string) [][]int {
	out := make([][]int, len(names))
	pattern := strings.ReplaceAll(strings.TrimSpace(query), " ", "")
	if pattern == "" {
		return out
	}
	for _, match := range fuzzy.FindFrom(pattern, nameSource(names)) {
		out[match.Index] = match.MatchedIndexes
	}
	return out
}

// highlight рендерит символы на позициях idx стилем style.
func highlight(s string, idx []int, style lipgloss.Style) string {
	if len(idx) == 0 {
		return s
	}
	marked := make(map[int]struct{}, len(idx))
	for _, i := range idx {
		marked[i] = struct{}{}
	}

	var b strings.Builder
	for i, r := range s {
		if _, ok := marked[i]; ok {
			b.WriteString(style.Render(string(r)))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// detailLines: содержимое панели деталей для результата.
func detailLines(r search.Result) []string {
	lines := []string{r.DisplayName}
	if r.LocalizedName != "" {
		lines = append(lines, "Vietnamese: "+r.LocalizedName)
	}
	if r.Source == places.SourceLocal {
		lines = append(lines, "Key: "+r.Name)
	}
	lines = append(lines,
		"Type: "+string(r.Category),
		fmt.Sprintf("Coordinates: %.6f, %.6f", r.Lat, r.Lng),
		fmt.Sprintf("Score: %d (%s, %s)", r.Score, r.MatchType, r.Source),
	)
	if r.FullAddress != "" {
		lines = append(lines, "Address: "+r.FullAddress)
	}
	if r.District != "" {
		lines = append(lines, "District: "+r.District)
	}
	if r.Area != "" {
		lines = append(lines, "Area: "+r.Area)
	}
	if r.PlaceID != "" {
		lines = append(lines, "Place ID: "+r.PlaceID)
	}
	return lines
}
