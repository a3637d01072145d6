package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/saigon-traffic/pkg/places"
	"github.com/ilkoid/saigon-traffic/pkg/search"
	"github.com/ilkoid/saigon-traffic/pkg/store"
)

var (
	benThanh = search.Result{
		Name:          "ben thanh market",
		DisplayName:   "Ben Thanh Market, District 1",
		LocalizedName: "Chợ Bến Thành",
		Lat:           10.772465,
		Lng:           106.698087,
		Category:      "landmark",
		Score:         100,
		MatchType:     places.MatchExact,
		Source:        places.SourceLocal,
	}
	remoteHit = search.Result{
		Name:        "ben thanh bus station",
		DisplayName: "Ben Thanh Bus Station",
		Lat:         10.7712,
		Lng:         106.6983,
		Category:    "geocoded",
		Score:       70,
		MatchType:   places.MatchGeocoding,
		Source:      places.SourceRemote,
		FullAddress: "Ham Nghi, Ben Thanh Ward, District 1, Ho Chi Minh City",
		PlaceID:     "node/123",
	}
)

// fakeSearcher отдаёт заранее заданные ответы и запоминает запросы.
type fakeSearcher struct {
	resp     *search.Response
	suggest  *search.SuggestResponse
	err      error
	searched []string
	limits   []int
}

func (f *fakeSearcher) Search(_ context.Context, query string, limit int) (*search.Response, error) {
	f.searched = append(f.searched, query)
	f.limits = append(f.limits, limit)
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func (f *fakeSearcher) Suggest(_ context.Context, partial string) (*search.SuggestResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.suggest, nil
}

type fakeHistory struct {
	items []store.HistoryItem
}

func (f *fakeHistory) RecentSearches(_ context.Context, limit int) ([]store.HistoryItem, error) {
	if len(f.items) > limit {
		return f.items[:limit], nil
	}
	return f.items, nil
}

func newTestModel(t *testing.T, s *fakeSearcher, h HistorySource) MainModel {
	t.Helper()
	m := InitialModel(context.Background(), s, h, Options{Debounce: time.Millisecond, Limit: 5, Geocoder: "nominatim"})
	return update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
}

func update(t *testing.T, m MainModel, msg tea.Msg) MainModel {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(MainModel)
	require.True(t, ok)
	return out
}

func typeText(t *testing.T, m MainModel, text string) MainModel {
	t.Helper()
	for _, r := range text {
		m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func TestModel_NotReadyBeforeResize(t *testing.T) {
	m := InitialModel(context.Background(), &fakeSearcher{}, nil, Options{})
	assert.Equal(t, "Initializing UI...", m.View())
	assert.Equal(t, DefaultDebounce, m.opts.Debounce)
	assert.Equal(t, DefaultLimit, m.opts.Limit)
}

func TestModel_DebouncedSuggestions(t *testing.T) {
	s := &fakeSearcher{suggest: &search.SuggestResponse{Query: "ben", Suggestions: []search.Result{benThanh}}}
	m := newTestModel(t, s, nil)

	m = typeText(t, m, "ben")
	assert.Equal(t, "ben", m.input.Value())
	assert.Equal(t, 3, m.seq, "Every keystroke should start a new debounce")

	// Debounce from an earlier keystroke is ignored
	m = update(t, m, debounceMsg{seq: 1, query: "b"})
	assert.False(t, m.status.IsProcessing())

	m = update(t, m, debounceMsg{seq: 3, query: "ben"})
	assert.True(t, m.status.IsProcessing())

	m = update(t, m, m.suggestCmd(3, "ben")())
	assert.False(t, m.status.IsProcessing())
	require.Len(t, m.results, 1)
	assert.Equal(t, []int{0, 1, 2}, m.highlights[0])
	assert.Empty(t, s.searched, "Suggestions must not run a full search")

	view := m.View()
	assert.Contains(t, view, "Ben Thanh Market, District 1")
	assert.Contains(t, view, "Vietnamese: Chợ Bến Thành")
	assert.Contains(t, view, "suggestions · 1")
	assert.Contains(t, view, "geocoder: nominatim")
}

func TestModel_StaleResultsDropped(t *testing.T) {
	s := &fakeSearcher{suggest: &search.SuggestResponse{Suggestions: []search.Result{benThanh}}}
	m := newTestModel(t, s, nil)
	m = typeText(t, m, "be")

	m = update(t, m, resultsMsg{seq: 1, query: "b", results: []search.Result{remoteHit}, source: "suggestions"})
	assert.Empty(t, m.results, "Result for an outdated query should be dropped")

	m = update(t, m, resultsMsg{seq: 2, query: "be", results: []search.Result{benThanh}, source: "suggestions"})
	assert.Len(t, m.results, 1)
}

func TestModel_EnterRunsFullSearch(t *testing.T) {
	s := &fakeSearcher{resp: &search.Response{
		Query:       "ben thanh",
		Results:     []search.Result{remoteHit, benThanh},
		Count:       2,
		Source:      search.SourceRemotePriority,
		RemoteCount: 1,
	}}
	m := newTestModel(t, s, &fakeHistory{})
	m = typeText(t, m, "ben thanh")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(MainModel)
	require.NotNil(t, cmd)
	assert.True(t, m.status.IsProcessing())

	msg := m.searchCmd(m.seq, m.input.Value())()
	next, cmd = m.Update(msg)
	m = next.(MainModel)
	assert.NotNil(t, cmd, "Full search should reload recent searches")
	assert.Equal(t, []string{"ben thanh"}, s.searched)
	assert.Equal(t, 5, s.limits[0])

	view := m.View()
	assert.Contains(t, view, "remote-priority · 2")
	assert.Contains(t, view, "◆ Ben Thanh Bus Station")
	assert.Contains(t, view, "Address: Ham Nghi, Ben Thanh Ward")
	assert.NotContains(t, view, "DEGRADED")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.cursor)
	assert.Contains(t, m.View(), "Key: ben thanh market")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 0, m.cursor, "Cursor should wrap around")
}

func TestModel_DegradedAndEmpty(t *testing.T) {
	s := &fakeSearcher{resp: &search.Response{
		Query:    "qqqq",
		Results:  []search.Result{},
		Source:   search.SourceLocalFallback,
		Degraded: true,
		Message:  "Remote geocoding unavailable, showing local results only",
	}}
	m := newTestModel(t, s, nil)
	m = typeText(t, m, "qqqq")
	m = update(t, m, m.searchCmd(m.seq, "qqqq")())

	view := m.View()
	assert.Contains(t, view, "DEGRADED")
	assert.Contains(t, view, "Remote geocoding unavailable")
	assert.Empty(t, m.results)
}

func TestModel_SearchError(t *testing.T) {
	s := &fakeSearcher{err: &search.InputError{Field: "query", Reason: "must not be empty"}}
	m := newTestModel(t, s, nil)
	m = typeText(t, m, "x")
	m = update(t, m, m.searchCmd(m.seq, "x")())

	assert.Error(t, m.err)
	assert.Contains(t, m.View(), "invalid query: must not be empty")

	s.err = errors.New("boom")
	m = update(t, m, m.searchCmd(m.seq, "x")())
	assert.Contains(t, m.View(), "Search failed: boom")
}

func TestModel_RecentSearches(t *testing.T) {
	h := &fakeHistory{items: []store.HistoryItem{
		{Query: "district 1", Frequency: 4},
		{Query: "ben thanh", Frequency: 2},
	}}
	s := &fakeSearcher{resp: &search.Response{Results: []search.Result{benThanh}, Source: search.SourceLocal}}
	m := newTestModel(t, s, h)

	m = update(t, m, m.loadHistoryCmd()())
	view := m.View()
	assert.Contains(t, view, "Recent searches")
	assert.Contains(t, view, "district 1 ×4")
	assert.Contains(t, view, "ben thanh ×2")

	// Enter on an empty input repeats the selected recent query
	m = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(MainModel)
	require.NotNil(t, cmd)
	assert.Equal(t, "ben thanh", m.input.Value())
}

func TestModel_ClearQuery(t *testing.T) {
	s := &fakeSearcher{resp: &search.Response{Results: []search.Result{benThanh}, Source: search.SourceLocal}}
	m := newTestModel(t, s, &fakeHistory{})
	m = typeText(t, m, "ben")
	m = update(t, m, m.searchCmd(m.seq, "ben")())
	require.Len(t, m.results, 1)
	seq := m.seq

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlK})
	assert.Empty(t, m.input.Value())
	assert.Empty(t, m.results)
	assert.Greater(t, m.seq, seq, "In-flight results must be invalidated")
	assert.Empty(t, m.detail.Lines())
	assert.NotContains(t, m.View(), "local · 1")
}

func TestMatchIndexes(t *testing.T) {
	names := []string{"Ben Thanh Market, District 1", "Landmark 81", "Nga Tu Ben Thanh"}

	idx := matchIndexes("ben", names)
	require.Len(t, idx, 3)
	assert.Equal(t, []int{0, 1, 2}, idx[0])
	assert.Nil(t, idx[1], "Non-matching name should not be highlighted")
	assert.NotEmpty(t, idx[2])

	assert.Equal(t, make([][]int, 3), matchIndexes("  ", names))
}

func TestHighlight(t *testing.T) {
	upper := lipgloss.NewStyle().Transform(strings.ToUpper)

	tests := []struct {
		name string
		in   string
		idx  []int
		want string
	}{
		{name: "no matches", in: "landmark 81", idx: nil, want: "landmark 81"},
		{name: "prefix", in: "ben thanh", idx: []int{0, 1, 2}, want: "BEN thanh"},
		{name: "scattered", in: "ben thanh", idx: []int{0, 4}, want: "Ben Thanh"},
		{name: "multibyte", in: "chợ lớn", idx: []int{0, 6}, want: "Chợ Lớn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, highlight(tt.in, tt.idx, upper))
		})
	}
}

func TestDetailLines(t *testing.T) {
	local := detailLines(benThanh)
	assert.Equal(t, "Ben Thanh Market, District 1", local[0])
	assert.Contains(t, local, "Key: ben thanh market")
	assert.Contains(t, local, "Coordinates: 10.772465, 106.698087")
	assert.Contains(t, local, "Score: 100 (exact, local)")

	remote := detailLines(remoteHit)
	assert.NotContains(t, remote, "Key: ben thanh bus station")
	assert.Contains(t, remote, "Place ID: node/123")
}
