package primitives

import (
	"sync"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/stretchr/testify/assert"
)

func TestStatusBarManager_ProcessingState(t *testing.T) {
	sm := NewStatusBarManager(DefaultStatusBarConfig())

	output := sm.Render()
	assert.Contains(t, output, "✓ Ready", "Should show '✓ Ready' when idle")
	assert.False(t, sm.IsProcessing())

	sm.SetProcessing(true)
	output = sm.Render()
	assert.NotContains(t, output, "✓ Ready", "Should not show '✓ Ready' when processing")
	assert.Contains(t, output, "Searching")
	assert.True(t, sm.IsProcessing())
}

func TestStatusBarManager_ResultBadges(t *testing.T) {
	tests := []struct {
		name        string
		source      string
		count       int
		degraded    bool
		cached      bool
		contains    []string
		notContains []string
	}{
		{
			name:        "no result yet",
			notContains: []string{"local", "DEGRADED"},
		},
		{
			name:        "local results",
			source:      "local",
			count:       3,
			contains:    []string{"local · 3"},
			notContains: []string{"DEGRADED", "cached"},
		},
		{
			name:     "remote priority from cache",
			source:   "remote-priority",
			count:    5,
			cached:   true,
			contains: []string{"remote-priority · 5 · cached"},
		},
		{
			name:     "degraded fallback",
			source:   "local-fallback",
			count:    1,
			degraded: true,
			contains: []string{"local-fallback · 1", "DEGRADED"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm := NewStatusBarManager(DefaultStatusBarConfig())
			if tt.source != "" {
				sm.SetResult(tt.source, tt.count, tt.degraded, tt.cached)
			}
			output := sm.Render()
			for _, s := range tt.contains {
				assert.Contains(t, output, s)
			}
			for _, s := range tt.notContains {
				assert.NotContains(t, output, s)
			}
			assert.Equal(t, tt.degraded, sm.IsDegraded())
		})
	}
}

func TestStatusBarManager_ClearResult(t *testing.T) {
	sm := NewStatusBarManager(DefaultStatusBarConfig())
	sm.SetResult("local-fallback", 2, true, false)
	sm.ClearResult()

	output := sm.Render()
	assert.NotContains(t, output, "DEGRADED")
	assert.NotContains(t, output, "local-fallback")
	assert.False(t, sm.IsDegraded())
}

func TestStatusBarManager_CustomExtra(t *testing.T) {
	sm := NewStatusBarManager(DefaultStatusBarConfig())
	assert.NotContains(t, sm.Render(), "geocoder:")

	sm.SetCustomExtra(func() string { return "geocoder: nominatim" })
	assert.Contains(t, sm.Render(), "geocoder: nominatim")

	sm.SetCustomExtra(func() string { return "" })
	assert.NotContains(t, sm.Render(), "geocoder:")
}

func TestStatusBarManager_Update(t *testing.T) {
	sm := NewStatusBarManager(DefaultStatusBarConfig())

	assert.NotNil(t, sm.Tick())
	assert.Nil(t, sm.Update("not a tick"), "Non-spinner messages should be ignored")
	assert.NotNil(t, sm.Update(spinner.TickMsg{}), "Spinner tick should schedule the next tick")
}

func TestStatusBarManager_ThreadSafety(t *testing.T) {
	sm := NewStatusBarManager(DefaultStatusBarConfig())

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			sm.SetProcessing(i%2 == 0)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			sm.SetResult("local", i, i%3 == 0, false)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_ = sm.Render()
		}
	}()
	wg.Wait()
}
