package tui

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	"github.com/stretchr/testify/assert"
)

func TestGetColorScheme(t *testing.T) {
	assert.Equal(t, ColorSchemes["dark"], GetColorScheme("dark"))
	assert.Equal(t, DefaultColorScheme(), GetColorScheme("unknown"))

	cfg := GetColorScheme("light").StatusBarConfig()
	assert.Equal(t, ColorSchemes["light"].Degraded, cfg.DegradedColor)
	assert.Equal(t, ColorSchemes["light"].Spinner, cfg.SpinnerColor)
}

func TestDefaultKeyMap(t *testing.T) {
	km := DefaultKeyMap()

	assert.Len(t, km.ShortHelp(), 5)
	assert.Len(t, km.FullHelp(), 3)
	for _, b := range []key.Binding{km.Quit, km.Up, km.Down, km.Select, km.Clear, km.ScrollUp, km.ScrollDown, km.ToggleHelp} {
		assert.NotEmpty(t, b.Keys())
		assert.NotEmpty(t, b.Help().Desc)
	}
}
