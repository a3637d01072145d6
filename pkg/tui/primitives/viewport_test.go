package primitives

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestViewportManager_SetLines(t *testing.T) {
	vm := NewViewportManager(ViewportConfig{})
	vm.Resize(40, 10)

	vm.SetLines([]string{"Ben Thanh Market", "District 1"})
	assert.Equal(t, []string{"Ben Thanh Market", "District 1"}, vm.Lines())
	assert.Equal(t, 2, vm.TotalLineCount())
	assert.Contains(t, vm.View(), "Ben Thanh Market")
}

func TestViewportManager_ReflowOnResize(t *testing.T) {
	vm := NewViewportManager(ViewportConfig{})
	long := strings.Repeat("word ", 20)

	vm.Resize(20, 10)
	vm.SetLines([]string{long})
	narrow := vm.TotalLineCount()
	assert.Greater(t, narrow, 1, "Long line should wrap in a narrow pane")

	vm.Resize(200, 10)
	assert.Less(t, vm.TotalLineCount(), narrow, "Wider pane should need fewer lines")
	assert.Equal(t, []string{long}, vm.Lines(), "Original lines should be kept unwrapped")
}

func TestViewportManager_MinDimensions(t *testing.T) {
	vm := NewViewportManager(ViewportConfig{MinWidth: 30, MinHeight: 2})

	vm.Resize(5, -3)
	width, height := vm.GetDimensions()
	assert.Equal(t, 30, width)
	assert.Equal(t, 2, height)
}

func TestViewportManager_ScrollClamp(t *testing.T) {
	vm := NewViewportManager(ViewportConfig{})
	vm.Resize(40, 3)

	lines := make([]string, 10)
	for i := range lines {
		lines[i] = "line"
	}
	vm.SetLines(lines)

	vm.ScrollDown(100)
	assert.Equal(t, 7, vm.YOffset(), "Offset should stop at the last page")

	vm.Resize(40, 8)
	assert.LessOrEqual(t, vm.YOffset(), 2, "Offset should be clamped after growing the pane")

	vm.ScrollUp(100)
	assert.Equal(t, 0, vm.YOffset())
}

func TestViewportManager_SetLinesResetsScroll(t *testing.T) {
	vm := NewViewportManager(ViewportConfig{})
	vm.Resize(40, 2)
	vm.SetLines([]string{"a", "b", "c", "d", "e"})
	vm.ScrollDown(2)
	assert.Equal(t, 2, vm.YOffset())

	vm.SetLines([]string{"x", "y", "z"})
	assert.Equal(t, 0, vm.YOffset())
}
