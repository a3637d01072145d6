package primitives

import (
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/muesli/reflow/wrap"
)

// ViewportManager keeps the detail pane of the selected place.
//
// Source lines are stored unwrapped and re-wrapped on every resize, so
// long addresses never get cut at the pane border.
type ViewportManager struct {
	viewport viewport.Model
	lines    []string // Original lines without word-wrap
	mu       sync.RWMutex
	cfg      ViewportConfig
}

// ViewportConfig holds configuration for ViewportManager
type ViewportConfig struct {
	MinWidth  int
	MinHeight int
}

// NewViewportManager creates a new ViewportManager
func NewViewportManager(cfg ViewportConfig) *ViewportManager {
	if cfg.MinWidth <= 0 {
		cfg.MinWidth = 20
	}
	if cfg.MinHeight <= 0 {
		cfg.MinHeight = 1
	}
	return &ViewportManager{
		viewport: viewport.New(cfg.MinWidth, cfg.MinHeight),
		cfg:      cfg,
	}
}

// Resize sets pane dimensions and reflows content
func (vm *ViewportManager) Resize(width, height int) {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	if height < vm.cfg.MinHeight {
		height = vm.cfg.MinHeight
	}
	if width < vm.cfg.MinWidth {
		width = vm.cfg.MinWidth
	}
	vm.viewport.Width = width
	vm.viewport.Height = height
	vm.reflow()

	// Clamp offset after the content got shorter
	maxOffset := vm.viewport.TotalLineCount() - vm.viewport.Height
	if maxOffset < 0 {
		maxOffset = 0
	}
	if vm.viewport.YOffset > maxOffset {
		vm.viewport.SetYOffset(maxOffset)
	}
}

// SetLines replaces pane content and scrolls to the top
func (vm *ViewportManager) SetLines(lines []string) {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	vm.lines = append([]string(nil), lines...)
	vm.reflow()
	vm.viewport.GotoTop()
}

// reflow wraps stored lines to the current width. Caller holds mu.
func (vm *ViewportManager) reflow() {
	var wrapped []string
	for _, line := range vm.lines {
		w := wrap.String(line, vm.viewport.Width)
		wrapped = append(wrapped, strings.Split(w, "\n")...)
	}
	vm.viewport.SetContent(strings.Join(wrapped, "\n"))
}

// Lines returns the original unwrapped lines
func (vm *ViewportManager) Lines() []string {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return append([]string(nil), vm.lines...)
}

// View renders the visible part of the pane
func (vm *ViewportManager) View() string {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.viewport.View()
}

// TotalLineCount returns the number of wrapped lines
func (vm *ViewportManager) TotalLineCount() int {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.viewport.TotalLineCount()
}

// ScrollUp scrolls the pane up by n lines
func (vm *ViewportManager) ScrollUp(n int) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.viewport.ScrollUp(n)
}

// ScrollDown scrolls the pane down by n lines
func (vm *ViewportManager) ScrollDown(n int) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.viewport.ScrollDown(n)
}

// YOffset returns the current scroll offset
func (vm *ViewportManager) YOffset() int {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.viewport.YOffset
}

// GetDimensions returns the current pane dimensions
func (vm *ViewportManager) GetDimensions() (width, height int) {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.viewport.Width, vm.viewport.Height
}
