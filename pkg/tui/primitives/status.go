package primitives

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// StatusBarManager manages the search status bar: spinner while a query is
// in flight, the origin of the last results and a degraded indicator.
type StatusBarManager struct {
	spinner      spinner.Model
	isProcessing bool
	source       string
	count        int
	degraded     bool
	cached       bool
	mu           sync.RWMutex

	cfg StatusBarConfig

	// Extension point (e.g. "geocoder: nominatim")
	customExtra func() string
}

// StatusBarConfig holds color configuration for the status bar
type StatusBarConfig struct {
	SpinnerColor lipgloss.Color // 86 (cyan) when processing
	IdleColor    lipgloss.Color // 242 (gray) when ready

	BackgroundColor lipgloss.Color // 235 (dark gray)
	DegradedColor   lipgloss.Color // 196 (red)
	RemoteColor     lipgloss.Color // 33 (blue)

	BadgeText lipgloss.Color // 15 (white)
	ExtraText lipgloss.Color // 252 (gray)
}

// DefaultStatusBarConfig returns the default color scheme
func DefaultStatusBarConfig() StatusBarConfig {
	return StatusBarConfig{
		SpinnerColor:    lipgloss.Color("86"),
		IdleColor:       lipgloss.Color("242"),
		BackgroundColor: lipgloss.Color("235"),
		DegradedColor:   lipgloss.Color("196"),
		RemoteColor:     lipgloss.Color("33"),
		BadgeText:       lipgloss.Color("15"),
		ExtraText:       lipgloss.Color("252"),
	}
}

// NewStatusBarManager creates a new StatusBarManager with the given configuration
func NewStatusBarManager(cfg StatusBarConfig) *StatusBarManager {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(cfg.SpinnerColor)

	return &StatusBarManager{
		spinner: s,
		cfg:     cfg,
	}
}

// Tick returns the command that starts spinner animation
func (sm *StatusBarManager) Tick() tea.Cmd {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.spinner.Tick
}

// Update advances the spinner. Messages of other types are ignored.
func (sm *StatusBarManager) Update(msg tea.Msg) tea.Cmd {
	tick, ok := msg.(spinner.TickMsg)
	if !ok {
		return nil
	}
	sm.mu.Lock()
	defer sm.mu.Unlock()
	var cmd tea.Cmd
	sm.spinner, cmd = sm.spinner.Update(tick)
	return cmd
}

// Render returns the status bar as a styled string
func (sm *StatusBarManager) Render() string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	var spinnerText string
	if sm.isProcessing {
		spinnerText = sm.spinner.View() + " Searching"
	} else {
		spinnerText = "✓ Ready"
	}

	spinnerPart := lipgloss.NewStyle().
		Background(sm.cfg.BackgroundColor).
		Padding(0, 1).
		Foreground(func() lipgloss.Color {
			if sm.isProcessing {
				return sm.cfg.SpinnerColor
			}
			return sm.cfg.IdleColor
		}()).
		Render(spinnerText)

	var extraPart string
	if sm.source != "" {
		badgeColor := sm.cfg.BackgroundColor
		if strings.HasPrefix(sm.source, "remote") {
			badgeColor = sm.cfg.RemoteColor
		}
		label := fmt.Sprintf("%s · %d", sm.source, sm.count)
		if sm.cached {
			label += " · cached"
		}
		extraPart += lipgloss.NewStyle().
			Background(badgeColor).
			Foreground(sm.cfg.BadgeText).
			Padding(0, 1).
			Render(label)
	}

	if sm.degraded {
		extraPart += lipgloss.NewStyle().
			Background(sm.cfg.DegradedColor).
			Foreground(sm.cfg.BadgeText).
			Bold(true).
			Padding(0, 1).
			Render("DEGRADED")
	}

	if sm.customExtra != nil {
		extraInfo := sm.customExtra()
		if extraInfo != "" {
			extraPart += lipgloss.NewStyle().
				Background(sm.cfg.BackgroundColor).
				Padding(0, 1).
				Foreground(sm.cfg.ExtraText).
				Render(extraInfo)
		}
	}

	return spinnerPart + extraPart
}

// SetProcessing sets the processing state (shows spinner when true)
func (sm *StatusBarManager) SetProcessing(processing bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.isProcessing = processing
}

// IsProcessing returns the current processing state
func (sm *StatusBarManager) IsProcessing() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.isProcessing
}

// SetResult records where the last results came from
func (sm *StatusBarManager) SetResult(source string, count int, degraded, cached bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.source = source
	sm.count = count
	sm.degraded = degraded
	sm.cached = cached
}

// ClearResult hides the source and degraded badges
func (sm *StatusBarManager) ClearResult() {
	sm.SetResult("", 0, false, false)
}

// IsDegraded reports whether the last results were produced without the geocoder
func (sm *StatusBarManager) IsDegraded() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.degraded
}

// SetCustomExtra sets the callback for custom status extra info
func (sm *StatusBarManager) SetCustomExtra(fn func() string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.customExtra = fn
}
