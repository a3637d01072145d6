package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/ilkoid/saigon-traffic/pkg/tui/primitives"
)

// ColorScheme определяет цвета для элементов TUI поиска.
//
// Каждое поле - это lipgloss.Color (может быть hex, ANSI, или named color).
type ColorScheme struct {
	// Status Bar
	StatusBackground lipgloss.Color
	StatusForeground lipgloss.Color
	Spinner          lipgloss.Color
	Degraded         lipgloss.Color // Бейдж "геокодер недоступен"
	RemoteBadge      lipgloss.Color // Бейдж источника с внешними результатами

	// Results list
	Header      lipgloss.Color
	Selected    lipgloss.Color // Выбранная строка
	Match       lipgloss.Color // Подсвеченные символы совпадения
	LocalMark   lipgloss.Color
	RemoteMark  lipgloss.Color
	Dim         lipgloss.Color // Балл, категория, подсказки
	Message     lipgloss.Color
	ErrorText   lipgloss.Color
	InputPrompt lipgloss.Color

	Border lipgloss.Color
}

// ColorSchemes предоставляет предустановленные цветовые схемы.
var ColorSchemes = map[string]ColorScheme{
	"default": {
		StatusBackground: lipgloss.Color("235"),
		StatusForeground: lipgloss.Color("252"),
		Spinner:          lipgloss.Color("86"),
		Degraded:         lipgloss.Color("196"),
		RemoteBadge:      lipgloss.Color("33"),
		Header:           lipgloss.Color("62"),
		Selected:         lipgloss.Color("205"),
		Match:            lipgloss.Color("226"),
		LocalMark:        lipgloss.Color("42"),
		RemoteMark:       lipgloss.Color("39"),
		Dim:              lipgloss.Color("242"),
		Message:          lipgloss.Color("252"),
		ErrorText:        lipgloss.Color("196"),
		InputPrompt:      lipgloss.Color("86"),
		Border:           lipgloss.Color("240"),
	},
	"dark": {
		StatusBackground: lipgloss.Color("0"),
		StatusForeground: lipgloss.Color("15"),
		Spinner:          lipgloss.Color("14"),
		Degraded:         lipgloss.Color("9"),
		RemoteBadge:      lipgloss.Color("4"),
		Header:           lipgloss.Color("5"),
		Selected:         lipgloss.Color("13"),
		Match:            lipgloss.Color("11"),
		LocalMark:        lipgloss.Color("10"),
		RemoteMark:       lipgloss.Color("12"),
		Dim:              lipgloss.Color("8"),
		Message:          lipgloss.Color("15"),
		ErrorText:        lipgloss.Color("9"),
		InputPrompt:      lipgloss.Color("14"),
		Border:           lipgloss.Color("4"),
	},
	"light": {
		StatusBackground: lipgloss.Color("255"),
		StatusForeground: lipgloss.Color("0"),
		Spinner:          lipgloss.Color("31"),
		Degraded:         lipgloss.Color("1"),
		RemoteBadge:      lipgloss.Color("25"),
		Header:           lipgloss.Color("90"),
		Selected:         lipgloss.Color("130"),
		Match:            lipgloss.Color("166"),
		LocalMark:        lipgloss.Color("28"),
		RemoteMark:       lipgloss.Color("25"),
		Dim:              lipgloss.Color("245"),
		Message:          lipgloss.Color("0"),
		ErrorText:        lipgloss.Color("1"),
		InputPrompt:      lipgloss.Color("31"),
		Border:           lipgloss.Color("8"),
	},
}

// DefaultColorScheme возвращает схему по умолчанию.
func DefaultColorScheme() ColorScheme {
	return ColorSchemes["default"]
}

// GetColorScheme возвращает цветовую схему по имени.
//
// Если схема не найдена, возвращает default.
func GetColorScheme(name string) ColorScheme {
	if scheme, ok := ColorSchemes[name]; ok {
		return scheme
	}
	return DefaultColorScheme()
}

// StatusBarConfig переводит схему в конфигурацию статус-бара.
func (c ColorScheme) StatusBarConfig() primitives.StatusBarConfig {
	return primitives.StatusBarConfig{
		SpinnerColor:    c.Spinner,
		IdleColor:       c.Dim,
		BackgroundColor: c.StatusBackground,
		DegradedColor:   c.Degraded,
		RemoteColor:     c.RemoteBadge,
		BadgeText:       c.StatusForeground,
		ExtraText:       c.StatusForeground,
	}
}
