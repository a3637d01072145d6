// Package tui предоставляет reusable KeyMap и цветовые схемы для TUI поиска мест.
package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap определяет клавиатурные сокращения для TUI.
type KeyMap struct {
	Quit       key.Binding
	Up         key.Binding
	Down       key.Binding
	Select     key.Binding // Немедленный поиск без ожидания debounce
	Clear      key.Binding
	ScrollUp   key.Binding // Прокрутка панели деталей
	ScrollDown key.Binding
	ToggleHelp key.Binding
}

// ShortHelp реализует help.KeyMap интерфейс.
func (km KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		km.Up,
		km.Down,
		km.Select,
		km.ToggleHelp,
		km.Quit,
	}
}

// FullHelp реализует help.KeyMap интерфейс.
func (km KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{
			km.Up,
			km.Down,
			km.Select,
		},
		{
			km.ScrollUp,
			km.ScrollDown,
			km.Clear,
		},
		{
			km.ToggleHelp,
			km.Quit,
		},
	}
}

// DefaultKeyMap возвращает дефолтный KeyMap.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "esc"),
			key.WithHelp("Esc", "quit"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "ctrl+p"),
			key.WithHelp("↑", "previous"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "ctrl+n"),
			key.WithHelp("↓", "next"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "search now"),
		),
		Clear: key.NewBinding(
			key.WithKeys("ctrl+k"),
			key.WithHelp("Ctrl+K", "clear query"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("ctrl+u", "pgup"),
			key.WithHelp("Ctrl+U", "scroll details up"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("ctrl+d", "pgdown"),
			key.WithHelp("Ctrl+D", "scroll details down"),
		),
		ToggleHelp: key.NewBinding(
			key.WithKeys("ctrl+h", "f1"),
			key.WithHelp("Ctrl+H", "toggle help"),
		),
	}
}
