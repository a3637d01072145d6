// Рендер

package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ilkoid/saigon-traffic/pkg/places"
	"github.com/ilkoid/saigon-traffic/pkg/tui"
)

// styles: стили, собранные из цветовой схемы.
type styles struct {
	header    lipgloss.Style
	section   lipgloss.Style
	selected  lipgloss.Style
	match     lipgloss.Style
	local     lipgloss.Style
	remote    lipgloss.Style
	dim       lipgloss.Style
	message   lipgloss.Style
	errorText lipgloss.Style
	border    lipgloss.Style
}

func newStyles(c tui.ColorScheme) styles {
	return styles{
		header: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(c.Header).
			Padding(0, 1).
			Bold(true),
		section:   lipgloss.NewStyle().Foreground(c.Dim).Italic(true),
		selected:  lipgloss.NewStyle().Foreground(c.Selected).Bold(true),
		match:     lipgloss.NewStyle().Foreground(c.Match).Underline(true),
		local:     lipgloss.NewStyle().Foreground(c.LocalMark),
		remote:    lipgloss.NewStyle().Foreground(c.RemoteMark),
		dim:       lipgloss.NewStyle().Foreground(c.Dim),
		message:   lipgloss.NewStyle().Foreground(c.Message),
		errorText: lipgloss.NewStyle().Foreground(c.ErrorText).Bold(true),
		border:    lipgloss.NewStyle().Foreground(c.Border),
	}
}

// Фиксированные строки разметки: заголовок, ввод, секция, разделитель, статус.
const fixedRows = 5

// listHeight: сколько строк отдано под список.
func (m MainModel) listHeight() int {
	h := (m.height - fixedRows) / 2
	if h < 3 {
		h = 3
	}
	return h
}

// detailHeight: остаток экрана под панель деталей.
func (m MainModel) detailHeight() int {
	helpRows := lipgloss.Height(m.help.View(m.keys))
	return m.height - fixedRows - m.listHeight() - helpRows
}

// View рендерит экран.
func (m MainModel) View() string {
	if !m.ready {
		return "Initializing UI..."
	}

	header := m.styles.header.Width(m.width).Render("Saigon place search")
	border := m.styles.border.Render(strings.Repeat("─", max(m.width, 1)))

	return strings.Join([]string{
		header,
		m.input.View(),
		m.renderSection(),
		m.renderList(),
		border,
		m.detail.View(),
		m.status.Render(),
		m.help.View(m.keys),
	}, "\n")
}

// renderSection: строка над списком: заголовок или сообщение поиска.
func (m MainModel) renderSection() string {
	switch {
	case m.emptyInput():
		return m.styles.section.Render("Recent searches")
	case m.err != nil:
		return m.styles.errorText.Render(m.message)
	case m.message != "":
		return m.styles.message.Render(m.message)
	case m.query != "":
		return m.styles.section.Render(fmt.Sprintf("Results for %q", m.query))
	}
	return ""
}

// renderList рисует видимое окно списка вокруг курсора.
func (m MainModel) renderList() string {
	rows := m.listRows()
	height := m.listHeight()

	start := 0
	if m.cursor >= height {
		start = m.cursor - height + 1
	}
	end := min(start+height, len(rows))

	visible := make([]string, 0, height)
	if start < end {
		visible = append(visible, rows[start:end]...)
	}
	for len(visible) < height {
		visible = append(visible, "")
	}
	return strings.Join(visible, "\n")
}

// listRows: все строки текущего списка (результаты или недавние запросы).
func (m MainModel) listRows() []string {
	if m.emptyInput() {
		rows := make([]string, 0, len(m.recent))
		for i, item := range m.recent {
			line := fmt.Sprintf("%s %s", item.Query, m.styles.dim.Render(fmt.Sprintf("×%d", item.Frequency)))
			rows = append(rows, m.cursorPrefix(i)+line)
		}
		return rows
	}

	rows := make([]string, 0, len(m.results))
	for i, r := range m.results {
		marker := m.styles.local.Render("●")
		if r.Source == places.SourceRemote {
			marker = m.styles.remote.Render("◆")
		}

		var idx []int
		if i < len(m.highlights) {
			idx = m.highlights[i]
		}
		name := highlight(r.DisplayName, idx, m.styles.match)
		if i == m.cursor {
			name = m.styles.selected.Render(name)
		}

		meta := m.styles.dim.Render(fmt.Sprintf("%s · %d · %s", r.Category, r.Score, r.MatchType))
		rows = append(rows, fmt.Sprintf("%s%s %s  %s", m.cursorPrefix(i), marker, name, meta))
	}
	return rows
}

func (m MainModel) cursorPrefix(i int) string {
	if i == m.cursor {
		return m.styles.selected.Render("▸ ")
	}
	return "  "
}
