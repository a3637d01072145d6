// Логика - обрабатывает нажатия клавиш, debounce и ответы поиска.

package ui

import (
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ilkoid/saigon-traffic/pkg/search"
	"github.com/ilkoid/saigon-traffic/pkg/utils"
)

// Update обрабатывает входящие сообщения Bubble Tea.
func (m MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	// 1. Изменение размера окна терминала
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = msg.Width - len(m.input.Prompt) - 1
		m.help.Width = msg.Width
		m.detail.Resize(msg.Width, m.detailHeight())
		m.ready = true
		return m, nil

	// 2. Клавиши
	case tea.KeyMsg:
		return m.handleKey(msg)

	// 3. Пауза после ввода закончилась
	case debounceMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.status.SetProcessing(true)
		return m, tea.Batch(m.suggestCmd(msg.seq, msg.query), m.status.Tick())

	// 4. Ответ поиска (прилетел асинхронно)
	case resultsMsg:
		if msg.seq != m.seq {
			utils.Debug("Stale search result dropped", "query", msg.query, "seq", msg.seq, "current", m.seq)
			return m, nil
		}
		m.applyResults(msg)
		if msg.full {
			return m, m.loadHistoryCmd()
		}
		return m, nil

	case historyMsg:
		if msg.err != nil {
			utils.Warn("Failed to load recent searches", "error", msg.err)
			return m, nil
		}
		m.recent = msg.items
		if m.emptyInput() && m.cursor >= len(m.recent) {
			m.cursor = 0
		}
		return m, nil

	case spinner.TickMsg:
		if !m.status.IsProcessing() {
			return m, nil
		}
		return m, m.status.Update(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleKey обрабатывает клавиши навигации, а остальное отдаёт полю ввода.
func (m MainModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.ToggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		m.detail.Resize(m.width, m.detailHeight())
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
		return m, nil

	case key.Matches(msg, m.keys.ScrollUp):
		m.detail.ScrollUp(3)
		return m, nil

	case key.Matches(msg, m.keys.ScrollDown):
		m.detail.ScrollDown(3)
		return m, nil

	case key.Matches(msg, m.keys.Clear):
		m.input.Reset()
		m.seq++
		m.clearResults()
		return m, m.loadHistoryCmd()

	case key.Matches(msg, m.keys.Select):
		return m.submit()
	}

	// Ввод текста: перезапускаем debounce при каждом изменении
	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	after := m.input.Value()
	if after == before {
		return m, cmd
	}

	m.seq++
	if strings.TrimSpace(after) == "" {
		m.clearResults()
		return m, tea.Batch(cmd, m.loadHistoryCmd())
	}
	seq, delay := m.seq, m.opts.Debounce
	return m, tea.Batch(cmd, tea.Tick(delay, func(time.Time) tea.Msg {
		return debounceMsg{seq: seq, query: after}
	}))
}

// submit запускает полный поиск по Enter.
//
// При пустом вводе Enter повторяет выбранный недавний запрос.
func (m MainModel) submit() (tea.Model, tea.Cmd) {
	query := m.input.Value()
	if m.emptyInput() {
		if m.cursor >= len(m.recent) {
			return m, nil
		}
		query = m.recent[m.cursor].Query
		m.input.SetValue(query)
		m.input.CursorEnd()
	}

	m.seq++
	m.status.SetProcessing(true)
	return m, tea.Batch(m.searchCmd(m.seq, query), m.status.Tick())
}

// applyResults обновляет список, статус-бар и панель деталей.
func (m *MainModel) applyResults(msg resultsMsg) {
	m.status.SetProcessing(false)
	m.query = msg.query
	m.cursor = 0

	if msg.err != nil {
		m.results, m.highlights = nil, nil
		m.err = msg.err
		m.message = errorText(msg.err)
		m.status.ClearResult()
		m.updateDetail()
		return
	}

	m.err = nil
	m.results = msg.results
	m.highlights = matchIndexes(msg.query, displayNames(msg.results))
	m.message = msg.message
	if len(m.results) == 0 && m.message == "" {
		m.message = "No places found"
	}
	m.status.SetResult(msg.source, len(msg.results), msg.degraded, msg.cached)
	m.updateDetail()
}

// clearResults возвращает модель к пустому вводу.
func (m *MainModel) clearResults() {
	m.status.SetProcessing(false)
	m.status.ClearResult()
	m.query = ""
	m.results, m.highlights = nil, nil
	m.message = ""
	m.err = nil
	m.cursor = 0
	m.updateDetail()
}

// moveCursor сдвигает выделение по текущему списку (результаты или недавние).
func (m *MainModel) moveCursor(delta int) {
	n := len(m.results)
	if m.emptyInput() {
		n = len(m.recent)
	}
	if n == 0 {
		return
	}
	m.cursor = (m.cursor + delta + n) % n
	m.updateDetail()
}

// updateDetail перерисовывает панель деталей для выбранного результата.
func (m *MainModel) updateDetail() {
	if m.cursor < len(m.results) && !m.emptyInput() {
		m.detail.SetLines(detailLines(m.results[m.cursor]))
		return
	}
	m.detail.SetLines(nil)
}

func (m MainModel) emptyInput() bool {
	return strings.TrimSpace(m.input.Value()) == ""
}

// errorText превращает ошибку поиска в строку для пользователя.
func errorText(err error) string {
	var inputErr *search.InputError
	if errors.As(err, &inputErr) {
		return inputErr.Error()
	}
	return "Search failed: " + err.Error()
}
