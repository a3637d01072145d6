// Package ui реализует Model компонент Bubble Tea TUI поиска мест.
//
// Содержит структуру UI, сообщения и функцию инициализации.
package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ilkoid/saigon-traffic/pkg/search"
	"github.com/ilkoid/saigon-traffic/pkg/store"
	"github.com/ilkoid/saigon-traffic/pkg/tui"
	"github.com/ilkoid/saigon-traffic/pkg/tui/primitives"
)

// Значения по умолчанию для Options.
const (
	DefaultDebounce    = 250 * time.Millisecond
	DefaultLimit       = 10
	DefaultRecentLimit = 8
	requestTimeout     = 10 * time.Second
)

// Searcher: часть search.Service, нужная TUI.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) (*search.Response, error)
	Suggest(ctx context.Context, partial string) (*search.SuggestResponse, error)
}

// HistorySource отдаёт недавние запросы для пустого поля ввода.
type HistorySource interface {
	RecentSearches(ctx context.Context, limit int) ([]store.HistoryItem, error)
}

// Options: настройки TUI.
type Options struct {
	Debounce    time.Duration // Пауза после последнего нажатия перед подсказками
	Limit       int           // Лимит результатов полного поиска (Enter)
	RecentLimit int           // Сколько недавних запросов показывать
	Theme       string        // Имя цветовой схемы из tui.ColorSchemes
	Geocoder    string        // Имя провайдера для статус-бара, "" = не показывать
}

func (o Options) withDefaults() Options {
	if o.Debounce <= 0 {
		o.Debounce = DefaultDebounce
	}
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.RecentLimit <= 0 {
		o.RecentLimit = DefaultRecentLimit
	}
	return o
}

// debounceMsg приходит через Options.Debounce после нажатия клавиши.
// Устаревшие (seq не совпадает) отбрасываются.
type debounceMsg struct {
	seq   int
	query string
}

// resultsMsg: результат подсказок или полного поиска.
type resultsMsg struct {
	seq      int
	query    string
	full     bool // true = Search (Enter), false = Suggest
	results  []search.Result
	source   string
	degraded bool
	cached   bool
	message  string
	err      error
}

// historyMsg: недавние запросы из хранилища.
type historyMsg struct {
	items []store.HistoryItem
	err   error
}

// MainModel представляет главную модель UI (Bubble Tea Model).
//
// Содержит все компоненты TUI:
//   - input: поле ввода запроса
//   - detail: панель деталей выбранного места (reflow при resize)
//   - status: статус-бар со спиннером и источником результатов
//   - results/highlights: текущий список и подсвеченные символы
//   - recent: недавние запросы, показываются при пустом вводе
//
// detail и status: указатели, поэтому не копируются при value receiver в Update().
type MainModel struct {
	ctx      context.Context
	searcher Searcher
	history  HistorySource
	opts     Options

	input  textinput.Model
	detail *primitives.ViewportManager
	status *primitives.StatusBarManager
	help   help.Model
	keys   tui.KeyMap
	styles styles

	// seq растёт при каждом изменении запроса; ответы со старым seq игнорируются
	seq        int
	query      string // Запрос, к которому относятся results
	results    []search.Result
	highlights [][]int
	message    string
	err        error
	recent     []store.HistoryItem
	cursor     int

	width  int
	height int
	ready  bool
}

// InitialModel создает начальное состояние UI.
//
// Параметры:
//   - ctx: родительский контекст для запросов к поиску
//   - searcher: сервис поиска
//   - history: источник недавних запросов (может быть nil)
//   - opts: настройки, пустые поля заполняются значениями по умолчанию
func InitialModel(ctx context.Context, searcher Searcher, history HistorySource, opts Options) MainModel {
	opts = opts.withDefaults()
	colors := tui.GetColorScheme(opts.Theme)

	// 1. Поле ввода
	ti := textinput.New()
	ti.Placeholder = "Place name, e.g. ben thanh, q1, landmark 81..."
	ti.Prompt = "› "
	ti.CharLimit = 200
	ti.Focus()

	// 2. Статус-бар
	status := primitives.NewStatusBarManager(colors.StatusBarConfig())
	if opts.Geocoder != "" {
		geocoder := "geocoder: " + opts.Geocoder
		status.SetCustomExtra(func() string { return geocoder })
	}

	return MainModel{
		ctx:      ctx,
		searcher: searcher,
		history:  history,
		opts:     opts,
		input:    ti,
		detail:   primitives.NewViewportManager(primitives.ViewportConfig{}),
		status:   status,
		help:     help.New(),
		keys:     tui.DefaultKeyMap(),
		styles:   newStyles(colors),
	}
}

// Init запускается один раз при старте Bubble Tea программы.
//
// Возвращает команду для:
//   - Запуска мигания курсора в поле ввода
//   - Загрузки недавних запросов
func (m MainModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.loadHistoryCmd())
}

// loadHistoryCmd читает недавние запросы из хранилища.
func (m MainModel) loadHistoryCmd() tea.Cmd {
	if m.history == nil {
		return nil
	}
	ctx, history, limit := m.ctx, m.history, m.opts.RecentLimit
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		items, err := history.RecentSearches(ctx, limit)
		return historyMsg{items: items, err: err}
	}
}

// suggestCmd запрашивает подсказки для набираемого запроса.
func (m MainModel) suggestCmd(seq int, query string) tea.Cmd {
	ctx, searcher := m.ctx, m.searcher
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		resp, err := searcher.Suggest(ctx, query)
		if err != nil {
			return resultsMsg{seq: seq, query: query, err: err}
		}
		return resultsMsg{
			seq:      seq,
			query:    query,
			results:  resp.Suggestions,
			source:   "suggestions",
			degraded: resp.Degraded,
		}
	}
}

// searchCmd выполняет полный поиск (с записью в историю).
func (m MainModel) searchCmd(seq int, query string) tea.Cmd {
	ctx, searcher, limit := m.ctx, m.searcher, m.opts.Limit
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		resp, err := searcher.Search(ctx, query, limit)
		if err != nil {
			return resultsMsg{seq: seq, query: query, full: true, err: err}
		}
		return resultsMsg{
			seq:      seq,
			query:    query,
			full:     true,
			results:  resp.Results,
			source:   string(resp.Source),
			degraded: resp.Degraded,
			cached:   resp.Cached,
			message:  resp.Message,
		}
	}
}
