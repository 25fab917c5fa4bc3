package search

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/ralfiz/bizdesk/internal/model"
)

const (
	// DefaultDebounce — пауза во вводе, после которой отправляется запрос.
	DefaultDebounce = 300 * time.Millisecond
	// MinQueryLength — минимальная длина запроса в символах.
	MinQueryLength = 2
	// ErrorMessage показывается вместо выдачи при неудачном поиске.
	ErrorMessage = "error searching"
)

// State описывает состояние поля поиска.
type State int

const (
	StateIdle State = iota
	StatePending
	StateDisplaying
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateDisplaying:
		return "displaying"
	case StateError:
		return "error"
	}
	return "unknown"
}

// View содержит то, что показывается под полем поиска.
type View struct {
	State   State
	Query   string
	Loading bool
	Results []model.SearchResult
	Message string
}

// Searcher выполняет поисковый запрос.
type Searcher interface {
	Search(ctx context.Context, query string) ([]model.SearchResult, error)
}

// Option настраивает Coordinator.
type Option func(*Coordinator)

// WithDebounce задаёт паузу перед отправкой запроса.
func WithDebounce(d time.Duration) Option {
	return func(c *Coordinator) { c.debounce = d }
}

// WithTimeout задаёт предельное время одного запроса.
func WithTimeout(d time.Duration) Option {
	return func(c *Coordinator) { c.timeout = d }
}

// WithLogger задаёт логгер для неудачных запросов.
func WithLogger(l *zap.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// Coordinator отправляет поисковые запросы по мере ввода в одно поле.
//
// Каждый запрос помечается порядковым номером; ответ применяется к отображению, только если
// его номер совпадает с последним выданным. render вызывается под внутренней блокировкой в
// порядке переходов и не должен обращаться к Coordinator.
type Coordinator struct {
	searcher Searcher
	render   func(View)
	debounce time.Duration
	timeout  time.Duration
	logger   *zap.Logger

	mu     sync.Mutex
	seq    uint64
	timer  *time.Timer
	cancel context.CancelFunc
	view   View
}

// NewCoordinator создаёт координатор поверх searcher. render получает каждое новое состояние.
func NewCoordinator(searcher Searcher, render func(View), opts ...Option) *Coordinator {
	c := &Coordinator{
		searcher: searcher,
		render:   render,
		debounce: DefaultDebounce,
		timeout:  DefaultTimeout,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.render == nil {
		c.render = func(View) {}
	}
	return c
}

// Input обрабатывает изменение текста в поле поиска.
func (c *Coordinator) Input(query string) {
	q := strings.TrimSpace(query)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.supersedeLocked()

	if utf8.RuneCountInString(q) < MinQueryLength {
		c.setLocked(View{State: StateIdle, Query: q})
		return
	}

	seq := c.seq
	c.timer = time.AfterFunc(c.debounce, func() { c.issue(seq, q) })
	c.setLocked(View{State: StatePending, Query: q})
}

// Dismiss скрывает выдачу (клик вне поля или клавиша отмены). Ответ на уже отправленный
// запрос будет отброшен.
func (c *Coordinator) Dismiss() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.supersedeLocked()
	c.setLocked(View{State: StateIdle, Query: c.view.Query})
}

// View возвращает текущее состояние отображения.
func (c *Coordinator) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// Close отменяет таймер и незавершённый запрос.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.supersedeLocked()
}

// supersedeLocked делает все ранее выданные запросы устаревшими.
func (c *Coordinator) supersedeLocked() {
	c.seq++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Coordinator) setLocked(v View) {
	c.view = v
	c.render(v)
}

func (c *Coordinator) issue(seq uint64, query string) {
	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	c.cancel = cancel
	c.setLocked(View{State: StatePending, Query: query, Loading: true})
	c.mu.Unlock()

	results, err := c.searcher.Search(ctx, query)
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.seq {
		return
	}
	c.cancel = nil

	if err != nil {
		c.logger.Warn("search request failed", zap.String("query", query), zap.Error(err))
		c.setLocked(View{State: StateError, Query: query, Message: ErrorMessage})
		return
	}

	c.setLocked(View{State: StateDisplaying, Query: query, Results: results})
}
