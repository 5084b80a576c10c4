// Package todolist holds the todo list state and the operations the views
// call. The server is the only source of truth: every operation round-trips
// through the API and the response replaces the whole list.
//
// Operations return Bubble Tea commands. The request runs off the UI loop
// and comes back as a ResultMsg, which the owning model hands to Apply on
// the UI loop. State is therefore only written from one goroutine.
package todolist

import (
	"context"
	"errors"
	"io"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/todo/internal/api"
	"github.com/idilsaglam/todo/internal/auth"
	"github.com/idilsaglam/todo/internal/model"
)

// Alert texts shown to the user.
const (
	AlertLoginRequired = "This service requires login."
	AlertContactAdmin  = "Something went wrong. Please contact the administrator!"
)

// RouteLogin is where an authentication failure sends the user.
const RouteLogin = "/login"

// Backend is the subset of api.Client the controller needs.
type Backend interface {
	List(ctx context.Context) ([]model.Item, error)
	Add(ctx context.Context, title string) ([]model.Item, error)
	Remove(ctx context.Context, id int64) ([]model.Item, error)
	Check(ctx context.Context, id int64, currentDone bool) ([]model.Item, error)
}

// Phase is the rendering state.
type Phase int

const (
	Loading Phase = iota
	Ready
	AuthRequired
	Failed
)

func (p Phase) String() string {
	switch p {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case AuthRequired:
		return "auth-required"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Op names the request a result belongs to.
type Op int

const (
	OpList Op = iota
	OpAdd
	OpRemove
	OpCheck
)

func (o Op) String() string {
	switch o {
	case OpList:
		return "list"
	case OpAdd:
		return "add"
	case OpRemove:
		return "remove"
	case OpCheck:
		return "check"
	}
	return "unknown"
}

// ResultMsg carries a finished request back to the UI loop.
type ResultMsg struct {
	Seq   uint64
	Op    Op
	Todos []model.Item
	Err   error
}

// AlertMsg asks the view to show Text to the user.
type AlertMsg struct {
	Text string
}

// RedirectMsg asks the router to switch to another view.
type RedirectMsg struct {
	To string
}

// Controller owns the list state. Create it with New and keep a pointer
// to it; copies would split the sequence counter.
type Controller struct {
	backend Backend
	ctx     context.Context
	logger  *slog.Logger

	phase Phase
	todos []model.Item
	alert string

	// issued is the sequence number of the newest request. Only its
	// response is applied, so a slow older response never overwrites
	// a newer list.
	issued uint64
}

type Option func(*Controller)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithContext sets the context requests run under.
func WithContext(ctx context.Context) Option {
	return func(c *Controller) { c.ctx = ctx }
}

func New(backend Backend, opts ...Option) *Controller {
	c := &Controller{
		backend: backend,
		ctx:     context.Background(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		todos:   []model.Item{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) Phase() Phase { return c.phase }

// Loading reports whether the first list fetch is still outstanding.
func (c *Controller) Loading() bool { return c.phase == Loading }

// Todos returns the last list the server sent.
func (c *Controller) Todos() []model.Item { return c.todos }

// Alert is the last alert raised, or "".
func (c *Controller) Alert() string { return c.alert }

// CountRestTodo counts unfinished items. It is computed on every call.
func (c *Controller) CountRestTodo() int { return model.CountRest(c.todos) }

// Mount fetches the list and puts the controller into Loading.
func (c *Controller) Mount() tea.Cmd {
	c.phase = Loading
	c.alert = ""
	return c.request(OpList, func(ctx context.Context) ([]model.Item, error) {
		return c.backend.List(ctx)
	})
}

// AddTodo creates an item titled title. Nothing is inserted locally.
func (c *Controller) AddTodo(title string) tea.Cmd {
	return c.request(OpAdd, func(ctx context.Context) ([]model.Item, error) {
		return c.backend.Add(ctx, title)
	})
}

// RemoveTodo deletes the item with id.
func (c *Controller) RemoveTodo(id int64) tea.Cmd {
	return c.request(OpRemove, func(ctx context.Context) ([]model.Item, error) {
		return c.backend.Remove(ctx, id)
	})
}

// CheckTodo flips the done flag of id, starting from currentDone as the
// view displayed it.
func (c *Controller) CheckTodo(id int64, currentDone bool) tea.Cmd {
	return c.request(OpCheck, func(ctx context.Context) ([]model.Item, error) {
		return c.backend.Check(ctx, id, currentDone)
	})
}

func (c *Controller) request(op Op, call func(context.Context) ([]model.Item, error)) tea.Cmd {
	c.issued++
	seq := c.issued
	ctx := c.ctx
	c.logger.Debug("request issued", "op", op, "seq", seq)
	return func() tea.Msg {
		todos, err := call(ctx)
		return ResultMsg{Seq: seq, Op: op, Todos: todos, Err: err}
	}
}

// Apply folds a finished request into the state. The returned command
// carries any alert or redirect for the view and router.
func (c *Controller) Apply(msg ResultMsg) tea.Cmd {
	if msg.Seq != c.issued {
		c.logger.Debug("dropping superseded response",
			"op", msg.Op, "seq", msg.Seq, "latest", c.issued, "error", msg.Err)
		return nil
	}

	if msg.Err == nil {
		c.todos = msg.Todos
		if c.todos == nil {
			c.todos = []model.Item{}
		}
		c.alert = ""
		if msg.Op == OpList || c.phase == Loading {
			c.phase = Ready
		}
		return nil
	}

	// A missing token is treated like a 403: the server would refuse it.
	if errors.Is(msg.Err, api.ErrAuthRequired) || errors.Is(msg.Err, auth.ErrNotLoggedIn) {
		c.logger.Info("authentication required", "op", msg.Op)
		c.phase = AuthRequired
		c.alert = AlertLoginRequired
		return tea.Batch(emit(AlertMsg{Text: AlertLoginRequired}), emit(RedirectMsg{To: RouteLogin}))
	}

	c.logger.Error("request failed", "op", msg.Op, "error", msg.Err)
	c.alert = AlertContactAdmin
	if c.phase == Loading {
		c.phase = Failed
	}
	return emit(AlertMsg{Text: AlertContactAdmin})
}

func emit(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}
