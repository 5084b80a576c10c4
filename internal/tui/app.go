// Package tui is the terminal front end: a todos view driven by a
// todolist.Controller and a login view the router switches to when the
// server asks for authentication.
package tui

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/todo/internal/todolist"
	"github.com/idilsaglam/todo/internal/ui"
)

// Routes the App can show.
const (
	RouteTodos = "/"
	RouteLogin = todolist.RouteLogin
)

// App routes between the todos and login views.
type App struct {
	route  string
	ctl    *todolist.Controller
	todos  todosView
	login  loginView
	keys   keyMap
	alert  string
	logger *slog.Logger
}

type Option func(*App)

func WithLogger(logger *slog.Logger) Option {
	return func(a *App) { a.logger = logger }
}

// New builds the App. saver receives tokens typed into the login view.
func New(ctl *todolist.Controller, saver TokenSaver, opts ...Option) App {
	a := App{
		route:  RouteTodos,
		ctl:    ctl,
		todos:  newTodosView(ctl),
		login:  newLoginView(saver),
		keys:   defaultKeys(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&a)
	}
	w, h := ui.TermSize()
	a.todos.SetSize(w, h)
	return a
}

// Route is the view currently shown.
func (a App) Route() string { return a.route }

func (a App) Init() tea.Cmd { return a.todos.Mount() }

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, a.keys.Force) {
			return a, tea.Quit
		}

	case tea.WindowSizeMsg:
		a.todos.SetSize(msg.Width, msg.Height)
		return a, nil

	case todolist.AlertMsg:
		a.alert = msg.Text
		return a, nil

	case todolist.RedirectMsg:
		a.logger.Info("redirect", "from", a.route, "to", msg.To)
		a.route = msg.To
		if msg.To == RouteLogin {
			return a, a.login.Focus()
		}
		return a, nil

	case loggedInMsg:
		a.logger.Info("token saved, reloading list")
		a.route = RouteTodos
		a.alert = ""
		return a, a.todos.Mount()

	case todolist.ResultMsg:
		var cmd tea.Cmd
		a.todos, cmd = a.todos.Update(msg)
		if a.ctl.Alert() == "" {
			a.alert = ""
		}
		return a, cmd
	}

	var cmd tea.Cmd
	if a.route == RouteLogin {
		a.login, cmd = a.login.Update(msg)
		return a, cmd
	}
	a.todos, cmd = a.todos.Update(msg)
	return a, cmd
}

func (a App) View() string {
	if a.route == RouteLogin {
		return ui.PanelString(a.login.View(a.alert))
	}
	return ui.PanelString(a.todos.View(a.alert))
}

// Run starts the program and blocks until the user quits or ctx ends.
func Run(ctx context.Context, app App) error {
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	}
	return nil
}
