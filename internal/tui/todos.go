package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/todo/internal/todolist"
	"github.com/idilsaglam/todo/internal/ui"
)

// todosView composes header, list and input around the controller. It
// shows a spinner until the first fetch resolves.
type todosView struct {
	ctl     *todolist.Controller
	spinner spinner.Model
	header  header
	list    todoList
	input   todoInput
	keys    keyMap

	width, height int
}

func newTodosView(ctl *todolist.Controller) todosView {
	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(ui.Current().Spinner),
	)
	return todosView{
		ctl:     ctl,
		spinner: sp,
		header:  header{count: ctl.CountRestTodo},
		list:    newTodoList(ctl.RemoveTodo, ctl.CheckTodo),
		input:   newTodoInput(ctl.AddTodo),
		keys:    defaultKeys(),
	}
}

// Mount starts the list fetch and the spinner.
func (v *todosView) Mount() tea.Cmd {
	return tea.Batch(v.ctl.Mount(), v.spinner.Tick)
}

func (v *todosView) SetSize(w, h int) {
	v.width, v.height = w, h
	// header, input (2), alert, help, blank lines and the panel frame
	listHeight := h - 10
	if listHeight < 3 {
		listHeight = 3
	}
	v.list.SetSize(w-4, listHeight)
	v.input.ti.Width = w - 8
}

func (v todosView) Update(msg tea.Msg) (todosView, tea.Cmd) {
	switch msg := msg.(type) {
	case todolist.ResultMsg:
		effects := v.ctl.Apply(msg)
		if v.ctl.Phase() != todolist.Ready {
			return v, effects
		}
		return v, tea.Batch(effects, v.list.SetItems(v.ctl.Todos()))

	case spinner.TickMsg:
		if !v.ctl.Loading() {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case tea.KeyMsg:
		return v.handleKey(msg)
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	cmds = append(cmds, cmd)
	v.list, cmd = v.list.Update(msg)
	cmds = append(cmds, cmd)
	return v, tea.Batch(cmds...)
}

func (v todosView) handleKey(msg tea.KeyMsg) (todosView, tea.Cmd) {
	switch v.ctl.Phase() {
	case todolist.Failed:
		switch {
		case key.Matches(msg, v.keys.Retry):
			return v, v.Mount()
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		}
		return v, nil
	case todolist.Ready:
	default:
		return v, nil
	}

	if v.input.Focused() {
		if key.Matches(msg, v.keys.Cancel) || key.Matches(msg, v.keys.Switch) {
			v.input.Blur()
			return v, nil
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	if !v.list.Filtering() {
		switch {
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		case key.Matches(msg, v.keys.Add), key.Matches(msg, v.keys.Switch):
			return v, v.input.Focus()
		}
	}
	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

func (v todosView) View(alert string) string {
	t := ui.Current()
	switch v.ctl.Phase() {
	case todolist.Loading:
		return v.spinner.View() + " loading..."
	case todolist.AuthRequired:
		return t.Error.Render(todolist.AlertLoginRequired)
	case todolist.Failed:
		lines := []string{
			t.Error.Render(alert),
			"",
			t.Muted.Render(helpLine(v.keys.Retry, v.keys.Quit)),
		}
		return strings.Join(lines, "\n")
	}

	lines := []string{
		v.header.View(len(v.ctl.Todos())),
		"",
		v.list.View(),
		"",
		v.input.View(),
	}
	if alert != "" {
		lines = append(lines, t.Error.Render(alert))
	}
	help := helpLine(v.keys.Check, v.keys.Remove, v.keys.Add, v.keys.Quit)
	if v.input.Focused() {
		help = helpLine(v.keys.Submit, v.keys.Cancel)
	}
	lines = append(lines, t.Muted.Render(help))
	return strings.Join(lines, "\n")
}
