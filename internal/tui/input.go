package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/todo/internal/ui"
)

// todoInput owns the text field. Submitting hands the title to add and
// clears the field; the list only changes once the server answers.
type todoInput struct {
	ti   textinput.Model
	keys keyMap
	add  func(title string) tea.Cmd
	err  string
}

func newTodoInput(add func(string) tea.Cmd) todoInput {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "What needs to be done?"
	ti.CharLimit = 200
	return todoInput{ti: ti, keys: defaultKeys(), add: add}
}

func (in *todoInput) Focus() tea.Cmd { return in.ti.Focus() }
func (in *todoInput) Blur()          { in.ti.Blur(); in.err = "" }
func (in todoInput) Focused() bool   { return in.ti.Focused() }

func (in todoInput) Update(msg tea.Msg) (todoInput, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok && key.Matches(km, in.keys.Submit) {
		title := strings.TrimSpace(in.ti.Value())
		if title == "" {
			in.err = "Title cannot be empty"
			return in, nil
		}
		in.err = ""
		in.ti.SetValue("")
		return in, in.add(title)
	}
	var cmd tea.Cmd
	in.ti, cmd = in.ti.Update(msg)
	return in, cmd
}

func (in todoInput) View() string {
	t := ui.Current()
	title := "Add new item"
	if in.err != "" {
		title += " " + t.Error.Render(in.err)
	}
	if !in.Focused() {
		title = t.Muted.Render(title)
	}
	return title + "\n" + in.ti.View()
}
