package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/todo/internal/ui"
)

// TokenSaver stores the token pasted into the login view.
type TokenSaver interface {
	Set(token string) error
}

// loggedInMsg tells the router the token was saved.
type loggedInMsg struct{}

type loginView struct {
	ti    textinput.Model
	keys  keyMap
	saver TokenSaver
	err   string
}

func newLoginView(saver TokenSaver) loginView {
	ti := textinput.New()
	ti.Prompt = "token: "
	ti.Placeholder = "paste your bearer token"
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'
	keys := defaultKeys()
	keys.Submit.SetHelp("enter", "log in")
	keys.Cancel.SetHelp("esc", "quit")
	return loginView{ti: ti, keys: keys, saver: saver}
}

func (v *loginView) Focus() tea.Cmd {
	v.ti.SetValue("")
	v.err = ""
	return v.ti.Focus()
}

func (v loginView) Update(msg tea.Msg) (loginView, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(km, v.keys.Submit):
			token := strings.TrimSpace(v.ti.Value())
			if token == "" {
				v.err = "Token cannot be empty"
				return v, nil
			}
			if err := v.saver.Set(token); err != nil {
				v.err = "save token: " + err.Error()
				return v, nil
			}
			v.ti.SetValue("")
			v.ti.Blur()
			return v, func() tea.Msg { return loggedInMsg{} }
		case key.Matches(km, v.keys.Cancel):
			return v, tea.Quit
		}
	}
	var cmd tea.Cmd
	v.ti, cmd = v.ti.Update(msg)
	return v, cmd
}

func (v loginView) View(alert string) string {
	t := ui.Current()
	lines := []string{t.Title.Render("Login")}
	if alert != "" {
		lines = append(lines, t.Error.Render(alert))
	}
	lines = append(lines, "", v.ti.View())
	if v.err != "" {
		lines = append(lines, t.Error.Render(v.err))
	}
	lines = append(lines, "", t.Muted.Render(helpLine(v.keys.Submit, v.keys.Cancel)))
	return strings.Join(lines, "\n")
}
