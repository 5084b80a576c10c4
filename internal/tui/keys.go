package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Add    key.Binding
	Switch key.Binding
	Check  key.Binding
	Remove key.Binding
	Submit key.Binding
	Cancel key.Binding
	Retry  key.Binding
	Quit   key.Binding
	Force  key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Add:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Switch: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch focus")),
		Check:  key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle done")),
		Remove: key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "remove")),
		Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
		Cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Retry:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry")),
		Quit:   key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		Force:  key.NewBinding(key.WithKeys("ctrl+c")),
	}
}

func helpLine(bindings ...key.Binding) string {
	out := ""
	for i, b := range bindings {
		if i > 0 {
			out += " · "
		}
		h := b.Help()
		out += h.Key + " " + h.Desc
	}
	return out
}
