package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/todo/internal/model"
	"github.com/idilsaglam/todo/internal/ui"
)

// listItem adapts model.Item to bubbles/list.Item
type listItem struct {
	item model.Item
}

func (i listItem) Title() string       { return i.item.Title }
func (i listItem) Description() string { return "" }
func (i listItem) FilterValue() string { return i.item.Title }

// Custom delegate to control how items render (single line)
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(listItem)
	if !ok {
		return
	}
	t := ui.Current()

	box := t.Muted.Render(t.BoxUnchecked)
	text := it.item.Title
	if it.item.Done {
		box = t.Success.Render(t.BoxChecked)
		text = t.Done.Render(text)
	}

	prefix := "  "
	if index == m.Index() {
		prefix = t.Selected.Render("> ")
	}
	fmt.Fprint(w, ui.Truncate(prefix+box+" "+text, m.Width()))
}

// todoList renders one row per item and reports row actions through
// the callbacks it was built with. It never changes items itself.
type todoList struct {
	list   list.Model
	keys   keyMap
	remove func(id int64) tea.Cmd
	check  func(id int64, currentDone bool) tea.Cmd
}

func newTodoList(remove func(int64) tea.Cmd, check func(int64, bool) tea.Cmd) todoList {
	l := list.New(nil, itemDelegate{}, 0, 0)
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.DisableQuitKeybindings()
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("item", "items")
	l.Styles.PaginationStyle = ui.Current().Muted
	return todoList{list: l, keys: defaultKeys(), remove: remove, check: check}
}

// SetItems replaces the rows with items, in server order.
func (l *todoList) SetItems(items []model.Item) tea.Cmd {
	li := make([]list.Item, 0, len(items))
	for _, it := range items {
		li = append(li, listItem{item: it})
	}
	return l.list.SetItems(li)
}

func (l *todoList) SetSize(w, h int) { l.list.SetSize(w, h) }

// Filtering reports whether the filter prompt has the keyboard.
func (l todoList) Filtering() bool { return l.list.SettingFilter() }

func (l todoList) selected() (model.Item, bool) {
	it, ok := l.list.SelectedItem().(listItem)
	return it.item, ok
}

func (l todoList) Update(msg tea.Msg) (todoList, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok && !l.Filtering() {
		switch {
		case key.Matches(km, l.keys.Check):
			if it, ok := l.selected(); ok {
				return l, l.check(it.ID, it.Done)
			}
			return l, nil
		case key.Matches(km, l.keys.Remove):
			if it, ok := l.selected(); ok {
				return l, l.remove(it.ID)
			}
			return l, nil
		}
	}
	var cmd tea.Cmd
	l.list, cmd = l.list.Update(msg)
	return l, cmd
}

func (l todoList) View() string {
	if len(l.list.Items()) == 0 {
		return ui.Current().Muted.Render("Nothing to do.")
	}
	return l.list.View()
}
