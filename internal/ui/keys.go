package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Left      key.Binding
	Right     key.Binding
	Open      key.Binding
	Close     key.Binding
	More      key.Binding
	Sort      key.Binding
	Search    key.Binding
	Focus     key.Binding
	Install   key.Binding
	Dismiss   key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Up:        key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("↓/j", "down")),
		Left:      key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("←/h", "prev")),
		Right:     key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("→/l", "next")),
		Open:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		Close:     key.NewBinding(key.WithKeys("esc", "enter", "q", "backspace"), key.WithHelp("esc", "close")),
		More:      key.NewBinding(key.WithKeys("m", "n"), key.WithHelp("m", "see more")),
		Sort:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
		Search:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Focus:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch pane")),
		Install:   key.NewBinding(key.WithKeys("I"), key.WithHelp("I", "install")),
		Dismiss:   key.NewBinding(key.WithKeys("X"), key.WithHelp("X", "not now")),
		Quit:      key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		ForceQuit: key.NewBinding(key.WithKeys("ctrl+c")),
	}
}
