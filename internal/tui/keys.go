package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit        key.Binding
	NextPane    key.Binding
	PrevPane    key.Binding
	Up          key.Binding
	Down        key.Binding
	Open        key.Binding
	Toggle      key.Binding
	Left        key.Binding
	Right       key.Binding
	Shrink      key.Binding
	Grow        key.Binding
	Commit      key.Binding
	Forecast    key.Binding
	Delete      key.Binding
	Refresh     key.Binding
	Back        key.Binding
	Confirm     key.Binding
	Cancel      key.Binding
	Interrupted key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Quit:        key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		Interrupted: key.NewBinding(key.WithKeys("ctrl+c")),
		NextPane:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next pane")),
		PrevPane:    key.NewBinding(key.WithKeys("shift+tab")),
		Up:          key.NewBinding(key.WithKeys("up", "k")),
		Down:        key.NewBinding(key.WithKeys("down", "j")),
		Open:        key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Toggle:      key.NewBinding(key.WithKeys(" ", "space", "enter"), key.WithHelp("space", "toggle")),
		Left:        key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/→", "move window")),
		Right:       key.NewBinding(key.WithKeys("right", "l")),
		Shrink:      key.NewBinding(key.WithKeys("<", ","), key.WithHelp("</>", "resize")),
		Grow:        key.NewBinding(key.WithKeys(">", ".")),
		Commit:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "commit")),
		Forecast:    key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "forecast")),
		Delete:      key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Refresh:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Back:        key.NewBinding(key.WithKeys("esc")),
		Confirm:     key.NewBinding(key.WithKeys("y", "Y")),
		Cancel:      key.NewBinding(key.WithKeys("n", "N", "esc")),
	}
}
