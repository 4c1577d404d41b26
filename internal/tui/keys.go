package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Submit   key.Binding
	NextTask key.Binding
	NextLang key.Binding
	NextSet  key.Binding
	Clear    key.Binding
	Reset    key.Binding
	Theme    key.Binding
	Sidebar  key.Binding
	Info     key.Binding
	Focus    key.Binding
	Up       key.Binding
	Down     key.Binding
	Pick     key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Submit: key.NewBinding(
			key.WithKeys("ctrl+s", "alt+enter", "ctrl+j"),
			key.WithHelp("ctrl+s", "send"),
		),
		NextTask: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "task"),
		),
		NextLang: key.NewBinding(
			key.WithKeys("ctrl+g"),
			key.WithHelp("ctrl+g", "language"),
		),
		NextSet: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("ctrl+o", "set"),
		),
		Clear: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "clear chat"),
		),
		Reset: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "reset input"),
		),
		Theme: key.NewBinding(
			key.WithKeys("f2"),
			key.WithHelp("f2", "theme"),
		),
		Sidebar: key.NewBinding(
			key.WithKeys("ctrl+b"),
			key.WithHelp("ctrl+b", "sidebar"),
		),
		Info: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("f1", "info"),
		),
		Focus: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "focus"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "ctrl+p"),
			key.WithHelp("↑", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "ctrl+n"),
			key.WithHelp("↓", "down"),
		),
		Pick: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "pick question"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "esc"),
			key.WithHelp("esc", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.NextTask, k.NextLang, k.Focus, k.Clear, k.Reset, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.NextTask, k.NextLang, k.NextSet},
		{k.Focus, k.Up, k.Down, k.Pick},
		{k.Clear, k.Reset, k.Theme, k.Sidebar, k.Info, k.Quit},
	}
}
