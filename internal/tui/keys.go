package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the bindings shared across screens. Text entry goes
// to the focused input, so navigation sticks to keys inputs ignore:
// tab for screens, up/down for fields, left/right for pickers.
type KeyMap struct {
	NextTab   key.Binding
	PrevTab   key.Binding
	NextField key.Binding
	PrevField key.Binding
	PrevItem  key.Binding
	NextItem  key.Binding
	Activate  key.Binding
	Toggle    key.Binding
	NewHolder key.Binding
	Edit      key.Binding
	Info      key.Binding
	Close     key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
}

var DefaultKeyMap = KeyMap{
	NextTab:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next screen")),
	PrevTab:   key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous screen")),
	NextField: key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "next field")),
	PrevField: key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "previous field")),
	PrevItem:  key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "previous option")),
	NextItem:  key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "next option")),
	Activate:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "activate")),
	Toggle:    key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
	NewHolder: key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new ticket holder")),
	Edit:      key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit ticket holder")),
	Info:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "info")),
	Close:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
	Quit:      key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
	ForceQuit: key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
}
