package ui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Quit      key.Binding
	ForceQuit key.Binding
	Help      key.Binding
	Tab       key.Binding
	Enter     key.Binding
	Back      key.Binding
	Focus     key.Binding
	Clear     key.Binding
	Preview   key.Binding
	RevealAll key.Binding
	Fold      key.Binding
	Up        key.Binding
	Down      key.Binding
	PageUp    key.Binding
	PageDown  key.Binding
	Top       key.Binding
	Bottom    key.Binding
}

var Keys = KeyMap{
	Quit:      key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
	ForceQuit: key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Tab:       key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "query/file filter")),
	Enter:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "search/open")),
	Back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Focus:     key.NewBinding(key.WithKeys("/", "i"), key.WithHelp("/", "edit query")),
	Clear:     key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "clear")),
	Preview:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "preview")),
	RevealAll: key.NewBinding(key.WithKeys("A"), key.WithHelp("A", "show all")),
	Fold:      key.NewBinding(key.WithKeys(" ", "h", "l", "left", "right"), key.WithHelp("space", "fold file")),
	Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("k/up", "up")),
	Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("j/down", "down")),
	PageUp:    key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
	PageDown:  key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),
	Top:       key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
	Bottom:    key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
}
