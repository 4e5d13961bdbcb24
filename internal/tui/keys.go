package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up          key.Binding
	Down        key.Binding
	Top         key.Binding
	Bottom      key.Binding
	Select      key.Binding
	Clear       key.Binding
	Disable     key.Binding
	Remove      key.Binding
	Yes         key.Binding
	No          key.Binding
	Search      key.Binding
	SortName    key.Binding
	SortSource  key.Binding
	SortStatus  key.Binding
	SortCommand key.Binding
	Source      key.Binding
	ClearFilter key.Binding
	Stats       key.Binding
	Help        key.Binding
	Whitelist   key.Binding
	Export      key.Binding
	Rescan      key.Binding
	Quit        key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Up:          key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("↑/k", "up")),
		Down:        key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("↓/j", "down")),
		Top:         key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
		Bottom:      key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
		Select:      key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "select")),
		Clear:       key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear selection")),
		Disable:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "disable")),
		Remove:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "remove")),
		Yes:         key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "confirm")),
		No:          key.NewBinding(key.WithKeys("n", "N", "esc"), key.WithHelp("n", "cancel")),
		Search:      key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		SortName:    key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "sort by name")),
		SortSource:  key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "sort by source")),
		SortStatus:  key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "sort by status")),
		SortCommand: key.NewBinding(key.WithKeys("4"), key.WithHelp("4", "sort by command")),
		Source:      key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "cycle source")),
		ClearFilter: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "clear filter")),
		Stats:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stats")),
		Help:        key.NewBinding(key.WithKeys("h", "?"), key.WithHelp("h/?", "help")),
		Whitelist:   key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "whitelist")),
		Export:      key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export")),
		Rescan:      key.NewBinding(key.WithKeys("R", "ctrl+r"), key.WithHelp("R", "rescan")),
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Select, k.Disable, k.Remove, k.Search, k.Stats, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Bottom, k.Select, k.Clear},
		{k.Disable, k.Remove, k.Whitelist, k.Export, k.Rescan},
		{k.Search, k.Source, k.ClearFilter, k.SortName, k.SortSource, k.SortStatus, k.SortCommand},
		{k.Stats, k.Help, k.Quit},
	}
}
