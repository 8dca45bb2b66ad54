package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	newNote   key.Binding
	delete    key.Binding
	save      key.Binding
	archive   key.Binding
	quit      key.Binding
	toggle    key.Binding
	bold      key.Binding
	underline key.Binding
	italic    key.Binding
	heading1  key.Binding
	heading2  key.Binding
	heading3  key.Binding
	image     key.Binding
	paste     key.Binding
	search    key.Binding
	focus     key.Binding
	mark      key.Binding
	up        key.Binding
	down      key.Binding
	open      key.Binding
	cancel    key.Binding
	confirm   key.Binding
	deny      key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		newNote: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("^n", "new"),
		),
		delete: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("^d", "delete"),
		),
		save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("^s", "save"),
		),
		archive: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("^o", "archive"),
		),
		quit: key.NewBinding(
			key.WithKeys("ctrl+q", "ctrl+c"),
			key.WithHelp("^q", "quit"),
		),
		toggle: key.NewBinding(
			key.WithKeys("ctrl+p"),
			key.WithHelp("^p", "edit/preview"),
		),
		bold: key.NewBinding(
			key.WithKeys("ctrl+b"),
			key.WithHelp("^b", "bold"),
		),
		underline: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("^u", "underline"),
		),
		italic: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("^t", "italic"),
		),
		heading1: key.NewBinding(
			key.WithKeys("alt+1"),
			key.WithHelp("M-1", "h1"),
		),
		heading2: key.NewBinding(
			key.WithKeys("alt+2"),
			key.WithHelp("M-2", "h2"),
		),
		heading3: key.NewBinding(
			key.WithKeys("alt+3"),
			key.WithHelp("M-3", "h3"),
		),
		image: key.NewBinding(
			key.WithKeys("ctrl+g"),
			key.WithHelp("^g", "image"),
		),
		paste: key.NewBinding(
			key.WithKeys("ctrl+v"),
			key.WithHelp("^v", "paste image"),
		),
		search: key.NewBinding(
			key.WithKeys("ctrl+f"),
			key.WithHelp("^f", "search"),
		),
		focus: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "focus"),
		),
		mark: key.NewBinding(
			key.WithKeys("ctrl+@"),
			key.WithHelp("^space", "mark"),
		),
		up: key.NewBinding(
			key.WithKeys("up", "k"),
		),
		down: key.NewBinding(
			key.WithKeys("down", "j"),
		),
		open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("↵", "open"),
		),
		cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		confirm: key.NewBinding(
			key.WithKeys("y", "Y", "enter"),
		),
		deny: key.NewBinding(
			key.WithKeys("n", "N", "esc"),
		),
	}
}

func (k keyMap) shortHelp() []key.Binding {
	return []key.Binding{
		k.newNote, k.save, k.delete, k.toggle, k.search, k.focus, k.archive, k.quit,
	}
}

func (k keyMap) editHelp() []key.Binding {
	return []key.Binding{
		k.mark, k.bold, k.italic, k.underline, k.heading1, k.heading2, k.heading3, k.image, k.paste,
	}
}
