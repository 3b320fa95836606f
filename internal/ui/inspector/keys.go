package inspector

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit    key.Binding
	Tab     key.Binding
	Route   key.Binding
	Dismiss key.Binding
	Logs    key.Binding
	Submit  key.Binding
	Cancel  key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Tab:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch tab")),
		Route:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "open route")),
		Dismiss: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "dismiss sheet")),
		Logs:    key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "toggle logs")),
		Submit:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "go")),
		Cancel:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}

func (k keyMap) browsing() []key.Binding {
	return []key.Binding{k.Route, k.Tab, k.Dismiss, k.Logs, k.Quit}
}

func (k keyMap) prompting() []key.Binding {
	return []key.Binding{k.Submit, k.Cancel}
}
