// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the main screen bindings. The dialog has its own.
type KeyMap struct {
	Export  key.Binding
	Reload  key.Binding
	Dismiss key.Binding
	Quit    key.Binding
	Force   key.Binding
}

// DefaultKeyMap returns the main screen bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Export: key.NewBinding(
			key.WithKeys("e", "enter"),
			key.WithHelp("e", "exporter"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r", "ctrl+r"),
			key.WithHelp("r", "recharger"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "fermer notif."),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quitter"),
		),
		Force: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("C-c", "quitter"),
		),
	}
}
