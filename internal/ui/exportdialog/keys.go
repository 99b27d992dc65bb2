// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package exportdialog

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the dialog key bindings.
type KeyMap struct {
	NextField key.Binding
	PrevField key.Binding
	NextTab   key.Binding
	PrevTab   key.Binding
	Left      key.Binding
	Right     key.Binding
	Toggle    key.Binding
	Activate  key.Binding
	Cancel    key.Binding
}

// DefaultKeyMap returns the default dialog bindings. Space only toggles when
// the focused field is not a text input.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		NextField: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "champ suivant"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "champ précédent"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("ctrl+right", "pgdown"),
			key.WithHelp("C-right", "onglet suivant"),
		),
		PrevTab: key.NewBinding(
			key.WithKeys("ctrl+left", "pgup"),
			key.WithHelp("C-left", "onglet précédent"),
		),
		Left: key.NewBinding(
			key.WithKeys("left"),
			key.WithHelp("left", "valeur précédente"),
		),
		Right: key.NewBinding(
			key.WithKeys("right"),
			key.WithHelp("right", "valeur suivante"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("espace", "cocher"),
		),
		Activate: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("entrée", "valider"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("échap", "annuler"),
		),
	}
}

// ShortHelp lists the bindings shown under the dialog.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextField, k.NextTab, k.Right, k.Toggle, k.Activate, k.Cancel}
}
