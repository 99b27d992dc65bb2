// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/exportdesk/internal/ui/styles"
)

// Shortcut is one key hint in the status bar.
type Shortcut struct {
	Key  string
	Desc string
}

// StatusBar is the bottom line with key hints and a transient status.
type StatusBar struct {
	Width     int
	Status    string
	Shortcuts []Shortcut
	theme     *styles.Theme
}

// NewStatusBar creates a status bar with the main screen shortcuts.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{
		Width: 80,
		theme: theme,
		Shortcuts: []Shortcut{
			{Key: "e", Desc: "exporter"},
			{Key: "r", Desc: "recharger"},
			{Key: "x", Desc: "fermer notif."},
			{Key: "q", Desc: "quitter"},
		},
	}
}

// SetWidth updates the bar width.
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// SetStatus sets the text shown on the left.
func (s *StatusBar) SetStatus(status string) {
	s.Status = status
}

// View renders the bar. Narrow terminals show keys only.
func (s *StatusBar) View() string {
	width := max(s.Width, 20)
	narrow := s.theme.GetLayoutMode() == styles.LayoutNarrow

	hints := make([]string, 0, len(s.Shortcuts))
	for _, sc := range s.Shortcuts {
		hint := s.theme.ShortcutKey.Render(sc.Key)
		if !narrow {
			hint += " " + s.theme.ShortcutDesc.Render(sc.Desc)
		}
		hints = append(hints, hint)
	}
	right := strings.Join(hints, "  ")

	left := s.Status
	gap := width - 2 - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		left = ""
		gap = max(width-2-lipgloss.Width(right), 1)
	}
	return s.theme.StatusBar.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}
