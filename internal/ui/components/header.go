// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/exportdesk/internal/ui/styles"
	"github.com/jeranaias/exportdesk/internal/util"
)

// =============================================================================
// HEADER COMPONENT
// =============================================================================

// SourceState describes where the dataset comes from.
type SourceState int

const (
	SourceStatic SourceState = iota
	SourceWatching
	SourceRemote
)

// String returns the badge text for the state.
func (s SourceState) String() string {
	switch s {
	case SourceWatching:
		return "LIVE"
	case SourceRemote:
		return "API"
	default:
		return "FICHIER"
	}
}

// Header is the title bar summarizing the loaded dataset.
type Header struct {
	Title   string
	Source  string
	State   SourceState
	Rows    int
	Columns int
	Width   int
	theme   *styles.Theme
}

// NewHeader creates a header with the application title.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{
		Title: "exportdesk",
		Width: 80,
		theme: theme,
	}
}

// SetWidth updates the header width.
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// SetDataset updates the counts shown in the subtitle.
func (h *Header) SetDataset(source string, rows, columns int) {
	h.Source = source
	h.Rows = rows
	h.Columns = columns
}

// View renders the header.
func (h *Header) View() string {
	width := max(h.Width, 40)
	inner := width - 6

	title := h.theme.HeaderTitle.Render(h.Title)
	badge := h.badgeStyle().Render("[" + h.State.String() + "]")

	var parts []string
	if h.Source != "" {
		parts = append(parts, util.TruncateWidth(h.Source, inner/2))
	}
	parts = append(parts,
		h.theme.StatsValue.Render(Plural(h.Rows, "ligne", "lignes")),
		h.theme.StatsValue.Render(Plural(h.Columns, "colonne", "colonnes")),
	)
	subtitle := h.theme.HeaderSubtitle.Render(strings.Join(parts, "  ")) + " " + badge

	if h.theme.GetLayoutMode() == styles.LayoutNarrow {
		return h.theme.Header.Width(width - 2).Render(title + " " + badge)
	}

	content := lipgloss.JoinVertical(lipgloss.Left, title, subtitle)
	return h.theme.Header.Width(width - 2).Render(content)
}

func (h *Header) badgeStyle() lipgloss.Style {
	switch h.State {
	case SourceWatching:
		return lipgloss.NewStyle().Foreground(styles.Emerald).Bold(true)
	case SourceRemote:
		return lipgloss.NewStyle().Foreground(styles.Sky).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(styles.TextMuted)
	}
}
