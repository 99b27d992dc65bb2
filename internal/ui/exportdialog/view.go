// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package exportdialog

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/jeranaias/exportdesk/internal/export"
	"github.com/jeranaias/exportdesk/internal/ui/styles"
	"github.com/jeranaias/exportdesk/internal/util"
)

const (
	maxCellWidth   = 24
	maxColumnLines = 10
)

var now = time.Now

// View renders the dialog, or nothing when closed.
func (m *Model) View() string {
	if !m.open {
		return ""
	}
	t := m.theme
	width := m.dialogWidth()

	var b strings.Builder
	b.WriteString(t.DialogTitle.Render("Configuration de l'exportation"))
	b.WriteString("\n")
	b.WriteString(t.Hint.Render("Personnalisez les options d'exportation pour vos données"))
	b.WriteString("\n\n")
	b.WriteString(m.viewTabs())
	b.WriteString("\n\n")

	switch m.tab {
	case TabGeneral, TabAppearance:
		b.WriteString(m.viewFields())
	case TabColumns:
		b.WriteString(m.viewColumns())
	case TabPreview:
		b.WriteString(m.viewPreview(width - 6))
	}

	b.WriteString("\n\n")
	b.WriteString(m.viewFooter(width - 6))
	b.WriteString("\n")
	h := help.New()
	h.Width = width - 6
	b.WriteString(h.ShortHelpView(m.keys.ShortHelp()))

	return t.Dialog.Width(width).Render(b.String())
}

func (m *Model) dialogWidth() int {
	return max(min(m.width-4, 110), 50)
}

func (m *Model) viewTabs() string {
	tabs := make([]string, len(tabTitles))
	for i, title := range tabTitles {
		if Tab(i) == m.tab {
			tabs[i] = m.theme.TabActive.Render(title)
		} else {
			tabs[i] = m.theme.Tab.Render(title)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

// viewFields renders the field rows of the active tab, buttons excluded.
func (m *Model) viewFields() string {
	var lines []string
	for i, f := range m.fields() {
		if f.kind == kindButton {
			continue
		}
		lines = append(lines, m.viewField(f, i == m.focus))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) viewField(f field, focused bool) string {
	t := m.theme
	cursor := "  "
	label := t.Label
	if focused {
		cursor = t.ShortcutKey.Render("> ")
		label = t.LabelFocus
	}

	switch f.kind {
	case kindText:
		return cursor + label.Render(f.label) + m.inputs[f.id].View()
	case kindToggle:
		return cursor + checkbox(m.toggleValue(f.id)) + " " + m.valueStyle(focused).Render(f.label)
	case kindChoice:
		return cursor + label.Render(f.label) + m.valueStyle(focused).Render("< "+m.choiceLabel(f.id)+" >")
	case kindColor:
		hex := *m.colorTarget(f.id)
		return cursor + label.Render(f.label) + styles.Swatch(hex, 4) + " " +
			m.valueStyle(focused).Render("< palette >")
	case kindColumn:
		c := m.draft.Columns[f.col]
		text := c.Header
		if c.Header != c.DataKey {
			text += t.Hint.Render(" (" + c.DataKey + ")")
		}
		return cursor + checkbox(c.Included()) + " " + m.valueStyle(focused).Render(text)
	case kindToggleAll:
		caption := "Tout sélectionner"
		if m.allChecked() {
			caption = "Tout désélectionner"
		}
		style := t.Button
		if focused {
			style = t.ButtonFocused
		}
		return cursor + t.Label.Render("Colonnes à inclure") + style.Render(caption)
	}
	return ""
}

func (m *Model) valueStyle(focused bool) lipgloss.Style {
	if focused {
		return m.theme.ListItemSelected.PaddingLeft(0)
	}
	return m.theme.ListItem.PaddingLeft(0)
}

func (m *Model) toggleValue(id string) bool {
	switch id {
	case fieldTimestamp:
		return m.draft.IncludeTimestamp
	case fieldPageNumbers:
		return m.draft.IncludePageNumbers
	}
	return false
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

// viewColumns renders the column list, scrolled around the focused checkbox
// when there are many columns.
func (m *Model) viewColumns() string {
	fields := m.fields()
	var head, cols, tail []string
	focusedCol := -1
	for i, f := range fields {
		switch f.kind {
		case kindButton:
			continue
		case kindColumn:
			if i == m.focus {
				focusedCol = len(cols)
			}
			cols = append(cols, m.viewField(f, i == m.focus))
		case kindToggleAll:
			head = append(head, m.viewField(f, i == m.focus))
		default:
			tail = append(tail, m.viewField(f, i == m.focus))
		}
	}

	if len(cols) > maxColumnLines {
		start := 0
		if focusedCol >= maxColumnLines {
			start = focusedCol - maxColumnLines + 1
		}
		end := start + maxColumnLines
		more := m.theme.Hint.Render(fmt.Sprintf("  ... %d/%d", end, len(cols)))
		cols = append(cols[start:end:end], more)
	}

	lines := append(head, cols...)
	lines = append(lines, "")
	lines = append(lines, tail...)
	return strings.Join(lines, "\n")
}

// viewPreview renders the report furniture around the first rows.
func (m *Model) viewPreview(width int) string {
	t := m.theme
	d := m.draft
	var parts []string

	if d.Title != "" {
		parts = append(parts, t.PreviewTitle.Render(d.Title))
	}
	if d.Subtitle != "" {
		parts = append(parts, t.PreviewMeta.Render(d.Subtitle))
	}
	if d.Description != "" {
		parts = append(parts, t.PreviewMeta.Render(d.Description))
	}
	if d.IncludeTimestamp {
		parts = append(parts, t.Hint.Render("Généré le: "+now().Format(export.TimestampLayout)))
	}
	if len(parts) > 0 {
		parts = append(parts, "")
	}

	parts = append(parts, m.previewTable(width))

	if d.Footer != "" {
		parts = append(parts, lipgloss.PlaceHorizontal(width, lipgloss.Center, t.Hint.Render(d.Footer)))
	}
	parts = append(parts, "", t.PreviewNote.Render(fmt.Sprintf(
		"Aperçu limité aux %d premières lignes. L'export complet contiendra toutes les données.",
		m.previewRows)))
	return strings.Join(parts, "\n")
}

// PreviewRecords returns the headers and cells the preview shows: the first
// rows in source order, visible columns only.
func (m *Model) PreviewRecords() ([]string, [][]string) {
	cols := m.draft.VisibleColumns()
	headers := make([]string, len(cols))
	for i, c := range cols {
		headers[i] = c.Header
	}

	n := min(len(m.rows), m.previewRows)
	records := make([][]string, n)
	for r := 0; r < n; r++ {
		rec := make([]string, len(cols))
		for i, c := range cols {
			rec[i] = util.SingleLine(c.Display(m.rows[r].Get(c.DataKey)))
		}
		records[r] = rec
	}
	return headers, records
}

func (m *Model) previewTable(width int) string {
	headers, records := m.PreviewRecords()
	if len(headers) == 0 {
		return m.theme.Hint.Render("Aucune colonne sélectionnée.")
	}

	for i, h := range headers {
		headers[i] = util.TruncateWidth(h, maxCellWidth)
	}
	for _, rec := range records {
		for i, cell := range rec {
			rec[i] = util.TruncateWidth(cell, maxCellWidth)
		}
	}

	theme := m.draft.Theme.WithDefaults()
	def := export.DefaultTheme()
	headerBg := export.ParseHexColor(theme.HeaderBackground, export.ParseHexColor(def.HeaderBackground, export.RGB{}))
	headerFg := export.ParseHexColor(theme.HeaderText, export.ParseHexColor(def.HeaderText, export.RGB{}))
	headerStyle := m.theme.PreviewHeader.
		Background(lipgloss.Color(headerBg.Hex())).
		Foreground(lipgloss.Color(headerFg.Hex()))

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(m.theme.PreviewBorder).
		Headers(headers...).
		Rows(records...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row%2 == 1:
				return m.theme.PreviewAltCell
			default:
				return m.theme.PreviewCell
			}
		})

	out := tbl.Render()
	if lipgloss.Width(out) > width {
		out = tbl.Width(width).Render()
	}
	return out
}

// FooterText is the selection summary under every tab.
func (m *Model) FooterText() string {
	return fmt.Sprintf("%d lignes, %d colonnes sélectionnées", len(m.rows), len(m.draft.VisibleColumns()))
}

func (m *Model) viewFooter(width int) string {
	t := m.theme
	focused, _ := m.focused()

	buttons := make([]string, 0, len(actionButtons)+1)
	for _, b := range actionButtons {
		style := t.Button
		switch {
		case m.exporting && b.id != buttonCancel:
			style = t.ButtonDisabled
		case b.id == focused.id:
			style = t.ButtonFocused
		}
		buttons = append(buttons, style.Render(b.label))
	}
	if m.exporting {
		buttons = append(buttons, m.spinner.View())
	}
	right := lipgloss.JoinHorizontal(lipgloss.Center, buttons...)
	left := t.StatsLabel.Render(m.FooterText())

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return t.Footer.Width(width).Render(left + "\n" + right)
	}
	return t.Footer.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}
