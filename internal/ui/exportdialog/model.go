// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package exportdialog

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/exportdesk/internal/export"
	"github.com/jeranaias/exportdesk/internal/ui/components"
	"github.com/jeranaias/exportdesk/internal/ui/styles"
)

// DefaultPreviewRows is the number of rows the Aperçu tab shows.
const DefaultPreviewRows = 5

// =============================================================================
// MESSAGES
// =============================================================================

// ExportRequestMsg asks the owner to export the rows with Options. Options is
// a copy; later edits in the dialog do not reach it.
type ExportRequestMsg struct {
	Format  export.Format
	Options export.Options
}

// ClosedMsg reports that the user dismissed the dialog.
type ClosedMsg struct{}

// =============================================================================
// MODEL
// =============================================================================

// Model is the export configuration dialog. It owns an Options draft for the
// lifetime of one Open/Close session.
type Model struct {
	theme *styles.Theme
	keys  KeyMap

	open      bool
	exporting bool

	rows        []export.Row
	draft       export.Options
	previewRows int

	tab    Tab
	focus  int
	inputs map[string]textinput.Model

	spinner components.Spinner

	width  int
	height int
}

// New creates a closed dialog.
func New(theme *styles.Theme) *Model {
	return &Model{
		theme:       theme,
		keys:        DefaultKeyMap(),
		previewRows: DefaultPreviewRows,
		spinner:     components.NewSpinner("Export en cours"),
		width:       80,
		height:      24,
	}
}

// SetPreviewRows sets how many rows the preview shows. Values below one keep
// the default.
func (m *Model) SetPreviewRows(n int) {
	if n < 1 {
		n = DefaultPreviewRows
	}
	m.previewRows = n
}

// SetSize updates the space the dialog may use.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	for id, in := range m.inputs {
		in.Width = m.inputWidth()
		m.inputs[id] = in
	}
}

// Open starts a session over rows. Every column starts included; with no
// columns, one per key of the first row is used. defaults seeds the draft
// as-is, typically export.DefaultOptions with caller changes; only its empty
// text fields fall back to DefaultOptions, and its Columns are ignored.
func (m *Model) Open(rows []export.Row, columns []export.Column, defaults export.Options) tea.Cmd {
	m.rows = rows
	m.draft = defaults.WithFallbacks()

	if len(columns) == 0 {
		columns = export.InferColumns(rows)
	}
	m.draft.Columns = make([]export.Column, len(columns))
	for i, c := range columns {
		c.SetIncluded(true)
		m.draft.Columns[i] = c
	}

	m.inputs = make(map[string]textinput.Model)
	for _, id := range textFieldIDs() {
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 256
		in.Width = m.inputWidth()
		in.PlaceholderStyle = lipgloss.NewStyle().Foreground(styles.TextMuted).Italic(true)
		in.SetValue(*m.textTarget(id))
		m.inputs[id] = in
	}
	if in, ok := m.inputs[fieldLogo]; ok {
		in.Placeholder = "URL du logo"
		m.inputs[fieldLogo] = in
	}

	m.open = true
	m.exporting = false
	m.tab = TabGeneral
	m.focus = 0
	return m.refocus()
}

// Close ends the session and drops the draft.
func (m *Model) Close() {
	m.open = false
	m.exporting = false
	m.spinner.Stop()
	m.rows = nil
	m.draft = export.Options{}
	m.inputs = nil
}

// IsOpen reports whether a session is active.
func (m *Model) IsOpen() bool {
	return m.open
}

// SetExporting disables or re-enables the format buttons. Annuler stays
// available either way.
func (m *Model) SetExporting(exporting bool) tea.Cmd {
	m.exporting = exporting
	if exporting {
		return m.spinner.Start()
	}
	m.spinner.Stop()
	return nil
}

// Exporting reports whether the format buttons are disabled.
func (m *Model) Exporting() bool {
	return m.exporting
}

// Draft returns a copy of the options being edited.
func (m *Model) Draft() export.Options {
	return m.draft.Clone()
}

// ActiveTab returns the visible tab.
func (m *Model) ActiveTab() Tab {
	return m.tab
}

// SetTab switches tabs and focuses the first field.
func (m *Model) SetTab(t Tab) tea.Cmd {
	if t < TabGeneral || t > TabPreview {
		return nil
	}
	m.tab = t
	m.focus = 0
	return m.refocus()
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles a message while the dialog is open.
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	if !m.open {
		return nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return nil
	}

	var cmds []tea.Cmd
	if m.exporting {
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}
	if f, ok := m.focused(); ok && f.kind == kindText {
		in := m.inputs[f.id]
		var cmd tea.Cmd
		in, cmd = in.Update(msg)
		m.inputs[f.id] = in
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		return m.cancel()
	case key.Matches(msg, m.keys.NextTab):
		return m.SetTab((m.tab + 1) % 4)
	case key.Matches(msg, m.keys.PrevTab):
		return m.SetTab((m.tab + 3) % 4)
	case key.Matches(msg, m.keys.NextField):
		return m.moveFocus(1)
	case key.Matches(msg, m.keys.PrevField):
		return m.moveFocus(-1)
	}

	f, ok := m.focused()
	if !ok {
		return nil
	}

	if f.kind == kindText {
		if key.Matches(msg, m.keys.Activate) {
			return m.moveFocus(1)
		}
		in := m.inputs[f.id]
		var cmd tea.Cmd
		in, cmd = in.Update(msg)
		m.inputs[f.id] = in
		if target := m.textTarget(f.id); target != nil {
			*target = strings.TrimSpace(in.Value())
		}
		return cmd
	}

	switch {
	case key.Matches(msg, m.keys.Left):
		m.cycle(f, -1)
	case key.Matches(msg, m.keys.Right):
		m.cycle(f, 1)
	case key.Matches(msg, m.keys.Toggle), key.Matches(msg, m.keys.Activate):
		return m.activate(f)
	}
	return nil
}

// activate handles space or enter on a non-text field.
func (m *Model) activate(f field) tea.Cmd {
	switch f.kind {
	case kindToggle:
		switch f.id {
		case fieldTimestamp:
			m.draft.IncludeTimestamp = !m.draft.IncludeTimestamp
		case fieldPageNumbers:
			m.draft.IncludePageNumbers = !m.draft.IncludePageNumbers
		}
	case kindColumn:
		c := &m.draft.Columns[f.col]
		c.SetIncluded(!c.Included())
	case kindToggleAll:
		m.ToggleAll()
	case kindChoice, kindColor:
		m.cycle(f, 1)
	case kindButton:
		if f.id == buttonCancel {
			return m.cancel()
		}
		return m.RequestExport(buttonFormats[f.id])
	}
	return nil
}

// ToggleAll sets every column to the opposite of "all included": all on when
// any is off, all off when every one is on.
func (m *Model) ToggleAll() {
	include := !m.allChecked()
	for i := range m.draft.Columns {
		m.draft.Columns[i].SetIncluded(include)
	}
}

// RequestExport emits an ExportRequestMsg with a copy of the draft. It does
// nothing while an export is in flight.
func (m *Model) RequestExport(format export.Format) tea.Cmd {
	if m.exporting || format == "" {
		return nil
	}
	req := ExportRequestMsg{Format: format, Options: m.draft.Clone()}
	return func() tea.Msg { return req }
}

func (m *Model) cancel() tea.Cmd {
	m.Close()
	return func() tea.Msg { return ClosedMsg{} }
}

// cycle moves a choice or palette field by delta.
func (m *Model) cycle(f field, delta int) {
	if f.kind == kindColor {
		m.setColor(f.id, cycleValue(Palette, *m.colorTarget(f.id), delta))
		return
	}
	if f.kind != kindChoice {
		return
	}

	switch f.id {
	case fieldPageSize:
		m.draft.PageSize = cycleValue(pageSizeChoices, m.draft.PageSize, delta)
	case fieldOrientation:
		m.draft.Orientation = export.Orientation(cycleValue(orientationChoices, string(m.draft.Orientation), delta))
	case fieldGroupBy:
		m.draft.GroupBy = cycleValue(m.columnChoices(), m.draft.GroupBy, delta)
	case fieldSortField:
		cur := ""
		if m.draft.SortBy != nil {
			cur = m.draft.SortBy.Field
		}
		m.SetSortField(cycleValue(m.columnChoices(), cur, delta))
	case fieldSortDir:
		if m.draft.SortBy == nil {
			return
		}
		if m.draft.SortBy.Direction == export.Descending {
			m.draft.SortBy.Direction = export.Ascending
		} else {
			m.draft.SortBy.Direction = export.Descending
		}
	}
}

// setColor updates a theme color and its paired hex input together.
func (m *Model) setColor(id, hex string) {
	*m.colorTarget(id) = hex
	in := m.inputs[id+hexSuffix]
	in.SetValue(hex)
	m.inputs[id+hexSuffix] = in
}

// SetSortField selects the sort column. An empty field clears sorting; a new
// field keeps the current direction, ascending by default.
func (m *Model) SetSortField(field string) {
	if field == "" {
		m.draft.SortBy = nil
		m.clampFocus()
		return
	}
	dir := export.Ascending
	if m.draft.SortBy != nil && m.draft.SortBy.Direction != "" {
		dir = m.draft.SortBy.Direction
	}
	m.draft.SortBy = &export.SortBy{Field: field, Direction: dir}
}

// =============================================================================
// FOCUS
// =============================================================================

func (m *Model) focused() (field, bool) {
	fields := m.fields()
	if m.focus < 0 || m.focus >= len(fields) {
		return field{}, false
	}
	return fields[m.focus], true
}

func (m *Model) moveFocus(delta int) tea.Cmd {
	n := len(m.fields())
	m.focus = ((m.focus+delta)%n + n) % n
	return m.refocus()
}

func (m *Model) clampFocus() {
	if n := len(m.fields()); m.focus >= n {
		m.focus = n - 1
	}
}

// refocus gives keyboard focus to the focused text input, if any.
func (m *Model) refocus() tea.Cmd {
	f, _ := m.focused()
	var cmd tea.Cmd
	for id, in := range m.inputs {
		if id == f.id && f.kind == kindText {
			cmd = in.Focus()
		} else {
			in.Blur()
		}
		m.inputs[id] = in
	}
	return cmd
}

// focusField moves focus to the field with id on the active tab.
func (m *Model) focusField(id string) bool {
	for i, f := range m.fields() {
		if f.id == id {
			m.focus = i
			m.refocus()
			return true
		}
	}
	return false
}

func (m *Model) inputWidth() int {
	return max(min(m.width-34, 48), 12)
}
