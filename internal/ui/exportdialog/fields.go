// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package exportdialog

import (
	"slices"
	"strconv"
	"strings"

	"github.com/jeranaias/exportdesk/internal/export"
)

// =============================================================================
// TABS
// =============================================================================

// Tab identifies a dialog tab.
type Tab int

const (
	TabGeneral Tab = iota
	TabColumns
	TabAppearance
	TabPreview
)

var tabTitles = []string{"Général", "Colonnes", "Apparence", "Aperçu"}

// String returns the tab caption.
func (t Tab) String() string {
	if t < 0 || int(t) >= len(tabTitles) {
		return "?"
	}
	return tabTitles[t]
}

// =============================================================================
// FIELDS
// =============================================================================

type fieldKind int

const (
	kindText fieldKind = iota
	kindToggle
	kindChoice
	kindColor
	kindColumn
	kindToggleAll
	kindButton
)

// Field identifiers. Column checkboxes use columnFieldPrefix plus the index.
const (
	fieldFileName    = "fileName"
	fieldAuthor      = "author"
	fieldTitle       = "title"
	fieldSubtitle    = "subtitle"
	fieldDescription = "description"
	fieldPageSize    = "pageSize"
	fieldOrientation = "orientation"
	fieldFooter      = "footer"
	fieldTimestamp   = "includeTimestamp"
	fieldPageNumbers = "includePageNumbers"

	fieldToggleAll = "toggleAll"
	fieldGroupBy   = "groupBy"
	fieldSortField = "sortField"
	fieldSortDir   = "sortDirection"

	fieldPrimary          = "primary"
	fieldSecondary        = "secondary"
	fieldHeaderBackground = "headerBackground"
	fieldHeaderText       = "headerText"
	fieldWatermark        = "watermark"
	fieldLogo             = "logo"

	buttonCancel = "cancel"
	buttonCSV    = "csv"
	buttonExcel  = "excel"
	buttonPDF    = "pdf"

	columnFieldPrefix = "col:"
	hexSuffix         = ".hex"
)

type field struct {
	id    string
	kind  fieldKind
	label string
	col   int
}

// Labels for the choice fields.
const (
	noGrouping = "Aucun regroupement"
	noSort     = "Aucun tri"
)

var pageSizeChoices = []string{"a4", "a3", "letter", "legal"}

var orientationChoices = []string{string(export.Portrait), string(export.Landscape)}

var orientationLabels = map[string]string{
	string(export.Portrait):  "Portrait",
	string(export.Landscape): "Paysage",
}

var directionLabels = map[export.SortDirection]string{
	export.Ascending:  "Ascendant",
	export.Descending: "Descendant",
}

// Palette offers preset report colors next to each hex input.
var Palette = []string{
	"#4f46e5", "#0ea5e9", "#10b981", "#f59e0b",
	"#ef4444", "#8b5cf6", "#111827", "#ffffff",
}

var colorFields = []struct {
	id    string
	label string
}{
	{fieldPrimary, "Couleur primaire"},
	{fieldSecondary, "Couleur secondaire"},
	{fieldHeaderBackground, "Arrière-plan des en-têtes"},
	{fieldHeaderText, "Texte des en-têtes"},
}

var actionButtons = []field{
	{id: buttonCancel, kind: kindButton, label: "Annuler"},
	{id: buttonCSV, kind: kindButton, label: export.FormatCSV.Label()},
	{id: buttonExcel, kind: kindButton, label: export.FormatExcel.Label()},
	{id: buttonPDF, kind: kindButton, label: export.FormatPDF.Label()},
}

var buttonFormats = map[string]export.Format{
	buttonCSV:   export.FormatCSV,
	buttonExcel: export.FormatExcel,
	buttonPDF:   export.FormatPDF,
}

// fields returns the focus ring of the active tab followed by the action
// buttons. The ring changes with the draft: the sort direction only appears
// once a sort field is chosen.
func (m *Model) fields() []field {
	var out []field
	switch m.tab {
	case TabGeneral:
		out = []field{
			{id: fieldFileName, kind: kindText, label: "Nom du fichier"},
			{id: fieldAuthor, kind: kindText, label: "Auteur"},
			{id: fieldTitle, kind: kindText, label: "Titre"},
			{id: fieldSubtitle, kind: kindText, label: "Sous-titre"},
			{id: fieldDescription, kind: kindText, label: "Description"},
			{id: fieldPageSize, kind: kindChoice, label: "Format de page"},
			{id: fieldOrientation, kind: kindChoice, label: "Orientation"},
			{id: fieldFooter, kind: kindText, label: "Pied de page"},
			{id: fieldTimestamp, kind: kindToggle, label: "Inclure la date et l'heure de génération"},
			{id: fieldPageNumbers, kind: kindToggle, label: "Inclure les numéros de page (PDF uniquement)"},
		}
	case TabColumns:
		out = append(out, field{id: fieldToggleAll, kind: kindToggleAll})
		for i, c := range m.draft.Columns {
			out = append(out, field{id: columnFieldPrefix + strconv.Itoa(i), kind: kindColumn, label: c.Header, col: i})
		}
		out = append(out,
			field{id: fieldGroupBy, kind: kindChoice, label: "Regrouper par"},
			field{id: fieldSortField, kind: kindChoice, label: "Tri"},
		)
		if m.draft.SortBy != nil {
			out = append(out, field{id: fieldSortDir, kind: kindChoice, label: "Direction"})
		}
	case TabAppearance:
		for _, c := range colorFields {
			out = append(out,
				field{id: c.id, kind: kindColor, label: c.label},
				field{id: c.id + hexSuffix, kind: kindText, label: "  hex"},
			)
		}
		out = append(out,
			field{id: fieldWatermark, kind: kindText, label: "Filigrane (PDF uniquement)"},
			field{id: fieldLogo, kind: kindText, label: "Logo URL (PDF uniquement)"},
		)
	}
	return append(out, actionButtons...)
}

// textFieldIDs lists every text input the dialog owns.
func textFieldIDs() []string {
	ids := []string{
		fieldFileName, fieldAuthor, fieldTitle, fieldSubtitle,
		fieldDescription, fieldFooter, fieldWatermark, fieldLogo,
	}
	for _, c := range colorFields {
		ids = append(ids, c.id+hexSuffix)
	}
	return ids
}

// textTarget returns the draft field a text input edits.
func (m *Model) textTarget(id string) *string {
	switch id {
	case fieldFileName:
		return &m.draft.FileName
	case fieldAuthor:
		return &m.draft.Author
	case fieldTitle:
		return &m.draft.Title
	case fieldSubtitle:
		return &m.draft.Subtitle
	case fieldDescription:
		return &m.draft.Description
	case fieldFooter:
		return &m.draft.Footer
	case fieldWatermark:
		return &m.draft.Watermark
	case fieldLogo:
		return &m.draft.Logo
	}
	return m.colorTarget(strings.TrimSuffix(id, hexSuffix))
}

// colorTarget returns the theme field behind a color row.
func (m *Model) colorTarget(id string) *string {
	switch id {
	case fieldPrimary:
		return &m.draft.Theme.Primary
	case fieldSecondary:
		return &m.draft.Theme.Secondary
	case fieldHeaderBackground:
		return &m.draft.Theme.HeaderBackground
	case fieldHeaderText:
		return &m.draft.Theme.HeaderText
	}
	return nil
}

// columnChoices returns "" (none) followed by every column data key.
func (m *Model) columnChoices() []string {
	out := make([]string, 0, len(m.draft.Columns)+1)
	out = append(out, "")
	for _, c := range m.draft.Columns {
		out = append(out, c.DataKey)
	}
	return out
}

func (m *Model) headerFor(dataKey string) string {
	for _, c := range m.draft.Columns {
		if c.DataKey == dataKey {
			return c.Header
		}
	}
	return dataKey
}

// choiceLabel renders the current value of a choice field.
func (m *Model) choiceLabel(id string) string {
	switch id {
	case fieldPageSize:
		return strings.ToUpper(m.draft.PageSize)
	case fieldOrientation:
		if l, ok := orientationLabels[string(m.draft.Orientation)]; ok {
			return l
		}
		return string(m.draft.Orientation)
	case fieldGroupBy:
		if m.draft.GroupBy == "" {
			return noGrouping
		}
		return m.headerFor(m.draft.GroupBy)
	case fieldSortField:
		if m.draft.SortBy == nil {
			return noSort
		}
		return m.headerFor(m.draft.SortBy.Field)
	case fieldSortDir:
		if m.draft.SortBy == nil {
			return ""
		}
		return directionLabels[m.draft.SortBy.Direction]
	}
	return ""
}

// cycleValue steps through values from cur. An unknown cur starts at the
// first value going forward and the last going back.
func cycleValue(values []string, cur string, delta int) string {
	if len(values) == 0 {
		return cur
	}
	i := slices.IndexFunc(values, func(v string) bool { return strings.EqualFold(v, cur) })
	if i < 0 {
		if delta >= 0 {
			return values[0]
		}
		return values[len(values)-1]
	}
	n := len(values)
	return values[((i+delta)%n+n)%n]
}

// allChecked reports whether every column is included.
func (m *Model) allChecked() bool {
	for _, c := range m.draft.Columns {
		if !c.Included() {
			return false
		}
	}
	return true
}
