// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"maps"
	"slices"
	"time"
)

// =============================================================================
// OPTION TYPES
// =============================================================================

// Orientation is the PDF page orientation.
type Orientation string

const (
	Portrait  Orientation = "portrait"
	Landscape Orientation = "landscape"
)

// SortDirection orders rows ascending or descending.
type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// PageSizes lists the page sizes the PDF writer accepts.
var PageSizes = []string{"a4", "a3", "a5", "letter", "legal"}

// FormatFunc turns a non-null cell value into its exported text.
type FormatFunc func(Value) (string, error)

// Column describes one exported column.
type Column struct {
	Header  string  `json:"header" toml:"header"`
	DataKey string  `json:"dataKey" toml:"data_key"`
	Width   float64 `json:"width,omitempty" toml:"width,omitempty"` // millimetres in PDF, characters in XLSX

	// Format is a named formatter spec such as "number:2" or "date:02/01/2006".
	Format string `json:"format,omitempty" toml:"format,omitempty"`

	// Formatter overrides Format when set.
	Formatter FormatFunc `json:"-" toml:"-"`

	// IncludeInExport is the visibility toggle. Nil means included.
	IncludeInExport *bool `json:"includeInExport,omitempty" toml:"include_in_export,omitempty"`
}

// Included reports whether the column is exported.
func (c Column) Included() bool {
	return c.IncludeInExport == nil || *c.IncludeInExport
}

// SetIncluded sets the visibility toggle.
func (c *Column) SetIncluded(include bool) {
	c.IncludeInExport = &include
}

// Theme holds the report colors as hex strings.
type Theme struct {
	Primary                string `json:"primary,omitempty" toml:"primary"`
	Secondary              string `json:"secondary,omitempty" toml:"secondary"`
	Text                   string `json:"text,omitempty" toml:"text"`
	Background             string `json:"background,omitempty" toml:"background"`
	HeaderBackground       string `json:"headerBackground,omitempty" toml:"header_background"`
	HeaderText             string `json:"headerText,omitempty" toml:"header_text"`
	AlternateRowBackground string `json:"alternateRowBackground,omitempty" toml:"alternate_row_background"`
}

// DefaultTheme returns the stock indigo report theme.
func DefaultTheme() Theme {
	return Theme{
		Primary:                "#4f46e5",
		Secondary:              "#0ea5e9",
		Text:                   "#000000",
		Background:             "#ffffff",
		HeaderBackground:       "#4f46e5",
		HeaderText:             "#ffffff",
		AlternateRowBackground: "#f5f7fa",
	}
}

// WithDefaults fills empty fields from DefaultTheme.
func (t Theme) WithDefaults() Theme {
	d := DefaultTheme()
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&t.Primary, d.Primary)
	fill(&t.Secondary, d.Secondary)
	fill(&t.Text, d.Text)
	fill(&t.Background, d.Background)
	fill(&t.HeaderBackground, d.HeaderBackground)
	fill(&t.HeaderText, d.HeaderText)
	fill(&t.AlternateRowBackground, d.AlternateRowBackground)
	return t
}

// SortBy is a single-key sort directive.
type SortBy struct {
	Field     string        `json:"field" toml:"field"`
	Direction SortDirection `json:"direction" toml:"direction"`
}

// DateRange is the reporting period shown in the preamble.
type DateRange struct {
	Start time.Time `json:"startDate" toml:"start"`
	End   time.Time `json:"endDate" toml:"end"`
}

// =============================================================================
// OPTIONS
// =============================================================================

// Options describes what to export and how to present it.
//
// Filters and DateRange are descriptive: they are printed in the report
// preamble and never restrict which rows are exported.
type Options struct {
	FileName    string   `json:"fileName" toml:"file_name"`
	Title       string   `json:"title,omitempty" toml:"title"`
	Subtitle    string   `json:"subtitle,omitempty" toml:"subtitle"`
	Description string   `json:"description,omitempty" toml:"description"`
	Columns     []Column `json:"columns,omitempty" toml:"columns"`

	IncludeTimestamp bool        `json:"includeTimestamp" toml:"include_timestamp"`
	Orientation      Orientation `json:"orientation,omitempty" toml:"orientation"`
	PageSize         string      `json:"pageSize,omitempty" toml:"page_size"`

	Logo      string `json:"logo,omitempty" toml:"logo"`
	Watermark string `json:"watermark,omitempty" toml:"watermark"`
	Theme     Theme  `json:"theme" toml:"theme"`

	Footer             string `json:"footer,omitempty" toml:"footer"`
	IncludePageNumbers bool   `json:"includePageNumbers" toml:"include_page_numbers"`

	Author   string   `json:"author,omitempty" toml:"author"`
	Keywords []string `json:"keywords,omitempty" toml:"keywords"`
	Password string   `json:"password,omitempty" toml:"password"`

	Filters   map[string]string `json:"filters,omitempty" toml:"filters"`
	GroupBy   string            `json:"groupBy,omitempty" toml:"group_by"`
	SortBy    *SortBy           `json:"sortBy,omitempty" toml:"sort_by"`
	DateRange *DateRange        `json:"dateRange,omitempty" toml:"date_range"`
}

// DefaultOptions returns the defaults a fresh dialog session starts from.
func DefaultOptions() Options {
	return Options{
		FileName:           "export",
		IncludeTimestamp:   true,
		Orientation:        Portrait,
		PageSize:           "a4",
		Theme:              DefaultTheme(),
		IncludePageNumbers: true,
	}
}

// WithFallbacks fills the empty file name, page size, orientation and theme
// fields of o from DefaultOptions. Booleans are kept as given, so o should
// already be built on DefaultOptions when a switch is meant to stay on.
func (o Options) WithFallbacks() Options {
	out := o.Clone()
	def := DefaultOptions()
	if out.FileName == "" {
		out.FileName = def.FileName
	}
	if out.PageSize == "" {
		out.PageSize = def.PageSize
	}
	if out.Orientation == "" {
		out.Orientation = def.Orientation
	}
	out.Theme = out.Theme.WithDefaults()
	return out
}

// Clone returns a deep copy of o so the copy can be handed off safely.
func (o Options) Clone() Options {
	out := o
	if o.Columns != nil {
		out.Columns = make([]Column, len(o.Columns))
		for i, c := range o.Columns {
			if c.IncludeInExport != nil {
				c.SetIncluded(*c.IncludeInExport)
			}
			out.Columns[i] = c
		}
	}
	out.Keywords = slices.Clone(o.Keywords)
	out.Filters = maps.Clone(o.Filters)
	if o.SortBy != nil {
		s := *o.SortBy
		out.SortBy = &s
	}
	if o.DateRange != nil {
		d := *o.DateRange
		out.DateRange = &d
	}
	return out
}

// Merge overlays the non-zero fields of partial onto o and returns the result.
// Booleans in partial only take effect when set to true; callers that need to
// switch a default off should edit the returned Options directly.
func (o Options) Merge(partial Options) Options {
	out := o.Clone()
	p := partial.Clone()

	setStr := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setStr(&out.FileName, p.FileName)
	setStr(&out.Title, p.Title)
	setStr(&out.Subtitle, p.Subtitle)
	setStr(&out.Description, p.Description)
	setStr(&out.PageSize, p.PageSize)
	setStr(&out.Logo, p.Logo)
	setStr(&out.Watermark, p.Watermark)
	setStr(&out.Footer, p.Footer)
	setStr(&out.Author, p.Author)
	setStr(&out.Password, p.Password)
	setStr(&out.GroupBy, p.GroupBy)
	if p.Orientation != "" {
		out.Orientation = p.Orientation
	}
	if p.IncludeTimestamp {
		out.IncludeTimestamp = true
	}
	if p.IncludePageNumbers {
		out.IncludePageNumbers = true
	}
	if len(p.Columns) > 0 {
		out.Columns = p.Columns
	}
	if len(p.Keywords) > 0 {
		out.Keywords = p.Keywords
	}
	if len(p.Filters) > 0 {
		out.Filters = p.Filters
	}
	if p.SortBy != nil {
		out.SortBy = p.SortBy
	}
	if p.DateRange != nil {
		out.DateRange = p.DateRange
	}

	t := &out.Theme
	setStr(&t.Primary, p.Theme.Primary)
	setStr(&t.Secondary, p.Theme.Secondary)
	setStr(&t.Text, p.Theme.Text)
	setStr(&t.Background, p.Theme.Background)
	setStr(&t.HeaderBackground, p.Theme.HeaderBackground)
	setStr(&t.HeaderText, p.Theme.HeaderText)
	setStr(&t.AlternateRowBackground, p.Theme.AlternateRowBackground)
	return out
}

// VisibleColumns returns the columns whose visibility toggle is on.
func (o Options) VisibleColumns() []Column {
	out := make([]Column, 0, len(o.Columns))
	for _, c := range o.Columns {
		if c.Included() {
			out = append(out, c)
		}
	}
	return out
}

// FilterKeys returns the filter names in sorted order.
func (o Options) FilterKeys() []string {
	return slices.Sorted(maps.Keys(o.Filters))
}
