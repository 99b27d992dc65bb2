// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"slices"
	"time"
)

// GroupUnspecified labels the group of rows whose group key is null or absent.
const GroupUnspecified = "Non spécifié"

var (
	// TimestampLayout formats the "Généré le" line.
	TimestampLayout = "02/01/2006 15:04:05"

	// DateLayout formats the reporting period.
	DateLayout = "02/01/2006"

	now = time.Now
)

// group is a labelled run of rows. Ungrouped exports have a single group with
// an empty label.
type group struct {
	Label string
	Rows  []Row
}

// table is the shared, format-independent view of an export.
type table struct {
	columns []Column
	formats []FormatFunc
	groups  []group
	grouped bool
}

// prepare applies column selection, sorting and grouping to rows.
func prepare(rows []Row, opts Options) (*table, error) {
	cols := exportColumns(rows, opts)
	formats := make([]FormatFunc, len(cols))
	for i, c := range cols {
		f, err := c.formatFunc()
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", c.DataKey, err)
		}
		formats[i] = f
	}

	sorted := sortRows(rows, opts.SortBy)
	t := &table{columns: cols, formats: formats}
	if opts.GroupBy != "" {
		t.grouped = true
		t.groups = groupRows(sorted, opts.GroupBy)
	} else {
		t.groups = []group{{Rows: sorted}}
	}
	return t, nil
}

// exportColumns returns the visible columns. With no columns configured at
// all, one column per key of the first row is synthesized.
func exportColumns(rows []Row, opts Options) []Column {
	if len(opts.Columns) == 0 {
		return InferColumns(rows)
	}
	return opts.VisibleColumns()
}

func (c Column) formatFunc() (FormatFunc, error) {
	if c.Formatter != nil {
		return c.Formatter, nil
	}
	if c.Format == "" {
		return nil, nil
	}
	return ParseFormatter(c.Format)
}

// Display renders a non-null v the way exports show it in column c. A value
// the formatter rejects falls back to its raw text, which suits previews.
func (c Column) Display(v Value) string {
	if v.IsNull() {
		return ""
	}
	f, err := c.formatFunc()
	if err != nil || f == nil {
		return v.String()
	}
	s, err := f(v)
	if err != nil {
		return v.String()
	}
	return s
}

// sortRows returns a stably sorted copy of rows. A nil directive returns an
// unsorted copy.
func sortRows(rows []Row, by *SortBy) []Row {
	out := slices.Clone(rows)
	if by == nil || by.Field == "" {
		return out
	}
	field := by.Field
	desc := by.Direction == Descending
	slices.SortStableFunc(out, func(a, b Row) int {
		c := Compare(a.Get(field), b.Get(field))
		if desc {
			return -c
		}
		return c
	})
	return out
}

// groupRows partitions rows by the display form of row[key], keeping the order
// in which each group first appears.
func groupRows(rows []Row, key string) []group {
	var groups []group
	index := make(map[string]int)
	for _, r := range rows {
		v := r.Get(key)
		label := GroupUnspecified
		if !v.IsNull() {
			label = v.String()
		}
		i, ok := index[label]
		if !ok {
			i = len(groups)
			index[label] = i
			groups = append(groups, group{Label: label})
		}
		groups[i].Rows = append(groups[i].Rows, r)
	}
	return groups
}

func (t *table) headers() []string {
	out := make([]string, len(t.columns))
	for i, c := range t.columns {
		out[i] = c.Header
	}
	return out
}

// cell renders column i of row. Formatters only see non-null values.
func (t *table) cell(row Row, i int) (string, error) {
	v := row.Get(t.columns[i].DataKey)
	if v.IsNull() {
		return "", nil
	}
	if f := t.formats[i]; f != nil {
		s, err := f(v)
		if err != nil {
			return "", fmt.Errorf("format column %q: %w", t.columns[i].DataKey, err)
		}
		return s, nil
	}
	return v.String(), nil
}

func (t *table) record(row Row) ([]string, error) {
	out := make([]string, len(t.columns))
	for i := range t.columns {
		s, err := t.cell(row, i)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func (t *table) rowCount() int {
	n := 0
	for _, g := range t.groups {
		n += len(g.Rows)
	}
	return n
}

// =============================================================================
// PREAMBLE
// =============================================================================

func timestampLine() string {
	return "Généré le: " + now().Format(TimestampLayout)
}

func periodLine(r *DateRange) string {
	return fmt.Sprintf("Période: %s - %s", r.Start.Format(DateLayout), r.End.Format(DateLayout))
}

func filterLine(key, value string) string {
	return key + ": " + value
}

func groupLine(label string) string {
	return "Groupe: " + label
}

// hasPreamble reports whether any metadata line precedes the table.
func hasPreamble(opts Options) bool {
	return opts.Title != "" || opts.Subtitle != "" || opts.Description != "" ||
		opts.IncludeTimestamp || len(opts.Filters) > 0 || opts.DateRange != nil
}
