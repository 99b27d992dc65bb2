// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

var (
	// ErrUnknownDataKey is returned when a column points at a key no row has.
	ErrUnknownDataKey = errors.New("unknown column data key")

	// ErrInvalidColumn is returned for columns with an empty or repeated key.
	ErrInvalidColumn = errors.New("invalid column")
)

// Dataset pairs rows with the column descriptors that address them.
type Dataset struct {
	Rows    []Row
	Columns []Column
}

// NewDataset validates columns against rows. Every DataKey must be non-empty,
// unique, and present in at least one row. An empty row set skips the
// presence check so header-only exports stay possible.
func NewDataset(rows []Row, columns []Column) (*Dataset, error) {
	seen := make(map[string]bool, len(columns))
	for i, c := range columns {
		if c.DataKey == "" {
			return nil, fmt.Errorf("%w: column %d has no data key", ErrInvalidColumn, i)
		}
		if seen[c.DataKey] {
			return nil, fmt.Errorf("%w: duplicate data key %q", ErrInvalidColumn, c.DataKey)
		}
		seen[c.DataKey] = true
	}

	if len(rows) > 0 {
		present := make(map[string]bool)
		for _, r := range rows {
			for k := range r {
				present[k] = true
			}
		}
		for _, c := range columns {
			if !present[c.DataKey] {
				return nil, fmt.Errorf("%w: %q", ErrUnknownDataKey, c.DataKey)
			}
		}
	}

	if len(columns) == 0 {
		columns = InferColumns(rows)
	}
	return &Dataset{Rows: rows, Columns: columns}, nil
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// Empty reports whether there is nothing to export.
func (d *Dataset) Empty() bool {
	return d.Len() == 0
}

// InferColumns builds one column per key of the first row, in sorted key
// order, using the key as header.
func InferColumns(rows []Row) []Column {
	if len(rows) == 0 {
		return nil
	}
	keys := slices.Sorted(maps.Keys(rows[0]))
	cols := make([]Column, len(keys))
	for i, k := range keys {
		cols[i] = Column{Header: k, DataKey: k}
	}
	return cols
}
