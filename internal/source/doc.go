// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package source produces export rows, columns and options from files and
// HTTP APIs, and watches a data file for changes.
//
// Rows are read from a JSON array of objects, a JSON object wrapping such an
// array under "data", "rows" or "items", or a CSV file whose first line is the
// header. Nested JSON objects and arrays are kept as compact JSON text.
//
//	rows, err := source.LoadRows("courses.json")
//	cols, err := source.LoadColumns("columns.toml")
//	opts, err := source.LoadOptions("report.toml", cfg.ExportOptions())
package source
