// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"strings"
)

// CSVMimeType is the MIME type of CSV artifacts.
const CSVMimeType = "text/csv;charset=utf-8"

// CSVExporter writes comma separated text. Every data cell is quoted; the
// header row is not.
type CSVExporter struct{}

// NewCSVExporter creates a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Export renders rows as CSV.
func (e *CSVExporter) Export(rows []Row, opts Options) (*Artifact, error) {
	data, err := renderCSV(rows, opts)
	if err != nil {
		return nil, err
	}
	return &Artifact{
		FileName: fileBase(opts) + e.FileExtension(),
		MimeType: e.MimeType(),
		Data:     data,
	}, nil
}

// FileExtension returns ".csv".
func (e *CSVExporter) FileExtension() string { return ".csv" }

// MimeType returns the CSV MIME type.
func (e *CSVExporter) MimeType() string { return CSVMimeType }

// ExportCSV renders rows as a CSV artifact.
func ExportCSV(rows []Row, opts Options) (*Artifact, error) {
	return NewCSVExporter().Export(rows, opts)
}

func renderCSV(rows []Row, opts Options) ([]byte, error) {
	t, err := prepare(rows, opts)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	line := func(s string) {
		sb.WriteString(s)
		sb.WriteByte('\n')
	}

	if opts.Title != "" {
		line(quoteCSV(opts.Title))
	}
	if opts.Subtitle != "" {
		line(quoteCSV(opts.Subtitle))
	}
	if opts.Description != "" {
		line(quoteCSV(opts.Description))
	}
	if opts.IncludeTimestamp {
		line(quoteCSV(timestampLine()))
	}
	if len(opts.Filters) > 0 {
		line(quoteCSV("Filtres:"))
		for _, k := range opts.FilterKeys() {
			line(quoteCSV(filterLine(k, opts.Filters[k])))
		}
	}
	if opts.DateRange != nil {
		line(quoteCSV(periodLine(opts.DateRange)))
	}
	if hasPreamble(opts) {
		line("")
	}

	line(strings.Join(t.headers(), ","))

	for _, g := range t.groups {
		if t.grouped {
			sb.WriteByte('\n')
			line(quoteCSV(groupLine(g.Label)))
		}
		for _, r := range g.Rows {
			rec, err := t.record(r)
			if err != nil {
				return nil, err
			}
			for i, cell := range rec {
				rec[i] = quoteCSV(cell)
			}
			line(strings.Join(rec, ","))
		}
	}

	return []byte(sb.String()), nil
}

// quoteCSV wraps s in double quotes, doubling any quote inside it.
func quoteCSV(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
