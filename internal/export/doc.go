// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export turns tabular rows into CSV, PDF and XLSX reports.
//
// Every exporter is a pure function of its rows and Options: the rows are
// copied, sorted and grouped, columns are selected by their visibility
// toggle, and cells are formatted before the format-specific writer runs.
// Filters and the date range are printed in the preamble only.
//
// # Key Types
//
//   - Value, Row: typed cell values keyed by column data key
//   - Options, Column, Theme: what to export and how it looks
//   - Exporter: one implementation per Format
//   - Artifact: the generated bytes plus file name and MIME type
//
// # Supported Formats
//
//   - CSV: quoted cells, French preamble lines, "Groupe:" section markers
//   - PDF: themed tables, watermark, logo, footer and page numbers (gofpdf)
//   - Excel: a styled XLSX workbook (excelize), or CSV in legacy mode
//
// # Usage
//
//	opts := export.DefaultOptions()
//	opts.Title = "Présences"
//	art, err := export.Run(export.FormatPDF, export.ExcelXLSX, rows, opts)
//	if err != nil {
//	    return err
//	}
//	path, err := export.Save(art, export.SaveOptions{OutputDir: "exports"})
package export
