// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/xuri/excelize/v2"
)

// XLSXMimeType is the MIME type of workbook artifacts.
const XLSXMimeType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExcelSheetName names the single worksheet of an export workbook.
const ExcelSheetName = "Export"

const (
	minAutoColWidth = 8
	maxAutoColWidth = 60
)

// ExcelExporter writes a styled XLSX workbook.
type ExcelExporter struct{}

// NewExcelExporter creates an XLSX exporter.
func NewExcelExporter() *ExcelExporter {
	return &ExcelExporter{}
}

// FileExtension returns ".xlsx".
func (e *ExcelExporter) FileExtension() string { return ".xlsx" }

// MimeType returns the XLSX MIME type.
func (e *ExcelExporter) MimeType() string { return XLSXMimeType }

// ExportExcel renders rows as an XLSX artifact.
func ExportExcel(rows []Row, opts Options) (*Artifact, error) {
	return NewExcelExporter().Export(rows, opts)
}

// Export renders rows into a workbook with a single sheet.
func (e *ExcelExporter) Export(rows []Row, opts Options) (*Artifact, error) {
	t, err := prepare(rows, opts)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ExcelSheetName); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}
	sw := &sheetWriter{f: f, t: t, opts: opts, row: 1}
	if err := sw.newStyles(); err != nil {
		return nil, fmt.Errorf("create styles: %w", err)
	}
	if err := sw.write(); err != nil {
		return nil, err
	}
	if err := f.SetDocProps(docProps(opts)); err != nil {
		return nil, fmt.Errorf("set document properties: %w", err)
	}

	var buf bytes.Buffer
	var writeOpts []excelize.Options
	if opts.Password != "" {
		writeOpts = append(writeOpts, excelize.Options{Password: opts.Password})
	}
	if err := f.Write(&buf, writeOpts...); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	return &Artifact{
		FileName: fileBase(opts) + e.FileExtension(),
		MimeType: e.MimeType(),
		Data:     buf.Bytes(),
	}, nil
}

func docProps(opts Options) *excelize.DocProperties {
	creator := opts.Author
	if creator == "" {
		creator = pdfCreator
	}
	return &excelize.DocProperties{
		Title:       opts.Title,
		Subject:     opts.Subtitle,
		Description: opts.Description,
		Creator:     creator,
		Keywords:    strings.Join(opts.Keywords, ", "),
		Created:     now().UTC().Format(time.RFC3339),
		Language:    "fr-FR",
	}
}

// =============================================================================
// SHEET WRITER
// =============================================================================

type sheetWriter struct {
	f    *excelize.File
	t    *table
	opts Options
	row  int

	titleStyle, metaStyle, headerStyle, altStyle, groupStyle int
	widths                                                   []int
}

func (w *sheetWriter) newStyles() error {
	theme := w.opts.Theme.WithDefaults()
	primary := ParseHexColor(theme.Primary, FallbackPrimary)
	headerBg := ParseHexColor(theme.HeaderBackground, FallbackHeaderBackground)
	headerText := ParseHexColor(theme.HeaderText, FallbackHeaderText)
	alt := ParseHexColor(theme.AlternateRowBackground, FallbackAlternateRow)

	var err error
	if w.titleStyle, err = w.f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 16},
	}); err != nil {
		return err
	}
	if w.metaStyle, err = w.f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: pdfGray.HexNoHash(), Size: 10},
	}); err != nil {
		return err
	}
	if w.headerStyle, err = w.f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: headerText.HexNoHash()},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerBg.HexNoHash()}},
		Alignment: &excelize.Alignment{Vertical: "center"},
	}); err != nil {
		return err
	}
	if w.altStyle, err = w.f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{alt.HexNoHash()}},
	}); err != nil {
		return err
	}
	w.groupStyle, err = w.f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 13, Color: primary.HexNoHash()},
	})
	return err
}

func (w *sheetWriter) cell(col int) (string, error) {
	name, err := excelize.CoordinatesToCellName(col, w.row)
	if err != nil {
		return "", fmt.Errorf("cell %d,%d: %w", col, w.row, err)
	}
	return name, nil
}

func (w *sheetWriter) setStr(col int, text string) error {
	name, err := w.cell(col)
	if err != nil {
		return err
	}
	return w.f.SetCellStr(ExcelSheetName, name, text)
}

func (w *sheetWriter) setValue(col int, val any) error {
	name, err := w.cell(col)
	if err != nil {
		return err
	}
	return w.f.SetCellValue(ExcelSheetName, name, val)
}

// styleRange styles columns from..to of the current row.
func (w *sheetWriter) styleRange(from, to, style int) error {
	first, err := w.cell(from)
	if err != nil {
		return err
	}
	last, err := w.cell(to)
	if err != nil {
		return err
	}
	return w.f.SetCellStyle(ExcelSheetName, first, last, style)
}

func (w *sheetWriter) lastCol() int {
	return max(len(w.t.columns), 1)
}

// line writes a single text cell in column A with the given style.
func (w *sheetWriter) line(text string, style int) error {
	if err := w.setStr(1, text); err != nil {
		return err
	}
	if err := w.styleRange(1, 1, style); err != nil {
		return err
	}
	w.row++
	return nil
}

func (w *sheetWriter) write() error {
	o := w.opts
	lines := []struct {
		text  string
		style int
		on    bool
	}{
		{o.Title, w.titleStyle, o.Title != ""},
		{o.Subtitle, w.metaStyle, o.Subtitle != ""},
		{o.Description, w.metaStyle, o.Description != ""},
	}
	for _, l := range lines {
		if l.on {
			if err := w.line(l.text, l.style); err != nil {
				return err
			}
		}
	}
	if o.IncludeTimestamp {
		if err := w.line(timestampLine(), w.metaStyle); err != nil {
			return err
		}
	}
	if len(o.Filters) > 0 {
		if err := w.line("Filtres:", w.metaStyle); err != nil {
			return err
		}
		for _, k := range o.FilterKeys() {
			if err := w.line(filterLine(k, o.Filters[k]), w.metaStyle); err != nil {
				return err
			}
		}
	}
	if o.DateRange != nil {
		if err := w.line(periodLine(o.DateRange), w.metaStyle); err != nil {
			return err
		}
	}
	if hasPreamble(o) {
		w.row++
	}

	w.widths = make([]int, len(w.t.columns))
	if err := w.writeHeader(); err != nil {
		return err
	}
	for _, g := range w.t.groups {
		if w.t.grouped {
			w.row++
			if err := w.line(groupLine(g.Label), w.groupStyle); err != nil {
				return err
			}
		}
		for i, r := range g.Rows {
			if err := w.writeRecord(r, i%2 == 1); err != nil {
				return err
			}
		}
	}
	return w.applyWidths()
}

func (w *sheetWriter) writeHeader() error {
	if len(w.t.columns) == 0 {
		return nil
	}
	for i, h := range w.t.headers() {
		if err := w.setStr(i+1, h); err != nil {
			return err
		}
		w.track(i, h)
	}
	if err := w.styleRange(1, w.lastCol(), w.headerStyle); err != nil {
		return err
	}
	w.row++
	return nil
}

func (w *sheetWriter) writeRecord(r Row, alternate bool) error {
	if len(w.t.columns) == 0 {
		return nil
	}
	for i := range w.t.columns {
		val, text, err := w.t.typedCell(r, i)
		if err != nil {
			return err
		}
		w.track(i, text)
		if val == nil {
			continue
		}
		if err := w.setValue(i+1, val); err != nil {
			return err
		}
	}
	if alternate {
		if err := w.styleRange(1, w.lastCol(), w.altStyle); err != nil {
			return err
		}
	}
	w.row++
	return nil
}

func (w *sheetWriter) track(col int, text string) {
	if n := runewidth.StringWidth(text); n > w.widths[col] {
		w.widths[col] = n
	}
}

func (w *sheetWriter) applyWidths() error {
	for i, c := range w.t.columns {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		width := c.Width
		if width <= 0 {
			width = float64(min(max(w.widths[i]+2, minAutoColWidth), maxAutoColWidth))
		}
		if err := w.f.SetColWidth(ExcelSheetName, name, name, width); err != nil {
			return err
		}
	}
	return nil
}

// typedCell returns the spreadsheet value for column i of r along with its
// display text. Formatted cells are strings; unformatted numbers and booleans
// keep their type. Null yields a nil value.
func (t *table) typedCell(r Row, i int) (any, string, error) {
	v := r.Get(t.columns[i].DataKey)
	if v.IsNull() {
		return nil, "", nil
	}
	text, err := t.cell(r, i)
	if err != nil {
		return nil, "", err
	}
	if t.formats[i] != nil {
		return text, text, nil
	}
	switch v.Kind() {
	case KindNumber:
		return v.Float64(), text, nil
	case KindBool:
		return v.Bool(), text, nil
	default:
		return text, text, nil
	}
}

// =============================================================================
// LEGACY MODE
// =============================================================================

// LegacyExcelExporter reproduces the historical Excel action, which produced
// CSV content. It is selected with the "csv" Excel mode.
type LegacyExcelExporter struct {
	csv CSVExporter
}

// NewLegacyExcelExporter creates the CSV-backed Excel exporter.
func NewLegacyExcelExporter() *LegacyExcelExporter {
	return &LegacyExcelExporter{}
}

// Export delegates to the CSV exporter.
func (e *LegacyExcelExporter) Export(rows []Row, opts Options) (*Artifact, error) {
	return e.csv.Export(rows, opts)
}

// FileExtension returns ".csv".
func (e *LegacyExcelExporter) FileExtension() string { return e.csv.FileExtension() }

// MimeType returns the CSV MIME type.
func (e *LegacyExcelExporter) MimeType() string { return e.csv.MimeType() }

// ExportExcelLegacy renders rows the way the historical Excel action did.
func ExportExcelLegacy(rows []Row, opts Options) (*Artifact, error) {
	return NewLegacyExcelExporter().Export(rows, opts)
}
