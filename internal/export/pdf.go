// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/sirupsen/logrus"

	"github.com/jeranaias/exportdesk/internal/logger"
)

// PDFMimeType is the MIME type of PDF artifacts.
const PDFMimeType = "application/pdf"

// DefaultPDFTitle is printed when Options.Title is empty.
const DefaultPDFTitle = "Rapport"

const pdfCreator = "Export Service"

var (
	// ErrUnsupportedPageSize is returned for page sizes outside PageSizes.
	ErrUnsupportedPageSize = errors.New("unsupported page size")

	// ErrUnsupportedOrientation is returned for unknown orientations.
	ErrUnsupportedOrientation = errors.New("unsupported orientation")
)

// Layout, in millimetres.
const (
	pdfMarginX       = 14.0
	pdfFilterIndentX = 20.0
	pdfContinueTop   = 20.0
	pdfBottomGap     = 20.0
	pdfFooterOffset  = 10.0
	pdfCellPadding   = 1.6
	pdfLineHeight    = 4.6
	pdfTableFontSize = 10.0
	pdfMinColWidth   = 8.0

	logoWidth  = 40.0
	logoHeight = 20.0
)

var pdfGray = RGB{100, 100, 100}

// PDFExporter writes paginated PDF reports.
type PDFExporter struct {
	// LoadLogo resolves Options.Logo into image bytes.
	LoadLogo func(src string) ([]byte, error)
}

// NewPDFExporter creates a PDF exporter with the default logo loader.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{LoadLogo: LoadLogo}
}

// FileExtension returns ".pdf".
func (e *PDFExporter) FileExtension() string { return ".pdf" }

// MimeType returns the PDF MIME type.
func (e *PDFExporter) MimeType() string { return PDFMimeType }

// Export renders rows as a PDF document.
func (e *PDFExporter) Export(rows []Row, opts Options) (*Artifact, error) {
	pdf, err := e.build(rows, opts)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return &Artifact{
		FileName: fileBase(opts) + e.FileExtension(),
		MimeType: e.MimeType(),
		Data:     buf.Bytes(),
	}, nil
}

// ExportPDF renders rows as a PDF artifact.
func ExportPDF(rows []Row, opts Options) (*Artifact, error) {
	return NewPDFExporter().Export(rows, opts)
}

// pdfOrientation maps an Orientation to gofpdf's "P"/"L".
func pdfOrientation(o Orientation) (string, error) {
	switch strings.ToLower(string(o)) {
	case "", string(Portrait), "p":
		return "P", nil
	case string(Landscape), "l", "paysage":
		return "L", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedOrientation, o)
	}
}

// pdfPageSize maps a page size name to gofpdf's spelling.
func pdfPageSize(size string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(size)) {
	case "", "a4":
		return "A4", nil
	case "a3":
		return "A3", nil
	case "a5":
		return "A5", nil
	case "letter":
		return "Letter", nil
	case "legal":
		return "Legal", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedPageSize, size)
	}
}

// =============================================================================
// DOCUMENT BUILDER
// =============================================================================

type pdfWriter struct {
	pdf   *gofpdf.Fpdf
	tr    func(string) string
	opts  Options
	table *table
	log   *logrus.Entry

	pageW, pageH float64
	y            float64
	widths       []float64

	text, primary, headerBg, headerText, altRow RGB
}

func (e *PDFExporter) build(rows []Row, opts Options) (*gofpdf.Fpdf, error) {
	orientation, err := pdfOrientation(opts.Orientation)
	if err != nil {
		return nil, err
	}
	size, err := pdfPageSize(opts.PageSize)
	if err != nil {
		return nil, err
	}
	t, err := prepare(rows, opts)
	if err != nil {
		return nil, err
	}

	theme := opts.Theme.WithDefaults()
	pdf := gofpdf.New(orientation, "mm", size, "")
	w := &pdfWriter{
		pdf:        pdf,
		tr:         pdf.UnicodeTranslatorFromDescriptor(""),
		opts:       opts,
		table:      t,
		log:        logger.WithComponent("export.pdf"),
		text:       ParseHexColor(theme.Text, FallbackText),
		primary:    ParseHexColor(theme.Primary, FallbackPrimary),
		headerBg:   ParseHexColor(theme.HeaderBackground, FallbackHeaderBackground),
		headerText: ParseHexColor(theme.HeaderText, FallbackHeaderText),
		altRow:     ParseHexColor(theme.AlternateRowBackground, FallbackAlternateRow),
	}
	if pdf.Err() {
		return nil, fmt.Errorf("init pdf: %w", pdf.Error())
	}

	w.setMetadata()
	if opts.Password != "" {
		w.guard("encryption", func() {
			pdf.SetProtection(gofpdf.CnProtectPrint|gofpdf.CnProtectModify|
				gofpdf.CnProtectCopy|gofpdf.CnProtectAnnotForms, opts.Password, opts.Password)
		})
	}

	pdf.SetMargins(pdfMarginX, pdfContinueTop, pdfMarginX)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	w.pageW, w.pageH = pdf.GetPageSize()
	w.widths = columnWidths(t.columns, w.pageW-2*pdfMarginX)

	if opts.Watermark != "" {
		w.guard("watermark", w.drawWatermark)
	}
	w.drawPreamble()
	if opts.Logo != "" {
		w.guard("logo", func() { w.drawLogo(e.LoadLogo) })
	}

	for i, g := range t.groups {
		if t.grouped {
			if i > 0 {
				pdf.AddPage()
				w.y = pdfContinueTop
			}
			w.drawGroupHeading(g.Label)
		}
		if err := w.drawTable(g.Rows); err != nil {
			return nil, err
		}
	}

	if opts.Footer != "" || opts.IncludePageNumbers {
		w.drawFooters()
	}

	if pdf.Err() {
		return nil, fmt.Errorf("render pdf: %w", pdf.Error())
	}
	return pdf, nil
}

// guard runs a cosmetic drawing step. Panics and gofpdf errors raised by the
// step are logged and cleared so the export carries on without it.
func (w *pdfWriter) guard(step string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			w.log.WithField("step", step).Warnf("skipped after panic: %v", r)
		}
	}()
	fn()
	if w.pdf.Err() {
		w.log.WithField("step", step).WithError(w.pdf.Error()).Warn("skipped")
		w.pdf.ClearError()
	}
}

func (w *pdfWriter) setMetadata() {
	title := w.opts.Title
	if title == "" {
		title = DefaultPDFTitle
	}
	w.pdf.SetTitle(title, true)
	w.pdf.SetSubject(w.opts.Subtitle, true)
	w.pdf.SetAuthor(w.opts.Author, true)
	w.pdf.SetKeywords(strings.Join(w.opts.Keywords, ", "), true)
	w.pdf.SetCreator(pdfCreator, true)
}

func (w *pdfWriter) setTextColor(c RGB) {
	w.pdf.SetTextColor(c.R, c.G, c.B)
}

func (w *pdfWriter) drawWatermark() {
	pdf := w.pdf
	text := w.tr(w.opts.Watermark)

	pdf.SetFont("helvetica", "I", 30)
	pdf.SetTextColor(200, 200, 200)
	pdf.SetAlpha(0.3, "Normal")

	cx, cy := w.pageW/2, w.pageH/2
	width := pdf.GetStringWidth(text)
	pdf.TransformBegin()
	pdf.TransformRotate(-45, cx, cy)
	pdf.Text(cx-width/2, cy, text)
	pdf.TransformEnd()

	pdf.SetAlpha(1, "Normal")
}

// drawPreamble prints the title block. Each y below is a text baseline.
func (w *pdfWriter) drawPreamble() {
	pdf, o := w.pdf, w.opts
	title := o.Title
	if title == "" {
		title = DefaultPDFTitle
	}

	w.setTextColor(w.text)
	pdf.SetFont("helvetica", "", 18)
	pdf.Text(pdfMarginX, 22, w.tr(title))

	w.y = 30
	if o.Subtitle != "" {
		pdf.SetFontSize(14)
		pdf.Text(pdfMarginX, w.y, w.tr(o.Subtitle))
		w.y += 8
	}
	if o.Description != "" {
		pdf.SetFontSize(12)
		pdf.Text(pdfMarginX, w.y, w.tr(o.Description))
		w.y += 8
	}

	pdf.SetFontSize(10)
	if o.IncludeTimestamp {
		w.setTextColor(pdfGray)
		pdf.Text(pdfMarginX, w.y, w.tr(timestampLine()))
		w.y += 8
		w.setTextColor(w.text)
	}
	if len(o.Filters) > 0 {
		pdf.Text(pdfMarginX, w.y, "Filtres:")
		w.y += 5
		for _, k := range o.FilterKeys() {
			pdf.Text(pdfFilterIndentX, w.y, w.tr(filterLine(k, o.Filters[k])))
			w.y += 5
		}
		w.y += 3
	}
	if o.DateRange != nil {
		pdf.Text(pdfMarginX, w.y, w.tr(periodLine(o.DateRange)))
		w.y += 8
	}
}

func (w *pdfWriter) drawLogo(load func(string) ([]byte, error)) {
	if load == nil {
		load = LoadLogo
	}
	data, err := load(w.opts.Logo)
	if err != nil {
		w.log.WithError(err).Warn("logo not embedded")
		return
	}
	kind, err := imageType(data)
	if err != nil {
		w.log.WithError(err).Warn("logo not embedded")
		return
	}
	opt := gofpdf.ImageOptions{ImageType: kind}
	w.pdf.RegisterImageOptionsReader("logo", opt, bytes.NewReader(data))
	if w.pdf.Err() {
		return
	}
	w.pdf.ImageOptions("logo", w.pageW-50, 10, logoWidth, logoHeight, false, opt, 0, "")
}

func (w *pdfWriter) drawGroupHeading(label string) {
	w.pdf.SetFont("helvetica", "", 14)
	w.setTextColor(w.primary)
	w.pdf.Text(pdfMarginX, w.y, w.tr(groupLine(label)))
	w.y += 10
	w.setTextColor(w.text)
}

// =============================================================================
// TABLE
// =============================================================================

// columnWidths honours explicit widths and shares the remaining space evenly
// between the other columns.
func columnWidths(cols []Column, avail float64) []float64 {
	widths := make([]float64, len(cols))
	fixed, auto := 0.0, 0
	for i, c := range cols {
		if c.Width > 0 {
			widths[i] = c.Width
			fixed += c.Width
		} else {
			auto++
		}
	}
	if auto == 0 {
		return widths
	}
	share := (avail - fixed) / float64(auto)
	if share < pdfMinColWidth {
		share = pdfMinColWidth
	}
	for i := range widths {
		if widths[i] == 0 {
			widths[i] = share
		}
	}
	return widths
}

func (w *pdfWriter) tableWidth() float64 {
	total := 0.0
	for _, cw := range w.widths {
		total += cw
	}
	return total
}

// wrap splits each cell into lines that fit its column, using the current font.
func (w *pdfWriter) wrap(cells []string) ([][]string, float64) {
	out := make([][]string, len(cells))
	maxLines := 1
	for i, cell := range cells {
		var lines []string
		for _, l := range w.pdf.SplitLines([]byte(w.tr(cell)), w.widths[i]) {
			lines = append(lines, string(l))
		}
		if len(lines) == 0 {
			lines = []string{""}
		}
		out[i] = lines
		maxLines = max(maxLines, len(lines))
	}
	return out, float64(maxLines)*pdfLineHeight + 2*pdfCellPadding
}

func (w *pdfWriter) drawRow(lines [][]string, height float64, fill *RGB) {
	pdf := w.pdf
	if fill != nil {
		pdf.SetFillColor(fill.R, fill.G, fill.B)
		pdf.Rect(pdfMarginX, w.y, w.tableWidth(), height, "F")
	}
	x := pdfMarginX
	for i, cellLines := range lines {
		for li, line := range cellLines {
			pdf.SetXY(x, w.y+pdfCellPadding+float64(li)*pdfLineHeight)
			pdf.CellFormat(w.widths[i], pdfLineHeight, line, "", 0, "L", false, 0, "")
		}
		x += w.widths[i]
	}
	w.y += height
}

func (w *pdfWriter) drawHeaderRow() {
	w.pdf.SetFont("helvetica", "B", pdfTableFontSize)
	w.setTextColor(w.headerText)
	lines, height := w.wrap(w.table.headers())
	w.drawRow(lines, height, &w.headerBg)
	w.pdf.SetFont("helvetica", "", pdfTableFontSize)
	w.setTextColor(w.text)
}

// drawTable prints the header and rows, repeating the header after every
// page break.
func (w *pdfWriter) drawTable(rows []Row) error {
	if len(w.table.columns) == 0 {
		return nil
	}
	bottom := w.pageH - pdfBottomGap

	w.drawHeaderRow()
	for i, r := range rows {
		rec, err := w.table.record(r)
		if err != nil {
			return err
		}
		lines, height := w.wrap(rec)
		if w.y+height > bottom {
			w.pdf.AddPage()
			w.y = pdfContinueTop
			w.drawHeaderRow()
		}
		var fill *RGB
		if i%2 == 1 {
			fill = &w.altRow
		}
		w.drawRow(lines, height, fill)
	}
	w.y += 6
	return nil
}

// =============================================================================
// FOOTER
// =============================================================================

// drawFooters revisits every page once the page count is known.
func (w *pdfWriter) drawFooters() {
	pdf := w.pdf
	total := pdf.PageCount()
	footer := w.tr(w.opts.Footer)
	for i := 1; i <= total; i++ {
		pdf.SetPage(i)
		// SetFont ignores an unchanged font, so switch away first to get the
		// operator into this page's stream. A white fill keeps the gray text
		// wrapped in its own color operator.
		pdf.SetFont("helvetica", "B", 11)
		pdf.SetFont("helvetica", "", 10)
		pdf.SetFillColor(255, 255, 255)
		w.setTextColor(pdfGray)

		baseline := w.pageH - pdfFooterOffset
		if footer != "" {
			pdf.Text((w.pageW-pdf.GetStringWidth(footer))/2, baseline, footer)
		}
		if w.opts.IncludePageNumbers {
			label := fmt.Sprintf("Page %d sur %d", i, total)
			pdf.Text(w.pageW-pdf.GetStringWidth(label)-10, baseline, label)
		}
	}
	pdf.SetPage(total)
}
