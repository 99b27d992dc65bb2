// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/exportdesk/internal/logger"
	"github.com/jeranaias/exportdesk/internal/util"
)

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter renders rows into one output format.
type Exporter interface {
	// Export renders rows according to opts.
	Export(rows []Row, opts Options) (*Artifact, error)

	// FileExtension returns the extension appended to Options.FileName.
	FileExtension() string

	// MimeType returns the MIME type of the produced artifact.
	MimeType() string
}

// Artifact is a generated file held in memory.
type Artifact struct {
	FileName string
	MimeType string
	Data     []byte
}

// Format names an output format.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatPDF   Format = "pdf"
	FormatExcel Format = "excel"
)

// Formats lists the formats in the order they are offered to users.
var Formats = []Format{FormatCSV, FormatExcel, FormatPDF}

// ExcelMode selects what the Excel action produces.
type ExcelMode string

const (
	// ExcelXLSX writes a real workbook.
	ExcelXLSX ExcelMode = "xlsx"
	// ExcelLegacyCSV writes CSV content, as older releases did.
	ExcelLegacyCSV ExcelMode = "csv"
)

// ErrUnsupportedFormat is returned for unknown format names.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// ParseFormat resolves a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "pdf":
		return FormatPDF, nil
	case "excel", "xlsx", "xls":
		return FormatExcel, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// Label returns the button caption for f.
func (f Format) Label() string {
	switch f {
	case FormatCSV:
		return "CSV"
	case FormatPDF:
		return "PDF"
	case FormatExcel:
		return "Excel"
	default:
		return string(f)
	}
}

// NewExporter returns the exporter for format. mode only affects FormatExcel.
func NewExporter(format Format, mode ExcelMode) (Exporter, error) {
	switch format {
	case FormatCSV:
		return NewCSVExporter(), nil
	case FormatPDF:
		return NewPDFExporter(), nil
	case FormatExcel:
		if mode == ExcelLegacyCSV {
			return NewLegacyExcelExporter(), nil
		}
		return NewExcelExporter(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// Run renders rows in the requested format.
func Run(format Format, mode ExcelMode, rows []Row, opts Options) (*Artifact, error) {
	exporter, err := NewExporter(format, mode)
	if err != nil {
		return nil, err
	}
	return exporter.Export(rows, opts)
}

// Result describes one export attempt, successful or not.
type Result struct {
	Format   Format
	FileName string
	Path     string
	Size     int64
	Rows     int
	Columns  int
	Duration time.Duration
	Err      error
}

// Execute renders rows and saves the artifact. Failures are reported in
// Result.Err so callers can log and record every attempt the same way.
func Execute(format Format, mode ExcelMode, rows []Row, opts Options, so SaveOptions) Result {
	start := time.Now()
	res := Result{
		Format:  format,
		Rows:    len(rows),
		Columns: len(exportColumns(rows, opts)),
	}

	a, err := Run(format, mode, rows, opts)
	if err == nil {
		res.FileName = a.FileName
		res.Size = int64(len(a.Data))
		res.Path, err = Save(a, so)
	}
	res.Err = err
	res.Duration = time.Since(start)
	return res
}

// =============================================================================
// SAVING
// =============================================================================

// SaveOptions controls where artifacts land.
type SaveOptions struct {
	// OutputDir is created when missing. Empty means the working directory.
	OutputDir string

	// Overwrite replaces an existing file instead of picking "name (1).ext".
	Overwrite bool

	// Open launches the system viewer after writing.
	Open bool
}

var openFunc = openFile

// Save writes a to disk and returns the written path. A failure to open the
// file afterwards is logged and does not fail the save.
func Save(a *Artifact, so SaveOptions) (string, error) {
	if a == nil {
		return "", errors.New("nil artifact")
	}
	dir := so.OutputDir
	if dir == "" {
		dir = "."
	}

	path := filepath.Join(dir, a.FileName)
	if !so.Overwrite {
		path = uniquePath(path)
	}

	if err := util.AtomicWriteFile(path, a.Data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", a.FileName, err)
	}

	if so.Open {
		if err := openFunc(path); err != nil {
			logger.WithComponent("export").WithError(err).Warn("could not open exported file")
		}
	}
	return path, nil
}

// uniquePath mimics browser downloads: "report.csv" becomes "report (1).csv"
// when the name is taken.
func uniquePath(path string) string {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return path
	}
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s (%d)%s", base, i, ext)
		if _, err := os.Stat(candidate); errors.Is(err, os.ErrNotExist) {
			return candidate
		}
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

const maxFileNameRunes = 100

var fileNameReplacer = strings.NewReplacer(
	"/", "-", "\\", "-", ":", "-", "*", "-", "?", "-",
	"\"", "-", "<", "-", ">", "-", "|", "-",
	" ", "_", "\t", "_", "\n", "_", "\r", "_",
)

// SanitizeFileName folds accents and replaces characters that are invalid in
// file names on Windows or Unix. An empty result becomes "export".
func SanitizeFileName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.TrimSpace(s))
	if err != nil {
		folded = s
	}
	folded = fileNameReplacer.Replace(folded)

	out := make([]rune, 0, len(folded))
	for _, r := range folded {
		if r < 32 || r == 127 {
			r = '-'
		}
		out = append(out, r)
		if len(out) == maxFileNameRunes {
			break
		}
	}
	name := strings.Trim(string(out), ".-_")
	if name == "" {
		return "export"
	}
	return name
}

func fileBase(opts Options) string {
	return SanitizeFileName(opts.FileName)
}

// openFile opens a file in the default application for the OS.
func openFile(path string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", `""`, path)
	case "darwin":
		cmd = exec.Command("open", path)
	case "linux", "freebsd", "openbsd":
		cmd = exec.Command("xdg-open", path)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
