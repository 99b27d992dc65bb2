// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package exportbutton

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/jeranaias/exportdesk/internal/export"
	"github.com/jeranaias/exportdesk/internal/history"
	"github.com/jeranaias/exportdesk/internal/logger"
	"github.com/jeranaias/exportdesk/internal/ui/components"
	"github.com/jeranaias/exportdesk/internal/ui/exportdialog"
	"github.com/jeranaias/exportdesk/internal/ui/styles"
)

// DefaultLabel is the button caption.
const DefaultLabel = "Exporter"

const recordTimeout = 5 * time.Second

// =============================================================================
// TYPES
// =============================================================================

// Recorder stores export runs. *history.Store satisfies it.
type Recorder interface {
	Record(ctx context.Context, run history.Run) (history.Run, error)
}

// RunFunc renders and saves one export.
type RunFunc func(format export.Format, rows []export.Row, opts export.Options) export.Result

// Config holds what the button passes to every dialog session and export.
type Config struct {
	Label     string
	ExcelMode export.ExcelMode
	Save      export.SaveOptions
	// Defaults seeds each dialog session. Build it on export.DefaultOptions.
	Defaults    export.Options
	PreviewRows int
}

// ExportDoneMsg carries the outcome of an export started by the button.
type ExportDoneMsg struct {
	Result export.Result
	Title  string
}

// Model is the export button. It owns the dialog and the in-flight flag.
type Model struct {
	theme  *styles.Theme
	cfg    Config
	dialog *exportdialog.Model
	toasts *components.ToastManager

	rows    []export.Row
	columns []export.Column

	// session is the row set the open dialog was started with.
	session []export.Row

	dialogOpen bool
	exporting  bool
	focused    bool

	run      RunFunc
	recorder Recorder
	spinner  components.Spinner
}

// New creates a button. toasts receives the success and failure notices.
func New(theme *styles.Theme, toasts *components.ToastManager, cfg Config) *Model {
	if cfg.Label == "" {
		cfg.Label = DefaultLabel
	}
	d := exportdialog.New(theme)
	d.SetPreviewRows(cfg.PreviewRows)

	m := &Model{
		theme:   theme,
		cfg:     cfg,
		dialog:  d,
		toasts:  toasts,
		spinner: components.NewSpinner("Export en cours"),
	}
	m.run = func(format export.Format, rows []export.Row, opts export.Options) export.Result {
		return export.Execute(format, cfg.ExcelMode, rows, opts, cfg.Save)
	}
	return m
}

// SetRunner replaces the export function.
func (m *Model) SetRunner(run RunFunc) {
	m.run = run
}

// SetRecorder enables history recording. A nil recorder disables it.
func (m *Model) SetRecorder(r Recorder) {
	m.recorder = r
}

// SetData replaces the dataset. An open dialog keeps the rows it was opened
// with; the next session sees the new ones.
func (m *Model) SetData(rows []export.Row, columns []export.Column) {
	m.rows = rows
	m.columns = columns
}

// SetFocused marks the button as the focused control.
func (m *Model) SetFocused(focused bool) {
	m.focused = focused
}

// SetSize forwards the terminal size to the dialog.
func (m *Model) SetSize(width, height int) {
	m.dialog.SetSize(width, height)
}

// Disabled reports whether the button ignores presses: nothing to export or
// an export already running.
func (m *Model) Disabled() bool {
	return len(m.rows) == 0 || m.exporting
}

// DialogOpen reports whether the configuration dialog is showing.
func (m *Model) DialogOpen() bool {
	return m.dialogOpen
}

// Exporting reports whether an export is in flight.
func (m *Model) Exporting() bool {
	return m.exporting
}

// Dialog exposes the configuration dialog.
func (m *Model) Dialog() *exportdialog.Model {
	return m.dialog
}

// Press opens the dialog unless the button is disabled.
func (m *Model) Press() tea.Cmd {
	if m.Disabled() || m.dialogOpen {
		return nil
	}
	m.dialogOpen = true
	m.session = m.rows
	return m.dialog.Open(m.session, m.columns, m.cfg.Defaults)
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles export lifecycle messages and forwards the rest to the open
// dialog.
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case exportdialog.ExportRequestMsg:
		return m.startExport(msg)

	case ExportDoneMsg:
		return m.finishExport(msg)

	case exportdialog.ClosedMsg:
		m.dialogOpen = false
		m.session = nil
		return nil
	}

	var cmds []tea.Cmd
	if m.exporting {
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}
	if m.dialogOpen {
		cmds = append(cmds, m.dialog.Update(msg))
	}
	return tea.Batch(cmds...)
}

func (m *Model) startExport(req exportdialog.ExportRequestMsg) tea.Cmd {
	if m.exporting {
		return nil
	}
	m.exporting = true

	rows := m.session
	if rows == nil {
		rows = m.rows
	}
	run, recorder := m.run, m.recorder
	title := req.Options.Title

	exportCmd := func() tea.Msg {
		res := runGuarded(run, req.Format, rows, req.Options)
		if recorder != nil {
			ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
			defer cancel()
			if _, err := recorder.Record(ctx, history.FromResult(res, title)); err != nil {
				logger.WithComponent("exportbutton").WithError(err).Warn("could not record export run")
			}
		}
		return ExportDoneMsg{Result: res, Title: title}
	}

	return tea.Batch(m.dialog.SetExporting(true), m.spinner.Start(), exportCmd)
}

// runGuarded calls run and turns a panic, such as one raised by a column
// formatter, into a failed Result.
func runGuarded(run RunFunc, format export.Format, rows []export.Row, opts export.Options) (res export.Result) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithComponent("exportbutton").WithField("panic", r).Error("export panicked")
			res = export.Result{Format: format, FileName: opts.FileName, Err: fmt.Errorf("export panicked: %v", r)}
		}
	}()
	return run(format, rows, opts)
}

// finishExport clears the in-flight flag whatever the outcome.
func (m *Model) finishExport(msg ExportDoneMsg) tea.Cmd {
	m.exporting = false
	m.dialog.SetExporting(false)
	m.spinner.Stop()

	res := msg.Result
	log := logger.WithComponent("exportbutton").WithFields(logrus.Fields{
		"format":   res.Format,
		"rows":     res.Rows,
		"columns":  res.Columns,
		"duration": res.Duration,
	})

	if res.Err != nil {
		log.WithError(res.Err).Error("export failed")
		m.toasts.Error("Échec de l'export "+res.Format.Label(), res.Err.Error())
		return components.ToastTickCmd()
	}

	log.WithField("path", res.Path).Info("export saved")
	m.toasts.Success("Export "+res.Format.Label()+" terminé", res.Path)
	if m.dialogOpen {
		m.dialog.Close()
		m.dialogOpen = false
		m.session = nil
	}
	return components.ToastTickCmd()
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the button.
func (m *Model) View() string {
	t := m.theme
	switch {
	case m.exporting:
		return t.ButtonDisabled.Strikethrough(false).Render(m.cfg.Label) + " " + m.spinner.View()
	case m.Disabled():
		return t.ButtonDisabled.Render(m.cfg.Label)
	case m.focused:
		return t.ButtonFocused.Render(m.cfg.Label)
	default:
		return t.Button.Render(m.cfg.Label)
	}
}

// DialogView renders the dialog when open.
func (m *Model) DialogView() string {
	if !m.dialogOpen {
		return ""
	}
	return m.dialog.View()
}
