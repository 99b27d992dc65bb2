// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package exportbutton

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/exportdesk/internal/export"
	"github.com/jeranaias/exportdesk/internal/history"
	"github.com/jeranaias/exportdesk/internal/ui/components"
	"github.com/jeranaias/exportdesk/internal/ui/exportdialog"
	"github.com/jeranaias/exportdesk/internal/ui/styles"
)

type fakeRecorder struct {
	mu   sync.Mutex
	runs []history.Run
	err  error
}

func (r *fakeRecorder) Record(_ context.Context, run history.Run) (history.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, run)
	return run, r.err
}

type call struct {
	format export.Format
	rows   []export.Row
	opts   export.Options
}

func rows(names ...string) []export.Row {
	out := make([]export.Row, len(names))
	for i, n := range names {
		out[i] = export.Row{"name": export.StringValue(n)}
	}
	return out
}

var columns = []export.Column{{Header: "Nom", DataKey: "name"}}

func newButton(t *testing.T, result export.Result) (*Model, *components.ToastManager, *[]call) {
	t.Helper()
	toasts := components.NewToastManager()
	m := New(styles.NewThemeFor("dark"), toasts, Config{})
	var calls []call
	m.SetRunner(func(format export.Format, r []export.Row, opts export.Options) export.Result {
		calls = append(calls, call{format, r, opts})
		res := result
		res.Format = format
		res.Rows = len(r)
		return res
	})
	return m, toasts, &calls
}

// collect runs cmd and every command nested in batches, returning the
// resulting messages.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func findDone(t *testing.T, msgs []tea.Msg) ExportDoneMsg {
	t.Helper()
	for _, msg := range msgs {
		if done, ok := msg.(ExportDoneMsg); ok {
			return done
		}
	}
	require.FailNow(t, "no ExportDoneMsg")
	return ExportDoneMsg{}
}

func request(format export.Format, title string) exportdialog.ExportRequestMsg {
	opts := export.DefaultOptions()
	opts.Title = title
	opts.Columns = columns
	return exportdialog.ExportRequestMsg{Format: format, Options: opts}
}

func TestDisabledWhenEmpty(t *testing.T) {
	m, _, _ := newButton(t, export.Result{})
	assert.True(t, m.Disabled())
	assert.Nil(t, m.Press())
	assert.False(t, m.DialogOpen())

	m.SetData(rows("Alice"), columns)
	assert.False(t, m.Disabled())
	m.Press()
	assert.True(t, m.DialogOpen())
	assert.True(t, m.Dialog().IsOpen())
	assert.Equal(t, "1 lignes, 1 colonnes sélectionnées", m.Dialog().FooterText())
}

func TestSuccessfulExport(t *testing.T) {
	m, toasts, calls := newButton(t, export.Result{Path: "/exports/presences.pdf", FileName: "presences.pdf"})
	rec := &fakeRecorder{}
	m.SetRecorder(rec)
	m.SetData(rows("Alice", "Bob"), columns)
	m.Press()

	cmd := m.Update(request(export.FormatPDF, "Présences"))
	assert.True(t, m.Exporting())
	assert.True(t, m.Disabled(), "in-flight export disables the button")
	assert.True(t, m.Dialog().Exporting())

	done := findDone(t, collect(cmd))
	require.Len(t, *calls, 1)
	assert.Equal(t, export.FormatPDF, (*calls)[0].format)
	assert.Len(t, (*calls)[0].rows, 2)
	assert.Equal(t, "Présences", (*calls)[0].opts.Title)

	require.Len(t, rec.runs, 1)
	assert.Equal(t, history.StatusOK, rec.runs[0].Status)
	assert.Equal(t, "Présences", rec.runs[0].Title)

	m.Update(done)
	assert.False(t, m.Exporting())
	assert.False(t, m.DialogOpen(), "success closes the dialog")
	assert.False(t, m.Dialog().IsOpen())

	list := toasts.Toasts()
	require.Len(t, list, 1)
	assert.Equal(t, components.ToastKindSuccess, list[0].Kind)
	assert.Equal(t, "/exports/presences.pdf", list[0].Message)
}

func TestFailedExportClearsFlag(t *testing.T) {
	m, toasts, _ := newButton(t, export.Result{Err: export.ErrUnsupportedPageSize})
	rec := &fakeRecorder{}
	m.SetRecorder(rec)
	m.SetData(rows("Alice"), columns)
	m.Press()

	done := findDone(t, collect(m.Update(request(export.FormatPDF, ""))))
	m.Update(done)

	assert.False(t, m.Exporting())
	assert.False(t, m.Disabled())
	assert.True(t, m.DialogOpen(), "dialog stays open on failure")
	assert.False(t, m.Dialog().Exporting())

	list := toasts.Toasts()
	require.Len(t, list, 1)
	assert.Equal(t, components.ToastKindError, list[0].Kind)
	assert.Contains(t, list[0].Message, "unsupported page size")

	require.Len(t, rec.runs, 1)
	assert.Equal(t, history.StatusFailed, rec.runs[0].Status)
}

func TestRequestIgnoredWhileExporting(t *testing.T) {
	m, _, calls := newButton(t, export.Result{})
	m.SetData(rows("Alice"), columns)
	m.Press()

	first := m.Update(request(export.FormatCSV, ""))
	require.NotNil(t, first)
	assert.Nil(t, m.Update(request(export.FormatExcel, "")))

	collect(first)
	assert.Len(t, *calls, 1)
}

func TestRecorderFailureIsNotFatal(t *testing.T) {
	m, toasts, _ := newButton(t, export.Result{Path: "out.csv"})
	m.SetRecorder(&fakeRecorder{err: history.ErrClosed})
	m.SetData(rows("Alice"), columns)
	m.Press()

	done := findDone(t, collect(m.Update(request(export.FormatCSV, ""))))
	require.NoError(t, done.Result.Err)
	m.Update(done)
	assert.Equal(t, components.ToastKindSuccess, toasts.Toasts()[0].Kind)
}

func TestEscapeClosesDialog(t *testing.T) {
	m, _, _ := newButton(t, export.Result{})
	m.SetData(rows("Alice"), columns)
	m.Press()

	msgs := collect(m.Update(tea.KeyMsg{Type: tea.KeyEsc}))
	require.Len(t, msgs, 1)
	m.Update(msgs[0])
	assert.False(t, m.DialogOpen())
	assert.False(t, m.Disabled())
}

func TestExportUsesSessionRows(t *testing.T) {
	m, _, calls := newButton(t, export.Result{})
	m.SetData(rows("Alice", "Bob"), columns)
	m.Press()

	m.SetData(rows("Chloé"), columns)
	collect(m.Update(request(export.FormatCSV, "")))

	require.Len(t, *calls, 1)
	assert.Len(t, (*calls)[0].rows, 2)
}

func TestDialogButtonsDriveExport(t *testing.T) {
	m, _, calls := newButton(t, export.Result{Path: "x.xlsx"})
	m.SetData(rows("Alice"), columns)
	m.Press()

	// Shift+tab from the first field wraps onto the last action button (PDF).
	msgs := collect(m.Update(tea.KeyMsg{Type: tea.KeyShiftTab}))
	assert.Empty(t, msgs)
	msgs = collect(m.Update(tea.KeyMsg{Type: tea.KeyEnter}))
	require.Len(t, msgs, 1)
	req, ok := msgs[0].(exportdialog.ExportRequestMsg)
	require.True(t, ok)
	assert.Equal(t, export.FormatPDF, req.Format)

	collect(m.Update(req))
	require.Len(t, *calls, 1)
}

func TestWithRealEngine(t *testing.T) {
	dir := t.TempDir()
	toasts := components.NewToastManager()
	m := New(styles.NewThemeFor("dark"), toasts, Config{
		ExcelMode: export.ExcelXLSX,
		Save:      export.SaveOptions{OutputDir: dir},
	})
	m.SetData(rows("Alice", "Bob"), columns)
	m.Press()

	req := request(export.FormatCSV, "")
	req.Options.FileName = "eleves"
	req.Options.IncludeTimestamp = false
	done := findDone(t, collect(m.Update(req)))
	require.NoError(t, done.Result.Err)

	path := filepath.Join(dir, "eleves.csv")
	assert.Equal(t, path, done.Result.Path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Nom\n\"Alice\"\n\"Bob\"\n", string(data))
}

func TestView(t *testing.T) {
	m, _, _ := newButton(t, export.Result{})
	assert.Contains(t, m.View(), DefaultLabel)
	assert.Empty(t, m.DialogView())

	m.SetData(rows("Alice"), columns)
	m.SetFocused(true)
	assert.Contains(t, m.View(), DefaultLabel)

	m.Press()
	assert.Contains(t, m.DialogView(), "Configuration de l'exportation")

	m.Update(request(export.FormatCSV, ""))
	assert.Contains(t, m.View(), "Export en cours")
}

func TestErrorsSurfaceFormatLabel(t *testing.T) {
	m, toasts, _ := newButton(t, export.Result{Err: errors.New("boom")})
	m.SetData(rows("Alice"), columns)
	m.Press()
	m.Update(findDone(t, collect(m.Update(request(export.FormatExcel, "")))))
	assert.Equal(t, "Échec de l'export Excel", toasts.Toasts()[0].Title)
}

func TestPanickingFormatterClearsFlag(t *testing.T) {
	dir := t.TempDir()
	toasts := components.NewToastManager()
	rec := &fakeRecorder{}
	m := New(styles.NewThemeFor("dark"), toasts, Config{Save: export.SaveOptions{OutputDir: dir}})
	m.SetRecorder(rec)
	m.SetData(rows("Alice"), columns)
	m.Press()

	req := request(export.FormatCSV, "")
	req.Options.Columns = []export.Column{{
		Header:  "Nom",
		DataKey: "name",
		Formatter: func(export.Value) (string, error) {
			panic("boom")
		},
	}}

	var msgs []tea.Msg
	require.NotPanics(t, func() { msgs = collect(m.Update(req)) })
	done := findDone(t, msgs)
	require.Error(t, done.Result.Err)
	assert.Contains(t, done.Result.Err.Error(), "boom")
	assert.Equal(t, export.FormatCSV, done.Result.Format)

	m.Update(done)
	assert.False(t, m.Exporting())
	assert.False(t, m.Dialog().Exporting())
	assert.True(t, m.DialogOpen())
	require.Len(t, toasts.Toasts(), 1)
	assert.Equal(t, components.ToastKindError, toasts.Toasts()[0].Kind)

	require.Len(t, rec.runs, 1)
	assert.Equal(t, history.StatusFailed, rec.runs[0].Status)
}
