// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/exportdesk/internal/export"
	"github.com/jeranaias/exportdesk/internal/source"
	"github.com/jeranaias/exportdesk/internal/ui/components"
	"github.com/jeranaias/exportdesk/internal/ui/exportdialog"
	"github.com/jeranaias/exportdesk/internal/ui/styles"
)

func nameRows(names ...string) []export.Row {
	out := make([]export.Row, len(names))
	for i, n := range names {
		out[i] = export.Row{"name": export.StringValue(n)}
	}
	return out
}

func newApp(opts Options) *Model {
	opts.Theme = styles.NewThemeFor("dark")
	if opts.Source == "" {
		opts.Source = "eleves.json"
	}
	m := New(opts)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m
}

func press(m *Model, k string) tea.Cmd {
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
	return cmd
}

func TestNew_SummarizesDataset(t *testing.T) {
	m := newApp(Options{Rows: nameRows("Alice", "Bob")})

	assert.False(t, m.Button().Disabled())
	out := m.View()
	assert.Contains(t, out, "exportdesk")
	assert.Contains(t, out, "eleves.json")
	assert.Contains(t, out, "2 lignes prêtes à l'export")
	assert.Contains(t, out, "Exporter")
}

func TestEmptyDatasetDisablesExport(t *testing.T) {
	m := newApp(Options{})
	assert.True(t, m.Button().Disabled())
	assert.Nil(t, press(m, "e"))
	assert.False(t, m.Button().DialogOpen())
	assert.Contains(t, m.View(), "Aucune donnée à exporter.")
}

func TestExportKeyOpensDialog(t *testing.T) {
	m := newApp(Options{Rows: nameRows("Alice")})
	press(m, "e")
	require.True(t, m.Button().DialogOpen())
	assert.Contains(t, m.View(), "Configuration de l'exportation")

	// q is typed into the file name field while the dialog is open.
	press(m, "q")
	require.True(t, m.Button().DialogOpen())
	assert.Equal(t, "exportq", m.Button().Dialog().Draft().FileName)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	msgs := collect(cmd)
	require.Len(t, msgs, 1)
	assert.IsType(t, exportdialog.ClosedMsg{}, msgs[0])
	m.Update(msgs[0])
	assert.False(t, m.Button().DialogOpen())
}

func TestQuitKeys(t *testing.T) {
	m := newApp(Options{Rows: nameRows("Alice")})
	cmd := press(m, "q")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	press(m, "e")
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestWatcherUpdateReplacesRows(t *testing.T) {
	m := newApp(Options{Rows: nameRows("Alice")})

	m.Update(source.Update{Path: "eleves.json", Rows: nameRows("Alice", "Bob", "Chloé")})
	assert.Len(t, m.Rows(), 3)
	assert.Contains(t, m.View(), "3 lignes")

	toasts := m.Toasts().Toasts()
	require.NotEmpty(t, toasts)
	assert.Equal(t, components.ToastKindInfo, toasts[0].Kind)
}

func TestFailedReloadKeepsRows(t *testing.T) {
	m := newApp(Options{Rows: nameRows("Alice")})

	m.Update(source.Update{Path: "eleves.json", Err: errors.New("unexpected EOF")})
	assert.Len(t, m.Rows(), 1)
	toasts := m.Toasts().Toasts()
	require.NotEmpty(t, toasts)
	assert.Equal(t, components.ToastKindError, toasts[0].Kind)
	assert.Contains(t, toasts[0].Message, "unexpected EOF")
}

func TestReloadRejectsRowsMissingConfiguredColumns(t *testing.T) {
	m := newApp(Options{
		Rows:    nameRows("Alice"),
		Columns: []export.Column{{Header: "Nom", DataKey: "name"}},
	})

	m.Update(DataReloadedMsg{Rows: []export.Row{{"other": export.IntValue(1)}}})
	assert.Len(t, m.Rows(), 1)
	assert.Contains(t, m.Toasts().Toasts()[0].Message, "name")
}

func TestInferredColumnsFollowReloads(t *testing.T) {
	m := newApp(Options{Rows: nameRows("Alice")})
	m.Update(DataReloadedMsg{Rows: []export.Row{{"a": export.IntValue(1), "b": export.IntValue(2)}}})

	m.Button().Press()
	assert.Equal(t, "1 lignes, 2 colonnes sélectionnées", m.Button().Dialog().FooterText())
}

func TestReloadKey(t *testing.T) {
	called := 0
	m := newApp(Options{
		Rows: nameRows("Alice"),
		Reload: func(ctx context.Context) ([]export.Row, error) {
			called++
			return nameRows("Alice", "Bob"), nil
		},
	})

	cmd := press(m, "r")
	require.NotNil(t, cmd)
	msg := cmd()
	require.IsType(t, DataReloadedMsg{}, msg)
	assert.Equal(t, 1, called)

	m.Update(msg)
	assert.Len(t, m.Rows(), 2)
}

func TestReloadKeyWithoutSource(t *testing.T) {
	m := newApp(Options{Rows: nameRows("Alice")})
	press(m, "r")
	toasts := m.Toasts().Toasts()
	require.Len(t, toasts, 1)
	assert.Equal(t, "Rechargement indisponible", toasts[0].Title)

	press(m, "x")
	assert.Zero(t, m.Toasts().Len())
}

func TestToastTickExpiresAndDedupes(t *testing.T) {
	m := newApp(Options{Rows: nameRows("Alice")})
	base := time.Now()
	m.Toasts().Add(components.Toast{Title: "court", CreatedAt: base, Duration: time.Second})

	_, cmd := m.Update(components.ToastTickMsg{Time: base.Add(100 * time.Millisecond)})
	assert.NotNil(t, cmd, "toast still visible, keep ticking")

	_, cmd = m.Update(components.ToastTickMsg{Time: base.Add(150 * time.Millisecond)})
	assert.Nil(t, cmd, "overlapping tick dropped")

	_, cmd = m.Update(components.ToastTickMsg{Time: base.Add(2 * time.Second)})
	assert.Nil(t, cmd)
	assert.Zero(t, m.Toasts().Len())
}

func TestLiveReloadFromWatcher(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eleves.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name": "Alice"}]`), 0o644))

	w, err := source.NewWatcher(path, 20*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.Watch())

	m := newApp(Options{Rows: nameRows("Alice"), Watcher: w, State: components.SourceWatching})
	wait := m.Init()
	require.NotNil(t, wait)

	got := make(chan tea.Msg, 1)
	go func() { got <- wait() }()

	require.NoError(t, os.WriteFile(path, []byte(`[{"name": "Alice"}, {"name": "Bob"}]`), 0o644))

	select {
	case msg := <-got:
		m.Update(msg)
	case <-time.After(5 * time.Second):
		t.Fatal("no update from watcher")
	}
	assert.Len(t, m.Rows(), 2)

	// Closing the watcher releases the pending wait. A late update may
	// still be buffered ahead of the stop.
	next := waitForUpdate(w)
	require.NoError(t, w.Close())
	var last tea.Msg
	for i := 0; i < 3; i++ {
		if last = next(); isStopped(last) {
			break
		}
	}
	assert.IsType(t, watcherStoppedMsg{}, last)
}

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

func isStopped(msg tea.Msg) bool {
	_, ok := msg.(watcherStoppedMsg)
	return ok
}
