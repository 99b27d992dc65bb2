// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/exportdesk/internal/export"
	"github.com/jeranaias/exportdesk/internal/logger"
	"github.com/jeranaias/exportdesk/internal/source"
	"github.com/jeranaias/exportdesk/internal/ui/components"
	"github.com/jeranaias/exportdesk/internal/ui/exportbutton"
	"github.com/jeranaias/exportdesk/internal/ui/styles"
)

// minToastTick drops ticks from a second, overlapping toast loop.
const minToastTick = 200 * time.Millisecond

// Options configures the application shell.
type Options struct {
	Theme *styles.Theme

	// Source names where the rows came from, shown in the header.
	Source string
	State  components.SourceState

	Rows []export.Row

	// Columns are the configured descriptors. Empty means columns are
	// inferred from the first row on every reload.
	Columns []export.Column

	// Watcher, when set, streams reloads of the source file.
	Watcher *source.Watcher

	// Reload, when set, backs the manual reload key.
	Reload ReloadFunc

	Button   exportbutton.Config
	Recorder exportbutton.Recorder
}

// Model is the root Bubble Tea model.
type Model struct {
	theme *styles.Theme
	keys  KeyMap

	width  int
	height int

	header *components.Header
	status *components.StatusBar
	toasts *components.ToastManager
	button *exportbutton.Model

	source   string
	rows     []export.Row
	columns  []export.Column
	inferred bool

	watcher  *source.Watcher
	reload   ReloadFunc
	lastTick time.Time
}

// New builds the shell around opts.
func New(opts Options) *Model {
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme()
	}
	toasts := components.NewToastManager()

	m := &Model{
		theme:    theme,
		keys:     DefaultKeyMap(),
		header:   components.NewHeader(theme),
		status:   components.NewStatusBar(theme),
		toasts:   toasts,
		button:   exportbutton.New(theme, toasts, opts.Button),
		source:   opts.Source,
		columns:  opts.Columns,
		inferred: len(opts.Columns) == 0,
		watcher:  opts.Watcher,
		reload:   opts.Reload,
	}
	m.header.State = opts.State
	if opts.Recorder != nil {
		m.button.SetRecorder(opts.Recorder)
	}
	m.button.SetFocused(true)
	m.setRows(opts.Rows)
	m.status.SetStatus("Prêt")
	return m
}

// Button exposes the export button.
func (m *Model) Button() *exportbutton.Model {
	return m.button
}

// Toasts exposes the notification stack.
func (m *Model) Toasts() *components.ToastManager {
	return m.toasts
}

// Rows returns the current dataset.
func (m *Model) Rows() []export.Row {
	return m.rows
}

// Init starts listening to the watcher.
func (m *Model) Init() tea.Cmd {
	if m.watcher != nil {
		return waitForUpdate(m.watcher)
	}
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.theme.SetSize(msg.Width, msg.Height)
		m.header.SetWidth(msg.Width)
		m.status.SetWidth(msg.Width)
		m.button.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case source.Update:
		m.applyReload(msg.Rows, msg.Err)
		if m.watcher == nil {
			return m, components.ToastTickCmd()
		}
		return m, tea.Batch(waitForUpdate(m.watcher), components.ToastTickCmd())

	case DataReloadedMsg:
		m.applyReload(msg.Rows, msg.Err)
		return m, components.ToastTickCmd()

	case watcherStoppedMsg:
		m.header.State = components.SourceStatic
		return m, nil

	case components.ToastTickMsg:
		if msg.Time.Sub(m.lastTick) < minToastTick {
			return m, nil
		}
		m.lastTick = msg.Time
		if m.toasts.Tick(msg.Time) {
			return m, components.ToastTickCmd()
		}
		return m, nil
	}

	return m, m.button.Update(msg)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.Force) {
		return tea.Quit
	}
	if m.button.DialogOpen() {
		return m.button.Update(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Export):
		return m.button.Press()
	case key.Matches(msg, m.keys.Reload):
		if m.reload == nil {
			m.toasts.Info("Rechargement indisponible", "Aucune source rechargeable.")
			return components.ToastTickCmd()
		}
		m.status.SetStatus("Rechargement...")
		return reloadCmd(m.reload)
	case key.Matches(msg, m.keys.Dismiss):
		if list := m.toasts.Toasts(); len(list) > 0 {
			m.toasts.Dismiss(list[0].ID)
		}
	}
	return nil
}

// applyReload swaps in new rows. A failed reload keeps the previous rows.
func (m *Model) applyReload(rows []export.Row, err error) {
	log := logger.WithComponent("app").WithField("source", m.source)
	if err == nil {
		if _, verr := export.NewDataset(rows, m.configuredColumns()); verr != nil {
			err = verr
		}
	}
	if err != nil {
		log.WithError(err).Warn("reload rejected")
		m.toasts.Error("Rechargement impossible", err.Error())
		m.status.SetStatus("Rechargement échoué")
		return
	}

	m.setRows(rows)
	log.WithField("rows", len(rows)).Info("dataset reloaded")
	m.toasts.Info("Données rechargées", components.Plural(len(rows), "ligne", "lignes"))
	m.status.SetStatus("Rechargé à " + time.Now().Format("15:04:05"))
}

func (m *Model) configuredColumns() []export.Column {
	if m.inferred {
		return nil
	}
	return m.columns
}

func (m *Model) setRows(rows []export.Row) {
	m.rows = rows
	if m.inferred {
		m.columns = export.InferColumns(rows)
	}
	m.header.SetDataset(m.source, len(rows), len(m.columns))
	m.button.SetData(rows, m.columns)
}
