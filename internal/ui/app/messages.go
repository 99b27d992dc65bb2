// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/exportdesk/internal/export"
	"github.com/jeranaias/exportdesk/internal/source"
)

// ReloadFunc loads a fresh copy of the dataset.
type ReloadFunc func(ctx context.Context) ([]export.Row, error)

// DataReloadedMsg carries the result of a manual reload.
type DataReloadedMsg struct {
	Rows []export.Row
	Err  error
}

// watcherStoppedMsg reports that the watcher was closed.
type watcherStoppedMsg struct{}

const reloadTimeout = 30 * time.Second

// waitForUpdate blocks until the watcher posts an update or stops.
func waitForUpdate(w *source.Watcher) tea.Cmd {
	return func() tea.Msg {
		select {
		case u := <-w.Updates():
			return u
		case <-w.Done():
			return watcherStoppedMsg{}
		}
	}
}

func reloadCmd(reload ReloadFunc) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
		defer cancel()
		rows, err := reload(ctx)
		return DataReloadedMsg{Rows: rows, Err: err}
	}
}
