// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app is the root Bubble Tea model of the exportdesk TUI: the header
// with the dataset summary, the export button and its dialog, the toast stack
// and the status bar. When a source.Watcher is supplied, file changes replace
// the dataset while the app runs.
package app
