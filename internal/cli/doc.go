// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli parses the exportdesk command line and runs the headless
// commands.
//
// # Commands
//
//   - tui: interactive export dialog (started by main)
//   - export: render a data file to CSV, Excel or PDF
//   - fetch: pull rows from a JSON API, print or export them
//   - history: list recorded export runs
//   - config: show, locate, initialize, read and write settings
//   - version, help
//
// Handlers take an Env so output and the history store can be swapped in
// tests. Every command accepts --json and then prints a JSONResponse
// envelope.
package cli
