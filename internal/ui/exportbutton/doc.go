// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package exportbutton wires the export dialog to the export engine.
//
// The button is disabled while the dataset is empty or an export is running.
// Pressing it opens the dialog; an ExportRequestMsg from the dialog starts
// the export in a tea.Cmd, and the ExportDoneMsg that follows always clears
// the in-flight flag. Success closes the dialog and shows the saved path;
// failure is logged and shown as an error toast with the dialog left open.
package exportbutton
