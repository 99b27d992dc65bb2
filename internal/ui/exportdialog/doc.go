// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package exportdialog implements the export configuration dialog.

The dialog edits an export.Options draft across four tabs (Général, Colonnes,
Apparence, Aperçu) and never filters rows itself. Choosing CSV, Excel or PDF
emits an ExportRequestMsg carrying a copy of the draft; Escape or Annuler
emits ClosedMsg. While the owner runs an export it calls SetExporting(true),
which disables the format buttons until SetExporting(false).

	d := exportdialog.New(theme)
	cmd := d.Open(rows, columns, defaults)
*/
package exportdialog
