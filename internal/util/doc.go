// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util holds small helpers shared by the export, config and UI code.
//
// File Operations:
//   - AtomicWriteFile: crash-safe writes through a temp file and rename
//
// Display Width:
//   - TruncateWidth, PadWidth: terminal-cell aware clipping for table cells
package util
