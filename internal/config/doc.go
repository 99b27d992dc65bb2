// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads, validates and saves the exportdesk configuration.
//
// # Configuration Precedence
//
// Values are resolved in this order, later entries winning:
//   - Built-in defaults
//   - ~/.exportdesk/config.toml, or the file named by EXPORTDESK_CONFIG
//   - Environment variables (EXPORTDESK_*)
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	opts := cfg.ExportOptions()
//	art, err := export.Run(export.FormatPDF, cfg.ExcelMode(), rows, opts)
package config
