// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the palette and lipgloss styles for the exportdesk TUI.

All colors are lipgloss AdaptiveColors so the UI follows the terminal's light
or dark background. The ui.theme setting can force either half.

# Colors (colors.go)

  - Indigo - primary accent, matches the default report header
  - Sky - focus and links
  - Emerald, Rose, Amber - success, error and warning

Status helpers (RenderSuccess, RenderError, ...) prefix messages with ASCII
markers such as [OK] and [X]. Swatch renders a report hex color as a filled
block for the appearance tab.

# Theme (theme.go)

NewThemeFor builds every style the shell, dialog and preview use:

	theme := styles.NewThemeFor(cfg.UI.Theme)
	title := theme.HeaderTitle.Render("exportdesk")
*/
package styles
