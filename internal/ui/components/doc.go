// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the small widgets shared by the exportdesk screens.

  - Header (header.go) - title bar with the dataset summary and a source badge
  - StatusBar (statusbar.go) - key hints plus a transient status line
  - Spinner (spinner.go) - export-in-progress indicator with elapsed time
  - ToastManager (toast.go) - auto-dismissing notifications, newest first

Toasts expire on ToastTickMsg; the owning model schedules ToastTickCmd while
any toast is visible:

	id := toasts.Success("Export terminé", path)
	return m, components.ToastTickCmd()
*/
package components
