// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/jeranaias/exportdesk/internal/ui/styles"
)

// =============================================================================
// TOAST TYPES
// =============================================================================

// ToastKind selects a toast's color and marker.
type ToastKind int

const (
	ToastKindInfo ToastKind = iota
	ToastKindSuccess
	ToastKindWarning
	ToastKindError
)

const (
	// DefaultToastDuration applies to info and success toasts.
	DefaultToastDuration = 4 * time.Second

	// ErrorToastDuration is longer so the message can be read.
	ErrorToastDuration = 8 * time.Second

	// MaxToasts is the number of toasts kept on screen.
	MaxToasts = 4
)

// Toast is a transient notification shown in the bottom-right corner.
type Toast struct {
	ID        string
	Kind      ToastKind
	Title     string
	Message   string
	CreatedAt time.Time
	Duration  time.Duration
}

// NewToast creates a toast with the duration matching kind.
func NewToast(kind ToastKind, title, message string) Toast {
	d := DefaultToastDuration
	if kind == ToastKindError || kind == ToastKindWarning {
		d = ErrorToastDuration
	}
	return Toast{
		ID:        uuid.NewString(),
		Kind:      kind,
		Title:     title,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  d,
	}
}

// IsExpired reports whether the toast should be dismissed at now.
func (t Toast) IsExpired(now time.Time) bool {
	return now.Sub(t.CreatedAt) >= t.Duration
}

// TimeRemaining returns the time left before auto-dismiss.
func (t Toast) TimeRemaining(now time.Time) time.Duration {
	return max(t.Duration-now.Sub(t.CreatedAt), 0)
}

// =============================================================================
// TOAST MANAGER
// =============================================================================

// ToastManager keeps the visible toasts, newest first.
type ToastManager struct {
	mu     sync.Mutex
	toasts []Toast
}

// NewToastManager creates an empty manager.
func NewToastManager() *ToastManager {
	return &ToastManager{}
}

// Add pushes t and drops the oldest toasts beyond MaxToasts.
func (m *ToastManager) Add(t Toast) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	m.toasts = append([]Toast{t}, m.toasts...)
	if len(m.toasts) > MaxToasts {
		m.toasts = m.toasts[:MaxToasts]
	}
	return t.ID
}

// Success adds a success toast.
func (m *ToastManager) Success(title, message string) string {
	return m.Add(NewToast(ToastKindSuccess, title, message))
}

// Error adds an error toast.
func (m *ToastManager) Error(title, message string) string {
	return m.Add(NewToast(ToastKindError, title, message))
}

// Info adds an info toast.
func (m *ToastManager) Info(title, message string) string {
	return m.Add(NewToast(ToastKindInfo, title, message))
}

// Dismiss removes the toast with id.
func (m *ToastManager) Dismiss(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.toasts {
		if t.ID == id {
			m.toasts = append(m.toasts[:i], m.toasts[i+1:]...)
			return
		}
	}
}

// DismissAll removes every toast.
func (m *ToastManager) DismissAll() {
	m.mu.Lock()
	m.toasts = nil
	m.mu.Unlock()
}

// Tick drops toasts expired at now and reports whether any remain.
func (m *ToastManager) Tick(now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	active := m.toasts[:0]
	for _, t := range m.toasts {
		if !t.IsExpired(now) {
			active = append(active, t)
		}
	}
	m.toasts = active
	return len(m.toasts) > 0
}

// Toasts returns a copy of the visible toasts, newest first.
func (m *ToastManager) Toasts() []Toast {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Toast, len(m.toasts))
	copy(out, m.toasts)
	return out
}

// Len returns the number of visible toasts.
func (m *ToastManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.toasts)
}

// =============================================================================
// MESSAGES
// =============================================================================

// ToastTickMsg drives expiry.
type ToastTickMsg struct {
	Time time.Time
}

// ToastTickCmd ticks every 250ms while toasts are visible.
func ToastTickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return ToastTickMsg{Time: t}
	})
}

// =============================================================================
// RENDERING
// =============================================================================

// RenderToast renders a single toast no wider than width allows.
func RenderToast(t Toast, width int, now time.Time) string {
	maxWidth := 56
	if width > 0 && width-4 < maxWidth {
		maxWidth = width - 4
	}
	maxWidth = max(maxWidth, 24)

	var color lipgloss.AdaptiveColor
	var marker string
	switch t.Kind {
	case ToastKindSuccess:
		color, marker = styles.Emerald, styles.StatusIndicators.Success
	case ToastKindWarning:
		color, marker = styles.Amber, styles.StatusIndicators.Warning
	case ToastKindError:
		color, marker = styles.Rose, styles.StatusIndicators.Error
	default:
		color, marker = styles.Sky, styles.StatusIndicators.Info
	}

	head := lipgloss.NewStyle().Foreground(color).Bold(true).Render(marker + " " + t.Title)
	lines := []string{head}
	if t.Message != "" {
		body := lipgloss.NewStyle().
			Foreground(styles.TextPrimary).
			Width(maxWidth - 4).
			Render(t.Message)
		lines = append(lines, body)
	}
	if secs := int(t.TimeRemaining(now).Seconds()); secs > 0 {
		hint := lipgloss.NewStyle().Foreground(styles.TextMuted).Italic(true).
			Render("[x] fermer  " + strconv.Itoa(secs) + "s")
		lines = append(lines, hint)
	}

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(0, 1).
		MaxWidth(maxWidth).
		Render(strings.Join(lines, "\n"))
}

// RenderToastStack renders toasts stacked vertically, right aligned, oldest
// on top.
func RenderToastStack(toasts []Toast, width int, now time.Time) string {
	if len(toasts) == 0 {
		return ""
	}
	rendered := make([]string, 0, len(toasts))
	for i := len(toasts) - 1; i >= 0; i-- {
		rendered = append(rendered, RenderToast(toasts[i], width, now))
	}
	stack := lipgloss.JoinVertical(lipgloss.Right, rendered...)
	if width > 0 {
		return lipgloss.PlaceHorizontal(width, lipgloss.Right, stack)
	}
	return stack
}
