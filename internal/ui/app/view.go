// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/exportdesk/internal/ui/components"
)

// View implements tea.Model.
func (m *Model) View() string {
	t := m.theme
	header := m.header.View()
	status := m.status.View()

	var body string
	if m.button.DialogOpen() {
		body = m.button.DialogView()
	} else {
		body = m.viewHome()
	}

	toasts := components.RenderToastStack(m.toasts.Toasts(), m.width, time.Now())

	sections := []string{header, "", body}
	if m.height > 0 {
		used := lipgloss.Height(header) + 1 + lipgloss.Height(body) + lipgloss.Height(status)
		if toasts != "" {
			used += lipgloss.Height(toasts)
		}
		if gap := m.height - used; gap > 0 {
			sections = append(sections, strings.Repeat("\n", gap-1))
		}
	}
	if toasts != "" {
		sections = append(sections, toasts)
	}
	sections = append(sections, status)
	return t.App.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m *Model) viewHome() string {
	t := m.theme
	var lines []string
	if len(m.rows) == 0 {
		lines = append(lines, t.WarningStyle.Render("Aucune donnée à exporter."))
	} else {
		lines = append(lines, t.StatsLabel.Render(components.Plural(len(m.rows), "ligne prête", "lignes prêtes")+" à l'export"))
	}
	lines = append(lines, "", m.button.View(), "")
	if len(m.rows) > 0 {
		lines = append(lines, t.Hint.Render("Appuyez sur e pour configurer l'export."))
	}
	return strings.Join(lines, "\n")
}
