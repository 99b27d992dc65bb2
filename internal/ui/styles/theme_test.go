// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewThemeFor(t *testing.T) {
	t.Cleanup(func() { lipgloss.SetHasDarkBackground(true) })

	dark := NewThemeFor("dark")
	require.NotNil(t, dark)
	assert.True(t, dark.IsDark)
	assert.True(t, lipgloss.HasDarkBackground())

	light := NewThemeFor("light")
	assert.False(t, light.IsDark)
	assert.False(t, lipgloss.HasDarkBackground())
}

func TestNewThemeAuto(t *testing.T) {
	theme := NewTheme()
	require.NotNil(t, theme)
	assert.Zero(t, theme.Width)
	assert.Zero(t, theme.Height)
}

func TestThemeStylesRender(t *testing.T) {
	theme := NewThemeFor("dark")
	styles := map[string]lipgloss.Style{
		"HeaderTitle":    theme.HeaderTitle,
		"Tab":            theme.Tab,
		"TabActive":      theme.TabActive,
		"Label":          theme.Label,
		"Button":         theme.Button,
		"ButtonFocused":  theme.ButtonFocused,
		"ButtonDisabled": theme.ButtonDisabled,
		"PreviewHeader":  theme.PreviewHeader,
		"PreviewNote":    theme.PreviewNote,
		"ErrorStyle":     theme.ErrorStyle,
	}
	for name, s := range styles {
		assert.Contains(t, s.Render("Aperçu"), "Aperçu", name)
	}
}

func TestLabelHasFixedWidth(t *testing.T) {
	theme := NewThemeFor("dark")
	assert.Equal(t, lipgloss.Width(theme.Label.Render("Titre")), lipgloss.Width(theme.LabelFocus.Render("Titre")))
}

func TestThemeGetLayoutMode(t *testing.T) {
	theme := NewThemeFor("dark")
	tests := []struct {
		width int
		want  LayoutMode
	}{
		{0, LayoutNarrow},
		{59, LayoutNarrow},
		{60, LayoutMedium},
		{99, LayoutMedium},
		{100, LayoutWide},
		{200, LayoutWide},
	}
	for _, tt := range tests {
		theme.SetSize(tt.width, 40)
		assert.Equal(t, tt.want, theme.GetLayoutMode(), "width %d", tt.width)
	}
	assert.Equal(t, 40, theme.Height)
}
