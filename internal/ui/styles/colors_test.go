// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestPaletteDefinesBothHalves(t *testing.T) {
	colors := map[string]lipgloss.AdaptiveColor{
		"Indigo":        Indigo,
		"IndigoDeep":    IndigoDeep,
		"Sky":           Sky,
		"Emerald":       Emerald,
		"Rose":          Rose,
		"Amber":         Amber,
		"Surface":       Surface,
		"SurfaceDim":    SurfaceDim,
		"Overlay":       Overlay,
		"OverlayDim":    OverlayDim,
		"TextPrimary":   TextPrimary,
		"TextSecondary": TextSecondary,
		"TextMuted":     TextMuted,
		"TextInverse":   TextInverse,
	}
	for name, c := range colors {
		assert.NotEmpty(t, c.Light, "%s light", name)
		assert.NotEmpty(t, c.Dark, "%s dark", name)
	}
}

func TestStatusIndicatorsUnique(t *testing.T) {
	all := []string{
		StatusIndicators.Success,
		StatusIndicators.Error,
		StatusIndicators.Warning,
		StatusIndicators.Info,
		StatusIndicators.Pending,
	}
	seen := map[string]bool{}
	for _, s := range all {
		assert.NotEmpty(t, s)
		assert.False(t, seen[s], "duplicate indicator %q", s)
		seen[s] = true
	}
}

func TestRenderHelpers(t *testing.T) {
	tests := []struct {
		name   string
		render func(string) string
		marker string
	}{
		{"success", RenderSuccess, StatusIndicators.Success},
		{"error", RenderError, StatusIndicators.Error},
		{"warning", RenderWarning, StatusIndicators.Warning},
		{"info", RenderInfo, StatusIndicators.Info},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.render("Export terminé")
			assert.Contains(t, out, tt.marker)
			assert.Contains(t, out, "Export terminé")
		})
	}
}

func TestRenderStatus(t *testing.T) {
	assert.Contains(t, RenderStatus(true, "ok"), StatusIndicators.Success)
	assert.Contains(t, RenderStatus(false, "ko"), StatusIndicators.Error)
}

func TestSwatch(t *testing.T) {
	t.Run("valid color keeps width", func(t *testing.T) {
		out := Swatch("#4F46E5", 4)
		assert.Equal(t, 4, lipgloss.Width(out))
		assert.NotContains(t, out, "/")
	})

	t.Run("short hex", func(t *testing.T) {
		assert.Equal(t, 2, lipgloss.Width(Swatch("#fff", 2)))
	})

	t.Run("invalid color is hatched", func(t *testing.T) {
		out := Swatch("bleu", 3)
		assert.Contains(t, out, strings.Repeat("/", 3))
	})

	t.Run("width clamps to one", func(t *testing.T) {
		assert.Equal(t, 1, lipgloss.Width(Swatch("#000000", 0)))
	})
}
