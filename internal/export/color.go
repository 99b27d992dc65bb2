// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strconv"
	"strings"
)

// RGB is an 8-bit color triple.
type RGB struct {
	R, G, B int
}

// Hex returns the color as "#rrggbb".
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// HexNoHash returns the color as "RRGGBB" for spreadsheet styles.
func (c RGB) HexNoHash() string {
	return fmt.Sprintf("%02X%02X%02X", c.R, c.G, c.B)
}

// Fallback colors used when a theme color cannot be parsed.
var (
	FallbackPrimary          = RGB{0x4f, 0x46, 0xe5}
	FallbackHeaderBackground = RGB{0x4f, 0x46, 0xe5}
	FallbackHeaderText       = RGB{0xff, 0xff, 0xff}
	FallbackAlternateRow     = RGB{0xf5, 0xf7, 0xfa}
	FallbackText             = RGB{0x00, 0x00, 0x00}
)

// ParseHex parses "#rgb" or "#rrggbb" (the leading '#' is optional).
func ParseHex(s string) (RGB, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return RGB{}, fmt.Errorf("invalid hex color %q", s)
	}
	n, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("invalid hex color %q", s)
	}
	return RGB{R: int(n >> 16 & 0xff), G: int(n >> 8 & 0xff), B: int(n & 0xff)}, nil
}

// ParseHexColor parses s, returning fallback unchanged when s is malformed.
func ParseHexColor(s string, fallback RGB) RGB {
	c, err := ParseHex(s)
	if err != nil {
		return fallback
	}
	return c
}

// IsHexColor reports whether s parses as a hex color.
func IsHexColor(s string) bool {
	_, err := ParseHex(s)
	return err == nil
}
