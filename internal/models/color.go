package models

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// Color is an RGBA colour. The zero value is the empty colour.
type Color struct {
	R, G, B, A uint8
}

func (c Color) IsEmpty() bool { return c == Color{} }

// Hex renders #rrggbbaa, or "" for the empty colour.
func (c Color) Hex() string {
	if c.IsEmpty() {
		return ""
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

func (c Color) String() string { return c.Hex() }

// ParseColor understands #rrggbb, #rrggbbaa, r,g,b, r,g,b,a, rgb(...) and rgba(...).
// Alpha values at or below 1 are read as a fraction. Anything else yields the empty colour.
func ParseColor(s string) Color {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return Color{}
	}
	if strings.HasPrefix(s, "#") {
		return parseHexColor(s[1:])
	}
	s = strings.TrimPrefix(s, "rgba")
	s = strings.TrimPrefix(s, "rgb")
	s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	parts := strings.Split(s, ",")
	if len(parts) != 3 && len(parts) != 4 {
		return Color{}
	}
	var c Color
	channels := []*uint8{&c.R, &c.G, &c.B}
	for i, ch := range channels {
		n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil || n < 0 || n > 255 {
			return Color{}
		}
		*ch = uint8(n)
	}
	c.A = 255
	if len(parts) == 4 {
		a, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err != nil || a < 0 {
			return Color{}
		}
		switch {
		case a <= 1:
			c.A = uint8(a*255 + 0.5)
		case a <= 255:
			c.A = uint8(a)
		default:
			return Color{}
		}
	}
	return c
}

func parseHexColor(s string) Color {
	if len(s) != 6 && len(s) != 8 {
		return Color{}
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return Color{}
	}
	c := Color{R: b[0], G: b[1], B: b[2], A: 255}
	if len(b) == 4 {
		c.A = b[3]
	}
	return c
}
