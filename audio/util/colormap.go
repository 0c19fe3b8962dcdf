package util

import (
	"fmt"
	"image/color"
	"strings"

	hsluv "github.com/hsluv/hsluv-go"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// ParseColor reads a color given either as "#rrggbb" or as "hsluv(h, s, l)"
// with h in [0,360) and s, l in [0,100]. The result is always opaque.
func ParseColor(s string) (color.RGBA, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "hsluv(") && strings.HasSuffix(s, ")") {
		var h, sat, l float64
		inner := strings.TrimSuffix(strings.TrimPrefix(s, "hsluv("), ")")
		if _, err := fmt.Sscanf(strings.ReplaceAll(inner, ",", " "), "%g %g %g", &h, &sat, &l); err != nil {
			return color.RGBA{}, fmt.Errorf("bad hsluv color %q: %w", s, err)
		}
		r, g, b := hsluv.HsluvToRGB(h, sat, l)
		return toRGBA(colorful.Color{R: r, G: g, B: b}), nil
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("bad color %q: %w", s, err)
	}
	return toRGBA(c), nil
}

// MustParseColor is ParseColor for literals; it panics on error.
func MustParseColor(s string) color.RGBA {
	c, err := ParseColor(s)
	if err != nil {
		panic("MustParseColor: " + err.Error())
	}
	return c
}

func toRGBA(c colorful.Color) color.RGBA {
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{r, g, b, 255}
}
