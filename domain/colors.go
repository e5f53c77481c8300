package domain

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// Color is one palette entry. Luminance is the WCAG relative luminance,
// derived once at construction; the palette is process-wide static data.
type Color struct {
	Name      string
	Hex       string
	Luminance float64
}

// ContrastRatio returns the WCAG contrast ratio between c and other,
// always expressed as lighter over darker, so the result is in [1, 21].
func (c Color) ContrastRatio(other Color) float64 {
	lighter := math.Max(c.Luminance, other.Luminance)
	darker := math.Min(c.Luminance, other.Luminance)
	return (lighter + 0.05) / (darker + 0.05)
}

func (c Color) String() string {
	return fmt.Sprintf("%s (%s)", c.Name, c.Hex)
}

// NewColor builds a palette entry from a "#rrggbb" hex code.
func NewColor(name, hex string) (Color, error) {
	r, g, b, err := splitHex(hex)
	if err != nil {
		return Color{}, err
	}
	return Color{Name: name, Hex: hex, Luminance: relativeLuminance(r, g, b)}, nil
}

func splitHex(hex string) (r, g, b uint8, err error) {
	s := strings.TrimPrefix(hex, "#")
	if len(s) != 6 {
		return 0, 0, 0, fmt.Errorf("hex color must be 6 digits, got %q", hex)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid hex color %q: %w", hex, err)
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v), nil
}

// relativeLuminance implements the WCAG 2.x formula: each sRGB channel is
// linearized, then weighted 0.2126/0.7152/0.0722.
func relativeLuminance(r, g, b uint8) float64 {
	return 0.2126*linearize(r) + 0.7152*linearize(g) + 0.0722*linearize(b)
}

func linearize(channel uint8) float64 {
	c := float64(channel) / 255
	if c <= 0.03928 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}

func mustColor(name, hex string) Color {
	c, err := NewColor(name, hex)
	if err != nil {
		panic(err)
	}
	return c
}

// White and Black are the palette anchors: white is the assumed chat
// background, black is the fixed color of server-authored messages.
var (
	White = mustColor("White", "#FFFFFF")
	Black = mustColor("Black", "#000000")
)

// palette is the fixed set of named display colors.
var palette = []Color{
	mustColor("Aqua", "#00FFFF"),
	mustColor("Azure", "#F0FFFF"),
	mustColor("Beige", "#F5F5DC"),
	Black,
	mustColor("Blue", "#0000FF"),
	mustColor("Brown", "#A52A2A"),
	mustColor("Cyan", "#00FFFF"),
	mustColor("Dark Blue", "#00008B"),
	mustColor("Dark Cyan", "#008B8B"),
	mustColor("Dark Grey", "#A9A9A9"),
	mustColor("Dark Green", "#006400"),
	mustColor("Dark Khaki", "#BDB76B"),
	mustColor("Dark Magenta", "#8B008B"),
	mustColor("Dark Olive Green", "#556B2F"),
	mustColor("Dark Orange", "#FF8C00"),
	mustColor("Dark Orchid", "#9932CC"),
	mustColor("Dark Red", "#8B0000"),
	mustColor("Dark Salmon", "#E9967A"),
	mustColor("Dark Violet", "#9400D3"),
	mustColor("Fuchsia", "#FF00FF"),
	mustColor("Gold", "#FFD700"),
	mustColor("Green", "#008000"),
	mustColor("Indigo", "#4B0082"),
	mustColor("Khaki", "#F0E68C"),
	mustColor("Light Blue", "#ADD8E6"),
	mustColor("Light Cyan", "#E0FFFF"),
	mustColor("Light Green", "#90EE90"),
	mustColor("Light Grey", "#D3D3D3"),
	mustColor("Light Pink", "#FFB6C1"),
	mustColor("Light Yellow", "#FFFFE0"),
	mustColor("Lime", "#00FF00"),
	mustColor("Magenta", "#FF00FF"),
	mustColor("Maroon", "#800000"),
	mustColor("Navy", "#000080"),
	mustColor("Olive", "#808000"),
	mustColor("Orange", "#FFA500"),
	mustColor("Pink", "#FFC0CB"),
	mustColor("Purple", "#800080"),
	mustColor("Violet", "#EE82EE"),
	mustColor("Red", "#FF0000"),
	mustColor("Silver", "#C0C0C0"),
	White,
	mustColor("Yellow", "#FFFF00"),
}

// Palette returns a copy of the full color palette.
func Palette() []Color {
	out := make([]Color, len(palette))
	copy(out, palette)
	return out
}

// HasContrast returns the palette entries whose contrast ratio against
// background is at least minRatio.
func HasContrast(minRatio float64, background Color) []Color {
	return lo.Filter(palette, func(c Color, _ int) bool {
		return c.ContrastRatio(background) >= minRatio
	})
}

// RandomLegible draws a uniformly random color readable against white.
// If minRatio filters out the whole palette it falls back to black,
// which holds the maximum possible ratio.
func RandomLegible(minRatio float64) Color {
	legible := HasContrast(minRatio, White)
	if len(legible) == 0 {
		return Black
	}
	return legible[rand.Intn(len(legible))]
}
