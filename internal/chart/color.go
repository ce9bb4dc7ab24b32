// Package chart builds the renderer-boundary output: display color
// sequences and chart specifications the UI collaborator turns into pixels.
package chart

import "fmt"

// rgb is one display color, hex-rendered for the wire.
type rgb struct {
	r, g, b int
}

func (c rgb) hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.r, c.g, c.b)
}

// Gradient endpoints and highlights.
var (
	highlight = rgb{0x00, 0x00, 0x00} // first bar
	darkGray  = rgb{0x2f, 0x2f, 0x2f}
	lightGray = rgb{0xbf, 0xbf, 0xbf}

	deepPink  = rgb{0xec, 0x5e, 0x98} // comparison board maximum
	lightPink = rgb{0xff, 0xca, 0xe0}
)

// GradientGray returns n display colors: the first a fixed black highlight,
// the remaining n-1 a linear interpolation per RGB channel between dark and
// light gray, evenly spaced from t=0 to t=1 inclusive. Channel values
// truncate to integers.
func GradientGray(n int) []string {
	if n <= 0 {
		return []string{}
	}

	colors := make([]string, 0, n)
	colors = append(colors, highlight.hex())

	rest := n - 1
	for i := 0; i < rest; i++ {
		t := 0.0
		if rest > 1 {
			t = float64(i) / float64(rest-1)
		}
		colors = append(colors, lerp(darkGray, lightGray, t).hex())
	}

	return colors
}

// HighlightMax returns one color per value: deep pink at the first maximum,
// light pink everywhere else.
func HighlightMax(values []int64) []string {
	colors := make([]string, len(values))
	if len(values) == 0 {
		return colors
	}

	maxIdx := 0
	for i, v := range values {
		if v > values[maxIdx] {
			maxIdx = i
		}
	}

	for i := range colors {
		if i == maxIdx {
			colors[i] = deepPink.hex()
		} else {
			colors[i] = lightPink.hex()
		}
	}
	return colors
}

// lerp interpolates each channel independently, truncating to integer.
func lerp(from, to rgb, t float64) rgb {
	return rgb{
		r: from.r + int(float64(to.r-from.r)*t),
		g: from.g + int(float64(to.g-from.g)*t),
		b: from.b + int(float64(to.b-from.b)*t),
	}
}
