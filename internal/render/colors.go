package render

import (
	"math"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

// plasma samples the matplotlib "plasma" colour map at 0.0, 0.1, ... 1.0.
var plasma = []drawing.Color{
	drawing.ColorFromHex("0d0887"),
	drawing.ColorFromHex("41049d"),
	drawing.ColorFromHex("6a00a8"),
	drawing.ColorFromHex("8f0da4"),
	drawing.ColorFromHex("b12a90"),
	drawing.ColorFromHex("cc4778"),
	drawing.ColorFromHex("e16462"),
	drawing.ColorFromHex("f2844b"),
	drawing.ColorFromHex("fca636"),
	drawing.ColorFromHex("fcce25"),
	drawing.ColorFromHex("f0f921"),
}

// rampColor interpolates the plasma ramp at t in [0, 1].
func rampColor(t float64) drawing.Color {
	t = math.Max(0, math.Min(1, t))
	pos := t * float64(len(plasma)-1)
	i := int(math.Floor(pos))
	if i >= len(plasma)-1 {
		return plasma[len(plasma)-1]
	}
	frac := pos - float64(i)
	a, b := plasma[i], plasma[i+1]
	lerp := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*frac))
	}
	return drawing.Color{R: lerp(a.R, b.R), G: lerp(a.G, b.G), B: lerp(a.B, b.B), A: 255}
}

// bandColors spreads n colours evenly from the dark to the bright end.
func bandColors(n int) []drawing.Color {
	colors := make([]drawing.Color, n)
	for i := range colors {
		t := 0.0
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		colors[i] = rampColor(t)
	}
	return colors
}
