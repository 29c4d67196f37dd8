package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/diceroll/internal/viz"
)

// Palette cycles per series in HeightsToSVG.
var Palette = []string{"#00ff88", "#00ccff", "#ff00ff", "#ffcc00", "#ff4444"}

// CanvasToSVG converts a braille canvas to SVG, one circle per lit dot.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	dw, dh := canvas.Dots()
	width := float64(dw) * scale
	height := float64(dh) * scale

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g fill="#00ff00">
`, width, height, width, height)

	r := scale * 0.4
	for y := 0; y < dh; y++ {
		for x := 0; x < dw; x++ {
			if !canvas.IsSet(x, y) {
				continue
			}
			cx := float64(x)*scale + scale/2
			cy := float64(y)*scale + scale/2
			fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, r)
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// Series is one named curve of (t, y) samples.
type Series struct {
	Name string
	T, Y []float64
}

// HeightsToSVG plots every series on shared axes with 10% padding. Series
// with fewer than two samples are skipped; if none remain the result is "".
func HeightsToSVG(series []Series, width, height int) string {
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	drawn := 0
	for _, s := range series {
		n := min(len(s.T), len(s.Y))
		if n < 2 {
			continue
		}
		drawn++
		for i := 0; i < n; i++ {
			minX, maxX = math.Min(minX, s.T[i]), math.Max(maxX, s.T[i])
			minY, maxY = math.Min(minY, s.Y[i]), math.Max(maxY, s.Y[i])
		}
	}
	if drawn == 0 {
		return ""
	}

	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	minY -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	i := 0
	for _, s := range series {
		n := min(len(s.T), len(s.Y))
		if n < 2 {
			continue
		}
		color := Palette[i%len(Palette)]
		i++
		fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" data-die="%s" d="M`, color, s.Name)
		for j := 0; j < n; j++ {
			x := (s.T[j] - minX) / rangeX * float64(width)
			y := float64(height) - (s.Y[j]-minY)/rangeY*float64(height)
			if j == 0 {
				fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
			} else {
				fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
			}
		}
		sb.WriteString("\"/>\n")
	}

	sb.WriteString("</svg>")
	return sb.String()
}
