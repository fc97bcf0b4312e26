// Package export renders telemetry tables to SVG, adapted from the
// teacher's internal/export/svg.go TrajectoryToSVG path (the sibling
// CanvasToSVG, which rasterized the teacher's Braille viz.Canvas, has no
// equivalent here since this module's terminal rendering in internal/tui
// draws directly onto a plain rune grid rather than a Braille canvas).
package export

import (
	"fmt"
	"strings"
)

// Point is one (x, y) sample of a plotted trajectory or time series.
type Point struct{ X, Y float64 }

// TrajectoryToSVG renders a single polyline through points, auto-scaled to
// fit width x height with a 10% margin.
func TrajectoryToSVG(points []Point, width, height int, strokeColor string) string {
	if len(points) < 2 {
		return ""
	}

	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor))

	for i, p := range points {
		x := (p.X - minX) / rangeX * float64(width)
		y := float64(height) - (p.Y-minY)/rangeY*float64(height)

		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}

// palette cycles through a small fixed set of line colors for TableToSVG's
// multi-series plot, same idea as TrajectoryToSVG's single strokeColor
// argument but extended to N columns.
var palette = []string{"#00ff88", "#ff6b6b", "#4dabf7", "#ffd43b", "#c084fc", "#ff922b"}

// TableToSVG plots one or more telemetry columns against time on a shared
// axis, as produced by engine.TelemetryBridge.Table(). col is 0-based into
// each row after the leading time value; names labels the legend.
func TableToSVG(table [][]float64, cols []int, names []string, width, height int) string {
	if len(table) < 2 || len(cols) == 0 {
		return ""
	}

	minY, maxY := table[0][cols[0]+1], table[0][cols[0]+1]
	minX, maxX := table[0][0], table[len(table)-1][0]
	for _, row := range table {
		for _, c := range cols {
			idx := c + 1
			if idx >= len(row) {
				continue
			}
			if row[idx] < minY {
				minY = row[idx]
			}
			if row[idx] > maxY {
				maxY = row[idx]
			}
		}
	}
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	for ci, c := range cols {
		color := palette[ci%len(palette)]
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, color))
		idx := c + 1
		started := false
		for _, row := range table {
			if idx >= len(row) {
				continue
			}
			x := (row[0] - minX) / rangeX * float64(width)
			y := float64(height) - (row[idx]-minY)/rangeY*float64(height)
			if !started {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
				started = true
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
			}
		}
		sb.WriteString(`"/>` + "\n")
	}

	legendY := 14
	for ci, name := range names {
		color := palette[ci%len(palette)]
		sb.WriteString(fmt.Sprintf(`<text x="8" y="%d" fill="%s" font-size="12" font-family="monospace">%s</text>`+"\n",
			legendY+ci*14, color, name))
	}

	sb.WriteString("</svg>")
	return sb.String()
}
