// Package tui renders a running simulation to the terminal, adapted from
// the teacher's internal/tui/live.go and interactive.go: the same
// fixed-grid ASCII canvas and charmbracelet/bubbletea menu shell, now fed
// by engine.TelemetryRow instead of sim.State/sim.Control.
package tui

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	width       = 70
	height      = 20
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

// LiveRenderer draws one frame per OnStep call, throttled to frameRate Hz,
// picking a per-model drawing routine by name.
type LiveRenderer struct {
	model     string
	frameRate int
	lastFrame time.Time
	canvas    [][]rune
	trail     []struct{ x, y int }
}

func NewLiveRenderer(model string, frameRate int) *LiveRenderer {
	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
	}
	return &LiveRenderer{
		model:     model,
		frameRate: frameRate,
		canvas:    canvas,
		trail:     make([]struct{ x, y int }, 0, 50),
	}
}

// OnStep is called with one accepted step's configuration q, velocity v
// and time t, and redraws at most frameRate times per second.
func (r *LiveRenderer) OnStep(q, v []float64, t float64) {
	elapsed := time.Since(r.lastFrame)
	if elapsed < time.Second/time.Duration(r.frameRate) {
		return
	}
	r.lastFrame = time.Now()

	r.clear()

	switch r.model {
	case "pendulum":
		r.drawPendulum(q)
	case "double_pendulum":
		r.drawDoublePendulum(q)
	case "cartpole":
		r.drawCartpole(q)
	case "free_body":
		r.drawFreeBody(q)
	default:
		r.drawGeneric(q)
	}

	r.render(q, v, t)
}

func (r *LiveRenderer) clear() {
	for y := range r.canvas {
		for x := range r.canvas[y] {
			r.canvas[y][x] = ' '
		}
	}
}

func (r *LiveRenderer) set(x, y int, c rune) {
	if x >= 0 && x < width && y >= 0 && y < height {
		r.canvas[y][x] = c
	}
}

func (r *LiveRenderer) line(x1, y1, x2, y2 int, c rune) {
	dx := abs(x2 - x1)
	dy := abs(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy
	for {
		r.set(x1, y1, c)
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

func (r *LiveRenderer) drawPendulum(q []float64) {
	if len(q) < 1 {
		return
	}
	theta := q[0]
	px, py := width/2, 3
	length := 10.0
	bx := px + int(length*math.Sin(theta))
	by := py + int(length*math.Cos(theta))

	r.trail = append(r.trail, struct{ x, y int }{bx, by})
	if len(r.trail) > 40 {
		r.trail = r.trail[1:]
	}

	for i, pt := range r.trail {
		if i < len(r.trail)/2 {
			r.set(pt.x, pt.y, '.')
		} else {
			r.set(pt.x, pt.y, 'o')
		}
	}

	r.set(px, py, '+')
	r.line(px, py, bx, by, '|')
	r.set(bx, by, 'O')
}

func (r *LiveRenderer) drawDoublePendulum(q []float64) {
	if len(q) < 2 {
		return
	}
	t1, t2 := q[0], q[1]
	px, py := width/2, 2
	length := 6.0

	b1x := px + int(length*math.Sin(t1))
	b1y := py + int(length*math.Cos(t1))
	b2x := b1x + int(length*math.Sin(t2))
	b2y := b1y + int(length*math.Cos(t2))

	r.trail = append(r.trail, struct{ x, y int }{b2x, b2y})
	if len(r.trail) > 50 {
		r.trail = r.trail[1:]
	}

	for _, pt := range r.trail {
		r.set(pt.x, pt.y, '.')
	}

	r.set(px, py, '+')
	r.line(px, py, b1x, b1y, '|')
	r.set(b1x, b1y, 'o')
	r.line(b1x, b1y, b2x, b2y, '|')
	r.set(b2x, b2y, 'O')
}

func (r *LiveRenderer) drawCartpole(q []float64) {
	if len(q) < 2 {
		return
	}
	pos, theta := q[0], q[1]
	gy := height - 4
	cx := width/2 + int(pos*8)

	for i := 5; i < width-5; i++ {
		r.set(i, gy+1, '=')
	}
	for dx := -3; dx <= 3; dx++ {
		r.set(cx+dx, gy, '#')
	}

	plen := 8.0
	px := cx + int(plen*math.Sin(theta))
	py := gy - int(plen*math.Cos(theta))
	r.line(cx, gy-1, px, py, '|')
	r.set(px, py, 'o')
}

func (r *LiveRenderer) drawFreeBody(q []float64) {
	if len(q) < 3 {
		return
	}
	x, _, z := q[0], q[1], q[2]
	gy := height - 3
	for i := 3; i < width-3; i++ {
		r.set(i, gy+1, '_')
	}

	bx := width/2 + int(x*8)
	by := gy - int(z*8)

	r.trail = append(r.trail, struct{ x, y int }{bx, by})
	if len(r.trail) > 40 {
		r.trail = r.trail[1:]
	}
	for _, pt := range r.trail {
		r.set(pt.x, pt.y, '.')
	}
	r.set(bx, by, 'O')
}

func (r *LiveRenderer) drawGeneric(q []float64) {
	cy := height / 2
	for i := 5; i < width-5; i++ {
		r.set(i, cy, '-')
	}

	if len(q) == 0 {
		return
	}

	bw := (width - 15) / len(q)
	if bw < 3 {
		bw = 3
	}

	maxVal := 1.0
	for _, val := range q {
		if math.Abs(val) > maxVal {
			maxVal = math.Abs(val)
		}
	}

	for i, val := range q {
		bx := 8 + i*bw
		bh := int((val / maxVal) * float64(height/3))
		if bh > 0 {
			for y := cy - 1; y >= cy-bh && y >= 1; y-- {
				r.set(bx, y, '#')
			}
		} else {
			for y := cy + 1; y <= cy-bh && y < height-1; y++ {
				r.set(bx, y, '#')
			}
		}
	}
}

func (r *LiveRenderer) render(q, v []float64, t float64) {
	var b strings.Builder
	b.WriteString(clearScreen)
	b.WriteString(fmt.Sprintf("  %s  t=%.2fs\n", r.model, t))
	b.WriteString("  " + strings.Repeat("-", width) + "\n")

	for _, row := range r.canvas {
		b.WriteString("  ")
		b.WriteString(string(row))
		b.WriteString("\n")
	}

	b.WriteString("  " + strings.Repeat("-", width) + "\n")

	stateStr := "  "
	for i, val := range q {
		if i >= 4 {
			break
		}
		stateStr += fmt.Sprintf("q%d=%.2f ", i, val)
	}
	for i, val := range v {
		if i >= 4 {
			break
		}
		stateStr += fmt.Sprintf("v%d=%.2f ", i, val)
	}
	b.WriteString(stateStr + "\n")

	fmt.Print(b.String())
}

func (r *LiveRenderer) Start() { fmt.Print(hideCursor) }
func (r *LiveRenderer) Stop()  { fmt.Print(showCursor) }

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
