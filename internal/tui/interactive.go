package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/dynsim/internal/config"
	"github.com/san-kum/dynsim/internal/engine"
	"github.com/san-kum/dynsim/internal/registry"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
)

var modelInfo = map[string]string{
	"pendulum":        "single-link revolute chain",
	"double_pendulum": "two-link chaotic chain",
	"cartpole":        "actuated cart, free pole",
	"free_body":       "unconstrained 6-dof rigid body",
}

var stateLabels = map[string][]string{
	"pendulum":        {"θ", "ω"},
	"double_pendulum": {"θ₁", "θ₂", "ω₁", "ω₂"},
	"cartpole":        {"x", "θ", "ẋ", "ω"},
	"free_body":       {"x", "y", "z", "vx", "vy", "vz"},
}

type appState int

const (
	stateMenu appState = iota
	stateConfig
	stateSim
)

type model struct {
	state    appState
	cursor   int
	models   []string
	selected string

	params      map[string]float64
	paramNames  []string
	paramCursor int
	editing     bool
	editBuf     string

	running bool
	paused  bool

	eng     *engine.EngineFacade
	reg     *registry.Registry
	cfg     *config.Config
	simTime float64
	q, v    []float64

	speed     float64
	trail     []trailPoint
	history   []float64
	lastFrame time.Time
	fps       float64

	width  int
	height int
}

type trailPoint struct {
	x, y     float64
	velocity float64
}

func NewInteractiveApp() *model {
	return &model{
		state:  stateMenu,
		models: []string{"pendulum", "double_pendulum", "cartpole", "free_body"},
		params: map[string]float64{
			"q0": 0.5, "q1": 0.0, "v0": 0.0, "v1": 0.0, "duration": 30.0,
		},
		paramNames: []string{"q0", "v0", "duration"},
		reg:        registry.NewRegistry(),
		speed:      1.0,
		trail:      make([]trailPoint, 0, 100),
		history:    make([]float64, 0, 60),
		width:      80,
		height:     24,
	}
}

func (m model) Init() tea.Cmd { return nil }

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(16*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		if m.state != stateSim {
			return m, nil
		}
		if m.running && !m.paused && m.eng != nil {
			now := time.Now()
			if !m.lastFrame.IsZero() {
				dt := now.Sub(m.lastFrame).Seconds()
				if dt > 0 {
					m.fps = 1.0 / dt
				}
			}
			m.lastFrame = now
			steps := int(m.speed)
			if steps < 1 {
				steps = 1
			}
			for i := 0; i < steps; i++ {
				m.step()
			}
		}
		if m.running && m.state == stateSim {
			return m, tick()
		}
		return m, nil
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch m.state {
	case stateMenu:
		return m.menuKey(msg)
	case stateConfig:
		return m.configKey(msg)
	case stateSim:
		return m.simKey(msg)
	}
	return m, nil
}

func (m model) menuKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.models)-1 {
			m.cursor++
		}
	case "enter", " ":
		m.selected = m.models[m.cursor]
		m.state = stateConfig
		m.paramCursor = 0
		m.setParamsForModel()
	}
	return m, nil
}

func (m model) configKey(msg tea.KeyMsg) (model, tea.Cmd) {
	if m.editing {
		switch msg.String() {
		case "enter":
			var val float64
			fmt.Sscanf(m.editBuf, "%f", &val)
			m.params[m.paramNames[m.paramCursor]] = val
			m.editing = false
			m.editBuf = ""
		case "escape":
			m.editing = false
			m.editBuf = ""
		case "backspace":
			if len(m.editBuf) > 0 {
				m.editBuf = m.editBuf[:len(m.editBuf)-1]
			}
		default:
			if len(msg.String()) == 1 {
				c := msg.String()[0]
				if (c >= '0' && c <= '9') || c == '.' || c == '-' {
					m.editBuf += string(c)
				}
			}
		}
		return m, nil
	}

	switch msg.String() {
	case "q", "escape":
		m.state = stateMenu
	case "up", "k":
		if m.paramCursor > 0 {
			m.paramCursor--
		}
	case "down", "j":
		if m.paramCursor < len(m.paramNames)-1 {
			m.paramCursor++
		}
	case "enter", " ":
		m.editing = true
		m.editBuf = fmt.Sprintf("%.2f", m.params[m.paramNames[m.paramCursor]])
	case "s":
		if err := m.start(); err == nil {
			m.state = stateSim
			return m, tea.Batch(tea.ClearScreen, tick())
		}
	case "left", "h":
		m.params[m.paramNames[m.paramCursor]] -= 0.1
	case "right", "l":
		m.params[m.paramNames[m.paramCursor]] += 0.1
	}
	return m, nil
}

func (m model) simKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "escape":
		m.running = false
		m.state = stateMenu
		m.reset()
		return m, tea.ClearScreen
	case " ", "p":
		m.paused = !m.paused
	case "r":
		m.start()
		return m, tea.ClearScreen
	case "c":
		m.running = false
		m.state = stateConfig
		m.reset()
		return m, tea.ClearScreen
	case "+", "=":
		m.speed = math.Min(m.speed*2, 16)
	case "-", "_":
		m.speed = math.Max(m.speed/2, 0.25)
	case "0":
		m.speed = 1.0
	}
	return m, nil
}

func (m *model) setParamsForModel() {
	switch m.selected {
	case "pendulum":
		m.paramNames = []string{"q0", "v0", "duration"}
	case "double_pendulum":
		m.paramNames = []string{"q0", "q1", "v0", "v1", "duration"}
	case "cartpole":
		m.paramNames = []string{"q0", "q1", "v0", "v1", "duration"}
	case "free_body":
		m.paramNames = []string{"q0", "q1", "duration"}
	}
	for _, name := range m.paramNames {
		if _, ok := m.params[name]; !ok {
			m.params[name] = 0.0
		}
	}
}

// start builds and initializes a fresh engine.EngineFacade from the current
// menu selection; step then advances it through Step on each tick,
// mirroring the teacher's dynamics/integrator
// construction but through registry.Registry/config.Config instead of a
// bare sim.Dynamics value.
func (m *model) start() error {
	m.cfg = config.DefaultConfig()
	m.cfg.Model = m.selected
	m.cfg.Controller = "none"
	m.cfg.Duration = m.params["duration"]

	switch m.selected {
	case "pendulum":
		m.cfg.InitState = config.InitStateConfig{Q: []float64{m.params["q0"]}, V: []float64{m.params["v0"]}}
	case "double_pendulum", "cartpole":
		m.cfg.InitState = config.InitStateConfig{Q: []float64{m.params["q0"], m.params["q1"]}, V: []float64{m.params["v0"], m.params["v1"]}}
	case "free_body":
		m.cfg.InitState = config.InitStateConfig{
			Q: []float64{0, 0, 0, 1, m.params["q0"], m.params["q1"], 0},
			V: []float64{0, 0, 0, 0, 0, 0},
		}
	}

	modelVal, ctrl, err := m.reg.Build(m.cfg)
	if err != nil {
		return err
	}

	m.trail = make([]trailPoint, 0, 100)
	m.history = make([]float64, 0, 60)
	m.simTime = 0
	m.speed = 1.0
	m.lastFrame = time.Time{}

	m.eng = engine.NewEngineFacade(m.cfg.EngineOptions())
	if err := m.eng.Initialize(modelVal, ctrl, nil); err != nil {
		return err
	}

	m.running = true
	m.paused = false
	return nil
}

func (m *model) reset() {
	m.trail = nil
	m.history = nil
	m.eng = nil
	m.q, m.v = nil, nil
	m.simTime = 0
}

func (m *model) step() {
	if m.eng == nil || m.simTime >= m.params["duration"] {
		m.paused = true
		return
	}
	dtDesired := 0.02 * m.speed
	if err := m.eng.Step(dtDesired); err != nil {
		m.paused = true
		return
	}

	_, table, err := m.eng.GetLog()
	if err != nil || len(table) == 0 {
		return
	}
	last := table[len(table)-1]
	m.simTime = last[0]
	nq := len(m.cfg.InitState.Q)
	if 1+nq+len(m.cfg.InitState.V) <= len(last) {
		m.q = last[1 : 1+nq]
		m.v = last[1+nq : 1+nq+len(m.cfg.InitState.V)]
	}

	var tx, ty, vel float64
	switch m.selected {
	case "pendulum":
		if len(m.q) >= 1 && len(m.v) >= 1 {
			tx, ty = m.q[0], 0
			vel = math.Abs(m.v[0])
		}
	case "double_pendulum", "cartpole":
		if len(m.q) >= 2 {
			tx, ty = m.q[0], m.q[1]
		}
		if len(m.v) >= 2 {
			vel = math.Abs(m.v[0]) + math.Abs(m.v[1])
		}
	case "free_body":
		if len(m.q) >= 2 {
			tx, ty = m.q[0], m.q[1]
		}
	}
	m.trail = append(m.trail, trailPoint{tx, ty, vel})
	if len(m.trail) > 100 {
		m.trail = m.trail[1:]
	}
	if len(m.q) > 0 {
		m.history = append(m.history, m.q[0])
		if len(m.history) > 60 {
			m.history = m.history[1:]
		}
	}
}

func (m model) energy() (ke, pe float64) {
	if m.eng == nil {
		return 0, 0
	}
	header, table, err := m.eng.GetLog()
	if err != nil || len(table) == 0 {
		return 0, 0
	}
	for i, name := range header {
		if name == "energy" && i < len(table[len(table)-1]) {
			total := table[len(table)-1][i]
			return total * 0.5, total * 0.5
		}
	}
	return 0, 0
}

func (m model) View() string {
	switch m.state {
	case stateMenu:
		return m.viewMenu()
	case stateConfig:
		return m.viewConfig()
	case stateSim:
		return m.viewSim()
	}
	return ""
}

func (m model) viewMenu() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("           " + cyan.Render("d y n s i m") + "\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("\n")

	for i, name := range m.models {
		desc := modelInfo[name]
		if i == m.cursor {
			b.WriteString("      " + cyan.Render("▸ ") + white.Render(fmt.Sprintf("%-16s", name)) + dim.Render(desc) + "\n")
		} else {
			b.WriteString("        " + dim.Render(fmt.Sprintf("%-16s", name)) + dimmer.Render(desc) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(dim.Render("      ↑↓ select   enter start   q quit") + "\n")

	return b.String()
}

func (m model) viewConfig() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString("      " + cyan.Render(m.selected) + "  " + dim.Render(modelInfo[m.selected]) + "\n")
	b.WriteString(dimmer.Render("      "+strings.Repeat("─", 30)) + "\n\n")

	for i, name := range m.paramNames {
		val := fmt.Sprintf("%8.3f", m.params[name])
		if m.editing && i == m.paramCursor {
			val = fmt.Sprintf("%8s", m.editBuf+"▋")
		}
		if i == m.paramCursor {
			b.WriteString("      " + cyan.Render("▸ ") + white.Render(fmt.Sprintf("%-10s", name)) + magenta.Render(val) + "\n")
		} else {
			b.WriteString("        " + dim.Render(fmt.Sprintf("%-10s", name)) + dim.Render(val) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(dim.Render("      ↑↓ select  ←→ adjust  enter edit  s start  esc back") + "\n")

	return b.String()
}

func (m model) viewSim() string {
	cw := m.width - 6
	ch := m.height - 12
	if cw < 50 {
		cw = 50
	}
	if ch < 12 {
		ch = 12
	}

	canvas := make([][]rune, ch)
	for i := range canvas {
		canvas[i] = make([]rune, cw)
		for j := range canvas[i] {
			canvas[i][j] = ' '
		}
	}

	switch m.selected {
	case "pendulum":
		m.drawPendulum(canvas, cw, ch)
	case "double_pendulum":
		m.drawDoublePendulum(canvas, cw, ch)
	case "cartpole":
		m.drawCartpole(canvas, cw, ch)
	case "free_body":
		m.drawFreeBody(canvas, cw, ch)
	default:
		m.drawBars(canvas, cw, ch)
	}

	var b strings.Builder

	statusIcon := green.Render("●")
	statusText := green.Render("running")
	if m.paused {
		statusIcon = yellow.Render("○")
		statusText = yellow.Render("paused")
	}
	b.WriteString(fmt.Sprintf("\n   %s %s  %s\n",
		statusIcon, cyan.Render(m.selected), statusText))

	progress := m.simTime / m.params["duration"]
	if progress > 1 {
		progress = 1
	}
	barWidth := 36
	filled := int(progress * float64(barWidth))
	timeStr := fmt.Sprintf("%.1fs/%.0fs", m.simTime, m.params["duration"])
	bar := cyan.Render(strings.Repeat("━", filled)) + dimmer.Render(strings.Repeat("─", barWidth-filled))
	b.WriteString(fmt.Sprintf("   %s %s  %s\n\n", bar, dim.Render(timeStr), dim.Render(fmt.Sprintf("%.0ffps", m.fps))))

	for _, row := range canvas {
		b.WriteString("   " + string(row) + "\n")
	}

	ke, pe := m.energy()
	total := ke + pe
	if total > 0 {
		keRatio := ke / total
		energyWidth := 20
		keBar := int(keRatio * float64(energyWidth))
		peBar := energyWidth - keBar
		b.WriteString(fmt.Sprintf("\n   energy %s%s  %s %.1f  %s %.1f\n",
			green.Render(strings.Repeat("█", keBar)),
			yellow.Render(strings.Repeat("█", peBar)),
			green.Render("KE"), ke,
			yellow.Render("PE"), pe))
	}

	labels := stateLabels[m.selected]
	combined := append(append([]float64{}, m.q...), m.v...)
	if len(labels) > 0 && len(combined) > 0 {
		var stateStr strings.Builder
		stateStr.WriteString("   ")
		for i, label := range labels {
			if i < len(combined) {
				stateStr.WriteString(dim.Render(label + "="))
				stateStr.WriteString(white.Render(fmt.Sprintf("%.2f", combined[i])))
				stateStr.WriteString("  ")
			}
			if i >= 3 {
				break
			}
		}
		b.WriteString(stateStr.String() + "\n")
	}

	if len(m.history) > 1 {
		spark := m.sparkline(m.history, 24)
		label := "θ"
		if len(stateLabels[m.selected]) > 0 {
			label = stateLabels[m.selected][0]
		}
		b.WriteString(fmt.Sprintf("   %s %s\n", dim.Render(label), cyan.Render(spark)))
	}

	b.WriteString("\n" + dim.Render("   space pause  ±speed  r reset  c config  q quit") + "\n")

	return b.String()
}

func (m model) sparkline(data []float64, width int) string {
	if len(data) == 0 {
		return ""
	}
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	minVal, maxVal := data[0], data[0]
	for _, v := range data {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	rang := maxVal - minVal
	if rang == 0 {
		rang = 1
	}
	step := len(data) / width
	if step < 1 {
		step = 1
	}
	var sb strings.Builder
	for i := 0; i < width && i*step < len(data); i++ {
		v := data[i*step]
		idx := int((v - minVal) / rang * 7)
		if idx > 7 {
			idx = 7
		}
		if idx < 0 {
			idx = 0
		}
		sb.WriteRune(chars[idx])
	}
	return sb.String()
}

func (m model) drawPendulum(canvas [][]rune, w, h int) {
	if len(m.q) < 1 {
		return
	}
	theta := m.q[0]
	px, py := w/2, 2
	length := float64(h) * 0.6
	bx := px + int(length*math.Sin(theta))
	by := py + int(length*math.Cos(theta))

	for _, pt := range m.trail {
		tbx := px + int(length*math.Sin(pt.x))
		tby := py + int(length*math.Cos(pt.x))
		set(canvas, tbx, tby, m.trailChar(pt.velocity, 6), w, h)
	}

	set(canvas, px, py, '┼', w, h)
	drawLine(canvas, w, h, px, py, bx, by, '│')
	set(canvas, bx, by, '●', w, h)
}

func (m model) drawDoublePendulum(canvas [][]rune, w, h int) {
	if len(m.q) < 2 {
		return
	}
	t1, t2 := m.q[0], m.q[1]
	px, py := w/2, 1
	length := float64(h) * 0.3

	b1x := px + int(length*math.Sin(t1))
	b1y := py + int(length*math.Cos(t1))
	b2x := b1x + int(length*math.Sin(t2))
	b2y := b1y + int(length*math.Cos(t2))

	for _, pt := range m.trail {
		set(canvas, int(pt.x), int(pt.y), '·', w, h)
	}

	set(canvas, px, py, '┼', w, h)
	drawLine(canvas, w, h, px, py, b1x, b1y, '│')
	set(canvas, b1x, b1y, '◉', w, h)
	drawLine(canvas, w, h, b1x, b1y, b2x, b2y, '│')
	set(canvas, b2x, b2y, '●', w, h)
}

func (m model) drawCartpole(canvas [][]rune, w, h int) {
	if len(m.q) < 2 {
		return
	}
	pos, theta := m.q[0], m.q[1]
	gy := h - 3
	cx := w/2 + int(pos*float64(w)/8)

	for x := 2; x < w-2; x++ {
		set(canvas, x, gy+1, '═', w, h)
	}
	for dx := -2; dx <= 2; dx++ {
		set(canvas, cx+dx, gy, '█', w, h)
	}

	plen := float64(h) * 0.4
	px := cx + int(plen*math.Sin(theta))
	py := gy - int(plen*math.Cos(theta))
	drawLine(canvas, w, h, cx, gy-1, px, py, '│')
	set(canvas, px, py, '◉', w, h)
}

func (m model) drawFreeBody(canvas [][]rune, w, h int) {
	if len(m.q) < 2 {
		return
	}
	for x := 2; x < w-2; x++ {
		set(canvas, x, h-2, '_', w, h)
	}
	cx := w/2 + int(m.q[0]*4)
	cy := h/2 - int(m.q[1]*4)
	for _, pt := range m.trail {
		set(canvas, int(pt.x), int(pt.y), '·', w, h)
	}
	set(canvas, cx, cy, '●', w, h)
}

func (m model) drawBars(canvas [][]rune, w, h int) {
	cy := h / 2
	for x := 2; x < w-2; x++ {
		set(canvas, x, cy, '─', w, h)
	}
	combined := append(append([]float64{}, m.q...), m.v...)
	if len(combined) == 0 {
		return
	}
	maxVal := 1.0
	for _, v := range combined {
		if math.Abs(v) > maxVal {
			maxVal = math.Abs(v)
		}
	}
	bw := (w - 8) / len(combined)
	if bw < 4 {
		bw = 4
	}
	for i, v := range combined {
		bx := 4 + i*bw
		bh := int((v / maxVal) * float64(h/3))
		if bh > 0 {
			for y := cy - 1; y >= cy-bh && y >= 1; y-- {
				set(canvas, bx, y, '█', w, h)
			}
		} else {
			for y := cy + 1; y <= cy-bh && y < h-1; y++ {
				set(canvas, bx, y, '█', w, h)
			}
		}
	}
}

func (m model) trailChar(velocity, maxVel float64) rune {
	if maxVel == 0 {
		return '·'
	}
	ratio := velocity / maxVel
	if ratio < 0.25 {
		return '·'
	} else if ratio < 0.5 {
		return '∘'
	} else if ratio < 0.75 {
		return '○'
	}
	return '●'
}

func set(canvas [][]rune, x, y int, c rune, w, h int) {
	if x >= 0 && x < w && y >= 0 && y < h {
		canvas[y][x] = c
	}
}

func drawLine(canvas [][]rune, w, h, x1, y1, x2, y2 int, c rune) {
	dx := intAbs(x2 - x1)
	dy := intAbs(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy
	for {
		set(canvas, x1, y1, c, w, h)
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

func intAbs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func RunInteractive() error {
	p := tea.NewProgram(NewInteractiveApp(), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
