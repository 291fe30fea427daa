package sim

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"swarmlink-sim/internal/advisory"
	"swarmlink-sim/internal/config"
	"swarmlink-sim/internal/swarm"
	"swarmlink-sim/internal/telemetry"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// logMsg carries a log line for the event viewport.
type logMsg struct{ line string }

// frameMsg carries the latest frame for the canvas.
type frameMsg struct{ telemetry.FrameRow }

// briefingMsg carries a settled briefing.
type briefingMsg struct{ advisory.State }

// adminMsg reports admin server status.
type adminMsg struct{ active bool }

type setControllerMsg struct{ ctrl Controller }

// actionMsg is the result of an operator action run as a tea.Cmd.
type actionMsg struct{ ActionResult }

// briefingRequestMsg is the result of a briefing trigger.
type briefingRequestMsg struct{ err error }

const (
	maxSectionHeightPct = 0.2
	maxLogLines         = 1000
	minCanvasRows       = 5
)

var (
	styleHealthy  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	styleJammed   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	styleHijacked = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	stylePath     = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	styleObstacle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// TUIWriter renders the swarm using a bubbletea TUI and forwards operator
// keys to a Controller.
type TUIWriter struct {
	program    teaProgram
	done       chan struct{}
	sendSignal atomic.Bool
}

// NewTUIWriter starts a bubbletea program and returns a TUIWriter. ctx is
// handed to controller calls so they log through the same logger.
func NewTUIWriter(ctx context.Context, cfg *config.SimulationConfig) *TUIWriter {
	w := &TUIWriter{done: make(chan struct{})}
	w.sendSignal.Store(true)
	m := newTUIModel(ctx, cfg)
	p := tea.NewProgram(m, tea.WithAltScreen())
	w.program = p
	go func() {
		_, _ = p.Run()
		close(w.done)
		if w.sendSignal.Load() {
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return w
}

// WriteFrame implements FrameWriter.
func (w *TUIWriter) WriteFrame(f telemetry.FrameRow) error {
	w.program.Send(frameMsg{f})
	return nil
}

// WriteAttackEvent implements AttackEventWriter.
func (w *TUIWriter) WriteAttackEvent(e telemetry.AttackEventRow) error {
	outcome := colorGray + "ignored" + colorReset
	if e.Applied {
		outcome = colorMagenta + "applied" + colorReset
	}
	target := "auto"
	if e.Requested != nil {
		target = fmt.Sprint(*e.Requested)
	}
	line := fmt.Sprintf("%s[%s]%s %s%s%s %starget=%s%s %sdrone=%d%s %saffected=%d%s %stick=%d%s %s",
		colorGray, e.Timestamp.Format(time.RFC3339), colorReset,
		colorRed, strings.ToUpper(e.Action), colorReset,
		colorBlue, target, colorReset,
		colorWhite(), e.DroneID, colorReset,
		colorCyan, e.Affected, colorReset,
		colorYellow, e.Tick, colorReset,
		outcome)
	w.program.Send(logMsg{line: line})
	return nil
}

// WriteBriefing implements BriefingWriter.
func (w *TUIWriter) WriteBriefing(st advisory.State) error {
	w.program.Send(briefingMsg{st})
	return nil
}

// SetAdminStatus updates the admin server indicator.
func (w *TUIWriter) SetAdminStatus(active bool) {
	w.program.Send(adminMsg{active: active})
}

// SetController registers the target of operator key bindings.
func (w *TUIWriter) SetController(c Controller) {
	w.program.Send(setControllerMsg{ctrl: c})
}

// Close shuts down the TUI program and waits for cleanup.
func (w *TUIWriter) Close() error {
	w.sendSignal.Store(false)
	if w.program != nil {
		w.program.Send(tea.Quit())
	}
	if w.done != nil {
		<-w.done
	}
	return nil
}

type tuiModel struct {
	ctx         context.Context
	cfg         *config.SimulationConfig
	table       table.Model
	vp          viewport.Model
	input       textinput.Model
	inputAction string
	logs        []string
	frame       telemetry.FrameRow
	haveFrame   bool
	briefing    advisory.State
	pending     bool
	ctrl        Controller
	admin       bool
	wrap        bool
	autoscroll  bool
	help        bool
	width       int
	height      int
	canvasRows  int
}

func newTUIModel(ctx context.Context, cfg *config.SimulationConfig) tuiModel {
	if cfg == nil {
		cfg = config.Default()
	}
	cols := []table.Column{
		{Title: "Swarm", Width: 14},
		{Title: "Value", Width: 10},
		{Title: "Swarm", Width: 14},
		{Title: "Value", Width: 10},
	}
	t := table.New(table.WithColumns(cols), table.WithRows(statusRows(telemetry.FrameRow{}, cfg, false)), table.WithHeight(5))
	return tuiModel{
		ctx:        ctx,
		cfg:        cfg,
		table:      t,
		vp:         viewport.New(0, 0),
		autoscroll: true,
		canvasRows: minCanvasRows,
	}
}

func statusRows(f telemetry.FrameRow, cfg *config.SimulationConfig, pending bool) []table.Row {
	c := f.Counts()
	path := "none"
	if f.PathActive {
		path = fmt.Sprintf("%d hops", len(f.Path)-1)
	}
	briefing := "idle"
	if pending {
		briefing = "pending"
	}
	return []table.Row{
		{"Drones", fmt.Sprint(c.Total), "Tick", fmt.Sprint(f.Tick)},
		{"Healthy", fmt.Sprint(c.Healthy), "Trusted Path", path},
		{"Jammed", fmt.Sprint(c.Jammed), "Edges T/F", fmt.Sprintf("%d/%d", f.Trusted.EdgeCount(), f.Full.EdgeCount())},
		{"Hijacked", fmt.Sprint(c.Hijacked), "Briefing", briefing},
		{"Range", fmt.Sprintf("%.0f", cfg.Swarm.CommunicationRange), "Hijack", string(cfg.Attacks.HijackMode)},
	}
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.vp.Width = msg.Width
		m.table.SetWidth(msg.Width)
		m.layout()
		m.refreshViewport()
	case tea.KeyMsg:
		if m.inputAction != "" {
			return m.updateInput(msg)
		}
		if m.help {
			switch msg.String() {
			case "?", "esc":
				m.help = false
			case "q", "ctrl+c":
				return m, tea.Quit
			}
			return m, nil
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "j":
			return m, m.attack(telemetry.ActionJam, AutoTarget())
		case "h":
			return m, m.attack(telemetry.ActionHijack, AutoTarget())
		case "J":
			m.openInput(telemetry.ActionJam)
			return m, nil
		case "H":
			m.openInput(telemetry.ActionHijack)
			return m, nil
		case "r":
			return m, m.restore()
		case "b":
			return m, m.requestBriefing()
		case "w":
			m.wrap = !m.wrap
			m.refreshViewport()
			m.layout()
			return m, nil
		case "s":
			m.autoscroll = !m.autoscroll
			if m.autoscroll {
				m.vp.GotoBottom()
			}
			return m, nil
		case "?":
			m.help = true
			return m, nil
		}
		if !m.autoscroll {
			switch msg.String() {
			case "down":
				m.vp.LineDown(1)
			case "up":
				m.vp.LineUp(1)
			case "pgdown", "ctrl+n":
				m.vp.LineDown(10)
			case "pgup", "ctrl+p":
				m.vp.LineUp(10)
			default:
				var cmd tea.Cmd
				m.vp, cmd = m.vp.Update(msg)
				return m, cmd
			}
		}
		return m, nil
	case logMsg:
		m.appendLog(msg.line)
	case frameMsg:
		if m.haveFrame && m.frame.PathActive != msg.PathActive {
			if msg.PathActive {
				m.appendLog(fmt.Sprintf("%s[tick %d]%s %strusted path restored%s (%d hops)", colorGray, msg.Tick, colorReset, colorGreen, colorReset, len(msg.Path)-1))
			} else {
				m.appendLog(fmt.Sprintf("%s[tick %d]%s %strusted path lost%s", colorGray, msg.Tick, colorReset, colorRed, colorReset))
			}
		}
		m.frame = msg.FrameRow
		m.haveFrame = true
		m.table.SetRows(statusRows(m.frame, m.cfg, m.pending))
	case briefingMsg:
		m.briefing = msg.State
		m.pending = false
		m.table.SetRows(statusRows(m.frame, m.cfg, m.pending))
		m.layout()
	case briefingRequestMsg:
		switch {
		case msg.err == nil:
			m.pending = true
			m.appendLog(colorCyan + "briefing requested from HYDRA Command" + colorReset)
		case errors.Is(msg.err, advisory.ErrPending):
			m.pending = true
			m.appendLog(colorYellow + "briefing already pending" + colorReset)
		default:
			m.appendLog(colorRed + "briefing request failed: " + msg.err.Error() + colorReset)
		}
		m.table.SetRows(statusRows(m.frame, m.cfg, m.pending))
	case actionMsg:
		if msg.DroneID < 0 && msg.Action != telemetry.ActionRestore {
			m.appendLog(colorGray + msg.Action + ": no eligible target" + colorReset)
		}
	case adminMsg:
		m.admin = msg.active
	case setControllerMsg:
		m.ctrl = msg.ctrl
	}
	return m, nil
}

func (m tuiModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		action := m.inputAction
		m.inputAction = ""
		m.layout()
		t, err := ParseTarget(m.input.Value())
		if err != nil {
			m.appendLog(colorRed + err.Error() + colorReset)
			return m, nil
		}
		return m, m.attack(action, t)
	case tea.KeyEsc:
		m.inputAction = ""
		m.layout()
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m *tuiModel) openInput(action string) {
	m.input = textinput.New()
	m.input.Placeholder = "drone id (empty = auto)"
	m.input.CharLimit = 6
	m.input.Focus()
	m.inputAction = action
	m.layout()
}

func (m tuiModel) attack(action string, t Target) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	if ctrl == nil {
		return nil
	}
	return func() tea.Msg {
		if action == telemetry.ActionHijack {
			return actionMsg{ctrl.Hijack(ctx, t)}
		}
		return actionMsg{ctrl.Jam(ctx, t)}
	}
}

func (m tuiModel) restore() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	if ctrl == nil {
		return nil
	}
	return func() tea.Msg { return actionMsg{ctrl.RestoreAll(ctx)} }
}

func (m tuiModel) requestBriefing() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	if ctrl == nil {
		return nil
	}
	return func() tea.Msg { return briefingRequestMsg{err: ctrl.RequestBriefing(ctx)} }
}

func (m *tuiModel) appendLog(line string) {
	m.logs = append(m.logs, line)
	if len(m.logs) > maxLogLines {
		m.logs = m.logs[len(m.logs)-maxLogLines:]
	}
	m.refreshViewport()
}

func (m *tuiModel) layout() {
	logLines := int(float64(m.height) * maxSectionHeightPct)
	if logLines < 1 {
		logLines = 1
	}
	m.vp.Height = logLines
	used := lipgloss.Height(m.table.View()) + logLines + lipgloss.Height(m.renderBriefing()) + lipgloss.Height(m.renderBottom()) + 5
	if m.inputAction != "" {
		used++
	}
	m.canvasRows = max(minCanvasRows, m.height-used)
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m *tuiModel) refreshViewport() {
	var lines []string
	for _, l := range m.logs {
		if m.wrap {
			lines = append(lines, wordwrap.String(l, m.vp.Width))
		} else {
			lines = append(lines, l)
		}
	}
	m.vp.SetContent(strings.Join(lines, "\n"))
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m tuiModel) View() string {
	if m.help {
		return m.renderHelp()
	}
	width := max(m.width, 20)
	divider := strings.Repeat("─", width)
	sections := []string{
		m.table.View(),
		divider,
		renderCanvas(m.frame, m.cfg.Canvas.Width, m.cfg.Canvas.Height, width, m.canvasRows),
		divider,
		"Events:",
		m.vp.View(),
		divider,
		m.renderBriefing(),
	}
	if m.inputAction != "" {
		sections = append(sections, fmt.Sprintf("%s drone: %s", strings.ToUpper(m.inputAction), m.input.View()))
	}
	sections = append(sections, divider, m.renderBottom())
	return strings.Join(sections, "\n")
}

func (m tuiModel) renderBriefing() string {
	text := "HYDRA Command: press b for a tactical briefing"
	switch {
	case m.pending:
		text = "HYDRA Command: analyzing swarm telemetry..."
	case m.briefing.Text != "":
		text = "HYDRA Command: " + m.briefing.Text
	}
	if m.width > 0 {
		text = wordwrap.String(text, m.width)
	}
	return text
}

func indicator(on bool) string {
	c := lipgloss.Color("9")
	if on {
		c = lipgloss.Color("10")
	}
	return lipgloss.NewStyle().Foreground(c).Render("●")
}

func (m tuiModel) renderBottom() string {
	return fmt.Sprintf("Admin %s | Wrap %s | Scroll %s | Link %s | j/h jam/hijack  J/H by id  r restore  b briefing  ? help",
		indicator(m.admin), indicator(m.wrap), indicator(m.autoscroll), indicator(m.frame.PathActive))
}

func (m tuiModel) renderHelp() string {
	lines := []string{
		"Key Bindings:",
		" q  quit",
		" j  jam a drone chosen by the target mode",
		" h  hijack a drone chosen by the target mode",
		" J  jam a drone by id",
		" H  hijack a drone by id",
		" r  restore every drone",
		" b  request a tactical briefing",
		" w  toggle wrap for the event log",
		" s  toggle auto-scroll",
		" ?  toggle this help view",
		"",
		"Canvas: S start  E end  o healthy  x jammed  ! hijacked  * path link  O obstacle",
		"",
		"When auto-scroll is disabled:",
		" up/down          scroll one line",
		" pgdown/pgup      scroll a page",
	}
	return strings.Join(lines, "\n")
}

// renderCanvas draws the frame onto a cols x rows character grid scaled
// from a width x height canvas.
func renderCanvas(f telemetry.FrameRow, width, height float64, cols, rows int) string {
	if cols < 1 || rows < 1 || width <= 0 || height <= 0 {
		return ""
	}
	grid := make([][]string, rows)
	for r := range grid {
		grid[r] = make([]string, cols)
		for c := range grid[r] {
			grid[r][c] = " "
		}
	}
	cell := func(x, y float64) (int, int) {
		c := int(x / width * float64(cols))
		r := int(y / height * float64(rows))
		return min(max(c, 0), cols-1), min(max(r, 0), rows-1)
	}

	for _, o := range f.Obstacles {
		c, r := cell(o.X, o.Y)
		grid[r][c] = styleObstacle.Render("O")
	}

	pos := make(map[int]telemetry.DroneRow, len(f.Drones))
	for _, d := range f.Drones {
		pos[d.ID] = d
	}
	for i := 1; i < len(f.Path); i++ {
		a, aok := pos[f.Path[i-1]]
		b, bok := pos[f.Path[i]]
		if !aok || !bok {
			continue
		}
		c0, r0 := cell(a.X, a.Y)
		c1, r1 := cell(b.X, b.Y)
		steps := max(abs(c1-c0), abs(r1-r0))
		for s := 1; s < steps; s++ {
			c := c0 + (c1-c0)*s/steps
			r := r0 + (r1-r0)*s/steps
			grid[r][c] = stylePath.Render("*")
		}
	}

	for _, d := range f.Drones {
		c, r := cell(d.X, d.Y)
		glyph := "o"
		switch d.Status {
		case swarm.Jammed:
			glyph = "x"
		case swarm.Hijacked:
			glyph = "!"
		}
		switch d.ID {
		case f.Start:
			glyph = "S"
		case f.End:
			glyph = "E"
		}
		grid[r][c] = droneStyle(d.Status).Render(glyph)
	}

	lines := make([]string, rows)
	for r := range grid {
		lines[r] = strings.Join(grid[r], "")
	}
	return strings.Join(lines, "\n")
}

func droneStyle(st swarm.Status) lipgloss.Style {
	switch st {
	case swarm.Jammed:
		return styleJammed
	case swarm.Hijacked:
		return styleHijacked
	default:
		return styleHealthy
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
