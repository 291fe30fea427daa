// ColorStdoutWriter prints a human-friendly, colorized swarm log to STDOUT.
package sim

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/muesli/reflow/wordwrap"

	"swarmlink-sim/internal/advisory"
	"swarmlink-sim/internal/config"
	"swarmlink-sim/internal/swarm"
	"swarmlink-sim/internal/telemetry"
)

const (
	colorReset   = "\x1b[0m"
	colorRed     = "\x1b[31m"
	colorGreen   = "\x1b[32m"
	colorYellow  = "\x1b[33m"
	colorBlue    = "\x1b[34m"
	colorMagenta = "\x1b[35m"
	colorCyan    = "\x1b[36m"
	colorGray    = "\x1b[90m"
)

func colorWhite() string { return "\x1b[37m" }

// statusColor maps a drone status to its terminal color.
func statusColor(st swarm.Status) string {
	switch st {
	case swarm.Jammed:
		return colorYellow
	case swarm.Hijacked:
		return colorRed
	default:
		return colorGreen
	}
}

// ColorStdoutWriter prints one line per frame plus attack events and
// briefings using ANSI colors.
type ColorStdoutWriter struct {
	cfg   *config.SimulationConfig
	out   io.Writer
	width int
	once  sync.Once
	mu    sync.Mutex
}

// NewColorStdoutWriter creates a ColorStdoutWriter writing to os.Stdout.
func NewColorStdoutWriter(cfg *config.SimulationConfig) *ColorStdoutWriter {
	return &ColorStdoutWriter{cfg: cfg, out: os.Stdout, width: 100}
}

func (w *ColorStdoutWriter) printOverview() {
	if w.cfg == nil {
		return
	}

	fmt.Fprintln(w.out, "Simulation Configuration:")
	tw := tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Cluster:\t%s\n", w.cfg.ClusterID)
	fmt.Fprintf(tw, "Drones:\t%d\n", w.cfg.Swarm.DroneCount)
	fmt.Fprintf(tw, "Canvas:\t%.0fx%.0f\n", w.cfg.Canvas.Width, w.cfg.Canvas.Height)
	fmt.Fprintf(tw, "Communication Range:\t%.0f\n", w.cfg.Swarm.CommunicationRange)
	fmt.Fprintf(tw, "Jam Duration (ticks):\t%d\n", w.cfg.Swarm.JamDurationTicks)
	fmt.Fprintf(tw, "Tick Rate:\t%d/s\n", w.cfg.TickRate)
	fmt.Fprintf(tw, "Motion Model:\t%s\n", w.cfg.Motion.Model)
	fmt.Fprintf(tw, "Hijack Mode:\t%s\n", w.cfg.Attacks.HijackMode)
	fmt.Fprintf(tw, "Target Mode:\t%s\n", w.cfg.Attacks.TargetMode)
	tw.Flush()
	fmt.Fprintln(w.out)
}

// WriteFrame outputs a single frame summary in colorized format.
func (w *ColorStdoutWriter) WriteFrame(f telemetry.FrameRow) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.once.Do(w.printOverview)

	c := f.Counts()
	fmt.Fprintf(w.out, "%s[%s]%s ", colorGray, f.Timestamp.Format(time.RFC3339), colorReset)
	fmt.Fprintf(w.out, "%scluster=%s%s ", colorBlue, f.ClusterID, colorReset)
	fmt.Fprintf(w.out, "%stick=%d%s ", colorWhite(), f.Tick, colorReset)
	fmt.Fprintf(w.out, "%shealthy=%d%s ", colorGreen, c.Healthy, colorReset)
	fmt.Fprintf(w.out, "%sjammed=%d%s ", colorYellow, c.Jammed, colorReset)
	fmt.Fprintf(w.out, "%shijacked=%d%s ", colorRed, c.Hijacked, colorReset)
	fmt.Fprintf(w.out, "%sedges=%d/%d%s ", colorCyan, f.Trusted.EdgeCount(), f.Full.EdgeCount(), colorReset)
	if f.PathActive {
		fmt.Fprintf(w.out, "%spath=%s%s", colorGreen, formatPath(f.Path), colorReset)
	} else {
		fmt.Fprintf(w.out, "%spath=none%s", colorRed, colorReset)
	}
	fmt.Fprintln(w.out)
	return nil
}

// WriteAttackEvent prints an attack control event to STDOUT.
func (w *ColorStdoutWriter) WriteAttackEvent(e telemetry.AttackEventRow) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.once.Do(w.printOverview)
	outcome := colorGray + "ignored" + colorReset
	if e.Applied {
		outcome = colorMagenta + "applied" + colorReset
	}
	fmt.Fprintf(w.out, "%s[%s]%s %sATTACK%s action=%s drone=%d affected=%d tick=%d %s\n",
		colorGray, e.Timestamp.Format(time.RFC3339), colorReset,
		colorRed, colorReset, e.Action, e.DroneID, e.Affected, e.Tick, outcome)
	return nil
}

// WriteBriefing prints a settled briefing, wrapped to the terminal width.
func (w *ColorStdoutWriter) WriteBriefing(st advisory.State) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	label := colorCyan + "BRIEFING" + colorReset
	if !st.OK {
		label = colorRed + "BRIEFING FAILED" + colorReset
	}
	fmt.Fprintf(w.out, "%s[%s]%s %s\n%s\n", colorGray, st.UpdatedAt.Format(time.RFC3339), colorReset, label, wordwrap.String(st.Text, w.width))
	return nil
}

func formatPath(path []int) string {
	parts := make([]string, len(path))
	for i, id := range path {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, "→")
}
