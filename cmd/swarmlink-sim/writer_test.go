package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"swarmlink-sim/internal/advisory"
	"swarmlink-sim/internal/config"
	"swarmlink-sim/internal/sim"
	"swarmlink-sim/internal/telemetry"
)

func notTerminal(t *testing.T) {
	t.Helper()
	orig := stdoutIsTerminal
	stdoutIsTerminal = func() bool { return false }
	t.Cleanup(func() { stdoutIsTerminal = orig })
}

func TestNewWritersPrintOnly(t *testing.T) {
	notTerminal(t)
	w, cleanup, err := newWriters(context.Background(), nil, true, false, "")
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	cleanup()
	if _, ok := w.(*sim.JSONStdoutWriter); !ok {
		t.Fatalf("expected *sim.JSONStdoutWriter, got %T", w)
	}
}

func TestNewWritersGreptimeFallback(t *testing.T) {
	notTerminal(t)
	t.Setenv("GREPTIMEDB_ENDPOINT", "")
	w, cleanup, err := newWriters(context.Background(), nil, false, false, "")
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	cleanup()
	if _, ok := w.(*sim.JSONStdoutWriter); !ok {
		t.Fatalf("expected *sim.JSONStdoutWriter, got %T", w)
	}
}

func TestNewWritersTUIFallsBackWithoutTerminal(t *testing.T) {
	notTerminal(t)
	w, cleanup, err := newWriters(context.Background(), config.Default(), true, true, "")
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	cleanup()
	if _, ok := w.(*sim.JSONStdoutWriter); !ok {
		t.Fatalf("expected *sim.JSONStdoutWriter, got %T", w)
	}
}

func TestNewWritersLogFile(t *testing.T) {
	notTerminal(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "frames.log")
	w, cleanup, err := newWriters(context.Background(), nil, true, false, path)
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	defer cleanup()
	if _, ok := w.(*sim.MultiWriter); !ok {
		t.Fatalf("expected *sim.MultiWriter, got %T", w)
	}
	if err := w.WriteFrame(telemetry.FrameRow{ClusterID: "c1", Tick: 1, Timestamp: time.Now()}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	sw, ok := w.(sim.StateWriter)
	if !ok {
		t.Fatalf("writer does not implement StateWriter")
	}
	if err := sw.WriteState(telemetry.SwarmStateRow{ClusterID: "c1", Tick: 1, Total: 25, Timestamp: time.Now()}); err != nil {
		t.Fatalf("write state failed: %v", err)
	}
	aw, ok := w.(sim.AttackEventWriter)
	if !ok {
		t.Fatalf("writer does not implement AttackEventWriter")
	}
	if err := aw.WriteAttackEvent(telemetry.AttackEventRow{ClusterID: "c1", Action: telemetry.ActionJam, Timestamp: time.Now()}); err != nil {
		t.Fatalf("write event failed: %v", err)
	}
	for _, p := range []string{path, path + ".state", path + ".events"} {
		info, err := os.Stat(p)
		if err != nil {
			t.Fatalf("stat %s failed: %v", p, err)
		}
		if info.Size() == 0 {
			t.Fatalf("expected %s to be non-empty", p)
		}
	}
}

func TestNewWritersExtraJoinsFanOut(t *testing.T) {
	notTerminal(t)
	extra := &countingWriter{}
	w, cleanup, err := newWriters(context.Background(), nil, true, false, "", extra)
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	defer cleanup()
	if _, ok := w.(*sim.MultiWriter); !ok {
		t.Fatalf("expected *sim.MultiWriter, got %T", w)
	}
	_ = w.WriteFrame(telemetry.FrameRow{})
	if extra.frames != 1 {
		t.Fatalf("extra writer not reached")
	}
}

type countingWriter struct{ frames int }

func (c *countingWriter) WriteFrame(telemetry.FrameRow) error {
	c.frames++
	return nil
}

type cannedGenerator struct{}

func (cannedGenerator) Generate(context.Context, string, string) (string, error) {
	return "Relays holding. Keep jammers off the eastern flank.", nil
}

func TestRunBriefing(t *testing.T) {
	cfg := config.Default()
	cfg.Seed = 5
	s, err := sim.NewSimulator(cfg, sim.Options{Advisor: cannedGenerator{}})
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	st, err := runBriefing(ctx, s, 10)
	if err != nil {
		t.Fatalf("runBriefing: %v", err)
	}
	if !st.OK || s.Tick() != 10 {
		t.Fatalf("unexpected result %+v at tick %d", st, s.Tick())
	}
	var buf bytes.Buffer
	printBriefing(&buf, s, st)
	out := buf.String()
	if !strings.Contains(out, "tick=10 total=25") || !strings.Contains(out, "HYDRA Command: Relays holding.") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestRunBriefingWithoutGenerator(t *testing.T) {
	s, err := sim.NewSimulator(config.Default(), sim.Options{})
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	st, err := runBriefing(context.Background(), s, 0)
	if err != nil {
		t.Fatalf("runBriefing: %v", err)
	}
	if st.OK || st.Text != advisory.FailureMessage {
		t.Fatalf("expected failure message, got %+v", st)
	}
}
