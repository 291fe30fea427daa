package sim

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"swarmlink-sim/internal/advisory"
	"swarmlink-sim/internal/config"
	"swarmlink-sim/internal/graph"
	"swarmlink-sim/internal/swarm"
	"swarmlink-sim/internal/telemetry"
)

func TestJSONStdoutWriter(t *testing.T) {
	var buf bytes.Buffer
	w := &JSONStdoutWriter{out: &buf}
	if err := w.WriteFrame(telemetry.FrameRow{Tick: 4, Path: []int{0, 2}, PathActive: true}); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	if err := w.WriteStates([]telemetry.SwarmStateRow{{Tick: 4}}); err != nil {
		t.Fatalf("WriteStates: %v", err)
	}
	if err := w.WriteAttackEvent(telemetry.AttackEventRow{Action: telemetry.ActionRestore}); err != nil {
		t.Fatalf("WriteAttackEvent: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	kinds := []string{"frame", "state", "attack"}
	for i, l := range lines {
		var env struct {
			Kind string          `json:"kind"`
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal([]byte(l), &env); err != nil {
			t.Fatalf("line %d: %v", i, err)
		}
		if env.Kind != kinds[i] {
			t.Fatalf("line %d kind = %s, want %s", i, env.Kind, kinds[i])
		}
	}
}

func TestColorStdoutWriter(t *testing.T) {
	var buf bytes.Buffer
	w := &ColorStdoutWriter{cfg: config.Default(), out: &buf, width: 40}
	f := telemetry.FrameRow{
		ClusterID:  "c1",
		Tick:       9,
		Drones:     []telemetry.DroneRow{{ID: 0, Status: swarm.Healthy}, {ID: 1, Status: swarm.Jammed}, {ID: 2, Status: swarm.Healthy}},
		Full:       graph.Adjacency{0: {2}, 2: {0}},
		Trusted:    graph.Adjacency{0: {2}, 2: {0}},
		Path:       []int{0, 2},
		PathActive: true,
		Timestamp:  time.Unix(0, 0).UTC(),
	}
	if err := w.WriteFrame(f); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Simulation Configuration:") {
		t.Fatalf("overview missing")
	}
	for _, want := range []string{"tick=9", "jammed=1", "path=0→2", "edges=1/1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q: %s", want, out)
		}
	}
	buf.Reset()
	_ = w.WriteFrame(telemetry.FrameRow{})
	if strings.Contains(buf.String(), "Simulation Configuration:") {
		t.Fatalf("overview printed twice")
	}
	if !strings.Contains(buf.String(), "path=none") {
		t.Fatalf("missing path=none")
	}

	buf.Reset()
	_ = w.WriteBriefing(advisory.State{OK: true, Text: "Relay drones are holding the corridor open across the northern sector."})
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) < 3 {
		t.Fatalf("briefing not wrapped: %q", buf.String())
	}
}
