package sim

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"swarmlink-sim/internal/graph"
	"swarmlink-sim/internal/swarm"
	"swarmlink-sim/internal/telemetry"
)

type collectWriter struct {
	frames []telemetry.FrameRow
	states []telemetry.SwarmStateRow
	events []telemetry.AttackEventRow
}

func (c *collectWriter) WriteFrame(f telemetry.FrameRow) error {
	c.frames = append(c.frames, f)
	return nil
}

func (c *collectWriter) WriteState(r telemetry.SwarmStateRow) error {
	c.states = append(c.states, r)
	return nil
}

func (c *collectWriter) WriteAttackEvent(e telemetry.AttackEventRow) error {
	c.events = append(c.events, e)
	return nil
}

func TestReplayLog(t *testing.T) {
	frames := []telemetry.FrameRow{
		{
			ClusterID: "c1",
			Tick:      1,
			Drones:    []telemetry.DroneRow{{ID: 0, Status: swarm.Healthy}, {ID: 1, Status: swarm.Jammed}},
			Full:      graph.Adjacency{0: {}},
			Trusted:   graph.Adjacency{0: {}},
			Timestamp: time.Unix(0, 0),
		},
		{
			ClusterID:  "c1",
			Tick:       2,
			Drones:     []telemetry.DroneRow{{ID: 0, Status: swarm.Healthy}, {ID: 1, Status: swarm.Healthy}},
			Full:       graph.Adjacency{0: {1}, 1: {0}},
			Trusted:    graph.Adjacency{0: {1}, 1: {0}},
			Path:       []int{0, 1},
			PathActive: true,
			Timestamp:  time.Unix(1, 0),
		},
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, f := range frames {
		if err := enc.Encode(f); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	cw := &collectWriter{}
	n, err := ReplayLog(context.Background(), &buf, cw, 0)
	if err != nil {
		t.Fatalf("ReplayLog: %v", err)
	}
	if n != len(frames) || len(cw.frames) != len(frames) {
		t.Fatalf("expected %d frames, got %d", len(frames), len(cw.frames))
	}
	for i, f := range frames {
		if cw.frames[i].Tick != f.Tick {
			t.Fatalf("frame %d out of order: tick %d vs %d", i, cw.frames[i].Tick, f.Tick)
		}
	}
	if cw.frames[0].Drones[1].Status != swarm.Jammed {
		t.Fatalf("status not decoded: %v", cw.frames[0].Drones[1].Status)
	}
	if !cw.frames[1].Trusted.HasEdge(0, 1) {
		t.Fatalf("adjacency not decoded: %v", cw.frames[1].Trusted)
	}
}

func TestReplayLogBadInput(t *testing.T) {
	cw := &collectWriter{}
	if _, err := ReplayLog(context.Background(), strings.NewReader("{not json"), cw, 0); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestReplayLogCancelled(t *testing.T) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	_ = enc.Encode(telemetry.FrameRow{Tick: 1, Timestamp: time.Unix(0, 0)})
	_ = enc.Encode(telemetry.FrameRow{Tick: 2, Timestamp: time.Unix(3600, 0)})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cw := &collectWriter{}
	n, err := ReplayLog(ctx, &buf, cw, 1)
	if err == nil {
		t.Fatal("expected context error")
	}
	if n != 1 {
		t.Fatalf("expected 1 frame before cancel, got %d", n)
	}
}
