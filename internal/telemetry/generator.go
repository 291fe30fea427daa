package telemetry

import (
	"time"

	"swarmlink-sim/internal/graph"
	"swarmlink-sim/internal/obstacle"
	"swarmlink-sim/internal/swarm"
)

// Generator turns simulator state into frame and state rows.
type Generator struct {
	ClusterID string
}

// NewGenerator creates a new telemetry generator for a given cluster.
func NewGenerator(clusterID string) *Generator {
	return &Generator{ClusterID: clusterID}
}

// Frame snapshots the swarm, both graphs and the current path. The drone
// rows are copies, so the frame stays valid after the swarm moves on.
func (g *Generator) Frame(tick int64, s *swarm.Swarm, obstacles []obstacle.Obstacle, full, trusted graph.Adjacency, path []int, ts time.Time) FrameRow {
	drones := make([]DroneRow, len(s.Drones))
	for i, d := range s.Drones {
		drones[i] = DroneRow{
			ID:            d.ID,
			X:             d.Pos.X,
			Y:             d.Pos.Y,
			Status:        d.Status,
			RecoveryTimer: d.RecoveryTimer,
			Battery:       d.Battery,
		}
	}
	return FrameRow{
		ClusterID:  g.ClusterID,
		Tick:       tick,
		Start:      s.Start,
		End:        s.End,
		Drones:     drones,
		Obstacles:  obstacles,
		Full:       full,
		Trusted:    trusted,
		Path:       path,
		PathActive: path != nil,
		Timestamp:  ts.UTC(),
	}
}

// State aggregates a frame into a SwarmStateRow.
func (g *Generator) State(f FrameRow) SwarmStateRow {
	c := f.Counts()
	hops := 0
	if len(f.Path) > 0 {
		hops = len(f.Path) - 1
	}
	return SwarmStateRow{
		ClusterID:    g.ClusterID,
		Tick:         f.Tick,
		Total:        c.Total,
		Healthy:      c.Healthy,
		Jammed:       c.Jammed,
		Hijacked:     c.Hijacked,
		PathActive:   f.PathActive,
		PathHops:     hops,
		FullEdges:    f.Full.EdgeCount(),
		TrustedEdges: f.Trusted.EdgeCount(),
		Timestamp:    f.Timestamp,
	}
}
