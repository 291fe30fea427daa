// Frame, swarm state and attack event rows handed to the writers
package telemetry

import (
	"os"
	"time"

	"swarmlink-sim/internal/graph"
	"swarmlink-sim/internal/obstacle"
	"swarmlink-sim/internal/swarm"
)

// DroneRow is one drone inside a frame.
type DroneRow struct {
	ID            int          `json:"id"`
	X             float64      `json:"x"`
	Y             float64      `json:"y"`
	Status        swarm.Status `json:"status"`
	RecoveryTimer int          `json:"recovery_timer,omitempty"`
	Battery       float64      `json:"battery"`
}

// FrameRow is the full renderable state after one tick.
type FrameRow struct {
	ClusterID  string              `json:"cluster_id"`
	Tick       int64               `json:"tick"`
	Start      int                 `json:"start"`
	End        int                 `json:"end"`
	Drones     []DroneRow          `json:"drones"`
	Obstacles  []obstacle.Obstacle `json:"obstacles,omitempty"`
	Full       graph.Adjacency     `json:"full"`
	Trusted    graph.Adjacency     `json:"trusted"`
	Path       []int               `json:"path"`
	PathActive bool                `json:"path_active"`
	Timestamp  time.Time           `json:"ts"`
}

// Counts returns the status breakdown of the frame.
func (f FrameRow) Counts() swarm.Counts {
	c := swarm.Counts{Total: len(f.Drones)}
	for _, d := range f.Drones {
		switch d.Status {
		case swarm.Healthy:
			c.Healthy++
		case swarm.Jammed:
			c.Jammed++
		case swarm.Hijacked:
			c.Hijacked++
		}
	}
	return c
}

// SwarmStateRow captures per-tick aggregate swarm metrics.
type SwarmStateRow struct {
	ClusterID    string    `json:"cluster_id"` // TAG
	Tick         int64     `json:"tick"`
	Total        int       `json:"total"`
	Healthy      int       `json:"healthy"`
	Jammed       int       `json:"jammed"`
	Hijacked     int       `json:"hijacked"`
	PathActive   bool      `json:"path_active"`
	PathHops     int       `json:"path_hops"`
	FullEdges    int       `json:"full_edges"`
	TrustedEdges int       `json:"trusted_edges"`
	Timestamp    time.Time `json:"ts"` // TIME INDEX
}

// Attack actions recorded in AttackEventRow.
const (
	ActionJam     = "jam"
	ActionHijack  = "hijack"
	ActionRestore = "restore"
)

// AttackEventRow records one attack control request and its outcome.
type AttackEventRow struct {
	ClusterID string    `json:"cluster_id"`
	Action    string    `json:"action"`
	Requested *int      `json:"requested,omitempty"`
	DroneID   int       `json:"drone_id"`
	Applied   bool      `json:"applied"`
	Affected  int       `json:"affected"`
	Tick      int64     `json:"tick"`
	Timestamp time.Time `json:"ts"`
}

func tableName(env, def string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	return def
}

// Table names used when writing to GreptimeDB. They can be overridden via
// SWARM_STATE_TABLE, ATTACK_EVENT_TABLE and DRONE_POSITION_TABLE.
var (
	SwarmStateTableName    = tableName("SWARM_STATE_TABLE", "swarm_state")
	AttackEventTableName   = tableName("ATTACK_EVENT_TABLE", "attack_events")
	DronePositionTableName = tableName("DRONE_POSITION_TABLE", "drone_positions")
)

func (SwarmStateRow) TableName() string  { return SwarmStateTableName }
func (AttackEventRow) TableName() string { return AttackEventTableName }
func (DroneRow) TableName() string       { return DronePositionTableName }
