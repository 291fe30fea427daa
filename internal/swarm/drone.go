// Drone runtime state and the jam/hijack state machine
package swarm

import (
	"math"
	"math/rand"
)

// Vec is a 2-D position or velocity in canvas units.
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Dist returns the Euclidean distance between two points.
func (v Vec) Dist(o Vec) float64 {
	return math.Hypot(v.X-o.X, v.Y-o.Y)
}

// Drone holds runtime state for one simulated drone.
type Drone struct {
	ID            int
	Pos           Vec
	Vel           Vec
	Radius        float64
	Status        Status
	RecoveryTimer int
	Battery       float64
	// Phase offsets the sinusoidal drift so drones do not move in lockstep.
	Phase float64
}

// Jam moves a healthy drone to Jammed for duration ticks.
// It reports whether the transition happened; jamming a non-healthy drone
// leaves it and its timer untouched.
func (d *Drone) Jam(duration int) bool {
	if d.Status != Healthy {
		return false
	}
	d.Status = Jammed
	d.RecoveryTimer = duration
	return true
}

// Hijack applies a hijack request under the given mode.
func (d *Drone) Hijack(mode HijackMode) bool {
	switch d.Status {
	case Healthy:
		d.Status = Hijacked
		return true
	case Hijacked:
		if mode == HijackToggle {
			d.Status = Healthy
			return true
		}
	}
	return false
}

// Recover counts down the jam timer and restores the drone at zero.
func (d *Drone) Recover() {
	if d.Status != Jammed {
		return
	}
	d.RecoveryTimer--
	if d.RecoveryTimer <= 0 {
		d.RecoveryTimer = 0
		d.Status = Healthy
	}
}

// Drain lowers the battery level, never below zero.
func (d *Drone) Drain(rate float64) {
	d.Battery -= rate
	if d.Battery < 0 {
		d.Battery = 0
	}
}

// Restore unconditionally resets the drone to Healthy.
func (d *Drone) Restore() bool {
	changed := d.Status != Healthy || d.RecoveryTimer != 0
	d.Status = Healthy
	d.RecoveryTimer = 0
	return changed
}

// Counts aggregates drones by status.
type Counts struct {
	Total    int `json:"total"`
	Healthy  int `json:"healthy"`
	Jammed   int `json:"jammed"`
	Hijacked int `json:"hijacked"`
}

// Swarm is the fixed set of drones with designated start and end.
type Swarm struct {
	Drones []*Drone
	Start  int
	End    int
}

// New creates n drones at random positions inside width x height.
// Drone 0 is the start and drone n-1 the end.
func New(n int, width, height, maxSpeed, radius float64, rng *rand.Rand) *Swarm {
	s := &Swarm{Start: 0, End: n - 1}
	for i := 0; i < n; i++ {
		d := &Drone{
			ID: i,
			Pos: Vec{
				X: rng.Float64()*(width-2*radius) + radius,
				Y: rng.Float64()*(height-2*radius) + radius,
			},
			Vel: Vec{
				X: (rng.Float64()*2 - 1) * maxSpeed,
				Y: (rng.Float64()*2 - 1) * maxSpeed,
			},
			Radius:  radius,
			Status:  Healthy,
			Battery: 100,
			Phase:   rng.Float64() * 2 * math.Pi,
		}
		s.Drones = append(s.Drones, d)
	}
	return s
}

// Get returns the drone with the given id.
func (s *Swarm) Get(id int) (*Drone, bool) {
	if id < 0 || id >= len(s.Drones) {
		return nil, false
	}
	return s.Drones[id], true
}

// IsEndpoint reports whether id is the start or end drone.
func (s *Swarm) IsEndpoint(id int) bool {
	return id == s.Start || id == s.End
}

// RestoreAll resets every drone and returns how many changed.
func (s *Swarm) RestoreAll() int {
	n := 0
	for _, d := range s.Drones {
		if d.Restore() {
			n++
		}
	}
	return n
}

// Counts returns the current status breakdown.
func (s *Swarm) Counts() Counts {
	c := Counts{Total: len(s.Drones)}
	for _, d := range s.Drones {
		switch d.Status {
		case Healthy:
			c.Healthy++
		case Jammed:
			c.Jammed++
		case Hijacked:
			c.Hijacked++
		}
	}
	return c
}

// Positions returns a copy of all positions indexed by id.
func (s *Swarm) Positions() []Vec {
	out := make([]Vec, len(s.Drones))
	for i, d := range s.Drones {
		out[i] = d.Pos
	}
	return out
}
