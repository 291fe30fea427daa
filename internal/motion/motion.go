// Movement strategies for simulated drones
package motion

import (
	"fmt"
	"math"

	"swarmlink-sim/internal/obstacle"
	"swarmlink-sim/internal/swarm"
)

// Bounds is the canvas size.
type Bounds struct {
	Width  float64
	Height float64
}

// Env is what a movement strategy may look at during one tick.
type Env struct {
	Bounds    Bounds
	Tick      int64
	Others    []swarm.Vec
	Obstacles []obstacle.Obstacle
}

// Model moves one drone for one tick.
type Model interface {
	Move(d *swarm.Drone, env Env)
}

// Model names accepted by New.
const (
	ModelBounce = "bounce"
	ModelDrift  = "drift"
)

// New returns the movement model registered under name.
func New(name string, drift Drift) (Model, error) {
	switch name {
	case "", ModelBounce:
		return Bounce{}, nil
	case ModelDrift:
		return drift, nil
	default:
		return nil, fmt.Errorf("unknown motion model %q", name)
	}
}

// Bounce moves at constant velocity and reflects off the canvas edges.
type Bounce struct{}

// Move implements Model.
func (Bounce) Move(d *swarm.Drone, env Env) {
	d.Pos.X += d.Vel.X
	d.Pos.Y += d.Vel.Y
	if d.Pos.X < d.Radius || d.Pos.X > env.Bounds.Width-d.Radius {
		d.Vel.X = -d.Vel.X
	}
	if d.Pos.Y < d.Radius || d.Pos.Y > env.Bounds.Height-d.Radius {
		d.Vel.Y = -d.Vel.Y
	}
}

// Drift sways horizontally and steers vertically away from obstacles and
// neighbouring drones.
type Drift struct {
	Amplitude        float64
	Frequency        float64
	AvoidRadius      float64
	Gain             float64
	MaxVerticalSpeed float64
}

// Move implements Model.
func (m Drift) Move(d *swarm.Drone, env Env) {
	d.Pos.X += m.Amplitude * math.Sin(float64(env.Tick)*m.Frequency+d.Phase)
	d.Pos.X = clamp(d.Pos.X, d.Radius, env.Bounds.Width-d.Radius)

	force := 0.0
	for _, o := range env.Obstacles {
		force += m.repel(d.Pos, swarm.Vec{X: o.X, Y: o.Y}, m.AvoidRadius+o.Radius)
	}
	for id, p := range env.Others {
		if id == d.ID {
			continue
		}
		force += m.repel(d.Pos, p, m.AvoidRadius)
	}
	d.Vel.X = 0
	d.Vel.Y = clamp(force, -m.MaxVerticalSpeed, m.MaxVerticalSpeed)
	d.Pos.Y += d.Vel.Y
	d.Pos.Y = clamp(d.Pos.Y, d.Radius, env.Bounds.Height-d.Radius)
}

// repel returns the vertical push away from p when it is within radius.
func (m Drift) repel(pos, p swarm.Vec, radius float64) float64 {
	if pos.Dist(p) >= radius {
		return 0
	}
	return m.Gain * (pos.Y - p.Y)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
