package obstacle

import (
	"math/rand"

	"github.com/google/uuid"
)

// Obstacle is a circular hazard scrolling across the canvas.
type Obstacle struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
}

// Field maintains a fixed number of obstacles that scroll right to left.
type Field struct {
	Obstacles []Obstacle
	width     float64
	height    float64
	speed     float64
	radius    float64
	count     int
	rand      *rand.Rand
}

// NewField spreads count obstacles across the canvas.
func NewField(count int, width, height, speed, radius float64, r *rand.Rand) *Field {
	f := &Field{width: width, height: height, speed: speed, radius: radius, count: count, rand: r}
	for i := 0; i < count; i++ {
		f.Obstacles = append(f.Obstacles, f.spawn(r.Float64()*width))
	}
	return f
}

func (f *Field) spawn(x float64) Obstacle {
	return Obstacle{
		ID:     uuid.New().String(),
		X:      x,
		Y:      f.rand.Float64()*(f.height-2*f.radius) + f.radius,
		Radius: f.radius,
	}
}

// Step scrolls every obstacle, drops the ones that left the canvas and
// appends replacements at the right edge to keep the count fixed.
func (f *Field) Step() {
	kept := f.Obstacles[:0]
	for _, o := range f.Obstacles {
		o.X -= f.speed
		if o.X+o.Radius < 0 {
			continue
		}
		kept = append(kept, o)
	}
	f.Obstacles = kept
	for len(f.Obstacles) < f.count {
		f.Obstacles = append(f.Obstacles, f.spawn(f.width+f.radius))
	}
}

// Snapshot returns a copy of the current obstacles.
func (f *Field) Snapshot() []Obstacle {
	out := make([]Obstacle, len(f.Obstacles))
	copy(out, f.Obstacles)
	return out
}
