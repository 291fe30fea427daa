package obstacle

import (
	"math/rand"
	"testing"
)

func TestFieldKeepsCount(t *testing.T) {
	f := NewField(6, 1000, 600, 50, 18, rand.New(rand.NewSource(1)))
	for i := 0; i < 100; i++ {
		f.Step()
		if len(f.Obstacles) != 6 {
			t.Fatalf("step %d: expected 6 obstacles, got %d", i, len(f.Obstacles))
		}
	}
}

func TestFieldRecyclesOffscreen(t *testing.T) {
	f := NewField(1, 1000, 600, 10, 5, rand.New(rand.NewSource(1)))
	f.Obstacles[0].X = 0
	old := f.Obstacles[0].ID
	f.Step()
	if f.Obstacles[0].ID == old {
		t.Fatalf("expected obstacle to be replaced")
	}
	if f.Obstacles[0].X < 1000 {
		t.Fatalf("replacement should spawn at the right edge, got x=%f", f.Obstacles[0].X)
	}
	if y := f.Obstacles[0].Y; y < 5 || y > 595 {
		t.Fatalf("replacement spawned outside vertical bounds: %f", y)
	}
}

func TestFieldScrollsLeft(t *testing.T) {
	f := NewField(1, 1000, 600, 3, 5, rand.New(rand.NewSource(2)))
	f.Obstacles[0].X = 500
	f.Step()
	if f.Obstacles[0].X != 497 {
		t.Fatalf("expected x=497, got %f", f.Obstacles[0].X)
	}
	snap := f.Snapshot()
	snap[0].X = 0
	if f.Obstacles[0].X != 497 {
		t.Fatalf("snapshot must not alias field state")
	}
}
