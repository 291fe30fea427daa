package graph

import (
	"math/rand"
	"reflect"
	"testing"

	"swarmlink-sim/internal/swarm"
)

const testRange = 150

func line(n int) []Node {
	nodes := make([]Node, n)
	for i := range nodes {
		nodes[i] = Node{ID: i, Pos: swarm.Vec{X: float64(i) * 100, Y: 0}, Status: swarm.Healthy}
	}
	return nodes
}

// detour lays out 0-1-2-4 along the x axis with 3 above, so 1-3-4 is an
// equal-length alternative that avoids 2.
func detour() []Node {
	return []Node{
		{ID: 0, Pos: swarm.Vec{X: 0, Y: 0}},
		{ID: 1, Pos: swarm.Vec{X: 100, Y: 0}},
		{ID: 2, Pos: swarm.Vec{X: 200, Y: 0}},
		{ID: 3, Pos: swarm.Vec{X: 200, Y: 100}},
		{ID: 4, Pos: swarm.Vec{X: 300, Y: 0}},
	}
}

func TestLinePath(t *testing.T) {
	_, trusted := Build(line(5), testRange)
	path, ok := ShortestPath(trusted, 0, 4)
	if !ok {
		t.Fatalf("expected a path")
	}
	if want := []int{0, 1, 2, 3, 4}; !reflect.DeepEqual(path, want) {
		t.Fatalf("path = %v, want %v", path, want)
	}
}

func TestJammedNodeIsIsolated(t *testing.T) {
	nodes := line(5)
	nodes[2].Status = swarm.Jammed
	full, trusted := Build(nodes, testRange)
	if _, ok := ShortestPath(trusted, 0, 4); ok {
		t.Fatalf("trusted path must not exist through a jammed node")
	}
	if _, ok := ShortestPath(full, 0, 4); ok {
		t.Fatalf("full path must not exist through a jammed node")
	}
	if _, ok := full[2]; ok {
		t.Fatalf("jammed node must be absent from the full graph")
	}
	if _, ok := trusted[2]; ok {
		t.Fatalf("jammed node must be absent from the trusted graph")
	}
	if full.HasEdge(1, 2) || full.HasEdge(3, 2) {
		t.Fatalf("jammed node has edges in full graph: %v", full)
	}
}

func TestHijackedNodeRoutedAround(t *testing.T) {
	nodes := detour()
	_, trusted := Build(nodes, testRange)
	path, _ := ShortestPath(trusted, 0, 4)
	if want := []int{0, 1, 2, 4}; !reflect.DeepEqual(path, want) {
		t.Fatalf("healthy path = %v, want %v", path, want)
	}

	nodes[2].Status = swarm.Hijacked
	full, trusted := Build(nodes, testRange)
	path, ok := ShortestPath(trusted, 0, 4)
	if !ok {
		t.Fatalf("expected alternate route")
	}
	if want := []int{0, 1, 3, 4}; !reflect.DeepEqual(path, want) {
		t.Fatalf("path = %v, want %v", path, want)
	}
	if !full.HasEdge(1, 2) || !full.HasEdge(2, 4) {
		t.Fatalf("hijacked node should keep its full-graph edges: %v", full)
	}
	if _, ok := trusted[2]; ok {
		t.Fatalf("hijacked node must be absent from trusted graph")
	}
}

func TestMissingEndpoint(t *testing.T) {
	nodes := line(3)
	nodes[0].Status = swarm.Jammed
	_, trusted := Build(nodes, testRange)
	if _, ok := ShortestPath(trusted, 0, 2); ok {
		t.Fatalf("absent start must yield no path")
	}
	if _, ok := ShortestPath(trusted, 2, 0); ok {
		t.Fatalf("absent end must yield no path")
	}
}

func TestStartEqualsEnd(t *testing.T) {
	_, trusted := Build(line(2), testRange)
	path, ok := ShortestPath(trusted, 1, 1)
	if !ok || !reflect.DeepEqual(path, []int{1}) {
		t.Fatalf("expected [1], got %v %v", path, ok)
	}
}

func TestDisconnected(t *testing.T) {
	nodes := line(3)
	nodes[2].Pos.X = 1000
	_, trusted := Build(nodes, testRange)
	if _, ok := ShortestPath(trusted, 0, 2); ok {
		t.Fatalf("disconnected components must yield no path")
	}
	if ns, ok := trusted[2]; !ok || len(ns) != 0 {
		t.Fatalf("isolated healthy node needs an empty entry, got %v %v", ns, ok)
	}
}

func TestRangeIsStrict(t *testing.T) {
	nodes := []Node{{ID: 0}, {ID: 1, Pos: swarm.Vec{X: testRange}}}
	full, _ := Build(nodes, testRange)
	if full.HasEdge(0, 1) {
		t.Fatalf("nodes exactly at range must not connect")
	}
}

func randomNodes(rng *rand.Rand, n int) []Node {
	nodes := make([]Node, n)
	for i := range nodes {
		nodes[i] = Node{
			ID:     i,
			Pos:    swarm.Vec{X: rng.Float64() * 1000, Y: rng.Float64() * 600},
			Status: swarm.Statuses()[rng.Intn(3)],
		}
	}
	return nodes
}

func TestGraphProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 200; round++ {
		nodes := randomNodes(rng, 25)
		full, trusted := Build(nodes, testRange)

		for _, n := range nodes {
			if n.Status != swarm.Jammed {
				if _, ok := full[n.ID]; !ok {
					t.Fatalf("round %d: node %d missing from full graph", round, n.ID)
				}
			}
			if n.Status == swarm.Healthy {
				if _, ok := trusted[n.ID]; !ok {
					t.Fatalf("round %d: node %d missing from trusted graph", round, n.ID)
				}
			}
		}
		for _, e := range trusted.Edges() {
			if !full.HasEdge(e[0], e[1]) {
				t.Fatalf("round %d: trusted edge %v not in full graph", round, e)
			}
		}

		path, ok := ShortestPath(trusted, 0, 24)
		if !ok {
			continue
		}
		seen := map[int]bool{}
		for i, id := range path {
			if seen[id] {
				t.Fatalf("round %d: repeated id %d in %v", round, id, path)
			}
			seen[id] = true
			if i > 0 && !trusted.HasEdge(path[i-1], id) {
				t.Fatalf("round %d: %d-%d is not an edge", round, path[i-1], id)
			}
		}
		again, _ := ShortestPath(trusted, 0, 24)
		if !reflect.DeepEqual(path, again) {
			t.Fatalf("round %d: search not idempotent: %v vs %v", round, path, again)
		}
	}
}

func TestEdgesSortedAndCounted(t *testing.T) {
	full, _ := Build(line(4), testRange)
	want := [][2]int{{0, 1}, {1, 2}, {2, 3}}
	if got := full.Edges(); !reflect.DeepEqual(got, want) {
		t.Fatalf("edges = %v, want %v", got, want)
	}
	if full.EdgeCount() != 3 {
		t.Fatalf("edge count = %d, want 3", full.EdgeCount())
	}
}
