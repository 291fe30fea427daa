// Proximity graph construction and hop-count path search
package graph

import (
	"sort"

	"swarmlink-sim/internal/swarm"
)

// Node is the view of a drone the graph builder needs.
type Node struct {
	ID     int
	Pos    swarm.Vec
	Status swarm.Status
}

// Adjacency maps a node id to its neighbours in scan order.
type Adjacency map[int][]int

// NodesFrom builds graph nodes from the current drone state.
func NodesFrom(drones []*swarm.Drone) []Node {
	nodes := make([]Node, len(drones))
	for i, d := range drones {
		nodes[i] = Node{ID: d.ID, Pos: d.Pos, Status: d.Status}
	}
	return nodes
}

// Build tests every unordered pair once and returns the full graph
// (neither end jammed) and the trusted graph (both ends healthy).
// Every non-jammed node has a full entry and every healthy node a trusted
// entry, even when it has no neighbours.
func Build(nodes []Node, commRange float64) (full, trusted Adjacency) {
	full = make(Adjacency, len(nodes))
	trusted = make(Adjacency, len(nodes))
	for _, n := range nodes {
		if n.Status != swarm.Jammed {
			full[n.ID] = []int{}
		}
		if n.Status == swarm.Healthy {
			trusted[n.ID] = []int{}
		}
	}
	for i := 0; i < len(nodes); i++ {
		a := nodes[i]
		if a.Status == swarm.Jammed {
			continue
		}
		for j := i + 1; j < len(nodes); j++ {
			b := nodes[j]
			if b.Status == swarm.Jammed {
				continue
			}
			if a.Pos.Dist(b.Pos) >= commRange {
				continue
			}
			full[a.ID] = append(full[a.ID], b.ID)
			full[b.ID] = append(full[b.ID], a.ID)
			if a.Status == swarm.Healthy && b.Status == swarm.Healthy {
				trusted[a.ID] = append(trusted[a.ID], b.ID)
				trusted[b.ID] = append(trusted[b.ID], a.ID)
			}
		}
	}
	return full, trusted
}

// ShortestPath runs a breadth-first search from start to end and returns the
// path with the fewest hops. Missing endpoints or disconnected components
// yield false; that is a normal outcome.
func ShortestPath(g Adjacency, start, end int) ([]int, bool) {
	if _, ok := g[start]; !ok {
		return nil, false
	}
	if _, ok := g[end]; !ok {
		return nil, false
	}
	queue := [][]int{{start}}
	visited := map[int]bool{start: true}
	for len(queue) > 0 {
		path := queue[0]
		queue = queue[1:]
		node := path[len(path)-1]
		if node == end {
			return path, true
		}
		for _, next := range g[node] {
			if visited[next] {
				continue
			}
			visited[next] = true
			np := make([]int, len(path)+1)
			copy(np, path)
			np[len(path)] = next
			queue = append(queue, np)
		}
	}
	return nil, false
}

// HasEdge reports whether a and b are adjacent.
func (g Adjacency) HasEdge(a, b int) bool {
	for _, n := range g[a] {
		if n == b {
			return true
		}
	}
	return false
}

// Edges returns each undirected edge once as (low, high), sorted.
func (g Adjacency) Edges() [][2]int {
	var edges [][2]int
	for a, ns := range g {
		for _, b := range ns {
			if a < b {
				edges = append(edges, [2]int{a, b})
			}
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i][0] != edges[j][0] {
			return edges[i][0] < edges[j][0]
		}
		return edges[i][1] < edges[j][1]
	})
	return edges
}

// EdgeCount returns the number of undirected edges.
func (g Adjacency) EdgeCount() int {
	n := 0
	for _, ns := range g {
		n += len(ns)
	}
	return n / 2
}
