// Package flowgraph derives the financial flow graph rendered as a Sankey
// diagram from a single period snapshot.
package flowgraph

import (
	"errors"
	"fmt"
)

var (
	// ErrEdgeOutOfRange reports an edge that points at a missing node.
	ErrEdgeOutOfRange = errors.New("flowgraph: edge endpoint out of range")
	// ErrNodeIDMismatch reports a node whose ID differs from its position.
	ErrNodeIDMismatch = errors.New("flowgraph: node id must equal its index")
	// ErrCyclicGraph reports a graph that is not a DAG.
	ErrCyclicGraph = errors.New("flowgraph: graph contains a cycle")
)

// Node is a labelled stage of the money flow.
type Node struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
	Color string `json:"color"`
}

// Edge carries a signed monetary value from one stage to another.
type Edge struct {
	Source int     `json:"source"`
	Target int     `json:"target"`
	Value  float64 `json:"value"`
}

// Graph is an ordered set of nodes and valued edges.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Clone returns a deep copy so callers can hand graphs to several diagrams.
func (g Graph) Clone() Graph {
	out := Graph{
		Nodes: make([]Node, len(g.Nodes)),
		Edges: make([]Edge, len(g.Edges)),
	}
	copy(out.Nodes, g.Nodes)
	copy(out.Edges, g.Edges)
	return out
}

// Label returns the label of the node with the given ID, or an empty string.
func (g Graph) Label(id int) string {
	if id < 0 || id >= len(g.Nodes) {
		return ""
	}
	return g.Nodes[id].Label
}

// Validate checks node identity, edge endpoints and acyclicity. Graphs built
// by this package always pass; it exists for graphs supplied by callers.
func (g Graph) Validate() error {
	for i, n := range g.Nodes {
		if n.ID != i {
			return fmt.Errorf("%w: node %q at %d has id %d", ErrNodeIDMismatch, n.Label, i, n.ID)
		}
	}
	for i, e := range g.Edges {
		if e.Source < 0 || e.Source >= len(g.Nodes) || e.Target < 0 || e.Target >= len(g.Nodes) {
			return fmt.Errorf("%w: edge %d (%d -> %d)", ErrEdgeOutOfRange, i, e.Source, e.Target)
		}
	}
	if HasCycle(len(g.Nodes), g.Edges) {
		return ErrCyclicGraph
	}
	return nil
}

// HasCycle detects a directed cycle using DFS with colouring. Edges must
// already reference valid node indices.
func HasCycle(nodeCount int, edges []Edge) bool {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make([]int, nodeCount)
	adj := make([][]int, nodeCount)
	for _, e := range edges {
		adj[e.Source] = append(adj[e.Source], e.Target)
	}
	var dfs func(int) bool
	dfs = func(u int) bool {
		color[u] = gray
		for _, v := range adj[u] {
			if color[v] == gray {
				return true
			}
			if color[v] == white && dfs(v) {
				return true
			}
		}
		color[u] = black
		return false
	}
	for id := 0; id < nodeCount; id++ {
		if color[id] == white && dfs(id) {
			return true
		}
	}
	return false
}
