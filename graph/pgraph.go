package graph

import (
	"fmt"
)

// PGraph represents a partially directed graph: two disjoint adjacency
// structures, one undirected and one directed, over a shared label set.
type PGraph struct {
	labels     []string
	undirected []bool
	directed   []bool
}

// NewPGraph creates a new partially directed graph with no edges.
// Labels are sorted in lexicographical order.
func NewPGraph(labels []string) (*PGraph, error) {
	sorted, err := sortedUniqueLabels(labels)
	if err != nil {
		return nil, err
	}
	n := len(sorted)
	return &PGraph{
		labels:     sorted,
		undirected: make([]bool, n*n),
		directed:   make([]bool, n*n),
	}, nil
}

// Labels returns the sorted vertex labels.
func (g *PGraph) Labels() []string {
	out := make([]string, len(g.labels))
	copy(out, g.labels)
	return out
}

// Order returns the number of vertices.
func (g *PGraph) Order() int {
	return len(g.labels)
}

func (g *PGraph) checkVertex(i int) error {
	if i < 0 || i >= len(g.labels) {
		return fmt.Errorf("%w: %d", ErrVertexOutOfBounds, i)
	}
	return nil
}

// AddUndirectedEdge adds the undirected edge i - j, clearing any
// directed edge between the endpoints.
func (g *PGraph) AddUndirectedEdge(i, j int) error {
	if err := g.checkVertex(i); err != nil {
		return err
	}
	if err := g.checkVertex(j); err != nil {
		return err
	}
	n := len(g.labels)
	g.directed[i*n+j] = false
	g.directed[j*n+i] = false
	g.undirected[i*n+j] = true
	g.undirected[j*n+i] = true
	return nil
}

// AddDirectedEdge adds the directed edge i -> j, clearing any
// undirected edge between the endpoints.
func (g *PGraph) AddDirectedEdge(i, j int) error {
	if err := g.checkVertex(i); err != nil {
		return err
	}
	if err := g.checkVertex(j); err != nil {
		return err
	}
	n := len(g.labels)
	g.undirected[i*n+j] = false
	g.undirected[j*n+i] = false
	g.directed[i*n+j] = true
	return nil
}

// DelEdge removes any edge between i and j, directed or undirected.
func (g *PGraph) DelEdge(i, j int) error {
	if err := g.checkVertex(i); err != nil {
		return err
	}
	if err := g.checkVertex(j); err != nil {
		return err
	}
	n := len(g.labels)
	g.undirected[i*n+j] = false
	g.undirected[j*n+i] = false
	g.directed[i*n+j] = false
	g.directed[j*n+i] = false
	return nil
}

// HasUndirectedEdge checks if the undirected edge i - j exists.
func (g *PGraph) HasUndirectedEdge(i, j int) bool {
	if i < 0 || j < 0 || i >= len(g.labels) || j >= len(g.labels) {
		return false
	}
	return g.undirected[i*len(g.labels)+j]
}

// HasDirectedEdge checks if the directed edge i -> j exists.
func (g *PGraph) HasDirectedEdge(i, j int) bool {
	if i < 0 || j < 0 || i >= len(g.labels) || j >= len(g.labels) {
		return false
	}
	return g.directed[i*len(g.labels)+j]
}

// OrientEdge turns the undirected edge i - j into the directed edge i -> j.
func (g *PGraph) OrientEdge(i, j int) error {
	if !g.HasUndirectedEdge(i, j) {
		return fmt.Errorf("%w: no undirected edge %d - %d", ErrMissingLabel, i, j)
	}
	return g.AddDirectedEdge(i, j)
}

// UndirectedEdges returns all undirected edges as [i, j] pairs with i < j.
func (g *PGraph) UndirectedEdges() [][2]int {
	n := len(g.labels)
	edges := make([][2]int, 0)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if g.undirected[i*n+j] {
				edges = append(edges, [2]int{i, j})
			}
		}
	}
	return edges
}

// DirectedEdges returns all directed edges as [from, to] pairs.
func (g *PGraph) DirectedEdges() [][2]int {
	n := len(g.labels)
	edges := make([][2]int, 0)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if g.directed[i*n+j] {
				edges = append(edges, [2]int{i, j})
			}
		}
	}
	return edges
}

// Copy creates a deep copy of the graph.
func (g *PGraph) Copy() *PGraph {
	labels := make([]string, len(g.labels))
	copy(labels, g.labels)
	undirected := make([]bool, len(g.undirected))
	copy(undirected, g.undirected)
	directed := make([]bool, len(g.directed))
	copy(directed, g.directed)
	return &PGraph{labels: labels, undirected: undirected, directed: directed}
}
