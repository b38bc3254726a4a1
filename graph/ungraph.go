package graph

import (
	"fmt"
	"sort"
)

// UnGraph represents an undirected graph over a sorted label set.
// The adjacency matrix is kept symmetric by every mutation.
type UnGraph struct {
	labels    []string
	adjacency []bool
}

// NewUnGraph creates a new undirected graph with no edges.
// Labels are sorted in lexicographical order.
func NewUnGraph(labels []string) (*UnGraph, error) {
	sorted, err := sortedUniqueLabels(labels)
	if err != nil {
		return nil, err
	}
	n := len(sorted)
	return &UnGraph{labels: sorted, adjacency: make([]bool, n*n)}, nil
}

// NewCompleteUnGraph creates an undirected graph with every edge except self-loops.
func NewCompleteUnGraph(labels []string) (*UnGraph, error) {
	g, err := NewUnGraph(labels)
	if err != nil {
		return nil, err
	}
	n := len(g.labels)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i != j {
				g.adjacency[i*n+j] = true
			}
		}
	}
	return g, nil
}

// Labels returns the sorted vertex labels.
func (g *UnGraph) Labels() []string {
	out := make([]string, len(g.labels))
	copy(out, g.labels)
	return out
}

// LabelToIndex returns the vertex index of a label.
func (g *UnGraph) LabelToIndex(label string) (int, error) {
	i := sort.SearchStrings(g.labels, label)
	if i >= len(g.labels) || g.labels[i] != label {
		return 0, fmt.Errorf("%w: %q", ErrMissingLabel, label)
	}
	return i, nil
}

// Order returns the number of vertices.
func (g *UnGraph) Order() int {
	return len(g.labels)
}

// Vertices returns all vertex indices in order.
func (g *UnGraph) Vertices() []int {
	out := make([]int, len(g.labels))
	for i := range out {
		out[i] = i
	}
	return out
}

func (g *UnGraph) checkVertex(i int) error {
	if i < 0 || i >= len(g.labels) {
		return fmt.Errorf("%w: %d", ErrVertexOutOfBounds, i)
	}
	return nil
}

// AddEdge adds the undirected edge i - j.
func (g *UnGraph) AddEdge(i, j int) error {
	if err := g.checkVertex(i); err != nil {
		return err
	}
	if err := g.checkVertex(j); err != nil {
		return err
	}
	n := len(g.labels)
	g.adjacency[i*n+j] = true
	g.adjacency[j*n+i] = true
	return nil
}

// DelEdge removes the undirected edge i - j.
func (g *UnGraph) DelEdge(i, j int) error {
	if err := g.checkVertex(i); err != nil {
		return err
	}
	if err := g.checkVertex(j); err != nil {
		return err
	}
	n := len(g.labels)
	g.adjacency[i*n+j] = false
	g.adjacency[j*n+i] = false
	return nil
}

// HasEdge checks if the undirected edge i - j exists.
func (g *UnGraph) HasEdge(i, j int) bool {
	if i < 0 || j < 0 || i >= len(g.labels) || j >= len(g.labels) {
		return false
	}
	return g.adjacency[i*len(g.labels)+j]
}

// Edges returns all edges as [i, j] pairs with i < j.
func (g *UnGraph) Edges() [][2]int {
	n := len(g.labels)
	edges := make([][2]int, 0)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if g.adjacency[i*n+j] {
				edges = append(edges, [2]int{i, j})
			}
		}
	}
	return edges
}

// Neighbors returns the sorted union of neighbors of the vertices in x.
func (g *UnGraph) Neighbors(x []int) ([]int, error) {
	n := len(g.labels)
	mark := make([]bool, n)
	for _, i := range x {
		if err := g.checkVertex(i); err != nil {
			return nil, err
		}
		for j := 0; j < n; j++ {
			if g.adjacency[i*n+j] {
				mark[j] = true
			}
		}
	}
	return marked(mark), nil
}

// Copy creates a deep copy of the graph.
func (g *UnGraph) Copy() *UnGraph {
	adjacency := make([]bool, len(g.adjacency))
	copy(adjacency, g.adjacency)
	labels := make([]string, len(g.labels))
	copy(labels, g.labels)
	return &UnGraph{labels: labels, adjacency: adjacency}
}
