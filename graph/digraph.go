// Package graph provides labelled graph data structures for probabilistic
// graphical models, backed by dense adjacency matrices, together with the
// graphical-separation queries defined on them.
package graph

import (
	"fmt"
	"sort"

	"github.com/JohnPierman/pgmgo/sets"
)

// DiGraph represents a directed graph over a sorted label set.
// adjacency[i*n+j] is true when there is an edge i -> j.
type DiGraph struct {
	labels    []string
	adjacency []bool
}

// NewDiGraph creates a new directed graph with no edges.
// Labels are sorted in lexicographical order.
func NewDiGraph(labels []string) (*DiGraph, error) {
	sorted, err := sortedUniqueLabels(labels)
	if err != nil {
		return nil, err
	}
	n := len(sorted)
	return &DiGraph{labels: sorted, adjacency: make([]bool, n*n)}, nil
}

// NewCompleteDiGraph creates a directed graph with every edge except self-loops.
func NewCompleteDiGraph(labels []string) (*DiGraph, error) {
	g, err := NewDiGraph(labels)
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

// NewDiGraphFromEdges creates a directed graph from labelled edge pairs.
func NewDiGraphFromEdges(labels []string, edges [][2]string) (*DiGraph, error) {
	g, err := NewDiGraph(labels)
	if err != nil {
		return nil, err
	}
	for _, edge := range edges {
		i, err := g.LabelToIndex(edge[0])
		if err != nil {
			return nil, err
		}
		j, err := g.LabelToIndex(edge[1])
		if err != nil {
			return nil, err
		}
		if err := g.AddEdge(i, j); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func sortedUniqueLabels(labels []string) ([]string, error) {
	sorted := make([]string, len(labels))
	copy(sorted, labels)
	sort.Strings(sorted)
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateLabels, sorted[i])
		}
	}
	return sorted, nil
}

// Labels returns the sorted vertex labels.
func (g *DiGraph) Labels() []string {
	out := make([]string, len(g.labels))
	copy(out, g.labels)
	return out
}

// LabelToIndex returns the vertex index of a label.
func (g *DiGraph) LabelToIndex(label string) (int, error) {
	i := sort.SearchStrings(g.labels, label)
	if i >= len(g.labels) || g.labels[i] != label {
		return 0, fmt.Errorf("%w: %q", ErrMissingLabel, label)
	}
	return i, nil
}

// Order returns the number of vertices.
func (g *DiGraph) Order() int {
	return len(g.labels)
}

// Vertices returns all vertex indices in order.
func (g *DiGraph) Vertices() []int {
	out := make([]int, len(g.labels))
	for i := range out {
		out[i] = i
	}
	return out
}

func (g *DiGraph) checkVertex(i int) error {
	if i < 0 || i >= len(g.labels) {
		return fmt.Errorf("%w: %d", ErrVertexOutOfBounds, i)
	}
	return nil
}

func (g *DiGraph) checkSet(name string, x []int) error {
	for _, i := range x {
		if i < 0 || i >= len(g.labels) {
			return fmt.Errorf("%w: vertex %d in set %s", ErrVertexOutOfBounds, i, name)
		}
	}
	return nil
}

// AddEdge adds a directed edge i -> j.
func (g *DiGraph) AddEdge(i, j int) error {
	if err := g.checkVertex(i); err != nil {
		return err
	}
	if err := g.checkVertex(j); err != nil {
		return err
	}
	g.adjacency[i*len(g.labels)+j] = true
	return nil
}

// DelEdge removes the directed edge i -> j.
func (g *DiGraph) DelEdge(i, j int) error {
	if err := g.checkVertex(i); err != nil {
		return err
	}
	if err := g.checkVertex(j); err != nil {
		return err
	}
	g.adjacency[i*len(g.labels)+j] = false
	return nil
}

// HasEdge checks if the directed edge i -> j exists.
func (g *DiGraph) HasEdge(i, j int) bool {
	if i < 0 || j < 0 || i >= len(g.labels) || j >= len(g.labels) {
		return false
	}
	return g.adjacency[i*len(g.labels)+j]
}

// Edges returns all edges as [from, to] index pairs in row-major order.
func (g *DiGraph) Edges() [][2]int {
	n := len(g.labels)
	edges := make([][2]int, 0)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if g.adjacency[i*n+j] {
				edges = append(edges, [2]int{i, j})
			}
		}
	}
	return edges
}

// Parents returns the sorted union of parents of the vertices in x.
func (g *DiGraph) Parents(x []int) ([]int, error) {
	if err := g.checkSet("X", x); err != nil {
		return nil, err
	}
	n := len(g.labels)
	mark := make([]bool, n)
	for _, j := range x {
		for i := 0; i < n; i++ {
			if g.adjacency[i*n+j] {
				mark[i] = true
			}
		}
	}
	return marked(mark), nil
}

// Children returns the sorted union of children of the vertices in x.
func (g *DiGraph) Children(x []int) ([]int, error) {
	if err := g.checkSet("X", x); err != nil {
		return nil, err
	}
	n := len(g.labels)
	mark := make([]bool, n)
	for _, i := range x {
		for j := 0; j < n; j++ {
			if g.adjacency[i*n+j] {
				mark[j] = true
			}
		}
	}
	return marked(mark), nil
}

func marked(mark []bool) []int {
	out := make([]int, 0)
	for i, m := range mark {
		if m {
			out = append(out, i)
		}
	}
	return out
}

// Ancestors returns the sorted set of ancestors of the vertices in x.
func (g *DiGraph) Ancestors(x []int) ([]int, error) {
	return g.reach(x, false)
}

// Descendants returns the sorted set of descendants of the vertices in x.
func (g *DiGraph) Descendants(x []int) ([]int, error) {
	return g.reach(x, true)
}

// reach walks forward (children) or backward (parents) edges from x.
// The starting vertices are excluded unless reachable through a cycle.
func (g *DiGraph) reach(x []int, forward bool) ([]int, error) {
	if err := g.checkSet("X", x); err != nil {
		return nil, err
	}
	n := len(g.labels)
	visited := make([]bool, n)
	queue := sets.Clone(x)
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		for w := 0; w < n; w++ {
			var edge bool
			if forward {
				edge = g.adjacency[v*n+w]
			} else {
				edge = g.adjacency[w*n+v]
			}
			if edge && !visited[w] {
				visited[w] = true
				queue = append(queue, w)
			}
		}
	}
	return marked(visited), nil
}

// TopologicalSort returns a vertex ordering consistent with all edges.
// Ties are broken by vertex index for deterministic ordering.
func (g *DiGraph) TopologicalSort() ([]int, error) {
	n := len(g.labels)
	inDegree := make([]int, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if g.adjacency[i*n+j] {
				inDegree[j]++
			}
		}
	}

	queue := make([]int, 0)
	for i, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, i)
		}
	}

	order := make([]int, 0, n)
	for len(queue) > 0 {
		sort.Ints(queue)
		v := queue[0]
		queue = queue[1:]
		order = append(order, v)

		for j := 0; j < n; j++ {
			if g.adjacency[v*n+j] {
				inDegree[j]--
				if inDegree[j] == 0 {
					queue = append(queue, j)
				}
			}
		}
	}

	if len(order) != n {
		return nil, ErrNotADag
	}
	return order, nil
}

// IsAcyclic reports whether the graph has no directed cycles.
func (g *DiGraph) IsAcyclic() bool {
	_, err := g.TopologicalSort()
	return err == nil
}

// Copy creates a deep copy of the graph.
func (g *DiGraph) Copy() *DiGraph {
	adjacency := make([]bool, len(g.adjacency))
	copy(adjacency, g.adjacency)
	labels := make([]string, len(g.labels))
	copy(labels, g.labels)
	return &DiGraph{labels: labels, adjacency: adjacency}
}

// ToUndirected drops edge orientation, keeping the skeleton.
func (g *DiGraph) ToUndirected() *UnGraph {
	u, _ := NewUnGraph(g.labels)
	n := len(g.labels)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if g.adjacency[i*n+j] {
				_ = u.AddEdge(i, j)
			}
		}
	}
	return u
}

// MoralGraph creates the moral graph of the DAG: the skeleton with the
// parents of each vertex married.
func (g *DiGraph) MoralGraph() *UnGraph {
	u := g.ToUndirected()
	n := len(g.labels)
	for child := 0; child < n; child++ {
		parents, _ := g.Parents([]int{child})
		for i := 0; i < len(parents); i++ {
			for j := i + 1; j < len(parents); j++ {
				_ = u.AddEdge(parents[i], parents[j])
			}
		}
	}
	return u
}
