package models

import (
	"fmt"

	"github.com/JohnPierman/pgmgo/factors"
	"github.com/JohnPierman/pgmgo/graph"
)

// GaussBN represents a Gaussian Bayesian network: a DAG over the
// variables, one linear Gaussian CPD per vertex, and the cached
// topological order.
type GaussBN struct {
	graph *graph.DiGraph
	cpds  []*factors.GaussCPD
	topo  []int
}

// NewGaussBN creates a new Gaussian Bayesian network. Every CPD must
// have exactly one response label; CPD labels must cover the graph
// labels; the conditioning labels of each CPD must equal the sorted
// parents of its vertex; and the graph must be acyclic.
func NewGaussBN(g *graph.DiGraph, cpds []*factors.GaussCPD) (*GaussBN, error) {
	labels := g.Labels()

	byLabel := make(map[string]*factors.GaussCPD, len(cpds))
	for _, cpd := range cpds {
		response := cpd.Labels()
		if len(response) != 1 {
			return nil, fmt.Errorf(
				"%w: CPD must have exactly one response label, got %d",
				ErrInvalidParameter, len(response),
			)
		}
		if _, ok := byLabel[response[0]]; ok {
			return nil, fmt.Errorf("%w: duplicate CPD for %q", ErrInvalidParameter, response[0])
		}
		byLabel[response[0]] = cpd
	}
	if len(byLabel) != len(labels) {
		return nil, fmt.Errorf(
			"%w: %d CPDs for %d vertices", ErrLabelsMismatch, len(byLabel), len(labels),
		)
	}

	ordered := make([]*factors.GaussCPD, len(labels))
	for i, label := range labels {
		cpd, ok := byLabel[label]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingDistribution, label)
		}
		parents, err := g.Parents([]int{i})
		if err != nil {
			return nil, err
		}
		parentLabels := make([]string, len(parents))
		for k, p := range parents {
			parentLabels[k] = labels[p]
		}
		if !labelsEqual(parentLabels, cpd.ConditioningLabels()) {
			return nil, fmt.Errorf(
				"%w: vertex %q has parents %v but conditioning %v",
				ErrParentsMismatch, label, parentLabels, cpd.ConditioningLabels(),
			)
		}
		ordered[i] = cpd
	}

	topo, err := g.TopologicalSort()
	if err != nil {
		return nil, ErrNotADag
	}

	return &GaussBN{graph: g.Copy(), cpds: ordered, topo: topo}, nil
}

// Graph returns the network structure.
func (m *GaussBN) Graph() *graph.DiGraph {
	return m.graph
}

// Labels returns the sorted variable labels.
func (m *GaussBN) Labels() []string {
	return m.graph.Labels()
}

// CPD returns the CPD of the vertex at index i.
func (m *GaussBN) CPD(i int) *factors.GaussCPD {
	return m.cpds[i]
}

// CPDs returns the CPDs in vertex order.
func (m *GaussBN) CPDs() []*factors.GaussCPD {
	out := make([]*factors.GaussCPD, len(m.cpds))
	copy(out, m.cpds)
	return out
}

// TopologicalOrder returns the cached topological order.
func (m *GaussBN) TopologicalOrder() []int {
	out := make([]int, len(m.topo))
	copy(out, m.topo)
	return out
}

// ParametersSize returns the total number of free parameters.
func (m *GaussBN) ParametersSize() int {
	total := 0
	for _, cpd := range m.cpds {
		total += cpd.ParametersSize()
	}
	return total
}
