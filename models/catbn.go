// Package models provides the probabilistic graphical models of the
// module: categorical and Gaussian Bayesian networks and categorical
// continuous-time Bayesian networks, with their construction-time
// invariants.
package models

import (
	"fmt"
	"sort"

	"github.com/JohnPierman/pgmgo/data"
	"github.com/JohnPierman/pgmgo/factors"
	"github.com/JohnPierman/pgmgo/graph"
)

// CatBN represents a categorical Bayesian network: a DAG over the
// variables, one CPD per vertex whose conditioning labels equal the
// sorted graph parents, and the cached topological order.
type CatBN struct {
	graph *graph.DiGraph
	cpds  []*factors.CatCPD
	vars  []data.Variable
	topo  []int
}

// NewCatBN creates a new categorical Bayesian network. Every CPD must
// have exactly one response variable; CPD labels must cover the graph
// labels; state sets must agree across every CPD mentioning a variable;
// the conditioning labels of each CPD must equal the sorted parents of
// its vertex; and the graph must be acyclic.
func NewCatBN(g *graph.DiGraph, cpds []*factors.CatCPD) (*CatBN, error) {
	labels := g.Labels()

	byLabel := make(map[string]*factors.CatCPD, len(cpds))
	for _, cpd := range cpds {
		response := cpd.ResponseVariables()
		if len(response) != 1 {
			return nil, fmt.Errorf(
				"%w: CPD must have exactly one response variable, got %d",
				ErrInvalidParameter, len(response),
			)
		}
		label := response[0].Label
		if _, ok := byLabel[label]; ok {
			return nil, fmt.Errorf("%w: duplicate CPD for %q", ErrInvalidParameter, label)
		}
		byLabel[label] = cpd
	}
	if len(byLabel) != len(labels) {
		return nil, fmt.Errorf(
			"%w: %d CPDs for %d vertices", ErrLabelsMismatch, len(byLabel), len(labels),
		)
	}

	// Merge the per-variable state sets across every CPD that mentions a
	// variable, requiring consistency.
	vars, err := mergeStates(labels, byLabel)
	if err != nil {
		return nil, err
	}

	ordered := make([]*factors.CatCPD, len(labels))
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
		conditioning := cpd.ConditioningLabels()
		if !labelsEqual(parentLabels, conditioning) {
			return nil, fmt.Errorf(
				"%w: vertex %q has parents %v but conditioning %v",
				ErrParentsMismatch, label, parentLabels, conditioning,
			)
		}
		ordered[i] = cpd
	}

	topo, err := g.TopologicalSort()
	if err != nil {
		return nil, ErrNotADag
	}

	return &CatBN{graph: g.Copy(), cpds: ordered, vars: vars, topo: topo}, nil
}

// mergeStates collects the states each variable is declared with across
// response and conditioning sides of all CPDs.
func mergeStates(labels []string, byLabel map[string]*factors.CatCPD) ([]data.Variable, error) {
	states := make(map[string][]string, len(labels))
	record := func(v data.Variable) error {
		if existing, ok := states[v.Label]; ok {
			if !stringsEqual(existing, v.States) {
				return fmt.Errorf("%w: variable %q", ErrStatesMismatch, v.Label)
			}
			return nil
		}
		states[v.Label] = v.States
		return nil
	}
	for _, cpd := range byLabel {
		for _, v := range cpd.ResponseVariables() {
			if err := record(v); err != nil {
				return nil, err
			}
		}
		for _, v := range cpd.ConditioningVariables() {
			if err := record(v); err != nil {
				return nil, err
			}
		}
	}

	vars := make([]data.Variable, len(labels))
	for i, label := range labels {
		s, ok := states[label]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingDistribution, label)
		}
		vars[i] = data.Variable{Label: label, States: s}
	}
	return vars, nil
}

func labelsEqual(a, b []string) bool {
	sortedA := make([]string, len(a))
	copy(sortedA, a)
	sort.Strings(sortedA)
	sortedB := make([]string, len(b))
	copy(sortedB, b)
	sort.Strings(sortedB)
	return stringsEqual(sortedA, sortedB)
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Graph returns the network structure.
func (m *CatBN) Graph() *graph.DiGraph {
	return m.graph
}

// Labels returns the sorted variable labels.
func (m *CatBN) Labels() []string {
	return m.graph.Labels()
}

// Variables returns the sorted variables with their merged states.
func (m *CatBN) Variables() []data.Variable {
	out := make([]data.Variable, len(m.vars))
	copy(out, m.vars)
	return out
}

// CPD returns the CPD of the vertex at index i.
func (m *CatBN) CPD(i int) *factors.CatCPD {
	return m.cpds[i]
}

// CPDs returns the CPDs in vertex order.
func (m *CatBN) CPDs() []*factors.CatCPD {
	out := make([]*factors.CatCPD, len(m.cpds))
	copy(out, m.cpds)
	return out
}

// TopologicalOrder returns the cached topological order.
func (m *CatBN) TopologicalOrder() []int {
	out := make([]int, len(m.topo))
	copy(out, m.topo)
	return out
}

// ParametersSize returns the total number of free parameters.
func (m *CatBN) ParametersSize() int {
	total := 0
	for _, cpd := range m.cpds {
		total += cpd.ParametersSize()
	}
	return total
}
