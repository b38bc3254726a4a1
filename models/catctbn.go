package models

import (
	"fmt"

	"github.com/JohnPierman/pgmgo/data"
	"github.com/JohnPierman/pgmgo/factors"
	"github.com/JohnPierman/pgmgo/graph"
)

// CatCTBN represents a categorical continuous-time Bayesian network: a
// directed graph over the variables (cycles allowed), one conditional
// intensity matrix per vertex, and an initial distribution held as an
// edge-free product-form Bayesian network.
type CatCTBN struct {
	graph   *graph.DiGraph
	cims    []*factors.CatCIM
	vars    []data.Variable
	initial *CatBN
}

// CatCTBNOption configures a CatCTBN.
type CatCTBNOption func(*CatCTBN) error

// WithInitialDistribution overrides the default uniform initial
// distribution. The override must share the network's labels and states.
func WithInitialDistribution(initial *CatBN) CatCTBNOption {
	return func(m *CatCTBN) error {
		if !stringsEqual(initial.Labels(), m.graph.Labels()) {
			return fmt.Errorf("%w: initial distribution labels", ErrLabelsMismatch)
		}
		for i, v := range initial.Variables() {
			if !stringsEqual(v.States, m.vars[i].States) {
				return fmt.Errorf("%w: variable %q", ErrStatesMismatch, v.Label)
			}
		}
		m.initial = initial
		return nil
	}
}

// NewCatCTBN creates a new categorical continuous-time Bayesian network.
// Every CIM conditions exactly one variable; CIM labels must cover the
// graph labels; state sets must agree across every CIM mentioning a
// variable; and the conditioning labels of each CIM must equal the
// sorted parents of its vertex. By default the initial distribution is
// the uniform product over the variable states.
func NewCatCTBN(g *graph.DiGraph, cims []*factors.CatCIM, opts ...CatCTBNOption) (*CatCTBN, error) {
	labels := g.Labels()

	byLabel := make(map[string]*factors.CatCIM, len(cims))
	for _, cim := range cims {
		label := cim.ResponseVariable().Label
		if _, ok := byLabel[label]; ok {
			return nil, fmt.Errorf("%w: duplicate CIM for %q", ErrInvalidParameter, label)
		}
		byLabel[label] = cim
	}
	if len(byLabel) != len(labels) {
		return nil, fmt.Errorf(
			"%w: %d CIMs for %d vertices", ErrLabelsMismatch, len(byLabel), len(labels),
		)
	}

	// Merge the per-variable state sets, requiring consistency.
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
	for _, cim := range byLabel {
		if err := record(cim.ResponseVariable()); err != nil {
			return nil, err
		}
		for _, v := range cim.ConditioningVariables() {
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

	ordered := make([]*factors.CatCIM, len(labels))
	for i, label := range labels {
		cim := byLabel[label]
		parents, err := g.Parents([]int{i})
		if err != nil {
			return nil, err
		}
		parentLabels := make([]string, len(parents))
		for k, p := range parents {
			parentLabels[k] = labels[p]
		}
		if !labelsEqual(parentLabels, cim.ConditioningLabels()) {
			return nil, fmt.Errorf(
				"%w: vertex %q has parents %v but conditioning %v",
				ErrParentsMismatch, label, parentLabels, cim.ConditioningLabels(),
			)
		}
		ordered[i] = cim
	}

	initial, err := uniformInitialDistribution(vars)
	if err != nil {
		return nil, err
	}

	m := &CatCTBN{graph: g.Copy(), cims: ordered, vars: vars, initial: initial}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// uniformInitialDistribution builds the edge-free product-form network
// assigning every variable a uniform distribution over its states.
func uniformInitialDistribution(vars []data.Variable) (*CatBN, error) {
	labels := make([]string, len(vars))
	for i, v := range vars {
		labels[i] = v.Label
	}
	g, err := graph.NewDiGraph(labels)
	if err != nil {
		return nil, err
	}
	cpds := make([]*factors.CatCPD, len(vars))
	for i, v := range vars {
		k := len(v.States)
		row := make([]float64, k)
		for s := range row {
			row[s] = 1 / float64(k)
		}
		cpd, err := factors.NewCatCPD([]data.Variable{v}, nil, [][]float64{row})
		if err != nil {
			return nil, err
		}
		cpds[i] = cpd
	}
	return NewCatBN(g, cpds)
}

// Graph returns the network structure.
func (m *CatCTBN) Graph() *graph.DiGraph {
	return m.graph
}

// Labels returns the sorted variable labels.
func (m *CatCTBN) Labels() []string {
	return m.graph.Labels()
}

// Variables returns the sorted variables with their merged states.
func (m *CatCTBN) Variables() []data.Variable {
	out := make([]data.Variable, len(m.vars))
	copy(out, m.vars)
	return out
}

// CIM returns the CIM of the vertex at index i.
func (m *CatCTBN) CIM(i int) *factors.CatCIM {
	return m.cims[i]
}

// CIMs returns the CIMs in vertex order.
func (m *CatCTBN) CIMs() []*factors.CatCIM {
	out := make([]*factors.CatCIM, len(m.cims))
	copy(out, m.cims)
	return out
}

// InitialDistribution returns the initial state distribution.
func (m *CatCTBN) InitialDistribution() *CatBN {
	return m.initial
}

// ParametersSize returns the total number of free parameters, the
// initial distribution included.
func (m *CatCTBN) ParametersSize() int {
	total := m.initial.ParametersSize()
	for _, cim := range m.cims {
		total += cim.ParametersSize()
	}
	return total
}
