package data

import (
	"fmt"

	"github.com/JohnPierman/pgmgo/sets"
)

// MissingMethod selects a missing-data handler.
type MissingMethod int

const (
	// ListWise retains fully observed rows only.
	ListWise MissingMethod = iota
	// PairWise retains rows complete on the requested columns only.
	PairWise
	// IPW reweights pairwise-deleted rows by inverse probability of
	// observation.
	IPW
	// AIPW augments IPW, falling back to pairwise deletion when the
	// extra missingness parents overlap the partially observed variables.
	AIPW
)

// CatIncTable represents an incomplete categorical dataset: a CatTable
// whose values may hold the Missing sentinel, plus the missingness mask.
type CatIncTable struct {
	table   *CatTable
	missing *MissingMask
}

// NewCatIncTable creates a new incomplete categorical table. The
// Missing sentinel is preserved across the canonicalising permutation.
func NewCatIncTable(vars []Variable, values [][]byte) (*CatIncTable, error) {
	table, err := canonicalValues(vars, values, true)
	if err != nil {
		return nil, err
	}
	return &CatIncTable{
		table:   table,
		missing: newMissingMask(table.values, len(table.vars)),
	}, nil
}

// Labels returns the sorted variable labels.
func (t *CatIncTable) Labels() []string {
	return t.table.Labels()
}

// Variables returns the sorted variables with their states.
func (t *CatIncTable) Variables() []Variable {
	return t.table.Variables()
}

// Shape returns the number of states of each variable.
func (t *CatIncTable) Shape() []int {
	return t.table.Shape()
}

// Values returns the underlying state-index matrix, Missing included.
func (t *CatIncTable) Values() [][]byte {
	return t.table.Values()
}

// SampleSize returns the number of rows.
func (t *CatIncTable) SampleSize() float64 {
	return t.table.SampleSize()
}

// Missing returns the missingness mask summary.
func (t *CatIncTable) Missing() *MissingMask {
	return t.missing
}

// Select returns a new incomplete table restricted to and re-indexed
// over the columns in x.
func (t *CatIncTable) Select(x []int) (*CatIncTable, error) {
	selected, err := t.table.Select(x)
	if err != nil {
		return nil, err
	}
	return &CatIncTable{
		table:   selected,
		missing: newMissingMask(selected.values, len(selected.vars)),
	}, nil
}

// LWDeletion retains the fully observed rows.
func (t *CatIncTable) LWDeletion() (*CatTable, error) {
	anyMissing := t.missing.MaskByRows()
	values := make([][]byte, 0, t.missing.CompleteRowsCount())
	for r, row := range t.table.values {
		if anyMissing[r] {
			continue
		}
		out := make([]byte, len(row))
		copy(out, row)
		values = append(values, out)
	}
	return &CatTable{vars: cloneVariables(t.table.vars), values: values}, nil
}

// PWDeletion retains the rows complete on the columns in x, returning a
// complete table on those columns only.
func (t *CatIncTable) PWDeletion(x []int) (*CatTable, error) {
	x = sets.New(x...)
	if len(x) == 0 {
		return &CatTable{vars: nil, values: nil}, nil
	}
	if err := checkColumns(x, len(t.table.vars)); err != nil {
		return nil, err
	}

	vars := make([]Variable, len(x))
	for i, c := range x {
		vars[i] = t.table.vars[c]
	}
	values := make([][]byte, 0)
	for _, row := range t.table.values {
		complete := true
		for _, c := range x {
			if row[c] == Missing {
				complete = false
				break
			}
		}
		if !complete {
			continue
		}
		out := make([]byte, len(x))
		for i, c := range x {
			out[i] = row[c]
		}
		values = append(values, out)
	}
	return &CatTable{vars: cloneVariables(vars), values: values}, nil
}

// checkMissingMechanism validates the parent-of-missingness map: one
// entry per column, all indices in bounds.
func (t *CatIncTable) checkMissingMechanism(pr map[int][]int) error {
	if len(pr) != len(t.table.vars) {
		return fmt.Errorf(
			"%w: missing mechanism has %d entries for %d columns",
			ErrIncompatibleShape, len(pr), len(t.table.vars),
		)
	}
	for i, parents := range pr {
		if i < 0 || i >= len(t.table.vars) {
			return fmt.Errorf("%w: %d", ErrVertexOutOfBounds, i)
		}
		if err := checkColumns(parents, len(t.table.vars)); err != nil {
			return err
		}
	}
	return nil
}

// IPWDeletion applies inverse-probability weighting over the columns in
// x given the parent-of-missingness map pr. The closure U of x under pr
// is pairwise-deleted, per-row weights are accumulated from the ratio of
// Dirichlet-smoothed observation probabilities, rescaled to average one,
// and the result is restricted back to x.
func (t *CatIncTable) IPWDeletion(x []int, pr map[int][]int) (*CatWtdTable, error) {
	x = sets.New(x...)
	if len(x) == 0 {
		empty := &CatTable{vars: nil, values: nil}
		return &CatWtdTable{table: empty, weights: nil}, nil
	}
	if err := checkColumns(x, len(t.table.vars)); err != nil {
		return nil, err
	}
	if err := t.checkMissingMechanism(pr); err != nil {
		return nil, err
	}

	// Compute U as the transitive closure of X under the parent map.
	u := sets.Clone(x)
	next := make([]int, 0)
	for _, i := range x {
		next = sets.Union(next, sets.New(pr[i]...))
	}
	for !sets.IsSubset(next, u) {
		u = sets.Union(u, next)
		next = next[:0]
		for _, i := range u {
			next = sets.Union(next, sets.New(pr[i]...))
		}
	}

	dU, err := t.PWDeletion(u)
	if err != nil {
		return nil, err
	}
	beta, err := t.ipwWeights(dU, u, pr)
	if err != nil {
		return nil, err
	}

	// U is a superset of X: restrict back to X.
	positions := make([]int, 0, len(x))
	for _, c := range x {
		for p, c2 := range u {
			if c2 == c {
				positions = append(positions, p)
			}
		}
	}
	dX, err := dU.Select(positions)
	if err != nil {
		return nil, err
	}
	return NewCatWtdTable(dX, beta)
}

// ipwWeights computes the per-row IPW weights on the pairwise-deleted
// table dU over the closure u.
func (t *CatIncTable) ipwWeights(dU *CatTable, u []int, pr map[int][]int) ([]float64, error) {
	beta := make([]float64, len(dU.values))
	for i := range beta {
		beta[i] = 1.0
	}

	for _, ri := range u {
		pri := sets.New(pr[ri]...)
		if len(pri) == 0 {
			continue
		}

		// P(Pi_R_i | R_Pi_R_i = 0) and P(Pi_R_i | R_i = 0, R_Pi_R_i = 0),
		// Bayesian-estimated on the pairwise-deleted sub-tables.
		dPri, err := t.PWDeletion(pri)
		if err != nil {
			return nil, err
		}
		dPriRi, err := t.PWDeletion(sets.Union([]int{ri}, pri))
		if err != nil {
			return nil, err
		}

		priInJoint := make([]int, 0, len(pri))
		for p, c := range sets.Union([]int{ri}, pri) {
			if c != ri {
				priInJoint = append(priInJoint, p)
			}
		}

		pNum := jointBayesianProbabilities(dPri, dPri.allColumns())
		pDen := jointBayesianProbabilities(dPriRi, priInJoint)

		// Positions of the parents inside the closure table.
		priInU := make([]int, 0, len(pri))
		for _, c := range pri {
			for p, c2 := range u {
				if c2 == c {
					priInU = append(priInU, p)
				}
			}
		}

		shape := make([]int, len(priInU))
		for i, p := range priInU {
			shape[i] = len(dU.vars[p].States)
		}
		for j, row := range dU.values {
			idx := 0
			for i, p := range priInU {
				idx = idx*shape[i] + int(row[p])
			}
			beta[j] *= pNum[idx] / pDen[idx]
		}
	}

	// Rescale the weights so they average to one.
	total := 0.0
	for _, b := range beta {
		total += b
	}
	if total > 0 {
		scale := float64(len(beta)) / total
		for i := range beta {
			beta[i] *= scale
		}
	}
	return beta, nil
}

func (t *CatTable) allColumns() []int {
	out := make([]int, len(t.vars))
	for i := range out {
		out[i] = i
	}
	return out
}

// jointBayesianProbabilities estimates the joint distribution of the
// given columns of a complete table with a unit Dirichlet prior.
func jointBayesianProbabilities(t *CatTable, cols []int) []float64 {
	size := 1
	shape := make([]int, len(cols))
	for i, c := range cols {
		shape[i] = len(t.vars[c].States)
		size *= shape[i]
	}

	const alpha = 1.0
	counts := make([]float64, size)
	for _, row := range t.values {
		idx := 0
		for i, c := range cols {
			idx = idx*shape[i] + int(row[c])
		}
		counts[idx]++
	}
	total := float64(len(t.values)) + alpha*float64(size)
	for i := range counts {
		counts[i] = (counts[i] + alpha) / total
	}
	return counts
}

// AIPWDeletion applies augmented inverse-probability weighting: when the
// extra missingness parents of X are disjoint from the partially
// observed variables it delegates to IPW, otherwise it falls back to
// pairwise deletion with unit weights.
func (t *CatIncTable) AIPWDeletion(x []int, pr map[int][]int) (*CatWtdTable, error) {
	x = sets.New(x...)
	if len(x) == 0 {
		empty := &CatTable{vars: nil, values: nil}
		return &CatWtdTable{table: empty, weights: nil}, nil
	}
	if err := checkColumns(x, len(t.table.vars)); err != nil {
		return nil, err
	}
	if err := t.checkMissingMechanism(pr); err != nil {
		return nil, err
	}

	prW := make([]int, 0)
	for _, i := range x {
		prW = sets.Union(prW, sets.New(pr[i]...))
	}
	extra := sets.Difference(prW, x)
	if sets.IsDisjoint(extra, t.missing.PartiallyObserved()) {
		return t.IPWDeletion(x, pr)
	}

	dX, err := t.PWDeletion(x)
	if err != nil {
		return nil, err
	}
	weights := make([]float64, len(dX.values))
	for i := range weights {
		weights[i] = 1.0
	}
	return NewCatWtdTable(dX, weights)
}

// ApplyMissingMethod dispatches to the requested missing-data handler.
// ListWise ignores x; ListWise and PairWise return unit weights. The
// parent-of-missingness map pr is consulted by IPW and AIPW only.
func (t *CatIncTable) ApplyMissingMethod(method MissingMethod, x []int, pr map[int][]int) (*CatWtdTable, error) {
	switch method {
	case ListWise:
		table, err := t.LWDeletion()
		if err != nil {
			return nil, err
		}
		return unitWeights(table)
	case PairWise:
		table, err := t.PWDeletion(x)
		if err != nil {
			return nil, err
		}
		return unitWeights(table)
	case IPW:
		return t.IPWDeletion(x, pr)
	case AIPW:
		return t.AIPWDeletion(x, pr)
	default:
		return nil, fmt.Errorf("%w: unknown missing method %d", ErrInvalidParameter, method)
	}
}

func unitWeights(table *CatTable) (*CatWtdTable, error) {
	weights := make([]float64, len(table.values))
	for i := range weights {
		weights[i] = 1.0
	}
	return NewCatWtdTable(table, weights)
}
