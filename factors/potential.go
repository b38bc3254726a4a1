package factors

import (
	"fmt"
	"sort"

	"github.com/JohnPierman/pgmgo/data"
	"github.com/JohnPierman/pgmgo/sets"
)

// Potential represents an unnormalised joint table over a sorted set of
// categorical variables, used for aligned multiplication and
// marginalisation during causal estimation.
type Potential struct {
	vars   []data.Variable
	values []float64
}

// NewPotential creates a new potential. Variables are canonicalised and
// the value vector permuted to match.
func NewPotential(vars []data.Variable, values []float64) (*Potential, error) {
	sorted, axisPerm, statePerm, err := data.CanonicalVariables(vars)
	if err != nil {
		return nil, fmt.Errorf("factors: %w", err)
	}
	size := jointIndex(sorted).Size()
	if len(values) != size {
		return nil, fmt.Errorf(
			"%w: %d values for %d joint states", ErrIncompatibleShape, len(values), size,
		)
	}
	mapping := remapJoint(vars, sorted, axisPerm, statePerm)
	out := make([]float64, size)
	for i := range out {
		out[i] = values[mapping[i]]
	}
	return &Potential{vars: sorted, values: out}, nil
}

// FromCPD lifts a categorical CPD into a potential over the union of its
// response and conditioning variables.
func FromCPD(cpd *CatCPD) (*Potential, error) {
	vars := append(cpd.ResponseVariables(), cpd.ConditioningVariables()...)
	sorted, _, _, err := data.CanonicalVariables(vars)
	if err != nil {
		return nil, fmt.Errorf("factors: %w", err)
	}

	joint := jointIndex(sorted)
	xIndex := jointIndex(cpd.response)
	zIndex := jointIndex(cpd.conditioning)

	// Positions of the response and conditioning axes inside the union.
	xPos := labelPositions(sorted, cpd.response)
	zPos := labelPositions(sorted, cpd.conditioning)

	values := make([]float64, joint.Size())
	xStates := make([]int, len(cpd.response))
	zStates := make([]int, len(cpd.conditioning))
	for idx := 0; idx < joint.Size(); idx++ {
		states, _ := joint.Unravel(idx)
		for i, p := range xPos {
			xStates[i] = states[p]
		}
		for i, p := range zPos {
			zStates[i] = states[p]
		}
		col, _ := xIndex.Ravel(xStates)
		row, _ := zIndex.Ravel(zStates)
		values[idx] = cpd.params[row][col]
	}
	return &Potential{vars: sorted, values: values}, nil
}

func labelPositions(all, subset []data.Variable) []int {
	out := make([]int, len(subset))
	for i, v := range subset {
		for p, w := range all {
			if w.Label == v.Label {
				out[i] = p
				break
			}
		}
	}
	return out
}

// Variables returns the sorted variables of the potential.
func (p *Potential) Variables() []data.Variable {
	out := make([]data.Variable, len(p.vars))
	copy(out, p.vars)
	return out
}

// Labels returns the sorted variable labels.
func (p *Potential) Labels() []string {
	out := make([]string, len(p.vars))
	for i, v := range p.vars {
		out[i] = v.Label
	}
	return out
}

// Values returns the joint value vector. It must be treated as read-only.
func (p *Potential) Values() []float64 {
	return p.values
}

// IndicesFrom maps variable indices expressed against the given outer
// labels onto this potential's axes.
func (p *Potential) IndicesFrom(x []int, outer []string) ([]int, error) {
	out := make([]int, 0, len(x))
	for _, i := range x {
		if i < 0 || i >= len(outer) {
			return nil, fmt.Errorf("%w: index %d", ErrMissingState, i)
		}
		found := -1
		for a, v := range p.vars {
			if v.Label == outer[i] {
				found = a
				break
			}
		}
		if found < 0 {
			return nil, fmt.Errorf("%w: label %q", ErrMissingState, outer[i])
		}
		out = append(out, found)
	}
	return sets.New(out...), nil
}

// Mul multiplies two potentials over the aligned union of their
// variables. Shared variables must declare identical states.
func (p *Potential) Mul(q *Potential) (*Potential, error) {
	byLabel := make(map[string]data.Variable, len(p.vars)+len(q.vars))
	for _, v := range p.vars {
		byLabel[v.Label] = v
	}
	for _, v := range q.vars {
		if existing, ok := byLabel[v.Label]; ok {
			if len(existing.States) != len(v.States) {
				return nil, fmt.Errorf(
					"%w: variable %q has %d and %d states",
					ErrIncompatibleShape, v.Label, len(existing.States), len(v.States),
				)
			}
			for s := range v.States {
				if existing.States[s] != v.States[s] {
					return nil, fmt.Errorf(
						"%w: variable %q declares different states", ErrIncompatibleShape, v.Label,
					)
				}
			}
			continue
		}
		byLabel[v.Label] = v
	}

	labels := make([]string, 0, len(byLabel))
	for l := range byLabel {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	union := make([]data.Variable, len(labels))
	for i, l := range labels {
		union[i] = byLabel[l]
	}

	joint := jointIndex(union)
	pPos := labelPositions(union, p.vars)
	qPos := labelPositions(union, q.vars)
	pIndex := jointIndex(p.vars)
	qIndex := jointIndex(q.vars)

	values := make([]float64, joint.Size())
	pStates := make([]int, len(p.vars))
	qStates := make([]int, len(q.vars))
	for idx := 0; idx < joint.Size(); idx++ {
		states, _ := joint.Unravel(idx)
		for i, pos := range pPos {
			pStates[i] = states[pos]
		}
		for i, pos := range qPos {
			qStates[i] = states[pos]
		}
		pi, _ := pIndex.Ravel(pStates)
		qi, _ := qIndex.Ravel(qStates)
		values[idx] = p.values[pi] * q.values[qi]
	}
	return &Potential{vars: union, values: values}, nil
}

// Marginalize sums out the variables at the given axis indices.
func (p *Potential) Marginalize(x []int) (*Potential, error) {
	x = sets.New(x...)
	for _, i := range x {
		if i < 0 || i >= len(p.vars) {
			return nil, fmt.Errorf("%w: axis %d", ErrMissingState, i)
		}
	}

	kept := make([]data.Variable, 0, len(p.vars)-len(x))
	keptPos := make([]int, 0, len(p.vars)-len(x))
	for i, v := range p.vars {
		if !sets.Contains(x, i) {
			kept = append(kept, v)
			keptPos = append(keptPos, i)
		}
	}

	joint := jointIndex(p.vars)
	keptIndex := jointIndex(kept)
	values := make([]float64, keptIndex.Size())
	keptStates := make([]int, len(kept))
	for idx := 0; idx < joint.Size(); idx++ {
		states, _ := joint.Unravel(idx)
		for i, pos := range keptPos {
			keptStates[i] = states[pos]
		}
		ki, _ := keptIndex.Ravel(keptStates)
		values[ki] += p.values[idx]
	}
	return &Potential{vars: kept, values: values}, nil
}

// Normalize scales the potential to sum to one.
func (p *Potential) Normalize() (*Potential, error) {
	total := 0.0
	for _, v := range p.values {
		total += v
	}
	if total == 0 {
		return nil, fmt.Errorf("%w: potential sums to zero", ErrInvalidParameter)
	}
	values := make([]float64, len(p.values))
	for i, v := range p.values {
		values[i] = v / total
	}
	return &Potential{vars: p.vars, values: values}, nil
}

// ToCPD converts the potential into a CPD with response axes x and
// conditioning axes z, which together must cover every axis. Rows are
// normalised to sum to one.
func (p *Potential) ToCPD(x, z []int) (*CatCPD, error) {
	x, z = sets.New(x...), sets.New(z...)
	if len(x) == 0 {
		return nil, fmt.Errorf("%w: response axes", ErrEmptySet)
	}
	if !sets.IsDisjoint(x, z) {
		return nil, fmt.Errorf("%w: response and conditioning axes", ErrSetsNotDisjoint)
	}
	if len(x)+len(z) != len(p.vars) {
		return nil, fmt.Errorf(
			"%w: %d axes partitioned into %d response and %d conditioning",
			ErrIncompatibleShape, len(p.vars), len(x), len(z),
		)
	}

	response := make([]data.Variable, len(x))
	for i, a := range x {
		response[i] = p.vars[a]
	}
	conditioning := make([]data.Variable, len(z))
	for i, a := range z {
		conditioning[i] = p.vars[a]
	}

	joint := jointIndex(p.vars)
	xIndex := jointIndex(response)
	zIndex := jointIndex(conditioning)

	params := make([][]float64, zIndex.Size())
	for r := range params {
		params[r] = make([]float64, xIndex.Size())
	}
	xStates := make([]int, len(x))
	zStates := make([]int, len(z))
	for idx := 0; idx < joint.Size(); idx++ {
		states, _ := joint.Unravel(idx)
		for i, a := range x {
			xStates[i] = states[a]
		}
		for i, a := range z {
			zStates[i] = states[a]
		}
		col, _ := xIndex.Ravel(xStates)
		row, _ := zIndex.Ravel(zStates)
		params[row][col] += p.values[idx]
	}
	for r := range params {
		total := 0.0
		for _, v := range params[r] {
			total += v
		}
		if total == 0 {
			return nil, fmt.Errorf("%w: conditioning row %d sums to zero", ErrInvalidParameter, r)
		}
		for c := range params[r] {
			params[r][c] /= total
		}
	}

	return NewCatCPD(response, conditioning, params)
}
