// Package factors provides the conditional distributions of the module
// (CatCPD, GaussCPD, CatCIM), the joint potentials used by causal
// estimation, and the sample-statistics values carried by fitted objects.
package factors

import (
	"fmt"

	"github.com/JohnPierman/pgmgo/data"
)

// MultiIndex translates tuples of bounded integers into a single linear
// index using a mixed-radix encoding with the last axis fastest.
type MultiIndex struct {
	shape   []int
	strides []int
	size    int
}

// NewMultiIndex creates a multi-index over the given shape. An empty
// shape yields the single index 0.
func NewMultiIndex(shape []int) *MultiIndex {
	strides := make([]int, len(shape))
	size := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = size
		size *= shape[i]
	}
	out := make([]int, len(shape))
	copy(out, shape)
	return &MultiIndex{shape: out, strides: strides, size: size}
}

// Shape returns the per-axis cardinalities.
func (m *MultiIndex) Shape() []int {
	out := make([]int, len(m.shape))
	copy(out, m.shape)
	return out
}

// Size returns the number of joint states.
func (m *MultiIndex) Size() int {
	return m.size
}

// Ravel encodes a tuple of states into a linear index.
func (m *MultiIndex) Ravel(states []int) (int, error) {
	if len(states) != len(m.shape) {
		return 0, fmt.Errorf(
			"%w: %d states for %d axes", ErrIncompatibleShape, len(states), len(m.shape),
		)
	}
	idx := 0
	for i, s := range states {
		if s < 0 || s >= m.shape[i] {
			return 0, fmt.Errorf("%w: state %d on axis %d", ErrMissingState, s, i)
		}
		idx += s * m.strides[i]
	}
	return idx, nil
}

// Unravel decodes a linear index into a tuple of states.
func (m *MultiIndex) Unravel(idx int) ([]int, error) {
	if idx < 0 || idx >= m.size {
		return nil, fmt.Errorf("%w: index %d of %d", ErrMissingState, idx, m.size)
	}
	states := make([]int, len(m.shape))
	for i := range m.shape {
		states[i] = idx / m.strides[i] % m.shape[i]
	}
	return states, nil
}

// jointIndex builds a multi-index over the joint states of variables.
func jointIndex(vars []data.Variable) *MultiIndex {
	shape := make([]int, len(vars))
	for i, v := range vars {
		shape[i] = len(v.States)
	}
	return NewMultiIndex(shape)
}

// remapJoint maps each joint index over the canonicalised variables back
// onto the joint index over the original variables. axisPerm maps new
// axis to old axis; statePerm[newAxis] maps old state to new state.
func remapJoint(origVars, sortedVars []data.Variable, axisPerm []int, statePerm [][]byte) []int {
	oldIndex := jointIndex(origVars)
	newIndex := jointIndex(sortedVars)

	// Invert the per-axis state permutations.
	inverse := make([][]int, len(sortedVars))
	for a, perm := range statePerm {
		inverse[a] = make([]int, len(perm))
		for oldState, newState := range perm {
			inverse[a][newState] = oldState
		}
	}

	mapping := make([]int, newIndex.Size())
	oldStates := make([]int, len(origVars))
	for idx := 0; idx < newIndex.Size(); idx++ {
		newStates, _ := newIndex.Unravel(idx)
		for newAxis, newState := range newStates {
			oldStates[axisPerm[newAxis]] = inverse[newAxis][newState]
		}
		old, _ := oldIndex.Ravel(oldStates)
		mapping[idx] = old
	}
	return mapping
}
