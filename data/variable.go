// Package data provides the dataset containers of the module:
// categorical and Gaussian tables in complete, incomplete and weighted
// form, and piecewise-constant continuous-time trajectories.
//
// Every constructor canonicalises its input: labels are sorted in
// lexicographical order, the states of each categorical variable are
// sorted, and the value matrices are re-permuted to match. Constructed
// objects are treated as immutable values.
package data

import (
	"fmt"
	"sort"
)

// MaxStates is the largest admissible number of states per variable;
// state indices must fit in a byte with Missing reserved.
const MaxStates = 255

// Missing is the sentinel state index marking a missing categorical value.
const Missing byte = 0xFF

// Variable pairs a label with the ordered set of states it can take.
type Variable struct {
	Label  string
	States []string
}

// CanonicalVariables sorts variables by label and states within each
// variable, returning the sorted variables together with the column
// permutation (newCol -> oldCol) and the per-column state remapping
// (oldState -> newState).
func CanonicalVariables(vars []Variable) ([]Variable, []int, [][]byte, error) {
	return canonicalVariables(vars)
}

// canonicalVariables sorts variables by label and states within each
// variable, returning the sorted variables together with the column
// permutation (newCol -> oldCol) and the per-column state remapping
// (oldState -> newState).
func canonicalVariables(vars []Variable) ([]Variable, []int, [][]byte, error) {
	cols := make([]int, len(vars))
	for i := range cols {
		cols[i] = i
	}
	sort.Slice(cols, func(a, b int) bool {
		return vars[cols[a]].Label < vars[cols[b]].Label
	})

	sorted := make([]Variable, len(vars))
	remap := make([][]byte, len(vars))
	for newCol, oldCol := range cols {
		v := vars[oldCol]
		if newCol > 0 && sorted[newCol-1].Label == v.Label {
			return nil, nil, nil, fmt.Errorf("%w: %q", ErrDuplicateLabels, v.Label)
		}
		if len(v.States) > MaxStates {
			return nil, nil, nil, fmt.Errorf(
				"%w: variable %q has %d states, at most %d supported",
				ErrInvalidParameter, v.Label, len(v.States), MaxStates,
			)
		}

		states := make([]string, len(v.States))
		copy(states, v.States)
		order := make([]int, len(states))
		for i := range order {
			order[i] = i
		}
		sort.Slice(order, func(a, b int) bool {
			return states[order[a]] < states[order[b]]
		})

		sortedStates := make([]string, len(states))
		mapping := make([]byte, len(states))
		for newState, oldState := range order {
			sortedStates[newState] = states[oldState]
			if newState > 0 && sortedStates[newState-1] == sortedStates[newState] {
				return nil, nil, nil, fmt.Errorf(
					"%w: variable %q state %q", ErrDuplicateStates, v.Label, sortedStates[newState],
				)
			}
			mapping[oldState] = byte(newState)
		}

		sorted[newCol] = Variable{Label: v.Label, States: sortedStates}
		remap[newCol] = mapping
	}

	return sorted, cols, remap, nil
}

// labelsOf extracts the labels of a variable slice.
func labelsOf(vars []Variable) []string {
	labels := make([]string, len(vars))
	for i, v := range vars {
		labels[i] = v.Label
	}
	return labels
}

// shapeOf extracts the per-variable state counts.
func shapeOf(vars []Variable) []int {
	shape := make([]int, len(vars))
	for i, v := range vars {
		shape[i] = len(v.States)
	}
	return shape
}

// cloneVariables deep-copies a variable slice.
func cloneVariables(vars []Variable) []Variable {
	out := make([]Variable, len(vars))
	for i, v := range vars {
		states := make([]string, len(v.States))
		copy(states, v.States)
		out[i] = Variable{Label: v.Label, States: states}
	}
	return out
}

// variablesEqual reports whether two variable slices declare the same
// labels with the same states in the same order.
func variablesEqual(a, b []Variable) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Label != b[i].Label || len(a[i].States) != len(b[i].States) {
			return false
		}
		for j := range a[i].States {
			if a[i].States[j] != b[i].States[j] {
				return false
			}
		}
	}
	return true
}

// checkColumns validates that every index in x addresses a column.
func checkColumns(x []int, cols int) error {
	for _, i := range x {
		if i < 0 || i >= cols {
			return fmt.Errorf("%w: %d", ErrVertexOutOfBounds, i)
		}
	}
	return nil
}
