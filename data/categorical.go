package data

import (
	"fmt"

	"github.com/JohnPierman/pgmgo/sets"
)

// CatTable represents a complete categorical dataset: sorted variables
// and a rows x cols matrix of byte-valued state indices.
type CatTable struct {
	vars   []Variable
	values [][]byte
}

// NewCatTable creates a new complete categorical table. The columns of
// values follow the order of vars; labels and states are sorted and the
// values permuted to match.
func NewCatTable(vars []Variable, values [][]byte) (*CatTable, error) {
	canonical, err := canonicalValues(vars, values, false)
	if err != nil {
		return nil, err
	}
	return canonical, nil
}

// canonicalValues performs the shared canonicalisation of complete and
// incomplete tables. When allowMissing is set, the Missing sentinel is
// preserved across the state permutation.
func canonicalValues(vars []Variable, values [][]byte, allowMissing bool) (*CatTable, error) {
	sorted, cols, remap, err := canonicalVariables(vars)
	if err != nil {
		return nil, err
	}
	for r, row := range values {
		if len(row) != len(vars) {
			return nil, fmt.Errorf(
				"%w: row %d has %d columns, expected %d",
				ErrIncompatibleShape, r, len(row), len(vars),
			)
		}
	}

	shape := shapeOf(sorted)
	out := make([][]byte, len(values))
	for r, row := range values {
		newRow := make([]byte, len(row))
		for newCol, oldCol := range cols {
			v := row[oldCol]
			if v == Missing && allowMissing {
				newRow[newCol] = Missing
				continue
			}
			if int(v) >= shape[newCol] {
				return nil, fmt.Errorf(
					"%w: value %d at row %d column %q exceeds %d states",
					ErrMissingValue, v, r, sorted[newCol].Label, shape[newCol],
				)
			}
			newRow[newCol] = remap[newCol][v]
		}
		out[r] = newRow
	}

	return &CatTable{vars: sorted, values: out}, nil
}

// Labels returns the sorted variable labels.
func (t *CatTable) Labels() []string {
	return labelsOf(t.vars)
}

// Variables returns the sorted variables with their states.
func (t *CatTable) Variables() []Variable {
	return cloneVariables(t.vars)
}

// States returns the states of the variable at column i.
func (t *CatTable) States(i int) []string {
	out := make([]string, len(t.vars[i].States))
	copy(out, t.vars[i].States)
	return out
}

// Shape returns the number of states of each variable.
func (t *CatTable) Shape() []int {
	return shapeOf(t.vars)
}

// Values returns the underlying state-index matrix. The matrix must be
// treated as read-only.
func (t *CatTable) Values() [][]byte {
	return t.values
}

// SampleSize returns the number of rows.
func (t *CatTable) SampleSize() float64 {
	return float64(len(t.values))
}

// Cols returns the number of variables.
func (t *CatTable) Cols() int {
	return len(t.vars)
}

// Select returns a new table restricted to and re-indexed over the
// columns in x.
func (t *CatTable) Select(x []int) (*CatTable, error) {
	x = sets.New(x...)
	if err := checkColumns(x, len(t.vars)); err != nil {
		return nil, err
	}

	vars := make([]Variable, len(x))
	for i, c := range x {
		vars[i] = t.vars[c]
	}
	values := make([][]byte, len(t.values))
	for r, row := range t.values {
		newRow := make([]byte, len(x))
		for i, c := range x {
			newRow[i] = row[c]
		}
		values[r] = newRow
	}
	return &CatTable{vars: cloneVariables(vars), values: values}, nil
}

// IndicesFrom maps column indices expressed against the given outer
// labels onto this table's columns.
func (t *CatTable) IndicesFrom(x []int, outer []string) ([]int, error) {
	if err := checkColumns(x, len(outer)); err != nil {
		return nil, err
	}
	labels := t.Labels()
	out := make([]int, 0, len(x))
	for _, i := range x {
		found := -1
		for j, l := range labels {
			if l == outer[i] {
				found = j
				break
			}
		}
		if found < 0 {
			return nil, fmt.Errorf("%w: %q", ErrMissingState, outer[i])
		}
		out = append(out, found)
	}
	return sets.New(out...), nil
}
