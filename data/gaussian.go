package data

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/JohnPierman/pgmgo/sets"
)

// GaussTable represents a complete Gaussian dataset: sorted labels and a
// rows x cols real matrix. A table with no rows holds a nil matrix.
type GaussTable struct {
	labels []string
	values *mat.Dense
}

// NewGaussTable creates a new complete Gaussian table. The columns of
// values follow the order of labels; labels are sorted and the columns
// permuted to match.
func NewGaussTable(labels []string, values *mat.Dense) (*GaussTable, error) {
	sorted, permuted, err := canonicalRealColumns(labels, values, false)
	if err != nil {
		return nil, err
	}
	return &GaussTable{labels: sorted, values: permuted}, nil
}

// canonicalRealColumns sorts labels and permutes the matrix columns to
// match. NaN entries are rejected unless allowMissing is set.
func canonicalRealColumns(labels []string, values *mat.Dense, allowMissing bool) ([]string, *mat.Dense, error) {
	cols := make([]int, len(labels))
	for i := range cols {
		cols[i] = i
	}
	sort.Slice(cols, func(a, b int) bool { return labels[cols[a]] < labels[cols[b]] })

	sorted := make([]string, len(labels))
	for newCol, oldCol := range cols {
		sorted[newCol] = labels[oldCol]
		if newCol > 0 && sorted[newCol-1] == sorted[newCol] {
			return nil, nil, fmt.Errorf("%w: %q", ErrDuplicateLabels, sorted[newCol])
		}
	}

	if values == nil {
		return sorted, nil, nil
	}
	rows, c := values.Dims()
	if c != len(labels) {
		return nil, nil, fmt.Errorf(
			"%w: %d columns for %d labels", ErrIncompatibleShape, c, len(labels),
		)
	}
	if rows == 0 || c == 0 {
		return sorted, nil, nil
	}

	out := mat.NewDense(rows, c, nil)
	for newCol, oldCol := range cols {
		for r := 0; r < rows; r++ {
			v := values.At(r, oldCol)
			if math.IsNaN(v) && !allowMissing {
				return nil, nil, fmt.Errorf(
					"%w: NaN at row %d column %q", ErrMissingValue, r, sorted[newCol],
				)
			}
			out.Set(r, newCol, v)
		}
	}
	return sorted, out, nil
}

// Labels returns the sorted variable labels.
func (t *GaussTable) Labels() []string {
	out := make([]string, len(t.labels))
	copy(out, t.labels)
	return out
}

// Values returns the underlying real matrix, nil when the table has no
// rows. The matrix must be treated as read-only.
func (t *GaussTable) Values() *mat.Dense {
	return t.values
}

// Rows returns the number of rows.
func (t *GaussTable) Rows() int {
	if t.values == nil {
		return 0
	}
	rows, _ := t.values.Dims()
	return rows
}

// SampleSize returns the number of rows.
func (t *GaussTable) SampleSize() float64 {
	return float64(t.Rows())
}

// Cols returns the number of variables.
func (t *GaussTable) Cols() int {
	return len(t.labels)
}

// Select returns a new table restricted to and re-indexed over the
// columns in x.
func (t *GaussTable) Select(x []int) (*GaussTable, error) {
	x = sets.New(x...)
	if err := checkColumns(x, len(t.labels)); err != nil {
		return nil, err
	}
	labels := make([]string, len(x))
	for i, c := range x {
		labels[i] = t.labels[c]
	}
	rows := t.Rows()
	if rows == 0 || len(x) == 0 {
		return &GaussTable{labels: labels, values: nil}, nil
	}
	values := mat.NewDense(rows, len(x), nil)
	for i, c := range x {
		for r := 0; r < rows; r++ {
			values.Set(r, i, t.values.At(r, c))
		}
	}
	return &GaussTable{labels: labels, values: values}, nil
}

// GaussIncTable represents an incomplete Gaussian dataset: missing
// entries are NaN, summarised by a missingness mask.
type GaussIncTable struct {
	labels  []string
	values  *mat.Dense
	missing *MissingMask
}

// NewGaussIncTable creates a new incomplete Gaussian table.
func NewGaussIncTable(labels []string, values *mat.Dense) (*GaussIncTable, error) {
	sorted, permuted, err := canonicalRealColumns(labels, values, true)
	if err != nil {
		return nil, err
	}
	rows := 0
	if permuted != nil {
		rows, _ = permuted.Dims()
	}
	byteMask := make([][]byte, rows)
	for r := 0; r < rows; r++ {
		byteMask[r] = make([]byte, len(sorted))
		for c := 0; c < len(sorted); c++ {
			if math.IsNaN(permuted.At(r, c)) {
				byteMask[r][c] = Missing
			}
		}
	}
	return &GaussIncTable{
		labels:  sorted,
		values:  permuted,
		missing: newMissingMask(byteMask, len(sorted)),
	}, nil
}

// Labels returns the sorted variable labels.
func (t *GaussIncTable) Labels() []string {
	out := make([]string, len(t.labels))
	copy(out, t.labels)
	return out
}

// Values returns the underlying real matrix, NaN marking missing entries.
func (t *GaussIncTable) Values() *mat.Dense {
	return t.values
}

// SampleSize returns the number of rows.
func (t *GaussIncTable) SampleSize() float64 {
	if t.values == nil {
		return 0
	}
	rows, _ := t.values.Dims()
	return float64(rows)
}

// Missing returns the missingness mask summary.
func (t *GaussIncTable) Missing() *MissingMask {
	return t.missing
}

// LWDeletion retains the fully observed rows.
func (t *GaussIncTable) LWDeletion() (*GaussTable, error) {
	rows := 0
	if t.values != nil {
		rows, _ = t.values.Dims()
	}
	anyMissing := t.missing.MaskByRows()
	kept := make([]int, 0, rows)
	for r := 0; r < rows; r++ {
		if !anyMissing[r] {
			kept = append(kept, r)
		}
	}
	cols := len(t.labels)
	if len(kept) == 0 || cols == 0 {
		return &GaussTable{labels: t.Labels(), values: nil}, nil
	}
	values := mat.NewDense(len(kept), cols, nil)
	for i, r := range kept {
		for c := 0; c < cols; c++ {
			values.Set(i, c, t.values.At(r, c))
		}
	}
	return &GaussTable{labels: t.Labels(), values: values}, nil
}

// PWDeletion retains the rows complete on the columns in x, returning a
// complete table on those columns only.
func (t *GaussIncTable) PWDeletion(x []int) (*GaussTable, error) {
	x = sets.New(x...)
	if err := checkColumns(x, len(t.labels)); err != nil {
		return nil, err
	}
	rows := 0
	if t.values != nil {
		rows, _ = t.values.Dims()
	}
	kept := make([]int, 0, rows)
	for r := 0; r < rows; r++ {
		complete := true
		for _, c := range x {
			if math.IsNaN(t.values.At(r, c)) {
				complete = false
				break
			}
		}
		if complete {
			kept = append(kept, r)
		}
	}
	labels := make([]string, len(x))
	for i, c := range x {
		labels[i] = t.labels[c]
	}
	if len(kept) == 0 || len(x) == 0 {
		return &GaussTable{labels: labels, values: nil}, nil
	}
	values := mat.NewDense(len(kept), len(x), nil)
	for i, c := range x {
		for j, r := range kept {
			values.Set(j, i, t.values.At(r, c))
		}
	}
	return &GaussTable{labels: labels, values: values}, nil
}

// GaussWtdTable pairs a complete Gaussian table with a non-negative
// row-weight vector.
type GaussWtdTable struct {
	table   *GaussTable
	weights []float64
}

// NewGaussWtdTable creates a new weighted Gaussian table.
func NewGaussWtdTable(table *GaussTable, weights []float64) (*GaussWtdTable, error) {
	if len(weights) != table.Rows() {
		return nil, fmt.Errorf(
			"%w: %d weights for %d rows", ErrIncompatibleShape, len(weights), table.Rows(),
		)
	}
	for i, w := range weights {
		if w < 0 || math.IsNaN(w) {
			return nil, fmt.Errorf("%w: weight %g at row %d", ErrInvalidParameter, w, i)
		}
	}
	out := make([]float64, len(weights))
	copy(out, weights)
	return &GaussWtdTable{table: table, weights: out}, nil
}

// Table returns the underlying complete table.
func (t *GaussWtdTable) Table() *GaussTable {
	return t.table
}

// Labels returns the sorted variable labels.
func (t *GaussWtdTable) Labels() []string {
	return t.table.Labels()
}

// Values returns the underlying real matrix.
func (t *GaussWtdTable) Values() *mat.Dense {
	return t.table.Values()
}

// Weights returns the row weights. The slice must be treated as read-only.
func (t *GaussWtdTable) Weights() []float64 {
	return t.weights
}

// SampleSize returns the total weight.
func (t *GaussWtdTable) SampleSize() float64 {
	total := 0.0
	for _, w := range t.weights {
		total += w
	}
	return total
}
