package data

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// MissingMask summarises the missingness pattern of an incomplete table:
// the boolean mask itself, per-row and per-column counts and rates, the
// any-missing bitmaps, and the sample covariance and correlation of the
// mask columns.
type MissingMask struct {
	mask [][]bool
	rows int
	cols int
}

func newMissingMask(values [][]byte, cols int) *MissingMask {
	mask := make([][]bool, len(values))
	for r, row := range values {
		mask[r] = make([]bool, cols)
		for c, v := range row {
			mask[r][c] = v == Missing
		}
	}
	return &MissingMask{mask: mask, rows: len(values), cols: cols}
}

// Mask returns the boolean missingness matrix. It must be treated as
// read-only.
func (m *MissingMask) Mask() [][]bool {
	return m.mask
}

// CountByCols returns the number of missing values per column.
func (m *MissingMask) CountByCols() []int {
	counts := make([]int, m.cols)
	for _, row := range m.mask {
		for c, missing := range row {
			if missing {
				counts[c]++
			}
		}
	}
	return counts
}

// CountByRows returns the number of missing values per row.
func (m *MissingMask) CountByRows() []int {
	counts := make([]int, m.rows)
	for r, row := range m.mask {
		for _, missing := range row {
			if missing {
				counts[r]++
			}
		}
	}
	return counts
}

// Count returns the total number of missing values.
func (m *MissingMask) Count() int {
	total := 0
	for _, c := range m.CountByRows() {
		total += c
	}
	return total
}

// MaskByCols returns, per column, whether any value is missing.
func (m *MissingMask) MaskByCols() []bool {
	out := make([]bool, m.cols)
	for c, count := range m.CountByCols() {
		out[c] = count > 0
	}
	return out
}

// MaskByRows returns, per row, whether any value is missing.
func (m *MissingMask) MaskByRows() []bool {
	out := make([]bool, m.rows)
	for r, count := range m.CountByRows() {
		out[r] = count > 0
	}
	return out
}

// Rate returns the overall fraction of missing values.
func (m *MissingMask) Rate() float64 {
	if m.rows == 0 || m.cols == 0 {
		return 0
	}
	return float64(m.Count()) / float64(m.rows*m.cols)
}

// RateByCols returns the fraction of missing values per column.
func (m *MissingMask) RateByCols() []float64 {
	rates := make([]float64, m.cols)
	if m.rows == 0 {
		return rates
	}
	for c, count := range m.CountByCols() {
		rates[c] = float64(count) / float64(m.rows)
	}
	return rates
}

// RateByRows returns the fraction of missing values per row.
func (m *MissingMask) RateByRows() []float64 {
	rates := make([]float64, m.rows)
	if m.cols == 0 {
		return rates
	}
	for r, count := range m.CountByRows() {
		rates[r] = float64(count) / float64(m.cols)
	}
	return rates
}

// CompleteRowsCount returns the number of fully observed rows.
func (m *MissingMask) CompleteRowsCount() int {
	count := 0
	for _, any := range m.MaskByRows() {
		if !any {
			count++
		}
	}
	return count
}

// CompleteColsCount returns the number of fully observed columns.
func (m *MissingMask) CompleteColsCount() int {
	count := 0
	for _, any := range m.MaskByCols() {
		if !any {
			count++
		}
	}
	return count
}

// PartiallyObserved returns the columns with at least one missing value.
func (m *MissingMask) PartiallyObserved() []int {
	out := make([]int, 0)
	for c, any := range m.MaskByCols() {
		if any {
			out = append(out, c)
		}
	}
	return out
}

// Covariance returns the sample covariance matrix of the mask columns,
// with the unbiased n-1 denominator.
func (m *MissingMask) Covariance() *mat.Dense {
	cov := mat.NewDense(m.cols, m.cols, nil)
	if m.rows < 2 {
		return cov
	}

	means := make([]float64, m.cols)
	for c, count := range m.CountByCols() {
		means[c] = float64(count) / float64(m.rows)
	}

	for i := 0; i < m.cols; i++ {
		for j := i; j < m.cols; j++ {
			sum := 0.0
			for _, row := range m.mask {
				a, b := 0.0, 0.0
				if row[i] {
					a = 1.0
				}
				if row[j] {
					b = 1.0
				}
				sum += (a - means[i]) * (b - means[j])
			}
			v := sum / float64(m.rows-1)
			cov.Set(i, j, v)
			cov.Set(j, i, v)
		}
	}
	return cov
}

// Correlation returns the sample correlation matrix of the mask columns.
// Constant columns yield NaN off-diagonal entries.
func (m *MissingMask) Correlation() *mat.Dense {
	cov := m.Covariance()
	cor := mat.NewDense(m.cols, m.cols, nil)
	for i := 0; i < m.cols; i++ {
		for j := 0; j < m.cols; j++ {
			if i == j {
				cor.Set(i, j, 1.0)
				continue
			}
			cor.Set(i, j, cov.At(i, j)/math.Sqrt(cov.At(i, i)*cov.At(j, j)))
		}
	}
	return cor
}
