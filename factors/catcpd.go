package factors

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/JohnPierman/pgmgo/data"
)

// probTolerance bounds the deviation of a row sum from one.
const probTolerance = 1e-6

// CatCPDStats holds the sufficient statistics of a fitted categorical
// CPD: the conditional joint counts and the total count.
type CatCPDStats struct {
	// Counts is the |Z|_joint x |X|_joint conditional count matrix.
	Counts [][]float64
	// N is the total count.
	N float64
}

// Add combines two count statistics. The combine is associative and
// commutative, so parallel folds are order-independent.
func (s *CatCPDStats) Add(other *CatCPDStats) error {
	if len(s.Counts) != len(other.Counts) {
		return fmt.Errorf(
			"%w: %d rows and %d rows", ErrIncompatibleShape, len(s.Counts), len(other.Counts),
		)
	}
	for i := range s.Counts {
		if len(s.Counts[i]) != len(other.Counts[i]) {
			return fmt.Errorf(
				"%w: row %d has %d and %d columns",
				ErrIncompatibleShape, i, len(s.Counts[i]), len(other.Counts[i]),
			)
		}
		for j := range s.Counts[i] {
			s.Counts[i][j] += other.Counts[i][j]
		}
	}
	s.N += other.N
	return nil
}

// SampleSize returns the total count.
func (s *CatCPDStats) SampleSize() float64 {
	return s.N
}

// CatCPD represents a conditional probability distribution over the
// joint states of one or more categorical response variables given the
// joint states of zero or more conditioning variables. Each row of the
// parameter matrix is a distribution over the response joint state.
type CatCPD struct {
	response     []data.Variable
	conditioning []data.Variable
	params       [][]float64

	stats  *CatCPDStats
	logLik *float64
}

// NewCatCPD creates a new categorical CPD. Response and conditioning
// variables are canonicalised (labels and states sorted) and the
// parameter matrix permuted to match.
func NewCatCPD(response, conditioning []data.Variable, params [][]float64) (*CatCPD, error) {
	return NewCatCPDWithOptionals(response, conditioning, params, nil, nil)
}

// NewCatCPDWithOptionals creates a new categorical CPD carrying optional
// sample statistics and sample log-likelihood.
func NewCatCPDWithOptionals(
	response, conditioning []data.Variable,
	params [][]float64,
	stats *CatCPDStats,
	logLik *float64,
) (*CatCPD, error) {
	if len(response) == 0 {
		return nil, fmt.Errorf("%w: response", ErrEmptySet)
	}

	sortedX, axisPermX, statePermX, err := data.CanonicalVariables(response)
	if err != nil {
		return nil, fmt.Errorf("factors: %w", err)
	}
	sortedZ, axisPermZ, statePermZ, err := data.CanonicalVariables(conditioning)
	if err != nil {
		return nil, fmt.Errorf("factors: %w", err)
	}
	for _, x := range sortedX {
		for _, z := range sortedZ {
			if x.Label == z.Label {
				return nil, fmt.Errorf("%w: %q", ErrSetsNotDisjoint, x.Label)
			}
		}
	}

	rows := jointIndex(sortedZ).Size()
	cols := jointIndex(sortedX).Size()
	if len(params) != rows {
		return nil, fmt.Errorf(
			"%w: %d parameter rows, expected %d", ErrIncompatibleShape, len(params), rows,
		)
	}

	rowMap := remapJoint(conditioning, sortedZ, axisPermZ, statePermZ)
	colMap := remapJoint(response, sortedX, axisPermX, statePermX)

	out := make([][]float64, rows)
	for r := 0; r < rows; r++ {
		src := params[rowMap[r]]
		if len(src) != cols {
			return nil, fmt.Errorf(
				"%w: row %d has %d columns, expected %d", ErrIncompatibleShape, rowMap[r], len(src), cols,
			)
		}
		row := make([]float64, cols)
		sum := 0.0
		for c := 0; c < cols; c++ {
			p := src[colMap[c]]
			if p < 0 || math.IsNaN(p) {
				return nil, fmt.Errorf("%w: negative probability %g", ErrInvalidParameter, p)
			}
			row[c] = p
			sum += p
		}
		if math.Abs(sum-1.0) > probTolerance {
			return nil, fmt.Errorf(
				"%w: row %d probabilities sum to %g", ErrInvalidParameter, r, sum,
			)
		}
		out[r] = row
	}

	return &CatCPD{
		response:     sortedX,
		conditioning: sortedZ,
		params:       out,
		stats:        stats,
		logLik:       logLik,
	}, nil
}

// ResponseVariables returns the sorted response variables.
func (c *CatCPD) ResponseVariables() []data.Variable {
	out := make([]data.Variable, len(c.response))
	copy(out, c.response)
	return out
}

// ConditioningVariables returns the sorted conditioning variables.
func (c *CatCPD) ConditioningVariables() []data.Variable {
	out := make([]data.Variable, len(c.conditioning))
	copy(out, c.conditioning)
	return out
}

// Labels returns the response labels.
func (c *CatCPD) Labels() []string {
	out := make([]string, len(c.response))
	for i, v := range c.response {
		out[i] = v.Label
	}
	return out
}

// ConditioningLabels returns the conditioning labels.
func (c *CatCPD) ConditioningLabels() []string {
	out := make([]string, len(c.conditioning))
	for i, v := range c.conditioning {
		out[i] = v.Label
	}
	return out
}

// Parameters returns the parameter matrix. It must be treated as
// read-only.
func (c *CatCPD) Parameters() [][]float64 {
	return c.params
}

// ResponseIndex returns the multi-index over the response joint states.
func (c *CatCPD) ResponseIndex() *MultiIndex {
	return jointIndex(c.response)
}

// ConditioningIndex returns the multi-index over the conditioning joint
// states.
func (c *CatCPD) ConditioningIndex() *MultiIndex {
	return jointIndex(c.conditioning)
}

// SampleStatistics returns the sufficient statistics the CPD was fitted
// from, or nil.
func (c *CatCPD) SampleStatistics() *CatCPDStats {
	return c.stats
}

// SampleLogLikelihood returns the log-likelihood of the fitting sample,
// or an error when the CPD was not fitted.
func (c *CatCPD) SampleLogLikelihood() (float64, error) {
	if c.logLik == nil {
		return 0, ErrMissingStatistics
	}
	return *c.logLik, nil
}

// StatisticsSampleSize returns the sample size of the fitting sample,
// or an error when the CPD was not fitted.
func (c *CatCPD) StatisticsSampleSize() (float64, error) {
	if c.stats == nil {
		return 0, ErrMissingStatistics
	}
	return c.stats.N, nil
}

// ParametersSize returns the number of free parameters:
// (|X|_joint - 1) * |Z|_joint.
func (c *CatCPD) ParametersSize() int {
	return (jointIndex(c.response).Size() - 1) * jointIndex(c.conditioning).Size()
}

// PF returns the probability of the response joint state x given the
// conditioning joint state z, both as per-variable state tuples.
func (c *CatCPD) PF(x, z []int) (float64, error) {
	col, err := jointIndex(c.response).Ravel(x)
	if err != nil {
		return 0, err
	}
	row, err := jointIndex(c.conditioning).Ravel(z)
	if err != nil {
		return 0, err
	}
	return c.params[row][col], nil
}

// Sample draws a response joint state given the conditioning state
// tuple, returning the per-variable states.
func (c *CatCPD) Sample(r *rand.Rand, z []int) ([]int, error) {
	row, err := jointIndex(c.conditioning).Ravel(z)
	if err != nil {
		return nil, err
	}
	probs := c.params[row]
	u := r.Float64()
	cum := 0.0
	col := len(probs) - 1
	for i, p := range probs {
		cum += p
		if u <= cum {
			col = i
			break
		}
	}
	return jointIndex(c.response).Unravel(col)
}
