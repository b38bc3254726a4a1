package factors

import (
	"fmt"
	"math"

	"github.com/JohnPierman/pgmgo/data"
)

// generatorTolerance bounds the deviation of a generator row sum from zero.
const generatorTolerance = 1e-6

// CatCIMStats holds the sufficient statistics of a fitted conditional
// intensity matrix: transition counts, dwell times, and the number of
// transitions.
type CatCIMStats struct {
	// Counts is the K x k x k conditional transition count array.
	Counts [][][]float64
	// Times is the K x k conditional dwell time matrix.
	Times [][]float64
	// N is the number of observed transitions.
	N float64
}

// NewCatCIMStats creates zeroed statistics for conditioning cardinality
// K and k states.
func NewCatCIMStats(bigK, k int) *CatCIMStats {
	counts := make([][][]float64, bigK)
	times := make([][]float64, bigK)
	for z := 0; z < bigK; z++ {
		counts[z] = make([][]float64, k)
		for i := 0; i < k; i++ {
			counts[z][i] = make([]float64, k)
		}
		times[z] = make([]float64, k)
	}
	return &CatCIMStats{Counts: counts, Times: times}
}

// Add combines two statistics by summation. The combine is associative
// and commutative, so parallel folds are order-independent.
func (s *CatCIMStats) Add(other *CatCIMStats) error {
	if len(s.Counts) != len(other.Counts) {
		return fmt.Errorf(
			"%w: %d and %d conditioning states",
			ErrIncompatibleShape, len(s.Counts), len(other.Counts),
		)
	}
	for z := range s.Counts {
		for i := range s.Counts[z] {
			for j := range s.Counts[z][i] {
				s.Counts[z][i][j] += other.Counts[z][i][j]
			}
			s.Times[z][i] += other.Times[z][i]
		}
	}
	s.N += other.N
	return nil
}

// SampleSize returns the number of observed transitions.
func (s *CatCIMStats) SampleSize() float64 {
	return s.N
}

// CatCIM represents a conditional intensity matrix: for each joint state
// of the conditioning variables, a k x k generator matrix over the
// states of the single conditioned variable.
type CatCIM struct {
	response     data.Variable
	conditioning []data.Variable
	params       [][][]float64

	stats  *CatCIMStats
	logLik *float64
}

// NewCatCIM creates a new conditional intensity matrix. Each slice must
// be a valid generator: non-positive diagonal, non-negative off-diagonal
// entries, rows summing to zero within tolerance.
func NewCatCIM(response data.Variable, conditioning []data.Variable, params [][][]float64) (*CatCIM, error) {
	return NewCatCIMWithOptionals(response, conditioning, params, nil, nil)
}

// NewCatCIMWithOptionals creates a new conditional intensity matrix
// carrying optional sample statistics and sample log-likelihood.
func NewCatCIMWithOptionals(
	response data.Variable,
	conditioning []data.Variable,
	params [][][]float64,
	stats *CatCIMStats,
	logLik *float64,
) (*CatCIM, error) {
	sortedX, _, statePermX, err := data.CanonicalVariables([]data.Variable{response})
	if err != nil {
		return nil, fmt.Errorf("factors: %w", err)
	}
	sortedZ, axisPermZ, statePermZ, err := data.CanonicalVariables(conditioning)
	if err != nil {
		return nil, fmt.Errorf("factors: %w", err)
	}
	for _, z := range sortedZ {
		if z.Label == sortedX[0].Label {
			return nil, fmt.Errorf("%w: %q", ErrSetsNotDisjoint, z.Label)
		}
	}

	k := len(sortedX[0].States)
	bigK := jointIndex(sortedZ).Size()
	if len(params) != bigK {
		return nil, fmt.Errorf(
			"%w: %d generator slices, expected %d", ErrIncompatibleShape, len(params), bigK,
		)
	}

	rowMap := remapJoint(conditioning, sortedZ, axisPermZ, statePermZ)
	stateMap := statePermX[0]
	inverse := make([]int, k)
	for oldState, newState := range stateMap {
		inverse[newState] = oldState
	}

	out := make([][][]float64, bigK)
	for z := 0; z < bigK; z++ {
		src := params[rowMap[z]]
		if len(src) != k {
			return nil, fmt.Errorf(
				"%w: slice %d has %d rows, expected %d", ErrIncompatibleShape, rowMap[z], len(src), k,
			)
		}
		slice := make([][]float64, k)
		for i := 0; i < k; i++ {
			srcRow := src[inverse[i]]
			if len(srcRow) != k {
				return nil, fmt.Errorf(
					"%w: slice %d row %d has %d columns, expected %d",
					ErrIncompatibleShape, rowMap[z], inverse[i], len(srcRow), k,
				)
			}
			row := make([]float64, k)
			sum := 0.0
			for j := 0; j < k; j++ {
				q := srcRow[inverse[j]]
				if i == j {
					if q > 0 {
						return nil, fmt.Errorf(
							"%w: positive diagonal entry %g", ErrInvalidParameter, q,
						)
					}
				} else if q < 0 || math.IsNaN(q) {
					return nil, fmt.Errorf(
						"%w: negative off-diagonal entry %g", ErrInvalidParameter, q,
					)
				}
				row[j] = q
				sum += q
			}
			if math.Abs(sum) > generatorTolerance {
				return nil, fmt.Errorf(
					"%w: generator row sums to %g", ErrInvalidParameter, sum,
				)
			}
			slice[i] = row
		}
		out[z] = slice
	}

	return &CatCIM{
		response:     sortedX[0],
		conditioning: sortedZ,
		params:       out,
		stats:        stats,
		logLik:       logLik,
	}, nil
}

// ResponseVariable returns the conditioned variable.
func (c *CatCIM) ResponseVariable() data.Variable {
	states := make([]string, len(c.response.States))
	copy(states, c.response.States)
	return data.Variable{Label: c.response.Label, States: states}
}

// ConditioningVariables returns the sorted conditioning variables.
func (c *CatCIM) ConditioningVariables() []data.Variable {
	out := make([]data.Variable, len(c.conditioning))
	copy(out, c.conditioning)
	return out
}

// Labels returns the response label.
func (c *CatCIM) Labels() []string {
	return []string{c.response.Label}
}

// ConditioningLabels returns the conditioning labels.
func (c *CatCIM) ConditioningLabels() []string {
	out := make([]string, len(c.conditioning))
	for i, v := range c.conditioning {
		out[i] = v.Label
	}
	return out
}

// Parameters returns the K x k x k generator array. It must be treated
// as read-only.
func (c *CatCIM) Parameters() [][][]float64 {
	return c.params
}

// ConditioningIndex returns the multi-index over the conditioning joint
// states.
func (c *CatCIM) ConditioningIndex() *MultiIndex {
	return jointIndex(c.conditioning)
}

// SampleStatistics returns the sufficient statistics the CIM was fitted
// from, or nil.
func (c *CatCIM) SampleStatistics() *CatCIMStats {
	return c.stats
}

// SampleLogLikelihood returns the log-likelihood of the fitting sample,
// or an error when the CIM was not fitted.
func (c *CatCIM) SampleLogLikelihood() (float64, error) {
	if c.logLik == nil {
		return 0, ErrMissingStatistics
	}
	return *c.logLik, nil
}

// StatisticsSampleSize returns the sample size of the fitting sample,
// or an error when the CIM was not fitted.
func (c *CatCIM) StatisticsSampleSize() (float64, error) {
	if c.stats == nil {
		return 0, ErrMissingStatistics
	}
	return c.stats.N, nil
}

// ParametersSize returns the number of free parameters:
// |Z|_joint * k * (k - 1).
func (c *CatCIM) ParametersSize() int {
	k := len(c.response.States)
	return jointIndex(c.conditioning).Size() * k * (k - 1)
}
