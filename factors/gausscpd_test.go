package factors

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// statsOfRows computes centred moments the way the chunked sweep does,
// in a single chunk, for use as a combine reference.
func statsOfRows(rows [][]float64) *GaussStats {
	p := len(rows[0])
	s := NewGaussStats(p, 0)
	n := float64(len(rows))
	for _, row := range rows {
		for i := 0; i < p; i++ {
			s.MuX[i] += row[i] / n
			for j := 0; j < p; j++ {
				s.Mxx.Set(i, j, s.Mxx.At(i, j)+row[i]*row[j])
			}
		}
	}
	for i := 0; i < p; i++ {
		for j := 0; j < p; j++ {
			s.Mxx.Set(i, j, s.Mxx.At(i, j)/n-s.MuX[i]*s.MuX[j])
		}
	}
	s.N = n
	return s
}

func TestGaussStatsAddMatchesSingleChunk(t *testing.T) {
	rows := [][]float64{
		{1, 2}, {3, -1}, {0.5, 0.5}, {-2, 4}, {1.5, 1.5}, {2, 0},
	}

	whole := statsOfRows(rows)

	// Any split must combine to the whole within float tolerance.
	for split := 1; split < len(rows); split++ {
		first := statsOfRows(rows[:split])
		second := statsOfRows(rows[split:])
		require.NoError(t, first.Add(second))

		assert.InDelta(t, whole.N, first.N, 1e-9)
		for i := 0; i < 2; i++ {
			assert.InDelta(t, whole.MuX[i], first.MuX[i], 1e-9, "split %d mu[%d]", split, i)
			for j := 0; j < 2; j++ {
				assert.InDelta(
					t,
					whole.Mxx.At(i, j),
					first.Mxx.At(i, j),
					1e-9,
					"split %d m[%d][%d]", split, i, j,
				)
			}
		}
	}
}

func TestGaussStatsAddAssociative(t *testing.T) {
	a := statsOfRows([][]float64{{1, 0}, {2, 1}})
	b := statsOfRows([][]float64{{-1, 3}, {0, 0}, {4, 2}})
	c := statsOfRows([][]float64{{2, 2}})

	left := statsOfRows([][]float64{{1, 0}, {2, 1}})
	require.NoError(t, left.Add(b))
	require.NoError(t, left.Add(c))

	bc := statsOfRows([][]float64{{-1, 3}, {0, 0}, {4, 2}})
	require.NoError(t, bc.Add(c))
	right := a
	require.NoError(t, right.Add(bc))

	assert.InDelta(t, left.N, right.N, 1e-9)
	for i := 0; i < 2; i++ {
		assert.InDelta(t, left.MuX[i], right.MuX[i], 1e-9)
		for j := 0; j < 2; j++ {
			assert.InDelta(t, left.Mxx.At(i, j), right.Mxx.At(i, j), 1e-9)
		}
	}
}

func TestGaussStatsAddZero(t *testing.T) {
	s := NewGaussStats(1, 0)
	other := statsOfRows([][]float64{{2}, {4}})
	require.NoError(t, s.Add(other))
	assert.InDelta(t, 3.0, s.MuX[0], 1e-12)
	assert.InDelta(t, 2.0, s.N, 1e-12)
}

func TestNewGaussCPDSortsLabels(t *testing.T) {
	a := mat.NewDense(1, 2, []float64{2, 3})
	sigma := mat.NewSymDense(1, []float64{1})
	cpd, err := NewGaussCPD([]string{"Y"}, []string{"B", "A"}, a, []float64{1}, sigma)
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, cpd.ConditioningLabels())
	// Columns permute with the labels: A takes B's old column.
	assert.InDelta(t, 3.0, cpd.Coefficients().At(0, 0), 1e-12)
	assert.InDelta(t, 2.0, cpd.Coefficients().At(0, 1), 1e-12)
	assert.Equal(t, 2+1+1, cpd.ParametersSize())
}

func TestNewGaussCPDInvariants(t *testing.T) {
	sigma := mat.NewSymDense(1, []float64{1})

	_, err := NewGaussCPD(nil, nil, nil, nil, sigma)
	require.ErrorIs(t, err, ErrEmptySet)

	_, err = NewGaussCPD([]string{"X"}, []string{"X"}, mat.NewDense(1, 1, []float64{1}), []float64{0}, sigma)
	require.ErrorIs(t, err, ErrSetsNotDisjoint)

	_, err = NewGaussCPD([]string{"X"}, nil, nil, []float64{0, 1}, sigma)
	require.ErrorIs(t, err, ErrIncompatibleShape)

	bad := mat.NewSymDense(1, []float64{-2})
	_, err = NewGaussCPD([]string{"X"}, nil, nil, []float64{0}, bad)
	require.ErrorIs(t, err, ErrInvalidParameter)
}

func TestGaussCPDMeanAndSample(t *testing.T) {
	a := mat.NewDense(1, 1, []float64{2})
	sigma := mat.NewSymDense(1, []float64{0.25})
	cpd, err := NewGaussCPD([]string{"Y"}, []string{"X"}, a, []float64{1}, sigma)
	require.NoError(t, err)

	mean, err := cpd.Mean([]float64{3})
	require.NoError(t, err)
	assert.InDelta(t, 7.0, mean[0], 1e-12)

	rng := rand.New(rand.NewPCG(3, 4))
	n := 50000
	sum, sumSq := 0.0, 0.0
	for i := 0; i < n; i++ {
		y, err := cpd.Sample(rng, []float64{3})
		require.NoError(t, err)
		sum += y[0]
		sumSq += y[0] * y[0]
	}
	sampleMean := sum / float64(n)
	sampleVar := sumSq/float64(n) - sampleMean*sampleMean
	assert.InDelta(t, 7.0, sampleMean, 2e-2)
	assert.InDelta(t, 0.25, sampleVar, 2e-2)
}
