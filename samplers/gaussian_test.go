package samplers

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/JohnPierman/pgmgo/estimators"
	"github.com/JohnPierman/pgmgo/factors"
	"github.com/JohnPierman/pgmgo/graph"
	"github.com/JohnPierman/pgmgo/models"
)

// regulonBN builds a small gene-regulation style linear Gaussian
// network X -> Y -> Z with X -> Z.
func regulonBN(t *testing.T) *models.GaussBN {
	t.Helper()
	g, err := graph.NewDiGraphFromEdges(
		[]string{"X", "Y", "Z"},
		[][2]string{{"X", "Y"}, {"Y", "Z"}, {"X", "Z"}},
	)
	require.NoError(t, err)

	x, err := factors.NewGaussCPD(
		[]string{"X"}, nil, nil,
		[]float64{1},
		mat.NewSymDense(1, []float64{1}),
	)
	require.NoError(t, err)

	y, err := factors.NewGaussCPD(
		[]string{"Y"}, []string{"X"},
		mat.NewDense(1, 1, []float64{0.8}),
		[]float64{-0.5},
		mat.NewSymDense(1, []float64{0.25}),
	)
	require.NoError(t, err)

	z, err := factors.NewGaussCPD(
		[]string{"Z"}, []string{"X", "Y"},
		mat.NewDense(1, 2, []float64{-0.4, 1.2}),
		[]float64{2},
		mat.NewSymDense(1, []float64{0.5}),
	)
	require.NoError(t, err)

	bn, err := models.NewGaussBN(g, []*factors.GaussCPD{x, y, z})
	require.NoError(t, err)
	return bn
}

// Gaussian MLE refit: sampling the network and refitting on the same
// graph recovers the generating parameters.
func TestGaussBNSampleMLERefit(t *testing.T) {
	bn := regulonBN(t)
	rng := rand.New(rand.NewPCG(42, 1))
	table, err := NewGaussBNSampler(rng, bn).SampleN(5000)
	require.NoError(t, err)

	mle := estimators.NewGaussMLE(table)
	for i, label := range bn.Labels() {
		parents, err := bn.Graph().Parents([]int{i})
		require.NoError(t, err)
		fitted, err := mle.Fit([]int{i}, parents)
		require.NoError(t, err)

		want := bn.CPD(i)
		assert.InDelta(t, want.Intercept()[0], fitted.Intercept()[0], 1e-1, "%s intercept", label)
		assert.InDelta(t, want.Covariance().At(0, 0), fitted.Covariance().At(0, 0), 1e-1, "%s variance", label)
		for j := 0; j < len(parents); j++ {
			assert.InDelta(
				t,
				want.Coefficients().At(0, j),
				fitted.Coefficients().At(0, j),
				1e-1,
				"%s coefficient %d", label, j,
			)
		}
	}
}

func TestGaussBNParSampleNMatchesDistribution(t *testing.T) {
	bn := regulonBN(t)
	rng := rand.New(rand.NewPCG(9, 9))
	table, err := NewGaussBNSampler(rng, bn).ParSampleN(20000)
	require.NoError(t, err)

	// E[X] = 1, E[Y] = 0.8 * 1 - 0.5 = 0.3.
	values := table.Values()
	rows, _ := values.Dims()
	meanX, meanY := 0.0, 0.0
	for r := 0; r < rows; r++ {
		meanX += values.At(r, 0)
		meanY += values.At(r, 1)
	}
	meanX /= float64(rows)
	meanY /= float64(rows)
	assert.InDelta(t, 1.0, meanX, 3e-2)
	assert.InDelta(t, 0.3, meanY, 3e-2)
}

func TestGaussBNSamplerPreconditions(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))
	sampler := NewGaussBNSampler(rng, regulonBN(t))

	_, err := sampler.SampleN(0)
	require.ErrorIs(t, err, ErrInvalidParameter)
}
