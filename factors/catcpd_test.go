package factors

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JohnPierman/pgmgo/data"
)

func TestNewCatCPDRoot(t *testing.T) {
	cpd, err := NewCatCPD(
		[]data.Variable{{Label: "A", States: []string{"a1", "a2"}}},
		nil,
		[][]float64{{0.3, 0.7}},
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"A"}, cpd.Labels())
	assert.Empty(t, cpd.ConditioningLabels())
	assert.Equal(t, 1, cpd.ParametersSize())

	p, err := cpd.PF([]int{1}, nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.7, p, 1e-12)
}

func TestNewCatCPDConditional(t *testing.T) {
	cpd, err := NewCatCPD(
		[]data.Variable{{Label: "A", States: []string{"a1", "a2"}}},
		[]data.Variable{
			{Label: "B", States: []string{"b1", "b2"}},
			{Label: "C", States: []string{"c1", "c2", "c3"}},
		},
		[][]float64{
			{0.1, 0.9}, {0.2, 0.8}, {0.3, 0.7},
			{0.4, 0.6}, {0.5, 0.5}, {0.6, 0.4},
		},
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"B", "C"}, cpd.ConditioningLabels())
	assert.Equal(t, 6, cpd.ParametersSize())

	// Row index is the mixed-radix encoding (b, c) with c fastest.
	p, err := cpd.PF([]int{0}, []int{1, 2})
	require.NoError(t, err)
	assert.InDelta(t, 0.6, p, 1e-12)
}

func TestNewCatCPDCanonicalisesConditioning(t *testing.T) {
	// Declaring conditioners out of order permutes the rows.
	unsorted, err := NewCatCPD(
		[]data.Variable{{Label: "A", States: []string{"a1", "a2"}}},
		[]data.Variable{
			{Label: "C", States: []string{"c1", "c2", "c3"}},
			{Label: "B", States: []string{"b1", "b2"}},
		},
		[][]float64{
			// Rows over (c, b) with b fastest.
			{0.1, 0.9}, {0.4, 0.6},
			{0.2, 0.8}, {0.5, 0.5},
			{0.3, 0.7}, {0.6, 0.4},
		},
	)
	require.NoError(t, err)

	sorted, err := NewCatCPD(
		[]data.Variable{{Label: "A", States: []string{"a1", "a2"}}},
		[]data.Variable{
			{Label: "B", States: []string{"b1", "b2"}},
			{Label: "C", States: []string{"c1", "c2", "c3"}},
		},
		[][]float64{
			{0.1, 0.9}, {0.2, 0.8}, {0.3, 0.7},
			{0.4, 0.6}, {0.5, 0.5}, {0.6, 0.4},
		},
	)
	require.NoError(t, err)

	assert.Equal(t, sorted.Parameters(), unsorted.Parameters())
	assert.Equal(t, sorted.ConditioningLabels(), unsorted.ConditioningLabels())
}

func TestNewCatCPDCanonicalisesStates(t *testing.T) {
	cpd, err := NewCatCPD(
		[]data.Variable{{Label: "A", States: []string{"a2", "a1"}}},
		nil,
		[][]float64{{0.7, 0.3}},
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"a1", "a2"}, cpd.ResponseVariables()[0].States)
	assert.InDeltaSlice(t, []float64{0.3, 0.7}, cpd.Parameters()[0], 1e-12)
}

func TestNewCatCPDInvariants(t *testing.T) {
	_, err := NewCatCPD(nil, nil, nil)
	require.ErrorIs(t, err, ErrEmptySet)

	_, err = NewCatCPD(
		[]data.Variable{{Label: "A", States: []string{"a1", "a2"}}},
		[]data.Variable{{Label: "A", States: []string{"a1", "a2"}}},
		[][]float64{{0.5, 0.5}, {0.5, 0.5}},
	)
	require.ErrorIs(t, err, ErrSetsNotDisjoint)

	_, err = NewCatCPD(
		[]data.Variable{{Label: "A", States: []string{"a1", "a2"}}},
		nil,
		[][]float64{{0.5, 0.6}},
	)
	require.ErrorIs(t, err, ErrInvalidParameter)

	_, err = NewCatCPD(
		[]data.Variable{{Label: "A", States: []string{"a1", "a2"}}},
		nil,
		[][]float64{{1.5, -0.5}},
	)
	require.ErrorIs(t, err, ErrInvalidParameter)

	_, err = NewCatCPD(
		[]data.Variable{{Label: "A", States: []string{"a1", "a2"}}},
		nil,
		[][]float64{{0.5, 0.5}, {0.5, 0.5}},
	)
	require.ErrorIs(t, err, ErrIncompatibleShape)
}

func TestCatCPDSampleMatchesDistribution(t *testing.T) {
	cpd, err := NewCatCPD(
		[]data.Variable{{Label: "A", States: []string{"a1", "a2"}}},
		nil,
		[][]float64{{0.25, 0.75}},
	)
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(1, 2))
	n := 100000
	ones := 0
	for i := 0; i < n; i++ {
		states, err := cpd.Sample(rng, nil)
		require.NoError(t, err)
		if states[0] == 1 {
			ones++
		}
	}
	assert.InDelta(t, 0.75, float64(ones)/float64(n), 1e-2)
}

func TestCatCPDStatsAdd(t *testing.T) {
	a := &CatCPDStats{Counts: [][]float64{{1, 2}, {3, 4}}, N: 10}
	b := &CatCPDStats{Counts: [][]float64{{5, 6}, {7, 8}}, N: 26}
	require.NoError(t, a.Add(b))
	assert.Equal(t, [][]float64{{6, 8}, {10, 12}}, a.Counts)
	assert.Equal(t, 36.0, a.N)

	c := &CatCPDStats{Counts: [][]float64{{1}}, N: 1}
	require.ErrorIs(t, a.Add(c), ErrIncompatibleShape)
}
