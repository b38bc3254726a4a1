package estimators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JohnPierman/pgmgo/data"
)

func xyTable(t *testing.T) *data.CatTable {
	t.Helper()
	table, err := data.NewCatTable(
		[]data.Variable{
			{Label: "X", States: []string{"f", "t"}},
			{Label: "Y", States: []string{"f", "t"}},
		},
		[][]byte{
			{0, 0}, {0, 0}, {0, 1}, {1, 0}, {1, 1}, {1, 1},
		},
	)
	require.NoError(t, err)
	return table
}

func TestCatSSEFit(t *testing.T) {
	stats, err := NewCatSSE(xyTable(t)).Fit([]int{1}, []int{0})
	require.NoError(t, err)

	assert.Equal(t, [][]float64{{2, 1}, {1, 2}}, stats.Counts)
	assert.Equal(t, 6.0, stats.N)
}

func TestCatSSEFitJointResponse(t *testing.T) {
	stats, err := NewCatSSE(xyTable(t)).Fit([]int{0, 1}, nil)
	require.NoError(t, err)

	assert.Equal(t, [][]float64{{2, 1, 1, 2}}, stats.Counts)
	assert.Equal(t, 6.0, stats.N)
}

func TestCatSSEPreconditions(t *testing.T) {
	sse := NewCatSSE(xyTable(t))

	_, err := sse.Fit(nil, nil)
	require.ErrorIs(t, err, ErrEmptySet)

	_, err = sse.Fit([]int{0}, []int{0})
	require.ErrorIs(t, err, ErrSetsNotDisjoint)

	_, err = sse.Fit([]int{5}, nil)
	require.ErrorIs(t, err, ErrVertexOutOfBounds)
}

func TestCatSSEParFitMatchesFit(t *testing.T) {
	sse := NewCatSSE(xyTable(t))
	sequential, err := sse.Fit([]int{1}, []int{0})
	require.NoError(t, err)
	parallel, err := sse.ParFit([]int{1}, []int{0})
	require.NoError(t, err)

	assert.Equal(t, sequential.Counts, parallel.Counts)
	assert.Equal(t, sequential.N, parallel.N)
}

func TestCatSSEWeighted(t *testing.T) {
	weighted, err := data.NewCatWtdTable(xyTable(t), []float64{1, 1, 0.5, 2, 1, 1})
	require.NoError(t, err)

	stats, err := NewCatSSE(weighted).Fit([]int{1}, []int{0})
	require.NoError(t, err)

	assert.Equal(t, [][]float64{{2, 0.5}, {2, 2}}, stats.Counts)
	assert.Equal(t, 6.5, stats.N)
}

func TestTrjSSEFit(t *testing.T) {
	trj, err := data.NewCatTrj(
		[]data.Variable{
			{Label: "X", States: []string{"f", "t"}},
			{Label: "Y", States: []string{"f", "t"}},
		},
		[][]byte{
			{0, 0},
			{1, 0},
			{1, 1},
			{0, 1},
		},
		[]float64{0, 1, 1.5, 3},
	)
	require.NoError(t, err)

	stats, err := NewTrjSSE(trj).Fit([]int{0}, nil)
	require.NoError(t, err)

	// X transitions f->t at time 1, t->f at time 3.
	assert.Equal(t, 1.0, stats.Counts[0][0][1])
	assert.Equal(t, 1.0, stats.Counts[0][1][0])
	// X dwells in f for [0,1), in t for [1,3).
	assert.InDelta(t, 1.0, stats.Times[0][0], 1e-12)
	assert.InDelta(t, 2.0, stats.Times[0][1], 1e-12)
	assert.Equal(t, 2.0, stats.N)
}

func TestTrjSSEConditional(t *testing.T) {
	trj, err := data.NewCatTrj(
		[]data.Variable{
			{Label: "X", States: []string{"f", "t"}},
			{Label: "Y", States: []string{"f", "t"}},
		},
		[][]byte{
			{0, 0},
			{1, 0},
			{1, 1},
			{0, 1},
		},
		[]float64{0, 1, 1.5, 3},
	)
	require.NoError(t, err)

	stats, err := NewTrjSSE(trj).Fit([]int{0}, []int{1})
	require.NoError(t, err)

	// The f->t transition of X happens while Y = f.
	assert.Equal(t, 1.0, stats.Counts[0][0][1])
	// The t->f transition of X happens while Y = t.
	assert.Equal(t, 1.0, stats.Counts[1][1][0])
	// Dwell of X = t while Y = f is [1, 1.5).
	assert.InDelta(t, 0.5, stats.Times[0][1], 1e-12)
	// Dwell of X = t while Y = t is [1.5, 3).
	assert.InDelta(t, 1.5, stats.Times[1][1], 1e-12)
}

func TestTrjsSSEParFitMatchesFit(t *testing.T) {
	vars := []data.Variable{
		{Label: "X", States: []string{"f", "t"}},
	}
	first, err := data.NewCatTrj(vars, [][]byte{{0}, {1}, {0}}, []float64{0, 1, 2.5})
	require.NoError(t, err)
	second, err := data.NewCatTrj(vars, [][]byte{{1}, {0}}, []float64{0, 0.5})
	require.NoError(t, err)
	trjs, err := data.NewCatTrjs([]*data.CatTrj{first, second})
	require.NoError(t, err)

	sse := NewTrjsSSE(trjs)
	sequential, err := sse.Fit([]int{0}, nil)
	require.NoError(t, err)
	parallel, err := sse.ParFit([]int{0}, nil)
	require.NoError(t, err)

	assert.Equal(t, sequential.Counts, parallel.Counts)
	assert.Equal(t, sequential.Times, parallel.Times)
	assert.Equal(t, sequential.N, parallel.N)

	// Collections sum the member statistics.
	assert.Equal(t, 1.0, sequential.Counts[0][0][1])
	assert.Equal(t, 2.0, sequential.Counts[0][1][0])
	assert.InDelta(t, 1.0, sequential.Times[0][0], 1e-12)
	assert.InDelta(t, 2.0, sequential.Times[0][1], 1e-12)
	assert.Equal(t, 3.0, sequential.N)
}
