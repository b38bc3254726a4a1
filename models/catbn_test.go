package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/JohnPierman/pgmgo/data"
	"github.com/JohnPierman/pgmgo/factors"
	"github.com/JohnPierman/pgmgo/graph"
)

func binary(label string) data.Variable {
	return data.Variable{Label: label, States: []string{"f", "t"}}
}

func rootCPD(t *testing.T, label string, pTrue float64) *factors.CatCPD {
	t.Helper()
	cpd, err := factors.NewCatCPD(
		[]data.Variable{binary(label)},
		nil,
		[][]float64{{1 - pTrue, pTrue}},
	)
	require.NoError(t, err)
	return cpd
}

func childCPD(t *testing.T, label, parent string, rows [][]float64) *factors.CatCPD {
	t.Helper()
	cpd, err := factors.NewCatCPD(
		[]data.Variable{binary(label)},
		[]data.Variable{binary(parent)},
		rows,
	)
	require.NoError(t, err)
	return cpd
}

func chainBN(t *testing.T) *CatBN {
	t.Helper()
	g, err := graph.NewDiGraphFromEdges(
		[]string{"A", "B", "C"},
		[][2]string{{"A", "B"}, {"B", "C"}},
	)
	require.NoError(t, err)

	bn, err := NewCatBN(g, []*factors.CatCPD{
		rootCPD(t, "A", 0.4),
		childCPD(t, "B", "A", [][]float64{{0.9, 0.1}, {0.2, 0.8}}),
		childCPD(t, "C", "B", [][]float64{{0.7, 0.3}, {0.1, 0.9}}),
	})
	require.NoError(t, err)
	return bn
}

func TestNewCatBN(t *testing.T) {
	bn := chainBN(t)

	assert.Equal(t, []string{"A", "B", "C"}, bn.Labels())
	assert.Equal(t, []int{0, 1, 2}, bn.TopologicalOrder())
	// 1 + 2 + 2 free parameters.
	assert.Equal(t, 5, bn.ParametersSize())
	assert.Equal(t, []string{"A"}, bn.CPD(1).ConditioningLabels())
}

func TestNewCatBNParentsMismatch(t *testing.T) {
	g, err := graph.NewDiGraphFromEdges(
		[]string{"A", "B"},
		[][2]string{{"A", "B"}},
	)
	require.NoError(t, err)

	// B's CPD misses the conditioning on A.
	_, err = NewCatBN(g, []*factors.CatCPD{
		rootCPD(t, "A", 0.5),
		rootCPD(t, "B", 0.5),
	})
	require.ErrorIs(t, err, ErrParentsMismatch)
}

func TestNewCatBNLabelsMismatch(t *testing.T) {
	g, err := graph.NewDiGraph([]string{"A", "B"})
	require.NoError(t, err)

	_, err = NewCatBN(g, []*factors.CatCPD{rootCPD(t, "A", 0.5)})
	require.ErrorIs(t, err, ErrLabelsMismatch)
}

func TestNewCatBNStatesMismatch(t *testing.T) {
	g, err := graph.NewDiGraphFromEdges(
		[]string{"A", "B"},
		[][2]string{{"A", "B"}},
	)
	require.NoError(t, err)

	// B's CPD declares A with three states, A's own CPD with two.
	bWide, err := factors.NewCatCPD(
		[]data.Variable{binary("B")},
		[]data.Variable{{Label: "A", States: []string{"f", "t", "u"}}},
		[][]float64{{0.5, 0.5}, {0.5, 0.5}, {0.5, 0.5}},
	)
	require.NoError(t, err)

	_, err = NewCatBN(g, []*factors.CatCPD{rootCPD(t, "A", 0.5), bWide})
	require.ErrorIs(t, err, ErrStatesMismatch)
}

func TestNewCatBNRejectsCycle(t *testing.T) {
	g, err := graph.NewDiGraph([]string{"A", "B"})
	require.NoError(t, err)
	require.NoError(t, g.AddEdge(0, 1))
	require.NoError(t, g.AddEdge(1, 0))

	ab, err := factors.NewCatCPD(
		[]data.Variable{binary("A")},
		[]data.Variable{binary("B")},
		[][]float64{{0.5, 0.5}, {0.5, 0.5}},
	)
	require.NoError(t, err)
	ba, err := factors.NewCatCPD(
		[]data.Variable{binary("B")},
		[]data.Variable{binary("A")},
		[][]float64{{0.5, 0.5}, {0.5, 0.5}},
	)
	require.NoError(t, err)

	_, err = NewCatBN(g, []*factors.CatCPD{ab, ba})
	require.ErrorIs(t, err, ErrNotADag)
}

func gaussRoot(t *testing.T, label string, mean, variance float64) *factors.GaussCPD {
	t.Helper()
	cpd, err := factors.NewGaussCPD(
		[]string{label}, nil, nil,
		[]float64{mean},
		mat.NewSymDense(1, []float64{variance}),
	)
	require.NoError(t, err)
	return cpd
}

func TestNewGaussBN(t *testing.T) {
	g, err := graph.NewDiGraphFromEdges(
		[]string{"X", "Y"},
		[][2]string{{"X", "Y"}},
	)
	require.NoError(t, err)

	y, err := factors.NewGaussCPD(
		[]string{"Y"}, []string{"X"},
		mat.NewDense(1, 1, []float64{2}),
		[]float64{1},
		mat.NewSymDense(1, []float64{0.5}),
	)
	require.NoError(t, err)

	bn, err := NewGaussBN(g, []*factors.GaussCPD{gaussRoot(t, "X", 0, 1), y})
	require.NoError(t, err)

	assert.Equal(t, []string{"X", "Y"}, bn.Labels())
	assert.Equal(t, []int{0, 1}, bn.TopologicalOrder())
	// X: 0 + 1 + 1; Y: 1 + 1 + 1.
	assert.Equal(t, 5, bn.ParametersSize())
}

func TestNewGaussBNParentsMismatch(t *testing.T) {
	g, err := graph.NewDiGraphFromEdges(
		[]string{"X", "Y"},
		[][2]string{{"X", "Y"}},
	)
	require.NoError(t, err)

	_, err = NewGaussBN(g, []*factors.GaussCPD{
		gaussRoot(t, "X", 0, 1),
		gaussRoot(t, "Y", 0, 1),
	})
	require.ErrorIs(t, err, ErrParentsMismatch)
}
