package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JohnPierman/pgmgo/data"
	"github.com/JohnPierman/pgmgo/factors"
	"github.com/JohnPierman/pgmgo/graph"
)

func simpleCIM(t *testing.T, label string, conditioning []data.Variable, params [][][]float64) *factors.CatCIM {
	t.Helper()
	cim, err := factors.NewCatCIM(binary(label), conditioning, params)
	require.NoError(t, err)
	return cim
}

// eatingCTBN mirrors the classic hungry/eating two-variable loop: each
// variable's dynamics condition on the other.
func eatingCTBN(t *testing.T) *CatCTBN {
	t.Helper()
	g, err := graph.NewDiGraphFromEdges(
		[]string{"Eating", "Hungry"},
		[][2]string{{"Eating", "Hungry"}, {"Hungry", "Eating"}},
	)
	require.NoError(t, err)

	eating := simpleCIM(t, "Eating", []data.Variable{binary("Hungry")}, [][][]float64{
		{{-0.1, 0.1}, {5, -5}},
		{{-2, 2}, {0.5, -0.5}},
	})
	hungry := simpleCIM(t, "Hungry", []data.Variable{binary("Eating")}, [][][]float64{
		{{-1, 1}, {0.2, -0.2}},
		{{-0.1, 0.1}, {4, -4}},
	})

	ctbn, err := NewCatCTBN(g, []*factors.CatCIM{eating, hungry})
	require.NoError(t, err)
	return ctbn
}

func TestNewCatCTBN(t *testing.T) {
	ctbn := eatingCTBN(t)

	assert.Equal(t, []string{"Eating", "Hungry"}, ctbn.Labels())

	// The default initial distribution is the uniform product form.
	initial := ctbn.InitialDistribution()
	assert.Empty(t, initial.Graph().Edges())
	for _, cpd := range initial.CPDs() {
		assert.InDeltaSlice(t, []float64{0.5, 0.5}, cpd.Parameters()[0], 1e-12)
	}

	// Each CIM: 2 * 2 * 1 free parameters; initial: 1 per variable.
	assert.Equal(t, 2*4+2, ctbn.ParametersSize())
}

func TestNewCatCTBNWithInitialDistribution(t *testing.T) {
	g, err := graph.NewDiGraphFromEdges(
		[]string{"Eating", "Hungry"},
		[][2]string{{"Eating", "Hungry"}, {"Hungry", "Eating"}},
	)
	require.NoError(t, err)

	eating := simpleCIM(t, "Eating", []data.Variable{binary("Hungry")}, [][][]float64{
		{{-0.1, 0.1}, {5, -5}},
		{{-2, 2}, {0.5, -0.5}},
	})
	hungry := simpleCIM(t, "Hungry", []data.Variable{binary("Eating")}, [][][]float64{
		{{-1, 1}, {0.2, -0.2}},
		{{-0.1, 0.1}, {4, -4}},
	})

	initialGraph, err := graph.NewDiGraph([]string{"Eating", "Hungry"})
	require.NoError(t, err)
	initial, err := NewCatBN(initialGraph, []*factors.CatCPD{
		rootCPD(t, "Eating", 0.1),
		rootCPD(t, "Hungry", 0.9),
	})
	require.NoError(t, err)

	ctbn, err := NewCatCTBN(g, []*factors.CatCIM{eating, hungry}, WithInitialDistribution(initial))
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.9, 0.1}, ctbn.InitialDistribution().CPD(0).Parameters()[0], 1e-12)

	// An initial distribution over different labels is rejected.
	otherGraph, err := graph.NewDiGraph([]string{"A", "B"})
	require.NoError(t, err)
	other, err := NewCatBN(otherGraph, []*factors.CatCPD{
		rootCPD(t, "A", 0.5),
		rootCPD(t, "B", 0.5),
	})
	require.NoError(t, err)
	_, err = NewCatCTBN(g, []*factors.CatCIM{eating, hungry}, WithInitialDistribution(other))
	require.ErrorIs(t, err, ErrLabelsMismatch)
}

func TestNewCatCTBNAllowsCycles(t *testing.T) {
	// The dependency graph of a CTBN may be cyclic.
	ctbn := eatingCTBN(t)
	assert.False(t, ctbn.Graph().IsAcyclic())
}

func TestNewCatCTBNParentsMismatch(t *testing.T) {
	g, err := graph.NewDiGraph([]string{"A", "B"})
	require.NoError(t, err)

	// A's CIM conditions on B, but the graph has no edge B -> A.
	a := simpleCIM(t, "A", []data.Variable{binary("B")}, [][][]float64{
		{{-1, 1}, {1, -1}},
		{{-1, 1}, {1, -1}},
	})
	b := simpleCIM(t, "B", nil, [][][]float64{{{-1, 1}, {1, -1}}})

	_, err = NewCatCTBN(g, []*factors.CatCIM{a, b})
	require.ErrorIs(t, err, ErrParentsMismatch)
}
