package factors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JohnPierman/pgmgo/data"
)

func binaryVar(label string) data.Variable {
	return data.Variable{Label: label, States: []string{"f", "t"}}
}

func TestPotentialFromCPDAndToCPD(t *testing.T) {
	cpd, err := NewCatCPD(
		[]data.Variable{binaryVar("Y")},
		[]data.Variable{binaryVar("X")},
		[][]float64{{0.8, 0.2}, {0.3, 0.7}},
	)
	require.NoError(t, err)

	phi, err := FromCPD(cpd)
	require.NoError(t, err)
	assert.Equal(t, []string{"X", "Y"}, phi.Labels())
	// Joint index (x, y) with y fastest.
	assert.InDeltaSlice(t, []float64{0.8, 0.2, 0.3, 0.7}, phi.Values(), 1e-12)

	back, err := phi.ToCPD([]int{1}, []int{0})
	require.NoError(t, err)
	assert.Equal(t, cpd.Parameters(), back.Parameters())
}

func TestPotentialMulAligned(t *testing.T) {
	// phi1 over (X), phi2 over (X, Y): the product aligns on X.
	phi1, err := NewPotential([]data.Variable{binaryVar("X")}, []float64{0.4, 0.6})
	require.NoError(t, err)
	phi2, err := NewPotential(
		[]data.Variable{binaryVar("X"), binaryVar("Y")},
		[]float64{0.8, 0.2, 0.3, 0.7},
	)
	require.NoError(t, err)

	product, err := phi1.Mul(phi2)
	require.NoError(t, err)
	assert.Equal(t, []string{"X", "Y"}, product.Labels())
	assert.InDeltaSlice(t, []float64{0.32, 0.08, 0.18, 0.42}, product.Values(), 1e-12)
}

func TestPotentialMulRejectsStateMismatch(t *testing.T) {
	phi1, err := NewPotential([]data.Variable{binaryVar("X")}, []float64{0.4, 0.6})
	require.NoError(t, err)
	phi2, err := NewPotential(
		[]data.Variable{{Label: "X", States: []string{"a", "b", "c"}}},
		[]float64{0.2, 0.3, 0.5},
	)
	require.NoError(t, err)

	_, err = phi1.Mul(phi2)
	require.ErrorIs(t, err, ErrIncompatibleShape)
}

func TestPotentialMarginalize(t *testing.T) {
	phi, err := NewPotential(
		[]data.Variable{binaryVar("X"), binaryVar("Y")},
		[]float64{0.32, 0.08, 0.18, 0.42},
	)
	require.NoError(t, err)

	marginal, err := phi.Marginalize([]int{0})
	require.NoError(t, err)
	assert.Equal(t, []string{"Y"}, marginal.Labels())
	assert.InDeltaSlice(t, []float64{0.5, 0.5}, marginal.Values(), 1e-12)
}

func TestPotentialNormalize(t *testing.T) {
	phi, err := NewPotential([]data.Variable{binaryVar("X")}, []float64{1, 3})
	require.NoError(t, err)

	normalized, err := phi.Normalize()
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.25, 0.75}, normalized.Values(), 1e-12)

	zero, err := NewPotential([]data.Variable{binaryVar("X")}, []float64{0, 0})
	require.NoError(t, err)
	_, err = zero.Normalize()
	require.ErrorIs(t, err, ErrInvalidParameter)
}

func TestPotentialBackdoorAdjustment(t *testing.T) {
	// P(Y | X, C) * P(C), marginalised over C, equals the adjustment
	// formula sum_c P(Y | X, c) P(c).
	pYXC, err := NewCatCPD(
		[]data.Variable{binaryVar("Y")},
		[]data.Variable{binaryVar("C"), binaryVar("X")},
		[][]float64{
			{0.9, 0.1}, // c=f, x=f
			{0.6, 0.4}, // c=f, x=t
			{0.5, 0.5}, // c=t, x=f
			{0.2, 0.8}, // c=t, x=t
		},
	)
	require.NoError(t, err)
	pC, err := NewCatCPD([]data.Variable{binaryVar("C")}, nil, [][]float64{{0.7, 0.3}})
	require.NoError(t, err)

	phi1, err := FromCPD(pYXC)
	require.NoError(t, err)
	phi2, err := FromCPD(pC)
	require.NoError(t, err)
	product, err := phi1.Mul(phi2)
	require.NoError(t, err)

	cAxes, err := product.IndicesFrom([]int{0}, []string{"C", "X", "Y"})
	require.NoError(t, err)
	marginal, err := product.Marginalize(cAxes)
	require.NoError(t, err)

	adjusted, err := marginal.ToCPD([]int{1}, []int{0})
	require.NoError(t, err)
	assert.Equal(t, []string{"Y"}, adjusted.Labels())
	assert.Equal(t, []string{"X"}, adjusted.ConditioningLabels())

	// sum_c P(y=t | x=f, c) P(c) = 0.1*0.7 + 0.5*0.3 = 0.22.
	params := adjusted.Parameters()
	assert.InDelta(t, 0.22, params[0][1], 1e-12)
	// sum_c P(y=t | x=t, c) P(c) = 0.4*0.7 + 0.8*0.3 = 0.52.
	assert.InDelta(t, 0.52, params[1][1], 1e-12)
}
