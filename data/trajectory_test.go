package data

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func binaryVariables() []Variable {
	return []Variable{
		{Label: "X", States: []string{"off", "on"}},
		{Label: "Y", States: []string{"off", "on"}},
	}
}

func TestNewCatTrj(t *testing.T) {
	trj, err := NewCatTrj(binaryVariables(), [][]byte{
		{0, 0},
		{1, 0},
		{1, 1},
	}, []float64{0, 0.5, 1.25})
	require.NoError(t, err)

	assert.Equal(t, []string{"X", "Y"}, trj.Labels())
	assert.Equal(t, []int{2, 2}, trj.Shape())
	assert.Equal(t, 3.0, trj.SampleSize())
	assert.Equal(t, []float64{0, 0.5, 1.25}, trj.Times())
}

func TestNewCatTrjInvariants(t *testing.T) {
	_, err := NewCatTrj(binaryVariables(), [][]byte{{0, 0}}, []float64{-1})
	require.ErrorIs(t, err, ErrInvalidParameter)

	_, err = NewCatTrj(binaryVariables(), [][]byte{{0, 0}, {1, 0}}, []float64{0, 0})
	require.ErrorIs(t, err, ErrInvalidParameter)

	_, err = NewCatTrj(binaryVariables(), [][]byte{{0, 0}}, []float64{0, 1})
	require.ErrorIs(t, err, ErrIncompatibleShape)
}

func TestNewCatTrjs(t *testing.T) {
	first, err := NewCatTrj(binaryVariables(), [][]byte{{0, 0}, {1, 0}}, []float64{0, 1})
	require.NoError(t, err)
	second, err := NewCatTrj(binaryVariables(), [][]byte{{1, 1}}, []float64{0})
	require.NoError(t, err)

	trjs, err := NewCatTrjs([]*CatTrj{first, second})
	require.NoError(t, err)
	assert.Equal(t, 2, trjs.Len())
	assert.Equal(t, 3.0, trjs.SampleSize())

	_, err = NewCatTrjs(nil)
	require.ErrorIs(t, err, ErrEmptySet)

	other, err := NewCatTrj(
		[]Variable{{Label: "X", States: []string{"a", "b", "c"}}, {Label: "Y", States: []string{"off", "on"}}},
		[][]byte{{0, 0}},
		[]float64{0},
	)
	require.NoError(t, err)
	_, err = NewCatTrjs([]*CatTrj{first, other})
	require.ErrorIs(t, err, ErrIncompatibleShape)
}

func TestNewCatTrjEvInvariants(t *testing.T) {
	vars := binaryVariables()

	// Overlapping intervals are rejected.
	_, err := NewCatTrjEv(vars, [][]EvidenceInterval{
		{
			{Start: 0, End: 2, Kind: CertainPositive, State: 0},
			{Start: 1, End: 3, Kind: CertainPositive, State: 1},
		},
		nil,
	})
	require.ErrorIs(t, err, ErrInvalidParameter)

	// Probability vectors must be stochastic and of the right length.
	_, err = NewCatTrjEv(vars, [][]EvidenceInterval{
		{{Start: 0, End: 1, Kind: UncertainPositive, Probs: []float64{0.4, 0.4}}},
		nil,
	})
	require.ErrorIs(t, err, ErrInvalidParameter)

	_, err = NewCatTrjEv(vars, [][]EvidenceInterval{
		{{Start: 0, End: 1, Kind: UncertainPositive, Probs: []float64{1}}},
		nil,
	})
	require.ErrorIs(t, err, ErrIncompatibleShape)

	// Excluding every state leaves nothing to draw from.
	_, err = NewCatTrjEv(vars, [][]EvidenceInterval{
		{{Start: 0, End: 1, Kind: CertainNegative, States: []int{0, 1}}},
		nil,
	})
	require.ErrorIs(t, err, ErrInvalidParameter)
}

func TestCatTrjEvSampleRaw(t *testing.T) {
	vars := binaryVariables()
	ev, err := NewCatTrjEv(vars, [][]EvidenceInterval{
		{
			{Start: 0, End: 1, Kind: CertainPositive, State: 1},
			{Start: 1, End: 2, Kind: CertainNegative, States: []int{1}},
		},
		{
			{Start: 0, End: 2, Kind: UncertainPositive, Probs: []float64{0, 1}},
		},
	})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, ev.EndTime(), 1e-12)

	rng := rand.New(rand.NewPCG(7, 11))
	trj, err := ev.SampleRaw(rng)
	require.NoError(t, err)

	times := trj.Times()
	require.Equal(t, []float64{0, 1}, times)

	values := trj.Values()
	// X is certainly 1 on [0, 1) and certainly not 1 on [1, 2).
	assert.Equal(t, byte(1), values[0][0])
	assert.Equal(t, byte(0), values[1][0])
	// Y is 1 with probability one on the whole horizon.
	assert.Equal(t, byte(1), values[0][1])
	assert.Equal(t, byte(1), values[1][1])
}
