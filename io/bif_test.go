package io

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sprinklerBIF = `
network sprinkler {
}
variable Rain {
  type discrete [ 2 ] { no, yes };
}
variable Sprinkler {
  type discrete [ 2 ] { off, on };
}
variable Wet {
  type discrete [ 2 ] { dry, wet };
}
probability ( Rain ) {
  table 0.8, 0.2;
}
probability ( Sprinkler | Rain ) {
  table 0.6, 0.4, 0.99, 0.01;
}
probability ( Wet | Rain, Sprinkler ) {
  table 1.0, 0.0, 0.1, 0.9, 0.2, 0.8, 0.01, 0.99;
}
`

func TestReadCatBN(t *testing.T) {
	bn, err := ReadCatBN(strings.NewReader(sprinklerBIF))
	require.NoError(t, err)

	assert.Equal(t, []string{"Rain", "Sprinkler", "Wet"}, bn.Labels())

	rain, err := bn.Graph().LabelToIndex("Rain")
	require.NoError(t, err)
	wet, err := bn.Graph().LabelToIndex("Wet")
	require.NoError(t, err)
	assert.True(t, bn.Graph().HasEdge(rain, wet))

	rainCPD := bn.CPD(rain)
	assert.InDeltaSlice(t, []float64{0.8, 0.2}, rainCPD.Parameters()[0], 1e-12)

	wetCPD := bn.CPD(wet)
	assert.Equal(t, []string{"Rain", "Sprinkler"}, wetCPD.ConditioningLabels())
	// Row (Rain=no, Sprinkler=on).
	assert.InDeltaSlice(t, []float64{0.1, 0.9}, wetCPD.Parameters()[1], 1e-12)
}

func TestReadCatBNEntryRows(t *testing.T) {
	in := `
network grass {
}
variable A {
  type discrete [ 2 ] { a1, a2 };
}
variable B {
  type discrete [ 2 ] { b1, b2 };
}
probability ( A ) {
  table 0.3, 0.7;
}
probability ( B | A ) {
  ( a1 ) 0.9, 0.1;
  ( a2 ) 0.25, 0.75;
}
`
	bn, err := ReadCatBN(strings.NewReader(in))
	require.NoError(t, err)

	b, err := bn.Graph().LabelToIndex("B")
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.9, 0.1}, bn.CPD(b).Parameters()[0], 1e-12)
	assert.InDeltaSlice(t, []float64{0.25, 0.75}, bn.CPD(b).Parameters()[1], 1e-12)
}

func TestReadCatBNRejectsMalformed(t *testing.T) {
	// Wrong state count.
	_, err := ReadCatBN(strings.NewReader(`
variable A {
  type discrete [ 3 ] { a1, a2 };
}
`))
	require.ErrorIs(t, err, ErrInvalidFormat)

	// Probability block for an undeclared variable.
	_, err = ReadCatBN(strings.NewReader(`
variable A {
  type discrete [ 2 ] { a1, a2 };
}
probability ( B ) {
  table 0.5, 0.5;
}
`))
	require.ErrorIs(t, err, ErrInvalidFormat)

	// Table of the wrong length.
	_, err = ReadCatBN(strings.NewReader(`
variable A {
  type discrete [ 2 ] { a1, a2 };
}
probability ( A ) {
  table 0.5, 0.25, 0.25;
}
`))
	require.ErrorIs(t, err, ErrInvalidFormat)
}

func TestCatBNBIFRoundTrip(t *testing.T) {
	bn, err := ReadCatBN(strings.NewReader(sprinklerBIF))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCatBN(&buf, bn))

	back, err := ReadCatBN(&buf)
	require.NoError(t, err)

	assert.Equal(t, bn.Labels(), back.Labels())
	assert.Equal(t, bn.Graph().Edges(), back.Graph().Edges())
	for i := range bn.Labels() {
		want := bn.CPD(i).Parameters()
		got := back.CPD(i).Parameters()
		require.Equal(t, len(want), len(got))
		for r := range want {
			assert.InDeltaSlice(t, want[r], got[r], 1e-12)
		}
	}
}
