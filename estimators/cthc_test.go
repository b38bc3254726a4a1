package estimators

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JohnPierman/pgmgo/data"
	"github.com/JohnPierman/pgmgo/graph"
	"github.com/JohnPierman/pgmgo/sets"
)

// chainTable samples a three-variable chain A -> B -> C with strong
// dependencies, so the score-based search has a clear optimum.
func chainTable(t *testing.T, rows int) *data.CatTable {
	t.Helper()
	rng := rand.New(rand.NewPCG(11, 13))
	values := make([][]byte, rows)
	for r := 0; r < rows; r++ {
		a := byte(0)
		if rng.Float64() < 0.5 {
			a = 1
		}
		b := a
		if rng.Float64() < 0.1 {
			b = 1 - a
		}
		c := b
		if rng.Float64() < 0.1 {
			c = 1 - b
		}
		values[r] = []byte{a, b, c}
	}
	table, err := data.NewCatTable(
		[]data.Variable{
			{Label: "A", States: []string{"f", "t"}},
			{Label: "B", States: []string{"f", "t"}},
			{Label: "C", States: []string{"f", "t"}},
		},
		values,
	)
	require.NoError(t, err)
	return table
}

func catBIC(table *data.CatTable) *BIC {
	mle := NewCatMLE(table)
	return NewBIC(table.Labels(), func(x, z []int) (Scorable, error) {
		return mle.Fit(x, z)
	})
}

func TestBICPrefersTrueParent(t *testing.T) {
	table := chainTable(t, 2000)
	score := catBIC(table)

	// For C, conditioning on B must beat both the empty set and A alone.
	onB, err := score.Call([]int{2}, []int{1})
	require.NoError(t, err)
	onA, err := score.Call([]int{2}, []int{0})
	require.NoError(t, err)
	empty, err := score.Call([]int{2}, nil)
	require.NoError(t, err)

	assert.Greater(t, onB, onA)
	assert.Greater(t, onB, empty)
}

func TestCTHCFitRecoversChain(t *testing.T) {
	table := chainTable(t, 2000)
	initial, err := graph.NewDiGraph(table.Labels())
	require.NoError(t, err)

	learner, err := NewCTHC(initial, catBIC(table))
	require.NoError(t, err)
	learned, err := learner.Fit()
	require.NoError(t, err)

	// Every vertex keeps a small neighbourhood; the chain's dependency
	// structure must appear as B adjacent to both A and C.
	parentsB, err := learned.Parents([]int{1})
	require.NoError(t, err)
	childrenB, err := learned.Children([]int{1})
	require.NoError(t, err)
	neighborsB := sets.Union(parentsB, childrenB)
	assert.Contains(t, neighborsB, 0)
	assert.Contains(t, neighborsB, 2)
}

func TestCTHCParFitMatchesFit(t *testing.T) {
	table := chainTable(t, 1000)
	initial, err := graph.NewDiGraph(table.Labels())
	require.NoError(t, err)

	learner, err := NewCTHC(initial, catBIC(table))
	require.NoError(t, err)

	sequential, err := learner.Fit()
	require.NoError(t, err)
	parallel, err := learner.ParFit()
	require.NoError(t, err)

	assert.Equal(t, sequential.Edges(), parallel.Edges())
}

func TestCTHCScoreMonotone(t *testing.T) {
	table := chainTable(t, 1000)
	initial, err := graph.NewDiGraph(table.Labels())
	require.NoError(t, err)

	score := catBIC(table)
	learner, err := NewCTHC(initial, score)
	require.NoError(t, err)
	learned, err := learner.Fit()
	require.NoError(t, err)

	// The learned parent set of every vertex scores at least as high as
	// the initial empty set.
	for _, i := range learned.Vertices() {
		parents, err := learned.Parents([]int{i})
		require.NoError(t, err)
		final, err := score.Call([]int{i}, parents)
		require.NoError(t, err)
		start, err := score.Call([]int{i}, nil)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, final, start)
	}
}

func TestCTHCMaxParents(t *testing.T) {
	table := chainTable(t, 1000)
	initial, err := graph.NewDiGraph(table.Labels())
	require.NoError(t, err)

	learner, err := NewCTHC(initial, catBIC(table), WithMaxParents(1))
	require.NoError(t, err)
	learned, err := learner.Fit()
	require.NoError(t, err)

	for _, i := range learned.Vertices() {
		parents, err := learned.Parents([]int{i})
		require.NoError(t, err)
		assert.LessOrEqual(t, len(parents), 1)
	}

	_, err = NewCTHC(initial, catBIC(table), WithMaxParents(0))
	require.ErrorIs(t, err, ErrInvalidParameter)
}

func TestCTHCPriorKnowledge(t *testing.T) {
	table := chainTable(t, 1000)
	labels := table.Labels()
	initial, err := graph.NewDiGraph(labels)
	require.NoError(t, err)

	pk, err := NewPriorKnowledge(labels)
	require.NoError(t, err)
	// Forbid every edge into B.
	require.NoError(t, pk.Forbid(0, 1))
	require.NoError(t, pk.Forbid(2, 1))

	learner, err := NewCTHC(initial, catBIC(table), WithPriorKnowledge(pk))
	require.NoError(t, err)
	learned, err := learner.Fit()
	require.NoError(t, err)

	parentsB, err := learned.Parents([]int{1})
	require.NoError(t, err)
	assert.Empty(t, parentsB)
}

func TestCTHCPriorKnowledgeConflicts(t *testing.T) {
	labels := []string{"A", "B"}
	initial, err := graph.NewDiGraph(labels)
	require.NoError(t, err)
	require.NoError(t, initial.AddEdge(0, 1))

	pk, err := NewPriorKnowledge(labels)
	require.NoError(t, err)
	require.NoError(t, pk.Forbid(0, 1))

	score := NewBIC(labels, func(x, z []int) (Scorable, error) { return nil, nil })
	_, err = NewCTHC(initial, score, WithPriorKnowledge(pk))
	require.ErrorIs(t, err, ErrPriorKnowledgeConflict)

	// A required edge missing from the initial graph also conflicts.
	empty, err := graph.NewDiGraph(labels)
	require.NoError(t, err)
	pk2, err := NewPriorKnowledge(labels)
	require.NoError(t, err)
	require.NoError(t, pk2.Require(0, 1))
	_, err = NewCTHC(empty, score, WithPriorKnowledge(pk2))
	require.ErrorIs(t, err, ErrPriorKnowledgeConflict)

	// Forbid and require are mutually exclusive per edge.
	pk3, err := NewPriorKnowledge(labels)
	require.NoError(t, err)
	require.NoError(t, pk3.Forbid(0, 1))
	require.ErrorIs(t, pk3.Require(0, 1), ErrInvalidParameter)
}
