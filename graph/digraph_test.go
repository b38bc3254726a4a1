package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDiGraphSortsLabels(t *testing.T) {
	g, err := NewDiGraph([]string{"C", "A", "B"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, g.Labels())
}

func TestNewDiGraphDuplicateLabels(t *testing.T) {
	_, err := NewDiGraph([]string{"A", "A"})
	require.ErrorIs(t, err, ErrDuplicateLabels)
}

func TestDiGraphEdges(t *testing.T) {
	g, err := NewDiGraph([]string{"A", "B", "C"})
	require.NoError(t, err)

	require.NoError(t, g.AddEdge(0, 1))
	require.NoError(t, g.AddEdge(1, 2))

	assert.True(t, g.HasEdge(0, 1))
	assert.False(t, g.HasEdge(1, 0))
	assert.Equal(t, [][2]int{{0, 1}, {1, 2}}, g.Edges())

	require.NoError(t, g.DelEdge(0, 1))
	assert.False(t, g.HasEdge(0, 1))
}

func TestDiGraphAddEdgeOutOfBounds(t *testing.T) {
	g, err := NewDiGraph([]string{"A", "B"})
	require.NoError(t, err)
	require.ErrorIs(t, g.AddEdge(0, 5), ErrVertexOutOfBounds)
}

func TestDiGraphParentsChildren(t *testing.T) {
	g, err := NewDiGraphFromEdges(
		[]string{"A", "B", "C", "D"},
		[][2]string{{"A", "C"}, {"B", "C"}, {"C", "D"}},
	)
	require.NoError(t, err)

	parents, err := g.Parents([]int{2})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, parents)

	children, err := g.Children([]int{0, 1})
	require.NoError(t, err)
	assert.Equal(t, []int{2}, children)
}

func TestDiGraphAncestorsDescendants(t *testing.T) {
	g, err := NewDiGraphFromEdges(
		[]string{"A", "B", "C", "D"},
		[][2]string{{"A", "B"}, {"B", "C"}, {"C", "D"}},
	)
	require.NoError(t, err)

	ancestors, err := g.Ancestors([]int{3})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, ancestors)

	descendants, err := g.Descendants([]int{0})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, descendants)
}

func TestDiGraphTopologicalSort(t *testing.T) {
	g, err := NewDiGraphFromEdges(
		[]string{"A", "B", "C", "D"},
		[][2]string{{"D", "A"}, {"A", "B"}, {"A", "C"}},
	)
	require.NoError(t, err)

	order, err := g.TopologicalSort()
	require.NoError(t, err)
	assert.Equal(t, []int{3, 0, 1, 2}, order)
	assert.True(t, g.IsAcyclic())
}

func TestDiGraphTopologicalSortCycle(t *testing.T) {
	g, err := NewDiGraphFromEdges(
		[]string{"A", "B"},
		[][2]string{{"A", "B"}, {"B", "A"}},
	)
	require.NoError(t, err)

	_, err = g.TopologicalSort()
	require.ErrorIs(t, err, ErrNotADag)
	assert.False(t, g.IsAcyclic())
}

func TestDiGraphComplete(t *testing.T) {
	g, err := NewCompleteDiGraph([]string{"A", "B", "C"})
	require.NoError(t, err)
	assert.Len(t, g.Edges(), 6)
	for _, i := range g.Vertices() {
		assert.False(t, g.HasEdge(i, i))
	}
}

func TestDiGraphMoralGraph(t *testing.T) {
	// Collider A -> C <- B: moralization marries A and B.
	g, err := NewDiGraphFromEdges(
		[]string{"A", "B", "C"},
		[][2]string{{"A", "C"}, {"B", "C"}},
	)
	require.NoError(t, err)

	moral := g.MoralGraph()
	assert.True(t, moral.HasEdge(0, 2))
	assert.True(t, moral.HasEdge(1, 2))
	assert.True(t, moral.HasEdge(0, 1))
}

func TestDiGraphCopyIsIndependent(t *testing.T) {
	g, err := NewDiGraph([]string{"A", "B"})
	require.NoError(t, err)
	require.NoError(t, g.AddEdge(0, 1))

	h := g.Copy()
	require.NoError(t, h.DelEdge(0, 1))
	assert.True(t, g.HasEdge(0, 1))
	assert.False(t, h.HasEdge(0, 1))
}

func TestUnGraphSymmetry(t *testing.T) {
	g, err := NewUnGraph([]string{"A", "B", "C"})
	require.NoError(t, err)

	require.NoError(t, g.AddEdge(2, 0))
	assert.True(t, g.HasEdge(0, 2))
	assert.True(t, g.HasEdge(2, 0))

	neighbors, err := g.Neighbors([]int{0})
	require.NoError(t, err)
	assert.Equal(t, []int{2}, neighbors)

	require.NoError(t, g.DelEdge(0, 2))
	assert.False(t, g.HasEdge(2, 0))
}

func TestPGraphDisjointHalves(t *testing.T) {
	g, err := NewPGraph([]string{"A", "B"})
	require.NoError(t, err)

	require.NoError(t, g.AddUndirectedEdge(0, 1))
	assert.True(t, g.HasUndirectedEdge(1, 0))
	assert.False(t, g.HasDirectedEdge(0, 1))

	require.NoError(t, g.OrientEdge(0, 1))
	assert.True(t, g.HasDirectedEdge(0, 1))
	assert.False(t, g.HasUndirectedEdge(0, 1))
}
