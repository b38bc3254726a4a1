package graph

import "github.com/JohnPierman/pgmgo/sets"

// mutilated returns a copy of the graph with every edge leaving a vertex
// of X deleted. Back-door queries on the original graph reduce to
// separation queries on the mutilated one.
func (g *DiGraph) mutilated(x []int) *DiGraph {
	m := g.Copy()
	n := len(m.labels)
	for _, i := range x {
		for j := 0; j < n; j++ {
			m.adjacency[i*n+j] = false
		}
	}
	return m
}

// IsBackdoorSet checks if Z satisfies the back-door criterion for the
// effect of X on Y: Z d-separates X from Y once the edges leaving X are
// removed.
func (g *DiGraph) IsBackdoorSet(x, y, z []int) (bool, error) {
	x, y, z = sets.New(x...), sets.New(y...), sets.New(z...)
	if err := g.checkSeparationSets(x, y, z); err != nil {
		return false, err
	}
	return g.mutilated(x).IsSeparatorSet(x, y, z)
}

// IsMinimalBackdoorSet checks if Z is a minimal back-door adjustment set
// for the effect of X on Y, containing W and contained in V. A nil W
// stands for the empty set and a nil V for the full vertex set.
func (g *DiGraph) IsMinimalBackdoorSet(x, y, z, w, v []int) (bool, error) {
	x, y, z = sets.New(x...), sets.New(y...), sets.New(z...)
	if err := g.checkSeparationSets(x, y, z); err != nil {
		return false, err
	}
	return g.mutilated(x).IsMinimalSeparatorSet(x, y, z, w, v)
}

// FindMinimalBackdoorSet finds a minimal back-door adjustment set for
// the effect of X on Y containing W and contained in V, if one exists.
func (g *DiGraph) FindMinimalBackdoorSet(x, y, w, v []int) ([]int, bool, error) {
	x, y = sets.New(x...), sets.New(y...)
	if err := g.checkSeparationSets(x, y, nil); err != nil {
		return nil, false, err
	}
	return g.mutilated(x).FindMinimalSeparatorSet(x, y, w, v)
}
