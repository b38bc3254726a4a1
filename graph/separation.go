package graph

import (
	"fmt"

	"github.com/JohnPierman/pgmgo/sets"
)

// checkSeparationSets validates the common preconditions of the
// separation queries: in-bounds indices, non-empty X and Y, and pairwise
// disjoint X, Y, Z.
func (g *DiGraph) checkSeparationSets(x, y, z []int) error {
	if err := g.checkSet("X", x); err != nil {
		return err
	}
	if err := g.checkSet("Y", y); err != nil {
		return err
	}
	if err := g.checkSet("Z", z); err != nil {
		return err
	}
	if len(x) == 0 {
		return fmt.Errorf("%w: X", ErrEmptySet)
	}
	if len(y) == 0 {
		return fmt.Errorf("%w: Y", ErrEmptySet)
	}
	if !sets.IsDisjoint(x, y) {
		return fmt.Errorf("%w: X and Y", ErrSetsNotDisjoint)
	}
	if !sets.IsDisjoint(x, z) {
		return fmt.Errorf("%w: X and Z", ErrSetsNotDisjoint)
	}
	if !sets.IsDisjoint(y, z) {
		return fmt.Errorf("%w: Y and Z", ErrSetsNotDisjoint)
	}
	return nil
}

// IsSeparatorSet checks if the vertex set Z d-separates X from Y using
// the Bayes-ball algorithm: two frontiers track the direction by which
// the ball arrives at each vertex.
func (g *DiGraph) IsSeparatorSet(x, y, z []int) (bool, error) {
	x, y, z = sets.New(x...), sets.New(y...), sets.New(z...)
	if err := g.checkSeparationSets(x, y, z); err != nil {
		return false, err
	}

	n := len(g.labels)
	forwardVisited := make([]bool, n)
	backwardVisited := make([]bool, n)
	forwardQueue := make([]int, 0, n)
	backwardQueue := sets.Clone(x)

	// Precompute An(X) union Z union X.
	anX, err := g.Ancestors(x)
	if err != nil {
		return false, err
	}
	ancestorsOrZ := sets.Union(sets.Union(anX, z), x)

	for len(forwardQueue) > 0 || len(backwardQueue) > 0 {
		if len(backwardQueue) > 0 {
			w := backwardQueue[0]
			backwardQueue = backwardQueue[1:]
			backwardVisited[w] = true
			if sets.Contains(y, w) {
				return false, nil
			}
			if !sets.Contains(z, w) {
				parents, _ := g.Parents([]int{w})
				for _, p := range parents {
					if !backwardVisited[p] {
						backwardQueue = append(backwardQueue, p)
					}
				}
				children, _ := g.Children([]int{w})
				for _, c := range children {
					if !forwardVisited[c] {
						forwardQueue = append(forwardQueue, c)
					}
				}
			}
		}

		if len(forwardQueue) > 0 {
			w := forwardQueue[0]
			forwardQueue = forwardQueue[1:]
			forwardVisited[w] = true
			if sets.Contains(y, w) {
				return false, nil
			}
			if sets.Contains(ancestorsOrZ, w) {
				parents, _ := g.Parents([]int{w})
				for _, p := range parents {
					if !backwardVisited[p] {
						backwardQueue = append(backwardQueue, p)
					}
				}
			}
			if !sets.Contains(z, w) {
				children, _ := g.Children([]int{w})
				for _, c := range children {
					if !forwardVisited[c] {
						forwardQueue = append(forwardQueue, c)
					}
				}
			}
		}
	}

	return true, nil
}

// checkIncludedRestricted resolves the optional pinned set W and
// restriction set V and validates W subset of Z subset of V.
func (g *DiGraph) checkIncludedRestricted(z, w, v []int) ([]int, []int, error) {
	included := sets.New(w...)
	var restricted []int
	if v == nil {
		restricted = g.Vertices()
	} else {
		restricted = sets.New(v...)
	}
	if err := g.checkSet("W", included); err != nil {
		return nil, nil, err
	}
	if err := g.checkSet("V", restricted); err != nil {
		return nil, nil, err
	}
	if !sets.IsSubset(included, restricted) {
		return nil, nil, fmt.Errorf("%w: W must be a subset of V", ErrSubsetMismatch)
	}
	if z != nil {
		if !sets.IsSubset(included, z) {
			return nil, nil, fmt.Errorf("%w: Z must be a superset of W", ErrSubsetMismatch)
		}
		if !sets.IsSubset(z, restricted) {
			return nil, nil, fmt.Errorf("%w: Z must be a subset of V", ErrSubsetMismatch)
		}
	}
	return included, restricted, nil
}

// IsMinimalSeparatorSet checks if Z is a minimal d-separator of X and Y
// containing W and contained in V. A nil W stands for the empty set and a
// nil V for the full vertex set.
func (g *DiGraph) IsMinimalSeparatorSet(x, y, z, w, v []int) (bool, error) {
	x, y, z = sets.New(x...), sets.New(y...), sets.New(z...)
	if err := g.checkSeparationSets(x, y, z); err != nil {
		return false, err
	}
	included, _, err := g.checkIncludedRestricted(z, w, v)
	if err != nil {
		return false, err
	}

	// Compute the ancestral closure An(X, Y, W) union X, Y, W.
	xyIn := sets.Union(sets.Union(x, y), included)
	anXYIn, err := g.Ancestors(xyIn)
	if err != nil {
		return false, err
	}
	anXYIn = sets.Union(anXYIn, xyIn)

	// a) Z must be a separator.
	xClosure, err := g.reachable(x, anXYIn, z)
	if err != nil {
		return false, err
	}
	if !sets.IsDisjoint(xClosure, y) {
		return false, nil
	}

	// b) Z must be constrained to the ancestral closure.
	if !sets.IsSubset(z, anXYIn) {
		return false, nil
	}

	// c) Z must be minimal: every free vertex of Z is reachable from both sides.
	yClosure, err := g.reachable(y, anXYIn, z)
	if err != nil {
		return false, err
	}
	free := sets.Difference(z, included)
	return sets.IsSubset(free, sets.Intersect(xClosure, yClosure)), nil
}

// FindMinimalSeparatorSet finds a minimal d-separator of X and Y
// containing W and contained in V, if one exists. A nil W stands for the
// empty set and a nil V for the full vertex set.
func (g *DiGraph) FindMinimalSeparatorSet(x, y, w, v []int) ([]int, bool, error) {
	x, y = sets.New(x...), sets.New(y...)
	if err := g.checkSeparationSets(x, y, nil); err != nil {
		return nil, false, err
	}
	included, restricted, err := g.checkIncludedRestricted(nil, w, v)
	if err != nil {
		return nil, false, err
	}

	// Compute the ancestral closure An(X, Y, W) union X, Y, W.
	xyIn := sets.Union(sets.Union(x, y), included)
	anXYIn, err := g.Ancestors(xyIn)
	if err != nil {
		return nil, false, err
	}
	anXYIn = sets.Union(anXYIn, xyIn)

	// Start from the largest admissible candidate.
	z := sets.Intersect(restricted, sets.Difference(anXYIn, sets.Union(x, y)))

	// Check that the candidate separates at all.
	xClosure, err := g.reachable(x, anXYIn, z)
	if err != nil {
		return nil, false, err
	}
	if !sets.IsDisjoint(xClosure, y) {
		return nil, false, nil
	}

	// Refine to the X side, then to the Y side.
	z = sets.Intersect(z, sets.Union(xClosure, included))
	yClosure, err := g.reachable(y, anXYIn, z)
	if err != nil {
		return nil, false, err
	}
	return sets.Intersect(z, sets.Union(yClosure, included)), true, nil
}

// reachable runs the restricted reachability used by the minimal
// separator search: the ball moves along (direction, vertex) states,
// passing a vertex in Z only when it acts as an opened collider, and
// never leaves the ancestral set anX.
func (g *DiGraph) reachable(x, anX, z []int) ([]int, error) {
	if _, err := g.TopologicalSort(); err != nil {
		return nil, err
	}

	n := len(g.labels)
	// visited[0] tracks backward arrivals, visited[1] forward arrivals.
	var visited [2][]bool
	visited[0] = make([]bool, n)
	visited[1] = make([]bool, n)

	type state struct {
		forward bool
		vertex  int
	}
	queue := make([]state, 0, n)
	for _, w := range x {
		parents, _ := g.Parents([]int{w})
		if len(parents) > 0 {
			queue = append(queue, state{false, w})
			visited[0][w] = true
		}
		children, _ := g.Children([]int{w})
		if len(children) > 0 {
			queue = append(queue, state{true, w})
			visited[1][w] = true
		}
	}

	pass := func(e bool, v int, f bool, next int) bool {
		inAncestral := sets.Contains(anX, next)
		colliderIfInZ := !sets.Contains(z, v) || (e && !f)
		return inAncestral && colliderIfInZ
	}

	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]

		parents, _ := g.Parents([]int{s.vertex})
		children, _ := g.Children([]int{s.vertex})
		for _, next := range parents {
			if !visited[0][next] && pass(s.forward, s.vertex, false, next) {
				visited[0][next] = true
				queue = append(queue, state{false, next})
			}
		}
		for _, next := range children {
			if !visited[1][next] && pass(s.forward, s.vertex, true, next) {
				visited[1][next] = true
				queue = append(queue, state{true, next})
			}
		}
	}

	mark := make([]bool, n)
	for i := 0; i < n; i++ {
		mark[i] = visited[0][i] || visited[1][i]
	}
	return marked(mark), nil
}
