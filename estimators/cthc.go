package estimators

import (
	"fmt"
	"math"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/JohnPierman/pgmgo/graph"
	"github.com/JohnPierman/pgmgo/sets"
)

// CTHC is the hill-climbing structure learner over per-vertex parent
// sets: each vertex greedily adds or removes parents while its score
// strictly improves, and the learned parent sets assemble into a
// directed graph.
type CTHC struct {
	initial    *graph.DiGraph
	score      ScoringCriterion
	maxParents int
	prior      *PriorKnowledge
}

// CTHCOption configures a CTHC learner.
type CTHCOption func(*CTHC) error

// WithMaxParents bounds the size of every learned parent set.
func WithMaxParents(n int) CTHCOption {
	return func(c *CTHC) error {
		if n < 1 {
			return fmt.Errorf("%w: max parents %d must be positive", ErrInvalidParameter, n)
		}
		c.maxParents = n
		return nil
	}
}

// WithPriorKnowledge constrains the search with forbidden and required
// edges. The initial graph must not contain a forbidden edge nor omit a
// required one.
func WithPriorKnowledge(pk *PriorKnowledge) CTHCOption {
	return func(c *CTHC) error {
		labels := c.initial.Labels()
		pkLabels := pk.Labels()
		if len(labels) != len(pkLabels) {
			return fmt.Errorf("%w: prior knowledge labels", ErrLabelsMismatch)
		}
		for i := range labels {
			if labels[i] != pkLabels[i] {
				return fmt.Errorf("%w: prior knowledge labels", ErrLabelsMismatch)
			}
		}
		for _, i := range c.initial.Vertices() {
			for _, j := range c.initial.Vertices() {
				if i == j {
					continue
				}
				if c.initial.HasEdge(i, j) && pk.IsForbidden(i, j) {
					return fmt.Errorf(
						"%w: initial graph contains forbidden edge (%d, %d)",
						ErrPriorKnowledgeConflict, i, j,
					)
				}
				if !c.initial.HasEdge(i, j) && pk.IsRequired(i, j) {
					return fmt.Errorf(
						"%w: initial graph omits required edge (%d, %d)",
						ErrPriorKnowledgeConflict, i, j,
					)
				}
			}
		}
		c.prior = pk
		return nil
	}
}

// NewCTHC creates a new hill-climbing learner from an initial graph and
// a scoring criterion.
func NewCTHC(initial *graph.DiGraph, score ScoringCriterion, opts ...CTHCOption) (*CTHC, error) {
	c := &CTHC{initial: initial, score: score}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// candidates generates the next parent sets of vertex i from the current
// one: one addition per admissible non-parent, one removal per
// non-required parent.
func (c *CTHC) candidates(i int, current []int) [][]int {
	out := make([][]int, 0)

	if c.maxParents == 0 || len(current) < c.maxParents {
		for _, j := range c.initial.Vertices() {
			if j == i || sets.Contains(current, j) {
				continue
			}
			if c.prior != nil && c.prior.IsForbidden(j, i) {
				continue
			}
			out = append(out, sets.Insert(current, j))
		}
	}

	for _, j := range current {
		if c.prior != nil && c.prior.IsRequired(j, i) {
			continue
		}
		out = append(out, sets.Remove(current, j))
	}

	return out
}

// fitVertex climbs the parent-set lattice of one vertex until no
// candidate strictly improves the score.
func (c *CTHC) fitVertex(i int, parallel bool) ([]int, error) {
	current, err := c.initial.Parents([]int{i})
	if err != nil {
		return nil, err
	}
	currentScore, err := c.score.Call([]int{i}, current)
	if err != nil {
		return nil, err
	}

	previous := math.Inf(-1)
	for currentScore > previous {
		previous = currentScore

		candidates := c.candidates(i, current)
		var bestSet []int
		bestScore := currentScore

		if parallel {
			scores := make([]float64, len(candidates))
			var g errgroup.Group
			g.SetLimit(runtime.GOMAXPROCS(0))
			for k, candidate := range candidates {
				k, candidate := k, candidate
				g.Go(func() error {
					s, err := c.score.Call([]int{i}, candidate)
					if err != nil {
						return err
					}
					scores[k] = s
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return nil, err
			}
			for k, s := range scores {
				if s > bestScore {
					bestScore = s
					bestSet = candidates[k]
				}
			}
		} else {
			for _, candidate := range candidates {
				s, err := c.score.Call([]int{i}, candidate)
				if err != nil {
					return nil, err
				}
				if s > bestScore {
					bestScore = s
					bestSet = candidate
				}
			}
		}

		if bestSet != nil {
			current = bestSet
			currentScore = bestScore
		}
	}

	return current, nil
}

// Fit runs the hill climb for every vertex sequentially and assembles
// the learned parent sets into a directed graph.
func (c *CTHC) Fit() (*graph.DiGraph, error) {
	learned, err := graph.NewDiGraph(c.initial.Labels())
	if err != nil {
		return nil, err
	}
	for _, i := range c.initial.Vertices() {
		parents, err := c.fitVertex(i, false)
		if err != nil {
			return nil, err
		}
		for _, j := range parents {
			if err := learned.AddEdge(j, i); err != nil {
				return nil, err
			}
		}
	}
	return learned, nil
}

// ParFit dispatches vertices to a worker pool and scores candidate
// parent sets in parallel within each step.
func (c *CTHC) ParFit() (*graph.DiGraph, error) {
	vertices := c.initial.Vertices()
	parents := make([][]int, len(vertices))

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, i := range vertices {
		i := i
		g.Go(func() error {
			p, err := c.fitVertex(i, true)
			if err != nil {
				return err
			}
			mu.Lock()
			parents[i] = p
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	learned, err := graph.NewDiGraph(c.initial.Labels())
	if err != nil {
		return nil, err
	}
	for i, set := range parents {
		for _, j := range set {
			if err := learned.AddEdge(j, i); err != nil {
				return nil, err
			}
		}
	}
	return learned, nil
}
