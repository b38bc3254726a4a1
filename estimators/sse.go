// Package estimators provides the sufficient-statistics engine, the
// maximum-likelihood and Bayesian parameter estimators, the BIC scoring
// functor, and the score-based structure learner.
package estimators

import (
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/JohnPierman/pgmgo/data"
	"github.com/JohnPierman/pgmgo/factors"
	"github.com/JohnPierman/pgmgo/sets"
)

// CatDataset is the surface shared by complete and weighted categorical
// tables.
type CatDataset interface {
	Variables() []data.Variable
	Shape() []int
	Values() [][]byte
	SampleSize() float64
}

// rowWeights returns the per-row weights of a dataset, nil meaning unit
// weights.
func rowWeights(d CatDataset) []float64 {
	if w, ok := d.(*data.CatWtdTable); ok {
		return w.Weights()
	}
	return nil
}

func checkDisjointColumns(x, z []int, cols int) error {
	if len(x) == 0 {
		return fmt.Errorf("%w: X", ErrEmptySet)
	}
	for _, i := range append(sets.Clone(x), z...) {
		if i < 0 || i >= cols {
			return fmt.Errorf("%w: %d", ErrVertexOutOfBounds, i)
		}
	}
	if !sets.IsDisjoint(x, z) {
		return fmt.Errorf("%w: X and Z", ErrSetsNotDisjoint)
	}
	return nil
}

func subsetVariables(vars []data.Variable, x []int) []data.Variable {
	out := make([]data.Variable, len(x))
	for i, c := range x {
		out[i] = vars[c]
	}
	return out
}

func subsetShape(shape []int, x []int) []int {
	out := make([]int, len(x))
	for i, c := range x {
		out[i] = shape[c]
	}
	return out
}

// CatSSE computes conditional joint counts over a categorical dataset.
type CatSSE struct {
	dataset CatDataset
}

// NewCatSSE creates a new sufficient-statistics estimator over a
// complete or weighted categorical table.
func NewCatSSE(dataset CatDataset) *CatSSE {
	return &CatSSE{dataset: dataset}
}

// Fit sweeps the rows once, incrementing the count cell addressed by the
// mixed-radix indices of the Z and X columns.
func (e *CatSSE) Fit(x, z []int) (*factors.CatCPDStats, error) {
	x, z = sets.New(x...), sets.New(z...)
	shape := e.dataset.Shape()
	if err := checkDisjointColumns(x, z, len(shape)); err != nil {
		return nil, err
	}

	mX := factors.NewMultiIndex(subsetShape(shape, x))
	mZ := factors.NewMultiIndex(subsetShape(shape, z))
	counts := make([][]float64, mZ.Size())
	for r := range counts {
		counts[r] = make([]float64, mX.Size())
	}

	weights := rowWeights(e.dataset)
	total := 0.0
	xStates := make([]int, len(x))
	zStates := make([]int, len(z))
	for r, row := range e.dataset.Values() {
		for i, c := range x {
			xStates[i] = int(row[c])
		}
		for i, c := range z {
			zStates[i] = int(row[c])
		}
		idxX, err := mX.Ravel(xStates)
		if err != nil {
			return nil, err
		}
		idxZ, err := mZ.Ravel(zStates)
		if err != nil {
			return nil, err
		}
		w := 1.0
		if weights != nil {
			w = weights[r]
		}
		counts[idxZ][idxX] += w
		total += w
	}

	return &factors.CatCPDStats{Counts: counts, N: total}, nil
}

// ParFit computes the counts in parallel over row chunks and reduces
// them with the associative sum.
func (e *CatSSE) ParFit(x, z []int) (*factors.CatCPDStats, error) {
	x, z = sets.New(x...), sets.New(z...)
	shape := e.dataset.Shape()
	if err := checkDisjointColumns(x, z, len(shape)); err != nil {
		return nil, err
	}

	rows := e.dataset.Values()
	weights := rowWeights(e.dataset)
	workers := runtime.GOMAXPROCS(0)
	chunk := (len(rows) + workers - 1) / workers
	if chunk < 1 {
		chunk = 1
	}

	mX := factors.NewMultiIndex(subsetShape(shape, x))
	mZ := factors.NewMultiIndex(subsetShape(shape, z))

	var mu sync.Mutex
	out := &factors.CatCPDStats{Counts: zeroCounts(mZ.Size(), mX.Size())}

	var g errgroup.Group
	g.SetLimit(workers)
	for start := 0; start < len(rows); start += chunk {
		end := start + chunk
		if end > len(rows) {
			end = len(rows)
		}
		start, end := start, end
		g.Go(func() error {
			partial := &factors.CatCPDStats{Counts: zeroCounts(mZ.Size(), mX.Size())}
			xStates := make([]int, len(x))
			zStates := make([]int, len(z))
			for r := start; r < end; r++ {
				row := rows[r]
				for i, c := range x {
					xStates[i] = int(row[c])
				}
				for i, c := range z {
					zStates[i] = int(row[c])
				}
				idxX, err := mX.Ravel(xStates)
				if err != nil {
					return err
				}
				idxZ, err := mZ.Ravel(zStates)
				if err != nil {
					return err
				}
				w := 1.0
				if weights != nil {
					w = weights[r]
				}
				partial.Counts[idxZ][idxX] += w
				partial.N += w
			}
			mu.Lock()
			defer mu.Unlock()
			return out.Add(partial)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func zeroCounts(rows, cols int) [][]float64 {
	out := make([][]float64, rows)
	for r := range out {
		out[r] = make([]float64, cols)
	}
	return out
}

// TrjSSE computes transition counts and dwell times over a trajectory or
// a trajectory collection.
type TrjSSE struct {
	vars []data.Variable
	trjs []*data.CatTrj
}

// NewTrjSSE creates a new sufficient-statistics estimator over a single
// trajectory.
func NewTrjSSE(trj *data.CatTrj) *TrjSSE {
	return &TrjSSE{vars: trj.Variables(), trjs: []*data.CatTrj{trj}}
}

// NewTrjsSSE creates a new sufficient-statistics estimator over a
// trajectory collection.
func NewTrjsSSE(trjs *data.CatTrjs) *TrjSSE {
	return &TrjSSE{vars: trjs.Variables(), trjs: trjs.Trajectories()}
}

// Fit folds the trajectories sequentially, summing counts and times.
func (e *TrjSSE) Fit(x, z []int) (*factors.CatCIMStats, error) {
	x, z = sets.New(x...), sets.New(z...)
	shape := shapeFromVariables(e.vars)
	if err := checkDisjointColumns(x, z, len(shape)); err != nil {
		return nil, err
	}

	mX := factors.NewMultiIndex(subsetShape(shape, x))
	mZ := factors.NewMultiIndex(subsetShape(shape, z))
	out := factors.NewCatCIMStats(mZ.Size(), mX.Size())
	for _, trj := range e.trjs {
		partial, err := trjStats(trj, x, z, mX, mZ)
		if err != nil {
			return nil, err
		}
		if err := out.Add(partial); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ParFit folds the trajectories in parallel and reduces with the
// associative sum.
func (e *TrjSSE) ParFit(x, z []int) (*factors.CatCIMStats, error) {
	x, z = sets.New(x...), sets.New(z...)
	shape := shapeFromVariables(e.vars)
	if err := checkDisjointColumns(x, z, len(shape)); err != nil {
		return nil, err
	}

	mX := factors.NewMultiIndex(subsetShape(shape, x))
	mZ := factors.NewMultiIndex(subsetShape(shape, z))

	var mu sync.Mutex
	out := factors.NewCatCIMStats(mZ.Size(), mX.Size())

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, trj := range e.trjs {
		trj := trj
		g.Go(func() error {
			partial, err := trjStats(trj, x, z, mX, mZ)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return out.Add(partial)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func shapeFromVariables(vars []data.Variable) []int {
	shape := make([]int, len(vars))
	for i, v := range vars {
		shape[i] = len(v.States)
	}
	return shape
}

// trjStats sweeps consecutive event pairs: a transition of the X joint
// state increments the count cell, and the elapsed time accrues to the
// dwell cell of the departing state.
func trjStats(trj *data.CatTrj, x, z []int, mX, mZ *factors.MultiIndex) (*factors.CatCIMStats, error) {
	out := factors.NewCatCIMStats(mZ.Size(), mX.Size())
	events := trj.Values()
	times := trj.Times()

	xStates := make([]int, len(x))
	zStates := make([]int, len(z))
	for k := 0; k+1 < len(events); k++ {
		for i, c := range x {
			xStates[i] = int(events[k][c])
		}
		for i, c := range z {
			zStates[i] = int(events[k][c])
		}
		iX, err := mX.Ravel(xStates)
		if err != nil {
			return nil, err
		}
		iZ, err := mZ.Ravel(zStates)
		if err != nil {
			return nil, err
		}
		for i, c := range x {
			xStates[i] = int(events[k+1][c])
		}
		jX, err := mX.Ravel(xStates)
		if err != nil {
			return nil, err
		}

		if iX != jX {
			out.Counts[iZ][iX][jX]++
			out.N++
		}
		out.Times[iZ][iX] += times[k+1] - times[k]
	}
	return out, nil
}
