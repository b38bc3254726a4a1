package estimators

import (
	"math"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/JohnPierman/pgmgo/data"
	"github.com/JohnPierman/pgmgo/factors"
	"github.com/JohnPierman/pgmgo/sets"
)

// DefaultChunkSize is the number of rows per chunk of the Gaussian
// moment sweep.
const DefaultChunkSize = 1024

// GaussDataset is the surface shared by complete and weighted Gaussian
// tables.
type GaussDataset interface {
	Labels() []string
	Values() *mat.Dense
	SampleSize() float64
}

// GaussSSE computes first and second moments over a Gaussian dataset
// with a chunked, numerically careful sweep.
type GaussSSE struct {
	dataset GaussDataset
	chunk   int
}

// GaussSSEOption configures a GaussSSE.
type GaussSSEOption func(*GaussSSE)

// WithChunkSize sets the number of rows per chunk.
func WithChunkSize(rows int) GaussSSEOption {
	return func(e *GaussSSE) {
		if rows > 0 {
			e.chunk = rows
		}
	}
}

// NewGaussSSE creates a new sufficient-statistics estimator over a
// complete or weighted Gaussian table.
func NewGaussSSE(dataset GaussDataset, opts ...GaussSSEOption) *GaussSSE {
	e := &GaussSSE{dataset: dataset, chunk: DefaultChunkSize}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func gaussWeights(d GaussDataset) []float64 {
	if w, ok := d.(*data.GaussWtdTable); ok {
		return w.Weights()
	}
	return nil
}

// Fit sweeps the rows chunk by chunk, combining per-chunk moments with
// the Chan update.
func (e *GaussSSE) Fit(x, z []int) (*factors.GaussStats, error) {
	x, z = sets.New(x...), sets.New(z...)
	cols := len(e.dataset.Labels())
	if err := checkDisjointColumns(x, z, cols); err != nil {
		return nil, err
	}

	values := e.dataset.Values()
	weights := gaussWeights(e.dataset)
	rows := 0
	if values != nil {
		rows, _ = values.Dims()
	}

	out := factors.NewGaussStats(len(x), len(z))
	for start := 0; start < rows; start += e.chunk {
		end := start + e.chunk
		if end > rows {
			end = rows
		}
		partial := chunkMoments(values, weights, start, end, x, z)
		if err := out.Add(partial); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ParFit folds the chunks in parallel and reduces with the same combine.
// For a fixed chunking the result is bitwise identical to the sequential
// fold up to reduction order, and numerically reproducible across worker
// counts.
func (e *GaussSSE) ParFit(x, z []int) (*factors.GaussStats, error) {
	x, z = sets.New(x...), sets.New(z...)
	cols := len(e.dataset.Labels())
	if err := checkDisjointColumns(x, z, cols); err != nil {
		return nil, err
	}

	values := e.dataset.Values()
	weights := gaussWeights(e.dataset)
	rows := 0
	if values != nil {
		rows, _ = values.Dims()
	}

	var mu sync.Mutex
	out := factors.NewGaussStats(len(x), len(z))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for start := 0; start < rows; start += e.chunk {
		end := start + e.chunk
		if end > rows {
			end = rows
		}
		start, end := start, end
		g.Go(func() error {
			partial := chunkMoments(values, weights, start, end, x, z)
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

// chunkMoments computes the centred moments of one row chunk. Weighted
// rows are root-weighted before the second moments so that D^T D
// accumulates w * x * x^T; means are weight-averaged; the raw second
// moments are divided by the chunk weight and centred by subtracting the
// mean outer product, so that chunks combine chunking-independently.
func chunkMoments(values *mat.Dense, weights []float64, start, end int, x, z []int) *factors.GaussStats {
	p, q := len(x), len(z)
	out := factors.NewGaussStats(p, q)
	n := 0.0

	dX := make([][]float64, 0, end-start)
	dZ := make([][]float64, 0, end-start)
	for r := start; r < end; r++ {
		w := 1.0
		if weights != nil {
			w = weights[r]
		}
		sw := math.Sqrt(w)
		rowX := make([]float64, p)
		for i, c := range x {
			rowX[i] = sw * values.At(r, c)
		}
		rowZ := make([]float64, q)
		for i, c := range z {
			rowZ[i] = sw * values.At(r, c)
		}
		dX = append(dX, rowX)
		dZ = append(dZ, rowZ)
		n += w
	}
	if n == 0 {
		return out
	}

	// Weighted means: sum of sqrt(w) * (sqrt(w) * x) over total weight.
	for k, rowX := range dX {
		sw := 1.0
		if weights != nil {
			sw = math.Sqrt(weights[start+k])
		}
		for i := range out.MuX {
			out.MuX[i] += sw * rowX[i]
		}
		for i := range out.MuZ {
			out.MuZ[i] += sw * dZ[k][i]
		}
	}
	for i := range out.MuX {
		out.MuX[i] /= n
	}
	for i := range out.MuZ {
		out.MuZ[i] /= n
	}

	// Raw second moments: D^T D over the root-weighted buffers.
	for k := range dX {
		for i := 0; i < p; i++ {
			for j := 0; j < p; j++ {
				out.Mxx.Set(i, j, out.Mxx.At(i, j)+dX[k][i]*dX[k][j])
			}
			for j := 0; j < q; j++ {
				out.Mxz.Set(i, j, out.Mxz.At(i, j)+dX[k][i]*dZ[k][j])
			}
		}
		for i := 0; i < q; i++ {
			for j := 0; j < q; j++ {
				out.Mzz.Set(i, j, out.Mzz.At(i, j)+dZ[k][i]*dZ[k][j])
			}
		}
	}

	// Centre and normalise.
	for i := 0; i < p; i++ {
		for j := 0; j < p; j++ {
			out.Mxx.Set(i, j, out.Mxx.At(i, j)/n-out.MuX[i]*out.MuX[j])
		}
		for j := 0; j < q; j++ {
			out.Mxz.Set(i, j, out.Mxz.At(i, j)/n-out.MuX[i]*out.MuZ[j])
		}
	}
	for i := 0; i < q; i++ {
		for j := 0; j < q; j++ {
			out.Mzz.Set(i, j, out.Mzz.At(i, j)/n-out.MuZ[i]*out.MuZ[j])
		}
	}

	out.N = n
	return out
}
