package samplers

import (
	"fmt"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/JohnPierman/pgmgo/data"
	"github.com/JohnPierman/pgmgo/models"
)

// GaussBNSampler draws joint samples from a Gaussian Bayesian network by
// sweeping the cached topological order once per sample.
type GaussBNSampler struct {
	rng   *rand.Rand
	model *models.GaussBN
}

// NewGaussBNSampler creates a new forward sampler for a Gaussian
// Bayesian network.
func NewGaussBNSampler(rng *rand.Rand, model *models.GaussBN) *GaussBNSampler {
	return &GaussBNSampler{rng: rng, model: model}
}

// Sample draws one joint sample as per-vertex values.
func (s *GaussBNSampler) Sample() ([]float64, error) {
	labels := s.model.Labels()
	sample := make([]float64, len(labels))

	for _, i := range s.model.TopologicalOrder() {
		cpd := s.model.CPD(i)
		parents, err := s.model.Graph().Parents([]int{i})
		if err != nil {
			return nil, err
		}
		zValues := make([]float64, len(parents))
		for k, p := range parents {
			zValues[k] = sample[p]
		}
		xValues, err := cpd.Sample(s.rng, zValues)
		if err != nil {
			return nil, err
		}
		sample[i] = xValues[0]
	}
	return sample, nil
}

// SampleN draws n joint samples into a complete Gaussian table.
func (s *GaussBNSampler) SampleN(n int) (*data.GaussTable, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: sample count %d must be positive", ErrInvalidParameter, n)
	}
	cols := len(s.model.Labels())
	values := mat.NewDense(n, cols, nil)
	for k := 0; k < n; k++ {
		row, err := s.Sample()
		if err != nil {
			return nil, err
		}
		values.SetRow(k, row)
	}
	return data.NewGaussTable(s.model.Labels(), values)
}

// ParSampleN derives n child seeds from the caller's generator and draws
// the samples in parallel, one child generator per sample.
func (s *GaussBNSampler) ParSampleN(n int) (*data.GaussTable, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: sample count %d must be positive", ErrInvalidParameter, n)
	}
	seeds := childSeeds(s.rng, n)
	cols := len(s.model.Labels())
	values := mat.NewDense(n, cols, nil)

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for k := 0; k < n; k++ {
		k := k
		g.Go(func() error {
			child := NewGaussBNSampler(rand.New(rand.NewPCG(seeds[k][0], seeds[k][1])), s.model)
			row, err := child.Sample()
			if err != nil {
				return err
			}
			values.SetRow(k, row)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return data.NewGaussTable(s.model.Labels(), values)
}
