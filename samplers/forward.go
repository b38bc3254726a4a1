// Package samplers provides the forward sampler of the module: ancestral
// single-pass sampling for Bayesian networks and Gillespie-style
// competing-exponential sampling for continuous-time Bayesian networks.
//
// The random number generator is owned by the caller. Parallel
// replication advances it sequentially to derive one child seed per
// replicate, then consumes the children in parallel.
package samplers

import (
	"fmt"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/JohnPierman/pgmgo/data"
	"github.com/JohnPierman/pgmgo/models"
)

// CatBNSampler draws joint samples from a categorical Bayesian network
// by sweeping the cached topological order once per sample.
type CatBNSampler struct {
	rng   *rand.Rand
	model *models.CatBN
}

// NewCatBNSampler creates a new forward sampler for a categorical
// Bayesian network.
func NewCatBNSampler(rng *rand.Rand, model *models.CatBN) *CatBNSampler {
	return &CatBNSampler{rng: rng, model: model}
}

// Sample draws one joint sample as per-vertex state indices.
func (s *CatBNSampler) Sample() ([]byte, error) {
	labels := s.model.Labels()
	sample := make([]byte, len(labels))

	for _, i := range s.model.TopologicalOrder() {
		cpd := s.model.CPD(i)
		parents, err := s.model.Graph().Parents([]int{i})
		if err != nil {
			return nil, err
		}
		zStates := make([]int, len(parents))
		for k, p := range parents {
			zStates[k] = int(sample[p])
		}
		xStates, err := cpd.Sample(s.rng, zStates)
		if err != nil {
			return nil, err
		}
		sample[i] = byte(xStates[0])
	}
	return sample, nil
}

// SampleN draws n joint samples into a complete categorical table.
func (s *CatBNSampler) SampleN(n int) (*data.CatTable, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: sample count %d must be positive", ErrInvalidParameter, n)
	}
	values := make([][]byte, n)
	for k := 0; k < n; k++ {
		row, err := s.Sample()
		if err != nil {
			return nil, err
		}
		values[k] = row
	}
	return data.NewCatTable(s.model.Variables(), values)
}

// ParSampleN derives n child seeds from the caller's generator and draws
// the samples in parallel, one child generator per sample.
func (s *CatBNSampler) ParSampleN(n int) (*data.CatTable, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: sample count %d must be positive", ErrInvalidParameter, n)
	}
	seeds := childSeeds(s.rng, n)
	values := make([][]byte, n)

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for k := 0; k < n; k++ {
		k := k
		g.Go(func() error {
			child := NewCatBNSampler(rand.New(rand.NewPCG(seeds[k][0], seeds[k][1])), s.model)
			row, err := child.Sample()
			if err != nil {
				return err
			}
			values[k] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return data.NewCatTable(s.model.Variables(), values)
}

// childSeeds advances the caller's generator sequentially to derive n
// independent child seeds.
func childSeeds(rng *rand.Rand, n int) [][2]uint64 {
	seeds := make([][2]uint64, n)
	for i := range seeds {
		seeds[i] = [2]uint64{rng.Uint64(), rng.Uint64()}
	}
	return seeds
}
