package samplers

import (
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/JohnPierman/pgmgo/data"
	"github.com/JohnPierman/pgmgo/models"
)

// timeEpsilon is added to candidate transition times after each event to
// avoid zero-length intervals.
const timeEpsilon = 1e-9

// CatCTBNSampler draws trajectories from a categorical continuous-time
// Bayesian network with the Gillespie algorithm: every variable holds a
// candidate transition time drawn from its exit rate, the earliest fires,
// and only the firing variable and its children are resampled.
type CatCTBNSampler struct {
	rng   *rand.Rand
	model *models.CatCTBN
}

// NewCatCTBNSampler creates a new forward sampler for a categorical
// continuous-time Bayesian network.
func NewCatCTBNSampler(rng *rand.Rand, model *models.CatCTBN) *CatCTBNSampler {
	return &CatCTBNSampler{rng: rng, model: model}
}

// sampleTime draws a candidate transition time for variable i in the
// current event. An absorbing state (zero exit rate) never fires.
func (s *CatCTBNSampler) sampleTime(event []byte, i int) (float64, error) {
	cim := s.model.CIM(i)
	parents, err := s.model.Graph().Parents([]int{i})
	if err != nil {
		return 0, err
	}
	paStates := make([]int, len(parents))
	for k, p := range parents {
		paStates[k] = int(event[p])
	}
	paIdx, err := cim.ConditioningIndex().Ravel(paStates)
	if err != nil {
		return 0, err
	}
	x := int(event[i])
	rate := -cim.Parameters()[paIdx][x][x]
	if rate <= 0 {
		return math.Inf(1), nil
	}
	exp := distuv.Exponential{Rate: rate, Src: s.rng}
	return exp.Rand(), nil
}

// SampleByLength draws a trajectory with at most maxLength events.
func (s *CatCTBNSampler) SampleByLength(maxLength int) (*data.CatTrj, error) {
	return s.SampleByLengthOrTime(maxLength, math.MaxFloat64)
}

// SampleByTime draws a trajectory up to maxTime.
func (s *CatCTBNSampler) SampleByTime(maxTime float64) (*data.CatTrj, error) {
	return s.SampleByLengthOrTime(math.MaxInt, maxTime)
}

// SampleByLengthOrTime draws a trajectory until either bound is reached.
func (s *CatCTBNSampler) SampleByLengthOrTime(maxLength int, maxTime float64) (*data.CatTrj, error) {
	if maxLength <= 0 {
		return nil, fmt.Errorf(
			"%w: maximum length %d must be strictly positive", ErrInvalidParameter, maxLength,
		)
	}
	if maxTime <= 0 {
		return nil, fmt.Errorf(
			"%w: maximum time %g must be strictly positive", ErrInvalidParameter, maxTime,
		)
	}

	// Draw the initial state from the initial distribution.
	initial := NewCatBNSampler(s.rng, s.model.InitialDistribution())
	event, err := initial.Sample()
	if err != nil {
		return nil, err
	}

	events := [][]byte{cloneEvent(event)}
	times := []float64{0}

	// Draw a candidate transition time per variable.
	candidates := make([]float64, len(event))
	for i := range candidates {
		candidates[i], err = s.sampleTime(event, i)
		if err != nil {
			return nil, err
		}
	}

	i := argmin(candidates)
	time := candidates[i]

	for len(events) < maxLength && time < maxTime {
		cim := s.model.CIM(i)
		parents, err := s.model.Graph().Parents([]int{i})
		if err != nil {
			return nil, err
		}
		paStates := make([]int, len(parents))
		for k, p := range parents {
			paStates[k] = int(event[p])
		}
		paIdx, err := cim.ConditioningIndex().Ravel(paStates)
		if err != nil {
			return nil, err
		}

		// Draw the next state from the off-diagonal row, renormalised.
		x := int(event[i])
		row := cim.Parameters()[paIdx][x]
		weights := make([]float64, len(row))
		total := 0.0
		for j, q := range row {
			if j != x {
				weights[j] = q
				total += q
			}
		}
		u := s.rng.Float64() * total
		next := -1
		cum := 0.0
		for j, w := range weights {
			if w == 0 {
				continue
			}
			next = j
			cum += w
			if u <= cum {
				break
			}
		}
		event[i] = byte(next)

		events = append(events, cloneEvent(event))
		times = append(times, time)

		// Resample only the firing variable and its children.
		children, err := s.model.Graph().Children([]int{i})
		if err != nil {
			return nil, err
		}
		for _, j := range append([]int{i}, children...) {
			t, err := s.sampleTime(event, j)
			if err != nil {
				return nil, err
			}
			candidates[j] = time + t
		}
		for j := range candidates {
			candidates[j] += timeEpsilon
		}

		i = argmin(candidates)
		time = candidates[i]
	}

	return data.NewCatTrj(s.model.Variables(), events, times)
}

func cloneEvent(event []byte) []byte {
	out := make([]byte, len(event))
	copy(out, event)
	return out
}

func argmin(values []float64) int {
	best := 0
	for i, v := range values {
		if v < values[best] {
			best = i
		}
	}
	return best
}

// SampleNByLength draws n trajectories with at most maxLength events.
func (s *CatCTBNSampler) SampleNByLength(maxLength, n int) (*data.CatTrjs, error) {
	return s.SampleNByLengthOrTime(maxLength, math.MaxFloat64, n)
}

// SampleNByTime draws n trajectories up to maxTime.
func (s *CatCTBNSampler) SampleNByTime(maxTime float64, n int) (*data.CatTrjs, error) {
	return s.SampleNByLengthOrTime(math.MaxInt, maxTime, n)
}

// SampleNByLengthOrTime draws n trajectories until either bound.
func (s *CatCTBNSampler) SampleNByLengthOrTime(maxLength int, maxTime float64, n int) (*data.CatTrjs, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: trajectory count %d must be positive", ErrInvalidParameter, n)
	}
	trjs := make([]*data.CatTrj, n)
	for k := 0; k < n; k++ {
		trj, err := s.SampleByLengthOrTime(maxLength, maxTime)
		if err != nil {
			return nil, err
		}
		trjs[k] = trj
	}
	return data.NewCatTrjs(trjs)
}

// ParSampleNByLength draws n trajectories in parallel from derived seeds.
func (s *CatCTBNSampler) ParSampleNByLength(maxLength, n int) (*data.CatTrjs, error) {
	return s.ParSampleNByLengthOrTime(maxLength, math.MaxFloat64, n)
}

// ParSampleNByTime draws n trajectories in parallel from derived seeds.
func (s *CatCTBNSampler) ParSampleNByTime(maxTime float64, n int) (*data.CatTrjs, error) {
	return s.ParSampleNByLengthOrTime(math.MaxInt, maxTime, n)
}

// ParSampleNByLengthOrTime derives n child seeds from the caller's
// generator and draws the trajectories in parallel.
func (s *CatCTBNSampler) ParSampleNByLengthOrTime(maxLength int, maxTime float64, n int) (*data.CatTrjs, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: trajectory count %d must be positive", ErrInvalidParameter, n)
	}
	seeds := childSeeds(s.rng, n)
	trjs := make([]*data.CatTrj, n)

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for k := 0; k < n; k++ {
		k := k
		g.Go(func() error {
			child := NewCatCTBNSampler(rand.New(rand.NewPCG(seeds[k][0], seeds[k][1])), s.model)
			trj, err := child.SampleByLengthOrTime(maxLength, maxTime)
			if err != nil {
				return err
			}
			trjs[k] = trj
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return data.NewCatTrjs(trjs)
}
