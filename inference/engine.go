// Package inference provides approximate conditional-distribution
// estimation for Bayesian networks by sampling and refitting, and
// causal-effect estimation under the back-door criterion.
package inference

import (
	"fmt"
	"math/rand/v2"

	"github.com/JohnPierman/pgmgo/data"
	"github.com/JohnPierman/pgmgo/estimators"
	"github.com/JohnPierman/pgmgo/factors"
	"github.com/JohnPierman/pgmgo/models"
	"github.com/JohnPierman/pgmgo/samplers"
)

// DefaultSampleSize is the number of joint draws an engine takes per
// estimate unless configured otherwise.
const DefaultSampleSize = 10000

// CatCPDEstimator fits categorical CPDs on a sampled table.
type CatCPDEstimator interface {
	Fit(x, z []int) (*factors.CatCPD, error)
	ParFit(x, z []int) (*factors.CatCPD, error)
}

// CatEstimatorFactory builds the estimator an engine fits samples with.
// The late binding lets causal callers compose MLE or Bayesian refits.
type CatEstimatorFactory func(*data.CatTable) (CatCPDEstimator, error)

// MLECatEstimator is the default factory: maximum likelihood.
func MLECatEstimator(table *data.CatTable) (CatCPDEstimator, error) {
	return estimators.NewCatMLE(table), nil
}

// BayesCatEstimator builds a Bayesian factory with concentration alpha.
func BayesCatEstimator(alpha float64) CatEstimatorFactory {
	return func(table *data.CatTable) (CatCPDEstimator, error) {
		return estimators.NewCatBayes(table, alpha)
	}
}

// CatEngine estimates conditional distributions of a categorical
// Bayesian network by forward sampling and refitting.
type CatEngine struct {
	rng     *rand.Rand
	model   *models.CatBN
	samples int
	factory CatEstimatorFactory
}

// CatEngineOption configures a CatEngine.
type CatEngineOption func(*CatEngine) error

// WithSampleSize sets the number of joint draws per estimate.
func WithSampleSize(n int) CatEngineOption {
	return func(e *CatEngine) error {
		if n <= 0 {
			return fmt.Errorf("%w: sample size %d must be positive", ErrInvalidParameter, n)
		}
		e.samples = n
		return nil
	}
}

// WithCatEstimator sets the estimator factory.
func WithCatEstimator(factory CatEstimatorFactory) CatEngineOption {
	return func(e *CatEngine) error {
		e.factory = factory
		return nil
	}
}

// NewCatEngine creates a new inference engine over a categorical
// Bayesian network.
func NewCatEngine(rng *rand.Rand, model *models.CatBN, opts ...CatEngineOption) (*CatEngine, error) {
	e := &CatEngine{rng: rng, model: model, samples: DefaultSampleSize, factory: MLECatEstimator}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Model returns the engine's model.
func (e *CatEngine) Model() *models.CatBN {
	return e.model
}

// Estimate approximates P(Y | Z) by drawing joint samples from the
// model and fitting a CPD on them.
func (e *CatEngine) Estimate(y, z []int) (*factors.CatCPD, error) {
	table, err := samplers.NewCatBNSampler(e.rng, e.model).SampleN(e.samples)
	if err != nil {
		return nil, err
	}
	estimator, err := e.factory(table)
	if err != nil {
		return nil, err
	}
	return estimator.Fit(y, z)
}

// ParEstimate is Estimate with parallel sampling and fitting.
func (e *CatEngine) ParEstimate(y, z []int) (*factors.CatCPD, error) {
	table, err := samplers.NewCatBNSampler(e.rng, e.model).ParSampleN(e.samples)
	if err != nil {
		return nil, err
	}
	estimator, err := e.factory(table)
	if err != nil {
		return nil, err
	}
	return estimator.ParFit(y, z)
}

// GaussCPDEstimator fits linear Gaussian CPDs on a sampled table.
type GaussCPDEstimator interface {
	Fit(x, z []int) (*factors.GaussCPD, error)
	ParFit(x, z []int) (*factors.GaussCPD, error)
}

// GaussEstimatorFactory builds the estimator a Gaussian engine fits
// samples with.
type GaussEstimatorFactory func(*data.GaussTable) (GaussCPDEstimator, error)

// MLEGaussEstimator is the default factory: maximum likelihood.
func MLEGaussEstimator(table *data.GaussTable) (GaussCPDEstimator, error) {
	return estimators.NewGaussMLE(table), nil
}

// GaussEngine estimates conditional distributions of a Gaussian Bayesian
// network by forward sampling and refitting.
type GaussEngine struct {
	rng     *rand.Rand
	model   *models.GaussBN
	samples int
	factory GaussEstimatorFactory
}

// GaussEngineOption configures a GaussEngine.
type GaussEngineOption func(*GaussEngine) error

// WithGaussSampleSize sets the number of joint draws per estimate.
func WithGaussSampleSize(n int) GaussEngineOption {
	return func(e *GaussEngine) error {
		if n <= 0 {
			return fmt.Errorf("%w: sample size %d must be positive", ErrInvalidParameter, n)
		}
		e.samples = n
		return nil
	}
}

// WithGaussEstimator sets the estimator factory.
func WithGaussEstimator(factory GaussEstimatorFactory) GaussEngineOption {
	return func(e *GaussEngine) error {
		e.factory = factory
		return nil
	}
}

// NewGaussEngine creates a new inference engine over a Gaussian Bayesian
// network.
func NewGaussEngine(rng *rand.Rand, model *models.GaussBN, opts ...GaussEngineOption) (*GaussEngine, error) {
	e := &GaussEngine{rng: rng, model: model, samples: DefaultSampleSize, factory: MLEGaussEstimator}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Model returns the engine's model.
func (e *GaussEngine) Model() *models.GaussBN {
	return e.model
}

// Estimate approximates P(Y | Z) by drawing joint samples from the
// model and fitting a linear Gaussian CPD on them.
func (e *GaussEngine) Estimate(y, z []int) (*factors.GaussCPD, error) {
	table, err := samplers.NewGaussBNSampler(e.rng, e.model).SampleN(e.samples)
	if err != nil {
		return nil, err
	}
	estimator, err := e.factory(table)
	if err != nil {
		return nil, err
	}
	return estimator.Fit(y, z)
}

// ParEstimate is Estimate with parallel sampling and fitting.
func (e *GaussEngine) ParEstimate(y, z []int) (*factors.GaussCPD, error) {
	table, err := samplers.NewGaussBNSampler(e.rng, e.model).ParSampleN(e.samples)
	if err != nil {
		return nil, err
	}
	estimator, err := e.factory(table)
	if err != nil {
		return nil, err
	}
	return estimator.ParFit(y, z)
}
