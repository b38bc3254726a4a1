package estimators

import (
	"fmt"

	"github.com/JohnPierman/pgmgo/data"
	"github.com/JohnPierman/pgmgo/factors"
	"github.com/JohnPierman/pgmgo/sets"
)

// CatBayes is the Bayesian estimator of categorical CPDs with a
// symmetric Dirichlet prior.
type CatBayes struct {
	sse   *CatSSE
	vars  []data.Variable
	alpha float64
}

// NewCatBayes creates a new Bayesian estimator with concentration alpha
// over a complete or weighted categorical table.
func NewCatBayes(dataset CatDataset, alpha float64) (*CatBayes, error) {
	if alpha < 0 {
		return nil, fmt.Errorf("%w: concentration %g must be non-negative", ErrInvalidParameter, alpha)
	}
	return &CatBayes{sse: NewCatSSE(dataset), vars: dataset.Variables(), alpha: alpha}, nil
}

// Fit estimates the CPD of X given Z with Dirichlet-smoothed counts.
func (e *CatBayes) Fit(x, z []int) (*factors.CatCPD, error) {
	stats, err := e.sse.Fit(x, z)
	if err != nil {
		return nil, err
	}
	return fitCatCPD(e.vars, sets.New(x...), sets.New(z...), stats, e.alpha)
}

// ParFit is Fit with parallel sufficient-statistics computation.
func (e *CatBayes) ParFit(x, z []int) (*factors.CatCPD, error) {
	stats, err := e.sse.ParFit(x, z)
	if err != nil {
		return nil, err
	}
	return fitCatCPD(e.vars, sets.New(x...), sets.New(z...), stats, e.alpha)
}

// TrjBayes is the Bayesian estimator of conditional intensity matrices
// with pseudo-count and pseudo-time priors.
type TrjBayes struct {
	sse   *TrjSSE
	vars  []data.Variable
	alpha float64
	tau   float64
}

// NewTrjBayes creates a new Bayesian estimator with pseudo-count alpha
// and pseudo-time tau over a single trajectory.
func NewTrjBayes(trj *data.CatTrj, alpha, tau float64) (*TrjBayes, error) {
	if alpha < 0 || tau < 0 {
		return nil, fmt.Errorf(
			"%w: pseudo-count %g and pseudo-time %g must be non-negative",
			ErrInvalidParameter, alpha, tau,
		)
	}
	return &TrjBayes{sse: NewTrjSSE(trj), vars: trj.Variables(), alpha: alpha, tau: tau}, nil
}

// NewTrjsBayes creates a new Bayesian estimator over a trajectory
// collection.
func NewTrjsBayes(trjs *data.CatTrjs, alpha, tau float64) (*TrjBayes, error) {
	if alpha < 0 || tau < 0 {
		return nil, fmt.Errorf(
			"%w: pseudo-count %g and pseudo-time %g must be non-negative",
			ErrInvalidParameter, alpha, tau,
		)
	}
	return &TrjBayes{sse: NewTrjsSSE(trjs), vars: trjs.Variables(), alpha: alpha, tau: tau}, nil
}

// Fit estimates the CIM of X given Z with smoothed counts and times.
func (e *TrjBayes) Fit(x, z []int) (*factors.CatCIM, error) {
	stats, err := e.sse.Fit(x, z)
	if err != nil {
		return nil, err
	}
	return fitCatCIM(e.vars, sets.New(x...), sets.New(z...), stats, e.alpha, e.tau)
}

// ParFit is Fit with parallel sufficient-statistics computation.
func (e *TrjBayes) ParFit(x, z []int) (*factors.CatCIM, error) {
	stats, err := e.sse.ParFit(x, z)
	if err != nil {
		return nil, err
	}
	return fitCatCIM(e.vars, sets.New(x...), sets.New(z...), stats, e.alpha, e.tau)
}
