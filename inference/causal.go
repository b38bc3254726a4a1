package inference

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/JohnPierman/pgmgo/factors"
	"github.com/JohnPierman/pgmgo/sets"
)

// checkCausalSets validates the common preconditions of causal
// estimation: X and Y non-empty and X, Y, Z pairwise disjoint.
func checkCausalSets(x, y, z []int) error {
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

// CatCausal estimates causal effects of a categorical Bayesian network
// through an inference engine.
type CatCausal struct {
	engine *CatEngine
}

// NewCatCausal creates a new causal inference engine.
func NewCatCausal(engine *CatEngine) *CatCausal {
	return &CatCausal{engine: engine}
}

// ACEEstimate estimates the average causal effect of X on Y as
// P(Y | do(X)). The boolean reports identifiability: when no back-door
// adjustment set exists the effect is unidentifiable and the CPD is nil.
func (c *CatCausal) ACEEstimate(x, y []int) (*factors.CatCPD, bool, error) {
	return c.CACEEstimate(x, y, nil)
}

// CACEEstimate estimates the conditional average causal effect of X on Y
// given Z as P(Y | do(X), Z) by back-door adjustment:
// a minimal adjustment set Z u S containing Z is searched, the engine
// estimates the required conditionals, and S is marginalised out through
// aligned potentials.
func (c *CatCausal) CACEEstimate(x, y, z []int) (*factors.CatCPD, bool, error) {
	x, y, z = sets.New(x...), sets.New(y...), sets.New(z...)
	if err := checkCausalSets(x, y, z); err != nil {
		return nil, false, err
	}

	model := c.engine.Model()
	zS, ok, err := model.Graph().FindMinimalBackdoorSet(x, y, z, nil)
	if err != nil {
		return nil, false, err
	}

	switch {
	case !ok:
		// No adjustment set exists: the effect is unidentifiable.
		return nil, false, nil
	case len(zS) == 0:
		cpd, err := c.engine.Estimate(y, x)
		return cpd, err == nil, err
	case sets.Equal(zS, z):
		cpd, err := c.engine.Estimate(y, sets.Union(x, z))
		return cpd, err == nil, err
	}

	s := sets.Difference(zS, z)

	// Estimate P(Y | X, Z, S) and P(S).
	pYXZS, err := c.engine.Estimate(y, sets.Union(x, zS))
	if err != nil {
		return nil, false, err
	}
	pS, err := c.engine.Estimate(s, nil)
	if err != nil {
		return nil, false, err
	}

	// Lift to aligned potentials and multiply.
	phiYXZS, err := factors.FromCPD(pYXZS)
	if err != nil {
		return nil, false, err
	}
	phiS, err := factors.FromCPD(pS)
	if err != nil {
		return nil, false, err
	}
	product, err := phiYXZS.Mul(phiS)
	if err != nil {
		return nil, false, err
	}

	// Marginalise out S.
	labels := model.Labels()
	sAxes, err := product.IndicesFrom(s, labels)
	if err != nil {
		return nil, false, err
	}
	marginal, err := product.Marginalize(sAxes)
	if err != nil {
		return nil, false, err
	}

	// Convert back to a CPD with response Y and conditioners X u Z.
	yAxes, err := marginal.IndicesFrom(y, labels)
	if err != nil {
		return nil, false, err
	}
	xzAxes, err := marginal.IndicesFrom(sets.Union(x, z), labels)
	if err != nil {
		return nil, false, err
	}
	cpd, err := marginal.ToCPD(yAxes, xzAxes)
	if err != nil {
		return nil, false, err
	}
	return cpd, true, nil
}

// GaussCausal estimates causal effects of a Gaussian Bayesian network
// through an inference engine.
type GaussCausal struct {
	engine *GaussEngine
}

// NewGaussCausal creates a new causal inference engine.
func NewGaussCausal(engine *GaussEngine) *GaussCausal {
	return &GaussCausal{engine: engine}
}

// ACEEstimate estimates the average causal effect of X on Y as
// P(Y | do(X)).
func (c *GaussCausal) ACEEstimate(x, y []int) (*factors.GaussCPD, bool, error) {
	return c.CACEEstimate(x, y, nil)
}

// CACEEstimate estimates the conditional average causal effect of X on Y
// given Z by back-door adjustment. The linear Gaussian family is closed
// under marginalisation, so S integrates out in closed form: the
// response keeps the X u Z coefficients, the intercept absorbs the mean
// of S, and the covariance gains A_S Sigma_S A_S^T.
func (c *GaussCausal) CACEEstimate(x, y, z []int) (*factors.GaussCPD, bool, error) {
	x, y, z = sets.New(x...), sets.New(y...), sets.New(z...)
	if err := checkCausalSets(x, y, z); err != nil {
		return nil, false, err
	}

	model := c.engine.Model()
	zS, ok, err := model.Graph().FindMinimalBackdoorSet(x, y, z, nil)
	if err != nil {
		return nil, false, err
	}

	switch {
	case !ok:
		return nil, false, nil
	case len(zS) == 0:
		cpd, err := c.engine.Estimate(y, x)
		return cpd, err == nil, err
	case sets.Equal(zS, z):
		cpd, err := c.engine.Estimate(y, sets.Union(x, z))
		return cpd, err == nil, err
	}

	s := sets.Difference(zS, z)

	pYXZS, err := c.engine.Estimate(y, sets.Union(x, zS))
	if err != nil {
		return nil, false, err
	}
	pS, err := c.engine.Estimate(s, nil)
	if err != nil {
		return nil, false, err
	}

	cpd, err := marginaliseGaussConditioners(pYXZS, pS)
	if err != nil {
		return nil, false, err
	}
	return cpd, true, nil
}

// marginaliseGaussConditioners integrates the conditioners of cpd that
// pS describes out of the linear Gaussian cpd.
func marginaliseGaussConditioners(cpd, pS *factors.GaussCPD) (*factors.GaussCPD, error) {
	conditioning := cpd.ConditioningLabels()
	sLabels := pS.Labels()

	inS := make([]bool, len(conditioning))
	for i, label := range conditioning {
		for _, sl := range sLabels {
			if label == sl {
				inS[i] = true
			}
		}
	}

	kept := make([]string, 0, len(conditioning))
	keptCols := make([]int, 0, len(conditioning))
	sCols := make([]int, 0, len(sLabels))
	for i, label := range conditioning {
		if inS[i] {
			sCols = append(sCols, i)
		} else {
			kept = append(kept, label)
			keptCols = append(keptCols, i)
		}
	}
	if len(sCols) != len(sLabels) {
		return nil, fmt.Errorf("%w: adjustment labels not in conditioning set", ErrInvalidParameter)
	}

	p := len(cpd.Labels())
	a := cpd.Coefficients()

	// Coefficient block over the kept conditioners.
	var keptA *mat.Dense
	if len(keptCols) > 0 {
		keptA = mat.NewDense(p, len(keptCols), nil)
		for i := 0; i < p; i++ {
			for j, col := range keptCols {
				keptA.Set(i, j, a.At(i, col))
			}
		}
	}

	// Coefficient block over the marginalised conditioners, aligned to
	// the order of pS's labels (both sorted).
	aS := mat.NewDense(p, len(sCols), nil)
	for i := 0; i < p; i++ {
		for j, col := range sCols {
			aS.Set(i, j, a.At(i, col))
		}
	}

	// Intercept absorbs the mean of S.
	meanS := pS.Intercept()
	b := cpd.Intercept()
	for i := 0; i < p; i++ {
		for j := range meanS {
			b[i] += aS.At(i, j) * meanS[j]
		}
	}

	// Covariance gains A_S Sigma_S A_S^T.
	var tmp, extra mat.Dense
	tmp.Mul(aS, pS.Covariance())
	extra.Mul(&tmp, aS.T())
	sigma := mat.NewSymDense(p, nil)
	base := cpd.Covariance()
	for i := 0; i < p; i++ {
		for j := i; j < p; j++ {
			sigma.SetSym(i, j, base.At(i, j)+0.5*(extra.At(i, j)+extra.At(j, i)))
		}
	}

	return factors.NewGaussCPD(cpd.Labels(), kept, keptA, b, sigma)
}
