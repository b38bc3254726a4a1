package estimators

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/JohnPierman/pgmgo/data"
	"github.com/JohnPierman/pgmgo/factors"
	"github.com/JohnPierman/pgmgo/sets"
)

// epsilon floors probabilities before taking logarithms.
const epsilon = math.SmallestNonzeroFloat64

// CatMLE is the maximum-likelihood estimator of categorical CPDs.
type CatMLE struct {
	sse  *CatSSE
	vars []data.Variable
}

// NewCatMLE creates a new maximum-likelihood estimator over a complete
// or weighted categorical table.
func NewCatMLE(dataset CatDataset) *CatMLE {
	return &CatMLE{sse: NewCatSSE(dataset), vars: dataset.Variables()}
}

// Fit estimates the CPD of X given Z by normalising conditional counts.
func (e *CatMLE) Fit(x, z []int) (*factors.CatCPD, error) {
	stats, err := e.sse.Fit(x, z)
	if err != nil {
		return nil, err
	}
	return fitCatCPD(e.vars, sets.New(x...), sets.New(z...), stats, 0)
}

// ParFit is Fit with parallel sufficient-statistics computation.
func (e *CatMLE) ParFit(x, z []int) (*factors.CatCPD, error) {
	stats, err := e.sse.ParFit(x, z)
	if err != nil {
		return nil, err
	}
	return fitCatCPD(e.vars, sets.New(x...), sets.New(z...), stats, 0)
}

// fitCatCPD normalises conditional counts into a CPD, optionally with a
// Dirichlet concentration alpha. The fitted CPD carries the sufficient
// statistics and the sample log-likelihood.
func fitCatCPD(vars []data.Variable, x, z []int, stats *factors.CatCPDStats, alpha float64) (*factors.CatCPD, error) {
	cols := 0
	if len(stats.Counts) > 0 {
		cols = len(stats.Counts[0])
	}

	params := make([][]float64, len(stats.Counts))
	logLik := 0.0
	for r, row := range stats.Counts {
		nZ := 0.0
		for _, c := range row {
			nZ += c
		}
		denominator := nZ + alpha*float64(cols)
		if denominator <= 0 {
			return nil, fmt.Errorf(
				"%w: conditioning configuration %d has no observed mass",
				ErrMissingSufficientStatistics, r,
			)
		}
		out := make([]float64, cols)
		for c, count := range row {
			out[c] = (count + alpha) / denominator
			logLik += count * math.Log(out[c]+epsilon)
		}
		params[r] = out
	}

	return factors.NewCatCPDWithOptionals(
		subsetVariables(vars, x),
		subsetVariables(vars, z),
		params,
		stats,
		&logLik,
	)
}

// GaussMLE is the maximum-likelihood estimator of linear Gaussian CPDs.
type GaussMLE struct {
	sse    *GaussSSE
	labels []string
}

// NewGaussMLE creates a new maximum-likelihood estimator over a complete
// or weighted Gaussian table.
func NewGaussMLE(dataset GaussDataset, opts ...GaussSSEOption) *GaussMLE {
	return &GaussMLE{sse: NewGaussSSE(dataset, opts...), labels: dataset.Labels()}
}

// Fit estimates the linear Gaussian CPD of X given Z in closed form,
// using a pseudo-inverse of the design moment block to tolerate rank
// deficiency.
func (e *GaussMLE) Fit(x, z []int) (*factors.GaussCPD, error) {
	stats, err := e.sse.Fit(x, z)
	if err != nil {
		return nil, err
	}
	return fitGaussCPD(e.labels, sets.New(x...), sets.New(z...), stats)
}

// ParFit is Fit with parallel sufficient-statistics computation.
func (e *GaussMLE) ParFit(x, z []int) (*factors.GaussCPD, error) {
	stats, err := e.sse.ParFit(x, z)
	if err != nil {
		return nil, err
	}
	return fitGaussCPD(e.labels, sets.New(x...), sets.New(z...), stats)
}

func fitGaussCPD(labels []string, x, z []int, stats *factors.GaussStats) (*factors.GaussCPD, error) {
	p, q := len(x), len(z)
	n := stats.N
	if n <= 0 {
		return nil, fmt.Errorf("%w: empty sample", ErrMissingSufficientStatistics)
	}

	var a *mat.Dense
	var b []float64
	sigma := mat.NewDense(p, p, nil)

	if q == 0 {
		b = make([]float64, p)
		copy(b, stats.MuX)
		sigma.Copy(stats.Mxx)
	} else {
		zzPinv := pseudoInverse(stats.Mzz)
		a = mat.NewDense(p, q, nil)
		a.Mul(stats.Mxz, zzPinv)

		b = make([]float64, p)
		for i := 0; i < p; i++ {
			b[i] = stats.MuX[i]
			for j := 0; j < q; j++ {
				b[i] -= a.At(i, j) * stats.MuZ[j]
			}
		}

		var axz mat.Dense
		axz.Mul(a, stats.Mxz.T())
		sigma.Sub(stats.Mxx, &axz)
	}

	// Symmetrise to absorb roundoff.
	sym := mat.NewSymDense(p, nil)
	for i := 0; i < p; i++ {
		for j := i; j < p; j++ {
			sym.SetSym(i, j, 0.5*(sigma.At(i, j)+sigma.At(j, i)))
		}
	}

	// Log-likelihood via the signed log-determinant.
	logDet, _ := mat.LogDet(sym)
	pf := float64(p)
	logLik := -0.5 * n * (pf*math.Log(2*math.Pi) + logDet + pf)

	return factors.NewGaussCPDWithOptionals(
		subsetLabels(labels, x),
		subsetLabels(labels, z),
		a, b, sym,
		stats,
		&logLik,
	)
}

func subsetLabels(labels []string, x []int) []string {
	out := make([]string, len(x))
	for i, c := range x {
		out[i] = labels[c]
	}
	return out
}

// pseudoInverse computes the Moore-Penrose pseudo-inverse via SVD,
// dropping singular values below a relative tolerance.
func pseudoInverse(a *mat.Dense) *mat.Dense {
	rows, cols := a.Dims()

	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDThin) {
		// A failed factorisation leaves no better option than zeroes.
		return mat.NewDense(cols, rows, nil)
	}

	values := svd.Values(nil)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	maxValue := 0.0
	for _, s := range values {
		if s > maxValue {
			maxValue = s
		}
	}
	tolerance := float64(maxInt(rows, cols)) * maxValue * 2.220446049250313e-16

	inverted := mat.NewDense(len(values), len(values), nil)
	for i, s := range values {
		if s > tolerance {
			inverted.Set(i, i, 1/s)
		}
	}

	var tmp, out mat.Dense
	tmp.Mul(&v, inverted)
	out.Mul(&tmp, u.T())
	result := mat.NewDense(cols, rows, nil)
	result.Copy(&out)
	return result
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// TrjMLE is the maximum-likelihood estimator of conditional intensity
// matrices.
type TrjMLE struct {
	sse  *TrjSSE
	vars []data.Variable
}

// NewTrjMLE creates a new maximum-likelihood estimator over a single
// trajectory.
func NewTrjMLE(trj *data.CatTrj) *TrjMLE {
	return &TrjMLE{sse: NewTrjSSE(trj), vars: trj.Variables()}
}

// NewTrjsMLE creates a new maximum-likelihood estimator over a
// trajectory collection.
func NewTrjsMLE(trjs *data.CatTrjs) *TrjMLE {
	return &TrjMLE{sse: NewTrjsSSE(trjs), vars: trjs.Variables()}
}

// Fit estimates the CIM of X given Z from transition counts and dwell
// times.
func (e *TrjMLE) Fit(x, z []int) (*factors.CatCIM, error) {
	stats, err := e.sse.Fit(x, z)
	if err != nil {
		return nil, err
	}
	return fitCatCIM(e.vars, sets.New(x...), sets.New(z...), stats, 0, 0)
}

// ParFit is Fit with parallel sufficient-statistics computation.
func (e *TrjMLE) ParFit(x, z []int) (*factors.CatCIM, error) {
	stats, err := e.sse.ParFit(x, z)
	if err != nil {
		return nil, err
	}
	return fitCatCIM(e.vars, sets.New(x...), sets.New(z...), stats, 0, 0)
}

// fitCatCIM normalises counts by dwell times into a generator matrix,
// optionally with pseudo-counts alpha and pseudo-time tau. The fitted
// CIM carries the sufficient statistics and the sample log-likelihood.
func fitCatCIM(vars []data.Variable, x, z []int, stats *factors.CatCIMStats, alpha, tau float64) (*factors.CatCIM, error) {
	if len(x) != 1 {
		return nil, fmt.Errorf(
			"%w: a conditional intensity matrix conditions exactly one variable, got %d",
			ErrInvalidParameter, len(x),
		)
	}

	bigK := len(stats.Counts)
	k := 0
	if bigK > 0 {
		k = len(stats.Times[0])
	}

	params := make([][][]float64, bigK)
	for zi := 0; zi < bigK; zi++ {
		params[zi] = make([][]float64, k)
		for i := 0; i < k; i++ {
			t := stats.Times[zi][i] + tau
			if t <= 0 {
				return nil, fmt.Errorf(
					"%w: no dwell time for configuration %d state %d",
					ErrMissingSufficientStatistics, zi, i,
				)
			}
			row := make([]float64, k)
			sum := 0.0
			for j := 0; j < k; j++ {
				if i == j {
					continue
				}
				row[j] = (stats.Counts[zi][i][j] + alpha) / t
				sum += row[j]
			}
			row[i] = -sum
			params[zi][i] = row
		}
	}

	// Log-likelihood decomposes into the exit-rate and the embedded
	// transition terms.
	logLik := 0.0
	for zi := 0; zi < bigK; zi++ {
		for i := 0; i < k; i++ {
			exitRate := -params[zi][i][i]
			countSum := 0.0
			for j := 0; j < k; j++ {
				countSum += stats.Counts[zi][i][j]
			}
			logLik += countSum*math.Log(exitRate+epsilon) - exitRate*stats.Times[zi][i]
			if countSum == 0 || exitRate == 0 {
				continue
			}
			for j := 0; j < k; j++ {
				if i == j {
					continue
				}
				logLik += stats.Counts[zi][i][j] * math.Log(params[zi][i][j]/exitRate+epsilon)
			}
		}
	}

	response := subsetVariables(vars, x)[0]
	return factors.NewCatCIMWithOptionals(
		response,
		subsetVariables(vars, z),
		params,
		stats,
		&logLik,
	)
}
