package factors

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

// GaussStats holds the sufficient statistics of a Gaussian conditional
// distribution: response and design means, centred second-moment blocks
// normalised by the sample size, and the sample size itself.
type GaussStats struct {
	// MuX is the response mean vector of length |X|.
	MuX []float64
	// MuZ is the design mean vector of length |Z|.
	MuZ []float64
	// Mxx is the |X| x |X| response covariance block.
	Mxx *mat.Dense
	// Mxz is the |X| x |Z| cross covariance block.
	Mxz *mat.Dense
	// Mzz is the |Z| x |Z| design covariance block.
	Mzz *mat.Dense
	// N is the sample size.
	N float64
}

// NewGaussStats creates zeroed statistics for |X| = p and |Z| = q.
func NewGaussStats(p, q int) *GaussStats {
	return &GaussStats{
		MuX: make([]float64, p),
		MuZ: make([]float64, q),
		Mxx: zeroDense(p, p),
		Mxz: zeroDense(p, q),
		Mzz: zeroDense(q, q),
	}
}

func zeroDense(r, c int) *mat.Dense {
	if r == 0 || c == 0 {
		return nil
	}
	return mat.NewDense(r, c, nil)
}

// Add combines two statistics with the Chan update: means are weighted
// averages and second moments gain the centering contribution
// (n_a n_b / n^2) (mu_a - mu_b)(mu_a - mu_b)^T. The combine is
// associative up to floating-point roundoff, so any chunking of the rows
// yields the same result within tolerance.
func (s *GaussStats) Add(other *GaussStats) error {
	if len(s.MuX) != len(other.MuX) || len(s.MuZ) != len(other.MuZ) {
		return fmt.Errorf(
			"%w: |X| %d vs %d, |Z| %d vs %d",
			ErrIncompatibleShape, len(s.MuX), len(other.MuX), len(s.MuZ), len(other.MuZ),
		)
	}
	if other.N == 0 {
		return nil
	}
	if s.N == 0 {
		s.MuX = cloneVector(other.MuX)
		s.MuZ = cloneVector(other.MuZ)
		s.Mxx = cloneDense(other.Mxx)
		s.Mxz = cloneDense(other.Mxz)
		s.Mzz = cloneDense(other.Mzz)
		s.N = other.N
		return nil
	}

	n := s.N + other.N
	scale := s.N * other.N / (n * n)

	dx := vectorDiff(s.MuX, other.MuX)
	dz := vectorDiff(s.MuZ, other.MuZ)

	combineBlock(s.Mxx, other.Mxx, s.N, other.N, n, scale, dx, dx)
	combineBlock(s.Mxz, other.Mxz, s.N, other.N, n, scale, dx, dz)
	combineBlock(s.Mzz, other.Mzz, s.N, other.N, n, scale, dz, dz)

	for i := range s.MuX {
		s.MuX[i] = (s.N*s.MuX[i] + other.N*other.MuX[i]) / n
	}
	for i := range s.MuZ {
		s.MuZ[i] = (s.N*s.MuZ[i] + other.N*other.MuZ[i]) / n
	}
	s.N = n
	return nil
}

func combineBlock(a, b *mat.Dense, na, nb, n, scale float64, left, right []float64) {
	if a == nil {
		return
	}
	rows, cols := a.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := (na*a.At(i, j) + nb*b.At(i, j)) / n
			a.Set(i, j, v+scale*left[i]*right[j])
		}
	}
}

func cloneVector(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}

func cloneDense(m *mat.Dense) *mat.Dense {
	if m == nil {
		return nil
	}
	out := &mat.Dense{}
	out.CloneFrom(m)
	return out
}

func vectorDiff(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out
}

// SampleSize returns the sample size.
func (s *GaussStats) SampleSize() float64 {
	return s.N
}

// GaussCPD represents a linear Gaussian conditional distribution: the
// response given the conditioners has mean A z + b and covariance Sigma.
type GaussCPD struct {
	labels       []string
	conditioning []string
	a            *mat.Dense
	b            []float64
	sigma        *mat.SymDense

	stats  *GaussStats
	logLik *float64
}

// NewGaussCPD creates a new linear Gaussian CPD. A is |X| x |Z|, b has
// length |X| and sigma is the |X| x |X| response covariance.
func NewGaussCPD(labels, conditioning []string, a *mat.Dense, b []float64, sigma *mat.SymDense) (*GaussCPD, error) {
	return NewGaussCPDWithOptionals(labels, conditioning, a, b, sigma, nil, nil)
}

// NewGaussCPDWithOptionals creates a new linear Gaussian CPD carrying
// optional sample statistics and sample log-likelihood.
func NewGaussCPDWithOptionals(
	labels, conditioning []string,
	a *mat.Dense,
	b []float64,
	sigma *mat.SymDense,
	stats *GaussStats,
	logLik *float64,
) (*GaussCPD, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("%w: response", ErrEmptySet)
	}
	sortedX, permX, err := sortedLabelPerm(labels)
	if err != nil {
		return nil, err
	}
	sortedZ, permZ, err := sortedLabelPerm(conditioning)
	if err != nil {
		return nil, err
	}
	for _, x := range sortedX {
		for _, z := range sortedZ {
			if x == z {
				return nil, fmt.Errorf("%w: %q", ErrSetsNotDisjoint, x)
			}
		}
	}

	p, q := len(sortedX), len(sortedZ)
	if len(b) != p {
		return nil, fmt.Errorf("%w: intercept length %d for %d responses", ErrIncompatibleShape, len(b), p)
	}
	if sigma == nil || sigma.SymmetricDim() != p {
		return nil, fmt.Errorf("%w: covariance must be %d x %d", ErrIncompatibleShape, p, p)
	}
	if q > 0 {
		if a == nil {
			return nil, fmt.Errorf("%w: nil coefficient matrix", ErrIncompatibleShape)
		}
		ar, ac := a.Dims()
		if ar != p || ac != q {
			return nil, fmt.Errorf(
				"%w: coefficient matrix is %d x %d, expected %d x %d",
				ErrIncompatibleShape, ar, ac, p, q,
			)
		}
	}

	// Permute rows/columns into sorted label order.
	outB := make([]float64, p)
	outSigma := mat.NewSymDense(p, nil)
	var outA *mat.Dense
	if q > 0 {
		outA = mat.NewDense(p, q, nil)
	}
	for i := 0; i < p; i++ {
		outB[i] = b[permX[i]]
		for j := 0; j < p; j++ {
			outSigma.SetSym(i, j, sigma.At(permX[i], permX[j]))
		}
		for j := 0; j < q; j++ {
			outA.Set(i, j, a.At(permX[i], permZ[j]))
		}
	}
	// Tolerate a vanishing negative diagonal from roundoff.
	for i := 0; i < p; i++ {
		if outSigma.At(i, i) < -1e-9 {
			return nil, fmt.Errorf(
				"%w: negative variance %g", ErrInvalidParameter, outSigma.At(i, i),
			)
		}
		if outSigma.At(i, i) < 0 {
			outSigma.SetSym(i, i, 0)
		}
	}

	return &GaussCPD{
		labels:       sortedX,
		conditioning: sortedZ,
		a:            outA,
		b:            outB,
		sigma:        outSigma,
		stats:        stats,
		logLik:       logLik,
	}, nil
}

func sortedLabelPerm(labels []string) ([]string, []int, error) {
	perm := make([]int, len(labels))
	for i := range perm {
		perm[i] = i
	}
	sort.Slice(perm, func(a, b int) bool { return labels[perm[a]] < labels[perm[b]] })
	sorted := make([]string, len(labels))
	for i, p := range perm {
		sorted[i] = labels[p]
		if i > 0 && sorted[i-1] == sorted[i] {
			return nil, nil, fmt.Errorf("%w: duplicate label %q", ErrInvalidParameter, sorted[i])
		}
	}
	return sorted, perm, nil
}

// Labels returns the response labels.
func (c *GaussCPD) Labels() []string {
	return cloneLabels(c.labels)
}

// ConditioningLabels returns the conditioning labels.
func (c *GaussCPD) ConditioningLabels() []string {
	return cloneLabels(c.conditioning)
}

func cloneLabels(labels []string) []string {
	out := make([]string, len(labels))
	copy(out, labels)
	return out
}

// Coefficients returns the |X| x |Z| coefficient matrix, nil when there
// are no conditioners.
func (c *GaussCPD) Coefficients() *mat.Dense {
	return c.a
}

// Intercept returns the intercept vector.
func (c *GaussCPD) Intercept() []float64 {
	return cloneVector(c.b)
}

// Covariance returns the response covariance matrix.
func (c *GaussCPD) Covariance() *mat.SymDense {
	return c.sigma
}

// SampleStatistics returns the sufficient statistics the CPD was fitted
// from, or nil.
func (c *GaussCPD) SampleStatistics() *GaussStats {
	return c.stats
}

// SampleLogLikelihood returns the log-likelihood of the fitting sample,
// or an error when the CPD was not fitted.
func (c *GaussCPD) SampleLogLikelihood() (float64, error) {
	if c.logLik == nil {
		return 0, ErrMissingStatistics
	}
	return *c.logLik, nil
}

// StatisticsSampleSize returns the sample size of the fitting sample,
// or an error when the CPD was not fitted.
func (c *GaussCPD) StatisticsSampleSize() (float64, error) {
	if c.stats == nil {
		return 0, ErrMissingStatistics
	}
	return c.stats.N, nil
}

// ParametersSize returns the number of free parameters:
// |X|*|Z| + |X| + |X|(|X|+1)/2.
func (c *GaussCPD) ParametersSize() int {
	p, q := len(c.labels), len(c.conditioning)
	return p*q + p + p*(p+1)/2
}

// Mean returns A z + b for the conditioning values z.
func (c *GaussCPD) Mean(z []float64) ([]float64, error) {
	if len(z) != len(c.conditioning) {
		return nil, fmt.Errorf(
			"%w: %d conditioning values for %d conditioners",
			ErrIncompatibleShape, len(z), len(c.conditioning),
		)
	}
	mean := cloneVector(c.b)
	for i := range mean {
		for j := range z {
			mean[i] += c.a.At(i, j) * z[j]
		}
	}
	return mean, nil
}

// Sample draws the response values given the conditioning values using
// a Cholesky root of the covariance. A semi-definite covariance is
// regularised with a vanishing diagonal jitter.
func (c *GaussCPD) Sample(r *rand.Rand, z []float64) ([]float64, error) {
	mean, err := c.Mean(z)
	if err != nil {
		return nil, err
	}

	normal, ok := distmv.NewNormal(mean, c.sigma, r)
	if !ok {
		p := len(c.labels)
		jittered := mat.NewSymDense(p, nil)
		jittered.CopySym(c.sigma)
		for i := 0; i < p; i++ {
			jittered.SetSym(i, i, jittered.At(i, i)+1e-12)
		}
		normal, ok = distmv.NewNormal(mean, jittered, r)
		if !ok {
			return nil, fmt.Errorf("%w: covariance is not positive semi-definite", ErrInvalidParameter)
		}
	}
	out := make([]float64, len(mean))
	normal.Rand(out)
	if hasNaN(out) {
		return nil, fmt.Errorf("%w: sampled NaN response", ErrInvalidParameter)
	}
	return out, nil
}

func hasNaN(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) {
			return true
		}
	}
	return false
}
