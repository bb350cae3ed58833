package distcov

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/gpsens/internal/gp"
)

type kind int

const (
	self kind = iota + 1
	cross
)

// DistCov holds per-dimension squared distances between point sets.
//
// A self DistCov stores the upper triangle (i < j) of one point set in
// row-major pair order. A cross DistCov stores every (i, j) pair between two
// point sets, row-major over i. Categorical dimensions store 0/1 mismatch
// indicators instead of squared differences.
type DistCov struct {
	kind   kind
	m, n   int
	p      int
	ind0   []int
	ind1   []int
	sqdist []float64 // len(ind0) x p, row-major
}

// NewSelf computes the upper-triangle distances of x.
func NewSelf(x mat.Matrix, cat []bool) (*DistCov, error) {
	m, p := x.Dims()
	if cat == nil {
		cat = make([]bool, p)
	}
	if len(cat) != p {
		return nil, gp.Mismatch("categorical flags %d, inputs %d", len(cat), p)
	}
	npair := m * (m - 1) / 2
	d := &DistCov{
		kind:   self,
		m:      m,
		n:      m,
		p:      p,
		ind0:   make([]int, 0, npair),
		ind1:   make([]int, 0, npair),
		sqdist: make([]float64, 0, npair*p),
	}
	for i := 0; i < m; i++ {
		for j := i + 1; j < m; j++ {
			d.ind0 = append(d.ind0, i)
			d.ind1 = append(d.ind1, j)
			for k := 0; k < p; k++ {
				d.sqdist = append(d.sqdist, sqdist(x.At(i, k), x.At(j, k), cat[k]))
			}
		}
	}
	return d, nil
}

// NewCross computes distances between every row of x1 and every row of x2.
func NewCross(x1, x2 mat.Matrix, cat []bool) (*DistCov, error) {
	m, p := x1.Dims()
	n, p2 := x2.Dims()
	if p != p2 {
		return nil, gp.Mismatch("cross distance inputs have %d and %d columns", p, p2)
	}
	if cat == nil {
		cat = make([]bool, p)
	}
	if len(cat) != p {
		return nil, gp.Mismatch("categorical flags %d, inputs %d", len(cat), p)
	}
	d := &DistCov{
		kind:   cross,
		m:      m,
		n:      n,
		p:      p,
		ind0:   make([]int, 0, m*n),
		ind1:   make([]int, 0, m*n),
		sqdist: make([]float64, 0, m*n*p),
	}
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			d.ind0 = append(d.ind0, i)
			d.ind1 = append(d.ind1, j)
			for k := 0; k < p; k++ {
				d.sqdist = append(d.sqdist, sqdist(x1.At(i, k), x2.At(j, k), cat[k]))
			}
		}
	}
	return d, nil
}

func sqdist(a, b float64, categorical bool) float64 {
	if categorical {
		if a != b {
			return 1
		}
		return 0
	}
	return (a - b) * (a - b)
}

// Rows is the number of points in the first set.
func (d *DistCov) Rows() int { return d.m }

// Cols is the number of points in the second set (equal to Rows for self).
func (d *DistCov) Cols() int { return d.n }

func (d *DistCov) Inputs() int { return d.p }

func (d *DistCov) Pairs() int { return len(d.ind0) }

// Pair returns the point indices of pair k.
func (d *DistCov) Pair(k int) (i, j int) { return d.ind0[k], d.ind1[k] }

// SqDist returns the squared distance of pair k in dimension dim.
func (d *DistCov) SqDist(k, dim int) float64 { return d.sqdist[k*d.p+dim] }

// PairIndex returns the upper-triangle position of pair (i, j), i < j, in a
// self DistCov over m points.
func PairIndex(m, i, j int) int {
	return i*m - i*(i+1)/2 + (j - i - 1)
}

func (d *DistCov) weighted(k int, beta []float64) float64 {
	s := 0.0
	row := d.sqdist[k*d.p : (k+1)*d.p]
	for dim, v := range row {
		s += beta[dim] * v
	}
	return s
}

// Cov builds the self covariance exp(-sum beta*d^2)/lamz with 1/lamz + 1/lamws
// on the diagonal. A non-positive or infinite lamws adds no nugget.
func (d *DistCov) Cov(beta []float64, lamz, lamws float64) (*mat.SymDense, error) {
	if d.kind != self {
		return nil, gp.Mismatch("Cov requires a self distance set")
	}
	if len(beta) != d.p {
		return nil, gp.Mismatch("beta has %d entries, inputs %d", len(beta), d.p)
	}
	c := mat.NewSymDense(d.m, nil)
	for k := range d.ind0 {
		c.SetSym(d.ind0[k], d.ind1[k], math.Exp(-d.weighted(k, beta))/lamz)
	}
	diag := d.CovDiag(lamz, lamws)
	for i, v := range diag {
		c.SetSym(i, i, v)
	}
	return c, nil
}

// CovDiag returns the diagonal of the self covariance, which does not depend
// on the correlation parameters.
func (d *DistCov) CovDiag(lamz, lamws float64) []float64 {
	v := 1 / lamz
	if lamws > 0 && !math.IsInf(lamws, 1) {
		v += 1 / lamws
	}
	diag := make([]float64, d.m)
	for i := range diag {
		diag[i] = v
	}
	return diag
}

// CrossCov builds the m x n cross covariance exp(-sum beta*d^2)/lamz.
func (d *DistCov) CrossCov(beta []float64, lamz float64) (*mat.Dense, error) {
	if d.kind != cross {
		return nil, gp.Mismatch("CrossCov requires a cross distance set")
	}
	if len(beta) != d.p {
		return nil, gp.Mismatch("beta has %d entries, inputs %d", len(beta), d.p)
	}
	c := mat.NewDense(d.m, d.n, nil)
	for k := range d.ind0 {
		c.Set(d.ind0[k], d.ind1[k], math.Exp(-d.weighted(k, beta))/lamz)
	}
	return c, nil
}
