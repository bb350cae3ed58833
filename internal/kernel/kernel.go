// Package kernel implements closed-form integrals of the squared-exponential
// correlation exp(-beta*d^2) over a box [lo, hi] in each input dimension.
//
// All functions are pure. Dimensions are integrated independently and
// combined by products, which is what makes the box integrals separable.
package kernel

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/san-kum/gpsens/internal/distcov"
	"github.com/san-kum/gpsens/internal/gp"
)

// Calc1 returns, per dimension, the double integral of exp(-beta*(s-t)^2)
// over the box divided by diff^2:
//
//	(sqrt(pi/b)*d*(2*Phi(sqrt(2b)*d)-1) - (1/b)*(1-sqrt(2pi)*phi(sqrt(2b)*d))) / d^2
//
// It is evaluated as (sqrt(pi/b)*d*erf(sqrt(b)*d) + expm1(-b*d^2)/b) / d^2,
// the same expression without cancellation as beta goes to zero.
func Calc1(beta, diff []float64) []float64 {
	c1 := make([]float64, len(beta))
	for k, b := range beta {
		d := diff[k]
		c1[k] = (math.Sqrt(math.Pi/b)*d*math.Erf(math.Sqrt(b)*d) + math.Expm1(-b*d*d)/b) / (d * d)
	}
	return c1
}

// Calc3 returns, per dimension, the integral of exp(-beta*(s-x)^2) over
// [lo, hi] divided by diff.
func Calc3(x []float64, rg [][2]float64, beta, diff []float64) []float64 {
	c3 := make([]float64, len(beta))
	for k, b := range beta {
		s := math.Sqrt(2 * b)
		hi := distuv.UnitNormal.CDF(s * (rg[k][1] - x[k]))
		lo := distuv.UnitNormal.CDF(s * (rg[k][0] - x[k]))
		c3[k] = math.Sqrt(math.Pi/b) * (hi - lo) / diff[k]
	}
	return c3
}

// PairTable holds, per dimension, the box integral of the product of the
// correlations with two sample points, for every unordered pair of samples
// and for every sample with itself.
type PairTable struct {
	m, p int
	pair []float64
	self []float64
}

// Pair returns the row for pair k in upper-triangle order.
func (t *PairTable) Pair(k int) []float64 { return t.pair[k*t.p : (k+1)*t.p] }

// Self returns the row for sample i paired with itself.
func (t *PairTable) Self(i int) []float64 { return t.self[i*t.p : (i+1)*t.p] }

// Between returns the row for samples i and j in either order.
func (t *PairTable) Between(i, j int) []float64 {
	switch {
	case i == j:
		return t.Self(i)
	case i > j:
		i, j = j, i
	}
	return t.Pair(distcov.PairIndex(t.m, i, j))
}

func (t *PairTable) Samples() int { return t.m }

func (t *PairTable) Inputs() int { return t.p }

// Calc2 builds the PairTable for samples x. For a pair the integrand
// exp(-b(s-xi)^2)*exp(-b(s-xj)^2) equals exp(-2b(s-mid)^2)*exp(-b(xi-xj)^2/2).
func Calc2(x mat.Matrix, xdist *distcov.DistCov, rg [][2]float64, beta, diff []float64) (*PairTable, error) {
	m, p := x.Dims()
	if xdist.Rows() != m || xdist.Inputs() != p || xdist.Pairs() != m*(m-1)/2 {
		return nil, gp.Mismatch("distances for %d points in %d dims do not match samples %dx%d",
			xdist.Rows(), xdist.Inputs(), m, p)
	}
	if len(beta) != p || len(diff) != p || len(rg) != p {
		return nil, gp.Mismatch("beta %d, diff %d, ranges %d for %d inputs", len(beta), len(diff), len(rg), p)
	}

	beta2 := make([]float64, p)
	for k, b := range beta {
		beta2[k] = 2 * b
	}

	t := &PairTable{
		m:    m,
		p:    p,
		pair: make([]float64, 0, xdist.Pairs()*p),
		self: make([]float64, 0, m*p),
	}
	mid := make([]float64, p)
	for k := 0; k < xdist.Pairs(); k++ {
		i, j := xdist.Pair(k)
		for d := 0; d < p; d++ {
			mid[d] = (x.At(i, d) + x.At(j, d)) / 2
		}
		c3 := Calc3(mid, rg, beta2, diff)
		for d := 0; d < p; d++ {
			c3[d] *= math.Exp(-beta[d] * xdist.SqDist(k, d) / 2)
		}
		t.pair = append(t.pair, c3...)
	}
	xi := make([]float64, p)
	for i := 0; i < m; i++ {
		mat.Row(xi, i, x)
		t.self = append(t.self, Calc3(xi, rg, beta2, diff)...)
	}
	return t, nil
}

// Varf assembles the m x m matrix whose (i, j) entry is the product over js
// of the PairTable entries times ef[i]*ef[j]. The ef factor is omitted when
// js covers every dimension and the PairTable factor is omitted when js is
// empty.
func Varf(m, p int, js []int, c2 *PairTable, ef []float64) *mat.SymDense {
	useEf := len(Complement(p, js)) != 0
	vf := mat.NewSymDense(m, nil)
	for i := 0; i < m; i++ {
		for j := i; j < m; j++ {
			v := 1.0
			if len(js) != 0 {
				v = Prod(c2.Between(i, j), js)
			}
			if useEf {
				v *= ef[i] * ef[j]
			}
			vf.SetSym(i, j, v)
		}
	}
	return vf
}

// Complement returns the dimensions of [0, p) not in js, in increasing order.
func Complement(p int, js []int) []int {
	in := make([]bool, p)
	for _, j := range js {
		if j >= 0 && j < p {
			in[j] = true
		}
	}
	out := make([]int, 0, p)
	for k := 0; k < p; k++ {
		if !in[k] {
			out = append(out, k)
		}
	}
	return out
}

// Prod multiplies v over idx; the empty product is 1.
func Prod(v []float64, idx []int) float64 {
	r := 1.0
	for _, k := range idx {
		r *= v[k]
	}
	return r
}

// RowProd returns, for each row of a, the product of its entries in idx.
func RowProd(a [][]float64, idx []int) []float64 {
	out := make([]float64, len(a))
	for i, row := range a {
		out[i] = Prod(row, idx)
	}
	return out
}
