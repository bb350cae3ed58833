package sens

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/gpsens/internal/distcov"
	"github.com/san-kum/gpsens/internal/gp"
	"github.com/san-kum/gpsens/internal/kernel"
)

// ComponentResult holds the per-draw, unscaled sensitivity quantities of one
// basis component. Outer slices are indexed by draw.
type ComponentResult struct {
	E0   []float64     `json:"e0"`
	Vt   []float64     `json:"vt"`
	Sme  [][]float64   `json:"sme"`
	Ste  [][]float64   `json:"ste"`
	MefM [][][]float64 `json:"mef_m"` // draw x input x grid
	MefV [][][]float64 `json:"mef_v"`

	Sie  [][]float64     `json:"sie,omitempty"`
	JefM [][][][]float64 `json:"jef_m,omitempty"` // draw x pair x grid x grid
	JefV [][][][]float64 `json:"jef_v,omitempty"`
	Sje  [][]float64     `json:"sje,omitempty"`
}

// componentInput is everything one basis component needs, already restricted
// to the active inputs.
type componentInput struct {
	x     *mat.Dense
	y     []float64
	beta  [][]float64
	lamUz []float64
	lamWs []float64

	ranges    [][2]float64
	diff      []float64
	cache     *distcov.Cache
	pairs     [][2]int
	jointSets [][]int
	ngrid     int
}

type drawResult struct {
	e0, vt     float64
	sme, ste   []float64
	mefM, mefV [][]float64
	sie, sje   []float64
	jefM, jefV [][][]float64
}

// draw evaluates every index and effect function for posterior draw d.
func (in *componentInput) draw(d int) (drawResult, error) {
	beta, lamUz, lamWs := in.beta[d], in.lamUz[d], in.lamWs[d]
	m, p := in.x.Dims()

	s, err := in.cache.X.Cov(beta, lamUz, lamWs)
	if err != nil {
		return drawResult{}, err
	}
	var chol mat.Cholesky
	if !chol.Factorize(s) {
		return drawResult{}, fmt.Errorf("%w: covariance not positive definite (lamUz=%g, lamWs=%g)",
			gp.ErrNumericalInstability, lamUz, lamWs)
	}
	prec := mat.NewSymDense(m, nil)
	if err := tolerate(chol.InverseTo(prec)); err != nil {
		return drawResult{}, fmt.Errorf("%w: %v", gp.ErrNumericalInstability, err)
	}
	my := mat.NewVecDense(m, nil)
	if err := tolerate(chol.SolveVecTo(my, mat.NewVecDense(m, in.y))); err != nil {
		return drawResult{}, fmt.Errorf("%w: %v", gp.ErrNumericalInstability, err)
	}
	q := mat.NewSymDense(m, nil)
	q.SymRankOne(prec, -1, my)

	c1 := kernel.Calc1(beta, in.diff)
	c2, err := kernel.Calc2(in.x, in.cache.X, in.ranges, beta, in.diff)
	if err != nil {
		return drawResult{}, err
	}
	c3 := make([][]float64, m)
	xi := make([]float64, p)
	for i := range c3 {
		mat.Row(xi, i, in.x)
		c3[i] = kernel.Calc3(xi, in.ranges, beta, in.diff)
	}

	lz2 := lamUz * lamUz
	all := kernel.Complement(p, nil)
	u2 := kernel.RowProd(c3, all)
	e2 := kernel.Prod(c1, all)/lamUz - traceProd(q, kernel.Varf(m, p, nil, c2, u2))/lz2
	r := drawResult{
		e0:   mat.Dot(mat.NewVecDense(m, u2), my) / lamUz,
		vt:   1/lamUz - traceProd(q, kernel.Varf(m, p, all, c2, nil))/lz2 - e2,
		sme:  make([]float64, p),
		ste:  make([]float64, p),
		mefM: make([][]float64, p),
		mefV: make([][]float64, p),
	}

	// variance explained by a set of inputs, before normalising by vt. Pair
	// and joint sets use the matrix-product trace tr(Q*Vf) like main and
	// total sets do; the diagonal-only sum of Q∘Vf would differ for them.
	explained := func(js []int) float64 {
		rest := kernel.Complement(p, js)
		ef := kernel.RowProd(c3, rest)
		return kernel.Prod(c1, rest)/lamUz - traceProd(q, kernel.Varf(m, p, js, c2, ef))/lz2 - e2
	}

	for k := 0; k < p; k++ {
		js := []int{k}
		r.sme[k] = explained(js) / r.vt

		rest := kernel.Complement(p, js)
		ef := kernel.RowProd(c3, rest)
		r.mefM[k], r.mefV[k], err = etae(in.cache.GridX[k], in.cache.Grid[k], pick(beta, js), lamUz, lamWs,
			ef, kernel.Prod(c1, rest), my, prec)
		if err != nil {
			return drawResult{}, err
		}

		r.ste[k] = 1 - explained(rest)/r.vt
	}

	if len(in.pairs) > 0 {
		r.sie = make([]float64, len(in.pairs))
		r.jefM = make([][][]float64, len(in.pairs))
		r.jefV = make([][][]float64, len(in.pairs))
	}
	for kk, pr := range in.pairs {
		js := pr[:]
		r.sie[kk] = explained(js)/r.vt - r.sme[pr[0]] - r.sme[pr[1]]

		rest := kernel.Complement(p, js)
		ef := kernel.RowProd(c3, rest)
		mean, v, err := etae(in.cache.PairGridX[kk], in.cache.PairGrid[kk], pick(beta, js), lamUz, lamWs,
			ef, kernel.Prod(c1, rest), my, prec)
		if err != nil {
			return drawResult{}, err
		}
		r.jefM[kk] = square(mean, in.ngrid)
		r.jefV[kk] = square(v, in.ngrid)
	}

	if len(in.jointSets) > 0 {
		r.sje = make([]float64, len(in.jointSets))
	}
	for kk, js := range in.jointSets {
		r.sje[kk] = explained(js) / r.vt
	}
	return r, nil
}

// etae evaluates the posterior mean and variance of the effect function of
// the inputs behind xex at every grid point. ef carries the per-sample
// integral over the remaining inputs and vf its sample-free counterpart.
func etae(xex, xe *distcov.DistCov, beta []float64, lamUz, lamWs float64, ef []float64, vf float64,
	my *mat.VecDense, prec *mat.SymDense) (mean, variance []float64, err error) {
	ct, err := xex.CrossCov(beta, lamUz)
	if err != nil {
		return nil, nil, err
	}
	n, m := ct.Dims()
	if len(ef) != m || xe.Rows() != n {
		return nil, nil, gp.Mismatch("effect grid %d points, samples %d, factors %d", xe.Rows(), m, len(ef))
	}
	for i := 0; i < n; i++ {
		row := ct.RawRowView(i)
		for j := range row {
			row[j] *= ef[j]
		}
	}

	mv := mat.NewVecDense(n, nil)
	mv.MulVec(ct, my)
	var ctp mat.Dense
	ctp.Mul(ct, prec)

	diag := xe.CovDiag(lamUz, lamWs)
	variance = make([]float64, n)
	for i := range variance {
		variance[i] = diag[i]*vf - dot(ctp.RawRowView(i), ct.RawRowView(i))
	}
	return mv.RawVector().Data, variance, nil
}

// traceProd returns tr(a*b) for symmetric a and b.
func traceProd(a, b *mat.SymDense) float64 {
	n := a.SymmetricDim()
	s := 0.0
	for i := 0; i < n; i++ {
		s += a.At(i, i) * b.At(i, i)
		for j := i + 1; j < n; j++ {
			s += 2 * a.At(i, j) * b.At(i, j)
		}
	}
	return s
}

// tolerate accepts ill-conditioning reports; the factorization still
// produced a result.
func tolerate(err error) error {
	var cond mat.Condition
	if errors.As(err, &cond) {
		return nil
	}
	return err
}

func pick(v []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, k := range idx {
		out[i] = v[k]
	}
	return out
}

// square reshapes a row-major n*n vector into n rows.
func square(v []float64, n int) [][]float64 {
	out := make([][]float64, n)
	for a := range out {
		out[a] = v[a*n : (a+1)*n]
	}
	return out
}

func dot(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

// collect gathers the per-draw results of one component into slices indexed
// by draw.
func collect(draws []drawResult) ComponentResult {
	n := len(draws)
	c := ComponentResult{
		E0:   make([]float64, n),
		Vt:   make([]float64, n),
		Sme:  make([][]float64, n),
		Ste:  make([][]float64, n),
		MefM: make([][][]float64, n),
		MefV: make([][][]float64, n),
	}
	for d, r := range draws {
		c.E0[d] = r.e0
		c.Vt[d] = r.vt
		c.Sme[d] = r.sme
		c.Ste[d] = r.ste
		c.MefM[d] = r.mefM
		c.MefV[d] = r.mefV
		if r.sie != nil {
			c.Sie = append(c.Sie, r.sie)
			c.JefM = append(c.JefM, r.jefM)
			c.JefV = append(c.JefV, r.jefV)
		}
		if r.sje != nil {
			c.Sje = append(c.Sje, r.sje)
		}
	}
	return c
}
