// Package simdata prepares simulation runs for emulation: it maps inputs to
// the unit hypercube, standardizes outputs, builds a principal-component
// output basis and projects the outputs onto it.
package simdata

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/gpsens/internal/gp"
)

// Scale selects how standardized outputs are divided.
type Scale int

const (
	// ScaleScalar divides by one standard deviation over all outputs.
	ScaleScalar Scale = iota
	// ScaleColumnwise divides each output by its own standard deviation.
	ScaleColumnwise
	// ScaleNone leaves outputs unscaled.
	ScaleNone
)

func (s Scale) String() string {
	switch s {
	case ScaleScalar:
		return "scalar"
	case ScaleColumnwise:
		return "columnwise"
	case ScaleNone:
		return "none"
	default:
		return fmt.Sprintf("Scale(%d)", int(s))
	}
}

// ParseScale maps scalar, columnwise and none to their Scale.
func ParseScale(s string) (Scale, error) {
	switch strings.ToLower(s) {
	case "scalar", "":
		return ScaleScalar, nil
	case "columnwise":
		return ScaleColumnwise, nil
	case "none", "false":
		return ScaleNone, nil
	default:
		return 0, fmt.Errorf("%w: scale %q (choose scalar, columnwise, or none)", gp.ErrInvalidOption, s)
	}
}

var ErrNotPrepared = errors.New("simdata: outputs not standardized")

// Data holds simulation inputs x (n x p), optional calibration inputs t
// (n x q) and outputs y (n x ell), with everything derived from them.
type Data struct {
	X, T *mat.Dense
	Y    *mat.Dense
	YInd []float64

	XCat, TCat []bool

	XTrans, TTrans         *mat.Dense
	XMin, XMax, TMin, TMax []float64

	YMean []float64
	YSD   []float64
	YStd  *mat.Dense

	// K is the pu x ell output basis; nil for scalar output.
	K *mat.Dense
}

// New validates the simulation runs. t may be nil. yInd is required when y
// has more than one column.
func New(x, t, y *mat.Dense, yInd []float64) (*Data, error) {
	if x == nil || y == nil {
		return nil, gp.Mismatch("x and y are required")
	}
	n, _ := x.Dims()
	ny, ell := y.Dims()
	if ny != n {
		return nil, gp.Mismatch("x has %d runs, y has %d", n, ny)
	}
	if t != nil {
		if nt, _ := t.Dims(); nt != n {
			return nil, gp.Mismatch("x has %d runs, t has %d", n, nt)
		}
	}
	if ell > 1 && yInd == nil {
		return nil, gp.Mismatch("y has %d outputs and needs output indices", ell)
	}
	if yInd != nil && len(yInd) != ell {
		return nil, gp.Mismatch("y has %d outputs, indices %d", ell, len(yInd))
	}
	return &Data{X: x, T: t, Y: y, YInd: yInd}, nil
}

func (d *Data) Runs() int {
	n, _ := d.X.Dims()
	return n
}

func (d *Data) P() int {
	_, p := d.X.Dims()
	return p
}

func (d *Data) Q() int {
	if d.T == nil {
		return 0
	}
	_, q := d.T.Dims()
	return q
}

func (d *Data) Outputs() int {
	_, ell := d.Y.Dims()
	return ell
}

// ScalarOutput reports whether each run produced a single value.
func (d *Data) ScalarOutput() bool { return d.Outputs() == 1 }

// PU is the number of basis components.
func (d *Data) PU() int {
	if d.K == nil {
		return 1
	}
	pu, _ := d.K.Dims()
	return pu
}

// TransformXT maps every input column onto [lo, hi]. Constant columns are
// left untouched.
func (d *Data) TransformXT(lo, hi float64) {
	d.XTrans, d.XMin, d.XMax = transform(d.X, lo, hi)
	if d.T != nil {
		d.TTrans, d.TMin, d.TMax = transform(d.T, lo, hi)
	}
}

func transform(x *mat.Dense, lo, hi float64) (*mat.Dense, []float64, []float64) {
	n, p := x.Dims()
	out := mat.NewDense(n, p, nil)
	mins := make([]float64, p)
	maxs := make([]float64, p)
	col := make([]float64, n)
	for k := 0; k < p; k++ {
		mat.Col(col, k, x)
		mins[k], maxs[k] = floats.Min(col), floats.Max(col)
		span := maxs[k] - mins[k]
		if span == 0 {
			out.SetCol(k, col)
			continue
		}
		for i, v := range col {
			col[i] = (v-mins[k])/span*(hi-lo) + lo
		}
		out.SetCol(k, col)
	}
	return out, mins, maxs
}

// Standardize centres each output column on its mean (when center is set)
// and divides by the chosen standard deviation.
func (d *Data) Standardize(center bool, scale Scale) error {
	n, ell := d.Y.Dims()
	if scale == ScaleScalar && n*ell < 2 || scale == ScaleColumnwise && n < 2 {
		return gp.Mismatch("%d runs are too few to estimate a standard deviation", n)
	}

	d.YMean = make([]float64, ell)
	col := make([]float64, n)
	if center {
		for j := range d.YMean {
			d.YMean[j] = stat.Mean(mat.Col(col, j, d.Y), nil)
		}
	}
	dm := mat.NewDense(n, ell, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < ell; j++ {
			dm.Set(i, j, d.Y.At(i, j)-d.YMean[j])
		}
	}

	switch scale {
	case ScaleScalar:
		d.YSD = []float64{stat.StdDev(dm.RawMatrix().Data, nil)}
	case ScaleColumnwise:
		d.YSD = make([]float64, ell)
		for j := range d.YSD {
			d.YSD[j] = stat.StdDev(mat.Col(col, j, dm), nil)
		}
	case ScaleNone:
		d.YSD = []float64{1}
	default:
		return fmt.Errorf("%w: %v", gp.ErrInvalidOption, scale)
	}
	for _, s := range d.YSD {
		if s == 0 {
			return gp.Mismatch("outputs are constant and cannot be scaled")
		}
	}

	for i := 0; i < n; i++ {
		for j := 0; j < ell; j++ {
			dm.Set(i, j, dm.At(i, j)/d.sd(j))
		}
	}
	d.YStd = dm
	return nil
}

func (d *Data) sd(j int) float64 {
	if len(d.YSD) == 1 {
		return d.YSD[0]
	}
	return d.YSD[j]
}

// CreateKBasis builds a principal-component basis of the standardized
// outputs. nPC below 1 is the fraction of variance to retain; otherwise it is
// the number of components. Scalar outputs use no basis.
func (d *Data) CreateKBasis(nPC float64) error {
	if d.YStd == nil {
		return ErrNotPrepared
	}
	if d.ScalarOutput() {
		d.K = nil
		return nil
	}
	if nPC <= 0 {
		return fmt.Errorf("%w: component count %g", gp.ErrInvalidOption, nPC)
	}
	n, ell := d.YStd.Dims()

	var svd mat.SVD
	if !svd.Factorize(d.YStd.T(), mat.SVDThin) {
		return fmt.Errorf("%w: output SVD did not converge", gp.ErrNumericalInstability)
	}
	s := svd.Values(nil)
	var u mat.Dense
	svd.UTo(&u)

	pu := int(nPC)
	if nPC < 1 {
		s2 := make([]float64, len(s))
		for i, v := range s {
			s2[i] = v * v
		}
		total := floats.Sum(s2)
		cum := 0.0
		pu = 1
		for _, v := range s2 {
			cum += v / total
			if cum >= nPC {
				break
			}
			pu++
		}
	}
	if pu > len(s) {
		pu = len(s)
	}

	k := mat.NewDense(pu, ell, nil)
	root := math.Sqrt(float64(n))
	for c := 0; c < pu; c++ {
		for j := 0; j < ell; j++ {
			k.Set(c, j, u.At(j, c)*s[c]/root)
		}
	}
	d.K = k
	return nil
}

// SetKBasis installs a caller-supplied pu x ell basis.
func (d *Data) SetKBasis(k *mat.Dense) error {
	if _, c := k.Dims(); c != d.Outputs() {
		return gp.Mismatch("basis has %d columns, outputs %d", c, d.Outputs())
	}
	d.K = k
	return nil
}

// Weights projects the standardized outputs onto the basis and returns them
// component-major: w[run + component*n].
func (d *Data) Weights() ([]float64, error) {
	if d.YStd == nil {
		return nil, ErrNotPrepared
	}
	n, _ := d.YStd.Dims()
	if d.K == nil {
		if !d.ScalarOutput() {
			return nil, gp.Mismatch("multivariate output needs a basis")
		}
		return mat.Col(nil, 0, d.YStd), nil
	}

	pk, err := pinv(d.K)
	if err != nil {
		return nil, err
	}
	var w mat.Dense
	w.Mul(d.YStd, pk)

	pu := d.PU()
	flat := make([]float64, n*pu)
	for c := 0; c < pu; c++ {
		for run := 0; run < n; run++ {
			flat[run+c*n] = w.At(run, c)
		}
	}
	return flat, nil
}

// pinv returns the Moore-Penrose pseudo-inverse, discarding singular values
// below 1e-15 times the largest.
func pinv(a *mat.Dense) (*mat.Dense, error) {
	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDThin) {
		return nil, fmt.Errorf("%w: basis SVD did not converge", gp.ErrNumericalInstability)
	}
	s := svd.Values(nil)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	cut := 1e-15 * floats.Max(s)
	inv := make([]float64, len(s))
	for i, x := range s {
		if x > cut {
			inv[i] = 1 / x
		}
	}
	var vs mat.Dense
	vs.Mul(&v, mat.NewDiagDense(len(inv), inv))
	var out mat.Dense
	out.Mul(&vs, u.T())
	return &out, nil
}

// Model assembles an emulator bundle over the transformed inputs with the
// given posterior draws. Inputs are mapped to [0, 1] and outputs standardized
// with scalar scaling if that has not been done.
func (d *Data) Model(s gp.Samples) (*gp.Static, error) {
	if d.XTrans == nil {
		d.TransformXT(0, 1)
	}
	if d.YStd == nil {
		if err := d.Standardize(true, ScaleScalar); err != nil {
			return nil, err
		}
	}
	if d.K == nil && !d.ScalarOutput() {
		if err := d.CreateKBasis(0.995); err != nil {
			return nil, err
		}
	}
	w, err := d.Weights()
	if err != nil {
		return nil, err
	}

	n, p, q := d.Runs(), d.P(), d.Q()
	zt := make([][]float64, n)
	for i := range zt {
		row := make([]float64, p+q)
		mat.Row(row[:p], i, d.XTrans)
		if q > 0 {
			mat.Row(row[p:], i, d.TTrans)
		}
		zt[i] = row
	}

	m := &gp.Static{
		Num:       gp.Dims{P: p, Q: q, PU: d.PU(), M: n},
		ZT:        zt,
		W:         w,
		YMean:     append([]float64(nil), d.YMean...),
		YSD:       append([]float64(nil), d.YSD...),
		XCat:      d.XCat,
		TCat:      d.TCat,
		Posterior: s,
	}
	if d.K != nil {
		pu, _ := d.K.Dims()
		m.K = make([][]float64, pu)
		for c := range m.K {
			m.K[c] = mat.Row(nil, c, d.K)
		}
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (d *Data) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "n  = %5d (simulation runs)\n", d.Runs())
	fmt.Fprintf(&b, "p  = %5d (controllable inputs)\n", d.P())
	fmt.Fprintf(&b, "q  = %5d (calibration inputs)\n", d.Q())
	fmt.Fprintf(&b, "ny = %5d (outputs)\n", d.Outputs())
	if d.K != nil || d.ScalarOutput() {
		fmt.Fprintf(&b, "pu = %5d (basis components)\n", d.PU())
	} else {
		b.WriteString("pu NOT SET (call CreateKBasis)\n")
	}
	return b.String()
}
