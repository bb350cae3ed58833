package gp

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

type Dims struct {
	P  int `yaml:"p" json:"p"`
	Q  int `yaml:"q" json:"q"`
	PU int `yaml:"pu" json:"pu"`
	M  int `yaml:"m" json:"m"`
}

// NV is the number of GP inputs, p+q.
func (d Dims) NV() int { return d.P + d.Q }

// InputNames labels the inputs x1..xp then t1..tq.
func (d Dims) InputNames() []string {
	names := make([]string, 0, d.NV())
	for i := 1; i <= d.P; i++ {
		names = append(names, fmt.Sprintf("x%d", i))
	}
	for i := 1; i <= d.Q; i++ {
		names = append(names, fmt.Sprintf("t%d", i))
	}
	return names
}

// Model is what a fitted emulator exposes to the sensitivity analysis.
type Model interface {
	Dims() Dims
	// Design returns the m x (p+q) simulation design on the unit hypercube.
	Design() mat.Matrix
	// Weights returns the m*pu basis weights, component-major.
	Weights() []float64
	// Basis returns the pu x ny basis matrix K, or nil when no basis is used.
	Basis() mat.Matrix
	// Rescale returns the output mean and standard deviation per output index.
	Rescale() (mean, sd []float64)
	// Categorical flags each of the p+q inputs as categorical.
	Categorical() []bool
	Samples() Samples
}

// WeightMatrix reads the component-major flat weight vector as an m x pu
// matrix with w[run, component] = flat[run + component*m].
func WeightMatrix(flat []float64, m, pu int) (*mat.Dense, error) {
	if len(flat) != m*pu {
		return nil, Mismatch("weights have length %d, want m*pu = %d", len(flat), m*pu)
	}
	w := mat.NewDense(m, pu, nil)
	for run := 0; run < m; run++ {
		for c := 0; c < pu; c++ {
			w.Set(run, c, flat[run+c*m])
		}
	}
	return w, nil
}

// Static is an in-memory Model.
type Static struct {
	Num       Dims        `yaml:"num"`
	ZT        [][]float64 `yaml:"design"`
	W         []float64   `yaml:"weights"`
	K         [][]float64 `yaml:"basis,omitempty"`
	YMean     []float64   `yaml:"y_mean"`
	YSD       []float64   `yaml:"y_sd"`
	XCat      []bool      `yaml:"x_cat,omitempty"`
	TCat      []bool      `yaml:"t_cat,omitempty"`
	Posterior Samples     `yaml:"samples"`
}

func (s *Static) Dims() Dims         { return s.Num }
func (s *Static) Weights() []float64 { return s.W }
func (s *Static) Samples() Samples   { return s.Posterior }

func (s *Static) Design() mat.Matrix {
	if d := denseFromRows(s.ZT); d != nil {
		return d
	}
	return nil
}

func (s *Static) Basis() mat.Matrix {
	if d := denseFromRows(s.K); d != nil {
		return d
	}
	return nil
}

// Validate checks that the bundle is rectangular and consistent with Num.
func (s *Static) Validate() error {
	nv := s.Num.NV()
	if len(s.ZT) != s.Num.M {
		return Mismatch("design has %d rows, want m = %d", len(s.ZT), s.Num.M)
	}
	for i, r := range s.ZT {
		if len(r) != nv {
			return Mismatch("design row %d has %d columns, want p+q = %d", i, len(r), nv)
		}
	}
	if len(s.K) > 0 {
		if len(s.K) != s.Num.PU {
			return Mismatch("basis has %d rows, want pu = %d", len(s.K), s.Num.PU)
		}
		for i, r := range s.K {
			if len(r) != len(s.K[0]) {
				return Mismatch("basis row %d has %d columns, want %d", i, len(r), len(s.K[0]))
			}
		}
	}
	if len(s.XCat) > s.Num.P {
		return Mismatch("x_cat has %d flags, want p = %d", len(s.XCat), s.Num.P)
	}
	if len(s.TCat) > s.Num.Q {
		return Mismatch("t_cat has %d flags, want q = %d", len(s.TCat), s.Num.Q)
	}
	if _, err := WeightMatrix(s.W, s.Num.M, s.Num.PU); err != nil {
		return err
	}
	if s.Posterior.Draws() == 0 {
		return nil
	}
	return s.Posterior.Validate(nv, s.Num.PU)
}

// Rescale broadcasts a scalar standard deviation over all outputs.
func (s *Static) Rescale() ([]float64, []float64) {
	mean := append([]float64(nil), s.YMean...)
	if len(mean) == 0 {
		mean = []float64{0}
	}
	sd := append([]float64(nil), s.YSD...)
	switch {
	case len(sd) == 0:
		sd = make([]float64, len(mean))
		for i := range sd {
			sd[i] = 1
		}
	case len(sd) == 1 && len(mean) > 1:
		v := sd[0]
		sd = make([]float64, len(mean))
		for i := range sd {
			sd[i] = v
		}
	}
	return mean, sd
}

// Categorical concatenates the x and t flags, padding missing flags with false.
func (s *Static) Categorical() []bool {
	cat := make([]bool, s.Num.NV())
	copy(cat[:s.Num.P], s.XCat)
	copy(cat[s.Num.P:], s.TCat)
	return cat
}

func denseFromRows(rows [][]float64) *mat.Dense {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil
	}
	d := mat.NewDense(len(rows), len(rows[0]), nil)
	for i, r := range rows {
		d.SetRow(i, r)
	}
	return d
}
