package experiment

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/gpsens/internal/gp"
	"github.com/san-kum/gpsens/internal/simdata"
)

type Config struct {
	Function string  `yaml:"function"`
	Runs     int     `yaml:"runs"`
	Draws    int     `yaml:"draws"`
	Jitter   float64 `yaml:"jitter"`
	LamUz    float64 `yaml:"lam_uz"`
	LamWs    float64 `yaml:"lam_ws"`
	NPC      float64 `yaml:"n_pc"`
	Seed     int64   `yaml:"seed"`
	// Basis replaces the principal-component output basis; one row per
	// component.
	Basis [][]float64 `yaml:"basis,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		Function: "additive",
		Runs:     30,
		Draws:    10,
		Jitter:   0.1,
		LamUz:    1,
		LamWs:    1000,
		NPC:      0.995,
		Seed:     42,
	}
}

// Experiment evaluates a synthetic function on a Latin hypercube design and
// pairs the result with a fixed set of posterior draws.
type Experiment struct {
	cfg        Config
	fn         Function
	randSource *rand.Rand
}

func New(cfg Config, fn Function) *Experiment {
	return &Experiment{
		cfg:        cfg,
		fn:         fn,
		randSource: rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Run is the outcome of one experiment: the prepared simulation data and
// the emulator bundle built from it.
type Run struct {
	Function Function
	Data     *simdata.Data
	Model    *gp.Static
}

func (e *Experiment) Run(ctx context.Context) (*Run, error) {
	if e.cfg.Runs < 2 {
		return nil, fmt.Errorf("experiment needs at least 2 runs, got %d", e.cfg.Runs)
	}
	if e.cfg.Draws < 1 {
		return nil, fmt.Errorf("experiment needs at least 1 draw, got %d", e.cfg.Draws)
	}

	x := e.Design()
	y := mat.NewDense(e.cfg.Runs, e.fn.Outputs, nil)
	row := make([]float64, e.fn.Inputs)
	out := make([]float64, e.fn.Outputs)
	for i := 0; i < e.cfg.Runs; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		mat.Row(row, i, x)
		e.fn.Eval(row, out)
		y.SetRow(i, out)
	}

	var ind []float64
	if e.fn.Outputs > 1 {
		ind = make([]float64, e.fn.Outputs)
		for j := range ind {
			ind[j] = float64(j) / float64(e.fn.Outputs-1)
		}
	}
	data, err := simdata.New(x, nil, y, ind)
	if err != nil {
		return nil, err
	}
	data.TransformXT(0, 1)
	if err := data.Standardize(true, simdata.ScaleScalar); err != nil {
		return nil, err
	}
	if len(e.cfg.Basis) > 0 {
		k, err := basisMatrix(e.cfg.Basis)
		if err != nil {
			return nil, err
		}
		if err := data.SetKBasis(k); err != nil {
			return nil, err
		}
	} else if err := data.CreateKBasis(e.cfg.NPC); err != nil {
		return nil, err
	}

	m, err := data.Model(e.Posterior(data.PU()))
	if err != nil {
		return nil, fmt.Errorf("build %s model: %w", e.fn.Name, err)
	}
	return &Run{Function: e.fn, Data: data, Model: m}, nil
}

func basisMatrix(rows [][]float64) (*mat.Dense, error) {
	cols := len(rows[0])
	if cols == 0 {
		return nil, gp.Mismatch("basis has no columns")
	}
	k := mat.NewDense(len(rows), cols, nil)
	for i, r := range rows {
		if len(r) != cols {
			return nil, gp.Mismatch("basis row %d has %d columns, want %d", i, len(r), cols)
		}
		k.SetRow(i, r)
	}
	return k, nil
}

// Design draws a Latin hypercube: every input has exactly one run in each of
// Runs equal strata of [0, 1].
func (e *Experiment) Design() *mat.Dense {
	n, p := e.cfg.Runs, e.fn.Inputs
	x := mat.NewDense(n, p, nil)
	for k := 0; k < p; k++ {
		perm := e.randSource.Perm(n)
		for i := 0; i < n; i++ {
			x.Set(i, k, (float64(perm[i])+e.randSource.Float64())/float64(n))
		}
	}
	return x
}

// Posterior returns Draws log-normally jittered copies of the function's
// correlation strengths and the configured precisions for pu components.
func (e *Experiment) Posterior(pu int) gp.Samples {
	p := e.fn.Inputs
	s := gp.Samples{}
	for d := 0; d < e.cfg.Draws; d++ {
		beta := make([]float64, p*pu)
		lamUz := make([]float64, pu)
		lamWs := make([]float64, pu)
		for jj := 0; jj < pu; jj++ {
			for k := 0; k < p; k++ {
				beta[jj*p+k] = e.fn.Beta[k] * e.jitter()
			}
			lamUz[jj] = e.cfg.LamUz * e.jitter()
			lamWs[jj] = e.cfg.LamWs
		}
		s.BetaU = append(s.BetaU, beta)
		s.LamUz = append(s.LamUz, lamUz)
		s.LamWs = append(s.LamWs, lamWs)
	}
	return s
}

func (e *Experiment) jitter() float64 {
	if e.cfg.Jitter == 0 {
		return 1
	}
	return math.Exp(e.cfg.Jitter * e.randSource.NormFloat64())
}
