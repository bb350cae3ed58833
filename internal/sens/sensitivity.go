package sens

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/gpsens/internal/distcov"
	"github.com/san-kum/gpsens/internal/gp"
)

// Sensitivity computes Sobol main, total, interaction and joint indices and
// main/joint effect functions of the emulator m.
//
// Every (component, draw) task runs on a bounded pool of workers. The
// reduction over tasks is sequential, so the result does not depend on the
// worker count.
func Sensitivity(ctx context.Context, m gp.Model, opts ...Option) (*Result, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	log := cfg.logger

	if cfg.ngrid < 1 {
		return nil, fmt.Errorf("%w: grid size %d must be at least 1", gp.ErrInvalidOption, cfg.ngrid)
	}
	if cfg.mode == nil {
		return nil, fmt.Errorf("%w: no analysis mode", gp.ErrInvalidOption)
	}

	dims := m.Dims()
	nvFull, pu := dims.NV(), dims.PU
	if pu < 1 {
		return nil, gp.Mismatch("model has %d basis components", pu)
	}
	design := m.Design()
	if design == nil {
		return nil, gp.Mismatch("model has no design")
	}
	if r, c := design.Dims(); r != dims.M || c != nvFull {
		return nil, gp.Mismatch("design is %dx%d, want %dx%d", r, c, dims.M, nvFull)
	}
	w, err := gp.WeightMatrix(m.Weights(), dims.M, pu)
	if err != nil {
		return nil, err
	}
	cat := m.Categorical()
	if cat != nil && len(cat) != nvFull {
		return nil, gp.Mismatch("categorical flags %d, inputs %d", len(cat), nvFull)
	}
	sc, err := newScale(m, pu)
	if err != nil {
		return nil, err
	}

	samples := m.Samples()
	if cfg.samples != nil {
		samples = *cfg.samples
	}
	draws, err := cfg.mode.resolve(samples, nvFull, pu)
	if err != nil {
		return nil, err
	}

	dom, err := newDomain(nvFull, cfg.ranges, cfg.ngrid)
	if err != nil {
		return nil, err
	}
	nv := len(dom.active)

	pairs := cfg.pairs
	if cfg.allPairs {
		pairs = allPairs(nv)
	}
	if err := checkPairs(pairs, nv); err != nil {
		return nil, err
	}
	if err := checkJointSets(cfg.jointSets, nv); err != nil {
		return nil, err
	}

	x := mat.NewDense(dims.M, nv, nil)
	var catActive []bool
	if cat != nil {
		catActive = make([]bool, nv)
	}
	for k, col := range dom.active {
		for i := 0; i < dims.M; i++ {
			x.Set(i, k, design.At(i, col))
		}
		if cat != nil {
			catActive[k] = cat[col]
		}
	}
	cache, err := distcov.NewCache(x, dom.grid, catActive, pairs)
	if err != nil {
		return nil, err
	}

	nd := draws.Draws()
	inputs := make([]*componentInput, pu)
	for jj := range inputs {
		in := &componentInput{
			x:         x,
			y:         mat.Col(nil, jj, w),
			beta:      make([][]float64, nd),
			lamUz:     make([]float64, nd),
			lamWs:     make([]float64, nd),
			ranges:    dom.ranges,
			diff:      dom.diff,
			cache:     cache,
			pairs:     pairs,
			jointSets: cfg.jointSets,
			ngrid:     cfg.ngrid,
		}
		for d := 0; d < nd; d++ {
			in.beta[d] = make([]float64, nv)
			for k, col := range dom.active {
				in.beta[d][k] = draws.BetaU[d][jj*nvFull+col]
			}
			in.lamUz[d] = draws.LamUz[d][jj]
			in.lamWs[d] = draws.LamWs[d][jj]
		}
		inputs[jj] = in
	}

	log.Debug("sensitivity analysis",
		zap.String("mode", cfg.mode.String()),
		zap.Int("components", pu),
		zap.Int("draws", nd),
		zap.Ints("active", dom.active),
		zap.Int("pairs", len(pairs)),
		zap.Int("joint_sets", len(cfg.jointSets)),
		zap.Int("grid", cfg.ngrid),
	)

	slots := make([][]drawResult, pu)
	for jj := range slots {
		slots[jj] = make([]drawResult, nd)
	}
	err = gp.ForEach(ctx, pu*nd, cfg.workers, func(_ context.Context, t int) error {
		jj, d := t/nd, t%nd
		r, err := inputs[jj].draw(d)
		if err != nil {
			return &gp.ComponentError{Component: jj, Draw: d, Wrapped: err}
		}
		slots[jj][d] = r
		return nil
	})
	if err != nil {
		log.Warn("sensitivity analysis failed", zap.Error(err))
		return nil, err
	}

	sa := make([]ComponentResult, pu)
	for jj := range sa {
		sa[jj] = collect(slots[jj])
	}

	res := &Result{
		Mode:       cfg.mode.String(),
		Active:     dom.active,
		Ranges:     dom.ranges,
		Grid:       make([][]float64, nv),
		Pairs:      pairs,
		JointSets:  cfg.jointSets,
		Outputs:    sc.outputs(),
		Draws:      nd,
		Components: sa,
	}
	for k := range res.Grid {
		res.Grid[k] = mat.Col(nil, k, dom.grid)
	}
	combine(res, sa, sc, nv, len(pairs), len(cfg.jointSets))

	res.TotalMean = sc.totalMean(sa)
	res.MefM, res.MefSD, res.TmefM, res.TmefSD = sc.mainEffects(sa, nv, cfg.ngrid)
	if len(pairs) > 0 {
		res.JefM, res.JefSD, res.TjefM, res.TjefSD = sc.jointEffects(sa, len(pairs), cfg.ngrid)
	}

	log.Info("sensitivity analysis complete",
		zap.Float64s("sme", res.SmePm),
		zap.Float64s("ste", res.StePm),
	)
	return res, nil
}

// combine weights each component's indices by its share of the output
// variance, lam*vt, and normalises by the total over components.
func combine(res *Result, sa []ComponentResult, sc scale, nv, npairs, nsets int) {
	nd := len(sa[0].Vt)
	lam := make([]float64, len(sa))
	for jj := range lam {
		for _, kv := range sc.k[jj] {
			lam[jj] += kv * kv
		}
	}

	res.TotalVar = make([]float64, nd)
	for d := range res.TotalVar {
		for jj, c := range sa {
			res.TotalVar[d] += lam[jj] * c.Vt[d]
		}
	}

	weighted := func(n int, pick func(c ComponentResult, d, k int) float64) [][]float64 {
		out := make([][]float64, nd)
		for d := range out {
			out[d] = make([]float64, n)
			for k := range out[d] {
				for jj, c := range sa {
					out[d][k] += lam[jj] * pick(c, d, k) * c.Vt[d]
				}
				out[d][k] /= res.TotalVar[d]
			}
		}
		return out
	}

	res.Sme = weighted(nv, func(c ComponentResult, d, k int) float64 { return c.Sme[d][k] })
	res.SmePm = drawMean(res.Sme)
	res.Ste = weighted(nv, func(c ComponentResult, d, k int) float64 { return c.Ste[d][k] })
	res.StePm = drawMean(res.Ste)
	if npairs > 0 {
		res.Sie = weighted(npairs, func(c ComponentResult, d, k int) float64 { return c.Sie[d][k] })
		res.SiePm = drawMean(res.Sie)
	}
	if nsets > 0 {
		res.Sje = weighted(nsets, func(c ComponentResult, d, k int) float64 { return c.Sje[d][k] })
		res.SjePm = drawMean(res.Sje)
	}
}

func drawMean(rows [][]float64) []float64 {
	if len(rows) == 0 {
		return nil
	}
	out := make([]float64, len(rows[0]))
	col := make([]float64, len(rows))
	for k := range out {
		for d, r := range rows {
			col[d] = r[k]
		}
		out[k] = stat.Mean(col, nil)
	}
	return out
}

// newScale reads the basis and output rescaling of m. Without a basis the
// single component maps one-to-one onto a single output.
func newScale(m gp.Model, pu int) (scale, error) {
	var k [][]float64
	if b := m.Basis(); b != nil {
		r, _ := b.Dims()
		if r != pu {
			return scale{}, gp.Mismatch("basis has %d rows, components %d", r, pu)
		}
		k = make([][]float64, r)
		for i := range k {
			k[i] = mat.Row(nil, i, b)
		}
	} else {
		if pu != 1 {
			return scale{}, gp.Mismatch("no basis for %d components", pu)
		}
		k = [][]float64{{1}}
	}
	ny := len(k[0])
	if ny == 0 {
		return scale{}, gp.Mismatch("basis has no outputs")
	}

	mean, sd := m.Rescale()
	mean = broadcast(mean, ny)
	sd = broadcast(sd, ny)
	if len(mean) != ny || len(sd) != ny {
		return scale{}, gp.Mismatch("output mean %d and sd %d for %d outputs", len(mean), len(sd), ny)
	}
	return scale{k: k, mean: mean, sd: sd}, nil
}

func broadcast(v []float64, n int) []float64 {
	if len(v) != 1 || n == 1 {
		return v
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = v[0]
	}
	return out
}
