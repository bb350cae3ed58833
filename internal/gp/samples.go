package gp

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Samples holds posterior draws keyed the way the sampler names them. Each
// field is draws x columns: betaU has (p+q)*pu columns, component jj owning
// columns jj*(p+q) through (jj+1)*(p+q)-1; lamUz and lamWs have pu columns.
type Samples struct {
	BetaU [][]float64 `yaml:"betaU" json:"betaU"`
	LamUz [][]float64 `yaml:"lamUz" json:"lamUz"`
	LamWs [][]float64 `yaml:"lamWs" json:"lamWs"`
}

// Draws returns the number of posterior draws.
func (s Samples) Draws() int { return len(s.BetaU) }

func (s Samples) Validate(nv, pu int) error {
	n := len(s.BetaU)
	if n == 0 {
		return Mismatch("no posterior draws")
	}
	if len(s.LamUz) != n || len(s.LamWs) != n {
		return Mismatch("draw counts differ: betaU %d, lamUz %d, lamWs %d", n, len(s.LamUz), len(s.LamWs))
	}
	for i := 0; i < n; i++ {
		if len(s.BetaU[i]) != nv*pu {
			return Mismatch("betaU draw %d has %d columns, want (p+q)*pu = %d", i, len(s.BetaU[i]), nv*pu)
		}
		if len(s.LamUz[i]) != pu {
			return Mismatch("lamUz draw %d has %d columns, want pu = %d", i, len(s.LamUz[i]), pu)
		}
		if len(s.LamWs[i]) != pu {
			return Mismatch("lamWs draw %d has %d columns, want pu = %d", i, len(s.LamWs[i]), pu)
		}
	}
	return nil
}

// Mean reduces the draws to a single elementwise posterior mean.
func (s Samples) Mean() Samples {
	return Samples{
		BetaU: [][]float64{reduceColumns(s.BetaU, func(col []float64) float64 { return stat.Mean(col, nil) })},
		LamUz: [][]float64{reduceColumns(s.LamUz, func(col []float64) float64 { return stat.Mean(col, nil) })},
		LamWs: [][]float64{reduceColumns(s.LamWs, func(col []float64) float64 { return stat.Mean(col, nil) })},
	}
}

// Median reduces the draws to a single elementwise posterior median. Even
// draw counts average the two middle values.
func (s Samples) Median() Samples {
	return Samples{
		BetaU: [][]float64{reduceColumns(s.BetaU, median)},
		LamUz: [][]float64{reduceColumns(s.LamUz, median)},
		LamWs: [][]float64{reduceColumns(s.LamWs, median)},
	}
}

func (s Samples) Clone() Samples {
	return Samples{
		BetaU: cloneRows(s.BetaU),
		LamUz: cloneRows(s.LamUz),
		LamWs: cloneRows(s.LamWs),
	}
}

func reduceColumns(rows [][]float64, fn func([]float64) float64) []float64 {
	if len(rows) == 0 {
		return nil
	}
	out := make([]float64, len(rows[0]))
	col := make([]float64, len(rows))
	for j := range out {
		for i, r := range rows {
			col[i] = r[j]
		}
		out[j] = fn(col)
	}
	return out
}

func median(x []float64) float64 {
	s := append([]float64(nil), x...)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

func cloneRows(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = append([]float64(nil), r...)
	}
	return out
}
