package sens_test

import (
	"math"

	"github.com/san-kum/gpsens/internal/gp"
)

// kronecker returns m points of the additive recurrence x_k = frac((i+0.5)*a_k)
// in p dimensions.
func kronecker(m, p int) [][]float64 {
	alpha := []float64{0.6180339887, 0.7548776662, 0.5698402910, 0.8191725134}
	pts := make([][]float64, m)
	for i := range pts {
		pts[i] = make([]float64, p)
		for k := 0; k < p; k++ {
			_, f := math.Modf((float64(i) + 0.5) * alpha[k])
			pts[i][k] = f
		}
	}
	return pts
}

// fixture builds a single-component emulator of f on the design, with draws
// posterior draws whose correlation parameters are spread around beta.
func fixture(design [][]float64, f func([]float64) float64, beta []float64, draws int) *gp.Static {
	m, p := len(design), len(design[0])
	w := make([]float64, m)
	for i, x := range design {
		w[i] = f(x)
	}
	s := gp.Samples{}
	for d := 0; d < draws; d++ {
		b := make([]float64, p)
		for k := range b {
			b[k] = beta[k] * (1 + 0.15*float64(d))
		}
		s.BetaU = append(s.BetaU, b)
		s.LamUz = append(s.LamUz, []float64{1 + 0.1*float64(d)})
		s.LamWs = append(s.LamWs, []float64{1000})
	}
	return &gp.Static{
		Num:       gp.Dims{P: p, PU: 1, M: m},
		ZT:        design,
		W:         w,
		YMean:     []float64{0},
		YSD:       []float64{1},
		Posterior: s,
	}
}

func linear1D() *gp.Static {
	design := [][]float64{{0}, {0.25}, {0.5}, {0.75}, {1}}
	return fixture(design, func(x []float64) float64 { return x[0] }, []float64{5}, 1)
}

func additive2D(draws int) *gp.Static {
	return fixture(kronecker(16, 2), func(x []float64) float64 {
		return 2*x[0] + math.Sin(math.Pi*x[1])
	}, []float64{1.5, 3}, draws)
}

func product3D(draws int) *gp.Static {
	return fixture(kronecker(20, 3), func(x []float64) float64 {
		return (x[0] - 0.5) * (x[1] - 0.5) * 4
	}, []float64{2, 2, 0.5}, draws)
}

// twoOutputs wraps a 2-input emulator in a two-component basis over three
// outputs.
func twoOutputs() *gp.Static {
	design := kronecker(14, 2)
	m := len(design)
	w := make([]float64, 2*m)
	for i, x := range design {
		w[i] = x[0] - 0.5
		w[i+m] = math.Cos(math.Pi * x[1])
	}
	return &gp.Static{
		Num:   gp.Dims{P: 2, PU: 2, M: m},
		ZT:    design,
		W:     w,
		K:     [][]float64{{1, 0.5, 0}, {0, 0.5, 1}},
		YMean: []float64{1, 2, 3},
		YSD:   []float64{2},
		Posterior: gp.Samples{
			BetaU: [][]float64{{2, 0.1, 0.1, 2}, {2.5, 0.2, 0.1, 1.5}},
			LamUz: [][]float64{{1, 2}, {1.5, 1}},
			LamWs: [][]float64{{1000, 1000}, {500, 2000}},
		},
	}
}
