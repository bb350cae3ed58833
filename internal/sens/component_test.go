package sens

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/gpsens/internal/distcov"
	"github.com/san-kum/gpsens/internal/gp"
)

func TestTraceProd(t *testing.T) {
	a := mat.NewSymDense(3, []float64{
		2, 1, 0.5,
		1, 3, -1,
		0.5, -1, 4,
	})
	b := mat.NewSymDense(3, []float64{
		1, 0.2, 0,
		0.2, -2, 0.7,
		0, 0.7, 0.3,
	})
	var ab mat.Dense
	ab.Mul(a, b)
	assert.InDelta(t, mat.Trace(&ab), traceProd(a, b), 1e-12)
}

func TestSquare(t *testing.T) {
	got := square([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9}, 3)
	assert.Equal(t, [][]float64{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}}, got)
}

func TestTolerate(t *testing.T) {
	assert.NoError(t, tolerate(nil))
	assert.NoError(t, tolerate(mat.Condition(1e17)))
	boom := errors.New("boom")
	assert.ErrorIs(t, tolerate(boom), boom)
}

func singleInput(t *testing.T, beta, lamUz, lamWs float64) *componentInput {
	t.Helper()
	x := mat.NewDense(5, 1, []float64{0, 0.25, 0.5, 0.75, 1})
	dom, err := newDomain(1, nil, 4)
	require.NoError(t, err)
	cache, err := distcov.NewCache(x, dom.grid, nil, nil)
	require.NoError(t, err)
	return &componentInput{
		x:      x,
		y:      []float64{-1, -0.5, 0, 0.5, 1},
		beta:   [][]float64{{beta}},
		lamUz:  []float64{lamUz},
		lamWs:  []float64{lamWs},
		ranges: dom.ranges,
		diff:   dom.diff,
		cache:  cache,
		ngrid:  4,
	}
}

func TestDrawSingleInput(t *testing.T) {
	in := singleInput(t, 5, 1, 1000)

	r, err := in.draw(0)
	require.NoError(t, err)

	assert.Greater(t, r.vt, 0.0)
	assert.InDelta(t, 1.0, r.sme[0], 1e-12)
	assert.InDelta(t, 1.0, r.ste[0], 1e-12)
	require.Len(t, r.mefM[0], 4)
	require.Len(t, r.mefV[0], 4)
	// an odd response: the effect curve is increasing and centred
	for g := 1; g < 4; g++ {
		assert.Greater(t, r.mefM[0][g], r.mefM[0][g-1])
	}
	assert.InDelta(t, 0.0, r.mefM[0][0]+r.mefM[0][3], 1e-9)
	assert.InDelta(t, 0.0, r.e0, 1e-9)
	for _, v := range r.mefV[0] {
		assert.GreaterOrEqual(t, v, -1e-9)
	}
}

func TestDrawNotPositiveDefinite(t *testing.T) {
	in := singleInput(t, 5, -1, 1000)

	_, err := in.draw(0)
	assert.ErrorIs(t, err, gp.ErrNumericalInstability)
}

func TestCollect(t *testing.T) {
	draws := []drawResult{
		{e0: 1, vt: 2, sme: []float64{0.5}, ste: []float64{0.6}, sie: []float64{0.1}, sje: []float64{0.9}},
		{e0: 3, vt: 4, sme: []float64{0.7}, ste: []float64{0.8}, sie: []float64{0.2}, sje: []float64{0.8}},
	}
	c := collect(draws)
	assert.Equal(t, []float64{1, 3}, c.E0)
	assert.Equal(t, []float64{2, 4}, c.Vt)
	assert.Equal(t, [][]float64{{0.5}, {0.7}}, c.Sme)
	assert.Equal(t, [][]float64{{0.1}, {0.2}}, c.Sie)
	assert.Equal(t, [][]float64{{0.9}, {0.8}}, c.Sje)

	c = collect(draws[:1:1])
	assert.Len(t, c.Sie, 1)
}
