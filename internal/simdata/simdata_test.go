package simdata

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/gpsens/internal/gp"
)

func TestNewValidation(t *testing.T) {
	x := mat.NewDense(3, 1, []float64{1, 2, 3})
	tests := []struct {
		name string
		t, y *mat.Dense
		ind  []float64
	}{
		{"run mismatch", nil, mat.NewDense(2, 1, nil), nil},
		{"t mismatch", mat.NewDense(2, 1, nil), mat.NewDense(3, 1, nil), nil},
		{"missing indices", nil, mat.NewDense(3, 2, nil), nil},
		{"index length", nil, mat.NewDense(3, 2, nil), []float64{0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(x, tt.t, tt.y, tt.ind)
			assert.ErrorIs(t, err, gp.ErrDimensionMismatch)
		})
	}

	d, err := New(x, nil, mat.NewDense(3, 1, []float64{1, 2, 4}), nil)
	require.NoError(t, err)
	assert.True(t, d.ScalarOutput())
	assert.Equal(t, 0, d.Q())
}

func TestTransformXT(t *testing.T) {
	x := mat.NewDense(3, 2, []float64{
		2, 7,
		4, 7,
		6, 7,
	})
	tt := mat.NewDense(3, 1, []float64{-1, 1, 0})
	d, err := New(x, tt, mat.NewDense(3, 1, []float64{1, 2, 3}), nil)
	require.NoError(t, err)

	d.TransformXT(0, 1)

	assert.Equal(t, []float64{0, 0.5, 1}, mat.Col(nil, 0, d.XTrans))
	// a constant column is left as is
	assert.Equal(t, []float64{7, 7, 7}, mat.Col(nil, 1, d.XTrans))
	assert.Equal(t, []float64{0, 1, 0.5}, mat.Col(nil, 0, d.TTrans))
	assert.Equal(t, []float64{2, 7}, d.XMin)
	assert.Equal(t, []float64{6, 7}, d.XMax)
}

func TestStandardize(t *testing.T) {
	y := mat.NewDense(4, 2, []float64{
		1, 10,
		2, 20,
		3, 30,
		4, 40,
	})
	d, err := New(mat.NewDense(4, 1, []float64{0, 1, 2, 3}), nil, y, []float64{0, 1})
	require.NoError(t, err)

	require.NoError(t, d.Standardize(true, ScaleColumnwise))
	assert.Equal(t, []float64{2.5, 25}, d.YMean)
	sd := math.Sqrt(5.0 / 3)
	assert.InDeltaSlice(t, []float64{sd, 10 * sd}, d.YSD, 1e-12)
	assert.InDelta(t, -1.5/sd, d.YStd.At(0, 0), 1e-12)
	assert.InDelta(t, -1.5/sd, d.YStd.At(0, 1), 1e-12)

	require.NoError(t, d.Standardize(false, ScaleNone))
	assert.Equal(t, []float64{0, 0}, d.YMean)
	assert.Equal(t, []float64{1}, d.YSD)
	assert.Equal(t, 40.0, d.YStd.At(3, 1))

	require.NoError(t, d.Standardize(true, ScaleScalar))
	require.Len(t, d.YSD, 1)
	assert.InDelta(t, math.Sqrt(505.0/7), d.YSD[0], 1e-12)
	assert.InDelta(t, 15/d.YSD[0], d.YStd.At(3, 1), 1e-12)
}

func TestParseScale(t *testing.T) {
	s, err := ParseScale("columnwise")
	require.NoError(t, err)
	assert.Equal(t, ScaleColumnwise, s)
	assert.Equal(t, "none", ScaleNone.String())
	_, err = ParseScale("log")
	assert.ErrorIs(t, err, gp.ErrInvalidOption)
}

// curves returns n runs of ell-point outputs a*sin + b*cos over the indices.
func curves(n, ell int) (*mat.Dense, *mat.Dense, []float64) {
	x := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, ell, nil)
	ind := make([]float64, ell)
	for j := range ind {
		ind[j] = float64(j) / float64(ell-1)
	}
	for i := 0; i < n; i++ {
		a := float64(i) / float64(n-1)
		b := math.Mod(float64(i)*0.618, 1)
		x.Set(i, 0, a)
		x.Set(i, 1, b)
		for j, s := range ind {
			y.Set(i, j, a*math.Sin(math.Pi*s)+2*b*math.Cos(math.Pi*s))
		}
	}
	return x, y, ind
}

func TestCreateKBasis(t *testing.T) {
	x, y, ind := curves(10, 8)
	d, err := New(x, nil, y, ind)
	require.NoError(t, err)

	assert.ErrorIs(t, d.CreateKBasis(0.99), ErrNotPrepared)
	require.NoError(t, d.Standardize(true, ScaleScalar))

	require.NoError(t, d.CreateKBasis(3))
	assert.Equal(t, 3, d.PU())

	// the outputs span two directions
	require.NoError(t, d.CreateKBasis(0.999))
	assert.Equal(t, 2, d.PU())

	var g mat.Dense
	g.Mul(d.K, d.K.T())
	assert.InDelta(t, 0.0, g.At(0, 1), 1e-10)
}

func TestWeightsReconstruct(t *testing.T) {
	x, y, ind := curves(10, 8)
	d, err := New(x, nil, y, ind)
	require.NoError(t, err)
	require.NoError(t, d.Standardize(true, ScaleScalar))
	require.NoError(t, d.CreateKBasis(2))

	flat, err := d.Weights()
	require.NoError(t, err)
	w, err := gp.WeightMatrix(flat, 10, 2)
	require.NoError(t, err)

	var rec mat.Dense
	rec.Mul(w, d.K)
	assert.True(t, mat.EqualApprox(&rec, d.YStd, 1e-9))
}

func TestModel(t *testing.T) {
	x, y, ind := curves(10, 8)
	d, err := New(x, nil, y, ind)
	require.NoError(t, err)
	d.XCat = []bool{false, false}

	s := gp.Samples{
		BetaU: [][]float64{make([]float64, 2*2)},
		LamUz: [][]float64{{1, 1}},
		LamWs: [][]float64{{1000, 1000}},
	}
	m, err := d.Model(s)
	require.NoError(t, err)

	assert.Equal(t, gp.Dims{P: 2, Q: 0, PU: 2, M: 10}, m.Dims())
	assert.Len(t, m.K, 2)
	mean, sd := m.Rescale()
	assert.Len(t, mean, 8)
	assert.Len(t, sd, 8)
	r, c := m.Design().Dims()
	assert.Equal(t, 10, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, 1.0, m.Design().At(9, 0))
}

func TestModelScalar(t *testing.T) {
	x := mat.NewDense(4, 1, []float64{0, 2, 4, 8})
	y := mat.NewDense(4, 1, []float64{1, 3, 2, 5})
	d, err := New(x, nil, y, nil)
	require.NoError(t, err)

	m, err := d.Model(gp.Samples{})
	require.NoError(t, err)
	assert.Nil(t, m.Basis())
	assert.Equal(t, 1, m.Dims().PU)
	assert.Equal(t, []float64{0, 0.25, 0.5, 1}, mat.Col(nil, 0, m.Design()))
	assert.InDelta(t, 0.0, m.W[0]+m.W[1]+m.W[2]+m.W[3], 1e-12)
}
