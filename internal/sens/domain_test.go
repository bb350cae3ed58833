package sens

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/gpsens/internal/gp"
)

func TestLinspace(t *testing.T) {
	assert.Equal(t, []float64{0, 0.25, 0.5, 0.75, 1}, linspace(0, 1, 5))
	assert.Equal(t, []float64{0.2}, linspace(0.2, 0.9, 1))
	got := linspace(0.1, 0.7, 7)
	assert.Equal(t, 0.7, got[6])
	assert.InDelta(t, 0.4, got[3], 1e-15)
}

func TestNewDomain(t *testing.T) {
	d, err := newDomain(3, nil, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, d.active)
	assert.Equal(t, []float64{1, 1, 1}, d.diff)
	assert.Equal(t, []float64{0, 0.5, 1}, mat.Col(nil, 2, d.grid))

	d, err = newDomain(3, [][2]float64{{0, 1}, {0.4, 0.4}, {0.2, 0.6}}, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, d.active)
	assert.Equal(t, [][2]float64{{0, 1}, {0.2, 0.6}}, d.ranges)
	assert.InDelta(t, 0.4, d.diff[1], 1e-15)
	r, c := d.grid.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, []float64{0.2, 0.6}, mat.Col(nil, 1, d.grid))
}

func TestNewDomainErrors(t *testing.T) {
	_, err := newDomain(2, [][2]float64{{0.3, 0.3}, {1, 1}}, 5)
	assert.ErrorIs(t, err, gp.ErrEmptyDomain)

	_, err = newDomain(2, [][2]float64{{0, 1}}, 5)
	assert.ErrorIs(t, err, gp.ErrDimensionMismatch)

	_, err = newDomain(1, [][2]float64{{1, 0}}, 5)
	assert.ErrorIs(t, err, gp.ErrDimensionMismatch)
}

func TestAllPairs(t *testing.T) {
	assert.Equal(t, [][2]int{{0, 1}, {0, 2}, {0, 3}, {1, 2}, {1, 3}, {2, 3}}, allPairs(4))
	assert.Empty(t, allPairs(1))
}

func TestCheckPairs(t *testing.T) {
	assert.NoError(t, checkPairs([][2]int{{0, 1}, {2, 1}}, 3))
	assert.ErrorIs(t, checkPairs([][2]int{{0, 3}}, 3), gp.ErrDimensionMismatch)
	assert.ErrorIs(t, checkPairs([][2]int{{-1, 0}}, 3), gp.ErrDimensionMismatch)
	assert.ErrorIs(t, checkPairs([][2]int{{1, 1}}, 3), gp.ErrInvalidOption)
}

func TestCheckJointSets(t *testing.T) {
	assert.NoError(t, checkJointSets([][]int{{0}, {2, 0, 1}}, 3))
	assert.ErrorIs(t, checkJointSets([][]int{{}}, 3), gp.ErrInvalidOption)
	assert.ErrorIs(t, checkJointSets([][]int{{0, 0}}, 3), gp.ErrInvalidOption)
	assert.ErrorIs(t, checkJointSets([][]int{{4}}, 3), gp.ErrDimensionMismatch)
}
