package distcov

import (
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/gpsens/internal/gp"
)

// Cache holds every distance set needed to analyse one basis component:
// sample-to-sample, and for each input dimension and each requested pair,
// grid-to-sample and grid-to-grid distances.
type Cache struct {
	X *DistCov

	// GridX[k] and Grid[k] are indexed by input dimension.
	GridX []*DistCov
	Grid  []*DistCov

	// PairGridX[k] and PairGrid[k] are indexed by requested pair and span the
	// ngrid x ngrid cross grid, first variable outer.
	PairGridX []*DistCov
	PairGrid  []*DistCov
}

// NewCache computes the distances of sample locations x (m x d) and grid
// (ngrid x d) for the given pairs of input dimensions.
func NewCache(x, grid mat.Matrix, cat []bool, pairs [][2]int) (*Cache, error) {
	_, d := x.Dims()
	ngrid, dg := grid.Dims()
	if d != dg {
		return nil, gp.Mismatch("samples have %d inputs, grid has %d", d, dg)
	}
	if cat == nil {
		cat = make([]bool, d)
	}
	if len(cat) != d {
		return nil, gp.Mismatch("categorical flags %d, inputs %d", len(cat), d)
	}

	xd, err := NewSelf(x, cat)
	if err != nil {
		return nil, err
	}
	c := &Cache{
		X:     xd,
		GridX: make([]*DistCov, d),
		Grid:  make([]*DistCov, d),
	}

	for k := 0; k < d; k++ {
		xe := columns(grid, []int{k})
		xk := columns(x, []int{k})
		ck := []bool{cat[k]}
		if c.GridX[k], err = NewCross(xe, xk, ck); err != nil {
			return nil, err
		}
		if c.Grid[k], err = NewSelf(xe, ck); err != nil {
			return nil, err
		}
	}

	for _, pr := range pairs {
		if pr[0] < 0 || pr[0] >= d || pr[1] < 0 || pr[1] >= d {
			return nil, gp.Mismatch("pair (%d, %d) outside %d inputs", pr[0], pr[1], d)
		}
		xte := crossGrid(grid, ngrid, pr)
		xp := columns(x, pr[:])
		cp := []bool{cat[pr[0]], cat[pr[1]]}
		gx, err := NewCross(xte, xp, cp)
		if err != nil {
			return nil, err
		}
		gg, err := NewSelf(xte, cp)
		if err != nil {
			return nil, err
		}
		c.PairGridX = append(c.PairGridX, gx)
		c.PairGrid = append(c.PairGrid, gg)
	}
	return c, nil
}

func columns(a mat.Matrix, idx []int) *mat.Dense {
	r, _ := a.Dims()
	out := mat.NewDense(r, len(idx), nil)
	for i := 0; i < r; i++ {
		for j, k := range idx {
			out.Set(i, j, a.At(i, k))
		}
	}
	return out
}

// crossGrid lays out every (grid[a, pr0], grid[b, pr1]) combination at row
// a*ngrid + b.
func crossGrid(grid mat.Matrix, ngrid int, pr [2]int) *mat.Dense {
	out := mat.NewDense(ngrid*ngrid, 2, nil)
	for a := 0; a < ngrid; a++ {
		for b := 0; b < ngrid; b++ {
			out.Set(a*ngrid+b, 0, grid.At(a, pr[0]))
			out.Set(a*ngrid+b, 1, grid.At(b, pr[1]))
		}
	}
	return out
}
