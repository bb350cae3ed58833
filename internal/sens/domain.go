package sens

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/gpsens/internal/gp"
)

// domain is the box the analysis integrates over, restricted to the inputs
// whose range has positive width.
type domain struct {
	active []int
	ranges [][2]float64
	diff   []float64
	grid   *mat.Dense // ngrid x len(active)
}

func newDomain(nv int, rg [][2]float64, ngrid int) (*domain, error) {
	if rg == nil {
		rg = make([][2]float64, nv)
		for i := range rg {
			rg[i] = [2]float64{0, 1}
		}
	}
	if len(rg) != nv {
		return nil, gp.Mismatch("ranges have %d rows, inputs %d", len(rg), nv)
	}

	d := &domain{}
	for i, r := range rg {
		if r[1] < r[0] {
			return nil, gp.Mismatch("range %d has min %g > max %g", i, r[0], r[1])
		}
		if r[0] == r[1] {
			continue
		}
		d.active = append(d.active, i)
		d.ranges = append(d.ranges, r)
		d.diff = append(d.diff, r[1]-r[0])
	}
	if len(d.active) == 0 {
		return nil, gp.ErrEmptyDomain
	}

	d.grid = mat.NewDense(ngrid, len(d.active), nil)
	for k, r := range d.ranges {
		d.grid.SetCol(k, linspace(r[0], r[1], ngrid))
	}
	return d, nil
}

// linspace returns n evenly spaced points from lo to hi inclusive.
func linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = lo
		return out
	}
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}

// allPairs lists every unordered pair of [0, nv) in lexicographic order.
func allPairs(nv int) [][2]int {
	var out [][2]int
	for i := 0; i < nv; i++ {
		for j := i + 1; j < nv; j++ {
			out = append(out, [2]int{i, j})
		}
	}
	return out
}

func checkPairs(pairs [][2]int, nv int) error {
	for _, p := range pairs {
		if p[0] < 0 || p[0] >= nv || p[1] < 0 || p[1] >= nv {
			return gp.Mismatch("pair (%d, %d) outside %d active inputs", p[0], p[1], nv)
		}
		if p[0] == p[1] {
			return fmt.Errorf("%w: pair (%d, %d) repeats an input", gp.ErrInvalidOption, p[0], p[1])
		}
	}
	return nil
}

func checkJointSets(sets [][]int, nv int) error {
	for i, s := range sets {
		if len(s) == 0 {
			return fmt.Errorf("%w: joint set %d is empty", gp.ErrInvalidOption, i)
		}
		seen := make(map[int]bool, len(s))
		for _, k := range s {
			if k < 0 || k >= nv {
				return gp.Mismatch("joint set %d index %d outside %d active inputs", i, k, nv)
			}
			if seen[k] {
				return fmt.Errorf("%w: joint set %d repeats input %d", gp.ErrInvalidOption, i, k)
			}
			seen[k] = true
		}
	}
	return nil
}
