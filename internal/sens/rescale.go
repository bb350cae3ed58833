package sens

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// scale maps component-space effects back to the native output scale through
// the basis k (components x outputs) and the output mean and sd.
type scale struct {
	k    [][]float64
	mean []float64
	sd   []float64
}

func (s scale) outputs() int { return len(s.mean) }

func (s scale) totalMean(sa []ComponentResult) []float64 {
	out := make([]float64, s.outputs())
	for y := range out {
		acc := 0.0
		for jj, c := range sa {
			acc += s.k[jj][y] * stat.Mean(c.E0, nil)
		}
		out[y] = acc*s.sd[y] + s.mean[y]
	}
	return out
}

// mainEffects rescales the per-component main effects and combines them into
// totals over components.
func (s scale) mainEffects(sa []ComponentResult, nv, ngrid int) (mefM, mefSD [][][][]float64, tmefM, tmefSD [][][]float64) {
	pu, ny, nd := len(sa), s.outputs(), len(sa[0].MefM)
	col := make([]float64, nd)

	mefM = alloc4(pu, nv, ny, ngrid)
	mefSD = alloc4(pu, nv, ny, ngrid)
	acc := alloc3(nv, ny, ngrid)
	for jj, c := range sa {
		for kk := 0; kk < nv; kk++ {
			for g := 0; g < ngrid; g++ {
				for d := range col {
					col[d] = c.MefM[d][kk][g]
				}
				mu, v := stat.PopMeanVariance(col, nil)
				for d := range col {
					col[d] = c.MefV[d][kk][g]
				}
				mv := stat.Mean(col, nil)
				for y := 0; y < ny; y++ {
					k2 := s.k[jj][y] * s.k[jj][y]
					mefM[jj][kk][y][g] = s.k[jj][y]*mu*s.sd[y] + s.mean[y]
					mefSD[jj][kk][y][g] = sqrtPos(k2*v+k2*mv) * s.sd[y]
					acc[kk][y][g] += k2 * mv
				}
			}
		}
	}

	tmefM = alloc3(nv, ny, ngrid)
	for kk := 0; kk < nv; kk++ {
		for y := 0; y < ny; y++ {
			for g := 0; g < ngrid; g++ {
				t := 0.0
				for jj := 0; jj < pu; jj++ {
					t += mefM[jj][kk][y][g]
				}
				tmefM[kk][y][g] = t - float64(pu-1)*s.mean[y]
			}
		}
	}

	// The running combination tmp carries over from one output to the next.
	tmp := alloc3(nv, nd, ngrid)
	for ii := 0; ii < ny; ii++ {
		for kk := 0; kk < nv; kk++ {
			for jj, c := range sa {
				kv := s.k[jj][ii]
				for d := 0; d < nd; d++ {
					for g := 0; g < ngrid; g++ {
						tmp[kk][d][g] += kv * c.MefM[d][kk][g]
					}
				}
			}
			for g := 0; g < ngrid; g++ {
				for d := range col {
					col[d] = tmp[kk][d][g]
				}
				acc[kk][ii][g] += stat.PopVariance(col, nil)
			}
		}
	}

	tmefSD = alloc3(nv, ny, ngrid)
	for kk := range acc {
		for y := range acc[kk] {
			for g, v := range acc[kk][y] {
				tmefSD[kk][y][g] = sqrtPos(v) * s.sd[y]
			}
		}
	}
	return mefM, mefSD, tmefM, tmefSD
}

// jointEffects rescales the per-component joint effects. Output y of grid
// point (a, b) lands at row b*ny+y, column a.
func (s scale) jointEffects(sa []ComponentResult, npairs, ngrid int) (jefM, jefSD [][][][]float64, tjefM, tjefSD [][][]float64) {
	pu, ny, nd := len(sa), s.outputs(), len(sa[0].JefM)
	rows := ngrid * ny
	col := make([]float64, nd)

	jefM = alloc4(pu, npairs, rows, ngrid)
	jefSD = alloc4(pu, npairs, rows, ngrid)
	acc := alloc3(npairs, rows, ngrid)
	for jj, c := range sa {
		for kk := 0; kk < npairs; kk++ {
			for a := 0; a < ngrid; a++ {
				for b := 0; b < ngrid; b++ {
					for d := range col {
						col[d] = c.JefM[d][kk][a][b]
					}
					mu, v := stat.PopMeanVariance(col, nil)
					for d := range col {
						col[d] = c.JefV[d][kk][a][b]
					}
					mv := stat.Mean(col, nil)
					for y := 0; y < ny; y++ {
						row := b*ny + y
						k2 := s.k[jj][y] * s.k[jj][y]
						jefM[jj][kk][row][a] = mu*s.k[jj][y]*s.sd[y] + s.mean[y]
						jefSD[jj][kk][row][a] = sqrtPos(k2*v+k2*mv) * s.sd[y]
						acc[kk][row][a] += mv * k2
					}
				}
			}
		}
	}

	tjefM = alloc3(npairs, rows, ngrid)
	for kk := 0; kk < npairs; kk++ {
		for r := 0; r < rows; r++ {
			for a := 0; a < ngrid; a++ {
				t := 0.0
				for jj := 0; jj < pu; jj++ {
					t += jefM[jj][kk][r][a]
				}
				tjefM[kk][r][a] = t - float64(pu-1)*s.mean[r%ny]
			}
		}
	}

	// tmp carries over across grid rows and outputs, and the variance of grid
	// row hh is credited to row (hh-1)*ny+ii, wrapping at the first row.
	tmp := alloc3(npairs, nd, ngrid)
	for hh := 0; hh < ngrid; hh++ {
		for ii := 0; ii < ny; ii++ {
			row := (((hh-1)*ny+ii)%rows + rows) % rows
			for kk := 0; kk < npairs; kk++ {
				for jj, c := range sa {
					kv := s.k[jj][ii]
					for d := 0; d < nd; d++ {
						for g := 0; g < ngrid; g++ {
							tmp[kk][d][g] += kv * c.JefM[d][kk][hh][g]
						}
					}
				}
				for g := 0; g < ngrid; g++ {
					for d := range col {
						col[d] = tmp[kk][d][g]
					}
					acc[kk][row][g] += stat.PopVariance(col, nil)
				}
			}
		}
	}

	tjefSD = alloc3(npairs, rows, ngrid)
	for kk := range acc {
		for r := range acc[kk] {
			for a, v := range acc[kk][r] {
				tjefSD[kk][r][a] = sqrtPos(v) * s.sd[r%ny]
			}
		}
	}
	return jefM, jefSD, tjefM, tjefSD
}

// sqrtPos treats round-off negatives as zero variance.
func sqrtPos(v float64) float64 {
	if v < 0 {
		return 0
	}
	return math.Sqrt(v)
}

func alloc3(a, b, c int) [][][]float64 {
	out := make([][][]float64, a)
	for i := range out {
		out[i] = make([][]float64, b)
		for j := range out[i] {
			out[i][j] = make([]float64, c)
		}
	}
	return out
}

func alloc4(a, b, c, d int) [][][][]float64 {
	out := make([][][][]float64, a)
	for i := range out {
		out[i] = alloc3(b, c, d)
	}
	return out
}
