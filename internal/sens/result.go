package sens

// Result is the outcome of one sensitivity analysis. Input indices refer to
// the active inputs listed in Active. Draw-indexed fields have one row per
// analysed draw; the Pm fields are their means over draws.
type Result struct {
	Mode      string       `json:"mode"`
	Active    []int        `json:"active"`
	Ranges    [][2]float64 `json:"ranges"`
	Grid      [][]float64  `json:"grid"` // active input x grid point
	Pairs     [][2]int     `json:"pairs,omitempty"`
	JointSets [][]int      `json:"joint_sets,omitempty"`
	Outputs   int          `json:"outputs"`
	Draws     int          `json:"draws"`

	Sme   [][]float64 `json:"sme"`
	SmePm []float64   `json:"sme_pm"`
	Ste   [][]float64 `json:"ste"`
	StePm []float64   `json:"ste_pm"`
	Sie   [][]float64 `json:"sie,omitempty"`
	SiePm []float64   `json:"sie_pm,omitempty"`
	Sje   [][]float64 `json:"sje,omitempty"`
	SjePm []float64   `json:"sje_pm,omitempty"`

	TotalVar  []float64 `json:"total_var"`
	TotalMean []float64 `json:"total_mean"`

	// Main effects: component x input x output x grid point, and the totals
	// over components as input x output x grid point.
	MefM   [][][][]float64 `json:"mef_m"`
	MefSD  [][][][]float64 `json:"mef_sd"`
	TmefM  [][][]float64   `json:"tmef_m"`
	TmefSD [][][]float64   `json:"tmef_sd"`

	// Joint effects: component x pair x (grid*outputs) x grid point. Row
	// b*Outputs+y, column a holds the effect at grid point a of the first
	// input and b of the second, for output y.
	JefM   [][][][]float64 `json:"jef_m,omitempty"`
	JefSD  [][][][]float64 `json:"jef_sd,omitempty"`
	TjefM  [][][]float64   `json:"tjef_m,omitempty"`
	TjefSD [][][]float64   `json:"tjef_sd,omitempty"`

	Components []ComponentResult `json:"components"`
}

// MainEffect returns the total main-effect mean and standard deviation curves
// of active input k for output y.
func (r *Result) MainEffect(k, y int) (mean, sd []float64) {
	return r.TmefM[k][y], r.TmefSD[k][y]
}

// JointEffect returns the total joint-effect surface of pair kk for output y
// as grid x grid matrices indexed [a][b].
func (r *Result) JointEffect(kk, y int) (mean, sd [][]float64) {
	n := len(r.Grid[0])
	mean = make([][]float64, n)
	sd = make([][]float64, n)
	for a := 0; a < n; a++ {
		mean[a] = make([]float64, n)
		sd[a] = make([]float64, n)
		for b := 0; b < n; b++ {
			mean[a][b] = r.TjefM[kk][b*r.Outputs+y][a]
			sd[a][b] = r.TjefSD[kk][b*r.Outputs+y][a]
		}
	}
	return mean, sd
}
