package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/gpsens/internal/sens"
)

// MainEffectSVG draws the total main-effect curve of active input k for
// output y, with a shaded band of two standard deviations either side.
func MainEffectSVG(res *sens.Result, k, y, width, height int, strokeColor string) (string, error) {
	if k < 0 || k >= len(res.TmefM) {
		return "", fmt.Errorf("input %d out of range (%d active inputs)", k, len(res.TmefM))
	}
	if y < 0 || y >= res.Outputs {
		return "", fmt.Errorf("output %d out of range (%d outputs)", y, res.Outputs)
	}
	mean, sd := res.MainEffect(k, y)
	grid := res.Grid[k]
	if len(mean) < 2 {
		return "", fmt.Errorf("main effect has %d grid points, need at least 2", len(mean))
	}

	// Find bounds
	minX, maxX := grid[0], grid[len(grid)-1]
	minY, maxY := math.Inf(1), math.Inf(-1)
	for g := range mean {
		minY = math.Min(minY, mean[g]-2*sd[g])
		maxY = math.Max(maxY, mean[g]+2*sd[g])
	}

	// Add padding
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeY = maxY - minY

	px := func(x float64) float64 { return (x - minX) / rangeX * float64(width) }
	py := func(v float64) float64 { return float64(height) - (v-minY)/rangeY*float64(height) }

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<polygon fill="%s" fill-opacity="0.25" points="`,
		width, height, width, height, strokeColor))

	for g := range mean {
		sb.WriteString(fmt.Sprintf("%.1f,%.1f ", px(grid[g]), py(mean[g]+2*sd[g])))
	}
	for g := len(mean) - 1; g >= 0; g-- {
		sb.WriteString(fmt.Sprintf("%.1f,%.1f ", px(grid[g]), py(mean[g]-2*sd[g])))
	}

	sb.WriteString(fmt.Sprintf(`"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`, strokeColor))

	for g := range mean {
		if g == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", px(grid[g]), py(mean[g])))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", px(grid[g]), py(mean[g])))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String(), nil
}

// JointEffectSVG draws the total joint-effect surface of pair kk for output y
// as a heatmap with one square cell of the given size per grid point. The
// first input of the pair runs left to right, the second bottom to top.
func JointEffectSVG(res *sens.Result, kk, y, cell int) (string, error) {
	if kk < 0 || kk >= len(res.TjefM) {
		return "", fmt.Errorf("pair %d out of range (%d pairs)", kk, len(res.TjefM))
	}
	if y < 0 || y >= res.Outputs {
		return "", fmt.Errorf("output %d out of range (%d outputs)", y, res.Outputs)
	}
	mean, _ := res.JointEffect(kk, y)
	n := len(mean)
	size := n * cell

	lo, hi := math.Inf(1), math.Inf(-1)
	for a := range mean {
		for _, v := range mean[a] {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<g stroke="none">
`, size, size, size, size))

	for a := 0; a < n; a++ {
		for b := 0; b < n; b++ {
			sb.WriteString(fmt.Sprintf(`<rect x="%d" y="%d" width="%d" height="%d" fill="%s"/>
`, a*cell, (n-1-b)*cell, cell, cell, shade((mean[a][b]-lo)/rng)))
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String(), nil
}

// shade maps t in [0, 1] from dark blue to amber.
func shade(t float64) string {
	t = math.Max(0, math.Min(1, t))
	from := [3]float64{0x0a, 0x0a, 0x40}
	to := [3]float64{0xff, 0xcc, 0x00}
	var c [3]int
	for i := range c {
		c[i] = int(from[i] + t*(to[i]-from[i]) + 0.5)
	}
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}
