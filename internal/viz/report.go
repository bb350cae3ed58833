package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/gpsens/internal/sens"
)

const (
	nameWidth  = 14
	valueWidth = 10
	barWidth   = 20
	curveWidth = 16
)

// IndexTable renders the posterior-mean indices of a result: one row per
// active input with its main and total index, followed by the interaction
// and joint indices when present.
func IndexTable(res *sens.Result, names []string) string {
	var sb strings.Builder

	sb.WriteString(Title.Render(fmt.Sprintf("sensitivity (%s, %d draws, %d outputs)", res.Mode, res.Draws, res.Outputs)))
	sb.WriteString("\n\n")

	sb.WriteString(HeaderStyle.Render(
		pad("input", nameWidth) + pad("main", valueWidth) + pad("total", valueWidth) +
			pad("total", barWidth+2) + "main effect"))
	sb.WriteString("\n")

	for k := range res.SmePm {
		sb.WriteString(InputLabel.Width(nameWidth).Render(names[k]))
		sb.WriteString(IndexValue.Width(valueWidth).Render(fmt.Sprintf("%.4f", res.SmePm[k])))
		sb.WriteString(IndexValue.Width(valueWidth).Render(fmt.Sprintf("%.4f", res.StePm[k])))
		sb.WriteString(IndexBar(res.StePm[k], barWidth))
		sb.WriteString("  ")
		if k < len(res.TmefM) && len(res.TmefM[k]) > 0 {
			sb.WriteString(Sparkline(res.TmefM[k][0], curveWidth))
		}
		sb.WriteString("\n")
	}

	if len(res.SiePm) > 0 {
		sb.WriteString("\n")
		sb.WriteString(Separator(nameWidth + 2*valueWidth + barWidth))
		sb.WriteString("\n")
		for kk, v := range res.SiePm {
			pr := res.Pairs[kk]
			sb.WriteString(InputLabel.Width(nameWidth + valueWidth).Render(names[pr[0]] + " × " + names[pr[1]]))
			sb.WriteString(IndexValue.Width(valueWidth).Render(fmt.Sprintf("%.4f", v)))
			sb.WriteString(IndexBar(v, barWidth))
			sb.WriteString("\n")
		}
	}

	if len(res.SjePm) > 0 {
		sb.WriteString("\n")
		sb.WriteString(Separator(nameWidth + 2*valueWidth + barWidth))
		sb.WriteString("\n")
		for kk, v := range res.SjePm {
			set := make([]string, len(res.JointSets[kk]))
			for i, j := range res.JointSets[kk] {
				set[i] = names[j]
			}
			sb.WriteString(InputLabel.Width(nameWidth + valueWidth).Render("{" + strings.Join(set, ", ") + "}"))
			sb.WriteString(IndexValue.Width(valueWidth).Render(fmt.Sprintf("%.4f", v)))
			sb.WriteString(IndexBar(v, barWidth))
			sb.WriteString("\n")
		}
	}

	for d, tv := range res.TotalVar {
		if tv <= 0 {
			sb.WriteString(Warning.Render(fmt.Sprintf("draw %d has no explained variance", d)))
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// MainEffectPlot draws the total main-effect curve of active input k for
// output y with a band of two standard deviations either side.
func MainEffectPlot(res *sens.Result, names []string, k, y int) (string, error) {
	if k < 0 || k >= len(res.TmefM) {
		return "", fmt.Errorf("input %d out of range (%d active inputs)", k, len(res.TmefM))
	}
	if y < 0 || y >= res.Outputs {
		return "", fmt.Errorf("output %d out of range (%d outputs)", y, res.Outputs)
	}

	mean, sd := res.MainEffect(k, y)
	if len(mean) < 2 {
		return "", fmt.Errorf("main effect of %s has %d grid points, need at least 2", names[k], len(mean))
	}

	lo := make([]float64, len(mean))
	hi := make([]float64, len(mean))
	for g := range mean {
		lo[g] = mean[g] - 2*sd[g]
		hi[g] = mean[g] + 2*sd[g]
	}

	grid := res.Grid[k]
	caption := fmt.Sprintf("main effect of %s on output %d, %s in [%.3g, %.3g]",
		names[k], y, names[k], grid[0], grid[len(grid)-1])

	return asciigraph.PlotMany([][]float64{lo, mean, hi},
		asciigraph.Height(10),
		asciigraph.Width(60),
		asciigraph.Caption(caption),
	), nil
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
