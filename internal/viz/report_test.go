package viz

import (
	"strings"
	"testing"

	"github.com/san-kum/gpsens/internal/sens"
)

func testResult() *sens.Result {
	return &sens.Result{
		Mode:      "samples",
		Active:    []int{0, 1},
		Grid:      [][]float64{{0, 0.5, 1}, {0, 0.5, 1}},
		Pairs:     [][2]int{{0, 1}},
		JointSets: [][]int{{0, 1}},
		Outputs:   1,
		Draws:     3,
		SmePm:     []float64{0.6125, 0.25},
		StePm:     []float64{0.75, 0.3875},
		SiePm:     []float64{0.1375},
		SjePm:     []float64{1},
		TotalVar:  []float64{2},
		TmefM:     [][][]float64{{{-1, 0, 1}}, {{0.5, 0, 0.5}}},
		TmefSD:    [][][]float64{{{0.1, 0.1, 0.1}}, {{0, 0, 0}}},
	}
}

func TestIndexTable(t *testing.T) {
	out := IndexTable(testResult(), []string{"x1", "t1"})

	for _, want := range []string{"samples", "x1", "t1", "0.6125", "0.3875", "x1 × t1", "0.1375", "{x1, t1}", "1.0000"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "no explained variance") {
		t.Error("unexpected variance warning")
	}
}

func TestIndexTable_ZeroVariance(t *testing.T) {
	res := testResult()
	res.TotalVar = []float64{0}
	res.SiePm, res.SjePm = nil, nil

	out := IndexTable(res, []string{"x1", "t1"})
	if !strings.Contains(out, "draw 0 has no explained variance") {
		t.Errorf("expected variance warning:\n%s", out)
	}
	if strings.Contains(out, "×") {
		t.Error("interaction section rendered without interactions")
	}
}

func TestIndexBar(t *testing.T) {
	tests := []struct {
		v    float64
		full int
	}{
		{0, 0},
		{0.5, 5},
		{1, 10},
		{1.7, 10},
		{-0.2, 0},
	}
	for _, tt := range tests {
		bar := IndexBar(tt.v, 10)
		if got := strings.Count(bar, "█"); got != tt.full {
			t.Errorf("IndexBar(%v): expected %d filled cells, got %d", tt.v, tt.full, got)
		}
		if got := strings.Count(bar, "█") + strings.Count(bar, "░"); got != 10 {
			t.Errorf("IndexBar(%v): expected width 10, got %d", tt.v, got)
		}
	}
}

func TestSparkline(t *testing.T) {
	line := Sparkline([]float64{0, 1, 2, 3}, 4)
	if !strings.Contains(line, "▁") || !strings.Contains(line, "█") {
		t.Errorf("expected lowest and highest blocks, got %q", line)
	}
	if got := Sparkline(nil, 3); got != "───" {
		t.Errorf("expected empty line, got %q", got)
	}
}

func TestMainEffectPlot(t *testing.T) {
	res := testResult()

	out, err := MainEffectPlot(res, []string{"x1", "t1"}, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "main effect of x1 on output 0") {
		t.Errorf("missing caption:\n%s", out)
	}

	if _, err := MainEffectPlot(res, []string{"x1", "t1"}, 2, 0); err == nil {
		t.Error("expected error for input out of range")
	}
	if _, err := MainEffectPlot(res, []string{"x1", "t1"}, 0, 1); err == nil {
		t.Error("expected error for output out of range")
	}

	res.TmefM[1][0] = []float64{0.5}
	res.TmefSD[1][0] = []float64{0}
	if _, err := MainEffectPlot(res, []string{"x1", "t1"}, 1, 0); err == nil {
		t.Error("expected error for a single grid point")
	}
}
