package sens_test

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/gpsens/internal/experiment"
	"github.com/san-kum/gpsens/internal/sens"
)

var update = flag.Bool("update", false, "rewrite golden files")

type snapshot struct {
	SmePm     []float64     `json:"sme_pm"`
	StePm     []float64     `json:"ste_pm"`
	SiePm     []float64     `json:"sie_pm"`
	TotalVar  []float64     `json:"total_var"`
	TotalMean []float64     `json:"total_mean"`
	TmefM     [][][]float64 `json:"tmef_m"`
	TmefSD    [][][]float64 `json:"tmef_sd"`
	TjefM     [][][]float64 `json:"tjef_m"`
	TjefSD    [][][]float64 `json:"tjef_sd"`
}

func snapshotOf(res *sens.Result) snapshot {
	return snapshot{
		SmePm:     res.SmePm,
		StePm:     res.StePm,
		SiePm:     res.SiePm,
		TotalVar:  res.TotalVar,
		TotalMean: res.TotalMean,
		TmefM:     res.TmefM,
		TmefSD:    res.TmefSD,
		TjefM:     res.TjefM,
		TjefSD:    res.TjefSD,
	}
}

// additiveSeed42 is the synthetic additive experiment with a fixed seed.
func additiveSeed42(t *testing.T) *experiment.Run {
	t.Helper()
	fn, err := experiment.NewRegistry().Get("additive")
	require.NoError(t, err)
	run, err := experiment.New(experiment.Config{
		Function: "additive",
		Runs:     30,
		Draws:    10,
		Jitter:   0.1,
		LamUz:    1,
		LamWs:    1000,
		NPC:      0.995,
		Seed:     42,
	}, fn).Run(context.Background())
	require.NoError(t, err)
	return run
}

func TestGoldenAdditiveSeed42(t *testing.T) {
	run := additiveSeed42(t)

	res, err := sens.Sensitivity(context.Background(), run.Model,
		sens.WithGrid(21),
		sens.WithMode(sens.Mean),
		sens.WithAllPairs(),
	)
	require.NoError(t, err)
	checkGolden(t, "additive_seed42_mean", snapshotOf(res))
}

// The basis rescaling accumulates the main and joint effect combinations
// across outputs, so several outputs and draws are needed to pin it.
func TestGoldenBasisRescale(t *testing.T) {
	run := additiveSeed42(t)

	m := *run.Model
	mean, sd := run.Model.YMean[0], run.Model.YSD[0]
	m.K = [][]float64{{1, 0.5, -0.25}}
	m.YMean = []float64{mean, mean + 1, mean - 1}
	m.YSD = []float64{sd, 2 * sd, 0.5 * sd}

	res, err := sens.Sensitivity(context.Background(), &m,
		sens.WithGrid(5),
		sens.WithMode(sens.AllSamples),
		sens.WithAllPairs(),
	)
	require.NoError(t, err)
	require.Equal(t, 3, res.Outputs)
	checkGolden(t, "additive_seed42_basis", snapshotOf(res))
}

func checkGolden(t *testing.T, name string, got snapshot) {
	t.Helper()
	path := filepath.Join("testdata", name+".golden.json")
	if *update {
		require.NoError(t, os.MkdirAll("testdata", 0o755))
		data, err := json.MarshalIndent(got, "", "  ")
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, data, 0o644))
		return
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err, "golden file missing; run go test -update to create %s", path)
	var want snapshot
	require.NoError(t, json.Unmarshal(data, &want))

	assertClose(t, "sme_pm", want.SmePm, got.SmePm)
	assertClose(t, "ste_pm", want.StePm, got.StePm)
	assertClose(t, "sie_pm", want.SiePm, got.SiePm)
	assertClose(t, "total_var", want.TotalVar, got.TotalVar)
	assertClose(t, "total_mean", want.TotalMean, got.TotalMean)
	assertClose3(t, "tmef_m", want.TmefM, got.TmefM)
	assertClose3(t, "tmef_sd", want.TmefSD, got.TmefSD)
	assertClose3(t, "tjef_m", want.TjefM, got.TjefM)
	assertClose3(t, "tjef_sd", want.TjefSD, got.TjefSD)
}

// assertClose compares to 1e-8, relative for values above one. Different
// summation orders in the linear algebra move results by about 1e-11.
func assertClose(t *testing.T, field string, want, got []float64) {
	t.Helper()
	require.Len(t, got, len(want), field)
	for i := range want {
		tol := 1e-8 * math.Max(1, math.Abs(want[i]))
		assert.InDelta(t, want[i], got[i], tol, "%s[%d]", field, i)
	}
}

func assertClose3(t *testing.T, field string, want, got [][][]float64) {
	t.Helper()
	require.Len(t, got, len(want), field)
	for a := range want {
		require.Len(t, got[a], len(want[a]), "%s[%d]", field, a)
		for b := range want[a] {
			assertClose(t, fmt.Sprintf("%s[%d][%d]", field, a, b), want[a][b], got[a][b])
		}
	}
}
