package storage

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/san-kum/gpsens/internal/sens"
)

func format(v float64) string {
	return strconv.FormatFloat(v, 'g', 10, 64)
}

// IndexRecords lays out the posterior-mean indices as kind,inputs,value rows.
func IndexRecords(res *sens.Result, names []string) [][]string {
	records := [][]string{{"kind", "inputs", "value"}}
	for k, v := range res.SmePm {
		records = append(records, []string{"main", names[k], format(v)})
	}
	for k, v := range res.StePm {
		records = append(records, []string{"total", names[k], format(v)})
	}
	for k, v := range res.SiePm {
		pr := res.Pairs[k]
		records = append(records, []string{"interaction", names[pr[0]] + ":" + names[pr[1]], format(v)})
	}
	for k, v := range res.SjePm {
		set := make([]string, len(res.JointSets[k]))
		for i, j := range res.JointSets[k] {
			set[i] = names[j]
		}
		records = append(records, []string{"joint", strings.Join(set, ":"), format(v)})
	}
	return records
}

// MainEffectRecords lays out the total main-effect curves with one row per
// input, output and grid point.
func MainEffectRecords(res *sens.Result, names []string) [][]string {
	records := [][]string{{"input", "output", "x", "mean", "sd"}}
	for k := range res.TmefM {
		for y := range res.TmefM[k] {
			for g, x := range res.Grid[k] {
				records = append(records, []string{
					names[k],
					strconv.Itoa(y),
					format(x),
					format(res.TmefM[k][y][g]),
					format(res.TmefSD[k][y][g]),
				})
			}
		}
	}
	return records
}

type ExportData struct {
	Run    *RunMetadata `json:"run"`
	Result *sens.Result `json:"result"`
}

func ExportJSON(path string, meta *RunMetadata, res *sens.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return encode(file, meta, res)
}

func ExportJSONStdout(meta *RunMetadata, res *sens.Result) error {
	return encode(os.Stdout, meta, res)
}

func encode(w io.Writer, meta *RunMetadata, res *sens.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(ExportData{Run: meta, Result: res})
}

// ExportCSV writes the main-effect curves of a run to path.
func ExportCSV(path string, meta *RunMetadata, res *sens.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.WriteAll(MainEffectRecords(res, meta.ActiveNames())); err != nil {
		return err
	}
	return nil
}
