package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/gpsens/internal/sens"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
	Seed      int64     `json:"seed"`
	Mode      string    `json:"mode"`
	Grid      int       `json:"ngrid"`
	Draws     int       `json:"draws"`
	Outputs   int       `json:"outputs"`
	Inputs    []string  `json:"inputs"`
	Active    []int     `json:"active"`
	SmePm     []float64 `json:"sme_pm"`
	StePm     []float64 `json:"ste_pm"`
	Elapsed   float64   `json:"elapsed_seconds"`
}

// ActiveNames returns the names of the active inputs.
func (m *RunMetadata) ActiveNames() []string {
	names := make([]string, len(m.Active))
	for k, i := range m.Active {
		if i < len(m.Inputs) {
			names[k] = m.Inputs[i]
		} else {
			names[k] = fmt.Sprintf("v%d", i+1)
		}
	}
	return names
}

// Save writes a run directory holding metadata.json, indices.csv,
// main_effects.csv and result.json, and returns the run ID.
func (s *Store) Save(meta RunMetadata, result *sens.Result) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%s_%s", slug(meta.Source), now.Format("20060102-150405"), uuid.NewString()[:8])
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = now
	meta.Mode = result.Mode
	meta.Draws = result.Draws
	meta.Outputs = result.Outputs
	meta.Active = result.Active
	meta.SmePm = result.SmePm
	meta.StePm = result.StePm
	if len(result.Grid) > 0 {
		meta.Grid = len(result.Grid[0])
	}

	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "result.json"), result); err != nil {
		return "", err
	}
	if err := writeCSV(filepath.Join(runDir, "indices.csv"), IndexRecords(result, meta.ActiveNames())); err != nil {
		return "", err
	}
	if err := writeCSV(filepath.Join(runDir, "main_effects.csv"), MainEffectRecords(result, meta.ActiveNames())); err != nil {
		return "", err
	}
	return runID, nil
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadResult(runID string) (*sens.Result, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "result.json"))
	if err != nil {
		return nil, err
	}

	var res sens.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// IndexRow is one line of indices.csv.
type IndexRow struct {
	Kind   string
	Inputs string
	Value  float64
}

func (s *Store) LoadIndices(runID string) ([]IndexRow, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "indices.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	rows := make([]IndexRow, 0, len(records))
	for i := 1; i < len(records); i++ {
		record := records[i]
		if len(record) < 3 {
			continue
		}
		v, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			continue
		}
		rows = append(rows, IndexRow{Kind: record[0], Inputs: record[1], Value: v})
	}
	return rows, nil
}

func writeJSON(path string, v any) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCSV(path string, records [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.WriteAll(records); err != nil {
		return err
	}
	return file.Sync()
}

func slug(s string) string {
	base := strings.TrimSuffix(filepath.Base(s), filepath.Ext(s))
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "_" || base == "." {
		return "run"
	}
	return base
}
