package config

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/gpsens/internal/experiment"
	"github.com/san-kum/gpsens/internal/gp"
	"github.com/san-kum/gpsens/internal/sens"
)

const (
	DefaultGrid     = sens.DefaultGrid
	DefaultOption   = "mean"
	DefaultLogLevel = "info"
	DefaultStore    = ".gpsens"
)

type Config struct {
	Model      string            `yaml:"model"`
	Samples    string            `yaml:"samples,omitempty"`
	Grid       int               `yaml:"ngrid"`
	Option     string            `yaml:"option"`
	Fixed      FixedConfig       `yaml:"fixed,omitempty"`
	Pairs      Pairs             `yaml:"pairs,omitempty"`
	JointSets  [][]int           `yaml:"joint_sets,omitempty"`
	Ranges     [][]float64       `yaml:"ranges,omitempty"`
	Workers    int               `yaml:"workers"`
	Seed       int64             `yaml:"seed"`
	LogLevel   string            `yaml:"log_level"`
	Store      string            `yaml:"store"`
	Experiment experiment.Config `yaml:"experiment"`
}

// FixedConfig holds the parameter sets for option "fixed", one row per
// draw: betaU rows have (p+q)*pu entries, lamUz and lamWs rows have pu.
type FixedConfig struct {
	BetaU Rows `yaml:"betaU,omitempty"`
	LamUz Rows `yaml:"lamUz,omitempty"`
	LamWs Rows `yaml:"lamWs,omitempty"`
}

func (f FixedConfig) Samples() gp.Samples {
	return gp.Samples{
		BetaU: [][]float64(f.BetaU),
		LamUz: [][]float64(f.LamUz),
		LamWs: [][]float64(f.LamWs),
	}
}

// Rows is a draws x columns table. A flat list is read as a single draw.
type Rows [][]float64

func (r *Rows) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.SequenceNode && len(n.Content) > 0 && n.Content[0].Kind == yaml.ScalarNode {
		var row []float64
		if err := n.Decode(&row); err != nil {
			return err
		}
		*r = Rows{row}
		return nil
	}
	var rows [][]float64
	if err := n.Decode(&rows); err != nil {
		return err
	}
	*r = rows
	return nil
}

// Pairs is either the literal "all" or a list of input pairs.
type Pairs struct {
	All  bool
	List [][2]int
}

func (p *Pairs) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		if strings.EqualFold(n.Value, "all") {
			p.All = true
			p.List = nil
			return nil
		}
		return fmt.Errorf("pairs: expected \"all\" or a list, got %q", n.Value)
	}
	var raw [][]int
	if err := n.Decode(&raw); err != nil {
		return err
	}
	p.All = false
	p.List = make([][2]int, len(raw))
	for i, r := range raw {
		if len(r) != 2 {
			return fmt.Errorf("pairs: entry %d has %d indices, want 2", i, len(r))
		}
		p.List[i] = [2]int{r[0], r[1]}
	}
	return nil
}

func (p Pairs) MarshalYAML() (any, error) {
	if p.All {
		return "all", nil
	}
	raw := make([][]int, len(p.List))
	for i, pr := range p.List {
		raw[i] = []int{pr[0], pr[1]}
	}
	return raw, nil
}

func (p Pairs) IsZero() bool { return !p.All && len(p.List) == 0 }

func DefaultConfig() *Config {
	return &Config{
		Grid:       DefaultGrid,
		Option:     DefaultOption,
		LogLevel:   DefaultLogLevel,
		Store:      DefaultStore,
		Seed:       42,
		Experiment: experiment.DefaultConfig(),
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Options translates the analysis settings into sensitivity options.
func (c *Config) Options(log *zap.Logger) ([]sens.Option, error) {
	opts := []sens.Option{
		sens.WithGrid(c.Grid),
		sens.WithWorkers(c.Workers),
		sens.WithLogger(log),
	}

	if strings.EqualFold(c.Option, "fixed") {
		opts = append(opts, sens.WithMode(sens.Fixed(c.Fixed.Samples())))
	} else {
		mode, err := sens.ParseMode(c.Option)
		if err != nil {
			return nil, err
		}
		opts = append(opts, sens.WithMode(mode))
	}

	switch {
	case c.Pairs.All:
		opts = append(opts, sens.WithAllPairs())
	case len(c.Pairs.List) > 0:
		opts = append(opts, sens.WithPairs(c.Pairs.List))
	}
	if len(c.JointSets) > 0 {
		opts = append(opts, sens.WithJointSets(c.JointSets))
	}

	if len(c.Ranges) > 0 {
		rg := make([][2]float64, len(c.Ranges))
		for i, r := range c.Ranges {
			if len(r) != 2 {
				return nil, gp.Mismatch("range %d has %d values, want [min, max]", i, len(r))
			}
			rg[i] = [2]float64{r[0], r[1]}
		}
		opts = append(opts, sens.WithRanges(rg))
	}
	return opts, nil
}
