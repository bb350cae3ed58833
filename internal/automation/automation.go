package automation

import (
	"context"
	"fmt"
	"math"
	"os"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/gpsens/internal/config"
	"github.com/san-kum/gpsens/internal/experiment"
	"github.com/san-kum/gpsens/internal/gp"
	"github.com/san-kum/gpsens/internal/sens"
)

// Scenario defines a scripted sequence of analyses
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one analysis: a model bundle when model is set, otherwise
// the synthetic experiment.
type ScenarioStep struct {
	config.Config `yaml:",inline"`
	SaveAs        string `yaml:"save_as"`
}

// LoadScenario loads a scenario from a YAML file. Unset step fields take the
// defaults of config.DefaultConfig.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw struct {
		Name        string      `yaml:"name"`
		Description string      `yaml:"description"`
		Steps       []yaml.Node `yaml:"steps"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	scenario := &Scenario{Name: raw.Name, Description: raw.Description}
	for i := range raw.Steps {
		step := ScenarioStep{Config: *config.DefaultConfig()}
		if err := raw.Steps[i].Decode(&step); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		scenario.Steps = append(scenario.Steps, step)
	}
	return scenario, nil
}

// Target is a model ready for analysis together with the labels of its
// inputs.
type Target struct {
	Model  gp.Model
	Inputs []string
	Source string
	Seed   int64
}

// Prepare loads the bundle named by cfg.Model, or builds the synthetic
// experiment of cfg.Experiment when no bundle is set.
func Prepare(ctx context.Context, cfg *config.Config, registry *experiment.Registry) (*Target, error) {
	if cfg.Model != "" {
		m, err := gp.LoadBundle(cfg.Model)
		if err != nil {
			return nil, err
		}
		return &Target{Model: m, Inputs: m.Num.InputNames(), Source: cfg.Model, Seed: cfg.Seed}, nil
	}

	fn, err := registry.Get(cfg.Experiment.Function)
	if err != nil {
		return nil, err
	}
	run, err := experiment.New(cfg.Experiment, fn).Run(ctx)
	if err != nil {
		return nil, err
	}
	return &Target{Model: run.Model, Inputs: fn.InputIDs, Source: "demo:" + fn.Name, Seed: cfg.Experiment.Seed}, nil
}

// Analyse runs the sensitivity analysis of cfg on t.
func Analyse(ctx context.Context, cfg *config.Config, t *Target, log *zap.Logger) (*sens.Result, error) {
	opts, err := cfg.Options(log)
	if err != nil {
		return nil, err
	}
	if cfg.Samples != "" {
		s, err := gp.LoadSamples(cfg.Samples)
		if err != nil {
			return nil, err
		}
		opts = append(opts, sens.WithSamples(s))
	}
	return sens.Sensitivity(ctx, t.Model, opts...)
}

// StepResult is the outcome of one scenario step.
type StepResult struct {
	Step   ScenarioStep
	Target *Target
	Result *sens.Result
}

// RunScenario executes all steps in a scenario
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry, log *zap.Logger) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		cfg := step.Config
		t, err := Prepare(ctx, &cfg, registry)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		log.Info("scenario step", zap.Int("step", i+1), zap.Int("of", len(scenario.Steps)), zap.String("source", t.Source))

		res, err := Analyse(ctx, &cfg, t, log)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		results = append(results, StepResult{Step: step, Target: t, Result: res})
	}

	return results, nil
}

// ParameterSweep repeats an analysis across evenly spaced values of one
// setting: ngrid, runs, draws, jitter or lam_ws.
type ParameterSweep struct {
	Base      config.Config
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
}

// SweepResult holds the posterior-mean indices at one sweep value
type SweepResult struct {
	ParamValue float64
	SmePm      []float64
	StePm      []float64
	MeanVar    float64
}

// RunSweep executes a parameter sweep
func RunSweep(ctx context.Context, sweep *ParameterSweep, registry *experiment.Registry, log *zap.Logger) ([]SweepResult, error) {
	if sweep.NumSteps < 1 {
		return nil, fmt.Errorf("%w: sweep needs at least 1 step, got %d", gp.ErrInvalidOption, sweep.NumSteps)
	}

	paramStep := 0.0
	if sweep.NumSteps > 1 {
		paramStep = (sweep.ParamMax - sweep.ParamMin) / float64(sweep.NumSteps-1)
	}

	results := make([]SweepResult, 0, sweep.NumSteps)
	for i := 0; i < sweep.NumSteps; i++ {
		paramVal := sweep.ParamMin + float64(i)*paramStep

		cfg := sweep.Base
		if err := setParam(&cfg, sweep.ParamName, paramVal); err != nil {
			return nil, err
		}

		t, err := Prepare(ctx, &cfg, registry)
		if err != nil {
			return nil, err
		}
		res, err := Analyse(ctx, &cfg, t, log)
		if err != nil {
			return nil, fmt.Errorf("%s=%g: %w", sweep.ParamName, paramVal, err)
		}

		results = append(results, SweepResult{
			ParamValue: paramVal,
			SmePm:      res.SmePm,
			StePm:      res.StePm,
			MeanVar:    stat.Mean(res.TotalVar, nil),
		})

		log.Debug("sweep", zap.Int("step", i+1), zap.Int("of", sweep.NumSteps), zap.String("param", sweep.ParamName), zap.Float64("value", paramVal))
	}

	return results, nil
}

func setParam(cfg *config.Config, name string, v float64) error {
	n := int(math.Round(v))
	switch name {
	case "ngrid":
		cfg.Grid = n
	case "runs":
		cfg.Experiment.Runs = n
	case "draws":
		cfg.Experiment.Draws = n
	case "jitter":
		cfg.Experiment.Jitter = v
	case "lam_ws":
		cfg.Experiment.LamWs = v
	default:
		return fmt.Errorf("%w: unknown sweep parameter %q (ngrid, runs, draws, jitter, lam_ws)", gp.ErrInvalidOption, name)
	}
	return nil
}

// ReplicateConfig repeats the synthetic experiment with a fresh design seed
// per trial.
type ReplicateConfig struct {
	Base      config.Config
	NumTrials int
	Seed      int64
}

// ReplicateResult holds the indices of one trial.
type ReplicateResult struct {
	TrialID int
	Seed    int64
	SmePm   []float64
	StePm   []float64
}

// RunReplicates executes NumTrials experiments seeded Seed, Seed+1, ...
func RunReplicates(ctx context.Context, cfg *ReplicateConfig, registry *experiment.Registry, log *zap.Logger) ([]ReplicateResult, error) {
	if cfg.Base.Model != "" {
		return nil, fmt.Errorf("%w: replicates need a synthetic experiment, not a model bundle", gp.ErrInvalidOption)
	}
	results := make([]ReplicateResult, 0, cfg.NumTrials)

	for trial := 0; trial < cfg.NumTrials; trial++ {
		c := cfg.Base
		c.Experiment.Seed = cfg.Seed + int64(trial)

		t, err := Prepare(ctx, &c, registry)
		if err != nil {
			return nil, err
		}
		res, err := Analyse(ctx, &c, t, log)
		if err != nil {
			return nil, fmt.Errorf("trial %d: %w", trial, err)
		}

		results = append(results, ReplicateResult{
			TrialID: trial,
			Seed:    c.Experiment.Seed,
			SmePm:   res.SmePm,
			StePm:   res.StePm,
		})

		if (trial+1)%10 == 0 {
			log.Info("replicates", zap.Int("done", trial+1), zap.Int("of", cfg.NumTrials))
		}
	}

	return results, nil
}

// ReplicateStats returns the mean and sample standard deviation of each main
// index across trials.
func ReplicateStats(results []ReplicateResult) (mean, sd []float64) {
	if len(results) == 0 {
		return nil, nil
	}
	nv := len(results[0].SmePm)
	mean = make([]float64, nv)
	sd = make([]float64, nv)
	col := make([]float64, len(results))
	for k := 0; k < nv; k++ {
		for i, r := range results {
			col[i] = r.SmePm[k]
		}
		if len(col) > 1 {
			mean[k], sd[k] = stat.MeanStdDev(col, nil)
		} else {
			mean[k] = col[0]
		}
	}
	return mean, sd
}
