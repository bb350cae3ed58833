package sens

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/san-kum/gpsens/internal/gp"
)

// DefaultGrid is the number of evaluation points per active dimension.
const DefaultGrid = 21

// Mode selects which posterior draws feed the analysis. It is one of Mean,
// Median, AllSamples or a Fixed parameter set.
type Mode interface {
	String() string
	resolve(s gp.Samples, nv, pu int) (gp.Samples, error)
}

type meanMode struct{}

func (meanMode) String() string { return "mean" }
func (meanMode) resolve(s gp.Samples, nv, pu int) (gp.Samples, error) {
	if err := s.Validate(nv, pu); err != nil {
		return gp.Samples{}, err
	}
	return s.Mean(), nil
}

type medianMode struct{}

func (medianMode) String() string { return "median" }
func (medianMode) resolve(s gp.Samples, nv, pu int) (gp.Samples, error) {
	if err := s.Validate(nv, pu); err != nil {
		return gp.Samples{}, err
	}
	return s.Median(), nil
}

type samplesMode struct{}

func (samplesMode) String() string { return "samples" }
func (samplesMode) resolve(s gp.Samples, nv, pu int) (gp.Samples, error) {
	if err := s.Validate(nv, pu); err != nil {
		return gp.Samples{}, err
	}
	return s.Clone(), nil
}

type fixedMode struct {
	params gp.Samples
}

func (fixedMode) String() string { return "fixed" }
func (f fixedMode) resolve(_ gp.Samples, nv, pu int) (gp.Samples, error) {
	if err := f.params.Validate(nv, pu); err != nil {
		return gp.Samples{}, fmt.Errorf("fixed parameters: %w", err)
	}
	return f.params.Clone(), nil
}

var (
	// Mean analyses the elementwise posterior mean of the draws.
	Mean Mode = meanMode{}
	// Median analyses the elementwise posterior median of the draws.
	Median Mode = medianMode{}
	// AllSamples analyses every draw.
	AllSamples Mode = samplesMode{}
)

// Fixed analyses caller-supplied parameter values instead of posterior draws.
func Fixed(params gp.Samples) Mode { return fixedMode{params: params} }

// ParseMode maps mean, median and samples to their Mode. Fixed parameters
// cannot be named by a string.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mean", "":
		return Mean, nil
	case "median":
		return Median, nil
	case "samples":
		return AllSamples, nil
	default:
		return nil, fmt.Errorf("%w: %q (choose mean, median, or samples, or pass fixed values for betaU, lamUz, lamWs)",
			gp.ErrInvalidOption, s)
	}
}

type config struct {
	samples   *gp.Samples
	ngrid     int
	pairs     [][2]int
	allPairs  bool
	jointSets [][]int
	ranges    [][2]float64
	mode      Mode
	workers   int
	logger    *zap.Logger
}

func defaultConfig() config {
	return config{
		ngrid:  DefaultGrid,
		mode:   Mean,
		logger: zap.NewNop(),
	}
}

type Option func(*config)

// WithSamples replaces the model's own posterior draws.
func WithSamples(s gp.Samples) Option {
	return func(c *config) { c.samples = &s }
}

func WithGrid(n int) Option {
	return func(c *config) { c.ngrid = n }
}

// WithPairs requests interaction indices and joint-effect functions for
// pairs of active input dimensions.
func WithPairs(pairs [][2]int) Option {
	return func(c *config) {
		c.pairs = pairs
		c.allPairs = false
	}
}

// WithAllPairs requests every unordered pair of active dimensions.
func WithAllPairs() Option {
	return func(c *config) {
		c.pairs = nil
		c.allPairs = true
	}
}

// WithJointSets requests joint sensitivity indices for arbitrary sets of
// active dimensions.
func WithJointSets(sets [][]int) Option {
	return func(c *config) { c.jointSets = sets }
}

// WithRanges sets the [min, max] range of every input on the unit-hypercube
// scale. Inputs with min == max are held fixed and dropped.
func WithRanges(rg [][2]float64) Option {
	return func(c *config) { c.ranges = rg }
}

// WithMode selects the draws to analyse. A nil mode is rejected by
// Sensitivity.
func WithMode(m Mode) Option {
	return func(c *config) { c.mode = m }
}

// WithWorkers bounds the number of concurrent (component, draw) tasks. Zero
// uses one worker per CPU.
func WithWorkers(n int) Option {
	return func(c *config) { c.workers = n }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}
