package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/eigensim/internal/analysis"
	"github.com/san-kum/eigensim/internal/experiment"
	"github.com/san-kum/eigensim/internal/quantum"
	"github.com/san-kum/eigensim/internal/shooting"
)

const (
	DefaultXMin = -10.0
	DefaultXMax = 10.0
	DefaultStep = 0.05
)

type Config struct {
	Model   string              `yaml:"model" toml:"model"`
	Params  quantum.Params      `yaml:"params" toml:"params"`
	Grid    GridConfig          `yaml:"grid" toml:"grid"`
	Levels  int                 `yaml:"levels" toml:"levels"`
	Scan    shooting.ScanPolicy `yaml:"scan" toml:"scan"`
	Seed    float64             `yaml:"seed" toml:"seed"`
	Turning TurningConfig       `yaml:"turning" toml:"turning"`
}

type GridConfig struct {
	Min  float64 `yaml:"min" toml:"min"`
	Max  float64 `yaml:"max" toml:"max"`
	Step float64 `yaml:"step" toml:"step"`
}

type TurningConfig struct {
	Min       float64 `yaml:"min" toml:"min"`
	Max       float64 `yaml:"max" toml:"max"`
	Samples   int     `yaml:"samples" toml:"samples"`
	Tolerance float64 `yaml:"tolerance" toml:"tolerance"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:  experiment.ModelPoschlTeller,
		Params: quantum.DefaultParams(),
		Grid:   GridConfig{Min: DefaultXMin, Max: DefaultXMax, Step: DefaultStep},
		Levels: experiment.DefaultLevels,
		Scan:   shooting.DefaultScanPolicy(),
		Seed:   shooting.DefaultSeed,
		Turning: TurningConfig{
			Min:       -5,
			Max:       5,
			Samples:   experiment.DefaultTurningSamples,
			Tolerance: experiment.DefaultTurningTolerance,
		},
	}
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Load reads a YAML or TOML file (by extension) over the defaults, so a
// file only needs the keys it changes.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if isTOML(path) {
		err = toml.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		data, err = toml.Marshal(cfg)
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks everything that can be checked without integrating.
func (c *Config) Validate() error {
	if c.Model != "" && c.Model != experiment.ModelPoschlTeller {
		return fmt.Errorf("unknown model: %s", c.Model)
	}
	if err := c.Params.Validate(); err != nil {
		return err
	}
	if _, err := quantum.NewGrid(c.Grid.Min, c.Grid.Max, c.Grid.Step); err != nil {
		return err
	}
	if c.Levels < 0 {
		return fmt.Errorf("levels must be non-negative, got %d", c.Levels)
	}
	if err := c.Scan.Validate(); err != nil {
		return err
	}
	if c.Seed < 0 {
		return fmt.Errorf("seed must be non-negative, got %g", c.Seed)
	}
	if c.Turning.Samples < 0 || c.Turning.Tolerance < 0 {
		return fmt.Errorf("%w: turning samples and tolerance must be non-negative", analysis.ErrInvalidRange)
	}
	return nil
}

func (c *Config) ToExperiment() experiment.Config {
	model := c.Model
	if model == "" {
		model = experiment.ModelPoschlTeller
	}
	return experiment.Config{
		Model:  model,
		Params: c.Params,
		Grid:   experiment.GridSpec{Min: c.Grid.Min, Max: c.Grid.Max, Step: c.Grid.Step},
		Levels: c.Levels,
		Scan:   c.Scan,
		Seed:   c.Seed,
		Turning: experiment.TurningSpec{
			Range:     analysis.Range{Min: c.Turning.Min, Max: c.Turning.Max},
			Samples:   c.Turning.Samples,
			Tolerance: c.Turning.Tolerance,
		},
	}
}
