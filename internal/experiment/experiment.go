package experiment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/san-kum/eigensim/internal/analysis"
	"github.com/san-kum/eigensim/internal/integrators"
	"github.com/san-kum/eigensim/internal/logger"
	"github.com/san-kum/eigensim/internal/physics"
	"github.com/san-kum/eigensim/internal/quantum"
	"github.com/san-kum/eigensim/internal/shooting"
)

const (
	ModelPoschlTeller = "poschl_teller"

	DefaultLevels           = 3
	DefaultTurningSamples   = 2000
	DefaultTurningTolerance = 0.02
	nodeEpsilon             = 1e-6
)

// GridSpec describes a uniform grid by its bounds and step.
type GridSpec struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Step float64 `json:"step"`
}

// TurningSpec configures the turning-point sampling. A zero Range falls
// back to the grid bounds.
type TurningSpec struct {
	Range     analysis.Range `json:"range"`
	Samples   int            `json:"samples"`
	Tolerance float64        `json:"tolerance"`
}

type Config struct {
	Model    string              `json:"model"`
	Params   quantum.Params      `json:"params"`
	Grid     GridSpec            `json:"grid"`
	Levels   int                 `json:"levels"`
	Scan     shooting.ScanPolicy `json:"scan"`
	Seed     float64             `json:"seed"`
	MidIndex int                 `json:"mid_index,omitempty"`
	Turning  TurningSpec         `json:"turning"`
}

func DefaultConfig() Config {
	return Config{
		Model:  ModelPoschlTeller,
		Params: quantum.DefaultParams(),
		Grid:   GridSpec{Min: -10, Max: 10, Step: 0.05},
		Levels: DefaultLevels,
		Scan:   shooting.DefaultScanPolicy(),
		Seed:   shooting.DefaultSeed,
		Turning: TurningSpec{
			Range:     analysis.Range{Min: -5, Max: 5},
			Samples:   DefaultTurningSamples,
			Tolerance: DefaultTurningTolerance,
		},
	}
}

// Level is one solved bound state.
type Level struct {
	Index         int                  `json:"index"`
	Energy        float64              `json:"energy"`
	Reference     float64              `json:"reference"`
	HasReference  bool                 `json:"has_reference"`
	RelError      float64              `json:"rel_error"`
	Nodes         int                  `json:"nodes"`
	Wavefunction  quantum.Wavefunction `json:"-"`
	TurningPoints []float64            `json:"turning_points"`
}

type Result struct {
	Model     string
	Params    quantum.Params
	Grid      quantum.Grid
	Potential []float64
	Levels    []Level
	Scan      *shooting.ScanResult
	Warnings  []string
	Elapsed   time.Duration
}

// Eigenvalues returns the level energies in scan order.
func (r *Result) Eigenvalues() []float64 {
	out := make([]float64, len(r.Levels))
	for i, l := range r.Levels {
		out[i] = l.Energy
	}
	return out
}

type Experiment struct {
	cfg     Config
	pot     *physics.PoschlTeller
	grid    quantum.Grid
	matcher *shooting.Matcher
	scanner *shooting.Scanner
}

func New(cfg Config) *Experiment {
	return &Experiment{cfg: cfg}
}

func (e *Experiment) Config() Config { return e.cfg }

// Setup validates the configuration and builds the solver chain. Every
// error here is fatal and happens before any integration.
func (e *Experiment) Setup() error {
	if e.cfg.Model != "" && e.cfg.Model != ModelPoschlTeller {
		return fmt.Errorf("unknown model: %s", e.cfg.Model)
	}
	if e.cfg.Levels < 0 {
		return fmt.Errorf("levels must be non-negative, got %d", e.cfg.Levels)
	}

	pot, err := physics.NewPoschlTeller(e.cfg.Params)
	if err != nil {
		return err
	}
	grid, err := quantum.NewGrid(e.cfg.Grid.Min, e.cfg.Grid.Max, e.cfg.Grid.Step)
	if err != nil {
		return err
	}

	opts := []shooting.Option{}
	if e.cfg.Seed != 0 {
		opts = append(opts, shooting.WithSeed(e.cfg.Seed))
	}
	if e.cfg.MidIndex != 0 {
		opts = append(opts, shooting.WithMidIndex(e.cfg.MidIndex))
	}
	matcher, err := shooting.NewMatcher(integrators.NewNumerov(e.cfg.Params, pot), grid, opts...)
	if err != nil {
		return err
	}
	scanner, err := shooting.NewScanner(matcher, e.cfg.Scan)
	if err != nil {
		return err
	}

	e.pot, e.grid, e.matcher, e.scanner = pot, grid, matcher, scanner
	return nil
}

// Run scans for the configured number of levels, then normalizes each
// level's wavefunction and samples its turning points. Per-level numerical
// failures become warnings; only setup and cancellation errors abort.
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	if e.scanner == nil {
		return nil, fmt.Errorf("experiment not setup")
	}

	start := time.Now()
	logger.Section("scan")
	logger.Info("grid [%g, %g] step %g (%d points), energies [%g, %g] x %d",
		e.grid.Min(), e.grid.Max(), e.grid.Step, e.grid.Len(), e.cfg.Scan.EMin, e.cfg.Scan.EMax, e.cfg.Scan.Samples)

	scan, err := e.scanner.FindEigenvalues(ctx, e.cfg.Levels)
	if err != nil && !errors.Is(err, quantum.ErrIncompleteScan) {
		return nil, err
	}

	res := &Result{
		Model:     ModelPoschlTeller,
		Params:    e.cfg.Params,
		Grid:      e.grid,
		Potential: e.grid.Sample(e.pot),
		Scan:      scan,
	}
	for _, f := range scan.Failures {
		res.Warnings = append(res.Warnings, f.Err.Error())
	}
	for _, s := range scan.Skipped {
		res.Warnings = append(res.Warnings, fmt.Sprintf("skipped sample E=%.6g: %v", s.Energy, s.Err))
	}
	if !scan.Complete {
		res.Warnings = append(res.Warnings, fmt.Sprintf("found %d of %d requested levels", len(scan.Eigenvalues), e.cfg.Levels))
	}

	logger.Section("levels")
	for i, energy := range scan.Eigenvalues {
		lvl, lerr := e.level(i, energy)
		if lerr != nil {
			logger.Warn("level %d (E=%.6g): %v", i, energy, lerr)
			res.Warnings = append(res.Warnings, fmt.Sprintf("level %d: %v", i, lerr))
			continue
		}
		res.Levels = append(res.Levels, lvl)
	}

	res.Elapsed = time.Since(start)
	return res, err
}

func (e *Experiment) level(i int, energy float64) (Level, error) {
	raw, err := e.matcher.Eigenfunction(energy)
	if err != nil {
		return Level{}, err
	}
	psi, err := analysis.Normalize(raw, e.grid.Step)
	if err != nil {
		return Level{}, err
	}

	r := e.cfg.Turning.Range
	if r.Max <= r.Min {
		r = analysis.Range{Min: e.grid.Min(), Max: e.grid.Max()}
	}
	samples := e.cfg.Turning.Samples
	if samples == 0 {
		samples = DefaultTurningSamples
	}
	tps, err := analysis.TurningPoints(e.pot, energy, r, samples, e.cfg.Turning.Tolerance)
	if err != nil {
		return Level{}, err
	}

	lvl := Level{
		Index:         i,
		Energy:        energy,
		Nodes:         analysis.CountNodes(psi, nodeEpsilon),
		Wavefunction:  psi,
		TurningPoints: tps,
	}
	if ref, rerr := e.pot.ReferenceLevel(i); rerr == nil {
		lvl.Reference = ref
		lvl.HasReference = true
		lvl.RelError = relativeError(energy, ref)
	}

	logger.Info("level %d: E=%.10f nodes=%d turning points=%d", i, energy, lvl.Nodes, len(tps))
	return lvl, nil
}

func relativeError(got, want float64) float64 {
	if want == 0 {
		return math.Abs(got)
	}
	return math.Abs(got-want) / math.Abs(want)
}
