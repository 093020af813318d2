package shooting

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/eigensim/internal/logger"
	"github.com/san-kum/eigensim/internal/optim"
	"github.com/san-kum/eigensim/internal/quantum"
)

const (
	DefaultEMin      = -10.0
	DefaultEMax      = 10.0
	DefaultSamples   = 1000
	DefaultTolerance = 1e-12
	DefaultMaxIter   = 100
)

// ScanPolicy configures the coarse energy scan and the bracket refinement.
type ScanPolicy struct {
	EMin         float64 `json:"emin" yaml:"emin" toml:"emin"`
	EMax         float64 `json:"emax" yaml:"emax" toml:"emax"`
	Samples      int     `json:"samples" yaml:"samples" toml:"samples"`
	Tolerance    float64 `json:"tolerance" yaml:"tolerance" toml:"tolerance"`
	MaxIter      int     `json:"max_iter" yaml:"max_iter" toml:"max_iter"`
	Workers      int     `json:"workers" yaml:"workers" toml:"workers"`
	RequireExact bool    `json:"require_exact" yaml:"require_exact" toml:"require_exact"`
}

func DefaultScanPolicy() ScanPolicy {
	return ScanPolicy{
		EMin:      DefaultEMin,
		EMax:      DefaultEMax,
		Samples:   DefaultSamples,
		Tolerance: DefaultTolerance,
		MaxIter:   DefaultMaxIter,
		Workers:   1,
	}
}

func (p ScanPolicy) Validate() error {
	if p.EMax <= p.EMin {
		return fmt.Errorf("scan: emax %g must exceed emin %g", p.EMax, p.EMin)
	}
	if p.Samples < 2 {
		return fmt.Errorf("scan: need at least 2 samples, got %d", p.Samples)
	}
	if !(p.Tolerance > 0) {
		return fmt.Errorf("scan: tolerance must be positive, got %g", p.Tolerance)
	}
	if p.MaxIter <= 0 {
		return fmt.Errorf("scan: max_iter must be positive, got %d", p.MaxIter)
	}
	if p.Workers < 0 {
		return fmt.Errorf("scan: workers must be non-negative, got %d", p.Workers)
	}
	return nil
}

// BracketFailure records a sign change whose refinement failed.
type BracketFailure struct {
	Lo, Hi float64
	Err    error
}

// SkippedSample records a coarse sample whose evaluation failed.
type SkippedSample struct {
	Energy float64
	Err    error
}

// ScanResult holds the eigenvalues in scan order together with the
// recoverable failures met along the way.
type ScanResult struct {
	Eigenvalues []float64
	Failures    []BracketFailure
	Skipped     []SkippedSample
	Evaluations int
	Complete    bool
}

// Scanner brackets and refines sign changes of a Functional.
type Scanner struct {
	fn     Functional
	policy ScanPolicy
}

func NewScanner(fn Functional, policy ScanPolicy) (*Scanner, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &Scanner{fn: fn, policy: policy}, nil
}

func (s *Scanner) Policy() ScanPolicy { return s.policy }

// Energies returns the coarse sample energies.
func (s *Scanner) Energies() []float64 {
	return floats.Span(make([]float64, s.policy.Samples), s.policy.EMin, s.policy.EMax)
}

// FindEigenvalues walks the coarse samples in ascending order and returns
// up to n refined roots. A shorter result is not an error unless the policy
// requires exactness, in which case the partial result is returned together
// with quantum.ErrIncompleteScan.
func (s *Scanner) FindEigenvalues(ctx context.Context, n int) (*ScanResult, error) {
	res := &ScanResult{}
	if n <= 0 {
		res.Complete = true
		return res, nil
	}

	energies := s.Energies()

	var pre []sample
	if s.policy.Workers > 1 {
		var err error
		pre, err = s.evaluateParallel(ctx, energies)
		if err != nil {
			return res, err
		}
		res.Evaluations += len(pre)
	}

	counted := func(e float64) (float64, error) {
		res.Evaluations++
		return s.fn.Matching(e)
	}

	var prev sample
	prevOK := false

	for i, e := range energies {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}

		var cur sample
		if pre != nil {
			cur = pre[i]
		} else {
			cur.f, cur.err = counted(e)
		}
		cur.e = e

		if cur.err != nil {
			logger.Warn("skipping sample E=%.6g: %v", e, cur.err)
			res.Skipped = append(res.Skipped, SkippedSample{Energy: e, Err: cur.err})
			prevOK = false
			continue
		}

		if prevOK && (prev.f < 0) != (cur.f < 0) {
			logger.Debug("sign change in [%.6g, %.6g]", prev.e, cur.e)
			root, err := optim.Brent(counted, prev.e, cur.e, s.policy.Tolerance, s.policy.MaxIter)
			if err != nil {
				berr := &quantum.BracketError{Lo: prev.e, Hi: cur.e, Wrapped: fmt.Errorf("%w: %w", quantum.ErrRootRefinement, err)}
				logger.Warn("%v", berr)
				res.Failures = append(res.Failures, BracketFailure{Lo: prev.e, Hi: cur.e, Err: berr})
			} else {
				logger.Info("level %d: E=%.10f (%d iterations)", len(res.Eigenvalues), root.X, root.Iterations)
				res.Eigenvalues = append(res.Eigenvalues, root.X)
				if len(res.Eigenvalues) == n {
					res.Complete = true
					return res, nil
				}
			}
		}

		prev = cur
		prevOK = true
	}

	if s.policy.RequireExact {
		return res, fmt.Errorf("%w: found %d of %d in [%g, %g]", quantum.ErrIncompleteScan, len(res.Eigenvalues), n, s.policy.EMin, s.policy.EMax)
	}
	logger.Warn("scan found %d of %d requested levels", len(res.Eigenvalues), n)
	return res, nil
}

type sample struct {
	e   float64
	f   float64
	err error
}

// evaluateParallel fills every coarse sample using contiguous chunks, one
// goroutine per chunk. Per-sample failures are kept, not returned.
func (s *Scanner) evaluateParallel(ctx context.Context, energies []float64) ([]sample, error) {
	out := make([]sample, len(energies))
	workers := s.policy.Workers
	chunk := (len(energies) + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for start := 0; start < len(energies); start += chunk {
		start := start
		end := min(start+chunk, len(energies))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				out[i].f, out[i].err = s.fn.Matching(energies[i])
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
