package experiment

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/eigensim/internal/logger"
	"github.com/san-kum/eigensim/internal/physics"
	"github.com/san-kum/eigensim/internal/quantum"
)

// SweepPoint is the spectrum found for one parameter value.
type SweepPoint struct {
	Param       float64   `json:"param"`
	Eigenvalues []float64 `json:"eigenvalues"`
	References  []float64 `json:"references"`
	Complete    bool      `json:"complete"`
}

// Sweep solves base once per value of the named parameter, spaced evenly
// over [from, to], and returns the spectra in parameter order. Up to
// workers runs execute at once.
func Sweep(ctx context.Context, base Config, param string, from, to float64, steps, workers int) ([]SweepPoint, error) {
	if steps < 2 {
		return nil, fmt.Errorf("sweep: need at least 2 steps, got %d", steps)
	}
	if !(to > from) {
		return nil, fmt.Errorf("sweep: to %g must exceed from %g", to, from)
	}

	basePot, err := physics.NewPoschlTeller(base.Params)
	if err != nil {
		return nil, err
	}

	values := floats.Span(make([]float64, steps), from, to)
	points := make([]SweepPoint, steps)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for i, v := range values {
		i, v := i, v
		g.Go(func() error {
			pot, err := basePot.WithParam(param, v)
			if err != nil {
				return err
			}
			cfg := base
			cfg.Params = pot.Params()

			exp := New(cfg)
			if err := exp.Setup(); err != nil {
				return fmt.Errorf("%s=%g: %w", param, v, err)
			}
			res, err := exp.Run(ctx)
			if err != nil && !errors.Is(err, quantum.ErrIncompleteScan) {
				return fmt.Errorf("%s=%g: %w", param, v, err)
			}

			pt := SweepPoint{Param: v, Eigenvalues: res.Eigenvalues(), Complete: res.Scan.Complete}
			for n := range pt.Eigenvalues {
				if ref, rerr := pot.ReferenceLevel(n); rerr == nil {
					pt.References = append(pt.References, ref)
				}
			}
			points[i] = pt
			logger.Debug("sweep %s=%g: %d levels", param, v, len(pt.Eigenvalues))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return points, nil
}
