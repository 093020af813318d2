package shooting

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"

	"github.com/san-kum/eigensim/internal/quantum"
)

type funcFunctional struct {
	f     func(e float64) (float64, error)
	calls atomic.Int64
}

func (ff *funcFunctional) Matching(e float64) (float64, error) {
	ff.calls.Add(1)
	return ff.f(e)
}

func sinFunctional() *funcFunctional {
	return &funcFunctional{f: func(e float64) (float64, error) { return math.Sin(math.Pi * e), nil }}
}

func policy(emin, emax float64, samples int) ScanPolicy {
	p := DefaultScanPolicy()
	p.EMin, p.EMax, p.Samples = emin, emax, samples
	return p
}

func TestScanPolicy_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ScanPolicy)
	}{
		{"inverted range", func(p *ScanPolicy) { p.EMin, p.EMax = 1, -1 }},
		{"one sample", func(p *ScanPolicy) { p.Samples = 1 }},
		{"zero tolerance", func(p *ScanPolicy) { p.Tolerance = 0 }},
		{"zero iterations", func(p *ScanPolicy) { p.MaxIter = 0 }},
		{"negative workers", func(p *ScanPolicy) { p.Workers = -2 }},
	}

	if err := DefaultScanPolicy().Validate(); err != nil {
		t.Fatalf("default policy invalid: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultScanPolicy()
			tt.mutate(&p)
			if err := p.Validate(); err == nil {
				t.Error("expected validation error")
			}
			if _, err := NewScanner(sinFunctional(), p); err == nil {
				t.Error("NewScanner accepted an invalid policy")
			}
		})
	}
}

func TestScanner_FindsRootsInOrder(t *testing.T) {
	s, err := NewScanner(sinFunctional(), policy(-0.5, 3.5, 1000))
	if err != nil {
		t.Fatalf("NewScanner failed: %v", err)
	}

	res, err := s.FindEigenvalues(context.Background(), 3)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if !res.Complete || len(res.Eigenvalues) != 3 {
		t.Fatalf("expected 3 complete roots, got %+v", res)
	}
	for i, want := range []float64{0, 1, 2} {
		if math.Abs(res.Eigenvalues[i]-want) > 1e-10 {
			t.Errorf("root %d = %v, want %v", i, res.Eigenvalues[i], want)
		}
	}
}

func TestScanner_ZeroLevels(t *testing.T) {
	fn := sinFunctional()
	s, _ := NewScanner(fn, policy(-0.5, 3.5, 1000))

	for _, n := range []int{0, -1} {
		res, err := s.FindEigenvalues(context.Background(), n)
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		if len(res.Eigenvalues) != 0 || res.Evaluations != 0 || !res.Complete {
			t.Errorf("n=%d: expected empty complete result, got %+v", n, res)
		}
	}
	if fn.calls.Load() != 0 {
		t.Errorf("expected no evaluations, got %d", fn.calls.Load())
	}
}

func TestScanner_PartialResult(t *testing.T) {
	s, _ := NewScanner(sinFunctional(), policy(-0.5, 3.5, 1000))

	res, err := s.FindEigenvalues(context.Background(), 10)
	if err != nil {
		t.Fatalf("partial scan should not fail: %v", err)
	}
	if res.Complete || len(res.Eigenvalues) != 4 {
		t.Errorf("expected 4 roots and Complete=false, got %+v", res)
	}
}

func TestScanner_RequireExact(t *testing.T) {
	p := policy(-0.5, 3.5, 1000)
	p.RequireExact = true
	s, _ := NewScanner(sinFunctional(), p)

	res, err := s.FindEigenvalues(context.Background(), 10)
	if !errors.Is(err, quantum.ErrIncompleteScan) {
		t.Fatalf("expected ErrIncompleteScan, got %v", err)
	}
	if res == nil || len(res.Eigenvalues) != 4 {
		t.Errorf("expected the partial roots alongside the error, got %+v", res)
	}
}

func TestScanner_MissesEvenCrossings(t *testing.T) {
	fn := &funcFunctional{f: func(e float64) (float64, error) { return (e - 1.02) * (e - 1.07), nil }}
	s, _ := NewScanner(fn, policy(0, 2, 11))

	res, err := s.FindEigenvalues(context.Background(), 2)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if len(res.Eigenvalues) != 0 {
		t.Errorf("two crossings in one interval should cancel, got %v", res.Eigenvalues)
	}

	// A finer scan separates them.
	s, _ = NewScanner(fn, policy(0, 2, 1001))
	res, _ = s.FindEigenvalues(context.Background(), 2)
	if len(res.Eigenvalues) != 2 {
		t.Errorf("expected both roots on a fine scan, got %v", res.Eigenvalues)
	}
}

func TestScanner_SkipsFailedSamples(t *testing.T) {
	boom := errors.New("boom")
	fn := &funcFunctional{f: func(e float64) (float64, error) {
		if math.Abs(e-1) < 0.05 {
			return 0, boom
		}
		return e - 1, nil
	}}
	s, _ := NewScanner(fn, policy(0, 2, 11))

	res, err := s.FindEigenvalues(context.Background(), 1)
	if err != nil {
		t.Fatalf("skipped samples must not abort the scan: %v", err)
	}
	if len(res.Skipped) != 1 || !errors.Is(res.Skipped[0].Err, boom) {
		t.Errorf("expected one skipped sample, got %+v", res.Skipped)
	}
	if len(res.Eigenvalues) != 0 {
		t.Errorf("no bracket may span a skipped sample, got %v", res.Eigenvalues)
	}
}

func TestScanner_RefinementFailureContinues(t *testing.T) {
	p := policy(-0.5, 3.5, 1000)
	p.MaxIter = 1
	s, _ := NewScanner(sinFunctional(), p)

	res, err := s.FindEigenvalues(context.Background(), 2)
	if err != nil {
		t.Fatalf("refinement failures must not abort the scan: %v", err)
	}
	if len(res.Failures) != 4 {
		t.Fatalf("expected a failure for each of the 4 brackets, got %d", len(res.Failures))
	}
	for _, f := range res.Failures {
		if !errors.Is(f.Err, quantum.ErrRootRefinement) {
			t.Errorf("failure %v does not wrap ErrRootRefinement", f.Err)
		}
		var berr *quantum.BracketError
		if !errors.As(f.Err, &berr) || berr.Lo >= berr.Hi {
			t.Errorf("expected a BracketError with Lo < Hi, got %v", f.Err)
		}
	}
}

func TestScanner_ParallelMatchesSequential(t *testing.T) {
	seq, _ := NewScanner(sinFunctional(), policy(-0.5, 3.5, 1000))
	p := policy(-0.5, 3.5, 1000)
	p.Workers = 4
	par, _ := NewScanner(sinFunctional(), p)

	a, err := seq.FindEigenvalues(context.Background(), 4)
	if err != nil {
		t.Fatalf("sequential scan failed: %v", err)
	}
	b, err := par.FindEigenvalues(context.Background(), 4)
	if err != nil {
		t.Fatalf("parallel scan failed: %v", err)
	}

	if len(a.Eigenvalues) != len(b.Eigenvalues) {
		t.Fatalf("sequential %v vs parallel %v", a.Eigenvalues, b.Eigenvalues)
	}
	for i := range a.Eigenvalues {
		if a.Eigenvalues[i] != b.Eigenvalues[i] {
			t.Errorf("root %d: sequential %v, parallel %v", i, a.Eigenvalues[i], b.Eigenvalues[i])
		}
	}
	if b.Evaluations < 1000 {
		t.Errorf("parallel scan should evaluate every sample, got %d", b.Evaluations)
	}
}

func TestScanner_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, workers := range []int{1, 4} {
		p := policy(-0.5, 3.5, 1000)
		p.Workers = workers
		s, _ := NewScanner(sinFunctional(), p)

		if _, err := s.FindEigenvalues(ctx, 3); !errors.Is(err, context.Canceled) {
			t.Errorf("workers=%d: expected context.Canceled, got %v", workers, err)
		}
	}
}
