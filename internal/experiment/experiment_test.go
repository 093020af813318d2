package experiment_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/eigensim/internal/analysis"
	"github.com/san-kum/eigensim/internal/experiment"
	"github.com/san-kum/eigensim/internal/quantum"
)

var _ = Describe("Experiment", func() {
	var cfg experiment.Config

	BeforeEach(func() {
		cfg = experiment.DefaultConfig()
	})

	run := func(cfg experiment.Config) (*experiment.Result, error) {
		exp := experiment.New(cfg)
		if err := exp.Setup(); err != nil {
			return nil, err
		}
		return exp.Run(context.Background())
	}

	Context("with hbar=1, m=1, alpha=1, lambda=4 on [-10, 10] step 0.05", func() {
		var res *experiment.Result

		BeforeEach(func() {
			var err error
			res, err = run(cfg)
			Expect(err).NotTo(HaveOccurred())
		})

		It("finds the three bound levels in ascending order", func() {
			Expect(res.Levels).To(HaveLen(3))
			Expect(res.Scan.Complete).To(BeTrue())
			Expect(res.Eigenvalues()).To(HaveExactElements(
				BeNumerically("~", -1.5, 1e-3),
				BeNumerically("~", 1.0, 1e-3),
				BeNumerically("~", 2.5, 1e-3),
			))
		})

		It("reports small relative errors against the closed form", func() {
			for _, l := range res.Levels {
				Expect(l.HasReference).To(BeTrue())
				Expect(l.RelError).To(BeNumerically("<", 1e-3))
			}
		})

		It("labels each level by its node count", func() {
			for i, l := range res.Levels {
				Expect(l.Index).To(Equal(i))
				Expect(l.Nodes).To(Equal(i))
			}
		})

		It("normalizes every wavefunction on the grid", func() {
			for _, l := range res.Levels {
				Expect(l.Wavefunction).To(HaveLen(res.Grid.Len()))
				Expect(analysis.Probability(l.Wavefunction, res.Grid.Step)).To(BeNumerically("~", 1, 1e-9))
			}
		})

		It("returns turning points closed under negation", func() {
			spacing := (cfg.Turning.Range.Max - cfg.Turning.Range.Min) / float64(cfg.Turning.Samples-1)
			for _, l := range res.Levels {
				Expect(l.TurningPoints).NotTo(BeEmpty())
				for _, p := range l.TurningPoints {
					Expect(l.TurningPoints).To(ContainElement(BeNumerically("~", -p, spacing)))
				}
			}
		})

		It("samples the potential on the grid", func() {
			Expect(res.Potential).To(HaveLen(res.Grid.Len()))
			Expect(res.Potential[res.Grid.Len()/2]).To(BeNumerically("~", -3, 1e-9))
			Expect(res.Warnings).To(BeEmpty())
		})
	})

	It("returns no levels and does no work for zero requested levels", func() {
		cfg.Levels = 0
		res, err := run(cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Levels).To(BeEmpty())
		Expect(res.Scan.Evaluations).To(BeZero())
	})

	It("returns a partial result when the range holds fewer levels", func() {
		cfg.Levels = 5
		cfg.Scan.EMax = 2.0
		res, err := run(cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Levels).To(HaveLen(2))
		Expect(res.Scan.Complete).To(BeFalse())
		Expect(res.Warnings).To(ContainElement(ContainSubstring("found 2 of 5")))
	})

	It("flags an incomplete scan when exactness is required", func() {
		cfg.Levels = 5
		cfg.Scan.EMax = 2.0
		cfg.Scan.RequireExact = true
		res, err := run(cfg)
		Expect(err).To(MatchError(quantum.ErrIncompleteScan))
		Expect(res).NotTo(BeNil())
		Expect(res.Levels).To(HaveLen(2))
	})

	It("gives the same levels with a parallel scan", func() {
		cfg.Scan.Workers = 4
		par, err := run(cfg)
		Expect(err).NotTo(HaveOccurred())

		seq, err := run(experiment.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
		Expect(par.Eigenvalues()).To(Equal(seq.Eigenvalues()))
	})

	It("matches the closed form for a deeper well", func() {
		cfg.Params.Lambda = 6
		cfg.Levels = 5
		cfg.Scan.EMax = 10
		res, err := run(cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Levels).To(HaveLen(5))
		for _, l := range res.Levels {
			Expect(math.Abs(l.Energy - l.Reference)).To(BeNumerically("<", 1e-2))
		}
	})

	DescribeTable("rejects invalid setups before integrating",
		func(mutate func(*experiment.Config), target error) {
			mutate(&cfg)
			err := experiment.New(cfg).Setup()
			Expect(err).To(HaveOccurred())
			if target != nil {
				Expect(err).To(MatchError(target))
			}
		},
		Entry("non-positive step", func(c *experiment.Config) { c.Grid.Step = 0 }, quantum.ErrInvalidGrid),
		Entry("too few points", func(c *experiment.Config) { c.Grid = experiment.GridSpec{Min: 0, Max: 0.1, Step: 0.05} }, quantum.ErrInvalidGrid),
		Entry("lambda below one", func(c *experiment.Config) { c.Params.Lambda = 0.5 }, quantum.ErrInvalidParams),
		Entry("unknown model", func(c *experiment.Config) { c.Model = "harmonic" }, nil),
		Entry("bad scan policy", func(c *experiment.Config) { c.Scan.Samples = 1 }, nil),
		Entry("negative levels", func(c *experiment.Config) { c.Levels = -1 }, nil),
	)

	It("refuses to run before setup", func() {
		_, err := experiment.New(cfg).Run(context.Background())
		Expect(err).To(MatchError(ContainSubstring("not setup")))
	})
})

var _ = Describe("Sweep", func() {
	var base experiment.Config

	BeforeEach(func() {
		base = experiment.DefaultConfig()
		base.Grid.Step = 0.1
		base.Levels = 2
	})

	It("tracks the closed-form spectrum across lambda", func() {
		points, err := experiment.Sweep(context.Background(), base, "lambda", 3, 5, 3, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(points).To(HaveLen(3))

		for i, want := range []float64{3, 4, 5} {
			pt := points[i]
			Expect(pt.Param).To(BeNumerically("~", want, 1e-12))
			Expect(pt.Complete).To(BeTrue())
			Expect(pt.Eigenvalues).To(HaveLen(2))
			Expect(pt.References).To(HaveLen(2))
			for n, e := range pt.Eigenvalues {
				Expect(e).To(BeNumerically("~", pt.References[n], 1e-2))
			}
		}
	})

	It("rejects unknown parameters", func() {
		_, err := experiment.Sweep(context.Background(), base, "depth", 3, 5, 3, 1)
		Expect(err).To(MatchError(quantum.ErrInvalidParams))
	})

	It("rejects degenerate ranges", func() {
		_, err := experiment.Sweep(context.Background(), base, "lambda", 5, 3, 3, 1)
		Expect(err).To(HaveOccurred())
		_, err = experiment.Sweep(context.Background(), base, "lambda", 3, 5, 1, 1)
		Expect(err).To(HaveOccurred())
	})

	It("fails when a swept value is invalid", func() {
		_, err := experiment.Sweep(context.Background(), base, "lambda", 0.5, 2, 3, 1)
		Expect(err).To(MatchError(quantum.ErrInvalidParams))
	})
})
