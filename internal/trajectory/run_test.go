package trajectory_test

import (
	"context"
	"math"
	"math/cmplx"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/wpsim/internal/lattice"
	"github.com/san-kum/wpsim/internal/trajectory"
)

var _ = Describe("Integrate", func() {
	var (
		params lattice.Params
		cfg    trajectory.Config
	)

	BeforeEach(func() {
		params = lattice.MustParams(11, 5, 3)
		cfg = trajectory.DefaultConfig()
		cfg.Dt = 0.01
		cfg.Duration = 3.0
		cfg.BlowThresh = 10.0
		cfg.PoleEps = 0.05
	})

	Context("reference scenario z0=5.5, v0=i", func() {
		It("runs to completion with 301 points", func() {
			tr, err := trajectory.Integrate(params, 5.5, 1i, cfg)
			Expect(err).NotTo(HaveOccurred())

			Expect(tr.Halt).To(BeNil())
			Expect(tr.Status()).To(Equal(trajectory.Completed))
			Expect(tr.Len()).To(Equal(301))
			Expect(tr.Points[0]).To(Equal(complex(5.5, 0)))
			Expect(tr.Times[len(tr.Times)-1]).To(BeNumerically("~", 3.0, 1e-9))

			last := tr.Last()
			Expect(real(last)).To(BeNumerically("~", 2.5498844315576226, 1e-6))
			Expect(imag(last)).To(BeNumerically("~", 2.5041475788611365, 1e-6))
		})

		It("is deterministic across repeated runs", func() {
			a, err := trajectory.Integrate(params, 5.5, 1i, cfg)
			Expect(err).NotTo(HaveOccurred())
			b, err := trajectory.Integrate(params, 5.5, 1i, cfg)
			Expect(err).NotTo(HaveOccurred())

			Expect(b.Points).To(Equal(a.Points))
			Expect(b.Status()).To(Equal(a.Status()))
		})

		It("produces the same result when stepped incrementally", func() {
			whole, err := trajectory.Integrate(params, 5.5, 1i, cfg)
			Expect(err).NotTo(HaveOccurred())

			run, err := trajectory.NewRun(params, 5.5, 1i, cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(run.Status()).To(Equal(trajectory.Running))
			for !run.Done() {
				run.Step()
			}
			Expect(run.Step()).To(Equal(trajectory.Completed))
			Expect(run.Trajectory().Points).To(Equal(whole.Points))
			Expect(run.Steps()).To(Equal(300))
		})
	})

	Context("step count", func() {
		It("takes one step for a tiny positive duration", func() {
			cfg.Duration = 5e-12
			Expect(cfg.Steps()).To(Equal(1))

			tr, err := trajectory.Integrate(params, 5.5, 1i, cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.Status()).To(Equal(trajectory.Completed))
			Expect(tr.Len()).To(Equal(2))
		})

		It("does not add a step for rounding in duration/dt", func() {
			for _, d := range []float64{0.3, 1.0, 3.0, 7.77} {
				cfg.Duration = d
				Expect(cfg.Steps()).To(Equal(int(math.Round(d / cfg.Dt))))
			}
			cfg.Duration = 0
			Expect(cfg.Steps()).To(Equal(0))
		})
	})

	Context("pole proximity", func() {
		It("halts immediately when z0 is within pole_eps of a pole", func() {
			cfg.PoleEps = 0.01
			tr, err := trajectory.Integrate(params, 0.001, 1i, cfg)
			Expect(err).NotTo(HaveOccurred())

			Expect(tr.Len()).To(Equal(1))
			Expect(tr.Status()).To(Equal(trajectory.PoleHalt))
			Expect(tr.Halt.Position).To(Equal(complex(0.001, 0)))
			Expect(tr.Halt.Step).To(Equal(0))
		})

		It("sees poles through periodic images", func() {
			cfg.PoleEps = 0.01
			for _, z0 := range []complex128{complex(11.001, 5), complex(10.999, 0), complex(-22, 4.995)} {
				tr, err := trajectory.Integrate(params, z0, 0, cfg)
				Expect(err).NotTo(HaveOccurred())
				Expect(tr.Status()).To(Equal(trajectory.PoleHalt), "z0=%v", z0)
				Expect(tr.Len()).To(Equal(1))
			}
		})

		It("halts before stepping into a pole and reports the last position", func() {
			tr, err := trajectory.Integrate(params, 0.3, 0, cfg)
			Expect(err).NotTo(HaveOccurred())

			Expect(tr.Status()).To(Equal(trajectory.PoleHalt))
			Expect(tr.Len()).To(BeNumerically("<", 301))
			Expect(tr.Len()).To(BeNumerically(">", 1))
			Expect(tr.Halt.Position).To(Equal(tr.Last()))
			Expect(cmplx.Abs(tr.Halt.Position)).To(BeNumerically("<", cfg.PoleEps))
		})
	})

	Context("blow-up", func() {
		It("stops on an oversized step and keeps the last valid position", func() {
			cfg.PoleEps = 1e-9
			cfg.BlowThresh = 0.01

			tr, err := trajectory.Integrate(params, 0.3, 0, cfg)
			Expect(err).NotTo(HaveOccurred())

			Expect(tr.Status()).To(Equal(trajectory.BlowUp))
			Expect(tr.Len()).To(BeNumerically("<", 301))
			Expect(tr.Halt.Position).To(Equal(tr.Last()))
			Expect(tr.Halt.Step).To(Equal(tr.Len() - 1))
			for i := 1; i < tr.Len(); i++ {
				Expect(cmplx.Abs(tr.Points[i] - tr.Points[i-1])).To(BeNumerically("<=", cfg.BlowThresh))
			}
		})
	})

	Context("numeric failure", func() {
		It("stops when an RK4 stage lands on a pole", func() {
			// the second stage evaluates at 0.005 + 0.005*(-1) = 0
			cfg.PoleEps = 0
			tr, err := trajectory.Integrate(params, 0.005, -1, cfg)
			Expect(err).NotTo(HaveOccurred())

			Expect(tr.Status()).To(Equal(trajectory.NumericFailure))
			Expect(tr.Len()).To(Equal(1))
			Expect(tr.Halt.Position).To(Equal(complex(0.005, 0)))
		})
	})

	DescribeTable("termination exclusivity",
		func(z0, v0 complex128, eps, blow float64) {
			cfg.PoleEps = eps
			cfg.BlowThresh = blow
			tr, err := trajectory.Integrate(params, z0, v0, cfg)
			Expect(err).NotTo(HaveOccurred())

			Expect(tr.Len()).To(BeNumerically(">=", 1))
			Expect(tr.Status()).To(BeElementOf(
				trajectory.Completed, trajectory.PoleHalt, trajectory.BlowUp, trajectory.NumericFailure))
			if tr.Halt == nil {
				Expect(tr.Len()).To(Equal(301))
			} else {
				Expect(tr.Halt.Reason.Halted()).To(BeTrue())
				Expect(tr.Len()).To(BeNumerically("<", 301))
			}
		},
		Entry("reference", complex(5.5, 0), complex(0, 1), 0.05, 10.0),
		Entry("falls into origin", complex(0.3, 0), complex(0, 0), 0.05, 10.0),
		Entry("blows up", complex(0.3, 0), complex(0, 0), 1e-9, 0.01),
		Entry("numeric failure", complex(0.005, 0), complex(-1, 0), 0.0, 10.0),
		Entry("fast diagonal", complex(2, 1.5), complex(3, 3), 0.05, 10.0),
		Entry("starts on pole", complex(0, 0), complex(1, 0), 0.05, 10.0),
	)

	It("returns only z0 for zero duration", func() {
		cfg.Duration = 0
		tr, err := trajectory.Integrate(params, 2+1i, 1, cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(tr.Len()).To(Equal(1))
		Expect(tr.Status()).To(Equal(trajectory.Completed))
	})

	It("wraps into the fundamental cell", func() {
		tr, err := trajectory.Integrate(params, 5.5, 1i, cfg)
		Expect(err).NotTo(HaveOccurred())

		w := tr.Wrap(11, 5, 0.5)
		Expect(w.Points()).To(HaveLen(tr.Len()))
		for _, z := range w.Points() {
			Expect(real(z)).To(BeNumerically(">=", 0))
			Expect(real(z)).To(BeNumerically("<", 11))
			Expect(imag(z)).To(BeNumerically(">=", 0))
			Expect(imag(z)).To(BeNumerically("<", 5))
		}
	})

	Context("adaptive stepping", func() {
		It("reaches the duration and agrees with fixed-step RK4", func() {
			fixed, err := trajectory.Integrate(params, 5.5, 1i, cfg)
			Expect(err).NotTo(HaveOccurred())

			cfg.Adaptive = true
			adaptive, err := trajectory.Integrate(params, 5.5, 1i, cfg)
			Expect(err).NotTo(HaveOccurred())

			Expect(adaptive.Status()).To(Equal(trajectory.Completed))
			Expect(adaptive.Times[len(adaptive.Times)-1]).To(BeNumerically("~", cfg.Duration, 1e-6))
			Expect(cmplx.Abs(adaptive.Last() - fixed.Last())).To(BeNumerically("<", 1e-3))
		})
	})

	Context("invalid configuration", func() {
		It("rejects malformed configs", func() {
			bad := []func(c *trajectory.Config){
				func(c *trajectory.Config) { c.Dt = 0 },
				func(c *trajectory.Config) { c.Dt = -0.1 },
				func(c *trajectory.Config) { c.Duration = -1 },
				func(c *trajectory.Config) { c.Duration = math.Inf(1) },
				func(c *trajectory.Config) { c.BlowThresh = 0 },
				func(c *trajectory.Config) { c.PoleEps = -1 },
				func(c *trajectory.Config) { c.Integrator = "midpoint" },
				func(c *trajectory.Config) { c.Adaptive = true; c.Tolerance = 0 },
			}
			for _, mutate := range bad {
				c := cfg
				mutate(&c)
				_, err := trajectory.Integrate(params, 5.5, 1i, c)
				Expect(err).To(MatchError(trajectory.ErrInvalidConfig))
			}
		})

		It("enforces the step budget", func() {
			cfg.MaxSteps = 100
			_, err := trajectory.Integrate(params, 5.5, 1i, cfg)
			Expect(err).To(MatchError(trajectory.ErrStepBudget))
		})

		It("rejects uninitialised lattice parameters", func() {
			_, err := trajectory.Integrate(lattice.Params{}, 5.5, 1i, cfg)
			Expect(err).To(MatchError(lattice.ErrInvalidParameter))
		})
	})
})

var _ = Describe("Ensemble", func() {
	It("matches sequential integration in input order", func() {
		params := lattice.MustParams(11, 5, 3)
		cfg := trajectory.DefaultConfig()
		cfg.Duration = 1.0

		inits := trajectory.LaunchFan(5.5+2.5i, 1.0, 6)
		Expect(inits).To(HaveLen(6))
		Expect(cmplx.Abs(inits[3].V0)).To(BeNumerically("~", 1.0, 1e-12))
		Expect(real(inits[0].V0)).To(BeNumerically("~", 1.0, 1e-12))

		results, err := trajectory.Ensemble(context.Background(), params, inits, cfg, 3)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(len(inits)))

		for i, in := range inits {
			want, err := trajectory.Integrate(params, in.Z0, in.V0, cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(results[i].Points).To(Equal(want.Points))
		}

		total := 0
		for _, n := range trajectory.Summary(results) {
			total += n
		}
		Expect(total).To(Equal(len(inits)))
	})

	It("stops scheduling after cancellation", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := trajectory.Ensemble(ctx, lattice.MustParams(1, 1, 1), trajectory.LaunchFan(0.5+0.5i, 1, 4), trajectory.DefaultConfig(), 2)
		Expect(err).To(MatchError(context.Canceled))
	})

	It("validates the config once up front", func() {
		cfg := trajectory.DefaultConfig()
		cfg.Dt = 0
		_, err := trajectory.Ensemble(context.Background(), lattice.MustParams(1, 1, 1), nil, cfg, 1)
		Expect(err).To(MatchError(trajectory.ErrInvalidConfig))
	})
})

var _ = Describe("Status", func() {
	It("round-trips through text", func() {
		for _, s := range []trajectory.Status{trajectory.Completed, trajectory.PoleHalt, trajectory.BlowUp, trajectory.NumericFailure} {
			b, err := s.MarshalText()
			Expect(err).NotTo(HaveOccurred())
			var got trajectory.Status
			Expect(got.UnmarshalText(b)).To(Succeed())
			Expect(got).To(Equal(s))
		}
		var s trajectory.Status
		Expect(s.UnmarshalText([]byte("exploded"))).NotTo(Succeed())
	})
})
