package analysis

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/san-kum/wpsim/internal/integrators"
	"github.com/san-kum/wpsim/internal/lattice"
	"github.com/san-kum/wpsim/internal/torus"
	"github.com/san-kum/wpsim/internal/trajectory"
)

// RenormFactor is how far, relative to the initial offset, the perturbed
// particle may drift before it is pulled back along the separation vector.
const RenormFactor = 1e3

var ErrInvalidPerturbation = errors.New("analysis: invalid perturbation")

// Separation is the outcome of LyapunovExponent. Time is how long both
// particles stayed clear of a halt.
type Separation struct {
	Exponent     float64
	Time         float64
	Renormalized int
	Reference    trajectory.Status
	Perturbed    trajectory.Status
}

// LyapunovExponent estimates the largest Lyapunov exponent of the launch
// (z0, v0) by stepping it in lockstep with a copy displaced by delta along
// the real axis. Distances are measured in phase space (z, v) with periodic
// positions. Both particles use fixed steps; cfg.Adaptive is ignored.
//
// Algorithm:
// 1. Step both particles
// 2. Once their separation d exceeds RenormFactor·delta, add ln(d/delta)
// and restart the perturbed particle at distance delta along the same
// direction
// 3. λ ≈ Σ ln(d/delta) / t
//
// The estimate stops at the first halt of either particle.
func LyapunovExponent(params lattice.Params, z0, v0 complex128, cfg trajectory.Config, delta float64) (Separation, error) {
	if !(delta > 0) || math.IsInf(delta, 0) {
		return Separation{}, fmt.Errorf("%w: delta must be positive and finite, got %g", ErrInvalidPerturbation, delta)
	}
	cfg.Adaptive = false

	ref, err := trajectory.NewRun(params, z0, v0, cfg)
	if err != nil {
		return Separation{}, err
	}
	pert, err := trajectory.NewRun(params, z0+complex(delta, 0), v0, cfg)
	if err != nil {
		return Separation{}, err
	}

	var (
		res    Separation
		sumLog float64
		d      = delta
	)
	for !ref.Done() && !pert.Done() {
		ref.Step()
		pert.Step()
		if ref.Status().Halted() || pert.Status().Halted() {
			break
		}
		res.Time = ref.Time()
		d = separation(ref.State(), pert.State(), params)
		if d < RenormFactor*delta || ref.Done() {
			continue
		}

		sumLog += math.Log(d / delta)
		res.Renormalized++
		pert, err = restart(ref, pert.State(), d, delta, cfg)
		if err != nil {
			return Separation{}, err
		}
		d = delta
	}
	if d > 0 {
		sumLog += math.Log(d / delta)
	}

	res.Reference = ref.Status()
	res.Perturbed = pert.Status()
	if res.Time > 0 {
		res.Exponent = sumLog / res.Time
	}
	return res, nil
}

func separation(a, b integrators.State, params lattice.Params) float64 {
	dz := torus.Displacement(b.Z, a.Z, params.P(), params.Q())
	dv := b.V - a.V
	return math.Sqrt(sq(cmplx.Abs(dz)) + sq(cmplx.Abs(dv)))
}

// restart places a new perturbed run at distance delta from ref along the
// current separation, for the time ref has left.
func restart(ref *trajectory.Run, b integrators.State, d, delta float64, cfg trajectory.Config) (*trajectory.Run, error) {
	a := ref.State()
	params := ref.Params()
	scale := complex(delta/d, 0)
	dz := torus.Displacement(b.Z, a.Z, params.P(), params.Q())

	rest := cfg
	rest.Duration = math.Max(cfg.Duration-ref.Time(), 0)
	return trajectory.NewRun(params, a.Z+dz*scale, a.V+(b.V-a.V)*scale, rest)
}

func sq(x float64) float64 { return x * x }
