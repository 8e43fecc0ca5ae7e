package trajectory

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/san-kum/wpsim/internal/integrators"
	"github.com/san-kum/wpsim/internal/lattice"
	"github.com/san-kum/wpsim/internal/torus"
)

// Run advances one particle step by step. It is not safe for concurrent use.
type Run struct {
	params   lattice.Params
	cfg      Config
	stepper  integrators.Stepper
	adaptive integrators.AdaptiveStepper
	poles    []complex128

	state    integrators.State
	t, h     float64
	step     int
	steps    int
	attempts int

	status Status
	halt   *Halt
	points []complex128
	times  []float64
}

// NewRun validates the inputs and prepares a run at t=0 with trajectory
// [z0].
func NewRun(params lattice.Params, z0, v0 complex128, cfg Config) (*Run, error) {
	if !params.Valid() {
		return nil, fmt.Errorf("%w: lattice parameters not initialised", lattice.ErrInvalidParameter)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := &Run{
		params: params,
		cfg:    cfg,
		poles:  params.CellPoles(),
		state:  integrators.State{Z: z0, V: v0},
		h:      cfg.Dt,
		status: Running,
	}

	if cfg.Adaptive {
		r.adaptive = integrators.NewRK45()
		r.stepper = r.adaptive
	} else {
		stepper, err := integrators.New(cfg.stepperName())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		r.stepper = stepper
		r.steps = cfg.Steps()
		r.points = make([]complex128, 0, r.steps+1)
		r.times = make([]float64, 0, r.steps+1)
	}

	r.points = append(r.points, z0)
	r.times = append(r.times, 0)

	if r.finished() {
		r.status = Completed
	}
	return r, nil
}

// accel is the right-hand side z″ = −℘(z)·z.
func (r *Run) accel(z complex128) complex128 {
	return -lattice.Wp(z, r.params) * z
}

// Step performs one pole check and, if clear, one integration step.
// It returns the status after the step; once the run is done it is a no-op.
func (r *Run) Step() Status {
	if r.status != Running {
		return r.status
	}

	if r.nearPole(r.state.Z) {
		return r.stop(PoleHalt)
	}

	var (
		next integrators.State
		dt   float64
		st   Status
	)
	if r.adaptive != nil {
		next, dt, st = r.adaptiveStep()
	} else {
		next, dt, st = r.fixedStep()
	}
	if st != Running {
		return r.stop(st)
	}

	if cmplx.Abs(next.Z-r.state.Z) > r.cfg.BlowThresh || !next.IsValid() {
		return r.stop(BlowUp)
	}

	r.state = next
	r.step++
	if r.adaptive != nil {
		r.t += dt
	} else {
		r.t = float64(r.step) * r.cfg.Dt
	}
	r.points = append(r.points, next.Z)
	r.times = append(r.times, r.t)

	if r.finished() {
		r.status = Completed
	}
	return r.status
}

func (r *Run) fixedStep() (integrators.State, float64, Status) {
	next, err := r.stepper.Step(r.accel, r.state, r.cfg.Dt)
	if err != nil {
		return r.state, 0, NumericFailure
	}
	return next, r.cfg.Dt, Running
}

// adaptiveStep retries with smaller steps until the local error is within
// tolerance. Step-size underflow and an exhausted attempt budget count as
// numeric failure.
func (r *Run) adaptiveStep() (integrators.State, float64, Status) {
	h := math.Min(r.h, r.cfg.Duration-r.t)
	for {
		r.attempts++
		if r.attempts > r.cfg.MaxSteps {
			return r.state, 0, NumericFailure
		}

		next, hNext, accepted, err := r.adaptive.StepAdaptive(r.accel, r.state, h, r.cfg.Tolerance)
		if err != nil {
			return r.state, 0, NumericFailure
		}
		if accepted {
			r.h = math.Max(r.cfg.MinDt, math.Min(hNext, r.cfg.MaxDt))
			return next, h, Running
		}
		if hNext < r.cfg.MinDt {
			return r.state, 0, NumericFailure
		}
		h = hNext
	}
}

func (r *Run) finished() bool {
	if r.adaptive != nil {
		return r.cfg.Duration-r.t <= stepSlack*math.Max(1, r.cfg.Duration)
	}
	return r.step >= r.steps
}

func (r *Run) nearPole(z complex128) bool {
	if r.cfg.PoleEps == 0 {
		return false
	}
	p, q := r.params.P(), r.params.Q()
	wz := torus.WrapPoint(z, p, q)
	for _, w := range r.poles {
		if torus.Dist(wz, w, p, q) < r.cfg.PoleEps {
			return true
		}
	}
	return false
}

func (r *Run) stop(reason Status) Status {
	r.status = reason
	r.halt = &Halt{
		Reason:   reason,
		Position: r.state.Z,
		Time:     r.t,
		Step:     r.step,
	}
	return reason
}

func (r *Run) Status() Status           { return r.status }
func (r *Run) Done() bool               { return r.status != Running }
func (r *Run) State() integrators.State { return r.state }
func (r *Run) Time() float64            { return r.t }
func (r *Run) Steps() int               { return r.step }
func (r *Run) Params() lattice.Params   { return r.params }
func (r *Run) Points() []complex128     { return r.points }

// Trajectory returns a snapshot of the run so far. Points and Times are
// copied; the caller may keep stepping the run.
func (r *Run) Trajectory() *Trajectory {
	tr := &Trajectory{
		Points: append([]complex128(nil), r.points...),
		Times:  append([]float64(nil), r.times...),
		Final:  r.state,
	}
	if r.halt != nil {
		h := *r.halt
		tr.Halt = &h
	}
	return tr
}

// Integrate runs the state machine to completion.
func Integrate(params lattice.Params, z0, v0 complex128, cfg Config) (*Trajectory, error) {
	r, err := NewRun(params, z0, v0, cfg)
	if err != nil {
		return nil, err
	}
	for !r.Done() {
		r.Step()
	}
	return r.Trajectory(), nil
}
