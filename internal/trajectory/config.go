package trajectory

import (
	"fmt"
	"math"

	"github.com/san-kum/wpsim/internal/integrators"
)

// stepSlack is the relative rounding allowance in Duration/Dt, so that
// 3.0/0.01 counts as 300 steps rather than 301 while any positive Duration
// still takes at least one step.
const stepSlack = 1e-9

type Config struct {
	Dt         float64
	Duration   float64
	BlowThresh float64
	PoleEps    float64
	MaxSteps   int

	// Integrator names a fixed-step stepper; empty means rk4.
	Integrator string

	// Adaptive switches to Dormand-Prince step-size control. Dt is then
	// the initial step.
	Adaptive  bool
	Tolerance float64
	MinDt     float64
	MaxDt     float64
}

func DefaultConfig() Config {
	return Config{
		Dt:         0.01,
		Duration:   3.0,
		BlowThresh: 10.0,
		PoleEps:    0.05,
		MaxSteps:   1_000_000,
		Integrator: "rk4",
		Tolerance:  1e-8,
		MinDt:      1e-9,
		MaxDt:      0.1,
	}
}

// Steps returns the number of fixed steps needed to reach Duration.
func (c Config) Steps() int {
	if c.Duration <= 0 {
		return 0
	}
	return int(math.Ceil(c.Duration / c.Dt * (1 - stepSlack)))
}

func (c Config) Validate() error {
	if !finitePositive(c.Dt) {
		return fmt.Errorf("%w: dt must be positive, got %g", ErrInvalidConfig, c.Dt)
	}
	if math.IsNaN(c.Duration) || math.IsInf(c.Duration, 0) || c.Duration < 0 {
		return fmt.Errorf("%w: duration must be finite and non-negative, got %g", ErrInvalidConfig, c.Duration)
	}
	if math.IsNaN(c.BlowThresh) || c.BlowThresh <= 0 {
		return fmt.Errorf("%w: blow_thresh must be positive, got %g", ErrInvalidConfig, c.BlowThresh)
	}
	if math.IsNaN(c.PoleEps) || math.IsInf(c.PoleEps, 0) || c.PoleEps < 0 {
		return fmt.Errorf("%w: pole_eps must be finite and non-negative, got %g", ErrInvalidConfig, c.PoleEps)
	}
	if c.MaxSteps <= 0 {
		return fmt.Errorf("%w: max_steps must be positive, got %d", ErrInvalidConfig, c.MaxSteps)
	}
	if c.Adaptive {
		if !finitePositive(c.Tolerance) {
			return fmt.Errorf("%w: tolerance must be positive for adaptive stepping", ErrInvalidConfig)
		}
		if !finitePositive(c.MinDt) || !finitePositive(c.MaxDt) || c.MinDt > c.MaxDt {
			return fmt.Errorf("%w: need 0 < min_dt <= max_dt, got %g, %g", ErrInvalidConfig, c.MinDt, c.MaxDt)
		}
		return nil
	}
	if _, err := integrators.New(c.stepperName()); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if n := c.Steps(); n > c.MaxSteps {
		return fmt.Errorf("%w: %d steps requested, budget %d", ErrStepBudget, n, c.MaxSteps)
	}
	return nil
}

func (c Config) stepperName() string {
	if c.Integrator == "" {
		return "rk4"
	}
	return c.Integrator
}

func finitePositive(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0) && x > 0
}
