package integrators

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	// ErrNonFinite indicates a stage acceleration evaluated to NaN or Inf.
	ErrNonFinite = errors.New("integrators: non-finite acceleration")

	// ErrUnknownStepper is returned by New for unregistered names.
	ErrUnknownStepper = errors.New("integrators: unknown stepper")
)

// State is a particle position and velocity.
type State struct {
	Z, V complex128
}

// IsValid reports whether both position and velocity are finite.
func (s State) IsValid() bool {
	return finite(s.Z) && finite(s.V)
}

// Accel returns z″ for a position z.
type Accel func(z complex128) complex128

// Stepper advances a State by one step of size dt.
type Stepper interface {
	Step(a Accel, s State, dt float64) (State, error)
}

// AdaptiveStepper additionally proposes the next step size. accepted is
// false when the local error exceeded tol; the caller should retry with
// dtNext.
type AdaptiveStepper interface {
	Stepper
	StepAdaptive(a Accel, s State, dt, tol float64) (next State, dtNext float64, accepted bool, err error)
}

var registry = map[string]func() Stepper{
	"rk4":    func() Stepper { return NewRK4() },
	"rk45":   func() Stepper { return NewRK45() },
	"verlet": func() Stepper { return NewVerlet() },
	"euler":  func() Stepper { return NewEuler() },
}

// New returns a fresh stepper by name.
func New(name string) (Stepper, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s (available: %v)", ErrUnknownStepper, name, Names())
	}
	return fn(), nil
}

// Names lists registered steppers in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func accel(a Accel, z complex128) (complex128, error) {
	acc := a(z)
	if !finite(acc) {
		return acc, ErrNonFinite
	}
	return acc, nil
}

func finite(z complex128) bool {
	re, im := real(z), imag(z)
	return !math.IsNaN(re) && !math.IsInf(re, 0) && !math.IsNaN(im) && !math.IsInf(im, 0)
}
