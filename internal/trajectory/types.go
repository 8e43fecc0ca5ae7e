package trajectory

import (
	"errors"
	"fmt"

	"github.com/san-kum/wpsim/internal/integrators"
	"github.com/san-kum/wpsim/internal/torus"
)

var (
	// ErrInvalidConfig indicates a malformed integration request.
	ErrInvalidConfig = errors.New("trajectory: invalid config")

	// ErrStepBudget indicates Duration/Dt exceeds Config.MaxSteps.
	ErrStepBudget = errors.New("trajectory: step budget exceeded")
)

// Status is the state of a Run.
type Status int

const (
	Running Status = iota
	Completed
	PoleHalt
	BlowUp
	NumericFailure
)

var statusNames = map[Status]string{
	Running:        "running",
	Completed:      "completed",
	PoleHalt:       "pole_halt",
	BlowUp:         "blow_up",
	NumericFailure: "numeric_failure",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Halted reports whether s is one of the early-termination states.
func (s Status) Halted() bool {
	return s == PoleHalt || s == BlowUp || s == NumericFailure
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Status) UnmarshalText(b []byte) error {
	for st, name := range statusNames {
		if name == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("trajectory: unknown status %q", b)
}

// Halt records where, when and why a run stopped early.
type Halt struct {
	Reason   Status
	Position complex128
	Time     float64
	Step     int
}

// Trajectory is the immutable result of a run. Halt is nil when the run
// reached its duration.
type Trajectory struct {
	Points []complex128
	Times  []float64
	Halt   *Halt
	Final  integrators.State
}

// Status returns Completed or the halt reason.
func (t *Trajectory) Status() Status {
	if t.Halt == nil {
		return Completed
	}
	return t.Halt.Reason
}

func (t *Trajectory) Halted() bool { return t.Halt != nil }

func (t *Trajectory) Len() int { return len(t.Points) }

// Last returns the final recorded position.
func (t *Trajectory) Last() complex128 { return t.Points[len(t.Points)-1] }

// Wrap maps the trajectory into the fundamental cell with rendering breaks.
func (t *Trajectory) Wrap(p, q, threshold float64) torus.Wrapped {
	return torus.WrapWithBreaks(t.Points, p, q, threshold)
}
