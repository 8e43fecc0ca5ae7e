package metrics

import (
	"math"
	"math/cmplx"

	"github.com/san-kum/wpsim/internal/lattice"
	"github.com/san-kum/wpsim/internal/torus"
	"github.com/san-kum/wpsim/internal/trajectory"
)

// Metric accumulates a scalar over the recorded points of a trajectory.
type Metric interface {
	Name() string
	Observe(z complex128, t float64)
	Value() float64
	Reset()
}

type PathLength struct {
	prev   complex128
	length float64
	seen   bool
}

func NewPathLength() *PathLength { return &PathLength{} }

func (p *PathLength) Name() string { return "path_length" }

func (p *PathLength) Observe(z complex128, t float64) {
	if p.seen {
		p.length += cmplx.Abs(z - p.prev)
	}
	p.prev, p.seen = z, true
}

func (p *PathLength) Value() float64 { return p.length }

func (p *PathLength) Reset() { *p = PathLength{} }

// MaxSpeed is the largest finite-difference speed |Δz|/Δt between
// consecutive points.
type MaxSpeed struct {
	prev  complex128
	prevT float64
	max   float64
	seen  bool
}

func NewMaxSpeed() *MaxSpeed { return &MaxSpeed{} }

func (m *MaxSpeed) Name() string { return "max_speed" }

func (m *MaxSpeed) Observe(z complex128, t float64) {
	if m.seen && t > m.prevT {
		m.max = math.Max(m.max, cmplx.Abs(z-m.prev)/(t-m.prevT))
	}
	m.prev, m.prevT, m.seen = z, t, true
}

func (m *MaxSpeed) Value() float64 { return m.max }

func (m *MaxSpeed) Reset() { *m = MaxSpeed{} }

// MinPoleDistance is the closest periodic approach to any lattice point.
type MinPoleDistance struct {
	p, q  float64
	poles []complex128
	min   float64
}

func NewMinPoleDistance(params lattice.Params) *MinPoleDistance {
	return &MinPoleDistance{
		p:     params.P(),
		q:     params.Q(),
		poles: params.CellPoles(),
		min:   math.Inf(1),
	}
}

func (m *MinPoleDistance) Name() string { return "min_pole_distance" }

func (m *MinPoleDistance) Observe(z complex128, t float64) {
	wz := torus.WrapPoint(z, m.p, m.q)
	for _, w := range m.poles {
		m.min = math.Min(m.min, torus.Dist(wz, w, m.p, m.q))
	}
}

func (m *MinPoleDistance) Value() float64 { return m.min }

func (m *MinPoleDistance) Reset() { m.min = math.Inf(1) }

// Stability is the fraction of points whose |z| stays within threshold.
type Stability struct {
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{threshold: threshold}
}

func (s *Stability) Name() string { return "stability" }

func (s *Stability) Observe(z complex128, t float64) {
	s.samples++
	if cmplx.Abs(z) > s.threshold {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}

// Standard returns the metrics recorded with every stored trajectory. The
// stability box is one lattice cell diagonal around the origin.
func Standard(params lattice.Params) []Metric {
	return []Metric{
		NewPathLength(),
		NewMaxSpeed(),
		NewMinPoleDistance(params),
		NewStability(math.Hypot(params.P(), params.Q())),
	}
}

// Evaluate feeds every point of tr to each metric and returns the values by
// name. Metrics are reset first.
func Evaluate(tr *trajectory.Trajectory, ms ...Metric) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		m.Reset()
		for i, z := range tr.Points {
			m.Observe(z, tr.Times[i])
		}
		out[m.Name()] = m.Value()
	}
	return out
}
