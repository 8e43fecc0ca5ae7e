package lattice

import (
	"fmt"
	"math"

	"github.com/san-kum/wpsim/internal/torus"
)

// AdvisoryN is the truncation radius above which Advisory reports the
// evaluation cost to the caller.
const AdvisoryN = 64

// Params holds the periods and truncation radius of a rectangular lattice.
// The zero value is not valid; build one with NewParams.
type Params struct {
	p, q float64
	n    int
}

// NewParams validates and returns lattice parameters.
func NewParams(p, q float64, n int) (Params, error) {
	if math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 {
		return Params{}, fmt.Errorf("%w: p must be positive and finite, got %g", ErrInvalidParameter, p)
	}
	if math.IsNaN(q) || math.IsInf(q, 0) || q <= 0 {
		return Params{}, fmt.Errorf("%w: q must be positive and finite, got %g", ErrInvalidParameter, q)
	}
	if n < 0 {
		return Params{}, fmt.Errorf("%w: N must be non-negative, got %d", ErrInvalidParameter, n)
	}
	return Params{p: p, q: q, n: n}, nil
}

// MustParams is like NewParams but panics on invalid input. Intended for
// presets and tests.
func MustParams(p, q float64, n int) Params {
	params, err := NewParams(p, q, n)
	if err != nil {
		panic(err)
	}
	return params
}

func (l Params) P() float64 { return l.p }
func (l Params) Q() float64 { return l.q }
func (l Params) N() int     { return l.n }

// Valid reports whether l was produced by NewParams.
func (l Params) Valid() bool { return l.p > 0 && l.q > 0 && l.n >= 0 }

// Terms returns the number of lattice terms summed per evaluation,
// including the 1/z² term.
func (l Params) Terms() int {
	side := 2*l.n + 1
	return side * side
}

// Omega returns the lattice point m·p + n·q·i.
func (l Params) Omega(m, n int) complex128 {
	return complex(float64(m)*l.p, float64(n)*l.q)
}

// Points returns every non-zero lattice point with |m|, |n| ≤ N in
// summation order (m outer, n inner).
func (l Params) Points() []complex128 {
	pts := make([]complex128, 0, l.Terms()-1)
	for m := -l.n; m <= l.n; m++ {
		for n := -l.n; n <= l.n; n++ {
			if m == 0 && n == 0 {
				continue
			}
			pts = append(pts, l.Omega(m, n))
		}
	}
	return pts
}

// Advisory returns a message when the truncation radius makes each
// evaluation expensive. The lattice package never logs; callers decide.
func (l Params) Advisory() (string, bool) {
	if l.n <= AdvisoryN {
		return "", false
	}
	return fmt.Sprintf("truncation radius N=%d sums %d terms per evaluation", l.n, l.Terms()), true
}

func (l Params) String() string {
	return fmt.Sprintf("p=%g q=%g N=%d", l.p, l.q, l.n)
}

// CellPoles returns every summed lattice point, origin included, wrapped
// into the fundamental cell. Rounding in m·p can leave several copies near
// the corners; all of them are kept.
func (l Params) CellPoles() []complex128 {
	return torus.WrapUnique(append(l.Points(), 0), l.p, l.q)
}
