package field

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"runtime"

	"github.com/san-kum/wpsim/internal/lattice"
	"github.com/san-kum/wpsim/internal/torus"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// DefaultMaxMagnitude bounds |F| for a cell to count as valid.
const DefaultMaxMagnitude = 1e10

// ErrInvalidGrid indicates a malformed sampling request.
var ErrInvalidGrid = errors.New("field: invalid grid request")

type options struct {
	workers      int
	maxMagnitude float64
}

// Option configures Sample.
type Option func(*options)

// WithWorkers bounds the number of rows evaluated concurrently. Values
// below 1 fall back to GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithMaxMagnitude overrides DefaultMaxMagnitude.
func WithMaxMagnitude(m float64) Option {
	return func(o *options) { o.maxMagnitude = m }
}

// Sample evaluates which over an nx×ny grid spanning [0,p]×[0,q].
//
// A cell is valid unless it lies within poleEps (periodic distance) of a
// wrapped lattice point with |m|, |n| ≤ N, its value is non-finite, or its
// magnitude exceeds the configured maximum. Poles never produce an error.
func Sample(params lattice.Params, which lattice.Function, nx, ny int, poleEps float64, opts ...Option) (*Grid, error) {
	if !params.Valid() {
		return nil, fmt.Errorf("%w: lattice parameters not initialised", lattice.ErrInvalidParameter)
	}
	if nx < 1 || ny < 1 {
		return nil, fmt.Errorf("%w: need nx, ny >= 1, got %dx%d", ErrInvalidGrid, nx, ny)
	}
	if math.IsNaN(poleEps) || math.IsInf(poleEps, 0) || poleEps < 0 {
		return nil, fmt.Errorf("%w: pole_eps must be finite and non-negative, got %g", ErrInvalidGrid, poleEps)
	}

	o := options{workers: runtime.GOMAXPROCS(0), maxMagnitude: DefaultMaxMagnitude}
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers < 1 {
		o.workers = runtime.GOMAXPROCS(0)
	}

	p, q := params.P(), params.Q()
	xs := span(nx, p)
	ys := span(ny, q)
	poles := params.CellPoles()

	g := &Grid{
		Nx:      nx,
		Ny:      ny,
		X:       make([][]float64, nx),
		Y:       make([][]float64, nx),
		F:       make([][]complex128, nx),
		M:       make([][]bool, nx),
		Which:   which,
		Params:  params,
		PoleEps: poleEps,
	}

	var eg errgroup.Group
	eg.SetLimit(o.workers)
	for i := 0; i < nx; i++ {
		eg.Go(func() error {
			g.fillRow(i, xs[i], ys, poles, o.maxMagnitude)
			return nil
		})
	}
	_ = eg.Wait()

	return g, nil
}

func (g *Grid) fillRow(i int, x float64, ys []float64, poles []complex128, maxMag float64) {
	p, q := g.Params.P(), g.Params.Q()
	xr := make([]float64, len(ys))
	yr := make([]float64, len(ys))
	fr := make([]complex128, len(ys))
	mr := make([]bool, len(ys))

	for j, y := range ys {
		z := complex(x, y)
		xr[j], yr[j] = x, y

		valid := true
		wz := torus.WrapPoint(z, p, q)
		for _, w := range poles {
			if torus.Dist(wz, w, p, q) < g.PoleEps {
				valid = false
				break
			}
		}

		f := g.Which.Eval(z, g.Params)
		fr[j] = f
		if !lattice.IsFinite(f) || cmplx.Abs(f) > maxMag {
			valid = false
		}
		mr[j] = valid
	}

	g.X[i], g.Y[i], g.F[i], g.M[i] = xr, yr, fr, mr
}

// span returns n evenly spaced samples over [0, hi]. A single sample sits
// at 0.
func span(n int, hi float64) []float64 {
	if n == 1 {
		return []float64{0}
	}
	return floats.Span(make([]float64, n), 0, hi)
}
