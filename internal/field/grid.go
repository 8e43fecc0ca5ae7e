package field

import (
	"math"
	"math/cmplx"

	"github.com/san-kum/wpsim/internal/lattice"
	"gonum.org/v1/gonum/floats"
)

// Grid is a sampled lattice function with its validity mask. Read-only once
// returned by Sample.
type Grid struct {
	Nx, Ny  int
	X, Y    [][]float64
	F       [][]complex128
	M       [][]bool
	Which   lattice.Function
	Params  lattice.Params
	PoleEps float64
}

// At returns the coordinate, value and mask of cell (i, j).
func (g *Grid) At(i, j int) (z complex128, f complex128, valid bool) {
	return complex(g.X[i][j], g.Y[i][j]), g.F[i][j], g.M[i][j]
}

// Magnitude returns |F[i][j]|, or NaN for masked cells.
func (g *Grid) Magnitude(i, j int) float64 {
	if !g.M[i][j] {
		return math.NaN()
	}
	return cmplx.Abs(g.F[i][j])
}

func (g *Grid) ValidCount() int {
	n := 0
	for i := range g.M {
		for _, ok := range g.M[i] {
			if ok {
				n++
			}
		}
	}
	return n
}

// ValidFraction is ValidCount over the number of cells.
func (g *Grid) ValidFraction() float64 {
	total := g.Nx * g.Ny
	if total == 0 {
		return 0
	}
	return float64(g.ValidCount()) / float64(total)
}

// MagnitudeRange returns the smallest and largest |F| over valid cells.
// ok is false when every cell is masked.
func (g *Grid) MagnitudeRange() (lo, hi float64, ok bool) {
	mags := make([]float64, 0, g.Nx*g.Ny)
	for i := range g.F {
		for j := range g.F[i] {
			if g.M[i][j] {
				mags = append(mags, cmplx.Abs(g.F[i][j]))
			}
		}
	}
	if len(mags) == 0 {
		return 0, 0, false
	}
	return floats.Min(mags), floats.Max(mags), true
}
