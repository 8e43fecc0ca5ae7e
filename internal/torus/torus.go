// Package torus maps complex points onto the fundamental cell [0,p)×[0,q)
// of a rectangular lattice and prepares wrapped trajectories for drawing.
package torus

import "math"

// DefaultWrapThreshold is the fraction of a cell dimension a consecutive
// wrapped jump must exceed to be treated as a boundary crossing.
const DefaultWrapThreshold = 0.5

// WrapPoint reduces the real part of z mod p into [0,p) and the imaginary
// part mod q into [0,q).
func WrapPoint(z complex128, p, q float64) complex128 {
	return complex(wrap(real(z), p), wrap(imag(z), q))
}

func wrap(x, period float64) float64 {
	r := math.Mod(x, period)
	if r < 0 {
		r += period
	}
	// tiny negative remainders round up to exactly period
	if r >= period {
		r = 0
	}
	return r
}

// Dist returns the periodic (minimum-image) distance between a and b on the
// torus ℂ/(ℤp+ℤqi).
func Dist(a, b complex128, p, q float64) float64 {
	return math.Hypot(delta(real(a), real(b), p), delta(imag(a), imag(b), q))
}

func delta(a, b, period float64) float64 {
	d := math.Mod(math.Abs(a-b), period)
	return math.Min(d, period-d)
}

// Displacement returns the shortest signed offset a−b on the torus; its
// modulus equals Dist(a, b, p, q).
func Displacement(a, b complex128, p, q float64) complex128 {
	return complex(signed(real(a)-real(b), p), signed(imag(a)-imag(b), q))
}

func signed(d, period float64) float64 {
	d = math.Mod(d, period)
	if d > period/2 {
		d -= period
	} else if d < -period/2 {
		d += period
	}
	return d
}

// WrapUnique wraps points into the cell and drops exact duplicates, keeping
// first-seen order.
func WrapUnique(points []complex128, p, q float64) []complex128 {
	seen := make(map[complex128]struct{}, len(points))
	out := make([]complex128, 0, 4)
	for _, z := range points {
		w := WrapPoint(z, p, q)
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}
