package torus

import (
	"math"
	"math/cmplx"
)

// Sample is one element of a wrapped trajectory. Break samples carry a NaN
// position and mean "do not connect the neighbours".
type Sample struct {
	Z     complex128
	Break bool
}

// Wrapped is a wrapped trajectory interspersed with break samples.
type Wrapped []Sample

var breakSample = Sample{Z: cmplx.NaN(), Break: true}

// WrapWithBreaks wraps every point into the fundamental cell and inserts a
// break between consecutive wrapped points whose real parts differ by more
// than threshold·p or whose imaginary parts differ by more than threshold·q.
func WrapWithBreaks(points []complex128, p, q, threshold float64) Wrapped {
	if len(points) == 0 {
		return Wrapped{}
	}
	out := make(Wrapped, 0, len(points)+len(points)/8)
	prev := WrapPoint(points[0], p, q)
	out = append(out, Sample{Z: prev})
	for _, z := range points[1:] {
		w := WrapPoint(z, p, q)
		if math.Abs(real(w)-real(prev)) > threshold*p || math.Abs(imag(w)-imag(prev)) > threshold*q {
			out = append(out, breakSample)
		}
		out = append(out, Sample{Z: w})
		prev = w
	}
	return out
}

// Points returns the wrapped positions without break samples.
func (w Wrapped) Points() []complex128 {
	pts := make([]complex128, 0, len(w))
	for _, s := range w {
		if !s.Break {
			pts = append(pts, s.Z)
		}
	}
	return pts
}

// Breaks counts break samples.
func (w Wrapped) Breaks() int {
	n := 0
	for _, s := range w {
		if s.Break {
			n++
		}
	}
	return n
}

// Segments splits w at breaks into runs that can each be drawn as one
// polyline. Empty runs are dropped.
func (w Wrapped) Segments() [][]complex128 {
	var segs [][]complex128
	var cur []complex128
	for _, s := range w {
		if s.Break {
			if len(cur) > 0 {
				segs = append(segs, cur)
			}
			cur = nil
			continue
		}
		cur = append(cur, s.Z)
	}
	if len(cur) > 0 {
		segs = append(segs, cur)
	}
	return segs
}
