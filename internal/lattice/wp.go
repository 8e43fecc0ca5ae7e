package lattice

import "math"

// Wp evaluates ℘(z) = 1/z² + Σ' [1/(z−ω)² − 1/ω²] over |m|, |n| ≤ N.
func Wp(z complex128, l Params) complex128 {
	sum := 1 / (z * z)
	for m := -l.n; m <= l.n; m++ {
		for n := -l.n; n <= l.n; n++ {
			if m == 0 && n == 0 {
				continue
			}
			w := l.Omega(m, n)
			d := z - w
			sum += 1/(d*d) - 1/(w*w)
		}
	}
	return sum
}

// WpDeriv evaluates ℘′(z) = −2/z³ + Σ' −2/(z−ω)³ over |m|, |n| ≤ N.
func WpDeriv(z complex128, l Params) complex128 {
	sum := -2 / (z * z * z)
	for m := -l.n; m <= l.n; m++ {
		for n := -l.n; n <= l.n; n++ {
			if m == 0 && n == 0 {
				continue
			}
			d := z - l.Omega(m, n)
			sum += -2 / (d * d * d)
		}
	}
	return sum
}

// WpBatch evaluates Wp for every element of zs, writing into dst when it
// has room. The returned slice has len(zs).
func WpBatch(dst, zs []complex128, l Params) []complex128 {
	dst = grow(dst, len(zs))
	for i, z := range zs {
		dst[i] = Wp(z, l)
	}
	return dst
}

// WpDerivBatch is the batch form of WpDeriv.
func WpDerivBatch(dst, zs []complex128, l Params) []complex128 {
	dst = grow(dst, len(zs))
	for i, z := range zs {
		dst[i] = WpDeriv(z, l)
	}
	return dst
}

func grow(dst []complex128, n int) []complex128 {
	if cap(dst) < n {
		return make([]complex128, n)
	}
	return dst[:n]
}

// IsFinite reports whether both parts of z are finite.
func IsFinite(z complex128) bool {
	re, im := real(z), imag(z)
	return !math.IsNaN(re) && !math.IsInf(re, 0) && !math.IsNaN(im) && !math.IsInf(im, 0)
}
