package lattice

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Reference values from a direct double-loop summation in float64.
const (
	goldenWp      = complex(0.07735802782660778, -0.10832813884066239)
	goldenWpDeriv = complex(0.0837974630695541, 0.11794032406334173)
)

func relClose(t *testing.T, want, got complex128, tol float64) {
	t.Helper()
	scale := math.Max(cmplx.Abs(want), 1)
	assert.LessOrEqual(t, cmplx.Abs(want-got)/scale, tol, "want %v got %v", want, got)
}

func TestWp_Golden(t *testing.T) {
	params := MustParams(11, 5, 3)
	z := complex(2.0, 1.5)

	w := Wp(z, params)
	require.True(t, IsFinite(w))
	assert.InDelta(t, real(goldenWp), real(w), 1e-9)
	assert.InDelta(t, imag(goldenWp), imag(w), 1e-9)

	d := WpDeriv(z, params)
	require.True(t, IsFinite(d))
	assert.InDelta(t, real(goldenWpDeriv), real(d), 1e-9)
	assert.InDelta(t, imag(goldenWpDeriv), imag(d), 1e-9)
}

func TestWp_ZeroTruncation(t *testing.T) {
	params := MustParams(3, 4, 0)
	z := complex(0.7, -0.2)
	relClose(t, 1/(z*z), Wp(z, params), 1e-15)
	relClose(t, -2/(z*z*z), WpDeriv(z, params), 1e-15)
}

func TestWp_Evenness(t *testing.T) {
	params := MustParams(11, 5, 3)
	points := []complex128{
		complex(2.0, 1.5),
		complex(0.3, -0.7),
		complex(5.5, 2.5),
		complex(-3.1, 4.2),
		complex(7.9, 0.01),
	}
	for _, z := range points {
		relClose(t, Wp(z, params), Wp(-z, params), 1e-9)
	}
}

func TestWpDeriv_Oddness(t *testing.T) {
	params := MustParams(11, 5, 3)
	points := []complex128{
		complex(2.0, 1.5),
		complex(0.3, -0.7),
		complex(5.5, 2.5),
		complex(-3.1, 4.2),
	}
	for _, z := range points {
		relClose(t, -WpDeriv(z, params), WpDeriv(-z, params), 1e-9)
	}
}

func TestWp_PoleGrowth(t *testing.T) {
	params := MustParams(11, 5, 3)
	dir := cmplx.Exp(complex(0, 0.6))

	for _, omega := range []complex128{0, params.Omega(1, 0), params.Omega(-1, 2)} {
		prev := 0.0
		prevDeriv := 0.0
		for _, r := range []float64{1e-1, 1e-2, 1e-3} {
			z := omega + complex(r, 0)*dir
			mag := cmplx.Abs(Wp(z, params))
			magDeriv := cmplx.Abs(WpDeriv(z, params))
			assert.Greater(t, mag, prev, "omega=%v r=%g", omega, r)
			assert.Greater(t, magDeriv, prevDeriv, "omega=%v r=%g", omega, r)
			prev, prevDeriv = mag, magDeriv
		}
	}
}

func TestWp_AtPoleIsNonFinite(t *testing.T) {
	params := MustParams(11, 5, 2)
	assert.False(t, IsFinite(Wp(0, params)))
	assert.False(t, IsFinite(WpDeriv(0, params)))
	assert.False(t, IsFinite(Wp(params.Omega(1, 1), params)))
}

func TestBatch_MatchesScalar(t *testing.T) {
	params := MustParams(11, 5, 3)
	zs := []complex128{complex(2, 1.5), complex(0, 0), complex(-1, 3), complex(10.9, 4.9)}

	w := WpBatch(nil, zs, params)
	d := WpDerivBatch(make([]complex128, 0, 16), zs, params)
	require.Len(t, w, len(zs))
	require.Len(t, d, len(zs))

	for i, z := range zs {
		want := Wp(z, params)
		if IsFinite(want) {
			assert.Equal(t, want, w[i])
			assert.Equal(t, WpDeriv(z, params), d[i])
		} else {
			assert.False(t, IsFinite(w[i]))
		}
	}
}

func TestFunction_Eval(t *testing.T) {
	params := MustParams(11, 5, 3)
	z := complex(2.0, 1.5)
	assert.Equal(t, Wp(z, params), WP.Eval(z, params))
	assert.Equal(t, WpDeriv(z, params), WPDeriv.Eval(z, params))
}

func TestIsFinite(t *testing.T) {
	assert.True(t, IsFinite(complex(1, -1)))
	assert.False(t, IsFinite(complex(math.NaN(), 0)))
	assert.False(t, IsFinite(complex(0, math.Inf(-1))))
	assert.False(t, IsFinite(cmplx.Inf()))
}
