package lattice

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewParams_Invalid(t *testing.T) {
	tests := []struct {
		name string
		p, q float64
		n    int
	}{
		{"zero p", 0, 5, 3},
		{"negative p", -1, 5, 3},
		{"zero q", 11, 0, 3},
		{"negative q", 11, -2, 3},
		{"negative N", 11, 5, -1},
		{"NaN p", math.NaN(), 5, 3},
		{"Inf q", 11, math.Inf(1), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParams(tt.p, tt.q, tt.n)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidParameter))
		})
	}
}

func TestNewParams_Valid(t *testing.T) {
	params, err := NewParams(11, 5, 3)
	require.NoError(t, err)
	assert.Equal(t, 11.0, params.P())
	assert.Equal(t, 5.0, params.Q())
	assert.Equal(t, 3, params.N())
	assert.True(t, params.Valid())
	assert.Equal(t, 49, params.Terms())

	zeroN, err := NewParams(1, 1, 0)
	require.NoError(t, err)
	assert.Empty(t, zeroN.Points())
	assert.False(t, Params{}.Valid())
}

func TestParams_Points(t *testing.T) {
	params := MustParams(2, 3, 1)
	pts := params.Points()
	require.Len(t, pts, 8)
	assert.Equal(t, complex(-2, -3), pts[0])
	assert.Equal(t, complex(2, 3), pts[len(pts)-1])
	assert.NotContains(t, pts, complex(0, 0))
}

func TestParams_Advisory(t *testing.T) {
	_, ok := MustParams(1, 1, AdvisoryN).Advisory()
	assert.False(t, ok)

	msg, ok := MustParams(1, 1, AdvisoryN+1).Advisory()
	assert.True(t, ok)
	assert.Contains(t, msg, "N=65")
}

func TestMustParams_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParams(-1, 1, 0) })
}

func TestParseFunction(t *testing.T) {
	tests := []struct {
		in   string
		want Function
	}{
		{"wp", WP},
		{"WP", WP},
		{"wp_deriv", WPDeriv},
		{"dwp", WPDeriv},
	}
	for _, tt := range tests {
		got, err := ParseFunction(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseFunction("zeta")
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestFunction_TextRoundTrip(t *testing.T) {
	b, err := WPDeriv.MarshalText()
	require.NoError(t, err)

	var f Function
	require.NoError(t, f.UnmarshalText(b))
	assert.Equal(t, WPDeriv, f)
}

func TestParams_CellPoles(t *testing.T) {
	poles := MustParams(11, 5, 3).CellPoles()
	require.NotEmpty(t, poles)
	assert.Contains(t, poles, complex128(0))
	for _, w := range poles {
		assert.GreaterOrEqual(t, real(w), 0.0)
		assert.Less(t, real(w), 11.0)
		assert.GreaterOrEqual(t, imag(w), 0.0)
		assert.Less(t, imag(w), 5.0)
	}

	// integer periods wrap exactly onto the origin
	assert.Equal(t, []complex128{0}, MustParams(2, 1, 4).CellPoles())
}
