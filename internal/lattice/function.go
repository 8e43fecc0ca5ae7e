package lattice

import (
	"fmt"
	"strings"
)

// Function selects which lattice function a sampler evaluates.
type Function int

const (
	WP Function = iota
	WPDeriv
)

// Eval evaluates the selected function at z.
func (f Function) Eval(z complex128, l Params) complex128 {
	if f == WPDeriv {
		return WpDeriv(z, l)
	}
	return Wp(z, l)
}

func (f Function) String() string {
	switch f {
	case WP:
		return "wp"
	case WPDeriv:
		return "wp_deriv"
	default:
		return fmt.Sprintf("Function(%d)", int(f))
	}
}

// ParseFunction accepts "wp", "wp_deriv" and the short alias "dwp".
func ParseFunction(s string) (Function, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "wp", "":
		return WP, nil
	case "wp_deriv", "wpderiv", "dwp":
		return WPDeriv, nil
	}
	return WP, fmt.Errorf("%w: unknown function %q", ErrInvalidParameter, s)
}

func (f Function) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

func (f *Function) UnmarshalText(b []byte) error {
	parsed, err := ParseFunction(string(b))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
