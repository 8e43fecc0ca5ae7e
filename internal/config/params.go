package config

import (
	"fmt"
	"math"

	"github.com/san-kum/wpsim/internal/lattice"
)

// TunableNames lists the scalar settings reachable through Get and Set, in
// display order.
var TunableNames = []string{
	"p", "q", "n",
	"z0.re", "z0.im", "v0.re", "v0.im",
	"dt", "duration", "pole_eps", "blow_thresh",
}

func (c *Config) float(name string) *float64 {
	switch name {
	case "p":
		return &c.Lattice.P
	case "q":
		return &c.Lattice.Q
	case "z0.re":
		return &c.Integrate.Z0.Re
	case "z0.im":
		return &c.Integrate.Z0.Im
	case "v0.re":
		return &c.Integrate.V0.Re
	case "v0.im":
		return &c.Integrate.V0.Im
	case "dt":
		return &c.Integrate.Dt
	case "duration":
		return &c.Integrate.Duration
	case "pole_eps":
		return &c.Integrate.PoleEps
	case "blow_thresh":
		return &c.Integrate.BlowThresh
	}
	return nil
}

// Get returns a tunable setting by name. n is reported as a float.
func (c *Config) Get(name string) (float64, error) {
	if name == "n" {
		return float64(c.Lattice.N), nil
	}
	if ptr := c.float(name); ptr != nil {
		return *ptr, nil
	}
	return 0, fmt.Errorf("%w: unknown setting %q", lattice.ErrInvalidParameter, name)
}

// Set assigns a tunable setting by name; n is rounded to the nearest
// integer. No validation is done here; call Validate afterwards.
func (c *Config) Set(name string, v float64) error {
	if name == "n" {
		c.Lattice.N = int(math.Round(v))
		return nil
	}
	ptr := c.float(name)
	if ptr == nil {
		return fmt.Errorf("%w: unknown setting %q", lattice.ErrInvalidParameter, name)
	}
	*ptr = v
	return nil
}
