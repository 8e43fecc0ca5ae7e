package config

import "sort"

// Presets are named starting points; each entry only overrides what differs
// from DefaultConfig.
var Presets = map[string]func(c *Config){
	"reference": func(c *Config) {},
	"square": func(c *Config) {
		c.Lattice = LatticeConfig{P: 1, Q: 1, N: 8}
		c.Integrate.Z0 = Complex{Re: 0.5, Im: 0.25}
		c.Integrate.V0 = Complex{Re: 0.3}
		c.Integrate.Duration = 10
		c.Integrate.PoleEps = 0.01
		c.Field.PoleEps = 0.01
	},
	"pole-dive": func(c *Config) {
		c.Integrate.Z0 = Complex{Re: 0.3}
		c.Integrate.V0 = Complex{}
	},
	"blowup": func(c *Config) {
		c.Integrate.Z0 = Complex{Re: 0.3}
		c.Integrate.V0 = Complex{}
		c.Integrate.BlowThresh = 0.01
		c.Integrate.PoleEps = 1e-9
	},
	"long": func(c *Config) {
		c.Integrate.Duration = 30
		c.Integrate.Adaptive = true
	},
	"fine-field": func(c *Config) {
		c.Lattice.N = 8
		c.Field.Nx = 440
		c.Field.Ny = 200
		c.Field.Which = "wp_deriv"
	},
}

// GetPreset returns a fresh config for the named preset, or nil.
func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
