package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/wpsim/internal/field"
	"github.com/san-kum/wpsim/internal/lattice"
	"github.com/san-kum/wpsim/internal/torus"
	"github.com/san-kum/wpsim/internal/trajectory"
)

const (
	DefaultP        = 11.0
	DefaultQ        = 5.0
	DefaultN        = 3
	DefaultDt       = 0.01
	DefaultDuration = 3.0
	DefaultBlow     = 10.0
	DefaultPoleEps  = 0.05
	DefaultNx       = 200
	DefaultNy       = 100
)

type Config struct {
	Lattice       LatticeConfig   `yaml:"lattice" json:"lattice"`
	Integrate     IntegrateConfig `yaml:"integrate" json:"integrate"`
	Field         FieldConfig     `yaml:"field" json:"field"`
	WrapThreshold float64         `yaml:"wrap_threshold" json:"wrap_threshold"`
	Workers       int             `yaml:"workers" json:"workers"`
}

type LatticeConfig struct {
	P float64 `yaml:"p" json:"p"`
	Q float64 `yaml:"q" json:"q"`
	N int     `yaml:"n" json:"n"`
}

// Complex is a YAML-friendly complex number.
type Complex struct {
	Re float64 `yaml:"re" json:"re"`
	Im float64 `yaml:"im" json:"im"`
}

func C(z complex128) Complex { return Complex{Re: real(z), Im: imag(z)} }

func (c Complex) Value() complex128 { return complex(c.Re, c.Im) }

type IntegrateConfig struct {
	Z0         Complex `yaml:"z0" json:"z0"`
	V0         Complex `yaml:"v0" json:"v0"`
	Dt         float64 `yaml:"dt" json:"dt"`
	Duration   float64 `yaml:"duration" json:"duration"`
	BlowThresh float64 `yaml:"blow_thresh" json:"blow_thresh"`
	PoleEps    float64 `yaml:"pole_eps" json:"pole_eps"`
	MaxSteps   int     `yaml:"max_steps" json:"max_steps"`
	Integrator string  `yaml:"integrator" json:"integrator"`
	Adaptive   bool    `yaml:"adaptive" json:"adaptive"`
	Tolerance  float64 `yaml:"tolerance,omitempty" json:"tolerance,omitempty"`
	MinDt      float64 `yaml:"min_dt,omitempty" json:"min_dt,omitempty"`
	MaxDt      float64 `yaml:"max_dt,omitempty" json:"max_dt,omitempty"`
}

type FieldConfig struct {
	Nx           int     `yaml:"nx" json:"nx"`
	Ny           int     `yaml:"ny" json:"ny"`
	Which        string  `yaml:"which" json:"which"`
	PoleEps      float64 `yaml:"pole_eps" json:"pole_eps"`
	MaxMagnitude float64 `yaml:"max_magnitude" json:"max_magnitude"`
}

func DefaultConfig() *Config {
	tc := trajectory.DefaultConfig()
	return &Config{
		Lattice: LatticeConfig{P: DefaultP, Q: DefaultQ, N: DefaultN},
		Integrate: IntegrateConfig{
			Z0:         Complex{Re: 5.5},
			V0:         Complex{Im: 1},
			Dt:         DefaultDt,
			Duration:   DefaultDuration,
			BlowThresh: DefaultBlow,
			PoleEps:    DefaultPoleEps,
			MaxSteps:   tc.MaxSteps,
			Integrator: tc.Integrator,
			Tolerance:  tc.Tolerance,
			MinDt:      tc.MinDt,
			MaxDt:      tc.MaxDt,
		},
		Field: FieldConfig{
			Nx:           DefaultNx,
			Ny:           DefaultNy,
			Which:        lattice.WP.String(),
			PoleEps:      DefaultPoleEps,
			MaxMagnitude: field.DefaultMaxMagnitude,
		},
		WrapThreshold: torus.DefaultWrapThreshold,
	}
}

// Load reads a YAML file over the defaults, so a file only needs the keys it
// changes.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy; Config holds no reference types.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

func (c *Config) Params() (lattice.Params, error) {
	return lattice.NewParams(c.Lattice.P, c.Lattice.Q, c.Lattice.N)
}

func (c *Config) Trajectory() trajectory.Config {
	ic := c.Integrate
	return trajectory.Config{
		Dt:         ic.Dt,
		Duration:   ic.Duration,
		BlowThresh: ic.BlowThresh,
		PoleEps:    ic.PoleEps,
		MaxSteps:   ic.MaxSteps,
		Integrator: ic.Integrator,
		Adaptive:   ic.Adaptive,
		Tolerance:  ic.Tolerance,
		MinDt:      ic.MinDt,
		MaxDt:      ic.MaxDt,
	}
}

func (c *Config) Function() (lattice.Function, error) {
	return lattice.ParseFunction(c.Field.Which)
}

// FieldOptions translates the field section into sampler options.
func (c *Config) FieldOptions() []field.Option {
	opts := []field.Option{field.WithMaxMagnitude(c.Field.MaxMagnitude)}
	if c.Workers > 0 {
		opts = append(opts, field.WithWorkers(c.Workers))
	}
	return opts
}

// Validate checks every section. Lattice and field problems wrap
// lattice.ErrInvalidParameter; integration problems wrap the trajectory
// sentinels.
func (c *Config) Validate() error {
	if _, err := c.Params(); err != nil {
		return err
	}
	if err := c.Trajectory().Validate(); err != nil {
		return err
	}
	if _, err := c.Function(); err != nil {
		return err
	}
	if c.Field.Nx < 1 || c.Field.Ny < 1 {
		return fmt.Errorf("%w: field grid must be at least 1x1, got %dx%d", lattice.ErrInvalidParameter, c.Field.Nx, c.Field.Ny)
	}
	if math.IsNaN(c.Field.PoleEps) || c.Field.PoleEps < 0 {
		return fmt.Errorf("%w: field pole_eps must be non-negative", lattice.ErrInvalidParameter)
	}
	if !(c.Field.MaxMagnitude > 0) {
		return fmt.Errorf("%w: field max_magnitude must be positive", lattice.ErrInvalidParameter)
	}
	if !(c.WrapThreshold > 0) || math.IsInf(c.WrapThreshold, 0) {
		return fmt.Errorf("%w: wrap_threshold must be positive", lattice.ErrInvalidParameter)
	}
	return nil
}
