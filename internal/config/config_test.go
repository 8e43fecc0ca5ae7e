package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/wpsim/internal/lattice"
	"github.com/san-kum/wpsim/internal/trajectory"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Lattice.P != 11 || cfg.Lattice.Q != 5 || cfg.Lattice.N != 3 {
		t.Errorf("unexpected lattice %+v", cfg.Lattice)
	}
	if got := cfg.Integrate.Z0.Value(); got != 5.5 {
		t.Errorf("z0 = %v, want 5.5", got)
	}
	if got := cfg.Integrate.V0.Value(); got != 1i {
		t.Errorf("v0 = %v, want i", got)
	}
	if cfg.Trajectory().Steps() != 300 {
		t.Errorf("expected 300 steps, got %d", cfg.Trajectory().Steps())
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wpsim.yaml")

	cfg := DefaultConfig()
	cfg.Lattice.N = 5
	cfg.Integrate.Z0 = C(1.25 + 2.5i)
	cfg.Field.Which = "wp_deriv"
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if *loaded != *cfg {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, cfg)
	}
	if fn, _ := loaded.Function(); fn != lattice.WPDeriv {
		t.Errorf("function = %v, want wp_deriv", fn)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	data := "lattice:\n  n: 6\nintegrate:\n  z0: {re: 2, im: 1}\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Lattice.N != 6 || cfg.Lattice.P != DefaultP {
		t.Errorf("lattice = %+v", cfg.Lattice)
	}
	if cfg.Integrate.Z0.Value() != 2+1i {
		t.Errorf("z0 = %v", cfg.Integrate.Z0.Value())
	}
	if cfg.Integrate.Dt != DefaultDt {
		t.Errorf("dt = %g, want default", cfg.Integrate.Dt)
	}
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		data string
		want error
	}{
		{"negative p", "lattice: {p: -1}\n", lattice.ErrInvalidParameter},
		{"negative N", "lattice: {n: -2}\n", lattice.ErrInvalidParameter},
		{"zero dt", "integrate: {dt: 0}\n", trajectory.ErrInvalidConfig},
		{"unknown function", "field: {which: zeta}\n", lattice.ErrInvalidParameter},
		{"empty grid", "field: {nx: 0}\n", lattice.ErrInvalidParameter},
	}

	for _, tt := range tests {
		path := filepath.Join(dir, tt.name+".yaml")
		if err := os.WriteFile(path, []byte(tt.data), 0644); err != nil {
			t.Fatal(err)
		}
		_, err := Load(path)
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("square")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Lattice.P != 1 || cfg.Lattice.Q != 1 {
		t.Errorf("expected unit square lattice, got %+v", cfg.Lattice)
	}

	cfg.Lattice.P = 99
	if again := GetPreset("square"); again.Lattice.P != 1 {
		t.Error("presets must not share state")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestPresetsValid(t *testing.T) {
	names := ListPresets()
	if len(names) != len(Presets) {
		t.Fatalf("expected %d names, got %d", len(Presets), len(names))
	}
	for _, name := range names {
		if err := GetPreset(name).Validate(); err != nil {
			t.Errorf("preset %s invalid: %v", name, err)
		}
	}
}

func TestGetSet(t *testing.T) {
	cfg := DefaultConfig()
	for _, name := range TunableNames {
		if err := cfg.Set(name, 2.6); err != nil {
			t.Fatalf("set %s: %v", name, err)
		}
		got, err := cfg.Get(name)
		if err != nil {
			t.Fatalf("get %s: %v", name, err)
		}
		want := 2.6
		if name == "n" {
			want = 3
		}
		if got != want {
			t.Errorf("%s: expected %g, got %g", name, want, got)
		}
	}
	if cfg.Integrate.Z0.Value() != 2.6+2.6i {
		t.Errorf("z0 = %v", cfg.Integrate.Z0.Value())
	}

	if err := cfg.Set("gamma", 1); !errors.Is(err, lattice.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
	if _, err := cfg.Get("gamma"); err == nil {
		t.Error("expected error for unknown setting")
	}
}
