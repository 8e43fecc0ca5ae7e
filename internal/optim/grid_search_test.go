package optim

import (
	"context"
	"errors"
	"testing"

	"github.com/san-kum/wpsim/internal/config"
	"github.com/san-kum/wpsim/internal/lattice"
)

func TestLinspace(t *testing.T) {
	tests := []struct {
		name   string
		lo, hi float64
		n      int
		want   []float64
	}{
		{"three", 0, 1, 3, []float64{0, 0.5, 1}},
		{"single", 2, 9, 1, []float64{2}},
		{"empty", 0, 1, 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ax := Linspace("v0.im", tt.lo, tt.hi, tt.n)
			if len(ax.Values) != len(tt.want) {
				t.Fatalf("got %v, want %v", ax.Values, tt.want)
			}
			for i := range tt.want {
				if ax.Values[i] != tt.want[i] {
					t.Errorf("value %d = %g, want %g", i, ax.Values[i], tt.want[i])
				}
			}
		})
	}
}

func TestGridSearch_Order(t *testing.T) {
	base := config.DefaultConfig()
	base.Integrate.Duration = 0.5
	g := &GridSearch{
		Axes: []Axis{
			{Name: "v0.im", Values: []float64{0.5, 1}},
			{Name: "z0.re", Values: []float64{5, 5.5, 6}},
		},
		Metric: "path_length",
	}

	_, all, err := g.Search(context.Background(), base)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(all) != 6 {
		t.Fatalf("expected 6 nodes, got %d", len(all))
	}
	want := [][2]float64{{0.5, 5}, {0.5, 5.5}, {0.5, 6}, {1, 5}, {1, 5.5}, {1, 6}}
	for i, w := range want {
		if all[i].Settings["v0.im"] != w[0] || all[i].Settings["z0.re"] != w[1] {
			t.Errorf("node %d settings = %v, want v0.im=%g z0.re=%g", i, all[i].Settings, w[0], w[1])
		}
	}
}

func TestGridSearch_Best(t *testing.T) {
	base := config.DefaultConfig()
	base.Integrate.Duration = 1
	axes := []Axis{Linspace("v0.im", 0.5, 1.5, 5)}

	for _, maximize := range []bool{false, true} {
		g := &GridSearch{Axes: axes, Metric: "path_length", Maximize: maximize, Workers: 2}
		best, all, err := g.Search(context.Background(), base)
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		for _, p := range all {
			if g.better(p.Value, best.Value) {
				t.Errorf("maximize=%v: node %v beats best %v", maximize, p, best)
			}
		}
	}
}

func TestGridSearch_Deterministic(t *testing.T) {
	base := config.DefaultConfig()
	base.Integrate.Duration = 0.5
	axes := []Axis{Linspace("z0.re", 5, 6, 4)}

	_, a, err := (&GridSearch{Axes: axes, Metric: "max_speed", Workers: 1}).Search(context.Background(), base)
	if err != nil {
		t.Fatal(err)
	}
	_, b, err := (&GridSearch{Axes: axes, Metric: "max_speed", Workers: 4}).Search(context.Background(), base)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a {
		if a[i].Value != b[i].Value || a[i].Status != b[i].Status {
			t.Errorf("node %d differs across worker counts: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestGridSearch_Invalid(t *testing.T) {
	base := config.DefaultConfig()
	tests := []struct {
		name string
		g    GridSearch
		want error
	}{
		{"no axes", GridSearch{Metric: "path_length"}, ErrInvalidSearch},
		{"unknown metric", GridSearch{Axes: []Axis{{Name: "p", Values: []float64{1}}}, Metric: "energy"}, ErrInvalidSearch},
		{"unknown setting", GridSearch{Axes: []Axis{{Name: "mass", Values: []float64{1}}}, Metric: "path_length"}, lattice.ErrInvalidParameter},
		{"empty axis", GridSearch{Axes: []Axis{{Name: "p"}}, Metric: "path_length"}, ErrInvalidSearch},
		{"invalid node", GridSearch{Axes: []Axis{{Name: "q", Values: []float64{-1}}}, Metric: "path_length"}, lattice.ErrInvalidParameter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := tt.g.Search(context.Background(), base); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestGridSearch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g := &GridSearch{Axes: []Axis{Linspace("v0.im", 0.5, 1.5, 3)}, Metric: "path_length"}
	if _, _, err := g.Search(ctx, config.DefaultConfig()); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestMetricNames(t *testing.T) {
	names := MetricNames()
	if len(names) != 4 || names[0] != "max_speed" {
		t.Errorf("unexpected metric names %v", names)
	}
}
