// Package optim searches launch and lattice settings for the trajectory that
// best scores on one of the standard metrics.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/wpsim/internal/config"
	"github.com/san-kum/wpsim/internal/lattice"
	"github.com/san-kum/wpsim/internal/metrics"
	"github.com/san-kum/wpsim/internal/trajectory"
)

var ErrInvalidSearch = errors.New("optim: invalid search")

// Axis is one swept setting; Name is one of config.TunableNames.
type Axis struct {
	Name   string
	Values []float64
}

// Linspace returns an axis of n evenly spaced values from lo to hi.
func Linspace(name string, lo, hi float64, n int) Axis {
	if n == 1 {
		return Axis{Name: name, Values: []float64{lo}}
	}
	if n < 1 {
		return Axis{Name: name}
	}
	return Axis{Name: name, Values: floats.Span(make([]float64, n), lo, hi)}
}

// Point is one evaluated grid node.
type Point struct {
	Settings map[string]float64
	Value    float64
	Status   trajectory.Status
}

// GridSearch evaluates every combination of its axes. The first axis varies
// slowest. Metric names one of metrics.Standard; the lowest value wins unless
// Maximize is set. NaN scores never win.
type GridSearch struct {
	Axes     []Axis
	Metric   string
	Maximize bool
	Workers  int
}

// MetricNames lists the metrics a search can score on.
func MetricNames() []string {
	var names []string
	for _, m := range metrics.Standard(lattice.MustParams(config.DefaultP, config.DefaultQ, config.DefaultN)) {
		names = append(names, m.Name())
	}
	sort.Strings(names)
	return names
}

func (g *GridSearch) validate(base *config.Config) (int, error) {
	if len(g.Axes) == 0 {
		return 0, fmt.Errorf("%w: no axes", ErrInvalidSearch)
	}
	known := false
	for _, name := range MetricNames() {
		known = known || name == g.Metric
	}
	if !known {
		return 0, fmt.Errorf("%w: unknown metric %q", ErrInvalidSearch, g.Metric)
	}
	total := 1
	for _, ax := range g.Axes {
		if _, err := base.Get(ax.Name); err != nil {
			return 0, err
		}
		if len(ax.Values) == 0 {
			return 0, fmt.Errorf("%w: axis %s has no values", ErrInvalidSearch, ax.Name)
		}
		total *= len(ax.Values)
	}
	return total, nil
}

// Search integrates one trajectory per grid node and returns the best node
// with every node in grid order.
func (g *GridSearch) Search(ctx context.Context, base *config.Config) (Point, []Point, error) {
	total, err := g.validate(base)
	if err != nil {
		return Point{}, nil, err
	}

	configs := make([]*config.Config, total)
	points := make([]Point, total)
	for i := range configs {
		c := base.Clone()
		settings := make(map[string]float64, len(g.Axes))
		rem := i
		for a := len(g.Axes) - 1; a >= 0; a-- {
			ax := g.Axes[a]
			v := ax.Values[rem%len(ax.Values)]
			rem /= len(ax.Values)
			if err := c.Set(ax.Name, v); err != nil {
				return Point{}, nil, err
			}
			settings[ax.Name] = v
		}
		if err := c.Validate(); err != nil {
			return Point{}, nil, fmt.Errorf("%v: %w", settings, err)
		}
		configs[i] = c
		points[i].Settings = settings
	}

	eg, ctx := errgroup.WithContext(ctx)
	if g.Workers > 0 {
		eg.SetLimit(g.Workers)
	}
	for i, c := range configs {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			params, _ := c.Params()
			start := time.Now()
			tr, err := trajectory.Integrate(params, c.Integrate.Z0.Value(), c.Integrate.V0.Value(), c.Trajectory())
			if err != nil {
				return err
			}
			metrics.RecordTrajectory(tr, time.Since(start))
			points[i].Value = metrics.Evaluate(tr, metrics.Standard(params)...)[g.Metric]
			points[i].Status = tr.Status()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return Point{}, nil, err
	}

	best := -1
	for i, p := range points {
		if math.IsNaN(p.Value) {
			continue
		}
		if best < 0 || g.better(p.Value, points[best].Value) {
			best = i
		}
	}
	if best < 0 {
		return Point{}, points, fmt.Errorf("%w: no node produced a score", ErrInvalidSearch)
	}
	return points[best], points, nil
}

func (g *GridSearch) better(a, b float64) bool {
	if g.Maximize {
		return a > b
	}
	return a < b
}
