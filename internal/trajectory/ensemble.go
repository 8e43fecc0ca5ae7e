package trajectory

import (
	"context"
	"math"
	"math/cmplx"

	"github.com/san-kum/wpsim/internal/lattice"
	"golang.org/x/sync/errgroup"
)

// Initial is the starting condition of one particle.
type Initial struct {
	Z0, V0 complex128
}

// LaunchFan returns count particles starting at z0 with speed |v0| = speed
// and launch angles evenly spaced over [0, 2π), the first along +real.
func LaunchFan(z0 complex128, speed float64, count int) []Initial {
	inits := make([]Initial, count)
	for i := range inits {
		angle := 2 * math.Pi * float64(i) / float64(count)
		inits[i] = Initial{Z0: z0, V0: cmplx.Rect(speed, angle)}
	}
	return inits
}

// Ensemble integrates independent particles concurrently with at most
// workers goroutines (unbounded when workers < 1). Results keep the order of
// inits. The context is checked before each particle starts; a running
// trajectory is never interrupted.
func Ensemble(ctx context.Context, params lattice.Params, inits []Initial, cfg Config, workers int) ([]*Trajectory, error) {
	if _, err := NewRun(params, 0, 0, cfg); err != nil {
		return nil, err
	}

	results := make([]*Trajectory, len(inits))
	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for i, in := range inits {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			tr, err := Integrate(params, in.Z0, in.V0, cfg)
			if err != nil {
				return err
			}
			results[i] = tr
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Summary counts trajectories by final status.
func Summary(trs []*Trajectory) map[Status]int {
	counts := make(map[Status]int, 4)
	for _, tr := range trs {
		counts[tr.Status()]++
	}
	return counts
}
