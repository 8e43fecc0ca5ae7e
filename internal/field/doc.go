// Package field samples ℘ or ℘′ on a regular grid over the fundamental cell
// [0,p]×[0,q] and derives a validity mask that excludes poles, near-pole
// points and numerically unstable values.
//
// Sampling is a pure function of its inputs. Rows are evaluated
// concurrently; each row is owned by exactly one worker, so the returned
// [Grid] does not depend on scheduling.
//
//	params := lattice.MustParams(11, 5, 3)
//	grid, err := field.Sample(params, lattice.WP, 200, 100, 0.05)
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("%.1f%% of cells valid\n", 100*grid.ValidFraction())
//
// Grids are indexed [i][j] with i along the real axis and j along the
// imaginary axis, matching the torus package convention.
package field
