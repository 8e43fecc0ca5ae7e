// Package lattice evaluates the Weierstrass ℘ function and its derivative
// on a rectangular lattice Λ = {m·p + n·q·i : m, n ∈ ℤ} by truncated
// lattice summation.
//
// The package is the numerical leaf of wpsim:
//
//   - [Params]: validated, immutable lattice parameters (p, q, N)
//   - [Wp], [WpDeriv]: scalar evaluation
//   - [WpBatch], [WpDerivBatch]: element-wise batch evaluation
//   - [Function]: selector used by field sampling and the CLI
//
// # Poles
//
// ℘ and ℘′ are singular at every lattice point. The evaluator does not
// guard against this: an argument equal to a lattice point yields Inf or NaN
// following IEEE-754 rules. Callers check results with [IsFinite].
//
//	params, err := lattice.NewParams(11, 5, 3)
//	if err != nil {
//	    return err
//	}
//	w := lattice.Wp(2+1.5i, params)
//	if !lattice.IsFinite(w) {
//	    // too close to a pole
//	}
package lattice
