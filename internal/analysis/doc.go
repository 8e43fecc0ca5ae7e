// Package analysis characterizes trajectories of z″ = −℘(z)·z.
//
//   - [PowerSpectrum]: spectrum of the complex signal z(t), with the
//     dominant rotation frequency
//   - [LyapunovExponent]: largest finite-time Lyapunov exponent by the
//     separation of two nearby launches
//
// # Chaos Detection
//
// A clearly positive exponent means nearby launches separate exponentially:
//
//	sep, err := analysis.LyapunovExponent(params, z0, v0, cfg, 1e-8)
//	if err == nil && sep.Exponent > 0 {
//	    // sensitive to initial conditions
//	}
package analysis
