// Package trajectory integrates z″(t) = −℘(z(t))·z(t) on a rectangular
// lattice and reports how each run ended.
//
// A [Run] is a small state machine:
//
//	Running ──► Completed        t reached Duration
//	        ├─► PoleHalt         wrapped position within PoleEps of a pole
//	        ├─► BlowUp           step displacement above BlowThresh, or
//	        │                    the new state is non-finite
//	        └─► NumericFailure   a stage acceleration was non-finite
//
// A non-finite stage acceleration counts as NumericFailure even though the
// resulting state would also trip BlowUp.
//
// The pole check precedes every step, so a step is never taken once a pole
// is imminent. On any halt the recorded position is the last valid one.
// Halts are data, not errors: [Integrate] only fails for invalid
// configuration.
//
//	tr, err := trajectory.Integrate(params, 5.5, 1i, trajectory.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	if tr.Halted() {
//	    fmt.Println(tr.Halt.Reason, tr.Halt.Position)
//	}
//
// Steps within one trajectory are strictly sequential. Independent particles
// may be integrated concurrently with [Ensemble].
package trajectory
