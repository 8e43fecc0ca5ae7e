// Package integrators advances a complex second-order system
//
//	z″ = a(z)
//
// written as the first-order pair [z′, v′] = [v, a(z)].
//
//   - [RK4]: classical fixed-step fourth-order Runge-Kutta (the default)
//   - [RK45]: Dormand-Prince embedded pair with step-size control
//   - [Verlet]: velocity Verlet
//   - [Euler]: explicit Euler, for comparison only
//
// Every stepper evaluates the acceleration at a handful of stage points and
// returns [ErrNonFinite] as soon as one of them is NaN or Inf, leaving the
// decision of what that means to the caller.
package integrators
