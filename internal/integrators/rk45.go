package integrators

import (
	"math"
	"math/cmplx"
)

// Dormand-Prince coefficients (RK45)
var (
	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

type RK45 struct {
	safety   float64
	minScale float64
	maxScale float64
}

func NewRK45() *RK45 {
	return &RK45{
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
	}
}

// Step takes one Dormand-Prince step of size dt regardless of the error
// estimate.
func (r *RK45) Step(a Accel, s State, dt float64) (State, error) {
	next, _, _, err := r.StepAdaptive(a, s, dt, 1e-6)
	return next, err
}

func (r *RK45) StepAdaptive(a Accel, s State, dt, tol float64) (State, float64, bool, error) {
	var kz, kv [7]complex128

	stage := func(i int, bs ...float64) error {
		z, v := s.Z, s.V
		for j, b := range bs {
			z += complex(dt*b, 0) * kz[j]
			v += complex(dt*b, 0) * kv[j]
		}
		acc, err := accel(a, z)
		kz[i], kv[i] = v, acc
		return err
	}

	if err := stage(0); err != nil {
		return s, dt, false, err
	}
	if err := stage(1, b21); err != nil {
		return s, dt, false, err
	}
	if err := stage(2, b31, b32); err != nil {
		return s, dt, false, err
	}
	if err := stage(3, b41, b42, b43); err != nil {
		return s, dt, false, err
	}
	if err := stage(4, b51, b52, b53, b54); err != nil {
		return s, dt, false, err
	}
	if err := stage(5, b61, b62, b63, b64, b65); err != nil {
		return s, dt, false, err
	}

	// fifth-order solution; c2 is zero
	next := s
	for j, c := range []float64{c1, 0, c3, c4, c5, c6} {
		next.Z += complex(dt*c, 0) * kz[j]
		next.V += complex(dt*c, 0) * kv[j]
	}
	acc, err := accel(a, next.Z)
	if err != nil {
		return s, dt, false, err
	}
	kz[6], kv[6] = next.V, acc

	errMax := 0.0
	dcs := []float64{dc1, 0, dc3, dc4, dc5, dc6, dc7}
	for _, comp := range []struct {
		x  complex128
		ks [7]complex128
	}{{s.Z, kz}, {s.V, kv}} {
		var errEst complex128
		for j, dc := range dcs {
			errEst += complex(dt*dc, 0) * comp.ks[j]
		}
		scale := cmplx.Abs(comp.x) + cmplx.Abs(complex(dt, 0)*comp.ks[0]) + 1e-10
		errMax = math.Max(errMax, cmplx.Abs(errEst)/scale)
	}

	errRatio := errMax / tol

	var dtNew float64
	if errRatio > 1 {
		scale := math.Max(r.minScale, r.safety*math.Pow(errRatio, -0.25))
		dtNew = dt * scale
	} else {
		if errRatio > 0 {
			scale := math.Min(r.maxScale, r.safety*math.Pow(errRatio, -0.2))
			dtNew = dt * scale
		} else {
			dtNew = dt * r.maxScale
		}
	}

	return next, dtNew, errRatio <= 1, nil
}
