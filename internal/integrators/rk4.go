package integrators

type RK4 struct{}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Step(a Accel, s State, dt float64) (State, error) {
	h := complex(dt, 0)
	half := complex(0.5*dt, 0)

	k1z := s.V
	k1v, err := accel(a, s.Z)
	if err != nil {
		return s, err
	}

	k2z := s.V + half*k1v
	k2v, err := accel(a, s.Z+half*k1z)
	if err != nil {
		return s, err
	}

	k3z := s.V + half*k2v
	k3v, err := accel(a, s.Z+half*k2z)
	if err != nil {
		return s, err
	}

	k4z := s.V + h*k3v
	k4v, err := accel(a, s.Z+h*k3z)
	if err != nil {
		return s, err
	}

	dt6 := complex(dt/6.0, 0)
	return State{
		Z: s.Z + dt6*(k1z+2*k2z+2*k3z+k4z),
		V: s.V + dt6*(k1v+2*k2v+2*k3v+k4v),
	}, nil
}
