package integrators

type Verlet struct{}

func NewVerlet() *Verlet {
	return &Verlet{}
}

func (v *Verlet) Step(a Accel, s State, dt float64) (State, error) {
	h := complex(dt, 0)
	halfDt := complex(0.5*dt, 0)

	a0, err := accel(a, s.Z)
	if err != nil {
		return s, err
	}

	z1 := s.Z + s.V*h + halfDt*h*a0
	a1, err := accel(a, z1)
	if err != nil {
		return s, err
	}

	return State{Z: z1, V: s.V + (a0+a1)*halfDt}, nil
}

type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(a Accel, s State, dt float64) (State, error) {
	h := complex(dt, 0)
	acc, err := accel(a, s.Z)
	if err != nil {
		return s, err
	}
	return State{Z: s.Z + h*s.V, V: s.V + h*acc}, nil
}
