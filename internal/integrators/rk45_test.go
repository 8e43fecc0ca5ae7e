package integrators

import (
	"math"
	"testing"
)

func energy(s State) float64 {
	return 0.5 * (real(s.Z)*real(s.Z) + real(s.V)*real(s.V))
}

func TestRK45_EnergyConservation(t *testing.T) {
	integrator := NewRK45()
	s := State{Z: 1, V: 0}
	initialEnergy := energy(s)

	var err error
	for i := 0; i < 10000; i++ {
		s, err = integrator.Step(harmonic, s, 0.01)
		if err != nil {
			t.Fatal(err)
		}
	}

	drift := math.Abs(energy(s)-initialEnergy) / initialEnergy
	if drift > 1e-6 {
		t.Errorf("RK45 energy drift too high: %e", drift)
	}
}

func TestRK45_AdaptiveStep(t *testing.T) {
	integrator := NewRK45()
	x, newDt, accepted, err := integrator.StepAdaptive(harmonic, State{Z: 1}, 0.1, 1e-8)

	if err != nil {
		t.Errorf("StepAdaptive returned error: %v", err)
	}
	if !x.IsValid() {
		t.Error("StepAdaptive produced invalid state")
	}
	if newDt <= 0 {
		t.Errorf("StepAdaptive returned invalid dt: %f", newDt)
	}
	_ = accepted
}

func TestRK45_RejectsLargeStep(t *testing.T) {
	integrator := NewRK45()
	stiff := func(z complex128) complex128 { return -1e4 * z }

	_, newDt, accepted, err := integrator.StepAdaptive(stiff, State{Z: 1}, 0.5, 1e-10)
	if err != nil {
		t.Fatal(err)
	}
	if accepted {
		t.Error("expected step to be rejected")
	}
	if newDt >= 0.5 {
		t.Errorf("expected smaller proposal, got %g", newDt)
	}
}

func TestRK45_VsRK4_Accuracy(t *testing.T) {
	rk4 := NewRK4()
	rk45 := NewRK45()

	x4 := State{Z: 1}
	x45 := State{Z: 1}
	dt := 0.1

	for i := 0; i < 100; i++ {
		x4, _ = rk4.Step(harmonic, x4, dt)
		x45, _ = rk45.Step(harmonic, x45, dt)
	}

	t.Logf("RK4 final: %v", x4.Z)
	t.Logf("RK45 final: %v", x45.Z)

	if math.Abs(energy(x45)-0.5) > math.Abs(energy(x4)-0.5) {
		t.Log("Warning: RK45 not more accurate than RK4 for this case")
	}
}
