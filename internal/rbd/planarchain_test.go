package rbd

import (
	"math"
	"testing"
)

func TestPlanarChainDimensions(t *testing.T) {
	c := NewPlanarChain([]LinkSpec{
		{Length: 1, Mass: 1, COMFraction: 0.5, Inertia: 0.1, PosMin: -1e9, PosMax: 1e9},
		{Length: 0.5, Mass: 0.5, COMFraction: 0.5, Inertia: 0.05, PosMin: -1e9, PosMax: 1e9},
	})

	if c.NQ() != 2 || c.NV() != 2 || c.NX() != 4 {
		t.Errorf("expected nq=nv=2, nx=4, got nq=%d nv=%d nx=%d", c.NQ(), c.NV(), c.NX())
	}
	if c.NumJoints() != 2 {
		t.Errorf("expected 2 joints, got %d", c.NumJoints())
	}
}

func TestPlanarChainMotorIndices(t *testing.T) {
	c := NewPlanarChain([]LinkSpec{
		{Length: 1, Mass: 1, COMFraction: 0.5, Inertia: 0.1, Motorized: true, EffortLimit: 10, PosMin: -1, PosMax: 1},
		{Length: 1, Mass: 1, COMFraction: 0.5, Inertia: 0.1, PosMin: -1e9, PosMax: 1e9},
	})

	motors := c.MotorVelocityIndices()
	if len(motors) != 1 || motors[0] != 0 {
		t.Fatalf("expected motor at index 0 only, got %v", motors)
	}
	if c.EffortLimit(0) != 10 {
		t.Errorf("expected effort limit 10 at motor index, got %f", c.EffortLimit(0))
	}
	if c.EffortLimit(1) != 0 {
		t.Errorf("expected zero effort limit on unmotorized link, got %f", c.EffortLimit(1))
	}
}

// TestPlanarChainGravityTorque checks that a horizontal single-link pendulum
// under gravity along -Y produces a torque equal to mass*g*lc (the simple
// pendulum torque formula for a single rigid link).
func TestPlanarChainGravityTorque(t *testing.T) {
	link := LinkSpec{Length: 1, Mass: 2, COMFraction: 0.5, Inertia: 0.2, PosMin: -1e9, PosMax: 1e9}
	c := NewPlanarChain([]LinkSpec{link})
	c.SetGravity([6]float64{0, -9.81, 0, 0, 0, 0})

	// q=0: link points along +X, gravity along -Y, so the COM lever arm is
	// orthogonal to gravity and RNEA's required torque to hold zero
	// acceleration equals the static gravity torque m*g*lc.
	tau := c.RNEA([]float64{0}, []float64{0}, []float64{0})
	lc := link.Length * link.COMFraction
	want := link.Mass * 9.81 * lc
	if math.Abs(tau[0]-want) > 1e-9 {
		t.Errorf("expected gravity torque %f, got %f", want, tau[0])
	}
}

// TestPlanarChainABARNEARoundTrip checks that ABA and RNEA are mutual
// inverses: feeding RNEA's output torque back into ABA must reproduce the
// original acceleration.
func TestPlanarChainABARNEARoundTrip(t *testing.T) {
	c := NewPlanarChain([]LinkSpec{
		{Length: 1, Mass: 1.5, COMFraction: 0.4, Inertia: 0.3, PosMin: -1e9, PosMax: 1e9},
		{Length: 0.8, Mass: 0.7, COMFraction: 0.6, Inertia: 0.1, PosMin: -1e9, PosMax: 1e9},
	})

	q := []float64{0.3, -0.5}
	v := []float64{0.1, 0.2}
	aWant := []float64{1.0, -2.0}

	tau := c.RNEA(q, v, aWant)
	aGot := c.ABA(q, v, tau, nil)

	for i := range aWant {
		if math.Abs(aGot[i]-aWant[i]) > 1e-6 {
			t.Errorf("joint %d: ABA(RNEA(a))=%f, want %f", i, aGot[i], aWant[i])
		}
	}
}

func TestPlanarChainIntegrateIsAdditive(t *testing.T) {
	c := NewPlanarChain([]LinkSpec{{Length: 1, Mass: 1, COMFraction: 0.5, Inertia: 0.1, PosMin: -1e9, PosMax: 1e9}})
	q := []float64{0.5}
	out := c.Integrate(q, []float64{0.1})
	if math.Abs(out[0]-0.6) > 1e-12 {
		t.Errorf("expected 0.6, got %f", out[0])
	}
}

func TestPlanarChainEnergyZeroAtRest(t *testing.T) {
	c := NewPlanarChain([]LinkSpec{{Length: 1, Mass: 1, COMFraction: 0.5, Inertia: 0.1, PosMin: -1e9, PosMax: 1e9}})
	c.SetGravity([6]float64{0, 0, 0, 0, 0, 0})

	ke := c.KineticEnergy([]float64{0.4}, []float64{0})
	if ke != 0 {
		t.Errorf("expected zero kinetic energy at zero velocity, got %f", ke)
	}
}

func TestPlanarChainContactFrames(t *testing.T) {
	c := NewPlanarChain([]LinkSpec{{Length: 1, Mass: 1, COMFraction: 0.5, Inertia: 0.1, PosMin: -1e9, PosMax: 1e9}})
	idx := c.AddFrame("foot", 0, 1.0, true)

	contacts := c.ContactFrameIndices()
	if len(contacts) != 1 || contacts[0] != idx {
		t.Errorf("expected contact frame %d, got %v", idx, contacts)
	}
	if got, ok := c.FrameIndexByName("foot"); !ok || got != idx {
		t.Errorf("FrameIndexByName(foot) = %d, %v, want %d, true", got, ok, idx)
	}
}
