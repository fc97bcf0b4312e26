package controllers

import (
	"testing"

	"github.com/san-kum/dynsim/internal/rbd"
)

func oneLinkChain() *rbd.PlanarChain {
	return rbd.NewPlanarChain([]rbd.LinkSpec{
		{Length: 1, Mass: 1, COMFraction: 1, Inertia: 0.1, Motorized: true, EffortLimit: 100, PosMin: -10, PosMax: 10},
	})
}

// twoLinkChain models a two-coordinate system with a single actuator on
// link 0, standing in for a cart-pole's single motor across two degrees of
// freedom.
func twoLinkChain() *rbd.PlanarChain {
	return rbd.NewPlanarChain([]rbd.LinkSpec{
		{Length: 1, Mass: 1, COMFraction: 1, Inertia: 0.1, Motorized: true, EffortLimit: 100, PosMin: -10, PosMax: 10},
		{Length: 1, Mass: 1, COMFraction: 1, Inertia: 0.1, Motorized: false, EffortLimit: 0, PosMin: -10, PosMax: 10},
	})
}

func TestNone(t *testing.T) {
	m := oneLinkChain()
	ctrl := NewNone()
	u, err := ctrl.ComputeCommand(m, 0, []float64{1.0}, []float64{2.0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(u) != 1 {
		t.Errorf("expected 1 control, got %d", len(u))
	}
	for i, v := range u {
		if v != 0 {
			t.Errorf("control[%d] should be 0, got %f", i, v)
		}
	}
}

func TestPID(t *testing.T) {
	m := oneLinkChain()
	ctrl := NewPID(10.0, 0.1, 5.0, 0.0, 0)
	u, err := ctrl.ComputeCommand(m, 0, []float64{1.0}, []float64{0.0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(u) != 1 {
		t.Fatalf("expected 1 control, got %d", len(u))
	}
	if u[0] >= 0 {
		t.Error("PID should output negative control for positive error")
	}
}

func TestLQR(t *testing.T) {
	m := oneLinkChain()
	k := [][]float64{{1.0, 2.0}}
	target := []float64{0.0, 0.0}
	ctrl := NewLQR(k, target)

	u, err := ctrl.ComputeCommand(m, 0, []float64{0.0}, []float64{0.0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u[0] != 0 {
		t.Errorf("expected zero control at target, got %f", u[0])
	}

	u, _ = ctrl.ComputeCommand(m, 0, []float64{1.0}, []float64{0.0})
	if u[0] == 0 {
		t.Error("expected non-zero control away from target")
	}
}

func TestPendulumLQR(t *testing.T) {
	m := oneLinkChain()
	ctrl := NewPendulumLQR()
	u, err := ctrl.ComputeCommand(m, 0, []float64{0.1}, []float64{0.0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(u) != 1 {
		t.Fatalf("expected 1 control, got %d", len(u))
	}
	if u[0] == 0 {
		t.Error("pendulum LQR should output non-zero control for non-zero angle")
	}
}

func TestCartPoleLQR(t *testing.T) {
	m := twoLinkChain()
	ctrl := NewCartPoleLQR()
	u, err := ctrl.ComputeCommand(m, 0, []float64{0.0, 0.1}, []float64{0.0, 0.0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(u) != 1 {
		t.Fatalf("expected 1 control, got %d", len(u))
	}
}
