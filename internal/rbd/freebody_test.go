package rbd

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestFreeBodyDimensions(t *testing.T) {
	b := NewFreeBody(1, 0.1, 0.1, 0.1)
	if b.NQ() != 7 || b.NV() != 6 || b.NX() != 13 {
		t.Errorf("expected nq=7 nv=6 nx=13, got nq=%d nv=%d nx=%d", b.NQ(), b.NV(), b.NX())
	}
	if len(b.MotorVelocityIndices()) != 0 {
		t.Errorf("expected no motors on a free body, got %v", b.MotorVelocityIndices())
	}
}

func TestFreeBodyABAGravity(t *testing.T) {
	b := NewFreeBody(2, 0.1, 0.1, 0.1)
	b.SetGravity([6]float64{0, 0, -9.81, 0, 0, 0})

	a := b.ABA([]float64{0, 0, 0, 1, 0, 0, 0}, make([]float64, 6), make([]float64, 6), nil)
	if math.Abs(a[2]-(-9.81)) > 1e-9 {
		t.Errorf("expected free-fall acceleration -9.81, got %f", a[2])
	}
	for _, idx := range []int{0, 1, 3, 4, 5} {
		if math.Abs(a[idx]) > 1e-9 {
			t.Errorf("expected zero acceleration on axis %d, got %f", idx, a[idx])
		}
	}
}

// TestFreeBodyABARNEARoundTrip mirrors the planar-chain round trip: RNEA's
// torque, fed back through ABA, must reproduce the requested acceleration.
func TestFreeBodyABARNEARoundTrip(t *testing.T) {
	b := NewFreeBody(3, 0.2, 0.3, 0.4)
	q := []float64{0, 0, 0, 1, 0, 0, 0}
	v := []float64{0.1, -0.2, 0.05, 0.3, -0.1, 0.2}
	aWant := []float64{1, -2, 0.5, 0.2, -0.4, 0.1}

	tau := b.RNEA(q, v, aWant)
	aGot := b.ABA(q, v, tau, nil)

	for i := range aWant {
		if math.Abs(aGot[i]-aWant[i]) > 1e-9 {
			t.Errorf("axis %d: ABA(RNEA(a))=%f, want %f", i, aGot[i], aWant[i])
		}
	}
}

// TestFreeBodyIntegratePreservesUnitQuaternion exercises the manifold
// retraction's normalization: any rotation increment must come back as a
// unit quaternion, the invariant spec.md §9 warns a naive dq/dt=v would
// violate.
func TestFreeBodyIntegratePreservesUnitQuaternion(t *testing.T) {
	b := NewFreeBody(1, 0.1, 0.1, 0.1)
	q := []float64{0, 0, 0, 1, 0, 0, 0}
	vdt := []float64{0, 0, 0, 0.3, 0.1, -0.2}

	out := b.Integrate(q, vdt)
	quat := mgl64.Quat{W: out[3], V: mgl64.Vec3{out[4], out[5], out[6]}}
	norm := quat.Dot(quat)

	if math.Abs(norm-1.0) > 1e-9 {
		t.Errorf("expected unit quaternion norm 1, got %f", norm)
	}
}

func TestFreeBodyIntegrateZeroRotationIsIdentity(t *testing.T) {
	b := NewFreeBody(1, 0.1, 0.1, 0.1)
	q := []float64{1, 2, 3, 1, 0, 0, 0}
	vdt := []float64{0.5, -0.5, 0.1, 0, 0, 0}

	out := b.Integrate(q, vdt)
	want := []float64{1.5, 1.5, 3.1, 1, 0, 0, 0}
	for i := range want {
		if math.Abs(out[i]-want[i]) > 1e-9 {
			t.Errorf("component %d: got %f, want %f", i, out[i], want[i])
		}
	}
}

func TestFreeBodyFramePlacement(t *testing.T) {
	b := NewFreeBody(1, 0.1, 0.1, 0.1)
	idx := b.AddFrame("nose", mgl64.Vec3{1, 0, 0}, false)

	b.ForwardKinematics([]float64{2, 0, 0, 1, 0, 0, 0}, make([]float64, 6))
	p := b.FramePlacement(idx)

	if math.Abs(p.Position[0]-3) > 1e-9 {
		t.Errorf("expected nose at x=3, got %f", p.Position[0])
	}
}

func TestFreeBodyEnergyAtRest(t *testing.T) {
	b := NewFreeBody(2, 0.1, 0.1, 0.1)
	b.SetGravity([6]float64{0, 0, 0, 0, 0, 0})

	ke := b.KineticEnergy([]float64{0, 0, 0, 1, 0, 0, 0}, make([]float64, 6))
	if ke != 0 {
		t.Errorf("expected zero kinetic energy at rest, got %f", ke)
	}
}
