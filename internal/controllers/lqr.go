package controllers

import "github.com/san-kum/dynsim/internal/rbd"

// LQR is a linear state-feedback law u = -K(x - target), adapted from the
// teacher's sim.State-based LQR to operate on the engine's full
// configuration/velocity state, producing one command per motor.
type LQR struct {
	K      [][]float64 // nMotors x nx
	Target []float64   // length nx
}

func NewLQR(k [][]float64, target []float64) *LQR {
	return &LQR{K: k, Target: target}
}

func (l *LQR) ComputeCommand(m rbd.Model, t float64, q, v []float64) ([]float64, error) {
	x := make([]float64, 0, len(q)+len(v))
	x = append(x, q...)
	x = append(x, v...)

	u := make([]float64, len(l.K))
	for i := range u {
		for j := range x {
			target := 0.0
			if j < len(l.Target) {
				target = l.Target[j]
			}
			u[i] -= l.K[i][j] * (x[j] - target)
		}
	}
	return u, nil
}

func (l *LQR) InternalDynamics(m rbd.Model, t float64, q, v []float64) ([]float64, error) {
	return make([]float64, m.NV()), nil
}

// NewPendulumLQR is the teacher's hand-tuned single-pendulum-about-upright
// gain, kept as a ready-made preset for PlanarChain(1 link).
func NewPendulumLQR() *LQR {
	k := [][]float64{
		{31.62, 10.0},
	}
	return NewLQR(k, []float64{0, 0})
}

// NewCartPoleLQR is the teacher's hand-tuned cart-pole gain, kept as a
// ready-made preset for a 2-link PlanarChain modeling a cart-pole (nx=4).
func NewCartPoleLQR() *LQR {
	k := [][]float64{
		{-1.0, -1.73, 35.36, 8.94},
	}
	return NewLQR(k, []float64{0, 0, 0, 0})
}
