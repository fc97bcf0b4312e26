package controllers

import "github.com/san-kum/dynsim/internal/rbd"

// None is the zero controller: no command, no internal dynamics. Useful
// for the unactuated scenarios in spec.md §8 (free-fall, joint-limit
// spring, energy-drift double pendulum).
type None struct{}

func NewNone() *None { return &None{} }

func (n *None) ComputeCommand(m rbd.Model, t float64, q, v []float64) ([]float64, error) {
	return make([]float64, len(m.MotorVelocityIndices())), nil
}

func (n *None) InternalDynamics(m rbd.Model, t float64, q, v []float64) ([]float64, error) {
	return make([]float64, m.NV()), nil
}
