package engine

import "github.com/san-kum/dynsim/internal/rbd"

// Controller is the capability contract required of a control law: only
// computeCommand and internalDynamics matter to the engine, matching
// SPEC_FULL.md §6 and §9's note that inheritance hierarchies in the original
// source collapse into a capability set here.
type Controller interface {
	ComputeCommand(m rbd.Model, t float64, q, v []float64) ([]float64, error)
	InternalDynamics(m rbd.Model, t float64, q, v []float64) ([]float64, error)
}
