package engine

import "math"

// JointLimitsModel computes a penalty torque (spring+damper, tanh-blended)
// that drives a bounded generalized coordinate back within [qMin, qMax],
// per spec.md §4.2.
type JointLimitsModel struct {
	Opts JointOptions
}

func NewJointLimitsModel(opts JointOptions) *JointLimitsModel {
	return &JointLimitsModel{Opts: opts}
}

// Torque returns the bound torque and the penetration distance for one
// bounded coordinate.
func (j *JointLimitsModel) Torque(q, v, qMin, qMax float64) (tau, e float64) {
	kb, cb := j.Opts.BoundStiffness, j.Opts.BoundDamping

	switch {
	case q > qMax:
		e = q - qMax
		tau = -kb*e - cb*math.Max(v, 0)
	case q < qMin:
		e = qMin - q
		tau = kb*e - cb*math.Min(v, 0)
	default:
		return 0, 0
	}

	blend := math.Tanh(2 * e / j.Opts.BoundTransitionEps)
	return tau * blend, e
}

// Accumulate adds the bound torque into uBounds at every velocity index
// whose position bounds are not both infinite, querying the model's
// position bounds with the velocity index as the configuration index. That
// identity mapping is exact for PlanarChain (nq==nv); FreeBody (nq=7,
// nv=6) reports infinite bounds at every index, so nothing is added for it.
func (j *JointLimitsModel) Accumulate(q, v []float64, bounds func(idx int) (min, max float64), uBounds []float64) {
	for i := range uBounds {
		qMin, qMax := bounds(i)
		if math.IsInf(qMin, -1) && math.IsInf(qMax, 1) {
			continue
		}
		tau, _ := j.Torque(q[i], v[i], qMin, qMax)
		uBounds[i] += tau
	}
}
