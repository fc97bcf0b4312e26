package engine

import (
	"fmt"
	"math"

	"github.com/san-kum/dynsim/internal/rbd"
)

// DynamicsRHS composes kinematics, contact forces, external forces, the
// controller command, internal dynamics, and bound torques into a single
// forward-dynamics right-hand side usable by a generic ODE stepper, per
// spec.md §4.3's twelve steps.
type DynamicsRHS struct {
	model      rbd.Model
	controller Controller
	contacts   *ContactModel
	joints     *JointLimitsModel
	forces     *ForceRegistry

	sensorsUpdatePeriod    float64
	controllerUpdatePeriod float64

	motorVelIdx []int
	motorPosIdx []int

	tLast float64
	aLast []float64
	uLast []float64
}

func NewDynamicsRHS(m rbd.Model, ctrl Controller, contacts *ContactModel, joints *JointLimitsModel, forces *ForceRegistry, sensorsPeriod, controllerPeriod float64) *DynamicsRHS {
	return &DynamicsRHS{
		model:                  m,
		controller:             ctrl,
		contacts:               contacts,
		joints:                 joints,
		forces:                 forces,
		sensorsUpdatePeriod:    sensorsPeriod,
		controllerUpdatePeriod: controllerPeriod,
		motorVelIdx:            m.MotorVelocityIndices(),
		motorPosIdx:            m.MotorPositionIndices(),
		aLast:                  make([]float64, m.NV()),
		uLast:                  make([]float64, m.NV()),
	}
}

// SetLastAccepted updates the (t, a, u) snapshot the RHS feeds to sensors
// and internal dynamics in continuous mode, taken from the previous
// accepted outer-loop step.
func (rhs *DynamicsRHS) SetLastAccepted(t float64, a, u []float64) {
	rhs.tLast = t
	copy(rhs.aLast, a)
	copy(rhs.uLast, u)
}

// Compute implements step 1-12 of spec.md §4.3, writing the result into
// scratch (dxdt) and returning it. fExternal, uInternal, uBounds, a and
// dxdt are scratch owned by the caller's StepperState and are overwritten
// on every call; uControl and uCommand are rewritten only when the
// controller refresh period is 0, and u is not written here. A panic from
// the controller, a registered
// force profile, or internal dynamics is recovered here and converted to
// ErrGeneric per spec.md §7, so no public EngineFacade method boundary ever
// sees a raw panic.
func (rhs *DynamicsRHS) Compute(t float64, x []float64, scratch *StepperState) (dxdt []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			dxdt, err = nil, errGeneric(fmt.Sprintf("recovered panic in RHS: %v", r))
		}
	}()
	return rhs.computeUnsafe(t, x, scratch)
}

func (rhs *DynamicsRHS) computeUnsafe(t float64, x []float64, scratch *StepperState) ([]float64, error) {
	nq, nv := rhs.model.NQ(), rhs.model.NV()
	q, v := x[:nq], x[nq:]

	// 2. Forward kinematics and frame placements.
	rhs.model.ForwardKinematics(q, v)
	rhs.model.FramesForwardKinematics()

	// 3. Contact wrenches, accumulated by parent joint.
	for i := range scratch.FExternal {
		scratch.FExternal[i] = rbd.Wrench{}
	}
	for _, frameIdx := range rhs.model.ContactFrameIndices() {
		w := rhs.contacts.Wrench(rhs.model, frameIdx)
		joint := rhs.model.ParentJoint(frameIdx)
		scratch.FExternal[joint] = scratch.FExternal[joint].Add(w)
	}

	// 4. Registered impulse/profile forces.
	rhs.forces.Accumulate(t, x, scratch.FExternal)

	// 5. Continuous-mode sensor refresh.
	if rhs.sensorsUpdatePeriod == 0 {
		rhs.model.SetSensorsData(t, q, v, rhs.aLast, rhs.uLast)
	}

	// 6. Continuous-mode controller refresh.
	if rhs.controllerUpdatePeriod == 0 {
		if err := rhs.refreshCommand(t, q, v, scratch); err != nil {
			return nil, err
		}
	}

	// 7. Internal dynamics.
	uInternal, err := rhs.controller.InternalDynamics(rhs.model, t, q, v)
	if err != nil {
		return nil, errGeneric(fmt.Sprintf("internalDynamics: %v", err))
	}
	if len(uInternal) != nv {
		return nil, errGeneric(fmt.Sprintf("internalDynamics returned %d values, want %d", len(uInternal), nv))
	}
	copy(scratch.UInternal, uInternal)

	// 8. Joint-limit bound torques.
	for i := range scratch.UBounds {
		scratch.UBounds[i] = 0
	}
	rhs.joints.Accumulate(q, v, rhs.model.PositionBounds, scratch.UBounds)

	// 9. Total generalized torque.
	uTotal := make([]float64, nv)
	for i := 0; i < nv; i++ {
		uTotal[i] = scratch.UBounds[i] + scratch.UInternal[i] + scratch.UControl[i]
	}

	// 10. Forward dynamics.
	a := rhs.model.ABA(q, v, uTotal, scratch.FExternal)
	copy(scratch.A, a)

	// 11. Manifold retraction to approximate qDot.
	delta := math.Max(1e-5, t-rhs.tLast)
	vTimesDt := make([]float64, nv)
	for i := 0; i < nv; i++ {
		vTimesDt[i] = v[i] * delta
	}
	qNext := rhs.model.Integrate(q, vTimesDt)
	qDot := make([]float64, nq)
	for i := 0; i < nq; i++ {
		qDot[i] = (qNext[i] - q[i]) / delta
	}

	// 12. Assemble dxdt.
	copy(scratch.DXDT[:nq], qDot)
	copy(scratch.DXDT[nq:], a)

	return scratch.DXDT, nil
}

// refreshCommand invokes the controller's computeCommand, clamps to the
// per-motor effort limit, and scatters the result into UControl by the
// motor-to-velocity index map.
func (rhs *DynamicsRHS) refreshCommand(t float64, q, v []float64, scratch *StepperState) error {
	cmd, err := rhs.controller.ComputeCommand(rhs.model, t, q, v)
	if err != nil {
		return errGeneric(fmt.Sprintf("computeCommand: %v", err))
	}
	if len(cmd) != len(rhs.motorVelIdx) {
		return errGeneric(fmt.Sprintf("computeCommand returned %d values, want %d", len(cmd), len(rhs.motorVelIdx)))
	}

	for i := range scratch.UControl {
		scratch.UControl[i] = 0
	}
	for i, velIdx := range rhs.motorVelIdx {
		limit := rhs.model.EffortLimit(velIdx)
		clipped := clamp(cmd[i], -limit, limit)
		scratch.UCommand[i] = clipped
		scratch.UControl[velIdx] = clipped
	}
	return nil
}
