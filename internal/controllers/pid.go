package controllers

import "github.com/san-kum/dynsim/internal/rbd"

// PID drives a single motor index toward Target using the configuration
// coordinate at that index as the measured variable, adapted from the
// teacher's single-state PID to the engine's (model, t, q, v) contract:
// computeCommand now sees the whole configuration/velocity vectors rather
// than a raw sim.State, and the motor it actuates is explicit rather than
// implicit in a one-DOF state layout.
//
// ComputeCommand is called once per RHS sub-stage in continuous-mode
// (controller refresh period 0), including rejected stepper stages;
// integral/prevErr accumulate across every call whose time is later than
// the previous update, accepted or not, which biases the integral term
// under frequent step rejection. A call at a time not later than the
// previous update (a step-size retry) returns the proportional term alone
// and leaves integral/prevErr unchanged. Safe for
// breakpoint-scheduled refresh (controller refresh period > 0), where
// every call corresponds to an accepted breakpoint.
type PID struct {
	Kp, Ki, Kd float64
	Target     float64
	MotorIndex int // index into q/v and into the motor list

	integral float64
	prevErr  float64
	prevT    float64
	first    bool
}

func NewPID(kp, ki, kd, target float64, motorIndex int) *PID {
	return &PID{Kp: kp, Ki: ki, Kd: kd, Target: target, MotorIndex: motorIndex, first: true}
}

func (p *PID) ComputeCommand(m rbd.Model, t float64, q, v []float64) ([]float64, error) {
	motors := m.MotorVelocityIndices()
	cmd := make([]float64, len(motors))

	err := p.Target - q[p.MotorIndex]
	u := p.Kp * err

	if p.first {
		p.prevErr = err
		p.prevT = t
		p.first = false
	} else if dt := t - p.prevT; dt > 0 {
		p.integral += err * dt
		derivative := (err - p.prevErr) / dt
		u = p.Kp*err + p.Ki*p.integral + p.Kd*derivative
		p.prevErr = err
		p.prevT = t
	}

	for i, velIdx := range motors {
		if velIdx == p.MotorIndex {
			cmd[i] = u
		}
	}
	return cmd, nil
}

func (p *PID) InternalDynamics(m rbd.Model, t float64, q, v []float64) ([]float64, error) {
	return make([]float64, m.NV()), nil
}
