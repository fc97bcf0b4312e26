package engine

import "math"

// Dormand-Prince 5(4) coefficients, as in the teacher's
// internal/integrators/rk45.go.
var (
	dpA2 = 1.0 / 5.0
	dpA3 = 3.0 / 10.0
	dpA4 = 4.0 / 5.0
	dpA5 = 8.0 / 9.0

	dpB21 = 1.0 / 5.0
	dpB31 = 3.0 / 40.0
	dpB32 = 9.0 / 40.0
	dpB41 = 44.0 / 45.0
	dpB42 = -56.0 / 15.0
	dpB43 = 32.0 / 9.0
	dpB51 = 19372.0 / 6561.0
	dpB52 = -25360.0 / 2187.0
	dpB53 = 64448.0 / 6561.0
	dpB54 = -212.0 / 729.0
	dpB61 = 9017.0 / 3168.0
	dpB62 = -355.0 / 33.0
	dpB63 = 46732.0 / 5247.0
	dpB64 = 49.0 / 176.0
	dpB65 = -5103.0 / 18656.0

	dpC1 = 35.0 / 384.0
	dpC3 = 500.0 / 1113.0
	dpC4 = 125.0 / 192.0
	dpC5 = -2187.0 / 6784.0
	dpC6 = 11.0 / 84.0

	dpDC1 = dpC1 - 5179.0/57600.0
	dpDC3 = dpC3 - 7571.0/16695.0
	dpDC4 = dpC4 - 393.0/640.0
	dpDC5 = dpC5 - -92097.0/339200.0
	dpDC6 = dpC6 - 187.0/2100.0
	dpDC7 = -1.0 / 40.0
)

// RHSFunc matches DynamicsRHS.Compute's signature so AdaptiveStepper stays
// decoupled from the rest of the engine package's scratch bookkeeping.
type RHSFunc func(t float64, x []float64) ([]float64, error)

// AdaptiveStepper wraps an embedded Dormand-Prince 5(4) controlled stepper
// with jiminy's step-to-breakpoint and step-rejection/failure-counter
// semantics, per spec.md §4.5. The teacher's RK45.StepAdaptive already
// implements the coefficients and step-size control; this adds the
// breakpoint clamp/restore behavior and the consecutive-failure fault the
// teacher's version never surfaced.
type AdaptiveStepper struct {
	tolAbs, tolRel float64
	safety         float64
	minScale       float64
	maxScale       float64
	maxFailures    int

	dtCurrent float64
	failures  int
}

func NewAdaptiveStepper(tolAbs, tolRel float64, maxFailures int, initialDt float64) *AdaptiveStepper {
	return &AdaptiveStepper{
		tolAbs:      tolAbs,
		tolRel:      tolRel,
		safety:      0.9,
		minScale:    0.2,
		maxScale:    10.0,
		maxFailures: maxFailures,
		dtCurrent:   initialDt,
	}
}

// tryStep attempts one Dormand-Prince step of size dt from (t, x, dxdt),
// returning the candidate new state, the step size actually used, the
// suggested next step size, and whether the step was accepted.
func (s *AdaptiveStepper) tryStep(rhs RHSFunc, t float64, x, dxdt []float64, dt float64) (xNew []float64, dtUsed, dtNext float64, accepted bool, err error) {
	n := len(x)
	k1 := dxdt

	x2 := axpy(x, dt*dpB21, k1)
	k2, err := rhs(t+dpA2*dt, x2)
	if err != nil {
		return nil, dt, dt, false, err
	}

	x3 := axpy2(x, dt, dpB31, k1, dpB32, k2)
	k3, err := rhs(t+dpA3*dt, x3)
	if err != nil {
		return nil, dt, dt, false, err
	}

	x4 := axpy3(x, dt, dpB41, k1, dpB42, k2, dpB43, k3)
	k4, err := rhs(t+dpA4*dt, x4)
	if err != nil {
		return nil, dt, dt, false, err
	}

	x5 := axpy4(x, dt, dpB51, k1, dpB52, k2, dpB53, k3, dpB54, k4)
	k5, err := rhs(t+dpA5*dt, x5)
	if err != nil {
		return nil, dt, dt, false, err
	}

	x6 := axpy5(x, dt, dpB61, k1, dpB62, k2, dpB63, k3, dpB64, k4, dpB65, k5)
	k6, err := rhs(t+dt, x6)
	if err != nil {
		return nil, dt, dt, false, err
	}

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = x[i] + dt*(dpC1*k1[i]+dpC3*k3[i]+dpC4*k4[i]+dpC5*k5[i]+dpC6*k6[i])
	}

	k7, err := rhs(t+dt, out)
	if err != nil {
		return nil, dt, dt, false, err
	}

	errMax := 0.0
	for i := 0; i < n; i++ {
		errEst := dt * (dpDC1*k1[i] + dpDC3*k3[i] + dpDC4*k4[i] + dpDC5*k5[i] + dpDC6*k6[i] + dpDC7*k7[i])
		tol := s.tolAbs + s.tolRel*math.Abs(x[i])
		errMax = math.Max(errMax, math.Abs(errEst)/tol)
	}

	if errMax > 1 {
		scale := math.Max(s.minScale, s.safety*math.Pow(errMax, -0.25))
		return nil, dt, dt * scale, false, nil
	}

	var scale float64
	if errMax > 0 {
		scale = math.Min(s.maxScale, s.safety*math.Pow(errMax, -0.2))
	} else {
		scale = s.maxScale
	}
	return out, dt, dt * scale, true, nil
}

// AdvanceToBreakpoint runs the inner try_step loop until t reaches
// nextTime, restoring the learned step size after any breakpoint-induced
// shrink, and returns the new (t, x, dxdt). next may equal endTime for the
// free-running case.
func (s *AdaptiveStepper) AdvanceToBreakpoint(rhs RHSFunc, t float64, x, dxdt []float64, next float64) (float64, []float64, []float64, error) {
	for t < next-1e-12 {
		dt := math.Min(s.dtCurrent, next-t)
		xNew, dtUsed, dtNext, accepted, err := s.tryStep(rhs, t, x, dxdt, dt)
		if err != nil {
			return t, x, dxdt, err
		}
		if accepted {
			s.failures = 0
			t += dtUsed
			x = xNew
			dxdtNew, err := rhs(t, x)
			if err != nil {
				return t, x, dxdt, err
			}
			dxdt = dxdtNew
			// Restore the learned step after a breakpoint-induced shrink.
			if dtNext > s.dtCurrent {
				s.dtCurrent = dtNext
			} else {
				s.dtCurrent = math.Max(s.dtCurrent, dtUsed)
			}
		} else {
			s.dtCurrent = dtNext
			s.failures++
			if s.failures > s.maxFailures {
				return t, x, dxdt, errStepper("too many consecutive step rejections")
			}
		}
	}
	return t, x, dxdt, nil
}

func axpy(x []float64, a float64, k []float64) []float64 {
	out := make([]float64, len(x))
	for i := range x {
		out[i] = x[i] + a*k[i]
	}
	return out
}

func axpy2(x []float64, dt, a1 float64, k1 []float64, a2 float64, k2 []float64) []float64 {
	out := make([]float64, len(x))
	for i := range x {
		out[i] = x[i] + dt*(a1*k1[i]+a2*k2[i])
	}
	return out
}

func axpy3(x []float64, dt, a1 float64, k1 []float64, a2 float64, k2 []float64, a3 float64, k3 []float64) []float64 {
	out := make([]float64, len(x))
	for i := range x {
		out[i] = x[i] + dt*(a1*k1[i]+a2*k2[i]+a3*k3[i])
	}
	return out
}

func axpy4(x []float64, dt, a1 float64, k1 []float64, a2 float64, k2 []float64, a3 float64, k3 []float64, a4 float64, k4 []float64) []float64 {
	out := make([]float64, len(x))
	for i := range x {
		out[i] = x[i] + dt*(a1*k1[i]+a2*k2[i]+a3*k3[i]+a4*k4[i])
	}
	return out
}

func axpy5(x []float64, dt, a1 float64, k1 []float64, a2 float64, k2 []float64, a3 float64, k3 []float64, a4 float64, k4 []float64, a5 float64, k5 []float64) []float64 {
	out := make([]float64, len(x))
	for i := range x {
		out[i] = x[i] + dt*(a1*k1[i]+a2*k2[i]+a3*k3[i]+a4*k4[i]+a5*k5[i])
	}
	return out
}
