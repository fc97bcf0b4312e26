package engine

import "math"

const breakpointEps = 1e-8

// ScheduleController decides, each outer iteration, whether to resample
// sensors, recompute the command, and the next integrator breakpoint, per
// spec.md §4.4.
type ScheduleController struct {
	sensorsUpdatePeriod    float64
	controllerUpdatePeriod float64
	updatePeriod           float64 // min(positive of the two), or 0 if both zero
}

func NewScheduleController(sensorsUpdatePeriod, controllerUpdatePeriod float64) *ScheduleController {
	return &ScheduleController{
		sensorsUpdatePeriod:    sensorsUpdatePeriod,
		controllerUpdatePeriod: controllerUpdatePeriod,
		updatePeriod:           effectivePeriod(sensorsUpdatePeriod, controllerUpdatePeriod),
	}
}

func effectivePeriod(sensors, controller float64) float64 {
	switch {
	case sensors > 0 && controller > 0:
		return math.Min(sensors, controller)
	case sensors > 0:
		return sensors
	case controller > 0:
		return controller
	default:
		return 0
	}
}

// UpdatePeriod is the outer-loop breakpoint period; zero means free-running.
func (s *ScheduleController) UpdatePeriod() float64 { return s.updatePeriod }

// NextBreakpoint returns the next time the outer loop should stop the
// integrator, capped at endTime.
func (s *ScheduleController) NextBreakpoint(currentTime, endTime float64) float64 {
	if s.updatePeriod <= 0 {
		return endTime
	}
	return currentTime + math.Min(s.updatePeriod, endTime-currentTime)
}

func alignedToPeriod(t, period float64) bool {
	if period <= 0 {
		return false
	}
	k := math.Round(t / period)
	return math.Abs(t-k*period) < breakpointEps
}

// RefreshAt runs the sensor-then-controller breakpoint refresh ordering
// guaranteed by spec.md §4.4: sensors are refreshed before the controller,
// and if the controller refreshed, the RHS must be re-evaluated since the
// vector field just changed discontinuously. It reports whether the RHS
// needs re-evaluation.
func (s *ScheduleController) RefreshAt(t float64, q, v, aLast, uLast []float64, model refreshModel, rhs *DynamicsRHS, scratch *StepperState) (bool, error) {
	refreshed := false

	if s.sensorsUpdatePeriod > 0 && alignedToPeriod(t, s.sensorsUpdatePeriod) {
		model.SetSensorsData(t, q, v, aLast, uLast)
	}
	if s.controllerUpdatePeriod > 0 && alignedToPeriod(t, s.controllerUpdatePeriod) {
		if err := rhs.refreshCommand(t, q, v, scratch); err != nil {
			return false, err
		}
		refreshed = true
	}
	return refreshed, nil
}

// refreshModel is the narrow slice of rbd.Model that ScheduleController
// needs, kept separate so this file doesn't import rbd just for the Model
// interface name.
type refreshModel interface {
	SetSensorsData(t float64, q, v, a, u []float64)
}
