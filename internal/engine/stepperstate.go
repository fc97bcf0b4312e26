package engine

import (
	"fmt"

	"github.com/san-kum/dynsim/internal/rbd"
)

// StepperState is the mutable record of the integrator's current accepted
// step. It is owned exclusively by the EngineFacade that created it and is
// mutated only by the AdaptiveStepper (through DynamicsRHS) and the outer
// loop in ScheduleController/EngineFacade.
type StepperState struct {
	T    float64
	X    []float64 // nx = nq+nv; q = X[:nq], v = X[nq:]
	DXDT []float64

	A        []float64 // last computed acceleration, length nv
	UControl []float64 // length nv, zero outside motor indices
	UCommand []float64 // length nMotors, clipped command pre-mapping
	UInternal []float64
	UBounds  []float64
	U        []float64 // last full generalized torque (RNEA on accepted step)

	FExternal []rbd.Wrench // one per joint

	Energy float64
	Iter   int

	QNames        []string
	VNames        []string
	ANames        []string
	UCommandNames []string

	nq, nv int
}

func newStepperState(nq, nv, nMotors, nJoints int) *StepperState {
	return &StepperState{
		X:             make([]float64, nq+nv),
		DXDT:          make([]float64, nq+nv),
		A:             make([]float64, nv),
		UControl:      make([]float64, nv),
		UCommand:      make([]float64, nMotors),
		UInternal:     make([]float64, nv),
		UBounds:       make([]float64, nv),
		U:             make([]float64, nv),
		FExternal:     make([]rbd.Wrench, nJoints),
		QNames:        indexedNames("q", nq),
		VNames:        indexedNames("v", nv),
		ANames:        indexedNames("a", nv),
		UCommandNames: indexedNames("uCommand", nMotors),
		nq:            nq,
		nv:            nv,
	}
}

// indexedNames builds the per-element name vector ["prefix0", "prefix1",
// ...] parallel to a numeric vector of length n, matching the column
// naming EngineFacade.telemetryFieldNames uses for the same quantities.
func indexedNames(prefix string, n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return names
}

func (s *StepperState) q() []float64 { return s.X[:s.nq] }
func (s *StepperState) v() []float64 { return s.X[s.nq:] }

func (s *StepperState) reset(x0 []float64) {
	copy(s.X, x0)
	for i := range s.DXDT {
		s.DXDT[i] = 0
	}
	for i := range s.A {
		s.A[i] = 0
	}
	for i := range s.UControl {
		s.UControl[i] = 0
	}
	for i := range s.UCommand {
		s.UCommand[i] = 0
	}
	for i := range s.UInternal {
		s.UInternal[i] = 0
	}
	for i := range s.UBounds {
		s.UBounds[i] = 0
	}
	for i := range s.U {
		s.U[i] = 0
	}
	for i := range s.FExternal {
		s.FExternal[i] = rbd.Wrench{}
	}
	s.Energy = 0
	s.Iter = 0
	s.T = 0
}
