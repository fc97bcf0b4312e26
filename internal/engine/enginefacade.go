package engine

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/san-kum/dynsim/internal/rbd"
)

// LifecycleState is the EngineFacade's state machine position:
// Uninitialized -> Initialized <-> Running -> Completed.
type LifecycleState int

const (
	Uninitialized LifecycleState = iota
	Initialized
	Running
	Completed
)

func (s LifecycleState) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initialized:
		return "initialized"
	case Running:
		return "running"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// TerminationCallback is polled once per outer iteration; returning false
// stops the simulate call early.
type TerminationCallback func(t float64, x []float64) bool

// EngineFacade is the lifecycle and outer-loop orchestrator described by
// spec.md §4.8: initialize, simulate (batch), step (incremental), reset,
// and log retrieval, composed from the rest of this package's components.
type EngineFacade struct {
	opts  Options
	state LifecycleState

	model      rbd.Model
	controller Controller
	callback   TerminationCallback

	contacts  *ContactModel
	joints    *JointLimitsModel
	forces    *ForceRegistry
	schedule  *ScheduleController
	rhs       *DynamicsRHS
	telemetry *TelemetryBridge
	stepper   *AdaptiveStepper

	stepperState *StepperState
	endTime      float64
	rng          *rand.Rand

	sensorOrder []sensorFieldEntry
}

// sensorFieldEntry fixes the (type, name) slot a registered sensor occupies
// in the telemetry header, since rbd.Model.SensorsData() returns a map and
// map iteration order is not itself a stable schema.
type sensorFieldEntry struct {
	sensorType string
	name       string
	fieldNames []string
}

func NewEngineFacade(opts Options) *EngineFacade {
	return &EngineFacade{opts: opts, state: Uninitialized}
}

func (e *EngineFacade) State() LifecycleState { return e.state }

// Initialize validates the model and controller, stores gravity on the
// model, registers telemetry fields, and transitions Uninitialized ->
// Initialized.
func (e *EngineFacade) Initialize(model rbd.Model, controller Controller, callback TerminationCallback) error {
	if !model.IsInitialized() {
		return errInit("model is not initialized")
	}

	nv := model.NV()
	nMotors := len(model.MotorVelocityIndices())
	zeroQ := make([]float64, model.NQ())
	zeroV := make([]float64, nv)
	cmd, err := controller.ComputeCommand(model, 0, zeroQ, zeroV)
	if err != nil {
		return errInit(fmt.Sprintf("controller probe computeCommand failed: %v", err))
	}
	if len(cmd) != nMotors {
		return errInit(fmt.Sprintf("controller computeCommand returns %d values, want %d motors", len(cmd), nMotors))
	}
	internal, err := controller.InternalDynamics(model, 0, zeroQ, zeroV)
	if err != nil {
		return errInit(fmt.Sprintf("controller probe internalDynamics failed: %v", err))
	}
	if len(internal) != nv {
		return errInit(fmt.Sprintf("controller internalDynamics returns %d values, want nv=%d", len(internal), nv))
	}

	model.SetGravity(e.opts.World.Gravity)

	e.model = model
	e.controller = controller
	e.callback = callback
	e.sensorOrder = sensorOrderOf(model)

	e.contacts = NewContactModel(e.opts.Contacts)
	e.joints = NewJointLimitsModel(e.opts.Joints)
	e.forces = NewForceRegistry(model)
	e.schedule = NewScheduleController(e.opts.Stepper.SensorsUpdatePeriod, e.opts.Stepper.ControllerUpdatePeriod)
	e.rhs = NewDynamicsRHS(model, controller, e.contacts, e.joints, e.forces, e.opts.Stepper.SensorsUpdatePeriod, e.opts.Stepper.ControllerUpdatePeriod)

	e.telemetry = NewTelemetryBridge(e.opts.Telemetry.Capacity)
	if err := e.telemetry.RegisterFields(nil, e.telemetryFieldNames()); err != nil {
		return errInit(err.Error())
	}

	e.stepperState = newStepperState(model.NQ(), nv, nMotors, model.NumJoints())
	e.rng = rand.New(rand.NewSource(e.opts.Stepper.RandomSeed))

	e.state = Initialized
	return nil
}

// RegisterImpulse exposes the initialized ForceRegistry's registerImpulse
// operation (spec.md §4.6) on the facade, so callers never need to reach
// past EngineFacade into engine-internal state.
func (e *EngineFacade) RegisterImpulse(frameIdx int, t0, duration float64, wrench rbd.Wrench) error {
	return e.forces.RegisterImpulse(frameIdx, t0, duration, wrench)
}

// RegisterProfile exposes the initialized ForceRegistry's registerProfile
// operation (spec.md §4.6) on the facade.
func (e *EngineFacade) RegisterProfile(frameIdx int, f ProfileFunc) error {
	return e.forces.RegisterProfile(frameIdx, f)
}

// sensorOrderOf fixes a stable field order over every sensor model.SensorsData()
// currently reports, sorted by sensor type then sensor name so the
// telemetry header and every snapshotRow call agree on column position.
func sensorOrderOf(model rbd.Model) []sensorFieldEntry {
	data := model.SensorsData()
	types := make([]string, 0, len(data))
	for t := range data {
		types = append(types, t)
	}
	sort.Strings(types)

	var order []sensorFieldEntry
	for _, t := range types {
		group := data[t]
		names := make([]string, 0, len(group.ByName))
		for n := range group.ByName {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			order = append(order, sensorFieldEntry{sensorType: t, name: n, fieldNames: group.FieldNames})
		}
	}
	return order
}

func (e *EngineFacade) telemetryFieldNames() []string {
	var names []string
	nq, nv := e.model.NQ(), e.model.NV()
	if e.opts.Telemetry.LogConfiguration {
		for i := 0; i < nq; i++ {
			names = append(names, fmt.Sprintf("q%d", i))
		}
	}
	if e.opts.Telemetry.LogVelocity {
		for i := 0; i < nv; i++ {
			names = append(names, fmt.Sprintf("v%d", i))
		}
	}
	if e.opts.Telemetry.LogAcceleration {
		for i := 0; i < nv; i++ {
			names = append(names, fmt.Sprintf("a%d", i))
		}
	}
	if e.opts.Telemetry.LogCommand {
		for i := range e.model.MotorVelocityIndices() {
			names = append(names, fmt.Sprintf("uCommand%d", i))
		}
	}
	names = append(names, "energy")
	for _, se := range e.sensorOrder {
		for _, field := range se.fieldNames {
			names = append(names, fmt.Sprintf("%s_%s_%s", se.sensorType, se.name, field))
		}
	}
	return names
}

func (e *EngineFacade) snapshotRow() []float64 {
	q := e.stepperState.q()
	v := e.stepperState.v()
	var row []float64
	if e.opts.Telemetry.LogConfiguration {
		row = append(row, q...)
	}
	if e.opts.Telemetry.LogVelocity {
		row = append(row, v...)
	}
	if e.opts.Telemetry.LogAcceleration {
		row = append(row, e.stepperState.A...)
	}
	if e.opts.Telemetry.LogCommand {
		row = append(row, e.stepperState.UCommand...)
	}
	row = append(row, e.stepperState.Energy)
	if len(e.sensorOrder) > 0 {
		data := e.model.SensorsData()
		for _, se := range e.sensorOrder {
			row = append(row, data[se.sensorType].ByName[se.name]...)
		}
	}
	return row
}

// Reset resets stepper state, reseeds the RNG from the stored option, and
// optionally clears the force registry.
func (e *EngineFacade) Reset(clearForces bool) error {
	if e.state == Uninitialized {
		return errInit("reset called before initialize")
	}
	e.stepperState.reset(make([]float64, e.model.NQ()+e.model.NV()))
	e.model.Reset()
	e.rng = rand.New(rand.NewSource(e.opts.Stepper.RandomSeed))
	e.telemetry.Reset()
	if clearForces {
		e.forces.Clear()
	}
	e.state = Initialized
	return nil
}

// Simulate runs the outer loop to completion from xInit for endTime
// seconds, per spec.md §4.8's preconditions and termination conditions.
func (e *EngineFacade) Simulate(xInit []float64, endTime float64) error {
	if e.state != Initialized && e.state != Completed {
		return errInit(fmt.Sprintf("simulate called in state %s", e.state))
	}
	nx := e.model.NQ() + e.model.NV()
	if len(xInit) != nx {
		return errBadInput(fmt.Sprintf("x_init has length %d, want nx=%d", len(xInit), nx))
	}
	if endTime < 0.05 {
		return errBadInput("end_time must be >= 0.05s")
	}

	e.model.Reset()
	e.stepperState.reset(xInit)
	e.telemetry.Reset()
	e.endTime = endTime
	e.stepper = NewAdaptiveStepper(e.opts.Stepper.TolAbs, e.opts.Stepper.TolRel, e.opts.Stepper.MaxConsecutiveFailures, initialStepGuess(endTime))
	e.rhs.SetLastAccepted(0, e.stepperState.A, e.stepperState.U)
	e.state = Running

	if err := e.postStepUpdate(); err != nil {
		return err
	}
	if err := e.appendTelemetry(); err != nil {
		return err
	}

	for {
		if math.Abs(e.endTime-e.stepperState.T) < 1e-9 {
			break
		}
		keepGoing, err := e.pollCallback()
		if err != nil {
			e.state = Completed
			return err
		}
		if !keepGoing {
			break
		}
		if e.stepperState.Iter >= e.opts.Stepper.MaxIterations {
			break
		}
		if err := e.advanceOneIteration(); err != nil {
			e.state = Completed
			return err
		}
	}

	e.state = Completed
	return nil
}

// pollCallback invokes the termination callback, recovering a panic into
// ErrGeneric per spec.md §7 so a caller-supplied callback can never crash
// past the EngineFacade boundary. The telemetry accumulated up to the last
// accepted step survives untouched since this runs between iterations, not
// inside one.
func (e *EngineFacade) pollCallback() (keepGoing bool, err error) {
	if e.callback == nil {
		return true, nil
	}
	defer func() {
		if r := recover(); r != nil {
			keepGoing, err = false, errGeneric(fmt.Sprintf("recovered panic in termination callback: %v", r))
		}
	}()
	return e.callback(e.stepperState.T, e.stepperState.X), nil
}

// Step advances exactly one outer breakpoint, for externally driven
// stepping; dtDesired caps the breakpoint distance when free-running. The
// first call from Initialized starts the run from the current stepper
// state, which Initialize and Reset leave at zero.
func (e *EngineFacade) Step(dtDesired float64) error {
	switch e.state {
	case Initialized:
		e.endTime = math.Inf(1)
		e.stepper = NewAdaptiveStepper(e.opts.Stepper.TolAbs, e.opts.Stepper.TolRel, e.opts.Stepper.MaxConsecutiveFailures, initialStepGuess(1))
		e.rhs.SetLastAccepted(e.stepperState.T, e.stepperState.A, e.stepperState.U)
		if err := e.postStepUpdate(); err != nil {
			return err
		}
		if err := e.appendTelemetry(); err != nil {
			return err
		}
		e.state = Running
	case Running:
	default:
		return errInit(fmt.Sprintf("step called in state %s", e.state))
	}
	return e.advanceOneIteration2(dtDesired)
}

func (e *EngineFacade) advanceOneIteration() error {
	return e.advanceOneIteration2(0)
}

// advanceOneIteration2 performs one outer iteration in the ordering
// guaranteed by spec.md §5: sensor refresh (if due) -> controller refresh
// (if due) -> RHS re-evaluation (only if controller refreshed) -> inner
// integrator loop to next_time -> post-step RNEA/energy update -> iteration
// counter increment -> continuous-mode sensor refresh at the accepted state
// -> telemetry snapshot of the accepted step. The termination check happens
// in the caller (Simulate), ahead of this call.
func (e *EngineFacade) advanceOneIteration2(stepCap float64) error {
	t := e.stepperState.T
	next := e.schedule.NextBreakpoint(t, e.endTime)
	if stepCap > 0 && t+stepCap < next {
		next = t + stepCap
	}

	q, v := e.stepperState.q(), e.stepperState.v()
	refreshed, err := e.schedule.RefreshAt(t, q, v, e.stepperState.A, e.stepperState.U, e.model, e.rhs, e.stepperState)
	if err != nil {
		return err
	}

	// Compute returns the shared scratch.DXDT slice, so each stage derivative
	// is copied out; otherwise every RK stage would alias the last one.
	rhsFn := func(tt float64, x []float64) ([]float64, error) {
		d, err := e.rhs.Compute(tt, x, e.stepperState)
		if err != nil {
			return nil, err
		}
		return append([]float64(nil), d...), nil
	}

	dxdt := append([]float64(nil), e.stepperState.DXDT...)
	if refreshed {
		dxdt, err = rhsFn(t, e.stepperState.X)
		if err != nil {
			return err
		}
	}

	newT, newX, newDxdt, err := e.stepper.AdvanceToBreakpoint(rhsFn, t, e.stepperState.X, dxdt, next)
	if err != nil {
		return err
	}
	e.stepperState.T = newT
	copy(e.stepperState.X, newX)
	copy(e.stepperState.DXDT, newDxdt)

	if err := e.postStepUpdate(); err != nil {
		return err
	}
	e.stepperState.Iter++
	e.rhs.SetLastAccepted(e.stepperState.T, e.stepperState.A, e.stepperState.U)
	if e.rhs.sensorsUpdatePeriod == 0 {
		e.model.SetSensorsData(e.stepperState.T, e.stepperState.q(), e.stepperState.v(), e.stepperState.A, e.stepperState.U)
	}

	return e.appendTelemetry()
}

// postStepUpdate recomputes the last full generalized torque via RNEA and
// the total energy on the accepted step, maintaining the StepperState
// invariants from spec.md §3.
func (e *EngineFacade) postStepUpdate() error {
	q, v := e.stepperState.q(), e.stepperState.v()
	u := e.model.RNEA(q, v, e.stepperState.A)
	copy(e.stepperState.U, u)
	ke := e.model.KineticEnergy(q, v)
	pe := e.model.PotentialEnergy(q)
	e.stepperState.Energy = ke + pe
	return nil
}

func (e *EngineFacade) appendTelemetry() error {
	return e.telemetry.Append(e.stepperState.T, nil, e.snapshotRow())
}

func initialStepGuess(endTime float64) float64 {
	dt := endTime / 1000
	if dt > 1e-3 {
		return 1e-3
	}
	if dt < 1e-6 {
		return 1e-6
	}
	return dt
}

// WriteLog persists the current telemetry either as tabular CSV (binary =
// false, via internal/storage conventions) or via the binary codec in
// internal/telemetrylog, selected by the binary flag.
func (e *EngineFacade) WriteLog(path string, binary bool, writeBinary func(path string, header []string, rows []TelemetryRow) error, writeCSV func(path string, header []string, table [][]float64) error) error {
	if binary {
		return writeBinary(path, e.telemetry.Header(), e.telemetry.Rows())
	}
	return writeCSV(path, e.telemetry.Header(), e.telemetry.Table())
}

// GetLog returns the tabular log surface directly.
func (e *EngineFacade) GetLog() ([]string, [][]float64, error) {
	return e.telemetry.Header(), e.telemetry.Table(), nil
}

// EnsembleResult is one independent run's outcome within RunEnsemble.
type EnsembleResult struct {
	Seed   int64
	Header []string
	Table  [][]float64
	Err    error
}

// RunEnsemble runs n independent, non-interacting EngineFacade instances
// concurrently, each built from modelFactory/controllerFactory with its own
// seed, and each advanced by exactly one goroutine for its whole lifetime —
// satisfying spec.md §5's "no aliasing permitted during a step" since
// nothing is shared across goroutines. Grounded on the teacher's
// internal/dynamo.Ensemble/ParallelFor.
func RunEnsemble(ctx context.Context, opts Options, modelFactory func(seed int64) rbd.Model, controllerFactory func(seed int64) Controller, x0 []float64, endTime float64, n int, seedStart int64) []EnsembleResult {
	results := make([]EnsembleResult, n)
	done := make(chan int, n)

	for i := 0; i < n; i++ {
		go func(i int) {
			seed := seedStart + int64(i)
			localOpts := opts
			localOpts.Stepper.RandomSeed = seed

			select {
			case <-ctx.Done():
				results[i] = EnsembleResult{Seed: seed, Err: ctx.Err()}
				done <- i
				return
			default:
			}

			eng := NewEngineFacade(localOpts)
			model := modelFactory(seed)
			ctrl := controllerFactory(seed)
			if err := eng.Initialize(model, ctrl, nil); err != nil {
				results[i] = EnsembleResult{Seed: seed, Err: err}
				done <- i
				return
			}
			if err := eng.Simulate(x0, endTime); err != nil {
				results[i] = EnsembleResult{Seed: seed, Err: err}
				done <- i
				return
			}
			header, table, _ := eng.GetLog()
			results[i] = EnsembleResult{Seed: seed, Header: header, Table: table}
			done <- i
		}(i)
	}

	for i := 0; i < n; i++ {
		<-done
	}
	return results
}
