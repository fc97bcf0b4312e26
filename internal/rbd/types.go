package rbd

// Wrench is a 6-vector spatial force: linear force followed by moment.
type Wrench [6]float64

func (w Wrench) Add(other Wrench) Wrench {
	var out Wrench
	for i := range w {
		out[i] = w[i] + other[i]
	}
	return out
}

func (w Wrench) Scale(s float64) Wrench {
	var out Wrench
	for i := range w {
		out[i] = w[i] * s
	}
	return out
}

// Placement is a frame's pose expressed in the world frame.
type Placement struct {
	Position [3]float64
	Rotation [3][3]float64 // rows are the world-frame images of the frame's axes
}

// Sensor is the capability contract a sensor object must satisfy to be
// registered on a [Model]. Signal-processing internals (filtering, noise,
// bias) are the concrete sensor's own business; only update/read matters
// here.
type Sensor interface {
	Type() string
	Name() string
	Update(t float64, q, v, a, u []float64)
	Reading() []float64
	FieldNames() []string
}

// SensorGroupReading is a read-only snapshot of every sensor of one type,
// indexed by sensor name, shared with controllers between sensor-refresh
// points.
type SensorGroupReading struct {
	FieldNames []string
	ByName     map[string][]float64
}

// Model is the rigid-body collaborator the engine core treats as an
// external dependency (see SPEC_FULL.md §6). Position/velocity indices are
// expressed in the respective configuration/velocity vector spaces.
type Model interface {
	NQ() int
	NV() int
	NX() int

	MotorVelocityIndices() []int
	MotorPositionIndices() []int
	ContactFrameIndices() []int
	EffortLimit(velocityIdx int) float64
	PositionBounds(configIdx int) (min, max float64)

	ForwardKinematics(q, v []float64)
	FramesForwardKinematics()
	RNEA(q, v, a []float64) []float64
	ABA(q, v, tau []float64, fExt []Wrench) []float64
	Integrate(q []float64, vTimesDt []float64) []float64
	KineticEnergy(q, v []float64) float64
	PotentialEnergy(q []float64) float64

	FramePlacement(frameIdx int) Placement
	FrameLinearVelocityWorld(frameIdx int) [3]float64
	FrameOffsetInParentJoint(frameIdx int) [3]float64
	FrameRotationParentJoint(frameIdx int) [3][3]float64
	ParentJoint(frameIdx int) int
	NumJoints() int
	NumFrames() int

	SetGravity(spatial [6]float64)
	Reset()
	IsInitialized() bool

	AddSensor(sensorType string, s Sensor) error
	RemoveSensor(sensorType, name string) error
	SetSensorsData(t float64, q, v, a, u []float64)
	SensorsData() map[string]SensorGroupReading
}

// sensorRegistry is embedded by concrete models to implement the sensor
// bookkeeping half of the Model interface.
type sensorRegistry struct {
	byType map[string][]Sensor
}

func newSensorRegistry() sensorRegistry {
	return sensorRegistry{byType: make(map[string][]Sensor)}
}

func (r *sensorRegistry) AddSensor(sensorType string, s Sensor) error {
	for _, existing := range r.byType[sensorType] {
		if existing.Name() == s.Name() {
			return errDuplicateSensor(sensorType, s.Name())
		}
	}
	r.byType[sensorType] = append(r.byType[sensorType], s)
	return nil
}

func (r *sensorRegistry) RemoveSensor(sensorType, name string) error {
	list := r.byType[sensorType]
	for i, s := range list {
		if s.Name() == name {
			r.byType[sensorType] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return errUnknownSensor(sensorType, name)
}

func (r *sensorRegistry) SetSensorsData(t float64, q, v, a, u []float64) {
	for _, list := range r.byType {
		for _, s := range list {
			s.Update(t, q, v, a, u)
		}
	}
}

func (r *sensorRegistry) SensorsData() map[string]SensorGroupReading {
	out := make(map[string]SensorGroupReading, len(r.byType))
	for sensorType, list := range r.byType {
		if len(list) == 0 {
			continue
		}
		group := SensorGroupReading{
			FieldNames: list[0].FieldNames(),
			ByName:     make(map[string][]float64, len(list)),
		}
		for _, s := range list {
			group.ByName[s.Name()] = s.Reading()
		}
		out[sensorType] = group
	}
	return out
}
