package engine

// Options holds every recognized configuration key for an EngineFacade, with
// the same defaults as the original source. It is populated by
// internal/config from YAML and passed to NewEngineFacade.
type Options struct {
	Stepper   StepperOptions
	Contacts  ContactOptions
	Joints    JointOptions
	World     WorldOptions
	Telemetry TelemetryOptions
}

type StepperOptions struct {
	TolAbs                  float64
	TolRel                  float64
	SensorsUpdatePeriod      float64 // seconds, 0 = continuous
	ControllerUpdatePeriod   float64 // seconds, 0 = continuous
	RandomSeed               int64
	MaxIterations            int
	MaxConsecutiveFailures   int
}

type ContactOptions struct {
	Stiffness         float64
	Damping           float64
	FrictionDry       float64
	FrictionViscous   float64
	DryFrictionVelEps float64
	TransitionEps     float64
}

type JointOptions struct {
	BoundStiffness    float64
	BoundDamping      float64
	BoundTransitionEps float64
}

type WorldOptions struct {
	Gravity [6]float64
}

type TelemetryOptions struct {
	LogConfiguration bool
	LogVelocity      bool
	LogAcceleration  bool
	LogCommand       bool
	Capacity         int
}

// DefaultOptions mirrors the defaults enumerated in SPEC_FULL.md §6.
func DefaultOptions() Options {
	return Options{
		Stepper: StepperOptions{
			TolAbs:                 1e-5,
			TolRel:                 1e-4,
			SensorsUpdatePeriod:     0,
			ControllerUpdatePeriod:  0,
			RandomSeed:              0,
			MaxIterations:           100000,
			MaxConsecutiveFailures:  100,
		},
		Contacts: ContactOptions{
			Stiffness:         1e5,
			Damping:           1e3,
			FrictionDry:       0.8,
			FrictionViscous:   0.5,
			DryFrictionVelEps: 1e-2,
			TransitionEps:     1e-3,
		},
		Joints: JointOptions{
			BoundStiffness:     1e3,
			BoundDamping:       50,
			BoundTransitionEps: 1e-3,
		},
		World: WorldOptions{
			Gravity: [6]float64{0, 0, -9.81, 0, 0, 0},
		},
		Telemetry: TelemetryOptions{
			LogConfiguration: true,
			LogVelocity:      true,
			LogAcceleration:  true,
			LogCommand:       true,
			Capacity:         100001,
		},
	}
}
