package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/dynsim/internal/engine"
)

// Config is the YAML-backed root configuration: which model/controller to
// build, the run duration, the initial state, and the full set of engine
// Options (stepper tolerances, contact/joint penalty params, gravity,
// telemetry flags).
type Config struct {
	Model      string  `yaml:"model"`
	Controller string  `yaml:"controller"`
	Duration   float64 `yaml:"duration"`

	InitState InitStateConfig  `yaml:"init_state"`
	Gains     ControllerConfig `yaml:"controller_params"`

	Stepper   StepperConfig   `yaml:"stepper"`
	Contacts  ContactConfig   `yaml:"contacts"`
	Joints    JointConfig     `yaml:"joints"`
	World     WorldConfig     `yaml:"world"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type InitStateConfig struct {
	Q []float64 `yaml:"q"`
	V []float64 `yaml:"v"`
}

type ControllerConfig struct {
	Kp         float64 `yaml:"kp"`
	Ki         float64 `yaml:"ki"`
	Kd         float64 `yaml:"kd"`
	Target     float64 `yaml:"target"`
	MotorIndex int     `yaml:"motor_index"`
}

type StepperConfig struct {
	TolAbs                 float64 `yaml:"tol_abs"`
	TolRel                 float64 `yaml:"tol_rel"`
	SensorsUpdatePeriod     float64 `yaml:"sensors_update_period"`
	ControllerUpdatePeriod  float64 `yaml:"controller_update_period"`
	RandomSeed              int64   `yaml:"random_seed"`
	MaxIterations           int     `yaml:"max_iterations"`
}

type ContactConfig struct {
	Stiffness         float64 `yaml:"stiffness"`
	Damping           float64 `yaml:"damping"`
	FrictionDry       float64 `yaml:"friction_dry"`
	FrictionViscous   float64 `yaml:"friction_viscous"`
	DryFrictionVelEps float64 `yaml:"dry_friction_vel_eps"`
	TransitionEps     float64 `yaml:"transition_eps"`
}

type JointConfig struct {
	BoundStiffness     float64 `yaml:"bound_stiffness"`
	BoundDamping       float64 `yaml:"bound_damping"`
	BoundTransitionEps float64 `yaml:"bound_transition_eps"`
}

type WorldConfig struct {
	Gravity [6]float64 `yaml:"gravity"`
}

type TelemetryConfig struct {
	LogConfiguration bool `yaml:"log_configuration"`
	LogVelocity      bool `yaml:"log_velocity"`
	LogAcceleration  bool `yaml:"log_acceleration"`
	LogCommand       bool `yaml:"log_command"`
}

// DefaultConfig mirrors engine.DefaultOptions, with model/controller
// defaults matching the teacher's own pendulum/none defaults.
func DefaultConfig() *Config {
	d := engine.DefaultOptions()
	return &Config{
		Model:      "pendulum",
		Controller: "none",
		Duration:   10.0,
		InitState:  InitStateConfig{Q: []float64{0.5}, V: []float64{0}},
		Gains:      ControllerConfig{Kp: 10.0, Ki: 0.1, Kd: 5.0},
		Stepper: StepperConfig{
			TolAbs:                 d.Stepper.TolAbs,
			TolRel:                 d.Stepper.TolRel,
			SensorsUpdatePeriod:     d.Stepper.SensorsUpdatePeriod,
			ControllerUpdatePeriod:  d.Stepper.ControllerUpdatePeriod,
			RandomSeed:              d.Stepper.RandomSeed,
			MaxIterations:           d.Stepper.MaxIterations,
		},
		Contacts: ContactConfig{
			Stiffness:         d.Contacts.Stiffness,
			Damping:           d.Contacts.Damping,
			FrictionDry:       d.Contacts.FrictionDry,
			FrictionViscous:   d.Contacts.FrictionViscous,
			DryFrictionVelEps: d.Contacts.DryFrictionVelEps,
			TransitionEps:     d.Contacts.TransitionEps,
		},
		Joints: JointConfig{
			BoundStiffness:     d.Joints.BoundStiffness,
			BoundDamping:       d.Joints.BoundDamping,
			BoundTransitionEps: d.Joints.BoundTransitionEps,
		},
		World:     WorldConfig{Gravity: d.World.Gravity},
		Telemetry: TelemetryConfig{LogConfiguration: true, LogVelocity: true, LogAcceleration: true, LogCommand: true},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// EngineOptions converts the YAML-facing Config into engine.Options.
func (c *Config) EngineOptions() engine.Options {
	return engine.Options{
		Stepper: engine.StepperOptions{
			TolAbs:                 c.Stepper.TolAbs,
			TolRel:                 c.Stepper.TolRel,
			SensorsUpdatePeriod:     c.Stepper.SensorsUpdatePeriod,
			ControllerUpdatePeriod:  c.Stepper.ControllerUpdatePeriod,
			RandomSeed:              c.Stepper.RandomSeed,
			MaxIterations:           c.Stepper.MaxIterations,
			MaxConsecutiveFailures:  100,
		},
		Contacts: engine.ContactOptions{
			Stiffness:         c.Contacts.Stiffness,
			Damping:           c.Contacts.Damping,
			FrictionDry:       c.Contacts.FrictionDry,
			FrictionViscous:   c.Contacts.FrictionViscous,
			DryFrictionVelEps: c.Contacts.DryFrictionVelEps,
			TransitionEps:     c.Contacts.TransitionEps,
		},
		Joints: engine.JointOptions{
			BoundStiffness:     c.Joints.BoundStiffness,
			BoundDamping:       c.Joints.BoundDamping,
			BoundTransitionEps: c.Joints.BoundTransitionEps,
		},
		World: engine.WorldOptions{Gravity: c.World.Gravity},
		Telemetry: engine.TelemetryOptions{
			LogConfiguration: c.Telemetry.LogConfiguration,
			LogVelocity:      c.Telemetry.LogVelocity,
			LogAcceleration:  c.Telemetry.LogAcceleration,
			LogCommand:       c.Telemetry.LogCommand,
			Capacity:         c.Stepper.MaxIterations + 1,
		},
	}
}

// InitialState concatenates q and v into the nx-length x_init vector
// EngineFacade.Simulate expects.
func (c *Config) InitialState() []float64 {
	x := make([]float64, 0, len(c.InitState.Q)+len(c.InitState.V))
	x = append(x, c.InitState.Q...)
	x = append(x, c.InitState.V...)
	return x
}
