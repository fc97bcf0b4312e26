package registry

import (
	"fmt"
	"math"

	"github.com/san-kum/dynsim/internal/config"
	"github.com/san-kum/dynsim/internal/controllers"
	"github.com/san-kum/dynsim/internal/engine"
	"github.com/san-kum/dynsim/internal/rbd"
	"github.com/san-kum/dynsim/internal/sensors"
)

// Sensor noise/resolution figures below are plausible off-the-shelf
// magnitudes (a 12-bit optical encoder's tick size, a low-cost MEMS IMU's
// noise floor), not measurements of anything real; sensorSeed reuses the
// teacher's internal/physics/hybrid.go literal RNG seed so sensor noise is
// reproducible run to run.
const (
	sensorSeed           = 1337
	encoderResolution    = 2 * math.Pi / 4096
	encoderVelocityNoise = 1e-3
	imuAccelNoiseStd     = 0.01
	imuGyroNoiseStd      = 0.001
)

// Registry maps model/controller names to constructors, used by cmd/dynsim
// and internal/automation to build a model+controller pair from a
// config.Config without either caller needing to know every concrete type,
// adapted from the teacher's internal/experiment/registry.go.
type Registry struct {
	models      map[string]func() rbd.Model
	controllers map[string]func(cfg *config.Config) engine.Controller
}

func NewRegistry() *Registry {
	r := &Registry{
		models:      make(map[string]func() rbd.Model),
		controllers: make(map[string]func(cfg *config.Config) engine.Controller),
	}

	r.models["pendulum"] = func() rbd.Model {
		m := rbd.NewPlanarChain([]rbd.LinkSpec{
			{Length: 1, Mass: 1, COMFraction: 1, Inertia: 0, Motorized: true, EffortLimit: 50, PosMin: -1e9, PosMax: 1e9},
		})
		_ = m.AddSensor("encoder", sensors.NewEncoder("joint0", 0, encoderResolution, encoderVelocityNoise, sensorSeed))
		return m
	}
	r.models["double_pendulum"] = func() rbd.Model {
		m := rbd.NewPlanarChain([]rbd.LinkSpec{
			{Length: 1, Mass: 1, COMFraction: 0.5, Inertia: 0.1, PosMin: -1e9, PosMax: 1e9},
			{Length: 1, Mass: 1, COMFraction: 0.5, Inertia: 0.1, PosMin: -1e9, PosMax: 1e9},
		})
		_ = m.AddSensor("encoder", sensors.NewEncoder("joint0", 0, encoderResolution, encoderVelocityNoise, sensorSeed))
		_ = m.AddSensor("encoder", sensors.NewEncoder("joint1", 1, encoderResolution, encoderVelocityNoise, sensorSeed+1))
		return m
	}
	r.models["cartpole"] = func() rbd.Model {
		m := rbd.NewPlanarChain([]rbd.LinkSpec{
			{Length: 0.5, Mass: 1, COMFraction: 1, Inertia: 0, Motorized: true, EffortLimit: 100, PosMin: -2, PosMax: 2},
			{Length: 1, Mass: 0.1, COMFraction: 1, Inertia: 0.05, PosMin: -1e9, PosMax: 1e9},
		})
		_ = m.AddSensor("encoder", sensors.NewEncoder("cart", 0, encoderResolution, encoderVelocityNoise, sensorSeed))
		_ = m.AddSensor("imu", sensors.NewIMU("pole", 1, 1, imuAccelNoiseStd, imuGyroNoiseStd, sensorSeed+2))
		return m
	}
	r.models["free_body"] = func() rbd.Model {
		m := rbd.NewFreeBody(1.0, 0.1, 0.1, 0.1)
		_ = m.AddSensor("imu", sensors.NewIMU("body", 0, 6, imuAccelNoiseStd, imuGyroNoiseStd, sensorSeed))
		return m
	}

	r.controllers["none"] = func(cfg *config.Config) engine.Controller {
		return controllers.NewNone()
	}
	r.controllers["pid"] = func(cfg *config.Config) engine.Controller {
		return controllers.NewPID(cfg.Gains.Kp, cfg.Gains.Ki, cfg.Gains.Kd, cfg.Gains.Target, cfg.Gains.MotorIndex)
	}
	r.controllers["lqr"] = func(cfg *config.Config) engine.Controller {
		switch cfg.Model {
		case "cartpole":
			return controllers.NewCartPoleLQR()
		default:
			return controllers.NewPendulumLQR()
		}
	}

	return r
}

func (r *Registry) GetModel(name string) (rbd.Model, error) {
	fn, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("registry: unknown model %q", name)
	}
	return fn(), nil
}

func (r *Registry) GetController(name string, cfg *config.Config) (engine.Controller, error) {
	fn, ok := r.controllers[name]
	if !ok {
		return nil, fmt.Errorf("registry: unknown controller %q", name)
	}
	return fn(cfg), nil
}

func (r *Registry) ListModels() []string {
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	return names
}

func (r *Registry) ListControllers() []string {
	names := make([]string, 0, len(r.controllers))
	for name := range r.controllers {
		names = append(names, name)
	}
	return names
}

// Build constructs the (model, controller) pair described by cfg, ready to
// pass to engine.EngineFacade.Initialize.
func (r *Registry) Build(cfg *config.Config) (rbd.Model, engine.Controller, error) {
	model, err := r.GetModel(cfg.Model)
	if err != nil {
		return nil, nil, err
	}
	ctrl, err := r.GetController(cfg.Controller, cfg)
	if err != nil {
		return nil, nil, err
	}
	return model, ctrl, nil
}
