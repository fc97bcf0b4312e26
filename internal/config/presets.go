package config

// Presets are ready-made Config values for the rbd models this module
// ships, adapted from the teacher's per-model preset table to the new
// (model, controller, init_state q/v) shape.
var Presets = map[string]map[string]*Config{
	"pendulum": {
		"small": {
			Model: "pendulum", Controller: "none", Duration: 20.0,
			InitState: InitStateConfig{Q: []float64{0.2}, V: []float64{0.0}},
		},
		"large": {
			Model: "pendulum", Controller: "none", Duration: 20.0,
			InitState: InitStateConfig{Q: []float64{2.5}, V: []float64{0.0}},
		},
		"spinning": {
			Model: "pendulum", Controller: "none", Duration: 30.0,
			InitState: InitStateConfig{Q: []float64{0.1}, V: []float64{8.0}},
		},
		"upright_lqr": {
			Model: "pendulum", Controller: "lqr", Duration: 10.0,
			InitState: InitStateConfig{Q: []float64{0.3}, V: []float64{0.0}},
		},
	},
	"double_pendulum": {
		"symmetric": {
			Model: "double_pendulum", Controller: "none", Duration: 30.0,
			InitState: InitStateConfig{Q: []float64{1.5, 1.5}, V: []float64{0.0, 0.0}},
		},
		"chaos": {
			Model: "double_pendulum", Controller: "none", Duration: 60.0,
			InitState: InitStateConfig{Q: []float64{3.0, 3.0}, V: []float64{0.0, 0.0}},
		},
		"gentle": {
			Model: "double_pendulum", Controller: "none", Duration: 30.0,
			InitState: InitStateConfig{Q: []float64{0.3, 0.3}, V: []float64{0.0, 0.0}},
		},
	},
	"cartpole": {
		"balance": {
			Model: "cartpole", Controller: "lqr", Duration: 30.0,
			InitState: InitStateConfig{Q: []float64{0.0, 0.1}, V: []float64{0.0, 0.0}},
		},
		"recover": {
			Model: "cartpole", Controller: "lqr", Duration: 30.0,
			InitState: InitStateConfig{Q: []float64{0.0, 0.5}, V: []float64{0.0, 0.0}},
		},
		"freefall": {
			Model: "cartpole", Controller: "none", Duration: 10.0,
			InitState: InitStateConfig{Q: []float64{0.0, 0.1}, V: []float64{0.0, 0.0}},
		},
	},
	"free_body": {
		"free_fall": {
			Model: "free_body", Controller: "none", Duration: 1.0,
			InitState: InitStateConfig{
				Q: []float64{0, 0, 0, 1, 0, 0, 0},
				V: []float64{0, 0, 0, 0, 0, 0},
			},
		},
		"rest_on_ground": {
			Model: "free_body", Controller: "none", Duration: 2.0,
			InitState: InitStateConfig{
				Q: []float64{0, 0, -1e-4, 1, 0, 0, 0},
				V: []float64{0, 0, 0, 0, 0, 0},
			},
		},
	},
}

func GetPreset(model, preset string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	return names
}
