package config

import "testing"

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Model != "pendulum" {
		t.Errorf("expected model pendulum, got %s", cfg.Model)
	}
	if cfg.Duration <= 0 {
		t.Error("duration should be positive")
	}
	if cfg.Stepper.TolAbs <= 0 {
		t.Error("tolAbs should be positive")
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("pendulum", "small")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.InitState.Q[0] != 0.2 {
		t.Errorf("expected q[0] 0.2, got %f", cfg.InitState.Q[0])
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	cfg := GetPreset("pendulum", "nonexistent")
	if cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}

	cfg = GetPreset("nonexistent", "small")
	if cfg != nil {
		t.Error("expected nil for nonexistent model")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets("pendulum")
	if len(presets) == 0 {
		t.Error("expected presets for pendulum")
	}

	presets = ListPresets("nonexistent")
	if presets != nil {
		t.Error("expected nil for nonexistent model")
	}
}

func TestInitialState(t *testing.T) {
	tests := []struct {
		model    string
		q, v     []float64
		expected int
	}{
		{"pendulum", []float64{0.1}, []float64{0}, 2},
		{"cartpole", []float64{0, 0.1}, []float64{0, 0}, 4},
		{"double_pendulum", []float64{0.1, 0.2}, []float64{0, 0}, 4},
	}

	for _, tt := range tests {
		cfg := DefaultConfig()
		cfg.Model = tt.model
		cfg.InitState = InitStateConfig{Q: tt.q, V: tt.v}
		state := cfg.InitialState()
		if len(state) != tt.expected {
			t.Errorf("model %s: expected %d states, got %d", tt.model, tt.expected, len(state))
		}
	}
}

func TestEngineOptions(t *testing.T) {
	cfg := DefaultConfig()
	opts := cfg.EngineOptions()
	if opts.Stepper.TolAbs != cfg.Stepper.TolAbs {
		t.Errorf("tolAbs mismatch: %f vs %f", opts.Stepper.TolAbs, cfg.Stepper.TolAbs)
	}
	if opts.World.Gravity != cfg.World.Gravity {
		t.Error("gravity should round-trip into engine.Options")
	}
}
