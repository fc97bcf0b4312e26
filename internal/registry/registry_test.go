package registry

import (
	"testing"

	"github.com/san-kum/dynsim/internal/config"
)

func TestGetModel(t *testing.T) {
	reg := NewRegistry()

	for _, name := range []string{"pendulum", "double_pendulum", "cartpole", "free_body"} {
		m, err := reg.GetModel(name)
		if err != nil {
			t.Errorf("GetModel(%q): %v", name, err)
			continue
		}
		if m == nil {
			t.Errorf("GetModel(%q) returned nil model", name)
		}
	}
}

func TestGetModelUnknown(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.GetModel("does-not-exist"); err == nil {
		t.Error("expected error for unknown model")
	}
}

func TestGetController(t *testing.T) {
	reg := NewRegistry()
	cfg := config.DefaultConfig()

	for _, name := range []string{"none", "pid", "lqr"} {
		ctrl, err := reg.GetController(name, cfg)
		if err != nil {
			t.Errorf("GetController(%q): %v", name, err)
			continue
		}
		if ctrl == nil {
			t.Errorf("GetController(%q) returned nil", name)
		}
	}
}

func TestBuild(t *testing.T) {
	reg := NewRegistry()
	cfg := config.DefaultConfig()
	cfg.Model = "cartpole"
	cfg.Controller = "lqr"

	m, ctrl, err := reg.Build(cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if m == nil || ctrl == nil {
		t.Fatal("expected non-nil model and controller")
	}
	if m.NumJoints() != 2 {
		t.Errorf("expected cartpole to have 2 joints, got %d", m.NumJoints())
	}
}

func TestBuildRegistersSensors(t *testing.T) {
	reg := NewRegistry()

	for _, name := range []string{"pendulum", "double_pendulum", "cartpole", "free_body"} {
		m, err := reg.GetModel(name)
		if err != nil {
			t.Fatalf("GetModel(%q): %v", name, err)
		}
		if len(m.SensorsData()) == 0 {
			t.Errorf("GetModel(%q) returned a model with no registered sensors", name)
		}
	}
}

func TestListModelsAndControllers(t *testing.T) {
	reg := NewRegistry()
	if len(reg.ListModels()) != 4 {
		t.Errorf("expected 4 models, got %d", len(reg.ListModels()))
	}
	if len(reg.ListControllers()) != 3 {
		t.Errorf("expected 3 controllers, got %d", len(reg.ListControllers()))
	}
}
