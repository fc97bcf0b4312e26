package automation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/dynsim/internal/registry"
)

func TestLoadScenario(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	content := `
name: drop-and-settle
description: free body falls and settles
steps:
  - model: free_body
    controller: none
    duration: 0.2
    init_q: [0, 0, 0, 1, 0, 0, 0]
    init_v: [0, 0, 0, 0, 0, 0]
    save_as: fall
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	scenario, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}
	if scenario.Name != "drop-and-settle" {
		t.Errorf("unexpected name: %s", scenario.Name)
	}
	if len(scenario.Steps) != 1 || scenario.Steps[0].SaveAs != "fall" {
		t.Errorf("unexpected steps: %+v", scenario.Steps)
	}
}

func TestRunScenario(t *testing.T) {
	scenario := &Scenario{
		Name: "pendulum-swing",
		Steps: []ScenarioStep{
			{Model: "pendulum", Controller: "none", Duration: 0.2, InitStateQ: []float64{0.3}, InitStateV: []float64{0}, SaveAs: "swing"},
		},
	}

	reg := registry.NewRegistry()
	results, err := RunScenario(context.Background(), scenario, reg)
	if err != nil {
		t.Fatalf("RunScenario: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].SaveAs != "swing" {
		t.Errorf("unexpected SaveAs: %s", results[0].SaveAs)
	}
	if len(results[0].Table) == 0 {
		t.Error("expected non-empty telemetry table")
	}
}

func TestRunMonteCarloStats(t *testing.T) {
	mc := &MonteCarloConfig{
		Model: "pendulum", Controller: "none",
		BaseQ: []float64{0.2}, BaseV: []float64{0},
		Perturbation: 0.05, NumTrials: 3, Duration: 0.2, Seed: 42,
	}

	reg := registry.NewRegistry()
	results, err := RunMonteCarlo(context.Background(), mc, reg)
	if err != nil {
		t.Fatalf("RunMonteCarlo: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 trials, got %d", len(results))
	}

	stable, unstable := MonteCarloStats(results)
	if stable+unstable != 3 {
		t.Errorf("expected stats to cover all trials, got %d+%d", stable, unstable)
	}
}
