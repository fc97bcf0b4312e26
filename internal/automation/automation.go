// Package automation scripts multi-segment engine runs from YAML files and
// drives parameter sweeps / Monte Carlo ensembles, adapted from the
// teacher's internal/automation/automation.go (which scripted dynamo
// experiments) to drive engine.EngineFacade runs built through
// internal/registry and internal/config instead.
package automation

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/dynsim/internal/config"
	"github.com/san-kum/dynsim/internal/engine"
	"github.com/san-kum/dynsim/internal/registry"
)

// Scenario is a scripted sequence of engine runs, each step free to name a
// different model/controller or override the base config's gains and
// initial state.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

type ScenarioStep struct {
	Model      string             `yaml:"model"`
	Controller string             `yaml:"controller"`
	Duration   float64            `yaml:"duration"`
	InitStateQ []float64          `yaml:"init_q"`
	InitStateV []float64          `yaml:"init_v"`
	Params     map[string]float64 `yaml:"params"`
	SaveAs     string             `yaml:"save_as"`
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}

	return &scenario, nil
}

// StepResult is one scenario step's outcome: the telemetry table plus the
// label the step asked to save it under.
type StepResult struct {
	SaveAs string
	Header []string
	Table  [][]float64
}

// RunScenario executes every step of a scenario in order against a fresh
// EngineFacade each time, so an earlier step's instability can't leak into
// the next step's initial conditions.
func RunScenario(ctx context.Context, scenario *Scenario, reg *registry.Registry) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		select {
		case <-ctx.Done():
			return results, ctx.Err()
		default:
		}

		fmt.Printf("Running step %d/%d: %s\n", i+1, len(scenario.Steps), step.Model)

		cfg := config.DefaultConfig()
		cfg.Model = step.Model
		cfg.Controller = step.Controller
		cfg.Duration = step.Duration
		if len(step.InitStateQ) > 0 {
			cfg.InitState.Q = step.InitStateQ
		}
		if len(step.InitStateV) > 0 {
			cfg.InitState.V = step.InitStateV
		}
		if kp, ok := step.Params["kp"]; ok {
			cfg.Gains.Kp = kp
		}
		if ki, ok := step.Params["ki"]; ok {
			cfg.Gains.Ki = ki
		}
		if kd, ok := step.Params["kd"]; ok {
			cfg.Gains.Kd = kd
		}

		model, ctrl, err := reg.Build(cfg)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		eng := engine.NewEngineFacade(cfg.EngineOptions())
		if err := eng.Initialize(model, ctrl, nil); err != nil {
			return results, fmt.Errorf("step %d init: %w", i+1, err)
		}
		if err := eng.Simulate(cfg.InitialState(), cfg.Duration); err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		header, table, _ := eng.GetLog()
		results = append(results, StepResult{SaveAs: step.SaveAs, Header: header, Table: table})
	}

	return results, nil
}

// ParameterSweep drives the same model/controller across a range of one
// controller gain, useful for seeing where a PID loop goes unstable.
type ParameterSweep struct {
	Model      string
	Controller string
	ParamName  string // "kp", "ki", or "kd"
	ParamMin   float64
	ParamMax   float64
	NumSteps   int
	Duration   float64
	InitQ      []float64
	InitV      []float64
}

type SweepResult struct {
	ParamValue float64
	FinalState []float64
	MaxEnergy  float64
	MinEnergy  float64
}

func RunSweep(ctx context.Context, sweep *ParameterSweep, reg *registry.Registry) ([]SweepResult, error) {
	if sweep.NumSteps < 2 {
		return nil, fmt.Errorf("automation: sweep needs at least 2 steps, got %d", sweep.NumSteps)
	}
	results := make([]SweepResult, 0, sweep.NumSteps)
	paramStep := (sweep.ParamMax - sweep.ParamMin) / float64(sweep.NumSteps-1)

	for i := 0; i < sweep.NumSteps; i++ {
		select {
		case <-ctx.Done():
			return results, ctx.Err()
		default:
		}

		paramVal := sweep.ParamMin + float64(i)*paramStep

		cfg := config.DefaultConfig()
		cfg.Model = sweep.Model
		cfg.Controller = sweep.Controller
		cfg.Duration = sweep.Duration
		cfg.InitState = config.InitStateConfig{Q: sweep.InitQ, V: sweep.InitV}
		switch sweep.ParamName {
		case "kp":
			cfg.Gains.Kp = paramVal
		case "ki":
			cfg.Gains.Ki = paramVal
		case "kd":
			cfg.Gains.Kd = paramVal
		}

		model, ctrl, err := reg.Build(cfg)
		if err != nil {
			return nil, err
		}

		eng := engine.NewEngineFacade(cfg.EngineOptions())
		if err := eng.Initialize(model, ctrl, nil); err != nil {
			return nil, err
		}
		if err := eng.Simulate(cfg.InitialState(), cfg.Duration); err != nil {
			return nil, err
		}

		header, table, _ := eng.GetLog()
		var finalState []float64
		minE, maxE := 0.0, 0.0
		if len(table) > 0 {
			finalState = table[len(table)-1]
			// MinEnergy/MaxEnergy bound the "energy" column over every row.
			for col, name := range header {
				if name != "energy" {
					continue
				}
				minE, maxE = table[0][col], table[0][col]
				for _, row := range table {
					if row[col] > maxE {
						maxE = row[col]
					}
					if row[col] < minE {
						minE = row[col]
					}
				}
			}
		}

		results = append(results, SweepResult{ParamValue: paramVal, FinalState: finalState, MaxEnergy: maxE, MinEnergy: minE})
		fmt.Printf("Sweep %d/%d: %s=%.4f\n", i+1, sweep.NumSteps, sweep.ParamName, paramVal)
	}

	return results, nil
}

// MonteCarloConfig perturbs the initial state across NumTrials independent
// runs to probe robustness of a model/controller pair.
type MonteCarloConfig struct {
	Model        string
	Controller   string
	BaseQ, BaseV []float64
	Perturbation float64
	NumTrials    int
	Duration     float64
	Seed         int64
}

type MonteCarloResult struct {
	TrialID    int
	InitState  []float64
	FinalState []float64
	Stable     bool
}

func RunMonteCarlo(ctx context.Context, mc *MonteCarloConfig, reg *registry.Registry) ([]MonteCarloResult, error) {
	results := make([]MonteCarloResult, 0, mc.NumTrials)

	seed := mc.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	cfg := config.DefaultConfig()
	cfg.Model = mc.Model
	cfg.Controller = mc.Controller
	cfg.Duration = mc.Duration

	for trial := 0; trial < mc.NumTrials; trial++ {
		select {
		case <-ctx.Done():
			return results, ctx.Err()
		default:
		}

		q := make([]float64, len(mc.BaseQ))
		for i, v := range mc.BaseQ {
			q[i] = v + (rng.Float64()-0.5)*2*mc.Perturbation
		}
		v := append([]float64(nil), mc.BaseV...)
		cfg.InitState = config.InitStateConfig{Q: q, V: v}

		model, ctrl, err := reg.Build(cfg)
		if err != nil {
			return nil, err
		}

		eng := engine.NewEngineFacade(cfg.EngineOptions())
		if err := eng.Initialize(model, ctrl, nil); err != nil {
			return nil, err
		}
		initState := cfg.InitialState()
		if err := eng.Simulate(initState, cfg.Duration); err != nil {
			return nil, err
		}

		_, table, _ := eng.GetLog()
		stable := true
		var final []float64
		if len(table) > 0 {
			final = table[len(table)-1]
			for _, val := range final {
				if val > 1e6 || val < -1e6 {
					stable = false
					break
				}
			}
		}

		results = append(results, MonteCarloResult{TrialID: trial, InitState: initState, FinalState: final, Stable: stable})

		if (trial+1)%10 == 0 {
			fmt.Printf("Monte Carlo: %d/%d trials complete\n", trial+1, mc.NumTrials)
		}
	}

	return results, nil
}

func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}
