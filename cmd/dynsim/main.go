// Command dynsim is the CLI front end for the rigid-body simulation
// engine: run, inspect, tune, and script simulations. Adapted from the
// teacher's cmd/dynsim/main.go cobra command tree, repointed at
// engine.EngineFacade/internal/registry/internal/config instead of
// dynamo.Experiment/internal/experiment.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/dynsim/internal/automation"
	"github.com/san-kum/dynsim/internal/config"
	"github.com/san-kum/dynsim/internal/engine"
	"github.com/san-kum/dynsim/internal/export"
	"github.com/san-kum/dynsim/internal/optim"
	"github.com/san-kum/dynsim/internal/rbd"
	"github.com/san-kum/dynsim/internal/registry"
	"github.com/san-kum/dynsim/internal/storage"
	"github.com/san-kum/dynsim/internal/telemetrylog"
	"github.com/san-kum/dynsim/internal/tui"
)

var (
	dataDir    string
	duration   float64
	controller string
	kp, ki, kd float64
	target     float64
	motorIndex int
	initQ      []float64
	initV      []float64
	configFile string
	preset     string
	frameRate  int
	binaryLog  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dynsim",
		Short: "rigid-body dynamics simulation lab",
		Run: func(cmd *cobra.Command, args []string) {
			if err := tui.RunInteractive(); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".dynsim", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [model]",
		Short: "run a simulation and save its telemetry",
		Args:  cobra.ExactArgs(1),
		RunE:  runSimulation,
	}
	addRunFlags(runCmd)

	liveCmd := &cobra.Command{
		Use:   "live [model]",
		Short: "run a simulation with a live terminal view",
		Args:  cobra.ExactArgs(1),
		RunE:  runLive,
	}
	addRunFlags(liveCmd)
	liveCmd.Flags().IntVar(&frameRate, "fps", 30, "live view frame rate")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "ascii-plot a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id] [out.csv]",
		Short: "export a run's telemetry to CSV",
		Args:  cobra.ExactArgs(2),
		RunE:  exportCSVRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "print a run's metadata as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSONRun,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id] [out.svg]",
		Short: "export a run's telemetry columns to an SVG line plot",
		Args:  cobra.ExactArgs(2),
		RunE:  exportSVGRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list available presets for a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for model: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	tuneCmd := &cobra.Command{
		Use:   "tune [model]",
		Short: "grid-search PID gains against a settling-error metric",
		Args:  cobra.ExactArgs(1),
		RunE:  tuneGains,
	}
	tuneCmd.Flags().Float64Var(&duration, "time", 10.0, "duration")
	tuneCmd.Flags().IntVar(&motorIndex, "motor", 0, "motor index to tune")
	tuneCmd.Flags().Float64Var(&target, "target", 0.0, "target position")
	tuneCmd.Flags().Float64SliceVar(&initQ, "q", []float64{0.3}, "initial configuration")
	tuneCmd.Flags().Float64SliceVar(&initV, "v", []float64{0.0}, "initial velocity")

	scriptCmd := &cobra.Command{
		Use:   "script [file.yaml]",
		Short: "run a scripted multi-step scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScript,
	}

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportCSVCmd, exportJSONCmd, exportSVGCmd, presetsCmd, tuneCmd, scriptCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&duration, "time", 10.0, "duration (s)")
	cmd.Flags().StringVar(&controller, "controller", "none", "controller: none, pid, lqr")
	cmd.Flags().Float64Var(&kp, "kp", 10.0, "pid kp")
	cmd.Flags().Float64Var(&ki, "ki", 0.1, "pid ki")
	cmd.Flags().Float64Var(&kd, "kd", 5.0, "pid kd")
	cmd.Flags().Float64Var(&target, "target", 0.0, "pid target")
	cmd.Flags().IntVar(&motorIndex, "motor", 0, "pid motor index")
	cmd.Flags().Float64SliceVar(&initQ, "q", nil, "initial configuration, comma-separated")
	cmd.Flags().Float64SliceVar(&initV, "v", nil, "initial velocity, comma-separated")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().BoolVar(&binaryLog, "binary", false, "also write the binary telemetry log")
}

// resolveConfig applies preset -> config file -> explicit flags, in that
// priority order, mirroring the teacher's flag-overrides-config precedence
// in runSimulation. A preset sets only its controller, duration and initial
// state on top of DefaultConfig; a config file replaces everything set
// before it, preset included; explicit flags override only the fields the
// caller actually set.
func resolveConfig(cmd *cobra.Command, model string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	cfg.Model = model

	if preset != "" {
		if p := config.GetPreset(model, preset); p != nil {
			cfg.Controller, cfg.Duration, cfg.InitState = p.Controller, p.Duration, p.InitState
		} else {
			return nil, fmt.Errorf("unknown preset %q for model %q (available: %v)", preset, model, config.ListPresets(model))
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		cfg.Model = model
	}

	if cmd.Flags().Changed("time") {
		cfg.Duration = duration
	}
	if cmd.Flags().Changed("controller") {
		cfg.Controller = controller
	}
	if cmd.Flags().Changed("kp") {
		cfg.Gains.Kp = kp
	}
	if cmd.Flags().Changed("ki") {
		cfg.Gains.Ki = ki
	}
	if cmd.Flags().Changed("kd") {
		cfg.Gains.Kd = kd
	}
	if cmd.Flags().Changed("target") {
		cfg.Gains.Target = target
	}
	if cmd.Flags().Changed("motor") {
		cfg.Gains.MotorIndex = motorIndex
	}
	if cmd.Flags().Changed("q") {
		cfg.InitState.Q = initQ
	}
	if cmd.Flags().Changed("v") {
		cfg.InitState.V = initV
	}

	return cfg, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	model := args[0]

	cfg, err := resolveConfig(cmd, model)
	if err != nil {
		return err
	}

	reg := registry.NewRegistry()
	m, ctrl, err := reg.Build(cfg)
	if err != nil {
		return err
	}

	eng := engine.NewEngineFacade(cfg.EngineOptions())
	if err := eng.Initialize(m, ctrl, nil); err != nil {
		return err
	}

	fmt.Printf("running %s simulation...\n", model)
	start := time.Now()

	if err := eng.Simulate(cfg.InitialState(), cfg.Duration); err != nil {
		return err
	}

	elapsed := time.Since(start)

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	header, table, err := eng.GetLog()
	if err != nil {
		return err
	}

	runID, err := st.Save(model, cfg.Controller, cfg.Duration, cfg.Stepper.RandomSeed, header, table, nil)
	if err != nil {
		return err
	}

	if binaryLog {
		binPath := dataDir + "/" + runID + "/telemetry.bin"
		if err := eng.WriteLog(binPath, true, telemetrylog.WriteBinary, storage.WriteCSV); err != nil {
			return err
		}
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("rows: %d\n", len(table))

	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	model := args[0]

	cfg, err := resolveConfig(cmd, model)
	if err != nil {
		return err
	}

	reg := registry.NewRegistry()
	m, ctrl, err := reg.Build(cfg)
	if err != nil {
		return err
	}

	eng := engine.NewEngineFacade(cfg.EngineOptions())
	if err := eng.Initialize(m, ctrl, nil); err != nil {
		return err
	}

	renderer := tui.NewLiveRenderer(model, frameRate)
	renderer.Start()
	defer renderer.Stop()

	nq := len(cfg.InitState.Q)
	for t := 0.0; t < cfg.Duration; {
		if err := eng.Step(0.02); err != nil {
			return err
		}
		_, table, err := eng.GetLog()
		if err != nil || len(table) == 0 {
			continue
		}
		last := table[len(table)-1]
		t = last[0]
		if 1+nq+len(cfg.InitState.V) <= len(last) {
			renderer.OnStep(last[1:1+nq], last[1+nq:1+nq+len(cfg.InitState.V)], t)
		}
		time.Sleep(10 * time.Millisecond)
	}

	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tCTRL\tTIME\tDURATION")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2fs\n",
			run.ID, run.Model, run.Controller,
			run.Timestamp.Format("2006-01-02 15:04:05"), run.Duration)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	states, _, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("model: %s\n", meta.Model)
	fmt.Printf("samples: %d\n\n", len(states))

	numVars := len(states[0])
	maxPlots := 6
	if numVars > maxPlots {
		numVars = maxPlots
	}

	for varIdx := 0; varIdx < numVars; varIdx++ {
		data := make([]float64, len(states))
		for i := range states {
			if varIdx < len(states[i]) {
				data[i] = states[i][varIdx]
			}
		}

		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("column %d", varIdx)),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func exportCSVRun(cmd *cobra.Command, args []string) error {
	runID, outPath := args[0], args[1]

	st := storage.New(dataDir)
	states, times, err := st.LoadStates(runID)
	if err != nil {
		return err
	}

	header := []string{"time"}
	if len(states) > 0 {
		for i := range states[0] {
			header = append(header, fmt.Sprintf("x%d", i))
		}
	}

	table := make([][]float64, len(states))
	for i, s := range states {
		row := append([]float64{times[i]}, s...)
		table[i] = row
	}

	return storage.WriteCSV(outPath, header, table)
}

func exportJSONRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportSVGRun(cmd *cobra.Command, args []string) error {
	runID, outPath := args[0], args[1]

	st := storage.New(dataDir)
	states, times, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return fmt.Errorf("no data to export")
	}

	table := make([][]float64, len(states))
	for i, s := range states {
		table[i] = append([]float64{times[i]}, s...)
	}

	numCols := len(states[0])
	if numCols > 4 {
		numCols = 4
	}
	cols := make([]int, numCols)
	names := make([]string, numCols)
	for i := 0; i < numCols; i++ {
		cols[i] = i
		names[i] = fmt.Sprintf("x%d", i)
	}

	svg := export.TableToSVG(table, cols, names, 800, 400)
	return os.WriteFile(outPath, []byte(svg), 0644)
}

func tuneGains(cmd *cobra.Command, args []string) error {
	model := args[0]

	reg := registry.NewRegistry()
	opts := engine.DefaultOptions()
	x0 := append(append([]float64{}, initQ...), initV...)

	run := optim.TunePID(func() rbd.Model {
		m, _ := reg.GetModel(model)
		return m
	}, motorIndex, target, opts, x0, duration)

	search := optim.NewGridSearch(
		[]string{"kp", "ki", "kd"},
		[][]float64{{5, 10, 20, 40}, {0, 0.1, 0.5}, {1, 5, 10}},
	)

	best, score, err := search.Search(context.Background(), run)
	if err != nil {
		return err
	}
	if best == nil {
		return fmt.Errorf("tune: no candidate gains produced a finite score")
	}

	fmt.Printf("best gains: kp=%.3f ki=%.3f kd=%.3f  (score=%.6f)\n", best["kp"], best["ki"], best["kd"], score)
	return nil
}

func runScript(cmd *cobra.Command, args []string) error {
	path := args[0]

	sc, err := automation.LoadScenario(path)
	if err != nil {
		return err
	}

	reg := registry.NewRegistry()
	results, err := automation.RunScenario(context.Background(), sc, reg)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	for _, r := range results {
		runID, err := st.Save(sc.Name, r.SaveAs, 0, 0, r.Header, r.Table, nil)
		if err != nil {
			return err
		}
		fmt.Printf("step %q saved as run %s (%d rows)\n", r.SaveAs, runID, len(r.Table))
	}

	return nil
}
