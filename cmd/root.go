package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/bioos/bioos-sim/sim"
	"github.com/bioos/bioos-sim/sim/trace"
	"github.com/bioos/bioos-sim/sim/workload"
)

var (
	// CLI flags for the kernel
	configPath   string           // Kernel config YAML
	policyName   string           // Scheduling policy
	capacities   map[string]int64 // Resource capacities (kind=units)
	quantum      int64            // Work units consumed per scheduled tick
	maxTicks     int64            // Tick bound for the run
	minPriority  int              // Lowest accepted priority
	maxPriority  int              // Highest accepted priority
	maxProcesses int              // Process table bound
	timeStep     float64          // Simulated seconds per tick
	utilWarn     float64          // Utilization warning level

	// CLI flags for the workload
	workloadPath string // Workload YAML
	seed         int64  // Seed for generated workloads
	generateN    int    // Number of generated processes when no workload file is given
	runs         int    // Number of independent runs (seeds seed..seed+runs-1)

	// CLI flags for output
	logLevel    string // Log verbosity level
	traceLevel  string // Decision trace level
	snapshotOut string // File to write the final snapshot JSON to
	otelTrace   string // File to write OpenTelemetry spans to
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "bioos",
	Short: "Deterministic process-and-resource kernel simulator",
}

// runCmd executes the simulation using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a workload through the kernel until idle or the tick bound",
	Run: func(cmd *cobra.Command, args []string) {
		// Set up logging
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		if !trace.IsValidTraceLevel(traceLevel) {
			logrus.Fatalf("Invalid trace level: %s", traceLevel)
		}

		cfg, err := buildKernelConfig(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		spec, err := buildWorkloadSpec(cmd, cfg)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		startTime := time.Now()
		logrus.Infof("Starting simulation: policy=%q capacities=%v quantum=%d max_ticks=%d",
			cfg.Policy, cfg.Capacities, cfg.Quantum, maxTicks)

		if err := runWithTelemetry(cmd.Context(), os.Stdout, cfg, spec, otelTrace); err != nil {
			logrus.Fatalf("%v", err)
		}

		logrus.Infof("Simulation complete in %v.", time.Since(startTime))
	},
}

// buildKernelConfig loads --config (if any) and applies explicitly set flags on top.
func buildKernelConfig(cmd *cobra.Command) (sim.KernelConfig, error) {
	cfg := sim.NewKernelConfig(map[sim.ResourceKind]int64{"memory": 10000, "cpu": 1}, "")
	if configPath != "" {
		loaded, err := sim.LoadKernelConfig(configPath)
		if err != nil {
			return cfg, err
		}
		cfg = *loaded
	}
	flags := cmd.Flags()
	if flags.Changed("policy") {
		cfg.Policy = policyName
	}
	if flags.Changed("capacity") {
		cfg.Capacities = make(map[sim.ResourceKind]int64, len(capacities))
		for k, v := range capacities {
			cfg.Capacities[sim.ResourceKind(k)] = v
		}
	}
	if flags.Changed("quantum") {
		cfg.Quantum = quantum
	}
	if flags.Changed("min-priority") {
		cfg.MinPriority = minPriority
	}
	if flags.Changed("max-priority") {
		cfg.MaxPriority = maxPriority
	}
	if flags.Changed("max-processes") {
		cfg.MaxProcesses = maxProcesses
	}
	if flags.Changed("time-step") {
		cfg.TimeStep = timeStep
	}
	if flags.Changed("utilization-warn") {
		cfg.UtilizationWarn = utilWarn
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid kernel config: %w", err)
	}
	return cfg, nil
}

// buildWorkloadSpec loads --workload or falls back to a generated workload of
// --generate processes whose priorities fall inside cfg's accepted range.
func buildWorkloadSpec(cmd *cobra.Command, cfg sim.KernelConfig) (*workload.WorkloadSpec, error) {
	var spec *workload.WorkloadSpec
	if workloadPath != "" {
		loaded, err := workload.LoadWorkloadSpec(workloadPath)
		if err != nil {
			return nil, err
		}
		spec = loaded
	} else {
		gen := workload.DefaultGeneratorConfig(generateN, cfg.MinPriority, cfg.MaxPriority)
		spec = &workload.WorkloadSpec{Version: "1", Generate: &gen}
	}
	if cmd.Flags().Changed("seed") || workloadPath == "" {
		spec.Seed = seed
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid workload: %w", err)
	}
	return spec, nil
}

// runWithTelemetry runs a single or batch simulation and flushes the span
// exporter before returning, so spans survive a failed run.
func runWithTelemetry(ctx context.Context, w io.Writer, cfg sim.KernelConfig, spec *workload.WorkloadSpec, otelPath string) error {
	shutdownTelemetry, err := initTelemetry(otelPath)
	if err != nil {
		return fmt.Errorf("unable to initialise tracing: %w", err)
	}
	defer shutdownTelemetry()

	if runs > 1 {
		return runBatch(ctx, w, cfg, spec, runs)
	}
	return runSingle(ctx, w, cfg, spec)
}

// runSingle replays spec into one kernel and prints the report to w.
func runSingle(ctx context.Context, w io.Writer, cfg sim.KernelConfig, spec *workload.WorkloadSpec) error {
	_, span := startSpan(ctx, "bioos.run", cfg, spec.Seed)
	defer span.End()

	entries, err := spec.Entries()
	if err != nil {
		return err
	}
	k, err := sim.NewKernel(cfg)
	if err != nil {
		return err
	}
	st := trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevel(traceLevel)})
	k.AttachTrace(st)

	res, err := workload.Replay(k, entries, maxTicks)
	timedOut := errors.Is(err, sim.ErrTimeout)
	if err != nil && !timedOut {
		return err
	}
	recordOutcome(span, res.Snapshot, timedOut)

	if logrus.IsLevelEnabled(logrus.TraceLevel) {
		logrus.Trace(spew.Sdump(res.Snapshot))
	}

	report := NewReport(uuid.NewString(), res.Snapshot, timedOut, len(res.Rejected), k.Elapsed())
	if st.Config.Level.Enabled() {
		report.Trace = trace.Summarize(st)
	}
	if err := report.Print(w); err != nil {
		return err
	}
	return writeSnapshot(snapshotOut, res.Snapshot)
}

// runBatch replays spec under n consecutive seeds, each on its own kernel, concurrently.
func runBatch(ctx context.Context, w io.Writer, cfg sim.KernelConfig, spec *workload.WorkloadSpec, n int) error {
	ctx, span := startSpan(ctx, "bioos.batch", cfg, spec.Seed)
	defer span.End()

	batch := make([]sim.BatchRun, 0, n)
	for i := 0; i < n; i++ {
		runSpec := *spec
		runSpec.Seed = spec.Seed + int64(i)
		entries, err := runSpec.Entries()
		if err != nil {
			return err
		}
		batch = append(batch, sim.BatchRun{
			Name:     fmt.Sprintf("seed-%d", runSpec.Seed),
			Config:   cfg,
			MaxTicks: maxTicks,
			Drive:    replayEntries(entries),
		})
	}
	for _, res := range sim.RunBatch(ctx, batch) {
		if res.Err != nil {
			return fmt.Errorf("run %s: %w", res.Name, res.Err)
		}
		report := NewReport(res.RunID, res.Snapshot, res.TimedOut, res.Rejected, float64(res.Snapshot.Tick)*cfg.TimeStep)
		report.Name = res.Name
		if err := report.Print(w); err != nil {
			return err
		}
	}
	return nil
}

// replayEntries drives a batch kernel through the same timed replay as a single run.
func replayEntries(entries []workload.Entry) func(k *sim.Kernel, maxTicks int64) (sim.Snapshot, int, error) {
	return func(k *sim.Kernel, maxTicks int64) (sim.Snapshot, int, error) {
		res, err := workload.Replay(k, entries, maxTicks)
		return res.Snapshot, len(res.Rejected), err
	}
}

func writeSnapshot(path string, snap sim.Snapshot) error {
	if path == "" {
		return nil
	}
	data, err := snap.JSON()
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	logrus.Infof("snapshot written to %s", path)
	return nil
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// registerRunFlags binds the run flags of c to the package-level flag variables.
func registerRunFlags(c *cobra.Command) {
	c.Flags().StringVar(&configPath, "config", "", "Kernel config YAML (flags override its values)")
	c.Flags().StringVar(&policyName, "policy", "priority", "Scheduling policy (priority, fcfs, round-robin, shortest-remaining)")
	c.Flags().StringToInt64Var(&capacities, "capacity", map[string]int64{"memory": 10000, "cpu": 1}, "Resource capacities as kind=units")
	c.Flags().Int64Var(&quantum, "quantum", sim.DefaultQuantum, "Work units consumed per scheduled tick")
	c.Flags().Int64Var(&maxTicks, "max-ticks", sim.DefaultMaxTicks, "Tick bound for the run")
	c.Flags().IntVar(&minPriority, "min-priority", sim.DefaultMinPriority, "Lowest accepted priority")
	c.Flags().IntVar(&maxPriority, "max-priority", sim.DefaultMaxPriority, "Highest accepted priority")
	c.Flags().IntVar(&maxProcesses, "max-processes", sim.DefaultMaxProcesses, "Process table bound (0 = unbounded)")
	c.Flags().Float64Var(&timeStep, "time-step", sim.DefaultTimeStep, "Simulated seconds per tick")
	c.Flags().Float64Var(&utilWarn, "utilization-warn", sim.DefaultUtilizationWarn, "Warn when a resource kind's utilization reaches this fraction (0 = off)")

	c.Flags().StringVar(&workloadPath, "workload", "", "Workload YAML (default: generated workload)")
	c.Flags().Int64Var(&seed, "seed", 42, "Seed for generated workloads")
	c.Flags().IntVar(&generateN, "generate", 20, "Number of generated processes when --workload is not given")
	c.Flags().IntVar(&runs, "runs", 1, "Independent runs with seeds seed..seed+runs-1, executed concurrently")

	c.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	c.Flags().StringVar(&traceLevel, "trace", "none", "Decision trace level (none, decisions, transitions)")
	c.Flags().StringVar(&snapshotOut, "snapshot-out", "", "Write the final snapshot JSON to this file")
	c.Flags().StringVar(&otelTrace, "otel-trace", "", "Write OpenTelemetry spans for the run to this file")
}

// init sets up CLI flags and subcommands
func init() {
	registerRunFlags(runCmd)

	// Attach subcommands to `root`
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(generateCmd)
}
