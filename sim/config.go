package sim

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults applied by NewKernelConfig and by LoadKernelConfig for unset fields.
const (
	DefaultQuantum      = 1
	DefaultMinPriority  = 1
	DefaultMaxPriority  = 10
	DefaultMaxProcesses = 1000
	DefaultTimeStep     = 0.1
	DefaultMaxTicks     = 10000
	// DefaultUtilizationWarn is the share of a resource's capacity at which
	// the kernel reports pressure on it.
	DefaultUtilizationWarn = 0.8
)

// KernelConfig is fixed for the lifetime of a Kernel. Capacities in
// particular can never change after NewKernel.
type KernelConfig struct {
	Capacities   map[ResourceKind]int64 `yaml:"capacities"`    // total units per resource kind
	Policy       string                 `yaml:"policy"`        // "priority" (default), "fcfs", "round-robin", "shortest-remaining"
	Quantum      int64                  `yaml:"quantum"`       // work units consumed per scheduled tick
	MinPriority  int                    `yaml:"min_priority"`  // lowest accepted priority (inclusive)
	MaxPriority  int                    `yaml:"max_priority"`  // highest accepted priority (inclusive)
	MaxProcesses int                    `yaml:"max_processes"` // process table bound, 0 = unbounded
	TimeStep     float64                `yaml:"time_step"`     // simulated seconds per tick (reporting only)
	// UtilizationWarn is the utilization in [0, 1] at which an EventPressure
	// is emitted for a resource kind. 0 disables the check.
	UtilizationWarn float64 `yaml:"utilization_warn"`
}

// NewKernelConfig builds a config with defaults for everything but capacities and policy.
func NewKernelConfig(capacities map[ResourceKind]int64, policy string) KernelConfig {
	return KernelConfig{
		Capacities:   capacities,
		Policy:       policy,
		Quantum:      DefaultQuantum,
		MinPriority:  DefaultMinPriority,
		MaxPriority:  DefaultMaxPriority,
		MaxProcesses: DefaultMaxProcesses,
		TimeStep:     DefaultTimeStep,

		UtilizationWarn: DefaultUtilizationWarn,
	}
}

// kernelConfigFile mirrors KernelConfig with pointer fields so that an
// explicit zero in YAML is distinct from "not set".
type kernelConfigFile struct {
	Capacities   map[ResourceKind]int64 `yaml:"capacities"`
	Policy       string                 `yaml:"policy"`
	Quantum      *int64                 `yaml:"quantum"`
	MinPriority  *int                   `yaml:"min_priority"`
	MaxPriority  *int                   `yaml:"max_priority"`
	MaxProcesses *int                   `yaml:"max_processes"`
	TimeStep     *float64               `yaml:"time_step"`

	UtilizationWarn *float64 `yaml:"utilization_warn"`
}

// LoadKernelConfig reads and parses a YAML kernel configuration file.
// Unknown fields are rejected so typos surface as errors.
func LoadKernelConfig(path string) (*KernelConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading kernel config: %w", err)
	}
	return ParseKernelConfig(data)
}

// ParseKernelConfig parses YAML kernel configuration and fills unset fields with defaults.
func ParseKernelConfig(data []byte) (*KernelConfig, error) {
	var raw kernelConfigFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parsing kernel config: %w", err)
	}
	cfg := NewKernelConfig(raw.Capacities, raw.Policy)
	if raw.Quantum != nil {
		cfg.Quantum = *raw.Quantum
	}
	if raw.MinPriority != nil {
		cfg.MinPriority = *raw.MinPriority
	}
	if raw.MaxPriority != nil {
		cfg.MaxPriority = *raw.MaxPriority
	}
	if raw.MaxProcesses != nil {
		cfg.MaxProcesses = *raw.MaxProcesses
	}
	if raw.TimeStep != nil {
		cfg.TimeStep = *raw.TimeStep
	}
	if raw.UtilizationWarn != nil {
		cfg.UtilizationWarn = *raw.UtilizationWarn
	}
	return &cfg, nil
}

// Validate checks policy names and parameter ranges.
func (c KernelConfig) Validate() error {
	if !IsValidPolicy(c.Policy) {
		return fmt.Errorf("unknown policy %q; valid: %v", c.Policy, PolicyNames())
	}
	if c.Quantum <= 0 {
		return fmt.Errorf("quantum must be positive, got %d", c.Quantum)
	}
	if c.MinPriority > c.MaxPriority {
		return fmt.Errorf("min_priority %d exceeds max_priority %d", c.MinPriority, c.MaxPriority)
	}
	if c.MaxProcesses < 0 {
		return fmt.Errorf("max_processes must be non-negative, got %d", c.MaxProcesses)
	}
	if c.TimeStep < 0 {
		return fmt.Errorf("time_step must be non-negative, got %f", c.TimeStep)
	}
	if c.UtilizationWarn < 0 || c.UtilizationWarn > 1 {
		return fmt.Errorf("utilization_warn must be in [0, 1], got %f", c.UtilizationWarn)
	}
	for _, kind := range sortedKinds(c.Capacities) {
		if kind == "" {
			return fmt.Errorf("resource kind must not be empty")
		}
		if q := c.Capacities[kind]; q < 0 {
			return fmt.Errorf("capacity of %q must be non-negative, got %d", kind, q)
		}
	}
	return nil
}
