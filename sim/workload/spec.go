package workload

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/bioos/bioos-sim/sim"
)

// Entry is one timed submission: the process spec plus the tick at which the
// driver submits it.
type Entry struct {
	At              int64 `yaml:"at"`
	sim.ProcessSpec `yaml:",inline"`
}

// WorkloadSpec is the top-level workload configuration.
// Loaded from YAML via LoadWorkloadSpec(path). Explicit Processes and a
// Generate section may be combined; generated entries are appended.
type WorkloadSpec struct {
	Version   string           `yaml:"version"`
	Seed      int64            `yaml:"seed"`
	Processes []Entry          `yaml:"processes"`
	Generate  *GeneratorConfig `yaml:"generate,omitempty"`
}

// LoadWorkloadSpec reads and parses a YAML workload file.
// Unknown fields are rejected so typos surface as errors.
func LoadWorkloadSpec(path string) (*WorkloadSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading workload spec: %w", err)
	}
	return ParseWorkloadSpec(data)
}

// ParseWorkloadSpec parses a YAML workload document.
func ParseWorkloadSpec(data []byte) (*WorkloadSpec, error) {
	var spec WorkloadSpec
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil {
		return nil, fmt.Errorf("parsing workload spec: %w", err)
	}
	if spec.Version == "" {
		spec.Version = "1"
	}
	return &spec, nil
}

// Validate checks structural fields. Per-process limits (priority range,
// resource kinds) belong to the kernel and are enforced at submission.
func (s *WorkloadSpec) Validate() error {
	if s.Version != "1" {
		return fmt.Errorf("unsupported workload version %q", s.Version)
	}
	for i, e := range s.Processes {
		if e.At < 0 {
			return fmt.Errorf("processes[%d]: at must be non-negative, got %d", i, e.At)
		}
	}
	if s.Generate != nil {
		if err := s.Generate.Validate(); err != nil {
			return fmt.Errorf("generate: %w", err)
		}
	}
	if len(s.Processes) == 0 && s.Generate == nil {
		logrus.Warn("workload spec has no processes and no generate section")
	}
	return nil
}

// Entries returns the explicit entries followed by generated ones, sorted by
// At with ties kept in file order. Deterministic given the same spec.
func (s *WorkloadSpec) Entries() ([]Entry, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	out := append([]Entry{}, s.Processes...)
	if s.Generate != nil {
		out = append(out, Generate(*s.Generate, NewPartitionedRNG(s.Seed))...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].At < out[j].At })
	return out, nil
}
