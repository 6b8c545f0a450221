// Package testutil provides shared test infrastructure for the BioOS simulator.
// It loads the cross-implementation test vectors in testdata/vectors.yaml.
// It has no dependency on sim/, so sim's own tests can import it.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"gopkg.in/yaml.v3"
)

// VectorFile represents the structure of testdata/vectors.yaml.
type VectorFile struct {
	Version string       `yaml:"version"`
	Cases   []VectorCase `yaml:"cases"`
}

// VectorCase is one submission sequence with its expected outcome.
type VectorCase struct {
	Name        string             `yaml:"name"`
	Capacities  map[string]int64   `yaml:"capacities"`
	Policy      string             `yaml:"policy"`
	Quantum     int64              `yaml:"quantum"` // 0 = default
	MaxTicks    int64              `yaml:"max_ticks"`
	Submissions []VectorSubmission `yaml:"submissions"`
	Expect      VectorExpect       `yaml:"expect"`
}

// VectorSubmission is one timed submission.
type VectorSubmission struct {
	At         int64            `yaml:"at"`
	Name       string           `yaml:"name"`
	Priority   int              `yaml:"priority"`
	Resources  map[string]int64 `yaml:"resources"`
	Work       int64            `yaml:"work"`
	BlockEvery int64            `yaml:"block_every"`
	BlockTicks int64            `yaml:"block_ticks"`
}

// VectorExpect is the observable outcome every implementation must reproduce.
type VectorExpect struct {
	Outcome   string           `yaml:"outcome"` // "idle" or "timeout"
	Tick      int64            `yaml:"tick"`
	RunOrder  []int64          `yaml:"run_order"` // process ID granted at each scheduled tick
	Processes []VectorProcess  `yaml:"processes"`
	Used      map[string]int64 `yaml:"used"`
}

// VectorProcess is the expected final state of one process.
type VectorProcess struct {
	ID          int64  `yaml:"id"`
	State       string `yaml:"state"`
	Remaining   int64  `yaml:"remaining"`
	ArrivalTick int64  `yaml:"arrival_tick"`
}

// LoadVectors loads the shared vectors from the testdata directory.
// The path is resolved relative to this source file: sim/internal/testutil/ → testdata/.
func LoadVectors(t *testing.T) *VectorFile {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", "vectors.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read vectors: %v", err)
	}

	var vf VectorFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&vf); err != nil {
		t.Fatalf("Failed to parse vectors: %v", err)
	}
	if len(vf.Cases) == 0 {
		t.Fatal("vectors file has no cases")
	}
	return &vf
}
