package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	sim "github.com/bioos/bioos-sim/sim"
	"github.com/bioos/bioos-sim/sim/workload"
)

var (
	generateCount       int
	generateSeed        int64
	generateMinPriority int
	generateMaxPriority int
)

// generateCmd expands a synthetic workload into an explicit workload file,
// so the exact same submissions can be fed to another implementation.
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write a seeded synthetic workload as explicit YAML",
	Run: func(cmd *cobra.Command, args []string) {
		if err := writeGeneratedWorkload(os.Stdout, workload.DefaultGeneratorConfig(generateCount, generateMinPriority, generateMaxPriority), generateSeed); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

func writeGeneratedWorkload(w io.Writer, gen workload.GeneratorConfig, seed int64) error {
	spec := workload.WorkloadSpec{Version: "1", Seed: seed, Generate: &gen}
	entries, err := spec.Entries()
	if err != nil {
		return err
	}
	out := workload.WorkloadSpec{Version: "1", Seed: seed, Processes: entries}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&out); err != nil {
		return fmt.Errorf("encoding workload: %w", err)
	}
	return enc.Close()
}

func init() {
	generateCmd.Flags().IntVar(&generateCount, "count", 20, "Number of processes")
	generateCmd.Flags().Int64Var(&generateSeed, "seed", 42, "Generation seed")
	generateCmd.Flags().IntVar(&generateMinPriority, "min-priority", sim.DefaultMinPriority, "Lowest generated priority")
	generateCmd.Flags().IntVar(&generateMaxPriority, "max-priority", sim.DefaultMaxPriority, "Highest generated priority")
}
