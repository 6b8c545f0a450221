package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/bioos/bioos-sim/sim"
)

// compareCmd checks two snapshot files for equivalence, e.g. the outputs of
// two independent kernel implementations fed the same workload.
var compareCmd = &cobra.Command{
	Use:   "compare <snapshot-a.json> <snapshot-b.json>",
	Short: "Diff two snapshots after canonical re-encoding",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		same, err := compareSnapshotFiles(os.Stdout, args[0], args[1])
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if !same {
			os.Exit(1)
		}
	},
}

// compareSnapshotFiles writes a unified diff of the canonical encodings to w
// and reports whether the snapshots are identical.
func compareSnapshotFiles(w io.Writer, pathA, pathB string) (bool, error) {
	a, err := loadCanonicalSnapshot(pathA)
	if err != nil {
		return false, err
	}
	b, err := loadCanonicalSnapshot(pathB)
	if err != nil {
		return false, err
	}
	if bytes.Equal(a, b) {
		_, err := fmt.Fprintln(w, "snapshots are identical")
		return true, err
	}
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(a)),
		B:        difflib.SplitLines(string(b)),
		FromFile: pathA,
		ToFile:   pathB,
		Context:  3,
	}
	if err := difflib.WriteUnifiedDiff(w, diff); err != nil {
		return false, fmt.Errorf("writing diff: %w", err)
	}
	return false, nil
}

// loadCanonicalSnapshot decodes a snapshot strictly and re-encodes it, so
// whitespace and key order in the input do not matter.
func loadCanonicalSnapshot(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	var snap sim.Snapshot
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&snap); err != nil {
		return nil, fmt.Errorf("parsing snapshot %s: %w", path, err)
	}
	out, err := snap.JSON()
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot %s: %w", path, err)
	}
	return append(out, '\n'), nil
}
