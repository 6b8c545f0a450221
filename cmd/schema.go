package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	sim "github.com/bioos/bioos-sim/sim"
)

var schemaFormat string // "table" or "yaml"

// schemaCmd documents the snapshot report from its static schema.
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Describe the snapshot report fields",
	Run: func(cmd *cobra.Command, args []string) {
		if err := printSchema(os.Stdout, schemaFormat); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

func printSchema(w io.Writer, format string) error {
	switch format {
	case "", "table":
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "FIELD\tTYPE\tDESCRIPTION")
		for _, f := range sim.SnapshotSchema {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", f.Path, f.Type, f.Description)
		}
		return tw.Flush()
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(map[string][]sim.FieldDoc{"snapshot": sim.SnapshotSchema}); err != nil {
			return fmt.Errorf("encoding schema: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown schema format %q; valid: table, yaml", format)
	}
}

func init() {
	schemaCmd.Flags().StringVar(&schemaFormat, "format", "table", "Output format (table, yaml)")
}
