package cmd

import (
	"fmt"

	"github.com/Rana718/docstorm/internal/schema"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var schemaCmd = &cobra.Command{
	Use:   "schema [schema-file]",
	Short: "Validate a schema file and print its fields",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := viper.GetString("schema_file")
		if len(args) == 1 {
			path = args[0]
		}
		if path == "" {
			path = "schema100.json"
		}

		spec, err := schema.LoadFile(path)
		if err != nil {
			color.Red("❌ %v", err)
			return err
		}

		color.Green("✅ %s: %d fields", path, spec.Len())
		fmt.Printf("  %-32s %-8s %s\n", "NAME", "TYPE", "POLICY")
		for _, f := range spec.Fields {
			fmt.Printf("  %-32s %-8s %s\n", f.Name, f.Type, describePolicy(f))
		}
		return nil
	},
}

func describePolicy(f schema.FieldSpec) string {
	if f.Enumerated() {
		return fmt.Sprintf("one of %d values", len(f.AllowedValues))
	}
	if f.Type != schema.Int {
		return "random"
	}
	switch {
	case f.Unique:
		return "unique"
	case f.UniqueRange > 0:
		return fmt.Sprintf("unique range %d", f.UniqueRange)
	case f.Skewed:
		return "skewed"
	default:
		return "random"
	}
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
