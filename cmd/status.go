package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/Rana718/docstorm/internal/config"
	"github.com/Rana718/docstorm/internal/database"
	"github.com/Rana718/docstorm/internal/schema"
	"github.com/Rana718/docstorm/internal/types"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the store and show document counts per group",
	Long: `Connect to the configured store, ping it and print how many documents
each value of group_field currently holds. Reads go to the primary.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if cfg.GroupField == "" {
			return fmt.Errorf("group_field is required for status")
		}

		spec, err := schema.LoadFile(cfg.SchemaFile)
		if err != nil {
			return err
		}

		store, err := database.NewStore(cfg.Provider)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		opts := cfg.DatabaseOptions()
		opts.Spec = spec
		if err := store.Connect(ctx, opts); err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer store.Close()

		start := time.Now()
		if err := store.Ping(ctx); err != nil {
			return fmt.Errorf("ping failed: %w", err)
		}
		color.Green("✅ %s is reachable (%s)", cfg.Provider, time.Since(start).Round(time.Microsecond))

		group := types.GroupCount{Field: cfg.GroupField, CountField: types.DefaultCountField}
		rows, err := store.Aggregate(ctx, group, types.Primary)
		if err != nil {
			return fmt.Errorf("failed to aggregate %s: %w", cfg.GroupField, err)
		}

		printGroups(cfg.GroupField, group.CountField, rows)
		return nil
	},
}

func printGroups(field, countField string, rows []types.Document) {
	if len(rows) == 0 {
		color.Yellow("ℹ️  %s is empty", field)
		return
	}

	var total int64
	fmt.Printf("  %-24s %s\n", field, "DOCUMENTS")
	for _, row := range rows {
		n := toInt64(row[countField])
		total += n
		fmt.Printf("  %-24v %s\n", row[field], humanize.Comma(n))
	}
	color.Cyan("  %-24s %s", "TOTAL", humanize.Comma(total))
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
