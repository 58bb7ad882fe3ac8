package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Rana718/docstorm/internal/config"
	"github.com/Rana718/docstorm/internal/database"
	"github.com/Rana718/docstorm/internal/export"
	"github.com/Rana718/docstorm/internal/runner"
	"github.com/Rana718/docstorm/internal/schema"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the weighted load against the configured store",
	Long: `Connect to the configured store, prepare the collection and run every worker
until the duration elapses, each worker reaches max-ops, or the run is
interrupted. Store failures are counted; generator failures stop the run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		spec, err := schema.LoadFile(cfg.SchemaFile)
		if err != nil {
			return err
		}

		store, err := database.NewStore(cfg.Provider)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		opts := cfg.DatabaseOptions()
		opts.Spec = spec

		color.Cyan("🔌 Connecting to %s (%s.%s)...", cfg.Provider, cfg.DBName, cfg.CollectionName)
		if err := store.Connect(ctx, opts); err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer store.Close()
		color.Green("✅ Connected")

		r, err := runner.New(runner.Options{
			Spec:       spec,
			Store:      store,
			Weights:    cfg.Weights(),
			KeyField:   cfg.KeyField,
			GroupField: cfg.GroupField,
			BatchSize:  cfg.DocsPerBatch,
			CacheSize:  cfg.CacheSize,
			Validate:   cfg.SchemaValidation,
			Workers:    cfg.Workers,
			Duration:   cfg.Duration,
			MaxOps:     cfg.MaxOps,
			WaitMin:    cfg.WaitMin,
			WaitMax:    cfg.WaitMax,
			Seed:       cfg.Seed,
			Progress:   cfg.Progress,
			Out:        os.Stdout,
		})
		if err != nil {
			return err
		}

		w := cfg.Weights()
		color.Cyan("🚀 Starting %d worker(s): insert_one=%d insert_bulk=%d find_by_key=%d aggregate=%d",
			cfg.Workers, w.InsertOne, w.InsertBulk, w.FindByKey, w.Aggregate)

		runErr := r.Run(ctx)
		snap := r.Stats().Snapshot()
		runner.PrintSummary(os.Stdout, snap)

		if cfg.ExportPath != "" {
			report := export.NewReport(export.Meta{
				Version:    Version,
				Provider:   cfg.Provider,
				Database:   cfg.DBName,
				Collection: cfg.CollectionName,
				Workers:    cfg.Workers,
			}, snap)
			path, err := export.PerformExport(report, cfg.ExportPath, cfg.ExportFormat)
			if err != nil {
				color.Red("❌ Export failed: %v", err)
			} else {
				color.Green("📦 Report written to %s", path)
			}
		}

		if runErr != nil {
			color.Red("❌ Run stopped: %v", runErr)
			return runErr
		}
		color.Green("✅ Run complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("provider", "", "Database provider (mongodb, postgresql, mysql, sqlite, bolt, memory)")
	runCmd.Flags().Int("workers", 1, "Number of concurrent workers")
	runCmd.Flags().Duration("duration", 0, "Stop after this long (0 runs until interrupted)")
	runCmd.Flags().Int64("max-ops", 0, "Stop each worker after this many operations (0 is unbounded)")
	runCmd.Flags().String("schema", "", "Schema file (JSON or YAML)")
	runCmd.Flags().Bool("progress", false, "Show a progress bar")
	runCmd.Flags().Int64("seed", 0, "Base seed for reproducible workers (0 draws from the clock)")
	runCmd.Flags().String("export", "", "Directory to write the run report to")
	runCmd.Flags().String("format", "json", "Report format (json, yaml, csv)")

	viper.BindPFlag("provider", runCmd.Flags().Lookup("provider"))
	viper.BindPFlag("workers", runCmd.Flags().Lookup("workers"))
	viper.BindPFlag("duration", runCmd.Flags().Lookup("duration"))
	viper.BindPFlag("max_ops", runCmd.Flags().Lookup("max-ops"))
	viper.BindPFlag("schema_file", runCmd.Flags().Lookup("schema"))
	viper.BindPFlag("progress", runCmd.Flags().Lookup("progress"))
	viper.BindPFlag("seed", runCmd.Flags().Lookup("seed"))
	viper.BindPFlag("export_path", runCmd.Flags().Lookup("export"))
	viper.BindPFlag("export_format", runCmd.Flags().Lookup("format"))
}
