package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestDefaultConfig(t *testing.T) {
	cfg, err := Load(viper.New())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.Provider != "mongodb" {
		t.Errorf("Expected provider to be 'mongodb', got '%s'", cfg.Provider)
	}
	if cfg.ClusterURL != "mongodb+srv://" {
		t.Errorf("Expected cluster_url to be 'mongodb+srv://', got '%s'", cfg.ClusterURL)
	}
	if cfg.DBName != "irec_performance_testing" {
		t.Errorf("Expected db_name to be 'irec_performance_testing', got '%s'", cfg.DBName)
	}
	if cfg.CollectionName != "recon" {
		t.Errorf("Expected collection_name to be 'recon', got '%s'", cfg.CollectionName)
	}
	if cfg.DocsPerBatch != 1000 {
		t.Errorf("Expected docs_per_batch to be 1000, got %d", cfg.DocsPerBatch)
	}
	if cfg.SchemaFile != "schema100.json" {
		t.Errorf("Expected schema_file to be 'schema100.json', got '%s'", cfg.SchemaFile)
	}
	if !cfg.SchemaValidation {
		t.Error("Expected schema_validation to default to true")
	}

	w := cfg.Weights()
	if w.InsertOne != 0 || w.FindByKey != 0 || w.InsertBulk != 10 || w.Aggregate != 0 {
		t.Errorf("Unexpected default weights %+v", w)
	}

	opts := cfg.DatabaseOptions()
	if opts.IndexField != "" {
		t.Errorf("Expected no index by default, got %s", opts.IndexField)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("DB_NAME", "perf_db")
	t.Setenv("COLLECTION_NAME", "events")
	t.Setenv("DOCS_PER_BATCH", "250")
	t.Setenv("FIND_WEIGHT", "3")
	t.Setenv("AGG_PIPE_WEIGHT", "1")
	t.Setenv("WAIT_MAX", "150ms")
	t.Setenv("CREATE_INDEXES", "true")
	t.Setenv("PROVIDER", "memory")
	t.Setenv("SEED", "77")

	cfg, err := Load(viper.New())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.DBName != "perf_db" || cfg.CollectionName != "events" {
		t.Errorf("Expected env names, got %s.%s", cfg.DBName, cfg.CollectionName)
	}
	if cfg.DocsPerBatch != 250 {
		t.Errorf("Expected docs_per_batch 250, got %d", cfg.DocsPerBatch)
	}
	if cfg.FindWeight != 3 || cfg.AggPipeWeight != 1 {
		t.Errorf("Expected weights from env, got find=%d agg=%d", cfg.FindWeight, cfg.AggPipeWeight)
	}
	if cfg.WaitMax != 150*time.Millisecond {
		t.Errorf("Expected wait_max 150ms, got %s", cfg.WaitMax)
	}
	if cfg.Provider != "memory" {
		t.Errorf("Expected provider memory, got %s", cfg.Provider)
	}
	if cfg.Seed != 77 {
		t.Errorf("Expected seed 77, got %d", cfg.Seed)
	}
	if cfg.DatabaseOptions().IndexField != "RECON_RECORD_ID" {
		t.Errorf("Expected index on key field, got %q", cfg.DatabaseOptions().IndexField)
	}
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "docstorm.config.yaml")
	content := "provider: sqlite\ncluster_url: sqlite://perf.db\nworkers: 4\nduration: 30s\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("Failed to read config: %v", err)
	}

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Provider != "sqlite" || cfg.Workers != 4 || cfg.Duration != 30*time.Second {
		t.Errorf("Unexpected config %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"unknown provider", func(c *Config) { c.Provider = "cassandra" }, "unsupported database provider"},
		{"negative weight", func(c *Config) { c.InsertWeight = -1 }, "insert_weight cannot be negative"},
		{"zero batch", func(c *Config) { c.DocsPerBatch = 0 }, "docs_per_batch must be positive"},
		{"zero workers", func(c *Config) { c.Workers = 0 }, "workers must be positive"},
		{"empty collection", func(c *Config) { c.CollectionName = "" }, "collection_name cannot be empty"},
		{"wait range", func(c *Config) { c.WaitMin = time.Second }, "wait_max"},
		{"find without key", func(c *Config) { c.FindWeight = 1; c.KeyField = "" }, "key_field is required"},
		{"export format", func(c *Config) { c.ExportFormat = "xml" }, "unsupported export_format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(viper.New())
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			tt.mutate(cfg)

			err = cfg.Validate()
			if err == nil {
				t.Fatalf("Expected error containing %q", tt.want)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
