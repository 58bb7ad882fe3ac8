package config

import (
	"fmt"
	"time"

	"github.com/Rana718/docstorm/internal/database"
	"github.com/Rana718/docstorm/internal/workload"
	"github.com/spf13/viper"
)

// Config is read once at startup and never mutated afterwards. Keys match
// the environment variable names in lower case.
type Config struct {
	Provider       string `json:"provider" mapstructure:"provider"`
	ClusterURL     string `json:"cluster_url" mapstructure:"cluster_url"`
	ReplicaURL     string `json:"replica_url" mapstructure:"replica_url"`
	DBName         string `json:"db_name" mapstructure:"db_name"`
	CollectionName string `json:"collection_name" mapstructure:"collection_name"`
	PoolSize       int    `json:"pool_size" mapstructure:"pool_size"`

	DocsPerBatch     int `json:"docs_per_batch" mapstructure:"docs_per_batch"`
	InsertWeight     int `json:"insert_weight" mapstructure:"insert_weight"`
	FindWeight       int `json:"find_weight" mapstructure:"find_weight"`
	BulkInsertWeight int `json:"bulk_insert_weight" mapstructure:"bulk_insert_weight"`
	AggPipeWeight    int `json:"agg_pipe_weight" mapstructure:"agg_pipe_weight"`

	SchemaFile       string `json:"schema_file" mapstructure:"schema_file"`
	KeyField         string `json:"key_field" mapstructure:"key_field"`
	GroupField       string `json:"group_field" mapstructure:"group_field"`
	SchemaValidation bool   `json:"schema_validation" mapstructure:"schema_validation"`
	CreateIndexes    bool   `json:"create_indexes" mapstructure:"create_indexes"`
	CacheSize        int    `json:"cache_size" mapstructure:"cache_size"`

	Workers  int           `json:"workers" mapstructure:"workers"`
	Duration time.Duration `json:"duration" mapstructure:"duration"`
	MaxOps   int64         `json:"max_ops" mapstructure:"max_ops"`
	WaitMin  time.Duration `json:"wait_min" mapstructure:"wait_min"`
	WaitMax  time.Duration `json:"wait_max" mapstructure:"wait_max"`
	Progress bool          `json:"progress" mapstructure:"progress"`
	// Seed, when non-zero, makes every worker's random stream reproducible.
	Seed int64 `json:"seed" mapstructure:"seed"`

	ExportPath   string `json:"export_path" mapstructure:"export_path"`
	ExportFormat string `json:"export_format" mapstructure:"export_format"`
}

var defaults = map[string]interface{}{
	"provider":           "mongodb",
	"cluster_url":        "mongodb+srv://",
	"replica_url":        "",
	"db_name":            "irec_performance_testing",
	"collection_name":    "recon",
	"pool_size":          0,
	"docs_per_batch":     1000,
	"insert_weight":      0,
	"find_weight":        0,
	"bulk_insert_weight": 10,
	"agg_pipe_weight":    0,
	"schema_file":        "schema100.json",
	"key_field":          "RECON_RECORD_ID",
	"group_field":        "STATUS",
	"schema_validation":  true,
	"create_indexes":     false,
	"cache_size":         1000,
	"workers":            1,
	"duration":           "0s",
	"max_ops":            0,
	"wait_min":           "0s",
	"wait_max":           "0s",
	"progress":           false,
	"seed":               0,
	"export_path":        "",
	"export_format":      "json",
}

// SetDefaults registers every key so environment variables can override it.
func SetDefaults(v *viper.Viper) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()
}

// Load reads the configuration from v, which may already hold a config file
// and bound flags, and validates it.
func Load(v *viper.Viper) (*Config, error) {
	if v == nil {
		v = viper.GetViper()
	}
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if !database.Supported(c.Provider) {
		return fmt.Errorf("unsupported database provider: %s. Supported providers: %v", c.Provider, database.Providers)
	}

	if c.ClusterURL == "" {
		return fmt.Errorf("cluster_url cannot be empty")
	}
	if c.CollectionName == "" {
		return fmt.Errorf("collection_name cannot be empty")
	}
	if c.SchemaFile == "" {
		return fmt.Errorf("schema_file cannot be empty")
	}

	weights := map[string]int{
		"insert_weight":      c.InsertWeight,
		"find_weight":        c.FindWeight,
		"bulk_insert_weight": c.BulkInsertWeight,
		"agg_pipe_weight":    c.AggPipeWeight,
	}
	for key, w := range weights {
		if w < 0 {
			return fmt.Errorf("%s cannot be negative, got %d", key, w)
		}
	}

	if c.DocsPerBatch <= 0 {
		return fmt.Errorf("docs_per_batch must be positive, got %d", c.DocsPerBatch)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.PoolSize < 0 || c.CacheSize < 0 || c.MaxOps < 0 {
		return fmt.Errorf("pool_size, cache_size and max_ops cannot be negative")
	}
	if c.Duration < 0 || c.WaitMin < 0 {
		return fmt.Errorf("duration and wait_min cannot be negative")
	}
	if c.WaitMax < c.WaitMin {
		return fmt.Errorf("wait_max (%s) cannot be less than wait_min (%s)", c.WaitMax, c.WaitMin)
	}
	switch c.ExportFormat {
	case "json", "yaml", "yml", "csv":
	default:
		return fmt.Errorf("unsupported export_format: %s", c.ExportFormat)
	}
	if c.FindWeight > 0 && c.KeyField == "" {
		return fmt.Errorf("key_field is required when find_weight is set")
	}
	if c.AggPipeWeight > 0 && c.GroupField == "" {
		return fmt.Errorf("group_field is required when agg_pipe_weight is set")
	}

	return nil
}

// Weights is the task mix for the scheduler.
func (c *Config) Weights() workload.Weights {
	return workload.Weights{
		InsertOne:  c.InsertWeight,
		InsertBulk: c.BulkInsertWeight,
		FindByKey:  c.FindWeight,
		Aggregate:  c.AggPipeWeight,
	}
}

// DatabaseOptions describes the store target for the configured provider.
func (c *Config) DatabaseOptions() database.Options {
	opts := database.Options{
		URL:        c.ClusterURL,
		ReplicaURL: c.ReplicaURL,
		Database:   c.DBName,
		Collection: c.CollectionName,
		PoolSize:   c.PoolSize,
	}
	if c.CreateIndexes {
		opts.IndexField = c.KeyField
	}
	return opts
}
