package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Rana718/docstorm/internal/runner"
	"gopkg.in/yaml.v3"
)

// Report is the persisted form of a finished run.
type Report struct {
	Timestamp    string       `json:"timestamp" yaml:"timestamp"`
	Version      string       `json:"version" yaml:"version"`
	Provider     string       `json:"provider" yaml:"provider"`
	Database     string       `json:"database" yaml:"database"`
	Collection   string       `json:"collection" yaml:"collection"`
	Workers      int          `json:"workers" yaml:"workers"`
	Elapsed      string       `json:"elapsed" yaml:"elapsed"`
	Operations   uint64       `json:"operations" yaml:"operations"`
	OpsPerSecond float64      `json:"ops_per_second" yaml:"ops_per_second"`
	Failures     uint64       `json:"failures" yaml:"failures"`
	Documents    int64        `json:"documents" yaml:"documents"`
	Found        int64        `json:"found" yaml:"found"`
	Missed       int64        `json:"missed" yaml:"missed"`
	Tasks        []TaskReport `json:"tasks" yaml:"tasks"`
}

type TaskReport struct {
	Name         string `json:"name" yaml:"name"`
	Operations   uint64 `json:"operations" yaml:"operations"`
	Failures     uint64 `json:"failures" yaml:"failures"`
	AvgLatencyUs int64  `json:"avg_latency_us" yaml:"avg_latency_us"`
	MaxLatencyUs int64  `json:"max_latency_us" yaml:"max_latency_us"`
	LastError    string `json:"last_error,omitempty" yaml:"last_error,omitempty"`
}

// Meta identifies the run a snapshot belongs to.
type Meta struct {
	Version    string
	Provider   string
	Database   string
	Collection string
	Workers    int
}

func NewReport(meta Meta, snap runner.Snapshot) Report {
	r := Report{
		Timestamp:    time.Now().Format("2006-01-02 15:04:05"),
		Version:      meta.Version,
		Provider:     meta.Provider,
		Database:     meta.Database,
		Collection:   meta.Collection,
		Workers:      meta.Workers,
		Elapsed:      snap.Elapsed.Round(time.Millisecond).String(),
		Operations:   snap.Ops,
		OpsPerSecond: snap.OpsPerSecond(),
		Failures:     snap.Failures,
		Documents:    snap.Documents,
		Found:        snap.Found,
		Missed:       snap.Missed,
	}
	for _, t := range snap.Tasks {
		tr := TaskReport{
			Name:         t.Name,
			Operations:   t.Ops,
			Failures:     t.Failures,
			AvgLatencyUs: t.AverageLatency.Microseconds(),
			MaxLatencyUs: t.MaxLatency.Microseconds(),
		}
		if t.LastError != nil {
			tr.LastError = t.LastError.Error()
		}
		r.Tasks = append(r.Tasks, tr)
	}
	return r
}

// PerformExport writes report under exportPath and returns the file path.
func PerformExport(report Report, exportPath, format string) (string, error) {
	if err := os.MkdirAll(exportPath, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	base := filepath.Join(exportPath, fmt.Sprintf("report_%s", timestamp))

	switch format {
	case "csv":
		return exportToCSV(report, base+".csv")
	case "yaml", "yml":
		return exportToYAML(report, base+".yaml")
	case "json", "":
		return exportToJSON(report, base+".json")
	default:
		return "", fmt.Errorf("unsupported export format: %s (json, yaml, csv)", format)
	}
}

func exportToJSON(report Report, filePath string) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return filePath, nil
}

func exportToYAML(report Report, filePath string) (string, error) {
	data, err := yaml.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return filePath, nil
}

// exportToCSV writes one row per task.
func exportToCSV(report Report, filePath string) (string, error) {
	file, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	writer.Write([]string{"task", "operations", "failures", "avg_latency_us", "max_latency_us", "last_error"})
	for _, t := range report.Tasks {
		writer.Write([]string{
			t.Name,
			strconv.FormatUint(t.Operations, 10),
			strconv.FormatUint(t.Failures, 10),
			strconv.FormatInt(t.AvgLatencyUs, 10),
			strconv.FormatInt(t.MaxLatencyUs, 10),
			t.LastError,
		})
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("failed to write CSV: %w", err)
	}

	return filePath, nil
}
