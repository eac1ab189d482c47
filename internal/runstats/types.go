package runstats

import "time"

// OutcomeCounts tallies finished jobs by their result tag ("Valid",
// "Timeout", ...).
type OutcomeCounts map[string]int

// Snapshot is the statistics for a run, computed from whatever jobs a
// Collector has recorded so far.
type Snapshot struct {
	Total         int           `json:"total"`
	Counts        OutcomeCounts `json:"counts"`
	MeanRuntime   time.Duration `json:"mean_runtime"`
	MedianRuntime time.Duration `json:"median_runtime"`
	MinRuntime    time.Duration `json:"min_runtime"`
	MaxRuntime    time.Duration `json:"max_runtime"`
	StdDevRuntime time.Duration `json:"stddev_runtime"`
}

// ExportFormat is a supported Snapshot.Export encoding.
type ExportFormat string

const (
	FormatJSON ExportFormat = "json"
	FormatCSV  ExportFormat = "csv"
)
