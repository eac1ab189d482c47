package runstats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/manpen/stride/internal/jobprocessor"
)

// outcomeOrder fixes the banner's display order; only non-zero counts
// are printed.
var outcomeOrder = []string{
	"Valid", "Infeasible", "InvalidInstance", "SyntaxError",
	"EmptySolution", "SolverError", "SystemError", "Timeout",
}

// Collector accumulates per-job outcomes during a run.
type Collector struct {
	mu       sync.Mutex
	counts   OutcomeCounts
	runtimes []time.Duration
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector {
	return &Collector{counts: make(OutcomeCounts)}
}

// Record tallies one finished job's outcome.
func (c *Collector) Record(outcome jobprocessor.Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[outcome.Result.String()]++
	c.runtimes = append(c.runtimes, outcome.Runtime)
}

// Snapshot computes the statistics over everything recorded so far.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	counts := make(OutcomeCounts, len(c.counts))
	for k, v := range c.counts {
		counts[k] = v
	}

	mean, median, stdDev := calculateStatistics(c.runtimes)
	minD, maxD := minMax(c.runtimes)

	return Snapshot{
		Total:         len(c.runtimes),
		Counts:        counts,
		MeanRuntime:   mean,
		MedianRuntime: median,
		MinRuntime:    minD,
		MaxRuntime:    maxD,
		StdDevRuntime: stdDev,
	}
}

func calculateStatistics(durations []time.Duration) (mean, median, stdDev time.Duration) {
	if len(durations) == 0 {
		return 0, 0, 0
	}

	var sum int64
	for _, d := range durations {
		sum += d.Nanoseconds()
	}
	mean = time.Duration(sum / int64(len(durations)))

	sorted := make([]time.Duration, len(durations))
	copy(sorted, durations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		median = (sorted[mid-1] + sorted[mid]) / 2
	} else {
		median = sorted[mid]
	}

	var variance float64
	for _, d := range durations {
		diff := float64(d.Nanoseconds() - mean.Nanoseconds())
		variance += diff * diff
	}
	variance /= float64(len(durations))
	stdDev = time.Duration(math.Sqrt(variance))

	return mean, median, stdDev
}

func minMax(durations []time.Duration) (min, max time.Duration) {
	if len(durations) == 0 {
		return 0, 0
	}
	min, max = durations[0], durations[0]
	for _, d := range durations[1:] {
		if d < min {
			min = d
		}
		if d > max {
			max = d
		}
	}
	return min, max
}

// Banner renders the end-of-run summary.
func (s Snapshot) Banner() string {
	var b strings.Builder
	fmt.Fprintf(&b, "═══════════════════════════════════════════\n")
	fmt.Fprintf(&b, "  Run Summary\n")
	fmt.Fprintf(&b, "═══════════════════════════════════════════\n")
	fmt.Fprintf(&b, "Total instances: %d\n", s.Total)
	for _, tag := range outcomeOrder {
		if n := s.Counts[tag]; n > 0 {
			fmt.Fprintf(&b, "%-16s %d\n", tag, n)
		}
	}
	fmt.Fprintf(&b, "Runtime mean/median/stddev: %v / %v / %v\n",
		s.MeanRuntime.Round(time.Millisecond), s.MedianRuntime.Round(time.Millisecond), s.StdDevRuntime.Round(time.Millisecond))
	fmt.Fprintf(&b, "Runtime min/max: %v / %v\n", s.MinRuntime.Round(time.Millisecond), s.MaxRuntime.Round(time.Millisecond))
	fmt.Fprintf(&b, "═══════════════════════════════════════════\n")
	return b.String()
}

// Export encodes the snapshot in the requested format.
func (s Snapshot) Export(format ExportFormat) ([]byte, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("runstats: marshal json: %w", err)
		}
		return data, nil
	case FormatCSV:
		return s.exportCSV()
	default:
		return nil, fmt.Errorf("runstats: unsupported format %q", format)
	}
}

func (s Snapshot) exportCSV() ([]byte, error) {
	var buf strings.Builder
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"result", "count"}); err != nil {
		return nil, fmt.Errorf("runstats: write csv header: %w", err)
	}

	tags := make([]string, 0, len(s.Counts))
	for tag := range s.Counts {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	for _, tag := range tags {
		if err := w.Write([]string{tag, fmt.Sprintf("%d", s.Counts[tag])}); err != nil {
			return nil, fmt.Errorf("runstats: write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("runstats: csv writer: %w", err)
	}
	return []byte(buf.String()), nil
}
