package display

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/manpen/stride/internal/jobprocessor"
)

// outcomeSlot indexes the atomic counters; order matches the legend
// printed on the status line.
type outcomeSlot int

const (
	slotValid outcomeSlot = iota
	slotInfeasible
	slotInvalidInstance
	slotSyntaxError
	slotEmptySolution
	slotSolverError
	slotSystemError
	slotTimeout
	numSlots
)

var slotLabels = [numSlots]string{
	slotValid:          "valid",
	slotInfeasible:     "infeasible",
	slotInvalidInstance: "invalid",
	slotSyntaxError:    "syntax-error",
	slotEmptySolution:  "empty",
	slotSolverError:    "solver-error",
	slotSystemError:    "system-error",
	slotTimeout:        "timeout",
}

func slotFor(result jobprocessor.Result) outcomeSlot {
	switch result.String() {
	case "Valid":
		return slotValid
	case "Infeasible":
		return slotInfeasible
	case "InvalidInstance":
		return slotInvalidInstance
	case "SyntaxError":
		return slotSyntaxError
	case "EmptySolution":
		return slotEmptySolution
	case "SolverError":
		return slotSolverError
	case "SystemError":
		return slotSystemError
	default:
		return slotTimeout
	}
}

// Display is a terminal multi-bar: a status line of outcome counters, an
// optional scoreboard line, and a total progress bar. All counters are
// safe to update concurrently; Render serializes itself on an internal
// mutex, so the scheduler's tick goroutine and its postprocessing loop
// may both call it.
type Display struct {
	out   io.Writer
	total int64

	finished     atomic.Int64
	running      atomic.Int64
	counters     [numSlots]atomic.Int64
	scoreboardOn atomic.Bool

	mu           sync.Mutex
	postprocess  bool
	lastLines    int
}

// New builds a Display that writes to out for total instances.
func New(out io.Writer, total int) *Display {
	return &Display{out: out, total: int64(total)}
}

// FinishJob records one completed job's outcome.
func (d *Display) FinishJob(result jobprocessor.Result) {
	d.finished.Add(1)
	d.counters[slotFor(result)].Add(1)
}

// FinishedCount reports the number of jobs recorded via FinishJob so far.
func (d *Display) FinishedCount() int64 {
	return d.finished.Load()
}

// SetRunning reports the current number of occupied permits, for the
// "running = P - available_permits" figure in the status line.
func (d *Display) SetRunning(n int) {
	d.running.Store(int64(n))
}

// EnableScoreboard shows the scoreboard line once any instance is known
// to carry a digest.
func (d *Display) EnableScoreboard() {
	d.scoreboardOn.Store(true)
}

// EnterPostprocessing switches the total bar to its indeterminate style:
// the instance iterator is exhausted and only outstanding tasks remain.
func (d *Display) EnterPostprocessing() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.postprocess = true
}

// Render redraws the multi-bar in place using ANSI cursor movement.
func (d *Display) Render() {
	d.mu.Lock()
	defer d.mu.Unlock()

	lines := []string{d.statusLine()}
	if d.scoreboardOn.Load() {
		lines = append(lines, d.scoreboardLine())
	}
	lines = append(lines, d.totalBarLine())

	if d.lastLines > 0 {
		fmt.Fprintf(d.out, "\x1b[%dA", d.lastLines)
	}
	for _, line := range lines {
		fmt.Fprintf(d.out, "\x1b[2K%s\n", line)
	}
	d.lastLines = len(lines)
}

func (d *Display) statusLine() string {
	var b strings.Builder
	fmt.Fprintf(&b, "running=%d", d.running.Load())
	for slot := outcomeSlot(0); slot < numSlots; slot++ {
		if n := d.counters[slot].Load(); n > 0 {
			fmt.Fprintf(&b, " %s=%d", slotLabels[slot], n)
		}
	}
	return b.String()
}

func (d *Display) scoreboardLine() string {
	return fmt.Sprintf("valid=%d infeasible=%d", d.counters[slotValid].Load(), d.counters[slotInfeasible].Load())
}

func (d *Display) totalBarLine() string {
	finished := d.finished.Load()
	if d.postprocess {
		return fmt.Sprintf("postprocessing... (%d/%d finished)", finished, d.total)
	}
	if d.total == 0 {
		return "0/0"
	}
	width := 30
	filled := int(finished * int64(width) / d.total)
	if filled > width {
		filled = width
	}
	bar := strings.Repeat("=", filled) + strings.Repeat(" ", width-filled)
	return fmt.Sprintf("[%s] %d/%d", bar, finished, d.total)
}

// Tick renders on a fixed interval until stop is closed. The interval
// matches the scheduler's semaphore-wait bound so the display refreshes
// even while every permit is held.
func Tick(d *Display, interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			d.Render()
		case <-stop:
			d.Render()
			return
		}
	}
}
