package scheduler

import (
	"log/slog"
	"time"

	"github.com/spf13/afero"

	"github.com/manpen/stride/internal/display"
	"github.com/manpen/stride/internal/rundir"
	"github.com/manpen/stride/internal/runstats"
	"github.com/manpen/stride/internal/summary"
	"github.com/manpen/stride/internal/uploader"
)

// TaskContext is the shared, immutable handle cloned into every task. It
// is read-only after construction, so tasks never need to reach back into
// the Scheduler that spawned them.
type TaskContext struct {
	Fs afero.Fs

	SolverPath string
	SolverArgs []string
	Env        []string

	SoftTimeout time.Duration
	GracePeriod time.Duration
	ForwardEnv  bool

	RequireOptimal bool
	KeepLogs       bool

	RunDir *rundir.RunDirectory

	// Uploader is nil when the run is offline; no descriptor is ever
	// submitted in that case, regardless of idigest.
	Uploader *uploader.Aggregator
	Summary  *summary.Writer
	Display  *display.Display

	// Stats is optional; when set, every finished job's outcome is
	// recorded for the end-of-run banner.
	Stats *runstats.Collector

	Logger *slog.Logger
}
