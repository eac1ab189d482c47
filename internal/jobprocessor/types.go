package jobprocessor

import (
	"sync/atomic"
	"time"

	"github.com/manpen/stride/internal/checker"
)

// Environment variable names mirrored from the run command's flags, set on
// every solver invocation unless env forwarding is suppressed.
const (
	EnvInstancePath = "STRIDE_INSTANCE_PATH"
	EnvSoftTimeout  = "STRIDE_TIMEOUT"
	EnvGracePeriod  = "STRIDE_GRACE"
)

// Progress is the externally observable state of a job: totally ordered
// and monotonically non-decreasing. The zero value is Starting.
type Progress int32

const (
	Starting Progress = iota
	Running
	Checking
	Finished
)

func (p Progress) String() string {
	switch p {
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Checking:
		return "checking"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

// AtomicProgress publishes a Progress value for lock-free concurrent reads.
type AtomicProgress struct {
	v atomic.Int32
}

func (a *AtomicProgress) Load() Progress    { return Progress(a.v.Load()) }
func (a *AtomicProgress) set(p Progress)    { a.v.Store(int32(p)) }

// resultKind tags the outcome reported to the display and summary writer.
type resultKind int

const (
	resultValid resultKind = iota
	resultInfeasible
	resultInvalidInstance
	resultSyntaxError
	resultEmptySolution
	resultSolverError
	resultSystemError
	resultTimeout
)

// Result is the classified outcome of one job.
type Result struct {
	kind resultKind
	size int
}

func ResultValid(size int) Result      { return Result{kind: resultValid, size: size} }
func ResultInfeasible() Result         { return Result{kind: resultInfeasible} }
func ResultInvalidInstance() Result    { return Result{kind: resultInvalidInstance} }
func ResultSyntaxError() Result        { return Result{kind: resultSyntaxError} }
func ResultEmptySolution() Result      { return Result{kind: resultEmptySolution} }
func ResultSolverError() Result        { return Result{kind: resultSolverError} }
func ResultSystemError() Result        { return Result{kind: resultSystemError} }
func ResultTimeout() Result            { return Result{kind: resultTimeout} }

func (r Result) IsValid() bool      { return r.kind == resultValid }
func (r Result) Size() int          { return r.size }
func (r Result) IsTimeout() bool    { return r.kind == resultTimeout }
func (r Result) IsInfeasible() bool { return r.kind == resultInfeasible }
func (r Result) IsSuccessful() bool {
	return r.kind == resultValid
}

func (r Result) String() string {
	switch r.kind {
	case resultValid:
		return "Valid"
	case resultInfeasible:
		return "Infeasible"
	case resultInvalidInstance:
		return "InvalidInstance"
	case resultSyntaxError:
		return "SyntaxError"
	case resultEmptySolution:
		return "EmptySolution"
	case resultSolverError:
		return "SolverError"
	case resultSystemError:
		return "SystemError"
	case resultTimeout:
		return "Timeout"
	default:
		return "Unknown"
	}
}

// Outcome bundles everything a finished job reports upstream: the
// classification, the measured wall-clock runtime, and any SolutionInfos
// harvested by the checker (nil unless the job reached Checking).
type Outcome struct {
	Result  Result
	Runtime time.Duration
	Infos   []checker.KV
}

// Descriptor is the control record handed to the upload aggregator for
// instances carrying a digest.
type Descriptor struct {
	IDigest [16]byte
	Runtime time.Duration
	Outcome Outcome
}
