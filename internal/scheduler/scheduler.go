package scheduler

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/spf13/afero"
	"golang.org/x/sync/semaphore"

	"github.com/manpen/stride/internal/display"
	"github.com/manpen/stride/internal/instanceset"
	"github.com/manpen/stride/internal/jobprocessor"
	"github.com/manpen/stride/internal/summary"
)

// tickInterval bounds both the semaphore acquisition wait and the
// postprocessing poll, so the display keeps refreshing even while every
// permit is held or only stragglers remain.
const tickInterval = 25 * time.Millisecond

// Scheduler runs every instance in ctx.RunDir's run through the Job
// Processor, bounded to a fixed number of concurrently live children.
type Scheduler struct {
	tc          TaskContext
	parallelism int
	running     atomic.Int64
}

// New builds a Scheduler with the given parallelism (the semaphore's
// capacity P) and shared task context.
func New(tc TaskContext, parallelism int) *Scheduler {
	if parallelism < 1 {
		parallelism = 1
	}
	return &Scheduler{tc: tc, parallelism: parallelism}
}

// Run dispatches every instance, waits for all outstanding tasks to
// finish, and returns. Cancelling ctx stops pulling new instances and
// waits for already-spawned tasks to drain; the same ctx is handed to
// every job, so the Job Processor kills their running children.
func (s *Scheduler) Run(ctx context.Context, instances []*instanceset.Instance) error {
	sem := semaphore.NewWeighted(int64(s.parallelism))

	stop := make(chan struct{})
	go display.Tick(s.tc.Display, tickInterval, stop)

	var wg conc.WaitGroup

	for _, inst := range instances {
		inst := inst

		for {
			acqCtx, cancel := context.WithTimeout(ctx, tickInterval)
			err := sem.Acquire(acqCtx, 1)
			cancel()
			if err == nil {
				break
			}
			if ctx.Err() != nil {
				close(stop)
				wg.Wait()
				return ctx.Err()
			}
		}

		s.running.Add(1)
		s.tc.Display.SetRunning(int(s.running.Load()))

		var released atomic.Bool
		release := func() {
			if released.CompareAndSwap(false, true) {
				sem.Release(1)
				s.tc.Display.SetRunning(int(s.running.Add(-1)))
			}
		}

		wg.Go(func() { s.taskMain(ctx, inst, release) })
	}

	s.tc.Display.EnterPostprocessing()

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			close(stop)
			return nil
		case <-ticker.C:
			s.tc.Display.Render()
		}
	}
}

// taskMain is the body of one independent per-instance task. A panic here
// is recovered and reported as a SystemError so it stays confined to this
// task; the Scheduler keeps dispatching the rest of the run.
func (s *Scheduler) taskMain(ctx context.Context, inst *instanceset.Instance, release func()) {
	defer func() {
		if r := recover(); r != nil {
			release()
			s.tc.Logger.Error("panic in job task", "instance", inst.ShortName, "panic", r)
			s.tc.Display.FinishJob(jobprocessor.ResultSystemError())
		}
	}()

	workDir, err := s.tc.RunDir.CreateTaskDir(inst.ShortName)
	if err != nil {
		release()
		s.tc.Logger.Error("create task dir", "instance", inst.ShortName, "error", err)
		s.tc.Display.FinishJob(jobprocessor.ResultSystemError())
		return
	}

	job := jobprocessor.New(jobprocessor.Config{
		SolverPath:  s.tc.SolverPath,
		SolverArgs:  s.tc.SolverArgs,
		Env:         s.tc.Env,
		SoftTimeout: s.tc.SoftTimeout,
		GracePeriod: s.tc.GracePeriod,
		ForwardEnv:  s.tc.ForwardEnv,
	}, workDir, inst.Path, s.tc.Logger)

	outcome := job.Run(ctx)
	release()

	s.tc.Display.FinishJob(outcome.Result)
	if s.tc.Stats != nil {
		s.tc.Stats.Record(outcome)
	}

	prevBest := s.submitToUploader(inst, outcome)

	if s.tc.Summary != nil {
		entry := summary.Entry{
			ShortName: inst.ShortName,
			Path:      inst.Path,
			IDigest:   inst.IDigest,
			PrevBest:  prevBest,
			Result:    outcome.Result,
			Infos:     outcome.Infos,
		}
		if err := s.tc.Summary.AddEntry(entry); err != nil {
			s.tc.Logger.Error("write summary row", "instance", inst.ShortName, "error", err)
		}
	}

	s.finalizeWorkDir(workDir, inst, outcome, prevBest)
}

// submitToUploader implements the digest-gating and fire-and-forget rules
// of the Upload Aggregator contract.
func (s *Scheduler) submitToUploader(inst *instanceset.Instance, outcome jobprocessor.Outcome) *uint32 {
	if inst.IDigest == nil || s.tc.Uploader == nil {
		return nil
	}

	desc := jobprocessor.Descriptor{IDigest: *inst.IDigest, Runtime: outcome.Runtime, Outcome: outcome}

	switch {
	case outcome.Result.IsValid() && outcome.Result.Size() > 0:
		return s.tc.Uploader.SubmitAndAwait(desc)
	case outcome.Result.IsValid():
		return nil
	case outcome.Result.IsTimeout() || outcome.Result.IsInfeasible():
		s.tc.Uploader.SubmitFireAndForget(desc)
		return nil
	default:
		return nil
	}
}

// finalizeWorkDir moves the job's working directory into its per-outcome
// bucket or removes it, per the keep_logs / outcome / require_optimal
// rules, and symlinks stdin back to the original instance for post-mortem
// inspection of kept directories.
func (s *Scheduler) finalizeWorkDir(workDir string, inst *instanceset.Instance, outcome jobprocessor.Outcome, prevBest *uint32) {
	suboptimal := s.tc.RequireOptimal && prevBest != nil && outcome.Result.IsValid() && uint32(outcome.Result.Size()) > *prevBest
	keep := s.tc.KeepLogs || !outcome.Result.IsValid() || suboptimal

	if !keep {
		if err := s.tc.Fs.RemoveAll(workDir); err != nil {
			s.tc.Logger.Warn("remove work dir", "dir", workDir, "error", err)
		}
		return
	}

	bucketDir := filepath.Join(s.tc.RunDir.Path(), outcome.Result.String())
	if err := s.tc.Fs.MkdirAll(bucketDir, 0o755); err != nil {
		s.tc.Logger.Warn("create bucket dir", "dir", bucketDir, "error", err)
		return
	}

	bucket := filepath.Join(bucketDir, inst.ShortName)
	if err := s.tc.Fs.Rename(workDir, bucket); err != nil {
		s.tc.Logger.Warn("move work dir", "from", workDir, "to", bucket, "error", err)
		return
	}

	linker, ok := s.tc.Fs.(afero.Symlinker)
	if !ok {
		return
	}
	if err := linker.SymlinkIfPossible(inst.Path, filepath.Join(bucket, "stdin")); err != nil {
		s.tc.Logger.Warn("symlink stdin", "bucket", bucket, "error", fmt.Errorf("symlink: %w", err))
	}
}
