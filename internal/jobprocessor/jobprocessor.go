package jobprocessor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/manpen/stride/internal/checker"
	"github.com/manpen/stride/internal/solverexec"
)

// Config bundles the solver invocation parameters shared by every job in a
// run; it is built once by the scheduler and reused per instance.
type Config struct {
	SolverPath string
	SolverArgs []string
	Env        []string

	SoftTimeout time.Duration
	GracePeriod time.Duration

	ForwardEnv bool
}

// Job drives one instance through Starting -> Running -> Checking ->
// Finished. Progress may be read concurrently via Progress; nothing else
// on Job is safe for concurrent use. The caller owns workDir: it must
// already exist, and Job never removes or moves it.
type Job struct {
	cfg          Config
	workDir      string
	instancePath string
	logger       *slog.Logger

	progress AtomicProgress
}

// New builds a Job for one instance whose working directory has already
// been created by the caller (so the scheduler can relocate or remove it
// after the job finishes).
func New(cfg Config, workDir, instancePath string, logger *slog.Logger) *Job {
	if logger == nil {
		logger = slog.Default()
	}
	return &Job{cfg: cfg, workDir: workDir, instancePath: instancePath, logger: logger}
}

// Progress reports the job's current state; safe to call concurrently
// with Run.
func (j *Job) Progress() Progress { return j.progress.Load() }

// Run executes the full pipeline and returns the final Outcome. It never
// returns an error: any failure along the way is folded into a
// SystemError outcome and logged, matching the "any exception ... is
// reported as SystemError" rule. Cancelling ctx tears the solver child
// down immediately.
func (j *Job) Run(ctx context.Context) Outcome {
	outcome, err := j.runInternal(ctx)
	j.progress.set(Finished)

	if err != nil {
		j.logger.Error("job failed", "instance", j.instancePath, "error", err)
		return Outcome{Result: ResultSystemError()}
	}
	return outcome
}

func (j *Job) runInternal(ctx context.Context) (Outcome, error) {
	env := j.cfg.Env
	if j.cfg.ForwardEnv {
		env = append(append([]string{}, os.Environ()...), j.cfg.Env...)
		env = append(env,
			EnvInstancePath+"="+j.instancePath,
			EnvSoftTimeout+"="+strconv.FormatFloat(j.cfg.SoftTimeout.Seconds(), 'f', -1, 64),
			EnvGracePeriod+"="+strconv.FormatFloat(j.cfg.GracePeriod.Seconds(), 'f', -1, 64),
		)
	}

	executor := solverexec.New(solverexec.Config{
		InstancePath: j.instancePath,
		WorkingDir:   j.workDir,
		SolverPath:   j.cfg.SolverPath,
		Args:         j.cfg.SolverArgs,
		Env:          env,
		Timeout:      j.cfg.SoftTimeout,
		Grace:        j.cfg.GracePeriod,
	})

	j.progress.set(Running)
	start := time.Now()
	status, err := executor.Run(ctx)
	runtime := time.Since(start)
	if runtime < time.Millisecond {
		runtime = time.Millisecond
	}
	if err != nil {
		return Outcome{}, fmt.Errorf("run executor: %w", err)
	}

	if status.IsTimeout() {
		return Outcome{Result: ResultTimeout(), Runtime: runtime}, nil
	}
	if !status.IsSuccess() {
		return Outcome{Result: ResultSolverError(), Runtime: runtime}, nil
	}

	j.progress.set(Checking)
	solutionPath := j.workDir + string(os.PathSeparator) + solverexec.PATH_STDOUT
	outcome, err := j.classifyCheckerOutcome(solutionPath)
	if err != nil {
		return Outcome{}, err
	}
	outcome.Runtime = runtime
	return outcome, nil
}

func (j *Job) classifyCheckerOutcome(solutionPath string) (Outcome, error) {
	result, infos, err := checker.Process(j.instancePath, solutionPath)
	if err != nil {
		return Outcome{}, fmt.Errorf("check solution: %w", err)
	}

	switch {
	case result.IsValid():
		return Outcome{Result: ResultValid(result.Size()), Infos: infos}, nil
	case result.IsInstanceSyntaxError():
		return Outcome{Result: ResultInvalidInstance()}, nil
	case result.IsSolutionSyntaxError():
		return Outcome{Result: ResultSyntaxError()}, nil
	case result.IsEmptySolution():
		return Outcome{Result: ResultEmptySolution()}, nil
	case result.IsTreeMatchingFailure():
		return Outcome{Result: ResultInfeasible()}, nil
	default:
		return Outcome{Result: ResultSystemError()}, nil
	}
}
