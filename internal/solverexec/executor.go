package solverexec

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

// Executor runs a single solver invocation against a single instance,
// enforcing the timeout -> SIGTERM -> grace -> SIGKILL escalation.
type Executor struct {
	cfg Config
}

// New builds an Executor for cfg.
func New(cfg Config) *Executor {
	return &Executor{cfg: cfg}
}

// Run spawns the solver, waits for it (subject to ctx cancellation for
// immediate teardown), and returns how it ended. Any IO error at spawn
// time or while preparing the log files is returned as-is.
func (e *Executor) Run(ctx context.Context) (ChildExitStatus, error) {
	cmd, stdoutF, stderrF, err := e.spawn()
	if stdoutF != nil {
		defer stdoutF.Close()
	}
	if stderrF != nil {
		defer stderrF.Close()
	}
	if err != nil {
		return ChildExitStatus{}, err
	}

	return e.waitWithEscalation(ctx, cmd)
}

func (e *Executor) spawn() (*exec.Cmd, *os.File, *os.File, error) {
	stdin, err := os.Open(e.cfg.InstancePath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("solverexec: open instance %q: %w", e.cfg.InstancePath, err)
	}
	defer stdin.Close()

	stdoutF, err := os.Create(filepath.Join(e.cfg.WorkingDir, PATH_STDOUT))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("solverexec: create stdout log: %w", err)
	}

	stderrF, err := os.Create(filepath.Join(e.cfg.WorkingDir, PATH_STDERR))
	if err != nil {
		return nil, stdoutF, nil, fmt.Errorf("solverexec: create stderr log: %w", err)
	}

	fmt.Fprintf(stdoutF, "# cmd: %s %s\n", e.cfg.SolverPath, strings.Join(e.cfg.Args, " "))
	fmt.Fprintf(stdoutF, "# instance: %s\n", e.cfg.InstancePath)

	cmd := exec.Command(e.cfg.SolverPath, e.cfg.Args...)
	cmd.Env = e.cfg.Env
	cmd.Stdin = stdin
	cmd.Stdout = stdoutF
	cmd.Stderr = stderrF

	if err := cmd.Start(); err != nil {
		return nil, stdoutF, stderrF, fmt.Errorf("solverexec: spawn %q: %w", e.cfg.SolverPath, err)
	}

	return cmd, stdoutF, stderrF, nil
}

// waitWithEscalation implements the timeout -> SIGTERM -> grace -> SIGKILL
// state machine of §4.3. Dropping ctx (the run is torn down) kills the
// child immediately, the Go analogue of the original's kill_on_drop.
func (e *Executor) waitWithEscalation(ctx context.Context, cmd *exec.Cmd) (ChildExitStatus, error) {
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		return exitStatusFrom(BeforeTimeout, cmd, err)
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-done
		return TimedOut(), nil
	case <-time.After(e.cfg.Timeout):
	}

	_ = cmd.Process.Signal(syscall.SIGTERM)

	if e.cfg.Grace > 0 {
		select {
		case err := <-done:
			return exitStatusFrom(WithinGrace, cmd, err)
		case <-ctx.Done():
			_ = cmd.Process.Kill()
			<-done
			return TimedOut(), nil
		case <-time.After(e.cfg.Grace):
		}
	}

	_ = cmd.Process.Kill()
	<-done
	return TimedOut(), nil
}

func exitStatusFrom(wrap func(int) ChildExitStatus, cmd *exec.Cmd, waitErr error) (ChildExitStatus, error) {
	if waitErr == nil {
		return wrap(0), nil
	}

	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return wrap(exitErr.ExitCode()), nil
	}

	return ChildExitStatus{}, fmt.Errorf("solverexec: wait for %q: %w", cmd.Path, waitErr)
}
