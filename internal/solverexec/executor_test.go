package solverexec

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeInstance(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "instance.gr")
	if err := os.WriteFile(path, []byte("p htd 2 1\n1 2\n"), 0o644); err != nil {
		t.Fatalf("write instance: %v", err)
	}
	return path
}

func scriptSolver(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "solver.sh")
	content := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		t.Fatalf("write solver: %v", err)
	}
	return path
}

func TestExecutor_SuccessBeforeTimeout(t *testing.T) {
	dir := t.TempDir()
	instance := writeInstance(t, dir)
	solver := scriptSolver(t, dir, "cat > /dev/null; echo '0 1'")

	ex := New(Config{
		InstancePath: instance,
		WorkingDir:   dir,
		SolverPath:   solver,
		Timeout:      2 * time.Second,
		Grace:        time.Second,
	})

	status, err := ex.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !status.IsSuccess() {
		t.Fatalf("expected success, got %v", status)
	}

	stdout, err := os.ReadFile(filepath.Join(dir, PATH_STDOUT))
	if err != nil {
		t.Fatalf("read stdout: %v", err)
	}
	if !strings.Contains(string(stdout), "# cmd:") || !strings.Contains(string(stdout), "# instance:") {
		t.Errorf("expected header lines in stdout, got %q", stdout)
	}
}

func TestExecutor_SolverExitsNonZero(t *testing.T) {
	dir := t.TempDir()
	instance := writeInstance(t, dir)
	solver := scriptSolver(t, dir, "exit 1")

	ex := New(Config{
		InstancePath: instance,
		WorkingDir:   dir,
		SolverPath:   solver,
		Timeout:      2 * time.Second,
		Grace:        time.Second,
	})

	status, err := ex.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if status.IsSuccess() {
		t.Fatal("expected failure")
	}
	if status.IsTimeout() {
		t.Fatal("expected non-timeout failure")
	}
	if status.ExitCode() != 1 {
		t.Errorf("ExitCode() = %d, want 1", status.ExitCode())
	}
}

func TestExecutor_TimeoutIdleSolverRespectsTerm(t *testing.T) {
	dir := t.TempDir()
	instance := writeInstance(t, dir)
	// traps SIGTERM and exits promptly so it finishes within the grace period.
	solver := scriptSolver(t, dir, `trap 'exit 0' TERM; sleep 10 & wait`)

	ex := New(Config{
		InstancePath: instance,
		WorkingDir:   dir,
		SolverPath:   solver,
		Timeout:      200 * time.Millisecond,
		Grace:        time.Second,
	})

	start := time.Now()
	status, err := ex.Run(context.Background())
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if status.IsTimeout() {
		t.Fatal("expected the solver to exit within the grace period, not be SIGKILLed")
	}
	if elapsed > 1500*time.Millisecond {
		t.Errorf("took %v, expected to finish well within timeout+grace", elapsed)
	}
}

func TestExecutor_TimeoutStubbornSolverIsKilled(t *testing.T) {
	dir := t.TempDir()
	instance := writeInstance(t, dir)
	solver := scriptSolver(t, dir, `trap '' TERM; sleep 10`)

	ex := New(Config{
		InstancePath: instance,
		WorkingDir:   dir,
		SolverPath:   solver,
		Timeout:      200 * time.Millisecond,
		Grace:        200 * time.Millisecond,
	})

	start := time.Now()
	status, err := ex.Run(context.Background())
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !status.IsTimeout() {
		t.Fatalf("expected Timeout, got %v", status)
	}
	if elapsed > 2*time.Second {
		t.Errorf("took %v, expected SIGKILL shortly after timeout+grace", elapsed)
	}
}

func TestExecutor_ContextCancellationKillsImmediately(t *testing.T) {
	dir := t.TempDir()
	instance := writeInstance(t, dir)
	solver := scriptSolver(t, dir, `trap '' TERM; sleep 10`)

	ex := New(Config{
		InstancePath: instance,
		WorkingDir:   dir,
		SolverPath:   solver,
		Timeout:      10 * time.Second,
		Grace:        time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	status, err := ex.Run(ctx)
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !status.IsTimeout() {
		t.Fatalf("expected Timeout after cancellation, got %v", status)
	}
	if elapsed > time.Second {
		t.Errorf("took %v, expected prompt teardown on cancellation", elapsed)
	}
}
