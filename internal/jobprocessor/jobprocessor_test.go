package jobprocessor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/manpen/stride/internal/rundir"
)

func writeSolver(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "solver.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write solver: %v", err)
	}
	return path
}

func TestJob_ValidSolution(t *testing.T) {
	base := t.TempDir()
	instance := filepath.Join(base, "a.gr")
	if err := os.WriteFile(instance, []byte("p htd 4 1\n1 2 3 4\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	rd, err := rundir.New(afero.NewOsFs(), filepath.Join(base, "runs"))
	if err != nil {
		t.Fatalf("rundir.New: %v", err)
	}

	solver := writeSolver(t, base, `cat > /dev/null; echo 's htd 2'; echo '1 2'; echo '3 4'`)

	workDir, err := rd.CreateTaskDir("a")
	if err != nil {
		t.Fatalf("CreateTaskDir: %v", err)
	}

	job := New(Config{
		SolverPath:  solver,
		SoftTimeout: 2 * time.Second,
		GracePeriod: time.Second,
	}, workDir, instance, nil)

	outcome := job.Run(context.Background())
	if !outcome.Result.IsValid() {
		t.Fatalf("expected valid result, got %v", outcome.Result)
	}
	if outcome.Result.Size() != 2 {
		t.Errorf("Size() = %d, want 2", outcome.Result.Size())
	}
	if job.Progress() != Finished {
		t.Errorf("Progress() = %v, want Finished", job.Progress())
	}
}

func TestJob_TimeoutClassifiedAsTimeout(t *testing.T) {
	base := t.TempDir()
	instance := filepath.Join(base, "a.gr")
	if err := os.WriteFile(instance, []byte("p htd 4 1\n1 2 3 4\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	rd, err := rundir.New(afero.NewOsFs(), filepath.Join(base, "runs"))
	if err != nil {
		t.Fatalf("rundir.New: %v", err)
	}

	solver := writeSolver(t, base, `trap '' TERM; sleep 10`)

	workDir, err := rd.CreateTaskDir("a")
	if err != nil {
		t.Fatalf("CreateTaskDir: %v", err)
	}

	job := New(Config{
		SolverPath:  solver,
		SoftTimeout: 100 * time.Millisecond,
		GracePeriod: 100 * time.Millisecond,
	}, workDir, instance, nil)

	outcome := job.Run(context.Background())
	if !outcome.Result.IsTimeout() {
		t.Fatalf("expected timeout result, got %v", outcome.Result)
	}
}
