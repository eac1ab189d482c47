package scheduler

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/manpen/stride/internal/display"
	"github.com/manpen/stride/internal/instanceset"
	"github.com/manpen/stride/internal/rundir"
	"github.com/manpen/stride/internal/summary"
)

func writeSolver(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "solver.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write solver: %v", err)
	}
	return path
}

func newInstance(t *testing.T, dir, name string) *instanceset.Instance {
	t.Helper()
	path := filepath.Join(dir, name+".gr")
	if err := os.WriteFile(path, []byte("p htd 4 1\n1 2 3 4\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return &instanceset.Instance{ShortName: name, Path: path}
}

func TestScheduler_RunsAllInstancesBoundedParallelism(t *testing.T) {
	base := t.TempDir()
	solver := writeSolver(t, base, `cat > /dev/null; echo 's htd 2'; echo '1 2'; echo '3 4'`)

	fs := afero.NewOsFs()
	rd, err := rundir.New(fs, filepath.Join(base, "runs"))
	if err != nil {
		t.Fatalf("rundir.New: %v", err)
	}

	sw, err := summary.Open(rd.Path(), slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	if err != nil {
		t.Fatalf("summary.Open: %v", err)
	}
	defer sw.Close()

	var buf bytes.Buffer
	disp := display.New(&buf, 5)

	tc := TaskContext{
		Fs:          fs,
		SolverPath:  solver,
		SoftTimeout: 2 * time.Second,
		GracePeriod: time.Second,
		RunDir:      rd,
		Summary:     sw,
		Display:     disp,
		Logger:      slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
	}

	instances := make([]*instanceset.Instance, 0, 5)
	for i := 0; i < 5; i++ {
		instances = append(instances, newInstance(t, base, fmt.Sprintf("inst%d", i)))
	}

	sched := New(tc, 2)
	if err := sched.Run(context.Background(), instances); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := disp.FinishedCount(); got != int64(len(instances)) {
		t.Errorf("finished count = %d, want %d", got, len(instances))
	}
}
