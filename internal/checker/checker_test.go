package checker

import (
	"os"
	"path/filepath"
	"testing"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %q: %v", path, err)
	}
}

func TestProcess_Valid(t *testing.T) {
	dir := t.TempDir()
	instance := filepath.Join(dir, "a.gr")
	solution := filepath.Join(dir, "a.out")
	write(t, instance, "p htd 4 1\n1 2 3 4\n")
	write(t, solution, "s htd 2\n1 2\n3 4\n#s solver_time 1.5\n")

	outcome, infos, err := Process(instance, solution)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !outcome.IsValid() {
		t.Fatalf("expected valid outcome, got %v", outcome)
	}
	if outcome.Size() != 2 {
		t.Errorf("Size() = %d, want 2", outcome.Size())
	}

	found := false
	for _, kv := range infos {
		if kv.Key == "solver_time" {
			found = true
		}
	}
	if !found {
		t.Error("expected solver_time in harvested infos")
	}
}

func TestProcess_TreeMatchingFailure(t *testing.T) {
	dir := t.TempDir()
	instance := filepath.Join(dir, "a.gr")
	solution := filepath.Join(dir, "a.out")
	write(t, instance, "p htd 4 1\n1 2 3 4\n")
	write(t, solution, "s htd 1\n1 2 5\n")

	outcome, _, err := Process(instance, solution)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !outcome.IsTreeMatchingFailure() {
		t.Fatalf("expected tree-matching failure, got %v", outcome)
	}
}

func TestProcess_EmptySolution(t *testing.T) {
	dir := t.TempDir()
	instance := filepath.Join(dir, "a.gr")
	solution := filepath.Join(dir, "a.out")
	write(t, instance, "p htd 4 1\n1 2 3 4\n")
	write(t, solution, "s htd 0\n")

	outcome, _, err := Process(instance, solution)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !outcome.IsEmptySolution() {
		t.Fatalf("expected empty solution, got %v", outcome)
	}
}

func TestProcess_InstanceSyntaxError(t *testing.T) {
	dir := t.TempDir()
	instance := filepath.Join(dir, "a.gr")
	solution := filepath.Join(dir, "a.out")
	write(t, instance, "not a header\n")
	write(t, solution, "s htd 1\n1 2\n")

	outcome, _, err := Process(instance, solution)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !outcome.IsInstanceSyntaxError() {
		t.Fatalf("expected instance syntax error, got %v", outcome)
	}
}

func TestProcess_SolutionSyntaxError(t *testing.T) {
	dir := t.TempDir()
	instance := filepath.Join(dir, "a.gr")
	solution := filepath.Join(dir, "a.out")
	write(t, instance, "p htd 4 1\n1 2 3 4\n")
	write(t, solution, "garbage\n")

	outcome, _, err := Process(instance, solution)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !outcome.IsSolutionSyntaxError() {
		t.Fatalf("expected solution syntax error, got %v", outcome)
	}
}
