package summary

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/manpen/stride/internal/checker"
	"github.com/manpen/stride/internal/jobprocessor"
)

func TestAddEntry_WritesValidRow(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(dir, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer w.Close()

	var digest [16]byte
	copy(digest[:], []byte("0123456789abcdef"))

	err = w.AddEntry(Entry{
		ShortName: "a",
		Path:      "/tmp/a.gr",
		IDigest:   &digest,
		Result:    jobprocessor.ResultValid(3),
		Infos:     []checker.KV{{Key: "solver_time", Value: json.RawMessage("1.5")}},
	})
	if err != nil {
		t.Fatalf("AddEntry: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, fileName))
	if err != nil {
		t.Fatalf("open summary file: %v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		t.Fatal("expected one line")
	}

	var row map[string]any
	if err := json.Unmarshal(scanner.Bytes(), &row); err != nil {
		t.Fatalf("unmarshal row: %v", err)
	}
	if row["s_name"] != "a" {
		t.Errorf("s_name = %v, want a", row["s_name"])
	}
	if row["s_result"] != "Valid" {
		t.Errorf("s_result = %v, want Valid", row["s_result"])
	}
	if row["s_score"].(float64) != 3 {
		t.Errorf("s_score = %v, want 3", row["s_score"])
	}
	if row["solver_time"].(float64) != 1.5 {
		t.Errorf("solver_time = %v, want 1.5", row["solver_time"])
	}
}

func TestAddEntry_MultipleLinesAppend(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(dir, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer w.Close()

	for i := 0; i < 3; i++ {
		if err := w.AddEntry(Entry{ShortName: "x", Result: jobprocessor.ResultTimeout()}); err != nil {
			t.Fatalf("AddEntry: %v", err)
		}
	}

	f, err := os.Open(filepath.Join(dir, fileName))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	lines := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines++
	}
	if lines != 3 {
		t.Errorf("lines = %d, want 3", lines)
	}
}
