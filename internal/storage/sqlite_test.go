package storage

import (
	"path/filepath"
	"testing"
)

func setupTestCache(t *testing.T) *SQLiteBestKnownCache {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache.db")

	cache, err := NewSQLiteBestKnownCache(path)
	if err != nil {
		t.Fatalf("NewSQLiteBestKnownCache: %v", err)
	}
	if err := cache.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}

func digestOf(b byte) [16]byte {
	var d [16]byte
	d[0] = b
	return d
}

func TestInit_CreatesTable(t *testing.T) {
	cache := setupTestCache(t)

	var count int
	err := cache.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name = 'best_known'").Scan(&count)
	if err != nil {
		t.Fatalf("query tables: %v", err)
	}
	if count != 1 {
		t.Errorf("expected best_known table, count = %d", count)
	}
}

func TestGet_MissingReturnsFalse(t *testing.T) {
	cache := setupTestCache(t)

	_, ok, err := cache.Get(digestOf(1))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("expected no entry for unseen digest")
	}
}

func TestPut_ThenGet(t *testing.T) {
	cache := setupTestCache(t)
	d := digestOf(2)

	if err := cache.Put(d, 42); err != nil {
		t.Fatalf("Put: %v", err)
	}

	score, ok, err := cache.Get(d)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || score != 42 {
		t.Fatalf("Get() = (%d, %v), want (42, true)", score, ok)
	}
}

func TestPut_OnlyImprovesScore(t *testing.T) {
	cache := setupTestCache(t)
	d := digestOf(3)

	if err := cache.Put(d, 10); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := cache.Put(d, 20); err != nil {
		t.Fatalf("Put (worse): %v", err)
	}

	score, _, err := cache.Get(d)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if score != 10 {
		t.Errorf("score = %d, want 10 (worse score must not overwrite)", score)
	}

	if err := cache.Put(d, 5); err != nil {
		t.Fatalf("Put (better): %v", err)
	}
	score, _, err = cache.Get(d)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if score != 5 {
		t.Errorf("score = %d, want 5 (better score must overwrite)", score)
	}
}
