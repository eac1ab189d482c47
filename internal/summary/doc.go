// Package summary writes the append-only NDJSON record of every finished
// job: one JSON object per line, flushed immediately, guarded by a mutex
// so concurrent jobs can call AddEntry safely.
package summary
