package summary

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/manpen/stride/internal/checker"
	"github.com/manpen/stride/internal/jobprocessor"
)

const fileName = "summary.ndjson"

// Entry is one finished job as reported to AddEntry.
type Entry struct {
	ShortName string
	Path      string
	IDigest   *[16]byte
	PrevBest  *uint32
	Result    jobprocessor.Result
	Infos     []checker.KV
}

// Writer serializes Entry values to an append-only NDJSON file.
type Writer struct {
	mu     sync.Mutex
	f      *os.File
	logger *slog.Logger
}

// Open creates (or truncates) "summary.ndjson" inside dir.
func Open(dir string, logger *slog.Logger) (*Writer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	f, err := os.OpenFile(dir+string(os.PathSeparator)+fileName, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("summary: open: %w", err)
	}
	return &Writer{f: f, logger: logger}, nil
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Close()
}

// AddEntry writes one NDJSON row for e, merging infos with last-write-wins
// semantics and warning on collision with a reserved field.
func (w *Writer) AddEntry(e Entry) error {
	row := orderedMap{}
	row.set("s_name", e.ShortName)
	if e.Path != "" {
		row.set("s_path", e.Path)
	}
	if e.IDigest != nil {
		row.set("s_idigest", hex.EncodeToString(e.IDigest[:]))
	}
	if e.PrevBest != nil {
		row.set("s_prev_best", *e.PrevBest)
	}
	row.set("s_result", e.Result.String())
	if e.Result.IsValid() {
		row.set("s_score", e.Result.Size())
	}

	for _, kv := range e.Infos {
		var v any
		if err := json.Unmarshal(kv.Value, &v); err != nil {
			v = string(kv.Value)
		}
		if row.has(kv.Key) {
			w.logger.Warn("summary: info key collides with reserved field", "key", kv.Key)
		}
		row.set(kv.Key, v)
	}

	line, err := json.Marshal(row.asMap())
	if err != nil {
		return fmt.Errorf("summary: marshal: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("summary: write: %w", err)
	}
	return w.f.Sync()
}

// orderedMap keeps insertion order out of courtesy to readers of the
// NDJSON file; json.Marshal of a plain map would sort keys alphabetically.
type orderedMap struct {
	keys   []string
	values map[string]any
}

func (m *orderedMap) set(key string, value any) {
	if m.values == nil {
		m.values = make(map[string]any)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

func (m *orderedMap) has(key string) bool {
	_, ok := m.values[key]
	return ok
}

func (m *orderedMap) asMap() json.RawMessage {
	buf := []byte{'{'}
	for i, k := range m.keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		key, _ := json.Marshal(k)
		val, _ := json.Marshal(m.values[k])
		buf = append(buf, key...)
		buf = append(buf, ':')
		buf = append(buf, val...)
	}
	buf = append(buf, '}')
	return buf
}
