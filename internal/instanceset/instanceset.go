package instanceset

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrIsDirectory is returned when a path given directly to ParseAndInsert
// turns out to be a directory rather than an instance or list file.
var ErrIsDirectory = errors.New("instanceset: expected a file, got a directory")

const listFileExt = ".lst"

// Set is a deduplicated collection of Instances, built up by repeated
// calls to ParseAndInsert. Create one with New: the zero value has nil
// maps and panics on the first insert.
type Set struct {
	names     map[string]struct{}  // all short names handed out so far
	byPath    map[string]*Instance // canonical path -> instance, for dedup
	instances []*Instance          // insertion order
	seenLists map[string]struct{}  // canonical list-file paths already expanded, guards cycles
}

func New() *Set {
	return &Set{
		names:     make(map[string]struct{}),
		byPath:    make(map[string]*Instance),
		seenLists: make(map[string]struct{}),
	}
}

// Len returns the number of distinct instances collected so far.
func (s *Set) Len() int { return len(s.instances) }

// Instances returns the collected instances in insertion order.
func (s *Set) Instances() []*Instance { return s.instances }

// ParseAndInsert interprets path: a .lst file is expanded as a list file,
// a glob (containing * or ?) is expanded to its matches, anything else is
// inserted directly as a single instance.
func (s *Set) ParseAndInsert(path string) error {
	if strings.ContainsAny(path, "*?") {
		matches, err := expandGlob(path)
		if err != nil {
			return fmt.Errorf("instanceset: glob %q: %w", path, err)
		}
		for _, m := range matches {
			if err := s.insertPathOrList(m); err != nil {
				return err
			}
		}
		return nil
	}
	return s.insertPathOrList(path)
}

func (s *Set) insertPathOrList(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("instanceset: stat %q: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %q", ErrIsDirectory, path)
	}

	if strings.EqualFold(filepath.Ext(path), listFileExt) {
		return s.parseListFile(path)
	}
	return s.insertInstance(path)
}

// parseListFile reads a .lst file: blank lines and #-prefixed comments are
// ignored, relative entries resolve against the list file's canonical
// parent directory, glob entries expand, and nested .lst entries recurse.
func (s *Set) parseListFile(path string) error {
	canonical, err := canonicalize(path)
	if err != nil {
		return err
	}
	if _, seen := s.seenLists[canonical]; seen {
		return nil
	}
	s.seenLists[canonical] = struct{}{}

	parent := filepath.Dir(canonical)

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("instanceset: open list file %q: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		entry := line
		if !filepath.IsAbs(entry) {
			entry = filepath.Join(parent, entry)
		}

		if err := s.ParseAndInsert(entry); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("instanceset: read list file %q: %w", path, err)
	}
	return nil
}

// expandGlob expands pattern, treating it as recursive by default: unless
// the caller already used an explicit "**", one is inserted before the
// final path component so e.g. "data/*.gr" also matches nested
// directories under data/.
func expandGlob(pattern string) ([]string, error) {
	if !strings.Contains(pattern, "**") {
		dir, file := filepath.Split(pattern)
		pattern = filepath.Join(dir, "**", file)
	}
	return doublestar.FilepathGlob(pattern)
}

func (s *Set) insertInstance(path string) error {
	canonical, err := canonicalize(path)
	if err != nil {
		return err
	}

	if _, exists := s.byPath[canonical]; exists {
		return nil
	}

	inst := &Instance{
		ShortName: s.uniqueShortName(canonical),
		Path:      canonical,
		IDigest:   extractIDigest(canonical),
	}
	s.byPath[canonical] = inst
	s.instances = append(s.instances, inst)
	return nil
}

func canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("instanceset: absolute path for %q: %w", path, err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return abs, nil
}

// uniqueShortName implements the short_name policy of §4.2: start with
// the file stem, disambiguate by appending successive parent directory
// names, and fall back to a numeric suffix.
func (s *Set) uniqueShortName(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if stem == "" {
		return s.uniqueByCounter("unnamed")
	}

	name := stem
	dir := filepath.Dir(path)
	for {
		if _, taken := s.names[name]; !taken {
			s.names[name] = struct{}{}
			return name
		}

		parentName := filepath.Base(dir)
		nextDir := filepath.Dir(dir)
		if parentName == "" || parentName == "." || parentName == string(filepath.Separator) || nextDir == dir {
			return s.uniqueByCounter(stem)
		}

		name = name + "_" + parentName
		dir = nextDir
	}
}

func (s *Set) uniqueByCounter(prefix string) string {
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s-%d", prefix, i)
		if _, taken := s.names[candidate]; !taken {
			s.names[candidate] = struct{}{}
			return candidate
		}
	}
}

var idigestHeaderLine = regexp.MustCompile(`^#s\s+idigest\s+"([0-9a-fA-F]{32})"\s*$`)

// extractIDigest scans the instance's leading #-prefixed header lines for
// a `#s idigest "<32 hex chars>"` line; it stops at the first non-header
// line. Returns nil if no such line is found or the file can't be read.
func extractIDigest(path string) *[16]byte {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "#") {
			return nil
		}

		if m := idigestHeaderLine.FindStringSubmatch(line); m != nil {
			raw, err := hex.DecodeString(m[1])
			if err != nil || len(raw) != 16 {
				return nil
			}
			var digest [16]byte
			copy(digest[:], raw)
			return &digest
		}
	}
	return nil
}
