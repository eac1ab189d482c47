package rundir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/afero"
)

// ErrEmptyInstanceName is returned by CreateTaskDir when the requested
// instance short name is empty.
var ErrEmptyInstanceName = errors.New("rundir: empty instance name")

const (
	latestLink      = "latest"
	shortTimeFormat = "run_060102_150405"
	longTimeFormat  = "run_060102_150405.000000"
)

// RunDirectory is the uniquely timestamped root of one invocation, plus
// the bookkeeping needed to hand out collision-free per-instance
// subdirectories under it.
type RunDirectory struct {
	fs   afero.Fs
	root string
}

// New creates parent (if needed), then a uniquely named run_YYMMDD_HHMMSS
// directory beneath it, escalating to microsecond resolution on
// collision, and points parent/latest at it.
func New(fs afero.Fs, parent string) (*RunDirectory, error) {
	if err := fs.MkdirAll(parent, 0o755); err != nil {
		return nil, fmt.Errorf("rundir: create parent %q: %w", parent, err)
	}

	format := shortTimeFormat
	var root string
	for {
		name := time.Now().Format(format)
		candidate := filepath.Join(parent, name)

		err := fs.Mkdir(candidate, 0o755)
		if err == nil {
			root = candidate
			break
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("rundir: create run dir %q: %w", candidate, err)
		}
		format = longTimeFormat
	}

	if err := updateLatestSymlink(fs, parent, filepath.Base(root)); err != nil {
		return nil, err
	}

	return &RunDirectory{fs: fs, root: root}, nil
}

// updateLatestSymlink points parent/latest at newTarget. Losing the race
// against a concurrent run is acceptable: we only replace an existing
// link when its target sorts strictly before ours.
func updateLatestSymlink(fs afero.Fs, parent, newTarget string) error {
	linker, ok := fs.(afero.Symlinker)
	if !ok {
		// filesystems without symlink support (e.g. afero's in-memory
		// filesystem) silently skip the "latest" convenience link.
		return nil
	}
	linkPath := filepath.Join(parent, latestLink)

	for {
		err := linker.SymlinkIfPossible(newTarget, linkPath)
		if err == nil {
			return nil
		}
		if !os.IsExist(err) {
			return fmt.Errorf("rundir: symlink %q: %w", linkPath, err)
		}

		reader, ok := fs.(afero.LinkReader)
		if !ok {
			return nil
		}
		oldTarget, err := reader.ReadlinkIfPossible(linkPath)
		if err != nil {
			return fmt.Errorf("rundir: read existing symlink %q: %w", linkPath, err)
		}

		if oldTarget < newTarget {
			if err := fs.Remove(linkPath); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("rundir: replace symlink %q: %w", linkPath, err)
			}
			continue
		}
		// existing target already sorts at or after ours; leave it be.
		return nil
	}
}

// Path returns the run directory's root path.
func (r *RunDirectory) Path() string {
	return r.root
}

// CreateTaskDir creates root/instanceShortName, appending _2, _3, ... on
// collision until a fresh directory is created.
func (r *RunDirectory) CreateTaskDir(instanceShortName string) (string, error) {
	if instanceShortName == "" {
		return "", ErrEmptyInstanceName
	}

	for attempt := 0; ; attempt++ {
		dir := filepath.Join(r.root, instanceShortName)
		if attempt > 0 {
			dir = filepath.Join(r.root, fmt.Sprintf("%s_%d", instanceShortName, attempt+1))
		}

		err := r.fs.Mkdir(dir, 0o755)
		if err == nil {
			return dir, nil
		}
		if !os.IsExist(err) {
			return "", fmt.Errorf("rundir: create task dir %q: %w", dir, err)
		}
	}
}

// PruneOldest removes lexicographically-oldest run_* directories under
// parent once more than keep remain, implementing the run command's
// --max-run-logs option. keep <= 0 disables pruning.
func PruneOldest(fs afero.Fs, parent string, keep int) error {
	if keep <= 0 {
		return nil
	}

	entries, err := afero.ReadDir(fs, parent)
	if err != nil {
		return fmt.Errorf("rundir: list %q: %w", parent, err)
	}

	var runs []string
	for _, e := range entries {
		if e.IsDir() && len(e.Name()) >= 4 && e.Name()[:4] == "run_" {
			runs = append(runs, e.Name())
		}
	}
	sort.Strings(runs)

	if len(runs) <= keep {
		return nil
	}

	for _, name := range runs[:len(runs)-keep] {
		if err := fs.RemoveAll(filepath.Join(parent, name)); err != nil {
			return fmt.Errorf("rundir: prune %q: %w", name, err)
		}
	}
	return nil
}
