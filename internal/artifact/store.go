package artifact

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Store probes the local filesystem for artifact completeness. It holds no
// state of its own, performs no writes, and is safe to call repeatedly.
type Store struct{}

// NewStore returns a filesystem-backed artifact store probe.
func NewStore() *Store {
	return &Store{}
}

// Complete reports whether every ref exists as a non-empty regular file.
//
// Probe failures are conservative: an unreadable location counts as "not
// complete" so the task re-runs, except for permission errors, which are
// returned to the caller for escalation as a task-level failure.
func (s *Store) Complete(refs []Ref) (bool, error) {
	if len(refs) == 0 {
		// A task with no declared outputs can never be skipped.
		return false, nil
	}
	for _, ref := range refs {
		info, err := os.Stat(ref.Path())
		if err != nil {
			if errors.Is(err, fs.ErrPermission) {
				return false, fmt.Errorf("probe artifact %s: %w", ref, err)
			}
			return false, nil
		}
		if !info.Mode().IsRegular() || info.Size() == 0 {
			return false, nil
		}
	}
	return true, nil
}
