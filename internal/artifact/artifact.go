package artifact

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Ref is the location of a single persisted artifact on the local filesystem.
type Ref string

// Path returns the filesystem path of the artifact.
func (r Ref) Path() string {
	return string(r)
}

// Roots holds the two externally agreed output directories: one for raw data
// artifacts and one for rendered figures.
type Roots struct {
	Data    string
	Figures string
}

// DataRef returns a Ref for a file name under the data root.
func (r Roots) DataRef(name string) Ref {
	return Ref(filepath.Join(r.Data, name))
}

// FigureRef returns a Ref for a file name under the figure root.
func (r Roots) FigureRef(name string) Ref {
	return Ref(filepath.Join(r.Figures, name))
}

// Ensure creates both output roots if they do not exist yet.
func (r Roots) Ensure() error {
	for _, dir := range []string{r.Data, r.Figures} {
		if dir == "" {
			return fmt.Errorf("artifact root not configured")
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create artifact root %s: %w", dir, err)
		}
	}
	return nil
}

// CreateAtomic writes an artifact by streaming into a temporary file in the
// target directory and renaming it into place on success. On any error the
// temporary file is removed and the declared location is left untouched.
func CreateAtomic(ref Ref, write func(w io.Writer) error) error {
	dir := filepath.Dir(ref.Path())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifact directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-artifact-*")
	if err != nil {
		return fmt.Errorf("create temporary artifact: %w", err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	// CreateTemp starts at 0600; published artifacts are ordinary data
	// files and stay readable like any other output.
	if err := tmp.Chmod(0o644); err != nil {
		cleanup()
		return fmt.Errorf("set artifact permissions: %w", err)
	}

	if err := write(tmp); err != nil {
		cleanup()
		return fmt.Errorf("write artifact %s: %w", ref, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temporary artifact: %w", err)
	}
	if err := os.Rename(tmpName, ref.Path()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("publish artifact %s: %w", ref, err)
	}
	return nil
}
