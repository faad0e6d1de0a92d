package firmware

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Workspace owns the on-disk scratch state for one pipeline run: a working
// tree that is created at pipeline start and removed only after the final
// artifact is durably written, and the firmware cache directory that
// persists across runs.
type Workspace struct {
	// Root is the run-private working directory. The uuid suffix keeps
	// concurrent or aborted runs from trampling each other's trees.
	Root string
	// FirmwareDir caches downloaded stock images and receives the rooted
	// output image.
	FirmwareDir string
}

func NewWorkspace(baseDir string) (*Workspace, error) {
	// Paths are made absolute up front because the external tools run with
	// their working directory inside the tree.
	baseDir, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, err
	}
	w := &Workspace{
		Root:        filepath.Join(baseDir, "working-"+uuid.NewString()),
		FirmwareDir: filepath.Join(baseDir, "firmware"),
	}
	if err := os.MkdirAll(w.Root, 0755); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(w.FirmwareDir, 0755); err != nil {
		return nil, err
	}
	return w, nil
}

// Path joins elements under the working directory.
func (w *Workspace) Path(elem ...string) string {
	return filepath.Join(append([]string{w.Root}, elem...)...)
}

// Remove deletes the working tree. The firmware cache is left alone.
func (w *Workspace) Remove() error {
	return os.RemoveAll(w.Root)
}
