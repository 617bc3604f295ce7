// Package staging provides the on-disk segment store used by the long-text
// pipeline. Staged artifacts outlive a single process invocation so that an
// interrupted run can resume without regenerating completed segments.
package staging

import (
	"fmt"
	"os"
	"path/filepath"
)

// Directory and file naming.
const (
	// DirName is the staging directory created beside the output file.
	DirName = "voice_parts"

	partFileFormat = "part_%04d.wav"
	dirPermissions = 0o750
)

// DirStore stages one audio artifact per segment index inside a single
// directory. Existence of a non-empty artifact is the sole completion
// marker; completed artifacts are never overwritten, only kept.
type DirStore struct {
	dir string
}

// NewDirStore creates a store rooted at dir. The directory is not touched
// until Init is called.
func NewDirStore(dir string) *DirStore {
	return &DirStore{dir: dir}
}

// Init creates the staging directory if it does not exist yet. Safe to call
// on every run; resumed runs find their previous artifacts in place.
func (s *DirStore) Init() error {
	mkdirErr := os.MkdirAll(s.dir, dirPermissions)
	if mkdirErr != nil {
		return fmt.Errorf(
			"failed to create staging directory %s: %w",
			s.dir,
			mkdirErr,
		)
	}

	return nil
}

// Dir returns the staging directory path.
func (s *DirStore) Dir() string {
	return s.dir
}

// Path returns the deterministic artifact path for a 1-based segment index,
// zero-padded to four digits so lexical and index order agree.
func (s *DirStore) Path(index int) string {
	return filepath.Join(s.dir, fmt.Sprintf(partFileFormat, index))
}

// Completed reports whether the segment's artifact exists and is non-empty.
// A zero-byte file is treated as incomplete so that a crash between create
// and write does not mask a missing segment.
func (s *DirStore) Completed(index int) (bool, error) {
	info, statErr := os.Stat(s.Path(index))
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return false, nil
		}

		return false, fmt.Errorf(
			"failed to check staged segment %d: %w",
			index,
			statErr,
		)
	}

	return info.Size() > 0, nil
}
