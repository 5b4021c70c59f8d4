package store

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fleetlens/fleetlens/internal/errors"
)

// ReportStore persists generated CSV artifacts in a flat directory.
// Artifacts are create-once and immutable; there is no indexing and no
// metadata beyond the filesystem.
type ReportStore struct {
	dir string
}

// NewReportStore creates a report store rooted at dir.
func NewReportStore(dir string) *ReportStore {
	return &ReportStore{dir: dir}
}

// Save writes a report artifact and returns its path.
func (s *ReportStore) Save(data []byte, filename string) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", &errors.ErrFileWrite{Path: s.dir, Err: err}
	}

	path := filepath.Join(s.dir, filepath.Base(filename))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", &errors.ErrFileWrite{Path: path, Err: err}
	}
	return path, nil
}

// List returns stored report filenames, filtered to *.csv, sorted.
func (s *ReportStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, &errors.ErrFileRead{Path: s.dir, Err: err}
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(entry.Name(), ".csv") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Path resolves a stored report filename to its on-disk path. The filename
// is reduced to its base name so callers cannot escape the directory.
// Returns ErrNotFound when the artifact does not exist.
func (s *ReportStore) Path(filename string) (string, error) {
	path := filepath.Join(s.dir, filepath.Base(filename))
	if _, err := os.Stat(path); err != nil {
		return "", &errors.ErrNotFound{Resource: "report " + filename}
	}
	return path, nil
}
