// Package modelstore persists carrier model sets as one JSON document per
// carrier. Writes are atomic (temp file then rename) so readers never
// observe a partial file; a snapshot that fails to decode is preserved
// aside for forensics rather than crashing the line.
package modelstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/torque.report/internal/fsutil"
	"github.com/banshee-data/torque.report/internal/monitoring"
	"github.com/banshee-data/torque.report/internal/security"
	"github.com/banshee-data/torque.report/internal/torque"
)

// Store reads and writes per-carrier model snapshots under a single
// directory. Concurrent writers to the same carrier file must be
// externally serialized; the Session guarantees this in-process.
type Store struct {
	dir string
	fs  fsutil.FileSystem
}

// New creates a Store rooted at dir, creating the directory if needed. A
// nil fs selects the real filesystem.
func New(dir string, fs fsutil.FileSystem) (*Store, error) {
	if fs == nil {
		fs = fsutil.OSFileSystem{}
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create model directory %s: %w", dir, err)
	}
	return &Store{dir: dir, fs: fs}, nil
}

// path derives the snapshot filename from a sanitized carrier id, so
// arbitrary equipment-supplied ids cannot traverse outside the store.
func (s *Store) path(carrierID string) string {
	return filepath.Join(s.dir, security.SanitizeFilename(carrierID)+".json")
}

// Save writes the carrier's full model set as one JSON document. The
// document is written to a temp file first and renamed into place; on a
// write failure the temp file is removed and a storage error returned.
func (s *Store) Save(carrierID string, models map[string]*torque.HoleModel) error {
	snapshots := make(map[string]torque.HoleSnapshot, len(models))
	for holeID, m := range models {
		snapshots[holeID] = m.Snapshot()
	}

	data, err := json.MarshalIndent(snapshots, "", "  ")
	if err != nil {
		return fmt.Errorf("encode models for carrier %s: %w", carrierID, err)
	}

	path := s.path(carrierID)
	tmp := path + ".tmp"
	if err := s.fs.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot for carrier %s: %w", carrierID, err)
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		if rmErr := s.fs.Remove(tmp); rmErr != nil && !os.IsNotExist(rmErr) {
			monitoring.Logf("failed to remove partial snapshot %s: %v", tmp, rmErr)
		}
		return fmt.Errorf("commit snapshot for carrier %s: %w", carrierID, err)
	}
	return nil
}

// Load reads the carrier's model set. A missing file yields an empty set.
// A file that fails to decode is copied aside with a .corrupted suffix and
// an empty set is returned.
func (s *Store) Load(carrierID string) (map[string]*torque.HoleModel, error) {
	path := s.path(carrierID)
	if !s.fs.Exists(path) {
		return make(map[string]*torque.HoleModel), nil
	}

	data, err := s.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot for carrier %s: %w", carrierID, err)
	}

	var snapshots map[string]torque.HoleSnapshot
	if err := json.Unmarshal(data, &snapshots); err != nil {
		monitoring.Logf("snapshot for carrier %s is corrupt, starting fresh: %v", carrierID, err)
		if copyErr := s.fs.WriteFile(path+".corrupted", data, 0o644); copyErr != nil {
			monitoring.Logf("failed to preserve corrupt snapshot %s: %v", path, copyErr)
		}
		return make(map[string]*torque.HoleModel), nil
	}

	models := make(map[string]*torque.HoleModel, len(snapshots))
	for holeID, snap := range snapshots {
		models[holeID] = torque.Restore(snap)
	}
	return models, nil
}
