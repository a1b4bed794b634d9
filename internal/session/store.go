// Package session tracks per-region browsing-session snapshots.
//
// A snapshot is the browser engine's storage-state file (cookies and local
// storage) written after a successful interactive region setup. Its mere
// presence is what lets a later run skip the interactive path; the contents
// are opaque to this package.
package session

import (
	"fmt"
	"os"
	"path/filepath"
)

// Store maps region codes to snapshot files under a single directory.
type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create session dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Has reports whether a snapshot exists for the region. An unreadable file
// counts as absent; the caller falls back to the interactive path.
func (s *Store) Has(region string) bool {
	info, err := os.Stat(s.PathFor(region))
	return err == nil && !info.IsDir() && info.Size() > 0
}

// PathFor returns where the engine should read or write the region's
// snapshot. The file may not exist yet.
func (s *Store) PathFor(region string) string {
	return filepath.Join(s.dir, "session_"+region+".json")
}

// Remove discards the region's snapshot, forcing the next run through the
// interactive path.
func (s *Store) Remove(region string) error {
	if err := os.Remove(s.PathFor(region)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session snapshot: %w", err)
	}
	return nil
}
