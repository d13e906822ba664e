package vectorindex

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// SnapshotVersion is bumped whenever the on-disk layout changes; Load rejects
// snapshots written by an unknown layout instead of guessing.
const SnapshotVersion = 1

type snapshotFile struct {
	Version int     `json:"version"`
	Dim     int     `json:"dim"`
	Chunks  []Chunk `json:"chunks"`
}

// WriteSnapshot serializes the full index contents as versioned JSON.
func (ix *Index) WriteSnapshot(w io.Writer) error {
	ix.mu.RLock()
	snap := snapshotFile{
		Version: SnapshotVersion,
		Dim:     ix.dim,
		Chunks:  ix.chunks,
	}
	ix.mu.RUnlock()

	enc := json.NewEncoder(w)
	if err := enc.Encode(&snap); err != nil {
		return fmt.Errorf("vectorindex: encode snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot replaces the index contents from a snapshot written by
// WriteSnapshot.
func (ix *Index) ReadSnapshot(r io.Reader) error {
	var snap snapshotFile
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return fmt.Errorf("vectorindex: decode snapshot: %w", err)
	}
	if snap.Version != SnapshotVersion {
		return fmt.Errorf("vectorindex: unsupported snapshot version %d (want %d)", snap.Version, SnapshotVersion)
	}
	return ix.Rebuild(snap.Chunks)
}

// SaveFile writes the snapshot to path via a temp file and rename, so a crash
// mid-write never leaves a truncated snapshot behind.
func (ix *Index) SaveFile(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("vectorindex: create snapshot temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := ix.WriteSnapshot(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("vectorindex: close snapshot temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("vectorindex: commit snapshot: %w", err)
	}
	return nil
}

// LoadFile restores the index from a snapshot file. A missing file is not an
// error; the index simply starts empty.
func (ix *Index) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("vectorindex: open snapshot: %w", err)
	}
	defer f.Close()
	return ix.ReadSnapshot(f)
}
