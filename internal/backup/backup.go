// Package backup writes point-in-time JSON snapshots of the startup
// inventory before destructive actions.
package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"deepboot/internal/startup"
)

// Snapshot schema versioning for forward-compatibility.
const snapshotVersion = 1

const (
	filePrefix = "backup_"
	fileExt    = ".json"
	stampFmt   = "20060102_150405"
)

// Item is one entry together with where it was registered.
type Item struct {
	Entry        startup.Entry `json:"entry"`
	OriginalPath string        `json:"original_path"`
}

// Snapshot is the on-disk document.
type Snapshot struct {
	Version int    `json:"version"`
	Created int64  `json:"created_unix"`
	Items   []Item `json:"entries"`
}

// CreatedAt returns the creation time in UTC.
func (s Snapshot) CreatedAt() time.Time {
	return time.Unix(s.Created, 0).UTC()
}

// Entries returns the bare entries in snapshot order.
func (s Snapshot) Entries() []startup.Entry {
	out := make([]startup.Entry, 0, len(s.Items))
	for _, it := range s.Items {
		out = append(out, it.Entry)
	}
	return out
}

// Store manages snapshot files inside one directory.
type Store struct {
	Dir string
	now func() time.Time
}

func NewStore(dir string) *Store {
	return &Store{Dir: dir, now: func() time.Time { return time.Now().UTC() }}
}

// Create writes a new snapshot and returns its path.
func (s *Store) Create(entries []startup.Entry) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o700); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}
	ts := s.now()
	snap := Snapshot{
		Version: snapshotVersion,
		Created: ts.Unix(),
		Items:   make([]Item, 0, len(entries)),
	}
	for _, e := range entries {
		snap.Items = append(snap.Items, Item{Entry: e, OriginalPath: OriginalPath(e)})
	}
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", err
	}

	path := s.freePath(ts)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	return path, nil
}

// freePath avoids clobbering a snapshot taken within the same second.
func (s *Store) freePath(ts time.Time) string {
	base := filePrefix + ts.Format(stampFmt)
	path := filepath.Join(s.Dir, base+fileExt)
	for i := 1; ; i++ {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return path
		}
		path = filepath.Join(s.Dir, fmt.Sprintf("%s_%d%s", base, i, fileExt))
	}
}

// List returns snapshot paths, newest first. A missing directory yields an
// empty list.
func (s *Store) List() ([]string, error) {
	des, err := os.ReadDir(s.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var out []string
	for _, de := range des {
		name := de.Name()
		if de.IsDir() || !strings.HasPrefix(name, filePrefix) || filepath.Ext(name) != fileExt {
			continue
		}
		out = append(out, filepath.Join(s.Dir, name))
	}
	sort.Slice(out, func(i, j int) bool {
		si, ni := listOrder(out[i])
		sj, nj := listOrder(out[j])
		if si != sj {
			return si > sj
		}
		return ni > nj
	})
	return out, nil
}

// listOrder splits a snapshot file name into its timestamp and the
// same-second collision counter added by freePath.
func listOrder(path string) (string, int) {
	name := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(path), filePrefix), fileExt)
	if len(name) <= len(stampFmt) {
		return name, 0
	}
	seq, _ := strconv.Atoi(strings.TrimPrefix(name[len(stampFmt):], "_"))
	return name[:len(stampFmt)], seq
}

// Load reads a snapshot from path. Relative names are resolved inside Dir.
func (s *Store) Load(path string) (Snapshot, error) {
	return Load(s.resolve(path))
}

// Delete removes the snapshot at path.
func (s *Store) Delete(path string) error {
	return os.Remove(s.resolve(path))
}

func (s *Store) resolve(path string) string {
	if filepath.IsAbs(path) || strings.ContainsRune(path, filepath.Separator) {
		return path
	}
	return filepath.Join(s.Dir, path)
}

// Load reads a snapshot file.
func Load(path string) (Snapshot, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("parse backup %s: %w", path, err)
	}
	if snap.Version > snapshotVersion {
		return Snapshot{}, fmt.Errorf("backup %s has version %d, newest supported is %d", path, snap.Version, snapshotVersion)
	}
	return snap, nil
}

// OriginalPath describes where an entry was registered, for humans reading
// the snapshot.
func OriginalPath(e startup.Entry) string {
	switch {
	case e.Source == startup.TaskScheduler:
		key := e.BackendKey
		if key == "" {
			key = `\` + e.Name
		}
		return "TaskScheduler:" + key
	case e.Source == startup.Service:
		key := e.BackendKey
		if key == "" {
			key = e.Name
		}
		return "Service:" + key
	case e.BackendKey != "":
		return e.BackendKey
	default:
		return e.Source.Label()
	}
}
