package app

import (
	"context"
	"time"

	"deepboot/internal/backup"
	"deepboot/internal/whitelist"
)

// BackupParams scopes a manual snapshot.
type BackupParams struct {
	Selectors     Selectors
	IncludeExempt bool
	Timeout       time.Duration
}

// BackupResult reports a created snapshot.
type BackupResult struct {
	Path  string
	Count int
}

// BackupCreate snapshots the entries matching the selectors.
func (a *App) BackupCreate(ctx context.Context, params BackupParams) (BackupResult, error) {
	var result BackupResult
	if _, err := params.Selectors.buildFilter(); err != nil {
		return result, err
	}
	all, _, err := a.scanAll(ctx, params.Timeout)
	if err != nil {
		return result, err
	}
	if !params.IncludeExempt {
		all, _ = whitelist.Exclude(a.gate(), all)
	}
	entries, err := params.Selectors.match(all)
	if err != nil {
		return result, err
	}
	result.Path, err = a.backups.Create(entries)
	result.Count = len(entries)
	return result, err
}

// BackupInfo describes one snapshot file.
type BackupInfo struct {
	Path    string
	Created time.Time
	Count   int
	Err     error
}

// BackupList returns the snapshots newest first. Unreadable files are
// listed with Err set.
func (a *App) BackupList() ([]BackupInfo, error) {
	paths, err := a.backups.List()
	if err != nil {
		return nil, err
	}
	out := make([]BackupInfo, 0, len(paths))
	for _, p := range paths {
		info := BackupInfo{Path: p}
		snap, err := a.backups.Load(p)
		if err != nil {
			info.Err = err
		} else {
			info.Created = snap.CreatedAt()
			info.Count = len(snap.Items)
		}
		out = append(out, info)
	}
	return out, nil
}

// BackupShow loads one snapshot by path or by file name.
func (a *App) BackupShow(path string) (backup.Snapshot, error) {
	return a.backups.Load(path)
}

// BackupDelete removes one snapshot by path or by file name.
func (a *App) BackupDelete(path string) error {
	return a.backups.Delete(path)
}
