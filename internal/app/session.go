package app

import (
	"context"
	"time"

	"deepboot/internal/batch"
	"deepboot/internal/session"
	"deepboot/internal/startup"
	"deepboot/internal/whitelist"
)

// NewSession scans and opens an interactive session over the result. With
// auto_backup on, the collection is snapshotted before it is handed over.
func (a *App) NewSession(ctx context.Context, timeout time.Duration) (*session.Session, ScanResult, error) {
	scan, err := a.sessionScan(ctx, timeout)
	if err != nil {
		return nil, scan, err
	}
	opts := session.Options{
		Processor:    batch.Processor{Backends: a.backends, Log: a.log},
		Capabilities: a.backends.Capabilities,
		Gate:         a.gate(),
		Sort:         a.cfg.SortKey(),
	}
	if a.cfg.AutoBackup && !a.offline {
		opts.Backup = a.backups
		scan.BackupPath, scan.BackupErr = a.backups.Create(scan.Entries)
	}
	return session.New(scan.Entries, opts), scan, nil
}

// Rescan replaces the session's entries with a fresh scan. Selection is
// dropped; filters and sort order are kept.
func (a *App) Rescan(ctx context.Context, s *session.Session, timeout time.Duration) (ScanResult, error) {
	scan, err := a.sessionScan(ctx, timeout)
	if err != nil {
		return scan, err
	}
	s.Reset(scan.Entries)
	return scan, nil
}

func (a *App) sessionScan(ctx context.Context, timeout time.Duration) (ScanResult, error) {
	var result ScanResult
	all, failures, err := a.scanAll(ctx, timeout)
	if err != nil {
		return result, err
	}
	result.Total = len(all)
	result.Failures = failures
	entries := all
	if !a.cfg.ShowWhitelisted {
		entries, result.Exempted = whitelist.Exclude(a.gate(), all)
	}
	result.Entries = append([]startup.Entry(nil), entries...)
	return result, nil
}
