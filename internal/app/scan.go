package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"deepboot/internal/backend"
	"deepboot/internal/export"
	"deepboot/internal/filter"
	"deepboot/internal/startup"
	"deepboot/internal/whitelist"
)

// ScanParams defines selectors, ordering and timeout.
type ScanParams struct {
	Selectors Selectors
	// Sort overrides the configured default sort key.
	Sort string
	// IncludeExempt keeps whitelisted entries in the result.
	IncludeExempt bool
	Timeout       time.Duration
}

// ScanResult is the outcome of one scan.
type ScanResult struct {
	Entries []startup.Entry
	// Total counts entries found before whitelisting and selectors.
	Total    int
	Exempted int
	Failures []backend.ScanFailure
	// ExportPath is set when the config asked for an automatic report.
	ExportPath string
	// BackupPath and BackupErr report the snapshot taken when a session
	// opens.
	BackupPath string
	BackupErr  error
}

// Scan enumerates startup entries from every backend.
func (a *App) Scan(ctx context.Context, params ScanParams) (ScanResult, error) {
	var result ScanResult

	key := a.cfg.SortKey()
	if strings.TrimSpace(params.Sort) != "" {
		k, err := filter.ParseSortKey(params.Sort)
		if err != nil {
			return result, err
		}
		key = k
	}

	all, failures, err := a.scanAll(ctx, params.Timeout)
	if err != nil {
		return result, err
	}
	result.Total = len(all)
	result.Failures = failures

	kept := all
	if !params.IncludeExempt && !a.cfg.ShowWhitelisted {
		kept, result.Exempted = whitelist.Exclude(a.gate(), all)
	}
	matched, err := params.Selectors.match(kept)
	if err != nil {
		return result, err
	}
	filter.Sort(matched, key)
	result.Entries = matched

	if a.cfg.AutoExport != "" && !a.offline {
		format, err := export.ParseFormat(a.cfg.AutoExport)
		if err != nil {
			return result, err
		}
		path, err := export.ToFile(a.cfg.ExportDir(), format, matched)
		if err != nil {
			return result, fmt.Errorf("auto export: %w", err)
		}
		result.ExportPath = path
	}
	return result, nil
}

// scanAll runs every backend once. A backend that times out is reported as a
// failure; the scan fails only when every backend failed and nothing was
// found.
func (a *App) scanAll(ctx context.Context, timeout time.Duration) ([]startup.Entry, []backend.ScanFailure, error) {
	var (
		entries  []startup.Entry
		failures []backend.ScanFailure
	)
	_ = a.withTimeout(ctx, timeout, func(ctx context.Context) error {
		entries, failures = a.backends.ScanAll(ctx, a.log)
		return nil
	})
	if len(entries) == 0 && len(failures) > 0 && len(failures) == a.distinctBackends() {
		return nil, failures, fmt.Errorf("every backend failed, first error: %w", failures[0].Err)
	}
	return entries, failures, nil
}

func (a *App) distinctBackends() int {
	seen := make(map[backend.Backend]struct{})
	for _, src := range a.backends.Sources() {
		if b, err := a.backends.Lookup(src); err == nil {
			seen[b] = struct{}{}
		}
	}
	return len(seen)
}
