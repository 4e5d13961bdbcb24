package app

import (
	"context"
	"time"

	"deepboot/internal/stats"
)

// StatsParams scopes the summary.
type StatsParams struct {
	Selectors     Selectors
	IncludeExempt bool
	Timeout       time.Duration
}

// StatsResult carries the summary together with the scan it came from.
type StatsResult struct {
	Summary stats.Summary
	Scan    ScanResult
}

// Stats summarises the entries a scan with the same parameters would list.
func (a *App) Stats(ctx context.Context, params StatsParams) (StatsResult, error) {
	scan, err := a.Scan(ctx, ScanParams{
		Selectors:     params.Selectors,
		IncludeExempt: params.IncludeExempt,
		Timeout:       params.Timeout,
	})
	if err != nil {
		return StatsResult{}, err
	}
	return StatsResult{Summary: stats.Summarize(scan.Entries), Scan: scan}, nil
}
