package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"deepboot/internal/export"
	"deepboot/internal/startup"
)

// ExportParams selects what to export and where.
type ExportParams struct {
	Selectors     Selectors
	Format        string
	IncludeExempt bool
	// Dir receives the report; empty means the configured export directory.
	// Ignored when Writer is set.
	Dir     string
	Writer  io.Writer
	Timeout time.Duration
}

// ExportResult reports where the report went.
type ExportResult struct {
	Path   string
	Format export.Format
	Count  int
}

// Export scans and writes a report in the requested format.
func (a *App) Export(ctx context.Context, params ExportParams) (ExportResult, error) {
	var result ExportResult
	format, err := export.ParseFormat(params.Format)
	if err != nil {
		return result, err
	}
	result.Format = format

	scan, err := a.Scan(ctx, ScanParams{
		Selectors:     params.Selectors,
		IncludeExempt: params.IncludeExempt,
		Timeout:       params.Timeout,
	})
	if err != nil {
		return result, err
	}
	result.Count = len(scan.Entries)

	if params.Writer != nil {
		if err := export.Write(params.Writer, format, scan.Entries); err != nil {
			return result, fmt.Errorf("write %s report: %w", format, err)
		}
		return result, nil
	}
	dir := params.Dir
	if dir == "" {
		dir = a.cfg.ExportDir()
	}
	result.Path, err = export.ToFile(dir, format, scan.Entries)
	return result, err
}

// ExportEntries writes entries already in hand, such as a session's view,
// to the configured export directory.
func (a *App) ExportEntries(formatName string, entries []startup.Entry) (string, error) {
	format, err := export.ParseFormat(formatName)
	if err != nil {
		return "", err
	}
	return export.ToFile(a.cfg.ExportDir(), format, entries)
}
