package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"deepboot/internal/batch"
	"deepboot/internal/startup"
	"deepboot/internal/whitelist"
)

// ActParams configures disable/rm command semantics.
type ActParams struct {
	Selectors       Selectors
	AllowAll        bool
	Timeout         time.Duration
	RequireSelector bool
	// NoBackup skips the automatic snapshot for this run.
	NoBackup bool
}

// ActEvent describes one action taken during disable/remove.
type ActEvent struct {
	Kind  string
	Entry startup.Entry
	Err   error
}

// ActResult aggregates the command outcome.
type ActResult struct {
	Events       []ActEvent
	Message      string
	TotalMatches int
	Successes    int
	Batch        batch.Result
	BackupPath   string
	// BackupErr is set when the snapshot failed; the action still ran.
	BackupErr error
}

// Disable turns off the entries matching the selectors.
func (a *App) Disable(ctx context.Context, params ActParams) (ActResult, error) {
	return a.act(ctx, startup.Disable, params)
}

// Remove deletes the entries matching the selectors.
func (a *App) Remove(ctx context.Context, params ActParams) (ActResult, error) {
	return a.act(ctx, startup.Remove, params)
}

func (a *App) act(ctx context.Context, action startup.Action, params ActParams) (ActResult, error) {
	var result ActResult
	if params.RequireSelector && !params.AllowAll && emptySelectors(params.Selectors) {
		return result, errors.New("provide at least one selector (--name/--search/--source/--enabled/--disabled) or pass --all")
	}
	if _, err := params.Selectors.buildFilter(); err != nil {
		return result, err
	}

	all, _, err := a.scanAll(ctx, params.Timeout)
	if err != nil {
		return result, err
	}
	kept, _ := whitelist.Exclude(a.gate(), all)
	targets, err := params.Selectors.match(kept)
	if err != nil {
		return result, err
	}

	result.TotalMatches = len(targets)
	if result.TotalMatches == 0 {
		result.Message = "No entries match the provided selectors"
		return result, nil
	}
	if len(targets) > 1 && !params.AllowAll {
		return result, fmt.Errorf("multiple entries match selectors (%s). Use --all to %s all or narrow the selection", joinSampleNames(targets), action.Verb())
	}

	if a.cfg.AutoBackup && !params.NoBackup && !a.offline {
		result.BackupPath, result.BackupErr = a.backups.Create(targets)
	}

	proc := batch.Processor{Backends: a.backends, Log: a.log}
	err = a.withTimeout(ctx, params.Timeout, func(ctx context.Context) error {
		result.Batch = proc.Process(ctx, targets, action)
		return nil
	})
	if err != nil {
		return result, err
	}

	for _, o := range result.Batch.Outcomes {
		kind := "success"
		if !o.OK() {
			kind = action.Verb() + "_failure"
		}
		result.Events = append(result.Events, ActEvent{Kind: kind, Entry: o.Entry, Err: o.Err})
	}
	result.Successes = result.Batch.Success
	result.Message = result.Batch.Summary()

	switch {
	case result.Successes == result.TotalMatches:
		return result, nil
	case result.Successes == 0:
		return result, fmt.Errorf("no entries were %sd (see output above)", action.Verb())
	default:
		return result, fmt.Errorf("partially successful: %sd %d/%d entries", action.Verb(), result.Successes, result.TotalMatches)
	}
}
