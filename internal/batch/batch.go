// Package batch applies one action to many entries, isolating failures per
// entry.
package batch

import (
	"context"
	"fmt"

	"deepboot/internal/actionlog"
	"deepboot/internal/backend"
	"deepboot/internal/startup"
)

// Dispatcher resolves the backend responsible for a source.
type Dispatcher interface {
	Lookup(src startup.Source) (backend.Backend, error)
}

// Outcome is the result for one entry, in input order.
type Outcome struct {
	Entry startup.Entry
	Err   error
}

// OK reports whether the action succeeded for this entry.
func (o Outcome) OK() bool { return o.Err == nil }

// Result aggregates a batch. Success+Failed always equals Total and Errors
// has exactly Failed lines.
type Result struct {
	Action   startup.Action
	Total    int
	Success  int
	Failed   int
	Errors   []string
	Outcomes []Outcome
}

// SuccessRate is Success/Total as a percentage, 0 for an empty batch.
func (r Result) SuccessRate() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Success) / float64(r.Total) * 100
}

func (r Result) Summary() string {
	return fmt.Sprintf("Batch operation completed: %d successful, %d failed out of %d total (%.1f%% success rate)",
		r.Success, r.Failed, r.Total, r.SuccessRate())
}

// Succeeded returns the entries the action was applied to.
func (r Result) Succeeded() []startup.Entry {
	out := make([]startup.Entry, 0, r.Success)
	for _, o := range r.Outcomes {
		if o.OK() {
			out = append(out, o.Entry)
		}
	}
	return out
}

// Processor runs batches sequentially.
type Processor struct {
	Backends Dispatcher
	Log      actionlog.Logger
}

// Process attempts action on every entry in order. A failure never stops
// the batch. The input slice is not modified.
func (p Processor) Process(ctx context.Context, entries []startup.Entry, action startup.Action) Result {
	log := actionlog.OrNop(p.Log)
	res := Result{
		Action:   action,
		Total:    len(entries),
		Outcomes: make([]Outcome, 0, len(entries)),
	}
	for _, e := range entries {
		err := p.apply(ctx, e, action)
		res.Outcomes = append(res.Outcomes, Outcome{Entry: e, Err: err})
		if err != nil {
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", e.Name, err))
		} else {
			res.Success++
		}
		log.Action(action.String(), e.Name, err == nil, err)
	}
	log.Batch(action.String(), res.Total, res.Success)
	return res
}

func (p Processor) apply(ctx context.Context, e startup.Entry, action startup.Action) error {
	switch action {
	case startup.Disable, startup.Remove:
	case startup.Enable:
		return fmt.Errorf("enable: %w", startup.ErrNotSupported)
	default:
		return fmt.Errorf("%s: %w", action, startup.ErrNotSupported)
	}
	if p.Backends == nil {
		return fmt.Errorf("%s: %w", e.Source.Label(), startup.ErrBackendUnavailable)
	}
	b, err := p.Backends.Lookup(e.Source)
	if err != nil {
		return err
	}
	if action == startup.Remove {
		return b.Remove(ctx, e)
	}
	return b.Disable(ctx, e)
}
