package batch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"deepboot/internal/backend"
	"deepboot/internal/startup"
)

type recordingBackend struct {
	fail  map[string]error
	calls []string
}

func (b *recordingBackend) Scan(context.Context) ([]startup.Entry, error) { return nil, nil }
func (b *recordingBackend) Capabilities() backend.Capabilities          { return backend.Capabilities{CanRemove: true} }

func (b *recordingBackend) Disable(_ context.Context, e startup.Entry) error {
	b.calls = append(b.calls, "disable:"+e.Name)
	return b.fail[e.Name]
}

func (b *recordingBackend) Remove(_ context.Context, e startup.Entry) error {
	b.calls = append(b.calls, "remove:"+e.Name)
	return b.fail[e.Name]
}

type recordingLog struct {
	actions []string
	batches []string
}

func (l *recordingLog) Action(action, name string, ok bool, _ error) {
	l.actions = append(l.actions, fmt.Sprintf("%s %s %v", action, name, ok))
}

func (l *recordingLog) Batch(action string, total, success int) {
	l.batches = append(l.batches, fmt.Sprintf("%s %d/%d", action, success, total))
}

func (l *recordingLog) Scan(string, int, error) {}

func tableWith(b backend.Backend) *backend.Table {
	t := backend.NewTable()
	t.Register(b, startup.RegistryRun, startup.TaskScheduler)
	return t
}

func TestProcessAttemptsEveryEntryInOrder(t *testing.T) {
	b := &recordingBackend{fail: map[string]error{"B": fmt.Errorf("delete value: %w", startup.ErrPermissionDenied)}}
	log := &recordingLog{}
	p := Processor{Backends: tableWith(b), Log: log}
	entries := []startup.Entry{
		{Name: "A", Source: startup.RegistryRun},
		{Name: "B", Source: startup.RegistryRun},
		{Name: "C", Source: startup.TaskScheduler},
		{Name: "D", Source: startup.Service},
	}

	res := p.Process(context.Background(), entries, startup.Disable)

	if got := strings.Join(b.calls, ","); got != "disable:A,disable:B,disable:C" {
		t.Fatalf("unexpected call order %q", got)
	}
	if res.Total != 4 || res.Success != 2 || res.Failed != 2 || len(res.Errors) != 2 {
		t.Fatalf("unexpected counts %+v", res)
	}
	if res.Errors[0] != "B: delete value: permission denied" {
		t.Fatalf("unexpected error line %q", res.Errors[0])
	}
	if !errors.Is(res.Outcomes[3].Err, startup.ErrBackendUnavailable) {
		t.Fatalf("unregistered source should be unavailable, got %v", res.Outcomes[3].Err)
	}
	if got := res.Succeeded(); len(got) != 2 || got[0].Name != "A" || got[1].Name != "C" {
		t.Fatalf("unexpected successes %+v", got)
	}
	if len(log.actions) != 4 || log.actions[1] != "Disable B false" || log.batches[0] != "Disable 2/4" {
		t.Fatalf("unexpected log %v %v", log.actions, log.batches)
	}
	if res.Summary() != "Batch operation completed: 2 successful, 2 failed out of 4 total (50.0% success rate)" {
		t.Fatalf("unexpected summary %q", res.Summary())
	}
}

func TestRemoveDispatchesToRemove(t *testing.T) {
	b := &recordingBackend{}
	res := Processor{Backends: tableWith(b)}.Process(context.Background(),
		[]startup.Entry{{Name: "A", Source: startup.RegistryRun}}, startup.Remove)
	if res.Success != 1 || len(b.calls) != 1 || b.calls[0] != "remove:A" {
		t.Fatalf("unexpected dispatch %v %+v", b.calls, res)
	}
}

func TestEnableIsRejectedWithoutBackendCalls(t *testing.T) {
	b := &recordingBackend{}
	entries := []startup.Entry{{Name: "A", Source: startup.RegistryRun}, {Name: "B", Source: startup.TaskScheduler}}

	res := Processor{Backends: tableWith(b)}.Process(context.Background(), entries, startup.Enable)

	if res.Failed != 2 || res.Success != 0 {
		t.Fatalf("expected all to fail, got %+v", res)
	}
	for _, o := range res.Outcomes {
		if !errors.Is(o.Err, startup.ErrNotSupported) {
			t.Fatalf("expected NotSupported, got %v", o.Err)
		}
	}
	if len(b.calls) != 0 {
		t.Fatalf("backend touched: %v", b.calls)
	}
}

func TestEmptyBatch(t *testing.T) {
	res := Processor{}.Process(context.Background(), nil, startup.Disable)
	if res.Total != 0 || res.SuccessRate() != 0 {
		t.Fatalf("unexpected empty result %+v", res)
	}
}

func TestProcess_Accounting_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("success plus failed equals total and rate stays within bounds", prop.ForAll(
		func(failures []bool) bool {
			b := &recordingBackend{fail: make(map[string]error)}
			entries := make([]startup.Entry, len(failures))
			for i, fail := range failures {
				name := fmt.Sprintf("e%d", i)
				entries[i] = startup.Entry{Name: name, Source: startup.RegistryRun}
				if fail {
					b.fail[name] = startup.ErrNotFound
				}
			}
			res := Processor{Backends: tableWith(b)}.Process(context.Background(), entries, startup.Disable)
			rate := res.SuccessRate()
			return res.Success+res.Failed == res.Total &&
				len(res.Errors) == res.Failed &&
				len(b.calls) == len(entries) &&
				rate >= 0 && rate <= 100
		},
		gen.SliceOf(gen.Bool()),
	))

	properties.TestingRun(t)
}
