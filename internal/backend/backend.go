package backend

import (
	"context"
	"fmt"
	"sort"

	"deepboot/internal/actionlog"
	"deepboot/internal/startup"
)

// Capabilities describes how a backend realises the mutating actions.
type Capabilities struct {
	// DisableRemoves is set when the source has no native disabled state and
	// Disable deletes the registration.
	DisableRemoves bool
	// CanRemove is false when Remove always fails with ErrNotSupported.
	CanRemove bool
}

// Backend scans and mutates the registrations of one or more sources.
// Scan returns an empty slice, not an error, when nothing is registered; on
// a partial failure it may return the entries it did read plus the error.
type Backend interface {
	Scan(ctx context.Context) ([]startup.Entry, error)
	Disable(ctx context.Context, e startup.Entry) error
	Remove(ctx context.Context, e startup.Entry) error
	Capabilities() Capabilities
}

// Table maps each source to exactly one backend.
type Table struct {
	bySource map[startup.Source]Backend
}

// NewTable returns an empty lookup table.
func NewTable() *Table {
	return &Table{bySource: make(map[startup.Source]Backend)}
}

// Register binds b to the given sources, replacing earlier bindings.
func (t *Table) Register(b Backend, sources ...startup.Source) {
	for _, s := range sources {
		t.bySource[s] = b
	}
}

// Lookup returns the backend responsible for src.
func (t *Table) Lookup(src startup.Source) (Backend, error) {
	if t == nil {
		return nil, fmt.Errorf("%s: %w", src.Label(), startup.ErrBackendUnavailable)
	}
	b, ok := t.bySource[src]
	if !ok {
		return nil, fmt.Errorf("no backend registered for %s: %w", src.Label(), startup.ErrBackendUnavailable)
	}
	return b, nil
}

// Sources lists the registered sources in declaration order.
func (t *Table) Sources() []startup.Source {
	out := make([]startup.Source, 0, len(t.bySource))
	for s := range t.bySource {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Capabilities of the backend serving src; the zero value when unregistered.
func (t *Table) Capabilities(src startup.Source) Capabilities {
	b, err := t.Lookup(src)
	if err != nil {
		return Capabilities{}
	}
	return b.Capabilities()
}

// ScanFailure records a backend whose scan failed.
type ScanFailure struct {
	Sources []startup.Source
	Err     error
}

func (f ScanFailure) Error() string {
	labels := make([]string, 0, len(f.Sources))
	for _, s := range f.Sources {
		labels = append(labels, s.Label())
	}
	return fmt.Sprintf("%v: %v", labels, f.Err)
}

// ScanAll scans every distinct backend once, sequentially. A failing
// backend is reported and the remaining ones are still scanned. Entries of
// sources not bound to the reporting backend are dropped, so a backend can
// never inject entries for another backend's source.
func (t *Table) ScanAll(ctx context.Context, log actionlog.Logger) ([]startup.Entry, []ScanFailure) {
	log = actionlog.OrNop(log)

	type group struct {
		backend Backend
		sources []startup.Source
	}
	var groups []*group
	index := make(map[Backend]*group)
	for _, s := range t.Sources() {
		b := t.bySource[s]
		g, ok := index[b]
		if !ok {
			g = &group{backend: b}
			index[b] = g
			groups = append(groups, g)
		}
		g.sources = append(g.sources, s)
	}

	bySource := make(map[startup.Source][]startup.Entry)
	var failures []ScanFailure
	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			failures = append(failures, ScanFailure{Sources: g.sources, Err: err})
			continue
		}
		// A backend may return what it could read together with an error.
		entries, err := g.backend.Scan(ctx)
		if err != nil {
			failures = append(failures, ScanFailure{Sources: g.sources, Err: err})
		}
		for _, e := range entries {
			if t.bySource[e.Source] != g.backend {
				continue
			}
			bySource[e.Source] = append(bySource[e.Source], e)
		}
		for _, s := range g.sources {
			log.Scan(s.Label(), len(bySource[s]), err)
		}
	}

	var out []startup.Entry
	for _, s := range startup.AllSources() {
		out = append(out, bySource[s]...)
	}
	return out, failures
}
