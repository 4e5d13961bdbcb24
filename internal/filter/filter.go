// Package filter narrows and orders startup entries. Every function here is
// pure with respect to its input slice except Sort, which sorts in place.
package filter

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"deepboot/internal/startup"
)

// Filter selects entries. The zero value matches everything.
type Filter struct {
	// SearchTerm matches case-insensitively against name, command and
	// description.
	SearchTerm string
	// Sources restricts to the listed sources; empty means any.
	Sources      []startup.Source
	EnabledOnly  bool
	DisabledOnly bool
}

// WithSearch returns a copy with the search term replaced.
func (f Filter) WithSearch(term string) Filter {
	f.SearchTerm = term
	return f
}

// WithSources returns a copy restricted to sources.
func (f Filter) WithSources(sources ...startup.Source) Filter {
	f.Sources = append([]startup.Source(nil), sources...)
	return f
}

// OnlyEnabled returns a copy that keeps enabled entries only.
func (f Filter) OnlyEnabled() Filter {
	f.EnabledOnly = true
	f.DisabledOnly = false
	return f
}

// OnlyDisabled returns a copy that keeps disabled entries only.
func (f Filter) OnlyDisabled() Filter {
	f.DisabledOnly = true
	f.EnabledOnly = false
	return f
}

// IsZero reports whether the filter matches everything.
func (f Filter) IsZero() bool {
	return f.SearchTerm == "" && len(f.Sources) == 0 && !f.EnabledOnly && !f.DisabledOnly
}

// Clear resets every criterion.
func (f *Filter) Clear() {
	*f = Filter{}
}

// Match reports whether e passes every criterion.
func (f Filter) Match(e startup.Entry) bool {
	if f.SearchTerm != "" {
		term := strings.ToLower(f.SearchTerm)
		if !strings.Contains(strings.ToLower(e.Name), term) &&
			!strings.Contains(strings.ToLower(e.Command), term) &&
			!strings.Contains(strings.ToLower(e.Description), term) {
			return false
		}
	}
	if len(f.Sources) > 0 && !slices.Contains(f.Sources, e.Source) {
		return false
	}
	if f.EnabledOnly && !e.Enabled {
		return false
	}
	if f.DisabledOnly && e.Enabled {
		return false
	}
	return true
}

// Apply returns the entries matching f, in input order, as a new slice.
func Apply(entries []startup.Entry, f Filter) []startup.Entry {
	out := make([]startup.Entry, 0, len(entries))
	for _, e := range entries {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	return out
}

// SortKey selects the ordering of a view.
type SortKey int

const (
	SortName SortKey = iota
	SortSource
	SortStatus
	SortCommand
)

func (k SortKey) String() string {
	switch k {
	case SortName:
		return "name"
	case SortSource:
		return "source"
	case SortStatus:
		return "status"
	case SortCommand:
		return "command"
	default:
		return fmt.Sprintf("SortKey(%d)", int(k))
	}
}

// ParseSortKey resolves a key name; unknown names yield SortName and an
// error.
func ParseSortKey(raw string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "name":
		return SortName, nil
	case "source":
		return SortSource, nil
	case "status":
		return SortStatus, nil
	case "command", "cmd":
		return SortCommand, nil
	default:
		return SortName, fmt.Errorf("unknown sort key %q (expected name, source, status or command)", raw)
	}
}

// Sort orders entries in place. The sort is stable: entries with equal
// keys keep their relative order.
func Sort(entries []startup.Entry, key SortKey) {
	var less func(a, b startup.Entry) bool
	switch key {
	case SortSource:
		less = func(a, b startup.Entry) bool { return a.Source.Label() < b.Source.Label() }
	case SortStatus:
		less = func(a, b startup.Entry) bool { return a.Enabled && !b.Enabled }
	case SortCommand:
		less = func(a, b startup.Entry) bool { return a.Command < b.Command }
	default:
		less = func(a, b startup.Entry) bool { return a.Name < b.Name }
	}
	sort.SliceStable(entries, func(i, j int) bool { return less(entries[i], entries[j]) })
}

// View filters, then sorts the result.
func View(entries []startup.Entry, f Filter, key SortKey) []startup.Entry {
	out := Apply(entries, f)
	Sort(out, key)
	return out
}
