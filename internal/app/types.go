package app

import (
	"errors"
	"fmt"
	"strings"

	"deepboot/internal/backend"
	"deepboot/internal/filter"
	"deepboot/internal/startup"
)

// Selectors aggregates entry selectors shared across commands.
type Selectors struct {
	// Names match exactly, ignoring case.
	Names        []string
	Search       string
	Sources      []string
	EnabledOnly  bool
	DisabledOnly bool
}

func (s Selectors) buildFilter() (filter.Filter, error) {
	if s.EnabledOnly && s.DisabledOnly {
		return filter.Filter{}, errors.New("--enabled and --disabled are mutually exclusive")
	}
	f := filter.Filter{}.WithSearch(strings.TrimSpace(s.Search))
	if len(s.Sources) > 0 {
		sources := make([]startup.Source, 0, len(s.Sources))
		for _, raw := range s.Sources {
			src, err := startup.ParseSource(raw)
			if err != nil {
				return filter.Filter{}, err
			}
			sources = append(sources, src)
		}
		f = f.WithSources(sources...)
	}
	if s.EnabledOnly {
		f = f.OnlyEnabled()
	}
	if s.DisabledOnly {
		f = f.OnlyDisabled()
	}
	return f, nil
}

func (s Selectors) names() ([]string, error) {
	out := make([]string, 0, len(s.Names))
	for _, name := range s.Names {
		clean := strings.TrimSpace(name)
		if clean == "" {
			return nil, errors.New("name selectors must not be empty")
		}
		out = append(out, strings.ToLower(clean))
	}
	return out, nil
}

// match applies name selectors and the filter.
func (s Selectors) match(entries []startup.Entry) ([]startup.Entry, error) {
	f, err := s.buildFilter()
	if err != nil {
		return nil, err
	}
	names, err := s.names()
	if err != nil {
		return nil, err
	}
	out := filter.Apply(entries, f)
	if len(names) == 0 {
		return out, nil
	}
	kept := out[:0]
	for _, e := range out {
		for _, n := range names {
			if strings.ToLower(e.Name) == n {
				kept = append(kept, e)
				break
			}
		}
	}
	return kept, nil
}

func emptySelectors(s Selectors) bool {
	return len(s.Names) == 0 &&
		len(s.Sources) == 0 &&
		!s.EnabledOnly &&
		!s.DisabledOnly &&
		strings.TrimSpace(s.Search) == ""
}

func joinSampleNames(entries []startup.Entry) string {
	limit := 5
	names := make([]string, 0, limit+1)
	for i := 0; i < len(entries) && i < limit; i++ {
		names = append(names, fmt.Sprintf("%s [%s]", entries[i].Name, entries[i].Source.Slug()))
	}
	if len(entries) > limit {
		names = append(names, "...")
	}
	return strings.Join(names, ", ")
}

// ScanFailureMessages renders scan failures one per line for display.
func ScanFailureMessages(failures []backend.ScanFailure) []string {
	out := make([]string, 0, len(failures))
	for _, f := range failures {
		out = append(out, f.Error())
	}
	return out
}
