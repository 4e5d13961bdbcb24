// Package stats aggregates counts over an entry collection.
package stats

import (
	"fmt"
	"sort"
	"strings"

	"deepboot/internal/startup"
)

// Summary is a count breakdown of a collection.
type Summary struct {
	Total    int            `json:"total"`
	Enabled  int            `json:"enabled"`
	Disabled int            `json:"disabled"`
	BySource map[string]int `json:"by_source"`
}

// Summarize counts entries by status and by source label.
func Summarize(entries []startup.Entry) Summary {
	s := Summary{Total: len(entries), BySource: make(map[string]int)}
	for _, e := range entries {
		if e.Enabled {
			s.Enabled++
		} else {
			s.Disabled++
		}
		s.BySource[e.Source.Label()]++
	}
	return s
}

// Percent returns n as a percentage of Total, 0 for an empty collection.
func (s Summary) Percent(n int) float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(n) / float64(s.Total) * 100
}

// Sources returns the source labels present, sorted.
func (s Summary) Sources() []string {
	out := make([]string, 0, len(s.BySource))
	for label := range s.BySource {
		out = append(out, label)
	}
	sort.Strings(out)
	return out
}

func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Total Entries: %d\n", s.Total)
	fmt.Fprintf(&b, "  Enabled: %d (%.1f%%)\n", s.Enabled, s.Percent(s.Enabled))
	fmt.Fprintf(&b, "  Disabled: %d (%.1f%%)\n", s.Disabled, s.Percent(s.Disabled))
	b.WriteString("\nBy Source:\n")
	for _, label := range s.Sources() {
		n := s.BySource[label]
		fmt.Fprintf(&b, "  %s: %d (%.1f%%)\n", label, n, s.Percent(n))
	}
	return b.String()
}
