package startup

import (
	"fmt"
	"strings"
)

// Source classifies where an autostart registration lives.
type Source int

const (
	TaskScheduler Source = iota
	RegistryRun
	RegistryRunOnce
	RegistryRunServices
	RegistryWow6432Node
	Service
)

var sourceLabels = [...]string{
	TaskScheduler:       "Task Scheduler",
	RegistryRun:         "Registry (Run)",
	RegistryRunOnce:     "Registry (RunOnce)",
	RegistryRunServices: "Registry (RunServices)",
	RegistryWow6432Node: "Registry (WoW6432Node)",
	Service:             "Service",
}

var sourceSlugs = [...]string{
	TaskScheduler:       "tasks",
	RegistryRun:         "run",
	RegistryRunOnce:     "runonce",
	RegistryRunServices: "runservices",
	RegistryWow6432Node: "wow64",
	Service:             "service",
}

// AllSources returns every source in declaration order.
func AllSources() []Source {
	return []Source{TaskScheduler, RegistryRun, RegistryRunOnce, RegistryRunServices, RegistryWow6432Node, Service}
}

// Label is the human-readable name shown to operators and used for sorting.
func (s Source) Label() string {
	if !s.valid() {
		return fmt.Sprintf("Source(%d)", int(s))
	}
	return sourceLabels[s]
}

// Slug is the short token accepted on the command line.
func (s Source) Slug() string {
	if !s.valid() {
		return fmt.Sprintf("source-%d", int(s))
	}
	return sourceSlugs[s]
}

func (s Source) String() string { return s.Label() }

// IsRegistry reports whether the source is one of the Run-style registry keys.
func (s Source) IsRegistry() bool {
	switch s {
	case RegistryRun, RegistryRunOnce, RegistryRunServices, RegistryWow6432Node:
		return true
	default:
		return false
	}
}

func (s Source) valid() bool {
	return s >= TaskScheduler && s <= Service
}

// MarshalText encodes the source as its slug.
func (s Source) MarshalText() ([]byte, error) {
	if !s.valid() {
		return nil, fmt.Errorf("invalid source %d", int(s))
	}
	return []byte(s.Slug()), nil
}

// UnmarshalText accepts either a slug or a label.
func (s *Source) UnmarshalText(b []byte) error {
	parsed, err := ParseSource(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSource resolves a slug or label, case-insensitively.
func ParseSource(raw string) (Source, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	for _, s := range AllSources() {
		if v == s.Slug() || v == strings.ToLower(s.Label()) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown source %q (expected one of: %s)", raw, strings.Join(sourceSlugList(), ", "))
}

func sourceSlugList() []string {
	out := make([]string, 0, len(sourceSlugs))
	for _, s := range AllSources() {
		out = append(out, s.Slug())
	}
	return out
}

// Entry is one autostart registration. Values are copied freely; the only
// mutable copy is the one held by the session's inventory.
type Entry struct {
	Name    string `json:"name"`
	Command string `json:"command"`
	Source  Source `json:"source"`
	Enabled bool   `json:"enabled"`
	// Description is display text only.
	Description string `json:"description,omitempty"`
	// BackendKey is the backend-internal identifier: service name, task
	// path or registry hive path.
	BackendKey string `json:"backend_key,omitempty"`
}

// Key identifies an entry across reordered or narrowed collections.
type Key struct {
	Name       string
	Source     Source
	Command    string
	BackendKey string
}

// Key returns the identity of the entry.
func (e Entry) Key() Key {
	return Key{Name: e.Name, Source: e.Source, Command: e.Command, BackendKey: e.BackendKey}
}

// Status renders the enabled flag for listings.
func (e Entry) Status() string {
	if e.Enabled {
		return "Enabled"
	}
	return "Disabled"
}

// Action is a mutating operation an operator can request.
type Action int

const (
	Disable Action = iota
	Remove
	// Enable is declared but not implemented; every attempt fails with
	// ErrNotSupported.
	Enable
)

func (a Action) String() string {
	switch a {
	case Disable:
		return "Disable"
	case Remove:
		return "Remove"
	case Enable:
		return "Enable"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// Verb is the lower-case form used in prompts ("disable", "remove").
func (a Action) Verb() string {
	return strings.ToLower(a.String())
}

// ParseAction resolves an action name case-insensitively.
func ParseAction(raw string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "disable":
		return Disable, nil
	case "remove", "rm":
		return Remove, nil
	case "enable":
		return Enable, nil
	default:
		return 0, fmt.Errorf("unknown action %q", raw)
	}
}
