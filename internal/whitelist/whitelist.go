// Package whitelist decides which entries are exempt from management.
package whitelist

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"deepboot/internal/startup"
)

// Gate is consulted before entries reach the filter engine.
type Gate interface {
	IsExempt(e startup.Entry) bool
	Add(e startup.Entry) error
	Remove(e startup.Entry) error
}

type nop struct{}

func (nop) IsExempt(startup.Entry) bool { return false }
func (nop) Add(startup.Entry) error     { return nil }
func (nop) Remove(startup.Entry) error  { return nil }

// Nop exempts nothing and accepts every edit silently.
func Nop() Gate { return nop{} }

// Exclude drops exempt entries and reports how many were dropped.
func Exclude(g Gate, entries []startup.Entry) ([]startup.Entry, int) {
	if g == nil {
		return append([]startup.Entry(nil), entries...), 0
	}
	kept := make([]startup.Entry, 0, len(entries))
	for _, e := range entries {
		if g.IsExempt(e) {
			continue
		}
		kept = append(kept, e)
	}
	return kept, len(entries) - len(kept)
}

// Kind names one of the exemption lists.
type Kind int

const (
	Processes Kind = iota
	Services
	Tasks
)

func (k Kind) String() string {
	switch k {
	case Services:
		return "service"
	case Tasks:
		return "task"
	default:
		return "process"
	}
}

// ParseKind accepts process, service or task (plural forms too).
func ParseKind(raw string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "process", "processes":
		return Processes, nil
	case "service", "services":
		return Services, nil
	case "task", "tasks":
		return Tasks, nil
	default:
		return 0, fmt.Errorf("unknown whitelist kind %q (expected process, service or task)", raw)
	}
}

// DefaultProcesses are core Windows executables that are always exempt on a
// fresh install.
var DefaultProcesses = []string{
	"explorer.exe", "winlogon.exe", "csrss.exe", "services.exe",
	"lsass.exe", "svchost.exe", "dwm.exe", "conhost.exe",
}

// Lists is the on-disk document.
type Lists struct {
	Processes []string `yaml:"safe_processes"`
	Services  []string `yaml:"safe_services"`
	Tasks     []string `yaml:"safe_tasks"`
}

type set map[string]struct{}

func newSet(values []string) set {
	s := make(set, len(values))
	for _, v := range values {
		if v = normalize(v); v != "" {
			s[v] = struct{}{}
		}
	}
	return s
}

func (s set) has(v string) bool {
	_, ok := s[v]
	return ok
}

func (s set) sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func normalize(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// Manager is a Gate persisted as YAML. Every edit is written through.
type Manager struct {
	path  string
	lists [3]set
}

// Open loads the whitelist at path, writing the defaults when the file
// does not exist yet.
func Open(path string) (*Manager, error) {
	m := &Manager{path: path}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		m.load(Lists{Processes: DefaultProcesses})
		if err := m.save(); err != nil {
			return nil, fmt.Errorf("failed to create default whitelist: %w", err)
		}
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read whitelist: %w", err)
	}
	var l Lists
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("failed to parse whitelist %s: %w", path, err)
	}
	m.load(l)
	return m, nil
}

func (m *Manager) load(l Lists) {
	m.lists[Processes] = newSet(l.Processes)
	m.lists[Services] = newSet(l.Services)
	m.lists[Tasks] = newSet(l.Tasks)
}

// Path is the backing file.
func (m *Manager) Path() string { return m.path }

// Lists returns sorted copies of the three lists.
func (m *Manager) Lists() Lists {
	return Lists{
		Processes: m.lists[Processes].sorted(),
		Services:  m.lists[Services].sorted(),
		Tasks:     m.lists[Tasks].sorted(),
	}
}

// IsExempt matches the command's executable against the process list, a
// service's name against the service list and a task's name against the
// task list.
func (m *Manager) IsExempt(e startup.Entry) bool {
	if p := ProcessName(e.Command); p != "" && m.lists[Processes].has(p) {
		return true
	}
	switch e.Source {
	case startup.Service:
		return m.lists[Services].has(serviceName(e))
	case startup.TaskScheduler:
		return m.lists[Tasks].has(normalize(e.Name))
	}
	return false
}

// Add exempts e: services and tasks by name, everything else by the
// executable of its command.
func (m *Manager) Add(e startup.Entry) error {
	kind, value := keyFor(e)
	if value == "" {
		return fmt.Errorf("cannot whitelist %q: no %s name", e.Name, kind)
	}
	return m.Allow(kind, value)
}

// Remove reverses Add.
func (m *Manager) Remove(e startup.Entry) error {
	kind, value := keyFor(e)
	if value == "" {
		return nil
	}
	return m.Disallow(kind, value)
}

// Allow adds a raw value to one list.
func (m *Manager) Allow(kind Kind, value string) error {
	value = normalize(value)
	if value == "" {
		return fmt.Errorf("empty %s name", kind)
	}
	if m.lists[kind].has(value) {
		return nil
	}
	m.lists[kind][value] = struct{}{}
	return m.save()
}

// Disallow removes a raw value from one list.
func (m *Manager) Disallow(kind Kind, value string) error {
	value = normalize(value)
	if !m.lists[kind].has(value) {
		return nil
	}
	delete(m.lists[kind], value)
	return m.save()
}

func keyFor(e startup.Entry) (Kind, string) {
	switch e.Source {
	case startup.Service:
		return Services, serviceName(e)
	case startup.TaskScheduler:
		return Tasks, normalize(e.Name)
	default:
		return Processes, ProcessName(e.Command)
	}
}

func serviceName(e startup.Entry) string {
	if e.BackendKey != "" {
		return normalize(e.BackendKey)
	}
	return normalize(e.Name)
}

func (m *Manager) save() error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(m.Lists())
	if err != nil {
		return fmt.Errorf("failed to marshal whitelist: %w", err)
	}
	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write whitelist: %w", err)
	}
	return os.Rename(tmp, m.path)
}

// ProcessName extracts the lower-cased executable file name from a command
// line. Quoted paths may contain spaces.
func ProcessName(command string) string {
	command = strings.TrimSpace(command)
	if command == "" {
		return ""
	}
	var exe string
	if command[0] == '"' {
		rest := command[1:]
		if i := strings.IndexByte(rest, '"'); i >= 0 {
			exe = rest[:i]
		} else {
			exe = rest
		}
	} else {
		exe = strings.Fields(command)[0]
	}
	if i := strings.LastIndexAny(exe, `\/`); i >= 0 {
		exe = exe[i+1:]
	}
	return normalize(exe)
}
