// Package schtasks serves Task Scheduler entries by driving schtasks.exe.
package schtasks

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"deepboot/internal/backend"
	"deepboot/internal/startup"
)

// Backend scans, disables and deletes scheduled tasks.
type Backend struct {
	// lookPath checks that schtasks is installed.
	// Defaults to exec.LookPath; override in tests.
	lookPath func(file string) (string, error)

	// runCmd executes a command and returns its combined output.
	// Defaults to exec.CommandContext(...).CombinedOutput(); override in tests.
	runCmd func(ctx context.Context, name string, args ...string) ([]byte, error)
}

const binary = "schtasks"

// New returns a Backend that runs the real schtasks binary.
func New() *Backend {
	return &Backend{
		lookPath: exec.LookPath,
		runCmd: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).CombinedOutput()
		},
	}
}

func (b *Backend) Capabilities() backend.Capabilities {
	return backend.Capabilities{CanRemove: true}
}

// Scan lists tasks triggered at logon, at system start or on idle.
func (b *Backend) Scan(ctx context.Context) ([]startup.Entry, error) {
	out, err := b.run(ctx, "/query", "/fo", "CSV", "/v")
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	tasks, err := parseTasks(bytes.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("parse task list: %w", err)
	}
	entries := make([]startup.Entry, 0, len(tasks))
	for _, t := range tasks {
		if !t.startup || strings.TrimSpace(t.command) == "" {
			continue
		}
		entries = append(entries, startup.Entry{
			Name:        baseName(t.path),
			Command:     t.command,
			Source:      startup.TaskScheduler,
			Enabled:     t.enabled,
			Description: t.comment,
			BackendKey:  t.path,
		})
	}
	return entries, nil
}

func (b *Backend) Disable(ctx context.Context, e startup.Entry) error {
	path := taskPath(e)
	if _, err := b.run(ctx, "/change", "/tn", path, "/disable"); err != nil {
		return fmt.Errorf("disable task %s: %w", path, err)
	}
	return nil
}

func (b *Backend) Remove(ctx context.Context, e startup.Entry) error {
	path := taskPath(e)
	if _, err := b.run(ctx, "/delete", "/tn", path, "/f"); err != nil {
		return fmt.Errorf("delete task %s: %w", path, err)
	}
	return nil
}

func (b *Backend) run(ctx context.Context, args ...string) ([]byte, error) {
	if _, err := b.lookPath(binary); err != nil {
		return nil, fmt.Errorf("%s: %w", binary, startup.ErrBackendUnavailable)
	}
	out, err := b.runCmd(ctx, binary, args...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", binary, startup.ErrBackendUnavailable)
		}
		return nil, classify(out, err)
	}
	return out, nil
}

// classify maps schtasks' error text onto the shared error kinds.
func classify(out []byte, err error) error {
	msg := strings.TrimSpace(string(out))
	if msg == "" {
		msg = err.Error()
	}
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "access is denied"):
		return fmt.Errorf("%s: %w", msg, startup.ErrPermissionDenied)
	case strings.Contains(lower, "cannot find"), strings.Contains(lower, "does not exist"):
		return fmt.Errorf("%s: %w", msg, startup.ErrNotFound)
	default:
		return errors.New(msg)
	}
}

// taskPath prefers the full path recorded at scan time; older snapshots only
// carry the name, which schtasks resolves against the root folder.
func taskPath(e startup.Entry) string {
	if e.BackendKey != "" {
		return e.BackendKey
	}
	return `\` + e.Name
}

func baseName(path string) string {
	if i := strings.LastIndex(path, `\`); i >= 0 && i < len(path)-1 {
		return path[i+1:]
	}
	return strings.TrimPrefix(path, `\`)
}

type task struct {
	path    string
	command string
	comment string
	enabled bool
	startup bool
}

var startupSchedules = []string{"at logon", "at system start", "on idle", "when idle"}

func isStartupSchedule(s string) bool {
	s = strings.ToLower(s)
	for _, p := range startupSchedules {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// parseTasks reads the verbose CSV listing. schtasks prints one row per
// trigger and repeats the header for every folder, so rows are merged by
// task path.
func parseTasks(r io.Reader) ([]task, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var (
		cols  map[string]int
		order []string
		byKey = make(map[string]*task)
	)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) == 0 || (len(rec) == 1 && strings.TrimSpace(rec[0]) == "") {
			continue
		}
		if isHeader(rec) {
			cols = make(map[string]int, len(rec))
			for i, name := range rec {
				cols[strings.ToLower(strings.TrimSpace(name))] = i
			}
			continue
		}
		if cols == nil {
			return nil, errors.New("task listing has no header row")
		}
		field := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		path := field("taskname")
		if path == "" {
			continue
		}
		t, ok := byKey[path]
		if !ok {
			t = &task{
				path:    path,
				command: field("task to run"),
				comment: field("comment"),
				enabled: !strings.EqualFold(field("scheduled task state"), "disabled"),
			}
			if t.comment == "N/A" {
				t.comment = ""
			}
			byKey[path] = t
			order = append(order, path)
		}
		if isStartupSchedule(field("schedule type")) {
			t.startup = true
		}
	}
	out := make([]task, 0, len(order))
	for _, p := range order {
		out = append(out, *byKey[p])
	}
	return out, nil
}

func isHeader(rec []string) bool {
	for _, f := range rec {
		if strings.EqualFold(strings.TrimSpace(f), "TaskName") {
			return true
		}
	}
	return false
}
