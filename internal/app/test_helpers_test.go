package app

import (
	"context"
	"path/filepath"
	"testing"

	"deepboot/internal/backend"
	"deepboot/internal/startup"
)

type fakeBackend struct {
	entries  []startup.Entry
	scanErr  error
	fail     map[string]error
	disabled []string
	removed  []string
	caps     backend.Capabilities
}

func (f *fakeBackend) Scan(context.Context) ([]startup.Entry, error) {
	return append([]startup.Entry(nil), f.entries...), f.scanErr
}

func (f *fakeBackend) Disable(_ context.Context, e startup.Entry) error {
	if err := f.fail[e.Name]; err != nil {
		return err
	}
	f.disabled = append(f.disabled, e.Name)
	return nil
}

func (f *fakeBackend) Remove(_ context.Context, e startup.Entry) error {
	if err := f.fail[e.Name]; err != nil {
		return err
	}
	f.removed = append(f.removed, e.Name)
	return nil
}

func (f *fakeBackend) Capabilities() backend.Capabilities { return f.caps }

// fixture is a registry backend and a task backend behind an isolated data
// directory.
type fixture struct {
	dir   string
	reg   *fakeBackend
	tasks *fakeBackend
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DEEPBOOT_CONFIG", filepath.Join(dir, "absent.yaml"))
	t.Setenv("DEEPBOOT_DATA_DIR", dir)
	t.Setenv("DEEPBOOT_DEFAULT_SORT", "")
	t.Setenv("DEEPBOOT_SHOW_WHITELISTED", "")
	t.Setenv("DEEPBOOT_SCAN_TIMEOUT", "")

	f := &fixture{
		dir: dir,
		reg: &fakeBackend{
			entries: []startup.Entry{
				{Name: "Foo", Command: `C:\foo.exe`, Source: startup.RegistryRun, Enabled: true},
				{Name: "Explorer", Command: `C:\Windows\explorer.exe`, Source: startup.RegistryRun, Enabled: true},
			},
			caps: backend.Capabilities{DisableRemoves: true, CanRemove: true},
		},
		tasks: &fakeBackend{
			entries: []startup.Entry{
				{Name: "Bar", Command: `C:\bar.exe`, Source: startup.TaskScheduler, Enabled: true, BackendKey: `\Bar`},
				{Name: "Baz", Command: `C:\baz.exe`, Source: startup.TaskScheduler, Enabled: false, BackendKey: `\Baz`},
			},
			caps: backend.Capabilities{CanRemove: true},
		},
	}
	systemBackends = func() *backend.Table {
		table := backend.NewTable()
		table.Register(f.reg, startup.RegistryRun)
		table.Register(f.tasks, startup.TaskScheduler)
		return table
	}
	t.Cleanup(resetBackendDeps)
	return f
}

func (f *fixture) app(t *testing.T) *App {
	t.Helper()
	a, err := New(Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func names(entries []startup.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name)
	}
	return out
}
