package session

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"deepboot/internal/backend"
	"deepboot/internal/batch"
	"deepboot/internal/filter"
	"deepboot/internal/startup"
	"deepboot/internal/whitelist"
)

type fakeBackend struct {
	caps  backend.Capabilities
	calls []string
	fail  map[string]error
}

func (b *fakeBackend) Scan(context.Context) ([]startup.Entry, error) { return nil, nil }
func (b *fakeBackend) Capabilities() backend.Capabilities          { return b.caps }

func (b *fakeBackend) Disable(_ context.Context, e startup.Entry) error {
	b.calls = append(b.calls, "disable:"+e.Name)
	return b.fail[e.Name]
}

func (b *fakeBackend) Remove(_ context.Context, e startup.Entry) error {
	b.calls = append(b.calls, "remove:"+e.Name)
	return b.fail[e.Name]
}

type fixture struct {
	reg *fakeBackend
	svc *fakeBackend
	s   *Session
}

func (f *fixture) calls() []string {
	return append(append([]string(nil), f.reg.calls...), f.svc.calls...)
}

func fooBar() []startup.Entry {
	return []startup.Entry{
		{Name: "Foo", Command: "foo.exe", Source: startup.RegistryRun, Enabled: true},
		{Name: "Bar", Command: "bar.exe", Source: startup.Service, Enabled: true},
	}
}

func newFixture(t *testing.T, entries []startup.Entry, gate whitelist.Gate) *fixture {
	t.Helper()
	reg := &fakeBackend{caps: backend.Capabilities{DisableRemoves: true, CanRemove: true}}
	svc := &fakeBackend{caps: backend.Capabilities{}}
	table := backend.NewTable()
	table.Register(reg, startup.RegistryRun, startup.RegistryRunOnce)
	table.Register(svc, startup.Service)
	s := New(entries, Options{
		Processor:    batch.Processor{Backends: table},
		Capabilities: table.Capabilities,
		Gate:         gate,
	})
	return &fixture{reg: reg, svc: svc, s: s}
}

// moveTo puts the cursor on the named entry.
func moveTo(t *testing.T, s *Session, name string) {
	t.Helper()
	for i := 0; i < len(s.View()); i++ {
		if e, ok := s.Current(); ok && e.Name == name {
			return
		}
		s.MoveDown()
	}
	t.Fatalf("%s not visible in view", name)
}

func TestDisableSingleEntryEndToEnd(t *testing.T) {
	f := newFixture(t, fooBar(), nil)
	moveTo(t, f.s, "Foo")

	if err := f.s.Request(startup.Disable); err != nil {
		t.Fatalf("Request: %v", err)
	}
	p, ok := f.s.Pending()
	if !ok || f.s.State() != PendingConfirmation {
		t.Fatalf("expected pending confirmation, state %v", f.s.State())
	}
	if !p.Irreversible || !strings.Contains(p.Prompt, "permanently removed") {
		t.Fatalf("registry disable must warn about removal: %+v", p)
	}

	res, err := f.s.Confirm(context.Background())
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if res.Total != 1 || res.Success != 1 || res.Failed != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	entries := f.s.Entries()
	if entries[0].Name != "Foo" || entries[0].Enabled {
		t.Fatalf("Foo should be disabled: %+v", entries[0])
	}
	if entries[1] != fooBar()[1] {
		t.Fatalf("Bar changed: %+v", entries[1])
	}
	if f.s.State() != Browsing || f.s.Message() != "Successfully disabled 'Foo'" {
		t.Fatalf("unexpected state %v message %q", f.s.State(), f.s.Message())
	}
	if got := f.calls(); len(got) != 1 || got[0] != "disable:Foo" {
		t.Fatalf("unexpected backend calls %v", got)
	}
}

func TestSelectionSurvivesViewChange(t *testing.T) {
	f := newFixture(t, fooBar(), nil)
	moveTo(t, f.s, "Foo")
	if err := f.s.ToggleSelection(); err != nil {
		t.Fatalf("ToggleSelection: %v", err)
	}

	f.s.SetFilter(filter.Filter{}.WithSearch("bar"))
	f.s.SetSort(filter.SortSource)
	if v := f.s.View(); len(v) != 1 || v[0].Name != "Bar" {
		t.Fatalf("unexpected view %+v", v)
	}
	if sel := f.s.Selected(); len(sel) != 1 || sel[0] != 0 {
		t.Fatalf("selection changed with the view: %v", sel)
	}

	if err := f.s.Request(startup.Disable); err != nil {
		t.Fatalf("Request: %v", err)
	}
	if _, err := f.s.Confirm(context.Background()); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if got := f.calls(); len(got) != 1 || got[0] != "disable:Foo" {
		t.Fatalf("selection must target Foo, got %v", got)
	}
	if len(f.s.Selected()) != 0 {
		t.Fatal("selection must be cleared after confirm")
	}
}

func TestRequestWithEmptyViewIsUnresolved(t *testing.T) {
	f := newFixture(t, fooBar(), nil)
	f.s.SetFilter(filter.Filter{}.WithSearch("nothing matches"))

	err := f.s.Request(startup.Remove)
	if !errors.Is(err, startup.ErrUnresolved) {
		t.Fatalf("expected ErrUnresolved, got %v", err)
	}
	if f.s.State() != Browsing {
		t.Fatalf("expected to stay in Browsing, got %v", f.s.State())
	}
	if _, err := f.s.Confirm(context.Background()); !errors.Is(err, ErrWrongState) {
		t.Fatalf("Confirm without pending action: %v", err)
	}
	if len(f.calls()) != 0 {
		t.Fatalf("no backend may be called, got %v", f.calls())
	}
}

func TestCancelDiscardsPendingAction(t *testing.T) {
	f := newFixture(t, fooBar(), nil)
	if err := f.s.Request(startup.Remove); err != nil {
		t.Fatalf("Request: %v", err)
	}
	f.s.MoveDown()
	if f.s.Cursor() != 0 {
		t.Fatal("navigation must be ignored while confirming")
	}
	f.s.Cancel()
	if f.s.State() != Browsing {
		t.Fatalf("expected Browsing, got %v", f.s.State())
	}
	if _, ok := f.s.Pending(); ok {
		t.Fatal("pending action kept after cancel")
	}
	if len(f.calls()) != 0 || len(f.s.Entries()) != 2 {
		t.Fatal("cancel must not touch backends or the collection")
	}
}

func TestRemoveDropsSuccessfulEntriesOnly(t *testing.T) {
	entries := append(fooBar(), startup.Entry{Name: "Baz", Command: "baz.exe", Source: startup.RegistryRunOnce, Enabled: true})
	f := newFixture(t, entries, nil)
	f.reg.fail = map[string]error{"Baz": startup.ErrPermissionDenied}
	f.svc.fail = map[string]error{"Bar": startup.ErrNotSupported}
	for _, name := range []string{"Foo", "Baz", "Bar"} {
		moveTo(t, f.s, name)
		if err := f.s.ToggleSelection(); err != nil {
			t.Fatalf("ToggleSelection: %v", err)
		}
	}

	if err := f.s.Request(startup.Remove); err != nil {
		t.Fatalf("Request: %v", err)
	}
	if p, _ := f.s.Pending(); p.Irreversible || !strings.Contains(p.Prompt, "3 selected entries") {
		t.Fatalf("unexpected prompt %+v", p)
	}
	res, _ := f.s.Confirm(context.Background())

	if res.Success != 1 || res.Failed != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
	left := f.s.Entries()
	if len(left) != 2 || left[0].Name != "Bar" || left[1].Name != "Baz" {
		t.Fatalf("unexpected collection %+v", left)
	}
	if !errors.Is(res.Outcomes[1].Err, startup.ErrNotSupported) {
		t.Fatalf("service removal should be refused, got %v", res.Outcomes[1].Err)
	}
	if !strings.HasPrefix(f.s.Message(), "Batch operation completed: 1 successful, 2 failed") {
		t.Fatalf("unexpected message %q", f.s.Message())
	}
}

func TestEnableNeverReachesBackend(t *testing.T) {
	f := newFixture(t, fooBar(), nil)
	if err := f.s.Request(startup.Enable); err != nil {
		t.Fatalf("Request: %v", err)
	}
	res, _ := f.s.Confirm(context.Background())
	if res.Failed != 1 || !errors.Is(res.Outcomes[0].Err, startup.ErrNotSupported) {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(f.calls()) != 0 {
		t.Fatalf("backend called: %v", f.calls())
	}
}

func TestSearchNarrowsOnEveryKeystroke(t *testing.T) {
	f := newFixture(t, fooBar(), nil)
	if err := f.s.BeginSearch(); err != nil {
		t.Fatalf("BeginSearch: %v", err)
	}
	f.s.SearchInput('F')
	f.s.SearchInput('o')
	if v := f.s.View(); len(v) != 1 || v[0].Name != "Foo" {
		t.Fatalf("unexpected view %+v", v)
	}
	f.s.SearchBackspace()
	f.s.SearchBackspace()
	if len(f.s.View()) != 2 {
		t.Fatal("clearing the buffer should widen the view")
	}
	f.s.SearchInput('b')
	f.s.ConfirmSearch()
	if f.s.State() != Browsing || f.s.Filter().SearchTerm != "b" || len(f.s.View()) != 1 {
		t.Fatalf("confirmed search not kept: %v %+v", f.s.State(), f.s.Filter())
	}

	_ = f.s.BeginSearch()
	f.s.SearchInput('x')
	f.s.Cancel()
	if f.s.State() != Browsing || f.s.SearchBuffer() != "" || len(f.s.View()) != 2 {
		t.Fatalf("cancelled search should restore the full view, got %d", len(f.s.View()))
	}
}

func TestCancelSearchRestoresUnfilteredView(t *testing.T) {
	f := newFixture(t, fooBar(), nil)
	f.s.SetFilter(filter.Filter{}.WithSources(startup.Service).OnlyEnabled())
	if v := f.s.View(); len(v) != 1 || v[0].Name != "Bar" {
		t.Fatalf("source filter not applied: %+v", v)
	}

	if err := f.s.BeginSearch(); err != nil {
		t.Fatalf("BeginSearch: %v", err)
	}
	f.s.SearchInput('b')
	f.s.CancelSearch()

	if f.s.State() != Browsing || !f.s.Filter().IsZero() {
		t.Fatalf("filters survived cancel: %v %+v", f.s.State(), f.s.Filter())
	}
	if v := f.s.View(); len(v) != 2 {
		t.Fatalf("expected both entries after cancel, got %+v", v)
	}
}

func TestNavigationWraps(t *testing.T) {
	f := newFixture(t, fooBar(), nil)
	f.s.MoveUp()
	if f.s.Cursor() != 1 {
		t.Fatalf("expected wrap to bottom, got %d", f.s.Cursor())
	}
	f.s.MoveDown()
	if f.s.Cursor() != 0 {
		t.Fatalf("expected wrap to top, got %d", f.s.Cursor())
	}
	f.s.Bottom()
	f.s.Top()
	if f.s.Cursor() != 0 {
		t.Fatal("Top did not move cursor")
	}
}

func TestDisplayStatesToggle(t *testing.T) {
	f := newFixture(t, fooBar(), nil)
	f.s.ToggleStats()
	if f.s.State() != ViewingStats {
		t.Fatalf("expected stats, got %v", f.s.State())
	}
	if err := f.s.Request(startup.Disable); !errors.Is(err, ErrWrongState) {
		t.Fatalf("actions are not allowed from stats view: %v", err)
	}
	f.s.ToggleHelp()
	if f.s.State() != ViewingHelp {
		t.Fatalf("expected help, got %v", f.s.State())
	}
	f.s.ToggleHelp()
	if f.s.State() != Browsing {
		t.Fatalf("expected browsing, got %v", f.s.State())
	}
	if st := f.s.Stats(); st.Total != 2 || st.Enabled != 2 {
		t.Fatalf("unexpected stats %+v", st)
	}
}

func TestExemptPersistsAndRemapsSelection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "whitelist.yaml")
	gate, err := whitelist.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	f := newFixture(t, fooBar(), gate)
	moveTo(t, f.s, "Bar")
	_ = f.s.ToggleSelection()
	moveTo(t, f.s, "Foo")

	if err := f.s.Exempt(); err != nil {
		t.Fatalf("Exempt: %v", err)
	}
	if left := f.s.Entries(); len(left) != 1 || left[0].Name != "Bar" {
		t.Fatalf("Foo should be gone: %+v", left)
	}
	if sel := f.s.Selected(); len(sel) != 1 || sel[0] != 0 {
		t.Fatalf("selection should follow Bar to index 0, got %v", sel)
	}

	reopened, err := whitelist.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	kept, exempted := whitelist.Exclude(reopened, fooBar())
	if exempted != 1 || kept[0].Name != "Bar" {
		t.Fatalf("exemption not persisted: %+v", kept)
	}
}

func TestExemptWithoutGate(t *testing.T) {
	f := newFixture(t, fooBar(), nil)
	if err := f.s.Exempt(); !errors.Is(err, startup.ErrNotSupported) {
		t.Fatalf("expected NotSupported, got %v", err)
	}
}

type failingBackup struct{ calls int }

func (b *failingBackup) Create([]startup.Entry) (string, error) {
	b.calls++
	return "", errors.New("disk full")
}

func TestBackupFailureOnlyWarns(t *testing.T) {
	f := newFixture(t, fooBar(), nil)
	bk := &failingBackup{}
	f.s.opts.Backup = bk
	moveTo(t, f.s, "Foo")
	_ = f.s.Request(startup.Disable)
	res, err := f.s.Confirm(context.Background())
	if err != nil || res.Success != 1 || bk.calls != 1 {
		t.Fatalf("backup failure must not block the action: %+v %v", res, err)
	}
	if !strings.Contains(f.s.Message(), "backup failed") {
		t.Fatalf("expected warning in %q", f.s.Message())
	}
}
