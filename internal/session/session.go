// Package session is the interactive state machine shared by frontends:
// cursor, selection, search, pending confirmation and the last batch
// result. A Session is owned by one goroutine.
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"deepboot/internal/backend"
	"deepboot/internal/batch"
	"deepboot/internal/filter"
	"deepboot/internal/inventory"
	"deepboot/internal/startup"
	"deepboot/internal/stats"
	"deepboot/internal/whitelist"
)

// State is the current interaction mode.
type State int

const (
	Browsing State = iota
	Searching
	PendingConfirmation
	ViewingStats
	ViewingHelp
)

func (s State) String() string {
	switch s {
	case Browsing:
		return "browsing"
	case Searching:
		return "searching"
	case PendingConfirmation:
		return "confirming"
	case ViewingStats:
		return "stats"
	case ViewingHelp:
		return "help"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ErrWrongState is returned when an event is not valid in the current
// state. The session is left unchanged.
var ErrWrongState = errors.New("not allowed in current state")

// Pending is an action awaiting confirmation. Targets are authoritative
// indices.
type Pending struct {
	Action  startup.Action
	Targets []int
	Prompt  string
	// Irreversible is set when disabling will delete a registration.
	Irreversible bool
}

// Snapshotter saves entries before they are mutated.
type Snapshotter interface {
	Create(entries []startup.Entry) (string, error)
}

// Options wires the session's collaborators. Only Processor is required
// for Confirm to reach a backend.
type Options struct {
	Processor batch.Processor
	// Capabilities reports how a source realises actions; nil means the
	// zero Capabilities for every source.
	Capabilities func(startup.Source) backend.Capabilities
	Gate         whitelist.Gate
	Backup       Snapshotter
	Sort         filter.SortKey
	Filter       filter.Filter
}

// Session holds every piece of interactive state.
type Session struct {
	opts Options

	inv      *inventory.Inventory
	view     []startup.Entry
	cursor   int
	selected map[int]struct{}

	state   State
	filter  filter.Filter
	sortKey filter.SortKey
	search  string
	pending *Pending

	last    *batch.Result
	message string
}

// New starts a session over entries in the Browsing state.
func New(entries []startup.Entry, opts Options) *Session {
	s := &Session{
		opts:     opts,
		inv:      inventory.New(entries),
		selected: make(map[int]struct{}),
		filter:   opts.Filter,
		sortKey:  opts.Sort,
	}
	s.refresh()
	return s
}

// Reset replaces the collection, for example after a rescan. Selection and
// any pending action are dropped.
func (s *Session) Reset(entries []startup.Entry) {
	s.inv = inventory.New(entries)
	s.selected = make(map[int]struct{})
	s.pending = nil
	s.state = Browsing
	s.refresh()
}

// refresh recomputes the derived view, keeping the cursor on the same entry
// when it is still visible.
func (s *Session) refresh() {
	var current *startup.Key
	if e, ok := s.Current(); ok {
		k := e.Key()
		current = &k
	}
	s.view = filter.View(s.inv.Entries(), s.effectiveFilter(), s.sortKey)
	if current != nil {
		for i, e := range s.view {
			if e.Key() == *current {
				s.cursor = i
				return
			}
		}
	}
	s.clampCursor()
}

func (s *Session) effectiveFilter() filter.Filter {
	if s.state == Searching {
		return s.filter.WithSearch(s.search)
	}
	return s.filter
}

func (s *Session) clampCursor() {
	switch {
	case len(s.view) == 0:
		s.cursor = 0
	case s.cursor >= len(s.view):
		s.cursor = len(s.view) - 1
	case s.cursor < 0:
		s.cursor = 0
	}
}

func (s *Session) navigable() bool {
	return (s.state == Browsing || s.state == Searching) && len(s.view) > 0
}

// MoveDown advances the cursor, wrapping to the top.
func (s *Session) MoveDown() {
	if !s.navigable() {
		return
	}
	s.cursor = (s.cursor + 1) % len(s.view)
}

// MoveUp moves the cursor back, wrapping to the bottom.
func (s *Session) MoveUp() {
	if !s.navigable() {
		return
	}
	s.cursor = (s.cursor - 1 + len(s.view)) % len(s.view)
}

func (s *Session) Top() {
	if s.navigable() {
		s.cursor = 0
	}
}

func (s *Session) Bottom() {
	if s.navigable() {
		s.cursor = len(s.view) - 1
	}
}

// ToggleSelection adds or removes the cursor entry from the selection.
func (s *Session) ToggleSelection() error {
	if s.state != Browsing {
		return ErrWrongState
	}
	idx, err := s.resolveCursor()
	if err != nil {
		return err
	}
	if _, ok := s.selected[idx]; ok {
		delete(s.selected, idx)
	} else {
		s.selected[idx] = struct{}{}
	}
	return nil
}

func (s *Session) ClearSelection() {
	if s.state == Browsing {
		s.selected = make(map[int]struct{})
	}
}

// resolveCursor maps the cursor's view entry to its authoritative index by
// identity. It never falls back to another entry.
func (s *Session) resolveCursor() (int, error) {
	e, ok := s.Current()
	if !ok {
		return -1, fmt.Errorf("no entry under cursor: %w", startup.ErrUnresolved)
	}
	return s.inv.Resolve(e)
}

// Request stages action for the selection, or for the cursor entry when
// nothing is selected, and moves to PendingConfirmation.
func (s *Session) Request(action startup.Action) error {
	if s.state != Browsing {
		return ErrWrongState
	}
	var targets []int
	if len(s.selected) > 0 {
		targets = s.Selected()
	} else {
		idx, err := s.resolveCursor()
		if err != nil {
			s.message = fmt.Sprintf("Error: %v", err)
			return err
		}
		targets = []int{idx}
	}

	p := &Pending{Action: action, Targets: targets}
	if len(targets) == 1 {
		e, _ := s.inv.At(targets[0])
		p.Prompt = fmt.Sprintf("Press 'y' to %s '%s' or 'n' to cancel", action.Verb(), e.Name)
	} else {
		p.Prompt = fmt.Sprintf("Press 'y' to %s %d selected entries or 'n' to cancel", action.Verb(), len(targets))
	}
	if action == startup.Disable && s.disablesByDeletion(targets) {
		p.Irreversible = true
		p.Prompt += " (registry entries have no disabled state: they will be permanently removed)"
	}
	s.pending = p
	s.state = PendingConfirmation
	s.message = p.Prompt
	return nil
}

func (s *Session) disablesByDeletion(targets []int) bool {
	if s.opts.Capabilities == nil {
		return false
	}
	for _, i := range targets {
		e, ok := s.inv.At(i)
		if ok && s.opts.Capabilities(e.Source).DisableRemoves {
			return true
		}
	}
	return false
}

// Confirm executes the pending action, applies the successes to the
// collection and returns to Browsing.
func (s *Session) Confirm(ctx context.Context) (batch.Result, error) {
	if s.state != PendingConfirmation || s.pending == nil {
		return batch.Result{}, ErrWrongState
	}
	p := s.pending
	s.pending = nil
	s.state = Browsing

	var (
		targets = make([]startup.Entry, 0, len(p.Targets))
		indices = make([]int, 0, len(p.Targets))
	)
	for _, i := range p.Targets {
		if e, ok := s.inv.At(i); ok {
			targets = append(targets, e)
			indices = append(indices, i)
		}
	}

	var backupNote string
	if s.opts.Backup != nil && p.Action != startup.Enable {
		if _, err := s.opts.Backup.Create(targets); err != nil {
			backupNote = fmt.Sprintf(" (warning: backup failed: %v)", err)
		}
	}

	res := s.opts.Processor.Process(ctx, targets, p.Action)

	var removed []int
	for i, o := range res.Outcomes {
		if !o.OK() {
			continue
		}
		switch p.Action {
		case startup.Disable:
			s.inv.MarkDisabled(indices[i])
		case startup.Remove:
			removed = append(removed, indices[i])
		}
	}
	if len(removed) > 0 {
		s.inv.RemoveIndices(removed...)
	}

	s.selected = make(map[int]struct{})
	s.last = &res
	s.message = resultMessage(p.Action, res) + backupNote
	s.refresh()
	return res, nil
}

func resultMessage(action startup.Action, res batch.Result) string {
	if res.Total != 1 {
		return res.Summary()
	}
	o := res.Outcomes[0]
	if o.OK() {
		return fmt.Sprintf("Successfully %sd '%s'", action.Verb(), o.Entry.Name)
	}
	return fmt.Sprintf("Error: Failed to %s '%s': %v", action.Verb(), o.Entry.Name, o.Err)
}

// Cancel abandons whatever the current mode is doing and returns to
// Browsing. No backend is called.
func (s *Session) Cancel() {
	switch s.state {
	case PendingConfirmation:
		s.pending = nil
		s.state = Browsing
		s.message = "Cancelled"
	case Searching:
		s.CancelSearch()
	case ViewingStats, ViewingHelp:
		s.state = Browsing
	}
}

// BeginSearch enters Searching with an empty buffer.
func (s *Session) BeginSearch() error {
	if s.state != Browsing {
		return ErrWrongState
	}
	s.state = Searching
	s.search = ""
	s.message = "Enter search term (press Enter to search, Esc to cancel)"
	s.refresh()
	return nil
}

// SearchInput appends r and narrows the view immediately.
func (s *Session) SearchInput(r rune) {
	if s.state != Searching {
		return
	}
	s.search += string(r)
	s.refresh()
}

func (s *Session) SearchBackspace() {
	if s.state != Searching || s.search == "" {
		return
	}
	rs := []rune(s.search)
	s.search = string(rs[:len(rs)-1])
	s.refresh()
}

// ConfirmSearch keeps the narrowed view and returns to Browsing.
func (s *Session) ConfirmSearch() {
	if s.state != Searching {
		return
	}
	s.filter = s.filter.WithSearch(s.search)
	s.state = Browsing
	s.message = ""
	s.refresh()
}

// CancelSearch drops the search term and every other filter, returning
// to Browsing over the whole collection.
func (s *Session) CancelSearch() {
	if s.state != Searching {
		return
	}
	s.search = ""
	s.filter = filter.Filter{}
	s.state = Browsing
	s.message = ""
	s.refresh()
}

func (s *Session) SetSort(key filter.SortKey) {
	if s.state != Browsing && s.state != Searching {
		return
	}
	s.sortKey = key
	s.refresh()
}

func (s *Session) SetFilter(f filter.Filter) {
	if s.state != Browsing {
		return
	}
	s.filter = f
	s.refresh()
}

func (s *Session) ClearFilter() {
	s.SetFilter(filter.Filter{})
}

// ToggleStats switches between the list and the statistics view.
func (s *Session) ToggleStats() {
	s.toggleDisplay(ViewingStats)
}

// ToggleHelp switches between the list and the help view.
func (s *Session) ToggleHelp() {
	s.toggleDisplay(ViewingHelp)
}

func (s *Session) toggleDisplay(target State) {
	switch s.state {
	case target:
		s.state = Browsing
	case Browsing, ViewingStats, ViewingHelp:
		s.state = target
	}
}

// Exempt whitelists the cursor entry and drops every entry the gate now
// exempts from the collection. Selected entries that survive stay selected.
func (s *Session) Exempt() error {
	if s.state != Browsing {
		return ErrWrongState
	}
	if s.opts.Gate == nil {
		return fmt.Errorf("whitelist: %w", startup.ErrNotSupported)
	}
	idx, err := s.resolveCursor()
	if err != nil {
		return err
	}
	e, _ := s.inv.At(idx)
	if err := s.opts.Gate.Add(e); err != nil {
		s.message = fmt.Sprintf("Failed to whitelist: %v", err)
		return err
	}
	remap := s.inv.Exclude(func(x startup.Entry) bool {
		return x.Key() == e.Key() || s.opts.Gate.IsExempt(x)
	})
	next := make(map[int]struct{}, len(s.selected))
	for _, i := range inventory.Remap(s.Selected(), remap) {
		next[i] = struct{}{}
	}
	s.selected = next
	s.message = fmt.Sprintf("Added '%s' to whitelist", e.Name)
	s.refresh()
	return nil
}

func (s *Session) State() State { return s.state }

// View returns a copy of the derived view.
func (s *Session) View() []startup.Entry {
	return append([]startup.Entry(nil), s.view...)
}

// Entries returns a copy of the authoritative collection.
func (s *Session) Entries() []startup.Entry { return s.inv.Entries() }

func (s *Session) Cursor() int { return s.cursor }

// Current returns the entry under the cursor.
func (s *Session) Current() (startup.Entry, bool) {
	if s.cursor < 0 || s.cursor >= len(s.view) {
		return startup.Entry{}, false
	}
	return s.view[s.cursor], true
}

// Selected returns the selected authoritative indices, sorted.
func (s *Session) Selected() []int {
	out := make([]int, 0, len(s.selected))
	for i := range s.selected {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// IsSelected reports whether a view entry is part of the selection.
func (s *Session) IsSelected(e startup.Entry) bool {
	i, ok := s.inv.IndexOf(e.Key())
	if !ok {
		return false
	}
	_, sel := s.selected[i]
	return sel
}

// Pending returns the staged action, if any.
func (s *Session) Pending() (Pending, bool) {
	if s.pending == nil {
		return Pending{}, false
	}
	p := *s.pending
	p.Targets = append([]int(nil), p.Targets...)
	return p, true
}

// LastResult returns the most recent batch result.
func (s *Session) LastResult() (batch.Result, bool) {
	if s.last == nil {
		return batch.Result{}, false
	}
	return *s.last, true
}

func (s *Session) Message() string { return s.message }

// SetMessage shows a status line from outside the state machine, such as
// an export result.
func (s *Session) SetMessage(msg string) { s.message = msg }

// Stats summarises the authoritative collection.
func (s *Session) Stats() stats.Summary { return stats.Summarize(s.inv.Entries()) }

func (s *Session) SearchBuffer() string { return s.search }

func (s *Session) SortKey() filter.SortKey { return s.sortKey }

func (s *Session) Filter() filter.Filter { return s.filter }
