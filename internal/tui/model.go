package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"deepboot/internal/app"
	"deepboot/internal/batch"
	"deepboot/internal/filter"
	"deepboot/internal/session"
	"deepboot/internal/startup"
)

// Controller defines the subset of app.App behaviour the TUI needs.
type Controller interface {
	NewSession(ctx context.Context, timeout time.Duration) (*session.Session, app.ScanResult, error)
	Rescan(ctx context.Context, s *session.Session, timeout time.Duration) (app.ScanResult, error)
	ExportEntries(format string, entries []startup.Entry) (string, error)
}

// Options tunes the model.
type Options struct {
	// Timeout bounds each scan and each confirmed batch.
	Timeout time.Duration
	// ExportFormat is used by the export key; empty means csv.
	ExportFormat string
	// Offline is shown in the title when entries come from a snapshot.
	Offline bool
}

// Model represents the Bubble Tea state. The session is owned by the model;
// while a scan or a confirmed batch runs in a command, busy is set and
// neither Update nor View touches the session.
type Model struct {
	controller Controller
	opts       Options

	keys    keyMap
	help    help.Model
	spinner spinner.Model

	sess      *session.Session
	busy      bool
	busyLabel string
	err       error
	warnings  []string

	width  int
	height int
	offset int

	lastUpdated time.Time
}

// New constructs a TUI model with default styles.
func New(ctrl Controller, opts Options) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = statusStyle
	if opts.ExportFormat == "" {
		opts.ExportFormat = "csv"
	}
	return &Model{
		controller: ctrl,
		opts:       opts,
		keys:       defaultKeys(),
		help:       help.New(),
		spinner:    sp,
		busy:       true,
		busyLabel:  "Scanning startup entries…",
	}
}

// Run spins up the Bubble Tea program with sensible defaults.
func Run(ctrl Controller, opts Options) error {
	m := New(ctrl, opts)
	prog := tea.NewProgram(m, tea.WithAltScreen())
	_, err := prog.Run()
	return err
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, newSessionCmd(m.controller, m.opts.Timeout))
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case sessionReadyMsg:
		m.busy = false
		m.err = nil
		m.sess = msg.sess
		m.applyScan(msg.scan)
		return m, nil

	case rescanDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.sess.SetMessage(fmt.Sprintf("Error: rescan failed: %v", msg.err))
			return m, nil
		}
		m.applyScan(msg.scan)
		return m, nil

	case confirmDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.sess.SetMessage(fmt.Sprintf("Error: %v", msg.err))
		}
		m.clampOffset()
		return m, nil

	case exportDoneMsg:
		if m.busy {
			return m, nil
		}
		if msg.err != nil {
			m.sess.SetMessage(fmt.Sprintf("Error: export failed: %v", msg.err))
		} else {
			m.sess.SetMessage(fmt.Sprintf("Exported view to %s", msg.path))
		}
		return m, nil

	case errMsg:
		m.busy = false
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		if m.busy || m.sess == nil {
			if key.Matches(msg, m.keys.Quit) {
				return m, tea.Quit
			}
			return m, nil
		}
		if key.Matches(msg, m.keys.Quit) && m.sess.State() != session.Searching {
			return m, tea.Quit
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) applyScan(scan app.ScanResult) {
	m.warnings = app.ScanFailureMessages(scan.Failures)
	if scan.BackupErr != nil {
		m.warnings = append(m.warnings, fmt.Sprintf("backup failed: %v", scan.BackupErr))
	}
	m.lastUpdated = time.Now()
	m.offset = 0
	if scan.Exempted > 0 {
		m.sess.SetMessage(fmt.Sprintf("Loaded %d entries (%d whitelisted hidden)", len(scan.Entries), scan.Exempted))
	} else {
		m.sess.SetMessage(fmt.Sprintf("Loaded %d entries", len(scan.Entries)))
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.sess
	switch s.State() {
	case session.Searching:
		switch msg.Type {
		case tea.KeyEnter:
			s.ConfirmSearch()
		case tea.KeyEsc:
			s.CancelSearch()
		case tea.KeyBackspace:
			s.SearchBackspace()
		case tea.KeyUp:
			s.MoveUp()
		case tea.KeyDown:
			s.MoveDown()
		case tea.KeySpace:
			s.SearchInput(' ')
		case tea.KeyRunes:
			for _, r := range msg.Runes {
				s.SearchInput(r)
			}
		case tea.KeyCtrlC:
			return m, tea.Quit
		}
		m.clampOffset()
		return m, nil

	case session.PendingConfirmation:
		switch {
		case key.Matches(msg, m.keys.Yes):
			m.busy = true
			m.busyLabel = "Applying changes…"
			return m, tea.Batch(m.spinner.Tick, confirmCmd(s, m.opts.Timeout))
		case key.Matches(msg, m.keys.No):
			s.Cancel()
		}
		return m, nil

	case session.ViewingStats, session.ViewingHelp:
		switch {
		case key.Matches(msg, m.keys.Stats):
			s.ToggleStats()
		case key.Matches(msg, m.keys.Help):
			s.ToggleHelp()
		case msg.Type == tea.KeyEsc:
			s.Cancel()
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		s.MoveUp()
	case key.Matches(msg, m.keys.Down):
		s.MoveDown()
	case key.Matches(msg, m.keys.Top):
		s.Top()
	case key.Matches(msg, m.keys.Bottom):
		s.Bottom()
	case key.Matches(msg, m.keys.Select):
		if err := s.ToggleSelection(); err != nil {
			s.SetMessage(fmt.Sprintf("Error: %v", err))
		}
	case key.Matches(msg, m.keys.Clear):
		s.ClearSelection()
	case key.Matches(msg, m.keys.Disable):
		_ = s.Request(startup.Disable)
	case key.Matches(msg, m.keys.Remove):
		_ = s.Request(startup.Remove)
	case key.Matches(msg, m.keys.Search):
		_ = s.BeginSearch()
	case key.Matches(msg, m.keys.SortName):
		s.SetSort(filter.SortName)
	case key.Matches(msg, m.keys.SortSource):
		s.SetSort(filter.SortSource)
	case key.Matches(msg, m.keys.SortStatus):
		s.SetSort(filter.SortStatus)
	case key.Matches(msg, m.keys.SortCommand):
		s.SetSort(filter.SortCommand)
	case key.Matches(msg, m.keys.Source):
		s.SetFilter(nextSourceFilter(s.Filter()))
	case key.Matches(msg, m.keys.ClearFilter):
		s.ClearFilter()
	case key.Matches(msg, m.keys.Stats):
		s.ToggleStats()
	case key.Matches(msg, m.keys.Help):
		s.ToggleHelp()
	case key.Matches(msg, m.keys.Whitelist):
		_ = s.Exempt()
	case key.Matches(msg, m.keys.Export):
		return m, exportCmd(m.controller, m.opts.ExportFormat, s.View())
	case key.Matches(msg, m.keys.Rescan):
		m.busy = true
		m.busyLabel = "Rescanning…"
		return m, tea.Batch(m.spinner.Tick, rescanCmd(m.controller, s, m.opts.Timeout))
	case msg.Type == tea.KeyEsc:
		s.Cancel()
	}
	m.clampOffset()
	return m, nil
}

// nextSourceFilter restricts the filter to the next source in declaration
// order, and back to every source after the last one.
func nextSourceFilter(f filter.Filter) filter.Filter {
	all := startup.AllSources()
	if len(f.Sources) != 1 {
		return f.WithSources(all[0])
	}
	for i, src := range all {
		if src == f.Sources[0] && i+1 < len(all) {
			return f.WithSources(all[i+1])
		}
	}
	return f.WithSources()
}

// listHeight is the number of rows available to entries.
func (m *Model) listHeight() int {
	h := m.height - 9
	if h < 3 {
		return 10
	}
	return h
}

func (m *Model) clampOffset() {
	if m.sess == nil {
		return
	}
	cur := m.sess.Cursor()
	h := m.listHeight()
	if cur < m.offset {
		m.offset = cur
	}
	if cur >= m.offset+h {
		m.offset = cur - h + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder

	title := "DeepBoot: startup entries"
	if m.opts.Offline {
		title += " (snapshot, read-only)"
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteByte('\n')

	if m.err != nil {
		b.WriteString(errStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n\n")
		b.WriteString(dimStyle.Render("Press q to quit."))
		return b.String()
	}
	if m.busy {
		b.WriteString(fmt.Sprintf("%s %s\n", m.spinner.View(), m.busyLabel))
		return b.String()
	}

	for _, w := range m.warnings {
		b.WriteString(warnStyle.Render("warning: " + w))
		b.WriteByte('\n')
	}

	switch m.sess.State() {
	case session.ViewingStats:
		b.WriteString(m.sess.Stats().String())
		b.WriteString("\n\n")
		b.WriteString(dimStyle.Render("Press s or esc to return."))
		return b.String()
	case session.ViewingHelp:
		full := m.help
		full.ShowAll = true
		b.WriteString(full.View(m.keys))
		b.WriteString("\n\n")
		b.WriteString(dimStyle.Render("Press h, ? or esc to return."))
		return b.String()
	}

	b.WriteString(headerStyle.Render(m.filterLine()))
	b.WriteByte('\n')
	b.WriteString(m.renderList())

	if cur, ok := m.sess.Current(); ok {
		b.WriteString(detailStyle.Render(detail(cur)))
		b.WriteByte('\n')
	}

	b.WriteString(m.statusLine())
	b.WriteByte('\n')
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) filterLine() string {
	s := m.sess
	parts := []string{fmt.Sprintf("%d/%d shown", len(s.View()), len(s.Entries())), "sort=" + s.SortKey().String()}
	f := s.Filter()
	if s.State() == session.Searching {
		parts = append(parts, fmt.Sprintf("search=%q▏", s.SearchBuffer()))
	} else if f.SearchTerm != "" {
		parts = append(parts, fmt.Sprintf("search=%q", f.SearchTerm))
	}
	if len(f.Sources) > 0 {
		labels := make([]string, 0, len(f.Sources))
		for _, src := range f.Sources {
			labels = append(labels, src.Label())
		}
		parts = append(parts, "source="+strings.Join(labels, ","))
	}
	if n := len(s.Selected()); n > 0 {
		parts = append(parts, fmt.Sprintf("selected=%d", n))
	}
	return strings.Join(parts, " • ")
}

func (m *Model) renderList() string {
	view := m.sess.View()
	if len(view) == 0 {
		return dimStyle.Render("No entries found.") + "\n"
	}
	var b strings.Builder
	end := m.offset + m.listHeight()
	if end > len(view) {
		end = len(view)
	}
	for i := m.offset; i < end; i++ {
		line := m.row(view[i])
		if i == m.sess.Cursor() {
			line = cursorStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

func (m *Model) row(e startup.Entry) string {
	mark := " "
	if m.sess.IsSelected(e) {
		mark = "✓"
	}
	status := enabledStyle.Render("enabled ")
	if !e.Enabled {
		status = disabledStyle.Render("disabled")
	}
	return fmt.Sprintf("[%s] %-32s %-24s %s", mark, truncate(e.Name, 32), e.Source.Label(), status)
}

func (m *Model) statusLine() string {
	msg := m.sess.Message()
	if p, ok := m.sess.Pending(); ok {
		if p.Irreversible {
			return warnStyle.Render(p.Prompt)
		}
		return statusStyle.Render(p.Prompt)
	}
	line := msg
	if !m.lastUpdated.IsZero() {
		if line != "" {
			line += " • "
		}
		line += "scanned " + m.lastUpdated.Format(time.Kitchen)
	}
	if strings.HasPrefix(msg, "Error") {
		return errStyle.Render(line)
	}
	return statusStyle.Render(line)
}

func detail(e startup.Entry) string {
	return fmt.Sprintf("name=%s\nsource=%s status=%s\ncmd=%s\ndescription=%s",
		e.Name, e.Source.Label(), e.Status(), valueOrDash(e.Command), valueOrDash(e.Description))
}

func truncate(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n-1]) + "…"
}

func valueOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

type sessionReadyMsg struct {
	sess *session.Session
	scan app.ScanResult
}

type rescanDoneMsg struct {
	scan app.ScanResult
	err  error
}

type confirmDoneMsg struct {
	res batch.Result
	err error
}

type exportDoneMsg struct {
	path string
	err  error
}

type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

func newSessionCmd(ctrl Controller, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		s, scan, err := ctrl.NewSession(context.Background(), timeout)
		if err != nil {
			return errMsg{err}
		}
		return sessionReadyMsg{sess: s, scan: scan}
	}
}

func rescanCmd(ctrl Controller, s *session.Session, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		scan, err := ctrl.Rescan(context.Background(), s, timeout)
		return rescanDoneMsg{scan: scan, err: err}
	}
}

func confirmCmd(s *session.Session, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		res, err := s.Confirm(ctx)
		return confirmDoneMsg{res: res, err: err}
	}
}

func exportCmd(ctrl Controller, format string, entries []startup.Entry) tea.Cmd {
	return func() tea.Msg {
		path, err := ctrl.ExportEntries(format, entries)
		return exportDoneMsg{path: path, err: err}
	}
}
