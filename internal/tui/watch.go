// Package tui provides the interactive watch screen: it reruns the
// testsuite whenever a test file changes and shows the latest results.
package tui

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"

	"github.com/compilertools/dgcheck/internal/harness"
	"github.com/compilertools/dgcheck/pkg/core"
)

// debounce coalesces editor write bursts into one rerun.
const debounce = 250 * time.Millisecond

type fileChangedMsg struct{ path string }

type runFinishedMsg struct {
	report *harness.Report
	err    error
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Faint(true)
	footerStyle = lipgloss.NewStyle().Faint(true).MarginTop(1)
)

// Model is the bubbletea model for the watch screen.
type Model struct {
	h       *harness.Harness
	watcher *fsnotify.Watcher
	selects []string

	spinner spinner.Model
	table   table.Model

	running bool
	pending bool
	report  *harness.Report
	err     error
	changed string
	width   int
	height  int
}

// New creates the watch model and starts watching the tests directory tree.
func New(h *harness.Harness, testsDir string, selects []string) (*Model, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	// fsnotify does not recurse, so register every directory.
	err = filepath.WalkDir(testsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch tests directory: %w", err)
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	t := table.New(
		table.WithColumns(resultColumns(80)),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	return &Model{
		h:       h,
		watcher: watcher,
		selects: selects,
		spinner: sp,
		table:   t,
	}, nil
}

// Close releases the file watcher.
func (m *Model) Close() error {
	return m.watcher.Close()
}

// Init starts the first run and the watch loop.
func (m *Model) Init() tea.Cmd {
	m.running = true
	return tea.Batch(m.spinner.Tick, m.runSuite(), m.waitForChange())
}

// waitForChange blocks on the watcher until a test file is written.
func (m *Model) waitForChange() tea.Cmd {
	return func() tea.Msg {
		for {
			select {
			case event, ok := <-m.watcher.Events:
				if !ok {
					return nil
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				// Let the editor finish its write burst.
				time.Sleep(debounce)
				drainEvents(m.watcher)
				return fileChangedMsg{path: event.Name}
			case _, ok := <-m.watcher.Errors:
				if !ok {
					return nil
				}
			}
		}
	}
}

func drainEvents(w *fsnotify.Watcher) {
	for {
		select {
		case <-w.Events:
		default:
			return
		}
	}
}

// runSuite executes the testsuite off the UI goroutine.
func (m *Model) runSuite() tea.Cmd {
	h, selects := m.h, m.selects
	return func() tea.Msg {
		report, err := h.Run(context.Background(), selects)
		return runFinishedMsg{report: report, err: err}
	}
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			if !m.running {
				m.running = true
				return m, tea.Batch(m.spinner.Tick, m.runSuite())
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetColumns(resultColumns(msg.Width))
		if msg.Height > 10 {
			m.table.SetHeight(msg.Height - 7)
		}

	case fileChangedMsg:
		m.changed = msg.path
		if m.running {
			m.pending = true
			return m, m.waitForChange()
		}
		m.running = true
		return m, tea.Batch(m.spinner.Tick, m.runSuite(), m.waitForChange())

	case runFinishedMsg:
		m.running = false
		m.report = msg.report
		m.err = msg.err
		if msg.report != nil {
			m.table.SetRows(resultRows(msg.report.Results))
		}
		if m.pending {
			m.pending = false
			m.running = true
			return m, tea.Batch(m.spinner.Tick, m.runSuite())
		}
		return m, nil

	case spinner.TickMsg:
		if m.running {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the watch screen.
func (m *Model) View() string {
	var b strings.Builder

	header := titleStyle.Render("dgcheck watch") + mutedStyle.Render("  "+m.h.Toolchain().Triple())
	b.WriteString(header + "\n")

	switch {
	case m.running:
		b.WriteString(m.spinner.View() + " running testsuite...\n")
	case m.err != nil:
		b.WriteString(failStyle.Render("error: "+m.err.Error()) + "\n")
	case m.report != nil:
		line := summaryView(m.report.Summary)
		b.WriteString(line + mutedStyle.Render(fmt.Sprintf("  in %s", m.report.Elapsed.Round(time.Millisecond))) + "\n")
	default:
		b.WriteString("waiting for first run\n")
	}

	if m.changed != "" {
		b.WriteString(mutedStyle.Render("last change: "+m.changed) + "\n")
	}
	b.WriteString("\n")
	b.WriteString(m.table.View())
	b.WriteString(footerStyle.Render("\nr rerun  q quit"))

	return b.String()
}

func resultColumns(width int) []table.Column {
	detail := width - 14 - 40 - 6
	if detail < 20 {
		detail = 20
	}
	return []table.Column{
		{Title: "Status", Width: 12},
		{Title: "Test", Width: 38},
		{Title: "Detail", Width: detail},
	}
}

func resultRows(results []*core.Result) []table.Row {
	rows := make([]table.Row, 0, len(results))
	for _, res := range results {
		rows = append(rows, table.Row{string(res.Status), res.Test, res.Detail})
	}
	return rows
}

func summaryView(s core.Summary) string {
	parts := []string{passStyle.Render(fmt.Sprintf("%d pass", s.Pass))}
	if s.Fail > 0 {
		parts = append(parts, failStyle.Render(fmt.Sprintf("%d fail", s.Fail)))
	}
	if s.XFail > 0 {
		parts = append(parts, fmt.Sprintf("%d xfail", s.XFail))
	}
	if s.XPass > 0 {
		parts = append(parts, failStyle.Render(fmt.Sprintf("%d xpass", s.XPass)))
	}
	if s.Unresolved > 0 {
		parts = append(parts, failStyle.Render(fmt.Sprintf("%d unresolved", s.Unresolved)))
	}
	if s.Unsupported > 0 {
		parts = append(parts, mutedStyle.Render(fmt.Sprintf("%d unsupported", s.Unsupported)))
	}
	return strings.Join(parts, "  ")
}
