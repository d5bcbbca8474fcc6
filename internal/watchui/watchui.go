// Package watchui renders one row per compilation unit for `pyas3c build
// --watch`: a live-updating table showing which files are queued,
// compiling, clean, or failing, instead of the build driver's normal
// scroll of diagnostics.
//
// Grounded on the teacher's repl package: the same tea.Program wrapping a
// model/Update/View triple and lipgloss color palette, generalized from
// one running REPL session's history list to one row per builddriver.Unit
// that a background goroutine feeds status updates into via externally
// sent tea.Msg values instead of key-driven evaluation.
package watchui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Status is one unit's place in the compile pipeline.
type Status int

const (
	Pending Status = iota
	Compiling
	Done
	Failed
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	pendingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C6C6C"))
	compilingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB86C")).Bold(true)
	doneStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	failedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87")).Bold(true)
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C6C6C")).Italic(true)
)

func (s Status) glyph() string {
	switch s {
	case Compiling:
		return "~"
	case Done:
		return "✓"
	case Failed:
		return "✗"
	default:
		return "."
	}
}

func (s Status) style() lipgloss.Style {
	switch s {
	case Compiling:
		return compilingStyle
	case Done:
		return doneStyle
	case Failed:
		return failedStyle
	default:
		return pendingStyle
	}
}

type row struct {
	path    string
	status  Status
	err     error
	elapsed time.Duration
}

// StatusMsg reports a status transition for one unit; the build driver's
// goroutine sends these into the running tea.Program as it works through
// the topological compile order.
type StatusMsg struct {
	Path    string
	Status  Status
	Err     error
	Elapsed time.Duration
}

// DoneMsg signals that every unit has been dispatched; the program exits
// once it's received.
type DoneMsg struct{}

type model struct {
	rows  []row
	index map[string]int
	quit  bool
}

func initialModel(paths []string) model {
	rows := make([]row, len(paths))
	index := make(map[string]int, len(paths))
	for i, p := range paths {
		rows[i] = row{path: p, status: Pending}
		index[p] = i
	}
	return model{rows: rows, index: index}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quit = true
			return m, tea.Quit
		}
	case StatusMsg:
		if i, ok := m.index[msg.Path]; ok {
			m.rows[i].status = msg.Status
			m.rows[i].err = msg.Err
			m.rows[i].elapsed = msg.Elapsed
		}
	case DoneMsg:
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("pyas3c build --watch"))
	b.WriteString("\n\n")
	for _, r := range m.rows {
		style := r.status.style()
		line := fmt.Sprintf(" %s %s", r.status.glyph(), r.path)
		if r.status == Done && r.elapsed > 0 {
			line += fmt.Sprintf(" (%s)", r.elapsed.Round(time.Millisecond))
		}
		if r.status == Failed && r.err != nil {
			line += fmt.Sprintf(" — %s", r.err)
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(footerStyle.Render("q to quit"))
	return b.String()
}

// Reporter is what the caller's compile loop uses to push status updates
// into the bubbletea program created by NewReporter. The program's Run
// blocks until it exits (the user quits, or Reporter.Done is called), so
// the compile loop runs in its own goroutine when driving a real build.
type Reporter struct {
	program *tea.Program
}

// NewReporter creates, without starting it, a program rendering a table
// with one pending row per path; the caller starts it with Run.
func NewReporter(paths []string) (*Reporter, *tea.Program) {
	p := tea.NewProgram(initialModel(paths))
	return &Reporter{program: p}, p
}

// Started marks path as compiling.
func (r *Reporter) Started(path string) {
	r.program.Send(StatusMsg{Path: path, Status: Compiling})
}

// Finished marks path as done or failed, recording how long it took and,
// on failure, why.
func (r *Reporter) Finished(path string, elapsed time.Duration, err error) {
	st := Done
	if err != nil {
		st = Failed
	}
	r.program.Send(StatusMsg{Path: path, Status: st, Err: err, Elapsed: elapsed})
}

// Done signals the program to exit after the last unit finishes.
func (r *Reporter) Done() {
	r.program.Send(DoneMsg{})
}
