// Package diag implements the structured diagnostics described in §7:
// syntax, name, import, not-a-class, verification, and assertion-failure
// errors, each carrying a source position, rendered with a five-line
// context window and a caret under the offending column.
//
// Styling follows the teacher's repl/repl.go, which defines a small palette
// of lipgloss.Style values for error/prompt/result text; this package
// reuses that same declare-a-style-per-concern approach for a batch CLI
// instead of an interactive REPL.
package diag

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Kind classifies a diagnostic per §7.
type Kind string

const (
	Syntax           Kind = "syntax"
	Name             Kind = "name"
	Import           Kind = "import"
	NotAClass        Kind = "not-a-class"
	Verification     Kind = "verification"
	AssertionFailure Kind = "assertion"
)

// Error is one diagnostic tied to a source location.
type Error struct {
	Kind     Kind
	Filename string
	Line     int
	Column   int
	Message  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s: %s", e.Filename, e.Line, e.Column, e.Kind, e.Message)
}

func New(kind Kind, filename string, line, column int, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Filename: filename, Line: line, Column: column, Message: fmt.Sprintf(format, args...)}
}

var (
	locationStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA"))

	kindStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF5F87"))

	messageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF8700"))

	gutterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#767676"))

	caretLineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F87")).
			Bold(true)
)

// contextRadius is the number of lines shown above and below the error
// line, per §7 ("a context window of five lines above and below").
const contextRadius = 5

// Render produces the five-line-context-plus-caret report for err against
// source, the full text of err.Filename.
func Render(err *Error, source string) string {
	var b strings.Builder

	b.WriteString(locationStyle.Render(fmt.Sprintf("%s:%d:%d:", err.Filename, err.Line, err.Column)))
	b.WriteByte(' ')
	b.WriteString(kindStyle.Render(string(err.Kind)))
	b.WriteString(": ")
	b.WriteString(messageStyle.Render(err.Message))
	b.WriteByte('\n')

	lines := strings.Split(source, "\n")
	start := err.Line - contextRadius
	if start < 1 {
		start = 1
	}
	end := err.Line + contextRadius
	if end > len(lines) {
		end = len(lines)
	}

	for n := start; n <= end; n++ {
		text := ""
		if n-1 < len(lines) {
			text = lines[n-1]
		}
		gutter := gutterStyle.Render(fmt.Sprintf("%5d | ", n))
		b.WriteString(gutter)
		b.WriteString(text)
		b.WriteByte('\n')
		if n == err.Line {
			pad := strings.Repeat(" ", err.Column-1)
			b.WriteString(gutterStyle.Render("      | "))
			b.WriteString(caretLineStyle.Render(pad + "^"))
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// List accumulates diagnostics during a compile, mirroring the teacher
// parser's errors []string accumulation but carrying structured Errors.
type List struct {
	errors []*Error
}

func (l *List) Add(err *Error)   { l.errors = append(l.errors, err) }
func (l *List) Errors() []*Error { return l.errors }
func (l *List) HasErrors() bool  { return len(l.errors) > 0 }
func (l *List) Len() int         { return len(l.errors) }

// RenderAll renders every accumulated error against source.
func (l *List) RenderAll(source string) string {
	var b strings.Builder
	for _, e := range l.errors {
		b.WriteString(Render(e, source))
		b.WriteByte('\n')
	}
	return b.String()
}
