// Package diagnostics collects and renders compiler errors and warnings.
//
// Grounded on the teacher repo's internal/analyzer use of a
// *diagnostics.DiagnosticError value collected onto a walker, and on
// its coloured-CLI-output conventions; the max-errors cap and fatal
// latch are this project's own per spec.md §4.1.
package diagnostics

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// Level identifies the severity of a reported diagnostic.
type Level int

const (
	Warning Level = iota
	Error
	Fatal
)

func (l Level) String() string {
	switch l {
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Fatal:
		return "fatal"
	default:
		return "diagnostic"
	}
}

// Code is a stable, machine-readable diagnostic identifier. The prefix
// letter names the taxonomy from spec.md §7: L(ex) P(arse) N(ame)
// T(ype) C(ontext) I(mport) R(untime) F(atal).
type Code string

const (
	ErrLexInvalidChar     Code = "L001"
	ErrLexUnterminated    Code = "L002"
	ErrLexMalformedNumber Code = "L003"

	ErrParseUnexpectedToken Code = "P001"
	ErrParseUnexpectedEOF   Code = "P002"
	ErrParseMissingDelim    Code = "P003"
	ErrParseInvalidDecl     Code = "P004"

	ErrNameUndeclared Code = "N001"
	ErrNameDuplicate  Code = "N002"

	ErrTypeMismatch      Code = "T001"
	ErrTypeNotAssignable Code = "T002"
	ErrTypeArity         Code = "T003"

	ErrContextIllegalReturn      Code = "C001"
	ErrContextIllegalBreak       Code = "C002"
	ErrContextAssignToImmutable  Code = "C003"

	ErrImportUnknownModule  Code = "I001"
	ErrImportMissingExport  Code = "I002"
	ErrImportCycle          Code = "I003"

	ErrRuntimeDivByZero      Code = "R001"
	ErrRuntimeTypeMismatch   Code = "R002"
	ErrRuntimeNotCallable    Code = "R003"
	ErrRuntimeOutOfRange     Code = "R004"
	ErrRuntimeNotAnObject    Code = "R005"
	ErrRuntimeStackOverflow  Code = "R006"
	ErrRuntimeOutOfMemory    Code = "R007"

	ErrFatalInvariant Code = "F001"
)

// Location is a source position: 1-based line and column.
type Location struct {
	File   string
	Line   int
	Column int
	Length int // span length, for caret underlining; 0 means a single caret
}

// Diagnostic is one reported error or warning.
type Diagnostic struct {
	Level      Level
	Code       Code
	Location   Location
	Message    string
	Suggestion string
}

// Diagnostics accumulates diagnostics for one compilation run and
// controls how they are rendered.
type Diagnostics struct {
	out        io.Writer
	color      bool
	maxErrors  int
	errors     []Diagnostic
	warnings   []Diagnostic
	fatal      bool
	cappedOnce bool
	sources    map[string]string
}

// New creates a Diagnostics sink writing to out. Color defaults to
// whether out looks like a terminal (matching the teacher's CLI
// behaviour of auto-detecting color support via go-isatty).
func New(out io.Writer) *Diagnostics {
	d := &Diagnostics{
		out:       out,
		maxErrors: 0, // 0 means unlimited
		sources:   map[string]string{},
	}
	if f, ok := out.(*os.File); ok {
		d.color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return d
}

// EnableColor overrides auto-detection.
func (d *Diagnostics) EnableColor(v bool) { d.color = v }

// SetMaxErrors bounds how many ERROR-level diagnostics are retained.
// A value <= 0 disables the cap. Warnings are never capped.
func (d *Diagnostics) SetMaxErrors(n int) { d.maxErrors = n }

// SetSource registers the text of file so Report can print source context.
func (d *Diagnostics) SetSource(file, text string) { d.sources[file] = text }

// Clear resets all accumulated state, including the fatal latch.
func (d *Diagnostics) Clear() {
	d.errors = nil
	d.warnings = nil
	d.fatal = false
	d.cappedOnce = false
}

// HasErrors reports whether any ERROR or FATAL diagnostic was recorded.
func (d *Diagnostics) HasErrors() bool { return len(d.errors) > 0 || d.fatal }

// HasFatal reports whether a FATAL diagnostic silenced further reports.
func (d *Diagnostics) HasFatal() bool { return d.fatal }

// Count returns the number of ERROR-level diagnostics recorded (FATAL included).
func (d *Diagnostics) Count() int { return len(d.errors) }

// WarningCount returns the number of WARNING-level diagnostics recorded.
func (d *Diagnostics) WarningCount() int { return len(d.warnings) }

// Errors returns the recorded ERROR/FATAL diagnostics in report order.
func (d *Diagnostics) Errors() []Diagnostic { return d.errors }

// Warnings returns the recorded WARNING diagnostics in report order.
func (d *Diagnostics) Warnings() []Diagnostic { return d.warnings }

// Report appends a diagnostic and renders it, subject to the fatal
// latch and the max-errors cap.
func (d *Diagnostics) Report(level Level, code Code, loc Location, message, suggestion string) {
	if d.fatal {
		return
	}

	diag := Diagnostic{Level: level, Code: code, Location: loc, Message: message, Suggestion: suggestion}

	switch level {
	case Warning:
		d.warnings = append(d.warnings, diag)
	case Error:
		if d.maxErrors > 0 && len(d.errors) >= d.maxErrors {
			if !d.cappedOnce {
				d.cappedOnce = true
				d.render(d.thresholdNotice())
			}
			return
		}
		d.errors = append(d.errors, diag)
	case Fatal:
		d.errors = append(d.errors, diag)
		d.fatal = true
	}

	d.render(diag)
}

func (d *Diagnostics) thresholdNotice() Diagnostic {
	return Diagnostic{
		Level:   Warning,
		Code:    "X000",
		Message: fmt.Sprintf("maximum of %d errors reached; further errors suppressed", d.maxErrors),
	}
}

func (d *Diagnostics) render(diag Diagnostic) {
	w := bufio.NewWriter(d.out)
	defer w.Flush()

	header := fmt.Sprintf("%s:%d:%d", diag.Location.File, diag.Location.Line, diag.Location.Column)
	label := fmt.Sprintf("%s[%s]", diag.Level, diag.Code)
	if diag.Location.File == "" {
		fmt.Fprintf(w, "%s: %s\n", d.colorize(label, diag.Level), diag.Message)
		return
	}
	fmt.Fprintf(w, "%s: %s: %s\n", header, d.colorize(label, diag.Level), diag.Message)

	if src, ok := d.sources[diag.Location.File]; ok {
		if line := sourceLine(src, diag.Location.Line); line != "" {
			fmt.Fprintf(w, "    %s\n", line)
			span := diag.Location.Length
			if span < 1 {
				span = 1
			}
			pad := strings.Repeat(" ", max0(diag.Location.Column-1))
			caret := strings.Repeat("^", span)
			fmt.Fprintf(w, "    %s%s\n", pad, d.colorize(caret, diag.Level))
		}
	}

	if diag.Suggestion != "" {
		fmt.Fprintf(w, "    suggestion: %s\n", diag.Suggestion)
	}
}

func (d *Diagnostics) colorize(s string, level Level) string {
	if !d.color {
		return s
	}
	code := "33" // yellow for warnings
	switch level {
	case Error:
		code = "31"
	case Fatal:
		code = "35"
	}
	return fmt.Sprintf("\x1b[%sm%s\x1b[0m", code, s)
}

func sourceLine(src string, line int) string {
	if line < 1 {
		return ""
	}
	lines := strings.Split(src, "\n")
	if line > len(lines) {
		return ""
	}
	return lines[line-1]
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
