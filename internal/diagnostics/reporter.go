package diagnostics

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Level controls how much the Reporter prints.
type Level int

const (
	LevelSilent Level = iota
	LevelError
	LevelWarn
	LevelInfo
	LevelVerbose
)

// Stat is one line of a summary block.
type Stat struct {
	Label string
	Value any
}

// Reporter writes CLI output. Errors go to errOut, everything else to out.
type Reporter struct {
	level  Level
	out    io.Writer
	errOut io.Writer
	indent int

	errors   int
	warnings int

	red    *color.Color
	yellow *color.Color
	green  *color.Color
	cyan   *color.Color
	gray   *color.Color
}

// Option configures a Reporter.
type Option func(*Reporter)

// WithWriters redirects standard and error output.
func WithWriters(out, errOut io.Writer) Option {
	return func(r *Reporter) {
		r.out = out
		r.errOut = errOut
	}
}

// WithColors forces colour output on or off.
func WithColors(enabled bool) Option {
	return func(r *Reporter) {
		r.setColors(enabled)
	}
}

// NewReporter creates a Reporter writing to stdout and stderr. Colours follow
// NO_COLOR, FORCE_COLOR and TERM.
func NewReporter(level Level, opts ...Option) *Reporter {
	r := &Reporter{
		level:  level,
		out:    os.Stdout,
		errOut: os.Stderr,
		red:    color.New(color.FgRed, color.Bold),
		yellow: color.New(color.FgYellow, color.Bold),
		green:  color.New(color.FgGreen),
		cyan:   color.New(color.FgCyan),
		gray:   color.New(color.FgHiBlack),
	}
	r.setColors(shouldUseColors())
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewQuietReporter only prints errors.
func NewQuietReporter(opts ...Option) *Reporter {
	return NewReporter(LevelError, opts...)
}

// NewVerboseReporter prints everything.
func NewVerboseReporter(opts ...Option) *Reporter {
	return NewReporter(LevelVerbose, opts...)
}

func (r *Reporter) setColors(enabled bool) {
	for _, c := range []*color.Color{r.red, r.yellow, r.green, r.cyan, r.gray} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
}

// Header prints the tool banner.
func (r *Reporter) Header(message string) {
	if r.level >= LevelInfo {
		fmt.Fprintln(r.out, r.cyan.Sprintf("axon-bind: %s", message))
	}
}

// Section prints a section title.
func (r *Reporter) Section(title string) {
	if r.level >= LevelInfo {
		fmt.Fprintf(r.out, "\n%s:\n", title)
	}
}

// Error prints an error and counts it.
func (r *Reporter) Error(format string, args ...any) {
	r.errors++
	if r.level >= LevelError {
		r.write(r.errOut, r.red.Sprint("✗ "), format, args...)
	}
}

// Warn prints a warning and counts it.
func (r *Reporter) Warn(format string, args ...any) {
	r.warnings++
	if r.level >= LevelWarn {
		r.write(r.errOut, r.yellow.Sprint("! "), format, args...)
	}
}

func (r *Reporter) Info(format string, args ...any) {
	if r.level >= LevelInfo {
		r.write(r.out, "", format, args...)
	}
}

// Success prints a check-marked line.
func (r *Reporter) Success(format string, args ...any) {
	if r.level >= LevelInfo {
		r.write(r.out, r.green.Sprint("✓ "), format, args...)
	}
}

func (r *Reporter) Verbose(format string, args ...any) {
	if r.level >= LevelVerbose {
		r.write(r.out, "", "%s", r.gray.Sprintf(format, args...))
	}
}

// Problem prints an error at a source position and counts it.
func (r *Reporter) Problem(position string, err error) {
	r.Error("%s: %v", position, err)
}

func (r *Reporter) Indent() {
	r.indent++
}

func (r *Reporter) Unindent() {
	if r.indent > 0 {
		r.indent--
	}
}

// Summary prints stats in the given order.
func (r *Reporter) Summary(title string, stats []Stat) {
	if r.level < LevelInfo {
		return
	}
	fmt.Fprintf(r.out, "\n%s\n", title)
	for _, s := range stats {
		fmt.Fprintf(r.out, "   %s: %v\n", s.Label, s.Value)
	}
}

// Errors returns the number of errors reported so far.
func (r *Reporter) Errors() int {
	return r.errors
}

// Warnings returns the number of warnings reported so far.
func (r *Reporter) Warnings() int {
	return r.warnings
}

func (r *Reporter) write(w io.Writer, prefix, format string, args ...any) {
	message := format
	if len(args) > 0 {
		message = fmt.Sprintf(format, args...)
	}
	fmt.Fprintf(w, "%s%s%s\n", strings.Repeat("  ", r.indent), prefix, message)
}

func shouldUseColors() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}
	term := os.Getenv("TERM")
	return term != "" && term != "dumb"
}
