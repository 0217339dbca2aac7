package cli

import (
	"fmt"
	"io"
)

// IO wraps a command's stdout and stderr.
//
// Warnings are collected while the command runs. They are written to stderr
// ahead of the first stdout line and again when the command finishes, so a
// capacity problem stays visible when output is piped through head or tail.
type IO struct {
	out      io.Writer
	errOut   io.Writer
	warnings []warning
	flushed  bool
}

type warning struct {
	text  string
	count int
}

func (w warning) String() string {
	if w.count > 1 {
		return fmt.Sprintf("%s (x%d)", w.text, w.count)
	}

	return w.text
}

// NewIO creates a new IO instance.
func NewIO(out, errOut io.Writer) *IO {
	return &IO{out: out, errOut: errOut}
}

// Warn records a warning. Repeats of the same issue and action are counted
// instead of listed again. Any warning makes [IO.Finish] return 1.
func (o *IO) Warn(issue string, action string) {
	text := issue + ": " + action

	for i := range o.warnings {
		if o.warnings[i].text == text {
			o.warnings[i].count++

			return
		}
	}

	o.warnings = append(o.warnings, warning{text: text, count: 1})
}

// Out returns the stdout writer for code that streams output itself, such
// as the repl session. Writing to it bypasses warning placement.
func (o *IO) Out() io.Writer {
	return o.out
}

// Println writes to stdout.
func (o *IO) Println(a ...any) {
	o.beforeOutput()
	_, _ = fmt.Fprintln(o.out, a...)
}

// Printf writes formatted output to stdout.
func (o *IO) Printf(format string, a ...any) {
	o.beforeOutput()
	_, _ = fmt.Fprintf(o.out, format, a...)
}

// ErrPrintln writes to stderr.
func (o *IO) ErrPrintln(a ...any) {
	_, _ = fmt.Fprintln(o.errOut, a...)
}

// Finish writes the trailing warnings and returns the exit code: 1 if the
// command warned, 0 otherwise.
func (o *IO) Finish() int {
	if len(o.warnings) == 0 {
		return 0
	}

	o.printWarnings()

	return 1
}

func (o *IO) beforeOutput() {
	if o.flushed {
		return
	}

	o.flushed = true
	o.printWarnings()
}

func (o *IO) printWarnings() {
	for _, w := range o.warnings {
		_, _ = fmt.Fprintln(o.errOut, "warning:", w)
	}
}
