// Package cli holds terminal output helpers for kaiactl.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
)

// Color codes for terminal output
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorBold   = "\033[1m"
)

// Printer writes status lines and tables. Messages go to Out, errors to Err.
type Printer struct {
	Out   io.Writer
	Err   io.Writer
	Color bool
}

// NewPrinter colors output only when out is a terminal.
func NewPrinter(out, errOut io.Writer) *Printer {
	return &Printer{Out: out, Err: errOut, Color: isTerminal(out)}
}

// Colorize wraps text in color when enabled.
func (p *Printer) Colorize(text, color string) string {
	if !p.Color {
		return text
	}
	return color + text + ColorReset
}

// Success prints a success message
func (p *Printer) Success(format string, args ...any) {
	p.line(p.Out, "✓", ColorGreen, format, args...)
}

// Error prints an error message to Err.
func (p *Printer) Error(format string, args ...any) {
	p.line(p.Err, "✗", ColorRed, format, args...)
}

// Warning prints a warning message
func (p *Printer) Warning(format string, args ...any) {
	p.line(p.Out, "⚠", ColorYellow, format, args...)
}

// Info prints an info message
func (p *Printer) Info(format string, args ...any) {
	p.line(p.Out, "ℹ", ColorBlue, format, args...)
}

func (p *Printer) line(w io.Writer, mark, color, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", p.Colorize(mark, color), fmt.Sprintf(format, args...))
}

// Table prints rows aligned under a bold header.
func (p *Printer) Table(headers []string, rows [][]string) error {
	tw := tabwriter.NewWriter(p.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, p.Colorize(strings.Join(headers, "\t"), ColorBold))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
