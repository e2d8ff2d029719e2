// Package tui prints styled status lines for the command line.
//
// Colors are only emitted when the destination is a terminal, so output
// piped into files or CI logs stays plain.
package tui

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// =============================================================================
// COLORS
// =============================================================================

const (
	ColorReset  = "\033[0m"
	ColorBold   = "\033[1m"
	ColorDim    = "\033[2m"
	ColorGreen  = "\033[0;32m"
	ColorBlue   = "\033[0;34m"
	ColorCyan   = "\033[0;36m"
	ColorYellow = "\033[1;33m"
	ColorRed    = "\033[0;31m"
	ColorBrand  = "\033[38;2;31;111;235m" // flightdesk blue
)

const banner = `
  __ _ _       _     _      _           _
 / _| (_) __ _| |__ | |_ __| | ___  ___| | __
| |_| | |/ _' | '_ \| __/ _' |/ _ \/ __| |/ /
|  _| | | (_| | | | | || (_| |  __/\__ \   <
|_| |_|_|\__, |_| |_|\__\__,_|\___||___/_|\_\
         |___/`

// =============================================================================
// PRINTER
// =============================================================================

// Printer writes status lines to w, colored when w is a terminal.
type Printer struct {
	w     io.Writer
	color bool
}

// New returns a Printer for w. Colors are enabled when w is a terminal.
func New(w io.Writer) *Printer {
	color := false
	if f, ok := w.(*os.File); ok {
		color = IsTerminal(f)
	}
	return &Printer{w: w, color: color}
}

// Plain returns a Printer that never emits escape codes.
func Plain(w io.Writer) *Printer {
	return &Printer{w: w}
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Colored reports whether the printer emits escape codes.
func (p *Printer) Colored() bool { return p.color }

func (p *Printer) paint(color, s string) string {
	if !p.color {
		return s
	}
	return color + s + ColorReset
}

// Banner prints the ASCII banner. Nothing is printed off-terminal.
func (p *Printer) Banner() {
	if !p.color {
		return
	}
	fmt.Fprintln(p.w, ColorBrand+ColorBold+banner+ColorReset)
	fmt.Fprintln(p.w)
}

// Header prints a styled section header.
func (p *Printer) Header(title string) {
	rule := p.paint(ColorBold+ColorCyan, "========================================")
	fmt.Fprintf(p.w, "\n%s\n%s\n%s\n\n", rule, p.paint(ColorBold+ColorCyan, "       "+title), rule)
}

// Success prints a success message with green [OK] prefix.
func (p *Printer) Success(msg string) {
	fmt.Fprintf(p.w, "%s %s\n", p.paint(ColorGreen, "[OK]"), msg)
}

// Info prints an info message with blue [INFO] prefix.
func (p *Printer) Info(msg string) {
	fmt.Fprintf(p.w, "%s %s\n", p.paint(ColorBlue, "[INFO]"), msg)
}

// Warn prints a warning message with yellow [WARN] prefix.
func (p *Printer) Warn(msg string) {
	fmt.Fprintf(p.w, "%s %s\n", p.paint(ColorYellow, "[WARN]"), msg)
}

// Error prints an error message with red [ERROR] prefix.
func (p *Printer) Error(msg string) {
	fmt.Fprintf(p.w, "%s %s\n", p.paint(ColorRed, "[ERROR]"), msg)
}

// Step prints a step/action message with cyan >>> prefix.
func (p *Printer) Step(msg string) {
	fmt.Fprintf(p.w, "%s %s\n", p.paint(ColorCyan, ">>>"), msg)
}
