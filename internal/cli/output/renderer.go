// Package output renders command results as terminal tables, markdown, or
// JSON depending on the selected mode and the environment.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/compilertools/dgcheck/pkg/core"
)

// Mode selects the rendering style.
type Mode string

const (
	// ModeAuto picks text on a TTY and markdown when piped.
	ModeAuto     Mode = "auto"
	ModeText     Mode = "text"
	ModeMarkdown Mode = "markdown"
	ModeJSON     Mode = "json"
)

// Renderer writes command output in the selected mode.
type Renderer struct {
	out   io.Writer
	errW  io.Writer
	mode  Mode
	color bool
}

// NewRenderer creates a renderer. An empty or "auto" mode resolves against
// whether stdout is a terminal.
func NewRenderer(out, errW io.Writer, mode Mode) *Renderer {
	if mode == "" {
		mode = ModeAuto
	}
	return &Renderer{
		out:   out,
		errW:  errW,
		mode:  mode,
		color: colorEnabled(out),
	}
}

// colorEnabled reports whether styled output should be used: a real
// terminal, a color-capable profile, and no NO_COLOR override.
func colorEnabled(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return termenv.EnvColorProfile() != termenv.Ascii
}

// Out returns the output writer.
func (r *Renderer) Out() io.Writer { return r.out }

// EffectiveMode resolves ModeAuto to a concrete mode.
func (r *Renderer) EffectiveMode() Mode {
	if r.mode != ModeAuto {
		return r.mode
	}
	if f, ok := r.out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return ModeText
	}
	return ModeMarkdown
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Printf writes formatted text to the output writer.
func (r *Renderer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}

// Println writes a line to the output writer.
func (r *Renderer) Println(args ...any) {
	_, _ = fmt.Fprintln(r.out, args...)
}

// Warning writes a warning line to the error writer.
func (r *Renderer) Warning(msg string) {
	if r.color {
		msg = warnStyle.Render(msg)
	}
	_, _ = fmt.Fprintln(r.errW, msg)
}

// Error writes an error line to the error writer.
func (r *Renderer) Error(msg string) {
	if r.color {
		msg = failStyle.Render(msg)
	}
	_, _ = fmt.Fprintln(r.errW, msg)
}

var (
	passStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	dimStyle  = lipgloss.NewStyle().Faint(true)
)

// Status renders a test status, styled when color is enabled.
func (r *Renderer) Status(s core.Status) string {
	if !r.color {
		return string(s)
	}
	switch s {
	case core.StatusPass, core.StatusXFail:
		return passStyle.Render(string(s))
	case core.StatusFail, core.StatusXPass, core.StatusUnresolved:
		return failStyle.Render(string(s))
	case core.StatusUnsupported, core.StatusUntested:
		return dimStyle.Render(string(s))
	}
	return string(s)
}
