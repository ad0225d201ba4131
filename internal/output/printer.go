// Package output handles user-facing CLI output with optional styling.
// Logging goes to stderr through internal/logger; everything meant for the
// user's eyes goes through a Printer.
package output

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Printer writes styled or plain output depending on terminal capabilities.
type Printer struct {
	writer     io.Writer
	forcePlain bool

	mu sync.Mutex
}

// Option configures a Printer.
type Option func(*Printer)

// WithWriter redirects output, typically to a capture buffer in tests.
func WithWriter(w io.Writer) Option {
	return func(p *Printer) {
		p.writer = w
	}
}

// Plain disables all styling regardless of terminal capabilities.
func Plain() Option {
	return func(p *Printer) {
		p.forcePlain = true
	}
}

// NewPrinter creates a printer writing to stdout by default.
func NewPrinter(options ...Option) *Printer {
	p := &Printer{writer: os.Stdout}
	for _, opt := range options {
		opt(p)
	}
	return p
}

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))
	headingStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func (p *Printer) styled() bool {
	return !p.forcePlain && lipgloss.ColorProfile() != termenv.Ascii
}

func (p *Printer) write(style lipgloss.Style, text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.styled() {
		text = style.Render(text)
	}
	fmt.Fprintln(p.writer, text)
}

// Println outputs unstyled text with a newline.
func (p *Printer) Println(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.writer, text)
}

// Printf outputs unstyled formatted text.
func (p *Printer) Printf(format string, args ...interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.writer, format, args...)
}

// Success outputs success text, typically green.
func (p *Printer) Success(text string) {
	p.write(successStyle, text)
}

// Error outputs error text, typically red.
func (p *Printer) Error(text string) {
	p.write(errorStyle, text)
}

// Warning outputs warning text, typically orange.
func (p *Printer) Warning(text string) {
	p.write(warningStyle, text)
}

// Info outputs informational text.
func (p *Printer) Info(text string) {
	p.write(infoStyle, text)
}

// Heading outputs a section heading.
func (p *Printer) Heading(text string) {
	p.write(headingStyle, text)
}

// Dim outputs de-emphasized text.
func (p *Printer) Dim(text string) {
	p.write(dimStyle, text)
}
