package logging

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// ConsoleLogger writes log messages to a writer, stderr by default.
// Safe for concurrent use by multiple goroutines.
type ConsoleLogger struct {
	verbose bool
	out     io.Writer
	mu      sync.Mutex

	verbosePrefix string
	errorPrefix   string
}

// NewConsoleLogger creates a ConsoleLogger writing to stderr.
// Prefixes are styled when stderr is a terminal and NO_COLOR is unset.
// If verbose is false, Verbose() calls are no-ops.
func NewConsoleLogger(verbose bool) *ConsoleLogger {
	styled := os.Getenv("NO_COLOR") == "" && term.IsTerminal(int(os.Stderr.Fd()))
	return NewConsoleLoggerTo(os.Stderr, verbose, styled)
}

// NewConsoleLoggerTo creates a ConsoleLogger writing to out.
func NewConsoleLoggerTo(out io.Writer, verbose, styled bool) *ConsoleLogger {
	l := &ConsoleLogger{
		verbose:       verbose,
		out:           out,
		verbosePrefix: "[VERBOSE] ",
		errorPrefix:   "[ERROR] ",
	}
	if styled {
		r := lipgloss.NewRenderer(out)
		l.verbosePrefix = r.NewStyle().Faint(true).Render("[VERBOSE]") + " "
		l.errorPrefix = r.NewStyle().Bold(true).Foreground(lipgloss.Color("9")).Render("[ERROR]") + " "
	}
	return l
}

// Verbose logs detailed diagnostic information if verbose mode is enabled.
func (l *ConsoleLogger) Verbose(format string, args ...interface{}) {
	if !l.verbose {
		return
	}
	l.write(l.verbosePrefix, format, args)
}

// Info logs informational messages about normal operations.
func (l *ConsoleLogger) Info(format string, args ...interface{}) {
	l.write("", format, args)
}

// Error logs error messages.
func (l *ConsoleLogger) Error(format string, args ...interface{}) {
	l.write(l.errorPrefix, format, args)
}

func (l *ConsoleLogger) write(prefix, format string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(args) > 0 {
		fmt.Fprintf(l.out, prefix+format+"\n", args...)
	} else {
		fmt.Fprint(l.out, prefix+format+"\n")
	}
}
