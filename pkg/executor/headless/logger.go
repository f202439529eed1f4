package headless

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
)

// LogLevel represents the logging verbosity level
type LogLevel int

const (
	// LogLevelQuiet shows only critical information (errors, warnings, final summary)
	LogLevelQuiet LogLevel = iota
	// LogLevelNormal shows standard run progress (default)
	LogLevelNormal
	// LogLevelVerbose shows sessions, delays and observed states
	LogLevelVerbose
	// LogLevelDebug shows every phase transition and captured response
	LogLevelDebug
)

// Logger prints run progress to the console
type Logger struct {
	level  LogLevel
	writer io.Writer

	// ANSI color codes, empty when the writer is not a terminal
	colorReset     string
	colorGreen     string
	colorCyan      string
	colorSalmon    string
	colorYellow    string
	colorRed       string
	colorGray      string
	colorBoldGreen string
	colorBoldRed   string
	colorBoldWhite string
}

// NewLogger creates a logger writing to stdout, colored when stdout is a
// terminal.
func NewLogger(level LogLevel) *Logger {
	l := NewLoggerTo(level, os.Stdout)
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		l.colorReset = "\033[0m"
		l.colorGreen = "\033[32m"
		l.colorCyan = "\033[36m"
		l.colorSalmon = "\033[38;5;217m" // Salmon pink #FFB3BA
		l.colorYellow = "\033[33m"
		l.colorRed = "\033[31m"
		l.colorGray = "\033[90m"
		l.colorBoldGreen = "\033[1;32m"
		l.colorBoldRed = "\033[1;31m"
		l.colorBoldWhite = "\033[1;37m"
	}
	return l
}

// NewLoggerTo creates an uncolored logger writing to w.
func NewLoggerTo(level LogLevel, w io.Writer) *Logger {
	return &Logger{
		level:  level,
		writer: w,
	}
}

// Header prints a prominent header message
func (l *Logger) Header(message string) {
	if l.level >= LogLevelNormal {
		fmt.Fprintf(l.writer, "\n%s%s%s\n", l.colorBoldWhite, strings.Repeat("=", 70), l.colorReset)
		fmt.Fprintf(l.writer, "%s  %s%s\n", l.colorBoldWhite, message, l.colorReset)
		fmt.Fprintf(l.writer, "%s%s%s\n", l.colorBoldWhite, strings.Repeat("=", 70), l.colorReset)
	}
}

// Section prints a section divider
func (l *Logger) Section(title string) {
	if l.level >= LogLevelNormal {
		fmt.Fprintln(l.writer)
		fmt.Fprintf(l.writer, "%s▶ %s%s\n", l.colorCyan, title, l.colorReset)
		fmt.Fprintf(l.writer, "%s%s%s\n", l.colorGray, strings.Repeat("─", 50), l.colorReset)
	}
}

// Successf prints a success message with checkmark
func (l *Logger) Successf(format string, args ...interface{}) {
	if l.level >= LogLevelNormal {
		msg := fmt.Sprintf(format, args...)
		fmt.Fprintf(l.writer, "%s✓ %s%s\n", l.colorBoldGreen, msg, l.colorReset)
	}
}

// Infof prints an informational message
func (l *Logger) Infof(format string, args ...interface{}) {
	if l.level >= LogLevelNormal {
		msg := fmt.Sprintf(format, args...)
		fmt.Fprintf(l.writer, "%s%s%s\n", l.colorSalmon, msg, l.colorReset)
	}
}

// Warningf prints a warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	if l.level >= LogLevelQuiet {
		msg := fmt.Sprintf(format, args...)
		fmt.Fprintf(l.writer, "%s⚠ Warning: %s%s\n", l.colorYellow, msg, l.colorReset)
	}
}

// Errorf prints an error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	if l.level >= LogLevelQuiet {
		msg := fmt.Sprintf(format, args...)
		fmt.Fprintf(l.writer, "%s✗ Error: %s%s\n", l.colorBoldRed, msg, l.colorReset)
	}
}

// Verbosef prints detailed information (only in verbose mode)
func (l *Logger) Verbosef(format string, args ...interface{}) {
	if l.level >= LogLevelVerbose {
		msg := fmt.Sprintf(format, args...)
		fmt.Fprintf(l.writer, "%s→ %s%s\n", l.colorGray, msg, l.colorReset)
	}
}

// Debugf prints debug information (only in debug mode)
func (l *Logger) Debugf(format string, args ...interface{}) {
	if l.level >= LogLevelDebug {
		msg := fmt.Sprintf(format, args...)
		fmt.Fprintf(l.writer, "%s[DEBUG] %s%s\n", l.colorGray, msg, l.colorReset)
	}
}

// PunchSubmitted logs a submitted clock-in/out form
func (l *Logger) PunchSubmitted(date, punch, at string) {
	switch l.level {
	case LogLevelQuiet:
		// Individual punches are not shown in quiet mode
	case LogLevelNormal:
		fmt.Fprintf(l.writer, "%s  • %s %s %s%s\n", l.colorGray, date, punch, at, l.colorReset)
	case LogLevelVerbose, LogLevelDebug:
		fmt.Fprintf(l.writer, "%s  ⏱ Punch: %s at %s on %s%s\n", l.colorCyan, punch, at, date, l.colorReset)
	}
}

// DateResult logs a finished date. Failures are shown at every level.
func (l *Logger) DateResult(index int, date, label string, err error) {
	if err != nil {
		fmt.Fprintf(l.writer, "%s  ✗ [%d] %s: %v%s\n", l.colorBoldRed, index, date, err, l.colorReset)
		return
	}
	if l.level >= LogLevelNormal {
		if label == "" {
			label = "-"
		}
		fmt.Fprintf(l.writer, "%s  ✓ [%d] %s %s%s\n", l.colorGreen, index, date, label, l.colorReset)
	}
}

// Summary prints a final run summary
func (l *Logger) Summary(summary *ExecutionSummary) {
	if l.level < LogLevelQuiet {
		return
	}

	l.printSummaryHeader()
	l.printStatus(summary.Status)
	l.printTaskAndDuration(summary)
	l.printMetrics(summary)
	l.printDates(summary)
	l.printError(summary)
	l.printSummaryFooter()
}

func (l *Logger) printSummaryHeader() {
	fmt.Fprintln(l.writer)
	fmt.Fprintf(l.writer, "%s%s%s\n", l.colorBoldWhite, strings.Repeat("=", 70), l.colorReset)
	fmt.Fprintf(l.writer, "%s  RUN SUMMARY%s\n", l.colorBoldWhite, l.colorReset)
	fmt.Fprintf(l.writer, "%s%s%s\n", l.colorBoldWhite, strings.Repeat("=", 70), l.colorReset)
}

func (l *Logger) printStatus(status string) {
	fmt.Fprint(l.writer, "  Status: ")
	switch status {
	case statusSuccess:
		fmt.Fprintf(l.writer, "%s✓ SUCCESS%s\n", l.colorBoldGreen, l.colorReset)
	case statusPartialSuccess:
		fmt.Fprintf(l.writer, "%s⚠ PARTIAL SUCCESS%s\n", l.colorYellow, l.colorReset)
	case statusFailed:
		fmt.Fprintf(l.writer, "%s✗ FAILED%s\n", l.colorBoldRed, l.colorReset)
	default:
		fmt.Fprintln(l.writer, status)
	}
}

func (l *Logger) printTaskAndDuration(summary *ExecutionSummary) {
	fmt.Fprintf(l.writer, "  Task: %s\n", summary.Task)
	if summary.RunID != "" {
		fmt.Fprintf(l.writer, "  Run: %s\n", summary.RunID)
	}
	fmt.Fprintf(l.writer, "  Duration: %s\n", summary.Duration.Round(time.Second))
}

func (l *Logger) printMetrics(summary *ExecutionSummary) {
	if summary.Metrics.Dates == 0 {
		return
	}

	m := summary.Metrics
	fmt.Fprintf(l.writer, "\n  📊 Metrics:\n")
	fmt.Fprintf(l.writer, "    Dates: %d (changed %d, unchanged %d, failed %d)\n", m.Dates, m.Changed, m.Unchanged, m.Failed)
	if m.PunchesSubmitted > 0 {
		fmt.Fprintf(l.writer, "    Punches: %d submitted, %d committed\n", m.PunchesSubmitted, m.PunchesCommitted)
	}
	if l.level >= LogLevelVerbose {
		fmt.Fprintf(l.writer, "    Sessions: %d\n", m.Sessions)
		fmt.Fprintf(l.writer, "    Responses captured: %d\n", m.ResponsesCaptured)
	}
}

func (l *Logger) printDates(summary *ExecutionSummary) {
	if l.level < LogLevelVerbose || len(summary.Dates) == 0 {
		return
	}

	fmt.Fprintf(l.writer, "\n  📅 Dates:\n")
	for _, d := range summary.Dates {
		if d.Error != "" {
			fmt.Fprintf(l.writer, "%s    ✗ %s %s%s\n", l.colorBoldRed, d.Date, d.Error, l.colorReset)
			continue
		}
		fmt.Fprintf(l.writer, "    • %s %s → %s %s\n", d.Date, d.Before, d.After, d.Label)
	}
}

func (l *Logger) printError(summary *ExecutionSummary) {
	if summary.Error == "" {
		return
	}

	fmt.Fprintln(l.writer)
	fmt.Fprintf(l.writer, "%s  Error Details:%s\n", l.colorBoldRed, l.colorReset)
	fmt.Fprintf(l.writer, "%s    %s%s\n", l.colorRed, summary.Error, l.colorReset)
}

func (l *Logger) printSummaryFooter() {
	fmt.Fprintf(l.writer, "%s%s%s\n", l.colorBoldWhite, strings.Repeat("=", 70), l.colorReset)
	fmt.Fprintln(l.writer)
}

// Newline adds a blank line (respects log level)
func (l *Logger) Newline() {
	if l.level >= LogLevelNormal {
		fmt.Fprintln(l.writer)
	}
}

// ParseLogLevel converts a string log level to LogLevel type
func ParseLogLevel(level string) LogLevel {
	switch level {
	case "quiet":
		return LogLevelQuiet
	case "normal":
		return LogLevelNormal
	case "verbose":
		return LogLevelVerbose
	case "debug":
		return LogLevelDebug
	default:
		return LogLevelNormal
	}
}
