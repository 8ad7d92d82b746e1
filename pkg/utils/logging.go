package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

// Logger prints colored progress messages for the command line
type Logger struct {
	dryRun bool
	out    io.Writer
	errOut io.Writer
}

// NewLogger creates a new logger writing to stdout and stderr
func NewLogger(dryRun bool) *Logger {
	return &Logger{dryRun: dryRun, out: os.Stdout, errOut: os.Stderr}
}

// NewLoggerTo creates a logger writing both streams to w
func NewLoggerTo(w io.Writer, dryRun bool) *Logger {
	return &Logger{dryRun: dryRun, out: w, errOut: w}
}

// DryRunEnabled reports whether changes are only simulated
func (l *Logger) DryRunEnabled() bool {
	return l.dryRun
}

// Success logs a success message in green
func (l *Logger) Success(msg string, args ...interface{}) {
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Fprintln(l.out, green(fmt.Sprintf("✓ "+msg, args...)))
}

// Info logs an informational message in cyan
func (l *Logger) Info(msg string, args ...interface{}) {
	cyan := color.New(color.FgCyan).SprintFunc()
	fmt.Fprintln(l.out, cyan(fmt.Sprintf(msg, args...)))
}

// Warning logs a warning message in yellow
func (l *Logger) Warning(msg string, args ...interface{}) {
	yellow := color.New(color.FgYellow).SprintFunc()
	fmt.Fprintln(l.out, yellow(fmt.Sprintf("⚠ "+msg, args...)))
}

// Error logs an error message in red
func (l *Logger) Error(msg string, err error, args ...interface{}) {
	red := color.New(color.FgRed).SprintFunc()
	text := fmt.Sprintf("✗ "+msg, args...)
	if err != nil {
		text += ": " + err.Error()
	}
	fmt.Fprintln(l.errOut, red(text))
}

// Debug logs a debug message in dim/gray
func (l *Logger) Debug(msg string, args ...interface{}) {
	dim := color.New(color.Faint).SprintFunc()
	fmt.Fprintln(l.out, dim(fmt.Sprintf(msg, args...)))
}

// DryRun logs a dry-run action in yellow
func (l *Logger) DryRun(action string, msg string, args ...interface{}) {
	yellow := color.New(color.FgYellow).SprintFunc()
	fmt.Fprintln(l.out, yellow(fmt.Sprintf("[DRY-RUN] %s: ", action)+fmt.Sprintf(msg, args...)))
}

// Phase prints a section banner
func (l *Logger) Phase(title string, args ...interface{}) {
	l.Info("═══════════════════════════════════════════════════════")
	l.Info(title, args...)
	l.Info("═══════════════════════════════════════════════════════")
}

// LogOptions selects the level, format and destination of the structured logger
type LogOptions struct {
	Level  string
	Format string
	File   string
}

// NewStructuredLogger builds the logrus logger used by the HTTP service and scheduled
// jobs. When File is set, entries go to both stdout and the file.
func NewStructuredLogger(opts LogOptions) (*logrus.Logger, error) {
	logger := logrus.New()

	level := opts.Level
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}
	logger.SetLevel(lvl)

	switch strings.ToLower(opts.Format) {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("invalid log format %q", opts.Format)
	}

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		logger.SetOutput(io.MultiWriter(os.Stdout, f))
	}
	return logger, nil
}
