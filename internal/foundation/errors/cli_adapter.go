package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"
)

// Process exit codes by category. Unclassified errors exit with 1.
var exitCodes = map[ErrorCategory]int{
	CategoryValidation:      2,
	CategoryPluginNotFound:  3,
	CategoryPluginExecution: 3,
	CategoryConfig:          7,
	CategoryWatch:           8,
	CategoryNetwork:         8,
	CategoryIntegrity:       9,
	CategoryInternal:        10,
	CategoryBuild:           11,
	CategoryTemplate:        11,
	CategoryConversion:      11,
	CategoryFileSystem:      11,
}

// CLIErrorAdapter prints a command's error and picks the process exit code.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger

	// Stderr and Exit default to os.Stderr and os.Exit.
	Stderr io.Writer
	Exit   func(int)
}

// NewCLIErrorAdapter creates an adapter. Verbose output includes the
// classification and error context.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
		Stderr:  os.Stderr,
		Exit:    os.Exit,
	}
}

// ExitCodeFor returns the exit code for err; 0 for nil.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	if classified, ok := AsClassified(err); ok {
		if code, ok := exitCodes[classified.Category()]; ok {
			return code
		}
	}
	return 1
}

// FormatError renders err for the terminal.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	classified, ok := AsClassified(err)
	if !ok {
		return "Error: " + err.Error()
	}
	if !a.verbose {
		if classified.Cause() != nil {
			return fmt.Sprintf("Error: %s: %v", classified.Message(), classified.Cause())
		}
		return "Error: " + classified.Message()
	}

	var b strings.Builder
	b.WriteString(err.Error())
	ctx := classified.Context()
	for _, k := range slices.Sorted(maps.Keys(ctx)) {
		fmt.Fprintf(&b, "\n  %s: %v", k, ctx[k])
	}
	return b.String()
}

// HandleError logs and prints err, then exits with its code. A nil err is a
// no-op.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}
	if a.shouldLog(err) {
		a.logError(err)
	}
	_, _ = fmt.Fprintln(a.Stderr, a.FormatError(err))
	a.Exit(a.ExitCodeFor(err))
}

// shouldLog keeps non-verbose output to the printed message unless the
// error is fatal or unclassified.
func (a *CLIErrorAdapter) shouldLog(err error) bool {
	if a.verbose {
		return true
	}
	if classified, ok := AsClassified(err); ok {
		return classified.IsFatal()
	}
	return true
}

func (a *CLIErrorAdapter) logError(err error) {
	classified, ok := AsClassified(err)
	if !ok {
		a.logger.Error("Unclassified error", "error", err)
		return
	}
	level := slog.LevelError
	switch classified.Severity() {
	case SeverityInfo:
		level = slog.LevelInfo
	case SeverityWarning:
		level = slog.LevelWarn
	}
	attrs := []slog.Attr{slog.String("category", string(classified.Category()))}
	if classified.IsTransient() {
		attrs = append(attrs, slog.Bool("transient", true))
	}
	a.logger.LogAttrs(context.Background(), level, classified.Message(), attrs...)
}
