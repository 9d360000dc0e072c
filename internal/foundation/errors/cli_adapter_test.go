package errors

import (
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: 0},
		{name: "validation", err: ValidationError("bad flag").Build(), expected: 2},
		{name: "plugin execution", err: PluginExecutionError("plugin failed").Build(), expected: 3},
		{name: "plugin not found", err: PluginNotFoundError("missing").Build(), expected: 3},
		{name: "config", err: ConfigError("bad config").Build(), expected: 7},
		{name: "network", err: NetworkError("bind failed").Build(), expected: 8},
		{name: "integrity", err: IntegrityError("hash mismatch").Build(), expected: 9},
		{name: "template", err: TemplateError("render failed").Build(), expected: 11},
		{
			name:     "wrapped integrity",
			err:      fmt.Errorf("fatal stage pre_hooks: %w", IntegrityError("hash mismatch").Build()),
			expected: 9,
		},
		{name: "unclassified error", err: &customError{msg: "unknown error"}, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.ExitCodeFor(tt.err); got != tt.expected {
				t.Errorf("ExitCodeFor() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	err := IntegrityError("plugin gen failed integrity check").WithContext("plugin", "gen").Build()

	quiet := NewCLIErrorAdapter(false, slog.Default()).FormatError(err)
	if quiet != "Error: plugin gen failed integrity check" {
		t.Errorf("unexpected non-verbose output %q", quiet)
	}

	verbose := NewCLIErrorAdapter(true, slog.Default()).FormatError(err)
	if !strings.Contains(verbose, "[integrity:fatal]") || !strings.Contains(verbose, "plugin: gen") {
		t.Errorf("verbose output missing classification or context: %q", verbose)
	}

	plain := NewCLIErrorAdapter(false, slog.Default()).FormatError(&customError{msg: "boom"})
	if plain != "Error: boom" {
		t.Errorf("unexpected unclassified output %q", plain)
	}
}

type customError struct {
	msg string
}

func (e *customError) Error() string {
	return e.msg
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var stderr, logs strings.Builder
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logs, nil)))
	adapter.Stderr = &stderr
	code := -1
	adapter.Exit = func(c int) { code = c }

	adapter.HandleError(nil)
	if code != -1 {
		t.Fatalf("nil error must not exit, got %d", code)
	}

	adapter.HandleError(ConfigError("configuration file not found").Build())
	if code != 7 {
		t.Errorf("exit code = %d, want 7", code)
	}
	if stderr.String() != "Error: configuration file not found\n" {
		t.Errorf("unexpected stderr %q", stderr.String())
	}
	if !strings.Contains(logs.String(), "category=config") {
		t.Errorf("fatal error not logged: %q", logs.String())
	}

	logs.Reset()
	adapter.HandleError(TemplateError("render failed").Build())
	if code != 11 {
		t.Errorf("exit code = %d, want 11", code)
	}
	if logs.Len() != 0 {
		t.Errorf("non-fatal error logged in quiet mode: %q", logs.String())
	}
}
