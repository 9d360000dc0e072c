package errors

import "maps"

// ErrorCategory represents the broad category of an error for classification and routing.
type ErrorCategory string

const (
	// CategoryConfig covers a missing or malformed configuration file.
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// CategoryFileSystem covers copy, walk and write failures.
	CategoryFileSystem ErrorCategory = "filesystem"

	// Plugin categories.
	CategoryIntegrity       ErrorCategory = "integrity"
	CategoryPluginNotFound  ErrorCategory = "plugin_not_found"
	CategoryPluginExecution ErrorCategory = "plugin_execution"

	// Content pipeline categories.
	CategoryTemplate   ErrorCategory = "template"
	CategoryConversion ErrorCategory = "conversion"
	CategoryBuild      ErrorCategory = "build"

	// Dev server categories.
	CategoryWatch   ErrorCategory = "watch"
	CategoryNetwork ErrorCategory = "network"

	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates the impact level of an error.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution completely
	SeverityError   ErrorSeverity = "error"   // Fails the current operation
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// RetryStrategy indicates how an error should be handled in retry scenarios.
type RetryStrategy string

const (
	RetryNever      RetryStrategy = "never"       // Permanent failure, don't retry
	RetryNextChange RetryStrategy = "next_change" // A later rebuild may succeed
	RetryUserAction RetryStrategy = "user"        // Requires user intervention
)

// ErrorContext provides structured context for errors.
type ErrorContext map[string]any

// Set returns a copy of c with key set to value. The receiver is not modified.
func (c ErrorContext) Set(key string, value any) ErrorContext {
	out := make(ErrorContext, len(c)+1)
	maps.Copy(out, c)
	out[key] = value
	return out
}

// Get retrieves a context value.
func (c ErrorContext) Get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	value, exists := c[key]
	return value, exists
}

// GetString retrieves a string context value.
func (c ErrorContext) GetString(key string) (string, bool) {
	if value, exists := c.Get(key); exists {
		if str, ok := value.(string); ok {
			return str, true
		}
	}
	return "", false
}
