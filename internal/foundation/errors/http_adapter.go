package errors

import (
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"strings"
)

// HTTPErrorAdapter turns errors raised while serving a request into plain
// text responses a browser can show, and logs them.
type HTTPErrorAdapter struct {
	logger *slog.Logger
}

// NewHTTPErrorAdapter creates an adapter. A nil logger means slog.Default().
func NewHTTPErrorAdapter(logger *slog.Logger) *HTTPErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPErrorAdapter{logger: logger}
}

// StatusCodeFor maps an error's category to an HTTP status. Unknown errors
// map to 500.
func (a *HTTPErrorAdapter) StatusCodeFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	c, ok := AsClassified(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch c.Category() {
	case CategoryValidation:
		return http.StatusBadRequest
	case CategoryPluginNotFound:
		return http.StatusNotFound
	case CategoryBuild, CategoryTemplate, CategoryConversion, CategoryIntegrity, CategoryPluginExecution:
		return http.StatusUnprocessableEntity
	case CategoryWatch, CategoryNetwork:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// FormatBody renders the response text: the message followed by sorted
// context lines.
func (a *HTTPErrorAdapter) FormatBody(err error) string {
	c, ok := AsClassified(err)
	if !ok {
		return err.Error() + "\n"
	}
	var b strings.Builder
	b.WriteString(c.Message())
	b.WriteByte('\n')
	ctx := c.Context()
	for _, k := range slices.Sorted(maps.Keys(ctx)) {
		fmt.Fprintf(&b, "%s: %v\n", k, ctx[k])
	}
	return b.String()
}

// WriteError writes err as a text/plain response and logs it at a level
// matching its severity.
func (a *HTTPErrorAdapter) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	status := a.StatusCodeFor(err)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(a.FormatBody(err)))

	level := slog.LevelError
	if c, ok := AsClassified(err); ok {
		switch c.Severity() {
		case SeverityInfo:
			level = slog.LevelInfo
		case SeverityWarning:
			level = slog.LevelWarn
		}
	}
	a.logger.Log(r.Context(), level, "Request failed",
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.String("error", err.Error()))
}
