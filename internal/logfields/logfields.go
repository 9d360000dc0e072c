package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyPlugin     = "plugin"
	KeyHook       = "hook"
	KeyPage       = "page"
	KeyTemplate   = "template"
	KeyPath       = "path"
	KeyOutput     = "output"
	KeySandbox    = "sandbox"
	KeyExitCode   = "exit_code"
	KeyAddr       = "addr"
	KeyClients    = "clients"
	KeyOp         = "op"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyUserAgent  = "user_agent"
	KeyRemoteAddr = "remote_addr"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr      { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr      { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Plugin(name string) slog.Attr     { return slog.String(KeyPlugin, name) }
func Hook(h string) slog.Attr          { return slog.String(KeyHook, h) }
func Page(p string) slog.Attr          { return slog.String(KeyPage, p) }
func Template(name string) slog.Attr   { return slog.String(KeyTemplate, name) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func Output(p string) slog.Attr        { return slog.String(KeyOutput, p) }
func Sandbox(p string) slog.Attr       { return slog.String(KeySandbox, p) }
func ExitCode(code int) slog.Attr      { return slog.Int(KeyExitCode, code) }
func Addr(a string) slog.Attr          { return slog.String(KeyAddr, a) }
func Clients(n int) slog.Attr          { return slog.Int(KeyClients, n) }
func Op(op string) slog.Attr           { return slog.String(KeyOp, op) }
func Method(m string) slog.Attr        { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr        { return slog.Int(KeyStatus, code) }
func UserAgent(ua string) slog.Attr    { return slog.String(KeyUserAgent, ua) }
func RemoteAddr(addr string) slog.Attr { return slog.String(KeyRemoteAddr, addr) }
func Since(start time.Time) slog.Attr  { return DurationMS(float64(time.Since(start).Microseconds()) / 1000) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
