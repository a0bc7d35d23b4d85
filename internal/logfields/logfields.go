package logfields

import "log/slog"

// Canonical log field names shared by the fetcher and the runner.
const (
	KeyURL      = "url"
	KeyMethod   = "method"
	KeyStatus   = "status"
	KeyReason   = "reason"
	KeyAttempt  = "attempt"
	KeyCheck    = "check"
	KeyRunID    = "run_id"
	KeyError    = "error"
	KeyDuration = "duration_ms"
)

func URL(u string) slog.Attr        { return slog.String(KeyURL, u) }
func Method(m string) slog.Attr     { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr     { return slog.Int(KeyStatus, code) }
func Reason(r string) slog.Attr     { return slog.String(KeyReason, r) }
func Attempt(n int) slog.Attr       { return slog.Int(KeyAttempt, n) }
func Check(name string) slog.Attr   { return slog.String(KeyCheck, name) }
func RunID(id string) slog.Attr     { return slog.String(KeyRunID, id) }
func DurationMS(ms int64) slog.Attr { return slog.Int64(KeyDuration, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
