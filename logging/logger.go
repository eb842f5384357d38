package logging

import (
	"io"
	"log/slog"
	"strings"
	"time"
)

// Output formats accepted by New.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// ParseLevel converts a string to a slog.Level, defaulting to INFO.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New creates a structured logger writing to w. format is FormatJSON or
// FormatText; anything else falls back to text.
func New(w io.Writer, level string, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if strings.ToLower(format) == FormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// RunEvent identifies a step of an endpoint evaluation in the logs.
type RunEvent string

// Run event constants identify the evaluation steps operators grep for
const (
	EventSwitch          RunEvent = "switch"           // EventSwitch is the VPN client invocation
	EventSwitchFailed    RunEvent = "switch_failed"    // EventSwitchFailed is a non-zero or abnormal client exit
	EventResolveRetry    RunEvent = "resolve_retry"    // EventResolveRetry is a failed lookup that will be retried
	EventAddressVerified RunEvent = "address_verified" // EventAddressVerified confirms egress through the endpoint
	EventSample          RunEvent = "sample"           // EventSample is a completed speed measurement
	EventDegraded        RunEvent = "degraded"         // EventDegraded is an endpoint recorded without a sample
	EventBreakerChange   RunEvent = "breaker_change"   // EventBreakerChange is a circuit breaker state transition
)

// LogSwitch logs the start of an endpoint switch (INFO level)
func LogSwitch(l *slog.Logger, endpoint string, position, total int) {
	l.Info("connecting to endpoint",
		"event", EventSwitch,
		"endpoint", endpoint,
		"position", position,
		"total", total,
	)
}

// LogSwitchFailed logs a failed VPN client invocation (WARN level)
func LogSwitchFailed(l *slog.Logger, endpoint string, err error) {
	l.Warn("endpoint switch reported failure",
		"event", EventSwitchFailed,
		"endpoint", endpoint,
		"error", err,
	)
}

// LogResolveRetry logs a failed address lookup that will be retried (DEBUG level)
func LogResolveRetry(l *slog.Logger, endpoint, target string, attempt int, wait time.Duration, err error) {
	l.Debug("address lookup failed, retrying",
		"event", EventResolveRetry,
		"endpoint", endpoint,
		"target", target,
		"attempt", attempt,
		"wait", wait.String(),
		"error", err,
	)
}

// LogAddressVerified logs a successful address comparison (INFO level)
func LogAddressVerified(l *slog.Logger, endpoint, internet, server string) {
	l.Info("egress address matches endpoint",
		"event", EventAddressVerified,
		"endpoint", endpoint,
		"internet_ip", internet,
		"server_ip", server,
	)
}

// LogSample logs a completed speed measurement (INFO level)
func LogSample(l *slog.Logger, endpoint string, latency, download, upload float64, elapsed time.Duration) {
	l.Info("speed sample completed",
		"event", EventSample,
		"endpoint", endpoint,
		"latency_ms", latency,
		"download", download,
		"upload", upload,
		"elapsed", elapsed.String(),
	)
}

// LogDegraded logs an endpoint recorded without a usable sample (WARN level)
func LogDegraded(l *slog.Logger, endpoint string, reason string, err error) {
	args := []any{
		"event", EventDegraded,
		"endpoint", endpoint,
		"reason", reason,
	}
	if err != nil {
		args = append(args, "error", err)
	}
	l.Warn("endpoint recorded as degraded", args...)
}

// LogBreakerChange logs a circuit breaker state transition (WARN level)
func LogBreakerChange(l *slog.Logger, name, from, to string) {
	l.Warn("circuit breaker state changed",
		"event", EventBreakerChange,
		"breaker", name,
		"from", from,
		"to", to,
	)
}
