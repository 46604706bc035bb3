// File: confforge/conf/audit.go
package conf

import (
	"context"
	"log/slog"
	"os"
	"time"

	slogmulti "github.com/samber/slog-multi"
)

// AuditKind classifies an audit event.
type AuditKind string

const (
	AuditLoad         AuditKind = "load"
	AuditSave         AuditKind = "save"
	AuditChange       AuditKind = "change"
	AuditAccessDenied AuditKind = "access_denied"
	AuditValidation   AuditKind = "validation_error"
	AuditReload       AuditKind = "reload"
)

const redactedPlaceholder = "[REDACTED]"

// AuditEvent is one discrete record of a configuration operation.
type AuditEvent struct {
	Kind  AuditKind
	Path  string
	Old   *Value
	New   *Value
	Actor string
	Time  time.Time
	Err   error
}

// AuditRecorder fans events out to any number of slog sinks. It is an
// explicitly constructed handle passed to the components that emit events;
// there is no package-level recorder. Sink delivery is best-effort: a
// failing sink never fails the operation that produced the event.
type AuditRecorder struct {
	logger *slog.Logger
}

// NewAuditRecorder builds a recorder over the given sinks. With no sinks,
// events are discarded.
func NewAuditRecorder(sinks ...slog.Handler) *AuditRecorder {
	var h slog.Handler
	switch len(sinks) {
	case 0:
		h = slog.DiscardHandler
	case 1:
		h = sinks[0]
	default:
		h = slogmulti.Fanout(sinks...)
	}
	return &AuditRecorder{logger: slog.New(h)}
}

// Record emits one event to every sink.
func (r *AuditRecorder) Record(ev AuditEvent) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	attrs := make([]slog.Attr, 0, 6)
	attrs = append(attrs,
		slog.String("kind", string(ev.Kind)),
		slog.String("actor", ev.Actor),
		slog.Time("at", ev.Time),
	)
	if ev.Path != "" {
		attrs = append(attrs, slog.String("path", ev.Path))
	}
	if ev.Old != nil {
		attrs = append(attrs, slog.String("old", ev.Old.String()))
	}
	if ev.New != nil {
		attrs = append(attrs, slog.String("new", ev.New.String()))
	}
	level := slog.LevelInfo
	if ev.Err != nil {
		level = slog.LevelWarn
		attrs = append(attrs, slog.String("error", ev.Err.Error()))
	}
	r.logger.LogAttrs(context.Background(), level, "config "+string(ev.Kind), attrs...)
}

// ConsoleSink writes human-readable audit lines to stderr.
func ConsoleSink() slog.Handler {
	return slog.NewTextHandler(os.Stderr, nil)
}

// FileSink appends JSON audit records to the given file. The caller owns
// the file's lifetime; the returned closer flushes and releases it.
func FileSink(path string) (slog.Handler, func() error, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return slog.NewJSONHandler(f, nil), f.Close, nil
}
