package observability

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"time"
)

// slowSpanThreshold marks spans worth logging; filtered report
// computation over the full retail dataset is the usual offender.
const slowSpanThreshold = 500 * time.Millisecond

// Span is a lightweight in-process trace span. There is no exporter;
// spans exist to correlate log lines and to surface slow requests.
type Span struct {
	traceID   string
	spanID    string
	parentID  string
	operation string
	start     time.Time
	tags      []slog.Attr
	failed    bool
	err       error
}

type spanContextKey struct{}

func StartSpan(ctx context.Context, operation string) (context.Context, *Span) {
	span := &Span{
		traceID:   newID(),
		spanID:    newID(),
		operation: operation,
		start:     time.Now(),
	}

	if parent := GetSpan(ctx); parent != nil {
		span.traceID = parent.traceID
		span.parentID = parent.spanID
	}

	return context.WithValue(ctx, spanContextKey{}, span), span
}

func (s *Span) TraceID() string { return s.traceID }

func (s *Span) SetTag(key, value string) {
	s.tags = append(s.tags, slog.String(key, value))
}

func (s *Span) SetError(err error) {
	s.failed = true
	s.err = err
}

// Finish closes the span and logs it when it failed or ran long.
func (s *Span) Finish() {
	duration := time.Since(s.start)
	if !s.failed && duration < slowSpanThreshold {
		return
	}

	attrs := []slog.Attr{
		slog.String("trace_id", s.traceID),
		slog.String("span_id", s.spanID),
		slog.Duration("duration", duration),
	}
	if s.parentID != "" {
		attrs = append(attrs, slog.String("parent_id", s.parentID))
	}
	attrs = append(attrs, s.tags...)

	level := slog.LevelWarn
	msg := "slow span"
	if s.failed {
		level = slog.LevelError
		msg = "span failed"
		if s.err != nil {
			attrs = append(attrs, slog.String("error", s.err.Error()))
		}
	}
	slog.LogAttrs(context.Background(), level, msg, append(attrs, slog.String("operation", s.operation))...)
}

func GetSpan(ctx context.Context) *Span {
	if span, ok := ctx.Value(spanContextKey{}).(*Span); ok {
		return span
	}
	return nil
}

func newID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}
