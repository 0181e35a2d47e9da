// Package observe defines the span recorder the turn pipeline emits
// instrumentation through. Implementations are injected; correctness
// never depends on them, and the no-op recorder is safe everywhere.
package observe

import (
	"context"
	"log/slog"
	"time"
)

// Recorder starts spans. Swap in Nop() for tests.
type Recorder interface {
	StartSpan(ctx context.Context, name string) (context.Context, Span)
}

// Span collects attributes for one traced unit of work.
type Span interface {
	SetAttribute(key string, value any)
	SetUsage(promptTokens, completionTokens int)
	SetOutput(value any)
	End()
}

// Nop returns a recorder that discards everything.
func Nop() Recorder { return nopRecorder{} }

type nopRecorder struct{}

func (nopRecorder) StartSpan(ctx context.Context, name string) (context.Context, Span) {
	return ctx, nopSpan{}
}

type nopSpan struct{}

func (nopSpan) SetAttribute(string, any) {}
func (nopSpan) SetUsage(int, int)        {}
func (nopSpan) SetOutput(any)            {}
func (nopSpan) End()                     {}

// NewLog returns a recorder that emits one debug log line per span on
// End, carrying the accumulated attributes and duration.
func NewLog(logger *slog.Logger) Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &logRecorder{logger: logger}
}

type logRecorder struct {
	logger *slog.Logger
}

func (r *logRecorder) StartSpan(ctx context.Context, name string) (context.Context, Span) {
	return ctx, &logSpan{
		logger:  r.logger,
		name:    name,
		started: time.Now(),
	}
}

type logSpan struct {
	logger  *slog.Logger
	name    string
	started time.Time
	attrs   []slog.Attr
}

func (s *logSpan) SetAttribute(key string, value any) {
	s.attrs = append(s.attrs, slog.Any(key, value))
}

func (s *logSpan) SetUsage(promptTokens, completionTokens int) {
	s.attrs = append(s.attrs,
		slog.Int("prompt_tokens", promptTokens),
		slog.Int("completion_tokens", completionTokens),
	)
}

func (s *logSpan) SetOutput(value any) {
	s.attrs = append(s.attrs, slog.Any("output", value))
}

func (s *logSpan) End() {
	attrs := append(s.attrs, slog.Duration("duration", time.Since(s.started)))
	s.logger.LogAttrs(context.Background(), slog.LevelDebug, "span "+s.name, attrs...)
}
