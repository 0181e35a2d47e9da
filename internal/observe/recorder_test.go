package observe

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestNopRecorderDoesNothing(t *testing.T) {
	ctx, span := Nop().StartSpan(context.Background(), "noop")
	if ctx == nil {
		t.Fatal("expected a context back")
	}
	span.SetAttribute("k", "v")
	span.SetUsage(10, 5)
	span.SetOutput("out")
	span.End()
}

func TestLogRecorderEmitsOnEnd(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, span := NewLog(logger).StartSpan(context.Background(), "extract")
	span.SetAttribute("step", "budget")
	span.SetUsage(120, 40)

	if buf.Len() != 0 {
		t.Fatalf("logged before End: %q", buf.String())
	}

	span.End()

	line := buf.String()
	for _, want := range []string{"span extract", "step=budget", "prompt_tokens=120", "completion_tokens=40", "duration="} {
		if !strings.Contains(line, want) {
			t.Errorf("log line missing %q: %s", want, line)
		}
	}
}
