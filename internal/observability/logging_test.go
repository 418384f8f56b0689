package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func decodeLastLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var rec map[string]any
	if err := json.Unmarshal(lines[len(lines)-1], &rec); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	return rec
}

func TestRedactingHandlerMasksSensitiveKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewRedactingHandler(slog.NewJSONHandler(&buf, nil)))

	logger.Info("sign in",
		"email", "user@example.com",
		"password", "hunter2hunter2",
		"accessToken", "abc",
		"clientSecret", "def",
		slog.Group("oauth", "refresh_token", "ghi", "provider", "github"),
	)

	rec := decodeLastLine(t, &buf)
	if rec["email"] != "user@example.com" {
		t.Fatalf("email should pass through: %v", rec)
	}
	for _, k := range []string{"password", "accessToken", "clientSecret"} {
		if rec[k] != redactedValue {
			t.Fatalf("%s should be redacted, got %v", k, rec[k])
		}
	}
	group, ok := rec["oauth"].(map[string]any)
	if !ok {
		t.Fatalf("expected oauth group, got %v", rec["oauth"])
	}
	if group["refresh_token"] != redactedValue || group["provider"] != "github" {
		t.Fatalf("unexpected group redaction: %v", group)
	}
}

func TestRedactingHandlerMasksPrecomputedAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewRedactingHandler(slog.NewJSONHandler(&buf, nil))).With("api_key", "sk-live")
	logger.Info("stored")

	rec := decodeLastLine(t, &buf)
	if rec["api_key"] != redactedValue {
		t.Fatalf("expected api_key redacted, got %v", rec["api_key"])
	}
}

func TestTraceContextHandlerAddsIDsOnlyForValidSpans(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(&traceContextHandler{next: slog.NewJSONHandler(&buf, nil)})

	logger.InfoContext(context.Background(), "no span")
	if _, ok := decodeLastLine(t, &buf)["trace_id"]; ok {
		t.Fatal("trace_id should be absent without a span")
	}

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	logger.InfoContext(ctx, "with span")
	rec := decodeLastLine(t, &buf)
	if rec["trace_id"] != traceID.String() || rec["span_id"] != spanID.String() {
		t.Fatalf("unexpected trace attrs: %v", rec)
	}
}

func TestMultiHandlerFansOut(t *testing.T) {
	var a, b bytes.Buffer
	logger := slog.New(&multiHandler{handlers: []slog.Handler{
		slog.NewJSONHandler(&a, nil),
		slog.NewJSONHandler(&b, &slog.HandlerOptions{Level: slog.LevelError}),
	}})
	logger.Info("hello")
	if a.Len() == 0 {
		t.Fatal("first handler should receive info")
	}
	if b.Len() != 0 {
		t.Fatal("second handler filters info")
	}
}
