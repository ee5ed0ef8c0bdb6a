package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestWithLogger_FromContext(t *testing.T) {
	var buf bytes.Buffer
	cfg := Config{
		Level:  "info",
		Format: "json",
		Output: &buf,
	}

	l, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := context.Background()
	ctx = WithLogger(ctx, l)

	retrieved := FromContext(ctx)
	if retrieved == nil {
		t.Fatal("FromContext returned nil")
	}

	retrieved.Info("test message")

	if buf.Len() == 0 {
		t.Error("Logger from context should produce output")
	}
}

func TestFromContext_Default(t *testing.T) {
	ctx := context.Background()

	// Should return default logger when none is set
	l := FromContext(ctx)
	if l == nil {
		t.Error("FromContext should return default logger, got nil")
	}
}

func TestWithRequestID(t *testing.T) {
	ctx := context.Background()
	requestID := "req-12345"

	ctx = WithRequestID(ctx, requestID)

	retrieved := RequestIDFromContext(ctx)
	if retrieved != requestID {
		t.Errorf("RequestIDFromContext() = %q, want %q", retrieved, requestID)
	}
}

func TestRequestIDFromContext_Empty(t *testing.T) {
	ctx := context.Background()

	retrieved := RequestIDFromContext(ctx)
	if retrieved != "" {
		t.Errorf("RequestIDFromContext() = %q, want empty string", retrieved)
	}
}

func TestWithSession(t *testing.T) {
	ctx := WithSession(context.Background(), "N1", "S1")

	network, snapshot := SessionFromContext(ctx)
	if network != "N1" || snapshot != "S1" {
		t.Errorf("SessionFromContext() = %q, %q, want N1, S1", network, snapshot)
	}
}

func TestSessionFromContext_Empty(t *testing.T) {
	network, snapshot := SessionFromContext(context.Background())
	if network != "" || snapshot != "" {
		t.Errorf("SessionFromContext() = %q, %q, want empty", network, snapshot)
	}
}

func TestL_WithRequestID(t *testing.T) {
	var buf bytes.Buffer
	cfg := Config{
		Level:  "info",
		Format: "json",
		Output: &buf,
	}

	l, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := context.Background()
	ctx = WithLogger(ctx, l)
	ctx = WithRequestID(ctx, "req-12345")

	// L() should enrich with request ID
	enrichedLogger := L(ctx)
	enrichedLogger.Info("test message")

	var logEntry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("Failed to parse JSON log: %v", err)
	}

	reqID, ok := logEntry["request_id"].(string)
	if !ok || reqID != "req-12345" {
		t.Errorf("Expected request_id='req-12345', got %v", logEntry["request_id"])
	}
}

func TestL_WithSession(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := WithLogger(context.Background(), l)
	ctx = WithRequestID(ctx, "req-12345")
	ctx = WithSession(ctx, "N1", "S1")

	L(ctx).Info("test message")

	var logEntry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("Failed to parse JSON log: %v", err)
	}

	want := map[string]string{"request_id": "req-12345", "network": "N1", "snapshot": "S1"}
	for k, v := range want {
		if got, ok := logEntry[k].(string); !ok || got != v {
			t.Errorf("Expected %s=%q, got %v", k, v, logEntry[k])
		}
	}
}

func TestL_NoIDs(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	L(WithLogger(context.Background(), l)).Info("test message")

	var logEntry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("Failed to parse JSON log: %v", err)
	}

	for _, k := range []string{"request_id", "network", "snapshot"} {
		if _, ok := logEntry[k]; ok {
			t.Errorf("Should not have %s when not set", k)
		}
	}
}

func TestContextKeyCollision(t *testing.T) {
	ctx := context.Background()
	ctx = WithRequestID(ctx, "req-123")
	ctx = WithSession(ctx, "N1", "")

	if reqID := RequestIDFromContext(ctx); reqID != "req-123" {
		t.Errorf("RequestID collision, got %q", reqID)
	}
	if network, _ := SessionFromContext(ctx); network != "N1" {
		t.Errorf("Session collision, got %q", network)
	}
}

func TestFromSlog_WithL(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	ctx := context.Background()
	if HasLogger(ctx) {
		t.Fatal("HasLogger() = true on empty context")
	}
	ctx = WithLogger(ctx, FromSlog(base))
	if !HasLogger(ctx) {
		t.Fatal("HasLogger() = false after WithLogger")
	}
	ctx = WithSession(WithRequestID(ctx, "req-7"), "N1", "S1")

	L(ctx).Info("query executed")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	for key, want := range map[string]string{"request_id": "req-7", "network": "N1", "snapshot": "S1"} {
		if entry[key] != want {
			t.Errorf("%s = %v, want %q", key, entry[key], want)
		}
	}
}

func TestFromSlog_Nil(t *testing.T) {
	if FromSlog(nil) != Default() {
		t.Error("FromSlog(nil) should return the default logger")
	}
}
