package log_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	ctxlog "github.com/ErlanBelekov/contacts-api/internal/log"
	"github.com/ErlanBelekov/contacts-api/internal/requestid"
)

func TestContextHandler_AddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(ctxlog.NewContextHandler(slog.NewJSONHandler(&buf, nil))).With("component", "test")

	ctx := requestid.WithRequestID(context.Background(), "req-42")
	ctx = requestid.WithUserID(ctx, "user-7")
	logger.InfoContext(ctx, "hello")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if rec["request_id"] != "req-42" {
		t.Errorf("request_id = %v, want req-42", rec["request_id"])
	}
	if rec["user_id"] != "user-7" {
		t.Errorf("user_id = %v, want user-7", rec["user_id"])
	}
	if rec["component"] != "test" {
		t.Errorf("component attr lost through WithAttrs: %v", rec)
	}
}

func TestContextHandler_NoRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(ctxlog.NewContextHandler(slog.NewJSONHandler(&buf, nil)))

	logger.InfoContext(context.Background(), "hello")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	for _, k := range []string{"request_id", "user_id"} {
		if _, ok := rec[k]; ok {
			t.Errorf("unexpected %s in %v", k, rec)
		}
	}
}
