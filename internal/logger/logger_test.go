package logger

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	line := strings.TrimSpace(buf.String())
	if line == "" {
		t.Fatalf("no log line written")
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("decode %q: %v", line, err)
	}
	return m
}

func TestBuild_FieldsAndContext(t *testing.T) {
	var buf bytes.Buffer
	zl := Build(Config{Level: "info", Service: "overlay", Component: "api"}, &buf)

	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithCell(ctx, "F2ij[2944,6179]@14")
	ctx = WithGUID(ctx, "a.16")
	FromContext(ctx, &zl).Info().Msg("hello")

	m := decodeLine(t, &buf)
	for k, want := range map[string]string{
		"level":      "info",
		"msg":        "hello",
		"service":    "overlay",
		"component":  "api",
		"request_id": "req-1",
		"cell":       "F2ij[2944,6179]@14",
		"guid":       "a.16",
	} {
		if m[k] != want {
			t.Fatalf("field %s=%v want %s (line %v)", k, m[k], want, m)
		}
	}
	if _, ok := m["timestamp"]; !ok {
		t.Fatalf("missing timestamp: %v", m)
	}
}

func TestWithRequestID_GeneratesWhenEmpty(t *testing.T) {
	ctx := WithRequestID(context.Background(), "")
	v, _ := ctx.Value(ctxReqIDKey).(string)
	if len(v) != 16 {
		t.Fatalf("expected generated 16 hex chars, got %q", v)
	}
	if WithCell(ctx, "") != ctx || WithComponent(ctx, "") != ctx {
		t.Fatalf("empty values must not wrap the context")
	}
}

func TestSlogBridge_LevelsAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	zl := Build(Config{Level: "warn"}, &buf)
	sl := NewSlog(&zl).With("component", "consumer")

	sl.Info("dropped below level")
	if buf.Len() != 0 {
		t.Fatalf("info must be filtered at warn level, got %s", buf.String())
	}

	sl.Warn("apply failed", "err", errors.New("boom"), "partition", 3, "ok", false)
	m := decodeLine(t, &buf)
	if m["level"] != "warn" || m["msg"] != "apply failed" || m["component"] != "consumer" {
		t.Fatalf("unexpected line: %v", m)
	}
	if m["err"] != "boom" || m["partition"] != float64(3) || m["ok"] != false {
		t.Fatalf("attrs not carried: %v", m)
	}

	// restore for other tests
	_ = Build(Config{Level: "info"}, &bytes.Buffer{})
}
