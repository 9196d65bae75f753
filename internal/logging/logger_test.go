package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/soltixdb/sitecast/internal/config"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]interface{}
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, zerolog.DebugLevel).With("group", "1001-3")

	logger.Info("trained", "aic", 12.5, "error", errors.New("boom"))

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if lines[0]["message"] != "trained" {
		t.Errorf("message = %v", lines[0]["message"])
	}
	if lines[0]["group"] != "1001-3" {
		t.Errorf("group = %v", lines[0]["group"])
	}
	if lines[0]["aic"] != 12.5 {
		t.Errorf("aic = %v", lines[0]["aic"])
	}
	if lines[0]["error"] != "boom" {
		t.Errorf("error = %v", lines[0]["error"])
	}
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, zerolog.WarnLevel)

	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("shown")

	lines := decodeLines(t, &buf)
	if len(lines) != 1 || lines[0]["message"] != "shown" {
		t.Errorf("unexpected output: %v", lines)
	}
}

func TestWithDoesNotLeakIntoParent(t *testing.T) {
	var buf bytes.Buffer
	parent := NewWithWriter(&buf, zerolog.InfoLevel)
	_ = parent.With("site", 7)

	parent.Info("plain")
	lines := decodeLines(t, &buf)
	if _, ok := lines[0]["site"]; ok {
		t.Error("child field leaked into parent")
	}
}

func TestContextHelpers(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, zerolog.InfoLevel)

	ctx := WithLogger(context.Background(), logger)
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithRunID(ctx, "run-9")

	if RunID(ctx) != "run-9" {
		t.Errorf("RunID = %q", RunID(ctx))
	}
	if FromContext(context.Background()) != Global() {
		t.Error("empty context should fall back to global logger")
	}

	Ctx(ctx).Info("hello")
	lines := decodeLines(t, &buf)
	if lines[0]["request_id"] != "req-1" || lines[0]["run_id"] != "run-9" {
		t.Errorf("context fields missing: %v", lines[0])
	}
}

func TestNewFromConfigFile(t *testing.T) {
	path := t.TempDir() + "/logs/sitecast.log"
	logger, err := NewFromConfig(config.LoggingConfig{
		Level:      "warn",
		Format:     "json",
		OutputPath: path,
	})
	if err != nil {
		t.Fatalf("NewFromConfig failed: %v", err)
	}
	logger.Warn("written")
}

func TestFiberMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, zerolog.InfoLevel)

	app := fiber.New()
	app.Use(FiberMiddleware(logger))
	app.Get("/health", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/v1/groups", func(c *fiber.Ctx) error {
		if FromContext(c.UserContext()) != logger {
			t.Error("logger not attached to user context")
		}
		return c.SendStatus(fiber.StatusNotFound)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.Header.Get("X-Request-ID") != "" {
		t.Error("skipped path should not get a request id")
	}

	req := httptest.NewRequest("GET", "/v1/groups", nil)
	req.Header.Set("X-Request-ID", "abc")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.Header.Get("X-Request-ID") != "abc" {
		t.Errorf("request id = %q", resp.Header.Get("X-Request-ID"))
	}

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected 1 access log line, got %d", len(lines))
	}
	if lines[0]["level"] != "warn" || lines[0]["status"] != float64(404) {
		t.Errorf("unexpected access log: %v", lines[0])
	}
}
