package middleware

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/soltixdb/sitecast/internal/logging"
	"github.com/soltixdb/sitecast/internal/models"
)

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"bad request", fiber.ErrBadRequest, fiber.StatusBadRequest, "ERROR", "Bad Request"},
		{"not found", fiber.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND", "Not Found"},
		{"body too large", fiber.ErrRequestEntityTooLarge, fiber.StatusRequestEntityTooLarge, "BODY_TOO_LARGE", "Request Entity Too Large"},
		{"plain error", errors.New("boom"), fiber.StatusInternalServerError, "ERROR", "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logging.NewNop())})
			app.Get("/fail", func(c *fiber.Ctx) error {
				return tt.err
			})

			resp, err := app.Test(httptest.NewRequest("GET", "/fail", nil))
			if err != nil {
				t.Fatalf("Failed to perform request: %v", err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, resp.StatusCode)
			}

			var body models.ErrorResponse
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if body.Error.Code != tt.wantCode {
				t.Errorf("Expected code %q, got %q", tt.wantCode, body.Error.Code)
			}
			if body.Error.Message != tt.wantMsg {
				t.Errorf("Expected message %q, got %q", tt.wantMsg, body.Error.Message)
			}
			if body.Error.Path != "/fail" {
				t.Errorf("Expected path /fail, got %q", body.Error.Path)
			}
		})
	}
}
