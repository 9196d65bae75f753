package middleware

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/soltixdb/sitecast/internal/logging"
)

// generateAPIKey generates a valid API key of specified length
func generateAPIKey(length int) string {
	key := make([]byte, length)
	for i := range key {
		key[i] = 'a' + byte(i%26)
	}
	return string(key)
}

func TestValidateAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		expected bool
	}{
		{"exactly 32 chars", generateAPIKey(32), true},
		{"64 chars", generateAPIKey(64), true},
		{"31 chars", generateAPIKey(31), false},
		{"empty", "", false},
		{"32 spaces", "                                ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateAPIKey(tt.key); got != tt.expected {
				t.Errorf("ValidateAPIKey(%q) = %v, want %v", tt.key, got, tt.expected)
			}
		})
	}
}

func newAuthApp(keys []string, enabled bool) *fiber.App {
	app := fiber.New()
	app.Use(APIKeyAuth(logging.NewNop(), keys, enabled))
	app.Get("/v1/groups", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func TestAPIKeyAuth(t *testing.T) {
	validKey := generateAPIKey(40)
	app := newAuthApp([]string{validKey, "short"}, true)

	tests := []struct {
		name       string
		header     string
		value      string
		wantStatus int
	}{
		{"no key", "", "", fiber.StatusUnauthorized},
		{"x-api-key", "X-API-Key", validKey, fiber.StatusOK},
		{"bearer", "Authorization", "Bearer " + validKey, fiber.StatusOK},
		{"plain authorization", "Authorization", validKey, fiber.StatusOK},
		{"wrong key", "X-API-Key", generateAPIKey(33), fiber.StatusUnauthorized},
		{"short key rejected at setup", "X-API-Key", "short", fiber.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/v1/groups", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("Failed to perform request: %v", err)
			}
			if resp.StatusCode != tt.wantStatus {
				body, _ := io.ReadAll(resp.Body)
				t.Errorf("status = %d, want %d (body %s)", resp.StatusCode, tt.wantStatus, body)
			}
		})
	}
}

func TestAPIKeyAuth_Disabled(t *testing.T) {
	app := newAuthApp(nil, false)

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/groups", nil))
	if err != nil {
		t.Fatalf("Failed to perform request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("Expected status %d, got %d", fiber.StatusOK, resp.StatusCode)
	}
}

func TestMaskAPIKey(t *testing.T) {
	if got := maskAPIKey("abc"); got != "****" {
		t.Errorf("maskAPIKey(abc) = %q", got)
	}
	if got := maskAPIKey("abcdefgh"); got != "abcd****" {
		t.Errorf("maskAPIKey(abcdefgh) = %q", got)
	}
}
