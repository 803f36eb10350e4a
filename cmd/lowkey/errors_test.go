package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestAPIErr_StatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", errValidation("bad input"), http.StatusBadRequest},
		{"forbidden", errForbidden("nope"), http.StatusForbidden},
		{"not found", errNotFound("missing"), http.StatusNotFound},
		{"conflict", errConflict("already there"), http.StatusBadRequest},
		{"capacity", errCapacity("full"), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ae *apiErr
			if !errors.As(tt.err, &ae) {
				t.Fatalf("expected *apiErr, got %T", tt.err)
			}
			if got := ae.status(); got != tt.want {
				t.Errorf("status() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRespondError_Envelope(t *testing.T) {
	app := fiber.New()
	app.Get("/known", func(c *fiber.Ctx) error {
		return respondError(c, errCapacity("Chat room is full"))
	})
	app.Get("/unknown", func(c *fiber.Ctx) error {
		return respondError(c, errors.New("pq: connection refused"))
	})

	t.Run("classified error", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/known", nil))
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
		body, _ := io.ReadAll(resp.Body)
		var out struct {
			Success bool   `json:"success"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(body, &out); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if out.Success {
			t.Error("success = true, want false")
		}
		if out.Message != "Chat room is full" {
			t.Errorf("message = %q", out.Message)
		}
	})

	t.Run("unclassified error is a 500 with a generic message", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/unknown", nil))
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", resp.StatusCode)
		}
		body, _ := io.ReadAll(resp.Body)
		var out struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(body, &out)
		if out.Message != "Internal server error" {
			t.Errorf("message = %q, internals must not leak", out.Message)
		}
	})
}
