package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/bharath-k9/Analytics-dashboard/internal/observability"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestNew_StatusCodes(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{Validation("bad"), http.StatusBadRequest},
		{NotFound("missing"), http.StatusNotFound},
		{RateLimit("slow down"), http.StatusTooManyRequests},
		{ServiceUnavailable("loading"), http.StatusServiceUnavailable},
		{LoadFailed(stderrors.New("boom")), http.StatusInternalServerError},
		{Internal("oops"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.err.Code), func(t *testing.T) {
			if tt.err.StatusCode != tt.want {
				t.Errorf("StatusCode = %d, want %d", tt.err.StatusCode, tt.want)
			}
		})
	}
}

func TestWrap_Unwrap(t *testing.T) {
	cause := stderrors.New("pool closed")
	err := fmt.Errorf("handler: %w", LoadFailed(cause))

	if !stderrors.Is(err, cause) {
		t.Error("wrapped cause not reachable")
	}
	if got := Message(err); got != "Failed to load dashboard data" {
		t.Errorf("Message() = %q", got)
	}
	if got := Message(cause); got != "An unexpected error occurred" {
		t.Errorf("Message() = %q", got)
	}
}

func TestWriteError(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/overview?year=20x8", nil)
	r = r.WithContext(observability.WithRequestID(r.Context(), "req-1"))
	w := httptest.NewRecorder()

	appErr := ValidationWrap(stderrors.New(`invalid year "20x8"`), "Invalid year selection")
	WriteError(w, r, testLogger(), appErr)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d", w.Code)
	}
	var resp struct {
		Success bool `json:"success"`
		Error   struct {
			Code      string `json:"code"`
			Message   string `json:"message"`
			Details   string `json:"details"`
			RequestID string `json:"request_id"`
		} `json:"error"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Success || resp.Error.Code != "VALIDATION_ERROR" || resp.Error.RequestID != "req-1" {
		t.Errorf("response = %+v", resp)
	}
	if resp.Error.Details != `invalid year "20x8"` {
		t.Errorf("details = %q", resp.Error.Details)
	}
	if appErr.RequestID != "" {
		t.Error("shared error value was mutated")
	}
}

func TestWriteError_PlainError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, httptest.NewRequest(http.MethodGet, "/", nil), testLogger(), stderrors.New("secret dsn"))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", w.Code)
	}
	var body ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Success || body.Error == nil {
		t.Fatalf("body = %+v", body)
	}
	if body.Error.Code != CodeInternal || body.Error.Message != "An unexpected error occurred" {
		t.Errorf("error = %+v", body.Error)
	}
	if body.Error.Details != "" {
		t.Errorf("details leaked cause: %q", body.Error.Details)
	}
}
