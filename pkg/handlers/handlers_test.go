package handlers_test

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaimeStill/triage/pkg/handlers"
)

func TestRespondJSON(t *testing.T) {
	tests := []struct {
		name   string
		status int
		data   any
	}{
		{"200 with map", http.StatusOK, map[string]string{"label": "GREEN"}},
		{"201 with struct", http.StatusCreated, struct{ Confidence float64 }{Confidence: 0.9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handlers.RespondJSON(rec, tt.status, tt.data)

			if rec.Code != tt.status {
				t.Errorf("status: got %d, want %d", rec.Code, tt.status)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("content-type: got %s", ct)
			}

			var parsed map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &parsed); err != nil {
				t.Fatalf("unmarshal failed: %v", err)
			}
		})
	}
}

func TestRespondError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rec := httptest.NewRecorder()

	handlers.RespondError(rec, logger, http.StatusBadRequest, errors.New("question is required"))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rec.Code)
	}

	var parsed map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &parsed); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if parsed["error"] != "question is required" {
		t.Errorf("error: got %q", parsed["error"])
	}
}

func TestDecodeJSON(t *testing.T) {
	type request struct {
		Question string `json:"question"`
		K        int    `json:"k"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"question":"What is the RBI policy?","k":4}`, false},
		{"empty", ``, true},
		{"malformed", `{"question":`, true},
		{"unknown field", `{"question":"q","extra":true}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))

			got, err := handlers.DecodeJSON[request](rec, req)
			if tt.wantErr {
				if !errors.Is(err, handlers.ErrInvalidBody) {
					t.Fatalf("got %v, want ErrInvalidBody", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.K != 4 {
				t.Errorf("k: got %d, want 4", got.K)
			}
		})
	}
}
