package interactions_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/triage/internal/interactions"
	"github.com/JaimeStill/triage/pkg/pagination"
	"github.com/JaimeStill/triage/pkg/routes"
)

func TestNewEntry(t *testing.T) {
	now := time.Date(2025, 9, 14, 10, 0, 0, 0, time.FixedZone("IST", 5*3600+1800))
	e := interactions.NewEntry("What is my account balance", "short answer", nil, "YELLOW", "generated", now)

	if e.QuestionHash == "" || strings.Contains(e.QuestionHash, "balance") {
		t.Errorf("question must be hashed: %q", e.QuestionHash)
	}
	if len(e.QuestionHash) != 64 {
		t.Errorf("hash length: got %d", len(e.QuestionHash))
	}
	if e.Time.Location() != time.UTC {
		t.Errorf("time not UTC: %v", e.Time)
	}
	if e.RetrievedDocs == nil {
		t.Error("nil docs should become an empty list")
	}
}

func TestSnippet(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
		tail bool
	}{
		{"short", "ok", 2, false},
		{"exact", strings.Repeat("a", 800), 800, false},
		{"long", strings.Repeat("a", 801), 803, true},
		{"multibyte", strings.Repeat("₹", 900), 803, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := interactions.Snippet(tt.in)
			if n := len([]rune(got)); n != tt.want {
				t.Errorf("length: got %d, want %d", n, tt.want)
			}
			if strings.HasSuffix(got, "...") != tt.tail {
				t.Errorf("ellipsis: got %v, want %v", !tt.tail, tt.tail)
			}
		})
	}
}

type memSystem struct {
	entries []interactions.Entry
}

func (m *memSystem) Handler() *interactions.Handler { return nil }

func (m *memSystem) Record(_ context.Context, e interactions.Entry) error {
	m.entries = append(m.entries, e)
	return nil
}

func (m *memSystem) List(_ context.Context, _ pagination.PageRequest, f interactions.Filters) (*pagination.PageResult[interactions.Entry], error) {
	var out []interactions.Entry
	for _, e := range m.entries {
		if f.Outcome != nil && e.Outcome != *f.Outcome {
			continue
		}
		out = append(out, e)
	}
	r := pagination.NewPageResult(out, len(out), 1, 20)
	return &r, nil
}

func TestHandlerList(t *testing.T) {
	sys := &memSystem{}
	now := time.Now()
	sys.Record(context.Background(), interactions.NewEntry("a", "x", []string{"faq.pdf"}, "GREEN", "generated", now))
	sys.Record(context.Background(), interactions.NewEntry("b", "y", nil, "GREEN", "no_documents", now))

	mux := http.NewServeMux()
	h := interactions.NewHandler(sys, slog.New(slog.NewTextHandler(io.Discard, nil)), pagination.Config{DefaultPageSize: 20, MaxPageSize: 100})
	routes.Register(mux, h.Routes())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/interactions?outcome=no_documents", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}

	var page pagination.PageResult[interactions.Entry]
	if err := json.NewDecoder(rec.Body).Decode(&page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(page.Data) != 1 || page.Data[0].Outcome != "no_documents" {
		t.Errorf("got %+v", page.Data)
	}
}
