package routes_test

import (
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/JaimeStill/triage/pkg/routes"
)

func status(code int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
	}
}

func ticketGroup() routes.Group {
	return routes.Group{
		Prefix: "/tickets",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: status(http.StatusOK)},
			{Method: "GET", Pattern: "/{id}", Handler: status(http.StatusAccepted)},
		},
		Children: []routes.Group{
			{
				Prefix: "/stats",
				Routes: []routes.Route{{Method: "GET", Pattern: "", Handler: status(http.StatusTeapot)}},
			},
		},
	}
}

func TestRegister(t *testing.T) {
	mux := http.NewServeMux()
	routes.Register(mux, ticketGroup())

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{"GET", "/tickets", http.StatusOK},
		{"GET", "/tickets/abc", http.StatusAccepted},
		{"GET", "/tickets/stats", http.StatusTeapot},
		{"POST", "/tickets", http.StatusMethodNotAllowed},
		{"GET", "/unknown", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.want {
				t.Errorf("status: got %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestPatterns(t *testing.T) {
	got := routes.Patterns(ticketGroup())
	want := []string{"GET /tickets", "GET /tickets/{id}", "GET /tickets/stats"}

	if !slices.Equal(got, want) {
		t.Errorf("patterns: got %v, want %v", got, want)
	}
}
