package answers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaimeStill/triage/internal/answers"
	"github.com/JaimeStill/triage/internal/interactions"
	"github.com/JaimeStill/triage/internal/retrieval"
	"github.com/JaimeStill/triage/internal/sensitivity"
	"github.com/JaimeStill/triage/pkg/routes"
)

type memRecorder struct {
	entries []interactions.Entry
}

func (m *memRecorder) Record(_ context.Context, e interactions.Entry) error {
	m.entries = append(m.entries, e)
	return nil
}

func newMux(t *testing.T, rec interactions.Recorder) *http.ServeMux {
	t.Helper()

	h := newHarness(t, ruleClassifier(), &fakeRetriever{chunks: evidence()}, &fakeGenerator{reply: "Balance is 12,400.00."})
	handler := answers.NewHandler(h.router, ruleClassifier(), rec, discard())

	mux := http.NewServeMux()
	routes.Register(mux, handler.Routes())
	return mux
}

func TestHandlerAnswer(t *testing.T) {
	rec := &memRecorder{}
	mux := newMux(t, rec)

	w := httptest.NewRecorder()
	body := `{"question":"What is my account balance","k":2}`
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/answers", strings.NewReader(body)))

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d (%s)", w.Code, w.Body)
	}

	var resp answers.AnswerResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Label != sensitivity.Yellow || resp.Visibility != answers.Internal {
		t.Errorf("got label=%s visibility=%s", resp.Label, resp.Visibility)
	}
	if !strings.HasSuffix(resp.Rendered, "[INTERNAL DATA — label: YELLOW, confidence=0.80]") {
		t.Errorf("rendered: %q", resp.Rendered)
	}

	if len(rec.entries) != 1 {
		t.Fatalf("interactions: got %d, want 1", len(rec.entries))
	}
	e := rec.entries[0]
	if strings.Contains(e.QuestionHash, "balance") || e.Outcome != "generated" || len(e.RetrievedDocs) != 2 {
		t.Errorf("entry: %+v", e)
	}
}

func TestHandlerValidation(t *testing.T) {
	mux := newMux(t, nil)

	tests := []struct {
		name string
		path string
		body string
	}{
		{"blank question", "/answers", `{"question":"   "}`},
		{"unknown field", "/answers", `{"question":"q","top_k":3}`},
		{"malformed", "/answers", `{`},
		{"blank query", "/classifications", `{"query":""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body)))
			if w.Code != http.StatusBadRequest {
				t.Errorf("status: got %d, want 400", w.Code)
			}
		})
	}
}

func TestHandlerClassify(t *testing.T) {
	mux := newMux(t, nil)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/classifications", strings.NewReader(`{"query":"what is the CVV"}`)))

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}

	var got sensitivity.Result
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Label != sensitivity.Red || got.Stage != sensitivity.StageRules {
		t.Errorf("got %+v", got)
	}
}

var _ retrieval.Retriever = (*fakeRetriever)(nil)
