package answers_test

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/JaimeStill/triage/internal/answers"
	"github.com/JaimeStill/triage/internal/pipeline"
	"github.com/JaimeStill/triage/internal/retrieval"
	"github.com/JaimeStill/triage/internal/sensitivity"
	"github.com/JaimeStill/triage/internal/tickets"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeRetriever struct {
	mu          sync.Mutex
	chunks      []retrieval.Chunk
	err         error
	calls       int
	n           int
	collections []retrieval.Collection
}

func (f *fakeRetriever) Retrieve(ctx context.Context, query string, n int, c retrieval.Collection) ([]retrieval.Chunk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.n = n
	f.collections = append(f.collections, c)
	return f.chunks, f.err
}

type fakeGenerator struct {
	reply string
	calls int
}

func (f *fakeGenerator) Generate(ctx context.Context, system, user string, maxTokens int, temperature float64) (string, error) {
	f.calls++
	return f.reply, nil
}

type fixedClassifier struct {
	result sensitivity.Result
}

func (f fixedClassifier) Classify(context.Context, string) sensitivity.Result {
	return f.result
}

type countingFiler struct {
	calls []sensitivity.Result
}

func (c *countingFiler) File(_ context.Context, _ string, r sensitivity.Result) {
	c.calls = append(c.calls, r)
}

type harness struct {
	router    *answers.Router
	retriever *fakeRetriever
	logPath   string
}

func newHarness(t *testing.T, classifier answers.Classifier, r *fakeRetriever, gen *fakeGenerator) harness {
	t.Helper()

	logPath := filepath.Join(t.TempDir(), "human_review.log")
	filer := tickets.NewFiler(discard(), nil, tickets.NewFileLog(logPath))

	var p *pipeline.Pipeline
	if gen != nil {
		p = pipeline.New(r, gen, nil, discard())
	} else {
		p = pipeline.New(r, nil, nil, discard())
	}

	router := answers.New(answers.Runtime{
		Classifier: classifier,
		Filer:      filer,
		Pipeline:   p,
		Logger:     discard(),
		Threshold:  0.6,
		DefaultK:   4,
		MaxK:       20,
	})
	return harness{router: router, retriever: r, logPath: logPath}
}

func ruleClassifier() answers.Classifier {
	return sensitivity.New(nil, nil, nil, discard())
}

func ticketLines(t *testing.T, path string) []map[string]any {
	t.Helper()

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	var out []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var rec map[string]any
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			t.Fatalf("decode %q: %v", sc.Text(), err)
		}
		out = append(out, rec)
	}
	return out
}

func evidence() []retrieval.Chunk {
	return []retrieval.Chunk{
		{ID: "stmt_0", Text: "Closing balance: 12,400.00", Metadata: retrieval.Metadata{DocID: "statement_aug.pdf"}},
		{ID: "stmt_1", Text: "Opening balance: 10,050.00", Metadata: retrieval.Metadata{DocID: "statement_aug.pdf"}},
	}
}

func TestScenarioYellowHighConfidence(t *testing.T) {
	gen := &fakeGenerator{reply: "Your closing balance is 12,400.00."}
	h := newHarness(t, ruleClassifier(), &fakeRetriever{chunks: evidence()}, gen)

	env := h.router.Answer(context.Background(), "What is my account balance", 4)

	if env.Label != sensitivity.Yellow || env.Confidence != 0.8 {
		t.Fatalf("classification: got %s/%.2f", env.Label, env.Confidence)
	}
	if env.Visibility != answers.Internal || env.Ticketed {
		t.Errorf("visibility=%s ticketed=%v", env.Visibility, env.Ticketed)
	}
	if got := h.retriever.collections; len(got) != 1 || got[0] != retrieval.Internal {
		t.Errorf("collections: got %v, want [internal]", got)
	}
	if lines := ticketLines(t, h.logPath); len(lines) != 0 {
		t.Errorf("unexpected tickets: %v", lines)
	}

	want := "Your closing balance is 12,400.00.\n\n" +
		"[Retrieved docs: statement_aug.pdf, statement_aug.pdf]\n\n" +
		"[INTERNAL DATA — label: YELLOW, confidence=0.80]"
	if env.String() != want {
		t.Errorf("rendered:\ngot  %q\nwant %q", env.String(), want)
	}
}

func TestScenarioRedRefusal(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"keyword and digits", "My card number is 4111 1111 1111 1111"},
		{"digits only", "please charge 4111 1111 1111 1111 again"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{reply: "unused"}
			h := newHarness(t, ruleClassifier(), &fakeRetriever{chunks: evidence()}, gen)

			env := h.router.Answer(context.Background(), tt.query, 4)

			if env.Label != sensitivity.Red || env.Confidence < 0.99 {
				t.Errorf("classification: got %s/%.2f", env.Label, env.Confidence)
			}
			if env.String() != answers.RefusalMessage {
				t.Errorf("rendered: got %q", env.String())
			}
			if env.Outcome != answers.OutcomeRefused || env.Visibility != answers.Refused {
				t.Errorf("outcome=%s visibility=%s", env.Outcome, env.Visibility)
			}
			if h.retriever.calls != 0 || gen.calls != 0 {
				t.Errorf("collaborators called: retriever=%d generator=%d", h.retriever.calls, gen.calls)
			}
			if lines := ticketLines(t, h.logPath); len(lines) != 0 {
				t.Errorf("refusals must not be ticketed: %v", lines)
			}
		})
	}
}

func TestScenarioGreenNoDocuments(t *testing.T) {
	h := newHarness(t, ruleClassifier(), &fakeRetriever{}, &fakeGenerator{reply: "unused"})

	env := h.router.Answer(context.Background(), "What is RBI's policy on KYC?", 4)

	if env.Label != sensitivity.Green || env.Confidence != 0.9 {
		t.Fatalf("classification: got %s/%.2f", env.Label, env.Confidence)
	}
	if got := h.retriever.collections; len(got) != 1 || got[0] != retrieval.Public {
		t.Errorf("collections: got %v, want [public]", got)
	}
	if env.Text != "No documents found in the index." || env.Outcome != string(pipeline.NoDocuments) {
		t.Errorf("got text=%q outcome=%s", env.Text, env.Outcome)
	}
	if env.String() != "No documents found in the index.\n\n[PUBLIC DATA — label: GREEN, confidence=0.90]" {
		t.Errorf("rendered: got %q", env.String())
	}
}

func TestScenarioNoGeneratorFallback(t *testing.T) {
	h := newHarness(t, ruleClassifier(), &fakeRetriever{chunks: evidence()}, nil)

	env := h.router.Answer(context.Background(), "What is my account balance", 4)

	if env.Outcome != string(pipeline.Fallback) {
		t.Fatalf("outcome: got %s", env.Outcome)
	}
	if !strings.Contains(env.Text, "I could not call a generator") {
		t.Errorf("missing no-generation statement: %q", env.Text)
	}
	if !strings.Contains(env.Text, "Closing balance: 12,400.00") {
		t.Errorf("missing evidence excerpt: %q", env.Text)
	}
}

func TestScenarioLowConfidenceTicket(t *testing.T) {
	question := "Summarise the vendor discussion from last week"
	classifier := fixedClassifier{result: sensitivity.Result{
		Label:      sensitivity.Yellow,
		Confidence: 0.4,
		Reason:     "possibly internal",
		Stage:      sensitivity.StageModel,
	}}
	h := newHarness(t, classifier, &fakeRetriever{chunks: evidence()}, &fakeGenerator{reply: "ok"})

	env := h.router.Answer(context.Background(), question, 4)

	if !env.Ticketed || env.Visibility != answers.Internal {
		t.Errorf("ticketed=%v visibility=%s", env.Ticketed, env.Visibility)
	}

	lines := ticketLines(t, h.logPath)
	if len(lines) != 1 {
		t.Fatalf("tickets: got %d, want 1", len(lines))
	}
	if lines[0]["query_hash"] != tickets.HashQuery(question) {
		t.Errorf("query_hash: got %v", lines[0]["query_hash"])
	}

	raw, _ := os.ReadFile(h.logPath)
	if strings.Contains(string(raw), "vendor discussion") {
		t.Error("raw question written to ticket log")
	}
}

func TestThresholdBoundary(t *testing.T) {
	tests := []struct {
		confidence float64
		ticketed   bool
	}{
		{0.59, true},
		{0.6, false},
		{0.61, false},
	}

	for _, tt := range tests {
		filer := &countingFiler{}
		router := answers.New(answers.Runtime{
			Classifier: fixedClassifier{result: sensitivity.Result{Label: sensitivity.Yellow, Confidence: tt.confidence}},
			Filer:      filer,
			Pipeline:   pipeline.New(&fakeRetriever{}, nil, nil, discard()),
			Logger:     discard(),
			Threshold:  0.6,
			DefaultK:   4,
			MaxK:       20,
		})

		env := router.Answer(context.Background(), "q", 4)
		if env.Ticketed != tt.ticketed || (len(filer.calls) == 1) != tt.ticketed {
			t.Errorf("confidence %.2f: ticketed=%v filed=%d", tt.confidence, env.Ticketed, len(filer.calls))
		}
	}
}

func TestKNormalisation(t *testing.T) {
	tests := []struct {
		k, want int
	}{
		{0, 4},
		{-3, 4},
		{7, 7},
		{500, 20},
	}

	for _, tt := range tests {
		r := &fakeRetriever{}
		h := newHarness(t, ruleClassifier(), r, nil)
		h.router.Answer(context.Background(), "What is RBI's policy on KYC?", tt.k)
		if r.n != tt.want {
			t.Errorf("k=%d: retriever got n=%d, want %d", tt.k, r.n, tt.want)
		}
	}
}

func TestRetrievalOutage(t *testing.T) {
	h := newHarness(t, ruleClassifier(), &fakeRetriever{err: retrieval.ErrUnavailable}, nil)

	env := h.router.Answer(context.Background(), "What is RBI's policy on KYC?", 4)
	if env.Outcome != string(pipeline.RetrievalUnavailable) || env.Text != pipeline.UnavailableMessage {
		t.Errorf("got outcome=%s text=%q", env.Outcome, env.Text)
	}
}

type panicClassifier struct{}

func (panicClassifier) Classify(context.Context, string) sensitivity.Result {
	panic("classifier exploded")
}

type blankClassifier struct{}

func (blankClassifier) Classify(context.Context, string) sensitivity.Result {
	return sensitivity.Result{}
}

func TestAnswerNeverFails(t *testing.T) {
	tests := []struct {
		name       string
		classifier answers.Classifier
	}{
		{"panic", panicClassifier{}},
		{"unroutable label", blankClassifier{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.classifier, &fakeRetriever{}, nil)

			env := h.router.Answer(context.Background(), "anything", 4)
			if env.Outcome != answers.OutcomeError || env.Label != sensitivity.Yellow {
				t.Errorf("got %+v", env)
			}
			if env.String() != answers.ErrorMessage {
				t.Errorf("rendered: got %q", env.String())
			}
		})
	}
}
