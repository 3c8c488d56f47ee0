package retrieval_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/JaimeStill/triage/internal/config"
	"github.com/JaimeStill/triage/internal/retrieval"
)

func TestCompose(t *testing.T) {
	tests := []struct {
		name   string
		chunks []retrieval.Chunk
		want   string
	}{
		{"nil", nil, ""},
		{"empty", []retrieval.Chunk{}, ""},
		{
			name: "single with doc id",
			chunks: []retrieval.Chunk{
				{ID: "invoice_0", Text: "  Due Date: 2025-09-14 \n", Metadata: retrieval.Metadata{DocID: "invoice.txt"}},
			},
			want: "=== invoice.txt ===\nDue Date: 2025-09-14\n",
		},
		{
			name: "falls back to chunk id and keeps order",
			chunks: []retrieval.Chunk{
				{ID: "b_3", Text: "second ranked first"},
				{ID: "a_0", Text: "first ranked second", Metadata: retrieval.Metadata{DocID: "a.pdf"}},
			},
			want: "=== b_3 ===\nsecond ranked first\n\n=== a.pdf ===\nfirst ranked second\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := retrieval.Compose(tt.chunks); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDocIDs(t *testing.T) {
	chunks := []retrieval.Chunk{
		{ID: "c_1", Metadata: retrieval.Metadata{DocID: "policy.pdf"}},
		{ID: "orphan_2"},
		{ID: "c_0", Metadata: retrieval.Metadata{DocID: "policy.pdf"}},
	}

	got := retrieval.DocIDs(chunks)
	want := []string{"policy.pdf", "orphan_2", "policy.pdf"}

	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("[%d]: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseCollection(t *testing.T) {
	for _, s := range []string{"public", "internal"} {
		if c, err := retrieval.ParseCollection(s); err != nil || string(c) != s {
			t.Errorf("%q: got %q, %v", s, c, err)
		}
	}

	for _, s := range []string{"", "PUBLIC", "shared"} {
		if _, err := retrieval.ParseCollection(s); !errors.Is(err, retrieval.ErrInvalidCollection) {
			t.Errorf("%q: got %v, want ErrInvalidCollection", s, err)
		}
	}

	var body struct {
		Collection retrieval.Collection `json:"collection"`
	}
	if err := json.Unmarshal([]byte(`{"collection":"secret"}`), &body); err == nil {
		t.Error("expected unmarshal error for unknown collection")
	}
}

type countingEmbedder struct {
	queries int
	docs    int
	err     error
}

func (e *countingEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	e.queries++
	if e.err != nil {
		return nil, e.err
	}
	return []float32{float32(len(text)), 1}, nil
}

func (e *countingEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	e.docs++
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t))}
	}
	return out, nil
}

func TestCachedEmbedder(t *testing.T) {
	inner := &countingEmbedder{}
	e, err := retrieval.NewCachedEmbedder(inner, 2)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()

	first, _ := e.EmbedQuery(ctx, "what is kyc")
	first[0] = -1

	again, _ := e.EmbedQuery(ctx, "what is kyc")
	if inner.queries != 1 {
		t.Errorf("inner calls: got %d, want 1", inner.queries)
	}
	if again[0] != float32(len("what is kyc")) {
		t.Errorf("cached vector mutated by caller: %v", again)
	}

	e.EmbedQuery(ctx, "b")
	e.EmbedQuery(ctx, "c")
	if e.Len() != 2 {
		t.Errorf("len: got %d, want 2", e.Len())
	}

	e.EmbedDocuments(ctx, []string{"x", "y"})
	e.EmbedDocuments(ctx, []string{"x", "y"})
	if inner.docs != 2 {
		t.Errorf("document embeddings should not be cached: %d calls", inner.docs)
	}
}

func TestCachedEmbedderSkipsErrors(t *testing.T) {
	inner := &countingEmbedder{err: errors.New("rate limited")}
	e, _ := retrieval.NewCachedEmbedder(inner, 4)

	for range 2 {
		if _, err := e.EmbedQuery(context.Background(), "q"); err == nil {
			t.Fatal("expected error")
		}
	}
	if inner.queries != 2 || e.Len() != 0 {
		t.Errorf("failures must not be cached: calls=%d len=%d", inner.queries, e.Len())
	}
}

func newStore(e retrieval.Embedder) *retrieval.Store {
	cfg := &config.RetrievalConfig{PublicTable: "public_chunks", InternalTable: "internal_chunks"}
	return retrieval.NewStore(nil, e, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestStoreTables(t *testing.T) {
	s := newStore(&countingEmbedder{})

	tests := []struct {
		c    retrieval.Collection
		want string
		err  error
	}{
		{retrieval.Public, "public_chunks", nil},
		{retrieval.Internal, "internal_chunks", nil},
		{retrieval.Collection("shared"), "", retrieval.ErrInvalidCollection},
	}

	for _, tt := range tests {
		got, err := s.Table(tt.c)
		if got != tt.want || !errors.Is(err, tt.err) {
			t.Errorf("%s: got %q, %v; want %q, %v", tt.c, got, err, tt.want, tt.err)
		}
	}
}

func TestStoreRetrieveFailures(t *testing.T) {
	ctx := context.Background()

	s := newStore(&countingEmbedder{err: errors.New("embedding service down")})
	if _, err := s.Retrieve(ctx, "q", 4, retrieval.Public); !errors.Is(err, retrieval.ErrUnavailable) {
		t.Errorf("embed failure: got %v, want ErrUnavailable", err)
	}

	if _, err := s.Retrieve(ctx, "q", 4, "shared"); !errors.Is(err, retrieval.ErrInvalidCollection) {
		t.Errorf("bad collection: got %v, want ErrInvalidCollection", err)
	}

	inner := &countingEmbedder{}
	chunks, err := newStore(inner).Retrieve(ctx, "q", 0, retrieval.Internal)
	if err != nil || len(chunks) != 0 {
		t.Errorf("zero n: got %v, %v", chunks, err)
	}
	if inner.queries != 0 {
		t.Error("zero n should not embed the query")
	}
}

func TestStoreWithoutEmbedder(t *testing.T) {
	s := newStore(nil)

	if _, err := s.Retrieve(context.Background(), "q", 4, retrieval.Internal); !errors.Is(err, retrieval.ErrUnavailable) {
		t.Errorf("retrieve: got %v, want ErrUnavailable", err)
	}

	records := []retrieval.Record{{Chunk: retrieval.Chunk{ID: "a_0", Text: "text"}}}
	if err := s.Replace(context.Background(), retrieval.Internal, "a", records); !errors.Is(err, retrieval.ErrUnavailable) {
		t.Errorf("replace: got %v, want ErrUnavailable", err)
	}
}
