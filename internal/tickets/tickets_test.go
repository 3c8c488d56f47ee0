package tickets_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/JaimeStill/triage/internal/sensitivity"
	"github.com/JaimeStill/triage/internal/tickets"
	"github.com/JaimeStill/triage/pkg/metrics"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func lowConfidence() sensitivity.Result {
	return sensitivity.Result{
		Label:      sensitivity.Yellow,
		Confidence: 0.4,
		Reason:     "ambiguous business context",
		Stage:      sensitivity.StageModel,
	}
}

func readLines(t *testing.T, path string) []map[string]any {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer f.Close()

	var out []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var rec map[string]any
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			t.Fatalf("malformed line %q: %v", sc.Text(), err)
		}
		out = append(out, rec)
	}
	return out
}

func TestHashQuery(t *testing.T) {
	got := tickets.HashQuery("abc")
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestFilerWritesHashedTicket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "human_review.log")
	query := "Can you summarise the Q3 numbers for Acme?"

	f := tickets.NewFiler(discard(), nil, tickets.NewFileLog(path))
	f.File(context.Background(), query, lowConfidence())

	lines := readLines(t, path)
	if len(lines) != 1 {
		t.Fatalf("lines: got %d, want 1", len(lines))
	}
	rec := lines[0]

	for _, key := range []string{"time", "query_hash", "label", "confidence", "reason"} {
		if _, ok := rec[key]; !ok {
			t.Errorf("missing field %q in %v", key, rec)
		}
	}
	if len(rec) != 5 {
		t.Errorf("unexpected fields: %v", rec)
	}
	if rec["query_hash"] != tickets.HashQuery(query) {
		t.Errorf("query_hash: got %v", rec["query_hash"])
	}
	if rec["label"] != "YELLOW" || rec["confidence"] != 0.4 {
		t.Errorf("label/confidence: got %v/%v", rec["label"], rec["confidence"])
	}
	if ts, _ := rec["time"].(string); !strings.HasSuffix(ts, "Z") {
		t.Errorf("time not UTC: %q", ts)
	}

	raw, _ := os.ReadFile(path)
	if strings.Contains(string(raw), "Acme") {
		t.Error("raw query text leaked into the ticket log")
	}
}

func TestFileLogConcurrentAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "review.log")
	log := tickets.NewFileLog(path)
	result := lowConfidence()
	result.Reason = strings.Repeat("long reason ", 200)

	const n = 64
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tk := tickets.NewTicket(fmt.Sprintf("question %d", i), result, time.Now())
			if err := log.Write(context.Background(), tk); err != nil {
				t.Errorf("write %d: %v", i, err)
			}
		}()
	}
	wg.Wait()

	lines := readLines(t, path)
	if len(lines) != n {
		t.Fatalf("lines: got %d, want %d", len(lines), n)
	}

	seen := make(map[any]bool)
	for _, rec := range lines {
		seen[rec["query_hash"]] = true
	}
	if len(seen) != n {
		t.Errorf("distinct hashes: got %d, want %d", len(seen), n)
	}
}

type failingSink struct{}

func (failingSink) Name() string { return "broken" }

func (failingSink) Write(context.Context, tickets.Ticket) error {
	return errors.New("disk full")
}

type memSink struct {
	mu   sync.Mutex
	got  []tickets.Ticket
	name string
}

func (m *memSink) Name() string { return m.name }

func (m *memSink) Write(_ context.Context, t tickets.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.got = append(m.got, t)
	return nil
}

func TestFilerSwallowsSinkFailures(t *testing.T) {
	m := metrics.New()
	mem := &memSink{name: "memory"}
	f := tickets.NewFiler(discard(), m, failingSink{}, mem)

	f.File(context.Background(), "ambiguous question", lowConfidence())

	if len(mem.got) != 1 {
		t.Fatalf("later sinks must still receive the ticket: got %d", len(mem.got))
	}

	expected := `
# HELP triage_review_tickets_total Review ticket writes, by sink and result.
# TYPE triage_review_tickets_total counter
triage_review_tickets_total{result="error",sink="broken"} 1
triage_review_tickets_total{result="ok",sink="memory"} 1
`
	if err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "triage_review_tickets_total"); err != nil {
		t.Error(err)
	}
}

func TestFileLogUnwritablePath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	log := tickets.NewFileLog(filepath.Join(blocker, "review.log"))
	if err := log.Write(context.Background(), tickets.NewTicket("q", lowConfidence(), time.Now())); err == nil {
		t.Error("expected error writing beneath a regular file")
	}

	f := tickets.NewFiler(discard(), nil, log)
	f.File(context.Background(), "q", lowConfidence())
}
