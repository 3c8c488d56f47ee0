package retrieval_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/JaimeStill/triage/internal/config"
	"github.com/JaimeStill/triage/internal/retrieval"
)

// recorder is a minimal database/sql driver that logs every statement and
// serves canned rows to queries.
type recorder struct {
	mu      sync.Mutex
	log     []string
	args    [][]driver.Value
	rows    [][]driver.Value
	failOn  string
	deleted int64
}

func (r *recorder) Connect(context.Context) (driver.Conn, error) { return &fakeConn{r}, nil }
func (r *recorder) Driver() driver.Driver { return r }
func (r *recorder) Open(string) (driver.Conn, error) { return &fakeConn{r}, nil }

func (r *recorder) record(entry string, args []driver.Value) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = append(r.log, entry)
	r.args = append(r.args, args)
}

func (r *recorder) entries() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.log...)
}

type fakeConn struct{ r *recorder }

func (c *fakeConn) Prepare(query string) (driver.Stmt, error) { return &fakeStmt{c.r, query}, nil }
func (c *fakeConn) Close() error { return nil }
func (c *fakeConn) Begin() (driver.Tx, error) {
	c.r.record("begin", nil)
	return &fakeTx{c.r}, nil
}

type fakeTx struct{ r *recorder }

func (t *fakeTx) Commit() error { t.r.record("commit", nil); return nil }
func (t *fakeTx) Rollback() error { t.r.record("rollback", nil); return nil }

type fakeStmt struct {
	r     *recorder
	query string
}

func (s *fakeStmt) Close() error { return nil }
func (s *fakeStmt) NumInput() int { return -1 }

func (s *fakeStmt) Exec(args []driver.Value) (driver.Result, error) {
	verb := strings.Fields(s.query)[0]
	s.r.record(verb, args)
	if s.r.failOn != "" && verb == s.r.failOn {
		return nil, errors.New("constraint violated")
	}
	if verb == "DELETE" {
		return driver.RowsAffected(s.r.deleted), nil
	}
	return driver.RowsAffected(1), nil
}

func (s *fakeStmt) Query(args []driver.Value) (driver.Rows, error) {
	s.r.record(s.query, args)
	return &fakeRows{rows: s.r.rows}, nil
}

type fakeRows struct {
	rows [][]driver.Value
	i    int
}

func (r *fakeRows) Columns() []string {
	return []string{"id", "content", "doc_id", "file_type", "source", "score"}
}
func (r *fakeRows) Close() error { return nil }
func (r *fakeRows) Next(dest []driver.Value) error {
	if r.i >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.i])
	r.i++
	return nil
}

func recordingStore(t *testing.T, rec *recorder) *retrieval.Store {
	t.Helper()
	db := sql.OpenDB(rec)
	t.Cleanup(func() { db.Close() })

	cfg := &config.RetrievalConfig{PublicTable: "public_chunks", InternalTable: "internal_chunks"}
	return retrieval.NewStore(db, &countingEmbedder{}, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func chunkRecords(docID string, n int) []retrieval.Record {
	records := make([]retrieval.Record, n)
	for i := range records {
		records[i] = retrieval.Record{Chunk: retrieval.Chunk{
			ID:       docID + "_" + strconv.Itoa(i),
			Text:     "chunk text",
			Metadata: retrieval.Metadata{DocID: docID, FileType: "txt", Source: "internal"},
		}}
	}
	return records
}

func TestStoreReplaceClearsDocument(t *testing.T) {
	rec := &recorder{deleted: 5}
	s := recordingStore(t, rec)

	if err := s.Replace(context.Background(), retrieval.Internal, "loan_policy.txt", chunkRecords("loan_policy.txt", 2)); err != nil {
		t.Fatalf("replace: %v", err)
	}

	want := []string{"begin", "DELETE", "INSERT", "INSERT", "commit"}
	got := rec.entries()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("statements: got %v, want %v", got, want)
	}
	if len(rec.args[1]) != 1 || rec.args[1][0] != "loan_policy.txt" {
		t.Errorf("delete args: got %v", rec.args[1])
	}
}

func TestStoreReplaceWithoutRecords(t *testing.T) {
	rec := &recorder{deleted: 3}
	s := recordingStore(t, rec)

	if err := s.Replace(context.Background(), retrieval.Public, "withdrawn.pdf", nil); err != nil {
		t.Fatalf("replace: %v", err)
	}

	want := []string{"begin", "DELETE", "commit"}
	if got := rec.entries(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("statements: got %v, want %v", got, want)
	}
}

func TestStoreReplaceRollsBack(t *testing.T) {
	rec := &recorder{failOn: "INSERT"}
	s := recordingStore(t, rec)

	err := s.Replace(context.Background(), retrieval.Internal, "loan_policy.txt", chunkRecords("loan_policy.txt", 2))
	if !errors.Is(err, retrieval.ErrUnavailable) {
		t.Fatalf("got %v, want ErrUnavailable", err)
	}

	got := rec.entries()
	if got[len(got)-1] != "rollback" {
		t.Errorf("last statement: got %v, want rollback", got)
	}
	for _, e := range got {
		if e == "commit" {
			t.Error("failed replace must not commit")
		}
	}
}

func TestStoreRetrieveReportsDistance(t *testing.T) {
	rec := &recorder{rows: [][]driver.Value{
		{"kyc_faq.txt_0", "KYC must be refreshed every two years.", "kyc_faq.txt", "txt", "external", 0.12},
		{"rbi_circular.pdf_3", "Digital lending guidelines.", "rbi_circular.pdf", "pdf", "external", 0.34},
	}}
	s := recordingStore(t, rec)

	chunks, err := s.Retrieve(context.Background(), "how often is kyc refreshed", 2, retrieval.Public)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("chunks: got %d", len(chunks))
	}

	for i, want := range []float64{0.12, 0.34} {
		if chunks[i].Score == nil || *chunks[i].Score != want {
			t.Errorf("chunk %d score: got %v, want distance %v", i, chunks[i].Score, want)
		}
	}
	if chunks[0].Metadata.DocID != "kyc_faq.txt" {
		t.Errorf("order changed: %+v", chunks[0])
	}

	query := rec.entries()[0]
	if !strings.Contains(query, "embedding <=> $1 AS score") || strings.Contains(query, "1 - (") {
		t.Errorf("score must be the raw cosine distance: %s", query)
	}
	if !strings.Contains(query, "FROM public_chunks") {
		t.Errorf("wrong table: %s", query)
	}
}

func TestStoreReplaceValidation(t *testing.T) {
	s := recordingStore(t, &recorder{})
	ctx := context.Background()

	if err := s.Replace(ctx, retrieval.Internal, "", nil); !errors.Is(err, retrieval.ErrInvalidRecord) {
		t.Errorf("empty doc id: got %v, want ErrInvalidRecord", err)
	}
	if err := s.Replace(ctx, "shared", "a.txt", nil); !errors.Is(err, retrieval.ErrInvalidCollection) {
		t.Errorf("bad collection: got %v, want ErrInvalidCollection", err)
	}
}
