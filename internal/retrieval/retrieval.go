// Package retrieval owns the evidence side of question answering: the
// isolated public and internal chunk collections, the pgvector store that
// searches them, and the evidence block handed to the generator.
package retrieval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Collection selects one of the isolated chunk indexes.
type Collection string

const (
	Public   Collection = "public"
	Internal Collection = "internal"
)

var (
	ErrInvalidCollection = errors.New("collection must be public or internal")
	// ErrUnavailable wraps every store or embedder failure. It is distinct
	// from an empty result, which is reported as a nil error.
	ErrUnavailable = errors.New("retriever unavailable")
	// ErrInvalidRecord rejects a write that cannot be attributed to a document.
	ErrInvalidRecord = errors.New("invalid chunk record")
)

// ParseCollection validates s as a collection name.
func ParseCollection(s string) (Collection, error) {
	switch c := Collection(s); c {
	case Public, Internal:
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCollection, s)
}

// UnmarshalJSON rejects unknown collection names.
func (c *Collection) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := ParseCollection(raw)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Metadata is the provenance stored alongside each chunk.
type Metadata struct {
	DocID    string `json:"doc_id"`
	FileType string `json:"file_type"`
	Source   string `json:"source"`
}

// Chunk is one retrieved fragment of a source document. Score is the cosine
// distance when the store reports one: lower is more similar, and chunks
// arrive best first.
type Chunk struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
	Score    *float64 `json:"score,omitempty"`
}

// Label returns the document id, falling back to the chunk id.
func (c Chunk) Label() string {
	if c.Metadata.DocID != "" {
		return c.Metadata.DocID
	}
	return c.ID
}

// Retriever returns the n most relevant chunks for query from collection,
// in ranking order. An empty slice with a nil error means nothing matched;
// a non-nil error means the index could not be consulted.
type Retriever interface {
	Retrieve(ctx context.Context, query string, n int, c Collection) ([]Chunk, error)
}
