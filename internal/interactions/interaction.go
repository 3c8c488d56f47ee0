// Package interactions keeps an audit trail of answered questions. Questions
// are stored only as SHA-256 hashes; answers are kept as a bounded snippet.
package interactions

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

const snippetLimit = 800

// Entry is one recorded interaction.
type Entry struct {
	ID            uuid.UUID `json:"id"`
	Time          time.Time `json:"time"`
	QuestionHash  string    `json:"question_hash"`
	AnswerSnippet string    `json:"answer_snippet"`
	RetrievedDocs []string  `json:"retrieved_docs"`
	Label         string    `json:"label"`
	Outcome       string    `json:"outcome"`
}

// NewEntry prepares an entry for question. The answer is cut to 800
// characters with a trailing ellipsis marker.
func NewEntry(question, answer string, docs []string, label, outcome string, now time.Time) Entry {
	sum := sha256.Sum256([]byte(question))
	if docs == nil {
		docs = []string{}
	}
	return Entry{
		Time:          now.UTC(),
		QuestionHash:  hex.EncodeToString(sum[:]),
		AnswerSnippet: Snippet(answer),
		RetrievedDocs: docs,
		Label:         label,
		Outcome:       outcome,
	}
}

// Snippet truncates answer to the stored length.
func Snippet(answer string) string {
	r := []rune(answer)
	if len(r) <= snippetLimit {
		return answer
	}
	return string(r[:snippetLimit]) + "..."
}
