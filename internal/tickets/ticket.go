// Package tickets files human review tickets for low-confidence sensitive
// questions. A ticket identifies the question only by its SHA-256 hash.
package tickets

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/triage/internal/sensitivity"
)

// Ticket is one audit record. It never carries the raw question.
type Ticket struct {
	Time       time.Time         `json:"time"`
	QueryHash  string            `json:"query_hash"`
	Label      sensitivity.Label `json:"label"`
	Confidence float64           `json:"confidence"`
	Reason     string            `json:"reason"`
}

// Stored is a ticket read back from the database.
type Stored struct {
	ID uuid.UUID `json:"id"`
	Ticket
}

// HashQuery returns the hex SHA-256 digest of the raw question.
func HashQuery(query string) string {
	sum := sha256.Sum256([]byte(query))
	return hex.EncodeToString(sum[:])
}

// NewTicket builds the ticket for query at time now, converted to UTC.
func NewTicket(query string, result sensitivity.Result, now time.Time) Ticket {
	return Ticket{
		Time:       now.UTC(),
		QueryHash:  HashQuery(query),
		Label:      result.Label,
		Confidence: result.Confidence,
		Reason:     result.Reason,
	}
}
