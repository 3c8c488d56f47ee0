package tickets

import (
	"net/url"

	"github.com/JaimeStill/triage/internal/sensitivity"
	"github.com/JaimeStill/triage/pkg/query"
	"github.com/JaimeStill/triage/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "review_tickets", "t").
	Project("id", "ID").
	Project("created_at", "Time").
	Project("query_hash", "QueryHash").
	Project("label", "Label").
	Project("confidence", "Confidence").
	Project("reason", "Reason")

var defaultSort = query.SortField{Field: "Time", Descending: true}

// Filters narrows ticket listings. Nil fields are ignored.
type Filters struct {
	Label     *sensitivity.Label `json:"label,omitempty"`
	QueryHash *string            `json:"query_hash,omitempty"`
}

// Apply adds the filter conditions to b.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Label", f.Label).
		WhereEquals("QueryHash", f.QueryHash)
}

// FiltersFromQuery reads label and query_hash from URL query values.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if l, err := sensitivity.ParseLabel(values.Get("label")); err == nil {
		f.Label = &l
	}
	if h := values.Get("query_hash"); h != "" {
		f.QueryHash = &h
	}

	return f
}

func scanTicket(s repository.Scanner) (Stored, error) {
	var t Stored
	err := s.Scan(&t.ID, &t.Time, &t.QueryHash, &t.Label, &t.Confidence, &t.Reason)
	return t, err
}
