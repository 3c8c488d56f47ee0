package interactions

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/JaimeStill/triage/pkg/query"
	"github.com/JaimeStill/triage/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "interactions", "i").
	Project("id", "ID").
	Project("created_at", "Time").
	Project("question_hash", "QuestionHash").
	Project("answer_snippet", "AnswerSnippet").
	Project("retrieved_docs", "RetrievedDocs").
	Project("label", "Label").
	Project("outcome", "Outcome")

var defaultSort = query.SortField{Field: "Time", Descending: true}

// Filters narrows interaction listings. Nil fields are ignored.
type Filters struct {
	Label        *string `json:"label,omitempty"`
	Outcome      *string `json:"outcome,omitempty"`
	QuestionHash *string `json:"question_hash,omitempty"`
}

// Apply adds the filter conditions to b.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Label", f.Label).
		WhereEquals("Outcome", f.Outcome).
		WhereEquals("QuestionHash", f.QuestionHash)
}

// FiltersFromQuery reads label, outcome and question_hash from URL query values.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if v := values.Get("label"); v != "" {
		f.Label = &v
	}
	if v := values.Get("outcome"); v != "" {
		f.Outcome = &v
	}
	if v := values.Get("question_hash"); v != "" {
		f.QuestionHash = &v
	}

	return f
}

// docList stores the provenance list as a JSONB array.
type docList []string

func (d docList) Value() (driver.Value, error) {
	if d == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(d))
}

func (d *docList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*d = docList{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan retrieved_docs: unsupported type %T", src)
	}
	return json.Unmarshal(raw, (*[]string)(d))
}

func scanEntry(s repository.Scanner) (Entry, error) {
	var (
		e    Entry
		docs docList
	)
	err := s.Scan(&e.ID, &e.Time, &e.QuestionHash, &e.AnswerSnippet, &docs, &e.Label, &e.Outcome)
	e.RetrievedDocs = docs
	return e, err
}
