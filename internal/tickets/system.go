package tickets

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/triage/pkg/pagination"
)

// System is the database ticket store: a Sink on the write side and a
// read-only listing for operators.
type System interface {
	Sink

	Handler() *Handler

	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Stored], error)
	Find(ctx context.Context, id uuid.UUID) (*Stored, error)
}
