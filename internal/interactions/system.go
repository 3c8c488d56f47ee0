package interactions

import (
	"context"

	"github.com/JaimeStill/triage/pkg/pagination"
)

// Recorder stores interactions.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// System is the Postgres interaction log.
type System interface {
	Recorder

	Handler() *Handler

	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Entry], error)
}
