package prompts

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/triage/pkg/pagination"
)

// System is the prompt override store. It is also a Source: Instructions
// returns the active override for a stage, or the built-in default.
type System interface {
	Source

	Handler() *Handler

	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Prompt], error)
	Find(ctx context.Context, id uuid.UUID) (*Prompt, error)
	Create(ctx context.Context, cmd Command) (*Prompt, error)
	Update(ctx context.Context, id uuid.UUID, cmd Command) (*Prompt, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Activate(ctx context.Context, id uuid.UUID) (*Prompt, error)
	Deactivate(ctx context.Context, id uuid.UUID) (*Prompt, error)
}
