// Package prompts manages per-stage instruction overrides for the model calls
// made while classifying, answering and judging. Overrides are stored in
// Postgres with at most one active override per stage; the output
// specification appended to each stage is fixed.
package prompts

import (
	"strings"

	"github.com/google/uuid"
)

// Prompt is a named instruction override for a stage.
type Prompt struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Stage        Stage     `json:"stage"`
	Instructions string    `json:"instructions"`
	Description  *string   `json:"description"`
	Active       bool      `json:"active"`
}

// Command carries the writable fields of a prompt for create and update.
type Command struct {
	Name         string  `json:"name"`
	Stage        Stage   `json:"stage"`
	Instructions string  `json:"instructions"`
	Description  *string `json:"description"`
}

func (c Command) validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrNameRequired
	}
	if _, err := ParseStage(string(c.Stage)); err != nil {
		return err
	}
	if strings.TrimSpace(c.Instructions) == "" {
		return ErrInstructionsRequired
	}
	return nil
}

// StageContent pairs a stage with a block of prompt text.
type StageContent struct {
	Stage   Stage  `json:"stage"`
	Content string `json:"content"`
}
