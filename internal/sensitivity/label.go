// Package sensitivity classifies incoming questions by data sensitivity.
//
// Classification runs a deterministic rule stage first and only consults a
// generation model when no rule matches. Classify is total: every failure
// of the model stage degrades to a YELLOW result with confidence 0.5.
package sensitivity

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Label is a sensitivity class.
type Label string

const (
	// Red marks personal or payment data that must never be processed.
	Red Label = "RED"
	// Yellow marks internal business data that is answered from the
	// internal collection and may require human review.
	Yellow Label = "YELLOW"
	// Green marks public information.
	Green Label = "GREEN"
)

// Stage records which classification stage produced a Result.
type Stage string

const (
	StageRules Stage = "rules"
	StageModel Stage = "model"
)

// ErrInvalidLabel is returned when a value is not RED, YELLOW, or GREEN.
var ErrInvalidLabel = errors.New("label must be RED, YELLOW, or GREEN")

// ParseLabel accepts a label in any case with surrounding whitespace.
func ParseLabel(s string) (Label, error) {
	switch l := Label(strings.ToUpper(strings.TrimSpace(s))); l {
	case Red, Yellow, Green:
		return l, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidLabel, s)
}

// UnmarshalJSON rejects values outside the three labels.
func (l *Label) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := ParseLabel(raw)
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// Result is the outcome of classifying one query.
type Result struct {
	Label      Label   `json:"label"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
	Stage      Stage   `json:"stage"`
}

// Degraded is the safe result used whenever the model stage cannot produce
// a usable answer.
func Degraded(reason string) Result {
	return Result{Label: Yellow, Confidence: 0.5, Reason: reason, Stage: StageModel}
}

func clamp(v float64) float64 {
	switch {
	case v != v:
		return 0.5
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
