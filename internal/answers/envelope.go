package answers

import (
	"fmt"

	"github.com/JaimeStill/triage/internal/pipeline"
	"github.com/JaimeStill/triage/internal/sensitivity"
)

// Visibility is the audience an answer was produced for.
type Visibility string

const (
	Refused  Visibility = "refused"
	Internal Visibility = "internal"
	Public   Visibility = "public"
)

// Outcomes beyond those reported by the pipeline.
const (
	OutcomeRefused = "refused"
	OutcomeError   = "error"
)

const (
	RefusalMessage = "This query appears to contain sensitive or personal financial data. " +
		"For your security, I cannot process or store such information. " +
		"Please contact authorized support through a secure channel."

	ErrorMessage = "Your question could not be processed right now and has not been answered. " +
		"Please try again later or contact support."
)

// Envelope is the routed answer with its classification and provenance.
type Envelope struct {
	Text       string            `json:"text"`
	Provenance []string          `json:"provenance"`
	Visibility Visibility        `json:"visibility"`
	Label      sensitivity.Label `json:"label"`
	Confidence float64           `json:"confidence"`
	Reason     string            `json:"reason"`
	Outcome    string            `json:"outcome"`
	Ticketed   bool              `json:"ticketed"`
}

// Tag is the trailing visibility marker, empty for refusals and errors.
func (e Envelope) Tag() string {
	var kind string
	switch e.Visibility {
	case Internal:
		kind = "INTERNAL"
	case Public:
		kind = "PUBLIC"
	default:
		return ""
	}
	if e.Outcome == OutcomeError {
		return ""
	}
	return fmt.Sprintf("[%s DATA — label: %s, confidence=%.2f]", kind, e.Label, e.Confidence)
}

// String renders the envelope as plain text: the answer, the retrieved
// document list for generated answers, and the visibility tag.
func (e Envelope) String() string {
	body := pipeline.Result{
		Text:       e.Text,
		Provenance: e.Provenance,
		Outcome:    pipeline.Outcome(e.Outcome),
	}.String()

	if tag := e.Tag(); tag != "" {
		return body + "\n\n" + tag
	}
	return body
}

func refusal(c sensitivity.Result) Envelope {
	return Envelope{
		Text:       RefusalMessage,
		Provenance: []string{},
		Visibility: Refused,
		Label:      c.Label,
		Confidence: c.Confidence,
		Reason:     c.Reason,
		Outcome:    OutcomeRefused,
	}
}

func failure(reason string) Envelope {
	return Envelope{
		Text:       ErrorMessage,
		Provenance: []string{},
		Visibility: Internal,
		Label:      sensitivity.Yellow,
		Confidence: 0.5,
		Reason:     reason,
		Outcome:    OutcomeError,
	}
}
