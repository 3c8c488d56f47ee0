package prompts

import (
	"context"
	"strings"
)

// InsufficientInformation is the sentence the answer stage must emit when the
// evidence does not support an answer.
const InsufficientInformation = "I don't have enough information in the knowledge base to answer that."

const classifyInstructions = `You are a data classification assistant. Classify the following query into one of three categories:

- RED → Sensitive personal or financial data (PAN, card, CVV, Aadhaar, passport, account number, etc.)
- YELLOW → Internal, confidential, or business-sensitive (employee, financial report, internal communication, non-public company info)
- GREEN → Public, non-sensitive, safe for general release.`

const classifySpec = `Return JSON like:
{ "label": "RED"|"YELLOW"|"GREEN", "confidence": 0–1, "reason": "short justification" }`

const answerInstructions = `You are a domain-expert assistant. Use ONLY the provided evidence chunks to answer the user's question. Cite which document the answer came from where appropriate.`

const answerSpec = `If the answer is not present in the evidence, say: "` + InsufficientInformation + `"`

const judgeInstructions = `You are a rigorous AI evaluator that reviews whether an AI assistant's answer
is grounded in the retrieved evidence.

You will be given:
1) QUESTION
2) RETRIEVED EVIDENCE
3) ANSWER

Task:
- Check if the ANSWER is fully supported by the RETRIEVED EVIDENCE.
- Rate how well-supported it is (0–100).`

const judgeSpec = `Respond ONLY with strict JSON and NOTHING else, using keys:
{ "decision": "SUPPORTED" or "NOT_SUPPORTED", "score": integer 0-100, "reason": "one-sentence explanation" }`

var defaults = map[Stage]string{
	StageClassify: classifyInstructions,
	StageAnswer:   answerInstructions,
	StageJudge:    judgeInstructions,
}

// Output specifications are fixed; overrides only replace instructions, so
// downstream parsers can always rely on the reply shape.
var specs = map[Stage]string{
	StageClassify: classifySpec,
	StageAnswer:   answerSpec,
	StageJudge:    judgeSpec,
}

// Default returns the built-in instructions for stage.
func Default(stage Stage) (string, error) {
	text, ok := defaults[stage]
	if !ok {
		return "", ErrInvalidStage
	}
	return text, nil
}

// Spec returns the immutable output specification for stage.
func Spec(stage Stage) (string, error) {
	text, ok := specs[stage]
	if !ok {
		return "", ErrInvalidStage
	}
	return text, nil
}

// Source resolves the effective instructions for a stage.
type Source interface {
	Instructions(ctx context.Context, stage Stage) (string, error)
}

// Defaults is a Source serving the built-in instructions only.
type Defaults struct{}

func (Defaults) Instructions(_ context.Context, stage Stage) (string, error) {
	return Default(stage)
}

// Compose joins the effective instructions for stage with its output spec.
// A nil source, a failing source, or an empty override all fall back to the
// built-in instructions, so Compose always yields a usable prompt for a
// valid stage.
func Compose(ctx context.Context, src Source, stage Stage) string {
	text := ""
	if src != nil {
		if v, err := src.Instructions(ctx, stage); err == nil {
			text = strings.TrimSpace(v)
		}
	}
	if text == "" {
		text = defaults[stage]
	}

	if spec := specs[stage]; spec != "" {
		return text + "\n\n" + spec
	}
	return text
}
