package prompts

import (
	"encoding/json"
	"slices"
)

// Stage names a model call whose instructions can be overridden.
type Stage string

const (
	// StageClassify is the model fallback of the sensitivity classifier.
	StageClassify Stage = "classify"
	// StageAnswer is the evidence-grounded answer generation.
	StageAnswer Stage = "answer"
	// StageJudge is the groundedness judge used during verification.
	StageJudge Stage = "judge"
)

var stages = []Stage{StageClassify, StageAnswer, StageJudge}

// Stages returns the valid stages in pipeline order.
func Stages() []Stage {
	return slices.Clone(stages)
}

// ParseStage validates s as a known stage.
func ParseStage(s string) (Stage, error) {
	v := Stage(s)
	if !slices.Contains(stages, v) {
		return "", ErrInvalidStage
	}
	return v, nil
}

// UnmarshalJSON rejects unknown stage values.
func (s *Stage) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := ParseStage(raw)
	if err != nil {
		return err
	}
	*s = v
	return nil
}
