package answers

import (
	"context"
	"fmt"

	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/JaimeStill/triage/internal/pipeline"
	"github.com/JaimeStill/triage/internal/retrieval"
	"github.com/JaimeStill/triage/internal/sensitivity"
)

const (
	NodeClassify = "classify"
	NodeRefuse   = "refuse"
	NodeTicket   = "ticket"
	NodeInternal = "internal"
	NodePublic   = "public"
	NodeRespond  = "respond"
)

const (
	KeyQuestion       = "question"
	KeyK              = "k"
	KeyClassification = "classification"
	KeyTicketed       = "ticketed"
	KeyVisibility     = "visibility"
	KeyResult         = "result"
	KeyEnvelope       = "envelope"
)

func (r *Router) classifyNode() state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		question, err := get[string](s, KeyQuestion)
		if err != nil {
			return s, err
		}

		result := r.rt.Classifier.Classify(ctx, question)
		return s.Set(KeyClassification, result), nil
	})
}

func (r *Router) refuseNode() state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		c, err := get[sensitivity.Result](s, KeyClassification)
		if err != nil {
			return s, err
		}

		r.logger.WarnContext(ctx, "query refused", "label", c.Label, "confidence", c.Confidence)
		return s.Set(KeyEnvelope, refusal(c)), nil
	})
}

func (r *Router) ticketNode() state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		question, err := get[string](s, KeyQuestion)
		if err != nil {
			return s, err
		}
		c, err := get[sensitivity.Result](s, KeyClassification)
		if err != nil {
			return s, err
		}

		if r.rt.Filer != nil {
			r.rt.Filer.File(ctx, question, c)
		}
		return s.Set(KeyTicketed, true), nil
	})
}

func (r *Router) pipelineNode(collection retrieval.Collection, visibility Visibility) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		question, err := get[string](s, KeyQuestion)
		if err != nil {
			return s, err
		}
		k, err := get[int](s, KeyK)
		if err != nil {
			return s, err
		}

		result := r.rt.Pipeline.Run(ctx, question, k, collection)

		s = s.Set(KeyResult, result)
		return s.Set(KeyVisibility, visibility), nil
	})
}

func (r *Router) respondNode() state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		if _, ok := s.Get(KeyEnvelope); ok {
			r.rt.Metrics.Answered(string(Refused), OutcomeRefused)
			return s, nil
		}

		c, err := get[sensitivity.Result](s, KeyClassification)
		if err != nil {
			return s, err
		}
		result, err := get[pipeline.Result](s, KeyResult)
		if err != nil {
			return s, err
		}
		visibility, err := get[Visibility](s, KeyVisibility)
		if err != nil {
			return s, err
		}
		ticketed, _ := get[bool](s, KeyTicketed)

		provenance := result.Provenance
		if provenance == nil {
			provenance = []string{}
		}

		env := Envelope{
			Text:       result.Text,
			Provenance: provenance,
			Visibility: visibility,
			Label:      c.Label,
			Confidence: c.Confidence,
			Reason:     c.Reason,
			Outcome:    string(result.Outcome),
			Ticketed:   ticketed,
		}

		r.rt.Metrics.Answered(string(visibility), env.Outcome)
		r.logger.InfoContext(ctx, "question answered",
			"label", env.Label,
			"confidence", env.Confidence,
			"visibility", env.Visibility,
			"outcome", env.Outcome,
			"ticketed", env.Ticketed,
		)
		return s.Set(KeyEnvelope, env), nil
	})
}

func labelIs(l sensitivity.Label) func(state.State) bool {
	return func(s state.State) bool {
		c, err := get[sensitivity.Result](s, KeyClassification)
		return err == nil && c.Label == l
	}
}

func (r *Router) needsTicket(s state.State) bool {
	c, err := get[sensitivity.Result](s, KeyClassification)
	return err == nil && c.Label == sensitivity.Yellow && c.Confidence < r.rt.Threshold
}

func (r *Router) yellowWithoutTicket(s state.State) bool {
	c, err := get[sensitivity.Result](s, KeyClassification)
	return err == nil && c.Label == sensitivity.Yellow && c.Confidence >= r.rt.Threshold
}

func extractEnvelope(s state.State) (Envelope, error) {
	return get[Envelope](s, KeyEnvelope)
}

func get[T any](s state.State, key string) (T, error) {
	var zero T

	val, ok := s.Get(key)
	if !ok {
		return zero, fmt.Errorf("missing %s in state", key)
	}

	v, ok := val.(T)
	if !ok {
		return zero, fmt.Errorf("%s is not %T", key, zero)
	}
	return v, nil
}
