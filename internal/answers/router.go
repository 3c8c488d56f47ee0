// Package answers routes questions by sensitivity: RED is refused, YELLOW is
// answered from the internal collection (with a review ticket when the
// classification is uncertain), and GREEN is answered from the public
// collection.
package answers

import (
	"context"
	"fmt"
	"log/slog"

	gaoconfig "github.com/JaimeStill/go-agents-orchestration/pkg/config"
	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/JaimeStill/triage/internal/pipeline"
	"github.com/JaimeStill/triage/internal/retrieval"
	"github.com/JaimeStill/triage/internal/sensitivity"
	"github.com/JaimeStill/triage/pkg/metrics"
)

// Classifier labels a question.
type Classifier interface {
	Classify(ctx context.Context, query string) sensitivity.Result
}

// Filer records a review ticket. Implementations must not fail the caller.
type Filer interface {
	File(ctx context.Context, query string, result sensitivity.Result)
}

// Runner answers a question from one collection.
type Runner interface {
	Run(ctx context.Context, question string, k int, collection retrieval.Collection) pipeline.Result
}

// Runtime carries the collaborators and policy used by the Router.
type Runtime struct {
	Classifier Classifier
	Filer      Filer
	Pipeline   Runner
	Metrics    *metrics.Metrics
	Logger     *slog.Logger

	// Threshold is the confidence below which a YELLOW question is ticketed.
	Threshold float64
	DefaultK  int
	MaxK      int
}

// Router executes the routing graph for each question.
type Router struct {
	rt     Runtime
	logger *slog.Logger
}

// New creates a Router.
func New(rt Runtime) *Router {
	return &Router{
		rt:     rt,
		logger: rt.Logger.With("system", "answers"),
	}
}

// Answer classifies, routes, and answers question. It never fails: graph
// errors and panics produce a generic YELLOW envelope with outcome "error".
func (r *Router) Answer(ctx context.Context, question string, k int) (env Envelope) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.ErrorContext(ctx, "answer panic recovered", "panic", p)
			env = failure("internal error")
		}
	}()

	graph, err := r.buildGraph()
	if err != nil {
		r.logger.ErrorContext(ctx, "build routing graph failed", "error", err)
		return failure("routing unavailable")
	}

	initial := state.New(nil)
	initial = initial.Set(KeyQuestion, question)
	initial = initial.Set(KeyK, r.normalizeK(k))

	final, err := graph.Execute(ctx, initial)
	if err != nil {
		r.logger.ErrorContext(ctx, "routing graph failed", "error", err)
		return failure("routing failed")
	}

	env, err = extractEnvelope(final)
	if err != nil {
		r.logger.ErrorContext(ctx, "routing graph produced no envelope", "error", err)
		return failure("routing failed")
	}
	return env
}

func (r *Router) normalizeK(k int) int {
	if k < 1 {
		k = r.rt.DefaultK
	}
	if r.rt.MaxK > 0 {
		k = min(k, r.rt.MaxK)
	}
	return max(k, 1)
}

func (r *Router) buildGraph() (state.StateGraph, error) {
	cfg := gaoconfig.DefaultGraphConfig("triage-answer")
	cfg.Observer = "noop"

	graph, err := state.NewGraph(cfg)
	if err != nil {
		return nil, err
	}

	nodes := []struct {
		name string
		node state.StateNode
	}{
		{NodeClassify, r.classifyNode()},
		{NodeRefuse, r.refuseNode()},
		{NodeTicket, r.ticketNode()},
		{NodeInternal, r.pipelineNode(retrieval.Internal, Internal)},
		{NodePublic, r.pipelineNode(retrieval.Public, Public)},
		{NodeRespond, r.respondNode()},
	}
	for _, n := range nodes {
		if err := graph.AddNode(n.name, n.node); err != nil {
			return nil, fmt.Errorf("add node %s: %w", n.name, err)
		}
	}

	edges := []struct {
		from, to string
		when     func(state.State) bool
	}{
		{NodeClassify, NodeRefuse, labelIs(sensitivity.Red)},
		{NodeClassify, NodeTicket, r.needsTicket},
		{NodeClassify, NodeInternal, r.yellowWithoutTicket},
		{NodeClassify, NodePublic, labelIs(sensitivity.Green)},
		{NodeTicket, NodeInternal, nil},
		{NodeRefuse, NodeRespond, nil},
		{NodeInternal, NodeRespond, nil},
		{NodePublic, NodeRespond, nil},
	}
	for _, e := range edges {
		if err := graph.AddEdge(e.from, e.to, e.when); err != nil {
			return nil, fmt.Errorf("add edge %s -> %s: %w", e.from, e.to, err)
		}
	}

	if err := graph.SetEntryPoint(NodeClassify); err != nil {
		return nil, err
	}
	if err := graph.SetExitPoint(NodeRespond); err != nil {
		return nil, err
	}

	return graph, nil
}
