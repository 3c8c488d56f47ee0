package tickets

import (
	"context"
	"log/slog"
	"time"

	"github.com/JaimeStill/triage/internal/sensitivity"
	"github.com/JaimeStill/triage/pkg/metrics"
)

// Filer writes each ticket to every configured sink.
type Filer struct {
	sinks   []Sink
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewFiler creates a Filer over sinks. With no sinks, filing only logs.
func NewFiler(logger *slog.Logger, m *metrics.Metrics, sinks ...Sink) *Filer {
	return &Filer{
		sinks:   sinks,
		metrics: m,
		logger:  logger.With("system", "tickets"),
		now:     time.Now,
	}
}

// File records a review ticket for query. It is best effort: sink failures
// are logged and counted but never returned.
func (f *Filer) File(ctx context.Context, query string, result sensitivity.Result) {
	t := NewTicket(query, result, f.now())

	for _, s := range f.sinks {
		err := s.Write(ctx, t)
		f.metrics.TicketWritten(s.Name(), err == nil)
		if err != nil {
			f.logger.ErrorContext(ctx, "ticket write failed",
				"sink", s.Name(),
				"query_hash", t.QueryHash,
				"error", err,
			)
		}
	}

	f.logger.InfoContext(ctx, "review ticket filed",
		"query_hash", t.QueryHash,
		"label", t.Label,
		"confidence", t.Confidence,
		"sinks", len(f.sinks),
	)
}
