package answers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/JaimeStill/triage/internal/interactions"
	"github.com/JaimeStill/triage/pkg/handlers"
	"github.com/JaimeStill/triage/pkg/routes"
)

// Handler serves question answering and standalone classification.
type Handler struct {
	router     *Router
	classifier Classifier
	recorder   interactions.Recorder
	logger     *slog.Logger
}

// NewHandler creates a Handler. recorder may be nil when no interaction log
// is configured.
func NewHandler(router *Router, classifier Classifier, recorder interactions.Recorder, logger *slog.Logger) *Handler {
	return &Handler{
		router:     router,
		classifier: classifier,
		recorder:   recorder,
		logger:     logger.With("handler", "answers"),
	}
}

// AnswerRequest is the body of POST /answers. K is optional.
type AnswerRequest struct {
	Question string `json:"question"`
	K        int    `json:"k"`
}

// AnswerResponse adds the plain-text rendering to the envelope.
type AnswerResponse struct {
	Envelope
	Rendered string `json:"rendered"`
}

// ClassifyRequest is the body of POST /classifications.
type ClassifyRequest struct {
	Query string `json:"query"`
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/answers", Handler: h.Answer},
			{Method: "POST", Pattern: "/classifications", Handler: h.Classify},
		},
	}
}

func (h *Handler) Answer(w http.ResponseWriter, r *http.Request) {
	req, err := handlers.DecodeJSON[AnswerRequest](w, r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		handlers.RespondError(w, h.logger, MapHTTPStatus(ErrQuestionRequired), ErrQuestionRequired)
		return
	}

	env := h.router.Answer(r.Context(), req.Question, req.K)
	rendered := env.String()

	if h.recorder != nil {
		entry := interactions.NewEntry(req.Question, rendered, env.Provenance, string(env.Label), env.Outcome, time.Now())
		if err := h.recorder.Record(r.Context(), entry); err != nil {
			h.logger.WarnContext(r.Context(), "record interaction failed", "error", err)
		}
	}

	handlers.RespondJSON(w, http.StatusOK, AnswerResponse{Envelope: env, Rendered: rendered})
}

func (h *Handler) Classify(w http.ResponseWriter, r *http.Request) {
	req, err := handlers.DecodeJSON[ClassifyRequest](w, r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		handlers.RespondError(w, h.logger, MapHTTPStatus(ErrQuestionRequired), ErrQuestionRequired)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, h.classifier.Classify(r.Context(), req.Query))
}
