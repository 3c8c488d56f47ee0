package verification

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JaimeStill/triage/internal/retrieval"
	"github.com/JaimeStill/triage/pkg/handlers"
	"github.com/JaimeStill/triage/pkg/routes"
)

var ErrQuestionRequired = errors.New("question is required")

// Handler serves POST /verifications.
type Handler struct {
	verifier *Verifier
	clampK   func(int) int
	logger   *slog.Logger
}

// NewHandler creates a Handler. clampK normalises the requested k.
func NewHandler(v *Verifier, clampK func(int) int, logger *slog.Logger) *Handler {
	return &Handler{
		verifier: v,
		clampK:   clampK,
		logger:   logger.With("handler", "verification"),
	}
}

// Request is the body of POST /verifications. Collection defaults to public.
type Request struct {
	Question   string               `json:"question"`
	Answer     string               `json:"answer"`
	K          int                  `json:"k"`
	Collection retrieval.Collection `json:"collection"`
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/verifications",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.Verify},
		},
	}
}

func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	req, err := handlers.DecodeJSON[Request](w, r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrQuestionRequired)
		return
	}

	collection := req.Collection
	if collection == "" {
		collection = retrieval.Public
	}

	report := h.verifier.VerifyIn(r.Context(), req.Question, req.Answer, h.clampK(req.K), collection)
	handlers.RespondJSON(w, http.StatusOK, report)
}
