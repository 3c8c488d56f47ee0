package ingest

import (
	"io"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/JaimeStill/triage/internal/retrieval"
	"github.com/JaimeStill/triage/pkg/handlers"
	"github.com/JaimeStill/triage/pkg/routes"
)

// Handler serves document uploads for indexing.
type Handler struct {
	indexer       *Indexer
	logger        *slog.Logger
	maxUploadSize int64
}

func NewHandler(ix *Indexer, logger *slog.Logger, maxUploadSize int64) *Handler {
	return &Handler{
		indexer:       ix,
		logger:        logger.With("handler", "ingest"),
		maxUploadSize: maxUploadSize,
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/ingest",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.Upload},
		},
	}
}

// Upload indexes a multipart "file" into the collection named by the
// "collection" form field, defaulting to internal.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, ErrFileTooLarge)
		return
	}

	collection := retrieval.Internal
	if v := r.FormValue("collection"); v != "" {
		c, err := retrieval.ParseCollection(v)
		if err != nil {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
			return
		}
		collection = c
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidFile)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidFile)
		return
	}

	summary, err := h.indexer.Index(r.Context(), filepath.Base(header.Filename), data, collection)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusCreated, summary)
}
