package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strconv"

	"github.com/JaimeStill/triage/pkg/handlers"
	"github.com/JaimeStill/triage/pkg/routes"
	"github.com/JaimeStill/triage/pkg/storage"
)

// archiveHandler exposes the original documents kept by ingestion. Keys are
// "<collection>/<file name>", so listing with prefix "public/" shows only
// documents behind the public collection.
type archiveHandler struct {
	archive  storage.System
	logger   *slog.Logger
	pageSize int32
}

func newStorageHandler(archive storage.System, logger *slog.Logger, pageSize int32) *archiveHandler {
	return &archiveHandler{
		archive:  archive,
		logger:   logger.With("handler", "storage"),
		pageSize: pageSize,
	}
}

func (h *archiveHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/storage",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.list},
			{Method: "GET", Pattern: "/download/{key...}", Handler: h.download},
			{Method: "GET", Pattern: "/{key...}", Handler: h.find},
			{Method: "DELETE", Pattern: "/{key...}", Handler: h.remove},
		},
	}
}

func (h *archiveHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	size, err := storage.ParseMaxResults(q.Get("max_results"), h.pageSize)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	page, err := h.archive.List(r.Context(), q.Get("prefix"), q.Get("marker"), size)
	if err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, page)
}

func (h *archiveHandler) find(w http.ResponseWriter, r *http.Request) {
	meta, err := h.archive.Find(r.Context(), r.PathValue("key"))
	if err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, meta)
}

// remove deletes an archived original. Indexed chunks are left in place; the
// vector tables are rebuilt by re-running ingestion.
func (h *archiveHandler) remove(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if err := h.archive.Delete(r.Context(), key); err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}
	h.logger.InfoContext(r.Context(), "archived original removed", "key", key)
	w.WriteHeader(http.StatusNoContent)
}

func (h *archiveHandler) download(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	blob, err := h.archive.Download(r.Context(), key)
	if err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}
	defer blob.Body.Close()

	header := w.Header()
	header.Set("Content-Type", blob.ContentType)
	header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", path.Base(key)))
	if blob.ContentLength > 0 {
		header.Set("Content-Length", strconv.FormatInt(blob.ContentLength, 10))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, blob.Body); err != nil {
		h.logger.WarnContext(r.Context(), "download interrupted", "key", key, "error", err)
	}
}
