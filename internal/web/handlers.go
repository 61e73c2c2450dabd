package web

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/sujankapadia/evernote-importer/internal/config"
	"github.com/sujankapadia/evernote-importer/internal/errors"
	"github.com/sujankapadia/evernote-importer/internal/ops"
)

// Handlers contains the HTTP route handlers.
type Handlers struct {
	db      *sql.DB
	cfg     *config.Config
	log     zerolog.Logger
	version string
	maxMem  int64 // multipart in-memory threshold
}

// HandleHealth handles GET /api/health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": h.version,
	})
}

// HandleImportUpload handles POST /api/import/upload — multipart upload of
// one or more .enex archives. Each file imports in its own transaction, so a
// bad file doesn't fail the batch.
func (h *Handlers) HandleImportUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, int64(h.cfg.MaxUploadMB)<<20)

	if err := r.ParseMultipartForm(h.maxMem); err != nil {
		writeError(w, errors.NewInvalidRequest(fmt.Sprintf("invalid multipart request: %v", err)))
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeError(w, errors.NewInvalidRequest("no files uploaded"))
		return
	}

	// One run id ties the batch's log lines together.
	runID := ulid.Make().String()
	logger := h.log.With().Str("run_id", runID).Logger()

	results := make([]*ops.ImportStats, 0, len(files))
	for _, header := range files {
		if !strings.EqualFold(filepath.Ext(header.Filename), ".enex") {
			writeError(w, errors.NewInvalidRequest(fmt.Sprintf("unsupported file: %s", header.Filename)))
			return
		}

		stats, err := h.importUpload(r, header, runID)
		if err != nil {
			logger.Error().Err(err).Str("file", header.Filename).Msg("import failed")
			writeError(w, err)
			return
		}

		logger.Info().
			Str("file", stats.File).
			Int("inserted", stats.Inserted).
			Int("updated", stats.Updated).
			Int64("duration_ms", stats.DurationMS).
			Msg("archive imported")
		results = append(results, stats)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"run_id":  runID,
		"imports": results,
	})
}

// importUpload spools one uploaded archive to a temp file and imports it.
func (h *Handlers) importUpload(r *http.Request, header *multipart.FileHeader, runID string) (*ops.ImportStats, error) {
	src, err := header.Open()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer src.Close()

	tmpPath := filepath.Join(os.TempDir(), fmt.Sprintf("enex-upload-%s-%s.enex", runID, ulid.Make()))
	dst, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer os.Remove(tmpPath) //nolint:errcheck

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return nil, errors.NewInternal(err)
	}
	if err := dst.Close(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return ops.Import(r.Context(), h.db, ops.ImportInput{
		Path:   tmpPath,
		Source: header.Filename,
	})
}

// HandleListNotes handles GET /api/notes.
func (h *Handlers) HandleListNotes(w http.ResponseWriter, r *http.Request) {
	out, err := ops.List(h.db, ops.ListInput{
		Limit:  queryInt(r, "limit", 0),
		Offset: queryInt(r, "offset", 0),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGetNote handles GET /api/notes/{id}.
func (h *Handlers) HandleGetNote(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	detail, err := ops.Fetch(h.db, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// HandleDeleteNote handles DELETE /api/notes/{id}.
func (h *Handlers) HandleDeleteNote(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	out, err := ops.Delete(h.db, id)
	if err != nil {
		writeError(w, err)
		return
	}

	h.log.Info().Int64("note_id", id).Msg("note deleted")
	writeJSON(w, http.StatusOK, out)
}

// HandleAttachment handles GET /api/notes/{id}/attachments/{resourceID},
// streaming the raw payload.
func (h *Handlers) HandleAttachment(w http.ResponseWriter, r *http.Request) {
	noteID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	resourceID, ok := pathID(w, r, "resourceID")
	if !ok {
		return
	}

	att, err := ops.Attachment(h.db, noteID, resourceID)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", att.Mime)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", att.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(att.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(att.Data)
}

// HandleSearch handles GET /api/search.
func (h *Handlers) HandleSearch(w http.ResponseWriter, r *http.Request) {
	out, err := ops.Search(r.Context(), h.db, ops.SearchInput{
		Query:  r.URL.Query().Get("q"),
		Limit:  queryInt(r, "limit", 0),
		Offset: queryInt(r, "offset", 0),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// pathID parses a positive integer path value, writing a 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, errors.NewInvalidRequest(fmt.Sprintf("invalid %s: %q", name, raw)))
		return 0, false
	}
	return id, true
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// writeJSON writes a JSON response body.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps a structured error to its HTTP status and JSON body.
func writeError(w http.ResponseWriter, err error) {
	appErr, ok := err.(*errors.Error)
	if !ok {
		appErr = errors.NewInternal(err)
	}

	body := map[string]any{
		"error": map[string]any{
			"code":    appErr.Code,
			"message": appErr.Message,
		},
	}
	// Internal messages can carry file paths or SQL fragments; don't leak them.
	if appErr.Code == errors.ErrInternal {
		body["error"].(map[string]any)["message"] = "internal error"
	}
	if appErr.Details != nil && appErr.Code != errors.ErrInternal {
		body["error"].(map[string]any)["details"] = appErr.Details
	}

	writeJSON(w, appErr.Status, body)
}
