package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dalilchat/dalil"
)

type handler struct {
	engine      dalil.Engine
	maxFileSize int64
}

func newHandler(e dalil.Engine, maxFileSize int64) *handler {
	return &handler{engine: e, maxFileSize: maxFileSize}
}

// POST /query
func (h *handler) handleQuery(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	var req struct {
		Query     string `json:"query"`
		SessionID string `json:"session_id,omitempty"`
		UseRAG    *bool  `json:"use_rag,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	var opts []dalil.QueryOption
	if req.UseRAG != nil && !*req.UseRAG {
		opts = append(opts, dalil.WithoutRAG())
	}

	res, err := h.engine.Query(ctx, req.SessionID, req.Query, opts...)
	if err != nil {
		writeEngineError(w, err)
		slog.Error("query error", "session_id", req.SessionID, "error", err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// POST /ingest
// Accepts multipart file uploads or JSON with raw texts.
func (h *handler) handleIngest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Minute)
	defer cancel()

	if err := r.ParseMultipartForm(h.maxFileSize); err == nil && r.MultipartForm != nil {
		h.ingestMultipart(ctx, w, r)
		return
	}

	var req struct {
		Name      string           `json:"name,omitempty"`
		Texts     []string         `json:"texts"`
		Metadata  map[string]any   `json:"metadata,omitempty"`
		Metadatas []map[string]any `json:"metadatas,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: expected multipart files or JSON with 'texts'")
		return
	}
	if len(req.Texts) == 0 {
		writeError(w, http.StatusBadRequest, "texts is required")
		return
	}

	var opts []dalil.IngestOption
	if len(req.Metadata) > 0 {
		opts = append(opts, dalil.WithMetadata(req.Metadata))
	}
	if len(req.Metadatas) > 0 {
		opts = append(opts, dalil.WithTextMetadatas(req.Metadatas))
	}

	res, err := h.engine.IngestTexts(ctx, req.Name, req.Texts, opts...)
	if err != nil {
		writeEngineError(w, err)
		slog.Error("text ingest error", "error", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) ingestMultipart(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	var files []dalil.File
	for _, headers := range r.MultipartForm.File {
		for _, header := range headers {
			f, err := header.Open()
			if err != nil {
				writeError(w, http.StatusBadRequest, "cannot open uploaded file")
				return
			}
			data, err := io.ReadAll(io.LimitReader(f, h.maxFileSize+1))
			f.Close()
			if err != nil {
				writeError(w, http.StatusInternalServerError, "failed to read upload")
				slog.Error("reading upload", "name", header.Filename, "error", err)
				return
			}
			files = append(files, dalil.File{
				// Base name only, upload names can carry paths.
				Name: filepath.Base(header.Filename),
				MIME: header.Header.Get("Content-Type"),
				Data: data,
			})
		}
	}
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "no files in upload")
		return
	}

	// Form fields beside the files: image_mode and a JSON metadata object.
	var opts []dalil.IngestOption
	if mode := r.FormValue("image_mode"); mode != "" {
		opts = append(opts, dalil.WithImageMode(mode))
	}
	if raw := r.FormValue("metadata"); raw != "" {
		var meta map[string]any
		if err := json.Unmarshal([]byte(raw), &meta); err != nil {
			writeError(w, http.StatusBadRequest, "metadata must be a JSON object")
			return
		}
		opts = append(opts, dalil.WithMetadata(meta))
	}

	results := h.engine.IngestFiles(ctx, files, opts...)

	status := http.StatusOK
	for _, fr := range results {
		if fr.Err != nil {
			status = http.StatusMultiStatus
			break
		}
	}
	writeJSON(w, status, map[string]any{"files": results})
}

// GET /history/{session}
func (h *handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	session := r.PathValue("session")
	n := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		n = parsed
	}

	msgs, err := h.engine.History(r.Context(), session, n)
	if err != nil {
		writeEngineError(w, err)
		slog.Error("history error", "session_id", session, "error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": session,
		"messages":   msgs,
	})
}

// DELETE /history/{session}
func (h *handler) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	session := r.PathValue("session")
	deleted, err := h.engine.ClearHistory(r.Context(), session)
	if err != nil {
		writeEngineError(w, err)
		slog.Error("clear history error", "session_id", session, "error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": session,
		"deleted":    deleted,
	})
}

// GET /collection
func (h *handler) handleCollectionInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.engine.CollectionInfo(r.Context())
	if err != nil {
		writeEngineError(w, err)
		slog.Error("collection info error", "error", err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// DELETE /collection
func (h *handler) handleClearDocuments(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.ClearDocuments(r.Context()); err != nil {
		writeEngineError(w, err)
		slog.Error("clear documents error", "error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// POST /sweep
func (h *handler) handleSweep(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.engine.SweepMemory(r.Context())
	if err != nil {
		writeEngineError(w, err)
		slog.Error("sweep error", "error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": deleted})
}

// GET /health
func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeEngineError maps the error taxonomy to HTTP statuses.
func writeEngineError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, dalil.ErrInvalidInput), errors.Is(err, dalil.ErrUnsupportedFormat),
		errors.Is(err, dalil.ErrInvalidConfig):
		status = http.StatusBadRequest
	case errors.Is(err, dalil.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, dalil.ErrResourceExceeded):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, dalil.ErrBackendUnavailable), errors.Is(err, dalil.ErrEmbeddingFailed),
		errors.Is(err, dalil.ErrGenerationFailed):
		status = http.StatusServiceUnavailable
	}
	writeError(w, status, err.Error())
}
