package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/savelyeva/docextract/internal/extractor"
	"github.com/savelyeva/docextract/internal/store"
	"github.com/savelyeva/docextract/internal/task"
)

// maxUploadBytes caps a single submitted document.
const maxUploadBytes = 20 << 20

type Handler struct {
	store *store.Store
	log   *slog.Logger
}

func NewHandler(s *store.Store, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{store: s, log: log}
}

type SubmitResponse struct {
	TaskID    string `json:"task_id"`
	StatusURL string `json:"status_url"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// SubmitInvoice accepts a multipart upload, validates it and creates the
// PENDING record. Unsupported media types and empty payloads are rejected
// before any record exists.
func (h *Handler) SubmitInvoice(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "expected multipart form with a 'file' field")
		return
	}
	defer file.Close()

	mediaType := header.Header.Get("Content-Type")
	if mt, _, err := mime.ParseMediaType(mediaType); err == nil {
		mediaType = mt
	}
	if !extractor.Supported(mediaType) {
		h.log.Warn("unsupported media type submitted", "media_type", mediaType, "filename", header.Filename)
		respondError(w, http.StatusUnsupportedMediaType, "unsupported file type: "+mediaType+", please upload PDF or plain text")
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read uploaded file")
		return
	}
	if len(content) == 0 {
		respondError(w, http.StatusBadRequest, "received an empty file")
		return
	}

	rec := task.New(uuid.New().String(), header.Filename, mediaType, content)
	if err := h.store.Put(r.Context(), rec); err != nil {
		h.log.Error("failed to store task", "error", err)
		respondError(w, http.StatusServiceUnavailable, "task store unavailable")
		return
	}

	h.log.Info("task created", "task_id", rec.ID, "filename", rec.SourceFilename, "media_type", rec.MediaType)

	respondJSON(w, http.StatusAccepted, SubmitResponse{
		TaskID:    rec.ID,
		StatusURL: "/tasks/" + rec.ID,
	})
}

// GetTask returns the external projection of a record: status, result and
// error only. Raw content and media type never leave the service.
func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := h.store.Get(r.Context(), id)
	if err != nil {
		h.log.Error("failed to read task", "task_id", id, "error", err)
		respondError(w, http.StatusServiceUnavailable, "task store unavailable")
		return
	}
	if rec == nil {
		respondError(w, http.StatusNotFound, "task not found")
		return
	}

	respondJSON(w, http.StatusOK, rec.Project())
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "task store unavailable")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}
