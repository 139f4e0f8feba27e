package api

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/podscribe/podscribe/internal/audio"
	"github.com/podscribe/podscribe/internal/database"
	"github.com/podscribe/podscribe/internal/transcriber"
)

// TranscriptionsHandler serves the transcription endpoints: audio upload
// into the queue, and listing, fetching, and searching indexed transcripts.
type TranscriptionsHandler struct {
	pool      *transcriber.Pool
	db        *database.DB
	uploadDir string
	log       zerolog.Logger
}

func NewTranscriptionsHandler(pool *transcriber.Pool, db *database.DB, uploadDir string, log zerolog.Logger) *TranscriptionsHandler {
	return &TranscriptionsHandler{
		pool:      pool,
		db:        db,
		uploadDir: uploadDir,
		log:       log.With().Str("handler", "transcriptions").Logger(),
	}
}

// Routes registers the transcription endpoints.
func (h *TranscriptionsHandler) Routes(r chi.Router) {
	r.Post("/transcriptions", h.Upload)
	r.Get("/transcriptions", h.List)
	r.Get("/transcriptions/search", h.Search)
	r.Get("/transcriptions/{id}", h.Get)
	r.Get("/queue", h.Queue)
}

// Upload handles POST /api/v1/transcriptions. The audio file is saved to
// the upload directory and queued; transcription happens asynchronously.
func (h *TranscriptionsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		WriteErrorDetail(w, http.StatusBadRequest, "invalid multipart form", err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if name == "" || name == "." || !audio.Supported(name) {
		WriteError(w, http.StatusBadRequest, "unsupported audio format")
		return
	}

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		h.log.Error().Err(err).Msg("creating upload dir failed")
		WriteError(w, http.StatusInternalServerError, "saving upload failed")
		return
	}

	// Each upload gets a unique file so repeated uploads of the same
	// filename never clobber a file an already-queued job points at.
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	out, err := os.CreateTemp(h.uploadDir, base+"-*"+ext)
	if err != nil {
		h.log.Error().Err(err).Str("name", name).Msg("creating upload file failed")
		WriteError(w, http.StatusInternalServerError, "saving upload failed")
		return
	}
	dest := out.Name()
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		os.Remove(dest)
		WriteError(w, http.StatusInternalServerError, "saving upload failed")
		return
	}
	out.Close()

	if !h.pool.Enqueue(transcriber.Job{AudioPath: dest}) {
		os.Remove(dest)
		WriteError(w, http.StatusServiceUnavailable, "transcription queue is full")
		return
	}

	WriteJSON(w, http.StatusAccepted, map[string]any{
		"status": "queued",
		"file":   name,
		"queue":  h.pool.Stats(),
	})
}

// List handles GET /api/v1/transcriptions.
func (h *TranscriptionsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		WriteError(w, http.StatusServiceUnavailable, "transcript index not configured")
		return
	}

	p, err := ParsePagination(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, err := h.db.ListTranscripts(r.Context(), p.Limit, p.Offset)
	if err != nil {
		h.log.Error().Err(err).Msg("listing transcripts failed")
		WriteError(w, http.StatusInternalServerError, "listing transcripts failed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"transcriptions": rows,
		"limit":          p.Limit,
		"offset":         p.Offset,
	})
}

// Get handles GET /api/v1/transcriptions/{id}, returning the full transcript
// document.
func (h *TranscriptionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		WriteError(w, http.StatusServiceUnavailable, "transcript index not configured")
		return
	}

	id, err := PathInt64(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid transcript id")
		return
	}

	row, err := h.db.GetTranscript(r.Context(), id)
	if errors.Is(err, pgx.ErrNoRows) {
		WriteError(w, http.StatusNotFound, "transcript not found")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Int64("id", id).Msg("fetching transcript failed")
		WriteError(w, http.StatusInternalServerError, "fetching transcript failed")
		return
	}

	WriteJSON(w, http.StatusOK, row)
}

// Search handles GET /api/v1/transcriptions/search?q=.
func (h *TranscriptionsHandler) Search(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		WriteError(w, http.StatusServiceUnavailable, "transcript index not configured")
		return
	}

	q, ok := QueryString(r, "q")
	if !ok {
		WriteError(w, http.StatusBadRequest, "missing q parameter")
		return
	}

	p, err := ParsePagination(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, err := h.db.SearchTranscripts(r.Context(), q, p.Limit)
	if err != nil {
		h.log.Error().Err(err).Msg("transcript search failed")
		WriteError(w, http.StatusInternalServerError, "transcript search failed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"transcriptions": rows,
		"query":          q,
	})
}

// Queue handles GET /api/v1/queue.
func (h *TranscriptionsHandler) Queue(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.pool.Stats())
}
