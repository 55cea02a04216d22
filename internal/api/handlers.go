package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"docrag/internal/domain"
	"docrag/internal/extract"
	"docrag/internal/service"
)

// Handler holds the dependencies for HTTP handlers.
type Handler struct {
	svc       *service.Service
	uploadDir string
	maxUpload int64
	logger    *slog.Logger
}

// NewHandler creates a Handler. Uploaded files are kept in uploadDir;
// bodies larger than maxUpload bytes are rejected.
func NewHandler(svc *service.Service, uploadDir string, maxUpload int64, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, uploadDir: uploadDir, maxUpload: maxUpload, logger: logger}
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type questionRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
}

type contextResponse struct {
	DocumentID int64           `json:"document_id"`
	Status     service.Status  `json:"status"`
	Context    []string        `json:"context"`
	Matches    []service.Match `json:"matches,omitempty"`
}

type documentSummary struct {
	ID         int64  `json:"id"`
	Filename   string `json:"filename"`
	UploadedAt string `json:"uploaded_at"`
	Chars      int    `json:"chars"`
}

// HandleHealth handles GET /health.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleStats handles GET /stats.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, h.svc.Stats())
}

// HandleUpload handles POST /documents with a multipart "file" field.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	file, header, err := r.FormFile("file")
	if err != nil {
		status := http.StatusBadRequest
		if statusFor(err) == http.StatusRequestEntityTooLarge {
			status = http.StatusRequestEntityTooLarge
		}
		h.sendError(w, r, status, fmt.Errorf("read multipart field \"file\": %w", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.sendError(w, r, http.StatusBadRequest, err)
		return
	}
	name := filepath.Base(header.Filename)
	text, err := extract.FromBytes(name, data)
	if err != nil {
		h.sendError(w, r, statusFor(err), err)
		return
	}

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		h.sendError(w, r, http.StatusInternalServerError, err)
		return
	}
	path := filepath.Join(h.uploadDir, uuid.NewString()+"-"+name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		h.sendError(w, r, http.StatusInternalServerError, err)
		return
	}

	res, err := h.svc.Ingest(r.Context(), service.Upload{Filename: name, Path: path, Text: text})
	if err != nil {
		if rerr := os.Remove(path); rerr != nil {
			h.logger.Warn("remove upload", "path", path, "error", rerr)
		}
		h.sendError(w, r, statusFor(err), err)
		return
	}
	sendJSON(w, http.StatusCreated, res)
}

// HandleListDocuments handles GET /documents.
func (h *Handler) HandleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.svc.Documents(r.Context())
	if err != nil {
		h.sendError(w, r, statusFor(err), err)
		return
	}
	out := make([]documentSummary, len(docs))
	for i, d := range docs {
		out[i] = documentSummary{
			ID:         d.ID,
			Filename:   d.Filename,
			UploadedAt: d.UploadedAt.Format(time.RFC3339),
			Chars:      len([]rune(d.Text)),
		}
	}
	sendJSON(w, http.StatusOK, out)
}

// HandleGetDocument handles GET /documents/{id}.
func (h *Handler) HandleGetDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := h.documentID(w, r)
	if !ok {
		return
	}
	doc, err := h.svc.Document(r.Context(), id)
	if err != nil {
		h.sendError(w, r, statusFor(err), err)
		return
	}
	sendJSON(w, http.StatusOK, doc)
}

// HandleContext handles POST /documents/{id}/context.
func (h *Handler) HandleContext(w http.ResponseWriter, r *http.Request) {
	id, ok := h.documentID(w, r)
	if !ok {
		return
	}
	req, ok := h.decodeQuestion(w, r)
	if !ok {
		return
	}
	res, err := h.svc.Resolve(r.Context(), req.Question, id, req.TopK)
	if err != nil {
		h.sendError(w, r, statusFor(err), err)
		return
	}
	sendJSON(w, http.StatusOK, contextResponse{
		DocumentID: id,
		Status:     res.Status,
		Context:    res.Context(),
		Matches:    res.Matches,
	})
}

// HandleAnswer handles POST /documents/{id}/answer.
func (h *Handler) HandleAnswer(w http.ResponseWriter, r *http.Request) {
	id, ok := h.documentID(w, r)
	if !ok {
		return
	}
	req, ok := h.decodeQuestion(w, r)
	if !ok {
		return
	}
	q, err := h.svc.Ask(r.Context(), id, req.Question, req.TopK)
	if err != nil {
		h.sendError(w, r, statusFor(err), err)
		return
	}
	sendJSON(w, http.StatusOK, q)
}

// HandleQuestions handles GET /questions, optionally filtered by
// ?document_id=.
func (h *Handler) HandleQuestions(w http.ResponseWriter, r *http.Request) {
	var id int64
	if v := r.URL.Query().Get("document_id"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			h.sendError(w, r, http.StatusBadRequest, fmt.Errorf("invalid document_id %q", v))
			return
		}
		id = n
	}
	qs, err := h.svc.Questions(r.Context(), id)
	if err != nil {
		h.sendError(w, r, statusFor(err), err)
		return
	}
	if qs == nil {
		qs = []domain.Question{}
	}
	sendJSON(w, http.StatusOK, qs)
}

// HandleReindex handles POST /reindex.
func (h *Handler) HandleReindex(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.RebuildAll(r.Context())
	if err != nil {
		h.sendError(w, r, statusFor(err), err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]int{"chunks": n})
}

func (h *Handler) documentID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		h.sendError(w, r, http.StatusBadRequest, fmt.Errorf("invalid document id %q", mux.Vars(r)["id"]))
		return 0, false
	}
	return id, true
}

func (h *Handler) decodeQuestion(w http.ResponseWriter, r *http.Request) (questionRequest, bool) {
	var req questionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, r, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return req, false
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		h.sendError(w, r, http.StatusBadRequest, errors.New("question is required"))
		return req, false
	}
	if req.TopK < 0 {
		h.sendError(w, r, http.StatusBadRequest, errors.New("top_k must not be negative"))
		return req, false
	}
	return req, true
}

func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, extract.ErrUnsupported):
		return http.StatusUnsupportedMediaType
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrEmbedding):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) sendError(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "path", r.URL.Path, "request_id", RequestID(r.Context()), "error", err)
	}
	sendJSON(w, status, errorResponse{Error: err.Error(), RequestID: RequestID(r.Context())})
}

func sendJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
