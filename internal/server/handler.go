// Package server exposes gloss conversion, video synthesis and dictionary administration over JSON HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/at-ishikawa/glossa/internal/compose"
	"github.com/at-ishikawa/glossa/internal/dictionary"
	"github.com/at-ishikawa/glossa/internal/gloss"
	"github.com/at-ishikawa/glossa/internal/sign"
	"github.com/at-ishikawa/glossa/internal/synthesis"
)

const maxRequestBodyBytes = 1 << 20

type GlossConverter interface {
	Convert(ctx context.Context, text string) (string, error)
	MaxWords() int
}

type Synthesizer interface {
	Synthesize(ctx context.Context, gloss, sentence string) (compose.Artifact, error)
}

// RequestObserver records one finished request under its route pattern.
type RequestObserver interface {
	ObserveHTTPRequest(route string, code int)
}

type Handler struct {
	converter      GlossConverter
	synthesizer    Synthesizer
	repository     dictionary.Repository
	videoPath      string
	metrics        http.Handler
	observer       RequestObserver
	allowedOrigins []string
}

type Option func(*Handler)

// WithMetrics serves handler on /metrics and reports every request to observer.
func WithMetrics(handler http.Handler, observer RequestObserver) Option {
	return func(h *Handler) {
		h.metrics = handler
		h.observer = observer
	}
}

func WithAllowedOrigins(origins []string) Option {
	return func(h *Handler) {
		h.allowedOrigins = origins
	}
}

func NewHandler(converter GlossConverter, synthesizer Synthesizer, repository dictionary.Repository, videoPath string, opts ...Option) *Handler {
	h := &Handler{
		converter:   converter,
		synthesizer: synthesizer,
		repository:  repository,
		videoPath:   videoPath,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns the full handler chain: CORS, request logging, then the route mux.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/convert-to-gloss", h.convertToGloss)
	mux.HandleFunc("POST /api/prepare-video", h.prepareVideo)
	mux.HandleFunc("GET /api/words", h.listWords)
	mux.HandleFunc("POST /api/admin/words", h.replaceWord)
	mux.HandleFunc("GET /video", h.serveVideo)
	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics)
	}
	return corsMiddleware(h.allowedOrigins, requestLogMiddleware(h.observer, mux))
}

type ConvertToGlossRequest struct {
	EnglishText string `json:"english_text"`
}

type ConvertToGlossResponse struct {
	Gloss string `json:"gloss"`
}

func (h *Handler) convertToGloss(w http.ResponseWriter, r *http.Request) {
	var req ConvertToGlossRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.converter.Convert(r.Context(), req.EnglishText)
	switch {
	case errors.Is(err, gloss.ErrEmptyText):
		writeError(w, http.StatusBadRequest, "no English text provided")
		return
	case errors.Is(err, gloss.ErrTooManyWords):
		writeError(w, http.StatusBadRequest, fmt.Sprintf("input too long, limit it to %d words", h.converter.MaxWords()))
		return
	case err != nil:
		logger(r.Context()).Error("failed to convert text to gloss", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to convert text to gloss")
		return
	}
	writeJSON(w, http.StatusOK, ConvertToGlossResponse{Gloss: result})
}

type PrepareVideoRequest struct {
	Gloss   string `json:"gloss"`
	Context string `json:"context"`
}

type SegmentResponse struct {
	Token string     `json:"token"`
	Route sign.Route `json:"route"`
}

type PrepareVideoResponse struct {
	VideoReady bool              `json:"video_ready"`
	Segments   []SegmentResponse `json:"segments"`
	Error      string            `json:"error,omitempty"`
}

func (h *Handler) prepareVideo(w http.ResponseWriter, r *http.Request) {
	var req PrepareVideoRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	artifact, err := h.synthesizer.Synthesize(r.Context(), req.Gloss, req.Context)
	switch {
	case errors.Is(err, synthesis.ErrEmptyGloss):
		writeJSON(w, http.StatusBadRequest, PrepareVideoResponse{
			Segments: []SegmentResponse{},
			Error:    "no gloss provided",
		})
		return
	case errors.Is(err, synthesis.ErrInvalidInput):
		logger(r.Context()).Info("nothing to render", "gloss", req.Gloss, "error", err)
		writeJSON(w, http.StatusBadRequest, PrepareVideoResponse{
			Segments: []SegmentResponse{},
			Error:    "no signs could be resolved for the gloss",
		})
		return
	case err != nil:
		logger(r.Context()).Error("failed to prepare video", "gloss", req.Gloss, "error", err)
		writeJSON(w, http.StatusInternalServerError, PrepareVideoResponse{
			Segments: []SegmentResponse{},
			Error:    "failed to prepare video",
		})
		return
	}

	segments := make([]SegmentResponse, len(artifact.Segments))
	for i, s := range artifact.Segments {
		segments[i] = SegmentResponse{Token: s.Token, Route: s.Route}
	}
	writeJSON(w, http.StatusOK, PrepareVideoResponse{VideoReady: true, Segments: segments})
}

type ListWordsResponse struct {
	Words []string `json:"words"`
}

func (h *Handler) listWords(w http.ResponseWriter, r *http.Request) {
	entries, err := h.repository.FindAll(r.Context())
	if err != nil {
		logger(r.Context()).Error("failed to list words", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list words")
		return
	}
	writeJSON(w, http.StatusOK, ListWordsResponse{Words: dictionary.SurfaceForms(entries)})
}

// ReplaceWordRequest mirrors dictionary.WordEntry; a word containing commas names several surface forms.
type ReplaceWordRequest struct {
	Words       []string                     `json:"words"`
	Definitions []dictionary.SenseDefinition `json:"definitions"`
}

func (h *Handler) replaceWord(w http.ResponseWriter, r *http.Request) {
	var req ReplaceWordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var forms []string
	for _, word := range req.Words {
		forms = append(forms, strings.Split(word, ",")...)
	}
	entry, err := dictionary.WordEntry{Words: forms, Definitions: req.Definitions}.Normalized()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.repository.Replace(r.Context(), entry); err != nil {
		logger(r.Context()).Error("failed to replace word entry", "words", entry.Words, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save word entry")
		return
	}
	logger(r.Context()).Info("word entry replaced", "words", entry.Words, "senses", len(entry.Definitions))
	writeJSON(w, http.StatusOK, entry)
}

func (h *Handler) serveVideo(w http.ResponseWriter, r *http.Request) {
	info, err := os.Stat(h.videoPath)
	if err != nil || info.IsDir() {
		writeError(w, http.StatusNotFound, "no video has been prepared")
		return
	}
	// the artifact is overwritten on every synthesis
	w.Header().Set("Cache-Control", "no-store")
	http.ServeFile(w, r, h.videoPath)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return false
	}
	return true
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Default().Warn("failed to write response", "error", err)
	}
}
