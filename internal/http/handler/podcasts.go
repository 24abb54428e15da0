package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"podsum/internal/auth"
	"podsum/internal/pipeline"
	"podsum/internal/podcast"
	"podsum/internal/resolver"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// advanceTimeout bounds one fire-and-forget engine kick; summarization is the
// slowest step it can chain into.
const advanceTimeout = 5 * time.Minute

type PodcastHandler struct {
	Store  podcast.Store
	Engine *pipeline.Engine

	// Kick, when set, replaces the default fire-and-forget advance
	// (tests record kicks instead of running the engine).
	Kick func(id string)
}

// kickAdvance runs one engine advance detached from the request. The request
// never waits on pipeline work; clients observe progress by polling.
func (h *PodcastHandler) kickAdvance(id string) {
	if h.Kick != nil {
		h.Kick(id)
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), advanceTimeout)
		defer cancel()
		_ = h.Engine.Advance(ctx, id)
	}()
}

type podcastSummaryDTO struct {
	ID          string    `json:"id"`
	OriginalURL string    `json:"original_url"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CoverURL    string    `json:"cover_url"`
	AudioURL    string    `json:"audio_url"`
	Summary     string    `json:"summary"`
	Duration    int       `json:"duration"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func summaryDTO(p podcast.Podcast) podcastSummaryDTO {
	return podcastSummaryDTO{
		ID:          p.ID,
		OriginalURL: p.OriginalURL,
		Title:       p.Title,
		Description: p.Description,
		CoverURL:    p.CoverURL,
		AudioURL:    p.AudioURL,
		Summary:     p.Summary,
		Duration:    p.Duration,
		Status:      string(p.Status),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (h *PodcastHandler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.IdentityFromContext(r.Context())

	rows, err := h.Store.ListByUser(r.Context(), user.UserID)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	out := make([]podcastSummaryDTO, 0, len(rows))
	for _, p := range rows {
		out = append(out, summaryDTO(p))
	}

	writeJSON(w, http.StatusOK, map[string]any{"podcasts": out})
}

type submitReq struct {
	URL string `json:"url"`
}

func (h *PodcastHandler) Submit(w http.ResponseWriter, r *http.Request) {
	user := auth.IdentityFromContext(r.Context())

	var req submitReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		http.Error(w, "url is required", http.StatusBadRequest)
		return
	}
	if !strings.Contains(req.URL, "xiaoyuzhoufm.com/episode/") {
		http.Error(w, "please provide a valid episode link", http.StatusBadRequest)
		return
	}
	if _, err := resolver.ExtractEpisodeID(req.URL); err != nil {
		http.Error(w, "please provide a valid episode link", http.StatusBadRequest)
		return
	}

	p := &podcast.Podcast{
		ID:             uuid.NewString(),
		UserID:         user.UserID,
		OriginalURL:    req.URL,
		Status:         podcast.StatusPending,
		ProcessingStep: podcast.StepInit,
	}
	if err := h.Store.Create(r.Context(), p); err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	h.kickAdvance(p.ID)

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":     p.ID,
		"status": string(podcast.StatusPending),
	})
}

func (h *PodcastHandler) Status(w http.ResponseWriter, r *http.Request) {
	user := auth.IdentityFromContext(r.Context())
	id := chi.URLParam(r, "id")

	p, err := h.Store.GetForUser(r.Context(), id, user.UserID)
	if err != nil {
		if errors.Is(err, podcast.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	status := pipeline.Project(p.Status, p.Logs)

	// A poll on a re-driveable job doubles as the pipeline's clock.
	if pipeline.Pollable(p.Status) {
		h.kickAdvance(p.ID)
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": status})
}

func (h *PodcastHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := auth.IdentityFromContext(r.Context())
	id := chi.URLParam(r, "id")

	p, err := h.Store.GetForUser(r.Context(), id, user.UserID)
	if err != nil {
		if errors.Is(err, podcast.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	dto := summaryDTO(*p)
	writeJSON(w, http.StatusOK, map[string]any{
		"podcast":    dto,
		"transcript": p.Transcript,
	})
}

func (h *PodcastHandler) Reprocess(w http.ResponseWriter, r *http.Request) {
	user := auth.IdentityFromContext(r.Context())
	id := chi.URLParam(r, "id")

	// Ownership check before touching engine state.
	if _, err := h.Store.GetForUser(r.Context(), id, user.UserID); err != nil {
		if errors.Is(err, podcast.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	if err := h.Engine.Reprocess(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, pipeline.ErrNotFound):
			http.Error(w, "not found", http.StatusNotFound)
		case errors.Is(err, pipeline.ErrNotFailed):
			http.Error(w, "only failed podcasts can be reprocessed", http.StatusBadRequest)
		default:
			http.Error(w, "server error", http.StatusInternalServerError)
		}
		return
	}

	h.kickAdvance(id)

	writeJSON(w, http.StatusOK, map[string]any{"status": string(podcast.StatusPending)})
}

func (h *PodcastHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := auth.IdentityFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.Store.Delete(r.Context(), id, user.UserID); err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
