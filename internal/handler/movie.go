package handler

import (
	"log/slog"
	"net/http"

	"github.com/tobinmarsh/reelnight/internal/auth"
	"github.com/tobinmarsh/reelnight/internal/push"
	"github.com/tobinmarsh/reelnight/internal/watchlist"
	"github.com/tobinmarsh/reelnight/internal/websocket"
)

type MovieHandler struct {
	watchlist *watchlist.Service
	hub       *websocket.Hub
	notifier  *push.Notifier
	logger    *slog.Logger
}

func NewMovieHandler(ws *watchlist.Service, hub *websocket.Hub, notifier *push.Notifier, logger *slog.Logger) *MovieHandler {
	return &MovieHandler{
		watchlist: ws,
		hub:       hub,
		notifier:  notifier,
		logger:    logger.With("component", "movie"),
	}
}

type addMovieRequest struct {
	Title       string `json:"title"`
	ContentType string `json:"content_type,omitempty"`
}

// Add puts a title on the active household's watch-list.
func (h *MovieHandler) Add(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	var req addMovieRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	movie, err := h.watchlist.Add(r.Context(), id.HouseholdID, req.Title, req.ContentType, id.AccountID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.hub.Broadcast(id.HouseholdID, websocket.NewEvent("movie", "added", movie.ID, map[string]any{"title": movie.Title}))
	writeJSON(w, http.StatusCreated, movie)
}

// List returns the watch-list, optionally filtered by ?status=.
func (h *MovieHandler) List(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	movies, err := h.watchlist.List(id.HouseholdID, r.URL.Query().Get("status"), id.AccountID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, movies)
}

type setStatusRequest struct {
	Status string `json:"status"`
}

// SetStatus moves a movie between unwatched, watching, and watched.
func (h *MovieHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	movieID, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid movie id")
		return
	}

	var req setStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	movie, err := h.watchlist.SetStatus(movieID, req.Status, id.AccountID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.hub.Broadcast(movie.HouseholdID, websocket.NewEvent("movie", "updated", movie.ID, map[string]any{"status": movie.Status}))
	writeJSON(w, http.StatusOK, movie)
}

// Delete removes a movie from the watch-list.
func (h *MovieHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	movieID, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid movie id")
		return
	}

	movie, err := h.watchlist.Remove(movieID, id.AccountID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	// The movie's own household hears about the deletion, which may differ
	// from the session's active household.
	h.hub.Broadcast(movie.HouseholdID, websocket.NewEvent("movie", "deleted", movieID, nil))
	w.WriteHeader(http.StatusNoContent)
}

// Pick draws tonight's movie at random from the unwatched titles and tells
// the rest of the household.
func (h *MovieHandler) Pick(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	movie, err := h.watchlist.Pick(id.HouseholdID, id.AccountID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.hub.Broadcast(id.HouseholdID, websocket.NewEvent("movie", "picked", movie.ID, map[string]any{"title": movie.Title}))
	h.notifier.MovieNightPick(id.HouseholdID, id.AccountID, movie.Title)
	writeJSON(w, http.StatusOK, movie)
}
