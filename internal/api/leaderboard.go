package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/abhisek/dealbreaker/internal/game"
	"github.com/abhisek/dealbreaker/internal/leaderboard"
)

type displayNameRequest struct {
	DisplayName string `json:"displayName"`
}

// SetDisplayName stores the name shown on the owner's future entries.
func (h *Handler) SetDisplayName(w http.ResponseWriter, r *http.Request) {
	ownerID := strings.TrimSpace(chi.URLParam(r, "ownerId"))
	if ownerID == "" {
		Error(w, http.StatusBadRequest, "owner id is required")
		return
	}

	var req displayNameRequest
	if err := decode(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.leaderboard.SetDisplayName(r.Context(), ownerID, req.DisplayName); err != nil {
		if errors.Is(err, leaderboard.ErrInvalidName) {
			Error(w, http.StatusBadRequest, err.Error())
			return
		}
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Top returns the best scores.
func (h *Handler) Top(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	entries, err := h.leaderboard.Top(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, errors.Join(game.ErrServiceUnavailable, err))
		return
	}
	JSON(w, http.StatusOK, map[string]any{"entries": nonNil(entries)})
}

// Recent returns the newest entries.
func (h *Handler) Recent(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	entries, err := h.leaderboard.Recent(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, errors.Join(game.ErrServiceUnavailable, err))
		return
	}
	JSON(w, http.StatusOK, map[string]any{"entries": nonNil(entries)})
}

// Stats returns aggregate game and model usage numbers.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.leaderboard.Stats(r.Context())
	if err != nil {
		h.writeError(w, r, errors.Join(game.ErrServiceUnavailable, err))
		return
	}
	JSON(w, http.StatusOK, st)
}

// Standing returns the owner's latest entry and rank.
func (h *Handler) Standing(w http.ResponseWriter, r *http.Request) {
	st, err := h.leaderboard.Standing(r.Context(), chi.URLParam(r, "ownerId"))
	if err != nil {
		h.writeError(w, r, errors.Join(game.ErrServiceUnavailable, err))
		return
	}
	JSON(w, http.StatusOK, st)
}

func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		Error(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return 0, false
	}
	return n, true
}

func nonNil(entries []leaderboard.Entry) []leaderboard.Entry {
	if entries == nil {
		return []leaderboard.Entry{}
	}
	return entries
}
