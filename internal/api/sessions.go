package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type createSessionRequest struct {
	OwnerID     string `json:"ownerId"`
	DisplayName string `json:"displayName"`
}

type turnRequest struct {
	Message *string `json:"message"`
}

// CreateSession starts a new game for the owner.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decode(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.game.CreateSession(r.Context(), req.OwnerID, req.DisplayName)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	JSON(w, http.StatusCreated, created)
}

// AdvanceTurn plays one turn. A null or missing message, or an empty body,
// requests the current character's opening line.
func (h *Handler) AdvanceTurn(w http.ResponseWriter, r *http.Request) {
	var req turnRequest
	if err := decode(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		Error(w, http.StatusBadRequest, "message must be a string or null")
		return
	}

	res, err := h.game.AdvanceTurn(r.Context(), chi.URLParam(r, "id"), req.Message)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, res)
}

// GetSession returns the session state and transcript.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	st, err := h.game.State(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, st)
}

// ListCharacters returns the catalog without character instructions.
func (h *Handler) ListCharacters(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]any{
		"characters": h.characters.ListAll(),
	})
}
