// Package api exposes the game over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/abhisek/dealbreaker/internal/characters"
	"github.com/abhisek/dealbreaker/internal/game"
	"github.com/abhisek/dealbreaker/internal/leaderboard"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 16 << 10

// Handler serves the game API.
type Handler struct {
	game        *game.Service
	characters  characters.Registry
	leaderboard *leaderboard.Recorder
	logger      *slog.Logger
}

// NewHandler creates a Handler. A nil logger uses slog.Default().
func NewHandler(svc *game.Service, chars characters.Registry, board *leaderboard.Recorder, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{game: svc, characters: chars, leaderboard: board, logger: logger}
}

// NewRouter mounts h behind the standard middleware stack.
func NewRouter(h *Handler, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(CORS(allowedOrigins))

	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes registers every API route on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/sessions", h.CreateSession)
		r.Get("/sessions/{id}", h.GetSession)
		r.Post("/sessions/{id}/turns", h.AdvanceTurn)

		r.Get("/characters", h.ListCharacters)
		r.Put("/players/{ownerId}", h.SetDisplayName)

		r.Route("/leaderboard", func(r chi.Router) {
			r.Get("/top", h.Top)
			r.Get("/recent", h.Recent)
			r.Get("/stats", h.Stats)
			r.Get("/standing/{ownerId}", h.Standing)
		})
	})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// writeError maps game errors to status codes. Internal details are logged
// and never sent to the client.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, game.ErrBadRequest):
		Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, game.ErrNotFound):
		Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, game.ErrGone):
		Error(w, http.StatusGone, err.Error())
	case errors.Is(err, game.ErrServiceUnavailable):
		h.logger.Warn("service unavailable", "path", r.URL.Path, "error", err)
		Error(w, http.StatusServiceUnavailable, "service temporarily unavailable")
	default:
		h.logger.Error("request failed",
			"path", r.URL.Path,
			"request_id", chiMiddleware.GetReqID(r.Context()),
			"error", err,
		)
		Error(w, http.StatusInternalServerError, "internal error")
	}
}

// decode reads a JSON body into v, rejecting unknown fields.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
