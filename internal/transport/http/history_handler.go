package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"quiz-client/internal/app"
	"quiz-client/internal/domain"
)

// HistoryHandler serves the signed-in player's journaled attempts.
type HistoryHandler struct {
	service *app.AttemptService
	logger  *slog.Logger
}

func NewHistoryHandler(service *app.AttemptService, logger *slog.Logger) *HistoryHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryHandler{service: service, logger: logger.With("component", "history")}
}

func (h *HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeJSON(w, http.StatusMethodNotAllowed, errorPayload{Message: "method not allowed"})
		return
	}

	entries, err := h.service.History(r.Context())
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		writeJSON(w, http.StatusUnauthorized, errorPayload{Message: domain.MsgLoginRequired})
		return
	case err != nil:
		h.logger.Error("list history failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorPayload{Message: "failed to load history"})
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// Healthz answers liveness checks.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
