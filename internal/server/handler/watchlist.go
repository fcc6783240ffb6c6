package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alanyoungcy/domainmart/internal/domain"
)

// WatchlistService manages a user's watched domains.
type WatchlistService interface {
	List(ctx context.Context, userID string) ([]domain.WatchlistItem, error)
	Add(ctx context.Context, userID, domainID string) error
	Remove(ctx context.Context, userID, domainID string) error
}

// WatchlistHandler serves the caller's watchlist.
type WatchlistHandler struct {
	watchlist WatchlistService
	logger    *slog.Logger
}

// NewWatchlistHandler creates a WatchlistHandler.
func NewWatchlistHandler(watchlist WatchlistService, logger *slog.Logger) *WatchlistHandler {
	return &WatchlistHandler{watchlist: watchlist, logger: logHandler(logger, "watchlist")}
}

// List returns the watched domains.
// GET /api/me/watchlist
func (h *WatchlistHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.watchlist.List(r.Context(), caller(r).Subject)
	if err != nil {
		writeServiceError(w, r, h.logger, "list watchlist", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// Add watches a domain.
// POST /api/me/watchlist
func (h *WatchlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req buyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.logger, "watch domain", err)
		return
	}
	id := strings.TrimSpace(req.DomainID)
	if id == "" {
		writeError(w, http.StatusBadRequest, "domain_id is required")
		return
	}
	if err := h.watchlist.Add(r.Context(), caller(r).Subject, id); err != nil {
		writeServiceError(w, r, h.logger, "watch domain", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"domain_id": id})
}

// Remove stops watching a domain.
// DELETE /api/me/watchlist/{domainID}
func (h *WatchlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	if err := h.watchlist.Remove(r.Context(), caller(r).Subject, pathParam(r, "domainID")); err != nil {
		writeServiceError(w, r, h.logger, "unwatch domain", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
