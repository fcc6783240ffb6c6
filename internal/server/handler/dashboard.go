package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/domainmart/internal/domain"
)

// StatsService builds the dashboard summary.
type StatsService interface {
	Stats(ctx context.Context) (domain.Stats, error)
}

// AuditReader lists audit log entries.
type AuditReader interface {
	List(ctx context.Context, opts domain.ListOpts) ([]domain.AuditEntry, error)
}

// DashboardHandler serves the back-office summary and audit log.
type DashboardHandler struct {
	stats  StatsService
	audit  AuditReader
	logger *slog.Logger
}

// NewDashboardHandler creates a DashboardHandler.
func NewDashboardHandler(stats StatsService, audit AuditReader, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{stats: stats, audit: audit, logger: logHandler(logger, "dashboard")}
}

// Stats returns the dashboard counters.
// GET /api/admin/stats
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.stats.Stats(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, "load stats", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Audit lists audit entries, newest first. event and actor narrow the list;
// since and until take RFC 3339 timestamps.
// GET /api/admin/audit?event=order.status&actor=...&since=...
func (h *DashboardHandler) Audit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := parseListOpts(r)
	opts.Status = q.Get("event")
	opts.Search = q.Get("actor")
	for key, dst := range map[string]**time.Time{"since": &opts.Since, "until": &opts.Until} {
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, key+" must be an RFC 3339 timestamp")
			return
		}
		*dst = &t
	}

	entries, err := h.audit.List(r.Context(), opts)
	if err != nil {
		writeServiceError(w, r, h.logger, "list audit", err)
		return
	}
	if entries == nil {
		entries = []domain.AuditEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
