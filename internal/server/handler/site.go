package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/domainmart/internal/domain"
	"github.com/alanyoungcy/domainmart/internal/service"
)

// SEOService serves and manages per-page metadata.
type SEOService interface {
	Page(ctx context.Context, page string) (domain.SEOMeta, error)
	List(ctx context.Context) ([]domain.SEOMeta, error)
	Upsert(ctx context.Context, actor string, m domain.SEOMeta) (domain.SEOMeta, error)
	Delete(ctx context.Context, actor, page string) error
}

// SettingsService manages site settings.
type SettingsService interface {
	List(ctx context.Context) ([]domain.Setting, error)
	Upsert(ctx context.Context, actor, key string, in service.SettingInput) (domain.Setting, error)
	Delete(ctx context.Context, actor, key string) error
}

// SiteHandler serves SEO metadata and site settings.
type SiteHandler struct {
	seo      SEOService
	settings SettingsService
	logger   *slog.Logger
}

// NewSiteHandler creates a SiteHandler.
func NewSiteHandler(seo SEOService, settings SettingsService, logger *slog.Logger) *SiteHandler {
	return &SiteHandler{seo: seo, settings: settings, logger: logHandler(logger, "site")}
}

// SEOPage returns the metadata for one storefront page.
// GET /api/seo/{page}
func (h *SiteHandler) SEOPage(w http.ResponseWriter, r *http.Request) {
	m, err := h.seo.Page(r.Context(), pathParam(r, "page"))
	if err != nil {
		writeServiceError(w, r, h.logger, "get seo", err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// ListSEO returns every stored page.
// GET /api/admin/seo
func (h *SiteHandler) ListSEO(w http.ResponseWriter, r *http.Request) {
	ms, err := h.seo.List(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, "list seo", err)
		return
	}
	if ms == nil {
		ms = []domain.SEOMeta{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"pages": ms})
}

// UpsertSEO stores a page's metadata.
// PUT /api/admin/seo/{page}
func (h *SiteHandler) UpsertSEO(w http.ResponseWriter, r *http.Request) {
	var m domain.SEOMeta
	if err := decodeJSON(w, r, &m); err != nil {
		writeServiceError(w, r, h.logger, "upsert seo", err)
		return
	}
	m.Page = pathParam(r, "page")
	out, err := h.seo.Upsert(r.Context(), caller(r).Subject, m)
	if err != nil {
		writeServiceError(w, r, h.logger, "upsert seo", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// DeleteSEO removes a page's metadata.
// DELETE /api/admin/seo/{page}
func (h *SiteHandler) DeleteSEO(w http.ResponseWriter, r *http.Request) {
	if err := h.seo.Delete(r.Context(), caller(r).Subject, pathParam(r, "page")); err != nil {
		writeServiceError(w, r, h.logger, "delete seo", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListSettings returns every setting with secrets masked.
// GET /api/admin/settings
func (h *SiteHandler) ListSettings(w http.ResponseWriter, r *http.Request) {
	ss, err := h.settings.List(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, "list settings", err)
		return
	}
	if ss == nil {
		ss = []domain.Setting{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"settings": ss})
}

// UpsertSetting stores a setting.
// PUT /api/admin/settings/{key}
func (h *SiteHandler) UpsertSetting(w http.ResponseWriter, r *http.Request) {
	var in service.SettingInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeServiceError(w, r, h.logger, "upsert setting", err)
		return
	}
	s, err := h.settings.Upsert(r.Context(), caller(r).Subject, pathParam(r, "key"), in)
	if err != nil {
		writeServiceError(w, r, h.logger, "upsert setting", err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// DeleteSetting removes a setting.
// DELETE /api/admin/settings/{key}
func (h *SiteHandler) DeleteSetting(w http.ResponseWriter, r *http.Request) {
	if err := h.settings.Delete(r.Context(), caller(r).Subject, pathParam(r, "key")); err != nil {
		writeServiceError(w, r, h.logger, "delete setting", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
