package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/domainmart/internal/catalog"
	"github.com/alanyoungcy/domainmart/internal/domain"
	"github.com/alanyoungcy/domainmart/internal/service"
)

// CatalogService is what the storefront handlers need from the catalog.
type CatalogService interface {
	Browse(ctx context.Context, f catalog.Filter) (service.BrowseResult, error)
	Facets(ctx context.Context) (catalog.Facets, error)
	Domain(ctx context.Context, slug string) (domain.Domain, error)
	Categories(ctx context.Context) ([]domain.Category, error)
	Tags(ctx context.Context) ([]domain.Tag, error)
}

// CatalogHandler serves the public storefront catalog.
type CatalogHandler struct {
	catalog CatalogService
	logger  *slog.Logger
}

// NewCatalogHandler creates a CatalogHandler.
func NewCatalogHandler(catalog CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, logger: logHandler(logger, "catalog")}
}

// ListDomains returns the filtered, sorted storefront listings.
// GET /api/domains?category=tech&extension=.com&price_min=100&sort=price-low
func (h *CatalogHandler) ListDomains(w http.ResponseWriter, r *http.Request) {
	res, err := h.catalog.Browse(r.Context(), catalog.FilterFromQuery(r.URL.Query()))
	if err != nil {
		writeServiceError(w, r, h.logger, "list domains", err)
		return
	}
	if res.Domains == nil {
		res.Domains = []domain.Domain{}
	}
	writeJSON(w, http.StatusOK, res)
}

// Filters returns the facet values the filter panel offers.
// GET /api/domains/filters
func (h *CatalogHandler) Filters(w http.ResponseWriter, r *http.Request) {
	f, err := h.catalog.Facets(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, "load filters", err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// GetDomain returns one domain.
// GET /api/domains/{slug}
func (h *CatalogHandler) GetDomain(w http.ResponseWriter, r *http.Request) {
	d, err := h.catalog.Domain(r.Context(), pathParam(r, "slug"))
	if err != nil {
		writeServiceError(w, r, h.logger, "get domain", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// ListCategories returns every category.
// GET /api/categories
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cs, err := h.catalog.Categories(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, "list categories", err)
		return
	}
	if cs == nil {
		cs = []domain.Category{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": cs})
}

// ListTags returns every tag.
// GET /api/tags
func (h *CatalogHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	ts, err := h.catalog.Tags(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, "list tags", err)
		return
	}
	if ts == nil {
		ts = []domain.Tag{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tags": ts})
}
