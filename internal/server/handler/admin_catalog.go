package handler

import (
	"context"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	s3blob "github.com/alanyoungcy/domainmart/internal/blob/s3"
	"github.com/alanyoungcy/domainmart/internal/catalog"
	"github.com/alanyoungcy/domainmart/internal/domain"
	"github.com/alanyoungcy/domainmart/internal/service"
)

// maxImportBytes caps CSV uploads posted directly to the import endpoint.
const maxImportBytes = 32 << 20

// CatalogAdmin is the back-office side of the catalog service.
type CatalogAdmin interface {
	AdminList(ctx context.Context, f catalog.Filter, opts domain.ListOpts) (service.Page[domain.Domain], error)
	CreateDomain(ctx context.Context, actor string, in service.DomainInput) (domain.Domain, error)
	UpdateDomain(ctx context.Context, actor, id string, in service.DomainInput) (domain.Domain, error)
	SetDomainStatus(ctx context.Context, actor, id string, status domain.DomainStatus) (domain.Domain, error)
	DeleteDomain(ctx context.Context, actor, id string) error

	CreateCategory(ctx context.Context, actor string, in service.CategoryInput) (domain.Category, error)
	UpdateCategory(ctx context.Context, actor, id string, in service.CategoryInput) (domain.Category, error)
	DeleteCategory(ctx context.Context, actor, id string) error
	CreateTag(ctx context.Context, actor, name string) (domain.Tag, error)
	UpdateTag(ctx context.Context, actor, id, name string) (domain.Tag, error)
	DeleteTag(ctx context.Context, actor, id string) error
}

// TransferService imports and exports the catalog as CSV.
type TransferService interface {
	Import(ctx context.Context, actor string, r io.Reader) (domain.ImportResult, error)
	ImportBlob(ctx context.Context, actor, path string) (domain.ImportResult, error)
	Export(ctx context.Context, actor string) (s3blob.ExportResult, error)
}

// AdminCatalogHandler serves domain, category and tag management.
type AdminCatalogHandler struct {
	catalog  CatalogAdmin
	transfer TransferService
	logger   *slog.Logger
}

// NewAdminCatalogHandler creates an AdminCatalogHandler.
func NewAdminCatalogHandler(catalog CatalogAdmin, transfer TransferService, logger *slog.Logger) *AdminCatalogHandler {
	return &AdminCatalogHandler{catalog: catalog, transfer: transfer, logger: logHandler(logger, "admin_catalog")}
}

// ListDomains pages through every domain. The storefront filter parameters
// apply here too, plus status/q/limit/offset.
// GET /api/admin/domains
func (h *AdminCatalogHandler) ListDomains(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := parseListOpts(r)
	f := catalog.FilterFromQuery(q)
	f.Statuses = nil // status goes through opts

	page, err := h.catalog.AdminList(r.Context(), f, opts)
	if err != nil {
		writeServiceError(w, r, h.logger, "list domains", err)
		return
	}
	if page.Items == nil {
		page.Items = []domain.Domain{}
	}
	writeJSON(w, http.StatusOK, page)
}

// CreateDomain lists a new domain.
// POST /api/admin/domains
func (h *AdminCatalogHandler) CreateDomain(w http.ResponseWriter, r *http.Request) {
	var in service.DomainInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeServiceError(w, r, h.logger, "create domain", err)
		return
	}
	d, err := h.catalog.CreateDomain(r.Context(), caller(r).Subject, in)
	if err != nil {
		writeServiceError(w, r, h.logger, "create domain", err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

// UpdateDomain replaces a domain's editable fields.
// PUT /api/admin/domains/{id}
func (h *AdminCatalogHandler) UpdateDomain(w http.ResponseWriter, r *http.Request) {
	var in service.DomainInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeServiceError(w, r, h.logger, "update domain", err)
		return
	}
	d, err := h.catalog.UpdateDomain(r.Context(), caller(r).Subject, pathParam(r, "id"), in)
	if err != nil {
		writeServiceError(w, r, h.logger, "update domain", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

type statusRequest struct {
	Status string `json:"status"`
}

// SetDomainStatus changes a domain's sale status.
// PUT /api/admin/domains/{id}/status
func (h *AdminCatalogHandler) SetDomainStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.logger, "set domain status", err)
		return
	}
	d, err := h.catalog.SetDomainStatus(r.Context(), caller(r).Subject, pathParam(r, "id"), domain.DomainStatus(req.Status))
	if err != nil {
		writeServiceError(w, r, h.logger, "set domain status", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// DeleteDomain removes a domain.
// DELETE /api/admin/domains/{id}
func (h *AdminCatalogHandler) DeleteDomain(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteDomain(r.Context(), caller(r).Subject, pathParam(r, "id")); err != nil {
		writeServiceError(w, r, h.logger, "delete domain", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type importRequest struct {
	BlobPath string `json:"blob_path"`
}

// Import upserts domains from CSV. A JSON body {"blob_path": "..."} reads
// the file from object storage; any other body is the CSV itself.
// POST /api/admin/domains/import
func (h *AdminCatalogHandler) Import(w http.ResponseWriter, r *http.Request) {
	actor := caller(r).Subject
	var (
		res domain.ImportResult
		err error
	)
	if isJSON(r) {
		var req importRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeServiceError(w, r, h.logger, "import", err)
			return
		}
		if strings.TrimSpace(req.BlobPath) == "" {
			writeError(w, http.StatusBadRequest, "blob_path is required")
			return
		}
		res, err = h.transfer.ImportBlob(r.Context(), actor, strings.TrimSpace(req.BlobPath))
	} else {
		res, err = h.transfer.Import(r.Context(), actor, http.MaxBytesReader(w, r.Body, maxImportBytes))
	}
	if err != nil {
		writeServiceError(w, r, h.logger, "import", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Export writes the catalog to object storage as CSV.
// POST /api/admin/domains/export
func (h *AdminCatalogHandler) Export(w http.ResponseWriter, r *http.Request) {
	res, err := h.transfer.Export(r.Context(), caller(r).Subject)
	if err != nil {
		writeServiceError(w, r, h.logger, "export", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

// CreateCategory adds a category.
// POST /api/admin/categories
func (h *AdminCatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var in service.CategoryInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeServiceError(w, r, h.logger, "create category", err)
		return
	}
	c, err := h.catalog.CreateCategory(r.Context(), caller(r).Subject, in)
	if err != nil {
		writeServiceError(w, r, h.logger, "create category", err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// UpdateCategory edits a category.
// PUT /api/admin/categories/{id}
func (h *AdminCatalogHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var in service.CategoryInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeServiceError(w, r, h.logger, "update category", err)
		return
	}
	c, err := h.catalog.UpdateCategory(r.Context(), caller(r).Subject, pathParam(r, "id"), in)
	if err != nil {
		writeServiceError(w, r, h.logger, "update category", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// DeleteCategory removes a category.
// DELETE /api/admin/categories/{id}
func (h *AdminCatalogHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteCategory(r.Context(), caller(r).Subject, pathParam(r, "id")); err != nil {
		writeServiceError(w, r, h.logger, "delete category", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type tagRequest struct {
	Name string `json:"name"`
}

// CreateTag adds a tag.
// POST /api/admin/tags
func (h *AdminCatalogHandler) CreateTag(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.logger, "create tag", err)
		return
	}
	t, err := h.catalog.CreateTag(r.Context(), caller(r).Subject, req.Name)
	if err != nil {
		writeServiceError(w, r, h.logger, "create tag", err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// UpdateTag renames a tag.
// PUT /api/admin/tags/{id}
func (h *AdminCatalogHandler) UpdateTag(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.logger, "update tag", err)
		return
	}
	t, err := h.catalog.UpdateTag(r.Context(), caller(r).Subject, pathParam(r, "id"), req.Name)
	if err != nil {
		writeServiceError(w, r, h.logger, "update tag", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// DeleteTag removes a tag.
// DELETE /api/admin/tags/{id}
func (h *AdminCatalogHandler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteTag(r.Context(), caller(r).Subject, pathParam(r, "id")); err != nil {
		writeServiceError(w, r, h.logger, "delete tag", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
