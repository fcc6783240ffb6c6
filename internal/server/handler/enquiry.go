package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/domainmart/internal/domain"
	"github.com/alanyoungcy/domainmart/internal/service"
)

// EnquiryService accepts and manages storefront enquiries.
type EnquiryService interface {
	Submit(ctx context.Context, in service.EnquiryInput) (domain.Enquiry, error)
	List(ctx context.Context, opts domain.ListOpts) ([]domain.Enquiry, error)
	UpdateStatus(ctx context.Context, actor, id string, status domain.EnquiryStatus) (domain.Enquiry, error)
	Delete(ctx context.Context, actor, id string) error
}

// EnquiryHandler serves the contact form and its back-office inbox.
type EnquiryHandler struct {
	enquiries EnquiryService
	logger    *slog.Logger
}

// NewEnquiryHandler creates an EnquiryHandler.
func NewEnquiryHandler(enquiries EnquiryService, logger *slog.Logger) *EnquiryHandler {
	return &EnquiryHandler{enquiries: enquiries, logger: logHandler(logger, "enquiry")}
}

// Submit records a public enquiry or offer.
// POST /api/enquiries
func (h *EnquiryHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var in service.EnquiryInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeServiceError(w, r, h.logger, "submit enquiry", err)
		return
	}
	e, err := h.enquiries.Submit(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, h.logger, "submit enquiry", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": e.ID, "status": e.Status})
}

// List returns enquiries, optionally filtered by status.
// GET /api/admin/enquiries?status=new
func (h *EnquiryHandler) List(w http.ResponseWriter, r *http.Request) {
	es, err := h.enquiries.List(r.Context(), parseListOpts(r))
	if err != nil {
		writeServiceError(w, r, h.logger, "list enquiries", err)
		return
	}
	if es == nil {
		es = []domain.Enquiry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"enquiries": es})
}

// UpdateStatus marks an enquiry replied or closed.
// PUT /api/admin/enquiries/{id}/status
func (h *EnquiryHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.logger, "update enquiry", err)
		return
	}
	e, err := h.enquiries.UpdateStatus(r.Context(), caller(r).Subject, pathParam(r, "id"), domain.EnquiryStatus(req.Status))
	if err != nil {
		writeServiceError(w, r, h.logger, "update enquiry", err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// Delete removes an enquiry.
// DELETE /api/admin/enquiries/{id}
func (h *EnquiryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.enquiries.Delete(r.Context(), caller(r).Subject, pathParam(r, "id")); err != nil {
		writeServiceError(w, r, h.logger, "delete enquiry", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
