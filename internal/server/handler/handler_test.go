package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	s3blob "github.com/alanyoungcy/domainmart/internal/blob/s3"
	"github.com/alanyoungcy/domainmart/internal/catalog"
	"github.com/alanyoungcy/domainmart/internal/crypto"
	"github.com/alanyoungcy/domainmart/internal/domain"
	"github.com/alanyoungcy/domainmart/internal/server/middleware"
	"github.com/alanyoungcy/domainmart/internal/service"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func asUser(r *http.Request, id, role string) *http.Request {
	return r.WithContext(middleware.WithClaims(r.Context(), crypto.NewClaims(id, role)))
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("svc: %w", domain.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("svc: %w", domain.ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("svc: %w", domain.ErrUnauthorized), http.StatusUnauthorized},
		{domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrAlreadyExists, http.StatusConflict},
		{domain.ErrNotAvailable, http.StatusConflict},
		{domain.ErrInvalidState, http.StatusConflict},
		{domain.ErrLockHeld, http.StatusConflict},
		{domain.ErrRateLimited, http.StatusTooManyRequests},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestWriteServiceError(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	v := &domain.ValidationError{}
	v.Add("email", "must be a valid email address")
	rec := httptest.NewRecorder()
	writeServiceError(rec, req, discard(), "register", fmt.Errorf("auth: %w", v.Err()))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body errorResponse
	decodeBody(t, rec, &body)
	assert.Equal(t, "validation failed", body.Error)
	require.Len(t, body.Fields, 1)
	assert.Equal(t, "email", body.Fields[0].Field)

	rec = httptest.NewRecorder()
	writeServiceError(rec, req, discard(), "buy", fmt.Errorf("order_service: shop.com is sold: %w", domain.ErrNotAvailable))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":"domain not available"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	writeServiceError(rec, req, discard(), "list domains", fmt.Errorf("pg: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"list domains failed"}`, rec.Body.String())
}

func TestParseListOpts(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=9999&offset=20&status=new&q=+shop+", nil)
	opts := parseListOpts(req)
	assert.Equal(t, 500, opts.Limit)
	assert.Equal(t, 20, opts.Offset)
	assert.Equal(t, "new", opts.Status)
	assert.Equal(t, "shop", opts.Search)

	opts = parseListOpts(httptest.NewRequest(http.MethodGet, "/?limit=-1&offset=x", nil))
	assert.Equal(t, 50, opts.Limit)
	assert.Zero(t, opts.Offset)
}

type stubCatalog struct {
	filter  catalog.Filter
	domains []domain.Domain
}

func (s *stubCatalog) Browse(_ context.Context, f catalog.Filter) (service.BrowseResult, error) {
	s.filter = f
	return service.BrowseResult{Domains: s.domains, Total: len(s.domains)}, nil
}

func (s *stubCatalog) Facets(context.Context) (catalog.Facets, error) {
	return catalog.Facets{Extensions: []string{".com"}}, nil
}

func (s *stubCatalog) Domain(_ context.Context, slug string) (domain.Domain, error) {
	for _, d := range s.domains {
		if d.Slug == slug {
			return d, nil
		}
	}
	return domain.Domain{}, fmt.Errorf("catalog_service: get %q: %w", slug, domain.ErrNotFound)
}

func (s *stubCatalog) Categories(context.Context) ([]domain.Category, error) { return nil, nil }
func (s *stubCatalog) Tags(context.Context) ([]domain.Tag, error)           { return nil, nil }

func TestCatalogHandler_ListDomains(t *testing.T) {
	stub := &stubCatalog{}
	h := NewCatalogHandler(stub, discard())

	req := httptest.NewRequest(http.MethodGet, "/api/domains?category=Tech&extension=.com,.io&price_min=abc&price_max=5000&sort=price-high", nil)
	rec := httptest.NewRecorder()
	h.ListDomains(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"domains":[],"total":0}`, rec.Body.String())
	assert.Equal(t, []string{"Tech"}, stub.filter.Categories)
	assert.Equal(t, []string{".com", ".io"}, stub.filter.Extensions)
	assert.False(t, stub.filter.PriceMin.Set, "malformed bound is ignored")
	assert.Equal(t, catalog.At(5000), stub.filter.PriceMax)
	assert.Equal(t, catalog.SortPriceHigh, stub.filter.SortBy)
}

func TestCatalogHandler_GetDomain(t *testing.T) {
	stub := &stubCatalog{domains: []domain.Domain{{ID: "d-1", Name: "shop.com", Slug: "shop-com"}}}
	mux := http.NewServeMux()
	h := NewCatalogHandler(stub, discard())
	mux.HandleFunc("GET /api/domains/{slug}", h.GetDomain)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/domains/shop-com", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var d domain.Domain
	decodeBody(t, rec, &d)
	assert.Equal(t, "shop.com", d.Name)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/domains/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type stubTransfer struct {
	body     string
	blobPath string
	actor    string
}

func (s *stubTransfer) Import(_ context.Context, actor string, r io.Reader) (domain.ImportResult, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return domain.ImportResult{}, err
	}
	s.actor, s.body = actor, string(b)
	return domain.ImportResult{Imported: 1, Errors: []string{}}, nil
}

func (s *stubTransfer) ImportBlob(_ context.Context, actor, path string) (domain.ImportResult, error) {
	s.actor, s.blobPath = actor, path
	return domain.ImportResult{Imported: 2, Errors: []string{}}, nil
}

func (s *stubTransfer) Export(_ context.Context, actor string) (s3blob.ExportResult, error) {
	s.actor = actor
	return s3blob.ExportResult{Path: "exports/domains/x.csv", Count: 3}, nil
}

func TestAdminCatalogHandler_Import(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		status      int
		wantBody    string
		wantBlob    string
	}{
		{"csv body", "text/csv", "name,price\nshop.com,100\n", http.StatusOK, "name,price\nshop.com,100\n", ""},
		{"blob path", "application/json; charset=utf-8", `{"blob_path":" imports/a.csv "}`, http.StatusOK, "", "imports/a.csv"},
		{"blank blob path", "application/json", `{"blob_path":""}`, http.StatusBadRequest, "", ""},
		{"bad json", "application/json", `{`, http.StatusBadRequest, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubTransfer{}
			h := NewAdminCatalogHandler(nil, stub, discard())
			req := httptest.NewRequest(http.MethodPost, "/api/admin/domains/import", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			rec := httptest.NewRecorder()
			h.Import(rec, asUser(req, "admin-1", "admin"))

			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantBody, stub.body)
			assert.Equal(t, tt.wantBlob, stub.blobPath)
			if tt.status == http.StatusOK {
				assert.Equal(t, "admin-1", stub.actor)
			}
		})
	}
}

func TestAdminCatalogHandler_Export(t *testing.T) {
	stub := &stubTransfer{}
	h := NewAdminCatalogHandler(nil, stub, discard())
	rec := httptest.NewRecorder()
	h.Export(rec, asUser(httptest.NewRequest(http.MethodPost, "/api/admin/domains/export", nil), "admin-1", "admin"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"path":"exports/domains/x.csv","count":3}`, rec.Body.String())
}

// stubCatalogAdmin implements only DeleteDomain; other methods panic.
type stubCatalogAdmin struct {
	CatalogAdmin
	deleteErr error
	deleted   string
}

func (s *stubCatalogAdmin) DeleteDomain(_ context.Context, _, id string) error {
	s.deleted = id
	return s.deleteErr
}

func TestAdminCatalogHandler_DeleteDomain(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"deleted", nil, http.StatusNoContent},
		{"has orders", fmt.Errorf("postgres: delete domain d-1: has orders: %w", domain.ErrInvalidState), http.StatusConflict},
		{"missing", domain.ErrNotFound, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubCatalogAdmin{deleteErr: tt.err}
			mux := http.NewServeMux()
			mux.HandleFunc("DELETE /api/admin/domains/{id}", NewAdminCatalogHandler(stub, nil, discard()).DeleteDomain)

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodDelete, "/api/admin/domains/d-1", nil)
			mux.ServeHTTP(rec, asUser(req, "admin-1", "admin"))

			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, "d-1", stub.deleted)
		})
	}
}

type stubOrders struct {
	buyErr error
	userID string
}

func (s *stubOrders) Buy(_ context.Context, userID, domainID string) (domain.Order, error) {
	s.userID = userID
	if s.buyErr != nil {
		return domain.Order{}, s.buyErr
	}
	return domain.Order{ID: "o-1", UserID: userID, DomainID: domainID, Status: domain.OrderStatusPending}, nil
}

func (s *stubOrders) Cancel(_ context.Context, userID, orderID string) (domain.Order, error) {
	return domain.Order{ID: orderID, UserID: userID, Status: domain.OrderStatusCancelled}, nil
}

func (s *stubOrders) UpdateStatus(_ context.Context, _, orderID string, status domain.OrderStatus) (domain.Order, error) {
	return domain.Order{ID: orderID, Status: status}, nil
}

func (s *stubOrders) ListMine(context.Context, string, domain.ListOpts) ([]domain.Order, error) {
	return nil, nil
}

func (s *stubOrders) List(context.Context, domain.ListOpts) ([]domain.Order, error) {
	return nil, nil
}

func TestOrderHandler_Buy(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{"created", `{"domain_id":"d-1"}`, nil, http.StatusCreated},
		{"missing domain", `{}`, nil, http.StatusBadRequest},
		{"sold", `{"domain_id":"d-1"}`, fmt.Errorf("order_service: %w", domain.ErrNotAvailable), http.StatusConflict},
		{"checkout in progress", `{"domain_id":"d-1"}`, fmt.Errorf("order_service: %w", domain.ErrLockHeld), http.StatusConflict},
		{"unknown domain", `{"domain_id":"d-9"}`, fmt.Errorf("order_service: %w", domain.ErrNotFound), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubOrders{buyErr: tt.err}
			h := NewOrderHandler(stub, discard())
			req := httptest.NewRequest(http.MethodPost, "/api/me/orders", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.Buy(rec, asUser(req, "u-1", "user"))
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestOrderHandler_ListMineNeverNull(t *testing.T) {
	h := NewOrderHandler(&stubOrders{}, discard())
	rec := httptest.NewRecorder()
	h.ListMine(rec, asUser(httptest.NewRequest(http.MethodGet, "/api/me/orders", nil), "u-1", "user"))
	assert.JSONEq(t, `{"orders":[]}`, rec.Body.String())
}

type stubAudit struct {
	opts domain.ListOpts
}

func (s *stubAudit) List(_ context.Context, opts domain.ListOpts) ([]domain.AuditEntry, error) {
	s.opts = opts
	return nil, nil
}

func TestDashboardHandler_Audit(t *testing.T) {
	audit := &stubAudit{}
	h := NewDashboardHandler(nil, audit, discard())

	rec := httptest.NewRecorder()
	h.Audit(rec, httptest.NewRequest(http.MethodGet, "/api/admin/audit?event=order.status&actor=a-1&since=2026-03-01T00:00:00Z", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"entries":[]}`, rec.Body.String())
	assert.Equal(t, "order.status", audit.opts.Status)
	assert.Equal(t, "a-1", audit.opts.Search)
	require.NotNil(t, audit.opts.Since)
	assert.Nil(t, audit.opts.Until)

	rec = httptest.NewRecorder()
	h.Audit(rec, httptest.NewRequest(http.MethodGet, "/api/admin/audit?until=yesterday", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthHandler(t *testing.T) {
	h := NewHealthHandler("server", map[string]Pinger{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return fmt.Errorf("dial tcp: refused") },
	}, discard())

	rec := httptest.NewRecorder()
	h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body struct {
		Status       string            `json:"status"`
		Dependencies map[string]string `json:"dependencies"`
	}
	decodeBody(t, rec, &body)
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, map[string]string{"postgres": "up", "redis": "down"}, body.Dependencies)
}
