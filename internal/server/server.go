// Package server exposes the marketplace over HTTP and WebSocket.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/domainmart/internal/domain"
	"github.com/alanyoungcy/domainmart/internal/server/handler"
	"github.com/alanyoungcy/domainmart/internal/server/middleware"
	"github.com/alanyoungcy/domainmart/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	// RateLimit requests per RateWindow per client on the API; StrictLimit
	// applies to sign-in, sign-up and the public enquiry form.
	RateLimit   int
	StrictLimit int
	RateWindow  time.Duration
	// ClientIP resolves client addresses; nil ignores proxy headers.
	ClientIP *middleware.ClientIP
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health       *handler.HealthHandler
	Catalog      *handler.CatalogHandler
	AdminCatalog *handler.AdminCatalogHandler
	Auth         *handler.AuthHandler
	Orders       *handler.OrderHandler
	Watchlist    *handler.WatchlistHandler
	Enquiries    *handler.EnquiryHandler
	Site         *handler.SiteHandler
	Dashboard    *handler.DashboardHandler
}

// Server is the marketplace HTTP + WebSocket API server.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer registers every route and wraps the mux in the CORS, logging,
// rate-limit and authentication middleware. limiter and wsHub may be nil.
func NewServer(
	cfg Config,
	handlers Handlers,
	verifier middleware.TokenVerifier,
	limiter domain.RateLimiter,
	wsHub *ws.Hub,
	logger *slog.Logger,
) *Server {
	mux := http.NewServeMux()
	Routes(mux, handlers, wsHub)

	var h http.Handler = mux
	h = middleware.Authenticate(verifier)(h)
	if limiter != nil {
		h = middleware.RateLimit(limiter, rateRules(cfg), cfg.ClientIP, logger)(h)
	}
	h = middleware.Logging(logger, cfg.ClientIP)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           h,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

func rateRules(cfg Config) []middleware.Rule {
	window := cfg.RateWindow
	if window <= 0 {
		window = time.Minute
	}
	strict := cfg.StrictLimit
	if strict <= 0 {
		strict = cfg.RateLimit
	}
	return []middleware.Rule{
		{Name: "auth", Method: http.MethodPost, Prefix: "/api/auth/", Limit: strict, Window: window},
		{Name: "enquiry", Method: http.MethodPost, Prefix: "/api/enquiries", Limit: strict, Window: window},
		{Name: "api", Prefix: "/api/", Limit: cfg.RateLimit, Window: window},
	}
}

// Routes registers every endpoint on mux.
func Routes(mux *http.ServeMux, h Handlers, wsHub *ws.Hub) {
	user := func(f http.HandlerFunc) http.Handler { return middleware.RequireUser(f) }
	admin := func(f http.HandlerFunc) http.Handler { return middleware.RequireAdmin(f) }

	mux.HandleFunc("GET /api/health", h.Health.HealthCheck)

	// Storefront.
	mux.HandleFunc("GET /api/domains", h.Catalog.ListDomains)
	mux.HandleFunc("GET /api/domains/filters", h.Catalog.Filters)
	mux.HandleFunc("GET /api/domains/{slug}", h.Catalog.GetDomain)
	mux.HandleFunc("GET /api/categories", h.Catalog.ListCategories)
	mux.HandleFunc("GET /api/tags", h.Catalog.ListTags)
	mux.HandleFunc("POST /api/enquiries", h.Enquiries.Submit)
	mux.HandleFunc("GET /api/seo/{page}", h.Site.SEOPage)

	// Auth.
	mux.HandleFunc("POST /api/auth/register", h.Auth.Register)
	mux.HandleFunc("POST /api/auth/login", h.Auth.Login)
	mux.Handle("GET /api/auth/me", user(h.Auth.Me))

	// User dashboard.
	mux.Handle("GET /api/me/orders", user(h.Orders.ListMine))
	mux.Handle("POST /api/me/orders", user(h.Orders.Buy))
	mux.Handle("POST /api/me/orders/{id}/cancel", user(h.Orders.Cancel))
	mux.Handle("GET /api/me/watchlist", user(h.Watchlist.List))
	mux.Handle("POST /api/me/watchlist", user(h.Watchlist.Add))
	mux.Handle("DELETE /api/me/watchlist/{domainID}", user(h.Watchlist.Remove))
	mux.Handle("GET /api/me/profile", user(h.Auth.Me))
	mux.Handle("PUT /api/me/profile", user(h.Auth.UpdateProfile))

	// Back office.
	mux.Handle("GET /api/admin/domains", admin(h.AdminCatalog.ListDomains))
	mux.Handle("POST /api/admin/domains", admin(h.AdminCatalog.CreateDomain))
	mux.Handle("PUT /api/admin/domains/{id}", admin(h.AdminCatalog.UpdateDomain))
	mux.Handle("PUT /api/admin/domains/{id}/status", admin(h.AdminCatalog.SetDomainStatus))
	mux.Handle("DELETE /api/admin/domains/{id}", admin(h.AdminCatalog.DeleteDomain))
	mux.Handle("POST /api/admin/domains/import", admin(h.AdminCatalog.Import))
	mux.Handle("POST /api/admin/domains/export", admin(h.AdminCatalog.Export))

	mux.Handle("POST /api/admin/categories", admin(h.AdminCatalog.CreateCategory))
	mux.Handle("PUT /api/admin/categories/{id}", admin(h.AdminCatalog.UpdateCategory))
	mux.Handle("DELETE /api/admin/categories/{id}", admin(h.AdminCatalog.DeleteCategory))
	mux.Handle("POST /api/admin/tags", admin(h.AdminCatalog.CreateTag))
	mux.Handle("PUT /api/admin/tags/{id}", admin(h.AdminCatalog.UpdateTag))
	mux.Handle("DELETE /api/admin/tags/{id}", admin(h.AdminCatalog.DeleteTag))

	mux.Handle("GET /api/admin/enquiries", admin(h.Enquiries.List))
	mux.Handle("PUT /api/admin/enquiries/{id}/status", admin(h.Enquiries.UpdateStatus))
	mux.Handle("DELETE /api/admin/enquiries/{id}", admin(h.Enquiries.Delete))

	mux.Handle("GET /api/admin/orders", admin(h.Orders.List))
	mux.Handle("PUT /api/admin/orders/{id}/status", admin(h.Orders.UpdateStatus))

	mux.Handle("GET /api/admin/users", admin(h.Auth.ListUsers))
	mux.Handle("PUT /api/admin/users/{id}/role", admin(h.Auth.SetRole))
	mux.Handle("DELETE /api/admin/users/{id}", admin(h.Auth.DeleteUser))

	mux.Handle("GET /api/admin/seo", admin(h.Site.ListSEO))
	mux.Handle("PUT /api/admin/seo/{page}", admin(h.Site.UpsertSEO))
	mux.Handle("DELETE /api/admin/seo/{page}", admin(h.Site.DeleteSEO))
	mux.Handle("GET /api/admin/settings", admin(h.Site.ListSettings))
	mux.Handle("PUT /api/admin/settings/{key}", admin(h.Site.UpsertSetting))
	mux.Handle("DELETE /api/admin/settings/{key}", admin(h.Site.DeleteSetting))

	mux.Handle("GET /api/admin/stats", admin(h.Dashboard.Stats))
	mux.Handle("GET /api/admin/audit", admin(h.Dashboard.Audit))

	// Live feed.
	if wsHub != nil {
		mux.Handle("GET /ws", admin(wsHub.HandleWS))
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
