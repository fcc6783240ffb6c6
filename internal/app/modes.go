package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	s3blob "github.com/alanyoungcy/domainmart/internal/blob/s3"
	"github.com/alanyoungcy/domainmart/internal/crypto"
	"github.com/alanyoungcy/domainmart/internal/server"
	"github.com/alanyoungcy/domainmart/internal/server/handler"
	"github.com/alanyoungcy/domainmart/internal/server/middleware"
	"github.com/alanyoungcy/domainmart/internal/server/ws"
	"github.com/alanyoungcy/domainmart/internal/service"
)

// systemActor is recorded in the audit log for one-shot CLI runs.
const systemActor = "system"

// catalogServices are the services every data-moving mode needs.
type catalogServices struct {
	catalog  *service.CatalogService
	transfer *service.TransferService
}

func (a *App) newCatalogServices(deps *Dependencies) catalogServices {
	st := deps.Stores
	catalogSvc := service.NewCatalogService(
		st.Domains, st.Categories, st.Tags, deps.Listings, deps.Bus, st.Audit, a.logger,
	)

	var exporter service.CatalogExporter
	if deps.BlobWriter != nil {
		exporter = s3blob.NewExporter(deps.BlobWriter, st.Domains, st.Audit)
	}
	transferSvc := service.NewTransferService(
		st.Domains, st.Categories, deps.BlobReader, exporter, catalogSvc, deps.Bus, st.Audit, a.logger,
	)
	return catalogServices{catalog: catalogSvc, transfer: transferSvc}
}

// ServerMode serves the HTTP API and the admin live feed until ctx is
// cancelled, then drains in-flight requests.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")

	tokens, err := crypto.NewTokenSigner(a.cfg.Auth.JWTSecret, a.cfg.Auth.Issuer, a.cfg.Auth.TokenTTL.Duration)
	if err != nil {
		return fmt.Errorf("app: token signer: %w", err)
	}
	vault, err := crypto.NewVault(a.cfg.Settings.EncryptionPassword)
	if err != nil {
		return fmt.Errorf("app: settings vault: %w", err)
	}

	clientIP, err := middleware.NewClientIP(a.cfg.Server.TrustedProxies)
	if err != nil {
		return fmt.Errorf("app: trusted proxies: %w", err)
	}

	st := deps.Stores
	cs := a.newCatalogServices(deps)
	authSvc := service.NewAuthService(st.Users, tokens, a.cfg.Auth.AdminEmails, st.Audit, a.logger)
	orderSvc := service.NewOrderService(
		st.Orders, st.Domains, st.Users, deps.Locks, cs.catalog, deps.Bus, st.Audit, deps.Notifier, a.logger,
	).WithLockTTL(a.cfg.Catalog.CheckoutLockTTL.Duration)
	enquirySvc := service.NewEnquiryService(st.Enquiries, st.Domains, deps.Bus, st.Audit, deps.Notifier, a.logger)
	watchlistSvc := service.NewWatchlistService(st.Watchlist, st.Domains)
	settingsSvc := service.NewSettingsService(st.Settings, vault, st.Audit)
	seoSvc := service.NewSEOService(st.SEO, settingsSvc, st.Audit)
	statsSvc := service.NewStatsService(st.Domains, st.Orders, st.Enquiries, st.Users)

	hub := ws.NewHub(deps.Bus, a.logger, ws.Config{
		Mode:           a.cfg.Mode,
		AllowedOrigins: a.cfg.Server.CORSOrigins,
	})

	checks := map[string]handler.Pinger{
		"postgres": deps.DB.Ping,
		"redis":    deps.Redis.Ping,
	}
	if deps.Blob != nil {
		checks["s3"] = deps.Blob.Health
	}

	handlers := server.Handlers{
		Health:       handler.NewHealthHandler(a.cfg.Mode, checks, a.logger),
		Catalog:      handler.NewCatalogHandler(cs.catalog, a.logger),
		AdminCatalog: handler.NewAdminCatalogHandler(cs.catalog, cs.transfer, a.logger),
		Auth:         handler.NewAuthHandler(authSvc, a.logger),
		Orders:       handler.NewOrderHandler(orderSvc, a.logger),
		Watchlist:    handler.NewWatchlistHandler(watchlistSvc, a.logger),
		Enquiries:    handler.NewEnquiryHandler(enquirySvc, a.logger),
		Site:         handler.NewSiteHandler(seoSvc, settingsSvc, a.logger),
		Dashboard:    handler.NewDashboardHandler(statsSvc, st.Audit, a.logger),
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		RateLimit:   a.cfg.Server.RateLimit,
		StrictLimit: a.cfg.Server.StrictLimit,
		RateWindow:  a.cfg.Server.RateWindow.Duration,
		ClientIP:    clientIP,
	}, handlers, authSvc, deps.RateLimiter, hub, a.logger)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return hub.Run(ctx)
	})

	g.Go(func() error {
		a.logger.InfoContext(ctx, "HTTP server listening",
			slog.Int("port", a.cfg.Server.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", a.cfg.Server.Port)),
		)
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		wait := a.cfg.Server.ShutdownWait.Duration
		if wait <= 0 {
			wait = 5 * time.Second
		}
		shutCtx, cancel := context.WithTimeout(context.Background(), wait)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})

	return g.Wait()
}

// ImportMode upserts the catalog from the CSV object at import.path and
// exits.
func (a *App) ImportMode(ctx context.Context, deps *Dependencies) error {
	path := a.cfg.Import.Path
	a.logger.InfoContext(ctx, "starting import mode", slog.String("path", path))

	res, err := a.newCatalogServices(deps).transfer.ImportBlob(ctx, systemActor, path)
	if err != nil {
		return fmt.Errorf("app: import %s: %w", path, err)
	}
	a.logger.InfoContext(ctx, "import finished",
		slog.Int("imported", res.Imported),
		slog.Int("skipped", res.Skipped),
	)
	for _, msg := range res.Errors {
		a.logger.WarnContext(ctx, "import row rejected", slog.String("error", msg))
	}
	return nil
}

// ExportMode writes the catalog to object storage as CSV and exits.
func (a *App) ExportMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting export mode")

	res, err := a.newCatalogServices(deps).transfer.Export(ctx, systemActor)
	if err != nil {
		return fmt.Errorf("app: export: %w", err)
	}
	a.logger.InfoContext(ctx, "export finished",
		slog.String("path", res.Path),
		slog.Int("domains", res.Count),
	)
	return nil
}

// MigrateMode exits once Wire has applied the migrations.
func (a *App) MigrateMode(ctx context.Context, _ *Dependencies) error {
	a.logger.InfoContext(ctx, "migrations applied")
	return nil
}
