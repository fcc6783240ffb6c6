package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/alanyoungcy/domainmart/internal/blob/s3"
	"github.com/alanyoungcy/domainmart/internal/cache/redis"
	"github.com/alanyoungcy/domainmart/internal/config"
	"github.com/alanyoungcy/domainmart/internal/domain"
	"github.com/alanyoungcy/domainmart/internal/notify"
	"github.com/alanyoungcy/domainmart/internal/store/postgres"
)

// Dependencies bundles the infrastructure the modes build services on. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	DB     *postgres.Client
	Stores postgres.Stores

	// Redis; nil in migrate mode.
	Redis       *redis.Client
	Listings    domain.ListingCache
	RateLimiter domain.RateLimiter
	Locks       domain.LockManager
	Bus         domain.EventBus

	// Object storage; nil unless s3.enabled.
	Blob       *s3blob.Client
	BlobReader domain.BlobReader
	BlobWriter domain.BlobWriter

	Notifier *notify.Notifier
}

// needsRedis reports whether mode caches, locks or publishes events.
func needsRedis(mode string) bool {
	return mode != "migrate"
}

// Wire constructs the concrete dependencies for cfg.Mode and returns them
// together with a cleanup function that releases them in reverse order.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Database.DSN,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		Database: cfg.Database.Database,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		SSLMode:  cfg.Database.SSLMode,
		MaxConns: cfg.Database.PoolMaxConns,
		MinConns: cfg.Database.PoolMinConns,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Database.RunMigrations || cfg.Mode == "migrate" {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}
	deps.DB = pgClient
	deps.Stores = pgClient.Stores()

	// --- Redis ---
	if needsRedis(cfg.Mode) {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.Redis = redisClient
		deps.Listings = redis.NewListingCache(redisClient, cfg.Catalog.ListingCacheTTL.Duration)
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
		deps.Locks = redis.NewLockManager(redisClient)
		deps.Bus = redis.NewEventBus(redisClient)
	}

	// --- S3 blob storage ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		store := s3blob.NewStore(s3Client)
		deps.Blob = s3Client
		deps.BlobReader = store
		deps.BlobWriter = store
	}

	// --- Notifications ---
	deps.Notifier = notify.NewNotifier(senders(cfg.Notify, logger), cfg.Notify.Events, logger)

	return deps, cleanup, nil
}

func senders(cfg config.NotifyConfig, logger *slog.Logger) []notify.Sender {
	var out []notify.Sender
	if cfg.LogEnabled {
		out = append(out, notify.NewLogSender(logger))
	}
	if cfg.TelegramToken != "" && cfg.TelegramChatID != "" {
		out = append(out, notify.NewTelegramSender(cfg.TelegramToken, cfg.TelegramChatID))
	}
	if cfg.DiscordWebhookURL != "" {
		out = append(out, notify.NewDiscordSender(cfg.DiscordWebhookURL))
	}
	return out
}
