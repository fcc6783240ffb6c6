package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies DOMAINMART_* environment variable overrides, and
// returns the final Config. A missing file is not an error: defaults plus the
// environment are used instead. The returned Config has NOT been validated;
// the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known DOMAINMART_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Database ──
	setStr(&cfg.Database.DSN, "DOMAINMART_DATABASE_DSN")
	setStr(&cfg.Database.DSN, "DATABASE_URL") // compatibility alias
	setStr(&cfg.Database.Host, "DOMAINMART_DATABASE_HOST")
	setInt(&cfg.Database.Port, "DOMAINMART_DATABASE_PORT")
	setStr(&cfg.Database.Database, "DOMAINMART_DATABASE_NAME")
	setStr(&cfg.Database.User, "DOMAINMART_DATABASE_USER")
	setStr(&cfg.Database.Password, "DOMAINMART_DATABASE_PASSWORD")
	setStr(&cfg.Database.SSLMode, "DOMAINMART_DATABASE_SSL_MODE")
	setInt(&cfg.Database.PoolMaxConns, "DOMAINMART_DATABASE_POOL_MAX_CONNS")
	setInt(&cfg.Database.PoolMinConns, "DOMAINMART_DATABASE_POOL_MIN_CONNS")
	setBool(&cfg.Database.RunMigrations, "DOMAINMART_DATABASE_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "DOMAINMART_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "DOMAINMART_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "DOMAINMART_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "DOMAINMART_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "DOMAINMART_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "DOMAINMART_REDIS_TLS_ENABLED")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "DOMAINMART_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "DOMAINMART_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "DOMAINMART_S3_REGION")
	setStr(&cfg.S3.Bucket, "DOMAINMART_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "DOMAINMART_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "DOMAINMART_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "DOMAINMART_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "DOMAINMART_S3_FORCE_PATH_STYLE")

	// ── Server ──
	setInt(&cfg.Server.Port, "DOMAINMART_SERVER_PORT")
	setInt(&cfg.Server.Port, "PORT") // platform alias
	setStringSlice(&cfg.Server.CORSOrigins, "DOMAINMART_SERVER_CORS_ORIGINS")
	setStringSlice(&cfg.Server.TrustedProxies, "DOMAINMART_SERVER_TRUSTED_PROXIES")
	setInt(&cfg.Server.RateLimit, "DOMAINMART_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateWindow, "DOMAINMART_SERVER_RATE_WINDOW")
	setInt(&cfg.Server.StrictLimit, "DOMAINMART_SERVER_STRICT_RATE_LIMIT")

	// ── Auth ──
	setStr(&cfg.Auth.JWTSecret, "DOMAINMART_AUTH_JWT_SECRET")
	setStr(&cfg.Auth.Issuer, "DOMAINMART_AUTH_ISSUER")
	setDuration(&cfg.Auth.TokenTTL, "DOMAINMART_AUTH_TOKEN_TTL")
	setStringSlice(&cfg.Auth.AdminEmails, "DOMAINMART_AUTH_ADMIN_EMAILS")

	// ── Settings ──
	setStr(&cfg.Settings.EncryptionPassword, "DOMAINMART_SETTINGS_ENCRYPTION_PASSWORD")

	// ── Catalog ──
	setDuration(&cfg.Catalog.ListingCacheTTL, "DOMAINMART_CATALOG_LISTING_CACHE_TTL")
	setDuration(&cfg.Catalog.CheckoutLockTTL, "DOMAINMART_CATALOG_CHECKOUT_LOCK_TTL")

	// ── Import ──
	setStr(&cfg.Import.Path, "DOMAINMART_IMPORT_PATH")

	// ── Notify ──
	setBool(&cfg.Notify.LogEnabled, "DOMAINMART_NOTIFY_LOG_ENABLED")
	setStr(&cfg.Notify.TelegramToken, "DOMAINMART_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "DOMAINMART_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "DOMAINMART_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "DOMAINMART_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "DOMAINMART_MODE")
	setStr(&cfg.LogLevel, "DOMAINMART_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
