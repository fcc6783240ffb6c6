package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func validServerConfig() Config {
	cfg := Defaults()
	cfg.Auth.JWTSecret = testSecret
	cfg.Settings.EncryptionPassword = "settings-pass"
	return cfg
}

func TestDefaultsNeedSecretsToValidate(t *testing.T) {
	cfg := Defaults()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth: jwt_secret")
	assert.Contains(t, err.Error(), "settings: encryption_password")

	ok := validServerConfig()
	assert.NoError(t, ok.Validate())
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	cfg := validServerConfig()
	cfg.Mode = "batch"
	cfg.LogLevel = "loud"
	cfg.Database.PoolMaxConns = 1
	cfg.Database.PoolMinConns = 4
	cfg.Redis.Addr = ""

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	for _, want := range []string{`unknown mode "batch"`, `unknown log_level "loud"`, "pool_min_conns must not exceed", "redis: addr"} {
		assert.Contains(t, msg, want)
	}
}

func TestValidateTrustedProxies(t *testing.T) {
	cfg := validServerConfig()
	cfg.Server.TrustedProxies = []string{"10.0.0.0/8", "::1", ""}
	assert.NoError(t, cfg.Validate())

	cfg.Server.TrustedProxies = append(cfg.Server.TrustedProxies, "lb.internal")
	assert.ErrorContains(t, cfg.Validate(), `trusted_proxies entry "lb.internal"`)
}

func TestValidateImportModeNeedsS3AndPath(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "import"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3: must be enabled")
	assert.Contains(t, err.Error(), "import: path")
	// Server-only secrets are not demanded outside server mode.
	assert.NotContains(t, err.Error(), "jwt_secret")

	cfg.S3.Enabled = true
	cfg.Import.Path = "imports/domains.csv"
	assert.NoError(t, cfg.Validate())
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DOMAINMART_SERVER_PORT", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := strings.Join([]string{
		`log_level = "debug"`,
		`[server]`,
		`port = 9090`,
		`rate_window = "30s"`,
		`[catalog]`,
		`listing_cache_ttl = "1m"`,
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.RateWindow.Duration)
	assert.Equal(t, time.Minute, cfg.Catalog.ListingCacheTTL.Duration)
	// Untouched sections keep their defaults.
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, "server", cfg.Mode)
}

func TestLoadRejectsBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("port = = 1"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DOMAINMART_SERVER_PORT", "7000")
	t.Setenv("DOMAINMART_AUTH_JWT_SECRET", testSecret)
	t.Setenv("DOMAINMART_AUTH_TOKEN_TTL", "2h")
	t.Setenv("DOMAINMART_S3_ENABLED", "true")
	t.Setenv("DOMAINMART_SERVER_CORS_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("DOMAINMART_REDIS_DB", "not-a-number")
	t.Setenv("DOMAINMART_SERVER_TRUSTED_PROXIES", "10.0.0.0/8,192.0.2.1")

	cfg := Defaults()
	applyEnvOverrides(&cfg)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, testSecret, cfg.Auth.JWTSecret)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL.Duration)
	assert.True(t, cfg.S3.Enabled)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, []string{"10.0.0.0/8", "192.0.2.1"}, cfg.Server.TrustedProxies)
	assert.Equal(t, 0, cfg.Redis.DB, "unparsable values leave the field alone")
}

func TestRedactedConfig(t *testing.T) {
	cfg := validServerConfig()
	cfg.Database.Password = "pw"
	cfg.Notify.Events = []string{"order_created"}

	out := RedactedConfig(&cfg)
	assert.Equal(t, "***", out.Auth.JWTSecret)
	assert.Equal(t, "***", out.Database.Password)
	assert.Equal(t, "***", out.Settings.EncryptionPassword)
	assert.Equal(t, "", out.Redis.Password, "empty secrets stay empty")

	out.Notify.Events[0] = "changed"
	assert.Equal(t, "order_created", cfg.Notify.Events[0])
	assert.Equal(t, testSecret, cfg.Auth.JWTSecret)
}
