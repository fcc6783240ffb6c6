package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/domainmart/internal/crypto"
)

type stubVerifier map[string]crypto.Claims

func (s stubVerifier) Authenticate(_ context.Context, token string) (crypto.Claims, error) {
	c, ok := s[token]
	if !ok {
		return crypto.Claims{}, errors.New("bad token")
	}
	return c, nil
}

var verifier = stubVerifier{
	"user-token":  crypto.NewClaims("u-1", "user"),
	"admin-token": crypto.NewClaims("a-1", "admin"),
}

func ok(w http.ResponseWriter, r *http.Request) {
	c, _ := ClaimsFrom(r.Context())
	w.Write([]byte(c.Subject))
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticate(t *testing.T) {
	h := Authenticate(verifier)(http.HandlerFunc(ok))

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"anonymous", "", http.StatusOK, ""},
		{"valid token", "Bearer user-token", http.StatusOK, "u-1"},
		{"lowercase scheme", "bearer admin-token", http.StatusOK, "a-1"},
		{"invalid token", "Bearer nope", http.StatusUnauthorized, ""},
		{"other scheme ignored", "Basic dXNlcjpwYXNz", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/me/orders", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := serve(h, req)
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestAuthenticate_QueryTokenOnlyForWebsocket(t *testing.T) {
	h := Authenticate(verifier)(http.HandlerFunc(ok))

	req := httptest.NewRequest(http.MethodGet, "/ws?token=admin-token", nil)
	assert.Equal(t, "", serve(h, req).Body.String())

	req = httptest.NewRequest(http.MethodGet, "/ws?token=admin-token", nil)
	req.Header.Set("Upgrade", "websocket")
	assert.Equal(t, "a-1", serve(h, req).Body.String())
}

func TestRequireUserAndAdmin(t *testing.T) {
	user := RequireUser(http.HandlerFunc(ok))
	admin := RequireAdmin(http.HandlerFunc(ok))

	anon := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusUnauthorized, serve(user, anon).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(admin, anon).Code)

	asUser := anon.WithContext(WithClaims(context.Background(), verifier["user-token"]))
	assert.Equal(t, http.StatusOK, serve(user, asUser).Code)
	assert.Equal(t, http.StatusForbidden, serve(admin, asUser).Code)

	asAdmin := anon.WithContext(WithClaims(context.Background(), verifier["admin-token"]))
	assert.Equal(t, http.StatusOK, serve(admin, asAdmin).Code)
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"https://shop.example"})(http.HandlerFunc(ok))

	req := httptest.NewRequest(http.MethodGet, "/api/domains", nil)
	req.Header.Set("Origin", "https://shop.example")
	rec := serve(h, req)
	assert.Equal(t, "https://shop.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/domains", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = serve(h, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/domains", nil)
	assert.Equal(t, http.StatusNoContent, serve(h, req).Code)
}

type countingLimiter struct {
	calls map[string]int
	limit int
	err   error
}

func (c *countingLimiter) Allow(_ context.Context, key string, limit int, _ time.Duration) (bool, error) {
	if c.err != nil {
		return false, c.err
	}
	c.calls[key]++
	return c.calls[key] <= limit, nil
}

func TestRateLimit(t *testing.T) {
	lim := &countingLimiter{calls: map[string]int{}}
	rules := []Rule{
		{Name: "auth", Prefix: "/api/auth/", Limit: 1, Window: time.Minute},
		{Name: "enquiry", Method: http.MethodPost, Prefix: "/api/enquiries", Limit: 1, Window: time.Minute},
		{Name: "api", Prefix: "/api/", Limit: 3, Window: time.Minute},
	}
	h := RateLimit(lim, rules, nil, slog.Default())(http.HandlerFunc(ok))

	do := func(method, path string) int {
		req := httptest.NewRequest(method, path, nil)
		req.RemoteAddr = "203.0.113.7:5555"
		return serve(h, req).Code
	}

	assert.Equal(t, http.StatusOK, do(http.MethodPost, "/api/auth/login"))
	assert.Equal(t, http.StatusTooManyRequests, do(http.MethodPost, "/api/auth/login"))

	assert.Equal(t, http.StatusOK, do(http.MethodPost, "/api/enquiries"))
	assert.Equal(t, http.StatusTooManyRequests, do(http.MethodPost, "/api/enquiries"))

	assert.Equal(t, http.StatusOK, do(http.MethodGet, "/api/domains"))
	assert.Equal(t, http.StatusOK, do(http.MethodGet, "/api/domains"))
	assert.Equal(t, http.StatusOK, do(http.MethodGet, "/api/domains"))
	assert.Equal(t, http.StatusTooManyRequests, do(http.MethodGet, "/api/domains"))

	assert.Equal(t, http.StatusOK, do(http.MethodGet, "/ws"), "unmatched paths are not limited")
	assert.Equal(t, 2, lim.calls["auth:203.0.113.7"])
}

func TestRateLimit_FailsOpen(t *testing.T) {
	lim := &countingLimiter{err: errors.New("redis down")}
	h := RateLimit(lim, []Rule{{Name: "api", Prefix: "/", Limit: 1, Window: time.Second}}, nil, slog.Default())(http.HandlerFunc(ok))
	assert.Equal(t, http.StatusOK, serve(h, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
}

func TestClientIP_IgnoresHeadersWithoutTrustedProxy(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.1:1234"
	req.Header.Set("X-Real-IP", "10.0.0.2")
	req.Header.Set("X-Forwarded-For", "192.0.2.9, 10.0.0.1")

	var none *ClientIP
	assert.Equal(t, "198.51.100.1", none.Of(req))

	ips, err := NewClientIP([]string{"10.0.0.0/8"})
	require.NoError(t, err)
	assert.Equal(t, "198.51.100.1", ips.Of(req), "peer is not a trusted proxy")
}

func TestClientIP_TrustedProxy(t *testing.T) {
	ips, err := NewClientIP([]string{"10.0.0.0/8", " ", "172.16.0.9"})
	require.NoError(t, err)

	tests := []struct {
		name   string
		remote string
		xff    string
		xri    string
		want   string
	}{
		{"rightmost untrusted hop", "10.0.0.1:80", "203.0.113.5, 192.0.2.9, 10.0.0.7", "", "192.0.2.9"},
		{"all hops trusted", "172.16.0.9:80", "10.1.1.1, 10.2.2.2", "", "10.1.1.1"},
		{"real ip fallback", "10.0.0.1:80", "", "192.0.2.44", "192.0.2.44"},
		{"garbage headers", "10.0.0.1:80", "not-an-ip", "also-bad", "10.0.0.1"},
		{"no headers", "10.0.0.1:80", "", "", "10.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			assert.Equal(t, tt.want, ips.Of(req))
		})
	}

	_, err = NewClientIP([]string{"10.0.0.0/33"})
	assert.Error(t, err)
	_, err = NewClientIP([]string{"proxy.internal"})
	assert.Error(t, err)
}

func TestRateLimit_SpoofedForwardedForSharesBucket(t *testing.T) {
	lim := &countingLimiter{calls: map[string]int{}}
	h := RateLimit(lim, []Rule{{Name: "auth", Prefix: "/api/auth/", Limit: 1, Window: time.Minute}}, nil, slog.Default())(http.HandlerFunc(ok))

	for i, spoof := range []string{"192.0.2.1", "192.0.2.2"} {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "203.0.113.7:5555"
		req.Header.Set("X-Forwarded-For", spoof)
		want := http.StatusOK
		if i > 0 {
			want = http.StatusTooManyRequests
		}
		assert.Equal(t, want, serve(h, req).Code)
	}
	assert.Equal(t, 2, lim.calls["auth:203.0.113.7"])
}

func TestLogging_RecordsRequestAndUser(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	var seenID string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = RequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	})
	h := Logging(logger, nil)(Authenticate(verifier)(inner))

	req := httptest.NewRequest(http.MethodGet, "/api/me/profile", nil)
	req.Header.Set("Authorization", "Bearer user-token")
	req.Header.Set("X-Request-ID", "req-42")
	rec := serve(h, req)

	require.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "req-42", seenID)
	assert.Contains(t, buf.String(), `"status":418`)
	assert.Contains(t, buf.String(), `"user_id":"u-1"`)
}
