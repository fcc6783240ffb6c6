package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/domainmart/internal/domain"
)

// Rule is one rate-limit bucket. A request matches when its path has Prefix
// and, if Method is set, its method equals Method.
type Rule struct {
	Name   string
	Method string
	Prefix string
	Limit  int
	Window time.Duration
}

func (r Rule) matches(req *http.Request) bool {
	if r.Method != "" && r.Method != req.Method {
		return false
	}
	return strings.HasPrefix(req.URL.Path, r.Prefix)
}

// RateLimit applies per-client sliding-window limits. The first matching
// rule with a positive Limit decides the bucket; requests matching no rule
// are not limited. Clients are keyed by ips. On limiter errors it fails open.
func RateLimit(limiter domain.RateLimiter, rules []Rule, ips *ClientIP, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rule, ok := pickRule(rules, r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			allowed, err := limiter.Allow(r.Context(), rule.Name+":"+ips.Of(r), rule.Limit, rule.Window)
			if err != nil {
				logger.WarnContext(r.Context(), "middleware: rate limiter unavailable",
					slog.String("rule", rule.Name),
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(rule.Window.Seconds())))
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func pickRule(rules []Rule, r *http.Request) (Rule, bool) {
	for _, rule := range rules {
		if rule.Limit > 0 && rule.matches(r) {
			return rule, true
		}
	}
	return Rule{}, false
}
