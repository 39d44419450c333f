package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/api/responses"
	pkgerrors "github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/errors"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/logger"
)

type rateLimiterStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
}

// ReaderRateLimitPolicy throttles scan submissions per source IP and per
// reader code inside a fixed window.
type ReaderRateLimitPolicy struct {
	window      time.Duration
	ipLimit     int
	readerLimit int
}

func NewReaderRateLimitPolicy(window time.Duration, ipLimit, readerLimit int) ReaderRateLimitPolicy {
	return ReaderRateLimitPolicy{window: window, ipLimit: ipLimit, readerLimit: readerLimit}
}

func (p ReaderRateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.readerLimit > 0)
}

// ReaderRateLimit enforces the policy using a shared counter store. A nil
// store disables throttling so the API still works without Redis.
func ReaderRateLimit(policy ReaderRateLimitPolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if policy.ipLimit > 0 {
				if ip := clientIP(r); ip != "" {
					key := fmt.Sprintf("rl:scan:ip:%s", ip)
					if !allowOrRespond(ctx, logg, w, store, key, policy.window, policy.ipLimit, "ip") {
						return
					}
				}
			}
			if policy.readerLimit > 0 {
				if code := strings.TrimSpace(r.Header.Get(readerCodeHeader)); code != "" {
					key := fmt.Sprintf("rl:scan:reader:%s", strings.ToLower(code))
					if !allowOrRespond(ctx, logg, w, store, key, policy.window, policy.readerLimit, "reader") {
						return
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func allowOrRespond(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, store rateLimiterStore, key string, window time.Duration, limit int, scope string) bool {
	count, err := store.IncrWithTTL(ctx, key, window)
	if err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
		return false
	}
	if count > int64(limit) {
		if logg != nil {
			logCtx := logg.WithFields(ctx, map[string]any{
				"scope":          scope,
				"attempts":       count,
				"limit":          limit,
				"window_seconds": int(window.Seconds()),
			})
			logg.Warn(logCtx, "scan.rate_limit.blocked")
		}
		responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
		return false
	}
	return true
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
