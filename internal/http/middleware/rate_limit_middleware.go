package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/debatehq/debate-service/internal/http/response"
	"github.com/debatehq/debate-service/internal/observability"
	"github.com/debatehq/debate-service/internal/security"
)

// Decision is one limiter verdict for one key. ResetAt and RetryAfter are
// advisory and surface as response headers.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
	Remaining  int
	ResetAt    time.Time
}

type RateLimitPolicy struct {
	Limit  int
	Window time.Duration
}

type Limiter interface {
	Allow(ctx context.Context, key string, policy RateLimitPolicy) (Decision, error)
}

type FailureMode string

const (
	FailOpen   FailureMode = "fail_open"
	FailClosed FailureMode = "fail_closed"
)

// RateLimiter guards the public API per client address. The vote ledger's
// per-subnet window is separate and lives in the service layer.
type RateLimiter struct {
	limiter Limiter
	policy  RateLimitPolicy
	mode    FailureMode
	scope   string
	keyFunc func(r *http.Request) string
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return NewRateLimiterWith(NewLocalSlidingWindowLimiter(), limit, window, FailClosed, "api")
}

func NewRateLimiterWith(limiter Limiter, limit int, window time.Duration, mode FailureMode, scope string) *RateLimiter {
	if scope == "" {
		scope = "api"
	}
	return &RateLimiter{
		limiter: limiter,
		policy:  normalizePolicy(RateLimitPolicy{Limit: limit, Window: window}),
		mode:    mode,
		scope:   scope,
		keyFunc: clientAddressKey,
	}
}

func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := rl.keyFunc(r)
			decision, err := rl.limiter.Allow(r.Context(), key, rl.policy)
			if err != nil {
				observability.RecordRateLimitDecision(r.Context(), rl.scope, "backend_error", string(rl.mode), "ip")
				if rl.mode == FailOpen {
					slog.Warn("rate limiter backend unavailable, allowing request",
						"scope", rl.scope,
						"error", err.Error(),
					)
					next.ServeHTTP(w, r)
					return
				}
				writeRateLimitHeaders(w.Header(), rl.policy.Limit, 0, time.Now().Add(rl.policy.Window))
				w.Header().Set("Retry-After", retryAfterHeader(rl.policy.Window))
				response.Error(w, r, http.StatusTooManyRequests, "rate_limited", "too many requests", nil)
				return
			}
			writeRateLimitHeaders(w.Header(), rl.policy.Limit, decision.Remaining, decision.ResetAt)
			if !decision.Allowed {
				observability.RecordRateLimitDecision(r.Context(), rl.scope, "deny", string(rl.mode), "ip")
				w.Header().Set("Retry-After", retryAfterHeader(decision.RetryAfter))
				response.Error(w, r, http.StatusTooManyRequests, "rate_limited", "too many requests", nil)
				return
			}
			observability.RecordRateLimitDecision(r.Context(), rl.scope, "allow", string(rl.mode), "ip")
			next.ServeHTTP(w, r)
		})
	}
}

type localSlidingWindowLimiter struct {
	mu      sync.Mutex
	store   map[string][]time.Time
	cleanup time.Time
}

func NewLocalSlidingWindowLimiter() Limiter {
	return &localSlidingWindowLimiter{
		store:   make(map[string][]time.Time),
		cleanup: time.Now().Add(time.Minute),
	}
}

func (l *localSlidingWindowLimiter) Allow(_ context.Context, key string, policy RateLimitPolicy) (Decision, error) {
	policy = normalizePolicy(policy)
	now := time.Now()
	cutoff := now.Add(-policy.Window)

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.After(l.cleanup) {
		for k, hits := range l.store {
			if len(hits) == 0 || !hits[len(hits)-1].After(cutoff) {
				delete(l.store, k)
			}
		}
		l.cleanup = now.Add(policy.Window)
	}

	hits := l.store[key]
	pruned := hits[:0]
	for _, hit := range hits {
		if hit.After(cutoff) {
			pruned = append(pruned, hit)
		}
	}
	hits = pruned

	if len(hits) >= policy.Limit {
		retry := hits[0].Add(policy.Window).Sub(now)
		if retry <= 0 {
			retry = time.Second
		}
		l.store[key] = hits
		return Decision{Allowed: false, RetryAfter: retry, Remaining: 0, ResetAt: now.Add(retry)}, nil
	}

	hits = append(hits, now)
	l.store[key] = hits
	resetAt := hits[0].Add(policy.Window)
	return Decision{Allowed: true, Remaining: policy.Limit - len(hits), ResetAt: resetAt}, nil
}

func clientAddressKey(r *http.Request) string {
	if addr := security.ClientAddress(r); addr != "" {
		return addr
	}
	return r.RemoteAddr
}

func retryAfterHeader(d time.Duration) string {
	if d <= 0 {
		return "1"
	}
	seconds := int(d.Round(time.Second).Seconds())
	if seconds <= 0 {
		seconds = 1
	}
	return fmt.Sprintf("%d", seconds)
}

func writeRateLimitHeaders(h http.Header, limit, remaining int, resetAt time.Time) {
	h.Set("X-RateLimit-Limit", fmt.Sprintf("%d", max(limit, 0)))
	h.Set("X-RateLimit-Remaining", fmt.Sprintf("%d", max(remaining, 0)))
	if resetAt.IsZero() {
		resetAt = time.Now().Add(time.Second)
	}
	h.Set("X-RateLimit-Reset", fmt.Sprintf("%d", resetAt.Unix()))
}

func normalizePolicy(policy RateLimitPolicy) RateLimitPolicy {
	if policy.Limit <= 0 {
		policy.Limit = 1
	}
	if policy.Window <= 0 {
		policy.Window = time.Minute
	}
	return policy
}
