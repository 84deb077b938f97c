package middleware

import (
	"context"
	"fmt"
	"math"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/Togather-Foundation/localevents/internal/api/problem"
	"github.com/Togather-Foundation/localevents/internal/config"
)

type RateLimitTier string

const (
	TierPublic        RateLimitTier = "public"
	TierAuthenticated RateLimitTier = "authenticated"
	TierLogin         RateLimitTier = "login" // register and login; budget is per 15 minutes
)

const loginWindow = 15 * time.Minute

type rateLimitKey string

const rateLimitTierKey rateLimitKey = "rateLimitTier"

func WithRateLimitTier(ctx context.Context, tier RateLimitTier) context.Context {
	return context.WithValue(ctx, rateLimitTierKey, tier)
}

func WithRateLimitTierHandler(tier RateLimitTier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := WithRateLimitTier(r.Context(), tier)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimit enforces the tier found on the request context (public when
// unset). Authenticated requests are keyed by user id, all others by
// client IP.
func RateLimit(cfg config.RateLimitConfig) func(http.Handler) http.Handler {
	store := newLimiterStore(cfg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/healthz" || r.URL.Path == "/readyz" {
				next.ServeHTTP(w, r)
				return
			}

			tier := TierPublic
			if value, ok := r.Context().Value(rateLimitTierKey).(RateLimitTier); ok {
				tier = value
			}

			key := clientKey(r, cfg.TrustedProxyCIDRs)
			if identity, ok := IdentityFrom(r.Context()); ok && tier == TierAuthenticated {
				key = "user:" + identity.ID
			}

			limiter := store.limiter(tier, key)
			if limiter == nil {
				next.ServeHTTP(w, r)
				return
			}

			if !limiter.Allow() {
				w.Header().Set("Retry-After", store.retryAfter(tier))
				problem.Write(w, r, http.StatusTooManyRequests, "Too many requests", nil, "")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

type limiterStore struct {
	mu          sync.Mutex
	limiters    map[string]*limiterEntry
	budgets     map[RateLimitTier]int
	stopCleanup chan struct{}
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLimiterStore(cfg config.RateLimitConfig) *limiterStore {
	store := &limiterStore{
		limiters: make(map[string]*limiterEntry),
		budgets: map[RateLimitTier]int{
			TierPublic:        cfg.PublicPerMinute,
			TierAuthenticated: cfg.AuthenticatedPerMinute,
			TierLogin:         cfg.LoginPer15Minutes,
		},
		stopCleanup: make(chan struct{}),
	}

	// Removes entries not accessed in 15 minutes to bound memory growth
	go store.cleanupLoop()

	return store
}

// interval is the token refill period for a tier.
func (s *limiterStore) interval(tier RateLimitTier) time.Duration {
	limit := s.budgets[tier]
	if limit <= 0 {
		return 0
	}
	if tier == TierLogin {
		return loginWindow / time.Duration(limit)
	}
	return time.Minute / time.Duration(limit)
}

func (s *limiterStore) retryAfter(tier RateLimitTier) string {
	seconds := math.Ceil(s.interval(tier).Seconds())
	if seconds < 1 {
		seconds = 1
	}
	return fmt.Sprintf("%d", int(seconds))
}

func (s *limiterStore) limiter(tier RateLimitTier, key string) *rate.Limiter {
	limit := s.budgets[tier]
	if limit <= 0 {
		return nil
	}

	lookup := string(tier) + ":" + key
	if key == "" {
		lookup = string(tier)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.limiters[lookup]; ok {
		entry.lastSeen = time.Now()
		return entry.limiter
	}

	limiter := rate.NewLimiter(rate.Every(s.interval(tier)), limit)
	s.limiters[lookup] = &limiterEntry{
		limiter:  limiter,
		lastSeen: time.Now(),
	}
	return limiter
}

func (s *limiterStore) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCleanup:
			return
		}
	}
}

// cleanup removes limiter entries that haven't been accessed in 15 minutes
func (s *limiterStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, entry := range s.limiters {
		if now.Sub(entry.lastSeen) > loginWindow {
			delete(s.limiters, key)
		}
	}
}

func (s *limiterStore) Stop() {
	close(s.stopCleanup)
}

// clientKey extracts the client identifier for rate limiting. Forwarding
// headers are trusted only from configured proxy CIDRs.
func clientKey(r *http.Request, trustedProxyCIDRs []string) string {
	if r == nil {
		return ""
	}

	remoteIP := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		remoteIP = host
	}

	if isTrustedProxy(remoteIP, trustedProxyCIDRs) {
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			first, _, _ := strings.Cut(forwarded, ",")
			return strings.TrimSpace(first)
		}
		if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
			return strings.TrimSpace(realIP)
		}
	}

	return remoteIP
}

func isTrustedProxy(ip string, trustedCIDRs []string) bool {
	if len(trustedCIDRs) == 0 {
		return false
	}

	parsedIP := net.ParseIP(ip)
	if parsedIP == nil {
		return false
	}

	for _, cidrStr := range trustedCIDRs {
		_, cidr, err := net.ParseCIDR(cidrStr)
		if err != nil {
			continue
		}
		if cidr.Contains(parsedIP) {
			return true
		}
	}
	return false
}
