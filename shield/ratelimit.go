package shield

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimitConfig bounds how many requests one client may make per window.
type RateLimitConfig struct {
	MaxRequests int           `yaml:"max_requests"`
	Window      time.Duration `yaml:"window"`
	// TrustedProxies are the IPs or CIDRs of reverse proxies whose
	// X-Forwarded-For header identifies the client.
	TrustedProxies []string `yaml:"trusted_proxies"`
}

type bucket struct {
	count   int
	resetAt time.Time
}

// RateLimiter is a fixed-window, per-IP limiter held in memory.
// Expired buckets are dropped lazily once the map grows past gcThreshold.
type RateLimiter struct {
	cfg     RateLimitConfig
	exclude []string
	proxies *TrustedProxies

	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

const gcThreshold = 4096

// NewRateLimiter creates a limiter. Paths starting with one of
// excludePrefixes are never limited. It fails on a malformed trusted proxy.
func NewRateLimiter(cfg RateLimitConfig, excludePrefixes ...string) (*RateLimiter, error) {
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	proxies, err := ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return nil, err
	}
	return &RateLimiter{
		cfg:     cfg,
		exclude: excludePrefixes,
		proxies: proxies,
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}, nil
}

// Allow records one request from ip and reports whether it is within the limit.
func (rl *RateLimiter) Allow(ip string) bool {
	if rl.cfg.MaxRequests <= 0 {
		return true
	}
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if len(rl.buckets) > gcThreshold {
		for k, b := range rl.buckets {
			if now.After(b.resetAt) {
				delete(rl.buckets, k)
			}
		}
	}

	b, ok := rl.buckets[ip]
	if !ok || now.After(b.resetAt) {
		rl.buckets[ip] = &bucket{count: 1, resetAt: now.Add(rl.cfg.Window)}
		return true
	}
	b.count++
	return b.count <= rl.cfg.MaxRequests
}

// Middleware answers 429 with a JSON error once a client exceeds the limit.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, prefix := range rl.exclude {
			if strings.HasPrefix(r.URL.Path, prefix) {
				next.ServeHTTP(w, r)
				return
			}
		}

		ip := ExtractIP(r, rl.proxies)
		if rl.Allow(ip) {
			next.ServeHTTP(w, r)
			return
		}

		GetLogger(r.Context()).Warn("shield: rate limited", "ip", ip)
		w.Header().Set("Retry-After", strconv.Itoa(int(rl.cfg.Window.Seconds())))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
	})
}
