package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// Reads (graph fetches, namespace listings): 120 requests/minute per IP.
	rateLimitReadPerMin = 120
	rateLimitReadBurst  = 120
	// Writes (history saves): 60 requests/minute per IP.
	rateLimitWritePerMin = 60
	rateLimitWriteBurst  = 60
)

type rateLimitTier int

const (
	tierRead rateLimitTier = iota
	tierWrite
)

func (t rateLimitTier) limiterConfig() (rate.Limit, int) {
	if t == tierRead {
		return rate.Limit(float64(rateLimitReadPerMin) / 60.0), rateLimitReadBurst
	}
	return rate.Limit(float64(rateLimitWritePerMin) / 60.0), rateLimitWriteBurst
}

func (t rateLimitTier) limitHeader() int {
	if t == tierRead {
		return rateLimitReadPerMin
	}
	return rateLimitWritePerMin
}

type apiRateLimiter struct {
	mu    sync.Mutex
	read  map[string]*rate.Limiter
	write map[string]*rate.Limiter
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx > 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx >= 0 {
		addr = addr[:idx]
	}
	return addr
}

func tierForRequest(r *http.Request) rateLimitTier {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return tierRead
	}
	return tierWrite
}

func (l *apiRateLimiter) limiter(ip string, t rateLimitTier) *rate.Limiter {
	limit, burst := t.limiterConfig()
	l.mu.Lock()
	defer l.mu.Unlock()
	m := l.write
	if t == tierRead {
		m = l.read
	}
	if lim, ok := m[ip]; ok {
		return lim
	}
	lim := rate.NewLimiter(limit, burst)
	m[ip] = lim
	return lim
}

// RateLimit returns middleware that limits requests per client IP using a
// token bucket: 120/min for GET and HEAD, 60/min for writes. Health and
// metrics probes are exempt. Rejections carry Retry-After and the usual
// X-RateLimit-* headers.
func RateLimit() func(http.Handler) http.Handler {
	limiters := &apiRateLimiter{
		read:  make(map[string]*rate.Limiter),
		write: make(map[string]*rate.Limiter),
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if path == "/metrics" || strings.HasPrefix(path, "/healthz") {
				next.ServeHTTP(w, r)
				return
			}
			tier := tierForRequest(r)
			limiter := limiters.limiter(clientIP(r), tier)
			reservation := limiter.Reserve()
			if !reservation.OK() || reservation.Delay() > 0 {
				reservation.Cancel()
				retryAfter := 60
				if d := reservation.Delay(); d > 0 && int(d.Seconds())+1 < retryAfter {
					retryAfter = int(d.Seconds()) + 1
				}
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(tier.limitHeader()))
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Duration(retryAfter)*time.Second).Unix(), 10))
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"too many requests"}`))
				return
			}
			tokens := int(limiter.Tokens())
			if tokens < 0 {
				tokens = 0
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(tier.limitHeader()))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(tokens))
			next.ServeHTTP(w, r)
		})
	}
}
