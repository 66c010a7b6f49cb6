package handler

import (
	"net"
	"net/http"
	"sync"
	"time"

	apperr "github.com/linkshala/linkshala-api/pkg/errors"
	"github.com/rs/zerolog/hlog"
	"golang.org/x/time/rate"
)

// idleTTL is how long a key's bucket survives without requests.
const idleTTL = 10 * time.Minute

// KeyedRateLimiter gives every key its own token bucket.
type KeyedRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*visitor
	limit    rate.Limit
	burst    int
	now      func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewKeyedRateLimiter allows perMinute events per key, with bursts of burst.
func NewKeyedRateLimiter(perMinute, burst int) *KeyedRateLimiter {
	return &KeyedRateLimiter{
		limiters: make(map[string]*visitor),
		limit:    rate.Limit(float64(perMinute) / 60),
		burst:    burst,
		now:      time.Now,
	}
}

func (k *KeyedRateLimiter) Allow(key string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	now := k.now()
	v, ok := k.limiters[key]
	if !ok {
		k.sweep(now)
		v = &visitor{limiter: rate.NewLimiter(k.limit, k.burst)}
		k.limiters[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// sweep drops idle buckets. Callers hold the lock.
func (k *KeyedRateLimiter) sweep(now time.Time) {
	for key, v := range k.limiters {
		if now.Sub(v.lastSeen) > idleTTL {
			delete(k.limiters, key)
		}
	}
}

// Middleware rejects requests over the limit with 429, keyed by client IP.
// It expects chi's RealIP to have run first.
func (k *KeyedRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientIP(r)
		if !k.Allow(key) {
			hlog.FromRequest(r).Warn().Str("ip", key).Str("path", r.URL.Path).Msg("Rate limit exceeded")
			writeError(w, r, apperr.RateLimited("too many attempts, try again later"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
