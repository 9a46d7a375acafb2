package httpx

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

const limiterSweepEvery = 5 * time.Minute

// RateLimiter counts hits per key in fixed windows.
type RateLimiter interface {
	Allow(key string, limit int, window time.Duration) rateDecision
	Close()
}

type rateDecision struct {
	allowed   bool
	count     int
	windowEnd time.Time
}

// fixedWindow is the hit count of one key until resetAt.
type fixedWindow struct {
	hits    int
	resetAt time.Time
}

type memoryRateLimiter struct {
	mu      sync.Mutex
	windows map[string]*fixedWindow
	now     func() time.Time
	done    chan struct{}
	stop    sync.Once
}

// NewMemoryRateLimiter returns a RateLimiter local to this process.
func NewMemoryRateLimiter() RateLimiter {
	rl := &memoryRateLimiter{
		windows: make(map[string]*fixedWindow),
		now:     time.Now,
		done:    make(chan struct{}),
	}
	go rl.sweepLoop()
	return rl
}

func (rl *memoryRateLimiter) Allow(key string, limit int, window time.Duration) rateDecision {
	if limit <= 0 {
		return rateDecision{allowed: true}
	}
	if window <= 0 {
		window = time.Minute
	}
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	w, ok := rl.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &fixedWindow{resetAt: now.Add(window)}
		rl.windows[key] = w
	}
	// denied hits are not counted so the window never extends itself
	if w.hits < limit {
		w.hits++
		return rateDecision{allowed: true, count: w.hits, windowEnd: w.resetAt}
	}
	return rateDecision{allowed: false, count: w.hits, windowEnd: w.resetAt}
}

func (rl *memoryRateLimiter) sweepLoop() {
	ticker := time.NewTicker(limiterSweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.cleanup(rl.now())
		}
	}
}

// cleanup drops windows that ended before now.
func (rl *memoryRateLimiter) cleanup(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, w := range rl.windows {
		if !now.Before(w.resetAt) {
			delete(rl.windows, key)
		}
	}
}

func (rl *memoryRateLimiter) Close() {
	rl.stop.Do(func() { close(rl.done) })
}

// withAuthRateLimit throttles sign-up and login submissions per client IP.
// Rendering the forms is never limited.
func (s *Server) withAuthRateLimit(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if s.opts.AuthRateLimit <= 0 || req.Method != http.MethodPost {
			next(w, req)
			return
		}
		decision := s.limiter.Allow(route+":"+rateLimitKeyIP(req), s.opts.AuthRateLimit, rateWindowAuth)
		if decision.allowed {
			next(w, req)
			return
		}
		s.metrics.recordRateLimitHit(route)
		wait := time.Until(decision.windowEnd).Round(time.Second)
		if wait < time.Second {
			wait = time.Second
		}
		w.Header().Set("Retry-After", strconv.Itoa(int(wait/time.Second)))
		s.renderError(w, req, http.StatusTooManyRequests, "too many attempts, try again later")
	}
}

// rateLimitKeyIP keys the throttle on the socket peer. X-Forwarded-For is
// client supplied and only ever logged.
func rateLimitKeyIP(req *http.Request) string {
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		host = req.RemoteAddr
	}
	if host == "" {
		host = "unknown"
	}
	return "ip:" + host
}
