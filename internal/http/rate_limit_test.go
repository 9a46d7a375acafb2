package httpx

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestMemoryRateLimiterWindow(t *testing.T) {
	rl := NewMemoryRateLimiter().(*memoryRateLimiter)
	defer rl.Close()

	for i := 0; i < 3; i++ {
		if d := rl.Allow("login:1.2.3.4", 3, time.Minute); !d.allowed {
			t.Fatalf("attempt %d denied", i+1)
		}
	}
	if d := rl.Allow("login:1.2.3.4", 3, time.Minute); d.allowed {
		t.Fatalf("expected fourth attempt to be denied")
	}
	if d := rl.Allow("login:5.6.7.8", 3, time.Minute); !d.allowed {
		t.Fatalf("other clients keep their own budget")
	}

	rl.cleanup(time.Now().Add(2 * time.Minute))
	rl.mu.Lock()
	remaining := len(rl.windows)
	rl.mu.Unlock()
	if remaining != 0 {
		t.Fatalf("expected expired windows to be swept, got %d", remaining)
	}
}

func TestMemoryRateLimiterDisabled(t *testing.T) {
	rl := NewMemoryRateLimiter()
	defer rl.Close()
	for i := 0; i < 10; i++ {
		if d := rl.Allow("k", 0, time.Minute); !d.allowed {
			t.Fatalf("limit 0 must never deny")
		}
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	if got := clientIP(req); got != "10.0.0.1" {
		t.Fatalf("got %q", got)
	}
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := clientIP(req); got != "203.0.113.9" {
		t.Fatalf("got %q", got)
	}
}

func TestRateLimitKeyIgnoresForwardedFor(t *testing.T) {
	req := httptest.NewRequest("POST", "/login", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	if got := rateLimitKeyIP(req); got != "ip:10.0.0.1" {
		t.Fatalf("got %q", got)
	}
	req.RemoteAddr = ""
	if got := rateLimitKeyIP(req); got != "ip:unknown" {
		t.Fatalf("got %q", got)
	}
}
