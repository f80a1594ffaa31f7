package auth

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/hotsearch-web/internal/config"
)

func TestSafeRedirectPath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty path", "", "/"},
		{"root path", "/", "/"},
		{"detail view", "/detail/42", "/detail/42"},
		{"local path with query", "/detail/42?tab=comments", "/detail/42?tab=comments"},
		{"protocol-relative URL", "//evil.com", "/"},
		{"full URL with scheme", "https://evil.com", "/"},
		{"URL with scheme in path", "/https://evil.com", "/"},
		{"backslash escape attempt", "/foo\\bar", "/"},
		{"backslash at start", "\\evil.com", "/"},
		{"javascript URL", "javascript:alert(1)", "/"},
		{"no leading slash", "evil.com", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SafeRedirectPath(tt.input); got != tt.expected {
				t.Errorf("SafeRedirectPath(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestRateLimiter_LocksOutAfterMaxAttempts(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{MaxAttempts: 3, Window: time.Minute, Lockout: time.Hour})
	defer rl.Stop()

	for i := 0; i < 2; i++ {
		if ok, _ := rl.Allow("1.2.3.4", "alice"); !ok {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
		if locked, _ := rl.RecordFailure("1.2.3.4", "alice"); locked {
			t.Fatalf("attempt %d should not lock", i+1)
		}
	}

	locked, retry := rl.RecordFailure("1.2.3.4", "alice")
	if !locked || retry != time.Hour {
		t.Fatalf("expected lockout of 1h, got locked=%v retry=%v", locked, retry)
	}
	if ok, wait := rl.Allow("1.2.3.4", "alice"); ok || wait <= 0 {
		t.Errorf("expected lockout, got ok=%v wait=%v", ok, wait)
	}

	if ok, _ := rl.Allow("1.2.3.4", "bob"); !ok {
		t.Error("other usernames must not be affected")
	}
}

func TestRateLimiter_WindowExpiry(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{MaxAttempts: 2, Window: time.Minute, Lockout: time.Minute})
	defer rl.Stop()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.RecordFailure("ip", "alice")
	rl.RecordFailure("ip", "alice")
	if ok, _ := rl.Allow("ip", "alice"); ok {
		t.Fatal("expected lockout")
	}

	now = now.Add(3 * time.Minute)
	if ok, _ := rl.Allow("ip", "alice"); !ok {
		t.Error("expected window and lockout to have expired")
	}

	rl.cleanup()
	if len(rl.attempts) != 0 {
		t.Errorf("expected cleanup to drop expired records, %d left", len(rl.attempts))
	}
}

func TestRateLimiter_SuccessResetsCounter(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{MaxAttempts: 2})
	defer rl.Stop()

	rl.RecordFailure("ip", "alice")
	rl.RecordSuccess("ip", "alice")
	if locked, _ := rl.RecordFailure("ip", "alice"); locked {
		t.Error("success should reset the failure count")
	}
}

func TestRateLimiter_Middleware(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{MaxAttempts: 1})
	defer rl.Stop()

	router := gin.New()
	router.POST("/login", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	post := func() *httptest.ResponseRecorder {
		form := url.Values{"username": {"alice"}}
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr
	}

	if rr := post(); rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	rl.RecordFailure("192.0.2.1", "alice")
	rr := post()
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}

func TestRateLimitConfigFrom(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfigFrom(config.Auth{}))
	defer rl.Stop()

	if rl.maxAttempts != 5 || rl.window != 15*time.Minute || rl.lockout != 30*time.Minute {
		t.Errorf("unexpected defaults: %d %v %v", rl.maxAttempts, rl.window, rl.lockout)
	}
}

func TestSecurityHeaders(t *testing.T) {
	router := gin.New()
	router.Use(SecurityHeadersMiddleware("http://localhost:8002/"))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	expected := map[string]string{
		"X-Frame-Options":        "DENY",
		"X-Content-Type-Options": "nosniff",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
	}
	for header, want := range expected {
		if got := rr.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}

	csp := rr.Header().Get("Content-Security-Policy")
	if !strings.Contains(csp, "connect-src 'self' http://localhost:8002;") {
		t.Errorf("CSP should allow the backend origin, got %q", csp)
	}
	if !strings.Contains(csp, "frame-ancestors 'none'") {
		t.Errorf("CSP should forbid framing, got %q", csp)
	}
}

func TestExtractOrigin(t *testing.T) {
	tests := map[string]string{
		"http://localhost:8002":          "http://localhost:8002",
		"https://api.example.com/v1/x?q": "https://api.example.com",
		"":                               "",
		"localhost:8002":                 "",
	}
	for input, want := range tests {
		if got := extractOrigin(input); got != want {
			t.Errorf("extractOrigin(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestHSTSHeader(t *testing.T) {
	router := gin.New()
	router.Use(StrictTransportSecurityMiddleware(31536000))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS must not be set over plain HTTP")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.TLS = &tls.ConnectionState{}
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if got := rr.Header().Get("Strict-Transport-Security"); got != "max-age=31536000; includeSubDomains" {
		t.Errorf("unexpected HSTS header %q", got)
	}
}
