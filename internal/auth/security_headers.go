package auth

import (
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
)

// SecurityHeadersMiddleware sets the browser hardening headers. apiURL is the
// backend origin the pages may call directly besides the proxy.
func SecurityHeadersMiddleware(apiURL string) gin.HandlerFunc {
	connectSrc := "'self'"
	if origin := extractOrigin(apiURL); origin != "" {
		connectSrc += " " + origin
	}

	csp := "default-src 'self'; " +
		"script-src 'self'; " +
		"style-src 'self' 'unsafe-inline'; " +
		// avatars come from the external login provider
		"img-src 'self' data: https:; " +
		"connect-src " + connectSrc + "; " +
		"frame-ancestors 'none'; " +
		"form-action 'self'"

	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", csp)
		c.Header("Permissions-Policy", "camera=(), geolocation=(), microphone=(), payment=(), usb=()")
		c.Next()
	}
}

func extractOrigin(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return ""
	}
	return parsed.Scheme + "://" + parsed.Host
}

// StrictTransportSecurityMiddleware adds HSTS to requests that arrived over
// HTTPS, directly or through a TLS-terminating proxy.
func StrictTransportSecurityMiddleware(maxAge int) gin.HandlerFunc {
	value := "max-age=" + strconv.Itoa(maxAge) + "; includeSubDomains"
	return func(c *gin.Context) {
		if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
			c.Header("Strict-Transport-Security", value)
		}
		c.Next()
	}
}
