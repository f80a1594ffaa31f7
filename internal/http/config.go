package http

import (
	"gorm.io/gorm"

	"github.com/mrlokans/hotsearch-web/internal/auth"
	"github.com/mrlokans/hotsearch-web/internal/proxy"
	"github.com/mrlokans/hotsearch-web/internal/router"
)

// RouterConfig carries everything NewRouter wires together.
type RouterConfig struct {
	// Auth facade bound to a session client whose store is Sessions.Store().
	Auth     *auth.Service
	Sessions *auth.SessionManager

	// CSRF protection is skipped when CSRFKey is empty.
	CSRFKey       []byte
	SecureCookies bool
	RateLimiter   *auth.RateLimiter

	Routes *router.Table
	// Proxy receives every request no view route claims. Optional.
	Proxy *proxy.Proxy

	APIBaseURL string
	Database   *gorm.DB
	Version    string
}
