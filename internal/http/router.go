package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/hotsearch-web/internal/auth"
	"github.com/mrlokans/hotsearch-web/internal/logger"
	"github.com/mrlokans/hotsearch-web/internal/router"
)

// NewRouter builds the frontend server: guarded view routes, the auth forms,
// health, and the backend proxy for everything else.
func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	if cfg.Auth == nil || cfg.Routes == nil {
		return nil, fmt.Errorf("http: auth service and route table are required")
	}

	v, err := newViews(cfg.Routes)
	if err != nil {
		return nil, err
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logger.GinMiddleware())
	engine.Use(auth.SecurityHeadersMiddleware(cfg.APIBaseURL))
	engine.Use(auth.StrictTransportSecurityMiddleware(31536000))
	if cfg.Sessions != nil {
		engine.Use(cfg.Sessions.SessionLoadSave())
	}
	engine.Use(PendingNavigationMiddleware())

	health := NewHealthController(cfg.Database, cfg.Version, cfg.APIBaseURL)
	engine.GET("/health", health.Status)
	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Form pages get CSRF protection; proxied API calls do not.
	pages := engine.Group("/")
	if len(cfg.CSRFKey) > 0 {
		pages.Use(auth.CSRFMiddleware(cfg.CSRFKey, cfg.SecureCookies))
	}

	authController := NewAuthController(cfg.Auth, cfg.Sessions, cfg.RateLimiter, v)
	viewsController := NewViewsController(cfg.Auth, v, cfg.Routes)

	guard := router.NewGuard(cfg.Routes)
	guarded := pages.Group("/", guard.Handler(func(c *gin.Context) bool {
		return cfg.Auth.IsAuthenticated(c.Request.Context())
	}))

	for _, r := range cfg.Routes.Routes() {
		switch r.Path {
		case router.LoginPath:
			guarded.GET(r.Path, authController.LoginPage)
		case "/register":
			guarded.GET(r.Path, authController.RegisterPage)
		default:
			guarded.GET(r.Path, viewsController.Render)
		}
	}

	loginHandlers := []gin.HandlerFunc{authController.Login}
	if cfg.RateLimiter != nil {
		loginHandlers = append([]gin.HandlerFunc{cfg.RateLimiter.Middleware()}, loginHandlers...)
	}
	guarded.POST(router.LoginPath, loginHandlers...)
	guarded.POST("/register", authController.Register)

	pages.POST("/logout", authController.Logout)
	pages.GET("/login/gitee", authController.GiteeLogin)
	pages.GET("/login/gitee/callback", authController.GiteeCallback)

	engine.NoRoute(func(c *gin.Context) {
		if cfg.Proxy != nil {
			if _, ok := cfg.Proxy.Match(c.Request.URL.Path); ok {
				cfg.Proxy.ServeHTTP(c.Writer, c.Request)
				return
			}
		}
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
	})

	return engine, nil
}
