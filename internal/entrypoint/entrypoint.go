package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/hotsearch-web/internal/auth"
	"github.com/mrlokans/hotsearch-web/internal/config"
	"github.com/mrlokans/hotsearch-web/internal/database"
	http_controllers "github.com/mrlokans/hotsearch-web/internal/http"
	"github.com/mrlokans/hotsearch-web/internal/navigation"
	"github.com/mrlokans/hotsearch-web/internal/proxy"
	"github.com/mrlokans/hotsearch-web/internal/router"
	"github.com/mrlokans/hotsearch-web/internal/session"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// App is the assembled frontend server.
type App struct {
	Router  *gin.Engine
	Client  *session.Client
	Auth    *auth.Service
	Routes  *router.Table
	db      *database.Database
	limiter *auth.RateLimiter
	cleanup []func()
}

// NewApp wires the session client, auth facade, route table and proxy into
// a gin engine. Call Close when done.
func NewApp(cfg *config.Config, version string) (*App, error) {
	app := &App{}
	ok := false
	defer func() {
		if !ok {
			app.Close()
		}
	}()

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	app.db = db
	app.cleanup = append(app.cleanup, func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("entrypoint: closing database")
		}
	})

	sqlDB, err := db.SQL()
	if err != nil {
		return nil, fmt.Errorf("failed to get SQL DB for sessions: %w", err)
	}
	sessions, err := auth.NewSessionManager(sqlDB, cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session manager: %w", err)
	}

	app.Client = session.New(session.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
	}, sessions.Store())
	app.cleanup = append(app.cleanup, http_controllers.SubscribeLoginRedirect(app.Client.Events()))
	app.Auth = auth.NewService(app.Client, navigation.Recorder{})

	app.Routes, err = router.LoadTable(cfg.Routes.File)
	if err != nil {
		return nil, err
	}

	backendProxy, err := proxy.New(proxy.RulesFromConfig(cfg), http_controllers.ProxyOptions(app.Client)...)
	if err != nil {
		return nil, err
	}

	secret, err := auth.SessionSecret(cfg.Auth.SessionSecret)
	if err != nil {
		return nil, err
	}
	csrfKey, err := auth.CSRFKey(secret)
	if err != nil {
		return nil, err
	}

	app.limiter = auth.NewRateLimiter(auth.RateLimitConfigFrom(cfg.Auth))
	app.cleanup = append(app.cleanup, app.limiter.Stop)

	app.Router, err = http_controllers.NewRouter(http_controllers.RouterConfig{
		Auth:          app.Auth,
		Sessions:      sessions,
		CSRFKey:       csrfKey,
		SecureCookies: cfg.Auth.SecureCookies,
		RateLimiter:   app.limiter,
		Routes:        app.Routes,
		Proxy:         backendProxy,
		APIBaseURL:    cfg.API.BaseURL,
		Database:      db.DB,
		Version:       version,
	})
	if err != nil {
		return nil, err
	}

	ok = true
	return app, nil
}

// Close releases everything NewApp acquired, in reverse order.
func (a *App) Close() {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		a.cleanup[i]()
	}
	a.cleanup = nil
}

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second
	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Str("backend", cfg.API.BaseURL).Msg("entrypoint: listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("entrypoint: listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Dur("timeout", timeout).Msg("entrypoint: shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("entrypoint: server shutdown")
	}

	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Info().Msg("entrypoint: server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Info().Str("version", version).Str("environment", cfg.Global.Environment).Msg("Starting hotsearch-web")

	if cfg.Global.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	app, err := NewApp(cfg, version)
	if err != nil {
		log.Fatal().Err(err).Msg("entrypoint: failed to start")
	}

	Serve(app.Router, cfg, func(context.Context) { app.Close() })
}
