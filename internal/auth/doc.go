// Package auth is the login and session surface of the frontend.
//
// Service is the facade views and CLI commands call: it talks to the backend
// through the shared session client and keeps the bearer token and cached
// profile in whatever storage.Store the client was built with.
//
// The remaining pieces serve the gin frontend server:
//
//	sm, _ := auth.NewSessionManager(sqlDB, cfg.Auth) // per-browser storage
//	router.Use(sm.SessionLoadSave())
//	router.Use(auth.CSRFMiddleware(key, cfg.Auth.SecureCookies))
//	router.POST("/login", limiter.Middleware(), handler)
package auth
