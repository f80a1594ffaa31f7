package auth

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/hotsearch-web/internal/config"
	"github.com/mrlokans/hotsearch-web/internal/crypto"
	"github.com/mrlokans/hotsearch-web/internal/storage"
)

const SessionCookieName = "hotsearch_session"

// SessionManager holds one browser's token and cached profile server-side,
// keyed by the session cookie.
type SessionManager struct {
	*scs.SessionManager
}

// NewSessionManager creates the sessions table when missing and configures
// an sqlite-backed scs manager. sqlDB is usually the *sql.DB behind gorm.
func NewSessionManager(sqlDB *sql.DB, cfg config.Auth) (*SessionManager, error) {
	_, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		expiry REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`)
	if err != nil {
		return nil, fmt.Errorf("failed to create sessions table: %w", err)
	}

	sm := scs.New()
	sm.Store = sqlite3store.New(sqlDB)

	sm.Lifetime = cfg.SessionLifetime
	sm.IdleTimeout = cfg.SessionLifetime / 2

	sm.Cookie.Name = SessionCookieName
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.SecureCookies
	// Lax so the provider's redirect back to the callback still carries the cookie.
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"

	return &SessionManager{SessionManager: sm}, nil
}

// Store exposes the session as a storage.Store for the session client.
func (sm *SessionManager) Store() *storage.SessionStore {
	return storage.NewSessionStore(sm.SessionManager)
}

// Rotate issues a fresh session token while keeping the data. Called when a
// token is stored so a pre-login cookie can't be fixated.
func (sm *SessionManager) Rotate(ctx context.Context) error {
	return sm.RenewToken(ctx)
}

// SessionSecret turns AUTH_SESSION_SECRET into key material for cookie
// signing. An empty value yields a random secret that lasts for the process.
func SessionSecret(configured string) ([]byte, error) {
	if configured == "" {
		log.Warn().Msg("auth: AUTH_SESSION_SECRET is empty, generated a throwaway secret")
		return crypto.GenerateKeyBytes()
	}
	return []byte(configured), nil
}

// CSRFKey derives the gorilla/csrf authentication key from the session secret.
func CSRFKey(secret []byte) ([]byte, error) {
	return crypto.DeriveKey(secret, "csrf")
}
