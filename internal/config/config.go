package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		API
		Proxy
		Routes
		Global
		Database
		Storage
		Auth
		Log
	}

	HTTP struct {
		Port int32
		Host string
	}
	API struct {
		BaseURL string
		Timeout time.Duration
	}
	Proxy struct {
		AuthPrefix   bool // Also forward /auth to the backend
		ChangeOrigin bool
		Insecure     bool // Skip TLS verification for the proxy target
	}
	Routes struct {
		File string // Optional YAML file with extra route definitions
	}
	Global struct {
		ShutdownTimeoutInSeconds int
		Environment              string
	}
	Database struct {
		Path string
	}
	Storage struct {
		Profile       string
		EncryptionKey string
		KeyFilePath   string
	}
	Auth struct {
		SessionSecret   string
		SessionLifetime time.Duration
		SecureCookies   bool // Set to false for local dev without HTTPS

		MaxLoginAttempts int
		RateLimitWindow  time.Duration
		LockoutDuration  time.Duration
	}
	Log struct {
		Level string
	}
)

// apiBaseURL prefers API_URL and falls back to the Vite-style VITE_API_URL.
func apiBaseURL(v *viper.Viper) string {
	if u := v.GetString("API_URL"); u != "" {
		return strings.TrimRight(u, "/")
	}
	if u := v.GetString("VITE_API_URL"); u != "" {
		return strings.TrimRight(u, "/")
	}
	return DefaultAPIURL
}

// NewConfig reads configuration from the environment. A .env file in the
// working directory is loaded first if present; real environment variables win.
func NewConfig() *Config {
	_ = godotenv.Load()
	return newConfig(viper.New())
}

func newConfig(v *viper.Viper) *Config {
	v.AutomaticEnv()
	v.SetDefault("port", 3000)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")

	v.SetDefault("api_timeout", "30s")

	v.SetDefault("proxy_auth_prefix", false)
	v.SetDefault("proxy_change_origin", true)
	v.SetDefault("proxy_insecure", true)

	v.SetDefault("routes_file", "")

	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("storage_profile", DefaultProfile)
	v.SetDefault("token_encryption_key", "")
	v.SetDefault("token_key_file", "")

	v.SetDefault("auth_session_secret", "")      // Auto-generated if empty
	v.SetDefault("auth_session_lifetime", "24h") // 24 hours
	v.SetDefault("auth_secure_cookies", false)   // Dev server runs over plain HTTP
	v.SetDefault("auth_max_login_attempts", 5)
	v.SetDefault("auth_rate_limit_window", "15m")
	v.SetDefault("auth_lockout_duration", "30m")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		API: API{
			BaseURL: apiBaseURL(v),
			Timeout: v.GetDuration("API_TIMEOUT"),
		},
		Proxy: Proxy{
			AuthPrefix:   v.GetBool("PROXY_AUTH_PREFIX"),
			ChangeOrigin: v.GetBool("PROXY_CHANGE_ORIGIN"),
			Insecure:     v.GetBool("PROXY_INSECURE"),
		},
		Routes: Routes{
			File: v.GetString("ROUTES_FILE"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
			Environment:              v.GetString("ENVIRONMENT"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Storage: Storage{
			Profile:       v.GetString("STORAGE_PROFILE"),
			EncryptionKey: v.GetString("TOKEN_ENCRYPTION_KEY"),
			KeyFilePath:   v.GetString("TOKEN_KEY_FILE"),
		},
		Auth: Auth{
			SessionSecret:    v.GetString("AUTH_SESSION_SECRET"),
			SessionLifetime:  v.GetDuration("AUTH_SESSION_LIFETIME"),
			SecureCookies:    v.GetBool("AUTH_SECURE_COOKIES"),
			MaxLoginAttempts: v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			RateLimitWindow:  v.GetDuration("AUTH_RATE_LIMIT_WINDOW"),
			LockoutDuration:  v.GetDuration("AUTH_LOCKOUT_DURATION"),
		},
		Log: Log{
			Level: v.GetString("LOG_LEVEL"),
		},
	}
}
