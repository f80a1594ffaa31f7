package config

// Default locations and addresses
const (
	// DefaultDatabasePath is where browser sessions and CLI storage live
	DefaultDatabasePath = "./hotsearch-web.db"

	// DefaultAPIURL is the backend the client and the dev proxy talk to
	DefaultAPIURL = "http://localhost:8002"

	// DefaultProfile is the storage namespace used by the CLI
	DefaultProfile = "default"
)
