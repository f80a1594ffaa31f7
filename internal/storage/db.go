package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/mrlokans/hotsearch-web/internal/crypto"
	"github.com/mrlokans/hotsearch-web/internal/database"
	"github.com/mrlokans/hotsearch-web/internal/entities"
)

const (
	// EnvEncryptionKey is the environment variable for the encryption key
	EnvEncryptionKey = "TOKEN_ENCRYPTION_KEY"

	// DefaultKeyFileName is the default name for the key file
	DefaultKeyFileName = ".hotsearch-web-key"
)

// DBStore keeps values encrypted in SQLite, one row per (profile, key).
type DBStore struct {
	db      *gorm.DB
	sealer  *crypto.Sealer
	profile string
}

var _ Store = (*DBStore)(nil)

// DBConfig holds configuration for the database-backed store
type DBConfig struct {
	DatabasePath string

	// Profile namespaces the stored keys; defaults to "default"
	Profile string

	// EncryptionKey is the base64-encoded 32-byte key. If empty, the
	// environment and then the key file are consulted.
	EncryptionKey string

	// KeyFilePath defaults to ~/.hotsearch-web-key
	KeyFilePath string
}

// NewDBStore opens (and migrates) the database at cfg.DatabasePath.
func NewDBStore(cfg DBConfig) (*DBStore, error) {
	key, err := resolveEncryptionKey(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve encryption key: %w", err)
	}

	sealer, err := crypto.NewSealerFromBase64(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create sealer: %w", err)
	}

	db, err := database.NewDatabase(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	profile := cfg.Profile
	if profile == "" {
		profile = "default"
	}

	return &DBStore{db: db.DB, sealer: sealer, profile: profile}, nil
}

// resolveEncryptionKey picks the key from config, then env, then key file,
// generating and saving a new key file as a last resort.
func resolveEncryptionKey(cfg DBConfig) (string, error) {
	if cfg.EncryptionKey != "" {
		return cfg.EncryptionKey, nil
	}

	if envKey := os.Getenv(EnvEncryptionKey); envKey != "" {
		return envKey, nil
	}

	keyFilePath := KeyFilePath(cfg.KeyFilePath)
	if data, err := os.ReadFile(keyFilePath); err == nil {
		return string(data), nil
	}

	newKey, err := crypto.GenerateKey()
	if err != nil {
		return "", fmt.Errorf("failed to generate encryption key: %w", err)
	}
	if err := os.WriteFile(keyFilePath, []byte(newKey), 0600); err != nil {
		return "", fmt.Errorf("failed to save encryption key to %s: %w", keyFilePath, err)
	}

	log.Info().Str("path", keyFilePath).Msg("generated new storage encryption key")
	return newKey, nil
}

// KeyFilePath returns the key file in use for the given override.
func KeyFilePath(customPath string) string {
	if customPath != "" {
		return customPath
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return DefaultKeyFileName
	}
	return filepath.Join(homeDir, DefaultKeyFileName)
}

// Profile returns the namespace this store reads and writes.
func (s *DBStore) Profile() string {
	return s.profile
}

func (s *DBStore) Get(ctx context.Context, key string) (string, bool, error) {
	var row entities.StoredValue
	err := s.db.WithContext(ctx).
		Where("profile = ? AND name = ?", s.profile, key).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get %q: %w", key, err)
	}

	value, err := s.sealer.Open(row.Value)
	if err != nil {
		return "", false, fmt.Errorf("failed to decrypt %q: %w", key, err)
	}
	return value, true, nil
}

func (s *DBStore) Set(ctx context.Context, key, value string) error {
	sealed, err := s.sealer.Seal(value)
	if err != nil {
		return fmt.Errorf("failed to encrypt %q: %w", key, err)
	}

	row := &entities.StoredValue{Profile: s.profile, Key: key, Value: sealed}
	result := s.db.WithContext(ctx).
		Where("profile = ? AND name = ?", s.profile, key).
		Assign(map[string]interface{}{
			"value":      sealed,
			"updated_at": time.Now(),
		}).
		FirstOrCreate(row)
	if result.Error != nil {
		return fmt.Errorf("failed to save %q: %w", key, result.Error)
	}
	return nil
}

func (s *DBStore) Delete(ctx context.Context, key string) error {
	result := s.db.WithContext(ctx).
		Where("profile = ? AND name = ?", s.profile, key).
		Delete(&entities.StoredValue{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete %q: %w", key, result.Error)
	}
	return nil
}

// Close closes the database connection
func (s *DBStore) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
