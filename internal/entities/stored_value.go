package entities

import "time"

// StoredValue is one persisted client-side key for a storage profile,
// the on-disk stand-in for a browser localStorage entry.
type StoredValue struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Profile namespaces values so several identities can share one database
	Profile string `gorm:"type:varchar(100);not null;uniqueIndex:idx_profile_key" json:"profile"`

	Key string `gorm:"column:name;type:varchar(100);not null;uniqueIndex:idx_profile_key" json:"key"`

	// Value is base64-encoded AES-256-GCM ciphertext
	Value string `gorm:"type:text;not null" json:"-"`
}

// TableName specifies the table name for GORM
func (StoredValue) TableName() string {
	return "stored_values"
}
