package domain

import (
	"time"

	"gorm.io/gorm"
)

// ==================== ENUMS ====================

type AuthKind string

const (
	AuthKindPassword AuthKind = "password"
	AuthKindKey      AuthKind = "key"
)

// ==================== ENTITIES ====================

// Connection is a stored SSH connection profile. Secret fields are kept
// AES-GCM encrypted at rest and are never serialized to clients.
type Connection struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Name     string   `gorm:"size:255;not null" json:"name"`
	Host     string   `gorm:"size:255;not null" json:"host"`
	Port     int      `gorm:"default:22" json:"port"`
	Username string   `gorm:"size:255;not null" json:"username"`
	AuthKind AuthKind `gorm:"size:20;not null;default:'password'" json:"auth_kind"`

	// Encrypted secrets
	Password   string `gorm:"type:text" json:"-"`
	PrivateKey string `gorm:"type:text" json:"-"`
	Passphrase string `gorm:"type:text" json:"-"`
}
