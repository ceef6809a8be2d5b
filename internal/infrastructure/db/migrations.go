package db

import (
	"github.com/hoplink/backend/internal/domain"
	"gorm.io/gorm"
)

func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(&domain.Connection{}); err != nil {
		return err
	}

	// Hosts are addressed by name in the UI; keep names unique among live rows.
	return db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_connections_name
		ON connections (name)
		WHERE deleted_at IS NULL
	`).Error
}
