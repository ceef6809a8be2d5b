package db

import (
	"context"

	"github.com/hoplink/backend/internal/core/ports"
	"github.com/hoplink/backend/internal/domain"
	"github.com/hoplink/backend/internal/infrastructure/logger"
	"gorm.io/gorm"
)

type connectionRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConnectionRepository(db *gorm.DB, log *logger.Logger) ports.ConnectionRepository {
	return &connectionRepository{db: db, log: log}
}

func (r *connectionRepository) Create(ctx context.Context, conn *domain.Connection) error {
	if err := r.db.WithContext(ctx).Create(conn).Error; err != nil {
		r.log.Errorw("connection_repo_create_failed", "host", conn.Host, "error", err)
		return err
	}
	r.log.Infow("connection_repo_create_ok", "id", conn.ID, "host", conn.Host)
	return nil
}

func (r *connectionRepository) GetByID(ctx context.Context, id uint) (*domain.Connection, error) {
	var conn domain.Connection
	if err := r.db.WithContext(ctx).First(&conn, id).Error; err != nil {
		r.log.Errorw("connection_repo_get_failed", "id", id, "error", err)
		return nil, err
	}
	return &conn, nil
}

func (r *connectionRepository) GetAll(ctx context.Context) ([]domain.Connection, error) {
	var conns []domain.Connection
	if err := r.db.WithContext(ctx).Find(&conns).Error; err != nil {
		r.log.Errorw("connection_repo_list_failed", "error", err)
		return nil, err
	}
	return conns, nil
}

func (r *connectionRepository) Update(ctx context.Context, conn *domain.Connection) error {
	if err := r.db.WithContext(ctx).Save(conn).Error; err != nil {
		r.log.Errorw("connection_repo_update_failed", "id", conn.ID, "error", err)
		return err
	}
	return nil
}

func (r *connectionRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&domain.Connection{}, id).Error; err != nil {
		r.log.Errorw("connection_repo_delete_failed", "id", id, "error", err)
		return err
	}
	r.log.Infow("connection_repo_delete_ok", "id", id)
	return nil
}
