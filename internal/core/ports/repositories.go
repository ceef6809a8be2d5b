package ports

import (
	"context"

	"github.com/hoplink/backend/internal/domain"
)

type ConnectionRepository interface {
	Create(ctx context.Context, conn *domain.Connection) error
	GetByID(ctx context.Context, id uint) (*domain.Connection, error)
	GetAll(ctx context.Context) ([]domain.Connection, error)
	Update(ctx context.Context, conn *domain.Connection) error
	Delete(ctx context.Context, id uint) error
}
