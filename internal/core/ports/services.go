package ports

import (
	"context"

	"github.com/hoplink/backend/internal/domain"
)

// TransferService orchestrates server-to-server transfer tasks.
type TransferService interface {
	// Submit expands the request into subtasks, starts asynchronous
	// execution and returns a snapshot of the freshly queued task.
	Submit(ctx context.Context, req domain.TransferRequest, ownerID string) (*domain.TransferTask, error)

	// Cancel signals the task's cancellation token. Returns false when the
	// task is unknown or owned by someone else.
	Cancel(taskID, ownerID string) bool

	// Get returns a snapshot of the task, or nil when unknown/foreign.
	Get(taskID, ownerID string) *domain.TransferTask

	ListForOwner(ownerID string) []*domain.TransferTask
}

// ConnectionDirectory resolves a stored connection profile into a dialable
// endpoint with decrypted secrets.
type ConnectionDirectory interface {
	Resolve(ctx context.Context, id uint) (Endpoint, error)
}

type ConnectionService interface {
	ConnectionDirectory

	CreateConnection(ctx context.Context, input CreateConnectionInput) (*domain.Connection, error)
	GetConnections(ctx context.Context) ([]domain.Connection, error)
	GetConnectionByID(ctx context.Context, id uint) (*domain.Connection, error)
	DeleteConnection(ctx context.Context, id uint) error
}

type CreateConnectionInput struct {
	Name       string
	Host       string
	Port       int
	Username   string
	AuthKind   domain.AuthKind
	Password   string
	PrivateKey string
	Passphrase string
}
