package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/hoplink/backend/internal/core/ports"
	"github.com/hoplink/backend/internal/domain"
	"github.com/hoplink/backend/internal/infrastructure/logger"
	"github.com/hoplink/backend/pkg/utils/crypto"
	"gorm.io/gorm"
)

type connectionService struct {
	repo          ports.ConnectionRepository
	logger        *logger.Logger
	encryptionKey string
}

type ConnectionServiceConfig struct {
	Repository    ports.ConnectionRepository
	Logger        *logger.Logger
	EncryptionKey string
}

func NewConnectionService(cfg ConnectionServiceConfig) ports.ConnectionService {
	return &connectionService{
		repo:          cfg.Repository,
		logger:        cfg.Logger,
		encryptionKey: cfg.EncryptionKey,
	}
}

func (s *connectionService) CreateConnection(ctx context.Context, input ports.CreateConnectionInput) (*domain.Connection, error) {
	if input.Host == "" || input.Username == "" {
		return nil, ErrConnectionInvalidInput
	}
	if input.AuthKind != domain.AuthKindPassword && input.AuthKind != domain.AuthKindKey {
		return nil, ErrConnectionInvalidInput
	}

	port := input.Port
	if port == 0 {
		port = 22
	}

	conn := &domain.Connection{
		Name:     input.Name,
		Host:     input.Host,
		Port:     port,
		Username: input.Username,
		AuthKind: input.AuthKind,
	}

	var err error
	if conn.Password, err = s.seal(input.Password); err != nil {
		return nil, err
	}
	if conn.PrivateKey, err = s.seal(input.PrivateKey); err != nil {
		return nil, err
	}
	if conn.Passphrase, err = s.seal(input.Passphrase); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, conn); err != nil {
		return nil, err
	}

	s.logger.Infow("connection_created", "id", conn.ID, "host", conn.Host, "auth_kind", conn.AuthKind)
	return conn, nil
}

func (s *connectionService) GetConnections(ctx context.Context) ([]domain.Connection, error) {
	return s.repo.GetAll(ctx)
}

func (s *connectionService) GetConnectionByID(ctx context.Context, id uint) (*domain.Connection, error) {
	conn, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConnectionNotFound
		}
		return nil, err
	}
	return conn, nil
}

func (s *connectionService) DeleteConnection(ctx context.Context, id uint) error {
	if _, err := s.GetConnectionByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// Resolve returns the endpoint for a stored profile with secrets decrypted,
// ready for the transfer engine to dial.
func (s *connectionService) Resolve(ctx context.Context, id uint) (ports.Endpoint, error) {
	conn, err := s.GetConnectionByID(ctx, id)
	if err != nil {
		return ports.Endpoint{}, err
	}

	ep := ports.Endpoint{
		Host:     conn.Host,
		Port:     conn.Port,
		Username: conn.Username,
		AuthKind: string(conn.AuthKind),
	}

	if ep.Password, err = s.open(conn.Password); err != nil {
		return ports.Endpoint{}, fmt.Errorf("%w: password for connection %d", ErrDecryptionFailed, id)
	}
	if ep.PrivateKey, err = s.open(conn.PrivateKey); err != nil {
		return ports.Endpoint{}, fmt.Errorf("%w: private key for connection %d", ErrDecryptionFailed, id)
	}
	if ep.Passphrase, err = s.open(conn.Passphrase); err != nil {
		return ports.Endpoint{}, fmt.Errorf("%w: passphrase for connection %d", ErrDecryptionFailed, id)
	}

	return ep, nil
}

func (s *connectionService) seal(plain string) (string, error) {
	if plain == "" {
		return "", nil
	}
	sealed, err := crypto.Encrypt(plain, s.encryptionKey)
	if err != nil {
		return "", ErrEncryptionFailed
	}
	return sealed, nil
}

func (s *connectionService) open(sealed string) (string, error) {
	if sealed == "" {
		return "", nil
	}
	return crypto.Decrypt(sealed, s.encryptionKey)
}
