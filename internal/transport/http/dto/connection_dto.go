package dto

import (
	"time"

	"github.com/hoplink/backend/internal/domain"
)

type CreateConnectionRequest struct {
	Name       string `json:"name"`
	Host       string `json:"host"`
	Port       int    `json:"port"`
	Username   string `json:"username"`
	AuthKind   string `json:"auth_kind"`
	Password   string `json:"password,omitempty"`
	PrivateKey string `json:"private_key,omitempty"`
	Passphrase string `json:"passphrase,omitempty"`
}

func (r *CreateConnectionRequest) Validate() []string {
	var errors []string

	if r.Name == "" {
		errors = append(errors, "name is required")
	}
	if r.Host == "" {
		errors = append(errors, "host is required")
	}
	if r.Username == "" {
		errors = append(errors, "username is required")
	}

	switch r.AuthKind {
	case "password":
		if r.Password == "" {
			errors = append(errors, "password is required for password auth")
		}
	case "key":
		if r.PrivateKey == "" {
			errors = append(errors, "private_key is required for key auth")
		}
	default:
		errors = append(errors, "auth_kind must be one of: password, key")
	}

	return errors
}

func (r *CreateConnectionRequest) GetPort() int {
	if r.Port == 0 {
		return 22
	}
	return r.Port
}

func (r *CreateConnectionRequest) GetAuthKind() domain.AuthKind {
	if r.AuthKind == "key" {
		return domain.AuthKindKey
	}
	return domain.AuthKindPassword
}

type ConnectionResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Host      string    `json:"host"`
	Port      int       `json:"port"`
	Username  string    `json:"username"`
	AuthKind  string    `json:"auth_kind"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func ConnectionToResponse(conn *domain.Connection) ConnectionResponse {
	return ConnectionResponse{
		ID:        conn.ID,
		Name:      conn.Name,
		Host:      conn.Host,
		Port:      conn.Port,
		Username:  conn.Username,
		AuthKind:  string(conn.AuthKind),
		CreatedAt: conn.CreatedAt,
		UpdatedAt: conn.UpdatedAt,
	}
}

func ConnectionsToResponse(conns []domain.Connection) []ConnectionResponse {
	responses := make([]ConnectionResponse, len(conns))
	for i, conn := range conns {
		responses[i] = ConnectionToResponse(&conn)
	}
	return responses
}
