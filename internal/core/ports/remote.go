package ports

import (
	"context"
	"io"
	"os"
)

// Endpoint carries everything needed to open an SSH connection to a host.
// Secret material arrives already decrypted from the connection directory.
type Endpoint struct {
	Host       string
	Port       int
	Username   string
	AuthKind   string // "password" or "key"
	Password   string
	PrivateKey string
	Passphrase string
}

// ExecResult is the outcome of one remote command. A nonzero exit code is
// not an error at this level; transport failures are.
type ExecResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// RemoteConn is one open remote-shell connection. Each Exec and Upload runs
// on its own channel, so concurrent calls on the same connection are safe.
type RemoteConn interface {
	// Exec runs cmd remotely. When onStdout is non-nil it is invoked for
	// every stdout line as it arrives, before the buffered result returns.
	Exec(ctx context.Context, cmd string, onStdout func(line string)) (ExecResult, error)

	// Upload writes content to remotePath with the given mode over an
	// SFTP channel.
	Upload(ctx context.Context, remotePath string, mode os.FileMode, content io.Reader) error

	Close() error
}

// RemoteDialer opens remote-shell connections.
type RemoteDialer interface {
	Connect(ctx context.Context, ep Endpoint) (RemoteConn, error)
}
