package remote

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/hoplink/backend/internal/core/ports"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

var (
	ErrSSHConnection     = errors.New("ssh: connection failed")
	ErrSSHAuthentication = errors.New("ssh: authentication failed")
	ErrSSHAborted        = errors.New("ssh: operation aborted")
)

const defaultConnectTimeout = 30 * time.Second

// SSHDialer opens SSH connections described by a ports.Endpoint.
type SSHDialer struct {
	ConnectTimeout time.Duration
}

func NewSSHDialer() *SSHDialer {
	return &SSHDialer{ConnectTimeout: defaultConnectTimeout}
}

func (d *SSHDialer) authMethods(ep ports.Endpoint) ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod

	if ep.PrivateKey != "" {
		var signer ssh.Signer
		var err error
		if ep.Passphrase != "" {
			signer, err = ssh.ParsePrivateKeyWithPassphrase([]byte(ep.PrivateKey), []byte(ep.Passphrase))
		} else {
			signer, err = ssh.ParsePrivateKey([]byte(ep.PrivateKey))
		}
		if err != nil {
			return nil, fmt.Errorf("%w: invalid private key", ErrSSHAuthentication)
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}

	if ep.Password != "" {
		methods = append(methods, ssh.Password(ep.Password))
	}

	if len(methods) == 0 {
		return nil, fmt.Errorf("%w: no credentials provided", ErrSSHAuthentication)
	}

	return methods, nil
}

func (d *SSHDialer) Connect(ctx context.Context, ep ports.Endpoint) (ports.RemoteConn, error) {
	methods, err := d.authMethods(ep)
	if err != nil {
		return nil, err
	}

	timeout := d.ConnectTimeout
	if timeout == 0 {
		timeout = defaultConnectTimeout
	}

	port := ep.Port
	if port == 0 {
		port = 22
	}

	sshConfig := &ssh.ClientConfig{
		User:            ep.Username,
		Auth:            methods,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         timeout,
	}

	addr := fmt.Sprintf("%s:%d", ep.Host, port)
	dialer := net.Dialer{Timeout: timeout, KeepAlive: 60 * time.Second}

	tcpConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSSHConnection, addr, err)
	}

	// Bound the handshake; the deadline is lifted for the long-lived session.
	tcpConn.SetDeadline(time.Now().Add(timeout))

	clientConn, chans, reqs, err := ssh.NewClientConn(tcpConn, addr, sshConfig)
	if err != nil {
		tcpConn.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrSSHConnection, addr, err)
	}
	tcpConn.SetDeadline(time.Time{})

	return &sshConn{client: ssh.NewClient(clientConn, chans, reqs)}, nil
}

type sshConn struct {
	client *ssh.Client
}

// scanShellLines splits on \n and \r so carriage-return progress updates
// (rsync style) surface as individual lines.
func scanShellLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

func (c *sshConn) Exec(ctx context.Context, cmd string, onStdout func(line string)) (ports.ExecResult, error) {
	session, err := c.client.NewSession()
	if err != nil {
		return ports.ExecResult{}, fmt.Errorf("%w: failed to open session", ErrSSHConnection)
	}
	defer session.Close()

	var stderr bytes.Buffer
	session.Stderr = &stderr

	var stdout bytes.Buffer
	var wg sync.WaitGroup

	if onStdout != nil {
		pipe, err := session.StdoutPipe()
		if err != nil {
			return ports.ExecResult{}, fmt.Errorf("%w: failed to open stdout pipe", ErrSSHConnection)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			scanner := bufio.NewScanner(pipe)
			scanner.Split(scanShellLines)
			for scanner.Scan() {
				line := scanner.Text()
				stdout.WriteString(line)
				stdout.WriteByte('\n')
				onStdout(line)
			}
		}()
	} else {
		session.Stdout = &stdout
	}

	done := make(chan error, 1)
	go func() {
		done <- session.Run(cmd)
	}()

	select {
	case <-ctx.Done():
		session.Signal(ssh.SIGKILL)
		session.Close()
		return ports.ExecResult{}, fmt.Errorf("%w: %v", ErrSSHAborted, ctx.Err())
	case err := <-done:
		wg.Wait()
		res := ports.ExecResult{Stdout: stdout.String(), Stderr: stderr.String()}
		if err != nil {
			var exitErr *ssh.ExitError
			if errors.As(err, &exitErr) {
				res.ExitCode = exitErr.ExitStatus()
				return res, nil
			}
			return res, fmt.Errorf("%w: %v", ErrSSHConnection, err)
		}
		return res, nil
	}
}

func (c *sshConn) Upload(ctx context.Context, remotePath string, mode os.FileMode, content io.Reader) error {
	sftpClient, err := sftp.NewClient(c.client)
	if err != nil {
		return fmt.Errorf("%w: failed to open sftp channel: %v", ErrSSHConnection, err)
	}
	defer sftpClient.Close()

	done := make(chan error, 1)
	go func() {
		remoteFile, err := sftpClient.Create(remotePath)
		if err != nil {
			done <- err
			return
		}
		if _, err := remoteFile.ReadFrom(content); err != nil {
			remoteFile.Close()
			done <- err
			return
		}
		if err := remoteFile.Close(); err != nil {
			done <- err
			return
		}
		done <- sftpClient.Chmod(remotePath, mode)
	}()

	select {
	case <-ctx.Done():
		// Tearing down the channel unblocks the writer.
		sftpClient.Close()
		return fmt.Errorf("%w: upload of %s: %v", ErrSSHAborted, remotePath, ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: upload of %s: %v", ErrSSHConnection, remotePath, err)
		}
		return nil
	}
}

func (c *sshConn) Close() error {
	return c.client.Close()
}
