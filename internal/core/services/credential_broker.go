package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"path"
	"strings"

	"github.com/hoplink/backend/internal/core/ports"
	"github.com/hoplink/backend/internal/domain"
	"github.com/hoplink/backend/internal/infrastructure/remote"
)

// brokeredCredentials is the outcome of credential brokering for one
// subtask. remoteKeyPath names the temporary key planted on the source host
// and must be removed before the subtask returns, whatever the outcome.
// It can be non-empty even when brokering itself failed.
type brokeredCredentials struct {
	credentialOptions
	remoteKeyPath string
}

// brokerCredentials gives the source host what it needs to authenticate to
// the target non-interactively.
func (s *transferService) brokerCredentials(ctx context.Context, source ports.RemoteConn, tgt ports.Endpoint) (brokeredCredentials, error) {
	var out brokeredCredentials

	switch tgt.AuthKind {
	case string(domain.AuthKindKey):
		if tgt.PrivateKey == "" {
			return out, fmt.Errorf("%w: key auth configured but no private key stored", ErrTransferCredentialState)
		}

		keyPath := path.Join(s.tempDir(), ".hoplink-key-"+randomHex(8))
		uploadCtx, cancel := context.WithTimeout(ctx, s.uploadTimeout())
		defer cancel()

		if err := source.Upload(uploadCtx, keyPath, 0o600, strings.NewReader(tgt.PrivateKey)); err != nil {
			if ctx.Err() != nil {
				return out, ErrTransferCancelled
			}
			if uploadCtx.Err() == context.DeadlineExceeded {
				return out, fmt.Errorf("%w: key upload exceeded %s", ErrTransferTimeout, s.uploadTimeout())
			}
			return out, fmt.Errorf("%w: key upload: %v", ErrTransferConnection, err)
		}
		out.remoteKeyPath = keyPath
		out.IdentityFile = keyPath

		if tgt.Passphrase != "" {
			if err := s.requireRelayHelper(ctx, source); err != nil {
				return out, err
			}
			out.PassphraseSecret = tgt.Passphrase
		}

	default: // password
		if err := s.requireRelayHelper(ctx, source); err != nil {
			return out, err
		}
		out.PasswordSecret = tgt.Password
	}

	return out, nil
}

// requireRelayHelper fails with a credential-capability error when the
// password/passphrase relay tool is missing on the source host.
func (s *transferService) requireRelayHelper(ctx context.Context, source ports.RemoteConn) error {
	helperPath, err := remote.ProbeExecutable(ctx, source, relayHelper)
	if err != nil {
		if ctx.Err() != nil {
			return ErrTransferCancelled
		}
		return fmt.Errorf("%w: probe %s: %v", ErrTransferConnection, relayHelper, err)
	}
	if helperPath == "" {
		return fmt.Errorf("%w: %s not found on source host", ErrTransferCredentialCapability, relayHelper)
	}
	return nil
}

func randomHex(n int) string {
	buf := make([]byte, n)
	rand.Read(buf)
	return hex.EncodeToString(buf)
}
