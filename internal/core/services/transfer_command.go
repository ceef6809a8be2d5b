package services

import (
	"fmt"
	"strings"

	"github.com/hoplink/backend/internal/domain"
)

const (
	toolRsync = "rsync"
	toolScp   = "scp"

	// relayHelper feeds passwords and key passphrases to ssh
	// non-interactively on the source host.
	relayHelper = "sshpass"
)

// transferTarget is the non-secret slice of an endpoint the command builder
// needs. Secrets travel separately through credentialOptions.
type transferTarget struct {
	Host     string
	Port     int
	Username string
}

// credentialOptions is produced by the credential broker. At most one of the
// relayed secrets is set.
type credentialOptions struct {
	IdentityFile     string
	PasswordSecret   string
	PassphraseSecret string
}

// shellQuote wraps s in single quotes, escaping embedded single quotes so the
// result is safe to splice into a shell command.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// buildTransferCommand renders the full shell command executed on the source
// host. Pure and deterministic; every side effect lives in the executor.
func buildTransferCommand(tool string, item domain.TransferItem, tgt transferTarget, destDir string, creds credentialOptions) string {
	port := tgt.Port
	if port == 0 {
		port = 22
	}

	dest := strings.TrimSuffix(destDir, "/") + "/"
	remoteArg := shellQuote(fmt.Sprintf("%s@%s:%s", tgt.Username, tgt.Host, dest))

	src := item.Path
	var cmd string

	switch tool {
	case toolRsync:
		if item.IsDir {
			// Trailing slash copies the directory's contents, not the
			// directory itself.
			src = strings.TrimSuffix(src, "/") + "/"
		}
		transport := fmt.Sprintf("ssh -o StrictHostKeyChecking=no -o UserKnownHostsFile=/dev/null -p %d", port)
		if creds.IdentityFile != "" {
			transport += " -i " + creds.IdentityFile
		}
		cmd = fmt.Sprintf("rsync -az --info=progress2 -e %s %s %s",
			shellQuote(transport), shellQuote(src), remoteArg)

	default: // scp
		parts := []string{
			"scp",
			"-o", "StrictHostKeyChecking=no",
			"-o", "UserKnownHostsFile=/dev/null",
			"-P", fmt.Sprintf("%d", port),
		}
		if creds.IdentityFile != "" {
			parts = append(parts, "-i", shellQuote(creds.IdentityFile))
		}
		if item.IsDir {
			parts = append(parts, "-r")
		}
		parts = append(parts, shellQuote(src), remoteArg)
		cmd = strings.Join(parts, " ")
	}

	switch {
	case creds.PassphraseSecret != "":
		cmd = fmt.Sprintf("%s -P passphrase -p %s %s", relayHelper, shellQuote(creds.PassphraseSecret), cmd)
	case creds.PasswordSecret != "":
		cmd = fmt.Sprintf("%s -p %s %s", relayHelper, shellQuote(creds.PasswordSecret), cmd)
	}

	return cmd
}
