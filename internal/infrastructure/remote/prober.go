package remote

import (
	"context"
	"strings"

	"github.com/hoplink/backend/internal/core/ports"
)

// ProbeExecutable resolves the path of a named executable on the connected
// host. An empty path with a nil error means the tool is absent; an error
// means the probe itself could not run.
func ProbeExecutable(ctx context.Context, conn ports.RemoteConn, name string) (string, error) {
	res, err := conn.Exec(ctx, "command -v "+name, nil)
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		return "", nil
	}

	path := strings.TrimSpace(res.Stdout)
	if i := strings.IndexByte(path, '\n'); i >= 0 {
		path = path[:i]
	}
	return path, nil
}
