package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hoplink/backend/internal/core/ports"
	"github.com/hoplink/backend/internal/domain"
	"github.com/hoplink/backend/internal/infrastructure/remote"
	"golang.org/x/sync/errgroup"
)

// scpProgress stands in for real progress while scp runs; the tool emits no
// usable progress signal.
const scpProgress = 50

var progressRe = regexp.MustCompile(`(\d{1,3})%`)

// runSubTasks executes every subtask exactly once through a bounded worker
// pool. Workers pull indexes from a shared channel fed in submission order,
// so launches are ordered while completions are not. Returns only after all
// launched subtasks have finished, cancellation included.
func (s *transferService) runSubTasks(ctx context.Context, tracked *trackedTask, control ports.RemoteConn) {
	subtasks := tracked.task.SubTasks

	indexes := make(chan int)
	var g errgroup.Group

	for w := 0; w < s.maxConcurrent(); w++ {
		g.Go(func() error {
			for idx := range indexes {
				s.runSubTask(ctx, tracked, subtasks[idx], control)
			}
			return nil
		})
	}

feed:
	for i := range subtasks {
		select {
		case indexes <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(indexes)

	g.Wait()
}

// runSubTask drives one subtask to a terminal state. Every error is absorbed
// here; nothing propagates to the scheduler.
func (s *transferService) runSubTask(ctx context.Context, tracked *trackedTask, st *domain.TransferSubTask, control ports.RemoteConn) {
	task := tracked.task

	if ctx.Err() != nil {
		s.finishSubTask(task, st, domain.SubTaskStatusCancelled, "cancelled before start")
		return
	}

	started := s.mutateSubTask(task, st, func(st *domain.TransferSubTask) {
		st.Status = domain.SubTaskStatusConnecting
		now := time.Now()
		st.StartedAt = &now
	})
	if !started {
		// Finalized before launch (e.g. cancelled while queued); skip.
		return
	}

	err := s.executeSubTask(ctx, task, st, control)
	switch {
	case err == nil:
		s.finishSubTask(task, st, domain.SubTaskStatusCompleted, "transfer completed")
		s.logger.Infow("subtask_completed", "task_id", task.ID, "subtask_id", st.ID, "target_id", st.TargetID, "item", st.Item.Path, "tool", st.ToolUsed)
	case errors.Is(err, ErrTransferCancelled):
		s.finishSubTask(task, st, domain.SubTaskStatusCancelled, "cancelled")
		s.logger.Infow("subtask_cancelled", "task_id", task.ID, "subtask_id", st.ID)
	default:
		s.finishSubTask(task, st, domain.SubTaskStatusFailed, err.Error())
		s.logger.Warnw("subtask_failed", "task_id", task.ID, "subtask_id", st.ID, "target_id", st.TargetID, "item", st.Item.Path, "error", err)
	}
}

// executeSubTask performs probing, target preparation, credential brokering
// and command execution for one subtask. A nil return means the transfer
// completed with exit code 0.
func (s *transferService) executeSubTask(ctx context.Context, task *domain.TransferTask, st *domain.TransferSubTask, control ports.RemoteConn) error {
	req := task.Request

	targetEp, err := s.directory.Resolve(ctx, st.TargetID)
	if err != nil {
		return fmt.Errorf("%w: resolve target %d: %v", ErrTransferConnection, st.TargetID, err)
	}

	rsyncPath, err := remote.ProbeExecutable(ctx, control, toolRsync)
	if err != nil {
		return s.transportErr(ctx, err, "probe rsync on source")
	}
	scpPath, err := remote.ProbeExecutable(ctx, control, toolScp)
	if err != nil {
		return s.transportErr(ctx, err, "probe scp on source")
	}

	// Target-side capability check and directory preparation share one
	// short-lived private connection, closed before the transfer starts.
	targetConn, err := s.dialer.Connect(ctx, targetEp)
	if err != nil {
		if ctx.Err() != nil {
			return ErrTransferCancelled
		}
		return fmt.Errorf("%w: target %s: %v", ErrTransferConnection, targetEp.Host, err)
	}

	tool, err := s.selectTool(ctx, req.Tool, rsyncPath, scpPath, targetConn)
	if err == nil {
		err = s.prepareDestDir(ctx, targetConn, req.DestDir)
	}
	targetConn.Close()
	if err != nil {
		return err
	}

	s.mutateSubTask(task, st, func(st *domain.TransferSubTask) {
		st.ToolUsed = tool
	})

	creds, brokerErr := s.brokerCredentials(ctx, control, targetEp)
	if creds.remoteKeyPath != "" {
		defer s.removeCredentialArtifact(control, creds.remoteKeyPath)
	}
	if brokerErr != nil {
		return brokerErr
	}

	cmd := buildTransferCommand(tool, st.Item, transferTarget{
		Host:     targetEp.Host,
		Port:     targetEp.Port,
		Username: targetEp.Username,
	}, req.DestDir, creds.credentialOptions)

	transferring := s.mutateSubTask(task, st, func(st *domain.TransferSubTask) {
		st.Status = domain.SubTaskStatusTransferring
		if tool == toolScp {
			st.Progress = scpProgress
		}
	})
	if !transferring {
		return ErrTransferCancelled
	}

	var onStdout func(string)
	if tool == toolRsync {
		onStdout = func(line string) {
			if p, ok := parseProgress(line); ok {
				s.mutateSubTask(task, st, func(st *domain.TransferSubTask) {
					st.Progress = p
				})
			}
		}
	}

	execCtx, cancel := context.WithTimeout(ctx, s.commandTimeout())
	defer cancel()

	res, err := control.Exec(execCtx, cmd, onStdout)
	if err != nil {
		if ctx.Err() != nil {
			return ErrTransferCancelled
		}
		if execCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("%w: command exceeded %s", ErrTransferTimeout, s.commandTimeout())
		}
		return fmt.Errorf("%w: %v", ErrTransferConnection, err)
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("%w: exit code %d: %s", ErrTransferExecution, res.ExitCode, trimOutput(res.Stderr))
	}

	return nil
}

// selectTool picks the transfer tool per the request preference. Automatic
// selection prefers rsync only when present on both ends.
func (s *transferService) selectTool(ctx context.Context, pref domain.ToolPreference, rsyncPath, scpPath string, target ports.RemoteConn) (string, error) {
	switch pref {
	case domain.ToolPreferenceRsync:
		if rsyncPath == "" {
			return "", fmt.Errorf("%w: rsync not found on source host", ErrTransferCapability)
		}
		targetRsync, err := remote.ProbeExecutable(ctx, target, toolRsync)
		if err != nil {
			return "", s.transportErr(ctx, err, "probe rsync on target")
		}
		if targetRsync == "" {
			return "", fmt.Errorf("%w: rsync not found on target host", ErrTransferCapability)
		}
		return toolRsync, nil

	case domain.ToolPreferenceScp:
		if scpPath == "" {
			return "", fmt.Errorf("%w: scp not found on source host", ErrTransferCapability)
		}
		return toolScp, nil

	default: // automatic
		if rsyncPath != "" {
			targetRsync, err := remote.ProbeExecutable(ctx, target, toolRsync)
			if err != nil {
				return "", s.transportErr(ctx, err, "probe rsync on target")
			}
			if targetRsync != "" {
				return toolRsync, nil
			}
		}
		if scpPath != "" {
			return toolScp, nil
		}
		return "", fmt.Errorf("%w: neither rsync nor scp available on source host", ErrTransferCapability)
	}
}

func (s *transferService) prepareDestDir(ctx context.Context, target ports.RemoteConn, destDir string) error {
	res, err := target.Exec(ctx, "mkdir -p "+shellQuote(destDir), nil)
	if err != nil {
		return s.transportErr(ctx, err, "prepare destination directory")
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("%w: mkdir %s: %s", ErrTransferDirectoryPreparation, destDir, trimOutput(res.Stderr))
	}
	return nil
}

// removeCredentialArtifact removes a planted key file from the source host.
// Runs on a fresh context so cleanup still happens after cancellation;
// failures are logged, never escalated.
func (s *transferService) removeCredentialArtifact(control ports.RemoteConn, keyPath string) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	res, err := control.Exec(ctx, "rm -f "+shellQuote(keyPath), nil)
	if err != nil || res.ExitCode != 0 {
		s.logger.Warnw("credential_cleanup_failed", "path", keyPath, "exit_code", res.ExitCode, "error", err)
		return
	}
	s.logger.Debugw("credential_cleanup_ok", "path", keyPath)
}

func (s *transferService) finishSubTask(task *domain.TransferTask, st *domain.TransferSubTask, status domain.SubTaskStatus, message string) {
	s.mutateSubTask(task, st, func(st *domain.TransferSubTask) {
		st.Status = status
		st.Message = message
		if status == domain.SubTaskStatusCompleted {
			st.Progress = 100
		}
		now := time.Now()
		st.FinishedAt = &now
	})
}

func (s *transferService) transportErr(ctx context.Context, err error, op string) error {
	if ctx.Err() != nil {
		return ErrTransferCancelled
	}
	return fmt.Errorf("%w: %s: %v", ErrTransferConnection, op, err)
}

// parseProgress extracts a percentage marker from one line of tool output.
func parseProgress(line string) (int, bool) {
	m := progressRe.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	p, err := strconv.Atoi(m[1])
	if err != nil || p < 0 || p > 100 {
		return 0, false
	}
	return p, true
}

// trimOutput reduces command output to a log-friendly excerpt.
func trimOutput(out string) string {
	out = strings.TrimSpace(out)
	const limit = 400
	if len(out) > limit {
		out = out[:limit] + "..."
	}
	return out
}
