package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hoplink/backend/internal/config"
	"github.com/hoplink/backend/internal/core/ports"
	"github.com/hoplink/backend/internal/domain"
	"github.com/hoplink/backend/internal/infrastructure/logger"
)

const (
	defaultMaxConcurrent  = 5
	defaultCommandTimeout = 5 * time.Minute
	defaultUploadTimeout  = 30 * time.Second
	defaultTempDir        = "/tmp"
)

// transferService owns the in-memory task registry and drives task
// execution. Tasks live until process restart; nothing is persisted.
type transferService struct {
	dialer    ports.RemoteDialer
	directory ports.ConnectionDirectory
	logger    *logger.Logger
	cfg       config.TransferConfig

	mu    sync.RWMutex
	tasks map[string]*trackedTask
}

// trackedTask pairs a task with its cancellation token. All mutation of the
// task and its subtasks happens under the service mutex, which totally
// orders subtask updates and the rollups they trigger.
type trackedTask struct {
	task      *domain.TransferTask
	cancel    context.CancelFunc
	cancelled bool
}

type TransferServiceConfig struct {
	Dialer    ports.RemoteDialer
	Directory ports.ConnectionDirectory
	Logger    *logger.Logger
	Config    config.TransferConfig
}

func NewTransferService(cfg TransferServiceConfig) ports.TransferService {
	return &transferService{
		dialer:    cfg.Dialer,
		directory: cfg.Directory,
		logger:    cfg.Logger,
		cfg:       cfg.Config,
		tasks:     make(map[string]*trackedTask),
	}
}

func (s *transferService) maxConcurrent() int {
	if s.cfg.MaxConcurrent > 0 {
		return s.cfg.MaxConcurrent
	}
	return defaultMaxConcurrent
}

func (s *transferService) commandTimeout() time.Duration {
	if s.cfg.CommandTimeout > 0 {
		return s.cfg.CommandTimeout
	}
	return defaultCommandTimeout
}

func (s *transferService) uploadTimeout() time.Duration {
	if s.cfg.UploadTimeout > 0 {
		return s.cfg.UploadTimeout
	}
	return defaultUploadTimeout
}

func (s *transferService) tempDir() string {
	if s.cfg.TempDir != "" {
		return s.cfg.TempDir
	}
	return defaultTempDir
}

// ==================== Public API ====================

func (s *transferService) Submit(ctx context.Context, req domain.TransferRequest, ownerID string) (*domain.TransferTask, error) {
	if req.SourceID == 0 || len(req.Items) == 0 || len(req.TargetIDs) == 0 || req.DestDir == "" {
		return nil, ErrConnectionInvalidInput
	}
	if req.Tool == "" {
		req.Tool = domain.ToolPreferenceAuto
	}

	now := time.Now()
	task := &domain.TransferTask{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Status:    domain.TransferStatusQueued,
		Request:   req,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// One subtask per (target, item) pair, fixed for the task's lifetime.
	for _, targetID := range req.TargetIDs {
		for _, item := range req.Items {
			task.SubTasks = append(task.SubTasks, &domain.TransferSubTask{
				ID:       uuid.New().String(),
				TaskID:   task.ID,
				TargetID: targetID,
				Item:     item,
				Status:   domain.SubTaskStatusQueued,
			})
		}
	}

	// The run outlives the submitting request, so the task gets its own
	// cancellation token instead of inheriting the HTTP context.
	runCtx, cancel := context.WithCancel(context.Background())
	tracked := &trackedTask{task: task, cancel: cancel}

	s.mu.Lock()
	s.tasks[task.ID] = tracked
	snapshot := task.Clone()
	s.mu.Unlock()

	s.logger.Infow("transfer_submitted",
		"task_id", task.ID,
		"owner", ownerID,
		"source_id", req.SourceID,
		"targets", len(req.TargetIDs),
		"items", len(req.Items),
		"subtasks", len(task.SubTasks),
		"tool", req.Tool,
	)

	go s.run(runCtx, tracked)

	return snapshot, nil
}

func (s *transferService) Cancel(taskID, ownerID string) bool {
	s.mu.Lock()
	tracked, ok := s.tasks[taskID]
	if !ok || tracked.task.OwnerID != ownerID {
		s.mu.Unlock()
		return false
	}

	first := !tracked.cancelled
	tracked.cancelled = true
	task := tracked.task

	now := time.Now()
	for _, st := range task.SubTasks {
		// Only queued subtasks flip immediately; in-flight ones are
		// unwound cooperatively and finalized by their executor.
		if st.Status == domain.SubTaskStatusQueued {
			st.Status = domain.SubTaskStatusCancelled
			st.Message = "cancelled by user"
			finished := now
			st.FinishedAt = &finished
		}
	}
	if !task.Status.IsTerminal() {
		task.Status = domain.TransferStatusCancelling
	}
	task.UpdatedAt = now
	s.mu.Unlock()

	tracked.cancel()

	if first {
		s.logger.Infow("transfer_cancel_requested", "task_id", taskID, "owner", ownerID)
	}
	return true
}

func (s *transferService) Get(taskID, ownerID string) *domain.TransferTask {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tracked, ok := s.tasks[taskID]
	if !ok || tracked.task.OwnerID != ownerID {
		return nil
	}
	return tracked.task.Clone()
}

func (s *transferService) ListForOwner(ownerID string) []*domain.TransferTask {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.TransferTask
	for _, tracked := range s.tasks {
		if tracked.task.OwnerID == ownerID {
			out = append(out, tracked.task.Clone())
		}
	}
	return out
}

// ==================== Task execution ====================

func (s *transferService) run(ctx context.Context, tracked *trackedTask) {
	defer tracked.cancel()

	task := tracked.task

	sourceEp, err := s.directory.Resolve(ctx, task.Request.SourceID)
	if err != nil {
		s.failAll(tracked, fmt.Sprintf("source host resolution failed: %v", err))
		return
	}

	if ctx.Err() != nil {
		s.finalize(tracked)
		return
	}

	// The control connection is owned by the task and shared by every
	// subtask; each subtask runs its commands on its own channel.
	control, err := s.dialer.Connect(ctx, sourceEp)
	if err != nil {
		if ctx.Err() != nil {
			s.finalize(tracked)
		} else {
			s.failAll(tracked, fmt.Sprintf("source control connection failed: %v", err))
		}
		return
	}

	s.runSubTasks(ctx, tracked, control)

	control.Close()
	s.finalize(tracked)
}

// failAll is the control-connection failure path: without the shared source
// connection no subtask can proceed, so the whole task fails.
func (s *transferService) failAll(tracked *trackedTask, message string) {
	s.mu.Lock()
	task := tracked.task
	now := time.Now()
	for _, st := range task.SubTasks {
		if !st.Status.IsTerminal() {
			st.Status = domain.SubTaskStatusFailed
			st.Message = message
			finished := now
			st.FinishedAt = &finished
		}
	}
	if !task.Status.IsTerminal() {
		task.Status = domain.TransferStatusFailed
	}
	task.Progress = overallProgress(task.SubTasks)
	task.UpdatedAt = now
	s.mu.Unlock()

	s.logger.Errorw("transfer_failed", "task_id", task.ID, "error", message)
}

func (s *transferService) finalize(tracked *trackedTask) {
	s.mu.Lock()
	task := tracked.task
	if !task.Status.IsTerminal() {
		if tracked.cancelled {
			task.Status = domain.TransferStatusCancelled
		} else if status := rollupStatus(task.SubTasks); status != "" {
			task.Status = status
		}
	}
	task.Progress = overallProgress(task.SubTasks)
	task.UpdatedAt = time.Now()
	status := task.Status
	progress := task.Progress
	s.mu.Unlock()

	s.logger.Infow("transfer_finished", "task_id", task.ID, "status", status, "progress", progress)
}

// mutateSubTask applies fn under the registry lock unless the subtask is
// already terminal, then refreshes the task's rolled-up status and progress
// before the lock is released. Returns false when the subtask was terminal.
func (s *transferService) mutateSubTask(task *domain.TransferTask, st *domain.TransferSubTask, fn func(*domain.TransferSubTask)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st.Status.IsTerminal() {
		return false
	}
	fn(st)

	if !task.Status.IsTerminal() && task.Status != domain.TransferStatusCancelling {
		if status := rollupStatus(task.SubTasks); status != "" {
			task.Status = status
		}
	}
	task.Progress = overallProgress(task.SubTasks)
	task.UpdatedAt = time.Now()
	return true
}

// ==================== Status rollup ====================

// rollupStatus derives the overall task status from the subtask status
// multiset. Returns "" when there is nothing to derive from.
func rollupStatus(subtasks []*domain.TransferSubTask) domain.TransferStatus {
	n := len(subtasks)
	if n == 0 {
		return ""
	}

	var completed, failed, active, queued int
	for _, st := range subtasks {
		switch {
		case st.Status == domain.SubTaskStatusCompleted:
			completed++
		case st.Status == domain.SubTaskStatusFailed:
			failed++
		case st.Status.IsActive():
			active++
		case st.Status == domain.SubTaskStatusQueued:
			queued++
		}
	}

	switch {
	case failed == n:
		return domain.TransferStatusFailed
	case completed == n:
		return domain.TransferStatusCompleted
	case failed > 0 && completed+failed == n:
		return domain.TransferStatusPartiallyCompleted
	case active > 0, queued > 0 && (failed > 0 || completed > 0):
		return domain.TransferStatusInProgress
	case queued == n:
		return domain.TransferStatusQueued
	default:
		// Mixes involving cancelled subtasks with nothing active land
		// here; treated as partial completion.
		return domain.TransferStatusPartiallyCompleted
	}
}

// overallProgress is the arithmetic mean of subtask progress, with failed
// subtasks pinned to 0 and completed ones to 100.
func overallProgress(subtasks []*domain.TransferSubTask) int {
	if len(subtasks) == 0 {
		return 0
	}

	total := 0
	for _, st := range subtasks {
		switch st.Status {
		case domain.SubTaskStatusCompleted:
			total += 100
		case domain.SubTaskStatusFailed:
			// contributes 0
		default:
			total += st.Progress
		}
	}
	return total / len(subtasks)
}
