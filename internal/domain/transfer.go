package domain

import "time"

// ==================== ENUMS ====================

type TransferStatus string

const (
	TransferStatusQueued             TransferStatus = "queued"
	TransferStatusInProgress         TransferStatus = "in_progress"
	TransferStatusCancelling         TransferStatus = "cancelling"
	TransferStatusCompleted          TransferStatus = "completed"
	TransferStatusPartiallyCompleted TransferStatus = "partially_completed"
	TransferStatusFailed             TransferStatus = "failed"
	TransferStatusCancelled          TransferStatus = "cancelled"
)

// IsTerminal reports whether no further status change is allowed.
func (s TransferStatus) IsTerminal() bool {
	switch s {
	case TransferStatusCompleted, TransferStatusPartiallyCompleted,
		TransferStatusFailed, TransferStatusCancelled:
		return true
	}
	return false
}

type SubTaskStatus string

const (
	SubTaskStatusQueued       SubTaskStatus = "queued"
	SubTaskStatusConnecting   SubTaskStatus = "connecting"
	SubTaskStatusTransferring SubTaskStatus = "transferring"
	SubTaskStatusCompleted    SubTaskStatus = "completed"
	SubTaskStatusFailed       SubTaskStatus = "failed"
	SubTaskStatusCancelled    SubTaskStatus = "cancelled"
)

func (s SubTaskStatus) IsTerminal() bool {
	switch s {
	case SubTaskStatusCompleted, SubTaskStatusFailed, SubTaskStatusCancelled:
		return true
	}
	return false
}

// IsActive reports whether the subtask currently holds a concurrency slot.
func (s SubTaskStatus) IsActive() bool {
	return s == SubTaskStatusConnecting || s == SubTaskStatusTransferring
}

type ToolPreference string

const (
	ToolPreferenceAuto  ToolPreference = "auto"
	ToolPreferenceRsync ToolPreference = "rsync"
	ToolPreferenceScp   ToolPreference = "scp"
)

// ==================== ENTITIES ====================

// TransferItem is one file or directory staged on the source host.
type TransferItem struct {
	Path  string `json:"path"`
	IsDir bool   `json:"is_dir"`
}

// TransferRequest is the originating request a task was expanded from.
// Source and targets reference connection profiles by ID.
type TransferRequest struct {
	SourceID  uint           `json:"source_id"`
	Items     []TransferItem `json:"items"`
	TargetIDs []uint         `json:"target_ids"`
	DestDir   string         `json:"dest_dir"`
	Tool      ToolPreference `json:"tool"`
}

// TransferSubTask moves exactly one item to exactly one target.
type TransferSubTask struct {
	ID         string        `json:"id"`
	TaskID     string        `json:"task_id"`
	TargetID   uint          `json:"target_id"`
	Item       TransferItem  `json:"item"`
	Status     SubTaskStatus `json:"status"`
	Progress   int           `json:"progress"`
	Message    string        `json:"message,omitempty"`
	ToolUsed   string        `json:"tool_used,omitempty"`
	StartedAt  *time.Time    `json:"started_at,omitempty"`
	FinishedAt *time.Time    `json:"finished_at,omitempty"`
}

// TransferTask owns the full cross-product of (target, item) subtasks,
// fixed at creation. Held in memory until process restart.
type TransferTask struct {
	ID        string             `json:"id"`
	OwnerID   string             `json:"owner_id"`
	Status    TransferStatus     `json:"status"`
	Progress  int                `json:"progress"`
	Request   TransferRequest    `json:"request"`
	SubTasks  []*TransferSubTask `json:"subtasks"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// Clone returns a deep copy safe to hand to callers while the task mutates.
func (t *TransferTask) Clone() *TransferTask {
	cp := *t
	cp.SubTasks = make([]*TransferSubTask, len(t.SubTasks))
	for i, st := range t.SubTasks {
		stCopy := *st
		cp.SubTasks[i] = &stCopy
	}
	return &cp
}
