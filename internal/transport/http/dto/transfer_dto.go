package dto

import (
	"time"

	"github.com/hoplink/backend/internal/domain"
)

type TransferItemRequest struct {
	Path  string `json:"path"`
	IsDir bool   `json:"is_dir"`
}

type CreateTransferRequest struct {
	SourceID  uint                  `json:"source_id"`
	Items     []TransferItemRequest `json:"items"`
	TargetIDs []uint                `json:"target_ids"`
	DestDir   string                `json:"dest_dir"`
	Tool      string                `json:"tool,omitempty"`
}

func (r *CreateTransferRequest) Validate() []string {
	var errors []string

	if r.SourceID == 0 {
		errors = append(errors, "source_id is required")
	}
	if len(r.Items) == 0 {
		errors = append(errors, "at least one item is required")
	}
	for _, item := range r.Items {
		if item.Path == "" {
			errors = append(errors, "item path must not be empty")
			break
		}
	}
	if len(r.TargetIDs) == 0 {
		errors = append(errors, "at least one target is required")
	}
	for _, id := range r.TargetIDs {
		if id == r.SourceID {
			errors = append(errors, "source cannot be one of the targets")
			break
		}
	}
	if r.DestDir == "" {
		errors = append(errors, "dest_dir is required")
	}
	if r.Tool != "" && r.Tool != "auto" && r.Tool != "rsync" && r.Tool != "scp" {
		errors = append(errors, "tool must be one of: auto, rsync, scp")
	}

	return errors
}

func (r *CreateTransferRequest) ToRequest() domain.TransferRequest {
	items := make([]domain.TransferItem, len(r.Items))
	for i, item := range r.Items {
		items[i] = domain.TransferItem{Path: item.Path, IsDir: item.IsDir}
	}

	tool := domain.ToolPreference(r.Tool)
	if tool == "" {
		tool = domain.ToolPreferenceAuto
	}

	return domain.TransferRequest{
		SourceID:  r.SourceID,
		Items:     items,
		TargetIDs: r.TargetIDs,
		DestDir:   r.DestDir,
		Tool:      tool,
	}
}

type SubTaskResponse struct {
	ID         string     `json:"id"`
	TargetID   uint       `json:"target_id"`
	Path       string     `json:"path"`
	IsDir      bool       `json:"is_dir"`
	Status     string     `json:"status"`
	Progress   int        `json:"progress"`
	Message    string     `json:"message,omitempty"`
	ToolUsed   string     `json:"tool_used,omitempty"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

type TransferResponse struct {
	ID        string            `json:"id"`
	Status    string            `json:"status"`
	Progress  int               `json:"progress"`
	SourceID  uint              `json:"source_id"`
	DestDir   string            `json:"dest_dir"`
	Tool      string            `json:"tool"`
	SubTasks  []SubTaskResponse `json:"subtasks"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func TaskToResponse(task *domain.TransferTask) TransferResponse {
	subtasks := make([]SubTaskResponse, len(task.SubTasks))
	for i, st := range task.SubTasks {
		subtasks[i] = SubTaskResponse{
			ID:         st.ID,
			TargetID:   st.TargetID,
			Path:       st.Item.Path,
			IsDir:      st.Item.IsDir,
			Status:     string(st.Status),
			Progress:   st.Progress,
			Message:    st.Message,
			ToolUsed:   st.ToolUsed,
			StartedAt:  st.StartedAt,
			FinishedAt: st.FinishedAt,
		}
	}

	return TransferResponse{
		ID:        task.ID,
		Status:    string(task.Status),
		Progress:  task.Progress,
		SourceID:  task.Request.SourceID,
		DestDir:   task.Request.DestDir,
		Tool:      string(task.Request.Tool),
		SubTasks:  subtasks,
		CreatedAt: task.CreatedAt,
		UpdatedAt: task.UpdatedAt,
	}
}

func TasksToResponse(tasks []*domain.TransferTask) []TransferResponse {
	responses := make([]TransferResponse, len(tasks))
	for i, task := range tasks {
		responses[i] = TaskToResponse(task)
	}
	return responses
}

type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}
