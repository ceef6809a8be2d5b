package handlers

import (
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/hoplink/backend/internal/core/ports"
	"github.com/hoplink/backend/internal/infrastructure/logger"
	"github.com/hoplink/backend/internal/transport/http/dto"
)

const feedInterval = 500 * time.Millisecond

// TransferFeedHandler streams task snapshots over a websocket so the UI can
// render live progress without polling the REST endpoint.
type TransferFeedHandler struct {
	service ports.TransferService
	logger  *logger.Logger
}

func NewTransferFeedHandler(service ports.TransferService, logger *logger.Logger) *TransferFeedHandler {
	return &TransferFeedHandler{service: service, logger: logger}
}

func (h *TransferFeedHandler) Handle(c *websocket.Conn) {
	taskID := c.Params("id")

	owner := "admin"
	if v, ok := c.Locals("owner_id").(string); ok && v != "" {
		owner = v
	}

	task := h.service.Get(taskID, owner)
	if task == nil {
		h.logger.Warnw("transfer_feed_not_found", "task_id", taskID, "owner", owner)
		c.WriteJSON(dto.ErrorResponse{Error: "transfer not found"})
		c.Close()
		return
	}

	h.logger.Infow("transfer_feed_opened", "task_id", taskID, "owner", owner)

	ticker := time.NewTicker(feedInterval)
	defer ticker.Stop()
	defer c.Close()

	for {
		if err := c.WriteJSON(dto.TaskToResponse(task)); err != nil {
			return
		}
		if task.Status.IsTerminal() {
			h.logger.Infow("transfer_feed_closed", "task_id", taskID, "status", task.Status)
			return
		}

		<-ticker.C
		task = h.service.Get(taskID, owner)
		if task == nil {
			return
		}
	}
}
