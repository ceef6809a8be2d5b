package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/hoplink/backend/internal/core/ports"
	"github.com/hoplink/backend/internal/infrastructure/logger"
	"github.com/hoplink/backend/internal/transport/http/dto"
)

type TransferHandler struct {
	service ports.TransferService
	logger  *logger.Logger
}

func NewTransferHandler(service ports.TransferService, logger *logger.Logger) *TransferHandler {
	return &TransferHandler{service: service, logger: logger}
}

func ownerID(c *fiber.Ctx) string {
	if owner, ok := c.Locals("owner_id").(string); ok && owner != "" {
		return owner
	}
	return "admin"
}

func (h *TransferHandler) SubmitTransfer(c *fiber.Ctx) error {
	var req dto.CreateTransferRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Warnw("transfer_submit_body_parse_failed", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "invalid request body",
		})
	}

	if errors := req.Validate(); len(errors) > 0 {
		h.logger.Warnw("transfer_submit_validation_failed", "details", errors)
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error:   "validation failed",
			Details: errors,
		})
	}

	owner := ownerID(c)
	task, err := h.service.Submit(c.Context(), req.ToRequest(), owner)
	if err != nil {
		h.logger.Errorw("transfer_submit_failed", "owner", owner, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: err.Error(),
		})
	}

	h.logger.Infow("transfer_submit_success", "task_id", task.ID, "owner", owner)
	return c.Status(fiber.StatusCreated).JSON(dto.TaskToResponse(task))
}

func (h *TransferHandler) GetTransfers(c *fiber.Ctx) error {
	tasks := h.service.ListForOwner(ownerID(c))
	return c.JSON(dto.TasksToResponse(tasks))
}

func (h *TransferHandler) GetTransfer(c *fiber.Ctx) error {
	task := h.service.Get(c.Params("id"), ownerID(c))
	if task == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: "transfer not found",
		})
	}
	return c.JSON(dto.TaskToResponse(task))
}

func (h *TransferHandler) CancelTransfer(c *fiber.Ctx) error {
	taskID := c.Params("id")
	owner := ownerID(c)

	if !h.service.Cancel(taskID, owner) {
		h.logger.Warnw("transfer_cancel_not_found", "task_id", taskID, "owner", owner)
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: "transfer not found",
		})
	}

	h.logger.Infow("transfer_cancel_accepted", "task_id", taskID, "owner", owner)
	return c.JSON(dto.SuccessResponse{Message: "cancellation requested"})
}
