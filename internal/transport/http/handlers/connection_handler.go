package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/hoplink/backend/internal/core/ports"
	"github.com/hoplink/backend/internal/core/services"
	"github.com/hoplink/backend/internal/infrastructure/logger"
	"github.com/hoplink/backend/internal/transport/http/dto"
)

type ConnectionHandler struct {
	service ports.ConnectionService
	logger  *logger.Logger
}

func NewConnectionHandler(service ports.ConnectionService, logger *logger.Logger) *ConnectionHandler {
	return &ConnectionHandler{service: service, logger: logger}
}

func (h *ConnectionHandler) CreateConnection(c *fiber.Ctx) error {
	var req dto.CreateConnectionRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Warnw("connection_create_body_parse_failed", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "invalid request body",
		})
	}

	if errors := req.Validate(); len(errors) > 0 {
		h.logger.Warnw("connection_create_validation_failed", "details", errors)
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error:   "validation failed",
			Details: errors,
		})
	}

	input := ports.CreateConnectionInput{
		Name:       req.Name,
		Host:       req.Host,
		Port:       req.GetPort(),
		Username:   req.Username,
		AuthKind:   req.GetAuthKind(),
		Password:   req.Password,
		PrivateKey: req.PrivateKey,
		Passphrase: req.Passphrase,
	}

	conn, err := h.service.CreateConnection(c.Context(), input)
	if err != nil {
		if err == services.ErrConnectionInvalidInput {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: err.Error(),
			})
		}
		h.logger.Errorw("connection_create_failed", "host", req.Host, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: err.Error(),
		})
	}

	h.logger.Infow("connection_create_success", "id", conn.ID, "host", conn.Host)
	return c.Status(fiber.StatusCreated).JSON(dto.ConnectionToResponse(conn))
}

func (h *ConnectionHandler) GetConnections(c *fiber.Ctx) error {
	conns, err := h.service.GetConnections(c.Context())
	if err != nil {
		h.logger.Errorw("connection_list_failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: err.Error(),
		})
	}
	return c.JSON(dto.ConnectionsToResponse(conns))
}

func (h *ConnectionHandler) GetConnection(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "invalid connection id",
		})
	}

	conn, err := h.service.GetConnectionByID(c.Context(), uint(id))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: "connection not found",
		})
	}
	return c.JSON(dto.ConnectionToResponse(conn))
}

func (h *ConnectionHandler) DeleteConnection(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "invalid connection id",
		})
	}

	if err := h.service.DeleteConnection(c.Context(), uint(id)); err != nil {
		if err == services.ErrConnectionNotFound {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: "connection not found",
			})
		}
		h.logger.Errorw("connection_delete_failed", "id", id, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: err.Error(),
		})
	}

	return c.JSON(dto.SuccessResponse{Message: "connection deleted"})
}
