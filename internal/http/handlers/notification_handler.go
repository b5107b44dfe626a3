package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/authora/backend/internal/http/dto"
	"github.com/authora/backend/internal/middleware"
	"github.com/authora/backend/internal/models"
	"github.com/authora/backend/internal/services"
)

type NotificationHandler struct {
	notifService *services.NotificationService
	log          *zap.Logger
}

func NewNotificationHandler(notifService *services.NotificationService, log *zap.Logger) *NotificationHandler {
	return &NotificationHandler{notifService: notifService, log: log}
}

func (h *NotificationHandler) ListNotifications(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	limit, offset := 50, 0
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			offset = n
		}
	}

	notifications, err := h.notifService.List(c.Context(), userID, limit, offset)
	if err != nil {
		h.log.Error("list notifications failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: notifications})
}

// CreateNotification lets the authenticated user add a manual entry,
// e.g. a system note from an integration.
func (h *NotificationHandler) CreateNotification(c *fiber.Ctx) error {
	var req dto.CreateNotificationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}
	if req.Title == "" || req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "title and message are required"})
	}

	userID := middleware.GetUserID(c)
	n := &models.Notification{
		UserID:  userID,
		Type:    req.Type,
		Title:   req.Title,
		Message: req.Message,
	}
	if err := h.notifService.Notify(c.Context(), n); err != nil {
		h.log.Error("create notification failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: n})
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid notification id"})
	}

	userID := middleware.GetUserID(c)
	if err := h.notifService.MarkRead(c.Context(), id, userID); err != nil {
		if errors.Is(err, services.ErrNotificationNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "notification not found"})
		}
		h.log.Error("mark read failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}
