package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/authora/backend/internal/http/dto"
	"github.com/authora/backend/internal/middleware"
	"github.com/authora/backend/internal/services"
)

type DashboardHandler struct {
	linkService  *services.LinkService
	notifService *services.NotificationService
	log          *zap.Logger
}

func NewDashboardHandler(linkService *services.LinkService, notifService *services.NotificationService, log *zap.Logger) *DashboardHandler {
	return &DashboardHandler{linkService: linkService, notifService: notifService, log: log}
}

func (h *DashboardHandler) GetStats(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	stats, err := h.linkService.Stats(c.Context(), userID)
	if err != nil {
		h.log.Error("dashboard stats failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	unread, err := h.notifService.CountUnread(c.Context(), userID)
	if err != nil {
		h.log.Warn("unread count failed", zap.Error(err))
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: fiber.Map{
		"total_earnings":     stats.TotalEarnings,
		"total_transactions": stats.TotalTransactions,
		"active_links":       stats.ActiveLinks,
		"total_links":        stats.TotalLinks,
		"unread_count":       unread,
	}})
}
