package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/authora/backend/internal/http/dto"
	"github.com/authora/backend/internal/middleware"
	"github.com/authora/backend/internal/models"
	"github.com/authora/backend/internal/services"
)

type LinkHandler struct {
	linkService *services.LinkService
	log         *zap.Logger
}

func NewLinkHandler(linkService *services.LinkService, log *zap.Logger) *LinkHandler {
	return &LinkHandler{linkService: linkService, log: log}
}

func (h *LinkHandler) CreateLink(c *fiber.Ctx) error {
	var req dto.CreateLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}
	if req.Name == "" || req.Description == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "name and description are required"})
	}

	link := &models.Link{
		Name:        req.Name,
		Description: req.Description,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Website:     req.Website,
	}

	userID := middleware.GetUserID(c)
	if err := h.linkService.Create(c.Context(), userID, link); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: link})
}

func (h *LinkHandler) ListLinks(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	links, err := h.linkService.List(c.Context(), userID)
	if err != nil {
		h.log.Error("list links failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	if links == nil {
		links = []models.Link{}
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: links})
}

func (h *LinkHandler) GetLink(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid link id"})
	}

	userID := middleware.GetUserID(c)
	link, err := h.linkService.GetOwned(c.Context(), id, userID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "link not found"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: link})
}

// GetPublicLink serves the payment page payload; no auth, earnings stay
// hidden.
func (h *LinkHandler) GetPublicLink(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid link id"})
	}

	link, err := h.linkService.GetPublic(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "link not found"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: link})
}

func (h *LinkHandler) UpdateLink(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid link id"})
	}

	var req dto.UpdateLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}

	userID := middleware.GetUserID(c)
	link, err := h.linkService.Update(c.Context(), id, userID, &models.Link{
		Name:        req.Name,
		Description: req.Description,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Website:     req.Website,
		Status:      req.Status,
	})
	if err != nil {
		if errors.Is(err, services.ErrLinkNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "link not found"})
		}
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: link})
}

func (h *LinkHandler) DeleteLink(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid link id"})
	}

	userID := middleware.GetUserID(c)
	if err := h.linkService.Delete(c.Context(), id, userID); err != nil {
		if errors.Is(err, services.ErrLinkNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "link not found"})
		}
		h.log.Error("delete link failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}
