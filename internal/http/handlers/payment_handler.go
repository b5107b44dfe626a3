package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/authora/backend/internal/http/dto"
	"github.com/authora/backend/internal/middleware"
	"github.com/authora/backend/internal/services"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
	log            *zap.Logger
}

func NewPaymentHandler(paymentService *services.PaymentService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService, log: log}
}

// RecordPayment is the public endpoint the payment page calls after the
// payer's transfer lands.
func (h *PaymentHandler) RecordPayment(c *fiber.Ctx) error {
	linkID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid link id"})
	}

	var req dto.RecordPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}

	link, err := h.paymentService.Record(c.Context(), linkID, req.Amount, req.Currency, req.TxHash, req.PayerAddress)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrLinkNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "link not found"})
		case errors.Is(err, services.ErrPaymentDuplicate):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: "payment already recorded"})
		case errors.Is(err, services.ErrPaymentRejected):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Error: err.Error()})
		}
		h.log.Error("record payment failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	pub := link.Public()
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: pub})
}

// ListRecentPayments feeds the dashboard activity panel.
func (h *PaymentHandler) ListRecentPayments(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	payments, err := h.paymentService.ListRecent(c.Context(), userID, c.QueryInt("limit", 20))
	if err != nil {
		h.log.Error("list payments failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: payments})
}
