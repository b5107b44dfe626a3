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

type WalletHandler struct {
	walletService *services.WalletService
	log           *zap.Logger
}

func NewWalletHandler(walletService *services.WalletService, log *zap.Logger) *WalletHandler {
	return &WalletHandler{walletService: walletService, log: log}
}

func (h *WalletHandler) ConnectWallet(c *fiber.Ctx) error {
	var req dto.ConnectWalletRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}
	if req.Chain == "" || req.Address == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "chain and address are required"})
	}

	userID := middleware.GetUserID(c)
	wallet, err := h.walletService.Connect(c.Context(), userID, req.Chain, req.Address)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: wallet})
}

func (h *WalletHandler) ListWallets(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	wallets, err := h.walletService.List(c.Context(), userID)
	if err != nil {
		h.log.Error("list wallets failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	if wallets == nil {
		wallets = []models.WalletEntry{}
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: wallets})
}

// GetCreatorWallet is public: the payment page resolves where to send
// funds before building the transfer.
func (h *WalletHandler) GetCreatorWallet(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid user id"})
	}
	chainName := c.Query("chain")
	if chainName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "chain query parameter is required"})
	}

	wallet, err := h.walletService.ResolveAddress(c.Context(), userID, chainName)
	if err != nil {
		if errors.Is(err, services.ErrWalletNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "no wallet registered for this chain"})
		}
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.WalletAddressResponse{
		Chain:    wallet.Chain,
		Address:  wallet.Address,
		Verified: wallet.Verified,
	}})
}
