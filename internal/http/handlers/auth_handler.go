package handlers

import (
	"errors"
	"net/mail"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/authora/backend/internal/auth"
	"github.com/authora/backend/internal/http/dto"
	"github.com/authora/backend/internal/services"
)

type AuthHandler struct {
	authService *services.AuthService
	log         *zap.Logger
}

func NewAuthHandler(authService *services.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, log: log}
}

// CreateChallenge issues a sign-in nonce for the given email.
func (h *AuthHandler) CreateChallenge(c *fiber.Ctx) error {
	var req dto.ChallengeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "valid email is required"})
	}

	ch, err := h.authService.CreateChallenge(c.Context(), req.Email)
	if err != nil {
		h.log.Error("create challenge failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.ChallengeResponse{
		Nonce:     ch.Nonce,
		ExpiresAt: ch.ExpiresAt,
	}})
}

// VerifySignIn exchanges a signed challenge for a session token.
func (h *AuthHandler) VerifySignIn(c *fiber.Ctx) error {
	var req dto.VerifySignInRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}
	if req.Chain == "" || req.Address == "" || req.Email == "" || req.Nonce == "" || req.Signature == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "chain, address, email, nonce, and signature are required"})
	}

	token, user, err := h.authService.VerifySignIn(c.Context(), auth.SignInProof{
		Chain:     req.Chain,
		Address:   req.Address,
		Email:     req.Email,
		Nonce:     req.Nonce,
		Domain:    req.Domain,
		Timestamp: req.Timestamp,
		Signature: req.Signature,
	})
	if err != nil {
		if errors.Is(err, services.ErrChallengeInvalid) || errors.Is(err, services.ErrProofInvalid) {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: err.Error()})
		}
		h.log.Error("sign-in failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	return c.JSON(dto.AuthResponse{Token: token, User: user})
}
