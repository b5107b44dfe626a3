package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/authora/backend/internal/auth"
	"github.com/authora/backend/internal/config"
	"github.com/authora/backend/internal/models"
	"github.com/authora/backend/internal/repositories"
)

var (
	ErrChallengeInvalid = errors.New("challenge expired or already used")
	ErrProofInvalid     = errors.New("sign-in proof rejected")
)

type AuthService struct {
	userRepo   *repositories.UserRepo
	walletRepo *repositories.WalletRepo
	auditRepo  *repositories.AuditRepo
	cfg        *config.Config
	log        *zap.Logger
}

func NewAuthService(
	userRepo *repositories.UserRepo,
	walletRepo *repositories.WalletRepo,
	auditRepo *repositories.AuditRepo,
	cfg *config.Config,
	log *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		walletRepo: walletRepo,
		auditRepo:  auditRepo,
		cfg:        cfg,
		log:        log,
	}
}

// CreateChallenge issues a single-use nonce the wallet must sign.
func (s *AuthService) CreateChallenge(ctx context.Context, email string) (*models.AuthChallenge, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	ch := &models.AuthChallenge{
		Nonce:     hex.EncodeToString(buf),
		Email:     email,
		ExpiresAt: time.Now().Add(s.cfg.ChallengeTTL),
	}
	if err := s.walletRepo.CreateChallenge(ctx, ch); err != nil {
		return nil, err
	}
	return ch, nil
}

// VerifySignIn checks the wallet proof against an outstanding challenge,
// upserts the user, registers the signing wallet as verified, and issues
// a session token.
func (s *AuthService) VerifySignIn(ctx context.Context, proof auth.SignInProof) (string, *models.User, error) {
	ok, err := s.walletRepo.ConsumeChallenge(ctx, proof.Nonce, proof.Email)
	if err != nil {
		return "", nil, err
	}
	if !ok {
		return "", nil, ErrChallengeInvalid
	}

	if err := auth.VerifySignIn(proof, s.cfg.SignInAllowedDomains); err != nil {
		s.log.Debug("sign-in proof rejected", zap.String("email", proof.Email), zap.Error(err))
		return "", nil, fmt.Errorf("%w: %v", ErrProofInvalid, err)
	}

	user, err := s.userRepo.UpsertByEmail(ctx, proof.Email, nil)
	if err != nil {
		return "", nil, err
	}

	// The proving wallet becomes the registered receiving address for its
	// chain, marked verified since the user just signed with it.
	wallet := &models.WalletEntry{
		UserID:   user.ID,
		Chain:    proof.Chain,
		Address:  proof.Address,
		Verified: true,
	}
	if err := s.walletRepo.Upsert(ctx, wallet); err != nil {
		return "", nil, err
	}

	token, err := auth.GenerateJWT(s.cfg.JWTSecret, user.ID, user.Email, s.cfg.JWTExpiration)
	if err != nil {
		return "", nil, err
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorUserID: &user.ID,
		ActorType:   "user",
		Action:      "signed_in",
		EntityType:  "user",
		EntityID:    &user.ID,
		Meta:        map[string]any{"chain": proof.Chain},
	})

	return token, user, nil
}
