package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/authora/backend/internal/chain"
	"github.com/authora/backend/internal/models"
	"github.com/authora/backend/internal/repositories"
)

var ErrWalletNotFound = errors.New("wallet not found")

type WalletService struct {
	walletRepo *repositories.WalletRepo
	auditRepo  *repositories.AuditRepo
	chains     *chain.Registry
	log        *zap.Logger
}

func NewWalletService(
	walletRepo *repositories.WalletRepo,
	auditRepo *repositories.AuditRepo,
	chains *chain.Registry,
	log *zap.Logger,
) *WalletService {
	return &WalletService{walletRepo: walletRepo, auditRepo: auditRepo, chains: chains, log: log}
}

// Connect registers or replaces the receiving address for (user, chain).
// Addresses registered this way are unverified until the user signs in
// with that wallet.
func (s *WalletService) Connect(ctx context.Context, userID uuid.UUID, chainName, address string) (*models.WalletEntry, error) {
	if !models.IsValidChain(chainName) {
		return nil, fmt.Errorf("unsupported chain %q", chainName)
	}
	if adapter, ok := s.chains.ByName(chainName); ok {
		if err := adapter.ValidateAddress(address); err != nil {
			return nil, err
		}
	}

	w := &models.WalletEntry{
		UserID:  userID,
		Chain:   chainName,
		Address: address,
	}
	if err := s.walletRepo.Upsert(ctx, w); err != nil {
		return nil, err
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorUserID: &userID,
		ActorType:   "user",
		Action:      "wallet_connected",
		EntityType:  "wallet",
		EntityID:    &w.ID,
		Meta:        map[string]any{"chain": chainName},
	})

	return w, nil
}

func (s *WalletService) List(ctx context.Context, userID uuid.UUID) ([]models.WalletEntry, error) {
	return s.walletRepo.ListByUser(ctx, userID)
}

// ResolveAddress returns the creator's receiving address for a chain.
// The payment page calls this before building the transfer.
func (s *WalletService) ResolveAddress(ctx context.Context, userID uuid.UUID, chainName string) (*models.WalletEntry, error) {
	if !models.IsValidChain(chainName) {
		return nil, fmt.Errorf("unsupported chain %q", chainName)
	}
	w, err := s.walletRepo.Get(ctx, userID, chainName)
	if err != nil {
		return nil, ErrWalletNotFound
	}
	return w, nil
}
