package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/authora/backend/internal/chain"
	"github.com/authora/backend/internal/config"
	"github.com/authora/backend/internal/events"
	"github.com/authora/backend/internal/models"
	"github.com/authora/backend/internal/repositories"
)

var (
	ErrPaymentDuplicate = errors.New("payment already recorded")
	ErrPaymentRejected  = errors.New("payment rejected")
)

type PaymentService struct {
	linkRepo    *repositories.LinkRepo
	paymentRepo *repositories.PaymentRepo
	walletRepo  *repositories.WalletRepo
	auditRepo   *repositories.AuditRepo
	notifier    *NotificationService
	chains      *chain.Registry
	publisher   events.Publisher
	cfg         *config.Config
	log         *zap.Logger
}

func NewPaymentService(
	linkRepo *repositories.LinkRepo,
	paymentRepo *repositories.PaymentRepo,
	walletRepo *repositories.WalletRepo,
	auditRepo *repositories.AuditRepo,
	notifier *NotificationService,
	chains *chain.Registry,
	publisher events.Publisher,
	cfg *config.Config,
	log *zap.Logger,
) *PaymentService {
	return &PaymentService{
		linkRepo:    linkRepo,
		paymentRepo: paymentRepo,
		walletRepo:  walletRepo,
		auditRepo:   auditRepo,
		notifier:    notifier,
		chains:      chains,
		publisher:   publisher,
		cfg:         cfg,
		log:         log,
	}
}

// Record credits a reported payment against a link. The ledger insert is
// the replay guard: a tx hash can only ever be credited once. Counter
// updates happen in a single SQL statement, so concurrent payments to
// the same link all land.
func (s *PaymentService) Record(ctx context.Context, linkID uuid.UUID, amount float64, currency, txHash string, payerAddress *string) (*models.Link, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrPaymentRejected)
	}
	if txHash == "" {
		return nil, fmt.Errorf("%w: tx hash is required", ErrPaymentRejected)
	}

	link, err := s.linkRepo.GetByID(ctx, linkID)
	if err != nil {
		return nil, ErrLinkNotFound
	}

	if currency == "" {
		currency = link.Currency
	}

	verified := false
	if s.cfg.ChainVerifyPayments {
		if err := s.verifyOnChain(ctx, link, currency, txHash, amount); err != nil {
			return nil, err
		}
		verified = true
	}

	payment := &models.Payment{
		ID:           uuid.New(),
		LinkID:       link.ID,
		Amount:       amount,
		Currency:     currency,
		TxHash:       txHash,
		PayerAddress: payerAddress,
		Verified:     verified,
	}
	if err := s.paymentRepo.Insert(ctx, payment); err != nil {
		if errors.Is(err, repositories.ErrDuplicateTxHash) {
			return nil, ErrPaymentDuplicate
		}
		return nil, err
	}

	updated, err := s.linkRepo.RecordPayment(ctx, link.ID, amount)
	if err != nil {
		return nil, err
	}

	// Side effects past this point never fail the payment.
	if err := s.notifier.Notify(ctx, &models.Notification{
		UserID:  link.UserID,
		Type:    models.NotificationTypePayment,
		Title:   "Payment received",
		Message: fmt.Sprintf("You received %.4f %s via %s (tx %s)", amount, currency, link.Name, models.TruncateTxHash(txHash)),
	}); err != nil {
		s.log.Warn("payment notification failed",
			zap.String("link_id", link.ID.String()), zap.Error(err))
	}

	if err := s.publisher.Publish(ctx, events.StreamPayments,
		events.New(events.EventPaymentReceived, link.UserID, map[string]any{
			"link_id":  link.ID.String(),
			"amount":   amount,
			"currency": currency,
			"tx_hash":  txHash,
		})); err != nil {
		s.log.Warn("payment event publish failed", zap.Error(err))
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorType:  "payer",
		Action:     "payment_recorded",
		EntityType: "link",
		EntityID:   &link.ID,
		Meta: map[string]any{
			"amount":   amount,
			"currency": currency,
			"tx_hash":  txHash,
			"verified": verified,
		},
	})

	return updated, nil
}

// verifyOnChain checks the reported transaction against the creator's
// registered wallet for the payment currency's chain.
func (s *PaymentService) verifyOnChain(ctx context.Context, link *models.Link, currency, txHash string, amount float64) error {
	adapter, err := s.chains.ByCurrency(currency)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPaymentRejected, err)
	}

	wallet, err := s.walletRepo.Get(ctx, link.UserID, adapter.Name())
	if err != nil {
		return fmt.Errorf("%w: creator has no %s wallet", ErrPaymentRejected, adapter.Name())
	}

	// Verification RPC calls are bounded by the confirmation timeout so a
	// slow node cannot hold the payment endpoint open indefinitely.
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ConfirmTimeout)
	defer cancel()

	if err := adapter.VerifyTransfer(ctx, txHash, wallet.Address, amount); err != nil {
		s.log.Info("on-chain verification failed",
			zap.String("link_id", link.ID.String()),
			zap.String("tx_hash", txHash),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %v", ErrPaymentRejected, err)
	}
	return nil
}

func (s *PaymentService) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]models.Payment, error) {
	return s.paymentRepo.ListRecentByUser(ctx, userID, limit)
}
