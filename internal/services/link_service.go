package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/authora/backend/internal/config"
	"github.com/authora/backend/internal/models"
	"github.com/authora/backend/internal/repositories"
)

var ErrLinkNotFound = errors.New("link not found")

type LinkService struct {
	linkRepo  *repositories.LinkRepo
	auditRepo *repositories.AuditRepo
	cfg       *config.Config
	log       *zap.Logger
}

func NewLinkService(
	linkRepo *repositories.LinkRepo,
	auditRepo *repositories.AuditRepo,
	cfg *config.Config,
	log *zap.Logger,
) *LinkService {
	return &LinkService{linkRepo: linkRepo, auditRepo: auditRepo, cfg: cfg, log: log}
}

func (s *LinkService) Create(ctx context.Context, userID uuid.UUID, l *models.Link) error {
	if l.Amount != nil && *l.Amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}

	l.ID = uuid.New()
	l.UserID = userID
	if l.Currency == "" {
		l.Currency = s.cfg.DefaultCurrency
	}
	l.Status = models.LinkStatusActive
	l.URL = fmt.Sprintf("%s/payment/%s/%s", s.cfg.BaseURL, userID, l.ID)

	if err := s.linkRepo.Create(ctx, l); err != nil {
		return err
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorUserID: &userID,
		ActorType:   "user",
		Action:      "link_created",
		EntityType:  "link",
		EntityID:    &l.ID,
	})

	return nil
}

func (s *LinkService) GetOwned(ctx context.Context, id, userID uuid.UUID) (*models.Link, error) {
	l, err := s.linkRepo.GetOwned(ctx, id, userID)
	if err != nil {
		return nil, ErrLinkNotFound
	}
	return l, nil
}

// GetPublic serves the payment page. Paused links stay resolvable so the
// page can explain the link is not accepting payments.
func (s *LinkService) GetPublic(ctx context.Context, id uuid.UUID) (*models.PublicLink, error) {
	l, err := s.linkRepo.GetByID(ctx, id)
	if err != nil {
		return nil, ErrLinkNotFound
	}
	pub := l.Public()
	return &pub, nil
}

func (s *LinkService) List(ctx context.Context, userID uuid.UUID) ([]models.Link, error) {
	return s.linkRepo.ListByUser(ctx, userID)
}

// Update rewrites the editable fields; earnings and transaction counters
// only change through payment recording.
func (s *LinkService) Update(ctx context.Context, id, userID uuid.UUID, upd *models.Link) (*models.Link, error) {
	existing, err := s.linkRepo.GetOwned(ctx, id, userID)
	if err != nil {
		return nil, ErrLinkNotFound
	}

	if upd.Name != "" {
		existing.Name = upd.Name
	}
	if upd.Description != "" {
		existing.Description = upd.Description
	}
	if upd.Amount != nil {
		if *upd.Amount <= 0 {
			return nil, fmt.Errorf("amount must be positive")
		}
		existing.Amount = upd.Amount
	}
	if upd.Currency != "" {
		existing.Currency = upd.Currency
	}
	if upd.Website != nil {
		existing.Website = upd.Website
	}
	if upd.Status != "" {
		if !models.IsValidLinkStatus(upd.Status) {
			return nil, fmt.Errorf("invalid status %q", upd.Status)
		}
		existing.Status = upd.Status
	}

	if err := s.linkRepo.Update(ctx, existing); err != nil {
		return nil, err
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorUserID: &userID,
		ActorType:   "user",
		Action:      "link_updated",
		EntityType:  "link",
		EntityID:    &id,
	})

	return existing, nil
}

func (s *LinkService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	deleted, err := s.linkRepo.Delete(ctx, id, userID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrLinkNotFound
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorUserID: &userID,
		ActorType:   "user",
		Action:      "link_deleted",
		EntityType:  "link",
		EntityID:    &id,
	})

	return nil
}

func (s *LinkService) Stats(ctx context.Context, userID uuid.UUID) (*repositories.DashboardStats, error) {
	return s.linkRepo.StatsByUser(ctx, userID)
}
