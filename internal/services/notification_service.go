package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/authora/backend/internal/events"
	"github.com/authora/backend/internal/models"
	"github.com/authora/backend/internal/repositories"
)

var ErrNotificationNotFound = errors.New("notification not found")

type NotificationService struct {
	notifRepo  *repositories.NotificationRepo
	outboxRepo *repositories.OutboxRepo
	userRepo   *repositories.UserRepo
	publisher  events.Publisher
	log        *zap.Logger
}

func NewNotificationService(
	notifRepo *repositories.NotificationRepo,
	outboxRepo *repositories.OutboxRepo,
	userRepo *repositories.UserRepo,
	publisher events.Publisher,
	log *zap.Logger,
) *NotificationService {
	return &NotificationService{
		notifRepo:  notifRepo,
		outboxRepo: outboxRepo,
		userRepo:   userRepo,
		publisher:  publisher,
		log:        log,
	}
}

// Notify persists the notification, then best-effort queues the email
// copy and publishes the realtime event. Only the persist step can fail
// the call: a full notification list with no email is acceptable, the
// reverse is not.
func (s *NotificationService) Notify(ctx context.Context, n *models.Notification) error {
	if n.Type == "" {
		n.Type = models.NotificationTypeSystem
	}
	n.ID = uuid.New()

	if err := s.notifRepo.Add(ctx, n); err != nil {
		return err
	}

	s.enqueueEmail(ctx, n)

	if err := s.publisher.Publish(ctx, events.StreamNotifications,
		events.New(events.EventNotificationCreated, n.UserID, map[string]any{
			"notification_id": n.ID.String(),
			"type":            n.Type,
			"title":           n.Title,
		})); err != nil {
		s.log.Warn("notification event publish failed", zap.Error(err))
	}

	return nil
}

func (s *NotificationService) enqueueEmail(ctx context.Context, n *models.Notification) {
	user, err := s.userRepo.GetByID(ctx, n.UserID)
	if err != nil {
		s.log.Warn("outbox enqueue skipped, user lookup failed",
			zap.String("user_id", n.UserID.String()), zap.Error(err))
		return
	}

	msg := &models.EmailOutbox{
		Recipient: user.Email,
		Subject:   fmt.Sprintf("Authora: %s", n.Title),
		Body:      n.Message,
	}
	if err := s.outboxRepo.Enqueue(ctx, msg); err != nil {
		s.log.Warn("outbox enqueue failed", zap.Error(err))
	}
}

func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Notification, error) {
	return s.notifRepo.ListByUser(ctx, userID, limit, offset)
}

func (s *NotificationService) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	ok, err := s.notifRepo.MarkRead(ctx, id, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *NotificationService) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.notifRepo.CountUnread(ctx, userID)
}
