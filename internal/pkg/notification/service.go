package notification

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"gorm.io/gorm"

	"github.com/abhigyan-p512/subscription-management/app/models"
	"github.com/abhigyan-p512/subscription-management/app/repository"
)

// ErrNotFound is returned when a notification does not exist or does not
// belong to the requesting user.
var ErrNotFound = errors.New("notification not found")

// DefaultListLimit bounds notification listings when no limit is given.
const DefaultListLimit = 50

// Service creates and reads per-user notification records.
type Service struct {
	notifications repository.NotificationRepository
	users         repository.UserRepository
}

// NewService creates a notification service from injected repositories.
func NewService(notifications repository.NotificationRepository, users repository.UserRepository) *Service {
	return &Service{notifications: notifications, users: users}
}

// Create inserts an unread notification for a user.
func (s *Service) Create(ctx context.Context, userID uint, notificationType, title, message string, metadata map[string]any) (*models.Notification, error) {
	_ = ctx
	metadataJSON := ""
	if len(metadata) > 0 {
		raw, err := json.Marshal(metadata)
		if err != nil {
			return nil, err
		}
		metadataJSON = string(raw)
	}

	n := &models.Notification{
		UserID:       userID,
		Type:         notificationType,
		Title:        title,
		Message:      message,
		MetadataJSON: metadataJSON,
		Read:         false,
	}
	if err := s.notifications.Create(n); err != nil {
		return nil, err
	}
	return n, nil
}

// CreateByCustomerID resolves a provider customer identifier to a local user
// and creates the notification. A missing user is logged and skipped, never
// surfaced to the caller; the webhook path must not fail on it.
func (s *Service) CreateByCustomerID(ctx context.Context, stripeCustomerID, notificationType, title, message string, metadata map[string]any) error {
	user, err := s.users.GetByStripeCustomerID(stripeCustomerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("notification: no user for customer %s, skipping %s", stripeCustomerID, notificationType)
			return nil
		}
		return err
	}

	_, err = s.Create(ctx, user.ID, notificationType, title, message, metadata)
	return err
}

// List returns the user's notifications newest-first.
func (s *Service) List(ctx context.Context, userID uint, unreadOnly bool, limit int) ([]models.Notification, error) {
	_ = ctx
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return s.notifications.ListByUserID(userID, unreadOnly, limit)
}

// MarkRead marks one notification as read. Fails with ErrNotFound when the
// notification does not belong to the user; already-read is idempotent.
func (s *Service) MarkRead(ctx context.Context, notificationID, userID uint) (*models.Notification, error) {
	_ = ctx
	n, err := s.notifications.GetByIDAndUserID(notificationID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if n.Read {
		return n, nil
	}
	if err := s.notifications.MarkRead(n.ID); err != nil {
		return nil, err
	}
	n.Read = true
	return n, nil
}

// MarkAllRead marks every unread notification for the user as read.
func (s *Service) MarkAllRead(ctx context.Context, userID uint) error {
	_ = ctx
	return s.notifications.MarkAllRead(userID)
}

// UnreadCount counts the user's unread notifications.
func (s *Service) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	_ = ctx
	return s.notifications.UnreadCount(userID)
}
