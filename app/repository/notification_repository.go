package repository

import (
	"github.com/abhigyan-p512/subscription-management/app/models"
	"gorm.io/gorm"
)

// notificationRepository implements the NotificationRepository interface
type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new notification repository instance
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

// Create inserts a new notification
func (r *notificationRepository) Create(notification *models.Notification) error {
	return r.db.Create(notification).Error
}

// GetByIDAndUserID retrieves a notification only if it belongs to the user
func (r *notificationRepository) GetByIDAndUserID(id, userID uint) (*models.Notification, error) {
	var notification models.Notification
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&notification).Error
	if err != nil {
		return nil, err
	}
	return &notification, nil
}

// ListByUserID returns the user's notifications newest-first
func (r *notificationRepository) ListByUserID(userID uint, unreadOnly bool, limit int) ([]models.Notification, error) {
	query := r.db.Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("`read` = ?", false)
	}

	var notifications []models.Notification
	err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&notifications).Error
	return notifications, err
}

// MarkRead sets the read flag on a single notification
func (r *notificationRepository) MarkRead(id uint) error {
	return r.db.Model(&models.Notification{}).Where("id = ?", id).Update("read", true).Error
}

// MarkAllRead sets the read flag on all currently-unread notifications
func (r *notificationRepository) MarkAllRead(userID uint) error {
	return r.db.Model(&models.Notification{}).
		Where("user_id = ? AND `read` = ?", userID, false).
		Update("read", true).Error
}

// UnreadCount counts unread notifications for a user
func (r *notificationRepository) UnreadCount(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).
		Where("user_id = ? AND `read` = ?", userID, false).
		Count(&count).Error
	return count, err
}
