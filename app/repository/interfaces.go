package repository

import (
	"github.com/abhigyan-p512/subscription-management/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
	GetByStripeCustomerID(customerID string) (*models.User, error)
	Update(user *models.User) error
}

// SubscriptionRepository defines the interface for subscription records.
// List results are ordered newest-created first; the head of the list is the
// user's current subscription.
type SubscriptionRepository interface {
	Create(sub *models.Subscription) error
	GetByID(id uint) (*models.Subscription, error)
	GetByStripeID(stripeSubscriptionID string) (*models.Subscription, error)
	ListByUserID(userID uint) ([]models.Subscription, error)
	Save(sub *models.Subscription) error
}

// InvoiceRepository defines the interface for invoice records
type InvoiceRepository interface {
	Upsert(invoice *models.Invoice) error
	GetByStripeID(stripeInvoiceID string) (*models.Invoice, error)
	ListByUserID(userID uint) ([]models.Invoice, error)
}

// NotificationRepository defines the interface for notification records
type NotificationRepository interface {
	Create(notification *models.Notification) error
	GetByIDAndUserID(id, userID uint) (*models.Notification, error)
	ListByUserID(userID uint, unreadOnly bool, limit int) ([]models.Notification, error)
	MarkRead(id uint) error
	MarkAllRead(userID uint) error
	UnreadCount(userID uint) (int64, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	User         UserRepository
	Subscription SubscriptionRepository
	Invoice      InvoiceRepository
	Notification NotificationRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		Subscription: NewSubscriptionRepository(db),
		Invoice:      NewInvoiceRepository(db),
		Notification: NewNotificationRepository(db),
	}
}
