package repository

import (
	"github.com/abhigyan-p512/subscription-management/app/models"
	"gorm.io/gorm"
)

// subscriptionRepository implements the SubscriptionRepository interface
type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new subscription repository instance
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

// Create creates a new subscription record
func (r *subscriptionRepository) Create(sub *models.Subscription) error {
	return r.db.Create(sub).Error
}

// GetByID retrieves a subscription record by its local ID
func (r *subscriptionRepository) GetByID(id uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.First(&sub, id).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetByStripeID retrieves a subscription record by the provider identifier
func (r *subscriptionRepository) GetByStripeID(stripeSubscriptionID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Where("stripe_subscription_id = ?", stripeSubscriptionID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// ListByUserID returns all subscription records for a user, newest-created
// first. The first element is the current subscription.
func (r *subscriptionRepository) ListByUserID(userID uint) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&subs).Error
	return subs, err
}

// Save persists changes to an existing subscription record
func (r *subscriptionRepository) Save(sub *models.Subscription) error {
	return r.db.Save(sub).Error
}
