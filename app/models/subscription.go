package models

import "time"

const (
	SubscriptionStatusActive            = "active"
	SubscriptionStatusCanceled          = "canceled"
	SubscriptionStatusPastDue           = "past_due"
	SubscriptionStatusTrialing          = "trialing"
	SubscriptionStatusIncomplete        = "incomplete"
	SubscriptionStatusIncompleteExpired = "incomplete_expired"
	SubscriptionStatusUnpaid            = "unpaid"
	SubscriptionStatusPaused            = "paused"
)

// Subscription mirrors one provider subscription lifecycle. A user may
// accumulate several historical rows; the most recently created row is the
// "current" subscription (ordering contract: created_at DESC, id DESC).
type Subscription struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	UserID               uint      `gorm:"not null;index" json:"user_id"`
	StripeSubscriptionID string    `gorm:"uniqueIndex;type:varchar(191);not null" json:"stripe_subscription_id"`
	Status               string    `gorm:"type:varchar(32);not null;index" json:"status" validate:"oneof=active canceled past_due trialing incomplete incomplete_expired unpaid paused"`
	PriceID              string    `gorm:"type:varchar(191);not null" json:"price_id"`
	CurrentPeriodStart   time.Time `gorm:"type:timestamp;not null" json:"current_period_start"`
	CurrentPeriodEnd     time.Time `gorm:"type:timestamp;not null" json:"current_period_end"`
	CancelAtPeriodEnd    bool      `gorm:"default:false" json:"cancel_at_period_end"`
	CreatedAt            time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt            time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
