package models

import "time"

const (
	NotificationTypeInvoicePaid           = "invoice_paid"
	NotificationTypeSubscriptionCancelled = "subscription_cancelled"
	NotificationTypeSubscriptionResumed   = "subscription_resumed"
	NotificationTypeSubscriptionUpdated   = "subscription_updated"
)

// Notification is created by the webhook synchronizer on state-changing
// events. The read flag only ever transitions false -> true.
type Notification struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	Type         string    `gorm:"type:varchar(50);not null" json:"type"`
	Title        string    `gorm:"type:varchar(200);not null" json:"title"`
	Message      string    `gorm:"type:text" json:"message"`
	MetadataJSON string    `gorm:"type:text" json:"-"`
	Read         bool      `gorm:"default:false;index" json:"read"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
