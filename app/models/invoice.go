package models

import "time"

const (
	InvoiceStatusPaid          = "paid"
	InvoiceStatusOpen          = "open"
	InvoiceStatusVoid          = "void"
	InvoiceStatusUncollectible = "uncollectible"
	InvoiceStatusDraft         = "draft"
)

// Invoice stores a provider invoice, upserted idempotently by the unique
// StripeInvoiceID. Amounts are in minor currency units.
type Invoice struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	SubscriptionID   uint       `gorm:"not null;index" json:"subscription_id"`
	StripeInvoiceID  string     `gorm:"uniqueIndex;type:varchar(191);not null" json:"stripe_invoice_id"`
	AmountPaid       int64      `gorm:"not null" json:"amount_paid"`
	Currency         string     `gorm:"type:varchar(8);not null;default:'usd'" json:"currency"`
	Status           string     `gorm:"type:varchar(32);not null" json:"status" validate:"oneof=paid open void uncollectible draft"`
	PaidAt           *time.Time `gorm:"type:timestamp;default:null" json:"paid_at,omitempty"`
	InvoicePDF       string     `gorm:"type:varchar(512)" json:"invoice_pdf"`
	HostedInvoiceURL string     `gorm:"type:varchar(512)" json:"hosted_invoice_url"`
	CreatedAt        time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
