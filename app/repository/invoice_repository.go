package repository

import (
	"github.com/abhigyan-p512/subscription-management/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// invoiceRepository implements the InvoiceRepository interface
type invoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository creates a new invoice repository instance
func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

// Upsert inserts or updates an invoice keyed by the unique provider invoice
// identifier, so replayed deliveries stay idempotent.
func (r *invoiceRepository) Upsert(invoice *models.Invoice) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "stripe_invoice_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"subscription_id",
			"amount_paid",
			"currency",
			"status",
			"paid_at",
			"invoice_pdf",
			"hosted_invoice_url",
			"updated_at",
		}),
	}).Create(invoice).Error; err != nil {
		return err
	}

	// Ensure ID is populated after upsert.
	return r.db.Where("stripe_invoice_id = ?", invoice.StripeInvoiceID).First(invoice).Error
}

// GetByStripeID retrieves an invoice by the provider identifier
func (r *invoiceRepository) GetByStripeID(stripeInvoiceID string) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.Where("stripe_invoice_id = ?", stripeInvoiceID).First(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// ListByUserID returns all invoices belonging to any of the user's
// subscriptions, newest first.
func (r *invoiceRepository) ListByUserID(userID uint) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := r.db.
		Joins("JOIN subscriptions ON subscriptions.id = invoices.subscription_id").
		Where("subscriptions.user_id = ?", userID).
		Order("invoices.created_at DESC").
		Find(&invoices).Error
	return invoices, err
}
