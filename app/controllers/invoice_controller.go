package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/abhigyan-p512/subscription-management/app/models"
	"github.com/abhigyan-p512/subscription-management/app/repository"
	"github.com/abhigyan-p512/subscription-management/internal/pkg/payment"
)

// InvoiceController serves the locally recorded invoice history and the
// provider's upcoming-invoice preview.
type InvoiceController struct {
	users    repository.UserRepository
	subs     repository.SubscriptionRepository
	invoices repository.InvoiceRepository
	payments payment.API
}

func NewInvoiceController(
	users repository.UserRepository,
	subs repository.SubscriptionRepository,
	invoices repository.InvoiceRepository,
	payments payment.API,
) *InvoiceController {
	return &InvoiceController{users: users, subs: subs, invoices: invoices, payments: payments}
}

// HandleHistory lists the invoices recorded for a customer, newest first.
func (ic *InvoiceController) HandleHistory(c *fiber.Ctx) error {
	user, err := ic.users.GetByStripeCustomerID(c.Params("customerId"))
	if err != nil {
		return ic.respondLookupError(c, err)
	}

	records, err := ic.invoices.ListByUserID(user.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	payload := make([]fiber.Map, 0, len(records))
	for i := range records {
		payload = append(payload, invoicePayload(&records[i]))
	}

	return c.JSON(fiber.Map{"invoices": payload})
}

// HandleUpcoming previews the next invoice for the customer's current
// subscription.
func (ic *InvoiceController) HandleUpcoming(c *fiber.Ctx) error {
	customerID := c.Params("customerId")
	user, err := ic.users.GetByStripeCustomerID(customerID)
	if err != nil {
		return ic.respondLookupError(c, err)
	}

	subs, err := ic.subs.ListByUserID(user.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if len(subs) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No subscription found"})
	}

	upcoming, err := ic.payments.UpcomingInvoice(c.Context(), customerID, subs[0].StripeSubscriptionID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": payment.ErrorMessage(err, "")})
	}

	return c.JSON(fiber.Map{
		"upcomingInvoice": fiber.Map{
			"amountDue":          upcoming.AmountDue,
			"currency":           upcoming.Currency,
			"periodStart":        upcoming.PeriodStart,
			"periodEnd":          upcoming.PeriodEnd,
			"nextPaymentAttempt": upcoming.NextPaymentAttempt,
		},
	})
}

func (ic *InvoiceController) respondLookupError(c *fiber.Ctx, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}

func invoicePayload(inv *models.Invoice) fiber.Map {
	return fiber.Map{
		"id":               inv.ID,
		"stripeInvoiceId":  inv.StripeInvoiceID,
		"subscriptionId":   inv.SubscriptionID,
		"amountPaid":       inv.AmountPaid,
		"currency":         inv.Currency,
		"status":           inv.Status,
		"paidAt":           inv.PaidAt,
		"invoicePdf":       inv.InvoicePDF,
		"hostedInvoiceUrl": inv.HostedInvoiceURL,
		"createdAt":        inv.CreatedAt,
	}
}
