package billing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/stripe/stripe-go/v76"
	"gorm.io/gorm"

	"github.com/abhigyan-p512/subscription-management/app/models"
	"github.com/abhigyan-p512/subscription-management/app/repository"
)

// Notifier creates user notifications resolved by provider customer id.
type Notifier interface {
	CreateByCustomerID(ctx context.Context, stripeCustomerID, notificationType, title, message string, metadata map[string]any) error
}

// Provider reads authoritative subscription state from the payment provider.
type Provider interface {
	GetSubscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error)
}

// Synchronizer reconciles local subscription and invoice state with
// provider-reported state, either from inbound webhook events or from the
// on-read self-heal path.
type Synchronizer struct {
	users    repository.UserRepository
	subs     repository.SubscriptionRepository
	invoices repository.InvoiceRepository
	notifier Notifier
	provider Provider
}

// NewSynchronizer creates a synchronizer from injected dependencies.
func NewSynchronizer(
	users repository.UserRepository,
	subs repository.SubscriptionRepository,
	invoices repository.InvoiceRepository,
	notifier Notifier,
	provider Provider,
) *Synchronizer {
	return &Synchronizer{
		users:    users,
		subs:     subs,
		invoices: invoices,
		notifier: notifier,
		provider: provider,
	}
}

// Apply dispatches one verified provider event to its handler. Events without
// a handler are logged and acknowledged.
func (s *Synchronizer) Apply(ctx context.Context, ev Event) error {
	switch ev.Kind {
	case EventInvoicePaid:
		return s.applyInvoicePaid(ctx, ev.Invoice)
	case EventInvoicePaymentFailed:
		return s.applyInvoicePaymentFailed(ctx, ev.Invoice)
	case EventSubscriptionCreated:
		return s.applySubscriptionCreated(ctx, ev.Subscription)
	case EventSubscriptionUpdated:
		return s.applySubscriptionUpdated(ctx, ev.Subscription)
	case EventSubscriptionDeleted:
		return s.applySubscriptionDeleted(ctx, ev.Subscription)
	case EventIgnored:
		log.Printf("billing: unhandled event type %q", ev.RawType)
		return nil
	default:
		return fmt.Errorf("billing: unknown event kind %q", ev.Kind)
	}
}

// applyInvoicePaid upserts the invoice keyed by its provider identifier and
// notifies the owning user. Invoices for unknown subscriptions are dropped.
func (s *Synchronizer) applyInvoicePaid(ctx context.Context, inv *stripe.Invoice) error {
	subID := invoiceSubscriptionID(inv)
	if subID == "" {
		log.Printf("billing: invoice %s carries no subscription, skipping", inv.ID)
		return nil
	}

	sub, err := s.subs.GetByStripeID(subID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("billing: subscription not found for invoice %s, skipping", inv.ID)
			return nil
		}
		return err
	}

	record := &models.Invoice{
		SubscriptionID:   sub.ID,
		StripeInvoiceID:  inv.ID,
		AmountPaid:       inv.AmountPaid,
		Currency:         string(inv.Currency),
		Status:           string(inv.Status),
		PaidAt:           invoicePaidAt(inv),
		InvoicePDF:       inv.InvoicePDF,
		HostedInvoiceURL: inv.HostedInvoiceURL,
	}
	if err := s.invoices.Upsert(record); err != nil {
		return err
	}

	user, err := s.users.GetByID(sub.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	return s.notifier.CreateByCustomerID(
		ctx,
		user.StripeCustomerID,
		models.NotificationTypeInvoicePaid,
		"Payment Successful",
		fmt.Sprintf("Your payment of $%.2f has been processed successfully.", float64(inv.AmountPaid)/100),
		map[string]any{
			"invoice_id": inv.ID,
			"amount":     inv.AmountPaid,
			"currency":   string(inv.Currency),
		},
	)
}

// applyInvoicePaymentFailed moves the owning subscription to past_due.
func (s *Synchronizer) applyInvoicePaymentFailed(ctx context.Context, inv *stripe.Invoice) error {
	_ = ctx
	subID := invoiceSubscriptionID(inv)
	if subID == "" {
		return nil
	}

	sub, err := s.subs.GetByStripeID(subID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	sub.Status = models.SubscriptionStatusPastDue
	return s.subs.Save(sub)
}

// applySubscriptionCreated inserts a first-seen subscription. Re-delivery of
// the same event is a no-op, never an update.
func (s *Synchronizer) applySubscriptionCreated(ctx context.Context, remote *stripe.Subscription) error {
	_ = ctx
	customerID := subscriptionCustomerID(remote)
	user, err := s.users.GetByStripeCustomerID(customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("billing: no user for customer %s on subscription %s, skipping", customerID, remote.ID)
			return nil
		}
		return err
	}

	if _, err := s.subs.GetByStripeID(remote.ID); err == nil {
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	return s.subs.Create(&models.Subscription{
		UserID:               user.ID,
		StripeSubscriptionID: remote.ID,
		Status:               string(remote.Status),
		PriceID:              subscriptionPriceID(remote),
		CurrentPeriodStart:   time.Unix(remote.CurrentPeriodStart, 0),
		CurrentPeriodEnd:     time.Unix(remote.CurrentPeriodEnd, 0),
		CancelAtPeriodEnd:    remote.CancelAtPeriodEnd,
	})
}

// applySubscriptionUpdated overwrites local state from the event and emits at
// most one notification: cancelled beats resumed beats updated-to-active.
func (s *Synchronizer) applySubscriptionUpdated(ctx context.Context, remote *stripe.Subscription) error {
	sub, err := s.subs.GetByStripeID(remote.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	wasCanceled := sub.CancelAtPeriodEnd
	isNowCanceled := remote.CancelAtPeriodEnd
	statusChanged := sub.Status != string(remote.Status)

	sub.Status = string(remote.Status)
	sub.CurrentPeriodStart = time.Unix(remote.CurrentPeriodStart, 0)
	sub.CurrentPeriodEnd = time.Unix(remote.CurrentPeriodEnd, 0)
	sub.CancelAtPeriodEnd = remote.CancelAtPeriodEnd
	if err := s.subs.Save(sub); err != nil {
		return err
	}

	user, err := s.users.GetByID(sub.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	switch {
	case !wasCanceled && isNowCanceled:
		return s.notifier.CreateByCustomerID(
			ctx,
			user.StripeCustomerID,
			models.NotificationTypeSubscriptionCancelled,
			"Subscription Cancelled",
			"Your subscription has been scheduled for cancellation at the end of the current billing period.",
			map[string]any{"subscription_id": remote.ID},
		)
	case wasCanceled && !isNowCanceled:
		return s.notifier.CreateByCustomerID(
			ctx,
			user.StripeCustomerID,
			models.NotificationTypeSubscriptionResumed,
			"Subscription Resumed",
			"Your subscription has been resumed successfully.",
			map[string]any{"subscription_id": remote.ID},
		)
	case statusChanged && string(remote.Status) == models.SubscriptionStatusActive:
		return s.notifier.CreateByCustomerID(
			ctx,
			user.StripeCustomerID,
			models.NotificationTypeSubscriptionUpdated,
			"Subscription Updated",
			"Your subscription has been updated successfully.",
			map[string]any{"subscription_id": remote.ID, "status": string(remote.Status)},
		)
	}
	return nil
}

// applySubscriptionDeleted marks the local record canceled.
func (s *Synchronizer) applySubscriptionDeleted(ctx context.Context, remote *stripe.Subscription) error {
	_ = ctx
	sub, err := s.subs.GetByStripeID(remote.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	sub.Status = models.SubscriptionStatusCanceled
	return s.subs.Save(sub)
}

// SelfHeal fetches the authoritative provider state for the given current
// subscription and overwrites the local record in place when any synced field
// drifted. A persistence failure is logged and non-fatal: the caller still
// responds with the provider-sourced values now held by the record.
func (s *Synchronizer) SelfHeal(ctx context.Context, sub *models.Subscription) error {
	remote, err := s.provider.GetSubscription(ctx, sub.StripeSubscriptionID)
	if err != nil {
		return err
	}

	status := string(remote.Status)
	priceID := subscriptionPriceID(remote)
	if priceID == "" {
		priceID = sub.PriceID
	}
	periodStart := time.Unix(remote.CurrentPeriodStart, 0)
	periodEnd := time.Unix(remote.CurrentPeriodEnd, 0)

	drifted := sub.Status != status ||
		sub.PriceID != priceID ||
		sub.CancelAtPeriodEnd != remote.CancelAtPeriodEnd ||
		!sub.CurrentPeriodStart.Equal(periodStart) ||
		!sub.CurrentPeriodEnd.Equal(periodEnd)
	if !drifted {
		return nil
	}

	sub.Status = status
	sub.PriceID = priceID
	sub.CancelAtPeriodEnd = remote.CancelAtPeriodEnd
	sub.CurrentPeriodStart = periodStart
	sub.CurrentPeriodEnd = periodEnd

	if err := s.subs.Save(sub); err != nil {
		log.Printf("billing: self-heal persist failed for subscription %s: %v", sub.StripeSubscriptionID, err)
	}
	return nil
}

func invoiceSubscriptionID(inv *stripe.Invoice) string {
	if inv == nil || inv.Subscription == nil {
		return ""
	}
	return inv.Subscription.ID
}

func invoicePaidAt(inv *stripe.Invoice) *time.Time {
	if inv.StatusTransitions == nil || inv.StatusTransitions.PaidAt == 0 {
		return nil
	}
	t := time.Unix(inv.StatusTransitions.PaidAt, 0)
	return &t
}

func subscriptionCustomerID(sub *stripe.Subscription) string {
	if sub == nil || sub.Customer == nil {
		return ""
	}
	return sub.Customer.ID
}

func subscriptionPriceID(sub *stripe.Subscription) string {
	if sub == nil || sub.Items == nil || len(sub.Items.Data) == 0 || sub.Items.Data[0].Price == nil {
		return ""
	}
	return sub.Items.Data[0].Price.ID
}
