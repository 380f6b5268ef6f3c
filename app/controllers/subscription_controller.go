package controllers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v76"
	"gorm.io/gorm"

	"github.com/abhigyan-p512/subscription-management/app/models"
	"github.com/abhigyan-p512/subscription-management/app/repository"
	"github.com/abhigyan-p512/subscription-management/internal/pkg/billing"
	"github.com/abhigyan-p512/subscription-management/internal/pkg/config"
	"github.com/abhigyan-p512/subscription-management/internal/pkg/payment"
)

// SubscriptionController handles subscription lifecycle requests against the
// payment provider plus the local record store.
type SubscriptionController struct {
	users    repository.UserRepository
	subs     repository.SubscriptionRepository
	payments payment.API
	sync     *billing.Synchronizer
	cfg      *config.Config
}

// NewSubscriptionController creates a subscription controller with injected dependencies.
func NewSubscriptionController(
	users repository.UserRepository,
	subs repository.SubscriptionRepository,
	payments payment.API,
	sync *billing.Synchronizer,
	cfg *config.Config,
) *SubscriptionController {
	return &SubscriptionController{users: users, subs: subs, payments: payments, sync: sync, cfg: cfg}
}

type createSubscriptionRequest struct {
	CustomerID      string `json:"customerId" validate:"required"`
	PaymentMethodID string `json:"paymentMethodId" validate:"required"`
	PriceID         string `json:"priceId" validate:"required"`
}

type updateSubscriptionRequest struct {
	PriceID           string `json:"priceId" validate:"required"`
	ProrationBehavior string `json:"prorationBehavior" validate:"omitempty,oneof=create_prorations none always_invoice"`
}

// HandleCreate attaches the payment method, makes it the default and creates
// an incomplete provider subscription whose first invoice is confirmed
// client-side via the returned client secret.
func (sc *SubscriptionController) HandleCreate(c *fiber.Ctx) error {
	var req createSubscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return respondValidationErrors(c, err)
	}

	user, err := sc.users.GetByStripeCustomerID(req.CustomerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	ctx := c.Context()
	if err := sc.payments.AttachPaymentMethod(ctx, req.CustomerID, req.PaymentMethodID); err != nil {
		return sc.respondProviderError(c, err, req.PriceID)
	}
	if err := sc.payments.SetDefaultPaymentMethod(ctx, req.CustomerID, req.PaymentMethodID); err != nil {
		return sc.respondProviderError(c, err, req.PriceID)
	}

	remote, err := sc.payments.CreateSubscription(ctx, req.CustomerID, req.PriceID)
	if err != nil {
		return sc.respondProviderError(c, err, req.PriceID)
	}

	record := &models.Subscription{
		UserID:               user.ID,
		StripeSubscriptionID: remote.ID,
		Status:               string(remote.Status),
		PriceID:              req.PriceID,
		CurrentPeriodStart:   time.Unix(remote.CurrentPeriodStart, 0),
		CurrentPeriodEnd:     time.Unix(remote.CurrentPeriodEnd, 0),
		CancelAtPeriodEnd:    remote.CancelAtPeriodEnd,
	}
	if err := sc.subs.Create(record); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"subscription": fiber.Map{
			"id":                   record.ID,
			"stripeSubscriptionId": remote.ID,
			"status":               record.Status,
			"clientSecret":         clientSecret(remote),
		},
	})
}

// HandleGetByCustomerID returns the full subscription history plus the
// current subscription, self-healed against provider state so a missed
// webhook never leaves the caller with stale data.
func (sc *SubscriptionController) HandleGetByCustomerID(c *fiber.Ctx) error {
	user, err := sc.users.GetByStripeCustomerID(c.Params("customerId"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	subs, err := sc.subs.ListByUserID(user.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if len(subs) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No subscription found"})
	}

	// Only the current subscription is healed: one provider call per request.
	latest := &subs[0]
	if err := sc.sync.SelfHeal(c.Context(), latest); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": payment.ErrorMessage(err, "")})
	}

	history := make([]fiber.Map, 0, len(subs))
	for i := range subs {
		history = append(history, subscriptionPayload(&subs[i]))
	}

	return c.JSON(fiber.Map{
		"subscriptions": history,
		"subscription":  subscriptionPayload(latest),
	})
}

// HandleCancel schedules cancellation at the end of the current period.
func (sc *SubscriptionController) HandleCancel(c *fiber.Ctx) error {
	sub, err := sc.findByParam(c)
	if err != nil {
		return sc.respondLookupError(c, err)
	}

	if _, err := sc.payments.SetCancelAtPeriodEnd(c.Context(), sub.StripeSubscriptionID, true); err != nil {
		return sc.respondProviderError(c, err, "")
	}

	sub.CancelAtPeriodEnd = true
	if err := sc.subs.Save(sub); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"message": "Subscription will be canceled at period end",
		"subscription": fiber.Map{
			"id":                sub.ID,
			"cancelAtPeriodEnd": sub.CancelAtPeriodEnd,
		},
	})
}

// HandleResume clears a pending cancellation.
func (sc *SubscriptionController) HandleResume(c *fiber.Ctx) error {
	sub, err := sc.findByParam(c)
	if err != nil {
		return sc.respondLookupError(c, err)
	}

	remote, err := sc.payments.SetCancelAtPeriodEnd(c.Context(), sub.StripeSubscriptionID, false)
	if err != nil {
		return sc.respondProviderError(c, err, "")
	}

	sub.CancelAtPeriodEnd = false
	sub.Status = string(remote.Status)
	sub.CurrentPeriodStart = time.Unix(remote.CurrentPeriodStart, 0)
	sub.CurrentPeriodEnd = time.Unix(remote.CurrentPeriodEnd, 0)
	if err := sc.subs.Save(sub); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"message": "Subscription has been resumed",
		"subscription": fiber.Map{
			"id":                sub.ID,
			"cancelAtPeriodEnd": sub.CancelAtPeriodEnd,
			"status":            sub.Status,
		},
	})
}

// HandleUpdate switches the subscription to a new price (upgrade/downgrade).
func (sc *SubscriptionController) HandleUpdate(c *fiber.Ctx) error {
	var req updateSubscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return respondValidationErrors(c, err)
	}

	sub, err := sc.findByParam(c)
	if err != nil {
		return sc.respondLookupError(c, err)
	}

	remote, err := sc.payments.ChangePrice(c.Context(), sub.StripeSubscriptionID, req.PriceID, req.ProrationBehavior)
	if err != nil {
		return sc.respondProviderError(c, err, req.PriceID)
	}

	sub.PriceID = req.PriceID
	sub.Status = string(remote.Status)
	sub.CurrentPeriodStart = time.Unix(remote.CurrentPeriodStart, 0)
	sub.CurrentPeriodEnd = time.Unix(remote.CurrentPeriodEnd, 0)
	if err := sc.subs.Save(sub); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"message": "Subscription updated successfully",
		"subscription": fiber.Map{
			"id":                 sub.ID,
			"priceId":            sub.PriceID,
			"status":             sub.Status,
			"currentPeriodStart": sub.CurrentPeriodStart,
			"currentPeriodEnd":   sub.CurrentPeriodEnd,
		},
	})
}

func (sc *SubscriptionController) findByParam(c *fiber.Ctx) (*models.Subscription, error) {
	id, err := strconv.ParseUint(c.Params("subscriptionId"), 10, 64)
	if err != nil {
		return nil, gorm.ErrRecordNotFound
	}
	return sc.subs.GetByID(uint(id))
}

func (sc *SubscriptionController) respondLookupError(c *fiber.Ctx, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Subscription not found"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}

// respondProviderError surfaces a billing-platform failure with the provider
// message; diagnostic detail is only included outside production.
func (sc *SubscriptionController) respondProviderError(c *fiber.Ctx, err error, priceID string) error {
	body := fiber.Map{"error": payment.ErrorMessage(err, priceID)}
	if !sc.cfg.IsProduction() {
		if detail := payment.ErrorDetail(err); detail != nil {
			body["details"] = detail
		}
	}
	return c.Status(fiber.StatusInternalServerError).JSON(body)
}

func subscriptionPayload(sub *models.Subscription) fiber.Map {
	return fiber.Map{
		"id":                   sub.ID,
		"stripeSubscriptionId": sub.StripeSubscriptionID,
		"status":               sub.Status,
		"priceId":              sub.PriceID,
		"currentPeriodStart":   sub.CurrentPeriodStart,
		"currentPeriodEnd":     sub.CurrentPeriodEnd,
		"cancelAtPeriodEnd":    sub.CancelAtPeriodEnd,
		"createdAt":            sub.CreatedAt,
	}
}

// clientSecret digs the payment intent secret out of the expanded latest
// invoice; empty when the first invoice needs no payment.
func clientSecret(remote *stripe.Subscription) string {
	if remote.LatestInvoice == nil || remote.LatestInvoice.PaymentIntent == nil {
		return ""
	}
	return remote.LatestInvoice.PaymentIntent.ClientSecret
}
