package controllers

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/abhigyan-p512/subscription-management/internal/pkg/billing"
)

// WebhookController receives billing events from the payment provider and
// feeds them to the synchronizer.
type WebhookController struct {
	sync          *billing.Synchronizer
	webhookSecret string
}

func NewWebhookController(sync *billing.Synchronizer, webhookSecret string) *WebhookController {
	return &WebhookController{sync: sync, webhookSecret: webhookSecret}
}

// HandleWebhook verifies the event signature against the raw body, applies
// the event and acknowledges. Processing errors are logged but still
// acknowledged with 200: the provider retries on non-2xx, and every handler
// is idempotent, so retrying a half-applied event is safe while retry storms
// on a persistent bug are not.
func (wc *WebhookController) HandleWebhook(c *fiber.Ctx) error {
	payload := c.Body()
	sigHeader := c.Get("Stripe-Signature")

	event, err := webhook.ConstructEvent(payload, sigHeader, wc.webhookSecret)
	if err != nil {
		log.Printf("webhook: signature verification failed: %v", err)
		return c.Status(fiber.StatusBadRequest).SendString(fmt.Sprintf("Webhook Error: %v", err))
	}

	parsed, err := billing.ParseEvent(event)
	if err != nil {
		log.Printf("webhook: malformed %s payload: %v", event.Type, err)
		return c.Status(fiber.StatusBadRequest).SendString(fmt.Sprintf("Webhook Error: %v", err))
	}

	if err := wc.sync.Apply(c.Context(), parsed); err != nil {
		log.Printf("webhook: failed to apply %s: %v", event.Type, err)
	}

	return c.JSON(fiber.Map{"received": true})
}
