package billing

import (
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v76"
)

// EventKind tags the provider event types the synchronizer handles.
type EventKind string

const (
	EventInvoicePaid          EventKind = "invoice.paid"
	EventInvoicePaymentFailed EventKind = "invoice.payment_failed"
	EventSubscriptionCreated  EventKind = "customer.subscription.created"
	EventSubscriptionUpdated  EventKind = "customer.subscription.updated"
	EventSubscriptionDeleted  EventKind = "customer.subscription.deleted"
	EventIgnored              EventKind = "ignored"
)

// Event is a closed tagged union over provider webhook payloads. Exactly one
// payload pointer matching Kind is set; provider types without a handler map
// to EventIgnored with the original type string preserved.
type Event struct {
	Kind    EventKind
	RawType string

	Invoice      *stripe.Invoice
	Subscription *stripe.Subscription
}

// ParseEvent converts a verified provider event envelope into the typed union.
func ParseEvent(ev stripe.Event) (Event, error) {
	switch EventKind(ev.Type) {
	case EventInvoicePaid, EventInvoicePaymentFailed:
		var inv stripe.Invoice
		if err := json.Unmarshal(ev.Data.Raw, &inv); err != nil {
			return Event{}, fmt.Errorf("decode %s payload: %w", ev.Type, err)
		}
		return Event{Kind: EventKind(ev.Type), RawType: string(ev.Type), Invoice: &inv}, nil

	case EventSubscriptionCreated, EventSubscriptionUpdated, EventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(ev.Data.Raw, &sub); err != nil {
			return Event{}, fmt.Errorf("decode %s payload: %w", ev.Type, err)
		}
		return Event{Kind: EventKind(ev.Type), RawType: string(ev.Type), Subscription: &sub}, nil

	default:
		return Event{Kind: EventIgnored, RawType: string(ev.Type)}, nil
	}
}
