package billing

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
)

func providerEvent(eventType, raw string) stripe.Event {
	return stripe.Event{
		Type: stripe.EventType(eventType),
		Data: &stripe.EventData{Raw: json.RawMessage(raw)},
	}
}

func TestParseEventInvoicePaid(t *testing.T) {
	ev, err := ParseEvent(providerEvent("invoice.paid", `{"id":"in_1","amount_paid":1999,"subscription":"sub_1"}`))
	require.NoError(t, err)

	assert.Equal(t, EventInvoicePaid, ev.Kind)
	require.NotNil(t, ev.Invoice)
	assert.Nil(t, ev.Subscription)
	assert.Equal(t, "in_1", ev.Invoice.ID)
	assert.Equal(t, int64(1999), ev.Invoice.AmountPaid)
	// Expandable field delivered as a bare id still resolves to the id.
	require.NotNil(t, ev.Invoice.Subscription)
	assert.Equal(t, "sub_1", ev.Invoice.Subscription.ID)
}

func TestParseEventSubscriptionUpdated(t *testing.T) {
	ev, err := ParseEvent(providerEvent("customer.subscription.updated", `{"id":"sub_1","status":"active","customer":"cus_1","cancel_at_period_end":true}`))
	require.NoError(t, err)

	assert.Equal(t, EventSubscriptionUpdated, ev.Kind)
	require.NotNil(t, ev.Subscription)
	assert.Nil(t, ev.Invoice)
	assert.Equal(t, stripe.SubscriptionStatusActive, ev.Subscription.Status)
	assert.True(t, ev.Subscription.CancelAtPeriodEnd)
	require.NotNil(t, ev.Subscription.Customer)
	assert.Equal(t, "cus_1", ev.Subscription.Customer.ID)
}

func TestParseEventUnhandledTypeIsIgnored(t *testing.T) {
	ev, err := ParseEvent(providerEvent("charge.refunded", `{"id":"ch_1"}`))
	require.NoError(t, err)

	assert.Equal(t, EventIgnored, ev.Kind)
	assert.Equal(t, "charge.refunded", ev.RawType)
	assert.Nil(t, ev.Invoice)
	assert.Nil(t, ev.Subscription)
}

func TestParseEventMalformedPayload(t *testing.T) {
	_, err := ParseEvent(providerEvent("invoice.paid", `{not json`))
	assert.Error(t, err)
}
