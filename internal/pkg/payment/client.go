package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/customer"
	"github.com/stripe/stripe-go/v76/invoice"
	"github.com/stripe/stripe-go/v76/paymentmethod"
	"github.com/stripe/stripe-go/v76/price"
	"github.com/stripe/stripe-go/v76/subscription"
)

// API is the surface of the payment provider used by controllers and the
// billing synchronizer. *Client implements it against Stripe.
type API interface {
	CreateCustomer(ctx context.Context, email string) (*stripe.Customer, error)
	GetCustomer(ctx context.Context, customerID string) (*stripe.Customer, error)
	AttachPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error
	DetachPaymentMethod(ctx context.Context, paymentMethodID string) error
	ListCardPaymentMethods(ctx context.Context, customerID string) ([]*stripe.PaymentMethod, error)
	SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error
	CreateSubscription(ctx context.Context, customerID, priceID string) (*stripe.Subscription, error)
	GetSubscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error)
	SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) (*stripe.Subscription, error)
	ChangePrice(ctx context.Context, subscriptionID, priceID, prorationBehavior string) (*stripe.Subscription, error)
	UpcomingInvoice(ctx context.Context, customerID, subscriptionID string) (*stripe.Invoice, error)
	ListActivePrices(ctx context.Context) ([]*stripe.Price, error)
}

// Client wraps the Stripe SDK behind the API interface.
type Client struct{}

// NewClient configures the Stripe SDK with the given secret key.
func NewClient(apiKey string) *Client {
	stripe.Key = apiKey
	return &Client{}
}

func (c *Client) CreateCustomer(ctx context.Context, email string) (*stripe.Customer, error) {
	params := &stripe.CustomerParams{
		Params: stripe.Params{Context: ctx},
		Email:  stripe.String(email),
	}
	return customer.New(params)
}

func (c *Client) GetCustomer(ctx context.Context, customerID string) (*stripe.Customer, error) {
	params := &stripe.CustomerParams{Params: stripe.Params{Context: ctx}}
	return customer.Get(customerID, params)
}

// AttachPaymentMethod attaches a payment method to a customer. Attaching a
// method that is already attached to the same customer is treated as success.
func (c *Client) AttachPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error {
	params := &stripe.PaymentMethodAttachParams{
		Params:   stripe.Params{Context: ctx},
		Customer: stripe.String(customerID),
	}
	_, err := paymentmethod.Attach(paymentMethodID, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Code == "resource_already_exists" {
			return nil
		}
		return err
	}
	return nil
}

func (c *Client) DetachPaymentMethod(ctx context.Context, paymentMethodID string) error {
	params := &stripe.PaymentMethodDetachParams{Params: stripe.Params{Context: ctx}}
	_, err := paymentmethod.Detach(paymentMethodID, params)
	return err
}

func (c *Client) ListCardPaymentMethods(ctx context.Context, customerID string) ([]*stripe.PaymentMethod, error) {
	params := &stripe.PaymentMethodListParams{
		ListParams: stripe.ListParams{Context: ctx},
		Customer:   stripe.String(customerID),
		Type:       stripe.String(string(stripe.PaymentMethodTypeCard)),
	}

	var methods []*stripe.PaymentMethod
	iter := paymentmethod.List(params)
	for iter.Next() {
		methods = append(methods, iter.PaymentMethod())
	}
	return methods, iter.Err()
}

func (c *Client) SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error {
	params := &stripe.CustomerParams{
		Params: stripe.Params{Context: ctx},
		InvoiceSettings: &stripe.CustomerInvoiceSettingsParams{
			DefaultPaymentMethod: stripe.String(paymentMethodID),
		},
	}
	_, err := customer.Update(customerID, params)
	return err
}

// CreateSubscription creates an incomplete subscription so the first payment
// can be confirmed client-side with the returned payment intent.
func (c *Client) CreateSubscription(ctx context.Context, customerID, priceID string) (*stripe.Subscription, error) {
	params := &stripe.SubscriptionParams{
		Params:   stripe.Params{Context: ctx},
		Customer: stripe.String(customerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(priceID)},
		},
		PaymentBehavior: stripe.String("default_incomplete"),
		PaymentSettings: &stripe.SubscriptionPaymentSettingsParams{
			SaveDefaultPaymentMethod: stripe.String("on_subscription"),
		},
	}
	params.AddExpand("latest_invoice.payment_intent")
	return subscription.New(params)
}

func (c *Client) GetSubscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error) {
	params := &stripe.SubscriptionParams{Params: stripe.Params{Context: ctx}}
	return subscription.Get(subscriptionID, params)
}

func (c *Client) SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) (*stripe.Subscription, error) {
	params := &stripe.SubscriptionParams{
		Params:            stripe.Params{Context: ctx},
		CancelAtPeriodEnd: stripe.Bool(cancel),
	}
	return subscription.Update(subscriptionID, params)
}

// ChangePrice swaps the subscription's single item to a new price.
func (c *Client) ChangePrice(ctx context.Context, subscriptionID, priceID, prorationBehavior string) (*stripe.Subscription, error) {
	current, err := c.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if current.Items == nil || len(current.Items.Data) == 0 {
		return nil, fmt.Errorf("subscription %s has no items", subscriptionID)
	}

	if prorationBehavior == "" {
		prorationBehavior = "create_prorations"
	}
	params := &stripe.SubscriptionParams{
		Params: stripe.Params{Context: ctx},
		Items: []*stripe.SubscriptionItemsParams{
			{
				ID:    stripe.String(current.Items.Data[0].ID),
				Price: stripe.String(priceID),
			},
		},
		ProrationBehavior: stripe.String(prorationBehavior),
	}
	return subscription.Update(subscriptionID, params)
}

func (c *Client) UpcomingInvoice(ctx context.Context, customerID, subscriptionID string) (*stripe.Invoice, error) {
	params := &stripe.InvoiceUpcomingParams{
		Params:       stripe.Params{Context: ctx},
		Customer:     stripe.String(customerID),
		Subscription: stripe.String(subscriptionID),
	}
	return invoice.Upcoming(params)
}

func (c *Client) ListActivePrices(ctx context.Context) ([]*stripe.Price, error) {
	params := &stripe.PriceListParams{
		ListParams: stripe.ListParams{Context: ctx},
		Active:     stripe.Bool(true),
	}
	params.AddExpand("data.product")

	var prices []*stripe.Price
	iter := price.List(params)
	for iter.Next() {
		prices = append(prices, iter.Price())
	}
	return prices, iter.Err()
}
