package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v76"
	"gorm.io/gorm"

	"github.com/abhigyan-p512/subscription-management/app/repository"
	"github.com/abhigyan-p512/subscription-management/internal/pkg/payment"
)

// PaymentMethodController manages the card payment methods stored at the
// payment provider for a customer.
type PaymentMethodController struct {
	users    repository.UserRepository
	payments payment.API
}

func NewPaymentMethodController(users repository.UserRepository, payments payment.API) *PaymentMethodController {
	return &PaymentMethodController{users: users, payments: payments}
}

type addPaymentMethodRequest struct {
	PaymentMethodID string `json:"paymentMethodId" validate:"required"`
	SetDefault      bool   `json:"setDefault"`
}

type defaultPaymentMethodRequest struct {
	PaymentMethodID string `json:"paymentMethodId" validate:"required"`
}

// HandleList returns the customer's card payment methods, flagging the one
// configured as the invoice default.
func (pc *PaymentMethodController) HandleList(c *fiber.Ctx) error {
	customerID := c.Params("customerId")
	if err := pc.requireCustomer(customerID); err != nil {
		return pc.respondLookupError(c, err)
	}

	ctx := c.Context()
	methods, err := pc.payments.ListCardPaymentMethods(ctx, customerID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": payment.ErrorMessage(err, "")})
	}

	remote, err := pc.payments.GetCustomer(ctx, customerID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": payment.ErrorMessage(err, "")})
	}
	defaultID := ""
	if remote.InvoiceSettings != nil && remote.InvoiceSettings.DefaultPaymentMethod != nil {
		defaultID = remote.InvoiceSettings.DefaultPaymentMethod.ID
	}

	payload := make([]fiber.Map, 0, len(methods))
	for _, pm := range methods {
		payload = append(payload, paymentMethodPayload(pm, pm.ID == defaultID))
	}

	return c.JSON(fiber.Map{"paymentMethods": payload})
}

// HandleAdd attaches a payment method to the customer, optionally making it
// the invoice default.
func (pc *PaymentMethodController) HandleAdd(c *fiber.Ctx) error {
	var req addPaymentMethodRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return respondValidationErrors(c, err)
	}

	customerID := c.Params("customerId")
	if err := pc.requireCustomer(customerID); err != nil {
		return pc.respondLookupError(c, err)
	}

	ctx := c.Context()
	if err := pc.payments.AttachPaymentMethod(ctx, customerID, req.PaymentMethodID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": payment.ErrorMessage(err, "")})
	}
	if req.SetDefault {
		if err := pc.payments.SetDefaultPaymentMethod(ctx, customerID, req.PaymentMethodID); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": payment.ErrorMessage(err, "")})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Payment method added"})
}

// HandleSetDefault makes a payment method the customer's invoice default.
func (pc *PaymentMethodController) HandleSetDefault(c *fiber.Ctx) error {
	var req defaultPaymentMethodRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return respondValidationErrors(c, err)
	}

	customerID := c.Params("customerId")
	if err := pc.requireCustomer(customerID); err != nil {
		return pc.respondLookupError(c, err)
	}

	if err := pc.payments.SetDefaultPaymentMethod(c.Context(), customerID, req.PaymentMethodID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": payment.ErrorMessage(err, "")})
	}

	return c.JSON(fiber.Map{"message": "Default payment method updated"})
}

// HandleRemove detaches a payment method from the customer.
func (pc *PaymentMethodController) HandleRemove(c *fiber.Ctx) error {
	customerID := c.Params("customerId")
	if err := pc.requireCustomer(customerID); err != nil {
		return pc.respondLookupError(c, err)
	}

	if err := pc.payments.DetachPaymentMethod(c.Context(), c.Params("paymentMethodId")); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": payment.ErrorMessage(err, "")})
	}

	return c.JSON(fiber.Map{"message": "Payment method removed"})
}

func (pc *PaymentMethodController) requireCustomer(customerID string) error {
	_, err := pc.users.GetByStripeCustomerID(customerID)
	return err
}

func (pc *PaymentMethodController) respondLookupError(c *fiber.Ctx, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Customer not found"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}

func paymentMethodPayload(pm *stripe.PaymentMethod, isDefault bool) fiber.Map {
	payload := fiber.Map{
		"id":        pm.ID,
		"type":      pm.Type,
		"isDefault": isDefault,
	}
	if pm.Card != nil {
		payload["card"] = fiber.Map{
			"brand":    pm.Card.Brand,
			"last4":    pm.Card.Last4,
			"expMonth": pm.Card.ExpMonth,
			"expYear":  pm.Card.ExpYear,
		}
	}
	return payload
}
