package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/abhigyan-p512/subscription-management/app/models"
	"github.com/abhigyan-p512/subscription-management/app/repository"
	"github.com/abhigyan-p512/subscription-management/internal/pkg/payment"
)

// CustomerController exposes read access to billing customer records.
type CustomerController struct {
	users    repository.UserRepository
	payments payment.API
}

func NewCustomerController(users repository.UserRepository, payments payment.API) *CustomerController {
	return &CustomerController{users: users, payments: payments}
}

type createCustomerRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// HandleCreate creates a bare provider customer without a local account.
// Kept for clients that provision the customer before signup.
func (cc *CustomerController) HandleCreate(c *fiber.Ctx) error {
	var req createCustomerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return respondValidationErrors(c, err)
	}

	remote, err := cc.payments.CreateCustomer(c.Context(), models.NormalizeEmail(req.Email))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": payment.ErrorMessage(err, "")})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"customer": fiber.Map{
			"id":    remote.ID,
			"email": remote.Email,
		},
	})
}

// HandleGetByID returns the provider customer together with the linked
// local account, looked up by the provider customer id.
func (cc *CustomerController) HandleGetByID(c *fiber.Ctx) error {
	customerID := c.Params("customerId")

	user, err := cc.users.GetByStripeCustomerID(customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Customer not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	remote, err := cc.payments.GetCustomer(c.Context(), customerID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": payment.ErrorMessage(err, "")})
	}

	return c.JSON(fiber.Map{
		"customer": fiber.Map{
			"id":    remote.ID,
			"email": remote.Email,
		},
		"user": userPayload(user),
	})
}
