package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/abhigyan-p512/subscription-management/app/models"
	"github.com/abhigyan-p512/subscription-management/app/repository"
	"github.com/abhigyan-p512/subscription-management/internal/pkg/config"
	"github.com/abhigyan-p512/subscription-management/internal/pkg/payment"
	"github.com/abhigyan-p512/subscription-management/internal/pkg/security"
	"github.com/abhigyan-p512/subscription-management/internal/pkg/usercontext"
)

// AuthController handles signup, login, token introspection and profile updates.
type AuthController struct {
	users    repository.UserRepository
	payments payment.API
	cfg      *config.Config
}

// NewAuthController creates an auth controller with injected dependencies.
func NewAuthController(users repository.UserRepository, payments payment.API, cfg *config.Config) *AuthController {
	return &AuthController{users: users, payments: payments, cfg: cfg}
}

type signupRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30,username_charset"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginRequest struct {
	EmailOrUsername string `json:"emailOrUsername" validate:"required"`
	Password        string `json:"password" validate:"required"`
}

type profileUpdateRequest struct {
	Username *string `json:"username" validate:"omitempty,min=3,max=30,username_charset"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=6"`
}

// HandleSignup creates a provider customer plus a local account and returns a
// bearer token.
func (ac *AuthController) HandleSignup(c *fiber.Ctx) error {
	var req signupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return respondValidationErrors(c, err)
	}

	if _, err := ac.users.GetByUsername(req.Username); err == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Username already taken"})
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if _, err := ac.users.GetByEmail(req.Email); err == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "User with this email already exists"})
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	customer, err := ac.payments.CreateCustomer(c.Context(), models.NormalizeEmail(req.Email))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": payment.ErrorMessage(err, "")})
	}

	user, err := models.CreateUser(req.Username, req.Email, req.Password, customer.ID)
	if err != nil {
		return respondValidationErrors(c, err)
	}
	if err := ac.users.Create(user); err != nil {
		return respondDuplicateKey(c, err, duplicateField(err))
	}

	token, err := security.GenerateToken([]byte(ac.cfg.JWTSecret), user.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Token generation failed"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User created successfully",
		"token":   token,
		"user":    userPayload(user),
	})
}

// HandleLogin authenticates by email or username and returns a bearer token.
// Both lookups are exact: stored emails are lowercased at signup, so a
// mixed-case email input will not match.
func (ac *AuthController) HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return respondValidationErrors(c, err)
	}

	trimmed := strings.TrimSpace(req.EmailOrUsername)
	user, err := ac.users.GetByEmail(trimmed)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user, err = ac.users.GetByUsername(trimmed)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid email/username or password"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if !user.CheckPassword(req.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid email/username or password"})
	}

	token, err := security.GenerateToken([]byte(ac.cfg.JWTSecret), user.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Token generation failed"})
	}

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"token":   token,
		"user":    userPayload(user),
	})
}

// HandleMe returns the account identified by the bearer token.
func (ac *AuthController) HandleMe(c *fiber.Ctx) error {
	user, err := ac.users.GetByID(usercontext.GetUserID(c))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"user": userPayload(user)})
}

// HandleUpdateProfile applies any subset of username/email/password changes.
func (ac *AuthController) HandleUpdateProfile(c *fiber.Ctx) error {
	var req profileUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return respondValidationErrors(c, err)
	}

	user, err := ac.users.GetByID(usercontext.GetUserID(c))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if req.Username != nil && *req.Username != user.Username {
		if _, err := ac.users.GetByUsername(*req.Username); err == nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Username already in use"})
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		user.Username = *req.Username
	}

	if req.Email != nil {
		normalized := models.NormalizeEmail(*req.Email)
		if normalized != user.Email {
			if _, err := ac.users.GetByEmail(normalized); err == nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Email already in use"})
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
			}
			user.Email = normalized
		}
	}

	if req.Password != nil {
		if err := user.SetPassword(*req.Password); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Password update failed"})
		}
	}

	if err := ac.users.Update(user); err != nil {
		return respondDuplicateKey(c, err, duplicateField(err))
	}

	return c.JSON(fiber.Map{
		"message": "Profile updated successfully",
		"user":    userPayload(user),
	})
}

// HandleGetByCustomerID resolves a provider customer identifier to its account.
func (ac *AuthController) HandleGetByCustomerID(c *fiber.Ctx) error {
	user, err := ac.users.GetByStripeCustomerID(c.Params("customerId"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"user": userPayload(user)})
}

func userPayload(user *models.User) fiber.Map {
	return fiber.Map{
		"id":               user.ID,
		"username":         user.Username,
		"email":            user.Email,
		"stripeCustomerId": user.StripeCustomerID,
		"createdAt":        user.CreatedAt,
	}
}

func duplicateField(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "username"):
		return "Username"
	case strings.Contains(msg, "email"):
		return "Email"
	default:
		return "Field"
	}
}
