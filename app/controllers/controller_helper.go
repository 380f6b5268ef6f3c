package controllers

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("username_charset", func(fl validator.FieldLevel) bool {
		for _, r := range fl.Field().String() {
			if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_') {
				return false
			}
		}
		return true
	})
	return v
}

// respondValidationErrors maps validator failures to field-level messages.
func respondValidationErrors(c *fiber.Ctx, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	fields := make([]fiber.Map, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fiber.Map{
			"field":   strings.ToLower(fe.Field()),
			"message": validationMessage(fe),
		})
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "errors": fields})
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return "Please provide a valid email"
	case "min":
		return fe.Field() + " must be at least " + fe.Param() + " characters"
	case "max":
		return fe.Field() + " must be at most " + fe.Param() + " characters"
	case "username_charset":
		return "Username can only contain letters, numbers, and underscores"
	default:
		return fe.Field() + " is invalid"
	}
}

// respondDuplicateKey surfaces a store uniqueness violation as a 400 naming
// the conflicting field, or falls through to a generic 500.
func respondDuplicateKey(c *fiber.Ctx, err error, field string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "Duplicate entry") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": field + " already exists"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}
