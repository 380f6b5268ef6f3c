package models

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Username         string    `gorm:"uniqueIndex;type:varchar(30) CHARACTER SET utf8 COLLATE utf8_bin;not null" json:"username" validate:"required,min=3,max=30,username_charset"`
	Email            string    `gorm:"uniqueIndex;type:varchar(200) CHARACTER SET utf8 COLLATE utf8_bin;not null" json:"email" validate:"required,email,min=5,max=200"`
	Password         string    `gorm:"type:text" json:"-" validate:"required,min=6"`
	StripeCustomerID string    `gorm:"uniqueIndex;type:varchar(191);not null" json:"stripe_customer_id"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (u *User) Validate() error {
	v := validator.New()
	if err := v.RegisterValidation("username_charset", validateUsernameCharset); err != nil {
		return err
	}

	return v.Struct(u)
}

// Usernames allow letters, digits and underscores only.
func validateUsernameCharset(fl validator.FieldLevel) bool {
	for _, r := range fl.Field().String() {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_') {
			return false
		}
	}
	return true
}

// CreateUser builds and validates a user with a hashed password. Emails are
// stored lowercased so login matches are exact on the normalized form.
func CreateUser(username, email, password, stripeCustomerID string) (*User, error) {
	check := &User{
		Username:         strings.TrimSpace(username),
		Email:            NormalizeEmail(email),
		Password:         password,
		StripeCustomerID: stripeCustomerID,
	}
	if err := check.Validate(); err != nil {
		return nil, err
	}

	pw, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	check.Password = pw

	return check, nil
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	return string(bytes), err
}

// CheckPasswordHash compares the given password with the stored hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	return err == nil
}

// CheckPassword verifies if the provided password matches the user's stored password
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.Password)
}

// SetPassword hashes and sets a new password for the user
func (u *User) SetPassword(password string) error {
	hashedPassword, err := HashPassword(password)
	if err != nil {
		return err
	}
	u.Password = hashedPassword
	return nil
}
