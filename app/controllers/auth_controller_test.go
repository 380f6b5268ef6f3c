package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
	"gorm.io/gorm"

	"github.com/abhigyan-p512/subscription-management/app/models"
	"github.com/abhigyan-p512/subscription-management/internal/pkg/config"
)

type memoryUserRepo struct {
	users  map[uint]*models.User
	nextID uint
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: map[uint]*models.User{}}
}

func (r *memoryUserRepo) Create(u *models.User) error {
	r.nextID++
	u.ID = r.nextID
	r.users[u.ID] = u
	return nil
}

func (r *memoryUserRepo) GetByID(id uint) (*models.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memoryUserRepo) GetByEmail(email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memoryUserRepo) GetByUsername(username string) (*models.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memoryUserRepo) GetByStripeCustomerID(customerID string) (*models.User, error) {
	for _, u := range r.users {
		if u.StripeCustomerID == customerID {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memoryUserRepo) Update(u *models.User) error {
	r.users[u.ID] = u
	return nil
}

// stubPaymentAPI satisfies payment.API with canned responses; only the
// customer-creation path is exercised by these tests.
type stubPaymentAPI struct {
	customers int
}

func (s *stubPaymentAPI) CreateCustomer(_ context.Context, email string) (*stripe.Customer, error) {
	s.customers++
	return &stripe.Customer{ID: fmt.Sprintf("cus_%d", s.customers), Email: email}, nil
}

func (s *stubPaymentAPI) GetCustomer(context.Context, string) (*stripe.Customer, error) {
	return nil, nil
}
func (s *stubPaymentAPI) AttachPaymentMethod(context.Context, string, string) error { return nil }
func (s *stubPaymentAPI) DetachPaymentMethod(context.Context, string) error         { return nil }
func (s *stubPaymentAPI) ListCardPaymentMethods(context.Context, string) ([]*stripe.PaymentMethod, error) {
	return nil, nil
}
func (s *stubPaymentAPI) SetDefaultPaymentMethod(context.Context, string, string) error { return nil }
func (s *stubPaymentAPI) CreateSubscription(context.Context, string, string) (*stripe.Subscription, error) {
	return nil, nil
}
func (s *stubPaymentAPI) GetSubscription(context.Context, string) (*stripe.Subscription, error) {
	return nil, nil
}
func (s *stubPaymentAPI) SetCancelAtPeriodEnd(context.Context, string, bool) (*stripe.Subscription, error) {
	return nil, nil
}
func (s *stubPaymentAPI) ChangePrice(context.Context, string, string, string) (*stripe.Subscription, error) {
	return nil, nil
}
func (s *stubPaymentAPI) UpcomingInvoice(context.Context, string, string) (*stripe.Invoice, error) {
	return nil, nil
}
func (s *stubPaymentAPI) ListActivePrices(context.Context) ([]*stripe.Price, error) {
	return nil, nil
}

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:    "test",
		JWTSecret: "test-secret-at-least-16-bytes",
	}
}

func newAuthTestApp() (*fiber.App, *memoryUserRepo) {
	users := newMemoryUserRepo()
	auth := NewAuthController(users, &stubPaymentAPI{}, testConfig())

	app := fiber.New()
	app.Post("/api/auth/signup", auth.HandleSignup)
	app.Post("/api/auth/login", auth.HandleLogin)
	app.Get("/api/auth/:customerId", auth.HandleGetByCustomerID)
	return app, users
}

func postJSON(t *testing.T, app *fiber.App, path string, body map[string]any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(fiber.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestSignupCreatesAccountWithLowercasedEmail(t *testing.T) {
	app, users := newAuthTestApp()

	resp := postJSON(t, app, "/api/auth/signup", map[string]any{
		"username": "alice_1",
		"email":    "A@X.com",
		"password": "secret1",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.NotEmpty(t, body["token"])

	stored, err := users.GetByEmail("a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "alice_1", stored.Username)
	assert.NotEmpty(t, stored.StripeCustomerID)
	assert.True(t, stored.CheckPassword("secret1"))
}

func TestSignupRejectsDuplicateUsername(t *testing.T) {
	app, _ := newAuthTestApp()

	resp := postJSON(t, app, "/api/auth/signup", map[string]any{
		"username": "alice_1", "email": "a@x.com", "password": "secret1",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = postJSON(t, app, "/api/auth/signup", map[string]any{
		"username": "alice_1", "email": "b@x.com", "password": "secret1",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSignupRejectsInvalidUsername(t *testing.T) {
	app, _ := newAuthTestApp()

	resp := postJSON(t, app, "/api/auth/signup", map[string]any{
		"username": "alice smith", "email": "a@x.com", "password": "secret1",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestLoginEmailMatchIsExactOnStoredForm(t *testing.T) {
	app, _ := newAuthTestApp()

	resp := postJSON(t, app, "/api/auth/signup", map[string]any{
		"username": "alice_1", "email": "a@x.com", "password": "secret1",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	// Stored email is lowercased; a mixed-case input does not match.
	resp = postJSON(t, app, "/api/auth/login", map[string]any{
		"emailOrUsername": "A@X.com", "password": "secret1",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = postJSON(t, app, "/api/auth/login", map[string]any{
		"emailOrUsername": "a@x.com", "password": "secret1",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.NotEmpty(t, body["token"])
}

func TestLoginByUsernameAndWrongPassword(t *testing.T) {
	app, _ := newAuthTestApp()

	resp := postJSON(t, app, "/api/auth/signup", map[string]any{
		"username": "alice_1", "email": "a@x.com", "password": "secret1",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = postJSON(t, app, "/api/auth/login", map[string]any{
		"emailOrUsername": "alice_1", "password": "secret1",
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = postJSON(t, app, "/api/auth/login", map[string]any{
		"emailOrUsername": "alice_1", "password": "wrongpw",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestGetByCustomerID(t *testing.T) {
	app, users := newAuthTestApp()

	resp := postJSON(t, app, "/api/auth/signup", map[string]any{
		"username": "alice_1", "email": "a@x.com", "password": "secret1",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	stored, err := users.GetByUsername("alice_1")
	require.NoError(t, err)

	req := httptest.NewRequest(fiber.MethodGet, "/api/auth/"+stored.StripeCustomerID, nil)
	lookup, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, lookup.StatusCode)

	req = httptest.NewRequest(fiber.MethodGet, "/api/auth/cus_missing", nil)
	missing, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, missing.StatusCode)
}
