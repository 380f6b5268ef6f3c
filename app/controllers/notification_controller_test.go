package controllers

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/abhigyan-p512/subscription-management/app/models"
	"github.com/abhigyan-p512/subscription-management/internal/pkg/notification"
	"github.com/abhigyan-p512/subscription-management/internal/pkg/usercontext"
)

type listedNotificationRepo struct {
	memoryNotificationRepo
}

func (r *listedNotificationRepo) GetByIDAndUserID(id, userID uint) (*models.Notification, error) {
	for _, n := range r.items {
		if n.ID == id && n.UserID == userID {
			return n, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *listedNotificationRepo) ListByUserID(userID uint, unreadOnly bool, limit int) ([]models.Notification, error) {
	var out []models.Notification
	for i := len(r.items) - 1; i >= 0 && len(out) < limit; i-- {
		n := r.items[i]
		if n.UserID != userID || (unreadOnly && n.Read) {
			continue
		}
		out = append(out, *n)
	}
	return out, nil
}

func (r *listedNotificationRepo) MarkRead(id uint) error {
	for _, n := range r.items {
		if n.ID == id {
			n.Read = true
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *listedNotificationRepo) MarkAllRead(userID uint) error {
	for _, n := range r.items {
		if n.UserID == userID {
			n.Read = true
		}
	}
	return nil
}

func (r *listedNotificationRepo) UnreadCount(userID uint) (int64, error) {
	var count int64
	for _, n := range r.items {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func newNotificationTestApp(repo *listedNotificationRepo, userID uint) *fiber.App {
	users := newMemoryUserRepo()
	svc := notification.NewService(repo, users)
	ctrl := NewNotificationController(svc)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		usercontext.Set(c, usercontext.UserContext{UserID: userID, IsLoggedIn: true})
		return c.Next()
	})
	app.Get("/api/notifications", ctrl.HandleList)
	app.Get("/api/notifications/unread-count", ctrl.HandleUnreadCount)
	app.Post("/api/notifications/mark-all-read", ctrl.HandleMarkAllRead)
	app.Post("/api/notifications/:notificationId/read", ctrl.HandleMarkRead)
	return app
}

func seededNotificationRepo(userID uint, count int) *listedNotificationRepo {
	repo := &listedNotificationRepo{}
	for i := 0; i < count; i++ {
		_ = repo.Create(&models.Notification{
			UserID:  userID,
			Type:    models.NotificationTypeInvoicePaid,
			Title:   "Payment Successful",
			Message: fmt.Sprintf("payment %d", i),
		})
	}
	return repo
}

func TestNotificationListAndUnreadCount(t *testing.T) {
	repo := seededNotificationRepo(1, 3)
	app := newNotificationTestApp(repo, 1)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/notifications", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Notifications []struct {
			ID   uint   `json:"id"`
			Read bool   `json:"read"`
			Type string `json:"type"`
		} `json:"notifications"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Notifications, 3)
	// Newest first.
	assert.Equal(t, uint(3), body.Notifications[0].ID)

	count, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/notifications/unread-count", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, count.StatusCode)
	assert.Equal(t, float64(3), decodeBody(t, count)["unreadCount"])
}

func TestNotificationMarkReadOwnershipAndIdempotency(t *testing.T) {
	repo := seededNotificationRepo(1, 1)
	app := newNotificationTestApp(repo, 1)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/api/notifications/1/read", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, repo.items[0].Read)

	// Marking again succeeds without change.
	resp, err = app.Test(httptest.NewRequest(fiber.MethodPost, "/api/notifications/1/read", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// A different user cannot mark it.
	other := newNotificationTestApp(repo, 2)
	resp, err = other.Test(httptest.NewRequest(fiber.MethodPost, "/api/notifications/1/read", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestNotificationMarkAllRead(t *testing.T) {
	repo := seededNotificationRepo(1, 3)
	app := newNotificationTestApp(repo, 1)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/api/notifications/mark-all-read", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	count, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/notifications/unread-count", nil))
	require.NoError(t, err)
	assert.Equal(t, float64(0), decodeBody(t, count)["unreadCount"])
}
