package notification

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/abhigyan-p512/subscription-management/app/models"
)

type fakeNotificationRepo struct {
	items  []*models.Notification
	nextID uint
}

func (r *fakeNotificationRepo) Create(n *models.Notification) error {
	r.nextID++
	n.ID = r.nextID
	r.items = append(r.items, n)
	return nil
}

func (r *fakeNotificationRepo) GetByIDAndUserID(id, userID uint) (*models.Notification, error) {
	for _, n := range r.items {
		if n.ID == id && n.UserID == userID {
			return n, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeNotificationRepo) ListByUserID(userID uint, unreadOnly bool, limit int) ([]models.Notification, error) {
	var out []models.Notification
	for i := len(r.items) - 1; i >= 0 && len(out) < limit; i-- {
		n := r.items[i]
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		out = append(out, *n)
	}
	return out, nil
}

func (r *fakeNotificationRepo) MarkRead(id uint) error {
	for _, n := range r.items {
		if n.ID == id {
			n.Read = true
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeNotificationRepo) MarkAllRead(userID uint) error {
	for _, n := range r.items {
		if n.UserID == userID {
			n.Read = true
		}
	}
	return nil
}

func (r *fakeNotificationRepo) UnreadCount(userID uint) (int64, error) {
	var count int64
	for _, n := range r.items {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

type fakeUserRepo struct {
	users map[string]*models.User
}

func (r *fakeUserRepo) Create(*models.User) error               { return nil }
func (r *fakeUserRepo) GetByID(uint) (*models.User, error)      { return nil, gorm.ErrRecordNotFound }
func (r *fakeUserRepo) GetByEmail(string) (*models.User, error) { return nil, gorm.ErrRecordNotFound }
func (r *fakeUserRepo) GetByUsername(string) (*models.User, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *fakeUserRepo) GetByStripeCustomerID(customerID string) (*models.User, error) {
	if u, ok := r.users[customerID]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (r *fakeUserRepo) Update(*models.User) error { return nil }

func newTestService() (*Service, *fakeNotificationRepo) {
	notifications := &fakeNotificationRepo{}
	users := &fakeUserRepo{users: map[string]*models.User{
		"cus_1": {ID: 1, Username: "alice", StripeCustomerID: "cus_1"},
	}}
	return NewService(notifications, users), notifications
}

func TestCreateStoresMetadataAsJSON(t *testing.T) {
	svc, repo := newTestService()

	n, err := svc.Create(context.Background(), 1, models.NotificationTypeInvoicePaid, "Payment Successful", "paid", map[string]any{"invoice_id": "in_1"})
	require.NoError(t, err)

	assert.False(t, n.Read)
	assert.JSONEq(t, `{"invoice_id":"in_1"}`, n.MetadataJSON)
	assert.Len(t, repo.items, 1)
}

func TestCreateByCustomerIDUnknownCustomerIsSkipped(t *testing.T) {
	svc, repo := newTestService()

	err := svc.CreateByCustomerID(context.Background(), "cus_missing", models.NotificationTypeInvoicePaid, "Payment Successful", "paid", nil)
	require.NoError(t, err)
	assert.Empty(t, repo.items)
}

func TestCreateByCustomerIDResolvesUser(t *testing.T) {
	svc, repo := newTestService()

	err := svc.CreateByCustomerID(context.Background(), "cus_1", models.NotificationTypeSubscriptionResumed, "Subscription Resumed", "resumed", nil)
	require.NoError(t, err)

	require.Len(t, repo.items, 1)
	assert.Equal(t, uint(1), repo.items[0].UserID)
}

func TestListDefaultsLimit(t *testing.T) {
	svc, _ := newTestService()

	for i := 0; i < DefaultListLimit+10; i++ {
		_, err := svc.Create(context.Background(), 1, models.NotificationTypeInvoicePaid, "Payment Successful", "paid", nil)
		require.NoError(t, err)
	}

	items, err := svc.List(context.Background(), 1, false, 0)
	require.NoError(t, err)
	assert.Len(t, items, DefaultListLimit)
}

func TestListUnreadOnly(t *testing.T) {
	svc, _ := newTestService()

	first, err := svc.Create(context.Background(), 1, models.NotificationTypeInvoicePaid, "Payment Successful", "paid", nil)
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), 1, models.NotificationTypeSubscriptionUpdated, "Subscription Updated", "updated", nil)
	require.NoError(t, err)

	_, err = svc.MarkRead(context.Background(), first.ID, 1)
	require.NoError(t, err)

	items, err := svc.List(context.Background(), 1, true, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, models.NotificationTypeSubscriptionUpdated, items[0].Type)
}

func TestMarkReadRejectsForeignNotification(t *testing.T) {
	svc, _ := newTestService()

	n, err := svc.Create(context.Background(), 1, models.NotificationTypeInvoicePaid, "Payment Successful", "paid", nil)
	require.NoError(t, err)

	_, err = svc.MarkRead(context.Background(), n.ID, 2)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMarkReadIsIdempotent(t *testing.T) {
	svc, _ := newTestService()

	n, err := svc.Create(context.Background(), 1, models.NotificationTypeInvoicePaid, "Payment Successful", "paid", nil)
	require.NoError(t, err)

	first, err := svc.MarkRead(context.Background(), n.ID, 1)
	require.NoError(t, err)
	assert.True(t, first.Read)

	second, err := svc.MarkRead(context.Background(), n.ID, 1)
	require.NoError(t, err)
	assert.True(t, second.Read)
}

func TestMarkAllReadAndUnreadCount(t *testing.T) {
	svc, _ := newTestService()

	for i := 0; i < 3; i++ {
		_, err := svc.Create(context.Background(), 1, models.NotificationTypeInvoicePaid, "Payment Successful", "paid", nil)
		require.NoError(t, err)
	}

	count, err := svc.UnreadCount(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	require.NoError(t, svc.MarkAllRead(context.Background(), 1))

	count, err = svc.UnreadCount(context.Background(), 1)
	require.NoError(t, err)
	assert.Zero(t, count)
}
