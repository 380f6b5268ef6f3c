package controllers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/abhigyan-p512/subscription-management/app/models"
	"github.com/abhigyan-p512/subscription-management/internal/pkg/notification"
	"github.com/abhigyan-p512/subscription-management/internal/pkg/usercontext"
)

// NotificationController serves the authenticated user's notifications.
// All handlers assume the bearer-token middleware has run.
type NotificationController struct {
	service *notification.Service
}

func NewNotificationController(service *notification.Service) *NotificationController {
	return &NotificationController{service: service}
}

// HandleList returns the user's notifications, newest first. Supports
// ?unread=true and ?limit=N.
func (nc *NotificationController) HandleList(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	unreadOnly := c.QueryBool("unread", false)
	limit := c.QueryInt("limit", notification.DefaultListLimit)

	items, err := nc.service.List(c.Context(), userID, unreadOnly, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	payload := make([]fiber.Map, 0, len(items))
	for i := range items {
		payload = append(payload, notificationPayload(&items[i]))
	}

	return c.JSON(fiber.Map{"notifications": payload})
}

// HandleUnreadCount returns how many unread notifications the user has.
func (nc *NotificationController) HandleUnreadCount(c *fiber.Ctx) error {
	count, err := nc.service.UnreadCount(c.Context(), usercontext.GetUserID(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"unreadCount": count})
}

// HandleMarkRead marks a single notification as read. Marking an
// already-read notification succeeds without change.
func (nc *NotificationController) HandleMarkRead(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("notificationId"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid notification id"})
	}

	n, err := nc.service.MarkRead(c.Context(), uint(id), usercontext.GetUserID(c))
	if err != nil {
		if errors.Is(err, notification.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Notification not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"notification": notificationPayload(n)})
}

// HandleMarkAllRead marks every unread notification for the user as read.
func (nc *NotificationController) HandleMarkAllRead(c *fiber.Ctx) error {
	if err := nc.service.MarkAllRead(c.Context(), usercontext.GetUserID(c)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "All notifications marked as read"})
}

func notificationPayload(n *models.Notification) fiber.Map {
	return fiber.Map{
		"id":        n.ID,
		"type":      n.Type,
		"title":     n.Title,
		"message":   n.Message,
		"metadata":  n.MetadataJSON,
		"read":      n.Read,
		"createdAt": n.CreatedAt,
	}
}
