package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/EventFox/internal/pkg/billing"
	"github.com/ManuelReschke/EventFox/internal/pkg/usercontext"
)

// NotificationController serves the customer's in-app notifications.
type NotificationController struct {
	service *billing.Service
}

func NewNotificationController(service *billing.Service) *NotificationController {
	return &NotificationController{service: service}
}

func (nc *NotificationController) HandleList(c *fiber.Ctx) error {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		return handleServiceError(c, err)
	}
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		return handleServiceError(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := nc.service.ListNotifications(ctx, usercontext.GetCustomerID(c), page, limit)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(result)
}

func (nc *NotificationController) HandleMarkRead(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := nc.service.MarkNotificationRead(ctx, usercontext.GetCustomerID(c), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
