package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/EventFox/internal/pkg/billing"
	"github.com/ManuelReschke/EventFox/internal/pkg/usercontext"
)

// BillingController serves the customer-facing plan and entitlement API.
type BillingController struct {
	service *billing.Service
}

func NewBillingController(service *billing.Service) *BillingController {
	return &BillingController{service: service}
}

type planChangeRequest struct {
	PlanID string `json:"plan_id" validate:"required,max=64"`
}

// HandlePlans returns the active plan catalog.
func (bc *BillingController) HandlePlans(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	plans, err := bc.service.ListPlans(ctx)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(fiber.Map{"plans": plans})
}

// HandleEntitlements returns what the logged-in customer may access.
func (bc *BillingController) HandleEntitlements(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	ent, err := bc.service.GetEntitlements(ctx, usercontext.GetCustomerID(c))
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(ent)
}

// HandlePlanChange switches to a free plan or opens a bank-transfer payment.
func (bc *BillingController) HandlePlanChange(c *fiber.Ctx) error {
	var req planChangeRequest
	if err := bindJSON(c, &req); err != nil {
		return handleServiceError(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := bc.service.RequestPlanChange(ctx, usercontext.GetCustomerID(c), req.PlanID)
	if err != nil {
		return handleServiceError(c, err)
	}

	status := fiber.StatusCreated
	if result.Activated {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(result)
}
