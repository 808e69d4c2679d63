package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/ManuelReschke/EventFox/internal/pkg/constants"
	"github.com/ManuelReschke/EventFox/internal/pkg/env"
	"github.com/ManuelReschke/EventFox/internal/pkg/middleware"
)

type ApiRouter struct {
	deps Dependencies
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group(constants.APIRoute, limiter.New(limiter.Config{
		Max:        env.GetEnvInt("API_RATE_LIMIT", 60),
		Expiration: 1 * time.Minute,
	}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// API v1 routes
	v1 := api.Group(constants.APIv1Route)
	if bc := h.deps.Billing; bc != nil {
		v1.Get("/billing/plans", bc.HandlePlans)
		v1.Get("/billing/entitlements", middleware.RequireCustomer, bc.HandleEntitlements)
		v1.Post("/billing/plan-change", middleware.RequireCustomer, bc.HandlePlanChange)
	}
	if nc := h.deps.Notifications; nc != nil {
		v1.Get("/notifications", middleware.RequireCustomer, nc.HandleList)
		v1.Post("/notifications/:id/read", middleware.RequireCustomer, nc.HandleMarkRead)
	}
}

func NewApiRouter(deps Dependencies) *ApiRouter {
	return &ApiRouter{deps: deps}
}
