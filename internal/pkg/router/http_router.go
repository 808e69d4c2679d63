package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/EventFox/internal/pkg/constants"
	"github.com/ManuelReschke/EventFox/internal/pkg/middleware"
)

// HttpRouter installs the session identity and the admin API.
type HttpRouter struct {
	deps Dependencies
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// Apply UserContext middleware globally as first middleware
	if h.deps.Sessions != nil {
		app.Use(middleware.UserContextMiddleware(h.deps.Sessions))
	}

	if h.deps.AdminPayments == nil && h.deps.AdminSettings == nil {
		return
	}
	adminGroup := app.Group(constants.AdminAPIRoute, middleware.RequireAdmin)

	if ac := h.deps.AdminPayments; ac != nil {
		adminGroup.Get("/payments", ac.HandleList)
		adminGroup.Post("/payments/export", ac.HandleExport)
		adminGroup.Get("/payments/:id", ac.HandleGet)
		adminGroup.Post("/payments/:id/approve", ac.HandleApprove)
		adminGroup.Post("/payments/:id/reject", ac.HandleReject)
		adminGroup.Post("/reaper/run", ac.HandleReaperRun)
	}
	if sc := h.deps.AdminSettings; sc != nil {
		adminGroup.Get("/settings/payment", sc.HandleGetPayment)
		adminGroup.Patch("/settings/payment", sc.HandleUpdatePayment)
	}
}

func NewHttpRouter(deps Dependencies) *HttpRouter {
	return &HttpRouter{deps: deps}
}
