package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ManuelReschke/EventFox/app/controllers"
)

type Router interface {
	InstallRouter(app *fiber.App)
}

// Dependencies carries everything the routers mount.
type Dependencies struct {
	Sessions      *session.Store
	Billing       *controllers.BillingController
	Notifications *controllers.NotificationController
	AdminPayments *controllers.AdminPaymentController
	AdminSettings *controllers.AdminSettingsController

	Gatherer        prometheus.Gatherer
	MetricsUser     string
	MetricsPassword string
}

func InstallRouter(app *fiber.App, deps Dependencies) {
	// HttpRouter installs the UserContext middleware the other routers rely on.
	setup(app, NewHttpRouter(deps), NewApiRouter(deps), NewMetricsRouter(deps))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
