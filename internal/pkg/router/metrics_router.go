package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuelReschke/EventFox/internal/pkg/constants"
)

// MetricsRouter exposes the fiber monitor and the Prometheus registry
// behind basic auth.
type MetricsRouter struct {
	deps Dependencies
}

func (h MetricsRouter) InstallRouter(app *fiber.App) {
	if h.deps.MetricsPassword == "" {
		return
	}
	user := h.deps.MetricsUser
	if user == "" {
		user = "admin"
	}
	auth := basicauth.New(basicauth.Config{
		Users: map[string]string{
			user: h.deps.MetricsPassword,
		},
	})

	if h.deps.Gatherer != nil {
		app.Get(constants.PrometheusRoute, auth, adaptor.HTTPHandler(
			promhttp.HandlerFor(h.deps.Gatherer, promhttp.HandlerOpts{}),
		))
	}
	app.Get(constants.MetricsRoute, auth, monitor.New())
}

func NewMetricsRouter(deps Dependencies) *MetricsRouter {
	return &MetricsRouter{deps: deps}
}
