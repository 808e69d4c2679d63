package constants

// Route constants shared by the routers and notification links
const (
	APIRoute        = "/api"
	APIv1Route      = "/v1"
	AdminAPIRoute   = "/admin/api"
	MetricsRoute    = "/metrics"
	PrometheusRoute = "/metrics/prometheus"
	DocsRoute       = "/docs/api/"

	// Served by the dashboard, linked from billing notifications
	DashboardBillingRoute = "/dashboard/billing"
)
