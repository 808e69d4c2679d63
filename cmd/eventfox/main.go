package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ManuelReschke/EventFox/app/controllers"
	"github.com/ManuelReschke/EventFox/app/repository"
	"github.com/ManuelReschke/EventFox/internal/pkg/billing"
	"github.com/ManuelReschke/EventFox/internal/pkg/cache"
	"github.com/ManuelReschke/EventFox/internal/pkg/constants"
	"github.com/ManuelReschke/EventFox/internal/pkg/database"
	"github.com/ManuelReschke/EventFox/internal/pkg/env"
	"github.com/ManuelReschke/EventFox/internal/pkg/ledgerexport"
	"github.com/ManuelReschke/EventFox/internal/pkg/mail"
	prommetrics "github.com/ManuelReschke/EventFox/internal/pkg/metrics/prometheus"
	"github.com/ManuelReschke/EventFox/internal/pkg/notify"
	"github.com/ManuelReschke/EventFox/internal/pkg/reaper"
	"github.com/ManuelReschke/EventFox/internal/pkg/router"
	"github.com/ManuelReschke/EventFox/internal/pkg/session"
)

func main() {
	app, stop := NewApplication()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		stop()
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

// NewApplication wires the billing service and its HTTP surface. The returned
// func stops background work.
func NewApplication() (*fiber.App, func()) {
	env.SetupEnvFile()
	ctx := context.Background()

	db, err := database.Connect(database.ConfigFromEnv())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	factory := repository.NewFactory(db)
	if env.GetEnvBool("DB_SEED_PLANS", true) {
		if err := database.SeedPlans(factory.GetPlanRepository()); err != nil {
			log.Fatalf("seed plans: %v", err)
		}
	}

	cacheCfg := cache.ConfigFromEnv()
	rdb := cache.NewClient(ctx, cacheCfg)

	cfg := billing.ConfigFromEnv()
	settings, err := factory.GetSettingRepository().GetPaymentSettings(cfg.PaymentDefaults)
	if err != nil {
		log.Fatalf("payment settings: %v", err)
	}

	// Prometheus
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := []billing.Option{
		billing.WithMetrics(prommetrics.NewMetrics(registry, cfg.MetricsNamespace)),
		billing.WithSettingsStore(factory.GetSettingRepository()),
	}
	if mailCfg := mail.ConfigFromEnv(); mailCfg.Enabled() {
		opts = append(opts, billing.WithDeliverer(notify.NewMailDeliverer(mail.NewSMTPMailer(mailCfg), cfg.PublicBaseURL)))
	} else {
		log.Println("SMTP_HOST not set, notifications are stored but not mailed")
	}
	service := billing.NewService(factory, *settings, opts...)

	// Reaper
	reaperCfg := reaper.ConfigFromEnv()
	sweeper := reaper.NewManager(reaperCfg, service, reaper.RedisLocker{Locker: cache.NewLocker(rdb)})
	if reaperCfg.Enabled {
		if err := sweeper.Start(); err != nil {
			log.Fatalf("reaper: %v", err)
		}
	}

	// Ledger export
	var exporter controllers.LedgerExporter
	exportCfg, err := ledgerexport.LoadConfig()
	if err != nil {
		log.Fatalf("ledger export: %v", err)
	}
	if exportCfg.IsEnabled() {
		uploader, err := ledgerexport.NewS3Uploader(ctx, exportCfg)
		if err != nil {
			log.Printf("ledger export disabled: %v", err)
		} else {
			exporter = ledgerexport.NewExporter(service, uploader, exportCfg.PageSize)
		}
	}

	// init fiber app
	app := fiber.New(fiber.Config{
		BodyLimit: 1 * 1024 * 1024,
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// SWAGGER / OPENAPI
	if _, err := os.Stat("public/docs/v1/openapi.yml"); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: constants.DocsRoute,
			FilePath: "public/docs/v1/openapi.yml",
			Path:     "v1",
		}))
	}

	// ROUTER
	router.InstallRouter(app, router.Dependencies{
		Sessions:        session.NewSessionStore(cacheCfg),
		Billing:         controllers.NewBillingController(service),
		Notifications:   controllers.NewNotificationController(service),
		AdminPayments:   controllers.NewAdminPaymentController(service, exporter, sweeper),
		AdminSettings:   controllers.NewAdminSettingsController(service),
		Gatherer:        registry,
		MetricsUser:     env.GetEnv("METRICS_USER", "admin"),
		MetricsPassword: env.GetEnv("METRICS_PASSWORD", ""),
	})

	return app, func() {
		sweeper.Stop()
		if err := rdb.Close(); err != nil {
			log.Printf("cache close: %v", err)
		}
	}
}
