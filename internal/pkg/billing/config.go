package billing

import (
	"github.com/ManuelReschke/EventFox/app/models"
	"github.com/ManuelReschke/EventFox/internal/pkg/env"
)

// Config is the environment side of the billing setup. Payment settings
// stored in the database override PaymentDefaults key by key.
type Config struct {
	PaymentDefaults  models.PaymentSettings
	PublicBaseURL    string
	MetricsNamespace string
}

// ConfigFromEnv reads PAYMENT_* and BILLING_* variables.
func ConfigFromEnv() Config {
	return Config{
		PaymentDefaults: models.PaymentSettings{
			BankName:      env.GetEnv("PAYMENT_BANK_NAME", ""),
			AccountHolder: env.GetEnv("PAYMENT_ACCOUNT_HOLDER", ""),
			AccountNumber: env.GetEnv("PAYMENT_ACCOUNT_NUMBER", ""),
			IBAN:          env.GetEnv("PAYMENT_IBAN", ""),
			SWIFT:         env.GetEnv("PAYMENT_SWIFT", ""),
			TimeoutHours:  env.GetEnvInt("PAYMENT_TIMEOUT_HOURS", models.DefaultPaymentTimeoutHours),
			Currency:      env.GetEnv("PAYMENT_CURRENCY", models.DefaultCurrency),
		},
		PublicBaseURL:    env.GetEnv("PUBLIC_DOMAIN", "http://localhost:4000"),
		MetricsNamespace: env.GetEnv("BILLING_METRICS_NAMESPACE", "eventfox"),
	}
}
