package ledgerexport

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ManuelReschke/EventFox/internal/pkg/env"
)

// Config holds the S3-compatible target of ledger exports
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services (R2, B2, MinIO)
	Enabled         bool
	PageSize        int
}

// LoadConfig loads export configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		AccessKeyID:     env.GetEnv("LEDGER_EXPORT_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("LEDGER_EXPORT_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("LEDGER_EXPORT_REGION", "auto"),
		BucketName:      env.GetEnv("LEDGER_EXPORT_BUCKET", ""),
		EndpointURL:     env.GetEnv("LEDGER_EXPORT_ENDPOINT_URL", ""),
		Enabled:         env.GetEnvBool("LEDGER_EXPORT_ENABLED", false),
		PageSize:        env.GetEnvInt("LEDGER_EXPORT_PAGE_SIZE", 100),
	}

	if config.Enabled {
		if config.AccessKeyID == "" {
			return nil, errors.New("LEDGER_EXPORT_ACCESS_KEY_ID is required when ledger export is enabled")
		}
		if config.SecretAccessKey == "" {
			return nil, errors.New("LEDGER_EXPORT_SECRET_ACCESS_KEY is required when ledger export is enabled")
		}
		if config.BucketName == "" {
			return nil, errors.New("LEDGER_EXPORT_BUCKET is required when ledger export is enabled")
		}
	}

	return config, nil
}

// IsEnabled returns true if ledger export is enabled
func (c *Config) IsEnabled() bool {
	return c.Enabled
}

// ObjectKey generates the object key of an export
func ObjectKey(status string, at time.Time) string {
	// Format: ledger/YYYY/MM/payments-<status>-<timestamp>.csv
	s := strings.ToLower(status)
	if s == "" {
		s = "all"
	}
	at = at.UTC()
	return fmt.Sprintf("ledger/%04d/%02d/payments-%s-%s.csv", at.Year(), int(at.Month()), s, at.Format("20060102T150405Z"))
}
