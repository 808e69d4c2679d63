package ledgerexport

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/ManuelReschke/EventFox/internal/pkg/billing"
)

// Ledger is implemented by billing.Service.
type Ledger interface {
	ListPayments(ctx context.Context, filter billing.PaymentFilter) (*billing.PaymentPage, error)
}

// Uploader is implemented by S3Uploader.
type Uploader interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) (*UploadResult, error)
}

var header = []string{
	"id", "created_at", "customer", "email", "plan", "amount", "currency",
	"status", "transaction_id", "description",
}

// Result describes a finished export.
type Result struct {
	Rows   int           `json:"rows"`
	Upload *UploadResult `json:"upload"`
}

// Exporter writes the payment ledger as CSV to object storage.
type Exporter struct {
	ledger   Ledger
	uploader Uploader
	pageSize int
	now      func() time.Time
}

func NewExporter(ledger Ledger, uploader Uploader, pageSize int) *Exporter {
	if pageSize <= 0 || pageSize > billing.MaxPageLimit {
		pageSize = billing.MaxPageLimit
	}
	return &Exporter{
		ledger:   ledger,
		uploader: uploader,
		pageSize: pageSize,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Export pages through the ledger filtered by status ("" for all) and
// uploads the CSV.
func (e *Exporter) Export(ctx context.Context, status string) (*Result, error) {
	var buf bytes.Buffer
	rows, err := e.write(ctx, &buf, status)
	if err != nil {
		return nil, err
	}

	key := ObjectKey(status, e.now())
	upload, err := e.uploader.Upload(ctx, key, buf.Bytes(), "text/csv")
	if err != nil {
		return nil, err
	}
	return &Result{Rows: rows, Upload: upload}, nil
}

func (e *Exporter) write(ctx context.Context, w io.Writer, status string) (int, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return 0, err
	}

	rows := 0
	for page := 1; ; page++ {
		result, err := e.ledger.ListPayments(ctx, billing.PaymentFilter{Status: status, Page: page, Limit: e.pageSize})
		if err != nil {
			return rows, fmt.Errorf("list payments page %d: %w", page, err)
		}
		for _, p := range result.Payments {
			if err := cw.Write(record(p)); err != nil {
				return rows, err
			}
			rows++
		}
		if len(result.Payments) < e.pageSize || page >= result.TotalPages {
			break
		}
	}

	cw.Flush()
	return rows, cw.Error()
}

func record(p billing.PaymentView) []string {
	var customer, email, plan, trx string
	if p.Customer != nil {
		customer, email = p.Customer.Name, p.Customer.Email
	}
	if p.Subscription != nil && p.Subscription.Plan != nil {
		plan = p.Subscription.Plan.Name
	}
	if p.TransactionID != nil {
		trx = *p.TransactionID
	}
	return []string{
		p.ID,
		p.CreatedAt.UTC().Format(time.RFC3339),
		customer,
		email,
		plan,
		p.Amount.StringFixed(2),
		p.Currency,
		p.Status,
		trx,
		p.Description,
	}
}
