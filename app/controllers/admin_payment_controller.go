package controllers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/EventFox/internal/pkg/billing"
	"github.com/ManuelReschke/EventFox/internal/pkg/ledgerexport"
	"github.com/ManuelReschke/EventFox/internal/pkg/reaper"
	"github.com/ManuelReschke/EventFox/internal/pkg/usercontext"
)

// LedgerExporter is implemented by ledgerexport.Exporter.
type LedgerExporter interface {
	Export(ctx context.Context, status string) (*ledgerexport.Result, error)
}

// ReaperRunner is implemented by reaper.Manager.
type ReaperRunner interface {
	RunOnce(ctx context.Context) (reaper.Report, error)
}

// AdminPaymentController serves the admin payment ledger and decisions.
type AdminPaymentController struct {
	service  *billing.Service
	exporter LedgerExporter
	reaper   ReaperRunner
}

// NewAdminPaymentController creates the controller. exporter and reaper may
// be nil when those features are disabled.
func NewAdminPaymentController(service *billing.Service, exporter LedgerExporter, reaper ReaperRunner) *AdminPaymentController {
	return &AdminPaymentController{service: service, exporter: exporter, reaper: reaper}
}

type approveRequest struct {
	TransactionID string `json:"transaction_id" validate:"omitempty,max=100"`
	Notes         string `json:"notes" validate:"omitempty,max=1000"`
}

type rejectRequest struct {
	Notes string `json:"notes" validate:"omitempty,max=1000"`
}

type exportRequest struct {
	Status string `json:"status" validate:"omitempty,oneof=PENDING COMPLETED FAILED pending completed failed"`
}

// HandleList returns one page of the ledger.
func (ac *AdminPaymentController) HandleList(c *fiber.Ctx) error {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		return handleServiceError(c, err)
	}
	limit, err := queryInt(c, "limit", 20)
	if err != nil {
		return handleServiceError(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := ac.service.ListPayments(ctx, billing.PaymentFilter{
		Status:     c.Query("status"),
		CustomerID: c.Query("customer_id"),
		Page:       page,
		Limit:      limit,
	})
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(result)
}

func (ac *AdminPaymentController) HandleGet(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	payment, err := ac.service.GetPayment(ctx, c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(payment)
}

// HandleApprove confirms a received bank transfer.
func (ac *AdminPaymentController) HandleApprove(c *fiber.Ctx) error {
	var req approveRequest
	if err := bindJSON(c, &req); err != nil {
		return handleServiceError(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	payment, err := ac.service.ApprovePayment(ctx, billing.AdminDecision{
		PaymentID:     c.Params("id"),
		AdminID:       usercontext.GetAdminID(c),
		TransactionID: req.TransactionID,
		Notes:         req.Notes,
	})
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(payment)
}

// HandleReject declines a pending payment.
func (ac *AdminPaymentController) HandleReject(c *fiber.Ctx) error {
	var req rejectRequest
	if err := bindJSON(c, &req); err != nil {
		return handleServiceError(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	payment, err := ac.service.RejectPayment(ctx, billing.AdminDecision{
		PaymentID: c.Params("id"),
		AdminID:   usercontext.GetAdminID(c),
		Notes:     req.Notes,
	})
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(payment)
}

// HandleExport uploads the ledger as CSV to object storage.
func (ac *AdminPaymentController) HandleExport(c *fiber.Ctx) error {
	if ac.exporter == nil {
		return errorResponse(c, fiber.StatusServiceUnavailable, "export_disabled", "ledger export is not configured", "")
	}

	var req exportRequest
	if err := bindJSON(c, &req); err != nil {
		return handleServiceError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), 2*requestTimeout)
	defer cancel()

	result, err := ac.exporter.Export(ctx, req.Status)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// HandleReaperRun triggers one sweep outside the schedule.
func (ac *AdminPaymentController) HandleReaperRun(c *fiber.Ctx) error {
	if ac.reaper == nil {
		return errorResponse(c, fiber.StatusServiceUnavailable, "reaper_disabled", "reaper is not configured", "")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	report, err := ac.reaper.RunOnce(ctx)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(report)
}
