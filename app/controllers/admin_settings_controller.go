package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/EventFox/app/models"
	"github.com/ManuelReschke/EventFox/internal/pkg/billing"
)

// AdminSettingsController lets admins maintain the bank-transfer details
// shown to customers.
type AdminSettingsController struct {
	service *billing.Service
}

func NewAdminSettingsController(service *billing.Service) *AdminSettingsController {
	return &AdminSettingsController{service: service}
}

// paymentSettingsRequest is a partial update. Omitted fields keep their
// current value.
type paymentSettingsRequest struct {
	BankName      *string `json:"bank_name" validate:"omitempty,max=255"`
	AccountHolder *string `json:"account_holder" validate:"omitempty,max=255"`
	AccountNumber *string `json:"account_number" validate:"omitempty,max=64"`
	IBAN          *string `json:"iban" validate:"omitempty,max=64"`
	SWIFT         *string `json:"swift" validate:"omitempty,max=16"`
	TimeoutHours  *int    `json:"timeout_hours"`
	Currency      *string `json:"currency" validate:"omitempty,max=3"`
}

func (r paymentSettingsRequest) apply(s models.PaymentSettings) models.PaymentSettings {
	if r.BankName != nil {
		s.BankName = *r.BankName
	}
	if r.AccountHolder != nil {
		s.AccountHolder = *r.AccountHolder
	}
	if r.AccountNumber != nil {
		s.AccountNumber = *r.AccountNumber
	}
	if r.IBAN != nil {
		s.IBAN = *r.IBAN
	}
	if r.SWIFT != nil {
		s.SWIFT = *r.SWIFT
	}
	if r.TimeoutHours != nil {
		s.TimeoutHours = *r.TimeoutHours
	}
	if r.Currency != nil {
		s.Currency = *r.Currency
	}
	return s
}

func (sc *AdminSettingsController) HandleGetPayment(c *fiber.Ctx) error {
	return c.JSON(sc.service.Settings())
}

// HandleUpdatePayment merges the body into the current settings, validates
// and stores them.
func (sc *AdminSettingsController) HandleUpdatePayment(c *fiber.Ctx) error {
	var req paymentSettingsRequest
	if err := bindJSON(c, &req); err != nil {
		return handleServiceError(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	settings, err := sc.service.UpdateSettings(ctx, req.apply(sc.service.Settings()))
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(settings)
}
