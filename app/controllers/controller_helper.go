package controllers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/EventFox/internal/pkg/billing"
)

const requestTimeout = 15 * time.Second

var validate = validator.New()

// requestContext derives the context handed to the billing service.
func requestContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), requestTimeout)
}

// errorResponse writes the JSON error body used by every API handler.
func errorResponse(c *fiber.Ctx, status int, code, message, reason string) error {
	body := fiber.Map{
		"error":   code,
		"message": message,
	}
	if reason != "" {
		body["reason"] = reason
	}
	return c.Status(status).JSON(body)
}

// handleServiceError maps billing errors onto HTTP statuses.
func handleServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, billing.ErrValidation):
		return errorResponse(c, fiber.StatusBadRequest, "validation_error", err.Error(), "")
	case errors.Is(err, billing.ErrNotFound):
		return errorResponse(c, fiber.StatusNotFound, "not_found", err.Error(), "")
	case errors.Is(err, billing.ErrConcurrencyConflict):
		return errorResponse(c, fiber.StatusConflict, "conflict", err.Error(), billing.ReasonAlreadyProcessed)
	case errors.Is(err, billing.ErrPolicyViolation):
		return errorResponse(c, fiber.StatusConflict, "policy_violation", err.Error(), billing.Reason(err))
	case errors.Is(err, context.DeadlineExceeded):
		log.Warnf("[API] %s %s timed out", c.Method(), c.Path())
		return errorResponse(c, fiber.StatusGatewayTimeout, "timeout", "request timed out", "")
	default:
		log.Errorf("[API] %s %s failed: %v", c.Method(), c.Path(), err)
		return errorResponse(c, fiber.StatusInternalServerError, "internal_server_error", "internal error", "")
	}
}

// bindJSON parses and validates a request body. An empty body leaves dst
// untouched.
func bindJSON(c *fiber.Ctx, dst interface{}) error {
	if len(c.Body()) > 0 {
		if err := c.BodyParser(dst); err != nil {
			return &billing.ValidationError{Message: "invalid request body"}
		}
	}
	if err := validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return &billing.ValidationError{Field: fe.Field(), Message: "failed on '" + fe.Tag() + "'"}
		}
		return &billing.ValidationError{Message: err.Error()}
	}
	return nil
}

// queryInt reads an integer query parameter, falling back to def when absent.
func queryInt(c *fiber.Ctx, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &billing.ValidationError{Field: key, Message: "must be an integer"}
	}
	return v, nil
}
