// Package httpserver exposes the card engine over HTTP.
package httpserver

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/and161185/cardkeeper/internal/errs"
)

// Envelope wraps every response body.
type Envelope struct {
	Success bool   `json:"success"`
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func writeOK(c *fiber.Ctx, status int, msg string, data any) error {
	return c.Status(status).JSON(Envelope{Success: true, Status: status, Message: msg, Data: data})
}

// statusFor maps a domain error onto an HTTP status. Unknown errors are 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errs.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, errs.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, errs.ErrRateLimited):
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

func writeError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	msg := err.Error()
	switch status {
	case http.StatusNotFound:
		msg = "card not found"
	case http.StatusUnauthorized:
		msg = "authentication required"
	case http.StatusTooManyRequests:
		msg = "too many failed attempts, try again later"
	case http.StatusInternalServerError:
		// never leak storage details
		msg = "internal error"
	}
	return c.Status(status).JSON(Envelope{Success: false, Status: status, Message: msg})
}
