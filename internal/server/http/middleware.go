package httpserver

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/and161185/cardkeeper/internal/errs"
	"github.com/and161185/cardkeeper/internal/model"
)

// Authenticator resolves a bearer token into a caller.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (model.Caller, error)
}

// RequestLogger logs HTTP requests with method, path, status and duration.
func RequestLogger(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		reqID, _ := c.Locals("requestid").(string)
		if reqID == "" {
			reqID = c.Get(fiber.HeaderXRequestID)
		}
		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.OriginalURL()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("dur", time.Since(start)),
			zap.String("request_id", reqID),
		}
		if caller, ok := CallerFromCtx(c.UserContext()); ok {
			fields = append(fields, zap.Stringer("caller", caller.ID))
		}
		log.Info("http", fields...)
		return err
	}
}

// RequireCaller verifies the bearer token and stores the caller in the user context.
func RequireCaller(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		h := c.Get(fiber.HeaderAuthorization)
		if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
			return writeError(c, errs.ErrUnauthorized)
		}
		caller, err := auth.Authenticate(c.UserContext(), strings.TrimSpace(h[7:]))
		if err != nil {
			return writeError(c, err)
		}
		c.SetUserContext(WithCaller(c.UserContext(), caller))
		return c.Next()
	}
}
