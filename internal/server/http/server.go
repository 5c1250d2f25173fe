package httpserver

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
)

// New builds the fiber app with recovery, request ids, request logging,
// a liveness endpoint and the API routes.
func New(h *Handler, log *zap.Logger, requestTimeout time.Duration) *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:           requestTimeout,
		WriteTimeout:          requestTimeout,
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(RequestLogger(log.Named("http")))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	h.Register(app)
	return app
}
