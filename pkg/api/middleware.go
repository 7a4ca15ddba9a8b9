package api

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/sirupsen/logrus"
)

const openAPIPath = "/api/v1/openapi.yaml"

func setupMiddleware(app *fiber.App, cfg *Config) {
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	if cfg.AccessLog {
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${status} - ${method} ${path}?${queryParams} (${latency})\n",
			Next: func(c fiber.Ctx) bool {
				return c.Path() == openAPIPath
			},
		}))
	}

	// Derive, create and update are POST/PUT; delete is DELETE
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.allowedOrigins(),
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
	}))
}

// newErrorHandler renders every error as {"error", "code"}. Handlers map
// catalog errors to fiber errors, so anything else is an internal failure.
func newErrorHandler(log logrus.FieldLogger) fiber.ErrorHandler {
	return func(c fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if !errors.As(err, &fiberErr) {
			log.WithError(err).WithFields(logrus.Fields{
				"method": c.Method(),
				"path":   c.Path(),
			}).Error("Unhandled API error")

			fiberErr = fiber.NewError(fiber.StatusInternalServerError, "Internal Server Error")
		}

		return c.Status(fiberErr.Code).JSON(fiber.Map{
			"error": fiberErr.Message,
			"code":  fiberErr.Code,
		})
	}
}
