package middleware

import (
	"time"

	"github.com/andreyxaxa/memories-server/pkg/logger"
	"github.com/gofiber/fiber/v2"
)

func Logger(l logger.Interface) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		start := time.Now()

		err := ctx.Next()

		l.Info("%s %s %d %s request_id=%v",
			ctx.Method(),
			ctx.OriginalURL(),
			ctx.Response().StatusCode(),
			time.Since(start),
			ctx.Locals("requestid"),
		)

		return err
	}
}
