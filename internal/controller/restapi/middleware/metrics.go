package middleware

import (
	"errors"

	"github.com/andreyxaxa/memories-server/internal/infrastructure/metrics"
	"github.com/gofiber/fiber/v2"
)

// Metrics counts requests by matched route, so path parameters do not
// explode label cardinality.
func Metrics(m *metrics.Metrics) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()

		code := ctx.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}

		m.RecordHTTPRequest(ctx.Method(), ctx.Route().Path, code)

		return err
	}
}
