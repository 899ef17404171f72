package middleware

import (
	"net/http"

	"github.com/andreyxaxa/memories-server/internal/entity"
	"github.com/andreyxaxa/memories-server/internal/usecase"
	"github.com/andreyxaxa/memories-server/pkg/logger"
	"github.com/gofiber/fiber/v2"
)

const identityKey = "identity"

// MsgUnauthorized is returned for every token failure.
const MsgUnauthorized = "Access token either malformed or invalid"

// Auth rejects requests without a valid bearer token and stores the caller's
// identity in the request locals.
func Auth(tokens usecase.TokenUseCase, l logger.Interface) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		identity, err := tokens.VerifyToken(ctx.Get(fiber.HeaderAuthorization))
		if err != nil {
			l.Debug("restapi - middleware - Auth: %v", err)

			return ctx.Status(http.StatusUnauthorized).JSON(fiber.Map{"message": MsgUnauthorized})
		}

		ctx.Locals(identityKey, identity)

		return ctx.Next()
	}
}

// Identity returns the identity stored by Auth.
func Identity(ctx *fiber.Ctx) (entity.Identity, bool) {
	identity, ok := ctx.Locals(identityKey).(entity.Identity)

	return identity, ok
}
