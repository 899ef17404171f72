package v1

import (
	"errors"
	"net/http"

	"github.com/andreyxaxa/memories-server/internal/controller/restapi/middleware"
	"github.com/andreyxaxa/memories-server/internal/controller/restapi/v1/response"
	"github.com/andreyxaxa/memories-server/pkg/types/errs"
	"github.com/gofiber/fiber/v2"
)

const (
	msgBadBody       = "Request body is missing or malformed."
	msgImageNotFound = "Image not found."
	msgInternal      = "internal server error"
)

// errorResponse maps use case errors onto status codes. Unknown errors are
// logged by the caller and never leak to the client.
func errorResponse(ctx *fiber.Ctx, err error) error {
	var fe *errs.FieldError
	switch {
	case errors.As(err, &fe):
		return ctx.Status(http.StatusBadRequest).JSON(response.Error{Message: fe.Message, Field: fe.Field})
	case errors.Is(err, errs.ErrValidation):
		return ctx.Status(http.StatusBadRequest).JSON(response.Error{Message: validationMessage(err)})
	case errors.Is(err, errs.ErrAuth):
		return ctx.Status(http.StatusUnauthorized).JSON(response.Error{Message: middleware.MsgUnauthorized})
	case errors.Is(err, errs.ErrRecordNotFound):
		return ctx.Status(http.StatusNotFound).JSON(response.Error{Message: msgImageNotFound})
	default:
		return ctx.Status(http.StatusInternalServerError).JSON(response.InternalError{Error: msgInternal})
	}
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, errs.ErrNoFiles):
		return "At least one filename is required."
	case errors.Is(err, errs.ErrTooManyFiles):
		return "Too many files in one request."
	default:
		return msgBadBody
	}
}

func badBody(ctx *fiber.Ctx) error {
	return ctx.Status(http.StatusBadRequest).JSON(response.Error{Message: msgBadBody})
}
